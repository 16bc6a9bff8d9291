package otel

import "time"

// PollLog stamps one poll's events with its ID and component.
type PollLog struct {
	l    *Logger
	id   string
	comp string
}

// Poll returns a PollLog for pollID.
func (l *Logger) Poll(pollID, comp string) PollLog {
	return PollLog{l: l, id: pollID, comp: comp}
}

// Start records that a poll will try n sources.
func (p PollLog) Start(n int) {
	p.l.Emit(Event{Level: LevelDebug, Kind: KindPollStart, Comp: p.comp, PollID: p.id, Count: n})
}

// SourceOK records a source that answered.
func (p PollLog) SourceOK(source, phase string, dur time.Duration) {
	p.l.Emit(Event{Level: LevelDebug, Kind: KindSourceOK, Comp: p.comp, PollID: p.id, Source: source, Phase: phase, Dur: dur})
}

// SourceFailed records a source that did not.
func (p PollLog) SourceFailed(source string, err error, dur time.Duration) {
	e := Event{Level: LevelWarn, Kind: KindSourceError, Comp: p.comp, PollID: p.id, Source: source, Dur: dur}
	if err != nil {
		e.Err = err.Error()
	}
	p.l.Emit(e)
}

// Fallback records that every source failed after attempts tries.
func (p PollLog) Fallback(attempts int, phase string) {
	p.l.Emit(Event{Level: LevelInfo, Kind: KindFallback, Comp: p.comp, PollID: p.id, Count: attempts, Phase: phase})
}

// Complete records the state a poll settled on.
func (p PollLog) Complete(source, phase string, dur time.Duration) {
	p.l.Emit(Event{Level: LevelDebug, Kind: KindPollComplete, Comp: p.comp, PollID: p.id, Source: source, Phase: phase, Dur: dur})
}
