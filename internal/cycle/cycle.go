// Package cycle holds the day/night cycle model and the local fallback clock.
//
// The local formula is the source of truth the remote APIs approximate: a
// fixed reference instant, a four minute day and an eight minute full cycle.
package cycle

import (
	"fmt"
	"time"
)

const (
	// DayLength is the daylight portion at the start of every cycle.
	DayLength = 4 * time.Minute

	// CycleLength is one full day plus night.
	CycleLength = 8 * time.Minute

	// NightLength is what remains of a cycle after the day.
	NightLength = CycleLength - DayLength

	// LocalSource labels states produced by Local.
	LocalSource = "Local Calculation"
)

// Reference is the instant the first cycle starts at.
var Reference = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// State is one resolved reading of the cycle. Produced fresh each poll.
type State struct {
	IsDay  bool
	Expiry time.Time // next day/night transition
	Source string
}

// Elapsed returns how far into the current cycle now is, in [0, CycleLength).
// Instants before Reference wrap the same way as instants after it.
func Elapsed(now time.Time) time.Duration {
	e := now.Sub(Reference) % CycleLength
	if e < 0 {
		e += CycleLength
	}
	return e
}

// Local computes the cycle from the clock alone. It never fails.
func Local(now time.Time) State {
	elapsed := Elapsed(now)
	isDay := elapsed < DayLength

	next := CycleLength
	if isDay {
		next = DayLength
	}

	return State{
		IsDay:  isDay,
		Expiry: now.Add(next - elapsed),
		Source: LocalSource,
	}
}

// Remaining returns the time until s flips, clamped at zero for stale expiries.
func (s State) Remaining(now time.Time) time.Duration {
	d := s.Expiry.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Phase returns "Day" or "Night".
func (s State) Phase() string {
	return PhaseName(s.IsDay)
}

// PhaseName returns the display name for a phase.
func PhaseName(isDay bool) string {
	if isDay {
		return "Day"
	}
	return "Night"
}

// Countdown formats d as "<m>m <s>s" using whole minutes and seconds.
// Negative durations render as "0m 0s".
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%dm %ds", ms/60000, (ms/1000)%60)
}
