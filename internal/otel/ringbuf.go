package otel

import "sync"

// DefaultRingSize is the capacity used when none is given.
const DefaultRingSize = 512

// Tally counts events by what they say about polling. It covers the whole
// session, including events already evicted from the buffer.
type Tally struct {
	PollsStarted int
	PollsDone    int
	PollsSkipped int
	SourceOK     int
	SourceErrors int
	Fallbacks    int
	AssetsLoaded int
	AssetErrors  int
	Total        uint64

	LastPollID string // most recent poll.start
	LastSource string // source of the most recent poll.complete
	LastPhase  string
}

// RingBuffer keeps the most recent events for the debug overlay plus a
// running Tally. Safe for concurrent use.
type RingBuffer struct {
	mu     sync.Mutex
	events []Event // grows to cap(events), then wraps
	next   uint64  // events ever pushed; next%cap is the write slot once full
	tally  Tally
}

// NewRingBuffer creates a ring buffer holding size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{events: make([]Event, 0, size)}
}

// Push adds an event, evicting the oldest when full. Extra is copied so
// callers can reuse their map.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) < cap(r.events) {
		r.events = append(r.events, e)
	} else {
		r.events[r.next%uint64(cap(r.events))] = e
	}
	r.next++
	r.count(e)
}

func (r *RingBuffer) count(e Event) {
	t := &r.tally
	t.Total++
	switch e.Kind {
	case KindPollStart:
		t.PollsStarted++
		t.LastPollID = e.PollID
	case KindPollComplete:
		t.PollsDone++
		t.LastSource = e.Source
		t.LastPhase = e.Phase
	case KindPollSkipped:
		t.PollsSkipped++
	case KindSourceOK:
		t.SourceOK++
	case KindSourceError:
		t.SourceErrors++
	case KindFallback:
		t.Fallbacks++
	case KindAssetLoaded:
		t.AssetsLoaded++
	case KindAssetError:
		t.AssetErrors++
	}
}

// ordered returns the buffered events oldest first. Caller holds mu.
func (r *RingBuffer) ordered() []Event {
	out := make([]Event, len(r.events))
	if len(r.events) < cap(r.events) {
		copy(out, r.events)
		return out
	}
	head := int(r.next % uint64(cap(r.events)))
	n := copy(out, r.events[head:])
	copy(out[n:], r.events[:head])
	return out
}

// Last returns up to n of the most recent events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return nil
	}
	all := r.ordered()
	if n > len(all) {
		n = len(all)
	}
	return all[len(all)-n:]
}

// Poll returns the buffered events for one poll ID, oldest first.
func (r *RingBuffer) Poll(pollID string) []Event {
	if pollID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.ordered() {
		if e.PollID == pollID {
			out = append(out, e)
		}
	}
	return out
}

// Tally returns the session counters.
func (r *RingBuffer) Tally() Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return cap(r.events)
}
