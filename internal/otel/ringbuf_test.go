package otel

import (
	"sync"
	"testing"
)

func push(r *RingBuffer, kinds ...EventKind) {
	for i, k := range kinds {
		r.Push(Event{Kind: k, Count: i + 1})
	}
}

func TestLastOrder(t *testing.T) {
	r := NewRingBuffer(8)
	push(r, KindPollStart, KindSourceOK, KindPollComplete)

	got := r.Last(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, e := range got {
		if e.Count != i+1 {
			t.Errorf("event %d has count %d, want oldest first", i, e.Count)
		}
	}
}

func TestLastWrapped(t *testing.T) {
	r := NewRingBuffer(3)
	push(r, KindPollStart, KindSourceOK, KindPollComplete, KindPollStart, KindSourceError)

	got := r.Last(3)
	if got[0].Count != 3 || got[1].Count != 4 || got[2].Count != 5 {
		t.Errorf("expected [3 4 5], got [%d %d %d]", got[0].Count, got[1].Count, got[2].Count)
	}
	two := r.Last(2)
	if two[0].Count != 4 || two[1].Count != 5 {
		t.Errorf("expected [4 5], got [%d %d]", two[0].Count, two[1].Count)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want capped at 3", r.Len())
	}
}

func TestLastEmptyAndNegative(t *testing.T) {
	r := NewRingBuffer(4)
	if got := r.Last(5); got != nil {
		t.Errorf("empty buffer Last = %v", got)
	}
	r.Push(Event{Kind: KindStartup})
	if r.Last(0) != nil || r.Last(-1) != nil {
		t.Error("Last(n<=0) should be nil")
	}
}

func TestTallySurvivesEviction(t *testing.T) {
	r := NewRingBuffer(2)
	r.Push(Event{Kind: KindPollStart, PollID: "p1"})
	r.Push(Event{Kind: KindSourceError, PollID: "p1", Source: "WarframeStat API"})
	r.Push(Event{Kind: KindSourceError, PollID: "p1", Source: "Official World State"})
	r.Push(Event{Kind: KindFallback, PollID: "p1"})
	r.Push(Event{Kind: KindPollComplete, PollID: "p1", Source: "Local Calculation", Phase: "Night"})
	r.Push(Event{Kind: KindPollSkipped})
	r.Push(Event{Kind: KindAssetError})

	tally := r.Tally()
	if tally.PollsStarted != 1 || tally.PollsDone != 1 || tally.PollsSkipped != 1 {
		t.Errorf("poll counts = %+v", tally)
	}
	if tally.SourceErrors != 2 || tally.Fallbacks != 1 || tally.AssetErrors != 1 {
		t.Errorf("source/asset counts = %+v", tally)
	}
	if tally.Total != 7 {
		t.Errorf("Total = %d, want 7", tally.Total)
	}
	if tally.LastPollID != "p1" || tally.LastSource != "Local Calculation" || tally.LastPhase != "Night" {
		t.Errorf("last poll = %q %q %q", tally.LastPollID, tally.LastSource, tally.LastPhase)
	}
}

func TestPollFiltersByID(t *testing.T) {
	r := NewRingBuffer(16)
	r.Push(Event{Kind: KindPollStart, PollID: "p1"})
	r.Push(Event{Kind: KindPollStart, PollID: "p2"})
	r.Push(Event{Kind: KindSourceOK, PollID: "p1", Source: "WarframeStat API"})
	r.Push(Event{Kind: KindPollComplete, PollID: "p1"})

	got := r.Poll("p1")
	if len(got) != 3 {
		t.Fatalf("expected 3 events for p1, got %d", len(got))
	}
	if got[1].Source != "WarframeStat API" {
		t.Errorf("events out of order: %+v", got)
	}
	if r.Poll("") != nil {
		t.Error("empty poll ID should match nothing")
	}
}

func TestExtraIsCopied(t *testing.T) {
	r := NewRingBuffer(4)
	extra := map[string]any{"status": 503}
	r.Push(Event{Kind: KindSourceError, Extra: extra})
	extra["status"] = 200

	if got := r.Last(1)[0].Extra["status"]; got != 503 {
		t.Errorf("extra was aliased: got %v", got)
	}
}

func TestCapDefaults(t *testing.T) {
	if got := NewRingBuffer(64).Cap(); got != 64 {
		t.Errorf("Cap() = %d, want 64", got)
	}
	if got := NewRingBuffer(0).Cap(); got != DefaultRingSize {
		t.Errorf("Cap() = %d, want %d", got, DefaultRingSize)
	}
}

func TestConcurrentPushAndRead(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(Event{Kind: KindPollStart, PollID: "p"})
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Last(10)
				_ = r.Poll("p")
				_ = r.Tally()
			}
		}()
	}
	wg.Wait()

	if got := r.Tally().PollsStarted; got != 800 {
		t.Errorf("PollsStarted = %d, want 800", got)
	}
}

func TestRingBufferWithLogger(t *testing.T) {
	r := NewRingBuffer(16)
	l := NewNullLogger()
	l.SetRingBuffer(r)

	l.Emit(Event{Kind: KindStartup, Msg: "hello"})
	l.Emit(Event{Kind: KindShutdown, Msg: "bye"})
	l.Close()

	last := r.Last(2)
	if len(last) != 2 || last[0].Kind != KindStartup || last[1].Kind != KindShutdown {
		t.Errorf("ring contents = %+v", last)
	}
}
