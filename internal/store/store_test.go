package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen(t *testing.T) {
	st := openMemory(t)

	var name string
	err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='attempts'").Scan(&name)
	if err != nil {
		t.Fatalf("attempts table not created: %v", err)
	}
	if name != "attempts" {
		t.Errorf("expected table name 'attempts', got %q", name)
	}
}

func TestMemoryStoresAreSeparate(t *testing.T) {
	a := openMemory(t)
	b := openMemory(t)

	if err := a.RecordAttempt(Attempt{PollID: "p1", Source: "WarframeStat API", OK: true, At: time.Now()}); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	stats, err := b.SourceStats()
	if err != nil {
		t.Fatalf("SourceStats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("second in-memory store sees rows from the first: %+v", stats)
	}
	if stats, _ := a.SourceStats(); len(stats) != 1 {
		t.Errorf("first store should keep its row, got %+v", stats)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if err := st.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	st := openMemory(t)

	now := time.Now().Truncate(time.Millisecond)
	expiry := now.Add(3 * time.Minute)

	attempts := []Attempt{
		{PollID: "p1", Source: "A", OK: false, Err: "HTTP error: 503", Dur: 40 * time.Millisecond, At: now},
		{PollID: "p1", Source: "B", OK: true, IsDay: true, Expiry: expiry, Dur: 120 * time.Millisecond, At: now.Add(time.Millisecond)},
	}
	for _, a := range attempts {
		if err := st.RecordAttempt(a); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	got, err := st.RecentAttempts(10)
	if err != nil {
		t.Fatalf("RecentAttempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}

	// Newest first
	if got[0].Source != "B" || !got[0].OK || !got[0].IsDay {
		t.Errorf("unexpected newest attempt: %+v", got[0])
	}
	if !got[0].Expiry.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", got[0].Expiry, expiry)
	}
	if got[0].Dur != 120*time.Millisecond {
		t.Errorf("dur = %v", got[0].Dur)
	}
	if got[1].Err != "HTTP error: 503" || !got[1].Expiry.IsZero() {
		t.Errorf("unexpected failed attempt: %+v", got[1])
	}
}

func TestSourceStats(t *testing.T) {
	st := openMemory(t)
	now := time.Now()

	record := func(src string, ok bool, errStr string) {
		t.Helper()
		if err := st.RecordAttempt(Attempt{PollID: "p", Source: src, OK: ok, Err: errStr, At: now}); err != nil {
			t.Fatal(err)
		}
	}
	record("Primary", false, "timeout")
	record("Secondary", true, "")
	record("Primary", false, "HTTP error: 500")
	record("Primary", true, "")

	stats, err := st.SourceStats()
	if err != nil {
		t.Fatalf("SourceStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(stats))
	}

	if stats[0].Source != "Primary" {
		t.Errorf("expected first-seen order, got %s first", stats[0].Source)
	}
	if stats[0].OK != 1 || stats[0].Failed != 2 {
		t.Errorf("primary counts = %d ok / %d failed", stats[0].OK, stats[0].Failed)
	}
	if stats[0].LastErr != "HTTP error: 500" {
		t.Errorf("last error = %q", stats[0].LastErr)
	}
	if stats[1].LastErr != "" || stats[1].OK != 1 {
		t.Errorf("secondary stats = %+v", stats[1])
	}
}

func TestSourceStatsEmpty(t *testing.T) {
	st := openMemory(t)
	stats, err := st.SourceStats()
	if err != nil {
		t.Fatalf("SourceStats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("expected no stats, got %d", len(stats))
	}
}

func TestPrune(t *testing.T) {
	st := openMemory(t)
	for i := 0; i < 10; i++ {
		if err := st.RecordAttempt(Attempt{PollID: fmt.Sprintf("p%d", i), Source: "A", OK: true, At: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := st.Prune(4)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 6 {
		t.Errorf("removed = %d, want 6", removed)
	}

	got, _ := st.RecentAttempts(100)
	if len(got) != 4 {
		t.Fatalf("expected 4 left, got %d", len(got))
	}
	if got[0].PollID != "p9" || got[3].PollID != "p6" {
		t.Errorf("kept wrong rows: %s..%s", got[0].PollID, got[3].PollID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := openMemory(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			st.RecordAttempt(Attempt{PollID: fmt.Sprintf("p%d", i), Source: "A", OK: i%2 == 0, At: time.Now()})
		}(i)
		go func() {
			defer wg.Done()
			st.SourceStats()
		}()
	}
	wg.Wait()

	stats, err := st.SourceStats()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].OK+stats[0].Failed != 10 {
		t.Errorf("unexpected stats after concurrent writes: %+v", stats)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	st := openMemory(t)
	if err := st.createTables(); err != nil {
		t.Errorf("second createTables: %v", err)
	}
}
