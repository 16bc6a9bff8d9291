package main

import (
	"strings"
	"testing"
)

const sampleLog = `{"t":"2024-01-01T00:00:01Z","level":"info","kind":"poll.start","comp":"resolve","pid":"a1b2c3d4e5f6"}
{"t":"2024-01-01T00:00:01Z","level":"warn","kind":"source.error","comp":"resolve","pid":"a1b2c3d4e5f6","source":"WarframeStat API","err":"HTTP error: 503","dur_ms":12.5}
not json
{"t":"2024-01-01T00:00:01Z","level":"info","kind":"poll.complete","comp":"resolve","pid":"a1b2c3d4e5f6","source":"Local Calculation","phase":"Day"}

{"t":"2024-01-01T00:00:02Z","level":"info","kind":"poll.start","comp":"resolve","pid":"ffff0000"}
`

func TestReadTailLinesKeepsLastN(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleLog), 2, eventFilter{}.match)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].ev.Kind != "poll.complete" || lines[1].ev.PollID != "ffff0000" {
		t.Errorf("wrong tail: %q, %q", lines[0].ev.Kind, lines[1].ev.PollID)
	}
}

func TestEventFilter(t *testing.T) {
	cases := []struct {
		name   string
		filter eventFilter
		want   int
	}{
		{"all", eventFilter{}, 4},
		{"kind prefix", eventFilter{kind: "poll"}, 3},
		{"min level", eventFilter{level: "warn"}, 1},
		{"pid prefix", eventFilter{pid: "a1b2c3d4"}, 3},
		{"source", eventFilter{source: "Local Calculation"}, 1},
		{"comp", eventFilter{comp: "ui"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := readTailLines(strings.NewReader(sampleLog), 50, tc.filter.match)
			if len(got) != tc.want {
				t.Errorf("got %d events, want %d", len(got), tc.want)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleLog), 50, eventFilter{level: "warn"}.match)
	if len(lines) != 1 {
		t.Fatalf("expected the source error, got %d", len(lines))
	}
	out := formatEvent(lines[0].ev)
	for _, want := range []string{"WARN", "source.error", "pid=a1b2c3d4", `src="WarframeStat API"`, "(12.5ms)", "err=HTTP error: 503"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted line missing %q: %s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("WarframeStat Summary", 10); got != "Warfram..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
