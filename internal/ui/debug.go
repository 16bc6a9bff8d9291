package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/cycleglobe/internal/cycle"
	"github.com/abelbrown/cycleglobe/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing poll stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	t := ring.Tally()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Poll Stats"))
	lines = append(lines, fmt.Sprintf("  Polls:      %d started, %d complete, %d skipped",
		t.PollsStarted, t.PollsDone, t.PollsSkipped))
	lines = append(lines, fmt.Sprintf("  Sources:    %d ok, %d errors, %d fallbacks",
		t.SourceOK, t.SourceErrors, t.Fallbacks))
	lines = append(lines, fmt.Sprintf("  Assets:     %d loaded, %d errors",
		t.AssetsLoaded, t.AssetErrors))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events (%d total)", ring.Len(), ring.Cap(), t.Total))
	lines = append(lines, "")

	if attempts := pollAttempts(ring.Poll(t.LastPollID)); len(attempts) > 0 {
		lines = append(lines, DebugHeaderStyle.Render("Last Poll "+shortPollID(t.LastPollID)))
		lines = append(lines, attempts...)
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-18s", ageStr, string(e.Kind))
		if e.Source != "" {
			line += "  " + truncateRunes(e.Source, 24)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.PollID != "" {
			line += "  pid:" + shortPollID(e.PollID)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth(width, 96)).Render(content)
}

// pollAttempts renders one line per source tried in a poll, in order.
func pollAttempts(events []otel.Event) []string {
	var out []string
	for _, e := range events {
		switch e.Kind {
		case otel.KindSourceOK:
			out = append(out, fmt.Sprintf("  ok    %-24s %s", truncateRunes(e.Source, 24), formatAge(e.Dur)))
		case otel.KindSourceError:
			out = append(out, fmt.Sprintf("  fail  %-24s %s", truncateRunes(e.Source, 24), truncateRunes(e.Err, 40)))
		case otel.KindFallback:
			out = append(out, "  used  "+cycle.LocalSource)
		}
	}
	return out
}

func shortPollID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// panelWidth fits a panel of the preferred width into the terminal.
func panelWidth(width, preferred int) int {
	w := preferred
	if w > width-4 {
		w = width - 4
	}
	if w < 20 {
		w = 20
	}
	return w
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
