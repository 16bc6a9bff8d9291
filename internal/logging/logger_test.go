package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestInitWriterLevels(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	InitWriter(&buf, log.WarnLevel)

	Info("hidden")
	Warn("source failed", "source", "WarframeStat API")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "source failed") || !strings.Contains(out, "WarframeStat API") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	Logger = nil
	Info("x")
	Debug("x")
	Warn("x")
	Error("x")
}

func TestInitCreatesDatedFile(t *testing.T) {
	defer func() { Logger = nil }()

	dir := t.TempDir()
	if err := Init(dir, log.DebugLevel); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Close()

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "cycleglobe-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cycleglobe started") {
		t.Errorf("startup line missing: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != log.DebugLevel {
		t.Error("debug")
	}
	if ParseLevel("bogus") != log.InfoLevel {
		t.Error("unknown level should default to info")
	}
}

func TestPruneOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	for _, name := range []string{
		"cycleglobe-2024-02-01.log", // old
		"cycleglobe-2024-03-02.log", // old, just past the window
		"cycleglobe-2024-03-04.log", // kept
		"cycleglobe-2024-03-10.log", // today
		"cycleglobe-notes.log",      // not dated
		"other-2020-01-01.log",      // not ours
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if got := prune(dir, now, 7); got != 2 {
		t.Errorf("removed %d files, want 2", got)
	}
	left, _ := filepath.Glob(filepath.Join(dir, "*.log"))
	if len(left) != 4 {
		t.Errorf("expected 4 files left, got %v", left)
	}
}

func TestAlsoToMirrors(t *testing.T) {
	defer func() { Logger = nil }()

	dir := t.TempDir()
	if err := Init(dir, log.InfoLevel); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var mirror bytes.Buffer
	AlsoTo(&mirror, log.DebugLevel)
	Debug("poll tick", "n", 3)
	Close()

	if !strings.Contains(mirror.String(), "poll tick") {
		t.Errorf("mirror missing line: %q", mirror.String())
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "logs", "cycleglobe-*.log"))
	data, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(data), "poll tick") {
		t.Errorf("file missing mirrored line: %q", data)
	}
}
