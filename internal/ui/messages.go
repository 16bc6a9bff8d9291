// Package ui provides the Bubble Tea TUI for cycleglobe.
package ui

import (
	"time"

	"github.com/abelbrown/cycleglobe/internal/resolve"
	"github.com/abelbrown/cycleglobe/internal/scene"
	"github.com/abelbrown/cycleglobe/internal/store"
)

// FrameTick advances and redraws the globe.
type FrameTick struct {
	At time.Time
}

// ClockTick fires once per poll interval: the clock line updates and a poll
// starts unless one is already in flight.
type ClockTick struct {
	At time.Time
}

// CycleResolved is sent when a poll finishes. It always carries a state.
type CycleResolved struct {
	Report resolve.Report
}

// TexturesLoaded is sent when the day and lights maps have been fetched.
// On Err the procedural maps stay in place.
type TexturesLoaded struct {
	Day    scene.Texture
	Lights scene.Texture
	Err    error
}

// SourcesLoaded carries ledger stats for the sources panel.
type SourcesLoaded struct {
	Stats []store.SourceStats
	Err   error
}
