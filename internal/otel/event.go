// Package otel provides structured observability for cycleglobe.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Poll events
	KindPollStart    EventKind = "poll.start"
	KindPollComplete EventKind = "poll.complete"
	KindPollSkipped  EventKind = "poll.skipped"
	KindFallback     EventKind = "poll.fallback"
	KindSourceOK     EventKind = "source.ok"
	KindSourceError  EventKind = "source.error"

	// Asset events
	KindAssetLoaded EventKind = "asset.loaded"
	KindAssetError  EventKind = "asset.error"

	// Server events
	KindServeStart  EventKind = "serve.start"
	KindClientJoin  EventKind = "serve.client_join"
	KindClientLeave EventKind = "serve.client_leave"

	// Store events
	KindStoreError EventKind = "store.error"

	// UI events
	KindKeyPress EventKind = "ui.key"
	KindResize   EventKind = "ui.resize"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "resolve", "ui", "scene", "serve", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	PollID    string         `json:"pid,omitempty"`        // poll correlation ID
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"`
	Phase     string         `json:"phase,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
