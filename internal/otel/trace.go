package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// TraceMode selects which UI messages are logged as trace events.
type TraceMode int32

const (
	TraceOff    TraceMode = iota
	TraceMsgs             // every message except render ticks
	TraceFrames           // everything, including ~30 frame ticks a second
)

var traceMode atomic.Int32

func init() {
	traceMode.Store(int32(ParseTraceMode(os.Getenv("CYCLEGLOBE_TRACE"))))
}

// ParseTraceMode reads a CYCLEGLOBE_TRACE value. "frames" or "all" traces
// render ticks too; any other non-empty value traces the rest.
func ParseTraceMode(s string) TraceMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "off", "false":
		return TraceOff
	case "frames", "all":
		return TraceFrames
	default:
		return TraceMsgs
	}
}

// Traces reports whether a message should be traced. frame marks render
// ticks, which only TraceFrames logs.
func Traces(frame bool) bool {
	m := TraceMode(traceMode.Load())
	if frame {
		return m >= TraceFrames
	}
	return m >= TraceMsgs
}

// setTraceMode overrides the mode for tests.
func setTraceMode(m TraceMode) {
	traceMode.Store(int32(m))
}
