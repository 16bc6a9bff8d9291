package otel

import "testing"

func TestParseTraceMode(t *testing.T) {
	cases := map[string]TraceMode{
		"":       TraceOff,
		"off":    TraceOff,
		"0":      TraceOff,
		"1":      TraceMsgs,
		"msgs":   TraceMsgs,
		"frames": TraceFrames,
		" ALL ":  TraceFrames,
	}
	for in, want := range cases {
		if got := ParseTraceMode(in); got != want {
			t.Errorf("ParseTraceMode(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTraces(t *testing.T) {
	orig := TraceMode(traceMode.Load())
	defer setTraceMode(orig)

	setTraceMode(TraceOff)
	if Traces(false) || Traces(true) {
		t.Error("TraceOff should trace nothing")
	}

	setTraceMode(TraceMsgs)
	if !Traces(false) || Traces(true) {
		t.Error("TraceMsgs should trace messages but not frames")
	}

	setTraceMode(TraceFrames)
	if !Traces(false) || !Traces(true) {
		t.Error("TraceFrames should trace everything")
	}
}
