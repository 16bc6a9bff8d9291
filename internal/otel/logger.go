package otel

// The drain goroutine is the only reader of l.ch and the only writer to l.w.
// Logger.mu guards l.buf alone; drain releases it before rb.Push.

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// writerChanSize is the capacity of the async write channel. One poll per
// second emits at most a handful of events, so this covers minutes of a
// stalled disk.
const writerChanSize = 2048

// logEntry carries the serialized line for disk and the Event for the ring
// buffer, so fields like Dur survive in the ring copy. data is nil for
// events below the file level; those still reach the ring.
type logEntry struct {
	data []byte
	ev   Event
}

var levelRank = map[Level]int32{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}

// Logger serializes events as JSONL via an async background writer.
// Goroutine-safe.
type Logger struct {
	mu        sync.Mutex
	buf       *RingBuffer // nil until SetRingBuffer
	sessionID string
	ch        chan logEntry
	w         io.Writer     // nil discards
	minLevel  atomic.Int32  // file threshold, see SetFileLevel
	dropped   atomic.Uint64 // full channel, encode failure, or write error
	closed    atomic.Bool
	done      chan struct{} // closed when drain exits
	closeOnce sync.Once
}

// NewLogger creates a Logger writing JSONL to w asynchronously.
// Call Close to flush and stop the drain goroutine.
func NewLogger(w io.Writer) *Logger {
	var sid [8]byte
	_, _ = rand.Read(sid[:])

	l := &Logger{
		sessionID: fmt.Sprintf("%x", sid[:]),
		ch:        make(chan logEntry, writerChanSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger creates a Logger that writes nothing. Events still reach an
// attached ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(nil)
}

// SetFileLevel drops events below lvl from the JSONL output. The ring
// buffer keeps every level so the debug overlay stays complete.
func (l *Logger) SetFileLevel(lvl Level) {
	l.minLevel.Store(levelRank[lvl])
}

func (l *Logger) drain() {
	defer close(l.done)
	for entry := range l.ch {
		if entry.data != nil {
			if _, err := l.w.Write(entry.data); err != nil {
				l.dropped.Add(1)
			}
		}

		l.mu.Lock()
		rb := l.buf
		l.mu.Unlock()

		if rb != nil {
			rb.Push(entry.ev)
		}
	}
}

// SessionID returns the random ID stamped on every event of this run.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Emit queues an event. Sets Time (if zero) and SessionID. Never blocks: when
// the channel is full or the logger is closed the event is counted as dropped.
// A send racing Close panics on the closed channel; that panic is recovered
// and counted too.
func (l *Logger) Emit(e Event) {
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	var data []byte
	if l.w != nil && levelRank[e.Level] >= l.minLevel.Load() {
		b, err := json.Marshal(e)
		if err != nil {
			l.dropped.Add(1)
			return
		}
		data = append(b, '\n')
	}

	select {
	case l.ch <- logEntry{data: data, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Debug emits a debug-level event.
func (l *Logger) Debug(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelDebug, Kind: kind, Comp: comp, Msg: msg})
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. Nil err is logged as an empty string.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: errStr})
}

// SetRingBuffer attaches a ring buffer for live inspection.
func (l *Logger) SetRingBuffer(buf *RingBuffer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = buf
}

// Dropped returns the number of events dropped since creation.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes pending events, stops the drain goroutine, and reports
// dropped events to stderr. Concurrent Emit calls are dropped, not panicked.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done

		if d := l.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "cycleglobe: %d events dropped during session %s\n", d, l.sessionID)
		}
	})
}
