package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Sink receives events from concurrent scan workers; implementations must be
// safe for concurrent use and must not block.
type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// PlainSink writes one line per event, serialized across workers.
type PlainSink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewPlainSink(w io.Writer) *PlainSink {
	return &PlainSink{w: w, now: time.Now}
}

func (s *PlainSink) Emit(e Event) {
	if s == nil || s.w == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	line, ok := plainLine(e)
	if !ok {
		return
	}
	s.mu.Lock()
	_, _ = io.WriteString(s.w, line+"\n")
	s.mu.Unlock()
}

func plainLine(e Event) (string, bool) {
	prefix := "[" + e.At.Format("15:04:05") + "] "
	switch e.Type {
	case EventScanStarted:
		return prefix + fmt.Sprintf("scanning %d files", e.FileCount), true
	case EventFileScanned:
		return prefix + fmt.Sprintf("%s findings=%d duration=%dms", e.File, e.FindingCount, e.DurationMS), true
	case EventFileSkipped:
		return prefix + fmt.Sprintf("%s skipped: %s", e.File, strings.TrimSpace(e.Message)), true
	case EventRuleError:
		return prefix + fmt.Sprintf("rule %s failed on %s: %s", e.Rule, e.File, strings.TrimSpace(e.Error)), true
	case EventScanFinished:
		return prefix + fmt.Sprintf("scan %s files=%d findings=%d duration=%dms", e.Status, e.FileCount, e.FindingCount, e.DurationMS), true
	}
	return "", false
}
