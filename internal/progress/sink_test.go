package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPlainSinkFormatsEvents(t *testing.T) {
	var out bytes.Buffer
	sink := NewPlainSink(&out)
	at := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	sink.now = func() time.Time { return at }

	sink.Emit(Event{Type: EventScanStarted, FileCount: 40})
	sink.Emit(Event{Type: EventFileSkipped, File: "assets/logo.js", Message: " binary content "})
	sink.Emit(Event{
		Type:  EventRuleError,
		File:  "app/views.py",
		Rule:  "py-missing-auth",
		Error: " runtime error: index out of range ",
	})
	sink.Emit(Event{Type: EventScanFinished, Status: "partial", FileCount: 39, FindingCount: 2, DurationMS: 17})
	sink.Emit(Event{Type: EventType("unknown")})

	want := []string{
		"[03:04:05] scanning 40 files",
		"[03:04:05] assets/logo.js skipped: binary content",
		"[03:04:05] rule py-missing-auth failed on app/views.py: runtime error: index out of range",
		"[03:04:05] scan partial files=39 findings=2 duration=17ms",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(got), out.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d:\nwant: %q\n got: %q", i, want[i], got[i])
		}
	}
}

func TestPlainSinkKeepsEventTimestamp(t *testing.T) {
	var out bytes.Buffer
	sink := NewPlainSink(&out)
	sink.Emit(Event{Type: EventFileScanned, At: time.Date(2025, 1, 1, 23, 59, 1, 0, time.UTC), File: "a.go"})
	if !strings.HasPrefix(out.String(), "[23:59:01] a.go findings=0") {
		t.Fatalf("unexpected line %q", out.String())
	}
}

func TestPlainSinkConcurrentEmitKeepsLinesWhole(t *testing.T) {
	var out bytes.Buffer
	sink := NewPlainSink(&out)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Emit(Event{Type: EventFileScanned, File: "pkg/file.go", FindingCount: 1})
		}()
	}
	wg.Wait()
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if !strings.HasSuffix(line, "pkg/file.go findings=1 duration=0ms") {
			t.Fatalf("interleaved or malformed line %q", line)
		}
	}
}

func TestNilAndNoopSinksAreSafe(t *testing.T) {
	var s *PlainSink
	s.Emit(Event{Type: EventScanStarted})
	NoopSink{}.Emit(Event{Type: EventScanStarted})

	var got []EventType
	SinkFunc(func(e Event) { got = append(got, e.Type) }).Emit(Event{Type: EventRuleError})
	if len(got) != 1 || got[0] != EventRuleError {
		t.Fatalf("SinkFunc did not forward: %v", got)
	}
}
