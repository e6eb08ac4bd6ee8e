package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/videosnatcherz/snatcher/internal/progress"
)

type sseEvent struct {
	Status     string `json:"status"`
	Percentage int    `json:"percentage"`
}

// parseEvents pulls the data payloads out of a recorded SSE body.
func parseEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var ev sseEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("bad event payload %q: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestProgressStreamEmitsOnChangeOnly(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	s.progressTick = 2 * time.Millisecond

	const id = "dl-sse"
	gap := 40 * time.Millisecond

	go func() {
		steps := []progress.Record{
			{Status: progress.StatusDownloading, Percentage: 0},
			{Status: progress.StatusDownloading, Percentage: 10},
			{Status: progress.StatusDownloading, Percentage: 10},
			{Status: progress.StatusDownloading, Percentage: 55},
			{Status: progress.StatusComplete, Percentage: 100},
		}
		for _, rec := range steps {
			s.tracker.Set(id, rec)
			time.Sleep(gap)
		}
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/progress/"+id, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req) // returns once the complete event fires

	events := parseEvents(t, w.Body.String())
	if len(events) == 0 || events[0].Status != "connected" {
		t.Fatalf("first event should be connected, got %+v", events)
	}

	var percentages []int
	for _, ev := range events[1:] {
		if ev.Status == progress.StatusComplete {
			continue
		}
		percentages = append(percentages, ev.Percentage)
	}
	want := []int{0, 10, 55}
	if len(percentages) != len(want) {
		t.Fatalf("percentages = %v, want %v", percentages, want)
	}
	for i := range want {
		if percentages[i] != want[i] {
			t.Fatalf("percentages = %v, want %v", percentages, want)
		}
	}

	last := events[len(events)-1]
	if last.Status != progress.StatusComplete || last.Percentage != 100 {
		t.Errorf("last event = %+v, want complete/100", last)
	}
}

func TestProgressStreamCompleteEmittedOnce(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	s.progressTick = 2 * time.Millisecond
	s.tracker.Set("done", progress.Record{Status: progress.StatusComplete, Percentage: 100})

	req := httptest.NewRequest(http.MethodGet, "/api/progress/done", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	events := parseEvents(t, w.Body.String())
	completes := 0
	for _, ev := range events {
		if ev.Status == progress.StatusComplete {
			completes++
		}
	}
	if completes != 1 {
		t.Errorf("complete emitted %d times, want exactly once; events = %+v", completes, events)
	}
}

func TestProgressStreamTimesOutWithoutRecord(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	s.progressTick = 2 * time.Millisecond
	s.maxEmptyTicks = 5

	req := httptest.NewRequest(http.MethodGet, "/api/progress/never-started", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	events := parseEvents(t, w.Body.String())
	if len(events) != 2 {
		t.Fatalf("events = %+v, want connected then timeout", events)
	}
	if events[1].Status != progress.StatusTimeout {
		t.Errorf("final event = %+v, want timeout", events[1])
	}
}

func TestProgressStreamEmptyTickBudgetResets(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	s.progressTick = 2 * time.Millisecond
	s.maxEmptyTicks = 8

	const id = "dl-slow"

	// Let the budget nearly drain, refresh the record, then finish. The
	// stream must survive past 8 empty ticks because the counter resets on
	// every hit.
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.tracker.Set(id, progress.Record{Status: progress.StatusDownloading, Percentage: 30})
		time.Sleep(30 * time.Millisecond)
		s.tracker.Set(id, progress.Record{Status: progress.StatusComplete, Percentage: 100})
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/progress/"+id, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	events := parseEvents(t, w.Body.String())
	last := events[len(events)-1]
	if last.Status != progress.StatusComplete {
		t.Errorf("final event = %+v, want complete", last)
	}
	for _, ev := range events {
		if ev.Status == progress.StatusTimeout {
			t.Errorf("stream timed out despite record updates; events = %+v", events)
		}
	}
}

func TestProgressStreamStopsOnClientDisconnect(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	s.progressTick = 2 * time.Millisecond
	s.maxEmptyTicks = 10000 // far beyond the test's patience

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/progress/abandoned", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Handler().ServeHTTP(w, req)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}

	for _, ev := range parseEvents(t, w.Body.String()) {
		if ev.Status == progress.StatusTimeout {
			t.Error("disconnect must not emit a timeout event")
		}
	}
}

func TestProgressStreamHeaders(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	s.progressTick = 2 * time.Millisecond
	s.maxEmptyTicks = 1

	req := httptest.NewRequest(http.MethodGet, "/api/progress/x", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q", got)
	}
}
