package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/event"
)

func TestSessionHandler_Get(t *testing.T) {
	s := testSession(t, "Alice")
	s.Notify(event.LevelSuccess, "Loaded 1 student face: Alice")
	handler := NewSessionHandler(s)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	var snap attendance.Snapshot
	if err := json.Unmarshal(recorder.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if snap.ID != s.ID || snap.State != attendance.StateIdle || snap.RecordCount != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(snap.Notices) != 1 {
		t.Errorf("expected 1 notice, got %d", len(snap.Notices))
	}
}

func TestSessionHandler_Stop(t *testing.T) {
	s := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	handler := NewSessionHandler(s)

	for range 2 {
		recorder := httptest.NewRecorder()
		handler.Stop(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/session/stop", nil))

		if recorder.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d", recorder.Code)
		}
	}

	if !s.StopRequested() {
		t.Error("expected stop requested")
	}
	// the frame loop owns the transition out of running
	if s.State() != attendance.StateRunning {
		t.Errorf("expected running until the loop exits, got %s", s.State())
	}
}

func TestSessionHandler_Events(t *testing.T) {
	s := testSession(t)
	handler := NewSessionHandler(s)

	server := httptest.NewServer(http.HandlerFunc(handler.Events))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected Content-Type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("reading stream: %v", err)
			}
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				return strings.TrimSpace(name)
			}
		}
	}

	if got := readEvent(); got != "status" {
		t.Fatalf("expected initial status event, got %q", got)
	}

	s.Notify(event.LevelWarning, "No UID/CID found for Dave. Skipping...")
	if got := readEvent(); got != attendance.EventNotice {
		t.Errorf("expected notice event, got %q", got)
	}
}
