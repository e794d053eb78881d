package attendance

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

var fixedTime = time.Date(2024, 3, 5, 8, 15, 30, 0, time.Local)

func newTestSession() *Session {
	return NewSession(WithClock(func() time.Time { return fixedTime }))
}

func TestMark(t *testing.T) {
	s := newTestSession()
	alice := roster.Entry{Name: "Alice", UID: "101", CID: "55"}

	rec, created := s.Mark(alice, fixedTime)
	if !created {
		t.Fatal("expected first sighting to create a record")
	}
	want := Record{Name: "Alice", UID: "101", CID: "55", Time: "2024-03-05 08:15:30"}
	if rec != want {
		t.Errorf("got %+v, want %+v", rec, want)
	}

	again, created := s.Mark(alice, fixedTime.Add(time.Minute))
	if created {
		t.Error("expected second sighting not to create a record")
	}
	if again != want {
		t.Errorf("expected the original record back, got %+v", again)
	}

	if got := s.Records(); len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if !s.Recognized("Alice") || s.Recognized("Bob") {
		t.Error("recognized set is wrong")
	}
}

func TestMark_Order(t *testing.T) {
	s := newTestSession()
	names := []string{"Carol", "Alice", "Bob", "Alice", "Carol"}
	for i, name := range names {
		s.Mark(roster.Entry{Name: name}, fixedTime.Add(time.Duration(i)*time.Second))
	}

	records := s.Records()
	want := []string{"Carol", "Alice", "Bob"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, name := range want {
		if records[i].Name != name {
			t.Errorf("records[%d] = %s, want %s", i, records[i].Name, name)
		}
	}
}

func TestMark_Concurrent(t *testing.T) {
	s := newTestSession()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mark(roster.Entry{Name: fmt.Sprintf("student-%d", i%5)}, fixedTime)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, r := range s.Records() {
		if seen[r.Name] {
			t.Errorf("duplicate record for %s", r.Name)
		}
		seen[r.Name] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 records, got %d", len(seen))
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	s := newTestSession()
	s.Mark(roster.Entry{Name: "Alice"}, fixedTime)

	records := s.Records()
	records[0].Name = "Mallory"

	if s.Records()[0].Name != "Alice" {
		t.Error("Records must not expose internal state")
	}
}

func TestStateTransitions(t *testing.T) {
	s := newTestSession()
	if s.State() != StateIdle {
		t.Fatalf("expected idle, got %s", s.State())
	}

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State() != StateRunning {
		t.Fatalf("expected running, got %s", s.State())
	}
	if err := s.Start(); err == nil {
		t.Error("expected error starting a running session")
	}

	s.RequestStop()
	if !s.StopRequested() {
		t.Error("expected stop to be requested")
	}
	if s.State() != StateRunning {
		t.Error("stop request alone must not change a running session")
	}

	s.Finish()
	s.Finish()
	if s.State() != StateStopped || !s.State().Terminal() {
		t.Fatalf("expected stopped, got %s", s.State())
	}
	if err := s.Start(); err == nil {
		t.Error("expected error restarting a stopped session")
	}
}

func TestRequestStop_Idle(t *testing.T) {
	s := newTestSession()
	s.RequestStop()
	if s.State() != StateStopped {
		t.Errorf("expected idle session to stop immediately, got %s", s.State())
	}
}

func TestNotify(t *testing.T) {
	s := newTestSession()
	ch := s.AddListener()
	defer s.RemoveListener(ch)

	s.Notify(event.LevelWarning, "No UID/CID found for Dave. Skipping...")

	notices := s.Notices()
	if len(notices) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(notices))
	}
	if notices[0].Level != event.LevelWarning || !notices[0].Time.Equal(fixedTime) {
		t.Errorf("unexpected notice %+v", notices[0])
	}

	select {
	case ev := <-ch:
		if ev.Type != EventNotice {
			t.Errorf("expected notice event, got %s", ev.Type)
		}
	default:
		t.Error("expected an event on the listener")
	}
}

func TestNotify_Capped(t *testing.T) {
	s := newTestSession()
	for i := range constants.MaxNotices + 10 {
		s.Notify(event.LevelInfo, fmt.Sprintf("notice %d", i))
	}

	notices := s.Notices()
	if len(notices) != constants.MaxNotices {
		t.Fatalf("expected %d notices, got %d", constants.MaxNotices, len(notices))
	}
	if notices[0].Message != "notice 10" {
		t.Errorf("expected oldest notices dropped, first is %q", notices[0].Message)
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSession()
	g := &gallery.Gallery{}
	g.Add(gallery.Reference{Label: "Alice", Embedding: []float32{0}})
	s.SetGallery(g)
	s.Mark(roster.Entry{Name: "Alice"}, fixedTime)

	snap := s.Snapshot()
	if snap.ID == "" || snap.ID != s.ID {
		t.Errorf("unexpected id %q", snap.ID)
	}
	if snap.State != StateIdle {
		t.Errorf("expected idle, got %s", snap.State)
	}
	if len(snap.Students) != 1 || snap.Students[0] != "Alice" {
		t.Errorf("unexpected students %v", snap.Students)
	}
	if snap.RecordCount != 1 {
		t.Errorf("expected 1 record, got %d", snap.RecordCount)
	}
}

func TestEventBroadcaster(t *testing.T) {
	var b EventBroadcaster
	ch := b.AddListener()
	if b.ListenerCount() != 1 {
		t.Fatalf("expected 1 listener, got %d", b.ListenerCount())
	}

	// overflow must not block
	for range constants.EventChannelBuffer + 5 {
		b.SendEvent(Event{Type: EventState})
	}
	if len(ch) != constants.EventChannelBuffer {
		t.Errorf("expected full buffer, got %d", len(ch))
	}

	b.RemoveListener(ch)
	if b.ListenerCount() != 0 {
		t.Error("expected listener removed")
	}
	for range ch {
	}
}
