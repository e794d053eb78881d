package attendance

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// Session is the state of one attendance run. It is safe for concurrent use:
// the frame loop writes, HTTP handlers read snapshots and request a stop.
type Session struct {
	EventBroadcaster

	ID        string
	StartedAt time.Time

	now func() time.Time

	mu         sync.RWMutex
	state      State
	gallery    *gallery.Gallery
	recognized map[string]struct{}
	records    []Record
	notices    []event.Notice

	stopRequested atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates an idle session with an empty gallery.
func NewSession(opts ...Option) *Session {
	s := &Session{
		ID:         uuid.New().String(),
		now:        time.Now,
		state:      StateIdle,
		gallery:    &gallery.Gallery{},
		recognized: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.StartedAt = s.now()
	return s
}

// Now returns the session clock's current time.
func (s *Session) Now() time.Time {
	return s.now()
}

// SetGallery installs the reference faces for this session.
func (s *Session) SetGallery(g *gallery.Gallery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gallery = g
}

// Gallery returns the reference faces.
func (s *Session) Gallery() *gallery.Gallery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gallery
}

// Notify records an operator notice, logs it and broadcasts it.
// Only the most recent notices are kept.
func (s *Session) Notify(level event.Level, message string) {
	event.LogNotice(level, message)

	n := event.Notice{Level: level, Message: message, Time: s.now()}

	s.mu.Lock()
	s.notices = append(s.notices, n)
	if over := len(s.notices) - constants.MaxNotices; over > 0 {
		s.notices = append(s.notices[:0:0], s.notices[over:]...)
	}
	s.mu.Unlock()

	s.SendEvent(Event{Type: EventNotice, Message: message, Data: n})
}

// Mark records attendance for entry at now. A name is marked at most once per
// session; later sightings return the existing record and false.
func (s *Session) Mark(entry roster.Entry, now time.Time) (Record, bool) {
	s.mu.Lock()
	if _, ok := s.recognized[entry.Name]; ok {
		defer s.mu.Unlock()
		for _, r := range s.records {
			if r.Name == entry.Name {
				return r, false
			}
		}
		return Record{}, false
	}

	rec := NewRecord(entry, now)
	s.recognized[entry.Name] = struct{}{}
	s.records = append(s.records, rec)
	s.mu.Unlock()

	s.SendEvent(Event{Type: EventRecord, Message: entry.Name, Data: rec})
	return rec, true
}

// Recognized reports whether name has been marked present.
func (s *Session) Recognized(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.recognized[name]
	return ok
}

// Records returns a copy of the attendance records in marking order.
func (s *Session) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Notices returns a copy of the retained notices, oldest first.
func (s *Session) Notices() []event.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// State returns the current loop state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start moves an idle session to running.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot start session in state %s", state)
	}
	s.state = StateRunning
	s.mu.Unlock()

	s.SendEvent(Event{Type: EventState, Data: StateRunning})
	return nil
}

// Finish moves the session to stopped. Calling it again is a no-op.
func (s *Session) Finish() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	s.mu.Unlock()

	s.stopRequested.Store(true)
	s.SendEvent(Event{Type: EventState, Data: StateStopped})
}

// RequestStop asks the frame loop to stop after the current iteration.
// An idle session stops immediately. Safe to call more than once.
func (s *Session) RequestStop() {
	s.stopRequested.Store(true)
	if s.State() == StateIdle {
		s.Finish()
	}
}

// StopRequested reports whether a stop was requested.
func (s *Session) StopRequested() bool {
	return s.stopRequested.Load()
}

// Snapshot is a read-only view of the session for the UI.
type Snapshot struct {
	ID          string         `json:"id"`
	State       State          `json:"state"`
	StartedAt   time.Time      `json:"started_at"`
	Students    []string       `json:"students"`
	RecordCount int            `json:"record_count"`
	Notices     []event.Notice `json:"notices"`
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]string, 0, s.gallery.Len())
	if s.gallery != nil {
		students = append(students, s.gallery.Labels...)
	}
	notices := make([]event.Notice, len(s.notices))
	copy(notices, s.notices)

	return Snapshot{
		ID:          s.ID,
		State:       s.state,
		StartedAt:   s.StartedAt,
		Students:    students,
		RecordCount: len(s.records),
		Notices:     notices,
	}
}
