package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// fakeSource serves blank frames, failing after failAfter reads when set
type fakeSource struct {
	mu        sync.Mutex
	reads     int
	failAfter int
	closed    bool
}

func (f *fakeSource) Read() (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("read after close")
	}
	if f.failAfter > 0 && f.reads >= f.failAfter {
		return nil, camera.ErrRead
	}
	f.reads++
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeProcessor passes frames through and runs onFrame after each call
type fakeProcessor struct {
	calls   int
	err     error
	panicAt int
	onFrame func(n int)
}

func (p *fakeProcessor) Process(_ context.Context, frame image.Image) (matcher.Result, error) {
	p.calls++
	if p.panicAt > 0 && p.calls == p.panicAt {
		panic("detector exploded")
	}
	if p.onFrame != nil {
		p.onFrame(p.calls)
	}
	return matcher.Result{Frame: frame}, p.err
}

type countingSink struct {
	frames int
}

func (s *countingSink) Publish(image.Image) {
	s.frames++
}

func opener(src *fakeSource) Opener {
	return func() (Source, error) { return src, nil }
}

func hasNotice(s *attendance.Session, level event.Level, message string) bool {
	for _, n := range s.Notices() {
		if n.Level == level && n.Message == message {
			return true
		}
	}
	return false
}

func TestRun_StopMidLoop(t *testing.T) {
	session := attendance.NewSession()
	src := &fakeSource{}
	sink := &countingSink{}
	proc := &fakeProcessor{onFrame: func(n int) {
		if n == 3 {
			session.RequestStop()
		}
	}}

	loop := &Loop{Open: opener(src), Processor: proc, Session: session, Sink: sink}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.reads != 3 {
		t.Errorf("expected no reads after stop, got %d reads", src.reads)
	}
	if !src.closed {
		t.Error("expected camera closed")
	}
	if sink.frames != 3 {
		t.Errorf("expected 3 published frames, got %d", sink.frames)
	}
	if session.State() != attendance.StateStopped {
		t.Errorf("expected stopped, got %s", session.State())
	}
	if !hasNotice(session, event.LevelInfo, msgCameraClosed) {
		t.Error("expected camera closed notice")
	}
}

func TestRun_ReadFailure(t *testing.T) {
	session := attendance.NewSession()
	src := &fakeSource{failAfter: 2}

	loop := &Loop{Open: opener(src), Processor: &fakeProcessor{}, Session: session}
	err := loop.Run(context.Background())
	if !errors.Is(err, camera.ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}

	if !src.closed {
		t.Error("expected camera closed")
	}
	if !hasNotice(session, event.LevelError, msgReadFailed) {
		t.Errorf("expected read failure notice, got %v", session.Notices())
	}
	if session.State() != attendance.StateStopped {
		t.Errorf("expected stopped, got %s", session.State())
	}
}

func TestRun_OpenFailure(t *testing.T) {
	session := attendance.NewSession()
	proc := &fakeProcessor{}

	loop := &Loop{
		Open:      func() (Source, error) { return nil, camera.ErrOpen },
		Processor: proc,
		Session:   session,
	}
	err := loop.Run(context.Background())
	if !errors.Is(err, camera.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}

	if proc.calls != 0 {
		t.Error("expected loop to be skipped")
	}
	if !hasNotice(session, event.LevelError, msgOpenFailed) {
		t.Errorf("expected open failure notice, got %v", session.Notices())
	}
	if session.State() != attendance.StateStopped {
		t.Errorf("expected stopped, got %s", session.State())
	}
}

func TestRun_ProcessorErrorContinues(t *testing.T) {
	session := attendance.NewSession()
	src := &fakeSource{failAfter: 3}
	sink := &countingSink{}

	loop := &Loop{Open: opener(src), Processor: &fakeProcessor{err: errors.New("model hiccup")}, Session: session, Sink: sink}
	_ = loop.Run(context.Background())

	if sink.frames != 3 {
		t.Errorf("expected unannotated frames still published, got %d", sink.frames)
	}
	if !hasNotice(session, event.LevelWarning, "Face recognition failed: model hiccup") {
		t.Errorf("expected warning notice, got %v", session.Notices())
	}
}

func TestRun_Panic(t *testing.T) {
	session := attendance.NewSession()
	src := &fakeSource{}

	loop := &Loop{Open: opener(src), Processor: &fakeProcessor{panicAt: 2}, Session: session}
	if err := loop.Run(context.Background()); err == nil {
		t.Fatal("expected error after panic")
	}

	if !src.closed {
		t.Error("expected camera closed after panic")
	}
	if session.State() != attendance.StateStopped {
		t.Errorf("expected stopped, got %s", session.State())
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	session := attendance.NewSession()
	src := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())

	proc := &fakeProcessor{onFrame: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	loop := &Loop{Open: opener(src), Processor: proc, Session: session}
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.reads != 2 || !src.closed {
		t.Errorf("expected 2 reads and closed camera, got %d reads closed=%v", src.reads, src.closed)
	}
}

func TestRun_StoppedSessionCannotRestart(t *testing.T) {
	session := attendance.NewSession()
	session.RequestStop()

	opened := false
	loop := &Loop{
		Open:      func() (Source, error) { opened = true; return &fakeSource{}, nil },
		Processor: &fakeProcessor{},
		Session:   session,
	}
	if err := loop.Run(context.Background()); err == nil {
		t.Fatal("expected error running a stopped session")
	}
	if opened {
		t.Error("camera must not be opened for a stopped session")
	}
}
