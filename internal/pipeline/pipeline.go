// Package pipeline runs the capture loop: read a frame, match it, publish it,
// until the operator stops the session or the camera fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

var log = event.Log

// Operator-facing messages.
const (
	msgOpenFailed   = "Could not access webcam."
	msgReadFailed   = "Could not read frame from webcam."
	msgCameraClosed = "Webcam closed."
)

// Source is an open frame source.
type Source interface {
	Read() (image.Image, error)
	Close() error
}

// Opener opens the frame source. It is called once per Run.
type Opener func() (Source, error)

// Processor handles a single frame.
type Processor interface {
	Process(ctx context.Context, frame image.Image) (matcher.Result, error)
}

// Sink receives every processed frame.
type Sink interface {
	Publish(frame image.Image)
}

// Loop wires a frame source to a processor for one session.
type Loop struct {
	Open      Opener
	Processor Processor
	Session   *attendance.Session
	Sink      Sink
}

// Run executes the loop until a stop is requested, ctx is cancelled or the
// source fails. The source is closed on every exit path and the session ends
// in the stopped state.
func (l *Loop) Run(ctx context.Context) (err error) {
	if err := l.Session.Start(); err != nil {
		return err
	}
	defer l.Session.Finish()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("pipeline: recovered from panic: %v", r)
			l.Session.Notify(event.LevelError, fmt.Sprintf("Frame loop stopped: %v", r))
			err = fmt.Errorf("frame loop panic: %v", r)
		}
	}()

	src, err := l.Open()
	if err != nil {
		l.Session.Notify(event.LevelError, msgOpenFailed)
		return fmt.Errorf("opening camera: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warnf("pipeline: closing camera: %v", cerr)
		}
		l.Session.Notify(event.LevelInfo, msgCameraClosed)
	}()

	frames := 0
	for {
		if l.Session.StopRequested() || ctx.Err() != nil {
			log.Infof("pipeline: stopped after %d frames", frames)
			return nil
		}

		frame, err := src.Read()
		if err != nil {
			l.Session.Notify(event.LevelError, msgReadFailed)
			return fmt.Errorf("reading frame: %w", err)
		}
		frames++

		res, err := l.Processor.Process(ctx, frame)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			l.Session.Notify(event.LevelWarning, fmt.Sprintf("Face recognition failed: %v", err))
		}

		if l.Sink != nil && res.Frame != nil {
			l.Sink.Publish(res.Frame)
		}
	}
}
