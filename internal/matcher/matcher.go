// Package matcher identifies enrolled students in camera frames and marks
// their attendance.
package matcher

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

var log = event.Log

// Options tune matching.
type Options struct {
	// Model is the detector used on live frames ("cnn" or "hog").
	Model string

	// Downsample is the factor frames are shrunk by before detection.
	Downsample int

	// Index selects how the nearest reference is found ("linear" or "hnsw").
	Index string
}

// Detection is a recognized, enrolled student in a frame.
type Detection struct {
	Name     string          `json:"name"`
	UID      string          `json:"uid"`
	CID      string          `json:"cid"`
	Box      image.Rectangle `json:"box"`
	Distance float64         `json:"distance"`
	Marked   bool            `json:"marked"`
}

// Result is the outcome of processing one frame.
type Result struct {
	// Frame is the input frame with detections drawn on it.
	Frame      image.Image
	Detections []Detection
}

// Matcher matches faces in frames against the session's reference gallery.
type Matcher struct {
	rec     recognizer.Recognizer
	roster  *roster.Roster
	session *attendance.Session
	gallery *gallery.Gallery
	index   gallery.Index
	model   string
	factor  int
}

// New creates a matcher over the session's current gallery.
func New(rec recognizer.Recognizer, r *roster.Roster, s *attendance.Session, opts Options) (*Matcher, error) {
	g := s.Gallery()
	idx, err := gallery.NewIndex(opts.Index, g)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = constants.DetectorCNN
	}
	factor := opts.Downsample
	if factor < 1 {
		factor = constants.DefaultDownsample
	}

	return &Matcher{
		rec:     rec,
		roster:  r,
		session: s,
		gallery: g,
		index:   idx,
		model:   model,
		factor:  factor,
	}, nil
}

// Process detects faces in frame, marks attendance for recognized students
// and returns the annotated frame. On a recognizer error the returned result
// carries the unannotated frame.
func (m *Matcher) Process(ctx context.Context, frame image.Image) (Result, error) {
	small := Downsample(frame, m.factor)

	faces, err := m.rec.Detect(ctx, small, m.model)
	if err != nil {
		return Result{Frame: frame}, fmt.Errorf("detecting faces: %w", err)
	}

	now := m.session.Now()
	var detections []Detection
	for _, f := range faces {
		d, ok := m.match(f, now)
		if !ok {
			continue
		}
		d.Box = facematch.ScaleRect(f.Rect, m.factor).Add(frame.Bounds().Min)
		detections = append(detections, d)
	}

	return Result{Frame: Annotate(frame, detections), Detections: detections}, nil
}

// match resolves a face to an enrolled student.
func (m *Matcher) match(f recognizer.Face, now time.Time) (Detection, bool) {
	pos, dist, ok := m.index.Nearest(f.Embedding)
	if !ok {
		return Detection{}, false
	}
	if !m.rec.Compare([][]float32{m.gallery.Embeddings[pos]}, f.Embedding)[0] {
		log.Debugf("matcher: nearest reference %s at %.3f rejected", m.gallery.Labels[pos], dist)
		return Detection{}, false
	}

	name := m.gallery.Labels[pos]
	entry, ok := m.roster.Lookup(name)
	if !ok {
		m.session.Notify(event.LevelWarning, fmt.Sprintf("No UID/CID found for %s. Skipping...", name))
		return Detection{}, false
	}

	m.session.Notify(event.LevelSuccess, fmt.Sprintf("Recognized: %s | Attendance Marked for UID: %s, CID: %s",
		name, entry.UID, entry.CID))
	_, marked := m.session.Mark(entry, now)

	return Detection{
		Name:     name,
		UID:      entry.UID,
		CID:      entry.CID,
		Distance: dist,
		Marked:   marked,
	}, true
}
