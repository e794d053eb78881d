// Package mock provides a mock implementation of recognizer.Recognizer for testing.
package mock

import (
	"context"
	"image"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
)

// MockRecognizer is a mock implementation of recognizer.Recognizer.
// Faces are looked up by the size of the image passed to Detect, so tests can
// tell reference photos and frames apart by their dimensions.
type MockRecognizer struct {
	mu     sync.Mutex
	bySize map[image.Point][]recognizer.Face

	// FacesFunc, when set, takes precedence over the size table
	FacesFunc func(img image.Image, model string) []recognizer.Face

	// Tolerance used by Compare (defaults to constants.DefaultTolerance)
	Tolerance float64

	// Error injection
	DetectError error
	CloseError  error

	// Call recording
	DetectCalls int
	Models      []string
	Sizes       []image.Point
	Closed      bool
}

// NewMockRecognizer creates a new mock recognizer
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{
		bySize:    make(map[image.Point][]recognizer.Face),
		Tolerance: constants.DefaultTolerance,
	}
}

// AddFaces registers the faces returned for images of the given size
func (m *MockRecognizer) AddFaces(width, height int, faces ...recognizer.Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySize[image.Pt(width, height)] = faces
}

// Detect returns the registered faces for the image size
func (m *MockRecognizer) Detect(ctx context.Context, img image.Image, model string) ([]recognizer.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := img.Bounds().Size()
	m.DetectCalls++
	m.Models = append(m.Models, model)
	m.Sizes = append(m.Sizes, size)

	if m.DetectError != nil {
		return nil, m.DetectError
	}
	if m.FacesFunc != nil {
		return m.FacesFunc(img, model), nil
	}
	return m.bySize[size], nil
}

// Compare flags known embeddings within Tolerance of candidate
func (m *MockRecognizer) Compare(known [][]float32, candidate []float32) []bool {
	return recognizer.CompareWithTolerance(known, candidate, m.Tolerance)
}

// Close marks the mock as closed
func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

// Calls returns the number of Detect calls so far
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DetectCalls
}

var _ recognizer.Recognizer = (*MockRecognizer)(nil)
