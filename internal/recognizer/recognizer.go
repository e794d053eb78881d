// Package recognizer abstracts the external face detector/encoder.
//
// The matcher and the reference encoder only depend on the Recognizer interface,
// so the dlib backend can be swapped for a remote embedding server (or a mock in
// tests) without touching matching or recording logic.
package recognizer

import (
	"context"
	"errors"
	"image"
	"math"

	"github.com/kozaktomas/face-attendance/internal/event"
	"gonum.org/v1/gonum/floats"
)

var log = event.Log

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("recognizer closed")

// Face is a detected face: its bounding box in the coordinates of the image
// passed to Detect and its embedding vector.
type Face struct {
	Rect      image.Rectangle
	Embedding []float32
}

// Recognizer detects faces and computes their embeddings.
type Recognizer interface {
	// Detect finds all faces in img with the given detector model ("cnn" or "hog").
	Detect(ctx context.Context, img image.Image, model string) ([]Face, error)

	// Compare reports for each known embedding whether candidate matches it
	// at the backend's tolerance.
	Compare(known [][]float32, candidate []float32) []bool

	// Close releases the backend.
	Close() error
}

// Distance returns the Euclidean distance between two embeddings.
// Embeddings of different length are infinitely far apart.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	return floats.Distance(toFloat64(a), toFloat64(b), 2)
}

// Distances returns the distance from candidate to every known embedding.
func Distances(known [][]float32, candidate []float32) []float64 {
	out := make([]float64, len(known))
	for i, k := range known {
		out[i] = Distance(k, candidate)
	}
	return out
}

// CompareWithTolerance flags each known embedding within tolerance of candidate.
func CompareWithTolerance(known [][]float32, candidate []float32, tolerance float64) []bool {
	out := make([]bool, len(known))
	for i, d := range Distances(known, candidate) {
		out[i] = d <= tolerance
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
