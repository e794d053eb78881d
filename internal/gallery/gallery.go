// Package gallery encodes the reference photos of enrolled students.
//
// Each file in the images directory contributes at most one reference face;
// the file name without its extension is the student's label.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize/english"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/recognizer"

	// Extra decoders for reference photos; JPEG, PNG and GIF come with imaging.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var log = event.Log

var (
	// ErrNoFace is returned by EncodeFile when the photo contains no detectable face.
	ErrNoFace = errors.New("no face detected")

	// ErrDecode is returned by EncodeFile when the file is not a readable image.
	ErrDecode = errors.New("could not decode image")
)

// Reference is one labelled reference face.
type Reference struct {
	Label     string    `json:"label"`
	Embedding []float32 `json:"-"`
}

// Gallery holds the reference faces as parallel label/embedding lists.
// It is built once and never modified while matching.
type Gallery struct {
	Labels     []string
	Embeddings [][]float32
}

// Len returns the number of reference faces.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Labels)
}

// Add appends a reference face.
func (g *Gallery) Add(ref Reference) {
	g.Labels = append(g.Labels, ref.Label)
	g.Embeddings = append(g.Embeddings, ref.Embedding)
}

// Reference returns the i-th reference face.
func (g *Gallery) Reference(i int) Reference {
	return Reference{Label: g.Labels[i], Embedding: g.Embeddings[i]}
}

// Label derives the identity label from a reference file name.
func Label(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Files lists the candidate reference files in dir, sorted by name.
// Sub-directories and hidden files are skipped.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// EncodeFile decodes a reference photo and returns the embedding of its first face.
func EncodeFile(ctx context.Context, path string, rec recognizer.Recognizer) (Reference, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	faces, err := rec.Detect(ctx, normalize(img), constants.DetectorHOG)
	if err != nil {
		return Reference{}, fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) == 0 {
		return Reference{}, ErrNoFace
	}

	return Reference{Label: Label(path), Embedding: faces[0].Embedding}, nil
}

// Load encodes every reference photo in dir. Problems with individual files are
// reported to n and the file is skipped; a missing directory yields an empty gallery.
func Load(ctx context.Context, dir string, rec recognizer.Recognizer, n event.Notifier) *Gallery {
	g := &Gallery{}

	files, err := Files(dir)
	if err != nil {
		n.Notify(event.LevelError, fmt.Sprintf("The folder '%s' does not exist. Please create it and add student images.", dir))
		return g
	}

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}

		name := filepath.Base(path)
		ref, err := EncodeFile(ctx, path, rec)
		switch {
		case errors.Is(err, ErrDecode):
			n.Notify(event.LevelWarning, fmt.Sprintf("Could not load %s. Skipping...", name))
		case errors.Is(err, ErrNoFace):
			n.Notify(event.LevelWarning, fmt.Sprintf("No face detected in %s. Skipping...", name))
		case err != nil:
			n.Notify(event.LevelWarning, fmt.Sprintf("Could not encode %s: %v. Skipping...", name, err))
		default:
			g.Add(ref)
			n.Notify(event.LevelSuccess, fmt.Sprintf("Encoded face for %s", name))
		}
	}

	n.Notify(event.LevelSuccess, fmt.Sprintf("Loaded %s: %s",
		english.Plural(g.Len(), "student face", ""), strings.Join(g.Labels, ", ")))
	return g
}

// normalize converts img to NRGBA so every backend receives RGB pixel data
// regardless of the source file's color model.
func normalize(img image.Image) image.Image {
	if _, ok := img.(*image.NRGBA); ok {
		return img
	}
	return imaging.Clone(img)
}
