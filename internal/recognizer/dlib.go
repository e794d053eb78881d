package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/face-attendance/internal/constants"
)

// DlibRecognizer implements Recognizer with dlib via go-face.
// The models directory must contain:
// - shape_predictor_5_face_landmarks.dat
// - dlib_face_recognition_resnet_model_v1.dat
// - mmod_human_face_detector.dat (for the cnn detector)
type DlibRecognizer struct {
	rec       *face.Recognizer
	tolerance float64
	mu        sync.Mutex
}

// NewDlibRecognizer loads the dlib models from modelsDir.
func NewDlibRecognizer(modelsDir string, tolerance float64) (*DlibRecognizer, error) {
	log.Infof("recognizer: loading dlib models from %s", modelsDir)

	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models: %w", err)
	}

	if tolerance <= 0 {
		tolerance = constants.DefaultTolerance
	}

	return &DlibRecognizer{rec: rec, tolerance: tolerance}, nil
}

// Detect implements Recognizer. go-face decodes JPEG itself, so the image is
// re-encoded in RGB order before it is handed over.
func (r *DlibRecognizer) Detect(ctx context.Context, img image.Image, model string) ([]Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return nil, ErrClosed
	}

	var faces []face.Face
	var err error
	switch model {
	case constants.DetectorCNN:
		faces, err = r.rec.RecognizeCNN(buf.Bytes())
	case constants.DetectorHOG, "":
		faces, err = r.rec.Recognize(buf.Bytes())
	default:
		return nil, fmt.Errorf("unknown detector model %q", model)
	}
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	result := make([]Face, len(faces))
	for i, f := range faces {
		emb := make([]float32, len(f.Descriptor))
		copy(emb, f.Descriptor[:])
		result[i] = Face{Rect: f.Rectangle, Embedding: emb}
	}

	log.Debugf("recognizer: detected %d face(s) with %s model", len(result), model)
	return result, nil
}

// Compare implements Recognizer.
func (r *DlibRecognizer) Compare(known [][]float32, candidate []float32) []bool {
	return CompareWithTolerance(known, candidate, r.tolerance)
}

// Close implements Recognizer.
func (r *DlibRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec != nil {
		r.rec.Close()
		r.rec = nil
	}
	return nil
}
