package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

const defaultRemoteURL = "http://localhost:8000"

// RemoteRecognizer computes face embeddings on an InsightFace-style embedding server.
type RemoteRecognizer struct {
	baseURL   string
	tolerance float64
	client    *http.Client
}

// NewRemoteRecognizer creates a client for the embedding server at baseURL.
func NewRemoteRecognizer(baseURL string, tolerance float64) *RemoteRecognizer {
	if baseURL == "" {
		baseURL = defaultRemoteURL
	}
	if tolerance <= 0 {
		tolerance = constants.DefaultTolerance
	}
	return &RemoteRecognizer{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		tolerance: tolerance,
		client:    &http.Client{},
	}
}

// FaceDetection represents a single detected face
type FaceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// FaceResponse represents the response from the face embedding endpoint
type FaceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []FaceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// postMultipartImage posts a JPEG image plus the detector model as a multipart form.
func (c *RemoteRecognizer) postMultipartImage(ctx context.Context, endpoint string, imageData []byte, model string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if model != "" {
		if err := writer.WriteField("detector", model); err != nil {
			return nil, fmt.Errorf("failed to write detector field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Detect implements Recognizer.
func (c *RemoteRecognizer) Detect(ctx context.Context, img image.Image, model string) ([]Face, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", buf.Bytes(), model)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(faceResp.Faces))
	for _, f := range faceResp.Faces {
		if len(f.BBox) != 4 || len(f.Embedding) == 0 {
			log.Warnf("recognizer: skipping malformed face %d from %s", f.FaceIndex, c.baseURL)
			continue
		}
		faces = append(faces, Face{
			Rect: image.Rect(
				int(math.Round(f.BBox[0])),
				int(math.Round(f.BBox[1])),
				int(math.Round(f.BBox[2])),
				int(math.Round(f.BBox[3])),
			),
			Embedding: f.Embedding,
		})
	}

	return faces, nil
}

// Compare implements Recognizer.
func (c *RemoteRecognizer) Compare(known [][]float32, candidate []float32) []bool {
	return CompareWithTolerance(known, candidate, c.tolerance)
}

// Close implements Recognizer.
func (c *RemoteRecognizer) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
