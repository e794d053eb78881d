package recognizer

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func setupMockEmbeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embed/face", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRemoteRecognizer_Detect(t *testing.T) {
	var gotDetector, gotContentType string
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotDetector = r.FormValue("detector")
		if _, header, err := r.FormFile("file"); err == nil {
			gotContentType = header.Header.Get("Content-Type")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FaceResponse{
			FacesCount: 2,
			Model:      "buffalo_l",
			Faces: []FaceDetection{
				{FaceIndex: 0, Dim: 3, Embedding: []float32{0.1, 0.2, 0.3}, BBox: []float64{10.4, 20.6, 30, 40}, DetScore: 0.9},
				{FaceIndex: 1, Dim: 3, Embedding: []float32{0.4, 0.5, 0.6}, BBox: []float64{1, 2}, DetScore: 0.8},
			},
		})
	})

	rec := NewRemoteRecognizer(server.URL+"/", 0.6)
	faces, err := rec.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 64, 48)), "cnn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotDetector != "cnn" {
		t.Errorf("expected detector field 'cnn', got '%s'", gotDetector)
	}
	if gotContentType != "image/jpeg" {
		t.Errorf("expected file content type 'image/jpeg', got '%s'", gotContentType)
	}

	// The malformed second face is dropped
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	if faces[0].Rect != image.Rect(10, 21, 30, 40) {
		t.Errorf("unexpected rect %v", faces[0].Rect)
	}
	if len(faces[0].Embedding) != 3 {
		t.Errorf("expected 3-d embedding, got %d", len(faces[0].Embedding))
	}
}

func TestRemoteRecognizer_DetectServerError(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	rec := NewRemoteRecognizer(server.URL, 0.6)
	_, err := rec.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), "hog")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestRemoteRecognizer_DetectBadJSON(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	rec := NewRemoteRecognizer(server.URL, 0.6)
	if _, err := rec.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), "hog"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRemoteRecognizer_Defaults(t *testing.T) {
	rec := NewRemoteRecognizer("", 0)
	if rec.baseURL != defaultRemoteURL {
		t.Errorf("expected default URL, got '%s'", rec.baseURL)
	}
	if rec.tolerance != 0.6 {
		t.Errorf("expected default tolerance 0.6, got %f", rec.tolerance)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestRemoteRecognizer_Compare(t *testing.T) {
	rec := NewRemoteRecognizer("", 1.0)
	flags := rec.Compare([][]float32{{0, 0}, {3, 4}}, []float32{0, 0.5})
	if !flags[0] || flags[1] {
		t.Errorf("unexpected flags %v", flags)
	}
}
