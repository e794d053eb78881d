package handlers

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

const mjpegBoundary = "frame"

// FrameBroadcaster keeps the latest annotated frame as JPEG and fans it out
// to live stream clients. Publish never blocks on slow clients.
type FrameBroadcaster struct {
	mu        sync.RWMutex
	latest    []byte
	listeners []chan []byte
}

// NewFrameBroadcaster creates an empty broadcaster.
func NewFrameBroadcaster() *FrameBroadcaster {
	return &FrameBroadcaster{}
}

// Publish encodes frame and sends it to all listeners.
func (b *FrameBroadcaster) Publish(frame image.Image) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: constants.StreamJPEGQuality}); err != nil {
		log.Warnf("web: encoding frame: %v", err)
		return
	}
	data := buf.Bytes()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = data
	for _, ch := range b.listeners {
		select {
		case ch <- data:
		default:
			// Client is behind, drop the frame.
		}
	}
}

// Latest returns the most recent JPEG frame, or nil.
func (b *FrameBroadcaster) Latest() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}

// AddListener registers a frame listener.
func (b *FrameBroadcaster) AddListener() chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []byte, constants.FrameChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes a frame listener.
func (b *FrameBroadcaster) RemoveListener(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// StreamHandler serves the live feed as MJPEG.
type StreamHandler struct {
	frames *FrameBroadcaster
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(frames *FrameBroadcaster) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// Stream writes frames as multipart/x-mixed-replace until the client leaves.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := h.frames.AddListener()
	defer h.frames.RemoveListener(ch)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if latest := h.frames.Latest(); latest != nil {
		if err := writePart(w, latest); err != nil {
			return
		}
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if err := writePart(w, frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Snapshot returns the latest frame as a single JPEG.
func (h *StreamHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	latest := h.frames.Latest()
	if latest == nil {
		respondError(w, http.StatusNotFound, "no frame captured yet")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(latest)
}

func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
