// Package camera reads frames from a capture device through OpenCV.
package camera

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/event"
	"gocv.io/x/gocv"
)

var log = event.Log

var (
	// ErrOpen is returned when the capture device cannot be opened.
	ErrOpen = errors.New("could not access webcam")

	// ErrRead is returned when a frame cannot be read.
	ErrRead = errors.New("could not read frame from webcam")
)

// Device returns the gocv capture target for a configured device:
// an integer index for local cameras, otherwise the string as a file path or stream URL.
func Device(device string) any {
	device = strings.TrimSpace(device)
	if device == "" {
		return 0
	}
	if idx, err := strconv.Atoi(device); err == nil && idx >= 0 {
		return idx
	}
	return device
}

// Webcam is an open capture device. Not safe for concurrent use.
type Webcam struct {
	device  string
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// Open opens the capture device.
func Open(device string) (*Webcam, error) {
	capture, err := gocv.OpenVideoCapture(Device(device))
	if err != nil {
		return nil, fmt.Errorf("%w: device %q: %w", ErrOpen, device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %q", ErrOpen, device)
	}

	log.Infof("camera: opened device %q", device)
	return &Webcam{
		device:  device,
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Read grabs the next frame and returns it as an RGBA image.
func (w *Webcam) Read() (image.Image, error) {
	if ok := w.capture.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, ErrRead
	}

	img, err := w.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return img, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	matErr := w.mat.Close()
	if err := w.capture.Close(); err != nil {
		return fmt.Errorf("closing device %q: %w", w.device, err)
	}
	if matErr != nil {
		return fmt.Errorf("releasing frame buffer: %w", matErr)
	}
	log.Infof("camera: closed device %q", w.device)
	return nil
}
