// Package constants provides shared constants used across the codebase.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for session event listeners
	EventChannelBuffer = 100

	// FrameChannelBuffer is the buffer size for live frame listeners.
	// Slow viewers drop frames instead of stalling the frame loop.
	FrameChannelBuffer = 2
)

// Live feed constants
const (
	// StreamJPEGQuality is the JPEG quality of frames sent to the live feed
	StreamJPEGQuality = 75

	// MaxNotices is the number of operator notices kept in the session log
	MaxNotices = 500
)
