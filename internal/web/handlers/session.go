package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// SessionHandler exposes the attendance session state and the stop control.
type SessionHandler struct {
	session *attendance.Session
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(s *attendance.Session) *SessionHandler {
	return &SessionHandler{session: s}
}

// Get returns a snapshot of the session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// Stop asks the frame loop to stop. Repeated calls are harmless.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if !h.session.StopRequested() {
		log.Infof("web: stop requested from %s", sanitizeForLog(r.RemoteAddr))
	}
	h.session.RequestStop()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"stop_requested": true,
		"state":          h.session.State(),
	})
}

// Events streams session events via SSE.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r, h.session)
}
