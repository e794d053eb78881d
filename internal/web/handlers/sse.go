package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// EventSource is a session whose events can be streamed.
type EventSource interface {
	AddListener() chan attendance.Event
	RemoveListener(ch chan attendance.Event)
	Snapshot() attendance.Snapshot
}

// setupSSEConnection sets the SSE headers. Returns false after writing an
// error response when the writer cannot stream.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// sendSSEEvent writes one event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// streamSSEEvents sends the current snapshot, then every session event until
// the client disconnects or the listener is closed. The stream stays open
// after the session stops so late notices still reach the page.
func streamSSEEvents(w http.ResponseWriter, r *http.Request, src EventSource) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := src.AddListener()
	defer src.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", src.Snapshot())

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, ev.Type, ev)
		}
	}
}
