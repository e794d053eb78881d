package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/export"
)

// AttendanceHandler serves the attendance records.
type AttendanceHandler struct {
	session *attendance.Session
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(s *attendance.Session) *AttendanceHandler {
	return &AttendanceHandler{session: s}
}

// AttendanceResponse is the JSON view of the record list.
type AttendanceResponse struct {
	Records []attendance.Record `json:"records"`
	Count   int                 `json:"count"`
}

// List returns the records in marking order.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.session.Records()
	respondJSON(w, http.StatusOK, AttendanceResponse{Records: records, Count: len(records)})
}

// Export sends the records as an xlsx download.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := export.Bytes(h.session.Records())
	if errors.Is(err, export.ErrNoRecords) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Errorf("web: exporting attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", constants.ReportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+constants.ReportFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
