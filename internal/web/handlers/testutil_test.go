package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

var testTime = time.Date(2024, 3, 5, 8, 15, 30, 0, time.Local)

// testSession creates a session with a fixed clock and the given students marked present
func testSession(t *testing.T, names ...string) *attendance.Session {
	t.Helper()
	s := attendance.NewSession(attendance.WithClock(func() time.Time { return testTime }))
	for i, name := range names {
		s.Mark(roster.Entry{Name: name, UID: fmt.Sprintf("10%d", i+1), CID: "55"}, testTime)
	}
	return s
}
