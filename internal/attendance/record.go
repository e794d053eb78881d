// Package attendance keeps the per-session attendance state: who has been
// marked present, the operator notices and the loop state.
package attendance

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// Record is one attendance entry. Time is local wall-clock time formatted
// as YYYY-MM-DD HH:MM:SS.
type Record struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
	CID  string `json:"cid"`
	Time string `json:"time"`
}

// NewRecord creates a record for entry seen at t.
func NewRecord(entry roster.Entry, t time.Time) Record {
	return Record{
		Name: entry.Name,
		UID:  entry.UID,
		CID:  entry.CID,
		Time: t.Local().Format(constants.TimeLayout),
	}
}
