// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultTolerance is the maximum Euclidean distance between two 128-d face
	// descriptors for them to be considered the same person.
	// Lower values = stricter matching
	DefaultTolerance = 0.6

	// DefaultDownsample is the factor live frames are shrunk by before detection.
	// Detections are scaled back up by the same factor for drawing.
	DefaultDownsample = 4

	// DetectorCNN selects the CNN (mmod) face detector.
	DetectorCNN = "cnn"

	// DetectorHOG selects the faster HOG face detector.
	DetectorHOG = "hog"

	// HNSWMaxNeighbors is the M parameter of the optional reference index graph
	HNSWMaxNeighbors = 16
)

// Attendance report constants
const (
	// ReportSheet is the name of the single sheet in the exported workbook
	ReportSheet = "Attendance"

	// ReportFileName is the download name of the exported workbook
	ReportFileName = "attendance_report.xlsx"

	// ReportContentType is the MIME type of xlsx workbooks
	ReportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// TimeLayout formats attendance timestamps as YYYY-MM-DD HH:MM:SS
	TimeLayout = "2006-01-02 15:04:05"
)

// Roster column headers
const (
	RosterNameColumn = "Name"
	RosterCIDColumn  = "CID"
	RosterUIDColumn  = "UID"
)
