package event

import "time"

// Level classifies an operator-facing notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message shown to the operator.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier receives operator-facing notices.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes notices to the shared logger only.
type LogNotifier struct{}

// Notify logs message at the logrus level matching level.
func (LogNotifier) Notify(level Level, message string) {
	LogNotice(level, message)
}

// LogNotice writes a notice to the shared logger.
func LogNotice(level Level, message string) {
	switch level {
	case LevelError:
		Log.Error(message)
	case LevelWarning:
		Log.Warn(message)
	default:
		Log.Info(message)
	}
}
