package recognizer

import (
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// New builds the backend selected in the recognizer config.
func New(cfg *config.Config) (Recognizer, error) {
	switch cfg.Recognizer.Backend {
	case "dlib", "":
		return NewDlibRecognizer(cfg.Recognizer.ModelsDir, cfg.Match.Tolerance)
	case "remote":
		log.Infof("recognizer: using remote embedding server %s", cfg.Recognizer.URL)
		return NewRemoteRecognizer(cfg.Recognizer.URL, cfg.Match.Tolerance), nil
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Recognizer.Backend)
	}
}
