package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Roster     RosterConfig     `yaml:"roster"`
	Images     ImagesConfig     `yaml:"images"`
	Camera     CameraConfig     `yaml:"camera"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Match      MatchConfig      `yaml:"match"`
	Web        WebConfig        `yaml:"web"`
	Log        LogConfig        `yaml:"log"`
}

type RosterConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"` // empty means the first sheet of the workbook
}

type ImagesConfig struct {
	Dir string `yaml:"dir"` // one reference photo per enrolled student, file name = student name
}

type CameraConfig struct {
	Device string `yaml:"device"` // device index ("0") or a file path / stream URL
}

type RecognizerConfig struct {
	Backend   string `yaml:"backend"`    // "dlib" or "remote"
	ModelsDir string `yaml:"models_dir"` // dlib .dat model files
	URL       string `yaml:"url"`        // remote face embedding server
	Detector  string `yaml:"detector"`   // "cnn" or "hog"
}

type MatchConfig struct {
	Tolerance  float64 `yaml:"tolerance"`
	Index      string  `yaml:"index"`      // "linear" or "hnsw"
	Downsample int     `yaml:"downsample"` // live frames are shrunk by this factor before detection
}

type WebConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AllowedOrigins string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Addr returns the host:port the web UI listens on.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// envString overrides dst with the environment variable when it is set and non-empty.
func envString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

// envInt reads an environment variable and parses it as a positive integer.
// Keeps the current value if the env var is unset, empty, or invalid.
func envInt(key string, dst *int) {
	s := os.Getenv(key)
	if s == "" {
		return
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		*dst = n
	}
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, dst *float64) {
	s := os.Getenv(key)
	if s == "" {
		return
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		*dst = f
	}
}

func defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the embedded defaults overridden by environment variables.
func Load() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile overlays a YAML file on the embedded defaults, then applies environment variables.
// An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is from trusted flag
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString("ROSTER_PATH", &c.Roster.Path)
	envString("ROSTER_SHEET", &c.Roster.Sheet)
	envString("IMAGES_DIR", &c.Images.Dir)
	envString("CAMERA_DEVICE", &c.Camera.Device)
	envString("RECOGNIZER_BACKEND", &c.Recognizer.Backend)
	envString("RECOGNIZER_MODELS_DIR", &c.Recognizer.ModelsDir)
	envString("RECOGNIZER_URL", &c.Recognizer.URL)
	envString("RECOGNIZER_DETECTOR", &c.Recognizer.Detector)
	envFloat("MATCH_TOLERANCE", &c.Match.Tolerance)
	envString("MATCH_INDEX", &c.Match.Index)
	envInt("FRAME_DOWNSAMPLE", &c.Match.Downsample)
	envString("WEB_HOST", &c.Web.Host)
	envInt("WEB_PORT", &c.Web.Port)
	envString("WEB_ALLOWED_ORIGINS", &c.Web.AllowedOrigins)
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Recognizer.Backend {
	case "dlib", "remote":
	default:
		return fmt.Errorf("unknown recognizer backend %q (want dlib or remote)", c.Recognizer.Backend)
	}
	switch c.Recognizer.Detector {
	case "cnn", "hog":
	default:
		return fmt.Errorf("unknown detector model %q (want cnn or hog)", c.Recognizer.Detector)
	}
	switch c.Match.Index {
	case "linear", "hnsw":
	default:
		return fmt.Errorf("unknown match index %q (want linear or hnsw)", c.Match.Index)
	}
	if c.Match.Downsample < 1 {
		return fmt.Errorf("frame downsample factor must be >= 1, got %d", c.Match.Downsample)
	}
	if c.Match.Tolerance <= 0 {
		return fmt.Errorf("match tolerance must be > 0, got %v", c.Match.Tolerance)
	}
	return nil
}
