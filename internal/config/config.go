package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DataDir        string `envconfig:"DATA_DIR" default:"./data/projects"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	SnapThreshold     float64 `envconfig:"SNAP_THRESHOLD" default:"0.05"`
	PickThreshold     float64 `envconfig:"PICK_THRESHOLD" default:"0.002"`
	RotateSensitivity float64 `envconfig:"ROTATE_SENSITIVITY" default:"0.005"`
	MaxDocumentBytes  int64   `envconfig:"MAX_DOCUMENT_BYTES" default:"4194304"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into websocket origin patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LogLevel onto slog levels. Unknown names fall back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
