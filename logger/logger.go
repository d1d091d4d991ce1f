// Package logger builds the zerolog loggers used by the segmentation command.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config controls the log level and output format.
type Config struct {
	// Level is one of trace, debug, info, warn, error or disabled.
	Level string `json:"level" yaml:"level"`
	// Console selects the human readable console writer instead of JSON lines.
	Console bool `json:"console" yaml:"console"`
}

// DefaultConfig returns info level JSON logging.
func DefaultConfig() Config {
	return Config{Level: "info"}
}

// ParseLevel converts a level name to a zerolog level. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", name)
	}
	return level, nil
}

// New creates a timestamped logger writing to w, or to stderr when w is nil.
//
// Arguments:
//   - cfg: The level and format.
//   - w: The destination.
//
// Returns:
//   - zerolog.Logger: The logger.
//   - error: If the level name is unknown.
func New(cfg Config, w io.Writer) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if w == nil {
		w = os.Stderr
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// Component returns a child logger tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
