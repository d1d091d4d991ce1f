package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-foreground/background"
	"github.com/nvr-ai/go-foreground/foreground"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, foreground.DefaultConfig(), cfg.Foreground)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Console)
	assert.Equal(t, "probabilities", cfg.Output.Dir)

	// Frames are the only required setting without a default.
	assert.Error(t, cfg.Validate())
	cfg.Input.Frames = "frames"
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.yaml")
	data := `
foreground:
  background:
    update_inertia: 4
    diff_method: rgb
  confident_size: 5
  cleaning:
    size: 3
input:
  frames: ./frames
  masks: ./masks
  max_width: 640
log:
  level: debug
  console: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4.0, cfg.Foreground.Background.UpdateInertia)
	// Absent keys keep their defaults.
	assert.Equal(t, 1.0, cfg.Foreground.Background.ErrorInertia)
	assert.Equal(t, foreground.CleaningMedian, cfg.Foreground.Cleaning.Method)
	assert.Equal(t, 3, cfg.Foreground.Cleaning.Size)
	assert.Equal(t, 5, cfg.Foreground.ConfidentSize)
	assert.Equal(t, InputConfig{Frames: "./frames", Masks: "./masks", MaxWidth: 640}, cfg.Input)
	assert.Equal(t, "probabilities", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("foreground: [1, 2"))
	assert.Error(t, err)

	_, err = Parse([]byte("foreground:\n  smoothing: 3\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"negative inertia", func(c *Config) { c.Foreground.Background.UpdateInertia = -1 }, nil},
		{"nan update inertia", func(c *Config) { c.Foreground.Background.UpdateInertia = math.NaN() }, nil},
		{"infinite error inertia", func(c *Config) { c.Foreground.Background.ErrorInertia = math.Inf(1) }, nil},
		{"even confident size", func(c *Config) { c.Foreground.ConfidentSize = 4 }, foreground.ErrInvalidConfig},
		{"unknown cleaning", func(c *Config) { c.Foreground.Cleaning.Method = "gaussian" }, background.ErrNotImplemented},
		{"negative max width", func(c *Config) { c.Input.MaxWidth = -1 }, nil},
		{"no output", func(c *Config) { c.Output.Dir = "" }, nil},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input.Frames = "frames"
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestParseNonFiniteInertia(t *testing.T) {
	for _, v := range []string{".nan", ".inf", "-.inf"} {
		cfg, err := Parse([]byte("foreground:\n  background:\n    update_inertia: " + v + "\ninput:\n  frames: f\n"))
		require.NoError(t, err, v)
		assert.Error(t, cfg.Validate(), v)
	}
}
