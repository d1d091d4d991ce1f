// Package config loads the YAML configuration of the segmentation command.
//
// Example:
//
//	foreground:
//	  background:
//	    update_inertia: 4
//	    error_inertia: 9
//	    diff_method: rgb
//	  confident_size: 5
//	  cleaning:
//	    method: median
//	    size: 5
//	input:
//	  frames: ./frames
//	  masks: ./masks
//	  max_width: 640
//	output:
//	  dir: ./out
//	log:
//	  level: debug
//	  console: true
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/nvr-ai/go-foreground/foreground"
	"github.com/nvr-ai/go-foreground/logger"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// InputConfig locates the frames and rough masks.
type InputConfig struct {
	// Frames is the directory of numbered frames.
	Frames string `json:"frames" yaml:"frames"`
	// Masks is the directory of numbered rough foreground masks. Optional.
	Masks string `json:"masks" yaml:"masks"`
	// MaxWidth downscales wider frames; 0 keeps the original size.
	MaxWidth int `json:"max_width" yaml:"max_width"`
}

// OutputConfig locates the probability maps.
type OutputConfig struct {
	// Dir receives one prob-N.png per frame.
	Dir string `json:"dir" yaml:"dir"`
}

// Config is the complete configuration of a segmentation run.
type Config struct {
	Foreground foreground.Config `json:"foreground" yaml:"foreground"`
	Input      InputConfig       `json:"input" yaml:"input"`
	Output     OutputConfig      `json:"output" yaml:"output"`
	Log        logger.Config     `json:"log" yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Foreground: foreground.DefaultConfig(),
		Output:     OutputConfig{Dir: "probabilities"},
		Log:        logger.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep their
// default value; unknown keys are rejected.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The merged configuration. It is not validated.
//   - error: If the file cannot be read or parsed.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	return cfg, nil
}

// Validate checks the segmentation parameters and the required paths.
func (c Config) Validate() error {
	if err := c.Foreground.Background.Validate(); err != nil {
		return err
	}
	if err := c.Foreground.Validate(); err != nil {
		return err
	}
	if c.Input.Frames == "" {
		return errors.New("input frames directory is required")
	}
	if c.Input.MaxWidth < 0 {
		return errors.Errorf("input max width must be >= 0, got %d", c.Input.MaxWidth)
	}
	if c.Output.Dir == "" {
		return errors.New("output directory is required")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
