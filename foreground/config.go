package foreground

import (
	"github.com/nvr-ai/go-foreground/background"
	"github.com/pkg/errors"
)

// CleaningMethod selects the noise filter applied to frames before they are compared.
type CleaningMethod string

// CleaningMedian is a median blur with a square aperture.
const CleaningMedian CleaningMethod = "median"

// ErrInvalidConfig is returned for out-of-range configuration values.
var ErrInvalidConfig = errors.New("invalid foreground config")

// CleaningConfig configures frame noise cleaning.
type CleaningConfig struct {
	// Method is the cleaning filter. Only CleaningMedian is implemented.
	Method CleaningMethod `json:"method" yaml:"method"`
	// Size is the filter aperture; odd, >= 1.
	Size int `json:"size" yaml:"size"`
}

// Config contains the parameters of a Finder.
type Config struct {
	// Background configures the model built by NewFromConfig.
	Background background.Config `json:"background" yaml:"background"`
	// ConfidentSize is the side of the square kernel used to erode the background
	// mask before it trains the model; odd, >= 1. A size of 1 keeps the mask as is.
	ConfidentSize int `json:"confident_size" yaml:"confident_size"`
	// Cleaning configures noise cleaning of incoming frames.
	Cleaning CleaningConfig `json:"cleaning" yaml:"cleaning"`
}

// DefaultConfig returns a configuration with a 5×5 median cleaning and no erosion.
//
// @example
// cfg := DefaultConfig()
// cfg.ConfidentSize = 3
// finder, err := NewFromConfig(cfg)
func DefaultConfig() Config {
	return Config{
		Background:    background.DefaultConfig(),
		ConfidentSize: 1,
		Cleaning: CleaningConfig{
			Method: CleaningMedian,
			Size:   5,
		},
	}
}

// Validate checks kernel sizes and the cleaning method.
//
// Returns:
//   - error: ErrInvalidConfig for bad sizes, background.ErrNotImplemented for an
//     unknown cleaning method.
func (c Config) Validate() error {
	if err := checkOddSize("confident size", c.ConfidentSize); err != nil {
		return err
	}
	if err := checkOddSize("cleaning size", c.Cleaning.Size); err != nil {
		return err
	}
	if c.Cleaning.Method != CleaningMedian {
		return errors.Wrapf(background.ErrNotImplemented, "cleaning method %q", c.Cleaning.Method)
	}
	return nil
}

func checkOddSize(name string, size int) error {
	if size < 1 || size%2 == 0 {
		return errors.Wrapf(ErrInvalidConfig, "%s must be an odd integer >= 1, got %d", name, size)
	}
	return nil
}
