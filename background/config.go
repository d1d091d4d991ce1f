package background

import (
	"math"

	"github.com/pkg/errors"
)

// DiffMethod selects how two color images are compared per pixel.
type DiffMethod string

const (
	// DiffRGB averages the absolute difference of the three color channels.
	DiffRGB DiffMethod = "rgb"
	// DiffRGS compares red, green and lightness. Accepted as configuration, not implemented.
	DiffRGS DiffMethod = "rgs"
)

// ErrNotImplemented is returned when a configured method has no implementation.
var ErrNotImplemented = errors.New("not implemented")

// Config contains the tunable parameters of a background model.
type Config struct {
	// UpdateInertia is the weight of the current mean against a new observation.
	// Larger values adapt the background more slowly. Must be >= 0.
	UpdateInertia float64 `json:"update_inertia" yaml:"update_inertia"`
	// ErrorInertia is the weight of the current error against a new difference. Must be >= 0.
	ErrorInertia float64 `json:"error_inertia" yaml:"error_inertia"`
	// DiffMethod selects the per-pixel difference measure.
	DiffMethod DiffMethod `json:"diff_method" yaml:"diff_method"`
}

// DefaultConfig returns a configuration with equal weight for history and observation.
//
// Returns:
//   - Config: The default background model configuration.
//
// @example
// cfg := DefaultConfig()
// cfg.UpdateInertia = 4
// model, err := NewModel(cfg)
func DefaultConfig() Config {
	return Config{
		UpdateInertia: 1.0,
		ErrorInertia:  1.0,
		DiffMethod:    DiffRGB,
	}
}

// Validate checks the configuration ranges. Inertias must be finite and >= 0.
//
// Unimplemented diff methods are accepted here and rejected when a difference is
// computed: with DiffRGS the first Model.Update succeeds, since it only adopts the
// frame, and every later Update fails with ErrNotImplemented.
func (c Config) Validate() error {
	if err := checkInertia("update inertia", c.UpdateInertia); err != nil {
		return err
	}
	if err := checkInertia("error inertia", c.ErrorInertia); err != nil {
		return err
	}
	if c.DiffMethod == "" {
		return errors.New("diff method is required")
	}
	return nil
}

func checkInertia(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Errorf("%s must be finite, got %v", name, v)
	}
	if v < 0 {
		return errors.Errorf("%s must be >= 0, got %v", name, v)
	}
	return nil
}
