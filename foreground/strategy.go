package foreground

import (
	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StaticVerifier decides whether the static background assumption still holds for a
// frame, given the probability map computed for it. Returning false makes the Finder
// reset its background model.
type StaticVerifier interface {
	VerifyStatic(img *images.Frame, prob *mat.Dense) bool
}

// StaticVerifierFunc adapts a function to StaticVerifier.
type StaticVerifierFunc func(img *images.Frame, prob *mat.Dense) bool

// VerifyStatic calls fn.
func (fn StaticVerifierFunc) VerifyStatic(img *images.Frame, prob *mat.Dense) bool {
	return fn(img, prob)
}

// AlwaysStatic assumes the scene never changes globally.
type AlwaysStatic struct{}

// VerifyStatic always returns true.
func (AlwaysStatic) VerifyStatic(*images.Frame, *mat.Dense) bool { return true }

// MaskRectifier refines a probability-like foreground map.
type MaskRectifier interface {
	Rectify(img *images.Frame, foreground *mat.Dense) (*mat.Dense, error)
}

// Default thresholds of ThresholdRectifier.
const (
	DefaultRemoveLower = 0.01
	DefaultAddHigher   = 0.99
)

// ThresholdRectifier demotes values below RemoveLower to 0 and promotes values above
// AddHigher to 1. Everything in between is kept.
type ThresholdRectifier struct {
	RemoveLower float64
	AddHigher   float64
}

// NewThresholdRectifier returns a rectifier with the default thresholds.
func NewThresholdRectifier() ThresholdRectifier {
	return ThresholdRectifier{RemoveLower: DefaultRemoveLower, AddHigher: DefaultAddHigher}
}

// Rectify returns a refined copy of foreground; the input is not modified.
func (r ThresholdRectifier) Rectify(img *images.Frame, foreground *mat.Dense) (*mat.Dense, error) {
	if foreground == nil {
		return nil, errors.New("foreground map is nil")
	}
	if r.RemoveLower > r.AddHigher {
		return nil, errors.Wrapf(ErrInvalidConfig, "remove threshold %v is above add threshold %v",
			r.RemoveLower, r.AddHigher)
	}
	if img != nil {
		if rows, cols := foreground.Dims(); rows != img.Height || cols != img.Width {
			return nil, errors.Wrapf(images.ErrShapeMismatch, "map is %dx%d, frame is %dx%d",
				cols, rows, img.Width, img.Height)
		}
	}

	out := mat.DenseCopyOf(foreground)
	out.Apply(func(_, _ int, v float64) float64 {
		switch {
		case v < r.RemoveLower:
			return 0
		case v > r.AddHigher:
			return 1
		default:
			return v
		}
	}, out)
	return out, nil
}
