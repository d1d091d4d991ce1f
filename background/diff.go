package background

import (
	"math"

	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ComputeDiff compares two color images pixel by pixel.
//
// Arguments:
//   - method: The difference measure. Only DiffRGB is implemented.
//   - a, b: Images of identical geometry.
//
// Returns:
//   - *mat.Dense: A height×width matrix of per-pixel differences.
//   - error: ErrShapeMismatch for different geometries, ErrNotImplemented for other methods.
//
// @example
// diff, err := ComputeDiff(DiffRGB, images.FloatFrameFromFrame(a), images.FloatFrameFromFrame(b))
func ComputeDiff(method DiffMethod, a, b *images.FloatFrame) (*mat.Dense, error) {
	if a == nil || b == nil {
		return nil, errors.Wrap(images.ErrInvalidFrame, "diff input is nil")
	}
	if a.Width != b.Width || a.Height != b.Height {
		return nil, errors.Wrapf(images.ErrShapeMismatch, "cannot diff %dx%d against %dx%d",
			a.Width, a.Height, b.Width, b.Height)
	}

	switch method {
	case DiffRGB:
		return diffRGB(a, b), nil
	default:
		return nil, errors.Wrapf(ErrNotImplemented, "diff method %q", method)
	}
}

// diffRGB is the mean absolute difference across channels.
func diffRGB(a, b *images.FloatFrame) *mat.Dense {
	data := make([]float64, a.Width*a.Height)
	for p := range data {
		i := p * images.Channels
		sum := 0.0
		for c := 0; c < images.Channels; c++ {
			sum += math.Abs(a.Pix[i+c] - b.Pix[i+c])
		}
		data[p] = sum / images.Channels
	}
	return mat.NewDense(a.Height, a.Width, data)
}
