// Package background - Incremental per-pixel background estimation.
//
// The Model keeps, for every pixel, a running estimate of the background color, a running
// estimate of how far observations stray from it, and whether the pixel has ever been
// observed as background. It is fed (frame, background mask) pairs; only pixels marked as
// background contribute.
//
//	┌──────────────┐   ┌─────────────────────────┐   ┌───────────────────┐
//	│ Frame + Mask │──▶│ seed newly-known pixels │──▶│ blend mean, error │
//	└──────────────┘   └─────────────────────────┘   └───────────────────┘
//
// A Model is not safe for concurrent use without external synchronization.
package background

import (
	"math"

	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// UnknownPixelValue is the gray level reported by Get for pixels never seen as background.
	UnknownPixelValue = 128
	// UnknownPixelError is the error estimate of pixels never seen as background.
	UnknownPixelError = 255.0
	// MinError is the floor of every error estimate.
	MinError = 1.0
)

// Details is a snapshot of the model's internal state.
type Details struct {
	// Background is the running mean color, without placeholder substitution.
	Background *images.FloatFrame
	// Error is the running per-pixel error estimate.
	Error *mat.Dense
	// Mask marks pixels that have been observed as background at least once.
	Mask *images.Mask
}

// Model is a static background model. The zero state (before the first Update or after
// Reset) is empty: Get and GetDetails return nil.
type Model struct {
	config Config

	mean  *images.FloatFrame
	errs  *mat.Dense
	known *images.Mask
}

// NewModel creates an empty background model.
//
// Arguments:
//   - config: Model parameters, see Config.
//
// Returns:
//   - *Model: The empty model.
//   - error: If the configuration is invalid.
//
// @example
// model, err := NewModel(DefaultConfig())
//
//	if err != nil {
//	    return err
//	}
//
// err = model.Update(frame, backgroundMask)
func NewModel(config Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid background config")
	}
	return &Model{config: config}, nil
}

// Config returns the model configuration.
func (m *Model) Config() Config {
	return m.config
}

// Populated reports whether the model has been updated since creation or the last Reset.
func (m *Model) Populated() bool {
	return m.known != nil
}

// Size returns the frame geometry fixed by the first Update, or zeros when empty.
func (m *Model) Size() (width, height int) {
	if m.known == nil {
		return 0, 0
	}
	return m.known.Width, m.known.Height
}

// Update incorporates one observation.
//
// The first call adopts the frame as the estimate and the mask as the known set; observed
// pixels start with the minimum error. Later calls seed pixels seen as background for the
// first time, then blend mean and error of every background pixel with the configured
// inertia. Pixels outside backgroundMask are left untouched.
//
// Arguments:
//   - img: The observed frame. Not retained.
//   - backgroundMask: Pixels judged to be background in img.
//
// Returns:
//   - error: A precondition violation; the model is unchanged in that case.
func (m *Model) Update(img *images.Frame, backgroundMask *images.Mask) error {
	if err := m.validateInput(img, backgroundMask); err != nil {
		return err
	}

	if !m.Populated() {
		// Nothing observed yet: stay empty until some pixel is labeled background.
		if backgroundMask.Count() > 0 {
			m.initialize(img, backgroundMask)
		}
		return nil
	}

	observed := images.FloatFrameFromFrame(img)
	errData := m.errs.RawMatrix().Data

	for p, isBackground := range backgroundMask.Bits {
		if isBackground && !m.known.Bits[p] {
			i := p * images.Channels
			copy(m.mean.Pix[i:i+images.Channels], observed.Pix[i:i+images.Channels])
			errData[p] = MinError
		}
	}
	m.known.Or(backgroundMask)

	ui := m.config.UpdateInertia
	for p, isBackground := range backgroundMask.Bits {
		if !isBackground {
			continue
		}
		i := p * images.Channels
		for c := 0; c < images.Channels; c++ {
			m.mean.Pix[i+c] = (ui*m.mean.Pix[i+c] + observed.Pix[i+c]) / (1 + ui)
		}
	}

	diff, err := ComputeDiff(m.config.DiffMethod, m.mean, observed)
	if err != nil {
		return errors.Wrap(err, "failed to compute background difference")
	}

	ei := m.config.ErrorInertia
	diffData := diff.RawMatrix().Data
	for p, isBackground := range backgroundMask.Bits {
		if isBackground {
			errData[p] = math.Max(MinError, (ei*errData[p]+diffData[p])/(1+ei))
		}
	}
	return nil
}

// validateInput checks every precondition of Update before anything is mutated.
func (m *Model) validateInput(img *images.Frame, backgroundMask *images.Mask) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if err := backgroundMask.Validate(); err != nil {
		return err
	}
	if err := backgroundMask.CheckSameSize(img.Width, img.Height); err != nil {
		return err
	}
	if m.Populated() {
		if width, height := m.Size(); img.Width != width || img.Height != height {
			return errors.Wrapf(images.ErrShapeMismatch, "frame is %dx%d, model is %dx%d",
				img.Width, img.Height, width, height)
		}
		if m.config.DiffMethod != DiffRGB {
			return errors.Wrapf(ErrNotImplemented, "diff method %q", m.config.DiffMethod)
		}
	}
	return nil
}

func (m *Model) initialize(img *images.Frame, backgroundMask *images.Mask) {
	m.mean = images.FloatFrameFromFrame(img)
	m.known = backgroundMask.Clone()

	data := make([]float64, len(backgroundMask.Bits))
	for p, isBackground := range backgroundMask.Bits {
		if isBackground {
			data[p] = MinError
		} else {
			data[p] = UnknownPixelError
		}
	}
	m.errs = mat.NewDense(img.Height, img.Width, data)
}

// Get returns a copy of the background estimate with never-seen pixels painted
// UnknownPixelValue gray, or nil if the model is empty.
func (m *Model) Get() *images.FloatFrame {
	if !m.Populated() {
		return nil
	}
	res := m.mean.Clone()
	for p, known := range m.known.Bits {
		if known {
			continue
		}
		i := p * images.Channels
		for c := 0; c < images.Channels; c++ {
			res.Pix[i+c] = UnknownPixelValue
		}
	}
	return res
}

// GetDetails returns copies of the mean, error and known mask, or nil if the model is empty.
func (m *Model) GetDetails() *Details {
	if !m.Populated() {
		return nil
	}
	return &Details{
		Background: m.mean.Clone(),
		Error:      mat.DenseCopyOf(m.errs),
		Mask:       m.known.Clone(),
	}
}

// Deviation compares a frame with the background estimate. Error and Known alias the
// model state: they are read-only and valid until the next Update or Reset.
type Deviation struct {
	// Diff is the per-pixel difference between the frame and the mean, height×width.
	Diff *mat.Dense
	// Error is the row-major error estimate.
	Error []float64
	// Known marks pixels ever seen as background, row-major.
	Known []bool
}

// Deviation compares img with the background mean without copying the model.
//
// Arguments:
//   - img: The frame, same size as the model.
//
// Returns:
//   - *Deviation: The difference and views of the error and known mask.
//   - error: If the model is empty, the size differs, or the diff method is not implemented.
func (m *Model) Deviation(img *images.FloatFrame) (*Deviation, error) {
	if !m.Populated() {
		return nil, errors.New("background model is empty")
	}
	if width, height := m.Size(); img.Width != width || img.Height != height {
		return nil, errors.Wrapf(images.ErrShapeMismatch, "frame is %dx%d, model is %dx%d",
			img.Width, img.Height, width, height)
	}

	diff, err := m.ComputeDiff(img, m.mean)
	if err != nil {
		return nil, err
	}
	return &Deviation{
		Diff:  diff,
		Error: m.errs.RawMatrix().Data,
		Known: m.known.Bits,
	}, nil
}

// Reset discards all state; the next Update behaves like the first.
func (m *Model) Reset() {
	m.mean = nil
	m.errs = nil
	m.known = nil
}

// ComputeDiff compares two images with the configured diff method.
func (m *Model) ComputeDiff(a, b *images.FloatFrame) (*mat.Dense, error) {
	return ComputeDiff(m.config.DiffMethod, a, b)
}
