// Package foreground - Per-pixel foreground probability from a static background model.
//
// A Finder cleans each frame, trains its background.Model on a conservatively eroded
// background mask, and converts the difference between a frame and the model into a
// probability map:
//
//	┌─────────────┐   ┌─────────────────┐   ┌─────────────────────────┐
//	│ Input Frame │──▶│ Median cleaning │──▶│ Diff against model mean │
//	└─────────────┘   └─────────────────┘   └────────────┬────────────┘
//	                                        ┌────────────▼────────────┐
//	                                        │ Piecewise map over error│
//	                                        └─────────────────────────┘
//
// A Finder is not safe for concurrent use without external synchronization. Use one
// Finder per video stream.
package foreground

import (
	"github.com/nvr-ai/go-foreground/background"
	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Option customizes a Finder.
type Option func(*Finder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// WithStaticVerifier replaces the static-scene check run by CalcProb.
func WithStaticVerifier(v StaticVerifier) Option {
	return func(f *Finder) {
		f.verifier = v
	}
}

// WithRectifier replaces the strategy used by RectifyMask.
func WithRectifier(r MaskRectifier) Option {
	return func(f *Finder) {
		f.rectifier = r
	}
}

// Finder computes foreground probabilities against a background model it trains.
type Finder struct {
	config    Config
	model     *background.Model
	verifier  StaticVerifier
	rectifier MaskRectifier
	logger    zerolog.Logger
}

// New creates a Finder around an existing background model.
//
// Arguments:
//   - model: The background model to train and query. Owned by the Finder afterwards.
//   - config: Cleaning and erosion settings. config.Background is replaced by the
//     model's own configuration.
//   - opts: Optional logger and strategies.
//
// Returns:
//   - *Finder: The configured finder.
//   - error: ErrInvalidConfig or background.ErrNotImplemented for a bad configuration.
//
// @example
// model, _ := background.NewModel(background.DefaultConfig())
// finder, err := New(model, Config{ConfidentSize: 3, Cleaning: CleaningConfig{Method: CleaningMedian, Size: 5}})
func New(model *background.Model, config Config, opts ...Option) (*Finder, error) {
	if model == nil {
		return nil, errors.New("background model is nil")
	}
	config.Background = model.Config()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	f := &Finder{
		config:    config,
		model:     model,
		verifier:  AlwaysStatic{},
		rectifier: NewThresholdRectifier(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// NewFromConfig creates a Finder together with its background model.
func NewFromConfig(config Config, opts ...Option) (*Finder, error) {
	model, err := background.NewModel(config.Background)
	if err != nil {
		return nil, err
	}
	return New(model, config, opts...)
}

// Config returns the finder configuration.
func (f *Finder) Config() Config {
	return f.config
}

// Model returns the background model owned by the finder.
func (f *Finder) Model() *background.Model {
	return f.model
}

// Update trains the background model with a frame and its rough foreground mask.
//
// The frame is cleaned, the complement of roughForeground is eroded with a square
// kernel of ConfidentSize, and the model is updated with the result.
//
// Arguments:
//   - img: The frame.
//   - roughForeground: A noisy foreground mask of the same size.
//
// Returns:
//   - error: A precondition violation or a processing failure. The model is unchanged.
func (f *Finder) Update(img *images.Frame, roughForeground *images.Mask) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if err := roughForeground.Validate(); err != nil {
		return err
	}
	if err := roughForeground.CheckSameSize(img.Width, img.Height); err != nil {
		return err
	}

	clean, err := f.cleanImage(img)
	if err != nil {
		return err
	}
	confident, err := f.confidentBackground(roughForeground)
	if err != nil {
		return err
	}
	if err := f.model.Update(clean, confident); err != nil {
		return errors.Wrap(err, "background update failed")
	}

	if e := f.logger.Debug(); e.Enabled() {
		e.Int("confident", confident.Count()).
			Int("pixels", len(confident.Bits)).
			Msg("background updated")
	}
	return nil
}

// CalcProb returns a height×width map in [0, 1] for the frame: 1 where the cleaned
// frame matches the background exactly, falling through 0.8 at one error and 0.05 at
// three errors to 0 at five errors. Pixels the model has never seen are 0.5.
//
// If the static-scene check fails, the model is reset and a uniform 0.5 map is returned.
//
// Arguments:
//   - img: The frame to score. Must match the model geometry once the model is populated.
//
// Returns:
//   - *mat.Dense: The probability map.
//   - error: A precondition violation or a processing failure.
func (f *Finder) CalcProb(img *images.Frame) (*mat.Dense, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if !f.model.Populated() {
		return images.NewUniformMap(img.Width, img.Height, UnknownProbability), nil
	}
	if width, height := f.model.Size(); img.Width != width || img.Height != height {
		return nil, errors.Wrapf(images.ErrShapeMismatch, "frame is %dx%d, model is %dx%d",
			img.Width, img.Height, width, height)
	}

	clean, err := f.cleanImage(img)
	if err != nil {
		return nil, err
	}

	dev, err := f.model.Deviation(images.FloatFrameFromFrame(clean))
	if err != nil {
		return nil, err
	}

	data, err := convertToProbability(dev.Diff.RawMatrix().Data, dev.Error)
	if err != nil {
		return nil, err
	}
	for p, known := range dev.Known {
		if !known {
			data[p] = UnknownProbability
		}
	}
	prob := mat.NewDense(img.Height, img.Width, data)

	if !f.verifier.VerifyStatic(img, prob) {
		f.logger.Warn().Msg("static background assumption failed, resetting model")
		f.model.Reset()
		return images.NewUniformMap(img.Width, img.Height, UnknownProbability), nil
	}
	return prob, nil
}

// RectifyMask refines a probability-like foreground map with the configured rectifier.
// The default demotes values below 0.01 to 0 and promotes values above 0.99 to 1.
func (f *Finder) RectifyMask(img *images.Frame, foreground *mat.Dense) (*mat.Dense, error) {
	return f.rectifier.Rectify(img, foreground)
}
