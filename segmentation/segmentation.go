// Package segmentation - Runs an aided segmentation over a sequence of frames and rough masks.
package segmentation

import (
	"context"
	"io"
	"time"

	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AidedSegmentation refines rough foreground masks into per-pixel probabilities.
// foreground.Finder implements it.
type AidedSegmentation interface {
	// Update trains the segmentation with a frame and its rough foreground mask.
	Update(img *images.Frame, roughForeground *images.Mask) error
	// CalcProb scores a frame, returning a height×width map in [0, 1].
	CalcProb(img *images.Frame) (*mat.Dense, error)
}

// Sample is a single frame of video with its rough foreground mask.
type Sample struct {
	Index int
	Frame *images.Frame
	Mask  *images.Mask
}

// Source delivers samples in order. Next returns io.EOF when the sequence is exhausted.
type Source interface {
	Next() (Sample, error)
}

// Sink receives the probability map computed for each sample.
type Sink interface {
	Write(index int, prob *mat.Dense) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(index int, prob *mat.Dense) error

// Write calls fn.
func (fn SinkFunc) Write(index int, prob *mat.Dense) error {
	return fn(index, prob)
}

// Stats summarizes a run.
type Stats struct {
	// Frames is the number of samples processed.
	Frames int `json:"frames"`
	// MeanProbability is the mean of each frame's probability map, in order.
	MeanProbability []float64 `json:"mean_probability"`
	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Run scores every sample from src with seg, writes the map to sink, then trains seg
// with the sample's rough mask. Scoring happens before training so a frame is judged
// against the background learned from earlier frames only.
//
// Cancellation is observed between samples.
//
// Arguments:
//   - ctx: Cancels the run between samples.
//   - src: The samples.
//   - seg: The segmentation to drive.
//   - sink: Receives probability maps; may be nil.
//   - logger: Progress logging.
//
// Returns:
//   - Stats: What was processed, also on error.
//   - error: The first source, segmentation or sink failure, or ctx.Err().
//
// @example
// finder, _ := foreground.NewFromConfig(foreground.DefaultConfig())
// stats, err := Run(ctx, source, finder, sink, logger)
func Run(ctx context.Context, src Source, seg AidedSegmentation, sink Sink, logger zerolog.Logger) (stats Stats, err error) {
	start := time.Now()
	defer func() {
		stats.Elapsed = time.Since(start)
	}()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}

		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, errors.Wrapf(err, "failed to read sample after %d frames", stats.Frames)
		}

		prob, err := seg.CalcProb(sample.Frame)
		if err != nil {
			return stats, errors.Wrapf(err, "failed to score frame %d", sample.Index)
		}
		if sink != nil {
			if err := sink.Write(sample.Index, prob); err != nil {
				return stats, errors.Wrapf(err, "failed to write frame %d", sample.Index)
			}
		}
		if err := seg.Update(sample.Frame, sample.Mask); err != nil {
			return stats, errors.Wrapf(err, "failed to update with frame %d", sample.Index)
		}

		mean := stat.Mean(prob.RawMatrix().Data, nil)
		stats.Frames++
		stats.MeanProbability = append(stats.MeanProbability, mean)

		logger.Debug().
			Int("frame", sample.Index).
			Float64("mean_probability", mean).
			Msg("frame processed")
	}

	logger.Info().
		Int("frames", stats.Frames).
		Dur("elapsed", time.Since(start)).
		Msg("segmentation finished")
	return stats, nil
}
