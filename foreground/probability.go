package foreground

import (
	"github.com/nvr-ai/go-foreground/mathmap"
	"github.com/pkg/errors"
)

// Piecewise-linear probability map. Breakpoints are multiples of the per-pixel error:
//
//	diff:  0 ──── e ──────── 3e ──────── 5e
//	prob: 1.0    0.8        0.05         0.0
const (
	probAtZero        = 1.0
	probAtError       = 0.8
	probAtThreeErrors = 0.05
	probAtFiveErrors  = 0.0

	// UnknownProbability is reported for pixels the background model has never seen.
	UnknownProbability = 0.5
)

// convertToProbability maps each (difference, error) pair through the three segments
// and clamps the result to [0, 1].
func convertToProbability(diffs, errs []float64) ([]float64, error) {
	if len(diffs) != len(errs) {
		return nil, errors.Errorf("%d differences but %d errors", len(diffs), len(errs))
	}

	type segment struct {
		xs, lx, rx []float64
		idx        []int
		ly, ry     float64
		lo, hi     float64
	}
	segments := []*segment{
		{ly: probAtZero, ry: probAtError, lo: 0, hi: 1},
		{ly: probAtError, ry: probAtThreeErrors, lo: 1, hi: 3},
		{ly: probAtThreeErrors, ry: probAtFiveErrors, lo: 3, hi: 5},
	}

	for i, d := range diffs {
		e := errs[i]
		var s *segment
		switch {
		case d <= e:
			s = segments[0]
		case d <= 3*e:
			s = segments[1]
		default:
			s = segments[2]
		}
		s.idx = append(s.idx, i)
		s.xs = append(s.xs, d)
		s.lx = append(s.lx, s.lo*e)
		s.rx = append(s.rx, s.hi*e)
	}

	prob := make([]float64, len(diffs))
	for _, s := range segments {
		ys, err := mathmap.LinearSlice(nil, s.xs, mathmap.Values(s.lx), mathmap.Values(s.rx), s.ly, s.ry)
		if err != nil {
			return nil, err
		}
		for j, i := range s.idx {
			prob[i] = mathmap.Clamp(ys[j], 0, 1)
		}
	}
	return prob, nil
}
