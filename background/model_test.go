package background

import (
	"math"
	"math/rand"
	"testing"

	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const (
	testWidth  = 50
	testHeight = 50
)

// fixture mirrors a 50×50 gray scene with a small foreground rectangle.
type fixture struct {
	background     *images.Frame
	foregroundMask *images.Mask
}

func newFixture() fixture {
	mask := images.NewMask(testWidth, testHeight)
	mask.SetRect(10, 22, 24, 26, true)
	return fixture{
		background:     images.NewUniformFrame(testWidth, testHeight, 120, 120, 120),
		foregroundMask: mask,
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := NewModel(Config{UpdateInertia: 1.0, ErrorInertia: 1.0, DiffMethod: DiffRGB})
	require.NoError(t, err)
	return model
}

func allTrue() *images.Mask {
	return images.NewFilledMask(testWidth, testHeight, true)
}

func TestUpdateBackground(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)
	assert.Nil(t, model.Get(), "nothing yet")

	require.NoError(t, model.Update(fx.background, allTrue()))
	assert.Equal(t, fx.background.Pix, model.Get().Frame().Pix)

	// Update everything except the foreground.
	shifted := images.NewUniformFrame(testWidth, testHeight, 130, 140, 127)
	require.NoError(t, model.Update(shifted, fx.foregroundMask.Not()))

	got := model.Get()
	for y := 0; y < testHeight; y++ {
		for x := 0; x < testWidth; x++ {
			if fx.foregroundMask.At(x, y) {
				assert.Equal(t, 120.0, got.At(x, y, 0))
				assert.Equal(t, 120.0, got.At(x, y, 1))
				assert.Equal(t, 120.0, got.At(x, y, 2))
				continue
			}
			assert.Equal(t, 125.0, got.At(x, y, 0))
			assert.Equal(t, 130.0, got.At(x, y, 1))
			assert.Equal(t, 123.5, got.At(x, y, 2))
		}
	}
}

func TestNeverSeenBackground(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)
	require.NoError(t, model.Update(fx.background, fx.foregroundMask.Not()))

	got := model.Get()
	for p, fg := range fx.foregroundMask.Bits {
		i := p * images.Channels
		expected := 120.0
		if fg {
			expected = UnknownPixelValue
		}
		assert.Equal(t, []float64{expected, expected, expected}, got.Pix[i:i+images.Channels])
	}
}

func TestGetAllBackgroundInfo(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)
	require.NoError(t, model.Update(fx.background, fx.foregroundMask.Not()))

	details := model.GetDetails()
	require.NotNil(t, details)
	require.NotNil(t, details.Background)
	require.NotNil(t, details.Error)
	require.NotNil(t, details.Mask)

	// No gray substitution in the raw details.
	assert.Equal(t, fx.background.Pix, details.Background.Frame().Pix)
	assert.True(t, details.Mask.Equal(fx.foregroundMask.Not()))

	for p, fg := range fx.foregroundMask.Bits {
		expected := MinError
		if fg {
			expected = UnknownPixelError
		}
		assert.Equal(t, expected, details.Error.At(p/testWidth, p%testWidth))
	}
}

func TestDetailsAreCopies(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)
	require.NoError(t, model.Update(fx.background, allTrue()))

	details := model.GetDetails()
	details.Background.Pix[0] = 0
	details.Error.Set(0, 0, 99)
	details.Mask.Bits[0] = false

	again := model.GetDetails()
	assert.Equal(t, 120.0, again.Background.Pix[0])
	assert.Equal(t, MinError, again.Error.At(0, 0))
	assert.True(t, again.Mask.Bits[0])
}

func TestSingleFullUpdate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := images.NewFrame(testWidth, testHeight)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	sum := img.Checksum()

	model := newTestModel(t)
	require.NoError(t, model.Update(img, allTrue()))

	assert.Equal(t, img.Pix, model.Get().Frame().Pix)
	errs := model.GetDetails().Error.RawMatrix().Data
	assert.Equal(t, MinError, floats.Min(errs))
	assert.Equal(t, MinError, floats.Max(errs))
	assert.Equal(t, sum, img.Checksum(), "input frame must not be modified")
}

func TestEmptyMaskUpdate(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)

	// Nothing labeled background yet: the model stays empty.
	require.NoError(t, model.Update(fx.background, images.NewMask(testWidth, testHeight)))
	assert.Nil(t, model.Get())
	assert.Nil(t, model.GetDetails())
	assert.False(t, model.Populated())

	require.NoError(t, model.Update(fx.background, fx.foregroundMask.Not()))
	before := model.GetDetails()

	other := images.NewUniformFrame(testWidth, testHeight, 3, 55, 129)
	require.NoError(t, model.Update(other, images.NewMask(testWidth, testHeight)))

	after := model.GetDetails()
	assert.Equal(t, before.Background.Pix, after.Background.Pix)
	assert.True(t, before.Mask.Equal(after.Mask))
	assert.True(t, floats.Equal(before.Error.RawMatrix().Data, after.Error.RawMatrix().Data))
}

func TestErrorProgression(t *testing.T) {
	model := newTestModel(t)
	require.NoError(t, model.Update(images.NewUniformFrame(4, 4, 100, 100, 100), images.NewFilledMask(4, 4, true)))

	brighter := images.NewUniformFrame(4, 4, 110, 110, 110)
	require.NoError(t, model.Update(brighter, images.NewFilledMask(4, 4, true)))
	details := model.GetDetails()
	assert.Equal(t, 105.0, details.Background.At(2, 2, 0))
	assert.Equal(t, 3.0, details.Error.At(2, 2))

	require.NoError(t, model.Update(brighter, images.NewFilledMask(4, 4, true)))
	details = model.GetDetails()
	assert.Equal(t, 107.5, details.Background.At(2, 2, 0))
	assert.Equal(t, 2.75, details.Error.At(2, 2))
}

func TestInertiaControlsAdaptation(t *testing.T) {
	slow, err := NewModel(Config{UpdateInertia: 9, ErrorInertia: 1, DiffMethod: DiffRGB})
	require.NoError(t, err)
	fast, err := NewModel(Config{UpdateInertia: 0, ErrorInertia: 1, DiffMethod: DiffRGB})
	require.NoError(t, err)

	full := images.NewFilledMask(2, 2, true)
	for _, m := range []*Model{slow, fast} {
		require.NoError(t, m.Update(images.NewUniformFrame(2, 2, 100, 100, 100), full))
		require.NoError(t, m.Update(images.NewUniformFrame(2, 2, 200, 200, 200), full))
	}

	assert.Equal(t, 110.0, slow.Get().At(0, 0, 0))
	assert.Equal(t, 200.0, fast.Get().At(0, 0, 0))
}

func TestNewlyKnownPixelsAreSeeded(t *testing.T) {
	model := newTestModel(t)
	left := images.NewMask(testWidth, testHeight)
	left.SetRect(0, 0, testWidth/2, testHeight, true)
	require.NoError(t, model.Update(images.NewUniformFrame(testWidth, testHeight, 120, 120, 120), left))

	second := images.NewUniformFrame(testWidth, testHeight, 40, 50, 60)
	require.NoError(t, model.Update(second, allTrue()))

	details := model.GetDetails()
	// Right half was never seen: its mean is the new observation with the minimum error.
	assert.Equal(t, []float64{40, 50, 60}, details.Background.Pix[details.Background.Offset(40, 10):details.Background.Offset(40, 10)+3])
	assert.Equal(t, MinError, details.Error.At(10, 40))
	// Left half blends toward the observation.
	assert.Equal(t, []float64{80, 85, 90}, details.Background.Pix[details.Background.Offset(5, 10):details.Background.Offset(5, 10)+3])
	assert.True(t, details.Mask.Equal(allTrue()))
}

func TestKnownMaskMonotonicAndErrorFloor(t *testing.T) {
	for _, inertia := range []float64{0, 0.5, 1, 4} {
		rng := rand.New(rand.NewSource(int64(inertia*10) + 1))
		model, err := NewModel(Config{UpdateInertia: inertia, ErrorInertia: inertia, DiffMethod: DiffRGB})
		require.NoError(t, err)

		var previous *images.Mask
		for step := 0; step < 12; step++ {
			img := images.NewFrame(20, 15)
			for i := range img.Pix {
				img.Pix[i] = uint8(100 + rng.Intn(20))
			}
			mask := images.NewMask(20, 15)
			for i := range mask.Bits {
				mask.Bits[i] = rng.Intn(3) == 0
			}
			require.NoError(t, model.Update(img, mask))

			details := model.GetDetails()
			require.NotNil(t, details)
			assert.GreaterOrEqual(t, floats.Min(details.Error.RawMatrix().Data), MinError,
				"inertia %v step %d", inertia, step)
			assert.True(t, details.Mask.Contains(mask))
			if previous != nil {
				assert.True(t, details.Mask.Contains(previous), "known mask shrank at step %d", step)
			}
			previous = details.Mask
		}
	}
}

func TestReset(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)
	require.NoError(t, model.Update(fx.background, fx.foregroundMask.Not()))
	require.NoError(t, model.Update(images.NewUniformFrame(testWidth, testHeight, 90, 90, 90), allTrue()))

	model.Reset()
	assert.Nil(t, model.Get())
	assert.Nil(t, model.GetDetails())
	w, h := model.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)

	// The next update behaves as the first: overwrite, minimum error.
	fresh := images.NewUniformFrame(testWidth, testHeight, 10, 20, 30)
	require.NoError(t, model.Update(fresh, allTrue()))
	assert.Equal(t, fresh.Pix, model.Get().Frame().Pix)
	errs := model.GetDetails().Error.RawMatrix().Data
	assert.Equal(t, MinError, floats.Max(errs))
}

func TestUpdatePreconditions(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)

	err := model.Update(fx.background, images.NewMask(10, 10))
	assert.True(t, errors.Is(err, images.ErrShapeMismatch), "got %v", err)
	assert.False(t, model.Populated())

	err = model.Update(&images.Frame{Width: 2, Height: 2, Pix: make([]uint8, 4)}, images.NewMask(2, 2))
	assert.True(t, errors.Is(err, images.ErrInvalidFrame), "got %v", err)

	require.NoError(t, model.Update(fx.background, allTrue()))
	before := model.GetDetails()

	err = model.Update(images.NewUniformFrame(10, 10, 0, 0, 0), images.NewFilledMask(10, 10, true))
	assert.True(t, errors.Is(err, images.ErrShapeMismatch), "got %v", err)

	after := model.GetDetails()
	assert.Equal(t, before.Background.Pix, after.Background.Pix)
}

func TestUnimplementedDiffMethodFailsBeforeMutation(t *testing.T) {
	model, err := NewModel(Config{UpdateInertia: 1, ErrorInertia: 1, DiffMethod: DiffRGS})
	require.NoError(t, err)

	fx := newFixture()
	require.NoError(t, model.Update(fx.background, allTrue()))

	err = model.Update(images.NewUniformFrame(testWidth, testHeight, 0, 0, 0), allTrue())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "rgs")
	assert.Equal(t, fx.background.Pix, model.Get().Frame().Pix)
}

func TestNewModelRejectsInvalidConfig(t *testing.T) {
	_, err := NewModel(Config{UpdateInertia: -1, ErrorInertia: 1, DiffMethod: DiffRGB})
	assert.Error(t, err)
	_, err = NewModel(Config{UpdateInertia: 1, ErrorInertia: -0.5, DiffMethod: DiffRGB})
	assert.Error(t, err)
	_, err = NewModel(Config{UpdateInertia: 1, ErrorInertia: 1})
	assert.Error(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = NewModel(Config{UpdateInertia: v, ErrorInertia: 1, DiffMethod: DiffRGB})
		assert.Error(t, err, "update inertia %v", v)
		_, err = NewModel(Config{UpdateInertia: 1, ErrorInertia: v, DiffMethod: DiffRGB})
		assert.Error(t, err, "error inertia %v", v)
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestDeviation(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)

	_, err := model.Deviation(images.FloatFrameFromFrame(fx.background))
	assert.Error(t, err, "empty model")

	require.NoError(t, model.Update(fx.background, fx.foregroundMask.Not()))

	observed := images.FloatFrameFromFrame(images.NewUniformFrame(testWidth, testHeight, 123, 123, 123))
	dev, err := model.Deviation(observed)
	require.NoError(t, err)

	rows, cols := dev.Diff.Dims()
	assert.Equal(t, testHeight, rows)
	assert.Equal(t, testWidth, cols)
	assert.InDelta(t, 3.0, dev.Diff.At(0, 0), 1e-9)

	details := model.GetDetails()
	assert.Equal(t, details.Error.RawMatrix().Data, dev.Error)
	assert.Equal(t, details.Mask.Bits, dev.Known)
	assert.False(t, dev.Known[24*testWidth+12])
	assert.Equal(t, UnknownPixelError, dev.Error[24*testWidth+12])

	// Deviation reads the model without changing it.
	assert.Equal(t, fx.background.Pix[:3*testWidth], model.Get().Frame().Pix[:3*testWidth])
}

func TestDeviationPreconditions(t *testing.T) {
	fx := newFixture()
	model := newTestModel(t)
	require.NoError(t, model.Update(fx.background, allTrue()))

	_, err := model.Deviation(images.NewFloatFrame(testWidth+1, testHeight))
	assert.True(t, errors.Is(err, images.ErrShapeMismatch))

	rgs, err := NewModel(Config{UpdateInertia: 1, ErrorInertia: 1, DiffMethod: DiffRGS})
	require.NoError(t, err)
	require.NoError(t, rgs.Update(fx.background, allTrue()))
	_, err = rgs.Deviation(images.FloatFrameFromFrame(fx.background))
	assert.True(t, errors.Is(err, ErrNotImplemented))
}
