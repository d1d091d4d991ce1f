package foreground

import (
	"image"

	"github.com/nvr-ai/go-foreground/background"
	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// cleanImage reduces sensor noise before statistics are gathered.
func (f *Finder) cleanImage(img *images.Frame) (*images.Frame, error) {
	switch f.config.Cleaning.Method {
	case CleaningMedian:
		return medianBlur(img, f.config.Cleaning.Size)
	default:
		return nil, errors.Wrapf(background.ErrNotImplemented, "cleaning method %q", f.config.Cleaning.Method)
	}
}

func medianBlur(img *images.Frame, size int) (*images.Frame, error) {
	if size == 1 {
		return img.Clone(), nil
	}

	src, err := img.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := gocv.MedianBlur(src, &dst, size); err != nil {
		return nil, errors.Wrap(err, "median blur failed")
	}
	return images.FrameFromMat(dst)
}

// confidentBackground erodes the complement of the rough foreground mask so pixels
// near the foreground boundary are not used to train the background.
func (f *Finder) confidentBackground(foregroundMask *images.Mask) (*images.Mask, error) {
	backgroundMask := foregroundMask.Not()
	size := f.config.ConfidentSize
	if size == 1 {
		return backgroundMask, nil
	}

	src, err := backgroundMask.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := gocv.Erode(src, &dst, kernel); err != nil {
		return nil, errors.Wrap(err, "erosion failed")
	}
	return images.MaskFromMat(dst)
}
