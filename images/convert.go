// Package images - Conversions between frame buffers, gocv.Mat and image.Image.
package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameFromMat copies an 8-bit 3-channel Mat into a Frame.
//
// Arguments:
//   - mat: A CV_8UC3 Mat.
//
// Returns:
//   - *Frame: The copied frame.
//   - error: ErrInvalidFrame if the Mat is empty or has another type.
func FrameFromMat(mat gocv.Mat) (*Frame, error) {
	if mat.Empty() {
		return nil, errors.Wrap(ErrInvalidFrame, "mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, errors.Wrapf(ErrInvalidFrame, "expected CV_8UC3 mat, got type %v", mat.Type())
	}

	f := &Frame{Width: mat.Cols(), Height: mat.Rows(), Pix: mat.ToBytes()}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// ToMat wraps the frame in a CV_8UC3 Mat. The caller must Close the Mat.
func (f *Frame) ToMat() (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.NewMat(), err
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create frame mat")
	}
	return mat, nil
}

// MaskFromMat reads a single channel 8-bit Mat as a mask; any nonzero value is set.
func MaskFromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() {
		return nil, errors.Wrap(ErrInvalidFrame, "mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, errors.Wrapf(ErrInvalidFrame, "expected CV_8UC1 mat, got type %v", mat.Type())
	}

	data := mat.ToBytes()
	m := NewMask(mat.Cols(), mat.Rows())
	if len(data) != len(m.Bits) {
		return nil, errors.Wrapf(ErrInvalidFrame, "mask mat has %d bytes, expected %d", len(data), len(m.Bits))
	}
	for i, v := range data {
		m.Bits[i] = v != 0
	}
	return m, nil
}

// ToMat converts the mask to a CV_8UC1 Mat holding 1 for set pixels and 0 elsewhere.
// The caller must Close the Mat.
func (m *Mask) ToMat() (gocv.Mat, error) {
	if err := m.Validate(); err != nil {
		return gocv.NewMat(), err
	}
	data := make([]byte, len(m.Bits))
	for i, b := range m.Bits {
		if b {
			data[i] = 1
		}
	}
	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create mask mat")
	}
	return mat, nil
}

// FrameFromImage converts any image.Image to a BGR Frame, dropping alpha.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	f := NewFrame(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			i := f.Offset(x-bounds.Min.X, y-bounds.Min.Y)
			// 16-bit to 8-bit, BGR for OpenCV.
			f.Pix[i+0] = uint8(b >> 8)
			f.Pix[i+1] = uint8(g >> 8)
			f.Pix[i+2] = uint8(r >> 8)
		}
	}
	return f
}

// ToImage converts the frame to an opaque RGBA image.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := f.Offset(x, y)
			img.SetRGBA(x, y, color.RGBA{R: f.Pix[i+2], G: f.Pix[i+1], B: f.Pix[i], A: 255})
		}
	}
	return img
}

// MaskFromImage reads an image as a mask; pixels whose gray level is at least
// threshold are set.
func MaskFromImage(img image.Image, threshold uint8) *Mask {
	bounds := img.Bounds()
	m := NewMask(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			m.Set(x-bounds.Min.X, y-bounds.Min.Y, gray.Y >= threshold)
		}
	}
	return m
}

// ToImage renders the mask as a gray image, 255 for set pixels.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.Bits {
		if b {
			img.Pix[i] = 255
		}
	}
	return img
}
