// Package images - Frame, mask and float buffers exchanged with the background model,
// plus conversions to gocv.Mat and image.Image.
package images

import (
	"crypto/md5"
	"fmt"

	"github.com/pkg/errors"
)

// Channels is the number of color samples per pixel in a Frame.
const Channels = 3

var (
	// ErrInvalidFrame is returned when a buffer does not describe a valid frame or mask.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrShapeMismatch is returned when two buffers do not share the same geometry.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Frame is an 8-bit, 3-channel image stored row-major with interleaved channels.
// Channels follow OpenCV's BGR order.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a black frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// NewUniformFrame allocates a frame where every pixel holds the same BGR color.
//
// @example
// gray := NewUniformFrame(50, 50, 120, 120, 120)
func NewUniformFrame(width, height int, b, g, r uint8) *Frame {
	f := NewFrame(width, height)
	for i := 0; i < len(f.Pix); i += Channels {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
	}
	return f
}

// Validate checks that the frame geometry and buffer are consistent.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.Wrap(ErrInvalidFrame, "frame is nil")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Wrapf(ErrInvalidFrame, "invalid frame dimensions: %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*Channels {
		return errors.Wrapf(ErrInvalidFrame, "frame buffer has %d bytes, expected %d for %dx%dx%d",
			len(f.Pix), f.Width*f.Height*Channels, f.Width, f.Height, Channels)
	}
	return nil
}

// Offset returns the index of the first channel of pixel (x, y) in Pix.
func (f *Frame) Offset(x, y int) int {
	return (y*f.Width + x) * Channels
}

// At returns channel c of pixel (x, y).
func (f *Frame) At(x, y, c int) uint8 {
	return f.Pix[f.Offset(x, y)+c]
}

// Set writes channel c of pixel (x, y).
func (f *Frame) Set(x, y, c int, v uint8) {
	f.Pix[f.Offset(x, y)+c] = v
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Pix: pix}
}

// Checksum returns a hex MD5 of the pixel buffer, used to confirm a frame was not modified.
func (f *Frame) Checksum() string {
	if f == nil || len(f.Pix) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%x", md5.Sum(f.Pix))
}

// FloatFrame is a 3-channel floating point image with the same layout as Frame.
type FloatFrame struct {
	Width  int
	Height int
	Pix    []float64
}

// NewFloatFrame allocates a zero-valued float frame.
func NewFloatFrame(width, height int) *FloatFrame {
	return &FloatFrame{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*Channels),
	}
}

// FloatFrameFromFrame converts an 8-bit frame to floating point.
func FloatFrameFromFrame(f *Frame) *FloatFrame {
	ff := NewFloatFrame(f.Width, f.Height)
	for i, v := range f.Pix {
		ff.Pix[i] = float64(v)
	}
	return ff
}

// Offset returns the index of the first channel of pixel (x, y) in Pix.
func (f *FloatFrame) Offset(x, y int) int {
	return (y*f.Width + x) * Channels
}

// At returns channel c of pixel (x, y).
func (f *FloatFrame) At(x, y, c int) float64 {
	return f.Pix[f.Offset(x, y)+c]
}

// Clone returns a deep copy of the float frame.
func (f *FloatFrame) Clone() *FloatFrame {
	pix := make([]float64, len(f.Pix))
	copy(pix, f.Pix)
	return &FloatFrame{Width: f.Width, Height: f.Height, Pix: pix}
}

// Frame rounds the float frame to 8 bits, clamping to [0, 255].
func (f *FloatFrame) Frame() *Frame {
	out := NewFrame(f.Width, f.Height)
	for i, v := range f.Pix {
		switch {
		case v <= 0:
			out.Pix[i] = 0
		case v >= 255:
			out.Pix[i] = 255
		default:
			out.Pix[i] = uint8(v + 0.5)
		}
	}
	return out
}
