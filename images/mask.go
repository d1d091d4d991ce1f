package images

import "github.com/pkg/errors"

// Mask is a per-pixel boolean plane, stored row-major.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// NewFilledMask allocates a mask with every pixel set to v.
func NewFilledMask(width, height int, v bool) *Mask {
	m := NewMask(width, height)
	if v {
		for i := range m.Bits {
			m.Bits[i] = true
		}
	}
	return m
}

// Validate checks that the mask geometry and buffer are consistent.
func (m *Mask) Validate() error {
	if m == nil {
		return errors.Wrap(ErrInvalidFrame, "mask is nil")
	}
	if m.Width <= 0 || m.Height <= 0 {
		return errors.Wrapf(ErrInvalidFrame, "invalid mask dimensions: %dx%d", m.Width, m.Height)
	}
	if len(m.Bits) != m.Width*m.Height {
		return errors.Wrapf(ErrInvalidFrame, "mask buffer has %d entries, expected %d", len(m.Bits), m.Width*m.Height)
	}
	return nil
}

// CheckSameSize returns ErrShapeMismatch unless the mask matches the given geometry.
func (m *Mask) CheckSameSize(width, height int) error {
	if m.Width != width || m.Height != height {
		return errors.Wrapf(ErrShapeMismatch, "mask is %dx%d, expected %dx%d", m.Width, m.Height, width, height)
	}
	return nil
}

// At reports whether pixel (x, y) is set.
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Set writes pixel (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// SetRect sets every pixel in [x0, x1) × [y0, y1) to v, clipped to the mask.
func (m *Mask) SetRect(x0, y0, x1, y1 int, v bool) {
	for y := max(y0, 0); y < min(y1, m.Height); y++ {
		for x := max(x0, 0); x < min(x1, m.Width); x++ {
			m.Bits[y*m.Width+x] = v
		}
	}
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.Bits))
	copy(bits, m.Bits)
	return &Mask{Width: m.Width, Height: m.Height, Bits: bits}
}

// Not returns the logical complement of the mask.
func (m *Mask) Not() *Mask {
	out := NewMask(m.Width, m.Height)
	for i, b := range m.Bits {
		out.Bits[i] = !b
	}
	return out
}

// Or sets every pixel that is set in other. Both masks must share a geometry.
func (m *Mask) Or(other *Mask) {
	for i, b := range other.Bits {
		if b {
			m.Bits[i] = true
		}
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Contains reports whether every pixel set in other is also set in m.
func (m *Mask) Contains(other *Mask) bool {
	for i, b := range other.Bits {
		if b && !m.Bits[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both masks have the same geometry and bits.
func (m *Mask) Equal(other *Mask) bool {
	if m.Width != other.Width || m.Height != other.Height {
		return false
	}
	for i, b := range m.Bits {
		if other.Bits[i] != b {
			return false
		}
	}
	return true
}
