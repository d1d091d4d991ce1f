package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// NewUniformMap returns a height×width map with every element set to v.
func NewUniformMap(width, height int, v float64) *mat.Dense {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(height, width, data)
}

// ProbabilityToGray renders a [0,1] map as an 8-bit gray image (1 maps to 255).
func ProbabilityToGray(p mat.Matrix) *image.Gray {
	rows, cols := p.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := p.At(y, x)
			switch {
			case v <= 0:
				img.Pix[y*img.Stride+x] = 0
			case v >= 1:
				img.Pix[y*img.Stride+x] = 255
			default:
				img.Pix[y*img.Stride+x] = uint8(v*255 + 0.5)
			}
		}
	}
	return img
}

// ProbabilityToMat renders a [0,1] map as a CV_8UC1 Mat. The caller must Close the Mat.
func ProbabilityToMat(p mat.Matrix) (gocv.Mat, error) {
	gray := ProbabilityToGray(p)
	rows, cols := p.Dims()
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create probability mat")
	}
	return m, nil
}
