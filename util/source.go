package util

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-foreground/images"
	"github.com/nvr-ai/go-foreground/segmentation"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// MaskThreshold is the gray level at or above which a mask pixel counts as foreground.
const MaskThreshold = 128

// DirectorySource pairs numbered frames with numbered rough foreground masks.
type DirectorySource struct {
	frames   []ImageFile
	masks    map[int]ImageFile
	maxWidth int
	next     int
}

// NewDirectorySource loads the frame and mask file lists.
//
// Arguments:
//   - framesDir: Directory of frames, e.g. frame-1.jpg, frame-2.jpg.
//   - masksDir: Directory of rough foreground masks numbered like the frames. When
//     empty, every frame gets an all-background mask.
//   - maxWidth: Frames wider than this are downscaled, keeping the aspect ratio; 0 disables.
//
// Returns:
//   - *DirectorySource: The source, positioned at the first frame.
//   - error: If a directory cannot be read or a frame has no mask.
func NewDirectorySource(framesDir, masksDir string, maxWidth int) (*DirectorySource, error) {
	frames, err := LoadDirectoryImageFiles(framesDir)
	if err != nil {
		return nil, err
	}

	src := &DirectorySource{frames: frames, maxWidth: maxWidth}
	if masksDir == "" {
		return src, nil
	}

	masks, err := LoadDirectoryImageFiles(masksDir)
	if err != nil {
		return nil, err
	}
	src.masks = make(map[int]ImageFile, len(masks))
	for _, m := range masks {
		src.masks[m.Frame] = m
	}
	for _, f := range frames {
		if _, ok := src.masks[f.Frame]; !ok {
			return nil, errors.Errorf("no mask for frame %d (%s)", f.Frame, f.Path)
		}
	}
	return src, nil
}

// Len returns the number of frames.
func (s *DirectorySource) Len() int {
	return len(s.frames)
}

// Next decodes the next frame and its mask. It returns io.EOF after the last frame.
func (s *DirectorySource) Next() (segmentation.Sample, error) {
	if s.next >= len(s.frames) {
		return segmentation.Sample{}, io.EOF
	}
	file := s.frames[s.next]
	s.next++

	img, err := DecodeImage(file)
	if err != nil {
		return segmentation.Sample{}, err
	}
	img = s.downscale(img)
	frame := images.FrameFromImage(img)

	sample := segmentation.Sample{Index: file.Frame, Frame: frame}
	if s.masks == nil {
		sample.Mask = images.NewMask(frame.Width, frame.Height)
		return sample, nil
	}

	maskImg, err := DecodeImage(s.masks[file.Frame])
	if err != nil {
		return segmentation.Sample{}, err
	}
	if b := maskImg.Bounds(); b.Dx() != frame.Width || b.Dy() != frame.Height {
		maskImg = resize.Resize(uint(frame.Width), uint(frame.Height), maskImg, resize.NearestNeighbor)
	}
	sample.Mask = images.MaskFromImage(maskImg, MaskThreshold)
	return sample, nil
}

func (s *DirectorySource) downscale(img image.Image) image.Image {
	b := img.Bounds()
	if s.maxWidth <= 0 || b.Dx() <= s.maxWidth {
		return img
	}
	height := max(1, b.Dy()*s.maxWidth/b.Dx())
	return resize.Resize(uint(s.maxWidth), uint(height), img, resize.Bilinear)
}

// PNGSink writes each probability map as an 8-bit grayscale PNG named prob-N.png.
type PNGSink struct {
	Dir string
}

// NewPNGSink creates the output directory if needed.
func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	return &PNGSink{Dir: dir}, nil
}

// Path returns the file written for a frame index.
func (s *PNGSink) Path(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("prob-%05d.png", index))
}

// Write renders prob with 1.0 as white and writes it with OpenCV.
func (s *PNGSink) Write(index int, prob *mat.Dense) error {
	m, err := images.ProbabilityToMat(prob)
	if err != nil {
		return err
	}
	defer m.Close()

	path := s.Path(index)
	if ok := gocv.IMWrite(path, m); !ok {
		return errors.Errorf("failed to write %s", path)
	}
	return nil
}
