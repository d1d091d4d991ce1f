// Package util - Loads numbered frame and mask images from directories and writes
// probability maps back out.
package util

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/chai2010/webp"
	"github.com/nvr-ai/go-foreground/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
	// Format is the image format implied by the extension.
	Format images.ImageFormat
}

// frameNumber extracts the trailing number of names like "frame-12.png" or "mask_0007.jpg".
var frameNumber = regexp.MustCompile(`(\d+)\.[A-Za-z]+$`)

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Arguments:
// - dir: Directory path containing image files named with a trailing frame number.
//
// Returns:
// - []ImageFile: Slice of ImageFile, sorted by frame number.
// - error: Error if loading fails or a file name carries no frame number.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var imageFiles []ImageFile
	for _, file := range entries {
		if file.IsDir() {
			continue
		}

		format, ok := images.FormatFromPath(file.Name())
		if !ok {
			continue
		}

		match := frameNumber.FindStringSubmatch(file.Name())
		if match == nil {
			return nil, errors.Errorf("image file %s has no frame number", file.Name())
		}
		frame, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid frame number in %s", file.Name())
		}

		imgPath := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", imgPath)
		}
		imageFiles = append(imageFiles, ImageFile{
			Path:   imgPath,
			Data:   data,
			Frame:  frame,
			Format: format,
		})
	}

	sort.Slice(imageFiles, func(i, j int) bool {
		return imageFiles[i].Frame < imageFiles[j].Frame
	})

	return imageFiles, nil
}

// DecodeImage decodes an image file. WebP goes through chai2010/webp, everything else
// through OpenCV.
func DecodeImage(file ImageFile) (image.Image, error) {
	if file.Format == images.FormatWebP {
		img, err := webp.Decode(bytes.NewReader(file.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode webp %s", file.Path)
		}
		return img, nil
	}

	mat, err := gocv.IMDecode(file.Data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", file.Path)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Errorf("failed to decode %s", file.Path)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to convert %s", file.Path)
	}
	return img, nil
}
