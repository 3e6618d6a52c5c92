package preprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/swdee/go-trayseg/postprocess/result"
	"gocv.io/x/gocv"
)

const (
	// bufMasked is the pool of full resolution masked images
	bufMasked = "masked"
	// channels of a BGR image
	bgrChannels = 3
)

// ErrEmptyMask is returned when a plant mask has no pixels left after it is
// resized and binarized, so there is nothing to crop
var ErrEmptyMask = errors.New("mask has no pixels after binarization")

// ExtractPanel isolates the reference panel pixels of the source image.  The
// panel mask is resized to the source dimensions with nearest neighbor
// sampling and multiplied into every channel, so pixels outside the panel
// become zero
func ExtractPanel(src gocv.Mat, panel result.Mask) (gocv.Mat, error) {

	if err := ValidateSource(src); err != nil {
		return gocv.NewMat(), err
	}

	width := src.Cols()
	height := src.Rows()

	mask, err := NewMaskResizer(width, height).Nearest(panel)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error resizing panel mask: %w", err)
	}

	data, err := sourceBytes(src)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error reading source pixels: %w", err)
	}

	// masked in a copy, the source may be a view onto the caller's memory
	masked := make([]uint8, len(data))
	applyMask(masked, data, mask.Data)

	return MatFromBytes(height, width, gocv.MatTypeCV8UC3, masked)
}

// applyMask writes the src pixel into dst where the mask is on and zero
// elsewhere.  src and dst may be the same slice
func applyMask(dst, src, mask []uint8) {

	for i, on := range mask {
		pos := i * bgrChannels

		if on != 0 {
			dst[pos+0] = src[pos+0]
			dst[pos+1] = src[pos+1]
			dst[pos+2] = src[pos+2]
			continue
		}

		dst[pos+0] = 0
		dst[pos+1] = 0
		dst[pos+2] = 0
	}
}

// PlantExtractor cuts a single plant out of the source image into a
// canonical fixed size image
type PlantExtractor struct {
	canvas Canvas
	bufs   *bufferPool
}

// NewPlantExtractor returns an extractor padding to the given canvas.  It is
// safe for concurrent use
func NewPlantExtractor(c Canvas) *PlantExtractor {
	return &PlantExtractor{
		canvas: c,
		bufs:   newBufferPool(),
	}
}

// Canvas returns the canvas plants are padded to
func (p *PlantExtractor) Canvas() Canvas {
	return p.canvas
}

// Extract returns the plant under the mask cropped to its bounding box and
// padded to the canvas size with black.  The mask is resized to the source
// dimensions with an anti-aliased filter first.  ErrEmptyMask is returned
// when the mask has no pixels to crop, the caller should skip the plant
func (p *PlantExtractor) Extract(src gocv.Mat, plant result.Mask) (gocv.Mat, error) {

	if err := ValidateSource(src); err != nil {
		return gocv.NewMat(), err
	}

	width := src.Cols()
	height := src.Rows()

	mask, err := NewMaskResizer(width, height).AntiAlias(plant)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error resizing plant mask: %w", err)
	}

	if mask.IsEmpty() {
		return gocv.NewMat(), ErrEmptyMask
	}

	srcData, err := sourceBytes(src)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error reading source pixels: %w", err)
	}

	size := width * height * bgrChannels
	p.bufs.Ensure(bufMasked, size)

	masked := p.bufs.Get(bufMasked, size)
	defer p.bufs.Put(bufMasked, masked)

	applyMask(masked, srcData, mask.Data)

	maskedMat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, masked)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating masked Mat: %w", err)
	}

	defer maskedMat.Close()

	// bounding box is found on the grayscale projection only, the color
	// channels are left untouched
	gray := gocv.NewMat()
	defer gray.Close()

	gocv.CvtColor(maskedMat, &gray, gocv.ColorBGRToGray)

	box, ok := nonZeroBounds(gray.ToBytes(), width, height)

	if !ok {
		return gocv.NewMat(), ErrEmptyMask
	}

	crop := maskedMat.Region(box)
	defer crop.Close()

	out := gocv.NewMat()
	p.canvas.Pad(crop, &out)

	return out, nil
}

// nonZeroBounds returns the tight bounding box of the nonzero pixels of a
// single channel image.  ok is false if every pixel is zero
func nonZeroBounds(data []uint8, width, height int) (image.Rectangle, bool) {

	minX, minY := width, height
	maxX, maxY := -1, -1

	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]

		for x, v := range row {
			if v == 0 {
				continue
			}

			if x < minX {
				minX = x
			}

			if x > maxX {
				maxX = x
			}

			if y < minY {
				minY = y
			}

			maxY = y
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
