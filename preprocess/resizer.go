package preprocess

import (
	"fmt"
	"image"

	"github.com/swdee/go-trayseg/postprocess/result"
	"gocv.io/x/gocv"
)

const (
	// maskOn is the value an on pixel takes while the mask is resampled as an
	// 8 bit image
	maskOn = 255
	// antiAliasCut re-binarizes an anti-aliased mask at 0.5
	antiAliasCut = maskOn / 2
)

// MaskResizer scales segmentation masks from model resolution to the
// dimensions of the source image
type MaskResizer struct {
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
}

// NewMaskResizer returns a resizer that scales masks to destWidth x destHeight
func NewMaskResizer(destWidth, destHeight int) *MaskResizer {
	return &MaskResizer{
		destWidth:  destWidth,
		destHeight: destHeight,
	}
}

// Nearest resizes the mask with nearest neighbor sampling so every output
// pixel takes the value of one input pixel
func (r *MaskResizer) Nearest(m result.Mask) (result.Mask, error) {
	return r.resize(m, gocv.InterpolationNearestNeighbor, 0)
}

// AntiAlias resizes the mask with a smoothing filter, area averaging when
// shrinking and bilinear when enlarging, then re-binarizes the result at 0.5
// to give a clean 0/1 mask without stair step artifacts
func (r *MaskResizer) AntiAlias(m result.Mask) (result.Mask, error) {
	return r.resize(m, r.antiAliasFilter(m), antiAliasCut)
}

// antiAliasFilter picks the interpolation used for an anti-aliased resize
func (r *MaskResizer) antiAliasFilter(m result.Mask) gocv.InterpolationFlags {

	if r.destWidth < m.Width || r.destHeight < m.Height {
		return gocv.InterpolationArea
	}

	return gocv.InterpolationLinear
}

// resize scales the mask with the given interpolation and marks every output
// pixel above cut as on
func (r *MaskResizer) resize(m result.Mask, interp gocv.InterpolationFlags,
	cut uint8) (result.Mask, error) {

	if !m.Valid() {
		return result.Mask{}, fmt.Errorf("invalid mask %dx%d with %d bytes",
			m.Width, m.Height, len(m.Data))
	}

	if r.destWidth <= 0 || r.destHeight <= 0 {
		return result.Mask{}, fmt.Errorf("invalid resize dimensions %dx%d",
			r.destWidth, r.destHeight)
	}

	out := result.NewMask(r.destWidth, r.destHeight)

	// same size, only normalise the values
	if m.Width == r.destWidth && m.Height == r.destHeight {
		for i, v := range m.Data {
			if v != 0 {
				out.Data[i] = 1
			}
		}

		return out, nil
	}

	buf := make([]uint8, len(m.Data))

	for i, v := range m.Data {
		if v != 0 {
			buf[i] = maskOn
		}
	}

	src, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, buf)

	if err != nil {
		return result.Mask{}, fmt.Errorf("error creating mask Mat: %w", err)
	}

	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, image.Pt(r.destWidth, r.destHeight), 0, 0, interp)

	for i, v := range dst.ToBytes() {
		if v > cut {
			out.Data[i] = 1
		}
	}

	return out, nil
}
