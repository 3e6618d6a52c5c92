package render

import (
	"fmt"
	"image/color"

	"github.com/swdee/go-trayseg/postprocess/result"
	"github.com/swdee/go-trayseg/preprocess"
	"gocv.io/x/gocv"
)

// SegmentMask paints the mask as a transparent overlay on the BGR image.  The
// mask is scaled to the image size first
func SegmentMask(img *gocv.Mat, m result.Mask, clr color.RGBA, alpha float32) error {

	// get dimensions
	width := img.Cols()
	height := img.Rows()

	mask, err := preprocess.NewMaskResizer(width, height).Nearest(m)

	if err != nil {
		return fmt.Errorf("error resizing mask: %w", err)
	}

	// it is too slow to manipulate pixel by pixel using GoCV due to slowness
	// over CGO.  So we copy the bytes from the source image and manipulate
	// the bytes directly before copying back to a Mat
	src, cloned := preprocess.Continuous(*img)

	if cloned {
		defer src.Close()
	}

	imgData := src.ToBytes()

	for idx, on := range mask.Data {

		if on == 0 {
			continue
		}

		pixelPos := idx * 3

		// get original pixel colors directly from the byte slice
		b, g, r := imgData[pixelPos+0], imgData[pixelPos+1], imgData[pixelPos+2]

		// calculate blended colors based on alpha transparency
		imgData[pixelPos+0] = uint8(float32(b)*(1-alpha) + float32(clr.B)*alpha)
		imgData[pixelPos+1] = uint8(float32(g)*(1-alpha) + float32(clr.G)*alpha)
		imgData[pixelPos+2] = uint8(float32(r)*(1-alpha) + float32(clr.R)*alpha)
	}

	// copy back to the original mat
	tmpImg, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, imgData)

	if err != nil {
		return fmt.Errorf("error creating overlay Mat: %w", err)
	}

	defer tmpImg.Close()
	tmpImg.CopyTo(img)

	return nil
}

// SegmentOutline draws the outline of the mask contours, skipping contours
// smaller than minArea picked up from aliasing in the resized mask
func SegmentOutline(img *gocv.Mat, m result.Mask, clr color.RGBA,
	minArea float64, lineThickness int) error {

	width := img.Cols()
	height := img.Rows()

	mask, err := preprocess.NewMaskResizer(width, height).Nearest(m)

	if err != nil {
		return fmt.Errorf("error resizing mask: %w", err)
	}

	for i := range mask.Data {
		if mask.Data[i] != 0 {
			mask.Data[i] = 255
		}
	}

	maskMat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, mask.Data)

	if err != nil {
		return fmt.Errorf("error creating mask Mat: %w", err)
	}

	defer maskMat.Close()

	contours := gocv.FindContours(maskMat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		if gocv.ContourArea(contour) < minArea {
			continue
		}

		approx := gocv.ApproxPolyDP(contour, 3, true)

		ptsVec := gocv.NewPointsVector()
		ptsVec.Append(approx)

		gocv.Polylines(img, ptsVec, true, clr, lineThickness)

		approx.Close()
		ptsVec.Close()
	}

	return nil
}
