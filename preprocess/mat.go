package preprocess

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyImage is returned when the source image has no pixels
	ErrEmptyImage = errors.New("source image is empty")
	// ErrImageType is returned when the source image is not 8 bit BGR
	ErrImageType = errors.New("source image must be 8 bit 3 channel")
)

// ValidateSource checks the image is a usable 8 bit, 3 channel BGR image
func ValidateSource(src gocv.Mat) error {

	if src.Empty() {
		return ErrEmptyImage
	}

	if src.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("%w, got type %v", ErrImageType, src.Type())
	}

	return nil
}

// MatFromBytes returns a Mat holding its own copy of data.  gocv can build a
// Mat on top of Go memory so we clone to detach it from the slice, which may
// come from a buffer pool
func MatFromBytes(rows, cols int, mt gocv.MatType, data []byte) (gocv.Mat, error) {

	tmp, err := gocv.NewMatFromBytes(rows, cols, mt, data)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating Mat: %w", err)
	}

	defer tmp.Close()

	return tmp.Clone(), nil
}

// Continuous returns src when its rows are stored without gaps, otherwise a
// packed copy of it.  A Region view of a larger image keeps the parent row
// stride and ToBytes ignores the stride, so views must be packed before
// their bytes are read.  The caller closes the copy when cloned is true
func Continuous(src gocv.Mat) (m gocv.Mat, cloned bool) {

	if src.IsContinuous() {
		return src, false
	}

	return src.Clone(), true
}

// sourceBytes returns the pixel data of the image.  For continuous Mats this
// is a view onto the Mat memory without a copy
func sourceBytes(src gocv.Mat) ([]uint8, error) {

	if src.IsContinuous() {
		return src.DataPtrUint8()
	}

	packed := src.Clone()
	defer packed.Close()

	return packed.ToBytes(), nil
}
