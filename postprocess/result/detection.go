package result

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMask is returned for a mask whose data length does not match its
// dimensions
var ErrInvalidMask = errors.New("mask data does not match its dimensions")

// ClassLabel is the class a segmentation model assigned to a detection
type ClassLabel int

const (
	// ClassUnknown is any class the pipeline does not act on
	ClassUnknown ClassLabel = iota
	// ClassPlant is a single plant on the tray
	ClassPlant
	// ClassReferencePanel is the calibration panel of known reflectance
	ClassReferencePanel
)

// String returns the model label name of the class
func (c ClassLabel) String() string {
	switch c {
	case ClassPlant:
		return "plant"
	case ClassReferencePanel:
		return "reference_panel"
	default:
		return "unknown"
	}
}

// ParseClassLabel maps a model label name to a ClassLabel.  Names that are not
// recognised map to ClassUnknown
func ParseClassLabel(name string) ClassLabel {

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plant":
		return ClassPlant
	case "reference_panel":
		return ClassReferencePanel
	default:
		return ClassUnknown
	}
}

// ClassForID maps a model class ID to a ClassLabel through the model label
// names.  IDs outside the label list are unknown
func ClassForID(labels []string, id int) ClassLabel {

	if id < 0 || id >= len(labels) {
		return ClassUnknown
	}

	return ParseClassLabel(labels[id])
}

// Mask is a binary bitmap at the resolution the segmentation model produced
// it.  Data holds one byte per pixel in row major order, any nonzero value is
// an "on" pixel
type Mask struct {
	Width  int
	Height int
	Data   []uint8
}

// NewMask returns an all "off" mask of the given size
func NewMask(width, height int) Mask {
	return Mask{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height),
	}
}

// At reports if the pixel at x, y is on
func (m Mask) At(x, y int) bool {
	return m.Data[y*m.Width+x] != 0
}

// Set switches the pixel at x, y on
func (m Mask) Set(x, y int) {
	m.Data[y*m.Width+x] = 1
}

// Count returns the number of on pixels
func (m Mask) Count() int {

	n := 0

	for _, v := range m.Data {
		if v != 0 {
			n++
		}
	}

	return n
}

// IsEmpty reports if the mask has no on pixels
func (m Mask) IsEmpty() bool {

	for _, v := range m.Data {
		if v != 0 {
			return false
		}
	}

	return true
}

// Valid reports if the dimensions agree with the data length
func (m Mask) Valid() bool {
	return m.Width > 0 && m.Height > 0 && len(m.Data) == m.Width*m.Height
}

// Check returns ErrInvalidMask with the mask dimensions when it is not Valid
func (m Mask) Check() error {

	if m.Valid() {
		return nil
	}

	return fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidMask, m.Width, m.Height,
		len(m.Data))
}

// Detection is a single instance returned by the segmentation model
type Detection struct {
	// ID is a unique ID assigned to the detection within one response
	ID int64
	// Class of the detected instance
	Class ClassLabel
	// Mask is the instance mask at model native resolution
	Mask Mask
	// Confidence is the model score of the instance
	Confidence float32
}
