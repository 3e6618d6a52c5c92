package radiometry

import (
	"errors"
	"fmt"
)

// Channel indexes a color channel of an 8 bit BGR image
type Channel int

const (
	Blue  Channel = 0
	Green Channel = 1
	Red   Channel = 2
)

// channels in BGR memory order
var channels = []Channel{Blue, Green, Red}

// String returns the channel name
func (c Channel) String() string {
	switch c {
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Calibration holds the fixed constants of the reference panel, indexed by
// Channel
type Calibration struct {
	// Saturation is the highest panel pixel value still used for statistics,
	// brighter pixels are treated as glare
	Saturation [3]uint8
	// Reflectance is the known physical reflectance of the panel
	Reflectance [3]float64
}

// PeaPanelCalibration returns the constants of the grey reference panel used
// on the pea tray
func PeaPanelCalibration() Calibration {
	return Calibration{
		Saturation:  [3]uint8{Blue: 223, Green: 211, Red: 206},
		Reflectance: [3]float64{Blue: 0.166, Green: 0.175, Red: 0.178},
	}
}

// Validate checks every reflectance factor is positive
func (c Calibration) Validate() error {

	var errs []error

	for _, ch := range channels {
		if c.Reflectance[ch] <= 0 {
			errs = append(errs, fmt.Errorf("%s reflectance must be positive, got %v",
				ch, c.Reflectance[ch]))
		}
	}

	return errors.Join(errs...)
}
