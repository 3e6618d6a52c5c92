package trayseg

import (
	"errors"
	"fmt"

	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/preprocess"
	"github.com/swdee/go-trayseg/radiometry"
)

// StationCount is the number of plant positions on the tray
const StationCount = 6

// Calibration holds the fixed configuration of a tray setup.  It is loaded
// once at start up and never changed
type Calibration struct {
	// Stations are the tray plant positions in source image coordinates
	Stations []postprocess.Station
	// ClassNames are the segmentation model labels by class ID
	ClassNames []string
	// Panel are the reference panel constants
	Panel radiometry.Calibration
	// Canvas is the size plant images are padded to
	Canvas preprocess.Canvas
}

// PeaTrayCalibration returns the calibration of the pea tray rig, a 1920x1080
// camera over a six plant tray with a grey reference panel
func PeaTrayCalibration() Calibration {
	return Calibration{
		Stations:   postprocess.PeaTrayStations(),
		ClassNames: []string{"plant", "reference_panel"},
		Panel:      radiometry.PeaPanelCalibration(),
		Canvas:     preprocess.CanonicalCanvas(),
	}
}

// Validate checks the calibration is usable
func (c Calibration) Validate() error {

	var errs []error

	if len(c.Stations) != StationCount {
		errs = append(errs, fmt.Errorf("expected %d stations, got %d",
			StationCount, len(c.Stations)))
	}

	seen := make(map[int]bool)

	for _, st := range c.Stations {
		if st.ID < 1 || st.ID > StationCount {
			errs = append(errs, fmt.Errorf("station ID %d out of range 1-%d",
				st.ID, StationCount))
		}

		if seen[st.ID] {
			errs = append(errs, fmt.Errorf("duplicate station ID %d", st.ID))
		}

		seen[st.ID] = true
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid canvas %dx%d",
			c.Canvas.Width, c.Canvas.Height))
	}

	if err := c.Panel.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
