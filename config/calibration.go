package config

import (
	"fmt"

	trayseg "github.com/swdee/go-trayseg"
	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/preprocess"
	"github.com/swdee/go-trayseg/radiometry"
)

// StationSettings is one tray station in source image pixels
type StationSettings struct {
	ID int     `mapstructure:"id"`
	X  float64 `mapstructure:"x"`
	Y  float64 `mapstructure:"y"`
}

// CalibrationSettings hold the tray constants.  Channel lists are in BGR
// order
type CalibrationSettings struct {
	Stations     []StationSettings `mapstructure:"stations"`
	ClassNames   []string          `mapstructure:"class_names"`
	Saturation   []int             `mapstructure:"saturation"`
	Reflectance  []float64         `mapstructure:"reflectance"`
	CanvasWidth  int               `mapstructure:"canvas_width"`
	CanvasHeight int               `mapstructure:"canvas_height"`
}

// TrayCalibration converts the settings into the immutable pipeline calibration
// and validates it
func (s *Settings) TrayCalibration() (trayseg.Calibration, error) {

	c := s.Calibration
	var cal trayseg.Calibration

	if len(c.Saturation) != 3 {
		return cal, fmt.Errorf("calibration.saturation needs 3 values, got %d",
			len(c.Saturation))
	}

	if len(c.Reflectance) != 3 {
		return cal, fmt.Errorf("calibration.reflectance needs 3 values, got %d",
			len(c.Reflectance))
	}

	var panel radiometry.Calibration

	for i := 0; i < 3; i++ {
		if c.Saturation[i] < 0 || c.Saturation[i] > 255 {
			return cal, fmt.Errorf("calibration.saturation[%d] %d outside 0-255",
				i, c.Saturation[i])
		}

		panel.Saturation[i] = uint8(c.Saturation[i])
		panel.Reflectance[i] = c.Reflectance[i]
	}

	for _, st := range c.Stations {
		cal.Stations = append(cal.Stations, postprocess.Station{
			ID: st.ID,
			X:  st.X,
			Y:  st.Y,
		})
	}

	cal.ClassNames = append([]string(nil), c.ClassNames...)

	if s.Pipeline.LabelsFile != "" {
		labels, err := trayseg.LoadLabels(s.Pipeline.LabelsFile)

		if err != nil {
			return cal, err
		}

		cal.ClassNames = labels
	}

	cal.Panel = panel
	cal.Canvas = preprocess.Canvas{Width: c.CanvasWidth, Height: c.CanvasHeight}

	if err := cal.Validate(); err != nil {
		return cal, fmt.Errorf("invalid calibration: %w", err)
	}

	return cal, nil
}
