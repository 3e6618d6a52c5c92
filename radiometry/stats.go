package radiometry

import (
	"errors"
	"fmt"

	"github.com/swdee/go-trayseg/preprocess"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroPanelStatistic is reported for a channel that had no usable panel
// pixels.  Correction of that channel falls back to passing values through
var ErrZeroPanelStatistic = errors.New("panel statistic is zero")

// PanelStatistics is the mean panel response per channel, indexed by Channel
type PanelStatistics struct {
	Mean [3]float64
	// Pixels is the number of panel pixels that passed the filter
	Pixels [3]int
}

// Zero returns the channels whose statistic is zero
func (s PanelStatistics) Zero() []Channel {

	var zero []Channel

	for _, ch := range channels {
		if s.Mean[ch] == 0 {
			zero = append(zero, ch)
		}
	}

	return zero
}

// Check returns an ErrZeroPanelStatistic error naming every degenerate
// channel, or nil if all channels can be corrected
func (s PanelStatistics) Check() error {

	var errs []error

	for _, ch := range s.Zero() {
		errs = append(errs, fmt.Errorf("%s: %w", ch, ErrZeroPanelStatistic))
	}

	return errors.Join(errs...)
}

// Corrector applies panel based radiometric correction to plant images
type Corrector struct {
	cal Calibration
}

// NewCorrector returns a Corrector for the panel calibration
func NewCorrector(cal Calibration) *Corrector {
	return &Corrector{cal: cal}
}

// Calibration returns the panel constants in use
func (c *Corrector) Calibration() Calibration {
	return c.cal
}

// Statistics computes the mean of every nonzero panel pixel at or below the
// channel saturation threshold.  A channel with no such pixel gets a
// statistic of 0, see ErrZeroPanelStatistic
func (c *Corrector) Statistics(panel gocv.Mat) (PanelStatistics, error) {

	var stats PanelStatistics

	if panel.Empty() {
		return stats, fmt.Errorf("panel image is empty")
	}

	if panel.Type() != gocv.MatTypeCV8UC3 {
		return stats, fmt.Errorf("panel image must be 8 bit 3 channel, got type %v",
			panel.Type())
	}

	panel, cloned := preprocess.Continuous(panel)

	if cloned {
		defer panel.Close()
	}

	data := panel.ToBytes()
	n := panel.Rows() * panel.Cols()

	values := make([]float64, 0, n)

	for _, ch := range channels {
		values = values[:0]
		limit := c.cal.Saturation[ch]

		for i := 0; i < n; i++ {
			v := data[i*3+int(ch)]

			if v != 0 && v <= limit {
				values = append(values, float64(v))
			}
		}

		stats.Pixels[ch] = len(values)

		if len(values) > 0 {
			stats.Mean[ch] = stat.Mean(values, nil)
		}
	}

	return stats, nil
}
