package radiometry

import (
	"fmt"

	"github.com/swdee/go-trayseg/preprocess"
	"gocv.io/x/gocv"
)

// Correct scales each channel of the BGR plant image by the panel statistic
// and reflectance factor, clipping to 0-255.  A channel with a zero
// statistic is copied through unchanged.  The returned image is in RGB
// channel order
func (c *Corrector) Correct(img gocv.Mat, stats PanelStatistics) (gocv.Mat, error) {

	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("plant image is empty")
	}

	if img.Type() != gocv.MatTypeCV8UC3 {
		return gocv.NewMat(), fmt.Errorf("plant image must be 8 bit 3 channel, got type %v",
			img.Type())
	}

	// lookup table per channel, the correction only depends on the value
	var lut [3][256]uint8

	for _, ch := range channels {
		lut[ch] = c.channelTable(ch, stats.Mean[ch])
	}

	img, cloned := preprocess.Continuous(img)

	if cloned {
		defer img.Close()
	}

	data := img.ToBytes()
	out := make([]uint8, len(data))

	for i := 0; i < len(data); i += 3 {
		// BGR in, RGB out
		out[i+0] = lut[Red][data[i+2]]
		out[i+1] = lut[Green][data[i+1]]
		out[i+2] = lut[Blue][data[i+0]]
	}

	corrected, err := gocv.NewMatFromBytes(img.Rows(), img.Cols(), gocv.MatTypeCV8UC3, out)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating corrected Mat: %w", err)
	}

	defer corrected.Close()

	return corrected.Clone(), nil
}

// channelTable returns the corrected value for every input value of the
// channel
func (c *Corrector) channelTable(ch Channel, panelMean float64) [256]uint8 {

	var table [256]uint8

	for v := 0; v < 256; v++ {
		table[v] = c.correctValue(ch, uint8(v), panelMean)
	}

	return table
}

// correctValue applies the reflectance correction to a single value
func (c *Corrector) correctValue(ch Channel, v uint8, panelMean float64) uint8 {

	if panelMean == 0 {
		return v
	}

	return clipUint8((float64(v) / panelMean) * c.cal.Reflectance[ch] * 255)
}

// clipUint8 clamps val into 0-255 and truncates it towards zero
func clipUint8(val float64) uint8 {

	if val <= 0 {
		return 0
	}

	if val >= 255 {
		return 255
	}

	return uint8(val)
}
