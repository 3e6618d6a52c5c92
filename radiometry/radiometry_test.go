package radiometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// bgrPixels returns a 1 row BGR image of the given pixels
func bgrPixels(t *testing.T, px ...[3]uint8) gocv.Mat {
	t.Helper()

	data := make([]uint8, 0, len(px)*3)

	for _, p := range px {
		data = append(data, p[0], p[1], p[2])
	}

	tmp, err := gocv.NewMatFromBytes(1, len(px), gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	defer tmp.Close()

	return tmp.Clone()
}

func TestStatisticsZeroPanel(t *testing.T) {

	panel := gocv.NewMatWithSize(20, 30, gocv.MatTypeCV8UC3)
	defer panel.Close()
	panel.SetTo(gocv.NewScalar(0, 0, 0, 0))

	c := NewCorrector(PeaPanelCalibration())

	stats, err := c.Statistics(panel)
	require.NoError(t, err)

	assert.Equal(t, [3]float64{0, 0, 0}, stats.Mean)
	assert.Equal(t, []Channel{Blue, Green, Red}, stats.Zero())

	err = stats.Check()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrZeroPanelStatistic)
	assert.Contains(t, err.Error(), "green")
}

func TestStatisticsThresholds(t *testing.T) {

	// saturation thresholds are B 223, G 211, R 206
	panel := bgrPixels(t,
		[3]uint8{100, 200, 206},
		[3]uint8{230, 211, 207},
		[3]uint8{0, 212, 0},
		[3]uint8{200, 100, 100},
	)
	defer panel.Close()

	c := NewCorrector(PeaPanelCalibration())

	stats, err := c.Statistics(panel)
	require.NoError(t, err)

	assert.InDelta(t, 150.0, stats.Mean[Blue], 1e-9)
	assert.InDelta(t, (200.0+211.0+100.0)/3, stats.Mean[Green], 1e-9)
	assert.InDelta(t, 153.0, stats.Mean[Red], 1e-9)
	assert.Equal(t, [3]int{2, 3, 2}, stats.Pixels)
	assert.NoError(t, stats.Check())
}

func TestStatisticsInvalid(t *testing.T) {

	c := NewCorrector(PeaPanelCalibration())

	empty := gocv.NewMat()
	defer empty.Close()

	_, err := c.Statistics(empty)
	assert.Error(t, err)

	gray := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	defer gray.Close()

	_, err = c.Statistics(gray)
	assert.Error(t, err)
}

func TestCorrect(t *testing.T) {

	c := NewCorrector(PeaPanelCalibration())
	stats := PanelStatistics{Mean: [3]float64{Blue: 100, Green: 50, Red: 200}}

	img := bgrPixels(t,
		[3]uint8{50, 25, 100},
		[3]uint8{0, 0, 0},
		[3]uint8{255, 255, 255},
	)
	defer img.Close()

	out, err := c.Correct(img, stats)
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, 3, out.Cols())
	require.Equal(t, 1, out.Rows())

	data := out.ToBytes()

	// B 50/100*0.166*255 = 21.165, G 25/50*0.175*255 = 22.31,
	// R 100/200*0.178*255 = 22.695, written back as RGB
	assert.Equal(t, []uint8{22, 22, 21}, data[0:3])
	assert.Equal(t, []uint8{0, 0, 0}, data[3:6])

	// R 255/200*0.178*255 = 57.8, G 255/50*0.175*255 = 227.6,
	// B 255/100*0.166*255 = 107.9
	assert.Equal(t, []uint8{57, 227, 107}, data[6:9])
}

func TestCorrectZeroStatisticIsIdentity(t *testing.T) {

	c := NewCorrector(PeaPanelCalibration())
	stats := PanelStatistics{Mean: [3]float64{Blue: 0, Green: 50, Red: 0}}

	img := bgrPixels(t, [3]uint8{12, 25, 34})
	defer img.Close()

	out, err := c.Correct(img, stats)
	require.NoError(t, err)
	defer out.Close()

	// red and blue pass through, in RGB order
	assert.Equal(t, []uint8{34, 22, 12}, out.ToBytes())
}

// TestCorrectRange checks every input value maps into 0-255 and the mapping
// never decreases for any positive panel statistic
func TestCorrectRange(t *testing.T) {

	c := NewCorrector(PeaPanelCalibration())

	for _, mean := range []float64{0.5, 1, 7.25, 42, 128, 255, 1000} {
		for _, ch := range channels {
			table := c.channelTable(ch, mean)

			for v := 1; v < 256; v++ {
				assert.GreaterOrEqual(t, table[v], table[v-1],
					"channel %s mean %v value %d", ch, mean, v)
			}
		}
	}

	assert.Equal(t, uint8(0), clipUint8(-4))
	assert.Equal(t, uint8(255), clipUint8(1e9))
	assert.Equal(t, uint8(9), clipUint8(9.99))
}

func TestRegionView(t *testing.T) {

	// 4x2 image, the right half is the view
	full := bgrPixels(t,
		[3]uint8{1, 1, 1}, [3]uint8{1, 1, 1}, [3]uint8{100, 50, 200}, [3]uint8{100, 50, 200},
		[3]uint8{1, 1, 1}, [3]uint8{1, 1, 1}, [3]uint8{100, 50, 200}, [3]uint8{50, 25, 100},
	)
	defer full.Close()

	rows := full.Reshape(3, 2)
	defer rows.Close()

	view := rows.Region(image.Rect(2, 0, 4, 2))
	defer view.Close()

	require.False(t, view.IsContinuous())

	c := NewCorrector(PeaPanelCalibration())

	stats, err := c.Statistics(view)
	require.NoError(t, err)

	assert.InDelta(t, 87.5, stats.Mean[Blue], 1e-9)
	assert.InDelta(t, 43.75, stats.Mean[Green], 1e-9)
	assert.InDelta(t, 175.0, stats.Mean[Red], 1e-9)

	out, err := c.Correct(view, PanelStatistics{Mean: [3]float64{Blue: 100, Green: 50, Red: 200}})
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, 2, out.Rows())
	data := out.ToBytes()

	// a pixel equal to the statistic maps to its reflectance
	assert.Equal(t, []uint8{45, 44, 42}, data[0:3])
	assert.Equal(t, []uint8{22, 22, 21}, data[9:12])
}

func TestCalibrationValidate(t *testing.T) {

	assert.NoError(t, PeaPanelCalibration().Validate())

	cal := PeaPanelCalibration()
	cal.Reflectance[Green] = 0

	err := cal.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "green")
}
