package trayseg

import (
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/postprocess/result"
	"github.com/swdee/go-trayseg/preprocess"
	"go.uber.org/goleak"
	"gocv.io/x/gocv"
)

const (
	srcWidth   = 192
	srcHeight  = 108
	maskWidth  = 96
	maskHeight = 54
)

// testCalibration is the pea tray scaled down ten times so a small source
// image can be used
func testCalibration() Calibration {

	cal := PeaTrayCalibration()

	for i := range cal.Stations {
		cal.Stations[i].X /= 10
		cal.Stations[i].Y /= 10
	}

	cal.Canvas = preprocess.Canvas{Width: 78, Height: 78}

	return cal
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()

	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	p, err := NewPipeline(testCalibration(), opts...)
	require.NoError(t, err)

	return p
}

// trayImage returns a source image of uniform color with an optional black
// rectangle
func trayImage(t *testing.T, black ...[4]int) gocv.Mat {
	t.Helper()

	data := make([]uint8, srcWidth*srcHeight*3)

	for y := 0; y < srcHeight; y++ {
	next:
		for x := 0; x < srcWidth; x++ {
			for _, r := range black {
				if x >= r[0] && y >= r[1] && x < r[2] && y < r[3] {
					continue next
				}
			}

			pos := (y*srcWidth + x) * 3
			data[pos], data[pos+1], data[pos+2] = 50, 100, 150
		}
	}

	img, err := preprocess.MatFromBytes(srcHeight, srcWidth, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)

	return img
}

// detection returns a detection with a block mask at model resolution
func detection(id int64, class result.ClassLabel, x0, y0, x1, y1 int) result.Detection {

	m := result.NewMask(maskWidth, maskHeight)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y)
		}
	}

	return result.Detection{ID: id, Class: class, Mask: m, Confidence: 0.9}
}

// panelDet covers source pixels 80-100 x 10-30
func panelDet(id int64) result.Detection {
	return detection(id, result.ClassReferencePanel, 40, 5, 50, 15)
}

// plantNear returns a plant detection centered on the station
func plantNear(id int64, st postprocess.Station) result.Detection {
	cx := int(st.X / 2)
	cy := int(st.Y / 2)
	return detection(id, result.ClassPlant, cx-2, cy-2, cx+3, cy+3)
}

func station(t *testing.T, cal Calibration, id int) postprocess.Station {
	t.Helper()

	for _, st := range cal.Stations {
		if st.ID == id {
			return st
		}
	}

	t.Fatalf("no station %d", id)
	return postprocess.Station{}
}

func rgbAt(img gocv.Mat, x, y int) [3]uint8 {
	data := img.ToBytes()
	pos := (y*img.Cols() + x) * 3
	return [3]uint8{data[pos], data[pos+1], data[pos+2]}
}

func TestProcessScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := newTestPipeline(t)
	cal := p.Calibration()

	src := trayImage(t)
	defer src.Close()

	dets := []result.Detection{
		plantNear(1, station(t, cal, 3)),
		plantNear(2, station(t, cal, 1)),
		panelDet(3),
	}

	res, err := p.Process(src, dets)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, []string{"plant 3", "plant 1"}, res.Labels())
	assert.Empty(t, res.Skipped)
	assert.NoError(t, res.Warning)
	assert.Nil(t, res.Images("reference_panel"))

	for _, label := range []string{"plant 3", "plant 1"} {
		imgs := res.Images(label)
		require.Len(t, imgs, 1, label)

		img := imgs[0].Image
		assert.Equal(t, 78, img.Cols())
		assert.Equal(t, 78, img.Rows())

		// panel stats equal the plant color so each channel maps to
		// reflectance * 255, output is RGB
		assert.Equal(t, [3]uint8{45, 44, 42}, rgbAt(img, 39, 39), label)
		assert.Equal(t, [3]uint8{0, 0, 0}, rgbAt(img, 0, 0), label)
	}

	first, ok := res.First("plant 3")
	require.True(t, ok)
	assert.Equal(t, int64(1), first.DetectionID)

	assert.InDelta(t, 50.0, res.Statistics.Mean[0], 1e-9)
	assert.InDelta(t, 100.0, res.Statistics.Mean[1], 1e-9)
	assert.InDelta(t, 150.0, res.Statistics.Mean[2], 1e-9)
}

func TestProcessNoPanel(t *testing.T) {

	p := newTestPipeline(t)
	cal := p.Calibration()

	src := trayImage(t)
	defer src.Close()

	dets := []result.Detection{
		plantNear(1, station(t, cal, 3)),
		plantNear(2, station(t, cal, 1)),
		{ID: 3, Class: result.ClassUnknown, Mask: panelDet(3).Mask},
	}

	res, err := p.Process(src, dets)
	assert.ErrorIs(t, err, ErrNoPanelDetected)
	assert.Nil(t, res)
}

func TestProcessInvalidSource(t *testing.T) {

	p := newTestPipeline(t)

	src := gocv.NewMat()
	defer src.Close()

	res, err := p.Process(src, []result.Detection{panelDet(1)})
	assert.ErrorIs(t, err, preprocess.ErrEmptyImage)
	assert.Nil(t, res)
}

func TestProcessSkipsBlackPlant(t *testing.T) {

	p := newTestPipeline(t)
	cal := p.Calibration()

	// station 6 sits at 46,23 in source space, blank out the area around it
	src := trayImage(t, [4]int{36, 13, 58, 34})
	defer src.Close()

	dets := []result.Detection{
		plantNear(1, station(t, cal, 6)),
		plantNear(2, station(t, cal, 1)),
		detection(3, result.ClassPlant, 0, 0, 0, 0),
		panelDet(4),
	}

	res, err := p.Process(src, dets)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, []string{"plant 1"}, res.Labels())
	assert.Equal(t, 1, res.Discarded)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, int64(1), res.Skipped[0].DetectionID)
	assert.Equal(t, "plant 6", res.Skipped[0].Station)
	assert.Equal(t, StageExtractPlant, res.Skipped[0].Stage)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrEmptyMaskSkipped)
}

func TestProcessSkipsMalformedMask(t *testing.T) {

	p := newTestPipeline(t)
	cal := p.Calibration()

	src := trayImage(t)
	defer src.Close()

	malformed := plantNear(2, station(t, cal, 3))
	malformed.Mask.Data = malformed.Mask.Data[:10]

	dets := []result.Detection{
		plantNear(1, station(t, cal, 1)),
		malformed,
		detection(3, result.ClassPlant, 0, 0, 0, 0),
		panelDet(4),
	}

	res, err := p.Process(src, dets)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, []string{"plant 1"}, res.Labels())

	// empty and malformed masks are reported apart
	assert.Equal(t, 1, res.Discarded)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, int64(2), res.Skipped[0].DetectionID)
	assert.Empty(t, res.Skipped[0].Station)
	assert.Equal(t, StageAssignStations, res.Skipped[0].Stage)
	assert.ErrorIs(t, res.Skipped[0].Err, result.ErrInvalidMask)
}

func TestProcessZeroPanelStatistic(t *testing.T) {

	p := newTestPipeline(t)
	cal := p.Calibration()

	// panel area is black so every channel statistic is zero
	src := trayImage(t, [4]int{80, 10, 100, 30})
	defer src.Close()

	dets := []result.Detection{
		plantNear(1, station(t, cal, 2)),
		panelDet(2),
	}

	res, err := p.Process(src, dets)
	require.NoError(t, err)
	defer res.Close()

	assert.ErrorIs(t, res.Warning, ErrZeroPanelStatistic)

	img, ok := res.First("plant 2")
	require.True(t, ok)

	// identity correction, only the channel order changes
	assert.Equal(t, [3]uint8{150, 100, 50}, rgbAt(img.Image, 39, 39))
}

func TestProcessSameStation(t *testing.T) {

	p := newTestPipeline(t, WithWorkers(1))
	cal := p.Calibration()

	src := trayImage(t)
	defer src.Close()

	st := station(t, cal, 1)
	second := plantNear(2, st)
	second.Mask = detection(2, result.ClassPlant,
		int(st.X/2)+1, int(st.Y/2)-2, int(st.X/2)+5, int(st.Y/2)+2).Mask

	dets := []result.Detection{
		plantNear(1, st),
		second,
		panelDet(3),
	}

	res, err := p.Process(src, dets)
	require.NoError(t, err)
	defer res.Close()

	imgs := res.Images("plant 1")
	require.Len(t, imgs, 2)
	assert.Equal(t, int64(1), imgs[0].DetectionID)
	assert.Equal(t, int64(2), imgs[1].DetectionID)
	assert.Equal(t, 2, res.Len())
}

func TestProcessIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := newTestPipeline(t, WithWorkers(4))
	cal := p.Calibration()

	src := trayImage(t)
	defer src.Close()

	var dets []result.Detection

	for i, st := range cal.Stations {
		dets = append(dets, plantNear(int64(i+1), st))
	}

	dets = append(dets, panelDet(99))

	run := func() map[string][]byte {
		res, err := p.Process(src, dets)
		require.NoError(t, err)
		defer res.Close()

		out := make(map[string][]byte)

		for _, s := range res.Stations {
			out[s.Label()] = s.Images[0].Image.ToBytes()
		}

		assert.Equal(t, []string{"plant 1", "plant 2", "plant 3",
			"plant 4", "plant 5", "plant 6"}, res.Labels())

		return out
	}

	assert.Equal(t, run(), run())
}

// TestProcessRegionView runs the pipeline over a Region of a larger photo,
// which shares the parent row stride, and expects the same output as the
// identical pixels held in their own Mat
func TestProcessRegionView(t *testing.T) {

	p := newTestPipeline(t)
	cal := p.Calibration()

	const border = 16

	full := preprocessImage(t, srcWidth+2*border, srcHeight+2*border,
		func(x, y int) (uint8, uint8, uint8) {
			return uint8(40 + x%120), uint8(60 + y%100), uint8(90 + (x+y)%80)
		})
	defer full.Close()

	view := full.Region(image.Rect(border, border, border+srcWidth, border+srcHeight))
	defer view.Close()

	require.False(t, view.IsContinuous())

	standalone := view.Clone()
	defer standalone.Close()

	dets := []result.Detection{
		plantNear(1, station(t, cal, 3)),
		plantNear(2, station(t, cal, 1)),
		panelDet(3),
	}

	want, err := p.Process(standalone, dets)
	require.NoError(t, err)
	defer want.Close()

	got, err := p.Process(view, dets)
	require.NoError(t, err)
	defer got.Close()

	assert.Equal(t, want.Statistics, got.Statistics)
	require.Equal(t, want.Labels(), got.Labels())
	require.Equal(t, 2, got.Len())

	for _, label := range want.Labels() {
		w, ok := want.First(label)
		require.True(t, ok)

		g, ok := got.First(label)
		require.True(t, ok)

		assert.Equal(t, w.Image.ToBytes(), g.Image.ToBytes(), label)
	}
}

// preprocessImage returns a width x height BGR Mat with each pixel set by fn
func preprocessImage(t *testing.T, width, height int,
	fn func(x, y int) (b, g, r uint8)) gocv.Mat {

	t.Helper()

	data := make([]uint8, width*height*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pos := (y*width + x) * 3
			data[pos], data[pos+1], data[pos+2] = fn(x, y)
		}
	}

	img, err := preprocess.MatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)

	return img
}

func TestNewPipelineInvalidCalibration(t *testing.T) {

	cal := testCalibration()
	cal.Stations = cal.Stations[:4]

	_, err := NewPipeline(cal)
	assert.Error(t, err)
}
