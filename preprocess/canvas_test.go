package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanvasPaddingFor(t *testing.T) {

	c := CanonicalCanvas()

	tests := []struct {
		width    int
		height   int
		expected Padding
	}{
		{100, 50, Padding{Top: 365, Bottom: 365, Left: 340, Right: 340}},
		{101, 779, Padding{Top: 0, Bottom: 1, Left: 339, Right: 340}},
		{780, 780, Padding{}},
		{900, 100, Padding{Top: 340, Bottom: 340, Left: 0, Right: 0}},
		{1000, 1000, Padding{}},
	}

	for _, tc := range tests {
		p := c.PaddingFor(tc.width, tc.height)
		assert.Equal(t, tc.expected, p, "crop %dx%d", tc.width, tc.height)
	}
}

// TestCanvasPaddingSymmetric checks the padding is within a pixel of
// symmetric and fills the canvas exactly for every crop that fits
func TestCanvasPaddingSymmetric(t *testing.T) {

	c := CanonicalCanvas()

	for w := 1; w <= c.Width; w += 7 {
		for h := 1; h <= c.Height; h += 11 {
			p := c.PaddingFor(w, h)

			assert.Equal(t, c.Width, w+p.Left+p.Right)
			assert.Equal(t, c.Height, h+p.Top+p.Bottom)
			assert.Contains(t, []int{0, 1}, p.Right-p.Left)
			assert.Contains(t, []int{0, 1}, p.Bottom-p.Top)
		}
	}
}

func TestCanvasPad(t *testing.T) {

	img := bgrImage(t, 100, 50, func(x, y int) (uint8, uint8, uint8) {
		return 10, 20, 30
	})
	defer img.Close()

	c := CanonicalCanvas()

	out := newMat()
	defer out.Close()

	p := c.Pad(img, &out)

	assert.Equal(t, 780, out.Cols())
	assert.Equal(t, 780, out.Rows())

	data := out.ToBytes()

	assert.Equal(t, [3]uint8{0, 0, 0}, pixel(data, 780, 0, 0))
	assert.Equal(t, [3]uint8{10, 20, 30}, pixel(data, 780, p.Left, p.Top))
	assert.Equal(t, [3]uint8{10, 20, 30}, pixel(data, 780, p.Left+99, p.Top+49))
	assert.Equal(t, [3]uint8{0, 0, 0}, pixel(data, 780, p.Left+100, p.Top+49))
}
