package preprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swdee/go-trayseg/postprocess/result"
	"gocv.io/x/gocv"
)

// bgrImage returns a width x height BGR Mat with each pixel set by fn
func bgrImage(t *testing.T, width, height int,
	fn func(x, y int) (b, g, r uint8)) gocv.Mat {

	t.Helper()

	data := make([]uint8, width*height*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pos := (y*width + x) * 3
			data[pos], data[pos+1], data[pos+2] = fn(x, y)
		}
	}

	img, err := MatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)

	return img
}

// blockMask returns a mask with the rectangle x0,y0 to x1,y1 (exclusive) on
func blockMask(width, height, x0, y0, x1, y1 int) result.Mask {
	m := result.NewMask(width, height)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y)
		}
	}

	return m
}

// pixel returns the BGR value at x, y of an 8 bit 3 channel image
func pixel(data []uint8, width, x, y int) [3]uint8 {
	pos := (y*width + x) * 3
	return [3]uint8{data[pos], data[pos+1], data[pos+2]}
}
