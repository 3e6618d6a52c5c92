package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-trayseg/postprocess/result"
	"gocv.io/x/gocv"
)

// newMat returns an empty Mat for use as a destination
func newMat() gocv.Mat {
	return gocv.NewMat()
}

func TestMaskResizerNearest(t *testing.T) {

	// diagonal 2x2 mask scaled up to 4x4
	m := result.Mask{Width: 2, Height: 2, Data: []uint8{1, 0, 0, 1}}

	out, err := NewMaskResizer(4, 4).Nearest(m)
	require.NoError(t, err)

	expected := []uint8{
		1, 1, 0, 0,
		1, 1, 0, 0,
		0, 0, 1, 1,
		0, 0, 1, 1,
	}

	assert.Equal(t, 4, out.Width)
	assert.Equal(t, 4, out.Height)
	assert.Equal(t, expected, out.Data)
}

func TestMaskResizerSameSize(t *testing.T) {

	// values other than 0 and 1 are normalised
	m := result.Mask{Width: 3, Height: 1, Data: []uint8{0, 255, 7}}

	out, err := NewMaskResizer(3, 1).AntiAlias(m)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 1}, out.Data)
}

func TestMaskResizerAntiAliasUpscale(t *testing.T) {

	// a block in the middle of a 40x20 mask scaled 4x
	m := blockMask(40, 20, 10, 5, 30, 15)

	out, err := NewMaskResizer(160, 80).AntiAlias(m)
	require.NoError(t, err)

	// output is binary
	for _, v := range out.Data {
		require.Contains(t, []uint8{0, 1}, v)
	}

	// interior is on, far corners are off
	assert.True(t, out.At(80, 40))
	assert.True(t, out.At(45, 25))
	assert.False(t, out.At(0, 0))
	assert.False(t, out.At(159, 79))

	// area is 16x the original within a band of edge pixels
	assert.InDelta(t, 200*16, out.Count(), 200)
}

func TestMaskResizerAntiAliasDownscale(t *testing.T) {

	// a full mask shrinks to a full mask, a single isolated pixel vanishes
	full := blockMask(8, 8, 0, 0, 8, 8)

	out, err := NewMaskResizer(4, 4).AntiAlias(full)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Count())

	speck := blockMask(8, 8, 3, 3, 4, 4)

	out, err = NewMaskResizer(4, 4).AntiAlias(speck)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestMaskResizerInvalid(t *testing.T) {

	_, err := NewMaskResizer(4, 4).Nearest(result.Mask{Width: 2, Height: 2})
	assert.Error(t, err)

	_, err = NewMaskResizer(0, 4).Nearest(blockMask(2, 2, 0, 0, 1, 1))
	assert.Error(t, err)
}
