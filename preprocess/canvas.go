package preprocess

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Canvas is the fixed size every extracted plant image is padded to
type Canvas struct {
	Width  int
	Height int
}

// CanonicalCanvas returns the 780x780 canvas the spray classifier was
// trained on
func CanonicalCanvas() Canvas {
	return Canvas{Width: 780, Height: 780}
}

// Padding is the border added on each side of an image
type Padding struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// PaddingFor works out the border needed to bring a width x height image up
// to the canvas size.  The leading side gets half the padding rounded down
// and the trailing side the remainder.  A dimension already at or over the
// canvas size gets no padding and is not cropped
func (c Canvas) PaddingFor(width, height int) Padding {

	padH := max(0, c.Height-height)
	padW := max(0, c.Width-width)

	return Padding{
		Top:    padH / 2,
		Bottom: padH - padH/2,
		Left:   padW / 2,
		Right:  padW - padW/2,
	}
}

// Pad copies src into dst centered on a black border sized by PaddingFor
func (c Canvas) Pad(src gocv.Mat, dst *gocv.Mat) Padding {

	p := c.PaddingFor(src.Cols(), src.Rows())

	gocv.CopyMakeBorder(src, dst, p.Top, p.Bottom, p.Left, p.Right,
		gocv.BorderConstant, color.RGBA{R: 0, G: 0, B: 0, A: 0})

	return p
}
