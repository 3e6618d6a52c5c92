package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
}

// DefaultFont returns default font settings sized for a 1920x1080 tray photo
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.8,
		Color:     Black,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   6,
		RightPad:  6,
		TopPad:    6,
		BottomPad: 8,
	}
}
