package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/postprocess/result"
	"gocv.io/x/gocv"
)

// OverlayStyle defines how StationOverlay draws on the tray photo
type OverlayStyle struct {
	Font Font
	// Alpha is the mask paint transparency
	Alpha float32
	// MarkerRadius of the station marker circle
	MarkerRadius  int
	LineThickness int
	// MinArea filters small outline contours
	MinArea float64
}

// DefaultOverlayStyle returns the default overlay style
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		Font:          DefaultFont(),
		Alpha:         0.5,
		MarkerRadius:  12,
		LineThickness: 2,
		MinArea:       10,
	}
}

// StationOverlay paints every assigned plant mask in its station color and
// connects each mask centroid to its station.  Station markers are drawn for
// all stations, including ones with no plant.  panel may be nil
func StationOverlay(img *gocv.Mat, stations []postprocess.Station,
	assigned *postprocess.Assignments, panel *result.Detection,
	style OverlayStyle) error {

	if img.Empty() || img.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("overlay requires a BGR image")
	}

	if panel != nil {
		if err := SegmentMask(img, panel.Mask, White, style.Alpha); err != nil {
			return fmt.Errorf("panel: %w", err)
		}
	}

	if assigned != nil {
		for _, g := range assigned.Groups {
			clr := StationColor(g.Station.ID)

			for _, m := range g.Members {
				if err := SegmentMask(img, m.Detection.Mask, clr, style.Alpha); err != nil {
					return fmt.Errorf("detection %d: %w", m.Detection.ID, err)
				}

				if err := SegmentOutline(img, m.Detection.Mask, clr, style.MinArea,
					style.LineThickness); err != nil {
					return fmt.Errorf("detection %d: %w", m.Detection.ID, err)
				}

				gocv.Line(img, toImagePoint(m.Centroid), toImagePoint(g.Station.Point()),
					clr, style.LineThickness)
				gocv.Circle(img, toImagePoint(m.Centroid), style.LineThickness*2, clr, -1)
			}
		}
	}

	// labels last so they are the top most layer
	for _, st := range stations {
		drawStation(img, st, StationColor(st.ID), style)
	}

	return nil
}

// drawStation draws the station marker with its label above it
func drawStation(img *gocv.Mat, st postprocess.Station, clr color.RGBA,
	style OverlayStyle) {

	center := toImagePoint(st.Point())
	font := style.Font

	gocv.Circle(img, center, style.MarkerRadius, clr, style.LineThickness)
	gocv.Circle(img, center, style.LineThickness, clr, -1)

	text := st.Label()
	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	top := center.Y - style.MarkerRadius - font.BottomPad

	// create box for placing text on
	bRect := image.Rect(center.X-textSize.X/2-font.LeftPad,
		top-textSize.Y-font.TopPad,
		center.X+textSize.X/2+font.RightPad, top+font.BottomPad/2)

	gocv.Rectangle(img, bRect, clr, -1)

	gocv.PutTextWithParams(img, text, image.Pt(center.X-textSize.X/2, top),
		font.Face, font.Scale, font.Color, font.Thickness,
		font.LineType, false)
}

func toImagePoint(p postprocess.Point) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}
