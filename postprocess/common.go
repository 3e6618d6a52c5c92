package postprocess

import (
	"github.com/swdee/go-trayseg/postprocess/result"
	"gonum.org/v1/gonum/floats"
)

// Point is a location in image pixel coordinates
type Point struct {
	X float64
	Y float64
}

// maskCentroid returns the mean x and y index of the on pixels of the mask in
// the mask's own coordinate space.  ok is false for an empty mask as the
// centroid is undefined
func maskCentroid(m result.Mask) (c Point, ok bool) {

	var sumX, sumY float64
	count := 0

	for y := 0; y < m.Height; y++ {
		row := m.Data[y*m.Width : (y+1)*m.Width]

		for x, v := range row {
			if v == 0 {
				continue
			}

			sumX += float64(x)
			sumY += float64(y)
			count++
		}
	}

	if count == 0 {
		return Point{}, false
	}

	return Point{X: sumX / float64(count), Y: sumY / float64(count)}, true
}

// scaleToSource converts a point in mask space into source image space, each
// axis scaled independently by source size over mask size
func scaleToSource(p Point, m result.Mask, srcWidth, srcHeight int) Point {
	return Point{
		X: p.X * (float64(srcWidth) / float64(m.Width)),
		Y: p.Y * (float64(srcHeight) / float64(m.Height)),
	}
}

// euclidean returns the straight line distance between two points
func euclidean(a, b Point) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}
