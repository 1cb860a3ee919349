package capture

import (
	"math"

	"github.com/pkg/errors"
)

// PointXYZ is a single grid point in millimeters. An invalid point has
// all three components NaN; per the SDK contract validity is tested on X
// alone.
type PointXYZ struct {
	X, Y, Z float32
}

// IsNaN reports whether the point is invalid.
func (p PointXYZ) IsNaN() bool {
	return math.IsNaN(float64(p.X))
}

// NormalXYZ is a unit surface normal. Normals can be invalid even where
// the point itself is valid; as with points, validity is tested on X.
type NormalXYZ struct {
	X, Y, Z float32
}

// IsNaN reports whether the normal is invalid.
func (n NormalXYZ) IsNaN() bool {
	return math.IsNaN(float64(n.X))
}

// ColorRGBA is the per-point color sample.
type ColorRGBA struct {
	R, G, B, A uint8
}

// GridFrame is a dense width x height capture result copied out of the
// SDK. Every cell holds a point, normal, and color, valid or not, laid
// out row-major. It is immutable once constructed.
type GridFrame struct {
	width  int
	height int

	points  []PointXYZ
	normals []NormalXYZ
	colors  []ColorRGBA
}

// NewGridFrame builds a frame from row-major grids. All three slices
// must have length width*height.
func NewGridFrame(width, height int, points []PointXYZ, normals []NormalXYZ, colors []ColorRGBA) (*GridFrame, error) {
	n := width * height
	if len(points) != n || len(normals) != n || len(colors) != n {
		return nil, errors.Errorf(
			"grid of %dx%d needs %d entries per channel, got points=%d normals=%d colors=%d",
			width, height, n, len(points), len(normals), len(colors))
	}
	return &GridFrame{
		width:   width,
		height:  height,
		points:  points,
		normals: normals,
		colors:  colors,
	}, nil
}

// Width returns the number of columns.
func (f *GridFrame) Width() int {
	return f.width
}

// Height returns the number of rows.
func (f *GridFrame) Height() int {
	return f.height
}

// PointAt returns the point at (row, col).
func (f *GridFrame) PointAt(row, col int) PointXYZ {
	return f.points[row*f.width+col]
}

// NormalAt returns the normal at (row, col).
func (f *GridFrame) NormalAt(row, col int) NormalXYZ {
	return f.normals[row*f.width+col]
}

// ColorAt returns the color at (row, col).
func (f *GridFrame) ColorAt(row, col int) ColorRGBA {
	return f.colors[row*f.width+col]
}

// CountValid returns the number of valid points in the frame.
func (f *GridFrame) CountValid() int {
	count := 0
	for _, p := range f.points {
		if !p.IsNaN() {
			count++
		}
	}
	return count
}
