package structuredlight

import (
	"image/color"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/pointcloud"

	"github.com/viam-labs/structured-light-camera/capture"
)

// ToPointCloud converts the valid cells of a grid frame into an rdk
// point cloud with per-point color, for interop with tooling that
// consumes PCD rather than the toolkit's model format.
func ToPointCloud(frame *capture.GridFrame) (pointcloud.PointCloud, error) {
	pc := pointcloud.NewWithPrealloc(frame.CountValid())

	for i := 0; i < frame.Height(); i++ {
		for j := 0; j < frame.Width(); j++ {
			point := frame.PointAt(i, j)
			if point.IsNaN() {
				continue
			}
			c := frame.ColorAt(i, j)
			err := pc.Set(
				r3.Vector{X: float64(point.X), Y: float64(point.Y), Z: float64(point.Z)},
				pointcloud.NewColoredData(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}),
			)
			if err != nil {
				return nil, err
			}
		}
	}

	return pc, nil
}
