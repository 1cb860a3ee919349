// Package structuredlight converts dense grid frames captured by a
// structured-light 3D camera into compacted point-cloud models for the
// machine-vision toolkit and, through a bridge, into rdk point clouds.
package structuredlight

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/viam-labs/structured-light-camera/capture"
	"github.com/viam-labs/structured-light-camera/model3d"
)

// GridToModel compacts the valid points of a dense grid frame into a 3D
// object model. Cells whose point is invalid (NaN) are dropped; the
// remaining points keep their row-major scan order. The model's geometry
// is the compacted X/Y/Z arrays, with the grid position of each point
// recorded in the xyz_mapping attribute as [width, height, rows...,
// cols...] so the consumer can rebuild spatial adjacency. Normals are
// attached per point, zero where the captured normal was itself invalid;
// colors are attached per point as red/green/blue.
func GridToModel(ctx context.Context, frame *capture.GridFrame) (*model3d.ObjectModel3D, error) {
	_, span := trace.StartSpan(ctx, "structuredlight::GridToModel")
	defer span.End()

	width := frame.Width()
	height := frame.Height()
	numValid := frame.CountValid()

	pointsX := make([]float32, numValid)
	pointsY := make([]float32, numValid)
	pointsZ := make([]float32, numValid)
	// normal buffers must start zeroed: cells with an invalid normal are
	// never written and have to read back as zero
	normalsX := make([]float32, numValid)
	normalsY := make([]float32, numValid)
	normalsZ := make([]float32, numValid)
	colorsR := make([]int64, numValid)
	colorsG := make([]int64, numValid)
	colorsB := make([]int64, numValid)

	xyzMapping := make([]int64, 2*numValid+2)
	xyzMapping[0] = int64(width)
	xyzMapping[1] = int64(height)

	validPointIndex := 0
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			point := frame.PointAt(i, j)
			if point.IsNaN() {
				continue
			}

			pointsX[validPointIndex] = point.X
			pointsY[validPointIndex] = point.Y
			pointsZ[validPointIndex] = point.Z

			color := frame.ColorAt(i, j)
			colorsR[validPointIndex] = int64(color.R)
			colorsG[validPointIndex] = int64(color.G)
			colorsB[validPointIndex] = int64(color.B)

			xyzMapping[2+validPointIndex] = int64(i)
			xyzMapping[2+numValid+validPointIndex] = int64(j)

			if normal := frame.NormalAt(i, j); !normal.IsNaN() {
				normalsX[validPointIndex] = normal.X
				normalsY[validPointIndex] = normal.Y
				normalsZ[validPointIndex] = normal.Z
			}

			validPointIndex++
		}
	}

	model, err := model3d.New(pointsX, pointsY, pointsZ)
	if err != nil {
		return nil, errors.Wrap(err, "error constructing object model from compacted coordinates")
	}

	if err := model.SetIntAttrib(model3d.AttrXYZMapping, model3d.AttachObject, xyzMapping); err != nil {
		return nil, errors.Wrap(err, "error attaching xyz mapping")
	}

	for name, values := range map[string][]float32{
		model3d.AttrPointNormalX: normalsX,
		model3d.AttrPointNormalY: normalsY,
		model3d.AttrPointNormalZ: normalsZ,
	} {
		if err := model.SetFloatAttrib(name, model3d.AttachPoints, values); err != nil {
			return nil, errors.Wrapf(err, "error attaching normal attribute %s", name)
		}
	}

	for name, values := range map[string][]int64{
		model3d.AttrRed:   colorsR,
		model3d.AttrGreen: colorsG,
		model3d.AttrBlue:  colorsB,
	} {
		if err := model.SetIntAttrib(name, model3d.AttachPoints, values); err != nil {
			return nil, errors.Wrapf(err, "error attaching color attribute %s", name)
		}
	}

	return model, nil
}
