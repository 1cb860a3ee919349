// Package main captures frames from a structured-light camera, converts
// each into a 3D object model, and writes the result to a PLY file. The
// last frame is additionally exported as PCD through the rdk bridge.
package main

import (
	"context"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/rdk/pointcloud"
	goutils "go.viam.com/utils"

	structuredlight "github.com/viam-labs/structured-light-camera"
	"github.com/viam-labs/structured-light-camera/capture"
	"github.com/viam-labs/structured-light-camera/capture/fake"
	"github.com/viam-labs/structured-light-camera/model3d"
)

const (
	numFrames    = 25
	plyFileName  = "StructuredLight3D.ply"
	pcdFileName  = "StructuredLight3D.pcd"
	cameraWidth  = 972
	cameraHeight = 600
)

func main() {
	goutils.ContextualMain(mainWithArgs, golog.NewLogger("captureandconvert"))
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	logger.Info("connecting to camera")
	cam := fake.NewCamera(fake.Config{
		SerialNumber:    "F2010001",
		Width:           cameraWidth,
		Height:          cameraHeight,
		ProcessingDelay: 5 * time.Millisecond,
	})
	if err := cam.Connect(ctx); err != nil {
		return errors.Wrap(err, "error connecting to camera")
	}
	defer goutils.UncheckedErrorFunc(func() error { return cam.Close(ctx) })

	logger.Info("configuring settings")
	settings := &capture.Settings{
		Aperture:                 5.66,
		ExposureTimeMicroseconds: 8333,
		OutlierRemovalEnabled:    true,
		OutlierRemovalThreshold:  5,
		GaussianSmoothingEnabled: true,
		GaussianSmoothingSigma:   1.5,
	}

	var lastGrid *capture.GridFrame
	for i := 0; i < numFrames; i++ {
		grid, err := captureGrid(ctx, cam, settings)
		if err != nil {
			return errors.Wrapf(err, "error capturing frame %d", i)
		}
		lastGrid = grid

		start := time.Now()
		model, err := structuredlight.GridToModel(ctx, grid)
		if err != nil {
			// attach failures come back as toolkit errors; anything else
			// is a capture-side problem
			var toolkitErr *model3d.Error
			if errors.As(err, &toolkitErr) {
				logger.Errorw("toolkit rejected converted model", "error", toolkitErr.Message)
			}
			return err
		}
		logger.Debugf("frame %d: converted %d points in %s", i, model.NumPoints(), time.Since(start))

		if err := model3d.WriteFile(model, plyFileName, model3d.WriteOptions{
			Format:        model3d.FormatBinaryLittleEndian,
			InvertNormals: false,
		}); err != nil {
			return errors.Wrapf(err, "error saving point cloud to %s", plyFileName)
		}
	}
	logger.Infof("saved point cloud to %s", plyFileName)

	return writePCD(lastGrid, pcdFileName, logger)
}

func captureGrid(ctx context.Context, cam capture.Camera, settings *capture.Settings) (*capture.GridFrame, error) {
	frame, err := cam.Capture(ctx, settings)
	if err != nil {
		return nil, err
	}
	pc, err := frame.PointCloud()
	if err != nil {
		return nil, err
	}
	if err := pc.WaitUntilProcessed(ctx); err != nil {
		return nil, err
	}
	return pc.CopyGrid()
}

func writePCD(grid *capture.GridFrame, path string, logger golog.Logger) (err error) {
	pc, err := structuredlight.ToPointCloud(grid)
	if err != nil {
		return errors.Wrap(err, "error bridging grid to rdk point cloud")
	}

	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := pointcloud.ToPCD(pc, f, pointcloud.PCDBinary); err != nil {
		return errors.Wrapf(err, "error saving point cloud to %s", path)
	}
	logger.Infof("saved point cloud to %s", path)
	return nil
}
