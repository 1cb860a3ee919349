// Package main benchmarks parallel capture across multiple cameras:
// every camera captures each frame index concurrently, and per-camera
// phase averages are reported at the end.
package main

import (
	"context"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/structured-light-camera/bench"
	"github.com/viam-labs/structured-light-camera/capture"
	"github.com/viam-labs/structured-light-camera/capture/fake"
)

const (
	settingsFile   = "settings_slow.yml"
	settings2DFile = "settings_2d.yml"

	warmupRounds = 5
	numFrames    = 30
)

func main() {
	goutils.ContextualMain(mainWithArgs, golog.NewLogger("multicamera"))
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	logger.Info("finding cameras")
	cams := []capture.Camera{
		fake.NewCamera(fake.Config{
			SerialNumber:    "F2010001",
			Width:           972,
			Height:          600,
			ProcessingDelay: 8 * time.Millisecond,
		}),
		fake.NewCamera(fake.Config{
			SerialNumber:    "F2010002",
			Width:           972,
			Height:          600,
			ProcessingDelay: 12 * time.Millisecond,
		}),
	}
	logger.Infof("number of cameras found: %d", len(cams))

	for _, cam := range cams {
		logger.Infof("connecting to camera: %s", cam.Info().SerialNumber)
		if err := cam.Connect(ctx); err != nil {
			return errors.Wrapf(err, "error connecting to camera %s", cam.Info().SerialNumber)
		}
	}
	defer func() {
		for _, cam := range cams {
			goutils.UncheckedErrorFunc(func() error { return cam.Close(ctx) })
		}
	}()

	settings, err := loadSettings(logger)
	if err != nil {
		return err
	}
	settings2D, err := loadSettings2D(logger)
	if err != nil {
		return err
	}

	results, err := bench.Run(ctx, cams, settings, settings2D, bench.Options{
		WarmupRounds: warmupRounds,
		Frames:       numFrames,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("generating statistics")
	for _, res := range results {
		logger.Infof("average 2D capture time for camera %s: %s image time: %s total time: %s",
			res.Serial,
			bench.FormatDuration(res.Avg2D.Capture),
			bench.FormatDuration(res.Avg2D.ImageRGBA),
			bench.FormatDuration(res.Avg2D.Total))
	}
	for _, res := range results {
		logger.Infof("average capture time for camera %s: %s point cloud time: %s processing time: %s copy time: %s total time: %s",
			res.Serial,
			bench.FormatDuration(res.Avg.Capture),
			bench.FormatDuration(res.Avg.PointCloud),
			bench.FormatDuration(res.Avg.Process),
			bench.FormatDuration(res.Avg.Copy),
			bench.FormatDuration(res.Avg.Total))
	}
	return nil
}

// loadSettings reads the settings file next to the binary, falling back
// to slow-capture defaults when the file is absent.
func loadSettings(logger golog.Logger) (*capture.Settings, error) {
	settings, err := capture.LoadSettings(settingsFile)
	if err == nil {
		return settings, nil
	}
	if !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(err, "error loading %s", settingsFile)
	}
	logger.Debugf("%s not found, using default settings", settingsFile)
	return &capture.Settings{
		Aperture:                 5.66,
		ExposureTimeMicroseconds: 20000,
		OutlierRemovalEnabled:    true,
		OutlierRemovalThreshold:  5,
		GaussianSmoothingEnabled: true,
		GaussianSmoothingSigma:   1.5,
	}, nil
}

func loadSettings2D(logger golog.Logger) (*capture.Settings2D, error) {
	settings, err := capture.LoadSettings2D(settings2DFile)
	if err == nil {
		return settings, nil
	}
	if !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(err, "error loading %s", settings2DFile)
	}
	logger.Debugf("%s not found, using default settings", settings2DFile)
	return &capture.Settings2D{
		Aperture:                 2.8,
		ExposureTimeMicroseconds: 10000,
	}, nil
}
