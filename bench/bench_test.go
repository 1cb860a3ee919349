package bench_test

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-labs/structured-light-camera/bench"
	"github.com/viam-labs/structured-light-camera/capture"
	"github.com/viam-labs/structured-light-camera/capture/fake"
	"github.com/viam-labs/structured-light-camera/inject"
)

var testSettings = &capture.Settings{
	Aperture:                 5.66,
	ExposureTimeMicroseconds: 8333,
}

var testSettings2D = &capture.Settings2D{
	Aperture:                 2.8,
	ExposureTimeMicroseconds: 10000,
}

// countingCamera returns an injected camera that counts 3D and 2D
// captures and serves a tiny valid frame.
func countingCamera(serial string, captures, captures2D *int64) *inject.Camera {
	grid, err := capture.NewGridFrame(2, 2,
		make([]capture.PointXYZ, 4),
		make([]capture.NormalXYZ, 4),
		make([]capture.ColorRGBA, 4),
	)
	if err != nil {
		panic(err)
	}

	return &inject.Camera{
		InfoFunc: func() capture.CameraInfo {
			return capture.CameraInfo{SerialNumber: serial}
		},
		CaptureFunc: func(ctx context.Context, settings *capture.Settings) (capture.Frame, error) {
			atomic.AddInt64(captures, 1)
			return &inject.Frame{
				PointCloudFunc: func() (capture.PointCloud, error) {
					return &inject.PointCloud{
						CopyGridFunc: func() (*capture.GridFrame, error) { return grid, nil },
					}, nil
				},
			}, nil
		},
		Capture2DFunc: func(ctx context.Context, settings *capture.Settings2D) (capture.Frame2D, error) {
			atomic.AddInt64(captures2D, 1)
			return &inject.Frame2D{
				ImageRGBAFunc: func() (*image.NRGBA, error) {
					return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
				},
			}, nil
		},
	}
}

func TestRunCountsAndResults(t *testing.T) {
	logger := golog.NewTestLogger(t)

	var capturesA, capturesB, captures2DA, captures2DB int64
	cams := []capture.Camera{
		countingCamera("A", &capturesA, &captures2DA),
		countingCamera("B", &capturesB, &captures2DB),
	}

	opts := bench.Options{WarmupRounds: 2, Frames: 5}
	results, err := bench.Run(context.Background(), cams, testSettings, testSettings2D, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 2)

	// warmup rounds capture but are not measured
	test.That(t, capturesA, test.ShouldEqual, int64(7))
	test.That(t, capturesB, test.ShouldEqual, int64(7))
	test.That(t, captures2DA, test.ShouldEqual, int64(5))
	test.That(t, captures2DB, test.ShouldEqual, int64(5))

	test.That(t, results[0].Serial, test.ShouldEqual, "A")
	test.That(t, results[1].Serial, test.ShouldEqual, "B")
	for _, res := range results {
		test.That(t, res.Frames, test.ShouldEqual, 5)
		test.That(t, res.Avg.Total, test.ShouldBeGreaterThanOrEqualTo, time.Duration(0))
		test.That(t, res.Avg2D.Total, test.ShouldBeGreaterThanOrEqualTo, time.Duration(0))
	}
}

func TestRunSkips2DWithoutSettings(t *testing.T) {
	logger := golog.NewTestLogger(t)

	var captures, captures2D int64
	cams := []capture.Camera{countingCamera("A", &captures, &captures2D)}

	_, err := bench.Run(context.Background(), cams, testSettings, nil,
		bench.Options{Frames: 3}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, captures, test.ShouldEqual, int64(3))
	test.That(t, captures2D, test.ShouldEqual, int64(0))
}

func TestRunPropagatesCaptureError(t *testing.T) {
	logger := golog.NewTestLogger(t)

	var captures, captures2D int64
	good := countingCamera("GOOD", &captures, &captures2D)
	bad := &inject.Camera{
		InfoFunc: func() capture.CameraInfo {
			return capture.CameraInfo{SerialNumber: "BAD"}
		},
		CaptureFunc: func(ctx context.Context, settings *capture.Settings) (capture.Frame, error) {
			return nil, errors.New("sensor overheated")
		},
	}

	_, err := bench.Run(context.Background(), []capture.Camera{good, bad},
		testSettings, nil, bench.Options{Frames: 2}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sensor overheated")
	test.That(t, err.Error(), test.ShouldContainSubstring, "BAD")
}

func TestRunValidatesOptions(t *testing.T) {
	logger := golog.NewTestLogger(t)

	_, err := bench.Run(context.Background(), nil, testSettings, nil,
		bench.Options{Frames: 1}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	var captures, captures2D int64
	cams := []capture.Camera{countingCamera("A", &captures, &captures2D)}
	_, err = bench.Run(context.Background(), cams, testSettings, nil,
		bench.Options{Frames: 0}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRunAgainstFakeCameras(t *testing.T) {
	logger := golog.NewTestLogger(t)

	cams := []capture.Camera{
		fake.NewCamera(fake.Config{SerialNumber: "F1", Width: 32, Height: 24, ProcessingDelay: time.Millisecond}),
		fake.NewCamera(fake.Config{SerialNumber: "F2", Width: 32, Height: 24, ProcessingDelay: 2 * time.Millisecond}),
	}
	for _, cam := range cams {
		test.That(t, cam.Connect(context.Background()), test.ShouldBeNil)
	}

	results, err := bench.Run(context.Background(), cams, testSettings, testSettings2D,
		bench.Options{WarmupRounds: 1, Frames: 3}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 2)

	// camera F2 simulates slower processing than F1
	test.That(t, results[1].Avg.Process, test.ShouldBeGreaterThanOrEqualTo, results[0].Avg.Process)
	for _, res := range results {
		test.That(t, res.Avg.Total, test.ShouldBeGreaterThan, time.Duration(0))
	}
}

func TestTimesArithmetic(t *testing.T) {
	var total bench.Times
	total.Accumulate(bench.Times{Capture: 10, PointCloud: 20, Process: 30, Copy: 40, Total: 100})
	total.Accumulate(bench.Times{Capture: 30, PointCloud: 40, Process: 50, Copy: 60, Total: 180})

	avg := total.Average(2)
	test.That(t, avg, test.ShouldResemble, bench.Times{
		Capture: 20, PointCloud: 30, Process: 40, Copy: 50, Total: 140,
	})
	test.That(t, bench.Times{Capture: 10}.Average(0), test.ShouldResemble, bench.Times{})

	var total2D bench.Times2D
	total2D.Accumulate(bench.Times2D{Capture: 10, ImageRGBA: 20, Total: 30})
	total2D.Accumulate(bench.Times2D{Capture: 20, ImageRGBA: 40, Total: 60})
	test.That(t, total2D.Average(2), test.ShouldResemble, bench.Times2D{Capture: 15, ImageRGBA: 30, Total: 45})
}

func TestFormatDuration(t *testing.T) {
	test.That(t, bench.FormatDuration(1500*time.Microsecond), test.ShouldEqual, "1.500 ms")
	test.That(t, bench.FormatDuration(0), test.ShouldEqual, "0.000 ms")
	test.That(t, bench.FormatDuration(2*time.Second), test.ShouldEqual, "2000.000 ms")
}
