// Package bench measures multi-camera parallel capture performance: one
// goroutine per camera per frame, all cameras finishing a frame index
// before the next one starts, with per-camera phase timings averaged
// over the run.
package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/structured-light-camera/capture"
)

// Times holds the phase durations of one 3D capture.
type Times struct {
	Capture    time.Duration
	PointCloud time.Duration
	Process    time.Duration
	Copy       time.Duration
	Total      time.Duration
}

// Accumulate adds another capture's phase times into t.
func (t *Times) Accumulate(o Times) {
	t.Capture += o.Capture
	t.PointCloud += o.PointCloud
	t.Process += o.Process
	t.Copy += o.Copy
	t.Total += o.Total
}

// Average returns the per-capture mean of an accumulated total.
func (t Times) Average(n int) Times {
	if n == 0 {
		return Times{}
	}
	d := time.Duration(n)
	return Times{
		Capture:    t.Capture / d,
		PointCloud: t.PointCloud / d,
		Process:    t.Process / d,
		Copy:       t.Copy / d,
		Total:      t.Total / d,
	}
}

// Times2D holds the phase durations of one color-only capture.
type Times2D struct {
	Capture   time.Duration
	ImageRGBA time.Duration
	Total     time.Duration
}

// Accumulate adds another capture's phase times into t.
func (t *Times2D) Accumulate(o Times2D) {
	t.Capture += o.Capture
	t.ImageRGBA += o.ImageRGBA
	t.Total += o.Total
}

// Average returns the per-capture mean of an accumulated total.
func (t Times2D) Average(n int) Times2D {
	if n == 0 {
		return Times2D{}
	}
	d := time.Duration(n)
	return Times2D{
		Capture:   t.Capture / d,
		ImageRGBA: t.ImageRGBA / d,
		Total:     t.Total / d,
	}
}

// CameraResult is the averaged timing for one camera over a run.
type CameraResult struct {
	Serial string
	Frames int
	Avg    Times
	Avg2D  Times2D
}

// Options configures a benchmark run.
type Options struct {
	// WarmupRounds is the number of untimed full-parallel captures run
	// before measurement starts.
	WarmupRounds int
	// Frames is the number of measured frame indices.
	Frames int
}

// captureOnce runs one full 3D acquisition and times each phase.
func captureOnce(ctx context.Context, cam capture.Camera, settings *capture.Settings) (Times, error) {
	beforeCapture := time.Now()

	frame, err := cam.Capture(ctx, settings)
	if err != nil {
		return Times{}, err
	}
	afterCapture := time.Now()

	pc, err := frame.PointCloud()
	if err != nil {
		return Times{}, err
	}
	afterPointCloud := time.Now()

	if err := pc.WaitUntilProcessed(ctx); err != nil {
		return Times{}, err
	}
	afterProcess := time.Now()

	if _, err := pc.CopyGrid(); err != nil {
		return Times{}, err
	}
	afterCopy := time.Now()

	return Times{
		Capture:    afterCapture.Sub(beforeCapture),
		PointCloud: afterPointCloud.Sub(afterCapture),
		Process:    afterProcess.Sub(afterPointCloud),
		Copy:       afterCopy.Sub(afterProcess),
		Total:      afterCopy.Sub(beforeCapture),
	}, nil
}

// capture2DOnce runs one color-only acquisition and times each phase.
func capture2DOnce(ctx context.Context, cam capture.Camera, settings *capture.Settings2D) (Times2D, error) {
	beforeCapture := time.Now()

	frame2D, err := cam.Capture2D(ctx, settings)
	if err != nil {
		return Times2D{}, err
	}
	afterCapture := time.Now()

	if _, err := frame2D.ImageRGBA(); err != nil {
		return Times2D{}, err
	}
	afterImage := time.Now()

	return Times2D{
		Capture:   afterCapture.Sub(beforeCapture),
		ImageRGBA: afterImage.Sub(afterCapture),
		Total:     afterImage.Sub(beforeCapture),
	}, nil
}

// forEachCamera launches fn once per camera in parallel and waits for
// every launch to finish. Each goroutine writes only its own error slot,
// so no locking is needed. The first error encountered, in camera order,
// is returned.
func forEachCamera(cams []capture.Camera, fn func(j int, cam capture.Camera) error) error {
	var wg sync.WaitGroup
	errs := make([]error, len(cams))

	for j, cam := range cams {
		wg.Add(1)
		j, cam := j, cam
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			errs[j] = fn(j, cam)
		})
	}
	wg.Wait()

	for j, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "camera %s", cams[j].Info().SerialNumber)
		}
	}
	return nil
}

// Run benchmarks parallel capture across the given cameras. All cameras
// must already be connected. For each measured frame index, a 2D pass
// runs across all cameras in parallel (skipped when settings2D is nil),
// then a 3D pass; the run blocks until every camera finishes a pass
// before moving on. Results are written into per-camera slots owned by
// exactly one goroutine. There is no retry and no per-capture timeout: a
// stalled camera stalls the run until ctx is done inside the SDK call.
func Run(
	ctx context.Context,
	cams []capture.Camera,
	settings *capture.Settings,
	settings2D *capture.Settings2D,
	opts Options,
	logger golog.Logger,
) ([]CameraResult, error) {
	ctx, span := trace.StartSpan(ctx, "bench::Run")
	defer span.End()

	if len(cams) == 0 {
		return nil, errors.New("no cameras to benchmark")
	}
	if opts.Frames <= 0 {
		return nil, errors.Errorf("frame count must be positive, got %d", opts.Frames)
	}

	logger.Debugf("warmup: %d rounds across %d cameras", opts.WarmupRounds, len(cams))
	for i := 0; i < opts.WarmupRounds; i++ {
		err := forEachCamera(cams, func(j int, cam capture.Camera) error {
			_, err := captureOnce(ctx, cam, settings)
			return err
		})
		if err != nil {
			return nil, errors.Wrap(err, "error during warmup")
		}
	}

	// allTimes[i][j] holds the times for frame index i on camera j.
	allTimes := make([][]Times, opts.Frames)
	allTimes2D := make([][]Times2D, opts.Frames)
	for i := range allTimes {
		allTimes[i] = make([]Times, len(cams))
		allTimes2D[i] = make([]Times2D, len(cams))
	}

	for i := 0; i < opts.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if settings2D != nil {
			err := forEachCamera(cams, func(j int, cam capture.Camera) error {
				times2D, err := capture2DOnce(ctx, cam, settings2D)
				if err != nil {
					return err
				}
				allTimes2D[i][j] = times2D
				return nil
			})
			if err != nil {
				return nil, errors.Wrapf(err, "error during 2D capture of frame %d", i)
			}
		}

		err := forEachCamera(cams, func(j int, cam capture.Camera) error {
			times, err := captureOnce(ctx, cam, settings)
			if err != nil {
				return err
			}
			allTimes[i][j] = times
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "error during capture of frame %d", i)
		}
	}

	results := make([]CameraResult, len(cams))
	for j, cam := range cams {
		var total Times
		var total2D Times2D
		for i := 0; i < opts.Frames; i++ {
			total.Accumulate(allTimes[i][j])
			total2D.Accumulate(allTimes2D[i][j])
		}
		results[j] = CameraResult{
			Serial: cam.Info().SerialNumber,
			Frames: opts.Frames,
			Avg:    total.Average(opts.Frames),
			Avg2D:  total2D.Average(opts.Frames),
		}
	}
	return results, nil
}

// FormatDuration renders a duration as milliseconds with three decimals,
// the way the per-camera report prints it.
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
