// Package inject provides injectable capture doubles for testing,
// following the function-field style of rdk's testutils/inject: set the
// funcs a test needs and leave the rest to fail loudly.
package inject

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/viam-labs/structured-light-camera/capture"
)

// Camera is an injectable capture.Camera.
type Camera struct {
	InfoFunc      func() capture.CameraInfo
	ConnectFunc   func(ctx context.Context) error
	CaptureFunc   func(ctx context.Context, settings *capture.Settings) (capture.Frame, error)
	Capture2DFunc func(ctx context.Context, settings *capture.Settings2D) (capture.Frame2D, error)
	CloseFunc     func(ctx context.Context) error
}

// Info calls the injected Info or returns a zero CameraInfo.
func (c *Camera) Info() capture.CameraInfo {
	if c.InfoFunc == nil {
		return capture.CameraInfo{}
	}
	return c.InfoFunc()
}

// Connect calls the injected Connect or succeeds.
func (c *Camera) Connect(ctx context.Context) error {
	if c.ConnectFunc == nil {
		return nil
	}
	return c.ConnectFunc(ctx)
}

// Capture calls the injected Capture.
func (c *Camera) Capture(ctx context.Context, settings *capture.Settings) (capture.Frame, error) {
	if c.CaptureFunc == nil {
		return nil, errors.New("Capture unimplemented")
	}
	return c.CaptureFunc(ctx, settings)
}

// Capture2D calls the injected Capture2D.
func (c *Camera) Capture2D(ctx context.Context, settings *capture.Settings2D) (capture.Frame2D, error) {
	if c.Capture2DFunc == nil {
		return nil, errors.New("Capture2D unimplemented")
	}
	return c.Capture2DFunc(ctx, settings)
}

// Close calls the injected Close or succeeds.
func (c *Camera) Close(ctx context.Context) error {
	if c.CloseFunc == nil {
		return nil
	}
	return c.CloseFunc(ctx)
}

// Frame is an injectable capture.Frame.
type Frame struct {
	PointCloudFunc func() (capture.PointCloud, error)
}

// PointCloud calls the injected PointCloud.
func (f *Frame) PointCloud() (capture.PointCloud, error) {
	if f.PointCloudFunc == nil {
		return nil, errors.New("PointCloud unimplemented")
	}
	return f.PointCloudFunc()
}

// PointCloud is an injectable capture.PointCloud.
type PointCloud struct {
	WidthFunc              func() int
	HeightFunc             func() int
	WaitUntilProcessedFunc func(ctx context.Context) error
	CopyGridFunc           func() (*capture.GridFrame, error)
}

// Width calls the injected Width or returns 0.
func (pc *PointCloud) Width() int {
	if pc.WidthFunc == nil {
		return 0
	}
	return pc.WidthFunc()
}

// Height calls the injected Height or returns 0.
func (pc *PointCloud) Height() int {
	if pc.HeightFunc == nil {
		return 0
	}
	return pc.HeightFunc()
}

// WaitUntilProcessed calls the injected WaitUntilProcessed or succeeds.
func (pc *PointCloud) WaitUntilProcessed(ctx context.Context) error {
	if pc.WaitUntilProcessedFunc == nil {
		return nil
	}
	return pc.WaitUntilProcessedFunc(ctx)
}

// CopyGrid calls the injected CopyGrid.
func (pc *PointCloud) CopyGrid() (*capture.GridFrame, error) {
	if pc.CopyGridFunc == nil {
		return nil, errors.New("CopyGrid unimplemented")
	}
	return pc.CopyGridFunc()
}

// Frame2D is an injectable capture.Frame2D.
type Frame2D struct {
	ImageRGBAFunc func() (*image.NRGBA, error)
}

// ImageRGBA calls the injected ImageRGBA.
func (f *Frame2D) ImageRGBA() (*image.NRGBA, error) {
	if f.ImageRGBAFunc == nil {
		return nil, errors.New("ImageRGBA unimplemented")
	}
	return f.ImageRGBAFunc()
}
