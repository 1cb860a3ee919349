// Package capture defines the interface to a structured-light 3D camera
// SDK: connecting to cameras, acquiring dense depth+color frames, and the
// grid data those frames expose. The real SDK binding is supplied
// elsewhere; this package carries the contract plus the frame data types,
// so converters and benchmarks can be written and tested against it.
package capture

import (
	"context"
	"image"
)

// CameraInfo identifies a connected camera.
type CameraInfo struct {
	SerialNumber string
	ModelName    string
}

// Camera is a single structured-light camera. Connect must be called
// before the first capture. Implementations are expected to be safe for
// one in-flight capture at a time per camera; callers that want parallel
// capture use one camera per goroutine.
type Camera interface {
	Info() CameraInfo
	Connect(ctx context.Context) error

	// Capture performs a full 3D acquisition with the given settings.
	Capture(ctx context.Context, settings *Settings) (Frame, error)

	// Capture2D performs a color-only acquisition.
	Capture2D(ctx context.Context, settings *Settings2D) (Frame2D, error)

	Close(ctx context.Context) error
}

// Frame is the result of a 3D capture.
type Frame interface {
	// PointCloud returns the frame's point cloud handle. Processing may
	// still be in flight; call WaitUntilProcessed before copying if exact
	// timing matters.
	PointCloud() (PointCloud, error)
}

// PointCloud is a handle to the dense grid held by the SDK.
type PointCloud interface {
	Width() int
	Height() int

	// WaitUntilProcessed blocks until on-device processing of the cloud
	// has finished.
	WaitUntilProcessed(ctx context.Context) error

	// CopyGrid copies the full dense grid (points, normals, colors) out
	// of the SDK into caller-owned memory.
	CopyGrid() (*GridFrame, error)
}

// Frame2D is the result of a color-only capture.
type Frame2D interface {
	ImageRGBA() (*image.NRGBA, error)
}
