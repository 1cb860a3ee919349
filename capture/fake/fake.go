// Package fake implements capture.Camera against a synthetic scene, so
// demos and tests run without camera hardware. The scene is a sphere
// hanging over a flat backdrop: cells on the sphere's silhouette come
// back invalid (the projector cannot reach them), steeper sphere faces
// keep a valid point but lose their normal, and color is a plain
// gradient. Output is deterministic for a given resolution.
package fake

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/structured-light-camera/capture"
)

const (
	defaultWidth  = 1944
	defaultHeight = 1200

	backdropDepthMM = 1000
	sphereDepthMM   = 800

	// fractions of the sphere radius where geometry degrades.
	normalDropoffFraction = 0.85
	silhouetteFraction    = 0.96
)

// Config configures a fake camera.
type Config struct {
	SerialNumber string
	Width        int
	Height       int
	// ProcessingDelay simulates on-device point cloud processing;
	// WaitUntilProcessed blocks until it has elapsed after the capture.
	ProcessingDelay time.Duration
}

// Camera is a synthetic structured-light camera.
type Camera struct {
	cfg Config

	mu        sync.Mutex
	connected bool
}

// NewCamera returns a fake camera for the given config. Zero Width and
// Height fall back to the native sensor resolution.
func NewCamera(cfg Config) *Camera {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.SerialNumber == "" {
		cfg.SerialNumber = "F0000000"
	}
	return &Camera{cfg: cfg}
}

// Info implements capture.Camera.
func (c *Camera) Info() capture.CameraInfo {
	return capture.CameraInfo{
		SerialNumber: c.cfg.SerialNumber,
		ModelName:    "fake-structured-light",
	}
}

// Connect implements capture.Camera.
func (c *Camera) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

// Close implements capture.Camera.
func (c *Camera) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

func (c *Camera) checkConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return errors.Errorf("camera %s is not connected", c.cfg.SerialNumber)
	}
	return nil
}

// Capture implements capture.Camera.
func (c *Camera) Capture(ctx context.Context, settings *capture.Settings) (capture.Frame, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "capture settings rejected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &frame{
		grid:    renderScene(c.cfg.Width, c.cfg.Height),
		readyAt: time.Now().Add(c.cfg.ProcessingDelay),
	}, nil
}

// Capture2D implements capture.Camera.
func (c *Camera) Capture2D(ctx context.Context, settings *capture.Settings2D) (capture.Frame2D, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "capture settings rejected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &frame2D{width: c.cfg.Width, height: c.cfg.Height}, nil
}

type frame struct {
	grid    *capture.GridFrame
	readyAt time.Time
}

func (f *frame) PointCloud() (capture.PointCloud, error) {
	return &pointCloud{grid: f.grid, readyAt: f.readyAt}, nil
}

type pointCloud struct {
	grid    *capture.GridFrame
	readyAt time.Time
}

func (pc *pointCloud) Width() int  { return pc.grid.Width() }
func (pc *pointCloud) Height() int { return pc.grid.Height() }

func (pc *pointCloud) WaitUntilProcessed(ctx context.Context) error {
	remaining := time.Until(pc.readyAt)
	if remaining <= 0 {
		return nil
	}
	if !goutils.SelectContextOrWait(ctx, remaining) {
		return ctx.Err()
	}
	return nil
}

func (pc *pointCloud) CopyGrid() (*capture.GridFrame, error) {
	return pc.grid, nil
}

type frame2D struct {
	width, height int
}

func (f *frame2D) ImageRGBA() (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			img.SetNRGBA(x, y, colorAt(x, y, f.width, f.height))
		}
	}
	return img, nil
}

func colorAt(x, y, width, height int) color.NRGBA {
	return color.NRGBA{
		R: uint8(x * 255 / maxInt(width, 1)),
		G: uint8(y * 255 / maxInt(height, 1)),
		B: 128,
		A: 255,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// renderScene produces the dense grid for a width x height sensor.
func renderScene(width, height int) *capture.GridFrame {
	n := width * height
	points := make([]capture.PointXYZ, n)
	normals := make([]capture.NormalXYZ, n)
	colors := make([]capture.ColorRGBA, n)

	nan := float32(math.NaN())
	radius := float64(minInt(width, height)) / 4

	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			idx := i*width + j
			// millimeter coordinates centered on the optical axis
			x := float64(j) - float64(width)/2
			y := float64(i) - float64(height)/2
			r := math.Hypot(x, y)

			c := colorAt(j, i, width, height)
			colors[idx] = capture.ColorRGBA{R: c.R, G: c.G, B: c.B, A: c.A}

			switch {
			case r >= radius:
				// flat backdrop
				points[idx] = capture.PointXYZ{X: float32(x), Y: float32(y), Z: backdropDepthMM}
				normals[idx] = capture.NormalXYZ{X: 0, Y: 0, Z: -1}
			case r > silhouetteFraction*radius:
				// silhouette ring the projector cannot reach
				points[idx] = capture.PointXYZ{X: nan, Y: nan, Z: nan}
				normals[idx] = capture.NormalXYZ{X: nan, Y: nan, Z: nan}
			default:
				dz := math.Sqrt(radius*radius - r*r)
				points[idx] = capture.PointXYZ{
					X: float32(x),
					Y: float32(y),
					Z: float32(sphereDepthMM - dz),
				}
				if r > normalDropoffFraction*radius {
					// face too steep for a normal estimate
					normals[idx] = capture.NormalXYZ{X: nan, Y: nan, Z: nan}
				} else {
					normals[idx] = capture.NormalXYZ{
						X: float32(x / radius),
						Y: float32(y / radius),
						Z: float32(-dz / radius),
					}
				}
			}
		}
	}

	frame, err := capture.NewGridFrame(width, height, points, normals, colors)
	if err != nil {
		// lengths are computed above; this cannot happen
		panic(err)
	}
	return frame
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
