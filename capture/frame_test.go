package capture_test

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/viam-labs/structured-light-camera/capture"
)

func TestNewGridFrameLengthMismatch(t *testing.T) {
	points := make([]capture.PointXYZ, 6)
	normals := make([]capture.NormalXYZ, 6)
	colors := make([]capture.ColorRGBA, 5)

	_, err := capture.NewGridFrame(3, 2, points, normals, colors)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "colors=5")

	_, err = capture.NewGridFrame(3, 2, points, normals, make([]capture.ColorRGBA, 6))
	test.That(t, err, test.ShouldBeNil)
}

func TestGridFrameAccessors(t *testing.T) {
	nan := float32(math.NaN())
	points := []capture.PointXYZ{
		{1, 2, 3}, {nan, nan, nan},
		{4, 5, 6}, {7, 8, 9},
	}
	normals := []capture.NormalXYZ{
		{0, 0, -1}, {0, 0, -1},
		{nan, nan, nan}, {0, 1, 0},
	}
	colors := []capture.ColorRGBA{
		{R: 1}, {G: 2},
		{B: 3}, {A: 4},
	}

	frame, err := capture.NewGridFrame(2, 2, points, normals, colors)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, frame.Width(), test.ShouldEqual, 2)
	test.That(t, frame.Height(), test.ShouldEqual, 2)
	test.That(t, frame.CountValid(), test.ShouldEqual, 3)

	test.That(t, frame.PointAt(1, 0), test.ShouldResemble, capture.PointXYZ{4, 5, 6})
	test.That(t, frame.PointAt(0, 1).IsNaN(), test.ShouldBeTrue)
	test.That(t, frame.NormalAt(1, 0).IsNaN(), test.ShouldBeTrue)
	test.That(t, frame.NormalAt(1, 1), test.ShouldResemble, capture.NormalXYZ{0, 1, 0})
	test.That(t, frame.ColorAt(1, 1), test.ShouldResemble, capture.ColorRGBA{A: 4})
}

func TestPointValidityTestsXOnly(t *testing.T) {
	// validity is defined on the x component alone
	nan := float32(math.NaN())
	test.That(t, capture.PointXYZ{X: 1, Y: nan, Z: nan}.IsNaN(), test.ShouldBeFalse)
	test.That(t, capture.PointXYZ{X: nan, Y: 1, Z: 1}.IsNaN(), test.ShouldBeTrue)
	test.That(t, capture.NormalXYZ{X: nan}.IsNaN(), test.ShouldBeTrue)
}
