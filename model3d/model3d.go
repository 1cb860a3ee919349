// Package model3d provides the 3D object model used to hand point clouds
// to the machine-vision side: a set of compacted coordinate arrays with
// named attributes attached at object or point granularity, plus PLY
// serialization. The attribute names and attach levels follow the
// convention of the consuming toolkit, so files written here load there
// unchanged.
package model3d

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Attribute names the grid converter attaches. xyz_mapping records the
// original grid position of each compacted point so the toolkit can
// reconstruct spatial adjacency for meshing.
const (
	AttrXYZMapping = "xyz_mapping"

	AttrPointNormalX = "point_normal_x"
	AttrPointNormalY = "point_normal_y"
	AttrPointNormalZ = "point_normal_z"

	AttrRed   = "red"
	AttrGreen = "green"
	AttrBlue  = "blue"
)

// AttachLevel says what an attribute describes.
type AttachLevel string

const (
	// AttachObject attributes describe the model as a whole and may have
	// any length.
	AttachObject AttachLevel = "object"
	// AttachPoints attributes carry one entry per point.
	AttachPoints AttachLevel = "points"
)

var attachLevels = []AttachLevel{AttachObject, AttachPoints}

// Error is the toolkit-defined error kind. Callers can distinguish it
// from generic capture errors with errors.As.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newErrorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

type floatAttrib struct {
	level  AttachLevel
	values []float32
}

type intAttrib struct {
	level  AttachLevel
	values []int64
}

// ObjectModel3D owns compacted coordinate arrays plus named attributes.
// Construct it with New, populate it with SetFloatAttrib/SetIntAttrib,
// then persist it with WritePLY or WriteFile. It is not safe for
// concurrent mutation.
type ObjectModel3D struct {
	x, y, z []float32

	floatAttribs map[string]floatAttrib
	intAttribs   map[string]intAttrib
}

// New constructs a model from compacted coordinate arrays. The three
// arrays must have equal length.
func New(x, y, z []float32) (*ObjectModel3D, error) {
	if len(x) != len(y) || len(x) != len(z) {
		return nil, newErrorf("coordinate arrays must have equal length, got x=%d y=%d z=%d",
			len(x), len(y), len(z))
	}
	return &ObjectModel3D{
		x:            x,
		y:            y,
		z:            z,
		floatAttribs: map[string]floatAttrib{},
		intAttribs:   map[string]intAttrib{},
	}, nil
}

// NumPoints returns the number of points in the model.
func (m *ObjectModel3D) NumPoints() int {
	return len(m.x)
}

// Coordinates returns the X, Y, and Z arrays. Callers must not mutate
// them.
func (m *ObjectModel3D) Coordinates() (x, y, z []float32) {
	return m.x, m.y, m.z
}

func (m *ObjectModel3D) checkAttrib(name string, level AttachLevel, n int) error {
	if name == "" {
		return newErrorf("attribute name must not be empty")
	}
	if !slices.Contains(attachLevels, level) {
		return newErrorf("unknown attach level %q for attribute %q", level, name)
	}
	if level == AttachPoints && n != m.NumPoints() {
		return newErrorf("points attribute %q has %d values for %d points", name, n, m.NumPoints())
	}
	return nil
}

// SetFloatAttrib attaches a named float attribute, replacing any
// previous attribute of the same name.
func (m *ObjectModel3D) SetFloatAttrib(name string, level AttachLevel, values []float32) error {
	if err := m.checkAttrib(name, level, len(values)); err != nil {
		return err
	}
	delete(m.intAttribs, name)
	m.floatAttribs[name] = floatAttrib{level: level, values: values}
	return nil
}

// SetIntAttrib attaches a named integer attribute, replacing any
// previous attribute of the same name.
func (m *ObjectModel3D) SetIntAttrib(name string, level AttachLevel, values []int64) error {
	if err := m.checkAttrib(name, level, len(values)); err != nil {
		return err
	}
	delete(m.floatAttribs, name)
	m.intAttribs[name] = intAttrib{level: level, values: values}
	return nil
}

// FloatAttrib returns a named float attribute, if attached.
func (m *ObjectModel3D) FloatAttrib(name string) ([]float32, bool) {
	a, ok := m.floatAttribs[name]
	return a.values, ok
}

// IntAttrib returns a named integer attribute, if attached.
func (m *ObjectModel3D) IntAttrib(name string) ([]int64, bool) {
	a, ok := m.intAttribs[name]
	return a.values, ok
}

// AttribLevel returns the attach level of a named attribute of either
// kind, if attached.
func (m *ObjectModel3D) AttribLevel(name string) (AttachLevel, bool) {
	if a, ok := m.floatAttribs[name]; ok {
		return a.level, true
	}
	if a, ok := m.intAttribs[name]; ok {
		return a.level, true
	}
	return "", false
}

func (m *ObjectModel3D) hasNormals() bool {
	for _, name := range []string{AttrPointNormalX, AttrPointNormalY, AttrPointNormalZ} {
		if _, ok := m.floatAttribs[name]; !ok {
			return false
		}
	}
	return true
}

func (m *ObjectModel3D) hasColors() bool {
	for _, name := range []string{AttrRed, AttrGreen, AttrBlue} {
		if _, ok := m.intAttribs[name]; !ok {
			return false
		}
	}
	return true
}
