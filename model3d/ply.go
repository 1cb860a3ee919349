package model3d

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	goutils "go.viam.com/utils"
)

// Format selects the PLY encoding.
type Format int

const (
	// FormatASCII writes one whitespace-separated vertex per line.
	FormatASCII Format = iota
	// FormatBinaryLittleEndian writes packed little-endian vertex records.
	FormatBinaryLittleEndian
)

// WriteOptions controls PLY serialization.
type WriteOptions struct {
	Format Format
	// InvertNormals flips the sign of the written normal components.
	InvertNormals bool
}

// WritePLY serializes the model as a PLY point cloud. Geometry is always
// written; nx/ny/nz are included when the three point-normal attributes
// are attached, and uchar red/green/blue when the three color attributes
// are attached. Object-level attributes have no slot in the vertex
// element and are not serialized.
func WritePLY(m *ObjectModel3D, out io.Writer, opts WriteOptions) error {
	hasNormals := m.hasNormals()
	hasColors := m.hasColors()

	var formatLine string
	switch opts.Format {
	case FormatASCII:
		formatLine = "format ascii 1.0"
	case FormatBinaryLittleEndian:
		formatLine = "format binary_little_endian 1.0"
	default:
		return newErrorf("unsupported ply format %d", opts.Format)
	}

	header := []string{
		"ply",
		formatLine,
		fmt.Sprintf("element vertex %d", m.NumPoints()),
		"property float x",
		"property float y",
		"property float z",
	}
	if hasNormals {
		header = append(header, "property float nx", "property float ny", "property float nz")
	}
	if hasColors {
		header = append(header, "property uchar red", "property uchar green", "property uchar blue")
	}
	header = append(header, "end_header")
	if _, err := fmt.Fprintf(out, "%s\n", strings.Join(header, "\n")); err != nil {
		return err
	}

	normalSign := float32(1)
	if opts.InvertNormals {
		normalSign = -1
	}

	var nx, ny, nz []float32
	if hasNormals {
		nx, _ = m.FloatAttrib(AttrPointNormalX)
		ny, _ = m.FloatAttrib(AttrPointNormalY)
		nz, _ = m.FloatAttrib(AttrPointNormalZ)
	}
	var red, green, blue []int64
	if hasColors {
		red, _ = m.IntAttrib(AttrRed)
		green, _ = m.IntAttrib(AttrGreen)
		blue, _ = m.IntAttrib(AttrBlue)
	}

	for i := 0; i < m.NumPoints(); i++ {
		var err error
		switch opts.Format {
		case FormatASCII:
			fields := make([]string, 0, 9)
			for _, v := range []float32{m.x[i], m.y[i], m.z[i]} {
				fields = append(fields, strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
			if hasNormals {
				for _, v := range []float32{nx[i], ny[i], nz[i]} {
					fields = append(fields, strconv.FormatFloat(float64(normalSign*v), 'g', -1, 32))
				}
			}
			if hasColors {
				for _, v := range []int64{red[i], green[i], blue[i]} {
					fields = append(fields, strconv.FormatInt(v, 10))
				}
			}
			_, err = fmt.Fprintf(out, "%s\n", strings.Join(fields, " "))
		case FormatBinaryLittleEndian:
			buf := make([]byte, 0, 27)
			for _, v := range []float32{m.x[i], m.y[i], m.z[i]} {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
			}
			if hasNormals {
				for _, v := range []float32{nx[i], ny[i], nz[i]} {
					buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(normalSign*v))
				}
			}
			if hasColors {
				buf = append(buf, uint8(red[i]), uint8(green[i]), uint8(blue[i]))
			}
			_, err = out.Write(buf)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteFile serializes the model to a PLY file on disk.
func WriteFile(m *ObjectModel3D, path string, opts WriteOptions) (err error) {
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

	w := bufio.NewWriter(f)
	if err = WritePLY(m, w, opts); err != nil {
		return err
	}
	return w.Flush()
}

type plyHeader struct {
	format     Format
	vertices   int
	hasNormals bool
	hasColors  bool
}

func parsePLYHeader(in *bufio.Reader) (*plyHeader, error) {
	magic, err := in.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(magic) != "ply" {
		return nil, newErrorf("not a ply stream, starts with %q", strings.TrimSpace(magic))
	}

	header := &plyHeader{vertices: -1}
	var props []string
	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, newErrorf("unterminated ply header: %v", err)
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "end_header":
			return header.finish(props)
		case line == "" || strings.HasPrefix(line, "comment"):
			continue
		case strings.HasPrefix(line, "format "):
			switch strings.TrimPrefix(line, "format ") {
			case "ascii 1.0":
				header.format = FormatASCII
			case "binary_little_endian 1.0":
				header.format = FormatBinaryLittleEndian
			default:
				return nil, newErrorf("unsupported ply format line %q", line)
			}
		case strings.HasPrefix(line, "element vertex "):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "element vertex "))
			if err != nil || n < 0 {
				return nil, newErrorf("bad vertex count in %q", line)
			}
			header.vertices = n
		case strings.HasPrefix(line, "element "):
			return nil, newErrorf("unsupported ply element %q", line)
		case strings.HasPrefix(line, "property "):
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, newErrorf("bad ply property line %q", line)
			}
			props = append(props, fields[2])
		default:
			return nil, newErrorf("unrecognized ply header line %q", line)
		}
	}
}

func (h *plyHeader) finish(props []string) (*plyHeader, error) {
	if h.vertices < 0 {
		return nil, newErrorf("ply header missing vertex element")
	}
	switch strings.Join(props, " ") {
	case "x y z":
	case "x y z nx ny nz":
		h.hasNormals = true
	case "x y z red green blue":
		h.hasColors = true
	case "x y z nx ny nz red green blue":
		h.hasNormals = true
		h.hasColors = true
	default:
		return nil, newErrorf("unsupported ply property layout %v", props)
	}
	return h, nil
}

// ReadPLY reads a PLY point cloud in either of the layouts WritePLY
// produces and reconstructs the model with its normal and color
// attributes.
func ReadPLY(in io.Reader) (*ObjectModel3D, error) {
	buffered := bufio.NewReader(in)
	header, err := parsePLYHeader(buffered)
	if err != nil {
		return nil, err
	}

	n := header.vertices
	x := make([]float32, n)
	y := make([]float32, n)
	z := make([]float32, n)
	var nx, ny, nz []float32
	if header.hasNormals {
		nx = make([]float32, n)
		ny = make([]float32, n)
		nz = make([]float32, n)
	}
	var red, green, blue []int64
	if header.hasColors {
		red = make([]int64, n)
		green = make([]int64, n)
		blue = make([]int64, n)
	}

	for i := 0; i < n; i++ {
		var floats []float32
		var colors []int64
		switch header.format {
		case FormatASCII:
			floats, colors, err = readASCIIVertex(buffered, header)
		case FormatBinaryLittleEndian:
			floats, colors, err = readBinaryVertex(buffered, header)
		}
		if err != nil {
			return nil, newErrorf("reading vertex %d: %v", i, err)
		}
		x[i], y[i], z[i] = floats[0], floats[1], floats[2]
		if header.hasNormals {
			nx[i], ny[i], nz[i] = floats[3], floats[4], floats[5]
		}
		if header.hasColors {
			red[i], green[i], blue[i] = colors[0], colors[1], colors[2]
		}
	}

	m, err := New(x, y, z)
	if err != nil {
		return nil, err
	}
	if header.hasNormals {
		for name, vals := range map[string][]float32{
			AttrPointNormalX: nx,
			AttrPointNormalY: ny,
			AttrPointNormalZ: nz,
		} {
			if err := m.SetFloatAttrib(name, AttachPoints, vals); err != nil {
				return nil, err
			}
		}
	}
	if header.hasColors {
		for name, vals := range map[string][]int64{
			AttrRed:   red,
			AttrGreen: green,
			AttrBlue:  blue,
		} {
			if err := m.SetIntAttrib(name, AttachPoints, vals); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func readASCIIVertex(in *bufio.Reader, header *plyHeader) ([]float32, []int64, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return nil, nil, err
	}
	tokens := strings.Fields(line)
	numFloats := 3
	if header.hasNormals {
		numFloats = 6
	}
	numColors := 0
	if header.hasColors {
		numColors = 3
	}
	if len(tokens) != numFloats+numColors {
		return nil, nil, newErrorf("expected %d fields, got %d", numFloats+numColors, len(tokens))
	}

	floats := make([]float32, numFloats)
	for i := 0; i < numFloats; i++ {
		v, err := strconv.ParseFloat(tokens[i], 32)
		if err != nil {
			return nil, nil, err
		}
		floats[i] = float32(v)
	}
	var colors []int64
	if header.hasColors {
		colors = make([]int64, numColors)
		for i := 0; i < numColors; i++ {
			v, err := strconv.ParseInt(tokens[numFloats+i], 10, 64)
			if err != nil {
				return nil, nil, err
			}
			colors[i] = v
		}
	}
	return floats, colors, nil
}

func readBinaryVertex(in *bufio.Reader, header *plyHeader) ([]float32, []int64, error) {
	numFloats := 3
	if header.hasNormals {
		numFloats = 6
	}
	recordSize := numFloats * 4
	if header.hasColors {
		recordSize += 3
	}
	buf := make([]byte, recordSize)
	if _, err := io.ReadFull(in, buf); err != nil {
		return nil, nil, err
	}

	floats := make([]float32, numFloats)
	for i := 0; i < numFloats; i++ {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	var colors []int64
	if header.hasColors {
		base := numFloats * 4
		colors = []int64{int64(buf[base]), int64(buf[base+1]), int64(buf[base+2])}
	}
	return floats, colors, nil
}

// ReadFile reads a PLY file written by WriteFile.
func ReadFile(path string) (*ObjectModel3D, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return ReadPLY(f)
}
