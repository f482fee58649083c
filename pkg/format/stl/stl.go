// Package stl reads binary and ASCII STL triangle meshes and writes binary
// STL through sdfx.
//
// Facets are not welded: every facet contributes three vertices and the
// facet normal is repeated per vertex.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/source"
)

const (
	headerLen = 80
	facetLen  = 50
)

// Compile-time interface check.
var _ format.Adapter = (*Adapter)(nil)

// Adapter implements format.Adapter for .stl files.
type Adapter struct{}

// New returns an STL adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "stl"
}

// Read decodes the STL file at path into a triangle polygon record.
func (a *Adapter) Read(path string) (format.Record, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	defer f.Close()

	data := make([]byte, f.Size())
	if _, err := f.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}

	stem, _ := source.Trim(filepath.Base(path))
	rec := &format.GeometryRecord{
		Kind:     format.GeometryPolygon,
		Name:     strings.TrimSuffix(stem, filepath.Ext(stem)),
		Topology: "triangle",
	}
	if isBinary(data) {
		err = readBinary(data, rec)
	} else {
		err = readASCII(data, rec)
	}
	if err != nil {
		return nil, fmt.Errorf("stl: %s: %w", path, err)
	}
	return rec, nil
}

// isBinary reports whether data is a binary STL. Some exporters start binary
// headers with "solid", so an exact size match wins over the keyword.
func isBinary(data []byte) bool {
	if len(data) >= headerLen+4 {
		n := binary.LittleEndian.Uint32(data[headerLen:])
		if int64(headerLen+4)+int64(n)*facetLen == int64(len(data)) {
			return true
		}
	}
	return !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid"))
}

func readBinary(data []byte, rec *format.GeometryRecord) error {
	if len(data) < headerLen+4 {
		return fmt.Errorf("%w: %d bytes is shorter than the header", format.ErrFormatMismatch, len(data))
	}
	n := int(binary.LittleEndian.Uint32(data[headerLen:]))
	body := data[headerLen+4:]
	if int64(len(body)) < int64(n)*facetLen {
		return fmt.Errorf("%w: %d facets declared, %d bytes present", format.ErrTruncatedPayload, n, len(body))
	}

	rec.Coords = make([]float32, 0, n*9)
	rec.Normals = make([]float32, 0, n*9)
	for i := 0; i < n; i++ {
		facet := body[i*facetLen:]
		var v [12]float32
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(facet[j*4:]))
		}
		rec.Coords = append(rec.Coords, v[3:12]...)
		for j := 0; j < 3; j++ {
			rec.Normals = append(rec.Normals, v[0:3]...)
		}
	}
	return nil
}

func readASCII(data []byte, rec *format.GeometryRecord) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	var normal [3]float32
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				rec.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return fmt.Errorf("%w: line %d: facet needs a normal", format.ErrFormatMismatch, line)
			}
			v, err := floats(fields[2:])
			if err != nil {
				return fmt.Errorf("%w: line %d: %v", format.ErrFormatMismatch, line, err)
			}
			copy(normal[:], v)
		case "vertex":
			if len(fields) != 4 {
				return fmt.Errorf("%w: line %d: vertex needs x y z", format.ErrFormatMismatch, line)
			}
			v, err := floats(fields[1:])
			if err != nil {
				return fmt.Errorf("%w: line %d: %v", format.ErrFormatMismatch, line, err)
			}
			rec.Coords = append(rec.Coords, v...)
			rec.Normals = append(rec.Normals, normal[:]...)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", format.ErrIO, err)
	}
	if len(rec.Coords)%9 != 0 {
		return fmt.Errorf("%w: %d vertices do not form whole facets", format.ErrTruncatedPayload, len(rec.Coords)/3)
	}
	return nil
}

func floats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// Triangles converts a polygon record into sdfx triangles. Quadrangles are
// split along their first diagonal.
func Triangles(rec *format.GeometryRecord) ([]*sdf.Triangle3, error) {
	per := 3
	switch strings.ToLower(rec.Topology) {
	case "", "triangle", "triangles":
	case "quadrangle", "quadrangles", "quad":
		per = 4
	default:
		return nil, fmt.Errorf("%w: polygon shape %q", format.ErrUnsupportedRecordKind, rec.Topology)
	}

	nverts := int64(len(rec.Coords) / 3)
	order := rec.Indices
	if len(order) == 0 {
		order = make([]int64, nverts)
		for i := range order {
			order[i] = int64(i)
		}
	}
	vertex := func(i int64) (v3.Vec, error) {
		if i < 0 || i >= nverts {
			return v3.Vec{}, fmt.Errorf("index %d out of range", i)
		}
		c := rec.Coords[i*3:]
		return v3.Vec{X: float64(c[0]), Y: float64(c[1]), Z: float64(c[2])}, nil
	}

	var out []*sdf.Triangle3
	for p := 0; p+per <= len(order); p += per {
		var v [4]v3.Vec
		for j := 0; j < per; j++ {
			var err error
			if v[j], err = vertex(order[p+j]); err != nil {
				return nil, err
			}
		}
		out = append(out, &sdf.Triangle3{v[0], v[1], v[2]})
		if per == 4 {
			out = append(out, &sdf.Triangle3{v[0], v[2], v[3]})
		}
	}
	return out, nil
}

// Write encodes a polygon *format.GeometryRecord as binary STL.
func (a *Adapter) Write(path string, rec format.Record) error {
	gr, ok := rec.(*format.GeometryRecord)
	if !ok || gr.Kind != format.GeometryPolygon {
		return fmt.Errorf("stl: %w: %s", format.ErrUnsupportedRecordKind, rec.RecordKind())
	}
	tris, err := Triangles(gr)
	if err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	if _, codec := source.Trim(path); codec == source.None {
		if err := render.SaveSTL(path, tris); err != nil {
			return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
		}
		return nil
	}
	return saveCompressed(path, tris)
}

// saveCompressed writes a plain STL next to path and streams it through the
// compressor selected by path's suffix.
func saveCompressed(path string, tris []*sdf.Triangle3) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".stl-*")
	if err != nil {
		return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := render.SaveSTL(tmpPath, tris); err != nil {
		return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	in, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	defer in.Close()

	out, err := source.Create(path)
	if err != nil {
		return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("stl: %w: %w", format.ErrIO, err)
	}
	return nil
}
