package format

import (
	"encoding/binary"

	"github.com/chazu/vizpipe/pkg/buffer"
)

// Header holds the fields that describe a sampled volume.
type Header struct {
	NDim   int
	NSpace int
	VecLen int
	Dims   [3]int
	Field  string // grid kind name, e.g. "uniform"
	Data   buffer.ElementType
	Bits   int
	Signed bool
	Labels []string
	Order  binary.ByteOrder // payload byte order, nil means little-endian

	HasExtent bool
	MinExt    [3]float64
	MaxExt    [3]float64
}

// Shape returns the per-axis extents with unused and zero axes set to 1.
// Negative extents are kept so buffer.Count can reject them.
func (h *Header) Shape() [3]int {
	s := [3]int{1, 1, 1}
	n := h.NDim
	if n <= 0 || n > 3 {
		n = 3
	}
	for i := 0; i < n; i++ {
		if h.Dims[i] != 0 {
			s[i] = h.Dims[i]
		}
	}
	return s
}

// FieldRecord is a sampled volume: header, values and, for rectilinear and
// curvilinear grids, the coordinates.
type FieldRecord struct {
	Header Header
	Values *buffer.Buffer
	Coords []float32
}

func (r *FieldRecord) RecordKind() RecordKind { return RecordField }

// MeshRecord is an unstructured cell mesh.
type MeshRecord struct {
	Name         string
	Coords       []float32
	CellType     string
	NodesPerCell int
	Connections  []uint32
	Materials    []int
	VecLen       int
	Values       *buffer.Buffer // per node, VecLen components
	Labels       []string
	CellVecLen   int
	CellValues   *buffer.Buffer // per cell, CellVecLen components
	CellLabels   []string
}

func (r *MeshRecord) RecordKind() RecordKind { return RecordMesh }

// CellCount returns the number of cells.
func (r *MeshRecord) CellCount() int {
	if r.NodesPerCell == 0 {
		return 0
	}
	return len(r.Connections) / r.NodesPerCell
}

// ImageRecord is a decoded raster.
type ImageRecord struct {
	Name   string
	Width  int
	Height int
	Pixels []uint8 // RGBA
	Format string
}

func (r *ImageRecord) RecordKind() RecordKind { return RecordImage }

// GeometryKind tells importers which geometry object a record describes.
type GeometryKind int

const (
	GeometryPoint GeometryKind = iota
	GeometryLine
	GeometryPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case GeometryPoint:
		return "point"
	case GeometryLine:
		return "line"
	case GeometryPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// GeometryRecord holds points, lines or polygons. Topology names the line
// topology or polygon shape and is empty for points.
type GeometryRecord struct {
	Kind     GeometryKind
	Name     string
	Topology string
	Coords   []float32
	Indices  []int64
	Colors   []float32
	Normals  []float32
	Sizes    []float32
	Opacity  []float32
}

func (r *GeometryRecord) RecordKind() RecordKind { return RecordGeometry }
