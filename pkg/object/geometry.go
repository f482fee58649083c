package object

import "github.com/chazu/vizpipe/pkg/buffer"

// Point is a point cloud. Sizes, when present, hold one value per vertex.
type Point struct {
	Spatial
	Label string
}

func (o *Point) Kind() Kind   { return KindPoint }
func (o *Point) Name() string { return o.Label }
func (o *Point) object()      {}

// Line is a set of line primitives over the coordinate buffer.
type Line struct {
	Spatial
	Label    string
	Topology LineTopology
	Indices  []int32
}

func (o *Line) Kind() Kind   { return KindLine }
func (o *Line) Name() string { return o.Label }
func (o *Line) object()      {}

// Polygon is a triangle or quadrangle mesh.
type Polygon struct {
	Spatial
	Label   string
	Shape   PolygonShape
	Indices []uint32
}

func (o *Polygon) Kind() Kind   { return KindPolygon }
func (o *Polygon) Name() string { return o.Label }
func (o *Polygon) object()      {}

// PrimitiveCount returns the number of triangles or quadrangles. When there
// is no index buffer the vertices are taken in order.
func (o *Polygon) PrimitiveCount() int {
	n := o.Shape.VerticesPerPrimitive()
	if n == 0 {
		return 0
	}
	if len(o.Indices) > 0 {
		return len(o.Indices) / n
	}
	return o.VertexCount() / n
}

// StructuredVolume is a sampled lattice. Coordinates hold the 8 corners of
// the volume extent.
type StructuredVolume struct {
	Spatial
	Label      string
	Resolution [3]int
	VecLen     int
	Grid       GridType
	Values     *buffer.Buffer
	Labels     []string
}

func (o *StructuredVolume) Kind() Kind   { return KindStructuredVolume }
func (o *StructuredVolume) Name() string { return o.Label }
func (o *StructuredVolume) object()      {}

// SampleCount returns the number of lattice points.
func (o *StructuredVolume) SampleCount() int {
	return o.Resolution[0] * o.Resolution[1] * o.Resolution[2]
}

// Value returns component c of the sample at lattice index (i, j, k).
func (o *StructuredVolume) Value(i, j, k, c int) float64 {
	idx := ((k*o.Resolution[1]+j)*o.Resolution[0] + i) * o.VecLen
	return o.Values.Float64(idx + c)
}

// UnstructuredVolume is a cell mesh with per-node values.
type UnstructuredVolume struct {
	Spatial
	Label       string
	Cells       CellType
	Connections []uint32
	VecLen      int
	Values      *buffer.Buffer
	Labels      []string
}

func (o *UnstructuredVolume) Kind() Kind   { return KindUnstructuredVolume }
func (o *UnstructuredVolume) Name() string { return o.Label }
func (o *UnstructuredVolume) object()      {}

// CellCount returns the number of cells, 0 when the cell type is unknown.
func (o *UnstructuredVolume) CellCount() int {
	n := o.Cells.NodesPerCell()
	if n == 0 {
		return 0
	}
	return len(o.Connections) / n
}
