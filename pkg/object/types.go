package object

import "strings"

// LineTopology describes how a line index buffer is interpreted.
type LineTopology int

const (
	LineUnknown  LineTopology = iota
	LineStrip                 // one connected strip through every vertex
	LineUniline               // indices pairs drawn as independent lines
	LinePolyline              // -1 separated index runs
	LineSegment               // consecutive vertex pairs
)

func (t LineTopology) String() string {
	switch t {
	case LineStrip:
		return "strip"
	case LineUniline:
		return "uniline"
	case LinePolyline:
		return "polyline"
	case LineSegment:
		return "segment"
	default:
		return "unknown"
	}
}

// ParseLineTopology maps a name to a LineTopology. Unrecognized names map
// to LineUnknown.
func ParseLineTopology(s string) LineTopology {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strip":
		return LineStrip
	case "uniline":
		return LineUniline
	case "polyline":
		return LinePolyline
	case "segment", "segments":
		return LineSegment
	default:
		return LineUnknown
	}
}

// PolygonShape is the primitive a polygon index buffer is made of.
type PolygonShape int

const (
	PolygonUnknown PolygonShape = iota
	PolygonTriangle
	PolygonQuadrangle
)

func (s PolygonShape) String() string {
	switch s {
	case PolygonTriangle:
		return "triangle"
	case PolygonQuadrangle:
		return "quadrangle"
	default:
		return "unknown"
	}
}

// VerticesPerPrimitive returns 3, 4 or 0 for unknown shapes.
func (s PolygonShape) VerticesPerPrimitive() int {
	switch s {
	case PolygonTriangle:
		return 3
	case PolygonQuadrangle:
		return 4
	default:
		return 0
	}
}

// ParsePolygonShape maps a name to a PolygonShape. Unrecognized names map
// to PolygonUnknown.
func ParsePolygonShape(s string) PolygonShape {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "triangle", "triangles", "tri":
		return PolygonTriangle
	case "quadrangle", "quadrangles", "quad":
		return PolygonQuadrangle
	default:
		return PolygonUnknown
	}
}

// GridType describes the sample lattice of a structured volume.
type GridType int

const (
	GridUnknown GridType = iota
	GridUniform
	GridRectilinear
	GridCurvilinear
)

func (g GridType) String() string {
	switch g {
	case GridUniform:
		return "uniform"
	case GridRectilinear:
		return "rectilinear"
	case GridCurvilinear:
		return "curvilinear"
	default:
		return "unknown"
	}
}

// ParseGridType maps a name to a GridType. "irregular" is the AVS name for
// a curvilinear grid. Unrecognized names map to GridUnknown.
func ParseGridType(s string) GridType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform":
		return GridUniform
	case "rectilinear":
		return GridRectilinear
	case "curvilinear", "irregular":
		return GridCurvilinear
	default:
		return GridUnknown
	}
}

// CellType is the element type of an unstructured mesh.
type CellType int

const (
	CellUnknown CellType = iota
	CellTetrahedra
	CellQuadraticTetrahedra
	CellHexahedra
	CellQuadraticHexahedra
)

func (c CellType) String() string {
	switch c {
	case CellTetrahedra:
		return "tetrahedra"
	case CellQuadraticTetrahedra:
		return "quadratic-tetrahedra"
	case CellHexahedra:
		return "hexahedra"
	case CellQuadraticHexahedra:
		return "quadratic-hexahedra"
	default:
		return "unknown"
	}
}

// NodesPerCell returns the vertex count of one cell, 0 for unknown.
func (c CellType) NodesPerCell() int {
	switch c {
	case CellTetrahedra:
		return 4
	case CellQuadraticTetrahedra:
		return 10
	case CellHexahedra:
		return 8
	case CellQuadraticHexahedra:
		return 20
	default:
		return 0
	}
}

// ParseCellType maps a name to a CellType. Unrecognized names map to
// CellUnknown.
func ParseCellType(s string) CellType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tetrahedra", "tetrahedron", "tet":
		return CellTetrahedra
	case "quadratic-tetrahedra", "quadratictetrahedra", "tet10", "tet2":
		return CellQuadraticTetrahedra
	case "hexahedra", "hexahedron", "hex":
		return CellHexahedra
	case "quadratic-hexahedra", "quadratichexahedra", "hex20", "hex2":
		return CellQuadraticHexahedra
	default:
		return CellUnknown
	}
}
