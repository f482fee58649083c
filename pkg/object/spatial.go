package object

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Spatial holds the coordinate buffer shared by all spatial variants.
// Coordinates are flat: 3 floats per vertex (x,y,z). Bounds are derived and
// recomputed by SetCoords; they are never set independently of the
// coordinates except by WidenExternal.
type Spatial struct {
	coords []float32

	minCoord, maxCoord       v3.Vec
	minExternal, maxExternal v3.Vec

	// Model maps object space to world space. The zero value is treated as
	// identity.
	Model *sdf.M44

	Colors  []float32 // per vertex or per primitive, RGB
	Normals []float32 // per vertex or per primitive, xyz
	Sizes   []float32
	Opacity []float32
}

// BoundingBox folds coords into their component-wise min and max. It seeds
// from the first triple and reports ok=false when there is no full triple.
func BoundingBox(coords []float32) (min, max v3.Vec, ok bool) {
	if len(coords) < 3 {
		return v3.Vec{}, v3.Vec{}, false
	}
	min = v3.Vec{X: float64(coords[0]), Y: float64(coords[1]), Z: float64(coords[2])}
	max = min
	for i := 3; i+2 < len(coords); i += 3 {
		p := v3.Vec{X: float64(coords[i]), Y: float64(coords[i+1]), Z: float64(coords[i+2])}
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max, true
}

// SetCoords replaces the coordinate buffer and recomputes both bounding
// boxes. External bounds start equal to object-space bounds.
func (s *Spatial) SetCoords(coords []float32) {
	s.coords = coords
	min, max, _ := BoundingBox(coords)
	s.minCoord, s.maxCoord = min, max
	s.minExternal, s.maxExternal = min, max
}

// Coords returns the coordinate buffer. Callers must not modify it.
func (s *Spatial) Coords() []float32 {
	return s.coords
}

// VertexCount returns the number of coordinate triples.
func (s *Spatial) VertexCount() int {
	return len(s.coords) / 3
}

// Bounds returns the object-space bounding box.
func (s *Spatial) Bounds() sdf.Box3 {
	return sdf.Box3{Min: s.minCoord, Max: s.maxCoord}
}

// ExternalBounds returns the world-space bounding box.
func (s *Spatial) ExternalBounds() sdf.Box3 {
	return sdf.Box3{Min: s.minExternal, Max: s.maxExternal}
}

// SetExternal replaces the world-space bounds.
func (s *Spatial) SetExternal(b sdf.Box3) {
	s.minExternal = b.Min
	s.maxExternal = b.Max
}

// WidenExternal grows the world-space bounds to include b.
func (s *Spatial) WidenExternal(b sdf.Box3) {
	s.minExternal = s.minExternal.Min(b.Min)
	s.maxExternal = s.maxExternal.Max(b.Max)
}

// Transform returns the model matrix, identity when unset.
func (s *Spatial) Transform() sdf.M44 {
	if s.Model == nil {
		return sdf.Identity3d()
	}
	return *s.Model
}

// Space returns the receiver; it lets embedding variants satisfy
// SpatialObject.
func (s *Spatial) Space() *Spatial {
	return s
}

// TransformBox maps the 8 corners of b through m and returns their bounds.
func TransformBox(m sdf.M44, b sdf.Box3) sdf.Box3 {
	corners := [8]v3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	first := m.MulPosition(corners[0])
	out := sdf.Box3{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := m.MulPosition(c)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}
