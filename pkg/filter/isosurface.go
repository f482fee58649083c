package filter

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/vizpipe/pkg/object"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

// IsoSurface extracts the surface where component 0 of a structured volume
// equals Level, using marching cubes over trilinear interpolation.
type IsoSurface struct {
	Level float64
	Cells int
}

// Name returns the stage name.
func (s *IsoSurface) Name() string {
	return "isosurface"
}

// Map implements the mapper contract: StructuredVolume in, Polygon out.
func (s *IsoSurface) Map(o object.Object) (object.Object, error) {
	vol, ok := o.(*object.StructuredVolume)
	if !ok {
		return nil, unsupported(s.Name(), o)
	}
	if vol.Values.Len() < vol.SampleCount()*vol.VecLen || vol.SampleCount() == 0 {
		return nil, fmt.Errorf("%s: %w: volume has no samples", s.Name(), ErrUnsupportedObject)
	}
	cells := s.Cells
	if cells <= 0 {
		cells = DefaultCells
	}

	field := &volumeField{vol: vol, level: s.Level, box: vol.Bounds()}
	triangles := render.ToTriangles(field, render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%s: %w at level %g", s.Name(), ErrEmptySurface, s.Level)
	}

	vertices := make([]float32, 0, len(triangles)*9)
	normals := make([]float32, 0, len(triangles)*9)
	indices := make([]uint32, 0, len(triangles)*3)
	for i, tri := range triangles {
		n := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	poly := &object.Polygon{
		Label:   vol.Label,
		Shape:   object.PolygonTriangle,
		Indices: indices,
	}
	place(&poly.Spatial, &vol.Spatial, vertices)
	poly.Normals = normals
	return poly, nil
}

// volumeField is an sdf.SDF3 over a structured volume. It is negative where
// the interpolated value exceeds the level and positive outside the volume
// box, so surfaces touching the boundary are closed.
type volumeField struct {
	vol   *object.StructuredVolume
	level float64
	box   sdf.Box3
}

func (f *volumeField) BoundingBox() sdf.Box3 {
	return f.box
}

func (f *volumeField) Evaluate(p v3.Vec) float64 {
	outside := math.Max(
		math.Max(f.box.Min.X-p.X, p.X-f.box.Max.X),
		math.Max(math.Max(f.box.Min.Y-p.Y, p.Y-f.box.Max.Y), math.Max(f.box.Min.Z-p.Z, p.Z-f.box.Max.Z)),
	)
	v := f.level - f.sample(p)
	if outside > 0 {
		return math.Max(v, outside)
	}
	return v
}

// sample trilinearly interpolates component 0 at world position p, clamped
// to the lattice.
func (f *volumeField) sample(p v3.Vec) float64 {
	res := f.vol.Resolution
	var i0, i1 [3]int
	var t [3]float64
	pos := [3]float64{p.X, p.Y, p.Z}
	lo := [3]float64{f.box.Min.X, f.box.Min.Y, f.box.Min.Z}
	hi := [3]float64{f.box.Max.X, f.box.Max.Y, f.box.Max.Z}
	for a := 0; a < 3; a++ {
		span := hi[a] - lo[a]
		if res[a] <= 1 || span <= 0 {
			continue
		}
		u := (pos[a] - lo[a]) / span * float64(res[a]-1)
		u = math.Max(0, math.Min(u, float64(res[a]-1)))
		i0[a] = int(math.Floor(u))
		i1[a] = min(i0[a]+1, res[a]-1)
		t[a] = u - float64(i0[a])
	}

	at := func(i, j, k int) float64 { return f.vol.Value(i, j, k, 0) }
	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }

	c00 := lerp(at(i0[0], i0[1], i0[2]), at(i1[0], i0[1], i0[2]), t[0])
	c10 := lerp(at(i0[0], i1[1], i0[2]), at(i1[0], i1[1], i0[2]), t[0])
	c01 := lerp(at(i0[0], i0[1], i1[2]), at(i1[0], i0[1], i1[2]), t[0])
	c11 := lerp(at(i0[0], i1[1], i1[2]), at(i1[0], i1[1], i1[2]), t[0])
	return lerp(lerp(c00, c10, t[1]), lerp(c01, c11, t[1]), t[2])
}
