package object

import (
	"math"
	"math/rand"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceBounds is an independent fold over every triple.
func referenceBounds(coords []float32) (min, max [3]float64) {
	for a := 0; a < 3; a++ {
		min[a] = math.Inf(1)
		max[a] = math.Inf(-1)
	}
	for i := 0; i+2 < len(coords); i += 3 {
		for a := 0; a < 3; a++ {
			v := float64(coords[i+a])
			min[a] = math.Min(min[a], v)
			max[a] = math.Max(max[a], v)
		}
	}
	return min, max
}

func TestBoundingBoxMatchesReferenceFold(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(64)
		coords := make([]float32, n*3)
		for i := range coords {
			coords[i] = float32(rng.NormFloat64() * 100)
		}

		min, max, ok := BoundingBox(coords)
		require.True(t, ok)

		wantMin, wantMax := referenceBounds(coords)
		assert.Equal(t, wantMin, [3]float64{min.X, min.Y, min.Z})
		assert.Equal(t, wantMax, [3]float64{max.X, max.Y, max.Z})
		assert.True(t, min.X <= max.X && min.Y <= max.Y && min.Z <= max.Z)
	}
}

func TestBoundingBoxSingleVertex(t *testing.T) {
	min, max, ok := BoundingBox([]float32{1, -2, 3})
	require.True(t, ok)
	assert.Equal(t, v3.Vec{X: 1, Y: -2, Z: 3}, min)
	assert.Equal(t, min, max)
}

func TestBoundingBoxEmpty(t *testing.T) {
	_, _, ok := BoundingBox([]float32{1, 2})
	assert.False(t, ok)
}

func TestSetCoordsRecomputesBounds(t *testing.T) {
	p := &Point{}
	p.SetCoords([]float32{0, 0, 0, 1, 2, 3})
	assert.Equal(t, v3.Vec{X: 1, Y: 2, Z: 3}, p.Bounds().Max)
	assert.Equal(t, p.Bounds(), p.ExternalBounds())
	assert.Equal(t, 2, p.VertexCount())

	p.SetCoords([]float32{-5, -5, -5})
	assert.Equal(t, v3.Vec{X: -5, Y: -5, Z: -5}, p.Bounds().Max)
	assert.Equal(t, v3.Vec{X: -5, Y: -5, Z: -5}, p.ExternalBounds().Min)
}

func TestWidenExternal(t *testing.T) {
	p := &Point{}
	p.SetCoords([]float32{0, 0, 0, 1, 1, 1})
	p.WidenExternal(sdf.Box3{Min: v3.Vec{X: -1}, Max: v3.Vec{X: 0.5, Y: 4}})

	assert.Equal(t, v3.Vec{X: -1, Y: 0, Z: 0}, p.ExternalBounds().Min)
	assert.Equal(t, v3.Vec{X: 1, Y: 4, Z: 1}, p.ExternalBounds().Max)
	assert.Equal(t, v3.Vec{X: 1, Y: 1, Z: 1}, p.Bounds().Max, "object bounds unchanged")
}

func TestTransformBoxTranslate(t *testing.T) {
	b := sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
	got := TransformBox(sdf.Translate3d(v3.Vec{X: 10, Y: 0, Z: -1}), b)
	assert.InDelta(t, 10, got.Min.X, 1e-9)
	assert.InDelta(t, 11, got.Max.X, 1e-9)
	assert.InDelta(t, -1, got.Min.Z, 1e-9)
}

func TestParseUnknownNames(t *testing.T) {
	assert.Equal(t, LineUnknown, ParseLineTopology("zigzag"))
	assert.Equal(t, PolygonUnknown, ParsePolygonShape("hexagon"))
	assert.Equal(t, GridUnknown, ParseGridType("spherical"))
	assert.Equal(t, CellUnknown, ParseCellType("pyramid"))
	assert.Equal(t, CellUnknown, ParseCellType(""))
}

func TestParseKnownNames(t *testing.T) {
	assert.Equal(t, LineStrip, ParseLineTopology("Strip"))
	assert.Equal(t, LineSegment, ParseLineTopology("segment"))
	assert.Equal(t, PolygonQuadrangle, ParsePolygonShape("quad"))
	assert.Equal(t, GridCurvilinear, ParseGridType("irregular"))
	assert.Equal(t, GridUniform, ParseGridType(" uniform "))
	assert.Equal(t, CellQuadraticHexahedra, ParseCellType("hex20"))
	assert.Equal(t, CellTetrahedra, ParseCellType("tet"))
}

func TestPolygonPrimitiveCount(t *testing.T) {
	p := &Polygon{Shape: PolygonTriangle, Indices: []uint32{0, 1, 2, 2, 3, 0}}
	assert.Equal(t, 2, p.PrimitiveCount())

	q := &Polygon{Shape: PolygonQuadrangle}
	q.SetCoords(make([]float32, 4*3))
	assert.Equal(t, 1, q.PrimitiveCount())

	u := &Polygon{Shape: PolygonUnknown, Indices: []uint32{0, 1, 2}}
	assert.Equal(t, 0, u.PrimitiveCount())
}

func TestShallowCopyIsIndependent(t *testing.T) {
	p := &Point{Label: "a"}
	p.SetCoords([]float32{1, 1, 1})

	c := ShallowCopy(p).(*Point)
	c.Label = "b"
	c.SetCoords([]float32{2, 2, 2})

	assert.Equal(t, "a", p.Label)
	assert.Equal(t, v3.Vec{X: 1, Y: 1, Z: 1}, p.Bounds().Max)
}
