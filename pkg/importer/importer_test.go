package importer

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/format/avs"
	"github.com/chazu/vizpipe/pkg/object"
)

func TestImportByteCubeEndToEnd(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("# AVS field file\nndim=3\ndim1=2\ndim2=2\ndim3=2\nveclen=1\ndata=byte\nfield=uniform\n\f\f")
	b.Write([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	path := filepath.Join(t.TempDir(), "cube.fld")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))

	rec, err := avs.New().Read(path)
	require.NoError(t, err)
	obj, err := Import(rec)
	require.NoError(t, err)

	vol, ok := obj.(*object.StructuredVolume)
	require.True(t, ok)
	assert.Equal(t, [3]int{2, 2, 2}, vol.Resolution)
	assert.Equal(t, 1, vol.VecLen)
	assert.Equal(t, object.GridUniform, vol.Grid)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, vol.Values.Ints())
	assert.Equal(t, 8, vol.VertexCount())
	assert.Equal(t, v3.Vec{X: 1, Y: 1, Z: 1}, vol.Bounds().Max)
	assert.Equal(t, vol.Bounds(), vol.ExternalBounds())
}

func fieldRecord(t *testing.T, grid string) *format.FieldRecord {
	t.Helper()
	values, err := buffer.Encode(buffer.Float, binary.LittleEndian, make([]float64, 6))
	require.NoError(t, err)
	return &format.FieldRecord{
		Header: format.Header{NDim: 2, Dims: [3]int{3, 2}, VecLen: 1, Field: grid, Data: buffer.Float},
		Values: values,
	}
}

func TestFieldExtentCorners(t *testing.T) {
	rec := fieldRecord(t, "uniform")
	rec.Header.HasExtent = true
	rec.Header.MinExt = [3]float64{-1, -2, 0}
	rec.Header.MaxExt = [3]float64{4, 5, 0.5}

	obj, err := Field{}.Exec(rec)
	require.NoError(t, err)
	vol := obj.(*object.StructuredVolume)
	assert.Equal(t, [3]int{3, 2, 1}, vol.Resolution)
	assert.Equal(t, v3.Vec{X: -1, Y: -2, Z: 0}, vol.Bounds().Min)
	assert.Equal(t, v3.Vec{X: 4, Y: 5, Z: 0.5}, vol.Bounds().Max)
}

func TestFieldRejectsNonUniformGrids(t *testing.T) {
	for _, grid := range []string{"rectilinear", "irregular", "mystery"} {
		t.Run(grid, func(t *testing.T) {
			_, err := Field{}.Exec(fieldRecord(t, grid))
			require.ErrorIs(t, err, ErrUnsupportedVariant)
		})
	}
}

func TestFieldValueCountMismatch(t *testing.T) {
	rec := fieldRecord(t, "uniform")
	rec.Header.Dims = [3]int{4, 2}
	_, err := Field{}.Exec(rec)
	require.ErrorIs(t, err, format.ErrTruncatedPayload)
}

func TestImportersRejectOtherRecords(t *testing.T) {
	tests := []struct {
		name string
		imp  Importer
		rec  format.Record
	}{
		{"field from mesh", Field{}, &format.MeshRecord{}},
		{"mesh from image", Mesh{}, &format.ImageRecord{}},
		{"image from field", Image{}, &format.FieldRecord{}},
		{"point from polygon", Point{}, &format.GeometryRecord{Kind: format.GeometryPolygon}},
		{"line from point", Line{}, &format.GeometryRecord{Kind: format.GeometryPoint}},
		{"polygon from mesh", Polygon{}, &format.MeshRecord{}},
		{"point from nil", Point{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := tt.imp.Exec(tt.rec)
			require.ErrorIs(t, err, format.ErrUnsupportedRecordKind)
			assert.Nil(t, obj)
		})
	}
}

func TestForDispatch(t *testing.T) {
	tests := []struct {
		rec  format.Record
		want Importer
	}{
		{&format.FieldRecord{}, Field{}},
		{&format.MeshRecord{}, Mesh{}},
		{&format.ImageRecord{}, Image{}},
		{&format.GeometryRecord{Kind: format.GeometryPoint}, Point{}},
		{&format.GeometryRecord{Kind: format.GeometryLine}, Line{}},
		{&format.GeometryRecord{Kind: format.GeometryPolygon}, Polygon{}},
	}
	for _, tt := range tests {
		imp, err := For(tt.rec)
		require.NoError(t, err)
		assert.IsType(t, tt.want, imp)
	}

	_, err := For(&format.GeometryRecord{Kind: format.GeometryKind(42)})
	require.ErrorIs(t, err, format.ErrUnsupportedRecordKind)
}

func TestPolygonBoundsAndShape(t *testing.T) {
	rec := &format.GeometryRecord{
		Kind:     format.GeometryPolygon,
		Topology: "triangle",
		Coords:   []float32{0, 0, 0, 3, -1, 2, -4, 5, 1},
		Indices:  []int64{0, 1, 2},
		Colors:   []float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
	}
	obj, err := Import(rec)
	require.NoError(t, err)

	poly := obj.(*object.Polygon)
	assert.Equal(t, object.PolygonTriangle, poly.Shape)
	assert.Equal(t, 1, poly.PrimitiveCount())
	assert.Equal(t, v3.Vec{X: -4, Y: -1, Z: 0}, poly.Bounds().Min)
	assert.Equal(t, v3.Vec{X: 3, Y: 5, Z: 2}, poly.Bounds().Max)
	assert.Equal(t, rec.Colors, poly.Colors)

	rec.Indices = []int64{0, 1, 3}
	_, err = Import(rec)
	require.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestUnknownTopologyDegrades(t *testing.T) {
	obj, err := Import(&format.GeometryRecord{Kind: format.GeometryLine, Topology: "zigzag", Coords: []float32{0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, object.LineUnknown, obj.(*object.Line).Topology)

	obj, err = Import(&format.GeometryRecord{Kind: format.GeometryPolygon, Topology: "hexagon"})
	require.NoError(t, err)
	assert.Equal(t, object.PolygonUnknown, obj.(*object.Polygon).Shape)
}

func TestPolylineSeparators(t *testing.T) {
	rec := &format.GeometryRecord{
		Kind:     format.GeometryLine,
		Topology: "polyline",
		Coords:   []float32{0, 0, 0, 1, 0, 0, 2, 0, 0},
		Indices:  []int64{0, 1, -1, 1, 2},
	}
	obj, err := Import(rec)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, -1, 1, 2}, obj.(*object.Line).Indices)

	rec.Topology = "segment"
	_, err = Import(rec)
	require.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestMeshUnknownCells(t *testing.T) {
	rec := &format.MeshRecord{
		CellType:     "mixed",
		Coords:       []float32{0, 0, 0, 1, 1, 1},
		Connections:  []uint32{0, 1},
		NodesPerCell: 0,
	}
	obj, err := Import(rec)
	require.NoError(t, err)
	vol := obj.(*object.UnstructuredVolume)
	assert.Equal(t, object.CellUnknown, vol.Cells)
	assert.Equal(t, 0, vol.CellCount())
	assert.Equal(t, v3.Vec{X: 1, Y: 1, Z: 1}, vol.Bounds().Max)
}

func TestMeshNodeCountMismatch(t *testing.T) {
	rec := &format.MeshRecord{
		CellType:     "hexahedra",
		NodesPerCell: 4,
		Coords:       make([]float32, 12),
		Connections:  []uint32{0, 1, 2, 3},
	}
	_, err := Import(rec)
	require.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestImageImport(t *testing.T) {
	obj, err := Import(&format.ImageRecord{Name: "tile", Width: 1, Height: 2, Pixels: make([]uint8, 8), Format: "png"})
	require.NoError(t, err)
	img := obj.(*object.Image)
	assert.Equal(t, "tile", img.Name())
	assert.Equal(t, 2, img.PixelCount())

	_, err = Import(&format.ImageRecord{Width: 2, Height: 2, Pixels: make([]uint8, 3)})
	require.ErrorIs(t, err, ErrUnsupportedVariant)
}
