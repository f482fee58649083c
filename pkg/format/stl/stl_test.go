package stl

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vizpipe/pkg/format"
)

const asciiTriangle = `solid wedge
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid wedge
`

func writeTemp(t *testing.T, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func binarySTL(facets [][12]float32) []byte {
	out := make([]byte, headerLen)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(facets)))
	for _, f := range facets {
		for _, v := range f {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
		out = append(out, 0, 0)
	}
	return out
}

func TestReadASCII(t *testing.T) {
	rec, err := New().Read(writeTemp(t, "w.stl", []byte(asciiTriangle)))
	require.NoError(t, err)

	gr := rec.(*format.GeometryRecord)
	assert.Equal(t, format.GeometryPolygon, gr.Kind)
	assert.Equal(t, "wedge", gr.Name)
	assert.Equal(t, "triangle", gr.Topology)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, gr.Coords)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, gr.Normals)
}

func TestReadBinary(t *testing.T) {
	data := binarySTL([][12]float32{
		{0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0},
		{0, 0, -1, 0, 0, 0, 0, 2, 0, 2, 0, 0},
	})
	// A header starting with "solid" must not be mistaken for ASCII.
	copy(data, "solid but binary")

	rec, err := New().Read(writeTemp(t, "b.stl", data))
	require.NoError(t, err)
	gr := rec.(*format.GeometryRecord)
	assert.Equal(t, "b", gr.Name)
	assert.Len(t, gr.Coords, 18)
	assert.Equal(t, []float32{0, 0, -1}, gr.Normals[9:12])
}

func TestReadBinaryTruncated(t *testing.T) {
	data := binarySTL([][12]float32{{}, {}})
	_, err := New().Read(writeTemp(t, "t.stl", data[:len(data)-10]))
	require.ErrorIs(t, err, format.ErrTruncatedPayload)
}

func TestReadTooShort(t *testing.T) {
	_, err := New().Read(writeTemp(t, "s.stl", []byte{1, 2, 3}))
	require.ErrorIs(t, err, format.ErrFormatMismatch)
}

func TestWriteReadRoundTrip(t *testing.T) {
	in := &format.GeometryRecord{
		Kind:     format.GeometryPolygon,
		Topology: "quadrangle",
		Coords:   []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
	}
	for _, name := range []string{"quad.stl", "quad.stl.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, New().Write(path, in))

			rec, err := New().Read(path)
			require.NoError(t, err)
			gr := rec.(*format.GeometryRecord)
			assert.Equal(t, "quad", gr.Name)
			assert.Equal(t, []float32{
				0, 0, 0, 1, 0, 0, 1, 1, 0,
				0, 0, 0, 1, 1, 0, 0, 1, 0,
			}, gr.Coords)
		})
	}
}

func TestTrianglesIndexed(t *testing.T) {
	rec := &format.GeometryRecord{
		Coords:  []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices: []int64{2, 1, 0},
	}
	tris, err := Triangles(rec)
	require.NoError(t, err)
	require.Len(t, tris, 1)
	assert.Equal(t, 1.0, tris[0][0].Y)

	rec.Indices = []int64{0, 1, 7}
	_, err = Triangles(rec)
	require.Error(t, err)
}

func TestWriteRejectsOtherRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.stl")
	require.ErrorIs(t, New().Write(path, &format.ImageRecord{}), format.ErrUnsupportedRecordKind)
	require.ErrorIs(t, New().Write(path, &format.GeometryRecord{Kind: format.GeometryLine}), format.ErrUnsupportedRecordKind)
}
