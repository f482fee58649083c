package avs

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
)

// writeField writes header lines, the separator pair and payload to a temp
// file and returns its path.
func writeField(t *testing.T, name string, header []string, payload []byte) string {
	t.Helper()
	var b bytes.Buffer
	b.WriteString(strings.Join(header, "\n"))
	b.WriteString("\n\f\f")
	b.Write(payload)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

var cubeHeader = []string{
	"# AVS field file",
	"ndim=3",
	"dim1=2",
	"dim2=2",
	"dim3=2",
	"nspace=3",
	"veclen=1",
	"data=byte",
	"field=uniform",
}

func TestReadByteCube(t *testing.T) {
	path := writeField(t, "cube.fld", cubeHeader, []byte{0, 1, 2, 3, 4, 5, 6, 7})

	rec, err := New().Read(path)
	require.NoError(t, err)

	fr, ok := rec.(*format.FieldRecord)
	require.True(t, ok)
	assert.Equal(t, [3]int{2, 2, 2}, fr.Header.Dims)
	assert.Equal(t, 1, fr.Header.VecLen)
	assert.Equal(t, buffer.Byte, fr.Header.Data)
	assert.Equal(t, 8, fr.Header.Bits)
	assert.False(t, fr.Header.Signed)
	assert.Equal(t, "uniform", fr.Header.Field)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, fr.Values.Ints())
	assert.Nil(t, fr.Coords)
}

func TestReadHighByteIsUnsigned(t *testing.T) {
	header := []string{"# AVS", "ndim=1", "dim1=2", "data=byte", "field=uniform"}
	path := writeField(t, "hi.fld", header, []byte{0xFF, 0x80})

	rec, err := New().Read(path)
	require.NoError(t, err)
	assert.Equal(t, []int{255, 128}, rec.(*format.FieldRecord).Values.Ints())
}

func TestReadCommentOverrides(t *testing.T) {
	header := []string{
		"# AVS field file",
		"# bits = 12",
		"# signed = false",
		"# creator = some tool",
		"ndim=1",
		"dim1=1",
		"data=short",
		"field=uniform",
	}
	path := writeField(t, "bits.fld", header, binary.LittleEndian.AppendUint16(nil, 0xFFFF))

	rec, err := New().Read(path)
	require.NoError(t, err)
	fr := rec.(*format.FieldRecord)
	assert.Equal(t, 12, fr.Header.Bits)
	assert.False(t, fr.Header.Signed)
	assert.Equal(t, int64(65535), fr.Values.Int64(0))
}

func TestReadDefaultsPerType(t *testing.T) {
	tests := []struct {
		data   string
		bits   int
		signed bool
	}{
		{"byte", 8, false},
		{"short", 16, true},
		{"integer", 32, true},
		{"float", 32, true},
		{"double", 64, true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			typ, _ := buffer.ParseElementType(tt.data)
			header := []string{"# AVS", "ndim=1", "dim1=1", "data=" + tt.data, "field=uniform"}
			path := writeField(t, "d.fld", header, make([]byte, typ.Width()))

			rec, err := New().Read(path)
			require.NoError(t, err)
			h := rec.(*format.FieldRecord).Header
			assert.Equal(t, tt.bits, h.Bits)
			assert.Equal(t, tt.signed, h.Signed)
		})
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	header := []string{
		"# AVS field file",
		"this line has no tag",
		"ndim=1",
		"= 4",
		"unknowntag=7",
		"dim1=3",
		"veclen",
		"data=byte",
		"field=uniform",
	}
	path := writeField(t, "lenient.fld", header, []byte{9, 8, 7})

	rec, err := New().Read(path)
	require.NoError(t, err)
	fr := rec.(*format.FieldRecord)
	assert.Equal(t, 1, fr.Header.VecLen)
	assert.Equal(t, []int{9, 8, 7}, fr.Values.Ints())
}

func TestReadLabelsAndExtents(t *testing.T) {
	header := append(append([]string{}, cubeHeader...),
		"label=density temperature",
		"min_ext=0 0 0",
		"max_ext=1.5 2 3",
	)
	header[6] = "veclen=2"
	path := writeField(t, "ext.fld", header, make([]byte, 16))

	rec, err := New().Read(path)
	require.NoError(t, err)
	h := rec.(*format.FieldRecord).Header
	assert.Equal(t, []string{"density", "temperature"}, h.Labels)
	assert.True(t, h.HasExtent)
	assert.Equal(t, [3]float64{1.5, 2, 3}, h.MaxExt)
	assert.Equal(t, 2, h.VecLen)
}

func TestReadMissingMagic(t *testing.T) {
	header := []string{"ndim=1", "dim1=1", "data=byte"}
	path := writeField(t, "nomagic.fld", header, []byte{1})

	_, err := New().Read(path)
	require.ErrorIs(t, err, format.ErrFormatMismatch)
}

func TestReadMissingSeparator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nosep.fld")
	require.NoError(t, os.WriteFile(path, []byte("# AVS\nndim=1\ndim1=1\ndata=byte\n"), 0o644))

	_, err := New().Read(path)
	require.ErrorIs(t, err, format.ErrFormatMismatch)
}

func TestReadTruncated(t *testing.T) {
	header := []string{"# AVS", "ndim=1", "dim1=8", "data=integer", "field=uniform"}
	path := writeField(t, "short.fld", header, []byte{1, 2, 3, 4})

	_, err := New().Read(path)
	require.ErrorIs(t, err, format.ErrTruncatedPayload)
}

func TestReadHugeDimensionsInTinyFile(t *testing.T) {
	header := []string{"# AVS", "ndim=3", "dim1=1024", "dim2=1024", "dim3=256", "data=double", "field=uniform"}
	path := writeField(t, "huge.fld", header, []byte{1, 2, 3, 4})

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := New().Read(path)
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, format.ErrTruncatedPayload)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
}

func TestReadNegativeDimension(t *testing.T) {
	header := []string{"# AVS", "ndim=3", "dim1=-4", "dim2=2", "dim3=2", "data=byte", "field=uniform"}
	path := writeField(t, "neg.fld", header, make([]byte, 16))

	_, err := New().Read(path)
	require.ErrorIs(t, err, format.ErrFormatMismatch)
	require.ErrorIs(t, err, buffer.ErrInvalidShape)
}

func TestReadLoneFormFeedInValue(t *testing.T) {
	header := []string{"# AVS", "label=a\fb", "ndim=1", "dim1=2", "data=byte", "field=uniform"}
	path := writeField(t, "ff.fld", header, []byte{4, 5})

	rec, err := New().Read(path)
	require.NoError(t, err)
	fr := rec.(*format.FieldRecord)
	assert.Equal(t, [3]int{2, 0, 0}, fr.Header.Dims)
	assert.Equal(t, []int{4, 5}, fr.Values.Ints())
}

func TestReadBigEndian(t *testing.T) {
	header := []string{"# AVS", "ndim=1", "dim1=2", "data=xdr_float", "field=uniform"}
	payload := binary.BigEndian.AppendUint32(nil, math.Float32bits(1.25))
	payload = binary.BigEndian.AppendUint32(payload, math.Float32bits(-3))
	path := writeField(t, "xdr.fld", header, payload)

	rec, err := New().Read(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.25, -3}, rec.(*format.FieldRecord).Values.Float32s())
}

func TestReadRectilinearCoords(t *testing.T) {
	header := []string{"# AVS", "ndim=2", "dim1=2", "dim2=3", "data=byte", "field=rectilinear"}
	payload := make([]byte, 6)
	for _, c := range []float32{0, 1, 10, 20, 30} {
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(c))
	}
	path := writeField(t, "rect.fld", header, payload)

	rec, err := New().Read(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 10, 20, 30}, rec.(*format.FieldRecord).Coords)
}

func TestWriteReadRoundTrip(t *testing.T) {
	values, err := buffer.Encode(buffer.Short, binary.LittleEndian, []float64{-3, 0, 7, 1200, 5, 6, 7, 8})
	require.NoError(t, err)

	in := &format.FieldRecord{
		Header: format.Header{
			NDim:      3,
			NSpace:    3,
			VecLen:    1,
			Dims:      [3]int{2, 2, 2},
			Field:     "uniform",
			Data:      buffer.Short,
			Labels:    []string{"pressure"},
			HasExtent: true,
			MinExt:    [3]float64{-1, -1, -1},
			MaxExt:    [3]float64{1, 1, 1},
		},
		Values: values,
	}

	path := filepath.Join(t.TempDir(), "rt.fld")
	require.NoError(t, New().Write(path, in))

	rec, err := New().Read(path)
	require.NoError(t, err)
	out := rec.(*format.FieldRecord)

	assert.Equal(t, in.Values.Raw, out.Values.Raw)
	assert.Equal(t, in.Header.Dims, out.Header.Dims)
	assert.Equal(t, in.Header.Labels, out.Header.Labels)
	assert.Equal(t, in.Header.MaxExt, out.Header.MaxExt)
	assert.Equal(t, buffer.Short, out.Header.Data)
}

func TestWriteReadRoundTripCompressed(t *testing.T) {
	values, err := buffer.Encode(buffer.Byte, binary.LittleEndian, []float64{0, 255, 3})
	require.NoError(t, err)
	in := &format.FieldRecord{
		Header: format.Header{NDim: 1, Dims: [3]int{3}, VecLen: 1, Field: "uniform", Data: buffer.Byte},
		Values: values,
	}

	path := filepath.Join(t.TempDir(), "rt.fld.gz")
	require.NoError(t, New().Write(path, in))

	rec, err := New().Read(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 255, 3}, rec.(*format.FieldRecord).Values.Ints())
}

func TestWriteRejectsOtherRecords(t *testing.T) {
	err := New().Write(filepath.Join(t.TempDir(), "x.fld"), &format.ImageRecord{})
	require.ErrorIs(t, err, format.ErrUnsupportedRecordKind)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"dim1", "=", "4"}, tokenize("dim1=4"))
	assert.Equal(t, []string{"label", "=", "a", "b"}, tokenize(`label = "a", "b"`))
	assert.Equal(t, []string{"bits", "=", "12"}, tokenize(" bits =12"))
}
