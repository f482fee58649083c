// Package avs reads and writes AVS field files: a text header of
// tag=value lines terminated by two form feed bytes, followed by a binary
// payload of x*y*z*veclen elements and, for non-uniform grids, coordinates.
//
// Header parsing and payload detection are two independent passes over the
// same bytes. The separator scan is byte-oriented and does not trust the
// line pass, since a form feed can occur inside a header value.
package avs

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/object"
	"github.com/chazu/vizpipe/pkg/source"
)

// Compile-time interface check.
var _ format.Adapter = (*Adapter)(nil)

// Adapter implements format.Adapter for .fld files.
type Adapter struct{}

// New returns a field file adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "avs-field"
}

// Read decodes the field file at path.
func (a *Adapter) Read(path string) (format.Record, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("avs: %w: %w", format.ErrIO, err)
	}
	defer f.Close()

	h, err := scanHeader(f.Reader())
	if err != nil {
		return nil, fmt.Errorf("avs: %s: %w", path, err)
	}
	if h.Data == buffer.Unknown {
		return nil, fmt.Errorf("avs: %s: %w: missing or unknown data type", path, format.ErrFormatMismatch)
	}

	off, err := findPayload(f, f.Size())
	if err != nil {
		return nil, fmt.Errorf("avs: %s: %w", path, err)
	}

	shape := h.Shape()
	count, err := buffer.Count(shape, h.VecLen)
	if err != nil {
		return nil, fmt.Errorf("avs: %s: %w: %w", path, format.ErrFormatMismatch, err)
	}
	values, err := buffer.Decode(f, off, count, h.Data, h.Order)
	if err != nil {
		return nil, fmt.Errorf("avs: %s: values: %w", path, err)
	}
	values.Signed = h.Signed
	values.Bits = h.Bits

	rec := &format.FieldRecord{Header: h, Values: values}

	n := coordCount(&h)
	if n > 0 {
		coords, err := buffer.Decode(f, off+int64(len(values.Raw)), n, buffer.Float, h.Order)
		if err != nil {
			return nil, fmt.Errorf("avs: %s: coordinates: %w", path, err)
		}
		rec.Coords = coords.Float32s()
	}
	return rec, nil
}

// coordCount returns how many float coordinates follow the values. A
// rectilinear grid stores one coordinate per axis sample; a curvilinear grid
// stores nspace coordinates per sample.
func coordCount(h *format.Header) int {
	shape := h.Shape()
	switch object.ParseGridType(h.Field) {
	case object.GridRectilinear:
		n := 0
		for i := 0; i < ndim(h); i++ {
			n += shape[i]
		}
		return n
	case object.GridCurvilinear:
		nspace := h.NSpace
		if nspace <= 0 {
			nspace = ndim(h)
		}
		return shape[0] * shape[1] * shape[2] * nspace
	default:
		return 0
	}
}

func ndim(h *format.Header) int {
	if h.NDim <= 0 || h.NDim > 3 {
		return 3
	}
	return h.NDim
}

// Write encodes a *format.FieldRecord to path. The values buffer is written
// byte for byte, so a record read back from the file decodes identically.
func (a *Adapter) Write(path string, rec format.Record) error {
	fr, ok := rec.(*format.FieldRecord)
	if !ok {
		return fmt.Errorf("avs: %w: %s", format.ErrUnsupportedRecordKind, rec.RecordKind())
	}
	if fr.Values == nil {
		return fmt.Errorf("avs: field record has no values")
	}

	f, err := source.Create(path)
	if err != nil {
		return fmt.Errorf("avs: %w: %w", format.ErrIO, err)
	}
	w := bufio.NewWriter(f)

	writeHeader(w, fr)
	w.WriteByte(separator)
	w.WriteByte(separator)
	w.Write(fr.Values.Raw)

	if len(fr.Coords) > 0 {
		coords := make([]float64, len(fr.Coords))
		for i, c := range fr.Coords {
			coords[i] = float64(c)
		}
		cb, err := buffer.Encode(buffer.Float, fr.Values.Order, coords)
		if err != nil {
			f.Close()
			return fmt.Errorf("avs: coordinates: %w", err)
		}
		w.Write(cb.Raw)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("avs: %w: %w", format.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("avs: %w: %w", format.ErrIO, err)
	}
	return nil
}

func writeHeader(w *bufio.Writer, fr *format.FieldRecord) {
	h := fr.Header
	v := fr.Values

	fmt.Fprintf(w, "%s field file\n", Magic)
	if v.Bits != v.Type.Bits() {
		fmt.Fprintf(w, "# bits = %d\n", v.Bits)
	}
	if v.Signed != v.Type.Signed() {
		fmt.Fprintf(w, "# signed = %t\n", v.Signed)
	}

	nd := ndim(&h)
	fmt.Fprintf(w, "ndim=%d\n", nd)
	shape := h.Shape()
	for i := 0; i < nd; i++ {
		fmt.Fprintf(w, "dim%d=%d\n", i+1, shape[i])
	}
	if h.NSpace > 0 {
		fmt.Fprintf(w, "nspace=%d\n", h.NSpace)
	}
	veclen := h.VecLen
	if veclen <= 0 {
		veclen = 1
	}
	fmt.Fprintf(w, "veclen=%d\n", veclen)

	data := v.Type.String()
	if v.Order != nil && v.Order.Uint16([]byte{0, 1}) == 1 {
		data = "xdr_" + data
	}
	fmt.Fprintf(w, "data=%s\n", data)

	field := h.Field
	if field == "" {
		field = "uniform"
	}
	fmt.Fprintf(w, "field=%s\n", field)

	if len(h.Labels) > 0 {
		fmt.Fprintf(w, "label=%s\n", strings.Join(h.Labels, " "))
	}
	if h.HasExtent {
		fmt.Fprintf(w, "min_ext=%s\n", joinTriple(h.MinExt))
		fmt.Fprintf(w, "max_ext=%s\n", joinTriple(h.MaxExt))
	}
}

func joinTriple(v [3]float64) string {
	parts := make([]string, 3)
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
