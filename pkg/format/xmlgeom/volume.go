package xmlgeom

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
)

func decodeStructured(doc *document) (*format.FieldRecord, error) {
	t, order := buffer.ParseElementType(doc.Type)
	if t == buffer.Unknown {
		return nil, fmt.Errorf("%w: element type %q", format.ErrFormatMismatch, doc.Type)
	}

	dims, err := parseInts(doc.Dims)
	if err != nil {
		return nil, err
	}
	if len(dims) == 0 || len(dims) > 3 {
		return nil, fmt.Errorf("%w: dims %q", format.ErrFormatMismatch, doc.Dims)
	}

	h := format.Header{
		NDim:   len(dims),
		NSpace: 3,
		VecLen: doc.VecLen,
		Field:  doc.Grid,
		Data:   t,
		Bits:   t.Bits(),
		Signed: t.Signed(),
		Labels: strings.Fields(doc.Labels),
		Order:  order,
	}
	if h.VecLen <= 0 {
		h.VecLen = 1
	}
	if h.Field == "" {
		h.Field = "uniform"
	}
	for i, d := range dims {
		h.Dims[i] = int(d)
	}
	if doc.Min != "" || doc.Max != "" {
		if h.MinExt, err = triple(doc.Min); err != nil {
			return nil, err
		}
		if h.MaxExt, err = triple(doc.Max); err != nil {
			return nil, err
		}
		h.HasExtent = true
	}

	want, err := buffer.Count(h.Shape(), h.VecLen)
	if err != nil {
		return nil, err
	}
	values, err := parseFloat64s(doc.Values)
	if err != nil {
		return nil, err
	}
	switch {
	case len(values) < want:
		return nil, fmt.Errorf("%w: want %d values, have %d", format.ErrTruncatedPayload, want, len(values))
	case len(values) > want:
		return nil, fmt.Errorf("%w: want %d values, have %d", format.ErrFormatMismatch, want, len(values))
	}
	buf, err := buffer.Encode(t, order, values)
	if err != nil {
		return nil, err
	}

	coords, err := parseFloats(doc.Coords)
	if err != nil {
		return nil, err
	}
	return &format.FieldRecord{Header: h, Values: buf, Coords: coords}, nil
}

func triple(s string) ([3]float64, error) {
	var out [3]float64
	v, err := parseFloat64s(s)
	if err != nil {
		return out, err
	}
	if len(v) != 3 {
		return out, fmt.Errorf("%w: extent %q needs 3 numbers", format.ErrFormatMismatch, s)
	}
	copy(out[:], v)
	return out, nil
}

func encodeStructured(rec *format.FieldRecord) *document {
	h := rec.Header
	typ := h.Data.String()
	if h.Order == binary.BigEndian {
		typ = "xdr_" + typ
	}
	dims := make([]string, 0, 3)
	n := h.NDim
	if n <= 0 || n > 3 {
		n = 3
	}
	for i := 0; i < n; i++ {
		dims = append(dims, strconv.Itoa(h.Dims[i]))
	}

	doc := &document{
		Grid:   h.Field,
		Type:   typ,
		Dims:   strings.Join(dims, " "),
		VecLen: h.VecLen,
		Labels: strings.Join(h.Labels, " "),
		Values: joinValues(rec.Values),
		Coords: joinFloats(rec.Coords),
	}
	doc.XMLName.Local = RootStructured
	if h.HasExtent {
		doc.Min = joinTriple(h.MinExt)
		doc.Max = joinTriple(h.MaxExt)
	}
	return doc
}

func decodeUnstructured(doc *document) (*format.MeshRecord, error) {
	rec := &format.MeshRecord{
		Name:         doc.Name,
		CellType:     doc.Cells,
		NodesPerCell: doc.Nodes,
		VecLen:       doc.VecLen,
		Labels:       strings.Fields(doc.Labels),
	}
	var err error
	if rec.Coords, err = parseFloats(doc.Coords); err != nil {
		return nil, err
	}
	conn, err := parseInts(doc.Connections)
	if err != nil {
		return nil, err
	}
	nodes := int64(len(rec.Coords) / 3)
	rec.Connections = make([]uint32, len(conn))
	for i, c := range conn {
		if c < 0 || c >= nodes {
			return nil, fmt.Errorf("%w: connection %d references node %d of %d", format.ErrFormatMismatch, i, c, nodes)
		}
		rec.Connections[i] = uint32(c)
	}
	if rec.NodesPerCell == 0 {
		rec.NodesPerCell = nodesPerCell(doc.Cells)
	}

	if strings.TrimSpace(doc.Values) != "" {
		if rec.VecLen <= 0 {
			rec.VecLen = 1
		}
		values, err := parseFloat64s(doc.Values)
		if err != nil {
			return nil, err
		}
		if want := int(nodes) * rec.VecLen; len(values) != want {
			return nil, fmt.Errorf("%w: want %d node values, have %d", format.ErrTruncatedPayload, want, len(values))
		}
		if rec.Values, err = buffer.Encode(buffer.Float, binary.LittleEndian, values); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// nodesPerCell covers the cell names that imply their node count.
func nodesPerCell(cells string) int {
	switch strings.ToLower(cells) {
	case "tetrahedra":
		return 4
	case "quadratic-tetrahedra":
		return 10
	case "hexahedra":
		return 8
	case "quadratic-hexahedra":
		return 20
	default:
		return 0
	}
}

func encodeUnstructured(rec *format.MeshRecord) *document {
	doc := &document{
		Name:        rec.Name,
		Cells:       rec.CellType,
		Nodes:       rec.NodesPerCell,
		Labels:      strings.Join(rec.Labels, " "),
		Coords:      joinFloats(rec.Coords),
		Connections: joinInts(rec.Connections),
	}
	doc.XMLName.Local = RootUnstructured
	if rec.Values.Len() > 0 {
		doc.VecLen = rec.VecLen
		doc.Values = joinValues(rec.Values)
	}
	return doc
}

func joinValues(b *buffer.Buffer) string {
	var sb strings.Builder
	for i := 0; i < b.Len(); i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(b.Float64(i), 'g', -1, 64))
	}
	return sb.String()
}

func joinTriple(v [3]float64) string {
	return fmt.Sprintf("%s %s %s",
		strconv.FormatFloat(v[0], 'g', -1, 64),
		strconv.FormatFloat(v[1], 'g', -1, 64),
		strconv.FormatFloat(v[2], 'g', -1, 64))
}
