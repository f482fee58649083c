// Package ucd reads and writes ASCII AVS UCD unstructured meshes.
//
// Layout:
//
//	# comments
//	nnodes ncells nndata ncdata nmdata
//	id x y z                       (nnodes lines)
//	id material type n1 n2 ...     (ncells lines)
//	ncomp size1 size2 ...          (node data, when nndata > 0)
//	label, unit                    (ncomp lines)
//	id v1 v2 ...                   (nnodes lines)
//	... the same block for cell data when ncdata > 0
//
// Node ids are arbitrary integers in the file and remapped to 0-based
// indices in the record.
package ucd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/source"
)

// Compile-time interface check.
var _ format.Adapter = (*Adapter)(nil)

// Adapter implements format.Adapter for .inp files.
type Adapter struct{}

// New returns a UCD adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "ucd"
}

// cellName maps a UCD cell name and node count to the cell type name
// understood by object.ParseCellType.
func cellName(ucd string, nodes int) string {
	switch {
	case ucd == "tet" && nodes == 4:
		return "tetrahedra"
	case ucd == "tet" && nodes == 10:
		return "quadratic-tetrahedra"
	case ucd == "hex" && nodes == 8:
		return "hexahedra"
	case ucd == "hex" && nodes == 20:
		return "quadratic-hexahedra"
	default:
		return ucd
	}
}

func ucdName(cell string) string {
	switch cell {
	case "tetrahedra", "quadratic-tetrahedra":
		return "tet"
	case "hexahedra", "quadratic-hexahedra":
		return "hex"
	default:
		return cell
	}
}

// minLine is the shortest possible node or cell line, e.g. "1 0 0 0\n".
// Counts are checked against it before anything is allocated.
const minLine = 8

// lineReader yields non-comment, non-blank lines as fields.
type lineReader struct {
	sc   *bufio.Scanner
	line int
	size int64 // readable bytes in the whole file
}

func (lr *lineReader) next() ([]string, error) {
	for lr.sc.Scan() {
		lr.line++
		text := strings.TrimSpace(lr.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		return strings.Fields(text), nil
	}
	if err := lr.sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", format.ErrIO, err)
	}
	return nil, fmt.Errorf("%w: unexpected end of file after line %d", format.ErrTruncatedPayload, lr.line)
}

func (lr *lineReader) errorf(msg string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", format.ErrFormatMismatch, lr.line, fmt.Sprintf(msg, args...))
}

// Read parses the UCD file at path.
func (a *Adapter) Read(path string) (format.Record, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ucd: %w: %w", format.ErrIO, err)
	}
	defer f.Close()

	rec, err := parse(f.Reader(), f.Size())
	if err != nil {
		return nil, fmt.Errorf("ucd: %s: %w", path, err)
	}
	return rec, nil
}

// parse reads a UCD stream of size bytes. size bounds every count in the
// header so a corrupt counts line cannot force a huge allocation.
func parse(r io.Reader, size int64) (*format.MeshRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lr := &lineReader{sc: sc, size: size}

	counts, err := lr.next()
	if err != nil {
		return nil, err
	}
	n, err := atois(counts)
	if err != nil || len(n) < 5 {
		return nil, lr.errorf("expected 5 counts, got %q", strings.Join(counts, " "))
	}
	nnodes, ncells, nndata, ncdata := n[0], n[1], n[2], n[3]
	if nnodes < 0 || ncells < 0 {
		return nil, lr.errorf("negative node or cell count")
	}
	if limit := size / minLine; int64(nnodes) > limit || int64(ncells) > limit-int64(nnodes) {
		return nil, lr.errorf("%d nodes and %d cells cannot fit in %d bytes", nnodes, ncells, size)
	}

	rec := &format.MeshRecord{Coords: make([]float32, 0, nnodes*3)}
	index := make(map[int]uint32, nnodes)
	for i := 0; i < nnodes; i++ {
		fields, err := lr.next()
		if err != nil {
			return nil, err
		}
		if len(fields) < 4 {
			return nil, lr.errorf("node line needs id x y z")
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, lr.errorf("node id %q", fields[0])
		}
		xyz, err := atofs(fields[1:4])
		if err != nil {
			return nil, lr.errorf("node coordinates: %v", err)
		}
		index[id] = uint32(i)
		rec.Coords = append(rec.Coords, xyz...)
	}

	cellType := ""
	for i := 0; i < ncells; i++ {
		fields, err := lr.next()
		if err != nil {
			return nil, err
		}
		if len(fields) < 4 {
			return nil, lr.errorf("cell line needs id material type nodes")
		}
		mat, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, lr.errorf("cell material %q", fields[1])
		}
		nodes := fields[3:]
		name := cellName(strings.ToLower(fields[2]), len(nodes))
		switch {
		case i == 0:
			cellType = name
			rec.NodesPerCell = len(nodes)
		case name != cellType || len(nodes) != rec.NodesPerCell:
			cellType = "mixed"
		}
		for _, s := range nodes {
			id, err := strconv.Atoi(s)
			if err != nil {
				return nil, lr.errorf("cell node %q", s)
			}
			idx, ok := index[id]
			if !ok {
				return nil, lr.errorf("cell references unknown node %d", id)
			}
			rec.Connections = append(rec.Connections, idx)
		}
		rec.Materials = append(rec.Materials, mat)
	}
	rec.CellType = cellType
	if cellType == "mixed" {
		rec.NodesPerCell = 0
	}

	if nndata > 0 {
		veclen, labels, values, err := parseData(lr, nnodes)
		if err != nil {
			return nil, err
		}
		rec.VecLen, rec.Labels, rec.Values = veclen, labels, values
	}
	if ncdata > 0 {
		veclen, labels, values, err := parseData(lr, ncells)
		if err != nil {
			return nil, err
		}
		rec.CellVecLen, rec.CellLabels, rec.CellValues = veclen, labels, values
	}
	return rec, nil
}

// parseData reads one data block with rows entries and returns the total
// component count, labels and values as a float buffer.
func parseData(lr *lineReader, rows int) (int, []string, *buffer.Buffer, error) {
	head, err := lr.next()
	if err != nil {
		return 0, nil, nil, err
	}
	sizes, err := atois(head)
	if err != nil || len(sizes) < 1 || len(sizes) != sizes[0]+1 {
		return 0, nil, nil, lr.errorf("data component line %q", strings.Join(head, " "))
	}
	// Each row holds an id and veclen values, two bytes apiece at least.
	limit := lr.size / 2
	veclen := 0
	for _, s := range sizes[1:] {
		if s < 0 || int64(s) > limit-int64(veclen) {
			return 0, nil, nil, lr.errorf("data component size %d", s)
		}
		veclen += s
	}
	if rows > 0 && int64(veclen)+1 > limit/int64(rows) {
		return 0, nil, nil, lr.errorf("%d rows of %d values cannot fit in %d bytes", rows, veclen, lr.size)
	}

	labels := make([]string, 0, sizes[0])
	for i := 0; i < sizes[0]; i++ {
		if !lr.sc.Scan() {
			return 0, nil, nil, fmt.Errorf("%w: missing data label", format.ErrTruncatedPayload)
		}
		lr.line++
		label, _, _ := strings.Cut(lr.sc.Text(), ",")
		labels = append(labels, strings.TrimSpace(label))
	}

	values := make([]float64, 0, rows*veclen)
	for i := 0; i < rows; i++ {
		fields, err := lr.next()
		if err != nil {
			return 0, nil, nil, err
		}
		if len(fields) < veclen+1 {
			return 0, nil, nil, lr.errorf("data row needs %d values", veclen)
		}
		for _, s := range fields[1 : veclen+1] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, nil, nil, lr.errorf("data value %q", s)
			}
			values = append(values, v)
		}
	}
	buf, err := buffer.Encode(buffer.Float, binary.LittleEndian, values)
	if err != nil {
		return 0, nil, nil, err
	}
	return veclen, labels, buf, nil
}

func atois(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, s := range fields {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func atofs(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// Write encodes a *format.MeshRecord. Node ids are written 1-based.
func (a *Adapter) Write(path string, rec format.Record) error {
	mr, ok := rec.(*format.MeshRecord)
	if !ok {
		return fmt.Errorf("ucd: %w: %s", format.ErrUnsupportedRecordKind, rec.RecordKind())
	}
	if mr.NodesPerCell == 0 && len(mr.Connections) > 0 {
		return fmt.Errorf("ucd: mixed cell records cannot be written")
	}

	f, err := source.Create(path)
	if err != nil {
		return fmt.Errorf("ucd: %w: %w", format.ErrIO, err)
	}
	w := bufio.NewWriter(f)

	nnodes := len(mr.Coords) / 3
	ncells := mr.CellCount()
	nndata, ncdata := 0, 0
	if mr.Values.Len() > 0 {
		nndata = mr.VecLen
	}
	if mr.CellValues.Len() > 0 {
		ncdata = mr.CellVecLen
	}

	fmt.Fprintf(w, "# AVS UCD file\n")
	fmt.Fprintf(w, "%d %d %d %d 0\n", nnodes, ncells, nndata, ncdata)
	for i := 0; i < nnodes; i++ {
		c := mr.Coords[i*3 : i*3+3]
		fmt.Fprintf(w, "%d %s %s %s\n", i+1, ftoa(c[0]), ftoa(c[1]), ftoa(c[2]))
	}
	name := ucdName(mr.CellType)
	for i := 0; i < ncells; i++ {
		mat := 1
		if i < len(mr.Materials) {
			mat = mr.Materials[i]
		}
		fmt.Fprintf(w, "%d %d %s", i+1, mat, name)
		for _, idx := range mr.Connections[i*mr.NodesPerCell : (i+1)*mr.NodesPerCell] {
			fmt.Fprintf(w, " %d", idx+1)
		}
		w.WriteByte('\n')
	}
	if nndata > 0 {
		writeData(w, mr.VecLen, mr.Labels, mr.Values, nnodes)
	}
	if ncdata > 0 {
		writeData(w, mr.CellVecLen, mr.CellLabels, mr.CellValues, ncells)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("ucd: %w: %w", format.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ucd: %w: %w", format.ErrIO, err)
	}
	return nil
}

// writeData writes veclen scalar components, one label each.
func writeData(w *bufio.Writer, veclen int, labels []string, values *buffer.Buffer, rows int) {
	fmt.Fprintf(w, "%d", veclen)
	for i := 0; i < veclen; i++ {
		w.WriteString(" 1")
	}
	w.WriteByte('\n')
	for i := 0; i < veclen; i++ {
		label := fmt.Sprintf("component%d", i)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		fmt.Fprintf(w, "%s, none\n", label)
	}
	for r := 0; r < rows; r++ {
		fmt.Fprintf(w, "%d", r+1)
		for c := 0; c < veclen; c++ {
			fmt.Fprintf(w, " %s", strconv.FormatFloat(values.Float64(r*veclen+c), 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
