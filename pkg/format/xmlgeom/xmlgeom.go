// Package xmlgeom reads and writes the XML geometry and volume family.
//
// All five kinds share the .xml extension and are told apart by their root
// element:
//
//	<pointset name="cloud">
//	  <coords>0 0 0  1 1 1</coords>
//	  <colors>1 0 0 1  0 1 0 1</colors>
//	</pointset>
//
//	<lineset topology="strip"> <coords/> <indices/> </lineset>
//	<polygonset shape="triangle"> <coords/> <indices/> <normals/> </polygonset>
//	<structuredvolume grid="uniform" type="byte" dims="2 2 2" veclen="1"> <values/> </structuredvolume>
//	<unstructuredvolume cells="tetrahedra" veclen="1"> <coords/> <connections/> <values/> </unstructuredvolume>
//
// Numeric content is whitespace-separated text.
package xmlgeom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/source"
)

// Root element names.
const (
	RootPoint        = "pointset"
	RootLine         = "lineset"
	RootPolygon      = "polygonset"
	RootStructured   = "structuredvolume"
	RootUnstructured = "unstructuredvolume"
)

// Compile-time interface checks.
var (
	_ format.Adapter = (*Adapter)(nil)
	_ format.Prober  = (*Adapter)(nil)
)

// Adapter handles one root element of the family.
type Adapter struct {
	root string
}

// NewPoint returns the point set adapter.
func NewPoint() *Adapter { return &Adapter{root: RootPoint} }

// NewLine returns the line set adapter.
func NewLine() *Adapter { return &Adapter{root: RootLine} }

// NewPolygon returns the polygon set adapter.
func NewPolygon() *Adapter { return &Adapter{root: RootPolygon} }

// NewStructuredVolume returns the structured volume adapter.
func NewStructuredVolume() *Adapter { return &Adapter{root: RootStructured} }

// NewUnstructuredVolume returns the unstructured volume adapter.
func NewUnstructuredVolume() *Adapter { return &Adapter{root: RootUnstructured} }

// Name returns "xml-" followed by the root element.
func (a *Adapter) Name() string {
	return "xml-" + a.root
}

// Root returns the root element this adapter accepts.
func (a *Adapter) Root() string {
	return a.root
}

// Check reports whether the first element of path is this adapter's root.
// Any open or parse error yields false.
func (a *Adapter) Check(path string) bool {
	f, err := source.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	root, err := rootElement(f.Reader())
	return err == nil && root == a.root
}

func rootElement(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// document is the union of every element and attribute in the family.
type document struct {
	XMLName  xml.Name
	Name     string `xml:"name,attr,omitempty"`
	Topology string `xml:"topology,attr,omitempty"`
	Shape    string `xml:"shape,attr,omitempty"`
	Grid     string `xml:"grid,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	Dims     string `xml:"dims,attr,omitempty"`
	VecLen   int    `xml:"veclen,attr,omitempty"`
	Labels   string `xml:"labels,attr,omitempty"`
	Min      string `xml:"min,attr,omitempty"`
	Max      string `xml:"max,attr,omitempty"`
	Cells    string `xml:"cells,attr,omitempty"`
	Nodes    int    `xml:"nodes,attr,omitempty"`

	Coords      string `xml:"coords,omitempty"`
	Indices     string `xml:"indices,omitempty"`
	Connections string `xml:"connections,omitempty"`
	Values      string `xml:"values,omitempty"`
	Colors      string `xml:"colors,omitempty"`
	Normals     string `xml:"normals,omitempty"`
	Sizes       string `xml:"sizes,omitempty"`
	Opacity     string `xml:"opacity,omitempty"`
}

// Read decodes path into the record for this adapter's root.
func (a *Adapter) Read(path string) (format.Record, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", a.Name(), format.ErrIO, err)
	}
	defer f.Close()

	var doc document
	if err := xml.NewDecoder(f.Reader()).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %s: %w: %v", a.Name(), path, format.ErrFormatMismatch, err)
	}
	if doc.XMLName.Local != a.root {
		return nil, fmt.Errorf("%s: %s: %w: root element %q", a.Name(), path, format.ErrFormatMismatch, doc.XMLName.Local)
	}

	var rec format.Record
	switch a.root {
	case RootPoint, RootLine, RootPolygon:
		rec, err = decodeGeometry(a.root, &doc)
	case RootStructured:
		rec, err = decodeStructured(&doc)
	case RootUnstructured:
		rec, err = decodeUnstructured(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", a.Name(), path, err)
	}
	return rec, nil
}

// Write encodes rec under this adapter's root element.
func (a *Adapter) Write(path string, rec format.Record) error {
	doc, err := a.encode(rec)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name(), err)
	}

	f, err := source.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", a.Name(), format.ErrIO, err)
	}
	io.WriteString(f, xml.Header)
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w: %w", a.Name(), format.ErrIO, err)
	}
	io.WriteString(f, "\n")
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w: %w", a.Name(), format.ErrIO, err)
	}
	return nil
}

func (a *Adapter) encode(rec format.Record) (*document, error) {
	wrong := fmt.Errorf("%w: %s", format.ErrUnsupportedRecordKind, rec.RecordKind())
	switch a.root {
	case RootPoint, RootLine, RootPolygon:
		gr, ok := rec.(*format.GeometryRecord)
		if !ok || rootFor(gr.Kind) != a.root {
			return nil, wrong
		}
		return encodeGeometry(a.root, gr), nil
	case RootStructured:
		fr, ok := rec.(*format.FieldRecord)
		if !ok {
			return nil, wrong
		}
		return encodeStructured(fr), nil
	default:
		mr, ok := rec.(*format.MeshRecord)
		if !ok {
			return nil, wrong
		}
		return encodeUnstructured(mr), nil
	}
}

// ForRecord returns the family member that can write rec.
func ForRecord(rec format.Record) (*Adapter, error) {
	switch r := rec.(type) {
	case *format.GeometryRecord:
		return &Adapter{root: rootFor(r.Kind)}, nil
	case *format.FieldRecord:
		return NewStructuredVolume(), nil
	case *format.MeshRecord:
		return NewUnstructuredVolume(), nil
	default:
		return nil, fmt.Errorf("xmlgeom: %w: %s", format.ErrUnsupportedRecordKind, rec.RecordKind())
	}
}

func rootFor(k format.GeometryKind) string {
	switch k {
	case format.GeometryPoint:
		return RootPoint
	case format.GeometryLine:
		return RootLine
	default:
		return RootPolygon
	}
}

var errNumber = errors.New("bad number")

func parseFloats(s string) ([]float32, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %w %q", format.ErrFormatMismatch, errNumber, f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func parseFloat64s(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w %q", format.ErrFormatMismatch, errNumber, f)
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(s string) ([]int64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w %q", format.ErrFormatMismatch, errNumber, f)
		}
		out[i] = v
	}
	return out, nil
}

func joinFloats(v []float32) string {
	var b strings.Builder
	for i, f := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return b.String()
}

func joinInts[T int64 | uint32](v []T) string {
	var b strings.Builder
	for i, n := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(int64(n), 10))
	}
	return b.String()
}
