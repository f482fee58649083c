package importer

import (
	"fmt"
	"math"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/object"
)

func geometry(rec format.Record, kind format.GeometryKind) (*format.GeometryRecord, error) {
	r, ok := rec.(*format.GeometryRecord)
	if !ok || r.Kind != kind {
		return nil, wrongKind(kind.String()+" geometry", rec)
	}
	if len(r.Coords)%3 != 0 {
		return nil, fmt.Errorf("importer: %w: %d coordinates are not whole triples", ErrUnsupportedVariant, len(r.Coords))
	}
	return r, nil
}

// attributes copies the optional per-vertex buffers and sets the coordinates,
// which derives both bounding boxes.
func attributes(s *object.Spatial, r *format.GeometryRecord) {
	s.SetCoords(r.Coords)
	s.Colors = r.Colors
	s.Normals = r.Normals
	s.Sizes = r.Sizes
	s.Opacity = r.Opacity
}

// Point imports point geometry.
type Point struct{}

// Exec implements Importer.
func (Point) Exec(rec format.Record) (object.Object, error) {
	r, err := geometry(rec, format.GeometryPoint)
	if err != nil {
		return nil, err
	}
	o := &object.Point{Label: r.Name}
	attributes(&o.Spatial, r)
	return o, nil
}

// Line imports line geometry. Polyline indices may hold -1 separators.
type Line struct{}

// Exec implements Importer.
func (Line) Exec(rec format.Record) (object.Object, error) {
	r, err := geometry(rec, format.GeometryLine)
	if err != nil {
		return nil, err
	}
	topo := object.ParseLineTopology(r.Topology)
	nverts := int64(len(r.Coords) / 3)

	indices := make([]int32, len(r.Indices))
	for i, idx := range r.Indices {
		if idx == -1 && topo == object.LinePolyline {
			indices[i] = -1
			continue
		}
		if idx < 0 || idx >= nverts {
			return nil, fmt.Errorf("importer: %w: line index %d out of range [0,%d)", ErrUnsupportedVariant, idx, nverts)
		}
		indices[i] = int32(idx)
	}

	o := &object.Line{Label: r.Name, Topology: topo, Indices: indices}
	attributes(&o.Spatial, r)
	return o, nil
}

// Polygon imports triangle and quadrangle meshes. Unknown shapes are kept
// as PolygonUnknown.
type Polygon struct{}

// Exec implements Importer.
func (Polygon) Exec(rec format.Record) (object.Object, error) {
	r, err := geometry(rec, format.GeometryPolygon)
	if err != nil {
		return nil, err
	}
	nverts := int64(len(r.Coords) / 3)

	indices := make([]uint32, len(r.Indices))
	for i, idx := range r.Indices {
		if idx < 0 || idx >= nverts || idx > math.MaxUint32 {
			return nil, fmt.Errorf("importer: %w: polygon index %d out of range [0,%d)", ErrUnsupportedVariant, idx, nverts)
		}
		indices[i] = uint32(idx)
	}

	o := &object.Polygon{Label: r.Name, Shape: object.ParsePolygonShape(r.Topology), Indices: indices}
	attributes(&o.Spatial, r)
	return o, nil
}
