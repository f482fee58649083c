package xmlgeom

import (
	"github.com/chazu/vizpipe/pkg/format"
)

func decodeGeometry(root string, doc *document) (*format.GeometryRecord, error) {
	rec := &format.GeometryRecord{Name: doc.Name}
	switch root {
	case RootPoint:
		rec.Kind = format.GeometryPoint
	case RootLine:
		rec.Kind = format.GeometryLine
		rec.Topology = doc.Topology
	case RootPolygon:
		rec.Kind = format.GeometryPolygon
		rec.Topology = doc.Shape
	}

	var err error
	if rec.Coords, err = parseFloats(doc.Coords); err != nil {
		return nil, err
	}
	if rec.Indices, err = parseInts(doc.Indices); err != nil {
		return nil, err
	}
	if rec.Colors, err = parseFloats(doc.Colors); err != nil {
		return nil, err
	}
	if rec.Normals, err = parseFloats(doc.Normals); err != nil {
		return nil, err
	}
	if rec.Sizes, err = parseFloats(doc.Sizes); err != nil {
		return nil, err
	}
	if rec.Opacity, err = parseFloats(doc.Opacity); err != nil {
		return nil, err
	}
	return rec, nil
}

func encodeGeometry(root string, rec *format.GeometryRecord) *document {
	doc := &document{
		Name:    rec.Name,
		Coords:  joinFloats(rec.Coords),
		Indices: joinInts(rec.Indices),
		Colors:  joinFloats(rec.Colors),
		Normals: joinFloats(rec.Normals),
		Sizes:   joinFloats(rec.Sizes),
		Opacity: joinFloats(rec.Opacity),
	}
	doc.XMLName.Local = root
	switch root {
	case RootLine:
		doc.Topology = rec.Topology
	case RootPolygon:
		doc.Shape = rec.Topology
	}
	return doc
}
