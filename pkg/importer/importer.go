// Package importer turns decoded format records into typed objects.
//
// Each importer accepts only the record variant it understands and returns
// format.ErrUnsupportedRecordKind for anything else. Importers never return
// a partial object alongside an error.
package importer

import (
	"errors"
	"fmt"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/object"
)

// ErrUnsupportedVariant is returned when a record is of the right kind but
// describes a combination the destination object cannot hold, such as a
// non-uniform grid for a structured volume.
var ErrUnsupportedVariant = errors.New("unsupported variant")

// Importer converts one record variant into an object.
type Importer interface {
	Exec(rec format.Record) (object.Object, error)
}

// Compile-time interface checks.
var (
	_ Importer = Field{}
	_ Importer = Mesh{}
	_ Importer = Image{}
	_ Importer = Point{}
	_ Importer = Line{}
	_ Importer = Polygon{}
)

// For returns the importer for rec.
func For(rec format.Record) (Importer, error) {
	switch r := rec.(type) {
	case *format.FieldRecord:
		return Field{}, nil
	case *format.MeshRecord:
		return Mesh{}, nil
	case *format.ImageRecord:
		return Image{}, nil
	case *format.GeometryRecord:
		switch r.Kind {
		case format.GeometryPoint:
			return Point{}, nil
		case format.GeometryLine:
			return Line{}, nil
		case format.GeometryPolygon:
			return Polygon{}, nil
		}
		return nil, fmt.Errorf("importer: %w: geometry kind %d", format.ErrUnsupportedRecordKind, r.Kind)
	default:
		return nil, fmt.Errorf("importer: %w: %T", format.ErrUnsupportedRecordKind, rec)
	}
}

// Import selects the importer for rec and runs it.
func Import(rec format.Record) (object.Object, error) {
	imp, err := For(rec)
	if err != nil {
		return nil, err
	}
	return imp.Exec(rec)
}

func wrongKind(want string, rec format.Record) error {
	if rec == nil {
		return fmt.Errorf("importer: %w: want %s, got nil", format.ErrUnsupportedRecordKind, want)
	}
	return fmt.Errorf("importer: %w: want %s, got %s", format.ErrUnsupportedRecordKind, want, rec.RecordKind())
}

// Image imports raster records.
type Image struct{}

// Exec implements Importer.
func (Image) Exec(rec format.Record) (object.Object, error) {
	r, ok := rec.(*format.ImageRecord)
	if !ok {
		return nil, wrongKind("image", rec)
	}
	if len(r.Pixels) != r.Width*r.Height*4 {
		return nil, fmt.Errorf("importer: %w: %dx%d image has %d pixel bytes", ErrUnsupportedVariant, r.Width, r.Height, len(r.Pixels))
	}
	return &object.Image{
		Label:  r.Name,
		Width:  r.Width,
		Height: r.Height,
		Pixels: r.Pixels,
		Format: r.Format,
	}, nil
}
