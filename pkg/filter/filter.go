// Package filter provides the built-in pipeline stages.
//
// Filters (Filter method) return an object of the same kind as their input.
// Mappers (Map method) turn one kind into another. Neither mutates its
// input: every stage works on object.ShallowCopy or a freshly built object
// and replaces buffers rather than writing through them.
package filter

import (
	"errors"
	"fmt"

	"github.com/chazu/vizpipe/pkg/object"
)

var (
	// ErrUnsupportedObject is returned when a stage is given an object kind
	// it cannot process.
	ErrUnsupportedObject = errors.New("unsupported object")

	// ErrEmptySurface is returned when an isosurface level yields no
	// triangles.
	ErrEmptySurface = errors.New("empty surface")
)

func unsupported(stage string, o object.Object) error {
	if o == nil {
		return fmt.Errorf("%s: %w: nil", stage, ErrUnsupportedObject)
	}
	return fmt.Errorf("%s: %w: %s", stage, ErrUnsupportedObject, o.Kind())
}

func spatial(stage string, o object.Object) (*object.Spatial, error) {
	so, ok := o.(object.SpatialObject)
	if !ok {
		return nil, unsupported(stage, o)
	}
	return so.Space(), nil
}

// place sets coords on dst and carries the model transform of src over,
// so external bounds stay in the same world space as the source object.
func place(dst, src *object.Spatial, coords []float32) {
	dst.SetCoords(coords)
	if src.Model == nil {
		return
	}
	m := *src.Model
	dst.Model = &m
	dst.SetExternal(object.TransformBox(m, dst.Bounds()))
}
