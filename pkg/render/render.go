// Package render defines the renderer sinks a pipeline binds its final
// object to and the display collaborator that presents them.
//
// Renderers here hold the bound object and describe what they accept; the
// drawing itself belongs to whatever Display receives them.
package render

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/vizpipe/pkg/object"
)

var (
	// ErrNoRendererAvailable is returned when no renderer handles an
	// object kind.
	ErrNoRendererAvailable = errors.New("no renderer available")

	// ErrKindMismatch is returned by Bind for an object the renderer does
	// not accept.
	ErrKindMismatch = errors.New("renderer does not accept object")
)

// Renderer is an opaque sink selected by object kind.
type Renderer interface {
	Name() string
	Accepts(kind object.Kind) bool
	Bind(obj object.Object) error
	Bound() object.Object
}

// sink holds the state shared by every renderer.
type sink struct {
	name  string
	kinds []object.Kind
	bound object.Object
}

func (s *sink) Name() string { return s.name }

func (s *sink) Accepts(kind object.Kind) bool {
	return lo.Contains(s.kinds, kind)
}

func (s *sink) Bind(obj object.Object) error {
	if obj == nil || !s.Accepts(obj.Kind()) {
		kind := "nil"
		if obj != nil {
			kind = obj.Kind().String()
		}
		return fmt.Errorf("render: %s: %w: %s", s.name, ErrKindMismatch, kind)
	}
	s.bound = obj
	return nil
}

func (s *sink) Bound() object.Object { return s.bound }

// ImageRenderer draws raster images.
type ImageRenderer struct{ sink }

// PointRenderer draws point clouds.
type PointRenderer struct{ sink }

// LineRenderer draws line sets.
type LineRenderer struct{ sink }

// PolygonRenderer draws triangle and quadrangle meshes.
type PolygonRenderer struct{ sink }

// RayCastRenderer ray casts structured volumes.
type RayCastRenderer struct{ sink }

// Compile-time interface checks.
var (
	_ Renderer = (*ImageRenderer)(nil)
	_ Renderer = (*PointRenderer)(nil)
	_ Renderer = (*LineRenderer)(nil)
	_ Renderer = (*PolygonRenderer)(nil)
	_ Renderer = (*RayCastRenderer)(nil)
)

func NewImage() *ImageRenderer {
	return &ImageRenderer{sink{name: "image", kinds: []object.Kind{object.KindImage}}}
}

func NewPoint() *PointRenderer {
	return &PointRenderer{sink{name: "point", kinds: []object.Kind{object.KindPoint}}}
}

func NewLine() *LineRenderer {
	return &LineRenderer{sink{name: "line", kinds: []object.Kind{object.KindLine}}}
}

func NewPolygon() *PolygonRenderer {
	return &PolygonRenderer{sink{name: "polygon", kinds: []object.Kind{object.KindPolygon}}}
}

func NewRayCast() *RayCastRenderer {
	return &RayCastRenderer{sink{name: "raycast", kinds: []object.Kind{object.KindStructuredVolume}}}
}

// ForKind returns a fresh renderer for kind. Unstructured volumes have no
// renderer and yield ErrNoRendererAvailable.
func ForKind(kind object.Kind) (Renderer, error) {
	switch kind {
	case object.KindImage:
		return NewImage(), nil
	case object.KindPoint:
		return NewPoint(), nil
	case object.KindLine:
		return NewLine(), nil
	case object.KindPolygon:
		return NewPolygon(), nil
	case object.KindStructuredVolume:
		return NewRayCast(), nil
	case object.KindUnstructuredVolume:
		return nil, fmt.Errorf("render: %w: %s", ErrNoRendererAvailable, kind)
	default:
		return nil, fmt.Errorf("render: %w: kind %d", ErrNoRendererAvailable, int(kind))
	}
}

// ByName returns a fresh renderer by its Name.
func ByName(name string) (Renderer, error) {
	all := []Renderer{NewImage(), NewPoint(), NewLine(), NewPolygon(), NewRayCast()}
	if r, ok := lo.Find(all, func(r Renderer) bool { return r.Name() == name }); ok {
		return r, nil
	}
	return nil, fmt.Errorf("render: %w: %q", ErrNoRendererAvailable, name)
}
