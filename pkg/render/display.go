package render

import (
	"fmt"
	"log/slog"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/format/stl"
	"github.com/chazu/vizpipe/pkg/object"
)

// Display receives a bound renderer once a pipeline completes.
type Display interface {
	Present(r Renderer) error
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(r Renderer) error

// Present calls f(r).
func (f DisplayFunc) Present(r Renderer) error { return f(r) }

// Discard ignores every renderer.
var Discard Display = DisplayFunc(func(Renderer) error { return nil })

// Summary logs a one-line description of the bound object.
type Summary struct {
	Logger *slog.Logger
}

// Present implements Display.
func (s Summary) Present(r Renderer) error {
	obj := r.Bound()
	if obj == nil {
		return fmt.Errorf("render: %s: nothing bound", r.Name())
	}
	attrs := []any{
		"renderer", r.Name(),
		"object", obj.Kind().String(),
		"name", obj.Name(),
	}
	if so, ok := obj.(object.SpatialObject); ok {
		sp := so.Space()
		ext := sp.ExternalBounds()
		attrs = append(attrs,
			"vertices", sp.VertexCount(),
			"min", ext.Min,
			"max", ext.Max,
		)
	}
	if img, ok := obj.(*object.Image); ok {
		attrs = append(attrs, "width", img.Width, "height", img.Height)
	}
	s.Logger.Info("presented", attrs...)
	return nil
}

// STLFile writes a bound polygon mesh to Path as binary STL, in world
// space. A compression suffix on Path is honored.
type STLFile struct {
	Path string
}

// Present implements Display.
func (d STLFile) Present(r Renderer) error {
	poly, ok := r.Bound().(*object.Polygon)
	if !ok {
		return fmt.Errorf("render: stl: %w: want polygon", ErrKindMismatch)
	}
	if err := stl.New().Write(d.Path, WorldRecord(poly)); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// WorldRecord converts a polygon into a geometry record with its
// coordinates mapped through the model transform.
func WorldRecord(p *object.Polygon) *format.GeometryRecord {
	m := p.Transform()
	coords := p.Coords()
	world := make([]float32, len(coords))
	for i := 0; i+2 < len(coords); i += 3 {
		w := m.MulPosition(v3.Vec{X: float64(coords[i]), Y: float64(coords[i+1]), Z: float64(coords[i+2])})
		world[i], world[i+1], world[i+2] = float32(w.X), float32(w.Y), float32(w.Z)
	}
	indices := make([]int64, len(p.Indices))
	for i, idx := range p.Indices {
		indices[i] = int64(idx)
	}
	return &format.GeometryRecord{
		Kind:     format.GeometryPolygon,
		Name:     p.Label,
		Topology: p.Shape.String(),
		Coords:   world,
		Indices:  indices,
		Normals:  p.Normals,
		Colors:   p.Colors,
	}
}
