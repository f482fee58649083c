// Package object defines the typed, renderer-ready objects produced by
// importers and consumed by pipeline stages.
//
// Object is a closed set of variants. Spatial variants embed Spatial, which
// owns the coordinate buffer and keeps the object-space and world-space
// bounding boxes in sync with it. Objects are handed from stage to stage by
// ownership transfer; stages build new objects instead of mutating the one
// they were given.
package object

// Kind enumerates the object variants.
type Kind int

const (
	KindImage Kind = iota
	KindPoint
	KindLine
	KindPolygon
	KindStructuredVolume
	KindUnstructuredVolume
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	case KindStructuredVolume:
		return "structured-volume"
	case KindUnstructuredVolume:
		return "unstructured-volume"
	default:
		return "unknown"
	}
}

// Object is implemented by every variant in this package.
type Object interface {
	Kind() Kind
	Name() string
	object() // restricts implementations to this package
}

// SpatialObject is an Object with coordinates and bounds.
type SpatialObject interface {
	Object
	Space() *Spatial
}

// Compile-time variant checks.
var (
	_ Object        = (*Image)(nil)
	_ SpatialObject = (*Point)(nil)
	_ SpatialObject = (*Line)(nil)
	_ SpatialObject = (*Polygon)(nil)
	_ SpatialObject = (*StructuredVolume)(nil)
	_ SpatialObject = (*UnstructuredVolume)(nil)
)

// Image is a decoded raster.
type Image struct {
	Label  string
	Width  int
	Height int
	Pixels []uint8 // RGBA, 4 bytes per pixel, row-major
	Format string
}

func (o *Image) Kind() Kind      { return KindImage }
func (o *Image) Name() string    { return o.Label }
func (o *Image) object()         {}
func (o *Image) PixelCount() int { return o.Width * o.Height }
