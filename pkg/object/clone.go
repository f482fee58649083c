package object

import "fmt"

// ShallowCopy returns a new object of the same variant whose fields equal
// o's. Buffers are shared, so the copy must only have fields replaced, never
// written through.
func ShallowCopy(o Object) Object {
	switch v := o.(type) {
	case *Image:
		c := *v
		return &c
	case *Point:
		c := *v
		return &c
	case *Line:
		c := *v
		return &c
	case *Polygon:
		c := *v
		return &c
	case *StructuredVolume:
		c := *v
		return &c
	case *UnstructuredVolume:
		c := *v
		return &c
	default:
		panic(fmt.Sprintf("object: unhandled variant %T", o))
	}
}
