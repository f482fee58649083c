package filter

import (
	"github.com/samber/lo"

	"github.com/chazu/vizpipe/pkg/object"
)

// boxEdges indexes the 12 edges of a box whose corners are ordered with x
// varying fastest, then y, then z.
var boxEdges = []int32{
	0, 1, 2, 3, 4, 5, 6, 7, // along x
	0, 2, 1, 3, 4, 6, 5, 7, // along y
	0, 4, 1, 5, 2, 6, 3, 7, // along z
}

// Outline maps any spatial object to the 12 edges of its object-space
// bounding box.
type Outline struct{}

// Name returns the stage name.
func (Outline) Name() string {
	return "outline"
}

// Map implements the mapper contract.
func (o Outline) Map(in object.Object) (object.Object, error) {
	src, err := spatial(o.Name(), in)
	if err != nil {
		return nil, err
	}
	if src.VertexCount() == 0 {
		return nil, unsupported(o.Name(), in)
	}

	b := src.Bounds()
	coords := make([]float32, 0, 24)
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 2; i++ {
				coords = append(coords,
					float32(lo.Ternary(i == 0, b.Min.X, b.Max.X)),
					float32(lo.Ternary(j == 0, b.Min.Y, b.Max.Y)),
					float32(lo.Ternary(k == 0, b.Min.Z, b.Max.Z)))
			}
		}
	}

	line := &object.Line{
		Label:    in.Name(),
		Topology: object.LineUniline,
		Indices:  append([]int32(nil), boxEdges...),
	}
	place(&line.Spatial, src, coords)
	return line, nil
}
