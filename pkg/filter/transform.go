package filter

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/vizpipe/pkg/object"
)

// Transform composes a matrix onto a spatial object's model transform.
// Coordinates stay in object space; the external bounds become the
// transformed object-space box and so diverge from the object bounds.
type Transform struct {
	Label string
	M     sdf.M44
}

// Translate moves an object by (x, y, z).
func Translate(x, y, z float64) *Transform {
	return &Transform{Label: "translate", M: sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})}
}

// Rotate rotates by Euler angles in degrees, applied X then Y then Z.
func Rotate(x, y, z float64) *Transform {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	return &Transform{Label: "rotate", M: sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))}
}

// Scale scales by per-axis factors.
func Scale(x, y, z float64) *Transform {
	return &Transform{Label: "scale", M: sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z})}
}

// Name returns the stage name.
func (t *Transform) Name() string {
	return t.Label
}

// Filter implements the filter contract.
func (t *Transform) Filter(o object.Object) (object.Object, error) {
	if _, err := spatial(t.Label, o); err != nil {
		return nil, err
	}
	out := object.ShallowCopy(o)
	s := out.(object.SpatialObject).Space()

	m := t.M.Mul(s.Transform())
	s.Model = &m
	s.SetExternal(object.TransformBox(m, s.Bounds()))
	return out, nil
}
