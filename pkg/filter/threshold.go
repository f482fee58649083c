package filter

import (
	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/object"
)

// Threshold raises every volume value below Level to Level. The element
// type of the value buffer is preserved.
type Threshold struct {
	Level float64
}

// Name returns the stage name.
func (t *Threshold) Name() string {
	return "threshold"
}

// Filter implements the filter contract for structured and unstructured
// volumes.
func (t *Threshold) Filter(o object.Object) (object.Object, error) {
	switch v := o.(type) {
	case *object.StructuredVolume:
		c := *v
		c.Values = t.floor(v.Values)
		return &c, nil
	case *object.UnstructuredVolume:
		c := *v
		c.Values = t.floor(v.Values)
		return &c, nil
	default:
		return nil, unsupported(t.Name(), o)
	}
}

func (t *Threshold) floor(in *buffer.Buffer) *buffer.Buffer {
	out := in.Clone()
	for i := 0; i < out.Len(); i++ {
		if out.Float64(i) < t.Level {
			out.Set(i, t.Level)
		}
	}
	return out
}
