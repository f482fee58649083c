package filter

import (
	"github.com/samber/lo"

	"github.com/chazu/vizpipe/pkg/object"
)

// Points maps a structured volume to a point cloud with one point per
// sample. Point sizes are the sample's Component value normalized to 0..1.
type Points struct {
	Component int
}

// Name returns the stage name.
func (p *Points) Name() string {
	return "points"
}

// Map implements the mapper contract.
func (p *Points) Map(o object.Object) (object.Object, error) {
	vol, ok := o.(*object.StructuredVolume)
	if !ok || p.Component < 0 || p.Component >= vol.VecLen {
		return nil, unsupported(p.Name(), o)
	}
	n := vol.SampleCount()
	if n == 0 || vol.Values.Len() < n*vol.VecLen {
		return nil, unsupported(p.Name(), o)
	}

	res := vol.Resolution
	b := vol.Bounds()
	axis := func(from, to float64, idx, res int) float32 {
		if res <= 1 {
			return float32(from)
		}
		return float32(from + (to-from)*float64(idx)/float64(res-1))
	}

	coords := make([]float32, 0, n*3)
	values := make([]float64, 0, n)
	for k := 0; k < res[2]; k++ {
		for j := 0; j < res[1]; j++ {
			for i := 0; i < res[0]; i++ {
				coords = append(coords,
					axis(b.Min.X, b.Max.X, i, res[0]),
					axis(b.Min.Y, b.Max.Y, j, res[1]),
					axis(b.Min.Z, b.Max.Z, k, res[2]))
				values = append(values, vol.Value(i, j, k, p.Component))
			}
		}
	}

	vmin, vmax := lo.Min(values), lo.Max(values)
	sizes := lo.Map(values, func(v float64, _ int) float32 {
		if vmax == vmin {
			return 1
		}
		return float32((v - vmin) / (vmax - vmin))
	})

	pts := &object.Point{Label: vol.Label}
	place(&pts.Spatial, &vol.Spatial, coords)
	pts.Sizes = sizes
	return pts, nil
}
