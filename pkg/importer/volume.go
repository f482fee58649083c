package importer

import (
	"fmt"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/object"
)

// Field imports sampled volume records into structured volumes. Only
// uniform grids are accepted.
type Field struct{}

// Exec implements Importer.
func (Field) Exec(rec format.Record) (object.Object, error) {
	r, ok := rec.(*format.FieldRecord)
	if !ok {
		return nil, wrongKind("field", rec)
	}
	h := r.Header
	grid := object.ParseGridType(h.Field)
	if grid != object.GridUniform {
		return nil, fmt.Errorf("importer: %w: %s grid cannot populate a structured volume", ErrUnsupportedVariant, grid)
	}

	veclen := h.VecLen
	if veclen <= 0 {
		veclen = 1
	}
	shape := h.Shape()
	want, err := buffer.Count(shape, veclen)
	if err != nil {
		return nil, fmt.Errorf("importer: %w", err)
	}
	if r.Values == nil || r.Values.Len() != want {
		return nil, fmt.Errorf("importer: %w: want %d values, have %d", format.ErrTruncatedPayload, want, r.Values.Len())
	}

	o := &object.StructuredVolume{
		Resolution: shape,
		VecLen:     veclen,
		Grid:       grid,
		Values:     r.Values.Native(),
		Labels:     h.Labels,
	}
	if len(h.Labels) > 0 {
		o.Label = h.Labels[0]
	}
	o.SetCoords(corners(h, shape))
	return o, nil
}

// corners returns the 8 corners of the volume extent: min_ext/max_ext when
// present, otherwise the lattice index range 0..dim-1.
func corners(h format.Header, shape [3]int) []float32 {
	var lo, hi [3]float64
	if h.HasExtent {
		lo, hi = h.MinExt, h.MaxExt
	} else {
		for i, d := range shape {
			hi[i] = float64(d - 1)
		}
	}
	out := make([]float32, 0, 24)
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 2; i++ {
				out = append(out,
					float32(pick(i, lo[0], hi[0])),
					float32(pick(j, lo[1], hi[1])),
					float32(pick(k, lo[2], hi[2])))
			}
		}
	}
	return out
}

func pick(bit int, lo, hi float64) float64 {
	if bit == 0 {
		return lo
	}
	return hi
}

// Mesh imports unstructured mesh records. Unknown cell types are accepted
// and left for consumers to branch on.
type Mesh struct{}

// Exec implements Importer.
func (Mesh) Exec(rec format.Record) (object.Object, error) {
	r, ok := rec.(*format.MeshRecord)
	if !ok {
		return nil, wrongKind("mesh", rec)
	}
	if len(r.Coords)%3 != 0 {
		return nil, fmt.Errorf("importer: %w: %d coordinates are not whole triples", ErrUnsupportedVariant, len(r.Coords))
	}
	cells := object.ParseCellType(r.CellType)
	if n := cells.NodesPerCell(); n != 0 && r.NodesPerCell != 0 && n != r.NodesPerCell {
		return nil, fmt.Errorf("importer: %w: %s cells with %d nodes", ErrUnsupportedVariant, cells, r.NodesPerCell)
	}
	nverts := uint32(len(r.Coords) / 3)
	for _, c := range r.Connections {
		if c >= nverts {
			return nil, fmt.Errorf("importer: %w: connection to node %d of %d", ErrUnsupportedVariant, c, nverts)
		}
	}
	if r.Values.Len() > 0 && r.Values.Len() != int(nverts)*r.VecLen {
		return nil, fmt.Errorf("importer: %w: want %d node values, have %d", format.ErrTruncatedPayload, int(nverts)*r.VecLen, r.Values.Len())
	}

	o := &object.UnstructuredVolume{
		Label:       r.Name,
		Cells:       cells,
		Connections: r.Connections,
		VecLen:      r.VecLen,
		Labels:      r.Labels,
	}
	if r.Values != nil {
		o.Values = r.Values.Native()
	}
	o.SetCoords(r.Coords)
	return o, nil
}
