// Package detect maps file paths to format adapters.
//
// Dispatch is on the extension of the path with any compression suffix
// trimmed. Most extensions match case-sensitively; a registered list matches
// case-insensitively. An ambiguous extension is resolved by asking each
// candidate adapter to probe the file, in registration order. Only the
// ambiguous path opens the file.
package detect

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/format/avs"
	"github.com/chazu/vizpipe/pkg/format/raster"
	"github.com/chazu/vizpipe/pkg/format/stl"
	"github.com/chazu/vizpipe/pkg/format/ucd"
	"github.com/chazu/vizpipe/pkg/format/xmlgeom"
	"github.com/chazu/vizpipe/pkg/source"
)

// Candidate is an adapter that can recognize its own files.
type Candidate interface {
	format.Adapter
	format.Prober
}

// Detector holds the extension tables.
type Detector struct {
	exact     map[string]format.Adapter
	folded    map[string]format.Adapter
	ambiguous map[string][]Candidate
}

// New returns an empty detector.
func New() *Detector {
	return &Detector{
		exact:     make(map[string]format.Adapter),
		folded:    make(map[string]format.Adapter),
		ambiguous: make(map[string][]Candidate),
	}
}

// Default returns a detector wired with every built-in adapter. The .xml
// family is probed in the order point, line, polygon, structured volume,
// unstructured volume.
func Default() *Detector {
	d := New()
	d.Register(".fld", avs.New())
	d.Register(".inp", ucd.New())

	img := raster.New()
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"} {
		d.RegisterFold(ext, img)
	}
	d.RegisterFold(".stl", stl.New())

	d.RegisterAmbiguous(".xml",
		xmlgeom.NewPoint(),
		xmlgeom.NewLine(),
		xmlgeom.NewPolygon(),
		xmlgeom.NewStructuredVolume(),
		xmlgeom.NewUnstructuredVolume(),
	)
	return d
}

// Register maps ext to a, matching case-sensitively.
func (d *Detector) Register(ext string, a format.Adapter) {
	d.exact[ext] = a
}

// RegisterFold maps ext to a, matching case-insensitively.
func (d *Detector) RegisterFold(ext string, a format.Adapter) {
	d.folded[strings.ToLower(ext)] = a
}

// RegisterAmbiguous appends probe candidates for ext.
func (d *Detector) RegisterAmbiguous(ext string, cands ...Candidate) {
	d.ambiguous[ext] = append(d.ambiguous[ext], cands...)
}

// Detect returns the adapter for path or format.ErrUnsupportedFormat.
func (d *Detector) Detect(path string) (format.Adapter, error) {
	stem, _ := source.Trim(path)
	ext := filepath.Ext(stem)

	if a, ok := d.exact[ext]; ok {
		return a, nil
	}
	if a, ok := d.folded[strings.ToLower(ext)]; ok {
		return a, nil
	}
	if cands, ok := d.ambiguous[ext]; ok {
		if c, found := lo.Find(cands, func(c Candidate) bool { return c.Check(path) }); found {
			return c, nil
		}
		names := lo.Map(cands, func(c Candidate, _ int) string { return c.Name() })
		return nil, fmt.Errorf("detect: %s: %w: no probe matched (%s)", path, format.ErrUnsupportedFormat, strings.Join(names, ", "))
	}
	return nil, fmt.Errorf("detect: %s: %w: extension %q", path, format.ErrUnsupportedFormat, ext)
}

// Extensions lists every registered extension, sorted.
func (d *Detector) Extensions() []string {
	exts := lo.Uniq(slices.Concat(lo.Keys(d.exact), lo.Keys(d.folded), lo.Keys(d.ambiguous)))
	slices.Sort(exts)
	return exts
}

// For returns the adapter registered for a bare extension without probing.
// Ambiguous extensions resolve to the candidate whose name matches hint.
func (d *Detector) For(ext, hint string) (format.Adapter, error) {
	if a, ok := d.exact[ext]; ok {
		return a, nil
	}
	if a, ok := d.folded[strings.ToLower(ext)]; ok {
		return a, nil
	}
	if c, ok := lo.Find(d.ambiguous[ext], func(c Candidate) bool { return c.Name() == hint }); ok {
		return c, nil
	}
	return nil, fmt.Errorf("detect: %w: extension %q", format.ErrUnsupportedFormat, ext)
}
