package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/vizpipe/internal/config"
	"github.com/chazu/vizpipe/internal/logging"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/format/detect"
	"github.com/chazu/vizpipe/pkg/format/xmlgeom"
	"github.com/chazu/vizpipe/pkg/importer"
	"github.com/chazu/vizpipe/pkg/object"
	"github.com/chazu/vizpipe/pkg/pipeline"
	"github.com/chazu/vizpipe/pkg/render"
	"github.com/chazu/vizpipe/pkg/script"
	"github.com/chazu/vizpipe/pkg/source"
)

// App holds the state shared by every command.
type App struct {
	cfg      config.Config
	log      *logging.Logger
	detector *detect.Detector
}

// ObjectData is the JSON-serializable description of a pipeline object.
type ObjectData struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name,omitempty"`
	Vertices   int        `json:"vertices,omitempty"`
	Min        [3]float64 `json:"min"`
	Max        [3]float64 `json:"max"`
	Primitives int        `json:"primitives,omitempty"`
	Samples    int        `json:"samples,omitempty"`
	Cells      int        `json:"cells,omitempty"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
}

// ErrorData is a JSON-serializable failure. Line is set for script errors
// and Stage for stage failures.
type ErrorData struct {
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// Result is the outcome of running one input through a pipeline.
type Result struct {
	Path     string      `json:"path"`
	State    string      `json:"state"`
	Renderer string      `json:"renderer,omitempty"`
	Object   *ObjectData `json:"object,omitempty"`
	Errors   []ErrorData `json:"errors"`
}

// OK reports whether the run bound a renderer without errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Report describes a file without running a pipeline.
type Report struct {
	Path    string      `json:"path"`
	Adapter string      `json:"adapter"`
	Record  string      `json:"record"`
	Object  *ObjectData `json:"object"`
}

// NewApp creates an App. A nil logger discards output.
func NewApp(cfg config.Config, log *logging.Logger) *App {
	if log == nil {
		log = logging.Noop()
	}
	return &App{cfg: cfg, log: log, detector: detect.Default()}
}

// ScriptSource returns the pipeline script to apply: the file at path when
// given, otherwise the configured script, otherwise none.
func (a *App) ScriptSource(path string) (string, error) {
	if path == "" {
		path = a.cfg.Pipeline.Script
	}
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("script: %w", err)
	}
	return string(b), nil
}

func (a *App) compile(src string) ([]pipeline.Stage, error) {
	c := script.New(script.WithIsoDefaults(a.cfg.IsoSurface.Level, a.cfg.IsoSurface.Cells))
	return c.Compile(src)
}

// Run imports path, applies the stages compiled from src and presents the
// bound renderer on display.
func (a *App) Run(path, src string, display render.Display) Result {
	res := Result{Path: path, State: pipeline.Empty.String(), Errors: []ErrorData{}}

	stages, err := a.compile(src)
	if err != nil {
		res.Errors = append(res.Errors, errorData(err))
		return res
	}

	p := pipeline.New(
		pipeline.WithLogger(a.log),
		pipeline.WithDetector(a.detector),
		pipeline.WithDisplay(display),
	)
	p.SetInput(path)
	if err := p.Connect(stages...); err != nil {
		res.Errors = append(res.Errors, errorData(err))
		return res
	}

	ok := p.Exec()
	res.State = p.State().String()
	if obj := p.Object(); obj != nil {
		res.Object = describe(obj)
	}
	if r := p.Renderer(); r != nil {
		res.Renderer = r.Name()
	}
	if !ok {
		res.Errors = append(res.Errors, errorData(p.Err()))
	}
	return res
}

// RunAll runs every path through its own pipeline, at most Limit at a
// time. Results are in input order. The returned error is non-nil only when
// ctx is cancelled.
func (a *App) RunAll(ctx context.Context, paths []string, src string, display func(path string) render.Display) ([]Result, error) {
	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Limit())

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.Run(path, src, display(path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Inspect detects, reads and imports path into an object.
func (a *App) Inspect(path string) (Report, error) {
	adapter, err := a.detector.Detect(path)
	if err != nil {
		return Report{}, err
	}
	rec, err := adapter.Read(path)
	if err != nil {
		return Report{}, err
	}
	obj, err := importer.Import(rec)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Path:    path,
		Adapter: adapter.Name(),
		Record:  rec.RecordKind().String(),
		Object:  describe(obj),
	}, nil
}

// Convert reads in and writes its record to out in the format implied by
// out's extension. hint names the adapter for an ambiguous extension; when
// empty, the XML family member is chosen by record kind.
func (a *App) Convert(in, out, hint string) error {
	src, err := a.detector.Detect(in)
	if err != nil {
		return err
	}
	rec, err := src.Read(in)
	if err != nil {
		return err
	}

	stem, _ := source.Trim(out)
	ext := filepath.Ext(stem)
	dst, err := a.detector.For(ext, hint)
	if err != nil && hint == "" && errors.Is(err, format.ErrUnsupportedFormat) && ext == ".xml" {
		dst, err = xmlgeom.ForRecord(rec)
	}
	if err != nil {
		return err
	}
	if err := dst.Write(out, rec); err != nil {
		return err
	}
	a.log.Info("converted", "from", src.Name(), "to", dst.Name(), "path", out)
	return nil
}

func describe(o object.Object) *ObjectData {
	d := &ObjectData{Kind: o.Kind().String(), Name: o.Name()}
	if so, ok := o.(object.SpatialObject); ok {
		sp := so.Space()
		ext := sp.ExternalBounds()
		d.Vertices = sp.VertexCount()
		d.Min = [3]float64{ext.Min.X, ext.Min.Y, ext.Min.Z}
		d.Max = [3]float64{ext.Max.X, ext.Max.Y, ext.Max.Z}
	}
	switch v := o.(type) {
	case *object.Image:
		d.Width, d.Height = v.Width, v.Height
	case *object.Polygon:
		d.Primitives = v.PrimitiveCount()
	case *object.StructuredVolume:
		d.Samples = v.SampleCount()
	case *object.UnstructuredVolume:
		d.Cells = v.CellCount()
	}
	return d
}

func errorData(err error) ErrorData {
	var ee script.EvalError
	if errors.As(err, &ee) {
		return ErrorData{Line: ee.Line, Col: ee.Col, Message: ee.Message}
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return ErrorData{Stage: se.Stage, Message: err.Error()}
	}
	return ErrorData{Message: err.Error()}
}
