// Package pipeline chains object creation, filter and mapper stages and
// renderer selection.
//
// A Pipeline moves through four states:
//
//	Empty -> ObjectReady -> StagesApplied -> RendererBound
//
// Exec imports the input when no object is held, applies every filter and
// mapper in order, then binds a renderer: the trailing renderer stage when
// one is connected, otherwise one chosen by the final object's kind. A
// failure stops Exec in the state reached so far and is kept for Err.
//
// A Pipeline is not safe for concurrent use. Independent pipelines may run
// concurrently as long as they do not share objects.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/chazu/vizpipe/internal/logging"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/format/detect"
	"github.com/chazu/vizpipe/pkg/importer"
	"github.com/chazu/vizpipe/pkg/object"
	"github.com/chazu/vizpipe/pkg/render"
)

var (
	// ErrImportFailed wraps the first error from detection, reading or
	// importing the input.
	ErrImportFailed = errors.New("import failed")

	// ErrStageFailed is matched by every *StageError.
	ErrStageFailed = errors.New("stage failed")

	// ErrNoRendererAvailable is returned when no renderer accepts the final
	// object.
	ErrNoRendererAvailable = render.ErrNoRendererAvailable

	// ErrInvalidStage is returned by Connect for stages that satisfy no
	// contract or sit in the wrong position.
	ErrInvalidStage = errors.New("invalid stage")
)

// State is the pipeline's position in its lifecycle.
type State int

const (
	Empty State = iota
	ObjectReady
	StagesApplied
	RendererBound
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case ObjectReady:
		return "object-ready"
	case StagesApplied:
		return "stages-applied"
	case RendererBound:
		return "renderer-bound"
	default:
		return "unknown"
	}
}

// Detector resolves a path to an adapter.
type Detector interface {
	Detect(path string) (format.Adapter, error)
}

// options holds what New configures. Every field has a usable default.
type options struct {
	logger   *logging.Logger
	detector Detector
	display  render.Display
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDetector replaces the default format detector.
func WithDetector(d Detector) Option {
	return func(o *options) {
		if d != nil {
			o.detector = d
		}
	}
}

// WithDisplay sets the collaborator that receives the bound renderer.
func WithDisplay(d render.Display) Option {
	return func(o *options) {
		if d != nil {
			o.display = d
		}
	}
}

// Pipeline owns one object and the stages applied to it.
type Pipeline struct {
	opts options

	input  string
	stages []Stage

	state    State
	source   object.Object // imported or connected object
	current  object.Object // output of the last successful stage
	renderer render.Renderer
	err      error
}

// New returns an empty pipeline.
func New(opts ...Option) *Pipeline {
	o := options{
		logger:   logging.Noop(),
		detector: detect.Default(),
		display:  render.Discard,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &Pipeline{opts: o}
}

// SetInput sets the file imported by the next Exec and drops any object
// already held.
func (p *Pipeline) SetInput(path string) {
	p.input = path
	p.source, p.current, p.renderer = nil, nil, nil
	p.state = Empty
}

// Connect appends stages. Every stage must classify; an object stage may
// only come first and a renderer only last.
func (p *Pipeline) Connect(stages ...Stage) error {
	all := append(append([]Stage(nil), p.stages...), stages...)
	for i, s := range all {
		switch Classify(s) {
		case CategoryUnknown:
			return fmt.Errorf("pipeline: %w: %T satisfies no stage contract", ErrInvalidStage, s)
		case CategoryObject:
			if i != 0 {
				return fmt.Errorf("pipeline: %w: object stage %s at position %d", ErrInvalidStage, StageName(s), i)
			}
		case CategoryRenderer:
			if i != len(all)-1 {
				return fmt.Errorf("pipeline: %w: renderer %s is not the last stage", ErrInvalidStage, StageName(s))
			}
		}
	}
	p.stages = all

	// New stages invalidate everything past the object. The bound renderer
	// saw the old stage chain, so it goes too.
	if p.state > ObjectReady {
		p.state = ObjectReady
		p.renderer = nil
	}
	return nil
}

// Exec runs the pipeline and reports whether a renderer was bound. On false,
// Err holds the first failure.
func (p *Pipeline) Exec() bool {
	p.err = nil
	p.renderer = nil

	// Import once; later runs reuse the object until SetInput.
	if p.source == nil {
		obj, err := p.load()
		if err != nil {
			p.state = Empty
			p.err = err
			return false
		}
		p.source = obj
	}
	// Always restart from the imported object so stages apply once per
	// Exec, however many times Exec is called.
	p.current = p.source
	p.state = ObjectReady

	// A failing stage leaves current at the last good output.
	for _, s := range p.stages {
		if err := p.apply(s); err != nil {
			p.err = err
			return false
		}
	}
	p.state = StagesApplied

	r, auto, err := p.bind()
	p.opts.logger.LogRender(StageName(r), p.current.Kind().String(), auto, err)
	if err != nil {
		p.err = err
		return false
	}
	p.renderer = r
	p.state = RendererBound

	// The renderer stays bound even when the display refuses it.
	if err := p.opts.display.Present(r); err != nil {
		p.err = fmt.Errorf("pipeline: display: %w", err)
		return false
	}
	return true
}

// load returns the connected object stage or imports the input file.
func (p *Pipeline) load() (object.Object, error) {
	if len(p.stages) > 0 && Classify(p.stages[0]) == CategoryObject {
		return p.stages[0].(object.Object), nil
	}

	// Detect, read, import. The first error wins and is wrapped in
	// ErrImportFailed.
	log := p.opts.logger.WithPath(p.input)
	start := time.Now()
	adapter, err := p.opts.detector.Detect(p.input)
	if err != nil {
		log.LogImport("", "", 0, err)
		return nil, fmt.Errorf("pipeline: %w: %w", ErrImportFailed, err)
	}
	obj, err := func() (object.Object, error) {
		rec, err := adapter.Read(p.input)
		if err != nil {
			return nil, err
		}
		return importer.Import(rec)
	}()
	log.LogImport(adapter.Name(), kindName(obj), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w: %w", ErrImportFailed, err)
	}
	return obj, nil
}

// apply runs one filter or mapper. Object and renderer stages are handled
// by load and bind.
func (p *Pipeline) apply(s Stage) error {
	var run func(object.Object) (object.Object, error)
	switch st := s.(type) {
	case render.Renderer, object.Object:
		return nil
	case Mapper:
		run = st.Map
	case Filter:
		run = st.Filter
	}

	name := StageName(s)
	out, err := run(p.current)
	// (nil, nil) is a failure too.
	if err == nil && out == nil {
		err = errNoResult
	}
	p.opts.logger.LogStage(name, p.current.Kind().String(), kindName(out), err)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	p.current = out
	return nil
}

// bind binds the trailing renderer stage or selects one by object kind.
func (p *Pipeline) bind() (render.Renderer, bool, error) {
	// An explicit renderer that rejects the object is a stage failure, not
	// a missing renderer.
	if s, ok := p.Lookup(CategoryRenderer); ok {
		r := s.(render.Renderer)
		if err := r.Bind(p.current); err != nil {
			return r, false, &StageError{Stage: r.Name(), Err: err}
		}
		return r, false, nil
	}
	// Auto selection by kind. Unstructured volumes have no renderer.
	r, err := render.ForKind(p.current.Kind())
	if err != nil {
		return nil, true, fmt.Errorf("pipeline: %w", err)
	}
	if err := r.Bind(p.current); err != nil {
		return nil, true, fmt.Errorf("pipeline: %w: %w", ErrNoRendererAvailable, err)
	}
	return r, true, nil
}

func kindName(o object.Object) string {
	if o == nil {
		return ""
	}
	return o.Kind().String()
}

// Lookup returns the first connected stage in category c.
func (p *Pipeline) Lookup(c Category) (Stage, bool) {
	return lo.Find(p.stages, func(s Stage) bool { return Classify(s) == c })
}

// Stages returns the connected stages.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// State returns the current state.
func (p *Pipeline) State() State { return p.state }

// Err returns the failure recorded by the last Exec, or nil.
func (p *Pipeline) Err() error { return p.err }

// Object returns the output of the last successful stage, or the imported
// object when no stage has run.
func (p *Pipeline) Object() object.Object { return p.current }

// HasRenderer reports whether a renderer is bound.
func (p *Pipeline) HasRenderer() bool { return p.renderer != nil }

// Renderer returns the bound renderer, or nil.
func (p *Pipeline) Renderer() render.Renderer { return p.renderer }

// Reset drops the input, stages, object and renderer.
func (p *Pipeline) Reset() {
	p.SetInput("")
	p.stages = nil
	p.err = nil
}
