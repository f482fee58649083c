package pipeline

import (
	"errors"
	"fmt"

	"github.com/chazu/vizpipe/pkg/object"
	"github.com/chazu/vizpipe/pkg/render"
)

// Stage is anything connected to a pipeline. Stages are classified by the
// contracts they satisfy; see Classify.
type Stage any

// Filter transforms an object into another of the same kind. Filters must
// not modify their input; the pipeline keeps it as the last good object.
type Filter interface {
	Name() string
	Filter(o object.Object) (object.Object, error)
}

// Mapper transforms an object into one of a different kind.
type Mapper interface {
	Name() string
	Map(o object.Object) (object.Object, error)
}

// Category is the role a stage plays.
type Category int

// Categories in classification order, except Unknown.
const (
	CategoryUnknown Category = iota
	CategoryObject
	CategoryFilter
	CategoryMapper
	CategoryRenderer
)

func (c Category) String() string {
	switch c {
	case CategoryObject:
		return "object"
	case CategoryFilter:
		return "filter"
	case CategoryMapper:
		return "mapper"
	case CategoryRenderer:
		return "renderer"
	default:
		return "unknown"
	}
}

// Classify returns the category of s. A stage satisfying several contracts
// takes the first of renderer, object, mapper, filter.
func Classify(s Stage) Category {
	// Case order is the priority order.
	switch s.(type) {
	case render.Renderer:
		return CategoryRenderer
	case object.Object:
		return CategoryObject
	case Mapper:
		return CategoryMapper
	case Filter:
		return CategoryFilter
	default:
		return CategoryUnknown
	}
}

// StageName returns a display name for s: its Name when it has a
// non-empty one, otherwise its Go type.
func StageName(s Stage) string {
	if n, ok := s.(interface{ Name() string }); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// StageError reports the stage that failed. It matches ErrStageFailed and
// the underlying cause under errors.Is.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrStageFailed, e.Err}
}

// errNoResult is the cause recorded when a stage returns neither an object
// nor an error.
var errNoResult = errors.New("no result")
