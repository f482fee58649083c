// Package script compiles pipeline descriptions written in a small Lisp
// into pipeline stages. It wraps zygomys in a sandboxed environment:
//
//	(threshold :level 10)
//	(isosurface :level 100 :cells 48)
//	(translate 0 0 5)
//	(render :polygon)
//
// Each stage builtin appends one stage in evaluation order, so ordinary
// Lisp (def, let, arithmetic) can compute arguments.
package script

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/vizpipe/pkg/filter"
	"github.com/chazu/vizpipe/pkg/pipeline"
)

// EvalError is a parse or runtime error in user source.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

type options struct {
	timeout time.Duration

	// isosurface defaults when the script gives no :level or :cells.
	isoLevel float64
	isoCells int
}

// Option configures a Compiler.
type Option func(*options)

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithIsoDefaults sets the level and cell count used by isosurface when the
// script omits them.
func WithIsoDefaults(level float64, cells int) Option {
	return func(o *options) {
		o.isoLevel = level
		if cells > 0 {
			o.isoCells = cells
		}
	}
}

// Compiler evaluates pipeline scripts. Each Compile uses a fresh sandbox;
// a Compile started while another is running supersedes it.
type Compiler struct {
	opts options

	mu         sync.Mutex
	generation uint64
}

// New returns a Compiler.
func New(opts ...Option) *Compiler {
	o := options{timeout: EvalTimeout, isoCells: filter.DefaultCells}
	for _, fn := range opts {
		fn(&o)
	}
	return &Compiler{opts: o}
}

// Compile evaluates source and returns the stages it declared, in order.
// Errors in the source are returned as EvalError; a timeout, panic or
// superseded run returns a plain error.
func (c *Compiler) Compile(source string) ([]pipeline.Stage, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	// Buffered so a goroutine that outlives the timeout can still send and
	// exit.
	ch := make(chan evalResult, 1)
	go func() {
		// zygomys can panic on malformed input; surface that as an error
		// instead of taking the caller down.
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("script: panic during evaluation: %v", r)}
			}
		}()
		stages, err := c.compile(source)
		ch <- evalResult{stages: stages, err: err}
	}()

	return waitWithTimeout(ch, c.opts.timeout, gen, &c.mu, &c.generation)
}

// compile runs source in a fresh sandbox. No state carries over between
// calls, so a def in one script is invisible to the next.
func (c *Compiler) compile(source string) ([]pipeline.Stage, error) {
	// No script means no stages: the pipeline picks a renderer by kind.
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	// The sandbox has no file system or process builtins.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var stages []pipeline.Stage
	registerBuiltins(env, c.opts, &stages)

	// LoadString reports syntax errors; Run reports undefined symbols and
	// errors returned by builtins.
	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return stages, nil
}

// Compile evaluates source with a default Compiler.
func Compile(source string) ([]pipeline.Stage, error) {
	return New().Compile(source)
}

// zygomys formats positions as "Error on line N: msg" from the parser and
// "line N: msg" from some runtime paths.
var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// parseZygomysError extracts the line number zygomys embeds in its
// messages, when there is one.
func parseZygomysError(err error) EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
		}
	}
	return EvalError{Message: strings.TrimSpace(msg)}
}

// IsEvalError reports whether err is an error in user source rather than a
// timeout or crash.
func IsEvalError(err error) bool {
	var ee EvalError
	return errors.As(err, &ee)
}
