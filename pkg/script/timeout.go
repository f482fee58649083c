package script

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/vizpipe/pkg/pipeline"
)

// EvalTimeout is the default limit for a single Compile.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past its limit, typically
	// an unbounded loop.
	ErrTimeout = errors.New("script: evaluation timed out")

	// ErrSuperseded is returned to a Compile whose result arrived after a
	// newer Compile had started on the same Compiler.
	ErrSuperseded = errors.New("script: evaluation superseded by newer request")
)

// evalResult carries a compile's outcome from the evaluating goroutine.
type evalResult struct {
	stages []pipeline.Stage
	err    error
}

// waitWithTimeout waits for ch or the timeout. A result whose generation is
// no longer current is discarded.
//
// On timeout the evaluating goroutine keeps running; its result lands in the
// buffered channel and is dropped.
func waitWithTimeout(
	ch <-chan evalResult,
	timeout time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) ([]pipeline.Stage, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		// A newer Compile started while this one ran.
		if gen != current {
			return nil, ErrSuperseded
		}
		return res.stages, res.err

	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
