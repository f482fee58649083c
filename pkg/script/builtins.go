package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/vizpipe/pkg/filter"
	"github.com/chazu/vizpipe/pkg/pipeline"
	"github.com/chazu/vizpipe/pkg/render"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites pipeline source for zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword".
//  2. Identifiers written in kebab-case become snake_case, since zygomys
//     reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals and comment text are copied untouched, so a ":" or "-"
// inside "..." or after ; survives as written.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Double-quoted string: copy through the closing quote, honouring
		// backslash escapes.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Backtick string: zygomys raw literal, no escapes.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Lisp ; comment. zygomys only understands //.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Collapse ;; and ;;; headers into a single //.
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// := is zygomys assignment, not a keyword.
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// :level, :x, :component ... a keyword starts with a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters is part of a name, not a
		// minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// Character classes used by preprocessSource. Only ASCII is recognized;
// scripts name stages and keywords in plain ASCII.

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isKWChar also accepts '-' so :some-key stays one keyword.
func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Stage values
// ---------------------------------------------------------------------------

// sexpStage carries a compiled stage back into the interpreter so scripts
// can bind it with def.
type sexpStage struct {
	stage pipeline.Stage
}

func (s *sexpStage) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(stage %s)", pipeline.StageName(s.stage))
}

// Type is nil: stages are opaque to the interpreter.
func (s *sexpStage) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// kwPrefix marks strings produced from :keyword by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s came from a :keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs is a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args into keyword pairs and positional values. Keywords
// and positionals may be interleaved: (isosurface 100 :cells 32) is legal.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		// A trailing keyword with no value reads as nil.
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float returns keyword key as a number, or def when absent.
func (a kwArgs) float(key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// int is float restricted to whole numbers; 32.5 cells is an error rather
// than a silent truncation.
func (a kwArgs) int(key string, def int) (int, error) {
	f, err := a.float(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%s: expected integer, got %g", key, f)
	}
	return int(f), nil
}

// xyz reads a vector given as three positional numbers or as :x :y :z
// keywords defaulting to def. With uniform set, a single positional number
// fills all three axes.
func (a kwArgs) xyz(def float64, uniform bool) (x, y, z float64, err error) {
	switch n := len(a.positional); {
	case n == 0:
		if x, err = a.float("x", def); err != nil {
			return
		}
		if y, err = a.float("y", def); err != nil {
			return
		}
		z, err = a.float("z", def)
		return
	case n == 1 && uniform:
		x, err = toFloat64(a.positional[0])
		return x, x, x, err
	case n == 3:
		var v [3]float64
		for i, s := range a.positional {
			if v[i], err = toFloat64(s); err != nil {
				return 0, 0, 0, fmt.Errorf("%c: %w", "xyz"[i], err)
			}
		}
		return v[0], v[1], v[2], nil
	default:
		return 0, 0, 0, fmt.Errorf("expected 3 numbers or :x :y :z, got %d positional arguments", n)
	}
}

// toFloat64 accepts both zygomys integer and float literals.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts :name or "name".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// stageFunc builds one stage from its arguments.
type stageFunc func(pa kwArgs) (pipeline.Stage, error)

// registerBuiltins installs the stage constructors. Each call appends its
// stage to *out in evaluation order.
func registerBuiltins(env *zygo.Zlisp, o options, out *[]pipeline.Stage) {
	// add wraps fn as a zygomys function. Errors are prefixed with the
	// builtin name, and the stage is returned to the script as a value so
	// (def s (outline)) works. Note that the stage is appended on the call,
	// not on later use of s.
	add := func(name string, fn stageFunc) {
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			st, err := fn(parseArgs(args))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			*out = append(*out, st)
			return &sexpStage{stage: st}, nil
		})
	}

	// (translate 1 0 0) or (translate :z 5)
	add("translate", func(pa kwArgs) (pipeline.Stage, error) {
		x, y, z, err := pa.xyz(0, false)
		if err != nil {
			return nil, err
		}
		return filter.Translate(x, y, z), nil
	})

	// (rotate :z 90), angles in degrees
	add("rotate", func(pa kwArgs) (pipeline.Stage, error) {
		x, y, z, err := pa.xyz(0, false)
		if err != nil {
			return nil, err
		}
		return filter.Rotate(x, y, z), nil
	})

	// (scale 2) or (scale 1 1 0.5)
	add("scale", func(pa kwArgs) (pipeline.Stage, error) {
		x, y, z, err := pa.xyz(1, true)
		if err != nil {
			return nil, err
		}
		if x == 0 || y == 0 || z == 0 {
			return nil, fmt.Errorf("zero scale factor")
		}
		return filter.Scale(x, y, z), nil
	})

	// (threshold 10) or (threshold :level 10)
	add("threshold", func(pa kwArgs) (pipeline.Stage, error) {
		level, err := pa.float("level", 0)
		if err != nil {
			return nil, err
		}
		if len(pa.positional) > 0 {
			if level, err = toFloat64(pa.positional[0]); err != nil {
				return nil, fmt.Errorf("level: %w", err)
			}
		}
		return &filter.Threshold{Level: level}, nil
	})

	// (isosurface :level 100 :cells 48)
	add("isosurface", func(pa kwArgs) (pipeline.Stage, error) {
		level, err := pa.float("level", o.isoLevel)
		if err != nil {
			return nil, err
		}
		cells, err := pa.int("cells", o.isoCells)
		if err != nil {
			return nil, err
		}
		if cells <= 0 {
			return nil, fmt.Errorf("cells: must be positive, got %d", cells)
		}
		return &filter.IsoSurface{Level: level, Cells: cells}, nil
	})

	// (outline), takes no arguments
	add("outline", func(pa kwArgs) (pipeline.Stage, error) {
		return filter.Outline{}, nil
	})

	// (points :component 0)
	add("points", func(pa kwArgs) (pipeline.Stage, error) {
		c, err := pa.int("component", 0)
		if err != nil {
			return nil, err
		}
		if c < 0 {
			return nil, fmt.Errorf("component: must not be negative, got %d", c)
		}
		return &filter.Points{Component: c}, nil
	})

	// (render :polygon). Must be the last stage; Connect enforces that.
	add("render", func(pa kwArgs) (pipeline.Stage, error) {
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("expected a renderer name")
		}
		name, err := toKeywordString(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return render.ByName(name)
	})
}
