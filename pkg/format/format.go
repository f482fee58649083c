// Package format defines the decoded intermediate records produced by file
// format adapters and the contract every adapter implements.
//
// A Record is created by exactly one Adapter.Read, handed to one importer
// and treated as immutable once Read returns.
package format

import (
	"errors"

	"github.com/chazu/vizpipe/pkg/buffer"
)

// Errors shared by every adapter.
var (
	ErrIO                    = errors.New("i/o error")
	ErrFormatMismatch        = errors.New("format mismatch")
	ErrTruncatedPayload      = buffer.ErrTruncatedPayload
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrUnsupportedRecordKind = errors.New("unsupported record kind")
)

// Adapter reads and writes one file format.
type Adapter interface {
	Name() string
	Read(path string) (Record, error)
	Write(path string, rec Record) error
}

// Prober is implemented by adapters that share an ambiguous extension and
// can recognize their files by a cheap content probe.
type Prober interface {
	Check(path string) bool
}

// RecordKind enumerates the record variants.
type RecordKind int

const (
	RecordField RecordKind = iota
	RecordMesh
	RecordImage
	RecordGeometry
)

func (k RecordKind) String() string {
	switch k {
	case RecordField:
		return "field"
	case RecordMesh:
		return "mesh"
	case RecordImage:
		return "image"
	case RecordGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// Record is a decoded file awaiting import.
type Record interface {
	RecordKind() RecordKind
}

// Compile-time variant checks.
var (
	_ Record = (*FieldRecord)(nil)
	_ Record = (*MeshRecord)(nil)
	_ Record = (*ImageRecord)(nil)
	_ Record = (*GeometryRecord)(nil)
)
