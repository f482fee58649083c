// Package buffer turns raw payload bytes into typed numeric arrays.
//
// A Buffer keeps the raw bytes exactly as they were read together with the
// element type, byte order and signedness needed to interpret them. Typed
// accessors widen unsigned integer types instead of reusing the raw signed
// representation, so a stored 0xFF byte is always read back as 255.
package buffer

import (
	"encoding/binary"
	"strings"
)

// ElementType enumerates the scalar types a payload can carry.
type ElementType int

const (
	Unknown    ElementType = iota
	Byte                   // 8-bit, unsigned by default
	SignedByte             // 8-bit, signed
	Short                  // 16-bit, signed by default
	Int                    // 32-bit, signed by default
	Float                  // 32-bit IEEE 754
	Double                 // 64-bit IEEE 754
)

func (t ElementType) String() string {
	switch t {
	case Byte:
		return "byte"
	case SignedByte:
		return "sbyte"
	case Short:
		return "short"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

// Width returns the element width in bytes, or 0 for Unknown.
func (t ElementType) Width() int {
	switch t {
	case Byte, SignedByte:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// Signed reports the default signedness of the type.
func (t ElementType) Signed() bool {
	return t != Byte && t != Unknown
}

// Bits returns the default bit width of the type.
func (t ElementType) Bits() int {
	return t.Width() * 8
}

// IsFloat reports whether the type is a floating point type.
func (t ElementType) IsFloat() bool {
	return t == Float || t == Double
}

// ParseElementType maps a type name to an ElementType and the byte order its
// payload uses. An "xdr_" prefix marks big-endian data. Unrecognized names
// return Unknown.
func ParseElementType(s string) (ElementType, binary.ByteOrder) {
	name := strings.ToLower(strings.TrimSpace(s))
	var order binary.ByteOrder = binary.LittleEndian
	if rest, ok := strings.CutPrefix(name, "xdr_"); ok {
		name = rest
		order = binary.BigEndian
	}
	switch name {
	case "byte", "char", "uchar", "uint8":
		return Byte, order
	case "sbyte", "int8":
		return SignedByte, order
	case "short", "int16":
		return Short, order
	case "int", "integer", "int32":
		return Int, order
	case "float", "float32":
		return Float, order
	case "double", "float64":
		return Double, order
	default:
		return Unknown, order
	}
}
