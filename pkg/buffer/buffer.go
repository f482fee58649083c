package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrTruncatedPayload is returned when fewer bytes are available than
	// the declared element count requires.
	ErrTruncatedPayload = errors.New("truncated payload")

	// ErrInvalidShape is returned for negative or overflowing element counts.
	ErrInvalidShape = errors.New("invalid buffer shape")

	// ErrUnknownType is returned when decoding with an Unknown element type.
	ErrUnknownType = errors.New("unknown element type")
)

// Buffer is a typed view over a raw payload.
type Buffer struct {
	Type   ElementType
	Order  binary.ByteOrder
	Count  int
	Signed bool
	Bits   int
	Raw    []byte
}

// New allocates a zeroed buffer of count elements with the type's default
// signedness and bit width.
func New(t ElementType, order binary.ByteOrder, count int) *Buffer {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Buffer{
		Type:   t,
		Order:  order,
		Count:  count,
		Signed: t.Signed(),
		Bits:   t.Bits(),
		Raw:    make([]byte, count*t.Width()),
	}
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.Count
}

// Bytes returns the raw payload.
func (b *Buffer) Bytes() []byte {
	return b.Raw
}

// Int64 returns element i as an integer. Unsigned types are widened so the
// result is never negative; floating point values are truncated.
func (b *Buffer) Int64(i int) int64 {
	w := b.Type.Width()
	p := b.Raw[i*w : i*w+w]
	switch b.Type {
	case Byte, SignedByte:
		if b.Signed {
			return int64(int8(p[0]))
		}
		return int64(p[0])
	case Short:
		v := b.Order.Uint16(p)
		if b.Signed {
			return int64(int16(v))
		}
		return int64(v)
	case Int:
		v := b.Order.Uint32(p)
		if b.Signed {
			return int64(int32(v))
		}
		return int64(v)
	case Float:
		return int64(math.Float32frombits(b.Order.Uint32(p)))
	case Double:
		return int64(math.Float64frombits(b.Order.Uint64(p)))
	default:
		return 0
	}
}

// Float64 returns element i as a float64.
func (b *Buffer) Float64(i int) float64 {
	w := b.Type.Width()
	p := b.Raw[i*w : i*w+w]
	switch b.Type {
	case Float:
		return float64(math.Float32frombits(b.Order.Uint32(p)))
	case Double:
		return math.Float64frombits(b.Order.Uint64(p))
	default:
		return float64(b.Int64(i))
	}
}

// Ints returns every element as an int. A Byte buffer yields values in
// 0..255.
func (b *Buffer) Ints() []int {
	out := make([]int, b.Count)
	for i := range out {
		out[i] = int(b.Int64(i))
	}
	return out
}

// Float32s returns every element converted to float32.
func (b *Buffer) Float32s() []float32 {
	out := make([]float32, b.Count)
	for i := range out {
		out[i] = float32(b.Float64(i))
	}
	return out
}

// Float64s returns every element converted to float64.
func (b *Buffer) Float64s() []float64 {
	out := make([]float64, b.Count)
	for i := range out {
		out[i] = b.Float64(i)
	}
	return out
}

// Set stores v at element i, converting to the buffer's type.
func (b *Buffer) Set(i int, v float64) {
	w := b.Type.Width()
	p := b.Raw[i*w : i*w+w]
	switch b.Type {
	case Byte, SignedByte:
		if b.Signed {
			p[0] = byte(int8(clamp(v, math.MinInt8, math.MaxInt8)))
		} else {
			p[0] = byte(clamp(v, 0, math.MaxUint8))
		}
	case Short:
		if b.Signed {
			b.Order.PutUint16(p, uint16(int16(clamp(v, math.MinInt16, math.MaxInt16))))
		} else {
			b.Order.PutUint16(p, uint16(clamp(v, 0, math.MaxUint16)))
		}
	case Int:
		if b.Signed {
			b.Order.PutUint32(p, uint32(int32(clamp(v, math.MinInt32, math.MaxInt32))))
		} else {
			b.Order.PutUint32(p, uint32(clamp(v, 0, math.MaxUint32)))
		}
	case Float:
		b.Order.PutUint32(p, math.Float32bits(float32(v)))
	case Double:
		b.Order.PutUint64(p, math.Float64bits(v))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	c := *b
	c.Raw = append([]byte(nil), b.Raw...)
	return &c
}

// Native returns the buffer with its multi-byte elements in host byte
// order. When the payload order already matches the host the receiver is
// returned unchanged.
func (b *Buffer) Native() *Buffer {
	host := hostOrder()
	if b.Type.Width() < 2 || bigEndian(b.Order) == bigEndian(host) {
		return b
	}
	c := b.Clone()
	swap(c.Raw, c.Type.Width())
	c.Order = host
	return c
}

// swap reverses the bytes of each width-sized element in place.
func swap(raw []byte, width int) {
	for off := 0; off+width <= len(raw); off += width {
		for i, j := off, off+width-1; i < j; i, j = i+1, j-1 {
			raw[i], raw[j] = raw[j], raw[i]
		}
	}
}

func bigEndian(order binary.ByteOrder) bool {
	return order.Uint16([]byte{0x00, 0x01}) == 1
}

func hostOrder() binary.ByteOrder {
	if bigEndian(binary.NativeEndian) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Count computes x*y*z*veclen, rejecting negative factors and overflow.
func Count(dims [3]int, veclen int) (int, error) {
	n := 1
	for _, d := range append(dims[:], veclen) {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative factor %d", ErrInvalidShape, d)
		}
		if d != 0 && n > math.MaxInt32/d {
			return 0, fmt.Errorf("%w: element count overflows", ErrInvalidShape)
		}
		n *= d
	}
	return n, nil
}

// sizer is implemented by sources that know their length, such as
// bytes.Reader, io.SectionReader and source.File.
type sizer interface {
	Size() int64
}

// Decode reads count elements of type t starting at off with one bulk read
// into a pre-sized buffer. Fewer available bytes yield ErrTruncatedPayload;
// the buffer is never zero padded.
//
// When r reports its size, a payload that cannot fit is rejected before the
// buffer is allocated.
func Decode(r io.ReaderAt, off int64, count int, t ElementType, order binary.ByteOrder) (*Buffer, error) {
	if t.Width() == 0 {
		return nil, ErrUnknownType
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrInvalidShape, count)
	}
	want := int64(count) * int64(t.Width())
	if s, ok := r.(sizer); ok {
		if have := max(s.Size()-off, 0); want > have {
			return nil, fmt.Errorf("%w: want %d bytes at offset %d, have %d", ErrTruncatedPayload, want, off, have)
		}
	}
	b := New(t, order, count)
	if count == 0 {
		return b, nil
	}
	n, err := r.ReadAt(b.Raw, off)
	if n < len(b.Raw) {
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d bytes at offset %d, have %d", ErrTruncatedPayload, len(b.Raw), off, n)
		}
		return nil, err
	}
	return b, nil
}

// Encode packs values into a new buffer of type t.
func Encode(t ElementType, order binary.ByteOrder, values []float64) (*Buffer, error) {
	if t.Width() == 0 {
		return nil, ErrUnknownType
	}
	b := New(t, order, len(values))
	for i, v := range values {
		b.Set(i, v)
	}
	return b, nil
}
