package avs

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/vizpipe/pkg/buffer"
	"github.com/chazu/vizpipe/pkg/format"
)

const (
	// Magic is the required prefix of the first header line.
	Magic = "# AVS"

	// MaxLineLength bounds a single header line.
	MaxLineLength = 1024

	// separator marks the end of the header; two in a row start the payload.
	separator = '\f'

	// comment starts a comment line.
	comment = '#'
)

// scanHeader is the line-oriented pass. It reads logical lines until two
// consecutive separator bytes or EOF and accumulates recognized tags. Lines
// that do not have the tag = value shape are skipped.
func scanHeader(r io.Reader) (format.Header, error) {
	h := format.Header{Order: binary.LittleEndian}
	br := bufio.NewReaderSize(r, MaxLineLength)

	var bitsSet, signedSet bool
	for lineNo := 1; ; lineNo++ {
		line, done, err := readLine(br)
		if err != nil {
			return h, err
		}
		if lineNo == 1 && !strings.HasPrefix(line, Magic) {
			return h, fmt.Errorf("%w: missing %q magic", format.ErrFormatMismatch, Magic)
		}

		isComment := strings.HasPrefix(strings.TrimSpace(line), string(comment))
		if isComment {
			line = strings.TrimLeft(strings.TrimSpace(line), string(comment))
		}
		tag, values, ok := splitTag(tokenize(line))
		if ok {
			if isComment {
				switch tag {
				case "bits":
					if n, err := strconv.Atoi(values[0]); err == nil {
						h.Bits = n
						bitsSet = true
					}
				case "signed":
					if b, ok := parseBool(values[0]); ok {
						h.Signed = b
						signedSet = true
					}
				}
			} else {
				applyTag(&h, tag, values)
			}
		}
		if done {
			break
		}
	}

	if h.VecLen == 0 {
		h.VecLen = 1
	}
	if !bitsSet {
		h.Bits = h.Data.Bits()
	}
	if !signedSet {
		h.Signed = h.Data.Signed()
	}
	return h, nil
}

// readLine returns the next line without its terminator. done is true when
// the line ended at a separator pair or EOF. A lone separator byte is kept
// as part of the line.
func readLine(br *bufio.Reader) (line string, done bool, err error) {
	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return sb.String(), true, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("%w: %w", format.ErrIO, err)
		}
		switch c {
		case '\n':
			return strings.TrimSuffix(sb.String(), "\r"), false, nil
		case separator:
			if next, err := br.Peek(1); err == nil && next[0] == separator {
				return sb.String(), true, nil
			}
		}
		if sb.Len() >= MaxLineLength {
			return "", false, fmt.Errorf("%w: header line exceeds %d bytes", format.ErrFormatMismatch, MaxLineLength)
		}
		sb.WriteByte(c)
	}
}

// tokenize splits a line on whitespace and commas. '=' is always its own
// token and double quotes are dropped.
func tokenize(line string) []string {
	line = strings.ReplaceAll(line, "=", " = ")
	line = strings.ReplaceAll(line, "\"", " ")
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '\r'
	})
}

// splitTag checks the tag '=' value [value...] shape.
func splitTag(tokens []string) (string, []string, bool) {
	if len(tokens) < 3 || tokens[1] != "=" {
		return "", nil, false
	}
	return strings.ToLower(tokens[0]), tokens[2:], true
}

func applyTag(h *format.Header, tag string, values []string) {
	atoi := func() int {
		n, _ := strconv.Atoi(values[0])
		return n
	}
	switch tag {
	case "veclen":
		h.VecLen = atoi()
	case "nspace":
		h.NSpace = atoi()
	case "ndim":
		h.NDim = atoi()
	case "dim1":
		h.Dims[0] = atoi()
	case "dim2":
		h.Dims[1] = atoi()
	case "dim3":
		h.Dims[2] = atoi()
	case "field":
		h.Field = strings.ToLower(values[0])
	case "data":
		h.Data, h.Order = buffer.ParseElementType(values[0])
	case "label":
		h.Labels = append([]string(nil), values...)
	case "min_ext":
		if v, ok := parseTriple(values); ok {
			h.MinExt = v
			h.HasExtent = true
		}
	case "max_ext":
		if v, ok := parseTriple(values); ok {
			h.MaxExt = v
			h.HasExtent = true
		}
	}
}

func parseTriple(values []string) ([3]float64, bool) {
	var out [3]float64
	if len(values) == 0 {
		return out, false
	}
	for i := 0; i < len(values) && i < 3; i++ {
		f, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return out, false
		}
		out[i] = f
	}
	return out, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

// scanChunk is the read size for the separator pass.
const scanChunk = 4096

// findPayload is the byte-oriented pass. It scans from the start of r for
// two consecutive separator bytes and returns the offset just past them.
func findPayload(r io.ReaderAt, size int64) (int64, error) {
	buf := make([]byte, scanChunk)
	prev := false
	for off := int64(0); off < size; off += scanChunk {
		n, err := r.ReadAt(buf, off)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: %w", format.ErrIO, err)
		}
		for i := 0; i < n; i++ {
			cur := buf[i] == separator
			if prev && cur {
				return off + int64(i) + 1, nil
			}
			prev = cur
		}
		if n == 0 {
			break
		}
	}
	return 0, fmt.Errorf("%w: no binary data separator", format.ErrFormatMismatch)
}
