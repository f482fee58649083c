// Package source opens data files as random-access byte sources.
//
// Compressed inputs are inflated once into memory so readers that scan the
// same bytes more than once keep random access. The codec is chosen by file
// suffix; format detection runs on the name with that suffix trimmed.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression wrapped around a file.
type Codec int

const (
	None Codec = iota
	Gzip
	Zstd
	LZ4
)

func (c Codec) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

var suffixes = []struct {
	ext   string
	codec Codec
}{
	{".gz", Gzip},
	{".zst", Zstd},
	{".lz4", LZ4},
}

// Trim strips a recognized compression suffix and reports the codec.
func Trim(path string) (string, Codec) {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return path[:len(path)-len(s.ext)], s.codec
		}
	}
	return path, None
}

// File is an open byte source. It must be closed by the caller.
type File struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
	path   string
}

// Open opens path for random access, inflating compressed files.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	_, codec := Trim(path)
	if codec == None {
		st, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		return &File{r: f, size: st.Size(), closer: f, path: path}, nil
	}
	defer f.Close()

	data, err := inflate(f, codec)
	if err != nil {
		return nil, fmt.Errorf("source: inflate %s: %w", path, err)
	}
	return &File{r: bytes.NewReader(data), size: int64(len(data)), path: path}, nil
}

func inflate(r io.Reader, codec Codec) ([]byte, error) {
	switch codec {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case LZ4:
		return io.ReadAll(lz4.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.r.ReadAt(p, off)
}

// Size returns the number of readable bytes.
func (f *File) Size() int64 {
	return f.size
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Reader returns a sequential reader over the whole source.
func (f *File) Reader() io.Reader {
	return io.NewSectionReader(f.r, 0, f.size)
}

// Close releases the underlying handle. It is safe to call more than once.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// Create opens path for writing, compressing by suffix.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	_, codec := Trim(path)
	switch codec {
	case Gzip:
		return &stacked{w: gzip.NewWriter(f), f: f}, nil
	case Zstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stacked{w: zw, f: f}, nil
	case LZ4:
		return &stacked{w: lz4.NewWriter(f), f: f}, nil
	default:
		return f, nil
	}
}

// stacked closes the compressor before the file beneath it.
type stacked struct {
	w io.WriteCloser
	f *os.File
}

func (s *stacked) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *stacked) Close() error {
	werr := s.w.Close()
	ferr := s.f.Close()
	if werr != nil {
		return werr
	}
	return ferr
}
