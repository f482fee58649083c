// Package raster reads and writes raster images as RGBA records.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/source"
)

// Compile-time interface checks.
var (
	_ format.Adapter = (*Adapter)(nil)
	_ format.Prober  = (*Adapter)(nil)
)

// sniffLen is the number of leading bytes filetype needs to match.
const sniffLen = 262

// Adapter implements format.Adapter for png, jpeg, gif, bmp and tiff.
type Adapter struct{}

// New returns a raster adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "raster"
}

// sniff reads the leading bytes of f.
func sniff(f *source.File) []byte {
	n := int64(sniffLen)
	if f.Size() < n {
		n = f.Size()
	}
	head := make([]byte, n)
	m, _ := f.ReadAt(head, 0)
	return head[:m]
}

// Check reports whether path holds a recognized image signature.
func (a *Adapter) Check(path string) bool {
	f, err := source.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return filetype.IsImage(sniff(f))
}

// Read decodes the image at path.
func (a *Adapter) Read(path string) (format.Record, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: %w: %w", format.ErrIO, err)
	}
	defer f.Close()

	head := sniff(f)
	if !filetype.IsImage(head) {
		return nil, fmt.Errorf("raster: %s: %w: no image signature", path, format.ErrFormatMismatch)
	}
	kind, _ := filetype.Match(head)

	img, name, err := image.Decode(f.Reader())
	if err != nil {
		return nil, fmt.Errorf("raster: %s: %w: %s: %v", path, format.ErrFormatMismatch, kind.Extension, err)
	}

	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	stem, _ := source.Trim(filepath.Base(path))
	return &format.ImageRecord{
		Name:   strings.TrimSuffix(stem, filepath.Ext(stem)),
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
		Format: name,
	}, nil
}

// Write encodes a *format.ImageRecord; the extension of path selects the
// encoder.
func (a *Adapter) Write(path string, rec format.Record) error {
	ir, ok := rec.(*format.ImageRecord)
	if !ok {
		return fmt.Errorf("raster: %w: %s", format.ErrUnsupportedRecordKind, rec.RecordKind())
	}
	if len(ir.Pixels) != ir.Width*ir.Height*4 {
		return fmt.Errorf("raster: pixel buffer has %d bytes, want %d", len(ir.Pixels), ir.Width*ir.Height*4)
	}
	img := &image.RGBA{
		Pix:    ir.Pixels,
		Stride: ir.Width * 4,
		Rect:   image.Rect(0, 0, ir.Width, ir.Height),
	}

	stem, _ := source.Trim(path)
	encode, err := encoder(strings.ToLower(filepath.Ext(stem)))
	if err != nil {
		return fmt.Errorf("raster: %s: %w", path, err)
	}

	f, err := source.Create(path)
	if err != nil {
		return fmt.Errorf("raster: %w: %w", format.ErrIO, err)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("raster: %w: %w", format.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("raster: %w: %w", format.ErrIO, err)
	}
	return nil
}

func encoder(ext string) (func(io.Writer, image.Image) error, error) {
	switch ext {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
		}, nil
	case ".gif":
		return func(w io.Writer, m image.Image) error {
			return gif.Encode(w, m, nil)
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("%w: image extension %q", format.ErrUnsupportedFormat, ext)
	}
}
