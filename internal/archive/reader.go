// Package archive reads and writes tar bundles of series files. Bundles may
// be gzip or xz compressed.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ringconv/internal/validation"
)

// Entry is one regular file inside a bundle.
type Entry struct {
	Name string
	Data []byte
}

// IsBundle reports whether path names a tar bundle.
func IsBundle(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.xz"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader opens a bundle, choosing the decompressor from the extension.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	case strings.HasSuffix(lower, ".tar"):
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported archive format: %s", path)
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var first error
	if r.decompressor != nil {
		first = r.decompressor.Close()
	}
	if err := r.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Visitor is called for each regular file. Return true to stop iteration.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks the regular files of the archive.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// ReadEntries returns every regular file whose name satisfies match, in
// archive order. A nil match accepts everything.
func ReadEntries(path string, match func(name string) bool) ([]Entry, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []Entry
	err = r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
		if err := validation.ValidateMemberPath(header.Name); err != nil {
			return true, fmt.Errorf("member %q: %w", header.Name, err)
		}
		if match != nil && !match(header.Name) {
			return false, nil
		}
		data, err := validation.ReadAllLimited(content, validation.MaxInputSize)
		if err != nil {
			return true, fmt.Errorf("read %s: %w", header.Name, err)
		}
		entries = append(entries, Entry{Name: header.Name, Data: data})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
