// Package fileutil reads series files with transparent decompression and
// writes outputs atomically.
package fileutil

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ringconv/internal/validation"
)

// Compression identifies a container wrapped around a series file.
type Compression int

const (
	None Compression = iota
	Gzip
	XZ
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// Sniff reports the compression of data from its magic bytes.
func Sniff(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return XZ
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	}
	return None
}

// StripExt removes a trailing .xz or .gz so the inner extension can be
// used for format detection.
func StripExt(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range []string{".xz", ".gz"} {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// Decompress returns the payload of data, unwrapping xz or gzip when the
// magic bytes say so. The payload is capped at validation.MaxInputSize.
func Decompress(data []byte) ([]byte, error) {
	var r io.Reader
	switch Sniff(data) {
	case XZ:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		r = xzr
	case Gzip:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	default:
		return data, nil
	}
	out, err := validation.ReadAllLimited(r, validation.MaxInputSize)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// ReadInput reads path and decompresses it if needed.
func ReadInput(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := validation.CheckSize(info.Size()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decompress(data)
}

// CompressXZ wraps data in an xz stream.
func CompressXZ(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz close: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteAtomic writes data to path through a temp file in the same
// directory, creating parent directories as needed.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ringconv-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename to %s: %w", path, err)
	}
	return nil
}
