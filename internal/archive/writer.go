package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ringconv/internal/validation"
)

// bundleTime is stamped on every entry so identical inputs give identical
// bundles.
var bundleTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Build returns a tar stream holding entries under baseDir, compressed
// according to the extension of name (.tar, .tar.gz/.tgz or .tar.xz).
func Build(name, baseDir string, entries []Entry) ([]byte, error) {
	if !IsBundle(name) {
		return nil, fmt.Errorf("unsupported archive format: %s", name)
	}

	var buf bytes.Buffer
	var sink io.Writer = &buf
	var closer io.Closer

	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"):
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		sink, closer = xw, xw
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gw := gzip.NewWriter(&buf)
		sink, closer = gw, gw
	}

	tw := tar.NewWriter(sink)
	for _, e := range entries {
		if err := validation.ValidateMemberPath(e.Name); err != nil {
			return nil, fmt.Errorf("member %q: %w", e.Name, err)
		}
		header := &tar.Header{
			Name:     path.Join(baseDir, e.Name),
			Mode:     0644,
			Size:     int64(len(e.Data)),
			ModTime:  bundleTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write header %s: %w", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			return nil, fmt.Errorf("close compressor: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// BaseName strips the directory and archive extensions from path.
func BaseName(p string) string {
	name := path.Base(strings.ReplaceAll(p, "\\", "/"))
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar.gz", ".tar.xz", ".tgz", ".tar"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
