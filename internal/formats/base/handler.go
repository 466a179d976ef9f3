// Package base provides the codec capability interface shared by all
// measurement formats, a registry the format packages add themselves to,
// and detection helpers.
package base

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
)

// Codec converts between a file format and the neutral series model.
//
// Decode receives the whole input, already read by the caller. Encode
// returns the whole output. Both record warnings in diags; a fatal failure
// is returned as an error and no series or bytes accompany it. A codec
// value holds no state between calls.
type Codec interface {
	// Name is the short format identifier (e.g. "tucson").
	Name() string

	// Extensions lists the file extensions the format uses, with dots.
	Extensions() []string

	// Sniff reports whether data looks like this format.
	Sniff(data []byte) bool

	// Decode parses data into series.
	Decode(data []byte, defaults series.Defaults, diags *diag.List) ([]*series.Series, error)

	// Encode renders series in this format.
	Encode(ss []*series.Series, defaults series.Defaults, diags *diag.List) ([]byte, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Codec)
)

// Register adds a codec to the registry under its name.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(c.Name())] = c
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, errors.NewNotFound("codec", name)
	}
	return c, nil
}

// Codecs returns all registered codecs sorted by name.
func Codecs() []Codec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Codec, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ForPath returns the codec whose extensions match path.
func ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range Codecs() {
		for _, e := range c.Extensions() {
			if ext == strings.ToLower(e) {
				return c, nil
			}
		}
	}
	return nil, errors.NewNotFound("codec for extension", ext)
}

// DetectResult describes the outcome of format detection.
type DetectResult struct {
	Detected bool   `json:"detected"`
	Format   string `json:"format,omitempty"`
	Reason   string `json:"reason"`
}

// Detect identifies the format of data read from path. Content sniffing
// wins over the extension; the extension alone is accepted only when no
// codec recognizes the content.
func Detect(path string, data []byte) *DetectResult {
	for _, c := range Codecs() {
		if c.Sniff(data) && hasExtension(c, path) {
			return &DetectResult{
				Detected: true,
				Format:   c.Name(),
				Reason:   fmt.Sprintf("%s content and file extension", c.Name()),
			}
		}
	}
	for _, c := range Codecs() {
		if c.Sniff(data) {
			return &DetectResult{
				Detected: true,
				Format:   c.Name(),
				Reason:   fmt.Sprintf("%s content detected", c.Name()),
			}
		}
	}
	if c, err := ForPath(path); err == nil {
		return &DetectResult{
			Detected: true,
			Format:   c.Name(),
			Reason:   fmt.Sprintf("%s file extension detected", c.Name()),
		}
	}
	return &DetectResult{
		Detected: false,
		Reason:   "no registered format recognizes the input",
	}
}

func hasExtension(c Codec, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Extensions() {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Convert decodes data with from and encodes the result with to. Warnings
// from both steps are collected in diags.
func Convert(from, to Codec, data []byte, defaults series.Defaults, diags *diag.List) ([]byte, []*series.Series, error) {
	ss, err := from.Decode(data, defaults, diags)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", from.Name(), err)
	}
	out, err := to.Encode(ss, defaults, diags)
	if err != nil {
		return nil, ss, fmt.Errorf("encode %s: %w", to.Name(), err)
	}
	return out, ss, nil
}
