// Package validation guards the file boundary: input size limits, and
// names of members read from or written to tar bundles.
package validation

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"
)

// Resource limits (CWE-400).
const (
	// MaxInputSize bounds a decoded input, after decompression (64 MB).
	MaxInputSize = 64 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed member path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrTooLarge         = errors.New("input exceeds size limit")
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ReadAllLimited reads r to the end, failing with ErrTooLarge once more
// than limit bytes arrive.
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// CheckSize fails with ErrTooLarge when n exceeds MaxInputSize.
func CheckSize(n int64) error {
	if n > MaxInputSize {
		return fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, n, MaxInputSize)
	}
	return nil
}

// ValidateMemberPath checks a slash-separated bundle member name: relative,
// no ".." components, no control characters.
func ValidateMemberPath(name string) error {
	if name == "" {
		return ErrEmptyPath
	}
	if len(name) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") {
		return fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	for _, part := range strings.Split(path.Clean(slashed), "/") {
		if part == ".." {
			return ErrPathTraversal
		}
	}
	return nil
}

// ValidateFilename checks a single path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// Leading hyphens read as command flags.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// SanitizeFilename turns a series code into a portable file stem. Runs of
// characters outside [A-Za-z0-9_-] become one underscore.
func SanitizeFilename(name string) (string, error) {
	var b strings.Builder
	under := false
	for _, r := range strings.TrimSpace(name) {
		ok := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-')
		if !ok {
			if !under {
				b.WriteByte('_')
				under = true
			}
			continue
		}
		b.WriteRune(r)
		under = false
	}
	out := strings.Trim(b.String(), "_-")
	if len(out) > MaxFilenameLength {
		out = out[:MaxFilenameLength]
	}
	if err := ValidateFilename(out); err != nil {
		return "", err
	}
	return out, nil
}
