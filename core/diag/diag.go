// Package diag collects the warnings and fatal failures produced while a
// codec decodes or encodes one file.
//
// A List is scoped to a single operation. Warnings never stop processing.
// A fatal entry is recorded and its error is returned to the caller, which
// abandons the current file.
package diag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FocuswithJustin/ringconv/core/errors"
)

// Kind classifies a diagnostic entry.
type Kind string

// Entry kinds.
const (
	Warning Kind = "warning"
	Fatal   Kind = "fatal"
)

// Entry is a single diagnostic.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Line is the 1-based input line for text formats, 0 when not tracked.
	Line int `json:"line,omitempty"`
}

// String renders the entry as "kind[ line N]: message".
func (e Entry) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", e.Kind, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// List is an ordered, append-only collection of diagnostics for one format.
// The zero value is usable; Format is then reported as "input".
type List struct {
	Format  string
	entries []Entry
}

// New returns an empty list labelled with the format it reports on.
func New(format string) *List {
	return &List{Format: format}
}

func (l *List) format() string {
	if l.Format == "" {
		return "input"
	}
	return l.Format
}

// Warn records a warning without a line.
func (l *List) Warn(message string) {
	l.entries = append(l.entries, Entry{Kind: Warning, Message: message})
}

// Warnf records a formatted warning without a line.
func (l *List) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// WarnLine records a formatted warning for a 1-based input line.
func (l *List) WarnLine(line int, format string, args ...any) {
	l.entries = append(l.entries, Entry{Kind: Warning, Message: fmt.Sprintf(format, args...), Line: line})
}

// Fatal records a fatal parse failure and returns it as an error. Pass
// line 0 for binary formats.
func (l *List) Fatal(line int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, Entry{Kind: Fatal, Message: msg, Line: line})
	return errors.NewParseAt(l.format(), line, msg)
}

// FatalEncode records a fatal encode failure for a series and returns it
// as an error wrapping cause (ErrOutOfRange when cause is nil).
func (l *List) FatalEncode(series string, cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, Entry{Kind: Fatal, Message: msg})
	err := errors.NewEncode(l.format(), series, msg)
	err.Err = cause
	return err
}

// Entries returns a copy of all entries in insertion order.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Warnings returns the warning entries only.
func (l *List) Warnings() []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Kind == Warning {
			out = append(out, e)
		}
	}
	return out
}

// HasFatal reports whether a fatal entry was recorded.
func (l *List) HasFatal() bool {
	for _, e := range l.entries {
		if e.Kind == Fatal {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Render returns one line per entry, dropping repeats of an identical
// (kind, message) pair. The first occurrence keeps its line number.
func (l *List) Render() []string {
	type key struct {
		kind Kind
		msg  string
	}
	seen := make(map[key]bool, len(l.entries))
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		k := key{e.Kind, e.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e.String())
	}
	return out
}

// Log writes every entry to logger: warnings at Warn, fatals at Error.
func (l *List) Log(logger *slog.Logger) {
	for _, e := range l.entries {
		level := slog.LevelWarn
		if e.Kind == Fatal {
			level = slog.LevelError
		}
		args := []any{"format", l.format(), "kind", string(e.Kind)}
		if e.Line > 0 {
			args = append(args, "line", e.Line)
		}
		logger.Log(context.Background(), level, e.Message, args...)
	}
}
