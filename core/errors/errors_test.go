package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "codec", ID: "heidelberg"},
			wantMsg:  "codec not found: heidelberg",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "series"},
			wantMsg:  "series not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "site.rwl", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &ValidationError{Field: "year", Message: "there is no year zero"},
			wantMsg: "validation failed for year: there is no year zero",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "invalid format"},
			wantMsg: "validation failed: invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("expected %v to match ErrInvalidInput", tt.err)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/data/site.rwl", Err: baseErr},
			wantMsg: "failed to read /data/site.rwl: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "with path and line",
			err:     &ParseError{Format: "Tucson", Path: "site.rwl", Line: 12, Message: "bad decade"},
			wantMsg: "failed to parse Tucson at site.rwl:12: bad decade",
		},
		{
			name:    "with line only",
			err:     &ParseError{Format: "Tucson", Line: 3, Message: "bad decade"},
			wantMsg: "failed to parse Tucson at line 3: bad decade",
		},
		{
			name:    "with path only",
			err:     &ParseError{Format: "CATRAS", Path: "a.cat", Message: "short header"},
			wantMsg: "failed to parse CATRAS at a.cat: short header",
		},
		{
			name:    "bare",
			err:     &ParseError{Format: "CATRAS", Message: "short header"},
			wantMsg: "failed to parse CATRAS: short header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("expected %v to match ErrInvalidInput", tt.err)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("unexpected EOF")
		err := &ParseError{Format: "CATRAS", Message: "truncated", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestEncodeError(t *testing.T) {
	err := NewEncode("CATRAS", "ABC01", "value 40000 outside [-32511, 32767]")
	want := "failed to encode CATRAS series ABC01: value 40000 outside [-32511, 32767]"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrOutOfRange) {
		t.Error("expected EncodeError to match ErrOutOfRange")
	}

	noSeries := &EncodeError{Format: "Tucson", Message: "mixed series kinds", Err: ErrUnsupported}
	if got := noSeries.Error(); got != "failed to encode Tucson: mixed series kinds" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(noSeries, ErrUnsupported) {
		t.Error("expected wrapped ErrUnsupported")
	}
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name    string
		err     *UnsupportedError
		wantMsg string
	}{
		{
			name:    "with reason",
			err:     &UnsupportedError{Feature: "series count", Reason: "CATRAS holds one series per file"},
			wantMsg: "unsupported series count: CATRAS holds one series per file",
		},
		{
			name:    "without reason",
			err:     &UnsupportedError{Feature: "format"},
			wantMsg: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrUnsupported) {
				t.Errorf("expected %v to match ErrUnsupported", tt.err)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewNotFound", func(t *testing.T) {
		err := NewNotFound("codec", "tucson")
		if err.Resource != "codec" || err.ID != "tucson" {
			t.Errorf("NewNotFound() = %+v", err)
		}
	})

	t.Run("NewIO", func(t *testing.T) {
		baseErr := fmt.Errorf("disk full")
		err := NewIO("write", "/tmp/out.cat", baseErr)
		if err.Operation != "write" || err.Path != "/tmp/out.cat" || err.Err != baseErr {
			t.Errorf("NewIO() = %+v", err)
		}
	})

	t.Run("NewParseAt", func(t *testing.T) {
		err := NewParseAt("Tucson", 7, "arity mismatch")
		if err.Format != "Tucson" || err.Line != 7 || err.Message != "arity mismatch" {
			t.Errorf("NewParseAt() = %+v", err)
		}
	})
}

func TestAs(t *testing.T) {
	err := fmt.Errorf("decode: %w", NewParseAt("Tucson", 4, "bad marker"))
	var pe *ParseError
	if !As(err, &pe) {
		t.Fatal("As() failed to match ParseError")
	}
	if pe.Line != 4 {
		t.Errorf("Line = %d, want 4", pe.Line)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is() failed to match ErrInvalidInput")
	}
}
