package base

import (
	"bytes"
	"errors"
	"testing"

	"github.com/FocuswithJustin/ringconv/core/diag"
	rcerrors "github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
)

// stubCodec recognizes inputs starting with its magic prefix.
type stubCodec struct {
	name  string
	ext   string
	magic string
	fail  bool
}

func (c *stubCodec) Name() string         { return c.name }
func (c *stubCodec) Extensions() []string { return []string{c.ext} }
func (c *stubCodec) Sniff(data []byte) bool {
	return bytes.HasPrefix(data, []byte(c.magic))
}

func (c *stubCodec) Decode(data []byte, _ series.Defaults, diags *diag.List) ([]*series.Series, error) {
	if c.fail {
		return nil, diags.Fatal(1, "broken")
	}
	diags.Warn("decoded by " + c.name)
	s := series.New(string(data))
	return []*series.Series{s}, nil
}

func (c *stubCodec) Encode(ss []*series.Series, _ series.Defaults, _ *diag.List) ([]byte, error) {
	return []byte(c.magic + ss[0].ID), nil
}

func registerStubs(t *testing.T) {
	t.Helper()
	Register(&stubCodec{name: "alpha", ext: ".alp", magic: "A:"})
	Register(&stubCodec{name: "beta", ext: ".bet", magic: "B:"})
	Register(&stubCodec{name: "broken", ext: ".brk", magic: "X:", fail: true})
}

func TestLookup(t *testing.T) {
	registerStubs(t)

	c, err := Lookup("ALPHA")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if c.Name() != "alpha" {
		t.Errorf("Name() = %q", c.Name())
	}

	_, err = Lookup("heidelberg")
	if !errors.Is(err, rcerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestForPath(t *testing.T) {
	registerStubs(t)

	c, err := ForPath("/data/site.BET")
	if err != nil {
		t.Fatalf("ForPath failed: %v", err)
	}
	if c.Name() != "beta" {
		t.Errorf("Name() = %q, want beta", c.Name())
	}
	if _, err := ForPath("notes.txt"); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestCodecsSorted(t *testing.T) {
	registerStubs(t)
	all := Codecs()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name() > all[i].Name() {
			t.Errorf("codecs not sorted: %s before %s", all[i-1].Name(), all[i].Name())
		}
	}
}

func TestDetect(t *testing.T) {
	registerStubs(t)

	tests := []struct {
		name     string
		path     string
		data     string
		detected bool
		format   string
	}{
		{name: "content and extension", path: "a.alp", data: "A:1", detected: true, format: "alpha"},
		{name: "content only", path: "a.dat", data: "B:1", detected: true, format: "beta"},
		{name: "extension only", path: "a.alp", data: "???", detected: true, format: "alpha"},
		{name: "nothing", path: "a.dat", data: "???", detected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Detect(tt.path, []byte(tt.data))
			if res.Detected != tt.detected {
				t.Fatalf("Detected = %v, want %v (%s)", res.Detected, tt.detected, res.Reason)
			}
			if res.Format != tt.format {
				t.Errorf("Format = %q, want %q", res.Format, tt.format)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	registerStubs(t)
	from, _ := Lookup("alpha")
	to, _ := Lookup("beta")

	diags := diag.New("convert")
	out, ss, err := Convert(from, to, []byte("A:x"), series.Defaults{}, diags)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if string(out) != "B:A:x" {
		t.Errorf("output = %q", out)
	}
	if len(ss) != 1 || diags.Len() != 1 {
		t.Errorf("series=%d diags=%d", len(ss), diags.Len())
	}

	broken, _ := Lookup("broken")
	_, _, err = Convert(broken, to, []byte("X:"), series.Defaults{}, diag.New("convert"))
	if !errors.Is(err, rcerrors.ErrInvalidInput) {
		t.Errorf("expected decode failure, got %v", err)
	}
}
