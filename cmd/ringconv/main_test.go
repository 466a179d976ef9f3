package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"

	rcerrors "github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/internal/archive"
	"github.com/FocuswithJustin/ringconv/internal/config"
	"github.com/FocuswithJustin/ringconv/internal/fileutil"
)

func rwlLine(code string, year int, vs ...int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s%4d", code, year)
	for _, v := range vs {
		fmt.Fprintf(&b, "%6d", v)
	}
	return b.String() + "\n"
}

var twoSeries = rwlLine("ABC01", 1990, 12, 15, 18, 9, 0, 22, 31, 14, 19, 20) +
	rwlLine("ABC01", 2000, 999) +
	rwlLine("ABC02", 1995, 40, 41, 42, 43, 44) +
	rwlLine("ABC02", 2000, 45, 999)

type testEnv struct {
	app *App
	out *bytes.Buffer
	err *bytes.Buffer
	dir string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Catalog.Path = filepath.Join(dir, "catalog.db")
	cfg.Store.Path = filepath.Join(dir, "store")

	env := &testEnv{out: &bytes.Buffer{}, err: &bytes.Buffer{}, dir: dir}
	env.app = &App{Config: cfg, Out: env.out, Err: env.err, Ctx: context.Background()}
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func (e *testEnv) infoJSON(t *testing.T, path string) []summary {
	t.Helper()
	e.out.Reset()
	if err := (&InfoCmd{Path: path, Encoding: "json"}).Run(e.app); err != nil {
		t.Fatalf("info %s failed: %v", path, err)
	}
	var out []summary
	if err := json.Unmarshal(e.out.Bytes(), &out); err != nil {
		t.Fatalf("info output is not JSON: %v", err)
	}
	return out
}

func TestDetectCmd(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)

	if err := (&DetectCmd{Path: path}).Run(env.app); err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !strings.Contains(env.out.String(), ": tucson (") {
		t.Errorf("unexpected output: %s", env.out)
	}

	env.out.Reset()
	unknown := env.write(t, "notes.txt", "nothing to see\n")
	if err := (&DetectCmd{Path: unknown}).Run(env.app); err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !strings.Contains(env.out.String(), "unknown") {
		t.Errorf("unexpected output: %s", env.out)
	}
}

func TestInfoCmd(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)

	got := env.infoJSON(t, path)
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2", len(got))
	}
	first := got[0]
	if first.ID != "ABC01" || first.Rings != 10 || first.Range != "1990AD - 1999AD" {
		t.Errorf("unexpected summary %+v", first)
	}
	if first.Astronomical != "1990..1999" || first.BeforePresent != "-40..-49 BP" {
		t.Errorf("alternate numbering = %q, %q", first.Astronomical, first.BeforePresent)
	}
	if got[1].Rings != 6 {
		t.Errorf("second series has %d rings, want 6", got[1].Rings)
	}

	env.out.Reset()
	if err := (&InfoCmd{Path: path, Encoding: "text", Values: true}).Run(env.app); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if !strings.Contains(env.out.String(), "Values:      12 15 18 9 0 22 31 14 19 20") {
		t.Errorf("text output missing values:\n%s", env.out)
	}
}

func TestInfoMsgpack(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)

	if err := (&InfoCmd{Path: path, Encoding: "msgpack"}).Run(env.app); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	var got []map[string]any
	if err := msgpack.Unmarshal(env.out.Bytes(), &got); err != nil {
		t.Fatalf("output is not msgpack: %v", err)
	}
	if len(got) != 2 || got[0]["id"] != "ABC01" || got[1]["format"] != "tucson" {
		t.Errorf("unexpected msgpack content: %v", got)
	}
}

func TestConvertToBundle(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)
	want := env.infoJSON(t, path)

	out := filepath.Join(env.dir, "site.tar.gz")
	if err := (&ConvertCmd{Path: path, To: "catras", Out: out}).Run(env.app); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	entries, err := archive.ReadEntries(out, nil)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "site/ABC01.cat" {
		t.Fatalf("unexpected bundle members: %d", len(entries))
	}

	got := env.infoJSON(t, out)
	if len(got) != len(want) {
		t.Fatalf("bundle decodes to %d series, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Format != "catras" {
			t.Errorf("member %d decoded as %s", i, got[i].Format)
		}
		if got[i].Fingerprint != want[i].Fingerprint {
			t.Errorf("series %s changed in conversion", want[i].ID)
		}
	}
}

func TestConvertManyToCatrasFails(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)
	out := filepath.Join(env.dir, "site.cat")

	err := (&ConvertCmd{Path: path, To: "catras", Out: out}).Run(env.app)
	if !errors.Is(err, rcerrors.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("failed conversion left an output file")
	}
	if !strings.Contains(env.err.String(), "fatal") {
		t.Errorf("fatal diagnostic not reported: %s", env.err)
	}
}

func TestConvertXZAndStore(t *testing.T) {
	env := newEnv(t)
	env.app.Config.Store.Compress = true
	single := rwlLine("ABC01", 1990, 12, 15, 18) + rwlLine("ABC01", 1993, 999)
	path := env.write(t, "one.rwl", single)
	out := filepath.Join(env.dir, "one.cat.xz")

	if err := (&ConvertCmd{Path: path, To: "catras", Out: out, XZ: true, Store: true}).Run(env.app); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if fileutil.Sniff(raw) != fileutil.XZ {
		t.Error("output is not xz compressed")
	}

	var blake string
	for _, line := range strings.Split(env.out.String(), "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "blake3: "); ok {
			blake = rest
		}
	}
	if blake == "" {
		t.Fatalf("no store hash printed:\n%s", env.out)
	}

	restored := filepath.Join(env.dir, "restored.cat.xz")
	if err := (&StoreGetCmd{Hash: blake, Out: restored}).Run(env.app); err != nil {
		t.Fatalf("store get failed: %v", err)
	}
	back, err := os.ReadFile(restored)
	if err != nil || !bytes.Equal(back, raw) {
		t.Errorf("restored output differs: %v", err)
	}

	got := env.infoJSON(t, out)
	if len(got) != 1 || got[0].Format != "catras" || got[0].Rings != 3 {
		t.Errorf("compressed output decodes to %+v", got)
	}
}

func TestVerifyCmd(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)

	for _, via := range []string{"", "catras"} {
		env.out.Reset()
		if err := (&VerifyCmd{Path: path, Via: via}).Run(env.app); err != nil {
			t.Fatalf("verify via %q failed: %v\n%s", via, err, env.out)
		}
		if n := strings.Count(env.out.String(), ": ok"); n != 2 {
			t.Errorf("via %q: %d ok lines\n%s", via, n, env.out)
		}
	}

	if err := (&VerifyCmd{Path: path, Via: "nope"}).Run(env.app); !errors.Is(err, rcerrors.ErrNotFound) {
		t.Errorf("expected unknown codec error, got %v", err)
	}
}

func TestIndexAndCatalog(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)

	if err := (&IndexCmd{Paths: []string{path}}).Run(env.app); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if !strings.Contains(env.out.String(), "Indexed 2 series") {
		t.Errorf("unexpected output: %s", env.out)
	}

	list := func(covers string) []map[string]any {
		t.Helper()
		env.out.Reset()
		if err := (&CatalogListCmd{Covers: covers, Encoding: "json"}).Run(env.app); err != nil {
			t.Fatalf("catalog list failed: %v", err)
		}
		var got []map[string]any
		if err := json.Unmarshal(env.out.Bytes(), &got); err != nil {
			t.Fatalf("list output is not JSON: %v\n%s", err, env.out)
		}
		return got
	}

	if got := list(""); len(got) != 2 {
		t.Errorf("catalog holds %d series, want 2", len(got))
	}
	if got := list("1996"); len(got) != 2 {
		t.Errorf("1996 matched %d series, want 2", len(got))
	}
	if got := list("1991"); len(got) != 1 || got[0]["id"] != "ABC01" {
		t.Errorf("1991 matched %v", got)
	}
	if err := (&CatalogListCmd{Covers: "year zero"}).Run(env.app); err == nil {
		t.Error("expected error for unparsable year")
	}

	env.out.Reset()
	if err := (&CatalogShowCmd{Path: path, Position: 1, To: "tucson"}).Run(env.app); err != nil {
		t.Fatalf("catalog show failed: %v", err)
	}
	if out := env.out.String(); !strings.Contains(out, "ABC02") || strings.Contains(out, "ABC01") {
		t.Errorf("catalog show printed:\n%s", out)
	}
	if err := (&CatalogShowCmd{Path: path, Position: 5, To: "tucson"}).Run(env.app); !errors.Is(err, rcerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing position, got %v", err)
	}

	if err := (&CatalogRemoveCmd{Path: path}).Run(env.app); err != nil {
		t.Fatalf("catalog remove failed: %v", err)
	}
	if got := list(""); len(got) != 0 {
		t.Errorf("catalog still holds %d series", len(got))
	}
}

func TestCatalogListWithoutCatalog(t *testing.T) {
	env := newEnv(t)
	err := (&CatalogListCmd{Encoding: "text"}).Run(env.app)
	if !errors.Is(err, rcerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, statErr := os.Stat(env.app.Config.Catalog.Path); !os.IsNotExist(statErr) {
		t.Error("catalog list created a database")
	}
}

func TestMemberNames(t *testing.T) {
	ss := []*series.Series{series.New("ABC 01"), series.New("ABC 01"), series.New("///")}
	got := memberNames(ss, ".cat")
	want := []string{"ABC_01.cat", "ABC_01-2.cat", "series.cat"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestVersionCmd(t *testing.T) {
	env := newEnv(t)
	if err := (&VersionCmd{}).Run(env.app); err != nil {
		t.Fatal(err)
	}
	out := env.out.String()
	for _, want := range []string{"ringconv version " + version, "sqlite:", "format: catras .cat", "format: tucson .rwl"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCommandLine(t *testing.T) {
	env := newEnv(t)
	path := env.write(t, "site.rwl", twoSeries)

	var c cli
	parser, err := kong.New(&c, kong.Name("ringconv"))
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}
	kctx, err := parser.Parse([]string{"--no-color", "convert", path, "--to", "catras", "--out", "x.tar.xz", "--xz"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if kctx.Command() != "convert <path>" {
		t.Errorf("command = %q", kctx.Command())
	}
	if !c.NoColor || c.Convert.To != "catras" || !c.Convert.XZ {
		t.Errorf("flags not bound: %+v", c.Convert)
	}

	if _, err := parser.Parse([]string{"convert", path, "--to", "pdf", "--out", "x"}); err == nil {
		t.Error("expected enum error for unknown target format")
	}
}
