package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/cas"
	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/core/sqlite"
	"github.com/FocuswithJustin/ringconv/internal/archive"
	"github.com/FocuswithJustin/ringconv/internal/catalog"
	"github.com/FocuswithJustin/ringconv/internal/fileutil"
	"github.com/FocuswithJustin/ringconv/internal/formats/base"
	"github.com/FocuswithJustin/ringconv/internal/formats/tucson"
)

// DetectCmd detects the format of a file.
type DetectCmd struct {
	Path string `arg:"" help:"Path to file to detect" type:"existingfile"`
}

func (c *DetectCmd) Run(app *App) error {
	data, err := fileutil.ReadInput(c.Path)
	if err != nil {
		return errors.NewIO("read", c.Path, err)
	}
	res := base.Detect(fileutil.StripExt(c.Path), data)
	if !res.Detected {
		warnColor.Fprintf(app.Out, "%s: unknown (%s)\n", c.Path, res.Reason)
		return nil
	}
	fmt.Fprintf(app.Out, "%s: ", c.Path)
	okColor.Fprintf(app.Out, "%s", res.Format)
	fmt.Fprintf(app.Out, " (%s)\n", res.Reason)
	return nil
}

// ConvertCmd converts a file to another format.
type ConvertCmd struct {
	Path     string `arg:"" help:"Input file or tar bundle" type:"existingfile"`
	To       string `required:"" help:"Target format" enum:"tucson,catras"`
	Out      string `required:"" help:"Output path; a .tar, .tar.gz or .tar.xz path writes one file per series" type:"path"`
	From     string `help:"Source format (detected when omitted)"`
	XZ       bool   `name:"xz" help:"Compress the output with xz"`
	Store    bool   `help:"Also keep the output in the content-addressed store"`
	StoreDir string `name:"store-dir" help:"Store directory (overrides the configuration)" type:"path"`
}

func (c *ConvertCmd) Run(app *App) error {
	inputs, err := app.decodePath(c.Path, c.From)
	if err != nil {
		return err
	}
	target, err := app.codec(c.To)
	if err != nil {
		return err
	}
	ss := allSeries(inputs)

	var data []byte
	if archive.IsBundle(c.Out) {
		entries, err := app.bundleEntries(target, ss)
		if err != nil {
			return err
		}
		data, err = archive.Build(c.Out, archive.BaseName(c.Out), entries)
		if err != nil {
			return err
		}
	} else {
		data, err = app.encode(target, c.Out, ss)
		if err != nil {
			return err
		}
		if c.XZ {
			if data, err = fileutil.CompressXZ(data); err != nil {
				return err
			}
		}
	}

	if err := fileutil.WriteAtomic(c.Out, data, 0644); err != nil {
		return errors.NewIO("write", c.Out, err)
	}
	fmt.Fprintf(app.Out, "Converted %d series to %s: %s\n", len(ss), target.Name(), c.Out)

	if c.Store || c.StoreDir != "" {
		dir := app.Config.Store.Path
		if c.StoreDir != "" {
			dir = c.StoreDir
		}
		store, err := cas.NewStore(dir, cas.WithCompression(app.Config.Store.Compress))
		if err != nil {
			return err
		}
		res, err := store.Put(data, target.Name())
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "  sha256: %s\n  blake3: %s\n", res.SHA256, res.BLAKE3)
	}
	return nil
}

// bundleEntries encodes each series into its own bundle member.
func (a *App) bundleEntries(target base.Codec, ss []*series.Series) ([]archive.Entry, error) {
	names := memberNames(ss, primaryExt(target))
	entries := make([]archive.Entry, 0, len(ss))
	for i, s := range ss {
		name := names[i]
		if target.Name() == tucson.Name && s.Kind.IsDerived() {
			name = strings.TrimSuffix(name, primaryExt(target)) + ".crn"
		}
		data, err := a.encode(target, name, []*series.Series{s})
		if err != nil {
			return nil, err
		}
		entries = append(entries, archive.Entry{Name: name, Data: data})
	}
	return entries, nil
}

// InfoCmd summarizes the series in a file.
type InfoCmd struct {
	Path     string `arg:"" help:"Input file or tar bundle" type:"existingfile"`
	From     string `help:"Source format (detected when omitted)"`
	Encoding string `help:"Output encoding" enum:"text,json,msgpack" default:"text"`
	Values   bool   `help:"Include ring values"`
}

func (c *InfoCmd) Run(app *App) error {
	inputs, err := app.decodePath(c.Path, c.From)
	if err != nil {
		return err
	}
	var out []summary
	for _, d := range inputs {
		for _, s := range d.Series {
			out = append(out, summarize(d, s, c.Values))
		}
	}
	return writeSummaries(app.Out, c.Encoding, out)
}

// VerifyCmd re-encodes every series and checks it decodes unchanged.
type VerifyCmd struct {
	Path string `arg:"" help:"Input file or tar bundle" type:"existingfile"`
	From string `help:"Source format (detected when omitted)"`
	Via  string `help:"Format to round-trip through (default: the source format)"`
}

func (c *VerifyCmd) Run(app *App) error {
	inputs, err := app.decodePath(c.Path, c.From)
	if err != nil {
		return err
	}

	failed := 0
	for _, d := range inputs {
		via := d.Codec
		if c.Via != "" {
			if via, err = app.codec(c.Via); err != nil {
				return err
			}
		}
		for _, s := range d.Series {
			ok, reason := app.roundTrip(via, s)
			fmt.Fprintf(app.Out, "%s %s via %s: ", d.Name, s.ID, via.Name())
			if ok {
				okColor.Fprintln(app.Out, "ok")
				continue
			}
			failed++
			fatalColor.Fprintln(app.Out, reason)
		}
	}
	if failed > 0 {
		return fmt.Errorf("verification failed for %d series", failed)
	}
	return nil
}

func (a *App) roundTrip(via base.Codec, s *series.Series) (bool, string) {
	data, err := a.encode(via, s.ID, []*series.Series{s})
	if err != nil {
		return false, "encode failed: " + err.Error()
	}
	back, err := a.decodeBytes(s.ID, s.ID+primaryExt(via), data, via.Name())
	if err != nil {
		return false, "decode failed: " + err.Error()
	}
	if len(back.Series) != 1 {
		return false, fmt.Sprintf("decoded %d series", len(back.Series))
	}
	if got, want := back.Series[0].Fingerprint(), s.Fingerprint(); got != want {
		return false, fmt.Sprintf("fingerprint %s, want %s", got[:12], want[:12])
	}
	return true, ""
}

// IndexCmd records series in the catalog.
type IndexCmd struct {
	Paths []string `arg:"" help:"Files or tar bundles to index" type:"existingfile"`
	From  string   `help:"Source format (detected when omitted)"`
	DB    string   `name:"db" help:"Catalog database (overrides the configuration)" type:"path"`
}

func (c *IndexCmd) Run(app *App) error {
	cat, err := catalog.Open(app.Ctx, app.catalogPath(c.DB))
	if err != nil {
		return err
	}
	defer cat.Close()

	total := 0
	for _, p := range c.Paths {
		inputs, err := app.decodePath(p, c.From)
		if err != nil {
			return err
		}
		for _, d := range inputs {
			if err := cat.Index(app.Ctx, d.Name, d.Codec.Name(), d.Series); err != nil {
				return err
			}
			total += len(d.Series)
		}
	}
	fmt.Fprintf(app.Out, "Indexed %d series from %d path(s)\n", total, len(c.Paths))
	return nil
}

func (a *App) catalogPath(override string) string {
	if override != "" {
		return override
	}
	return a.Config.Catalog.Path
}

// CatalogListCmd lists catalogued series.
type CatalogListCmd struct {
	DB       string `name:"db" help:"Catalog database (overrides the configuration)" type:"path"`
	Site     string `help:"Only series from this site code"`
	Species  string `help:"Only series of this species code"`
	Covers   string `help:"Only series whose range contains this year (e.g. 1850, -50, 50 BC)"`
	Format   string `help:"Only series decoded from this format"`
	Encoding string `help:"Output encoding" enum:"text,json" default:"text"`
}

func (c *CatalogListCmd) Run(app *App) error {
	f := catalog.Filter{SiteCode: c.Site, SpeciesCode: c.Species, Format: c.Format}
	if c.Covers != "" {
		y, err := calendar.ParseYear(c.Covers)
		if err != nil {
			return err
		}
		f.Covers = &y
	}

	cat, err := catalog.OpenReadOnly(app.Ctx, app.catalogPath(c.DB))
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.List(app.Ctx, f)
	if err != nil {
		return err
	}
	if c.Encoding == "json" {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		span := "undated"
		if e.Range != nil {
			span = e.Range.String()
		}
		nameColor.Fprintf(app.Out, "%-12s", e.ID)
		fmt.Fprintf(app.Out, " %-10s %-12s %5d rings  %s#%d\n", e.Kind, span, e.Rings, e.Path, e.Position)
	}
	return nil
}

// CatalogRemoveCmd forgets an indexed file.
type CatalogRemoveCmd struct {
	Path string `arg:"" help:"Path as recorded by index"`
	DB   string `name:"db" help:"Catalog database (overrides the configuration)" type:"path"`
}

func (c *CatalogRemoveCmd) Run(app *App) error {
	cat, err := catalog.Open(app.Ctx, app.catalogPath(c.DB))
	if err != nil {
		return err
	}
	defer cat.Close()
	if err := cat.Remove(app.Ctx, c.Path); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Removed %s\n", c.Path)
	return nil
}

// CatalogShowCmd re-encodes one catalogued series to standard output.
type CatalogShowCmd struct {
	Path     string `arg:"" help:"Path as recorded by index"`
	Position int    `help:"Position of the series within the file" default:"0"`
	To       string `help:"Output format" enum:"tucson,catras" default:"tucson"`
	DB       string `name:"db" help:"Catalog database (overrides the configuration)" type:"path"`
}

func (c *CatalogShowCmd) Run(app *App) error {
	cat, err := catalog.OpenReadOnly(app.Ctx, app.catalogPath(c.DB))
	if err != nil {
		return err
	}
	defer cat.Close()

	s, err := cat.Load(app.Ctx, c.Path, c.Position)
	if err != nil {
		return err
	}
	target, err := app.codec(c.To)
	if err != nil {
		return err
	}
	data, err := app.encode(target, fmt.Sprintf("%s#%d", c.Path, c.Position), []*series.Series{s})
	if err != nil {
		return err
	}
	_, err = app.Out.Write(data)
	return err
}

// StoreGetCmd writes a stored output to a file.
type StoreGetCmd struct {
	Hash     string `arg:"" help:"SHA-256 or BLAKE3 hash"`
	Out      string `required:"" help:"Output path" type:"path"`
	StoreDir string `name:"store-dir" help:"Store directory (overrides the configuration)" type:"path"`
}

func (c *StoreGetCmd) Run(app *App) error {
	dir := app.Config.Store.Path
	if c.StoreDir != "" {
		dir = c.StoreDir
	}
	store, err := cas.NewStore(dir)
	if err != nil {
		return err
	}
	data, err := store.Get(c.Hash)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(c.Out, data, 0644); err != nil {
		return errors.NewIO("write", c.Out, err)
	}
	fmt.Fprintf(app.Out, "Wrote %d bytes to %s\n", len(data), c.Out)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Out, "ringconv version %s\n", version)
	info := sqlite.GetInfo()
	fmt.Fprintf(app.Out, "  sqlite: %s (%s)\n", info.Package, info.DriverType)
	for _, codec := range base.Codecs() {
		fmt.Fprintf(app.Out, "  format: %s %s\n", codec.Name(), strings.Join(codec.Extensions(), " "))
	}
	return nil
}
