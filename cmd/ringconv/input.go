package main

import (
	"fmt"
	"time"

	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/internal/archive"
	"github.com/FocuswithJustin/ringconv/internal/fileutil"
	"github.com/FocuswithJustin/ringconv/internal/formats/base"
	"github.com/FocuswithJustin/ringconv/internal/formats/catras"
	"github.com/FocuswithJustin/ringconv/internal/logging"
	"github.com/FocuswithJustin/ringconv/internal/validation"
)

// decoded is one decoded file, or one member of a bundle.
type decoded struct {
	Name   string
	Codec  base.Codec
	Series []*series.Series
	Diags  *diag.List
}

// codec returns the named codec configured from the application settings.
func (a *App) codec(name string) (base.Codec, error) {
	c, err := base.Lookup(name)
	if err != nil {
		return nil, err
	}
	if c.Name() == catras.Name {
		return &catras.Codec{Order: a.Config.Catras.ByteOrder}, nil
	}
	return c, nil
}

// decodePath decodes a file, or each series file inside a tar bundle.
// Compressed inputs are unwrapped first. from forces the source format.
func (a *App) decodePath(path, from string) ([]decoded, error) {
	if archive.IsBundle(path) {
		entries, err := archive.ReadEntries(path, nil)
		if err != nil {
			return nil, errors.NewIO("read bundle", path, err)
		}
		var out []decoded
		for _, e := range entries {
			name := path + "!" + e.Name
			data, err := fileutil.Decompress(e.Data)
			if err != nil {
				return nil, errors.NewIO("decompress", name, err)
			}
			if from == "" && !base.Detect(fileutil.StripExt(e.Name), data).Detected {
				logging.Debug("skipping bundle member", "path", name)
				continue
			}
			d, err := a.decodeBytes(name, fileutil.StripExt(e.Name), data, from)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		if len(out) == 0 {
			return nil, errors.NewUnsupported("bundle", fmt.Sprintf("%s holds no series files", path))
		}
		return out, nil
	}

	data, err := fileutil.ReadInput(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	d, err := a.decodeBytes(path, fileutil.StripExt(path), data, from)
	if err != nil {
		return nil, err
	}
	return []decoded{d}, nil
}

// decodeBytes decodes data; hint is the name used for extension-based
// detection.
func (a *App) decodeBytes(name, hint string, data []byte, from string) (decoded, error) {
	var c base.Codec
	var err error
	if from != "" {
		c, err = a.codec(from)
	} else {
		res := base.Detect(hint, data)
		if !res.Detected {
			return decoded{}, errors.NewUnsupported("detect", fmt.Sprintf("%s: %s", name, res.Reason))
		}
		c, err = a.codec(res.Format)
	}
	if err != nil {
		return decoded{}, err
	}

	diags := diag.New(c.Name())
	start := time.Now()
	ss, err := c.Decode(data, a.Config.Defaults, diags)
	a.report(name, diags)
	if err != nil {
		logging.CodecError(a.Ctx, "decode", c.Name(), name, err)
		return decoded{}, fmt.Errorf("%s: %w", name, err)
	}
	logging.CodecEvent(a.Ctx, "decode", c.Name(), name, len(ss), time.Since(start), "bytes", len(data))
	logging.DiagnosticSummary(a.Ctx, c.Name(), name, len(diags.Warnings()))
	return decoded{Name: name, Codec: c, Series: ss, Diags: diags}, nil
}

// encode renders ss with c, reporting diagnostics under name.
func (a *App) encode(c base.Codec, name string, ss []*series.Series) ([]byte, error) {
	diags := diag.New(c.Name())
	start := time.Now()
	data, err := c.Encode(ss, a.Config.Defaults, diags)
	a.report(name, diags)
	if err != nil {
		logging.CodecError(a.Ctx, "encode", c.Name(), name, err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	logging.CodecEvent(a.Ctx, "encode", c.Name(), name, len(ss), time.Since(start), "bytes", len(data))
	return data, nil
}

func allSeries(ds []decoded) []*series.Series {
	var out []*series.Series
	for _, d := range ds {
		out = append(out, d.Series...)
	}
	return out
}

// memberNames returns a unique file name per series for a bundle.
func memberNames(ss []*series.Series, ext string) []string {
	used := make(map[string]int, len(ss))
	out := make([]string, len(ss))
	for i, s := range ss {
		stem, err := validation.SanitizeFilename(s.ID)
		if err != nil {
			stem = "series"
		}
		used[stem]++
		if n := used[stem]; n > 1 {
			stem = fmt.Sprintf("%s-%d", stem, n)
		}
		out[i] = stem + ext
	}
	return out
}

func primaryExt(c base.Codec) string {
	if exts := c.Extensions(); len(exts) > 0 {
		return exts[0]
	}
	return "." + c.Name()
}
