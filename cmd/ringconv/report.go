package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/internal/logging"
)

var (
	warnColor  = color.New(color.FgYellow)
	fatalColor = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
	nameColor  = color.New(color.Bold)
)

// report prints diagnostics for one file to the error stream and mirrors
// them into the log.
func (a *App) report(name string, diags *diag.List) {
	if diags.Len() == 0 {
		return
	}
	for _, e := range diags.Entries() {
		c := warnColor
		if e.Kind == diag.Fatal {
			c = fatalColor
		}
		c.Fprintf(a.Err, "%s: %s\n", name, e)
	}
	diags.Log(logging.LoggerFromContext(a.Ctx))
}

// summary is the per-series record printed by info.
type summary struct {
	File          string             `json:"file"`
	Format        string             `json:"format"`
	ID            string             `json:"id"`
	Title         string             `json:"title,omitempty"`
	Kind          series.Kind        `json:"kind"`
	Unit          series.Unit        `json:"unit,omitempty"`
	Variable      series.Variable    `json:"variable,omitempty"`
	Dating        string             `json:"dating"`
	Range         string             `json:"range,omitempty"`
	Astronomical  string             `json:"astronomical,omitempty"`
	BeforePresent string             `json:"before_present,omitempty"`
	Rings         int                `json:"rings"`
	Fingerprint   string             `json:"fingerprint"`
	Attributes    map[string]string  `json:"attributes,omitempty"`
	Values        []series.RingValue `json:"values,omitempty"`
	Warnings      int                `json:"warnings"`
}

func summarize(d decoded, s *series.Series, withValues bool) summary {
	out := summary{
		File:        d.Name,
		Format:      d.Codec.Name(),
		ID:          s.ID,
		Title:       s.Title,
		Kind:        s.Kind,
		Unit:        s.Unit,
		Variable:    s.Variable,
		Dating:      string(s.Dating),
		Rings:       len(s.Values),
		Fingerprint: s.Fingerprint(),
		Attributes:  s.Attributes,
		Warnings:    len(d.Diags.Warnings()),
	}
	if s.IsDated() {
		r := s.Range
		out.Range = r.Format(s.Dating)
		out.Astronomical = fmt.Sprintf("%d..%d", r.Start().Astronomical(), r.End().Astronomical())
		out.BeforePresent = fmt.Sprintf("%d..%d BP", r.Start().BeforePresent(), r.End().BeforePresent())
	}
	if withValues {
		out.Values = s.Values
	}
	return out
}

// writeSummaries renders summaries as text, JSON or MessagePack.
func writeSummaries(w io.Writer, encoding string, ss []summary) error {
	switch encoding {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ss)
	case "msgpack":
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(ss)
	}

	for i, s := range ss {
		if i > 0 {
			fmt.Fprintln(w)
		}
		nameColor.Fprintf(w, "%s", s.ID)
		fmt.Fprintf(w, " (%s, %s)\n", s.Format, s.Kind)
		if s.Title != "" && s.Title != s.ID {
			fmt.Fprintf(w, "  Title:       %s\n", s.Title)
		}
		fmt.Fprintf(w, "  File:        %s\n", s.File)
		if s.Range != "" {
			fmt.Fprintf(w, "  Range:       %s (astronomical %s, %s)\n", s.Range, s.Astronomical, s.BeforePresent)
		} else {
			fmt.Fprintf(w, "  Range:       undated\n")
		}
		fmt.Fprintf(w, "  Rings:       %d\n", s.Rings)
		if s.Unit != "" {
			fmt.Fprintf(w, "  Unit:        %s\n", s.Unit)
		}
		fmt.Fprintf(w, "  Fingerprint: %s\n", s.Fingerprint)
		if s.Warnings > 0 {
			warnColor.Fprintf(w, "  Warnings:    %d\n", s.Warnings)
		}
		if len(s.Values) > 0 {
			fmt.Fprintf(w, "  Values:     ")
			for _, v := range s.Values {
				fmt.Fprintf(w, " %d", v.Value)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
