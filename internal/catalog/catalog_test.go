package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	rcerrors "github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
)

func openCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func rawSeries(id, site string, start int, vs ...int) *series.Series {
	s := series.New(id)
	s.Unit = series.UnitHundredthMM
	s.Values = series.Values(vs...)
	s.SetRange(calendar.MustYear(start))
	s.SetAttr(series.AttrSiteCode, site)
	s.SetAttr(series.AttrSpeciesCode, "PIPO")
	return s
}

func chronology(id string, start int) *series.Series {
	s := series.New(id)
	s.Kind = series.KindChronology
	s.Unit = series.UnitIndex
	s.Variable = series.VariableRingWidthIndex
	for i, v := range []int{998, 1012, 1003} {
		s.Values = append(s.Values, series.RingValue{Value: v, Count: series.NewCount(i + 4)})
	}
	s.SetRange(calendar.MustYear(start))
	s.SetAttr(series.AttrSiteCode, "ABC")
	return s
}

func TestIndexAndList(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t)

	a := rawSeries("ABC01A", "ABC", 1990, 12, 15, 18, 9, 0)
	b := rawSeries("ABC02A", "ABC", -3, 40, 41, 42, 43)
	if err := c.Index(ctx, "abc.rwl", "tucson", []*series.Series{a, b}); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := c.Index(ctx, "abc.crn", "tucson", []*series.Series{chronology("ABC", 1991)}); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	undated := series.New("XYZ")
	undated.Values = series.Values(1, 2)
	undated.Dating = calendar.DatingRelative
	if err := c.Index(ctx, "xyz.cat", "catras", []*series.Series{undated}); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	all, err := c.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d entries, want 4", len(all))
	}
	first := all[1]
	if first.Path != "abc.rwl" || first.Position != 0 || first.ID != "ABC01A" {
		t.Errorf("unexpected order: %+v", first)
	}
	if first.Range == nil || first.Range.Start() != 1990 || first.Range.End() != 1994 {
		t.Errorf("range = %v", first.Range)
	}
	if first.Fingerprint != a.Fingerprint() {
		t.Error("fingerprint not stored")
	}
	if all[3].Range != nil || all[3].Dating != calendar.DatingRelative {
		t.Errorf("undated entry = %+v", all[3])
	}

	y := calendar.MustYear(1992)
	bc := calendar.MustYear(-1)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "site", filter: Filter{SiteCode: "ABC"}, want: []string{"ABC", "ABC01A", "ABC02A"}},
		{name: "species", filter: Filter{SpeciesCode: "PIPO"}, want: []string{"ABC01A", "ABC02A"}},
		{name: "covers", filter: Filter{Covers: &y}, want: []string{"ABC", "ABC01A"}},
		{name: "covers across zero", filter: Filter{Covers: &bc}, want: []string{"ABC02A"}},
		{name: "format", filter: Filter{Format: "catras"}, want: []string{"XYZ"}},
		{name: "fingerprint", filter: Filter{Fingerprint: b.Fingerprint()}, want: []string{"ABC02A"}},
		{name: "no match", filter: Filter{SiteCode: "QQQ"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %v", len(got), tt.want)
			}
			for i, e := range got {
				if e.ID != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.ID, tt.want[i])
				}
			}
		})
	}
}

func TestReindexReplaces(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t)

	first := []*series.Series{rawSeries("A", "S", 1900, 1, 2), rawSeries("B", "S", 1900, 3, 4)}
	if err := c.Index(ctx, "s.rwl", "tucson", first); err != nil {
		t.Fatal(err)
	}
	if err := c.Index(ctx, "s.rwl", "tucson", first[:1]); err != nil {
		t.Fatal(err)
	}
	got, err := c.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "A" {
		t.Errorf("re-index left %+v", got)
	}
	if _, err := c.Load(ctx, "s.rwl", 1); !errors.Is(err, rcerrors.ErrNotFound) {
		t.Errorf("stale rings remain: %v", err)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t)

	want := chronology("ABC", -2)
	want.Title = "Test chronology"
	want.SetAttr(series.AttrInvestigator, "J. Doe")
	if err := c.Index(ctx, "abc.crn", "tucson", []*series.Series{want}); err != nil {
		t.Fatal(err)
	}

	got, err := c.Load(ctx, "abc.crn", 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Fingerprint() != want.Fingerprint() {
		t.Error("loaded series has a different value stream")
	}
	if got.Kind != series.KindChronology || got.Unit != series.UnitIndex || got.Title != want.Title {
		t.Errorf("loaded metadata = %+v", got)
	}
	if got.Attr(series.AttrInvestigator) != "J. Doe" {
		t.Error("attributes not loaded")
	}
	if got.Range.End() != 1 {
		t.Errorf("end = %v, want 1 (no year zero)", got.Range.End())
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t)

	if err := c.Index(ctx, "a.rwl", "tucson", []*series.Series{rawSeries("A", "S", 1900, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := c.Remove(ctx, "a.rwl"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	got, err := c.List(ctx, Filter{})
	if err != nil || len(got) != 0 {
		t.Errorf("after remove: %v, %v", got, err)
	}
	if err := c.Remove(ctx, "a.rwl"); !errors.Is(err, rcerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	if _, err := OpenReadOnly(ctx, path); !errors.Is(err, rcerrors.ErrNotFound) {
		t.Fatalf("missing catalog: expected ErrNotFound, got %v", err)
	}

	c, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Index(ctx, "a.rwl", "tucson", []*series.Series{rawSeries("A", "S", 1900, 1, 2)}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	ro, err := OpenReadOnly(ctx, path)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	defer ro.Close()

	got, err := ro.List(ctx, Filter{})
	if err != nil || len(got) != 1 || got[0].ID != "A" {
		t.Errorf("List = %+v, %v", got, err)
	}
	if err := ro.Remove(ctx, "a.rwl"); err == nil {
		t.Error("Remove succeeded on a read-only catalog")
	}
}
