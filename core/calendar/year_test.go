package calendar

import (
	"testing"
)

func TestNewYearRejectsZero(t *testing.T) {
	y, err := NewYear(0)
	if err == nil {
		t.Fatal("expected error for year zero")
	}
	if y != DefaultYear {
		t.Errorf("NewYear(0) = %d, want %d", y, DefaultYear)
	}

	y, err = NewYear(-45)
	if err != nil {
		t.Fatalf("NewYear(-45) error: %v", err)
	}
	if y.Int() != -45 {
		t.Errorf("Int() = %d, want -45", y.Int())
	}
}

func TestAddNeverYieldsZero(t *testing.T) {
	for n := -300; n <= 300; n++ {
		if n == 0 {
			continue
		}
		y := MustYear(n)
		if got := y.Add(0); got != y {
			t.Errorf("%d.Add(0) = %d", n, got)
		}
		if got, err := NewYear(y.Add(0).Int()); err != nil || got == 0 {
			t.Errorf("NewYear(%d.Add(0)) = %d, %v", n, got, err)
		}
		for dy := -25; dy <= 25; dy++ {
			if y.Add(dy) == 0 {
				t.Fatalf("%d.Add(%d) produced year zero", n, dy)
			}
		}
		if got := y.Add(1).Add(-1); got != y {
			t.Errorf("%d.Add(1).Add(-1) = %d", n, got)
		}
	}
}

func TestAddStepsOverZero(t *testing.T) {
	tests := []struct {
		start, dy, want int
	}{
		{-1, 1, 1},
		{1, -1, -1},
		{-5, 10, 6},
		{5, -10, -6},
		{-10, 10, 1},
		{1990, 10, 2000},
	}
	for _, tt := range tests {
		if got := MustYear(tt.start).Add(tt.dy); got.Int() != tt.want {
			t.Errorf("%d.Add(%d) = %d, want %d", tt.start, tt.dy, got, tt.want)
		}
	}
}

func TestAddIsAssociativeWithSingleSteps(t *testing.T) {
	start := MustYear(-7)
	stepped := start
	for i := 0; i < 15; i++ {
		stepped = stepped.Add(1)
	}
	if direct := start.Add(15); direct != stepped {
		t.Errorf("Add(15) = %d, stepping gives %d", direct, stepped)
	}
}

func TestAddDiffInverse(t *testing.T) {
	years := []int{-1000, -101, -11, -10, -2, -1, 1, 2, 9, 10, 11, 1949, 1950, 2024}
	for _, a := range years {
		for _, b := range years {
			ya, yb := MustYear(a), MustYear(b)
			if got := ya.Add(ya.Diff(yb)); got != yb {
				t.Errorf("%d.Add(%d.Diff(%d)) = %d", a, a, b, got)
			}
		}
	}
	if d := MustYear(-1).Diff(MustYear(1)); d != 1 {
		t.Errorf("Diff(-1, 1) = %d, want 1", d)
	}
}

func TestColumnStability(t *testing.T) {
	if c := MustYear(-10).Column(); c != 0 {
		t.Errorf("Year(-10).Column() = %d, want 0", c)
	}
	if c := MustYear(10).Column(); c != 0 {
		t.Errorf("Year(10).Column() = %d, want 0", c)
	}
	if c := MustYear(-1).Column(); c != 9 {
		t.Errorf("Year(-1).Column() = %d, want 9", c)
	}
	if c := MustYear(1).Column(); c != 1 {
		t.Errorf("Year(1).Column() = %d, want 1", c)
	}
}

func TestRowAndYearAt(t *testing.T) {
	tests := []struct {
		year, row, col int
	}{
		{1, 0, 1},
		{9, 0, 9},
		{10, 1, 0},
		{1999, 199, 9},
		{-1, -1, 9},
		{-10, -1, 0},
		{-11, -2, 9},
		{-20, -2, 0},
	}
	for _, tt := range tests {
		y := MustYear(tt.year)
		if y.Row() != tt.row || y.Column() != tt.col {
			t.Errorf("%d: row,col = %d,%d want %d,%d", tt.year, y.Row(), y.Column(), tt.row, tt.col)
		}
		back, err := YearAt(tt.row, tt.col)
		if err != nil || back != y {
			t.Errorf("YearAt(%d,%d) = %d, %v; want %d", tt.row, tt.col, back, err, tt.year)
		}
	}

	if y, err := YearAt(0, 0); err == nil || y != DefaultYear {
		t.Errorf("YearAt(0,0) = %d, %v; want default year and error", y, err)
	}
	if _, err := YearAt(3, 10); err == nil {
		t.Error("expected error for column 10")
	}
}

func TestModIsNonNegative(t *testing.T) {
	for n := -50; n <= 50; n++ {
		if n == 0 {
			continue
		}
		if m := MustYear(n).Mod(7); m < 0 || m >= 7 {
			t.Errorf("Year(%d).Mod(7) = %d", n, m)
		}
	}
}

func TestAstronomicalConversions(t *testing.T) {
	tests := []struct {
		year, astro int
	}{
		{1, 1},
		{-1, 0},
		{-2, -1},
		{2000, 2000},
	}
	for _, tt := range tests {
		y := MustYear(tt.year)
		if got := y.Astronomical(); got != tt.astro {
			t.Errorf("Year(%d).Astronomical() = %d, want %d", tt.year, got, tt.astro)
		}
		if got := FromAstronomical(tt.astro); got != y {
			t.Errorf("FromAstronomical(%d) = %d, want %d", tt.astro, got, tt.year)
		}
	}
}

func TestBeforePresent(t *testing.T) {
	tests := []struct {
		year, bp int
	}{
		{1950, 0},
		{1900, 50},
		{1, 1949},
		{-1, 1950},
		{-50, 1999},
		{2000, -50},
	}
	for _, tt := range tests {
		y := MustYear(tt.year)
		if got := y.BeforePresent(); got != tt.bp {
			t.Errorf("Year(%d).BeforePresent() = %d, want %d", tt.year, got, tt.bp)
		}
		if got := FromBeforePresent(tt.bp); got != y {
			t.Errorf("FromBeforePresent(%d) = %d, want %d", tt.bp, got, tt.year)
		}
	}
}

func TestEraConversions(t *testing.T) {
	y, err := FromEra(45, EraBC)
	if err != nil || y.Int() != -45 {
		t.Errorf("FromEra(45, BC) = %d, %v", y, err)
	}
	if y.Magnitude() != 45 || y.Era() != EraBC {
		t.Errorf("magnitude/era = %d %s", y.Magnitude(), y.Era())
	}
	if _, err := FromEra(0, EraAD); err == nil {
		t.Error("expected error for zero magnitude")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		year   int
		dating DatingType
		want   string
	}{
		{1990, DatingAbsolute, "1990AD"},
		{-45, DatingAbsolute, "45BC"},
		{12, DatingRelative, "r.12"},
		{1450, DatingUncertain, "c.1450AD"},
		{-300, DatingUncertain, "c.300BC"},
	}
	for _, tt := range tests {
		if got := MustYear(tt.year).Format(tt.dating); got != tt.want {
			t.Errorf("Format(%d, %s) = %q, want %q", tt.year, tt.dating, got, tt.want)
		}
	}
	if got := MustYear(-45).String(); got != "45BC" {
		t.Errorf("String() = %q", got)
	}
}

func TestCompare(t *testing.T) {
	a, b := MustYear(-5), MustYear(3)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("Compare ordering incorrect")
	}
	if !a.Before(b) || !b.After(a) {
		t.Error("Before/After incorrect")
	}
	if Min(a, b) != a || Max(a, b) != b {
		t.Error("Min/Max incorrect")
	}
}
