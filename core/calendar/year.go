// Package calendar provides proleptic year arithmetic for dendrochronological
// series.
//
// Calendar years follow the historical convention of having no year zero:
// the year before 1 AD is 1 BC, represented here as -1. Every operation in
// this package steps over zero, so a Year value is never 0.
//
// Formats that number years from zero (astronomical numbering, where 0 is
// 1 BC) are converted at the boundary with FromAstronomical and
// Year.Astronomical.
package calendar

import (
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/ringconv/core/errors"
)

// BeforePresentEpoch is the reference year for before-present dating.
const BeforePresentEpoch = 1950

// DefaultYear is returned by constructors that are given an invalid year.
const DefaultYear Year = 1

// Year is a proleptic calendar year. Negative values are BC, positive AD.
type Year int

// Era distinguishes BC from AD years.
type Era string

// Era values.
const (
	EraBC Era = "BC"
	EraAD Era = "AD"
)

// NewYear returns the year n. Zero is not a year; NewYear(0) returns
// DefaultYear together with an error.
func NewYear(n int) (Year, error) {
	if n == 0 {
		return DefaultYear, errors.NewValidation("year", "there is no year zero")
	}
	return Year(n), nil
}

// MustYear is like NewYear but panics on zero. Intended for constants in
// tests and tables.
func MustYear(n int) Year {
	y, err := NewYear(n)
	if err != nil {
		panic(err)
	}
	return y
}

// YearAt returns the year addressed by a decade row and a column (0-9).
// Row 0 holds years 1-9, row -1 holds years -10..-1.
func YearAt(row, column int) (Year, error) {
	if column < 0 || column > 9 {
		return DefaultYear, errors.NewValidation("column", fmt.Sprintf("column %d outside 0-9", column))
	}
	return NewYear(row*10 + column)
}

// FromAstronomical converts a zero-based astronomical year (0 == 1 BC).
func FromAstronomical(a int) Year {
	if a <= 0 {
		return Year(a - 1)
	}
	return Year(a)
}

// FromBeforePresent converts a before-present count (relative to 1950).
func FromBeforePresent(bp int) Year {
	return FromAstronomical(BeforePresentEpoch - bp)
}

// FromEra builds a year from a positive magnitude and an era.
func FromEra(magnitude int, era Era) (Year, error) {
	if magnitude <= 0 {
		return DefaultYear, errors.NewValidation("year", fmt.Sprintf("magnitude %d must be positive", magnitude))
	}
	if era == EraBC {
		return Year(-magnitude), nil
	}
	return Year(magnitude), nil
}

// Int returns the signed integer value of the year.
func (y Year) Int() int {
	return int(y)
}

// IsValid reports whether y is a real year (non-zero).
func (y Year) IsValid() bool {
	return y != 0
}

// Astronomical returns the zero-based astronomical year number.
func (y Year) Astronomical() int {
	if y < 0 {
		return int(y) + 1
	}
	return int(y)
}

// BeforePresent returns the number of years before 1950.
func (y Year) BeforePresent() int {
	return BeforePresentEpoch - y.Astronomical()
}

// Add returns the year dy years after y, stepping over year zero.
func (y Year) Add(dy int) Year {
	return FromAstronomical(y.Astronomical() + dy)
}

// Diff returns the number of years from y to other, such that
// y.Add(y.Diff(other)) == other.
func (y Year) Diff(other Year) int {
	return other.Astronomical() - y.Astronomical()
}

// Mod returns the floor modulus of the year value, always in [0, m).
func (y Year) Mod(m int) int {
	r := int(y) % m
	if r < 0 {
		r += m
	}
	return r
}

// Row returns the decade row of the year. Row 0 holds years 1-9.
func (y Year) Row() int {
	n := int(y)
	if n < 0 {
		return -((-n + 9) / 10)
	}
	return n / 10
}

// Column returns the position of the year within its decade row (0-9).
// Columns are continuous across the BC/AD boundary: -10 and 10 are both
// column 0.
func (y Year) Column() int {
	return y.Mod(10)
}

// Magnitude returns the unsigned year number used with an era suffix.
func (y Year) Magnitude() int {
	if y < 0 {
		return int(-y)
	}
	return int(y)
}

// Era returns BC for negative years and AD otherwise.
func (y Year) Era() Era {
	if y < 0 {
		return EraBC
	}
	return EraAD
}

// Compare returns -1, 0 or +1.
func (y Year) Compare(other Year) int {
	switch {
	case y < other:
		return -1
	case y > other:
		return 1
	default:
		return 0
	}
}

// Before reports whether y is earlier than other.
func (y Year) Before(other Year) bool {
	return y < other
}

// After reports whether y is later than other.
func (y Year) After(other Year) bool {
	return y > other
}

// Min returns the earlier of two years.
func Min(a, b Year) Year {
	if a < b {
		return a
	}
	return b
}

// Max returns the later of two years.
func Max(a, b Year) Year {
	if a > b {
		return a
	}
	return b
}

// String returns the absolute form, e.g. "1990AD" or "45BC".
func (y Year) String() string {
	return y.Format(DatingAbsolute)
}

// Format renders the year for the given dating type. Relative years are
// prefixed with "r." and carry no era suffix; uncertain years are prefixed
// with "c.".
func (y Year) Format(t DatingType) string {
	switch t {
	case DatingRelative:
		return RelativePrefix + strconv.Itoa(int(y))
	case DatingUncertain:
		return UncertainPrefix + strconv.Itoa(y.Magnitude()) + string(y.Era())
	default:
		return strconv.Itoa(y.Magnitude()) + string(y.Era())
	}
}
