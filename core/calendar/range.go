package calendar

import (
	"cmp"
	"encoding/json"
	"slices"
)

// YearRange is an inclusive interval of calendar years.
//
// A range constructed with start after end does not fail; it collapses to
// EmptyRange, which has a span of zero and contains nothing.
type YearRange struct {
	start Year
	end   Year
	empty bool
}

// EmptyRange is the canonical empty range.
var EmptyRange = YearRange{start: DefaultYear, end: DefaultYear, empty: true}

// NewRange returns the range [start, end], or EmptyRange if start > end or
// either bound is not a valid year.
func NewRange(start, end Year) YearRange {
	if !start.IsValid() || !end.IsValid() || start > end {
		return EmptyRange
	}
	return YearRange{start: start, end: end}
}

// RangeOfSpan returns the range starting at start that covers span years.
func RangeOfSpan(start Year, span int) YearRange {
	if span <= 0 {
		return EmptyRange
	}
	return NewRange(start, start.Add(span-1))
}

// Start returns the first year of the range.
func (r YearRange) Start() Year { return r.start }

// End returns the last year of the range.
func (r YearRange) End() Year { return r.end }

// IsEmpty reports whether r is the empty range.
func (r YearRange) IsEmpty() bool { return r.empty }

// Equal reports whether two ranges cover the same years.
func (r YearRange) Equal(other YearRange) bool {
	if r.empty || other.empty {
		return r.empty == other.empty
	}
	return r.start == other.start && r.end == other.end
}

// Span returns the number of years in the range, counting both ends.
func (r YearRange) Span() int {
	if r.empty {
		return 0
	}
	return r.start.Diff(r.end) + 1
}

// Contains reports whether y lies within the range.
func (r YearRange) Contains(y Year) bool {
	if r.empty {
		return false
	}
	return y >= r.start && y <= r.end
}

// ContainsRange reports whether other lies entirely within r. The empty
// range is contained in every range.
func (r YearRange) ContainsRange(other YearRange) bool {
	if other.empty {
		return true
	}
	return r.Contains(other.start) && r.Contains(other.end)
}

// Overlap returns the number of years shared by both ranges.
func (r YearRange) Overlap(other YearRange) int {
	return r.Intersection(other).Span()
}

// Union returns the smallest range covering both ranges, including any gap
// between disjoint ranges. The empty range is the identity.
func (r YearRange) Union(other YearRange) YearRange {
	switch {
	case r.empty:
		return other
	case other.empty:
		return r
	}
	return NewRange(Min(r.start, other.start), Max(r.end, other.end))
}

// Intersection returns the years common to both ranges, or EmptyRange when
// they are disjoint.
func (r YearRange) Intersection(other YearRange) YearRange {
	if r.empty || other.empty {
		return EmptyRange
	}
	return NewRange(Max(r.start, other.start), Min(r.end, other.end))
}

// RedateBy shifts the range by dy years, preserving its span.
func (r YearRange) RedateBy(dy int) YearRange {
	if r.empty {
		return r
	}
	return NewRange(r.start.Add(dy), r.end.Add(dy))
}

// RedateStartTo moves the range so that it starts at y, preserving its span.
func (r YearRange) RedateStartTo(y Year) YearRange {
	if r.empty {
		return r
	}
	return r.RedateBy(r.start.Diff(y))
}

// RedateEndTo moves the range so that it ends at y, preserving its span.
func (r YearRange) RedateEndTo(y Year) YearRange {
	if r.empty {
		return r
	}
	return r.RedateBy(r.end.Diff(y))
}

// WithStart returns a range with a new start and the same end. The span is
// not preserved.
func (r YearRange) WithStart(y Year) YearRange {
	if r.empty {
		return EmptyRange
	}
	return NewRange(y, r.end)
}

// WithEnd returns a range with the same start and a new end.
func (r YearRange) WithEnd(y Year) YearRange {
	if r.empty {
		return EmptyRange
	}
	return NewRange(r.start, y)
}

// Years returns every year in the range in order.
func (r YearRange) Years() []Year {
	if r.empty {
		return nil
	}
	years := make([]Year, 0, r.Span())
	for y := r.start; ; y = y.Add(1) {
		years = append(years, y)
		if y == r.end {
			break
		}
	}
	return years
}

// String returns "start - end" in absolute form, or "empty".
func (r YearRange) String() string {
	return r.Format(DatingAbsolute)
}

// Format renders the range for a dating type.
func (r YearRange) Format(t DatingType) string {
	if r.empty {
		return "empty"
	}
	return r.start.Format(t) + " - " + r.end.Format(t)
}

// CompareFallback orders ranges for fallback selection: later end years
// first, then longer spans first. Empty ranges sort last.
func CompareFallback(a, b YearRange) int {
	switch {
	case a.empty && b.empty:
		return 0
	case a.empty:
		return 1
	case b.empty:
		return -1
	}
	if c := cmp.Compare(b.end, a.end); c != 0 {
		return c
	}
	return cmp.Compare(b.Span(), a.Span())
}

// SortFallback sorts ranges in place into fallback order.
func SortFallback(ranges []YearRange) {
	slices.SortStableFunc(ranges, CompareFallback)
}

type rangeJSON struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MarshalJSON encodes the range as {"start":y,"end":y}, or null when empty.
func (r YearRange) MarshalJSON() ([]byte, error) {
	if r.empty {
		return []byte("null"), nil
	}
	return json.Marshal(rangeJSON{Start: r.start.Int(), End: r.end.Int()})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *YearRange) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = EmptyRange
		return nil
	}
	var raw rangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := NewYear(raw.Start)
	if err != nil {
		return err
	}
	end, err := NewYear(raw.End)
	if err != nil {
		return err
	}
	*r = NewRange(start, end)
	return nil
}
