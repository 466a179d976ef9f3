// Package series defines the neutral in-memory representation that every
// format codec decodes into and encodes from.
//
// A Series is a sequence of ring measurements positionally aligned to
// calendar years starting at the first year of its range. Format-specific
// metadata travels in Attributes; bytes a format cannot interpret travel in
// Passthrough so they can be written back unchanged.
package series

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/errors"
)

// Kind distinguishes measured series from derived ones.
type Kind string

// Series kinds.
const (
	// KindRaw is a single measured sample.
	KindRaw Kind = "raw"
	// KindTreeCurve is a mean of several radii of one tree.
	KindTreeCurve Kind = "tree_curve"
	// KindChronology is a site or regional mean with sample depths.
	KindChronology Kind = "chronology"
)

// IsDerived reports whether the series is built from other series.
func (k Kind) IsDerived() bool {
	return k == KindTreeCurve || k == KindChronology
}

// Unit is the measurement unit of ring values.
type Unit string

// Units.
const (
	UnitUnknown     Unit = ""
	UnitHundredthMM Unit = "1/100 mm"
	UnitMicrometre  Unit = "micrometre"
	// UnitIndex is the dimensionless unit of standardized chronologies.
	UnitIndex Unit = "index"
)

// Variable is what was measured.
type Variable string

// Variables.
const (
	VariableRingWidth      Variable = "ring width"
	VariableEarlywoodWidth Variable = "earlywood width"
	VariableLatewoodWidth  Variable = "latewood width"
	VariableRingWidthIndex Variable = "ring width index"
)

// Attribute keys shared by the codecs.
const (
	AttrSiteCode      = "site_code"
	AttrSiteName      = "site_name"
	AttrSpeciesCode   = "species_code"
	AttrSpeciesName   = "species_name"
	AttrStateCountry  = "state_country"
	AttrElevation     = "elevation"
	AttrLatitude      = "latitude"
	AttrLongitude     = "longitude"
	AttrInvestigator  = "investigator"
	AttrCompDate      = "comp_date"
	AttrDeclaredRange = "declared_range"
	AttrSapwood       = "sapwood_count"
	AttrFirstValid    = "first_valid_ring"
	AttrLastValid     = "last_valid_ring"
	AttrScope         = "scope"
	AttrLastRing      = "last_ring"
	AttrCreated       = "created"
	AttrUpdated       = "updated"
	AttrUserID        = "user_id"
	AttrExtension     = "extension"
	AttrSourceFormat  = "source_format"
)

// RingValue is one measurement. Count is the sample depth for derived
// series and nil when the format carries none.
type RingValue struct {
	Value int  `json:"value"`
	Count *int `json:"count,omitempty"`
}

// NewCount returns a pointer to n for use in RingValue.Count.
func NewCount(n int) *int {
	return &n
}

// Values builds ring values without counts.
func Values(vs ...int) []RingValue {
	out := make([]RingValue, len(vs))
	for i, v := range vs {
		out[i] = RingValue{Value: v}
	}
	return out
}

// Series is a single measurement series.
type Series struct {
	// ID is the series code or identifier.
	ID string `json:"id"`

	// Title is a human-readable name.
	Title string `json:"title,omitempty"`

	Kind Kind `json:"kind"`

	// Range is nil for undated (relative) series.
	Range *calendar.YearRange `json:"range,omitempty"`

	Dating calendar.DatingType `json:"dating"`

	Unit     Unit     `json:"unit,omitempty"`
	Variable Variable `json:"variable,omitempty"`

	// Values are aligned to Range.Start(), one per year.
	Values []RingValue `json:"values"`

	// Attributes holds format metadata keyed by the Attr* constants.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Passthrough holds opaque bytes preserved for re-encoding.
	Passthrough map[string][]byte `json:"passthrough,omitempty"`
}

// New returns an empty raw series with initialized maps.
func New(id string) *Series {
	return &Series{
		ID:          id,
		Kind:        KindRaw,
		Dating:      calendar.DatingAbsolute,
		Variable:    VariableRingWidth,
		Attributes:  make(map[string]string),
		Passthrough: make(map[string][]byte),
	}
}

// SetRange dates the series from start to cover its current values.
func (s *Series) SetRange(start calendar.Year) {
	r := calendar.RangeOfSpan(start, len(s.Values))
	s.Range = &r
}

// IsDated reports whether the series has calendar years.
func (s *Series) IsDated() bool {
	return s.Range != nil && !s.Range.IsEmpty()
}

// Start returns the first year, or relative year 1 for undated series.
func (s *Series) Start() calendar.Year {
	if s.IsDated() {
		return s.Range.Start()
	}
	return calendar.DefaultYear
}

// Years returns the year of each value. Undated series are numbered from
// relative year 1.
func (s *Series) Years() []calendar.Year {
	out := make([]calendar.Year, len(s.Values))
	y := s.Start()
	for i := range s.Values {
		out[i] = y
		y = y.Add(1)
	}
	return out
}

// HasCounts reports whether every value carries a sample depth.
func (s *Series) HasCounts() bool {
	if len(s.Values) == 0 {
		return false
	}
	for _, v := range s.Values {
		if v.Count == nil {
			return false
		}
	}
	return true
}

// Attr returns an attribute or "".
func (s *Series) Attr(key string) string {
	if s.Attributes == nil {
		return ""
	}
	return s.Attributes[key]
}

// SetAttr sets an attribute, ignoring empty values.
func (s *Series) SetAttr(key, value string) {
	if value == "" {
		return
	}
	if s.Attributes == nil {
		s.Attributes = make(map[string]string)
	}
	s.Attributes[key] = value
}

// AttrKeys returns attribute keys in sorted order.
func (s *Series) AttrKeys() []string {
	keys := make([]string, 0, len(s.Attributes))
	for k := range s.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetPassthrough stores a copy of opaque bytes under key.
func (s *Series) SetPassthrough(key string, data []byte) {
	if s.Passthrough == nil {
		s.Passthrough = make(map[string][]byte)
	}
	s.Passthrough[key] = append([]byte(nil), data...)
}

// Validate checks the structural invariants of the series.
func (s *Series) Validate() error {
	if s.ID == "" {
		return errors.NewValidation("id", "series identifier is required")
	}
	switch s.Kind {
	case KindRaw, KindTreeCurve, KindChronology:
	default:
		return errors.NewValidation("kind", fmt.Sprintf("unknown series kind %q", s.Kind))
	}
	if s.Range != nil {
		if s.Range.IsEmpty() && len(s.Values) > 0 {
			return errors.NewValidation("range", "empty range with values")
		}
		if span := s.Range.Span(); span != len(s.Values) {
			return errors.NewValidation("values",
				fmt.Sprintf("%d values for a range spanning %d years", len(s.Values), span))
		}
	}
	for i, v := range s.Values {
		if v.Count != nil && *v.Count < 0 {
			return errors.NewValidation("count", fmt.Sprintf("negative count at position %d", i))
		}
	}
	return nil
}
