package series

import (
	"strconv"
	"time"
)

// CompDateLayout is the yyyyMMdd layout used for computation dates.
const CompDateLayout = "20060102"

// Defaults carries metadata values resolved before a codec runs. Codecs
// read these when a file (or a series being written) lacks a field; they do
// not validate them.
type Defaults struct {
	SiteCode     string
	SiteName     string
	SpeciesCode  string
	SpeciesName  string
	StateCountry string
	Investigator string
	UserID       string

	// Elevation in metres.
	Elevation *float64
	Latitude  *float64
	Longitude *float64

	// CompDate is the computation date written into headers. Zero means
	// "not known".
	CompDate time.Time

	// Unit is assumed for raw series whose file does not declare one.
	Unit Unit

	// Kind is assumed when a format cannot tell raw from derived series.
	Kind Kind
}

// Attributes returns the non-empty defaults keyed by attribute name.
func (d Defaults) Attributes() map[string]string {
	out := make(map[string]string)
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set(AttrSiteCode, d.SiteCode)
	set(AttrSiteName, d.SiteName)
	set(AttrSpeciesCode, d.SpeciesCode)
	set(AttrSpeciesName, d.SpeciesName)
	set(AttrStateCountry, d.StateCountry)
	set(AttrInvestigator, d.Investigator)
	set(AttrUserID, d.UserID)
	if d.Elevation != nil {
		set(AttrElevation, formatFloat(*d.Elevation))
	}
	if d.Latitude != nil {
		set(AttrLatitude, formatFloat(*d.Latitude))
	}
	if d.Longitude != nil {
		set(AttrLongitude, formatFloat(*d.Longitude))
	}
	if !d.CompDate.IsZero() {
		set(AttrCompDate, d.CompDate.Format(CompDateLayout))
	}
	return out
}

// Apply fills attributes missing from s with default values. Existing
// attributes are never overwritten.
func (d Defaults) Apply(s *Series) {
	for k, v := range d.Attributes() {
		if s.Attr(k) == "" {
			s.SetAttr(k, v)
		}
	}
	if s.Unit == UnitUnknown {
		s.Unit = d.Unit
	}
}

// Lookup returns the series attribute for key, falling back to the
// default value.
func (d Defaults) Lookup(s *Series, key string) string {
	if v := s.Attr(key); v != "" {
		return v
	}
	return d.Attributes()[key]
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
