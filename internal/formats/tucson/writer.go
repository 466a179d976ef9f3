package tucson

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
)

// Year markers are four columns wide.
const (
	minWritableYear = -999
	maxWritableYear = 9999
)

// Writer renders series as Tucson text.
type Writer struct {
	defaults series.Defaults
	diags    *diag.List
	buf      bytes.Buffer
}

// NewWriter returns a writer that records diagnostics in diags.
func NewWriter(defaults series.Defaults, diags *diag.List) *Writer {
	return &Writer{defaults: defaults, diags: diags}
}

// Encode renders all series into one file. Raw series produce RWL output,
// derived series CRN output; a mix of both is unsupported.
func Encode(ss []*series.Series, defaults series.Defaults, diags *diag.List) ([]byte, error) {
	return NewWriter(defaults, diags).Write(ss)
}

// Write renders ss and returns the file contents.
func (w *Writer) Write(ss []*series.Series) ([]byte, error) {
	if len(ss) == 0 {
		return nil, w.diags.FatalEncode("", errors.ErrInvalidInput, "no series to write")
	}
	chron := ss[0].Kind.IsDerived()
	for _, s := range ss[1:] {
		if s.Kind.IsDerived() != chron {
			return nil, w.diags.FatalEncode(s.ID, errors.ErrUnsupported,
				"cannot mix raw and chronology series in one Tucson file")
		}
	}

	w.buf.Reset()
	for _, s := range ss {
		if err := w.writeSeries(s, chron); err != nil {
			return nil, err
		}
	}
	return bytes.Clone(w.buf.Bytes()), nil
}

func (w *Writer) writeSeries(s *series.Series, chron bool) error {
	if err := s.Validate(); err != nil {
		return w.diags.FatalEncode(s.ID, err, "invalid series: %v", err)
	}
	if !s.IsDated() {
		return w.diags.FatalEncode(s.ID, errors.ErrUnsupported, "undated series cannot be written in Tucson format")
	}
	start := s.Range.Start()
	stopYear := s.Range.End().Add(1)
	if start.Int() < minWritableYear || stopYear.Int() > maxWritableYear {
		return w.diags.FatalEncode(s.ID, nil, "years %s do not fit the 4-column year marker", s.Range)
	}

	sentinel := w.sentinel(s, chron)
	if err := w.checkValues(s, chron, sentinel); err != nil {
		return err
	}

	codeWidth := longCode
	if chron {
		codeWidth = shortCode
	}
	code := w.code(s.ID, codeWidth, s.ID)

	if err := w.writeHeader(s); err != nil {
		return err
	}

	var region valueRegion = &rawValues{}
	if chron {
		region = &chronValues{}
	}
	var (
		prefix string
		fields []string
	)
	flush := func() error {
		values, err := joinValues(fields, region)
		if err != nil {
			return w.diags.FatalEncode(s.ID, nil, "row %s: %v", strings.TrimSpace(prefix), err)
		}
		w.buf.WriteString(prefix)
		w.buf.WriteString(values)
		w.buf.WriteByte('\n')
		fields = fields[:0]
		return nil
	}
	rowHeader := func(y calendar.Year) string {
		return code + fmt.Sprintf("%*d", yearWidth, y.Int())
	}
	field := func(v, count int) string {
		if chron {
			return fmt.Sprintf("%*d%*d", chronValueWidth, v, chronCountWidth, count)
		}
		return strconv.Itoa(v)
	}

	y := start
	for _, v := range s.Values {
		if len(fields) == 0 {
			prefix = rowHeader(y)
		}
		fields = append(fields, field(v.Value, countOf(v)))
		if y.Column() == 9 {
			if err := flush(); err != nil {
				return err
			}
		}
		y = y.Add(1)
	}
	if len(fields) == 0 {
		prefix = rowHeader(y)
	}
	fields = append(fields, field(sentinel, 0))
	return flush()
}

func countOf(v series.RingValue) int {
	if v.Count == nil {
		return 1
	}
	return *v.Count
}

// sentinel picks the stop marker for s.
func (w *Writer) sentinel(s *series.Series, chron bool) int {
	if chron {
		return stopChronology
	}
	unit := s.Unit
	if unit == series.UnitUnknown {
		unit = w.defaults.Unit
	}
	switch unit {
	case series.UnitMicrometre:
		return stopMicrometre
	case series.UnitHundredthMM:
		return stopHundredth
	default:
		w.diags.Warnf("series %s: unit %q has no Tucson stop marker; written as 1/100 mm", s.ID, unit)
		return stopHundredth
	}
}

func (w *Writer) checkValues(s *series.Series, chron bool, sentinel int) error {
	missingCounts := false
	for i, v := range s.Values {
		y := s.Range.Start().Add(i)
		if chron {
			if v.Value == sentinel {
				return w.diags.FatalEncode(s.ID, nil, "value %d in %s equals the stop marker", v.Value, y)
			}
			if !fits(v.Value, chronValueWidth) {
				return w.diags.FatalEncode(s.ID, nil, "value %d in %s does not fit %d columns", v.Value, y, chronValueWidth)
			}
			if v.Count == nil {
				missingCounts = true
			} else if !fits(*v.Count, chronCountWidth) {
				return w.diags.FatalEncode(s.ID, nil, "count %d in %s does not fit %d columns", *v.Count, y, chronCountWidth)
			}
			continue
		}
		if v.Value == stopMicrometre {
			return w.diags.FatalEncode(s.ID, nil, "value %d in %s equals the stop marker", v.Value, y)
		}
		if !fits(v.Value, rawFieldWidth) {
			return w.diags.FatalEncode(s.ID, nil, "value %d in %s does not fit %d columns", v.Value, y, rawFieldWidth)
		}
	}
	if missingCounts {
		w.diags.Warnf("series %s: missing sample depths written as 1", s.ID)
	}
	return nil
}

// fits reports whether v prints in width columns.
func fits(v, width int) bool {
	return len(strconv.Itoa(v)) <= width
}

// code returns s transliterated to ASCII and padded or truncated to width.
func (w *Writer) code(s string, width int, id string) string {
	out := w.ascii(s, id, "code")
	if len(out) > width {
		w.diags.Warnf("series %s: code %q truncated to %q", id, out, out[:width])
		out = out[:width]
	}
	return fmt.Sprintf("%-*s", width, out)
}

// field is code for header text: silently truncated, not padded.
func (w *Writer) field(s string, width int, id, name string) string {
	out := w.ascii(s, id, name)
	if len(out) > width {
		out = out[:width]
	}
	return out
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ascii transliterates s to ASCII, replacing characters that have no
// accent-stripped form with '?'.
func (w *Writer) ascii(s, id, name string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	out := strings.Map(func(r rune) rune {
		if r >= 0x80 {
			return '?'
		}
		return r
	}, stripped)
	w.diags.Warnf("series %s: %s %q transliterated to %q", id, name, s, out)
	return out
}

func (w *Writer) writeHeader(s *series.Series) error {
	get := func(key string) string { return w.defaults.Lookup(s, key) }

	site := get(series.AttrSiteCode)
	if site == "" {
		site = s.ID
	}
	siteCode := w.field(site, shortCode, s.ID, "site code")
	name := get(series.AttrSiteName)
	if name == "" {
		name = s.Title
	}
	if name == "" {
		name = s.ID
	}

	l1 := headerLine1{
		SiteCode:    siteCode,
		SiteName:    w.field(name, siteNameWidth, s.ID, "site name"),
		SpeciesCode: w.field(get(series.AttrSpeciesCode), speciesCodeWidth, s.ID, "species code"),
	}

	l2 := headerLine2{
		SiteCode:     siteCode,
		StateCountry: w.field(get(series.AttrStateCountry), stateCountryWidth, s.ID, "state/country"),
		SpeciesName:  w.field(get(series.AttrSpeciesName), speciesNameWidth, s.ID, "species name"),
		RangeStart:   strconv.Itoa(s.Range.Start().Int()),
		RangeEnd:     strconv.Itoa(s.Range.End().Int()),
	}
	if v := get(series.AttrElevation); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && fits(int(f), elevationWidth-1) {
			l2.Elevation = strconv.Itoa(int(f)) + "M"
		} else {
			w.diags.Warnf("series %s: elevation %q not written", s.ID, v)
		}
	}
	lat, long := get(series.AttrLatitude), get(series.AttrLongitude)
	if lat != "" && long != "" {
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(long, 64)
		if err1 == nil && err2 == nil && la >= -90 && la <= 90 && lo >= -180 && lo <= 180 {
			l2.LatLong = cell(formatLatLong(la, lo))
		} else {
			w.diags.Warnf("series %s: coordinates %s,%s not written", s.ID, lat, long)
		}
	}

	date := get(series.AttrCompDate)
	if date != "" && !headerDateFormat.MatchString(date) {
		w.diags.Warnf("series %s: computation date %q not written", s.ID, date)
		date = ""
	}
	l3 := headerLine3{
		SiteCode:     siteCode,
		Investigator: w.field(get(series.AttrInvestigator), investigatorWidth, s.ID, "investigator"),
		CompDate:     date,
	}

	for _, l := range []any{l1, l2, l3} {
		text, err := encodeLine(l)
		if err != nil {
			return w.diags.FatalEncode(s.ID, nil, "header: %v", err)
		}
		w.buf.WriteString(text)
		w.buf.WriteByte('\n')
	}
	return nil
}
