package tucson

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/series"
)

const compDateLayout = series.CompDateLayout

// Header is the metadata carried by a three-line Tucson header.
type Header struct {
	SiteCode     string
	SiteName     string
	SpeciesCode  string
	StateCountry string
	SpeciesName  string
	// Elevation in metres, nil when absent or unreadable.
	Elevation *float64
	// Latitude and Longitude in decimal degrees.
	Latitude  *float64
	Longitude *float64
	// DeclaredRange is the range stated on line 2; empty when absent.
	DeclaredRange calendar.YearRange
	Investigator  string
	CompDate      time.Time
}

// headerLine is a header line waiting for the rest of its triple.
type headerLine struct {
	number int
	line   Line
}

// parseHeader decodes a complete triple. Unreadable optional fields are
// dropped with a warning.
func parseHeader(lines [3]headerLine, diags *diag.List) *Header {
	var (
		l1 headerLine1
		l2 headerLine2
		l3 headerLine3
	)
	for i, dst := range []any{&l1, &l2, &l3} {
		if err := decodeLine(lines[i].line.Text, dst); err != nil {
			diags.WarnLine(lines[i].number, "unreadable header line: %v", err)
		}
	}

	h := &Header{
		SiteCode:      strings.TrimSpace(l1.SiteCode),
		SiteName:      strings.TrimSpace(l1.SiteName),
		SpeciesCode:   strings.TrimSpace(l1.SpeciesCode),
		StateCountry:  strings.TrimSpace(l2.StateCountry),
		SpeciesName:   strings.TrimSpace(l2.SpeciesName),
		Investigator:  strings.TrimSpace(l3.Investigator),
		DeclaredRange: calendar.EmptyRange,
	}

	for i, code := range []string{l2.SiteCode, l3.SiteCode} {
		if code = strings.TrimSpace(code); code != h.SiteCode {
			diags.WarnLine(lines[i+1].number, "header line carries site code %q, expected %q", code, h.SiteCode)
		}
	}

	if f := strings.TrimSpace(l2.Elevation); f != "" {
		if v, err := parseElevation(f); err == nil {
			h.Elevation = &v
		} else {
			diags.WarnLine(lines[1].number, "unreadable elevation %q ignored", f)
		}
	}
	if f := string(l2.LatLong); strings.TrimSpace(f) != "" {
		if lat, long, err := parseLatLong(f); err == nil {
			h.Latitude, h.Longitude = &lat, &long
		} else {
			diags.WarnLine(lines[1].number, "unreadable coordinates %q ignored", strings.TrimSpace(f))
		}
	}
	if start, end := strings.TrimSpace(l2.RangeStart), strings.TrimSpace(l2.RangeEnd); start != "" || end != "" {
		if r, err := parseDeclaredRange(start, end); err == nil {
			h.DeclaredRange = r
		} else {
			diags.WarnLine(lines[1].number, "unreadable year range %q ignored", strings.TrimSpace(start+" "+end))
		}
	}
	if f := strings.TrimSpace(l3.CompDate); f != "" {
		if d, err := time.Parse(compDateLayout, f); err == nil {
			h.CompDate = d
		} else {
			diags.WarnLine(lines[2].number, "unreadable computation date %q ignored", f)
		}
	}
	return h
}

// Apply copies header fields into s without overwriting existing values.
func (h *Header) Apply(s *series.Series) {
	set := func(k, v string) {
		if s.Attr(k) == "" {
			s.SetAttr(k, v)
		}
	}
	set(series.AttrSiteCode, h.SiteCode)
	set(series.AttrSiteName, h.SiteName)
	set(series.AttrSpeciesCode, h.SpeciesCode)
	set(series.AttrStateCountry, h.StateCountry)
	set(series.AttrSpeciesName, h.SpeciesName)
	set(series.AttrInvestigator, h.Investigator)
	if h.Elevation != nil {
		set(series.AttrElevation, formatFloat(*h.Elevation))
	}
	if h.Latitude != nil {
		set(series.AttrLatitude, formatFloat(*h.Latitude))
		set(series.AttrLongitude, formatFloat(*h.Longitude))
	}
	if !h.DeclaredRange.IsEmpty() {
		set(series.AttrDeclaredRange, fmt.Sprintf("%d %d", h.DeclaredRange.Start(), h.DeclaredRange.End()))
	}
	if !h.CompDate.IsZero() {
		set(series.AttrCompDate, h.CompDate.Format(compDateLayout))
	}
	if s.Title == "" {
		s.Title = h.SiteName
	}
}

func parseElevation(f string) (float64, error) {
	f = strings.TrimRight(strings.ToLower(f), "m")
	return strconv.ParseFloat(strings.TrimSpace(f), 64)
}

// parseLatLong reads "sddmmsdddmm": a signed 4-digit latitude followed by
// a signed 5-digit longitude, both in degrees and minutes.
func parseLatLong(f string) (lat, long float64, err error) {
	if len(f) != latLongWidth {
		return 0, 0, fmt.Errorf("want %d columns, got %d", latLongWidth, len(f))
	}
	lat, err = parseDegMin(f[:5], 2)
	if err != nil {
		return 0, 0, err
	}
	long, err = parseDegMin(f[5:], 3)
	if err != nil {
		return 0, 0, err
	}
	if math.Abs(lat) > 90 || math.Abs(long) > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range")
	}
	return lat, long, nil
}

func parseDegMin(f string, degDigits int) (float64, error) {
	sign := 1.0
	switch f[0] {
	case '-', 'S', 's', 'W', 'w':
		sign = -1
	case '+', ' ', 'N', 'n', 'E', 'e':
	default:
		return 0, fmt.Errorf("bad hemisphere %q", f[0])
	}
	digits := f[1:]
	deg, err := strconv.Atoi(digits[:degDigits])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(digits[degDigits:])
	if err != nil || mins >= 60 {
		return 0, fmt.Errorf("bad minutes %q", digits[degDigits:])
	}
	return sign * (float64(deg) + float64(mins)/60), nil
}

// parseDeclaredRange reads the two year columns of header line 2.
func parseDeclaredRange(start, end string) (calendar.YearRange, error) {
	r, err := calendar.ParseRange(start + " - " + end)
	if err != nil {
		return calendar.EmptyRange, err
	}
	if r.IsEmpty() {
		return r, fmt.Errorf("range %s - %s ends before it starts", start, end)
	}
	return r, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatLatLong is the inverse of parseLatLong. Minutes are rounded.
func formatLatLong(lat, long float64) string {
	return formatDegMin(lat, 4) + formatDegMin(long, 5)
}

func formatDegMin(v float64, digits int) string {
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	total := int(math.Round(v * 60))
	deg, mins := total/60, total%60
	return fmt.Sprintf("%s%0*d%02d", sign, digits-2, deg, mins)
}
