package tucson

import (
	"regexp"
	"strings"
	"time"
)

// Column layout of Tucson lines. Offsets are 0-based and half-open.
const (
	shortCode = 6
	longCode  = 8
	yearWidth = 4

	rawFieldWidth   = 6
	chronValueWidth = 4
	chronCountWidth = 3
	chronFieldWidth = chronValueWidth + chronCountWidth

	fieldsPerLine = 10

	// minLineLength is the shortest line that can hold a code, the blank
	// separator and any content.
	minLineLength = 10
)

// Sentinel values.
const (
	stopHundredth  = 999
	stopMicrometre = -9999
	stopChronology = 9990
	missingRing    = -999
	placeholder    = "."
)

// LineKind is the structural classification of one input line.
type LineKind int

// Line kinds.
const (
	LineNonData LineKind = iota
	LineHeader1
	LineHeader2
	LineHeader3
	LineRaw
	LineRawPartial
	LineChron
	LineChronPartial
)

func (k LineKind) String() string {
	switch k {
	case LineHeader1:
		return "HEADER_LINE1"
	case LineHeader2:
		return "HEADER_LINE2"
	case LineHeader3:
		return "HEADER_LINE3"
	case LineRaw:
		return "RWL_DATA"
	case LineRawPartial:
		return "RWL_DATA_PARTIAL"
	case LineChron:
		return "CRN_DATA"
	case LineChronPartial:
		return "CRN_DATA_PARTIAL"
	default:
		return "NON_DATA"
	}
}

// IsHeader reports whether k is one of the three header lines.
func (k LineKind) IsHeader() bool {
	return k == LineHeader1 || k == LineHeader2 || k == LineHeader3
}

// IsRaw reports whether k is a ring-width data line.
func (k LineKind) IsRaw() bool {
	return k == LineRaw || k == LineRawPartial
}

// IsChron reports whether k is a chronology data line.
func (k LineKind) IsChron() bool {
	return k == LineChron || k == LineChronPartial
}

// Line is a classified input line.
type Line struct {
	Kind LineKind
	// Text is the line with trailing blanks removed.
	Text string

	// Data line fields; empty for other kinds.
	Code      string
	CodeWidth int
	Marker    string
	// Fields are the fixed-width value fields. A chronology line whose last
	// value has no count field carries that value as a 4-character field.
	Fields []string
}

var (
	markerPattern     = regexp.MustCompile(`^ *-?\d+$`)
	numberPattern     = regexp.MustCompile(`^ *-?\d+$`)
	countPattern      = regexp.MustCompile(`^ *\d+$`)
	placeholderField  = regexp.MustCompile(`^ *\.$`)
	yearField         = regexp.MustCompile(`^-?\d+$`)
	headerDateFormat  = regexp.MustCompile(`^\d{8}$`)
)

// Classify determines the kind of a line from its structure alone. The
// cascade runs cheap length checks first, then chronology patterns, then
// ring-width patterns (each probing the 8-character code before the
// 6-character one), then header patterns.
func Classify(raw string) Line {
	text := strings.TrimRight(raw, " \t\r\n")
	line := Line{Kind: LineNonData, Text: text}

	if len(text) < minLineLength || strings.TrimSpace(text[:shortCode]) == "" {
		return line
	}

	for _, width := range []int{longCode, shortCode} {
		if l, ok := matchChron(text, width); ok {
			return l
		}
	}
	for _, width := range []int{longCode, shortCode} {
		if l, ok := matchRaw(text, width); ok {
			return l
		}
	}

	if text[shortCode:shortCode+3] != "   " || strings.TrimSpace(text[shortCode+3:]) == "" {
		return line
	}
	switch {
	case isHeader3(text):
		line.Kind = LineHeader3
	case isHeader2(text):
		line.Kind = LineHeader2
	default:
		line.Kind = LineHeader1
	}
	line.Code = strings.TrimSpace(text[:shortCode])
	return line
}

// splitPrefix slices the code and year marker for a code width, reporting
// false when the marker columns do not hold a number.
func splitPrefix(text string, codeWidth int) (code, marker, rest string, ok bool) {
	if len(text) <= codeWidth+yearWidth {
		return "", "", "", false
	}
	code = text[:codeWidth]
	marker = text[codeWidth : codeWidth+yearWidth]
	if strings.TrimSpace(code) == "" || !markerPattern.MatchString(marker) {
		return "", "", "", false
	}
	return strings.TrimSpace(code), marker, text[codeWidth+yearWidth:], true
}

func matchRaw(text string, codeWidth int) (Line, bool) {
	code, marker, rest, ok := splitPrefix(text, codeWidth)
	if !ok || len(rest)%rawFieldWidth != 0 {
		return Line{}, false
	}
	fields, err := splitValues(rest, rawFieldWidth, &rawValues{})
	if err != nil {
		return Line{}, false
	}
	for _, f := range fields {
		if !numberPattern.MatchString(f) && !placeholderField.MatchString(f) {
			return Line{}, false
		}
	}
	kind := LineRawPartial
	if len(fields) == fieldsPerLine {
		kind = LineRaw
	}
	return Line{Kind: kind, Text: text, Code: code, CodeWidth: codeWidth, Marker: marker, Fields: fields}, true
}

func matchChron(text string, codeWidth int) (Line, bool) {
	code, marker, rest, ok := splitPrefix(text, codeWidth)
	if !ok {
		return Line{}, false
	}
	if tail := len(rest) % chronFieldWidth; tail != 0 && tail != chronValueWidth {
		return Line{}, false
	}
	fields, err := splitValues(rest, chronFieldWidth, &chronValues{})
	if err != nil {
		return Line{}, false
	}
	full := 0
	for _, f := range fields {
		if len(f) < chronFieldWidth {
			// A value without its count field.
			if !numberPattern.MatchString(f) {
				return Line{}, false
			}
			continue
		}
		full++
		if placeholderField.MatchString(f) {
			continue
		}
		if !numberPattern.MatchString(f[:chronValueWidth]) || !countPattern.MatchString(f[chronValueWidth:]) {
			return Line{}, false
		}
	}

	kind := LineChronPartial
	if full == fieldsPerLine {
		kind = LineChron
	}
	return Line{Kind: kind, Text: text, Code: code, CodeWidth: codeWidth, Marker: marker, Fields: fields}, true
}

// isHeader2 reports whether the range columns of line 2 hold two years.
func isHeader2(text string) bool {
	var l headerLine2
	if err := decodeLine(text, &l); err != nil {
		return false
	}
	return yearField.MatchString(strings.TrimSpace(l.RangeStart)) && yearField.MatchString(strings.TrimSpace(l.RangeEnd))
}

// isHeader3 reports whether line 3 ends in a yyyyMMdd computation date.
func isHeader3(text string) bool {
	var l headerLine3
	if err := decodeLine(text, &l); err != nil {
		return false
	}
	date := strings.TrimSpace(l.CompDate)
	if !headerDateFormat.MatchString(date) {
		return false
	}
	_, err := time.Parse(compDateLayout, date)
	return err == nil
}
