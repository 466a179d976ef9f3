package tucson

import (
	"fmt"
	"strings"

	"github.com/ianlopshire/go-fixedwidth"
)

// lineWidth is the widest Tucson line. Shorter lines are padded to it
// before decoding so every column reads as text or blanks.
const lineWidth = 80

// cell is a field kept exactly as it appears in its columns. Marshalled
// cells are right-aligned.
type cell string

func (c *cell) UnmarshalFixedWidth(data []byte) error {
	*c = cell(data)
	return nil
}

func (c cell) MarshalFixedWidth(width int) ([]byte, error) {
	return []byte(fmt.Sprintf("%*s", width, string(c))), nil
}

// Header line layouts. Columns are 1-based and inclusive; columns 7-9
// are blank on all three lines.
type headerLine1 struct {
	SiteCode    string `fixed:"1,6"`
	SiteName    string `fixed:"10,61"`
	SpeciesCode string `fixed:"62,65"`
}

type headerLine2 struct {
	SiteCode     string `fixed:"1,6"`
	StateCountry string `fixed:"10,22"`
	SpeciesName  string `fixed:"23,40"`
	Elevation    string `fixed:"41,45,right"`
	LatLong      cell   `fixed:"48,58"`
	RangeStart   string `fixed:"67,71,right"`
	RangeEnd     string `fixed:"72,76,right"`
}

type headerLine3 struct {
	SiteCode     string `fixed:"1,6"`
	Investigator string `fixed:"10,72"`
	CompDate     string `fixed:"73,80"`
}

// Header field widths.
const (
	siteNameWidth     = 52
	speciesCodeWidth  = 4
	stateCountryWidth = 13
	speciesNameWidth  = 18
	elevationWidth    = 5
	latLongWidth      = 11
	investigatorWidth = 63
)

// rawValues is the value region of a ring-width line, following the code
// and year marker.
type rawValues struct {
	V0 cell `fixed:"1,6"`
	V1 cell `fixed:"7,12"`
	V2 cell `fixed:"13,18"`
	V3 cell `fixed:"19,24"`
	V4 cell `fixed:"25,30"`
	V5 cell `fixed:"31,36"`
	V6 cell `fixed:"37,42"`
	V7 cell `fixed:"43,48"`
	V8 cell `fixed:"49,54"`
	V9 cell `fixed:"55,60"`
}

func (v *rawValues) cells() []*cell {
	return []*cell{&v.V0, &v.V1, &v.V2, &v.V3, &v.V4, &v.V5, &v.V6, &v.V7, &v.V8, &v.V9}
}

// chronValues is the value region of a chronology line: a 4-column value
// and a 3-column sample depth per year.
type chronValues struct {
	V0 cell `fixed:"1,7"`
	V1 cell `fixed:"8,14"`
	V2 cell `fixed:"15,21"`
	V3 cell `fixed:"22,28"`
	V4 cell `fixed:"29,35"`
	V5 cell `fixed:"36,42"`
	V6 cell `fixed:"43,49"`
	V7 cell `fixed:"50,56"`
	V8 cell `fixed:"57,63"`
	V9 cell `fixed:"64,70"`
}

func (v *chronValues) cells() []*cell {
	return []*cell{&v.V0, &v.V1, &v.V2, &v.V3, &v.V4, &v.V5, &v.V6, &v.V7, &v.V8, &v.V9}
}

type valueRegion interface {
	cells() []*cell
}

func padLine(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return text + strings.Repeat(" ", width-len(text))
}

// decodeLine unmarshals one line into the layout v.
func decodeLine(text string, v any) error {
	return fixedwidth.Unmarshal([]byte(padLine(text, lineWidth)), v)
}

// encodeLine marshals the layout v without trailing blanks.
func encodeLine(v any) (string, error) {
	b, err := fixedwidth.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), " \r\n"), nil
}

// splitValues decodes the value region rest into fields of width columns.
// A trailing partial field keeps its actual length.
func splitValues(rest string, width int, region valueRegion) ([]string, error) {
	n := (len(rest) + width - 1) / width
	if n == 0 || n > fieldsPerLine {
		return nil, fmt.Errorf("%d value fields", n)
	}
	if err := fixedwidth.Unmarshal([]byte(padLine(rest, fieldsPerLine*width)), region); err != nil {
		return nil, err
	}
	fields := make([]string, n)
	for i, c := range region.cells()[:n] {
		fields[i] = string(*c)
	}
	if tail := len(rest) % width; tail != 0 {
		fields[n-1] = fields[n-1][:tail]
	}
	return fields, nil
}

// joinValues renders fields into the value region, each right-aligned in
// its columns. Cells past the last field are cleared.
func joinValues(fields []string, region valueRegion) (string, error) {
	cells := region.cells()
	if len(fields) > len(cells) {
		return "", fmt.Errorf("%d value fields", len(fields))
	}
	for i, c := range cells {
		*c = ""
		if i < len(fields) {
			*c = cell(fields[i])
		}
	}
	return encodeLine(region)
}
