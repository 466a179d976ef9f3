// Package tucson implements the Tucson decadal text formats: RWL files of
// raw ring widths and CRN files of chronology indices with sample depths.
//
// Each data line holds a series code, a 4-column year marker and up to ten
// values, one per year of a decade. A series ends at a stop marker: 999
// (1/100 mm) or -9999 (micrometres) for ring widths, 9990 for chronologies.
// An optional three-line header precedes the data of a site.
package tucson

import (
	"bufio"
	"bytes"

	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/internal/formats/base"
)

// Name is the registry name of the codec.
const Name = "tucson"

// sniffLines is how many non-blank lines Sniff examines.
const sniffLines = 20

// Codec is the Tucson format codec.
type Codec struct{}

func init() {
	base.Register(&Codec{})
}

// Name implements base.Codec.
func (c *Codec) Name() string { return Name }

// Extensions implements base.Codec.
func (c *Codec) Extensions() []string {
	return []string{".rwl", ".crn", ".tuc"}
}

// Sniff reports whether data contains Tucson data lines near its start.
func (c *Codec) Sniff(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	seen := 0
	for sc.Scan() && seen < sniffLines {
		text := sc.Text()
		if len(bytes.TrimSpace([]byte(text))) == 0 {
			continue
		}
		seen++
		k := Classify(text).Kind
		if k.IsRaw() || k.IsChron() {
			return true
		}
	}
	return false
}

// Decode implements base.Codec.
func (c *Codec) Decode(data []byte, defaults series.Defaults, diags *diag.List) ([]*series.Series, error) {
	return Decode(data, defaults, diags)
}

// Encode implements base.Codec.
func (c *Codec) Encode(ss []*series.Series, defaults series.Defaults, diags *diag.List) ([]byte, error) {
	return Encode(ss, defaults, diags)
}
