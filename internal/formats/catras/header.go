package catras

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/FocuswithJustin/ringconv/core/series"
)

// File layout, 0-based byte offsets.
const (
	HeaderSize = 128
	gapSize    = 42
	blockSize  = 128

	offName      = 0
	offCode      = 32
	offExt       = 40
	offRingCount = 44
	offSapwood   = 46
	offFirst     = 48
	offLast      = 50
	offScope     = 52
	offLastRing  = 53
	offStartYear = 54
	offSpecies   = 60
	offCreated   = 64
	offUpdated   = 67
	offType      = 83
	offUserID    = 84

	nameLen   = 32
	codeLen   = 8
	extLen    = 4
	userIDLen = 4
)

// opaque lists header ranges the codec does not interpret. They travel in
// Series.Passthrough under their key.
var opaque = []struct {
	key        string
	start, end int
}{
	{"catras.header.56", 56, 60},
	{"catras.header.62", 62, 64},
	{"catras.header.70", 70, 83},
	{"catras.header.88", 88, HeaderSize},
}

const gapKey = "catras.gap"

// Series type byte values.
const (
	typeRaw        = 0
	typeTreeCurve  = 1
	typeChronology = 2
)

// Header is the decoded fixed-size file header.
type Header struct {
	Name      string
	Code      string
	Extension string

	RingCount  int
	Sapwood    int
	FirstValid int
	LastValid  int
	Scope      byte
	LastRing   byte

	// StartYear is 0 for undated series.
	StartYear int
	Species   int
	Created   time.Time
	Updated   time.Time
	Type      byte
	UserID    string
}

func kindOf(t byte) (series.Kind, bool) {
	switch t {
	case typeRaw:
		return series.KindRaw, true
	case typeTreeCurve:
		return series.KindTreeCurve, true
	case typeChronology:
		return series.KindChronology, true
	}
	return series.KindRaw, false
}

func typeOf(k series.Kind) byte {
	switch k {
	case series.KindTreeCurve:
		return typeTreeCurve
	case series.KindChronology:
		return typeChronology
	}
	return typeRaw
}

// decodeHeader reads the first HeaderSize bytes of buf. Dates that are not
// real calendar days are reported through bad.
func decodeHeader(buf []byte, order binary.ByteOrder, bad func(field string, raw []byte)) Header {
	h := Header{
		Name:       decodeText(buf[offName : offName+nameLen]),
		Code:       decodeText(buf[offCode : offCode+codeLen]),
		Extension:  decodeText(buf[offExt : offExt+extLen]),
		RingCount:  getInt16(buf[offRingCount:], order),
		Sapwood:    getInt16(buf[offSapwood:], order),
		FirstValid: getInt16(buf[offFirst:], order),
		LastValid:  getInt16(buf[offLast:], order),
		Scope:      buf[offScope],
		LastRing:   buf[offLastRing],
		StartYear:  getInt16(buf[offStartYear:], order),
		Species:    getInt16(buf[offSpecies:], order),
		Type:       buf[offType],
		UserID:     decodeText(buf[offUserID : offUserID+userIDLen]),
	}
	var ok bool
	if h.Created, ok = decodeDate(buf[offCreated : offCreated+3]); !ok {
		bad("creation date", buf[offCreated:offCreated+3])
	}
	if h.Updated, ok = decodeDate(buf[offUpdated : offUpdated+3]); !ok {
		bad("update date", buf[offUpdated:offUpdated+3])
	}
	return h
}

// decodeText converts CP437 bytes to a string without padding.
func decodeText(b []byte) string {
	s, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		s = b
	}
	return strings.TrimRight(string(s), " \x00")
}

// encodeText writes s into dst as CP437, space padded. It reports false if
// characters were replaced or the text was truncated.
func encodeText(dst []byte, s string) bool {
	clean := true
	var enc []byte
	for _, r := range s {
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok {
			b = '?'
			clean = false
		}
		enc = append(enc, b)
	}
	if len(enc) > len(dst) {
		enc = enc[:len(dst)]
		clean = false
	}
	n := copy(dst, enc)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
	return clean
}

// decodeDate reads day, month, year-1900. All zero means no date.
func decodeDate(b []byte) (time.Time, bool) {
	day, month, year := int(b[0]), int(b[1]), int(b[2])
	if day == 0 && month == 0 && year == 0 {
		return time.Time{}, true
	}
	t := time.Date(1900+year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func encodeDate(dst []byte, t time.Time) error {
	if t.IsZero() {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return nil
	}
	y := t.Year() - 1900
	if y < 0 || y > 255 {
		return fmt.Errorf("year %d outside 1900-2155", t.Year())
	}
	dst[0], dst[1], dst[2] = byte(t.Day()), byte(t.Month()), byte(y)
	return nil
}

// dataRegion returns the size of the data region for n values.
func dataRegion(n int, derived bool) int {
	block := (2*(n+1) + blockSize - 1) / blockSize * blockSize
	if derived {
		return 3 * block
	}
	return block
}
