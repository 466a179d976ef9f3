package catras

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
)

// Encode renders a single series as a CATRAS file.
func Encode(s *series.Series, order binary.ByteOrder, defaults series.Defaults, diags *diag.List) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, diags.FatalEncode(s.ID, err, "invalid series: %v", err)
	}
	n := len(s.Values)
	if n > MaxWord {
		return nil, diags.FatalEncode(s.ID, nil, "%d values exceed the ring count field", n)
	}
	for i, v := range s.Values {
		if v.Value == endWord {
			return nil, diags.FatalEncode(s.ID, nil, "value %d at position %d collides with the end marker", v.Value, i)
		}
		if v.Value < MinWord || v.Value > MaxWord {
			return nil, diags.FatalEncode(s.ID, nil, "value %d at position %d outside [%d, %d]", v.Value, i, MinWord, MaxWord)
		}
	}
	if !s.Kind.IsDerived() && s.Unit == series.UnitMicrometre {
		diags.Warnf("series %s: micrometre values written unscaled; CATRAS readers assume 1/100 mm", s.ID)
	}

	derived := s.Kind.IsDerived()
	out := make([]byte, HeaderSize+dataRegion(n, derived))
	if err := encodeHeader(out[:HeaderSize], s, order, defaults, diags); err != nil {
		return nil, err
	}

	body := out[HeaderSize:]
	// The padding word -1 is 0xFFFF in either byte order.
	for i := range body {
		body[i] = 0xFF
	}

	pos := 0
	put := func(v int) error {
		w, err := EncodeWord(v, order)
		if err != nil {
			return err
		}
		copy(body[pos:], w[:])
		pos += 2
		return nil
	}
	for _, v := range s.Values {
		if err := put(v.Value); err != nil {
			return nil, diags.FatalEncode(s.ID, nil, "%v", err)
		}
	}
	if err := put(endWord); err != nil {
		return nil, diags.FatalEncode(s.ID, nil, "end-of-values marker: %v", err)
	}

	if !derived {
		return out, nil
	}

	if gap := s.Passthrough[gapKey]; len(gap) == gapSize {
		copy(body[pos:], gap)
	}
	pos += gapSize

	fixed := 0
	for _, v := range s.Values {
		c := 1
		if v.Count != nil && *v.Count > 0 {
			c = *v.Count
		} else {
			fixed++
		}
		if err := put(c); err != nil {
			return nil, diags.FatalEncode(s.ID, nil, "sample depth: %v", err)
		}
	}
	if fixed > 0 {
		diags.Warnf("series %s: %d missing or zero sample depths written as 1", s.ID, fixed)
	}
	if err := put(countsEnd); err != nil {
		return nil, diags.FatalEncode(s.ID, nil, "end-of-depths marker: %v", err)
	}
	return out, nil
}

func encodeHeader(buf []byte, s *series.Series, order binary.ByteOrder, defaults series.Defaults, diags *diag.List) error {
	for _, o := range opaque {
		if p := s.Passthrough[o.key]; len(p) == o.end-o.start {
			copy(buf[o.start:o.end], p)
		}
	}

	name := s.Title
	if name == "" {
		name = defaults.Lookup(s, series.AttrSiteName)
	}
	text := func(dst []byte, v, field string) {
		if !encodeText(dst, v) {
			diags.Warnf("series %s: %s %q shortened or transliterated", s.ID, field, v)
		}
	}
	text(buf[offName:offName+nameLen], name, "name")
	text(buf[offCode:offCode+codeLen], s.ID, "code")
	text(buf[offExt:offExt+extLen], s.Attr(series.AttrExtension), "extension")
	text(buf[offUserID:offUserID+userIDLen], defaults.Lookup(s, series.AttrUserID), "user id")

	n := len(s.Values)
	attrInt := func(key string, def int) int {
		v := s.Attr(key)
		if v == "" {
			return def
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			diags.Warnf("series %s: %s %q is not a number; written as %d", s.ID, key, v, def)
			return def
		}
		return i
	}

	start := 0
	if s.IsDated() {
		start = s.Range.Start().Int()
	}
	ints := []struct {
		off   int
		v     int
		field string
	}{
		{offRingCount, n, "ring count"},
		{offSapwood, attrInt(series.AttrSapwood, 0), "sapwood count"},
		{offFirst, attrInt(series.AttrFirstValid, 1), "first valid ring"},
		{offLast, attrInt(series.AttrLastValid, n), "last valid ring"},
		{offStartYear, start, "start year"},
		{offSpecies, speciesCode(defaults.Lookup(s, series.AttrSpeciesCode)), "species code"},
	}
	for _, f := range ints {
		if err := putInt16(buf[f.off:], f.v, order); err != nil {
			return diags.FatalEncode(s.ID, nil, "%s %d does not fit the header: %v", f.field, f.v, err)
		}
	}

	buf[offScope] = byteAttr(s, series.AttrScope, diags)
	buf[offLastRing] = byteAttr(s, series.AttrLastRing, diags)
	buf[offType] = typeOf(s.Kind)

	dates := []struct {
		off int
		key string
	}{
		{offCreated, series.AttrCreated},
		{offUpdated, series.AttrUpdated},
	}
	for _, d := range dates {
		v := s.Attr(d.key)
		if v == "" && d.key == series.AttrCreated {
			v = defaults.Lookup(s, series.AttrCompDate)
		}
		if v == "" {
			continue
		}
		t, err := time.Parse(series.CompDateLayout, v)
		if err == nil {
			err = encodeDate(buf[d.off:d.off+3], t)
		}
		if err != nil {
			diags.Warnf("series %s: %s %q not written: %v", s.ID, d.key, v, err)
		}
	}
	return nil
}

// speciesCode returns the numeric CATRAS species code, 0 when v is not one.
func speciesCode(v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return i
}

func byteAttr(s *series.Series, key string, diags *diag.List) byte {
	v := s.Attr(key)
	if v == "" {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 || i > 255 {
		diags.Warnf("series %s: %s %q not written", s.ID, key, v)
		return 0
	}
	return byte(i)
}

// EncodeAll renders ss, which must hold exactly one series.
func EncodeAll(ss []*series.Series, order binary.ByteOrder, defaults series.Defaults, diags *diag.List) ([]byte, error) {
	switch len(ss) {
	case 0:
		return nil, diags.FatalEncode("", errors.ErrInvalidInput, "no series to write")
	case 1:
		return Encode(ss[0], order, defaults, diags)
	}
	return nil, diags.FatalEncode(ss[1].ID, errors.ErrUnsupported,
		"CATRAS files hold one series; got %d", len(ss))
}
