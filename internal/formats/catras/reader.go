package catras

import (
	"encoding/binary"
	"strconv"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/series"
)

// Decode reads one CATRAS file in the given byte order.
func Decode(data []byte, order binary.ByteOrder, defaults series.Defaults, diags *diag.List) (*series.Series, error) {
	if len(data) < HeaderSize {
		return nil, diags.Fatal(0, "file is %d bytes, shorter than the %d-byte header", len(data), HeaderSize)
	}
	h := decodeHeader(data[:HeaderSize], order, func(field string, raw []byte) {
		diags.Warnf("invalid %s %v ignored", field, raw)
	})

	kind, ok := kindOf(h.Type)
	if !ok {
		diags.Warnf("unknown series type %d read as raw", h.Type)
	}

	s := series.New(h.Code)
	if s.ID == "" {
		s.ID = h.Name
	}
	if s.ID == "" {
		s.ID = series.NewIdentifier(data[:HeaderSize])
		diags.Warnf("series has no code or name; assigned %s", s.ID)
	}
	s.Title = h.Name
	if s.Title == "" {
		s.Title = s.ID
	}
	s.Kind = kind
	if kind.IsDerived() {
		s.Unit = series.UnitIndex
		s.Variable = series.VariableRingWidthIndex
	} else {
		s.Unit = series.UnitHundredthMM
	}

	for _, o := range opaque {
		s.SetPassthrough(o.key, data[o.start:o.end])
	}

	body := data[HeaderSize:]
	if len(body)%2 != 0 {
		diags.Warn("data region has an odd length; last byte ignored")
		body = body[:len(body)-1]
	}
	words := len(body) / 2
	word := func(i int) [2]byte { return [2]byte{body[2*i], body[2*i+1]} }

	var vals []int
	i := 0
	ended := false
	for ; i < words; i++ {
		w := word(i)
		if isPad(w, order) {
			continue
		}
		v := DecodeWord(w, order)
		if v == endWord {
			ended = true
			i++
			break
		}
		if v < MinWord {
			diags.Warnf("value %d at position %d outside the valid range", v, len(vals))
		}
		vals = append(vals, v)
	}
	if !ended {
		diags.Warn("no end-of-values marker; reading to end of file")
	}

	var counts []int
	if ended {
		gapStart := 2 * i
		gapEnd := min(gapStart+gapSize, len(body))
		s.SetPassthrough(gapKey, body[gapStart:gapEnd])
		for j := gapEnd / 2; j < words; j++ {
			w := word(j)
			if isPad(w, order) {
				continue
			}
			c := DecodeWord(w, order)
			if c == countsEnd {
				break
			}
			counts = append(counts, c)
		}
	}

	if n := len(vals); n != h.RingCount {
		if h.RingCount > 0 && n > h.RingCount {
			diags.Warnf("%d values found but header declares %d; extra values dropped", n, h.RingCount)
			vals = vals[:h.RingCount]
			// Depths that matched the untrimmed values follow the same cut.
			if len(counts) == n {
				counts = counts[:h.RingCount]
			}
		} else {
			diags.Warnf("%d values found but header declares %d", n, h.RingCount)
		}
	}

	s.Values = make([]series.RingValue, len(vals))
	for k, v := range vals {
		s.Values[k].Value = v
	}
	switch {
	case len(counts) == len(vals) && len(counts) > 0:
		for k, c := range counts {
			s.Values[k].Count = series.NewCount(c)
		}
	case len(counts) > 0:
		diags.Warnf("%d sample depths for %d values; depths discarded", len(counts), len(vals))
	case kind.IsDerived() && len(vals) > 0:
		diags.Warn("derived series has no sample depths")
	}

	if h.StartYear == 0 {
		s.Dating = calendar.DatingRelative
	} else {
		s.SetRange(calendar.Year(h.StartYear))
	}

	setInt := func(key string, v int) {
		s.SetAttr(key, strconv.Itoa(v))
	}
	s.SetAttr(series.AttrSiteName, h.Name)
	s.SetAttr(series.AttrExtension, h.Extension)
	setInt(series.AttrSapwood, h.Sapwood)
	setInt(series.AttrFirstValid, h.FirstValid)
	setInt(series.AttrLastValid, h.LastValid)
	setInt(series.AttrScope, int(h.Scope))
	setInt(series.AttrLastRing, int(h.LastRing))
	if h.Species != 0 {
		setInt(series.AttrSpeciesCode, h.Species)
	}
	if !h.Created.IsZero() {
		s.SetAttr(series.AttrCreated, h.Created.Format(series.CompDateLayout))
	}
	if !h.Updated.IsZero() {
		s.SetAttr(series.AttrUpdated, h.Updated.Format(series.CompDateLayout))
	}
	s.SetAttr(series.AttrUserID, h.UserID)
	s.SetAttr(series.AttrSourceFormat, Name)
	defaults.Apply(s)
	return s, nil
}
