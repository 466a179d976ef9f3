// Package catras implements the CATRAS binary measurement format.
//
// A file is a 128-byte header followed by 16-bit data words. Ring values
// come first and end with the word 999. Derived series (tree curves and
// chronologies) carry a second stream of sample depths after a 42-byte gap,
// ended by 0. Unused words hold -1.
package catras

import (
	"bytes"
	"encoding/binary"

	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/internal/formats/base"
)

// Name is the registry name of the codec.
const Name = "catras"

// Codec is the CATRAS format codec.
type Codec struct {
	// Order is the byte order of data and header words. Nil means
	// little-endian.
	Order binary.ByteOrder
}

func init() {
	base.Register(&Codec{})
}

func (c *Codec) order() binary.ByteOrder {
	if c.Order == nil {
		return binary.LittleEndian
	}
	return c.Order
}

// Name implements base.Codec.
func (c *Codec) Name() string { return Name }

// Extensions implements base.Codec.
func (c *Codec) Extensions() []string {
	return []string{".cat"}
}

// Sniff reports whether data has the size and header shape of a CATRAS
// file.
func (c *Codec) Sniff(data []byte) bool {
	if len(data) < 2*HeaderSize || len(data)%blockSize != 0 {
		return false
	}
	if data[offType] > typeChronology {
		return false
	}
	if getInt16(data[offRingCount:], c.order()) < 0 {
		return false
	}
	return bytes.IndexByte(data, 0) >= 0 || bytes.IndexByte(data, 0xFF) >= 0
}

// Decode implements base.Codec.
func (c *Codec) Decode(data []byte, defaults series.Defaults, diags *diag.List) ([]*series.Series, error) {
	s, err := Decode(data, c.order(), defaults, diags)
	if err != nil {
		return nil, err
	}
	return []*series.Series{s}, nil
}

// Encode implements base.Codec.
func (c *Codec) Encode(ss []*series.Series, defaults series.Defaults, diags *diag.List) ([]byte, error) {
	return EncodeAll(ss, c.order(), defaults, diags)
}
