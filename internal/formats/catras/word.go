package catras

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// Valid range of a data word value.
const (
	MinWord = -32511
	MaxWord = 32767
)

// Reserved word values.
const (
	// padWord is the wire value of unused data slots.
	padWord = -1
	// endWord terminates the ring values.
	endWord = 999
	// countsEnd terminates the sample depths.
	countsEnd = 0
)

// EncodeWord packs v into two bytes in the given order. Negative values are
// stored one lower so that the wire value -1 stays free for padding.
func EncodeWord(v int, order binary.ByteOrder) ([2]byte, error) {
	var out [2]byte
	if v < MinWord || v > MaxWord {
		return out, fmt.Errorf("value %d outside [%d, %d]", v, MinWord, MaxWord)
	}
	if v < 0 {
		v--
	}
	w, err := safecast.Conv[int16](v)
	if err != nil {
		return out, err
	}
	order.PutUint16(out[:], uint16(w))
	return out, nil
}

// DecodeWord unpacks two bytes. The result for a padding word is -1; any
// other negative wire value is shifted back up by one.
func DecodeWord(b [2]byte, order binary.ByteOrder) int {
	v := wireValue(b, order)
	if v < padWord {
		v++
	}
	return v
}

// wireValue returns the signed word without the negative bias removed.
// Words with the high bit clear are msb*256+lsb; the rest are two's
// complement.
func wireValue(b [2]byte, order binary.ByteOrder) int {
	u := int(order.Uint16(b[:]))
	if u < 0x8000 {
		return u
	}
	return u - 0x10000
}

func isPad(b [2]byte, order binary.ByteOrder) bool {
	return wireValue(b, order) == padWord
}

// putInt16 writes a plain header integer.
func putInt16(buf []byte, v int, order binary.ByteOrder) error {
	w, err := safecast.Conv[int16](v)
	if err != nil {
		return err
	}
	order.PutUint16(buf, uint16(w))
	return nil
}

func getInt16(buf []byte, order binary.ByteOrder) int {
	return int(int16(order.Uint16(buf)))
}
