package nsof

import (
	"encoding/binary"
	"io"
)

const xlongEscape = 0xFF

// XLongLen returns the encoded size of v.
func XLongLen(v int32) int {
	if v >= 0 && v < xlongEscape {
		return 1
	}
	return 5
}

// AppendXLong appends the variable-length encoding of v to b.
func AppendXLong(b []byte, v int32) []byte {
	if v >= 0 && v < xlongEscape {
		return append(b, byte(v))
	}
	b = append(b, xlongEscape)
	return binary.BigEndian.AppendUint32(b, uint32(v))
}

// ReadXLong reads one variable-length integer from r.
func ReadXLong(r io.ByteReader) (int32, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if first != xlongEscape {
		return int32(first), nil
	}
	var buf [4]byte
	for i := range buf {
		if buf[i], err = r.ReadByte(); err != nil {
			return 0, err
		}
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}
