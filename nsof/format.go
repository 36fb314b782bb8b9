package nsof

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

// Version is the stream version byte written before the first object.
const Version byte = 2

// Object tags.
const (
	tagImmediate        byte = 0
	tagCharacter        byte = 1
	tagUnicodeCharacter byte = 2
	tagBinary           byte = 3
	tagArray            byte = 4
	tagPlainArray       byte = 5
	tagFrame            byte = 6
	tagSymbol           byte = 7
	tagString           byte = 8
	tagPrecedent        byte = 9
	tagNil              byte = 10
	tagSmallRect        byte = 11
	tagLargeBinary      byte = 12
)

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// EncodeText returns s as big-endian UTF-16 followed by a two-byte
// terminator.
func EncodeText(s string) ([]byte, error) {
	b, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "nsof: encode utf-16")
	}
	return append(b, 0, 0), nil
}

// DecodeText is the inverse of EncodeText. A missing terminator is
// tolerated.
func DecodeText(b []byte) (string, error) {
	if n := len(b); n >= 2 && b[n-2] == 0 && b[n-1] == 0 {
		b = b[:n-2]
	}
	if len(b)%2 != 0 {
		return "", errors.Wrap(ErrUnexpectedEndOfInput, "odd utf-16 length")
	}
	s, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "nsof: decode utf-16")
	}
	return string(s), nil
}

// Marshal encodes o as a complete stream, version byte included.
func Marshal(o Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the first object of a complete stream.
func Unmarshal(data []byte) (Object, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}
