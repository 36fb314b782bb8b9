package nsof

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Encoder writes objects to a sink. The version byte is written once,
// before the first object.
type Encoder struct {
	w            io.Writer
	wroteVersion bool
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes o. Every heap object reachable from o is written once;
// later occurrences become precedents, so shared and cyclic graphs are
// preserved and always terminate.
func (e *Encoder) Encode(o Object) error {
	s := encodeState{ids: make(map[Object]int32)}
	if !e.wroteVersion {
		s.buf = append(s.buf, Version)
	}
	if err := s.write(o); err != nil {
		return err
	}
	if _, err := e.w.Write(s.buf); err != nil {
		return errors.Wrap(err, "nsof: write")
	}
	e.wroteVersion = true
	return nil
}

// encodeState holds the precedent table of one Encode call. Keys are
// object identities, so two equal but distinct strings stay distinct.
type encodeState struct {
	buf []byte
	ids map[Object]int32
}

func (s *encodeState) xlong(v int32) {
	s.buf = AppendXLong(s.buf, v)
}

func (s *encodeState) write(o Object) error {
	if isNilObject(o) {
		s.buf = append(s.buf, tagNil)
		return nil
	}
	if isHeap(o) {
		if id, ok := s.ids[o]; ok {
			s.buf = append(s.buf, tagPrecedent)
			s.xlong(id)
			return nil
		}
		// reserve before descending so back-references to o resolve
		s.ids[o] = int32(len(s.ids))
	}

	switch v := o.(type) {
	case Immediate:
		s.buf = append(s.buf, tagImmediate)
		s.xlong(int32(v))
	case Character:
		s.buf = append(s.buf, tagCharacter, byte(v))
	case UnicodeCharacter:
		s.buf = append(s.buf, tagUnicodeCharacter)
		s.buf = binary.BigEndian.AppendUint16(s.buf, uint16(v))
	case Nil:
		s.buf = append(s.buf, tagNil)
	case *Binary:
		s.buf = append(s.buf, tagBinary)
		s.xlong(int32(len(v.Data)))
		if err := s.write(v.Class); err != nil {
			return err
		}
		s.buf = append(s.buf, v.Data...)
	case *LargeBinary:
		return s.writeLargeBinary(v)
	case *Array:
		if v.Class == nil {
			s.buf = append(s.buf, tagPlainArray)
			s.xlong(int32(len(v.Slots)))
		} else {
			s.buf = append(s.buf, tagArray)
			s.xlong(int32(len(v.Slots)))
			if err := s.write(v.Class); err != nil {
				return err
			}
		}
		for _, slot := range v.Slots {
			if err := s.write(slot); err != nil {
				return err
			}
		}
	case *Frame:
		s.buf = append(s.buf, tagFrame)
		s.xlong(int32(len(v.Slots)))
		for i, slot := range v.Slots {
			if slot.Key == nil {
				return errors.Wrapf(ErrUnencodable, "frame slot %d has no key", i)
			}
			if err := s.write(slot.Key); err != nil {
				return err
			}
		}
		for _, slot := range v.Slots {
			if err := s.write(slot.Value); err != nil {
				return err
			}
		}
	case *Symbol:
		for i := 0; i < len(v.Name); i++ {
			if v.Name[i] >= 0x80 {
				return errors.Wrapf(ErrUnencodable, "symbol %q is not ascii", v.Name)
			}
		}
		s.buf = append(s.buf, tagSymbol)
		s.xlong(int32(len(v.Name)))
		s.buf = append(s.buf, v.Name...)
	case *String:
		text, err := EncodeText(v.Value)
		if err != nil {
			return err
		}
		s.buf = append(s.buf, tagString)
		s.xlong(int32(len(text)))
		s.buf = append(s.buf, text...)
	case *SmallRect:
		s.buf = append(s.buf, tagSmallRect, v.Top, v.Left, v.Bottom, v.Right)
	default:
		return errors.Wrapf(ErrUnencodable, "%T", o)
	}
	return nil
}

func (s *encodeState) writeLargeBinary(v *LargeBinary) error {
	s.buf = append(s.buf, tagLargeBinary)
	if err := s.write(v.Class); err != nil {
		return err
	}
	var compressed byte
	if v.Compressed {
		compressed = 1
	}
	s.buf = append(s.buf, compressed)
	s.buf = binary.BigEndian.AppendUint32(s.buf, uint32(len(v.Data)))
	s.buf = binary.BigEndian.AppendUint32(s.buf, uint32(len(v.Compander)))
	s.buf = binary.BigEndian.AppendUint32(s.buf, uint32(len(v.Params)))
	s.buf = binary.BigEndian.AppendUint32(s.buf, 0)
	s.buf = append(s.buf, v.Compander...)
	s.buf = append(s.buf, v.Params...)
	s.buf = append(s.buf, v.Data...)
	return nil
}

// isNilObject reports whether o is a nil interface or a nil pointer of a
// heap kind; both are written as the nil object.
func isNilObject(o Object) bool {
	switch v := o.(type) {
	case nil:
		return true
	case *Binary:
		return v == nil
	case *LargeBinary:
		return v == nil
	case *Array:
		return v == nil
	case *Frame:
		return v == nil
	case *Symbol:
		return v == nil
	case *String:
		return v == nil
	case *SmallRect:
		return v == nil
	}
	return false
}
