package nsof

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Decoder reads objects from a source. The version byte is consumed once,
// before the first object.
type Decoder struct {
	r           byteReader
	readVersion bool
}

// NewDecoder returns a decoder reading from r. Sources that are not
// io.ByteReaders are buffered and may be read past the last object.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

// Decode reads the next object. Precedents resolve to the very instance
// introduced earlier in the same object, which reproduces sharing and
// cycles.
func (d *Decoder) Decode() (Object, error) {
	if !d.readVersion {
		v, err := d.r.ReadByte()
		if err != nil {
			return nil, eofError(err)
		}
		if v != Version {
			return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", v)
		}
		d.readVersion = true
	}
	s := decodeState{r: d.r}
	return s.read()
}

// decodeState holds the precedent table of one Decode call. Ids are
// assigned in introduction order starting at 0, and an object is entered
// before its body is read.
type decodeState struct {
	r     byteReader
	table []Object
}

func eofError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrUnexpectedEndOfInput
	}
	return err
}

func (s *decodeState) register(o Object) {
	s.table = append(s.table, o)
}

func (s *decodeState) byte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, eofError(err)
	}
	return b, nil
}

func (s *decodeState) xlong() (int32, error) {
	v, err := ReadXLong(s.r)
	if err != nil {
		return 0, eofError(err)
	}
	return v, nil
}

func (s *decodeState) count() (int, error) {
	n, err := s.xlong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Wrapf(ErrUnexpectedEndOfInput, "negative length %d", n)
	}
	return int(n), nil
}

func (s *decodeState) bytes(n int) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(s.r, int64(n)))
	if err != nil {
		return nil, eofError(err)
	}
	if len(b) != n {
		return nil, errors.Wrapf(ErrUnexpectedEndOfInput, "want %d bytes, got %d", n, len(b))
	}
	return b, nil
}

func (s *decodeState) uint32() (uint32, error) {
	b, err := s.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (s *decodeState) slots(n int) ([]Object, error) {
	out := make([]Object, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		o, err := s.read()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *decodeState) read() (Object, error) {
	tag, err := s.byte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagImmediate:
		v, err := s.xlong()
		if err != nil {
			return nil, err
		}
		return Immediate(v), nil

	case tagCharacter:
		b, err := s.byte()
		if err != nil {
			return nil, err
		}
		return Character(b), nil

	case tagUnicodeCharacter:
		b, err := s.bytes(2)
		if err != nil {
			return nil, err
		}
		return UnicodeCharacter(binary.BigEndian.Uint16(b)), nil

	case tagBinary:
		bin := &Binary{}
		s.register(bin)
		n, err := s.count()
		if err != nil {
			return nil, err
		}
		if bin.Class, err = s.read(); err != nil {
			return nil, err
		}
		if bin.Data, err = s.bytes(n); err != nil {
			return nil, err
		}
		return bin, nil

	case tagArray, tagPlainArray:
		arr := &Array{}
		s.register(arr)
		n, err := s.count()
		if err != nil {
			return nil, err
		}
		if tag == tagArray {
			if arr.Class, err = s.read(); err != nil {
				return nil, err
			}
		}
		if arr.Slots, err = s.slots(n); err != nil {
			return nil, err
		}
		return arr, nil

	case tagFrame:
		return s.readFrame()

	case tagSymbol:
		sym := &Symbol{}
		s.register(sym)
		n, err := s.count()
		if err != nil {
			return nil, err
		}
		name, err := s.bytes(n)
		if err != nil {
			return nil, err
		}
		sym.Name = string(name)
		return sym, nil

	case tagString:
		str := &String{}
		s.register(str)
		n, err := s.count()
		if err != nil {
			return nil, err
		}
		raw, err := s.bytes(n)
		if err != nil {
			return nil, err
		}
		if str.Value, err = DecodeText(raw); err != nil {
			return nil, err
		}
		return str, nil

	case tagPrecedent:
		id, err := s.xlong()
		if err != nil {
			return nil, err
		}
		if id < 0 || int(id) >= len(s.table) {
			return nil, errors.Wrapf(ErrDanglingBackReference, "id %d, %d known", id, len(s.table))
		}
		return s.table[id], nil

	case tagNil:
		return Nil{}, nil

	case tagSmallRect:
		rect := &SmallRect{}
		s.register(rect)
		b, err := s.bytes(4)
		if err != nil {
			return nil, err
		}
		rect.Top, rect.Left, rect.Bottom, rect.Right = b[0], b[1], b[2], b[3]
		return rect, nil

	case tagLargeBinary:
		return s.readLargeBinary()
	}

	return nil, errors.Wrapf(ErrUnknownObjectTag, "tag %d", tag)
}

func (s *decodeState) readFrame() (Object, error) {
	f := &Frame{}
	s.register(f)
	n, err := s.count()
	if err != nil {
		return nil, err
	}
	keys, err := s.slots(n)
	if err != nil {
		return nil, err
	}
	f.Slots = make([]Slot, n)
	for i, k := range keys {
		sym, ok := k.(*Symbol)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownObjectTag, "frame key %d is a %s, not a symbol", i, k.Kind())
		}
		for _, prev := range f.Slots[:i] {
			if prev.Key.Equal(sym) {
				return nil, errors.Wrapf(ErrDuplicateFrameKey, "%q at slot %d", sym.Name, i)
			}
		}
		f.Slots[i].Key = sym
	}
	for i := range f.Slots {
		if f.Slots[i].Value, err = s.read(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *decodeState) readLargeBinary() (Object, error) {
	lb := &LargeBinary{}
	s.register(lb)
	var err error
	if lb.Class, err = s.read(); err != nil {
		return nil, err
	}
	compressed, err := s.byte()
	if err != nil {
		return nil, err
	}
	lb.Compressed = compressed != 0

	var lengths [4]uint32
	for i := range lengths {
		if lengths[i], err = s.uint32(); err != nil {
			return nil, err
		}
	}
	dataLen, nameLen, paramsLen := lengths[0], lengths[1], lengths[2]

	name, err := s.bytes(int(nameLen))
	if err != nil {
		return nil, err
	}
	lb.Compander = string(name)
	if lb.Params, err = s.bytes(int(paramsLen)); err != nil {
		return nil, err
	}
	if lb.Data, err = s.bytes(int(dataLen)); err != nil {
		return nil, err
	}
	return lb, nil
}
