package nsof

import "fmt"

// Ref tag bits carried in the low two bits of an immediate.
const (
	refTagInteger = 0x0
	refTagPointer = 0x1
	refTagImmed   = 0x2
	refTagMagic   = 0x3
	refTagMask    = 0x3
)

// Well-known immediate refs.
const (
	refNil   = 0x02
	refTrue  = 0x1A
	refChar  = 0x06
	charMask = 0x0F
)

// Immediate is a packed 32-bit ref. The low two bits select integer,
// pointer, special immediate or magic pointer; the rest is the value.
type Immediate int32

// Common immediates.
const (
	True   Immediate = refTrue
	NilRef Immediate = refNil
)

func (Immediate) Kind() Kind { return KindImmediate }

// NewInteger packs a 30-bit signed integer.
func NewInteger(v int32) Immediate {
	return Immediate(v << 2)
}

// NewBoolean returns True or NilRef, which is how Newton spells false.
func NewBoolean(v bool) Immediate {
	if v {
		return True
	}
	return NilRef
}

// NewMagicPointer packs a magic pointer index.
func NewMagicPointer(index int32) Immediate {
	return Immediate(index<<2 | refTagMagic)
}

// NewCharRef packs a character as an immediate ref.
func NewCharRef(c uint16) Immediate {
	return Immediate(int32(c)<<4 | refChar)
}

func (i Immediate) tag() int32 { return int32(i) & refTagMask }

// IsInteger reports whether i holds an integer.
func (i Immediate) IsInteger() bool { return i.tag() == refTagInteger }

// Int returns the integer value. Only meaningful when IsInteger.
func (i Immediate) Int() int32 { return int32(i) >> 2 }

// IsMagicPointer reports whether i is a magic pointer.
func (i Immediate) IsMagicPointer() bool { return i.tag() == refTagMagic }

// MagicIndex returns the magic pointer index.
func (i Immediate) MagicIndex() int32 { return int32(i) >> 2 }

// IsBoolean reports whether i is True or NilRef.
func (i Immediate) IsBoolean() bool { return i == True || i == NilRef }

// IsNil reports whether i is the nil ref.
func (i Immediate) IsNil() bool { return i == NilRef }

// IsChar reports whether i is a packed character.
func (i Immediate) IsChar() bool { return int32(i)&charMask == refChar }

// Char returns the packed character.
func (i Immediate) Char() uint16 { return uint16(int32(i) >> 4) }

func (i Immediate) String() string {
	switch {
	case i.IsInteger():
		return fmt.Sprintf("%d", i.Int())
	case i == True:
		return "true"
	case i == NilRef:
		return "nil"
	case i.IsChar():
		return fmt.Sprintf("$\\u%04X", i.Char())
	case i.IsMagicPointer():
		return fmt.Sprintf("@%d", i.MagicIndex())
	}
	return fmt.Sprintf("ref(0x%X)", uint32(i))
}
