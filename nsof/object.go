// Package nsof implements the Newton Streamed Object Format, the tagged
// binary encoding used to move object graphs between a desktop and a Newton
// device. Shared and cyclic graphs are written once and referenced through
// precedent tags afterwards.
package nsof

import (
	"strings"
	"sync"
)

// Kind identifies the variant of an Object.
type Kind int

// Object kinds.
const (
	KindImmediate Kind = iota
	KindCharacter
	KindUnicodeCharacter
	KindBinary
	KindLargeBinary
	KindArray
	KindPlainArray
	KindFrame
	KindSymbol
	KindString
	KindSmallRect
	KindNil
)

var kindNames = [...]string{
	KindImmediate:        "immediate",
	KindCharacter:        "character",
	KindUnicodeCharacter: "unicodeCharacter",
	KindBinary:           "binary",
	KindLargeBinary:      "largeBinary",
	KindArray:            "array",
	KindPlainArray:       "plainArray",
	KindFrame:            "frame",
	KindSymbol:           "symbol",
	KindString:           "string",
	KindSmallRect:        "smallRect",
	KindNil:              "nil",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Object is one node of an NSOF graph.
type Object interface {
	Kind() Kind
}

// isHeap reports whether o may be shared through a precedent.
// Only pointer kinds carry identity.
func isHeap(o Object) bool {
	switch o.(type) {
	case *Binary, *LargeBinary, *Array, *Frame, *Symbol, *String, *SmallRect:
		return true
	}
	return false
}

// Character is a single-byte character.
type Character byte

func (Character) Kind() Kind { return KindCharacter }

// UnicodeCharacter is a 16-bit character.
type UnicodeCharacter uint16

func (UnicodeCharacter) Kind() Kind { return KindUnicodeCharacter }

// Nil is the nil object. It is always written inline.
type Nil struct{}

func (Nil) Kind() Kind { return KindNil }

// Symbol is a name. Symbols compare by name, ignoring case.
type Symbol struct {
	Name string
}

// NewSymbol returns a new, uninterned symbol.
func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

func (*Symbol) Kind() Kind { return KindSymbol }

// Equal reports whether s and other name the same symbol.
func (s *Symbol) Equal(other *Symbol) bool {
	if s == nil || other == nil {
		return s == other
	}
	return strings.EqualFold(s.Name, other.Name)
}

func (s *Symbol) String() string { return s.Name }

var symbols sync.Map

// Intern returns the process-wide symbol for name. Graphs built from
// interned symbols share one instance per name, so repeated keys encode
// as precedents.
func Intern(name string) *Symbol {
	key := strings.ToLower(name)
	if s, ok := symbols.Load(key); ok {
		return s.(*Symbol)
	}
	s, _ := symbols.LoadOrStore(key, &Symbol{Name: name})
	return s.(*Symbol)
}

// ArrayClass is the implicit class of plain arrays.
const ArrayClass = "array"

// String is UTF-16 text on the wire.
type String struct {
	Value string
}

// NewString returns a new string object.
func NewString(v string) *String {
	return &String{Value: v}
}

func (*String) Kind() Kind { return KindString }

func (s *String) String() string { return s.Value }

// SmallRect is a rectangle whose coordinates fit in a byte each.
type SmallRect struct {
	Top, Left, Bottom, Right uint8
}

func (*SmallRect) Kind() Kind { return KindSmallRect }

// Binary is a classed blob of bytes.
type Binary struct {
	Class Object
	Data  []byte
}

// NewBinary returns a binary object of the given class.
func NewBinary(class Object, data []byte) *Binary {
	return &Binary{Class: class, Data: data}
}

func (*Binary) Kind() Kind { return KindBinary }

// Array is an ordered list of objects. An array with a nil Class is a
// plain array and is written without a class.
type Array struct {
	Class Object
	Slots []Object
}

// NewArray returns a classed array.
func NewArray(class Object, slots ...Object) *Array {
	return &Array{Class: class, Slots: slots}
}

// NewPlainArray returns an array with the implicit array class.
func NewPlainArray(slots ...Object) *Array {
	return &Array{Slots: slots}
}

func (a *Array) Kind() Kind {
	if a.Class == nil {
		return KindPlainArray
	}
	return KindArray
}

// Len returns the number of slots.
func (a *Array) Len() int { return len(a.Slots) }

// Append adds objects to the end of the array.
func (a *Array) Append(objs ...Object) {
	a.Slots = append(a.Slots, objs...)
}

// ClassName returns the class symbol name, or "array" for plain arrays.
func (a *Array) ClassName() string {
	if sym, ok := a.Class.(*Symbol); ok {
		return sym.Name
	}
	return ArrayClass
}

// Slot is one key/value pair of a frame.
type Slot struct {
	Key   *Symbol
	Value Object
}

// Frame is an ordered set of symbol-keyed slots. Slot order is preserved
// so a decoded frame re-encodes to the same bytes.
type Frame struct {
	Slots []Slot
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{}
}

func (*Frame) Kind() Kind { return KindFrame }

// Len returns the number of slots.
func (f *Frame) Len() int { return len(f.Slots) }

func (f *Frame) index(name string) int {
	for i, s := range f.Slots {
		if s.Key != nil && strings.EqualFold(s.Key.Name, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of the named slot.
func (f *Frame) Get(name string) (Object, bool) {
	if i := f.index(name); i >= 0 {
		return f.Slots[i].Value, true
	}
	return nil, false
}

// Set replaces the value of an existing slot, or appends a new slot keyed
// by the interned symbol for name.
func (f *Frame) Set(name string, v Object) {
	f.SetSymbol(Intern(name), v)
}

// SetSymbol is Set with an explicit key symbol.
func (f *Frame) SetSymbol(key *Symbol, v Object) {
	if i := f.index(key.Name); i >= 0 {
		f.Slots[i].Value = v
		return
	}
	f.Slots = append(f.Slots, Slot{Key: key, Value: v})
}

// Keys returns the slot names in order.
func (f *Frame) Keys() []string {
	keys := make([]string, len(f.Slots))
	for i, s := range f.Slots {
		if s.Key != nil {
			keys[i] = s.Key.Name
		}
	}
	return keys
}
