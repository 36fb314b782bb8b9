// Package command implements the dock command layer wire format: the
// framing around each command and the per-direction registries that map a
// four-character tag to a typed command.
package command

import (
	"encoding/binary"
	"fmt"

	"github.com/Zereker/dock/nsof"
	"github.com/pkg/errors"
)

// Tag is a four-character command identifier.
type Tag string

// Valid reports whether t is exactly four ASCII bytes.
func (t Tag) Valid() bool {
	if len(t) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if t[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Direction tells which side originates a command.
type Direction int

const (
	FromDevice Direction = 1 << iota
	FromDesktop
	Bidirectional = FromDevice | FromDesktop
)

func (d Direction) String() string {
	switch d {
	case FromDevice:
		return "device"
	case FromDesktop:
		return "desktop"
	case Bidirectional:
		return "both"
	}
	return "unknown"
}

// FromDevice reports whether a device may send the command.
func (d Direction) FromDevice() bool { return d&FromDevice != 0 }

// FromDesktop reports whether a desktop may send the command.
func (d Direction) FromDesktop() bool { return d&FromDesktop != 0 }

// ErrBadPayload is returned when a payload does not fit its command.
var ErrBadPayload = errors.New("command: bad payload")

// Command is one dock command.
type Command interface {
	Tag() Tag
	Direction() Direction
	// MarshalPayload returns the payload bytes, without padding.
	MarshalPayload() ([]byte, error)
	// UnmarshalPayload fills the command from payload bytes.
	UnmarshalPayload(data []byte) error
}

type header struct {
	tag Tag
	dir Direction
}

func (h header) Tag() Tag             { return h.tag }
func (h header) Direction() Direction { return h.dir }

// Empty is a command without payload.
type Empty struct {
	header
}

// NewEmpty returns an empty command.
func NewEmpty(tag Tag) *Empty {
	return &Empty{header{tag, DirectionOf(tag)}}
}

func (c *Empty) MarshalPayload() ([]byte, error) { return nil, nil }

func (c *Empty) UnmarshalPayload(data []byte) error {
	if len(data) != 0 {
		return errors.Wrapf(ErrBadPayload, "%s: want no payload, got %d bytes", c.tag, len(data))
	}
	return nil
}

func (c *Empty) String() string { return string(c.tag) }

// Long carries a single big-endian 32-bit integer.
type Long struct {
	header
	Value int32
}

// NewLong returns a long command.
func NewLong(tag Tag, v int32) *Long {
	return &Long{header: header{tag, DirectionOf(tag)}, Value: v}
}

func (c *Long) MarshalPayload() ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, uint32(c.Value)), nil
}

func (c *Long) UnmarshalPayload(data []byte) error {
	if len(data) != 4 {
		return errors.Wrapf(ErrBadPayload, "%s: want 4 bytes, got %d", c.tag, len(data))
	}
	c.Value = int32(binary.BigEndian.Uint32(data))
	return nil
}

func (c *Long) String() string { return fmt.Sprintf("%s(%d)", c.tag, c.Value) }

// Text carries a null-terminated UTF-16 string.
type Text struct {
	header
	Value string
}

// NewText returns a text command.
func NewText(tag Tag, v string) *Text {
	return &Text{header: header{tag, DirectionOf(tag)}, Value: v}
}

func (c *Text) MarshalPayload() ([]byte, error) { return nsof.EncodeText(c.Value) }

func (c *Text) UnmarshalPayload(data []byte) error {
	v, err := nsof.DecodeText(data)
	if err != nil {
		return errors.Wrapf(err, "%s", c.tag)
	}
	c.Value = v
	return nil
}

func (c *Text) String() string { return fmt.Sprintf("%s(%q)", c.tag, c.Value) }

// Key carries an 8-byte encrypted key, as used by the password exchange.
type Key struct {
	header
	Value [8]byte
}

// NewKey returns a key command.
func NewKey(tag Tag, v [8]byte) *Key {
	return &Key{header: header{tag, DirectionOf(tag)}, Value: v}
}

func (c *Key) MarshalPayload() ([]byte, error) { return c.Value[:], nil }

func (c *Key) UnmarshalPayload(data []byte) error {
	if len(data) != 8 {
		return errors.Wrapf(ErrBadPayload, "%s: want 8 bytes, got %d", c.tag, len(data))
	}
	copy(c.Value[:], data)
	return nil
}

// Object carries one NSOF object.
type Object struct {
	header
	Value nsof.Object
}

// NewObject returns an object command.
func NewObject(tag Tag, v nsof.Object) *Object {
	return &Object{header: header{tag, DirectionOf(tag)}, Value: v}
}

func (c *Object) MarshalPayload() ([]byte, error) { return nsof.Marshal(c.Value) }

func (c *Object) UnmarshalPayload(data []byte) error {
	v, err := nsof.Unmarshal(data)
	if err != nil {
		return errors.Wrapf(err, "%s", c.tag)
	}
	c.Value = v
	return nil
}

// Raw is a command whose tag is not registered. Its payload is kept
// undecoded so the receiver can answer with an unknown-command reply.
type Raw struct {
	header
	Data []byte
}

// NewRaw returns a raw command.
func NewRaw(tag Tag, data []byte) *Raw {
	return &Raw{header: header{tag, DirectionOf(tag)}, Data: data}
}

func (c *Raw) MarshalPayload() ([]byte, error) { return c.Data, nil }

func (c *Raw) UnmarshalPayload(data []byte) error {
	c.Data = append([]byte(nil), data...)
	return nil
}

func (c *Raw) String() string { return fmt.Sprintf("%s[%d bytes]", c.tag, len(c.Data)) }

// TagValue packs a tag into the integer carried by an unknown-command
// reply.
func TagValue(t Tag) int32 {
	var b [4]byte
	copy(b[:], t)
	return int32(binary.BigEndian.Uint32(b[:]))
}

// TagFromValue is the inverse of TagValue.
func TagFromValue(v int32) Tag {
	return Tag(binary.BigEndian.AppendUint32(nil, uint32(v)))
}
