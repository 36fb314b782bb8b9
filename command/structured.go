package command

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Zereker/dock/nsof"
	"github.com/pkg/errors"
)

// VersionField indexes a word of the version info sent with a device name.
type VersionField int

// Version info words, in wire order.
const (
	NewtonUniqueID VersionField = iota
	Manufacturer
	MachineType
	ROMVersion
	ROMStage
	RAMSize
	ScreenHeight
	ScreenWidth
	PatchVersion
	NOSVersion
	InternalStoreSignature
	ScreenResolutionV
	ScreenResolutionH
	ScreenDepth
	SystemFlags
	SerialNumberHigh
	SerialNumberLow
	TargetProtocol
)

// NewtonName is the device's introduction: its version info followed by
// the owner name. Older devices send fewer version words; all words are
// kept as sent.
type NewtonName struct {
	header
	Info []uint32
	Name string
}

func (c *NewtonName) MarshalPayload() ([]byte, error) {
	name, err := nsof.EncodeText(c.Name)
	if err != nil {
		return nil, err
	}
	out := binary.BigEndian.AppendUint32(nil, uint32(4*len(c.Info)))
	for _, w := range c.Info {
		out = binary.BigEndian.AppendUint32(out, w)
	}
	return append(out, name...), nil
}

func (c *NewtonName) UnmarshalPayload(data []byte) error {
	if len(data) < 4 {
		return errors.Wrapf(ErrBadPayload, "%s: short payload", c.tag)
	}
	n := binary.BigEndian.Uint32(data)
	if n%4 != 0 || uint64(n) > uint64(len(data)-4) {
		return errors.Wrapf(ErrBadPayload, "%s: version info length %d", c.tag, n)
	}
	info := data[4 : 4+n]
	c.Info = make([]uint32, n/4)
	for i := range c.Info {
		c.Info[i] = binary.BigEndian.Uint32(info[4*i:])
	}
	name, err := nsof.DecodeText(data[4+n:])
	if err != nil {
		return errors.Wrapf(err, "%s", c.tag)
	}
	c.Name = name
	return nil
}

// Field returns one version info word, or 0 when the device did not send
// it.
func (c *NewtonName) Field(f VersionField) uint32 {
	if int(f) < len(c.Info) {
		return c.Info[f]
	}
	return 0
}

func (c *NewtonName) String() string { return fmt.Sprintf("%s(%q)", c.tag, c.Name) }

// NewtonInfo carries the device protocol version and its challenge key.
type NewtonInfo struct {
	header
	ProtocolVersion int32
	Key             [8]byte
}

func (c *NewtonInfo) MarshalPayload() ([]byte, error) {
	out := binary.BigEndian.AppendUint32(nil, uint32(c.ProtocolVersion))
	return append(out, c.Key[:]...), nil
}

func (c *NewtonInfo) UnmarshalPayload(data []byte) error {
	if len(data) != 12 {
		return errors.Wrapf(ErrBadPayload, "%s: want 12 bytes, got %d", c.tag, len(data))
	}
	c.ProtocolVersion = int32(binary.BigEndian.Uint32(data))
	copy(c.Key[:], data[4:])
	return nil
}

// Desktop types announced in DesktopInfo.
const (
	DesktopMacintosh int32 = 0
	DesktopWindows   int32 = 1
)

// DesktopInfo describes the desktop to the device: protocol version,
// platform, challenge key, session type and the desktop applications as
// an NSOF array.
type DesktopInfo struct {
	header
	ProtocolVersion    int32
	DesktopType        int32
	Key                [8]byte
	SessionType        int32
	AllowSelectiveSync bool
	Apps               nsof.Object
}

// NewDesktopInfo returns a desktop info command.
func NewDesktopInfo() *DesktopInfo {
	return &DesktopInfo{header: header{TagDesktopInfo, DirectionOf(TagDesktopInfo)}}
}

func (c *DesktopInfo) MarshalPayload() ([]byte, error) {
	var buf bytes.Buffer
	var word [4]byte
	put := func(v int32) {
		binary.BigEndian.PutUint32(word[:], uint32(v))
		buf.Write(word[:])
	}
	put(c.ProtocolVersion)
	put(c.DesktopType)
	buf.Write(c.Key[:])
	put(c.SessionType)
	if c.AllowSelectiveSync {
		put(1)
	} else {
		put(0)
	}
	if err := nsof.NewEncoder(&buf).Encode(c.Apps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *DesktopInfo) UnmarshalPayload(data []byte) error {
	if len(data) < 24 {
		return errors.Wrapf(ErrBadPayload, "%s: short payload %d", c.tag, len(data))
	}
	c.ProtocolVersion = int32(binary.BigEndian.Uint32(data[0:]))
	c.DesktopType = int32(binary.BigEndian.Uint32(data[4:]))
	copy(c.Key[:], data[8:16])
	c.SessionType = int32(binary.BigEndian.Uint32(data[16:]))
	c.AllowSelectiveSync = binary.BigEndian.Uint32(data[20:]) != 0
	apps, err := nsof.Unmarshal(data[24:])
	if err != nil {
		return errors.Wrapf(err, "%s", c.tag)
	}
	c.Apps = apps
	return nil
}
