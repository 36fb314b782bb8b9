package command

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Preamble starts every command on the wire.
const Preamble = "newtdock"

// HeaderLen is the size of preamble, tag and length.
const HeaderLen = 16

// DefaultMaxPayload bounds the payload accepted by Read when no limit is
// given.
const DefaultMaxPayload = 1024 * 1024

var (
	// ErrBadPreamble is returned when a frame does not start with Preamble.
	ErrBadPreamble = errors.New("command: bad preamble")
	// ErrBadTag is returned when a tag is not four ascii bytes.
	ErrBadTag = errors.New("command: bad tag")
	// ErrPayloadTooLarge is returned when a payload exceeds the limit.
	ErrPayloadTooLarge = errors.New("command: payload too large")
)

// padding returns the number of zero bytes following a payload of n bytes.
func padding(n int) int {
	return (4 - n%4) % 4
}

// FrameLength returns the wire size of a command with an n-byte payload.
func FrameLength(n int) int {
	return HeaderLen + n + padding(n)
}

// Marshal returns the framed bytes of c.
func Marshal(c Command) ([]byte, error) {
	tag := c.Tag()
	if !tag.Valid() {
		return nil, errors.Wrapf(ErrBadTag, "%q", string(tag))
	}
	payload, err := c.MarshalPayload()
	if err != nil {
		return nil, errors.WithMessagef(err, "marshal %s", tag)
	}
	out := make([]byte, 0, FrameLength(len(payload)))
	out = append(out, Preamble...)
	out = append(out, tag...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	for i := padding(len(payload)); i > 0; i-- {
		out = append(out, 0)
	}
	return out, nil
}

// Write frames c and writes it to w in a single call.
func Write(w io.Writer, c Command) error {
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadHeader reads the fixed header and returns the tag and payload
// length. A source that ends before the first header byte yields io.EOF.
func ReadHeader(r io.Reader) (Tag, int, error) {
	var h [HeaderLen]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return "", 0, err
	}
	if string(h[:8]) != Preamble {
		return "", 0, errors.Wrapf(ErrBadPreamble, "%q", h[:8])
	}
	tag := Tag(h[8:12])
	n := binary.BigEndian.Uint32(h[12:16])
	return tag, int(n), nil
}

// Read reads one framed command from r and decodes it with reg. The
// padding after the payload is consumed and ignored. maxPayload <= 0
// means DefaultMaxPayload.
func Read(r io.Reader, reg *Registry, maxPayload int) (Command, error) {
	tag, n, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	if n < 0 || n > maxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%s: %d bytes", tag, n)
	}
	body := make([]byte, n+padding(n))
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	c := reg.New(tag)
	if err := c.UnmarshalPayload(body[:n]); err != nil {
		return nil, errors.WithMessagef(err, "decode %s", tag)
	}
	return c, nil
}
