package dock

import (
	"io"

	"github.com/pkg/errors"
)

// PacketCodec reads and writes the packets of one transport type. P is the
// packet representation: a plain byte chunk for stream transports, or a
// structured frame for transports that frame packets themselves.
//
// ReadPacket reads exactly one packet from r. At the end of the stream it
// returns io.EOF; any bytes already read are returned as a packet first.
type PacketCodec[P any] interface {
	ReadPacket(r io.Reader) (P, error)
	// WritePacket writes p to w in a single call.
	WritePacket(w io.Writer, p P) error
	// Payload returns the bytes p carries for the command stream.
	Payload(p P) []byte
	// NewPacket wraps payload into a packet.
	NewPacket(payload []byte) P
}

// RawCodec treats whatever a single read returns as a packet. It suits
// stream transports such as TCP, where the command framing is the only
// framing on the wire.
type RawCodec struct {
	// ReadSize is the largest packet read at once.
	ReadSize int
}

func (c RawCodec) ReadPacket(r io.Reader) ([]byte, error) {
	size := c.ReadSize
	if size <= 0 {
		size = defaultReadSize
	}
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (RawCodec) WritePacket(w io.Writer, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return errors.Wrapf(io.ErrShortWrite, "wrote %d of %d bytes", n, len(p))
	}
	return nil
}

func (RawCodec) Payload(p []byte) []byte { return p }

func (RawCodec) NewPacket(payload []byte) []byte { return payload }
