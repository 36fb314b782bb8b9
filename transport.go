package dock

import (
	"bufio"
	"io"
	"time"
)

// Transport is the byte channel under a pipe: serial, AppleTalk, TCP or
// anything else that can read, write, and say how many bytes are waiting
// without blocking.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
	// Available returns the number of bytes that can be read without
	// blocking.
	Available() int
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// StreamTransport adapts a stream connection, such as a net.Conn, to
// Transport.
type StreamTransport struct {
	conn io.ReadWriteCloser
	r    *bufio.Reader
}

// NewStreamTransport wraps conn.
func NewStreamTransport(conn io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{conn: conn, r: bufio.NewReader(conn)}
}

func (t *StreamTransport) Read(p []byte) (int, error) { return t.r.Read(p) }

func (t *StreamTransport) Write(p []byte) (int, error) { return t.conn.Write(p) }

func (t *StreamTransport) Close() error { return t.conn.Close() }

// Available returns the number of buffered bytes.
func (t *StreamTransport) Available() int { return t.r.Buffered() }

// SetWriteDeadline forwards to the connection when it supports deadlines.
func (t *StreamTransport) SetWriteDeadline(d time.Time) error {
	if dl, ok := t.conn.(writeDeadliner); ok {
		return dl.SetWriteDeadline(d)
	}
	return nil
}
