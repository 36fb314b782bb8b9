package dock

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// PacketLayer moves packets between a pipe's transport and the pipe's
// reassembly buffer. Every received packet restarts the idle timer; when
// the timer fires the pipe is disconnected without an error.
//
// A PacketLayer serves one connection of its pipe.
type PacketLayer[P any] struct {
	pipe      *Pipe
	codec     PacketCodec[P]
	listeners listenerSet[PacketListener[P]]
	eofOnce   sync.Once

	timerMu sync.Mutex
	timer   *time.Timer
	gen     uint64
}

// NewPacketLayer returns a packet layer on pipe.
func NewPacketLayer[P any](pipe *Pipe, codec PacketCodec[P]) *PacketLayer[P] {
	return &PacketLayer[P]{pipe: pipe, codec: codec}
}

// Pipe returns the pipe under the layer.
func (l *PacketLayer[P]) Pipe() *Pipe { return l.pipe }

// AddListener registers a packet listener.
func (l *PacketLayer[P]) AddListener(lis PacketListener[P]) { l.listeners.add(lis) }

// RemoveListener unregisters a packet listener.
func (l *PacketLayer[P]) RemoveListener(lis PacketListener[P]) { l.listeners.remove(lis) }

// Receive reads one packet and hands its payload to the pipe. At the end
// of the stream, including a pipe disconnected underneath it, listeners
// get PacketEOF and Receive returns io.EOF.
func (l *PacketLayer[P]) Receive() (P, error) {
	var zero P
	t := l.pipe.source()
	if t == nil {
		l.eof()
		return zero, io.EOF
	}

	p, err := l.codec.ReadPacket(t)
	if err != nil {
		if isClosed(err) || l.pipe.State() == StateDisconnected {
			l.pipe.endOfStream()
			l.eof()
			return zero, io.EOF
		}
		return zero, errors.Wrap(err, "dock: receive")
	}

	payload := l.codec.Payload(p)
	if !l.pipe.deliver(payload) {
		l.eof()
		return zero, io.EOF
	}
	l.restartTimer()
	l.pipe.metrics.packetReceived(len(payload))

	for _, lis := range l.listeners.snapshot() {
		lis.PacketReceived(p)
	}
	return p, nil
}

// Send writes p to the pipe. A write that finds the connection gone
// counts as end of stream.
func (l *PacketLayer[P]) Send(p P) error {
	if err := l.codec.WritePacket(l.pipe, p); err != nil {
		if errors.Is(err, ErrPipeDisconnected) {
			l.eof()
		}
		return err
	}
	l.pipe.metrics.packetSent(len(l.codec.Payload(p)))

	for _, lis := range l.listeners.snapshot() {
		lis.PacketSent(p)
	}
	return nil
}

// SendPayload wraps b in a packet and sends it.
func (l *PacketLayer[P]) SendPayload(b []byte) error {
	return l.Send(l.codec.NewPacket(b))
}

// Listen receives packets until the stream ends or ctx is done. The idle
// timer runs while Listen does. End of stream is not an error.
func (l *PacketLayer[P]) Listen(ctx context.Context) error {
	l.restartTimer()
	defer l.stopTimer()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.Receive(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (l *PacketLayer[P]) eof() {
	l.eofOnce.Do(func() {
		for _, lis := range l.listeners.snapshot() {
			lis.PacketEOF()
		}
	})
}

func (l *PacketLayer[P]) restartTimer() {
	timeout := l.pipe.Timeout()

	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if timeout <= 0 {
		return
	}
	gen := l.gen
	l.timer = time.AfterFunc(timeout, func() { l.expire(gen, timeout) })
}

func (l *PacketLayer[P]) stopTimer() {
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// expire disconnects the pipe unless a packet arrived since the timer
// with generation gen was armed.
func (l *PacketLayer[P]) expire(gen uint64, timeout time.Duration) {
	l.timerMu.Lock()
	stale := gen != l.gen
	l.timerMu.Unlock()
	if stale {
		return
	}

	won, err := l.pipe.disconnect("idle timeout")
	if !won {
		return
	}
	l.pipe.metrics.idleDisconnect()
	l.pipe.logger.Info("idle timeout", "timeout", timeout, "error", err)
}
