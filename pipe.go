// Package dock implements the connection side of the Newton docking
// protocol: a pipe with an explicit state machine, a packet layer with an
// idle timeout on top of it, and a command layer that decodes and
// dispatches dock commands in arrival order.
package dock

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Pipe is one connection to a device. It is created disconnected, moves
// through the states of PipeState, and must not be used after Dispose.
//
// Bytes received by the packet layer are reassembled in the pipe; Read
// drains them and blocks while none are available.
type Pipe struct {
	mu        sync.Mutex
	cond      *sync.Cond
	state     PipeState
	disposed  bool
	transport Transport
	inbound   bytes.Buffer
	timeout   time.Duration

	writeMu sync.Mutex
	logger  Logger
	metrics *Metrics
}

// NewPipe returns a disconnected pipe.
func NewPipe(opt ...Option) *Pipe {
	opts := newOptions(opt)
	p := &Pipe{
		state:   StateUninitialized,
		timeout: opts.timeout,
		logger:  opts.logger,
		metrics: opts.metrics,
	}
	p.cond = sync.NewCond(&p.mu)
	p.setState(StateDisconnected)
	return p
}

// State returns the current state.
func (p *Pipe) State() PipeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Timeout returns the pipe timeout.
func (p *Pipe) Timeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeout
}

// SetTimeout changes the pipe timeout. It takes effect at the next
// received packet or write.
func (p *Pipe) SetTimeout(d time.Duration) {
	p.mu.Lock()
	p.timeout = d
	p.mu.Unlock()
}

// setState must be called with mu held, or before the pipe is shared.
func (p *Pipe) setState(s PipeState) {
	if p.state == s {
		return
	}
	p.logger.Debug("pipe state", "from", p.state, "to", s)
	p.state = s
	if p.cond != nil {
		p.cond.Broadcast()
	}
}

// SetUserState moves a connected pipe into an application-defined state,
// or back to StateConnected from one.
func (p *Pipe) SetUserState(s PipeState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !s.IsUser() && s != StateConnected {
		return errors.Wrapf(ErrBadPipeState, "user state %s", s)
	}
	if !p.state.IsUser() {
		if err := p.guard("set user state", StateConnected); err != nil {
			return err
		}
	}
	p.setState(s)
	return nil
}

// guard must be called with mu held.
func (p *Pipe) guard(op string, allowed ...PipeState) error {
	if p.disposed {
		return errors.Wrap(ErrPipeDisposed, op)
	}
	for _, s := range allowed {
		if p.state == s {
			return nil
		}
	}
	return errors.Wrapf(ErrBadPipeState, "%s in state %s", op, p.state)
}

// StartListening waits for a device: Disconnected to Listening.
func (p *Pipe) StartListening() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard("start listening", StateDisconnected); err != nil {
		return err
	}
	p.setState(StateListening)
	return nil
}

// Incoming records a device connecting on t: Listening to
// ConnectPending. The connection is not usable until Accept.
func (p *Pipe) Incoming(t Transport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard("incoming", StateListening); err != nil {
		return err
	}
	p.transport = t
	p.inbound.Reset()
	p.setState(StateConnectPending)
	return nil
}

// Accept accepts a pending connection: ConnectPending to Connected.
func (p *Pipe) Accept() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard("accept", StateConnectPending); err != nil {
		return err
	}
	p.setState(StateConnected)
	return nil
}

// Disconnect closes the connection from any state. Buffered data is
// discarded, so later reads return io.EOF.
func (p *Pipe) Disconnect() error {
	_, err := p.disconnect("requested")
	return err
}

// disconnect reports whether this call made the transition, so that of a
// timeout and a closing receive only one acts on it.
func (p *Pipe) disconnect(reason string) (bool, error) {
	p.mu.Lock()
	if p.state == StateDisconnected && p.transport == nil {
		p.mu.Unlock()
		return false, nil
	}
	t := p.transport
	p.transport = nil
	p.inbound.Reset()
	from := p.state
	p.setState(StateDisconnected)
	p.mu.Unlock()

	p.logger.Debug("pipe disconnected", "reason", reason, "from", from)
	if t != nil {
		return true, t.Close()
	}
	return true, nil
}

// Dispose disconnects the pipe and invalidates it.
func (p *Pipe) Dispose() error {
	_, err := p.disconnect("disposed")
	p.mu.Lock()
	p.disposed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return err
}

// Read reads reassembled bytes, blocking until some arrive. After the
// transport ends, buffered bytes are still returned, then io.EOF. A
// disconnected pipe returns io.EOF.
func (p *Pipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.disposed {
			return 0, errors.Wrap(ErrPipeDisposed, "read")
		}
		switch {
		case p.state == StateDisconnected:
			return 0, io.EOF
		case p.inbound.Len() > 0 && (p.state == StateConnected || p.state == StateDisconnectPending || p.state.IsUser()):
			return p.inbound.Read(b)
		case p.state == StateDisconnectPending:
			return 0, io.EOF
		case p.state == StateConnected || p.state.IsUser():
			if len(b) == 0 {
				return 0, nil
			}
			p.cond.Wait()
		default:
			return 0, errors.Wrapf(ErrBadPipeState, "read in state %s", p.state)
		}
	}
}

// Idle returns the number of reassembled bytes waiting to be read.
func (p *Pipe) Idle() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard("idle", StateConnected, StateDisconnectPending); err != nil && !p.state.IsUser() {
		return 0, err
	}
	return p.inbound.Len(), nil
}

// Available returns the number of reassembled bytes waiting to be read,
// in any state.
func (p *Pipe) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inbound.Len()
}

// Write writes b to the transport. Writes from several goroutines do not
// interleave. When the transport supports deadlines the pipe timeout
// applies and expiry returns ErrTimeout.
func (p *Pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	if err := p.guard("write", StateConnected, StateDisconnectPending); err != nil && !p.state.IsUser() {
		p.mu.Unlock()
		return 0, err
	}
	t, timeout := p.transport, p.timeout
	p.mu.Unlock()
	if t == nil {
		return 0, ErrPipeDisconnected
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if dl, ok := t.(writeDeadliner); ok && timeout > 0 {
		_ = dl.SetWriteDeadline(time.Now().Add(timeout))
	}
	n, err := t.Write(b)
	if err == nil {
		return n, nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return n, errors.Wrapf(ErrTimeout, "write after %s", timeout)
	}
	if isClosed(err) || p.State() == StateDisconnected {
		p.endOfStream()
		return n, errors.Wrap(ErrPipeDisconnected, err.Error())
	}
	return n, errors.Wrap(err, "dock: write")
}

// source returns the transport to receive from, or nil once the
// connection is gone.
func (p *Pipe) source() Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed || (p.state != StateConnected && !p.state.IsUser()) {
		return nil
	}
	return p.transport
}

// deliver appends received bytes for Read. Bytes arriving after the
// connection is gone are dropped.
func (p *Pipe) deliver(b []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateConnected && !p.state.IsUser() {
		return false
	}
	p.inbound.Write(b)
	p.cond.Broadcast()
	return true
}

// endOfStream records that the transport has ended. Buffered bytes stay
// readable.
func (p *Pipe) endOfStream() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateConnected || p.state.IsUser() {
		p.setState(StateDisconnectPending)
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}
