package dock

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/dock/command"
)

// PacketTransport is what a CommandLayer needs from the layer below it:
// the pipe whose reassembled bytes carry the commands, a receive loop,
// and a way to send bytes. *PacketLayer implements it.
type PacketTransport interface {
	Pipe() *Pipe
	Listen(ctx context.Context) error
	SendPayload(b []byte) error
}

// CommandLayer decodes commands from a pipe and dispatches them to its
// listeners strictly in arrival order.
type CommandLayer struct {
	packets   PacketTransport
	pipe      *Pipe
	logger    Logger
	opts      options
	registry  atomic.Pointer[command.Registry]
	listeners listenerSet[CommandListener]
	eofOnce   sync.Once
}

// NewCommandLayer returns a command layer on packets. The registry,
// error policy, payload limit, logger and metrics are taken from opt.
func NewCommandLayer(packets PacketTransport, opt ...Option) *CommandLayer {
	opts := newOptions(opt)
	c := &CommandLayer{
		packets: packets,
		pipe:    packets.Pipe(),
		logger:  opts.logger,
		opts:    opts,
	}
	c.registry.Store(opts.registry)
	return c
}

// Pipe returns the pipe under the layer.
func (c *CommandLayer) Pipe() *Pipe { return c.pipe }

// Registry returns the registry used to decode received commands.
func (c *CommandLayer) Registry() *command.Registry { return c.registry.Load() }

// SetRegistry replaces the registry used to decode received commands,
// for example once the device has announced a newer protocol version.
// It applies from the next command read.
func (c *CommandLayer) SetRegistry(reg *command.Registry) {
	if reg != nil {
		c.registry.Store(reg)
	}
}

// AddListener registers a command listener.
func (c *CommandLayer) AddListener(l CommandListener) { c.listeners.add(l) }

// RemoveListener unregisters a command listener.
func (c *CommandLayer) RemoveListener(l CommandListener) { c.listeners.remove(l) }

// Run receives packets and processes commands until the stream ends, a
// fatal error occurs, or ctx is canceled. The pipe is disconnected when
// Run returns. End of stream returns nil.
func (c *CommandLayer) Run(ctx context.Context) error {
	c.logger.Info("session started", "registry", c.Registry().Version())
	c.logger.Debug("session options",
		"timeout", c.pipe.Timeout(),
		"max_payload", c.opts.maxPayload,
		"reply_unknown", c.opts.replyUnknown)

	group, child := errgroup.WithContext(ctx)
	go func() {
		<-child.Done()
		_, _ = c.pipe.disconnect("session ended")
	}()

	group.Go(func() error {
		return c.packets.Listen(child)
	})

	group.Go(func() error {
		return c.processLoop()
	})

	err := group.Wait()
	_, _ = c.pipe.disconnect("session ended")
	c.eof()

	if err == nil {
		err = ctx.Err()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("session closed with error", "error", err)
	} else {
		c.logger.Info("session closed")
	}
	return err
}

// processLoop reads one command at a time from the pipe. Reads park until
// the packet layer delivers bytes.
func (c *CommandLayer) processLoop() error {
	for {
		cmd, err := command.Read(c.pipe, c.Registry(), c.opts.maxPayload)
		if err == nil {
			c.dispatch(cmd)
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			c.eof()
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			c.logger.Warn("stream ended inside a command", "error", err)
			c.eof()
			return nil
		case errors.Is(err, command.ErrBadPreamble), errors.Is(err, command.ErrPayloadTooLarge):
			c.logger.Error("protocol error", "error", err)
			_, _ = c.pipe.disconnect("protocol error")
			c.eof()
			return errors.Wrap(ErrProtocol, err.Error())
		case errors.Is(err, ErrBadPipeState):
			c.eof()
			return err
		}

		c.opts.metrics.decodeError()
		c.logger.Debug("decode error", "error", err)
		for _, l := range c.listeners.snapshot() {
			if el, ok := l.(CommandErrorListener); ok {
				el.CommandError(err)
			}
		}
		if c.opts.onError(err) == Disconnect {
			_, _ = c.pipe.disconnect("decode error")
			c.eof()
			return err
		}
	}
}

func (c *CommandLayer) dispatch(cmd command.Command) {
	tag := cmd.Tag()
	c.opts.metrics.commandReceived(tag)
	c.logger.Debug("command received", "tag", tag)

	if _, ok := c.Registry().Lookup(tag); !ok && c.opts.replyUnknown {
		reply := command.NewLong(command.TagUnknownCommand, command.TagValue(tag))
		if err := c.Write(reply); err != nil {
			c.logger.Warn("unknown command reply failed", "tag", tag, "error", err)
		}
	}

	for _, l := range c.listeners.snapshot() {
		l.CommandReceived(cmd)
	}
}

// Write frames cmd and sends it in one write. Listeners see it through
// CommandSent once the write succeeds. A write the transport cannot
// accept within the pipe timeout fails with ErrTimeout.
func (c *CommandLayer) Write(cmd command.Command) error {
	b, err := command.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := c.packets.SendPayload(b); err != nil {
		return errors.WithMessagef(err, "send %s", cmd.Tag())
	}
	c.opts.metrics.commandSent(cmd.Tag())
	c.logger.Debug("command sent", "tag", cmd.Tag())

	for _, l := range c.listeners.snapshot() {
		l.CommandSent(cmd)
	}
	return nil
}

func (c *CommandLayer) eof() {
	c.eofOnce.Do(func() {
		for _, l := range c.listeners.snapshot() {
			l.CommandEOF()
		}
	})
}
