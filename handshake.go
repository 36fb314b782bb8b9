package dock

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Zereker/dock/command"
)

// Greeting is what the device announced while docking.
type Greeting struct {
	ProtocolVersion int32
	Name            string
	// Info is the name command itself, with the device's version words.
	Info *command.NewtonName
}

// Handshake docks a device: it waits for the request to dock, checks the
// protocol version, answers with the session type, and waits for the
// device name.
//
// The handshake listens from the moment StartDock returns, so it must be
// started before the command layer runs.
type Handshake struct {
	layer       *CommandLayer
	sessionType int32

	commands chan command.Command
	eof      chan struct{}
	done     chan struct{}
	once     sync.Once
	listener *CommandListenerFuncs
}

// StartDock registers a handshake on layer.
func StartDock(layer *CommandLayer, sessionType int32) *Handshake {
	h := &Handshake{
		layer:       layer,
		sessionType: sessionType,
		commands:    make(chan command.Command, 4),
		eof:         make(chan struct{}),
		done:        make(chan struct{}),
	}
	var eofOnce sync.Once
	h.listener = &CommandListenerFuncs{
		Received: func(c command.Command) {
			select {
			case h.commands <- c:
			case <-h.done:
			}
		},
		EOF: func() { eofOnce.Do(func() { close(h.eof) }) },
	}
	layer.AddListener(h.listener)
	return h
}

// Wait runs the handshake to completion. A wrong first command or a
// protocol version other than command.ProtocolVersion1 is an ErrProtocol
// and disconnects the pipe. A stream that ends first is
// ErrPipeDisconnected.
func (h *Handshake) Wait(ctx context.Context) (*Greeting, error) {
	defer h.stop()

	first, err := h.next(ctx)
	if err != nil {
		return nil, err
	}
	rtdk, ok := first.(*command.Long)
	if !ok || first.Tag() != command.TagRequestToDock {
		return nil, h.fail(errors.Wrapf(ErrProtocol, "expected %s, got %s", command.TagRequestToDock, first.Tag()))
	}
	if rtdk.Value != command.ProtocolVersion1 {
		return nil, h.fail(errors.Wrapf(ErrProtocol, "protocol version %d, want %d", rtdk.Value, command.ProtocolVersion1))
	}

	if err := h.layer.Write(command.NewLong(command.TagInitiateDocking, h.sessionType)); err != nil {
		return nil, err
	}

	second, err := h.next(ctx)
	if err != nil {
		return nil, err
	}
	name, ok := second.(*command.NewtonName)
	if !ok {
		return nil, h.fail(errors.Wrapf(ErrProtocol, "expected %s, got %s", command.TagNewtonName, second.Tag()))
	}

	h.layer.logger.Info("device docked", "name", name.Name, "session", h.sessionType)
	return &Greeting{ProtocolVersion: rtdk.Value, Name: name.Name, Info: name}, nil
}

func (h *Handshake) next(ctx context.Context) (command.Command, error) {
	select {
	case c := <-h.commands:
		return c, nil
	default:
	}
	select {
	case c := <-h.commands:
		return c, nil
	case <-h.eof:
		select {
		case c := <-h.commands:
			return c, nil
		default:
		}
		return nil, errors.Wrap(ErrPipeDisconnected, "docking")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handshake) fail(err error) error {
	h.layer.logger.Warn("docking failed", "error", err)
	_ = h.layer.pipe.Disconnect()
	return err
}

func (h *Handshake) stop() {
	h.once.Do(func() {
		h.layer.RemoveListener(h.listener)
		close(h.done)
	})
}
