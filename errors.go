package dock

import (
	"github.com/pkg/errors"
)

// Errors returned by pipes and layers. Wrapped errors carry the operation
// and state; match them with errors.Is.
var (
	// ErrBadPipeState is returned when an operation is not valid in the
	// pipe's current state. The state is left unchanged.
	ErrBadPipeState = errors.New("dock: bad pipe state")
	// ErrPipeDisposed is returned for any use of a disposed pipe. It
	// matches ErrBadPipeState.
	ErrPipeDisposed = &disposedError{}
	// ErrPipeDisconnected is returned when the connection is gone. The
	// application may reconnect with a new pipe.
	ErrPipeDisconnected = errors.New("dock: pipe disconnected")
	// ErrTimeout is returned when the transport does not accept a write
	// within the pipe timeout.
	ErrTimeout = errors.New("dock: timeout")
	// ErrProtocol is returned for protocol violations. The session is
	// over and the pipe is disconnected.
	ErrProtocol = errors.New("dock: protocol error")
)

type disposedError struct{}

func (*disposedError) Error() string { return "dock: pipe disposed" }

func (*disposedError) Is(target error) bool { return target == ErrBadPipeState }
