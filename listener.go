package dock

import (
	"sync"

	"github.com/Zereker/dock/command"
)

// PacketListener observes the packets of a PacketLayer.
type PacketListener[P any] interface {
	PacketReceived(p P)
	PacketSent(p P)
	// PacketEOF is called once when the transport ends.
	PacketEOF()
}

// CommandListener observes the commands of a CommandLayer. Callbacks run
// on the layer's goroutine for received commands and on the writer's
// goroutine for sent ones, so they may run concurrently.
type CommandListener interface {
	CommandReceived(c command.Command)
	CommandSent(c command.Command)
	// CommandEOF is called once when the command stream ends.
	CommandEOF()
}

// CommandErrorListener is implemented by command listeners that want to
// see commands that failed to decode.
type CommandErrorListener interface {
	CommandError(err error)
}

// CommandListenerFuncs adapts functions to CommandListener and
// CommandErrorListener. Nil fields are skipped. Register it by pointer.
type CommandListenerFuncs struct {
	Received func(command.Command)
	Sent     func(command.Command)
	EOF      func()
	Error    func(error)
}

func (f *CommandListenerFuncs) CommandReceived(c command.Command) {
	if f.Received != nil {
		f.Received(c)
	}
}

func (f *CommandListenerFuncs) CommandSent(c command.Command) {
	if f.Sent != nil {
		f.Sent(c)
	}
}

func (f *CommandListenerFuncs) CommandEOF() {
	if f.EOF != nil {
		f.EOF()
	}
}

func (f *CommandListenerFuncs) CommandError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// listenerSet is safe for concurrent add and remove. Dispatch iterates a
// snapshot, so listeners may add or remove listeners from a callback.
type listenerSet[T comparable] struct {
	mu    sync.Mutex
	items []T
}

func (s *listenerSet[T]) add(l T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, l)
}

func (s *listenerSet[T]) remove(l T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item == l {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *listenerSet[T]) snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}
