package dock

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultPort is the TCP port docking connections arrive on.
const DefaultPort = 3679

// Handler handles docking sessions.
type Handler interface {
	// Handle is called on its own goroutine for each accepted connection.
	// The session is disposed when Handle returns.
	Handle(ctx context.Context, s *Session) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s *Session) error

func (f HandlerFunc) Handle(ctx context.Context, s *Session) error { return f(ctx, s) }

// Session is one accepted connection with its layers stacked up: a
// connected pipe, a raw packet layer and a command layer.
type Session struct {
	RemoteAddr net.Addr
	Pipe       *Pipe
	Packets    *PacketLayer[[]byte]
	Commands   *CommandLayer

	once sync.Once
	done chan struct{}
	err  error
}

// NewSession stacks the layers on conn and moves the pipe through
// Listening and ConnectPending to Connected.
func NewSession(conn net.Conn, opt ...Option) (*Session, error) {
	opts := newOptions(opt)
	pipe := NewPipe(opt...)
	if err := pipe.StartListening(); err != nil {
		return nil, err
	}
	if err := pipe.Incoming(NewStreamTransport(conn)); err != nil {
		return nil, err
	}
	if err := pipe.Accept(); err != nil {
		return nil, err
	}
	packets := NewPacketLayer[[]byte](pipe, RawCodec{ReadSize: opts.readSize})
	return &Session{
		RemoteAddr: conn.RemoteAddr(),
		Pipe:       pipe,
		Packets:    packets,
		Commands:   NewCommandLayer(packets, opt...),
		done:       make(chan struct{}),
	}, nil
}

// Start runs the command layer in the background. Listeners added before
// Start see every command.
func (s *Session) Start(ctx context.Context) {
	s.once.Do(func() {
		go func() {
			s.err = s.Commands.Run(ctx)
			close(s.done)
		}()
	})
}

// Wait waits for the command layer started by Start to return, and
// returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

// Done is closed when the command layer has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Dock starts the command layer and docks the device. See Handshake.
func (s *Session) Dock(ctx context.Context, sessionType int32) (*Greeting, error) {
	h := StartDock(s.Commands, sessionType)
	s.Start(ctx)
	return h.Wait(ctx)
}

// Server accepts docking connections over TCP.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration
	sessionOpts     []Option

	mu          sync.Mutex
	shutdown    bool
	shutdownNow chan struct{} // signals immediate shutdown, bypassing timeout
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets the graceful shutdown timeout.
// When the context is canceled, the server will wait up to this duration
// before closing the listener. This gives devices in the middle of docking
// time to finish. Default is 0 (immediate shutdown).
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// ServerSessionOption sets the options of every session's pipe and layers.
func ServerSessionOption(opt ...Option) ServerOption {
	return func(s *Server) {
		s.sessionOpts = append(s.sessionOpts, opt...)
	}
}

// New creates a new TCP server bound to the specified address.
// Returns an error if the address cannot be bound.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}

	s := &Server{
		listener:    listener,
		logger:      slog.Default(),
		shutdownNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts connections and hands each one to handler as a Session.
// It blocks until the context is canceled or an unrecoverable error occurs.
// When the context is canceled, it stops accepting new connections gracefully.
// If ServerShutdownTimeoutOption is set, the server waits up to the specified
// duration before stopping. Call Close() to bypass the timeout and shut down
// immediately.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	go func() {
		<-ctx.Done()

		if s.shutdownTimeout > 0 {
			s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
			select {
			case <-time.After(s.shutdownTimeout):
			case <-s.shutdownNow:
				s.logger.Debug("shutdown timeout bypassed via Close()")
			}
		}

		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		// Set a deadline to unblock Accept
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)
		go s.handle(ctx, conn, handler)
	}
}

func (s *Server) handle(ctx context.Context, conn *net.TCPConn, handler Handler) {
	opts := append([]Option{LoggerOption(s.logger)}, s.sessionOpts...)
	sess, err := NewSession(conn, opts...)
	if err != nil {
		s.logger.Error("session setup failed", "remote_addr", conn.RemoteAddr(), "error", err)
		_ = conn.Close()
		return
	}
	defer sess.Pipe.Dispose()

	if err := handler.Handle(ctx, sess); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Info("session ended with error", "remote_addr", sess.RemoteAddr, "error", err)
		return
	}
	s.logger.Debug("session ended", "remote_addr", sess.RemoteAddr)
}

// Close stops the server by closing the underlying listener.
// If a shutdown timeout is configured, Close() bypasses the remaining timeout.
// Any blocked Accept calls will return with an error.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	select {
	case s.shutdownNow <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
