package dock

import (
	"time"

	"github.com/Zereker/dock/command"
)

// ErrorAction defines the action to take when a command cannot be decoded.
type ErrorAction int

const (
	// Disconnect ends the session when an error occurs.
	Disconnect ErrorAction = iota
	// Continue drops the bad command and keeps reading.
	Continue
)

// Default configuration values.
const (
	// DefaultTimeout is the idle and write timeout of a pipe.
	DefaultTimeout = 30 * time.Second
	// defaultReadSize is the largest chunk a raw packet reads at once.
	defaultReadSize = 4096
)

// options holds the configuration of a pipe and the layers above it.
type options struct {
	logger  Logger
	metrics *Metrics

	// onError is called when a command fails to decode.
	// Returns Disconnect to end the session, Continue to skip the command.
	onError func(error) ErrorAction

	registry     *command.Registry // decodes inbound commands
	replyUnknown bool              // answer unregistered tags with unkn

	timeout    time.Duration // idle timeout and write deadline
	maxPayload int           // maximum size of a single command payload
	readSize   int           // raw packet read size
}

// Option is a function that configures pipe and layer options.
type Option func(*options)

func newOptions(opt []Option) options {
	opts := options{
		timeout:      DefaultTimeout,
		replyUnknown: true,
	}
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)
	return opts
}

// checkOptions sets default values for unset options.
func checkOptions(opts *options) {
	if opts.readSize <= 0 {
		opts.readSize = defaultReadSize
	}

	if opts.maxPayload <= 0 {
		opts.maxPayload = command.DefaultMaxPayload
	}

	if opts.registry == nil {
		opts.registry = command.DeviceV2
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
}

// TimeoutOption sets the pipe timeout. Silence on the line for longer
// than this disconnects the pipe; writes that cannot complete within it
// fail with ErrTimeout. Zero or less disables the idle timeout.
func TimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// BufferSizeOption sets the largest chunk read from a stream transport as
// one packet.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.readSize = size
	}
}

// MessageMaxSize sets the maximum payload of a received command.
func MessageMaxSize(size int) Option {
	return func(o *options) {
		o.maxPayload = size
	}
}

// RegistryOption sets the registry used to decode received commands. The
// default decodes device commands of protocol version 2.
func RegistryOption(reg *command.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// ReplyUnknownOption controls whether unregistered commands are answered
// with an unknown-command reply. Enabled by default.
func ReplyUnknownOption(enabled bool) Option {
	return func(o *options) {
		o.replyUnknown = enabled
	}
}

// OnErrorOption sets the callback for commands that fail to decode.
// Return Disconnect to end the session, or Continue to skip the command.
// Framing errors always end the session.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// LoggerOption sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// MetricsOption sets the metrics collector. Metrics are off by default.
func MetricsOption(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
