package dock

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Interface(t *testing.T) {
	var _ Logger = slog.Default()
	var _ Logger = NopLogger{}
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()
	assert.Equal(t, Logger(slog.Default()), logger)
}

// mockLogger records the messages logged at each level.
type mockLogger struct {
	mu     sync.Mutex
	debugs []string
	infos  []string
	warns  []string
	errors []string
}

func (l *mockLogger) Debug(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, msg)
}

func (l *mockLogger) Info(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) infoMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.infos...)
}

func TestLogger_PipeUsesInjectedLogger(t *testing.T) {
	logger := &mockLogger{}
	p := NewPipe(LoggerOption(logger))
	assert.NoError(t, p.StartListening())

	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.Contains(t, logger.debugs, "pipe state")
}
