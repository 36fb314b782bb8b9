package dock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/dock/command"
)

func TestNewOptions_Defaults(t *testing.T) {
	opts := newOptions(nil)

	assert.Equal(t, DefaultTimeout, opts.timeout)
	assert.Equal(t, defaultReadSize, opts.readSize)
	assert.Equal(t, command.DefaultMaxPayload, opts.maxPayload)
	assert.Same(t, command.DeviceV2, opts.registry)
	assert.True(t, opts.replyUnknown)
	assert.Nil(t, opts.metrics)
	require.NotNil(t, opts.onError)
	assert.Equal(t, Disconnect, opts.onError(errors.New("boom")))
	assert.NotNil(t, opts.logger)
}

func TestNewOptions_Overrides(t *testing.T) {
	logger := &mockLogger{}
	metrics := NewMetrics(nil)
	called := false

	opts := newOptions([]Option{
		TimeoutOption(time.Second),
		BufferSizeOption(100),
		MessageMaxSize(4096),
		RegistryOption(command.DeviceV1),
		ReplyUnknownOption(false),
		OnErrorOption(func(error) ErrorAction {
			called = true
			return Continue
		}),
		LoggerOption(logger),
		MetricsOption(metrics),
	})

	assert.Equal(t, time.Second, opts.timeout)
	assert.Equal(t, 100, opts.readSize)
	assert.Equal(t, 4096, opts.maxPayload)
	assert.Same(t, command.DeviceV1, opts.registry)
	assert.False(t, opts.replyUnknown)
	assert.Equal(t, Continue, opts.onError(nil))
	assert.True(t, called)
	assert.Same(t, logger, opts.logger)
	assert.Same(t, metrics, opts.metrics)
}

func TestTimeoutOption_ZeroDisablesIdleTimer(t *testing.T) {
	opts := newOptions([]Option{TimeoutOption(0)})
	assert.Zero(t, opts.timeout)
}

func TestCheckOptions_InvalidSizes(t *testing.T) {
	opts := options{readSize: -1, maxPayload: -5}
	checkOptions(&opts)

	assert.Equal(t, defaultReadSize, opts.readSize)
	assert.Equal(t, command.DefaultMaxPayload, opts.maxPayload)
}
