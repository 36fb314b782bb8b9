package dock

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectedPipe returns a connected pipe over one end of an in-memory
// connection, and the device end.
func connectedPipe(t *testing.T, opt ...Option) (*Pipe, net.Conn) {
	t.Helper()
	local, device := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = device.Close()
	})

	p := NewPipe(append([]Option{LoggerOption(NopLogger{})}, opt...)...)
	require.NoError(t, p.StartListening())
	require.NoError(t, p.Incoming(NewStreamTransport(local)))
	require.NoError(t, p.Accept())
	return p, device
}

func TestNewPipe_Disconnected(t *testing.T) {
	p := NewPipe(LoggerOption(NopLogger{}))
	assert.Equal(t, StateDisconnected, p.State())
	assert.Equal(t, DefaultTimeout, p.Timeout())
}

func TestPipe_AcceptWhileDisconnected(t *testing.T) {
	p := NewPipe(LoggerOption(NopLogger{}))

	err := p.Accept()
	assert.ErrorIs(t, err, ErrBadPipeState)
	assert.Equal(t, StateDisconnected, p.State())
}

func TestPipe_ConnectSequence(t *testing.T) {
	local, device := net.Pipe()
	defer local.Close()
	defer device.Close()

	p := NewPipe(LoggerOption(NopLogger{}))
	require.NoError(t, p.StartListening())
	assert.Equal(t, StateListening, p.State())

	require.NoError(t, p.Incoming(NewStreamTransport(local)))
	assert.Equal(t, StateConnectPending, p.State())

	require.NoError(t, p.Accept())
	assert.Equal(t, StateConnected, p.State())
}

func TestPipe_GuardsLeaveStateUnchanged(t *testing.T) {
	local, device := net.Pipe()
	defer local.Close()
	defer device.Close()

	p := NewPipe(LoggerOption(NopLogger{}))
	assert.ErrorIs(t, p.Incoming(NewStreamTransport(local)), ErrBadPipeState)
	assert.Equal(t, StateDisconnected, p.State())

	require.NoError(t, p.StartListening())
	assert.ErrorIs(t, p.StartListening(), ErrBadPipeState)
	assert.ErrorIs(t, p.Accept(), ErrBadPipeState)

	_, err := p.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrBadPipeState)
	_, err = p.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrBadPipeState)
	_, err = p.Idle()
	assert.ErrorIs(t, err, ErrBadPipeState)

	assert.Equal(t, StateListening, p.State())
}

func TestPipe_DisconnectFromAnyState(t *testing.T) {
	steps := map[string]func(t *testing.T) *Pipe{
		"disconnected": func(t *testing.T) *Pipe {
			return NewPipe(LoggerOption(NopLogger{}))
		},
		"listening": func(t *testing.T) *Pipe {
			p := NewPipe(LoggerOption(NopLogger{}))
			require.NoError(t, p.StartListening())
			return p
		},
		"connect pending": func(t *testing.T) *Pipe {
			local, _ := net.Pipe()
			p := NewPipe(LoggerOption(NopLogger{}))
			require.NoError(t, p.StartListening())
			require.NoError(t, p.Incoming(NewStreamTransport(local)))
			return p
		},
		"connected": func(t *testing.T) *Pipe {
			p, _ := connectedPipe(t)
			return p
		},
		"user state": func(t *testing.T) *Pipe {
			p, _ := connectedPipe(t)
			require.NoError(t, p.SetUserState(UserState(1)))
			return p
		},
	}

	for name, setup := range steps {
		t.Run(name, func(t *testing.T) {
			p := setup(t)
			require.NoError(t, p.Disconnect())
			assert.Equal(t, StateDisconnected, p.State())

			n, err := p.Read(make([]byte, 8))
			assert.Zero(t, n)
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestPipe_DisconnectFlushesBuffer(t *testing.T) {
	p, _ := connectedPipe(t)
	require.True(t, p.deliver([]byte("pending")))
	assert.Equal(t, 7, p.Available())

	require.NoError(t, p.Disconnect())
	assert.Zero(t, p.Available())

	n, err := p.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestPipe_ReadDrainsAfterEndOfStream(t *testing.T) {
	p, _ := connectedPipe(t)
	require.True(t, p.deliver([]byte("abc")))
	p.endOfStream()
	assert.Equal(t, StateDisconnectPending, p.State())

	idle, err := p.Idle()
	require.NoError(t, err)
	assert.Equal(t, 3, idle)

	buf := make([]byte, 8)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	_, err = p.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.False(t, p.deliver([]byte("late")))
}

func TestPipe_ReadBlocksUntilDelivered(t *testing.T) {
	p, _ := connectedPipe(t)

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := p.Read(buf)
		got <- string(buf[:n])
	}()

	select {
	case <-got:
		t.Fatal("read returned before data arrived")
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, p.deliver([]byte("newt")))
	select {
	case s := <-got:
		assert.Equal(t, "newt", s)
	case <-time.After(time.Second):
		t.Fatal("read did not wake up")
	}
}

func TestPipe_ReadWakesOnDisconnect(t *testing.T) {
	p, _ := connectedPipe(t)

	done := make(chan error, 1)
	go func() {
		_, err := p.Read(make([]byte, 4))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.Disconnect())

	select {
	case err := <-done:
		assert.Equal(t, io.EOF, err)
	case <-time.After(time.Second):
		t.Fatal("read did not wake up")
	}
}

func TestPipe_Dispose(t *testing.T) {
	p, _ := connectedPipe(t)
	require.NoError(t, p.Dispose())
	assert.Equal(t, StateDisconnected, p.State())

	err := p.StartListening()
	assert.ErrorIs(t, err, ErrPipeDisposed)
	assert.ErrorIs(t, err, ErrBadPipeState)

	_, err = p.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrPipeDisposed)
}

func TestPipe_Write(t *testing.T) {
	p, device := connectedPipe(t)

	go func() {
		_, _ = p.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	_, err := io.ReadFull(device, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestPipe_WriteTimeout(t *testing.T) {
	p, _ := connectedPipe(t, TimeoutOption(50*time.Millisecond))

	// Nobody reads the device end.
	_, err := p.Write([]byte("stuck"))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPipe_WriteAfterDeviceClosed(t *testing.T) {
	p, device := connectedPipe(t)
	require.NoError(t, device.Close())

	_, err := p.Write([]byte("gone"))
	assert.ErrorIs(t, err, ErrPipeDisconnected)
	assert.Equal(t, StateDisconnectPending, p.State())
}

func TestPipe_UserStates(t *testing.T) {
	p, _ := connectedPipe(t)

	require.NoError(t, p.SetUserState(UserState(2)))
	assert.Equal(t, UserState(2), p.State())
	assert.True(t, p.State().IsUser())
	assert.Equal(t, "user state 2", p.State().String())

	assert.True(t, p.deliver([]byte("x")))
	idle, err := p.Idle()
	require.NoError(t, err)
	assert.Equal(t, 1, idle)

	assert.ErrorIs(t, p.SetUserState(StateBusy), ErrBadPipeState)
	require.NoError(t, p.SetUserState(StateConnected))
	assert.Equal(t, StateConnected, p.State())

	listening := NewPipe(LoggerOption(NopLogger{}))
	assert.ErrorIs(t, listening.SetUserState(UserState(0)), ErrBadPipeState)
}

func TestPipeState_String(t *testing.T) {
	assert.Equal(t, "connect pending", StateConnectPending.String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "state 42", PipeState(42).String())
	assert.False(t, StateDisconnected.IsUser())
}
