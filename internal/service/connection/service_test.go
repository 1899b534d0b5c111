package connection

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/infrastructure/logger"
	"flipperdeck/internal/service/activity"
)

// fakePort порт-заглушка: куски данных приходят через канал, закрытие канала означает EOF.
type fakePort struct {
	mu       sync.Mutex
	reads    int
	written  bytes.Buffer
	chunks   chan []byte
	closed   chan struct{}
	once     sync.Once
	readErr  error
	writeErr error
	closeErr error
}

func newFakePort() *fakePort {
	return &fakePort{
		chunks: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.reads++
	p.mu.Unlock()

	select {
	case chunk, ok := <-p.chunks:
		if !ok {
			if p.readErr != nil {
				return 0, p.readErr
			}
			return 0, io.EOF
		}
		return copy(b, chunk), nil
	case <-p.closed:
		return 0, errors.New("port closed")
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return p.closeErr
}

func (p *fakePort) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

func (p *fakePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *fakePort) IsClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

type fakeSelector struct {
	name string
	err  error
}

func (s fakeSelector) Select(ctx context.Context) (string, error) {
	return s.name, s.err
}

// fakeOpener открыватель с перехватом вызова
type fakeOpener struct {
	OnOpen func(name string, baud int) (ports.SerialPort, error)
	calls  int
}

func (o *fakeOpener) Open(name string, baud int) (ports.SerialPort, error) {
	o.calls++
	return o.OnOpen(name, baud)
}

func openerFor(p *fakePort) *fakeOpener {
	return &fakeOpener{OnOpen: func(string, int) (ports.SerialPort, error) { return p, nil }}
}

func newTestManager(sel ports.PortSelector, op ports.PortOpener) (*Manager, *activity.Log) {
	log := activity.NewLog()
	return NewManager(sel, op, log, logger.NewDiscard(), Config{}), log
}

func messages(l *activity.Log) []string {
	var result []string
	for _, e := range l.Entries() {
		result = append(result, e.Message)
	}
	return result
}

func waitState(t *testing.T, m *Manager, want models.ConnectionState) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State() == want }, 2*time.Second, 5*time.Millisecond)
}

func TestDisconnect_NeverConnected(t *testing.T) {
	m, log := newTestManager(fakeSelector{}, &fakeOpener{})

	assert.NotPanics(t, m.Disconnect)
	assert.Equal(t, models.Disconnected, m.State())
	assert.Equal(t, []string{MsgClosed}, messages(log))

	// Повторный вызов безопасен
	m.Disconnect()
	assert.Equal(t, models.Disconnected, m.State())
}

func TestSend_NotConnected(t *testing.T) {
	op := &fakeOpener{}
	m, log := newTestManager(fakeSelector{}, op)

	err := m.Send(context.Background(), "device_info")

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, []string{MsgNotConnected}, messages(log))
	assert.Zero(t, op.calls)
}

func TestConnect_SendAndReceive(t *testing.T) {
	port := newFakePort()
	op := openerFor(port)
	m, log := newTestManager(fakeSelector{name: "/dev/ttyACM0"}, op)

	var mu sync.Mutex
	var states []models.ConnectionState
	m.SetOnStateChange(func(s models.ConnectionState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, models.Connected, m.State())
	assert.Equal(t, "/dev/ttyACM0", m.PortName())
	assert.NotEmpty(t, m.SessionID())

	require.NoError(t, m.Send(context.Background(), "device_info"))
	assert.Equal(t, "device_info\n", port.Written())

	port.chunks <- []byte("hardware_model      : Flipper Zero\r\n")
	require.Eventually(t, func() bool { return log.Len() == 3 }, 2*time.Second, 5*time.Millisecond)

	m.Disconnect()
	assert.True(t, port.IsClosed())
	assert.Equal(t, models.Disconnected, m.State())
	assert.Empty(t, m.SessionID())

	assert.Equal(t, []string{
		MsgConnected,
		"Command sent: device_info",
		"Flipper: hardware_model      : Flipper Zero",
		MsgClosed,
	}, messages(log))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.ConnectionState{models.Connected, models.Disconnected}, states)
}

func TestReadLoop_SplitUTF8(t *testing.T) {
	port := newFakePort()
	m, log := newTestManager(fakeSelector{name: "p"}, openerFor(port))
	require.NoError(t, m.Connect(context.Background()))

	raw := []byte("Привет")
	port.chunks <- raw[:3]
	port.chunks <- raw[3:]
	close(port.chunks)

	waitState(t, m, models.Disconnected)
	assert.Equal(t, []string{MsgConnected, "Flipper: П", "Flipper: ривет", MsgStreamEnded}, messages(log))
}

func TestReadLoop_EndOfStream(t *testing.T) {
	port := newFakePort()
	m, log := newTestManager(fakeSelector{name: "p"}, openerFor(port))

	var mu sync.Mutex
	var last models.ConnectionState
	m.SetOnStateChange(func(s models.ConnectionState) {
		mu.Lock()
		last = s
		mu.Unlock()
	})

	require.NoError(t, m.Connect(context.Background()))
	port.chunks <- []byte("bye")
	close(port.chunks)

	waitState(t, m, models.Disconnected)
	reads := port.Reads()
	assert.Equal(t, 2, reads)
	assert.True(t, port.IsClosed())

	// Цикл завершен: новых чтений не будет
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, reads, port.Reads())

	assert.Equal(t, []string{MsgConnected, "Flipper: bye", MsgStreamEnded}, messages(log))
	mu.Lock()
	assert.Equal(t, models.Disconnected, last)
	mu.Unlock()

	// После самостоятельного завершения Disconnect безопасен
	m.Disconnect()
	assert.Equal(t, models.Disconnected, m.State())
}

func TestReadLoop_ReadError(t *testing.T) {
	port := newFakePort()
	port.readErr = errors.New("device unplugged")
	m, log := newTestManager(fakeSelector{name: "p"}, openerFor(port))
	require.NoError(t, m.Connect(context.Background()))

	close(port.chunks)

	waitState(t, m, models.Disconnected)
	assert.Equal(t, []string{MsgConnected, "Read error: device unplugged"}, messages(log))
	assert.True(t, port.IsClosed())
}

func TestConnect_Failures(t *testing.T) {
	tests := []struct {
		name    string
		sel     fakeSelector
		openErr error
		wantErr error
		wantMsg string
	}{
		{
			name:    "no serial support",
			sel:     fakeSelector{err: ports.ErrSerialUnsupported},
			wantErr: ErrSerialUnsupported,
			wantMsg: MsgUnsupported,
		},
		{
			name:    "selection cancelled",
			sel:     fakeSelector{err: ports.ErrSelectionCancelled},
			wantErr: ErrSelectionCancelled,
			wantMsg: "Connection error: " + ports.ErrSelectionCancelled.Error(),
		},
		{
			name:    "open fails",
			sel:     fakeSelector{name: "/dev/ttyACM0"},
			openErr: errors.New("permission denied"),
			wantMsg: "Connection error: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &fakeOpener{OnOpen: func(string, int) (ports.SerialPort, error) {
				return nil, tt.openErr
			}}
			m, log := newTestManager(tt.sel, op)

			err := m.Connect(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, models.Failed, m.State())
			assert.Equal(t, []string{tt.wantMsg}, messages(log))
		})
	}
}

func TestConnect_RetryAfterFailure(t *testing.T) {
	port := newFakePort()
	attempt := 0
	op := &fakeOpener{OnOpen: func(string, int) (ports.SerialPort, error) {
		attempt++
		if attempt == 1 {
			return nil, errors.New("busy")
		}
		return port, nil
	}}
	m, _ := newTestManager(fakeSelector{name: "p"}, op)

	require.Error(t, m.Connect(context.Background()))
	assert.Equal(t, models.Failed, m.State())

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, models.Connected, m.State())
	m.Disconnect()
}

func TestConnect_AlreadyConnected(t *testing.T) {
	port := newFakePort()
	op := openerFor(port)
	m, _ := newTestManager(fakeSelector{name: "p"}, op)

	require.NoError(t, m.Connect(context.Background()))
	assert.ErrorIs(t, m.Connect(context.Background()), ErrAlreadyConnected)
	assert.Equal(t, 1, op.calls)
	assert.False(t, port.IsClosed())
	m.Disconnect()
}

func TestConnect_BaudRate(t *testing.T) {
	var gotBaud int
	port := newFakePort()
	op := &fakeOpener{OnOpen: func(_ string, baud int) (ports.SerialPort, error) {
		gotBaud = baud
		return port, nil
	}}
	m, _ := newTestManager(fakeSelector{name: "p"}, op)

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 115200, gotBaud)
	m.Disconnect()
}

func TestDisconnect_CloseError(t *testing.T) {
	port := newFakePort()
	port.closeErr = errors.New("io failure")
	m, log := newTestManager(fakeSelector{name: "p"}, openerFor(port))
	require.NoError(t, m.Connect(context.Background()))

	m.Disconnect()

	assert.Equal(t, models.Disconnected, m.State())
	assert.Equal(t, []string{MsgConnected, "Disconnect error: io failure"}, messages(log))
}

func TestSend_WriteError(t *testing.T) {
	port := newFakePort()
	port.writeErr = errors.New("broken pipe")
	m, log := newTestManager(fakeSelector{name: "p"}, openerFor(port))
	require.NoError(t, m.Connect(context.Background()))
	defer m.Disconnect()

	err := m.Send(context.Background(), "ps")
	require.Error(t, err)
	assert.Equal(t, models.Connected, m.State())
	assert.Contains(t, messages(log), "Send error: broken pipe")
}
