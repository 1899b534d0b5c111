package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/infrastructure/textcodec"
)

var (
	ErrSerialUnsupported  = ports.ErrSerialUnsupported
	ErrSelectionCancelled = ports.ErrSelectionCancelled
	ErrNotConnected       = errors.New("connection: not connected")
	ErrAlreadyConnected   = errors.New("connection: already connected")
)

// Сообщения журнала активности
const (
	MsgConnected     = "Serial connection established."
	MsgClosed        = "Serial connection closed."
	MsgStreamEnded   = "Serial stream ended."
	MsgUnsupported   = "Serial not supported on this host."
	MsgNotConnected  = "No active connection. Launch demo mode or connect first."
	msgConnectError  = "Connection error: %v"
	msgDisconnectErr = "Disconnect error: %v"
	msgReadError     = "Read error: %v"
	msgSendError     = "Send error: %v"
	msgCommandSent   = "Command sent: %s"
	msgDevicePrefix  = "Flipper: "
)

const (
	readBufferSize  = 1024
	defaultBaudRate = 115200
)

// Config параметры менеджера подключения
type Config struct {
	BaudRate int              // 0 = 115200
	Codec    *textcodec.Codec // nil = UTF-8
}

// Manager владеет открытым портом устройства: подключение, отключение,
// отправка команд и единственный цикл чтения.
type Manager struct {
	selector ports.PortSelector
	opener   ports.PortOpener
	activity ports.ActivityLog
	log      ports.Logger
	baudRate int
	codec    *textcodec.Codec

	mu         sync.Mutex
	state      models.ConnectionState
	connecting bool
	port       ports.SerialPort
	portName   string
	sessionID  string
	cancel     context.CancelFunc
	done       chan struct{}
	onChange   func(models.ConnectionState)

	// Захватывается на время одной записи, между вызовами Send не удерживается
	writeMu sync.Mutex
}

// NewManager создает менеджер в состоянии Disconnected.
func NewManager(selector ports.PortSelector, opener ports.PortOpener, activity ports.ActivityLog, log ports.Logger, cfg Config) *Manager {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = defaultBaudRate
	}
	if cfg.Codec == nil {
		cfg.Codec = textcodec.MustUTF8()
	}
	return &Manager{
		selector: selector,
		opener:   opener,
		activity: activity,
		log:      log,
		baudRate: cfg.BaudRate,
		codec:    cfg.Codec,
		state:    models.Disconnected,
	}
}

// SetOnStateChange устанавливает callback смены состояния.
// Вызывается без удерживаемых блокировок менеджера, в том числе из цикла чтения.
func (m *Manager) SetOnStateChange(fn func(models.ConnectionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// State возвращает текущее состояние подключения
func (m *Manager) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID идентификатор текущего подключения (пусто, если не подключено)
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// PortName имя открытого порта (пусто, если не подключено)
func (m *Manager) PortName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.portName
}

// Connect выбирает устройство, открывает порт и запускает цикл чтения.
// При ошибке состояние становится Failed, причина пишется в журнал; повторов нет.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == models.Connected || m.connecting {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.connecting = true
	m.mu.Unlock()

	name, err := m.selector.Select(ctx)
	if err != nil {
		return m.fail(err)
	}

	port, err := m.opener.Open(name, m.baudRate)
	if err != nil {
		return m.fail(err)
	}

	sessionID := uuid.NewString()
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.connecting = false
	m.state = models.Connected
	m.port = port
	m.portName = name
	m.sessionID = sessionID
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.log.WithField("session", sessionID).Info("[SERIAL] Подключено к %s (%d бод)", name, m.baudRate)
	m.activity.Append(MsgConnected)
	m.notify(models.Connected)

	go m.readLoop(loopCtx, sessionID, port, done)
	return nil
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.connecting = false
	m.state = models.Failed
	m.mu.Unlock()

	if errors.Is(err, ErrSerialUnsupported) {
		m.activity.Append(MsgUnsupported)
	} else {
		m.activity.Append(fmt.Sprintf(msgConnectError, err))
	}
	m.log.Warn("[SERIAL] Ошибка подключения: %v", err)
	m.notify(models.Failed)
	return err
}

// Disconnect останавливает цикл чтения и закрывает порт.
// Идемпотентен; ошибки закрытия пишутся в журнал и наружу не возвращаются.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	port, cancel, done, session := m.port, m.cancel, m.done, m.sessionID
	m.port = nil
	m.cancel = nil
	m.done = nil
	m.portName = ""
	m.sessionID = ""
	m.state = models.Disconnected
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var closeErr error
	if port != nil {
		// Close прерывает заблокированный Read
		closeErr = port.Close()
	}
	if done != nil {
		<-done
	}

	if closeErr != nil {
		m.activity.Append(fmt.Sprintf(msgDisconnectErr, closeErr))
		m.log.Error("[SERIAL] Ошибка закрытия порта: %v", closeErr)
	} else {
		m.activity.Append(MsgClosed)
	}
	if session != "" {
		m.log.WithField("session", session).Info("[SERIAL] Отключено")
	}
	m.notify(models.Disconnected)
}

// Send кодирует команду с завершающим переводом строки и записывает ее в порт.
// Без открытого порта пишет одно сообщение в журнал и возвращает ErrNotConnected.
func (m *Manager) Send(ctx context.Context, command string) error {
	m.mu.Lock()
	port := m.port
	m.mu.Unlock()

	if port == nil {
		m.activity.Append(MsgNotConnected)
		return ErrNotConnected
	}

	payload, err := m.codec.EncodeLine(command)
	if err != nil {
		m.activity.Append(fmt.Sprintf(msgSendError, err))
		return err
	}

	m.writeMu.Lock()
	err = writeAll(ctx, port, payload)
	m.writeMu.Unlock()

	if err != nil {
		m.activity.Append(fmt.Sprintf(msgSendError, err))
		m.log.Error("[SERIAL] Ошибка записи %q: %v", command, err)
		return fmt.Errorf("ошибка отправки команды: %w", err)
	}

	m.log.Debug("[SERIAL] >> TX: %s", command)
	m.activity.Append(fmt.Sprintf(msgCommandSent, command))
	return nil
}

func writeAll(ctx context.Context, w io.Writer, data []byte) error {
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

// readLoop читает порт до конца потока, ошибки или отмены.
func (m *Manager) readLoop(ctx context.Context, session string, port ports.SerialPort, done chan struct{}) {
	defer close(done)

	dec := m.codec.NewDecoder()
	buf := make([]byte, readBufferSize)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := port.Read(buf)
		if n > 0 {
			m.emit(dec.Decode(buf[:n]))
		}
		if err == nil {
			// n == 0 без ошибки: истек период опроса, проверяем отмену
			continue
		}

		// Отключение пользователем: ошибка вызвана закрытием порта
		if ctx.Err() != nil {
			return
		}

		m.emit(dec.Flush())
		if errors.Is(err, io.EOF) {
			m.activity.Append(MsgStreamEnded)
			m.log.Info("[SERIAL] Поток устройства завершен")
		} else {
			m.activity.Append(fmt.Sprintf(msgReadError, err))
			m.log.Error("[SERIAL] Ошибка чтения: %v", err)
		}
		m.release(session)
		return
	}
}

// release закрывает порт после завершения цикла чтения, если подключение не было заменено.
func (m *Manager) release(session string) {
	m.mu.Lock()
	if m.sessionID != session {
		m.mu.Unlock()
		return
	}
	port, cancel := m.port, m.cancel
	m.port = nil
	m.cancel = nil
	m.done = nil
	m.portName = ""
	m.sessionID = ""
	m.state = models.Disconnected
	m.mu.Unlock()

	cancel()
	if err := port.Close(); err != nil {
		m.log.Warn("[SERIAL] Ошибка закрытия порта после завершения потока: %v", err)
	}
	m.notify(models.Disconnected)
}

func (m *Manager) emit(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	m.activity.Append(msgDevicePrefix + trimmed)
}

func (m *Manager) notify(state models.ConnectionState) {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}
