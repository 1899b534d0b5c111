package serialport

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.bug.st/serial"

	"flipperdeck/internal/domain/ports"
)

// DefaultPollInterval период, через который заблокированное чтение возвращает управление
// циклу чтения, чтобы тот мог заметить отмену.
const DefaultPollInterval = 200 * time.Millisecond

// Opener открывает последовательные порты через go.bug.st/serial (8N1).
type Opener struct {
	pollInterval time.Duration
}

// NewOpener создает Opener. pollInterval <= 0 означает DefaultPollInterval.
func NewOpener(pollInterval time.Duration) *Opener {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Opener{pollInterval: pollInterval}
}

// Open открывает порт name на скорости baudRate.
func (o *Opener) Open(name string, baudRate int) (ports.SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия порта %s: %w", name, err)
	}
	if err := p.SetReadTimeout(o.pollInterval); err != nil {
		p.Close()
		return nil, fmt.Errorf("ошибка настройки таймаута чтения %s: %w", name, err)
	}
	return p, nil
}

// SystemLister перечисляет порты операционной системы.
type SystemLister struct{}

// ListPorts возвращает отсортированный список доступных в системе портов
func (SystemLister) ListPorts() ([]string, error) {
	list, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(list)
	return list, nil
}

// Selector заменяет диалог выбора устройства: берет явно заданный порт,
// иначе первый из перечисленных системой.
type Selector struct {
	preferred string
	lister    ports.PortLister
}

// NewSelector создает Selector. preferred может быть пустым.
func NewSelector(preferred string, lister ports.PortLister) *Selector {
	if lister == nil {
		lister = SystemLister{}
	}
	return &Selector{preferred: preferred, lister: lister}
}

// Select возвращает имя порта для подключения.
func (s *Selector) Select(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ports.ErrSelectionCancelled
	}
	if s.preferred != "" {
		return s.preferred, nil
	}

	list, err := s.lister.ListPorts()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrSerialUnsupported, err)
	}
	if len(list) == 0 {
		return "", ports.ErrSerialUnsupported
	}
	return list[0], nil
}
