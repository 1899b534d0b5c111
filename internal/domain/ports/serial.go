package ports

import (
	"context"
	"io"

	"flipperdeck/internal/domain/models"
)

// SerialPort открытый двунаправленный байтовый поток к устройству.
// Close должен прерывать заблокированный Read.
type SerialPort interface {
	io.ReadWriteCloser
}

// PortSelector выбирает устройство для подключения (аналог диалога выбора порта).
type PortSelector interface {
	Select(ctx context.Context) (string, error)
}

// PortOpener открывает порт с заданной скоростью.
type PortOpener interface {
	Open(name string, baudRate int) (SerialPort, error)
}

// PortLister перечисляет доступные в системе последовательные порты.
type PortLister interface {
	ListPorts() ([]string, error)
}

// ActivityLog журнал активности, который видит пользователь.
type ActivityLog interface {
	Append(msg string) models.LogEntry
}
