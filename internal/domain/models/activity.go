package models

import (
	"fmt"
	"time"
)

// LogEntry одна запись журнала активности
type LogEntry struct {
	Seq     uint64    `json:"seq"` // Порядковый номер, начиная с 1
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// String форматирует запись так, как она выводится в журнал: "[15:04:05] сообщение".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}
