package activity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"flipperdeck/internal/domain/models"
)

// Log журнал активности, который видит пользователь.
// Записи только добавляются и никогда не удаляются.
type Log struct {
	mu      sync.RWMutex
	entries []models.LogEntry
	now     func() time.Time
	subs    map[chan struct{}]struct{}
}

// NewLog создает пустой журнал.
func NewLog() *Log {
	return &Log{
		now:  time.Now,
		subs: make(map[chan struct{}]struct{}),
	}
}

// SetClock подменяет источник времени (для тестов).
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Append добавляет запись и уведомляет подписчиков.
func (l *Log) Append(msg string) models.LogEntry {
	l.mu.Lock()
	entry := models.LogEntry{
		Seq:     uint64(len(l.entries)) + 1,
		Time:    l.now(),
		Message: msg,
	}
	l.entries = append(l.entries, entry)
	for ch := range l.subs {
		// Медленный подписчик пропускает уведомление, но не блокирует запись
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	l.mu.Unlock()
	return entry
}

// Appendf форматирует и добавляет запись.
func (l *Log) Appendf(format string, args ...interface{}) models.LogEntry {
	return l.Append(fmt.Sprintf(format, args...))
}

// Len количество записей
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries возвращает копию всех записей.
func (l *Log) Entries() []models.LogEntry {
	return l.Since(0)
}

// Since возвращает записи с Seq больше seq.
func (l *Log) Since(seq uint64) []models.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq >= uint64(len(l.entries)) {
		return []models.LogEntry{}
	}
	result := make([]models.LogEntry, len(l.entries)-int(seq))
	copy(result, l.entries[seq:])
	return result
}

// Text возвращает журнал в виде текста, по строке на запись.
func (l *Log) Text() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var sb strings.Builder
	for _, e := range l.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Subscribe возвращает канал, в который приходит сигнал после каждой новой записи.
func (l *Log) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()
	return ch
}

// Unsubscribe отписывает канал, полученный из Subscribe, и закрывает его.
func (l *Log) Unsubscribe(sub <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		if ch == sub {
			delete(l.subs, ch)
			close(ch)
			return
		}
	}
}
