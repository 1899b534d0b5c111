package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"flipperdeck/internal/domain/ports"
)

// LogrusLogger реализует интерфейс ports.Logger поверх logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// Options параметры создания логгера
type Options struct {
	Level  string    // debug, info, warn, error
	Output io.Writer // По умолчанию os.Stderr
}

// New создает логгер с указанными параметрами.
func New(opts Options) (ports.Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("неверный уровень логирования %q: %w", opts.Level, err)
		}
		l.SetLevel(lvl)
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}, nil
}

// NewDiscard создает логгер, который ничего не выводит (для тестов).
func NewDiscard() ports.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *LogrusLogger) Info(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *LogrusLogger) Warn(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *LogrusLogger) Error(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

// Fatal выводит критическую ошибку и завершает программу.
func (l *LogrusLogger) Fatal(msg string, args ...interface{}) {
	l.entry.Fatalf(msg, args...)
}

func (l *LogrusLogger) Printf(format string, args ...interface{}) {
	l.entry.Printf(format, args...)
}

// WithField возвращает дочерний логгер с полем key=value.
func (l *LogrusLogger) WithField(key string, value interface{}) ports.Logger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}
