package ports

// Logger определяет интерфейс диагностического логирования.
// Журнал активности, который видит пользователь, сюда не относится (см. ActivityLog).
type Logger interface {
	// Debug выводит отладочную информацию
	Debug(msg string, args ...interface{})

	// Info выводит информационные сообщения
	Info(msg string, args ...interface{})

	// Warn выводит предупреждения
	Warn(msg string, args ...interface{})

	// Error выводит ошибки
	Error(msg string, args ...interface{})

	// Fatal выводит критические ошибки и завершает программу
	Fatal(msg string, args ...interface{})

	// Printf форматированный вывод (для совместимости с middleware)
	Printf(format string, args ...interface{})

	// WithField возвращает логгер с дополнительным структурным полем
	WithField(key string, value interface{}) Logger
}
