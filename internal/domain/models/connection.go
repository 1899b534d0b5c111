package models

// ConnectionState состояние подключения к устройству
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText позволяет отдавать состояние в JSON строкой.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
