package ports

import "errors"

var (
	// ErrSerialUnsupported хост не дает доступа к последовательным портам.
	ErrSerialUnsupported = errors.New("serial: not supported on this host")
	// ErrSelectionCancelled пользователь отменил выбор устройства.
	ErrSelectionCancelled = errors.New("serial: device selection cancelled")
)
