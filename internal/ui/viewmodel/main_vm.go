package viewmodel

import "flipperdeck/internal/domain/models"

// Тексты строки статуса
const (
	StatusDisconnected = "Disconnected"
	StatusConnected    = "Connected to Flipper Zero"
	StatusFailed       = "Connection failed"
	StatusUnsupported  = "Serial not supported"
	StatusDemo         = "Demo mode active"
)

// MainViewModel состояние главного экрана: статус подключения, телеметрия,
// отфильтрованный каталог и кнопки команд.
type MainViewModel struct {
	Status    string      `json:"status"`
	Tone      models.Tone `json:"tone"`
	Connected bool        `json:"connected"`
	DemoMode  bool        `json:"demoMode"`
	PortName  string      `json:"portName,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`

	Telemetry []models.TelemetryRow `json:"telemetry"`

	// Фильтр каталога и его результат
	Query      string               `json:"query"`
	Category   models.Category      `json:"category"`
	Categories []models.Category    `json:"categories"`
	Scripts    []models.ScriptEntry `json:"scripts"`

	Commands []models.CommandButton `json:"commands"`
}

// NewMainViewModel создаёт MainViewModel с дефолтными значениями.
func NewMainViewModel() *MainViewModel {
	return &MainViewModel{
		Status:     StatusDisconnected,
		Tone:       models.ToneDefault,
		Category:   models.CategoryAll,
		Telemetry:  []models.TelemetryRow{},
		Categories: []models.Category{},
		Scripts:    []models.ScriptEntry{},
		Commands:   []models.CommandButton{},
	}
}

// SetStatus меняет строку статуса
func (vm *MainViewModel) SetStatus(text string, tone models.Tone) {
	vm.Status = text
	vm.Tone = tone
}

// StatusLine строка статуса в том виде, в каком она выводится пользователю
func (vm *MainViewModel) StatusLine() string {
	return "Status: " + vm.Status
}

// MarkDisconnected сбрасывает поля подключения.
func (vm *MainViewModel) MarkDisconnected() {
	vm.Connected = false
	vm.PortName = ""
	vm.SessionID = ""
	vm.SetStatus(StatusDisconnected, models.ToneDefault)
}

// Snapshot возвращает независимую копию.
func (vm *MainViewModel) Snapshot() MainViewModel {
	snap := *vm
	snap.Telemetry = append([]models.TelemetryRow{}, vm.Telemetry...)
	snap.Categories = append([]models.Category{}, vm.Categories...)
	snap.Scripts = append([]models.ScriptEntry{}, vm.Scripts...)
	snap.Commands = append([]models.CommandButton{}, vm.Commands...)
	return snap
}
