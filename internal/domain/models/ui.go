package models

// Tone оттенок строки статуса
type Tone string

const (
	ToneDefault Tone = "default"
	ToneAlert   Tone = "alert"
)

// TelemetryRow строка панели телеметрии (метка и значение)
type TelemetryRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CommandButton заранее заданная команда, доступная пользователю кнопкой.
// Command передается устройству как есть.
type CommandButton struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Command string `json:"command" yaml:"command"`
}
