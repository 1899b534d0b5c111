package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/infrastructure/textcodec"
)

// DefaultBaudRate скорость порта Flipper Zero
const DefaultBaudRate = 115200

var (
	ErrInvalidBaudRate   = errors.New("config: baud rate must be positive")
	ErrInvalidCommand    = errors.New("config: command needs id, label and command")
	ErrDuplicateCommand  = errors.New("config: duplicate command id")
	ErrEmptyWebAddr      = errors.New("config: web address is empty")
	ErrInvalidPollPeriod = errors.New("config: poll interval must not be negative")
)

// SerialConfig параметры последовательного порта
type SerialConfig struct {
	Port           string `yaml:"port"`             // Пусто = первый найденный порт
	BaudRate       int    `yaml:"baud_rate"`        // По умолчанию 115200
	Encoding       string `yaml:"encoding"`         // WHATWG-метка, по умолчанию utf-8
	PollIntervalMs int    `yaml:"poll_interval_ms"` // Период опроса при чтении
}

// PollInterval период опроса в виде time.Duration (0 = значение по умолчанию драйвера)
func (s SerialConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

// WebConfig параметры встроенного веб-сервера
type WebConfig struct {
	Addr           string `yaml:"addr"`
	RequestLogging bool   `yaml:"request_logging"`
	BodyLimit      string `yaml:"body_limit"`
}

// LogConfig параметры диагностического лога
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Используется в режиме TUI, чтобы не портить экран
}

// Config конфигурация приложения
type Config struct {
	Serial   SerialConfig           `yaml:"serial"`
	Commands []models.CommandButton `yaml:"commands"`
	Web      WebConfig              `yaml:"web"`
	Log      LogConfig              `yaml:"log"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate: DefaultBaudRate,
			Encoding: textcodec.DefaultEncoding,
		},
		Commands: DefaultCommands(),
		Web: WebConfig{
			Addr:      "127.0.0.1:8642",
			BodyLimit: "64K",
		},
		Log: LogConfig{
			Level: "info",
			File:  "flipperdeck.log",
		},
	}
}

// DefaultCommands набор кнопок команд по умолчанию
func DefaultCommands() []models.CommandButton {
	return []models.CommandButton{
		{ID: "info", Label: "Device Info", Command: "device_info"},
		{ID: "power", Label: "Battery Status", Command: "power info"},
		{ID: "sd", Label: "List SD Card", Command: "storage list /ext"},
		{ID: "led", Label: "Backlight On", Command: "led bl 255"},
		{ID: "vibro", Label: "Vibrate", Command: "vibro 1"},
	}
}

// DefaultPath путь к файлу конфигурации по умолчанию (~/.config/flipperdeck/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "flipperdeck", "config.yaml"), nil
}

// LoadFile читает конфигурацию из файла и накладывает ее на значения по умолчанию.
// Если файла нет, возвращаются значения по умолчанию.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	cfg.merge(&loaded)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Serial.Port != "" {
		c.Serial.Port = o.Serial.Port
	}
	if o.Serial.BaudRate != 0 {
		c.Serial.BaudRate = o.Serial.BaudRate
	}
	if o.Serial.Encoding != "" {
		c.Serial.Encoding = o.Serial.Encoding
	}
	if o.Serial.PollIntervalMs != 0 {
		c.Serial.PollIntervalMs = o.Serial.PollIntervalMs
	}
	if len(o.Commands) > 0 {
		c.Commands = o.Commands
	}
	if o.Web.Addr != "" {
		c.Web.Addr = o.Web.Addr
	}
	if o.Web.BodyLimit != "" {
		c.Web.BodyLimit = o.Web.BodyLimit
	}
	c.Web.RequestLogging = o.Web.RequestLogging
	if o.Log.Level != "" {
		c.Log.Level = o.Log.Level
	}
	if o.Log.File != "" {
		c.Log.File = o.Log.File
	}
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if c.Serial.BaudRate <= 0 {
		return ErrInvalidBaudRate
	}
	if c.Serial.PollIntervalMs < 0 {
		return ErrInvalidPollPeriod
	}
	if _, err := textcodec.Lookup(c.Serial.Encoding); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Web.Addr == "" {
		return ErrEmptyWebAddr
	}

	seen := make(map[string]bool, len(c.Commands))
	for i, cmd := range c.Commands {
		if cmd.ID == "" || cmd.Label == "" || cmd.Command == "" {
			return fmt.Errorf("%w (#%d)", ErrInvalidCommand, i+1)
		}
		if seen[cmd.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.ID)
		}
		seen[cmd.ID] = true
	}
	return nil
}
