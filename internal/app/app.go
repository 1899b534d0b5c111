package app

import (
	"fmt"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/infrastructure/config"
	"flipperdeck/internal/infrastructure/serialport"
	"flipperdeck/internal/infrastructure/textcodec"
	"flipperdeck/internal/service/activity"
	"flipperdeck/internal/service/catalog"
	"flipperdeck/internal/service/connection"
	"flipperdeck/internal/service/telemetry"
	"flipperdeck/internal/ui/controller"
	"flipperdeck/internal/ui/viewmodel"
)

// App представляет собранное приложение: порт, менеджер подключения,
// журнал активности и контроллер главного экрана.
type App struct {
	Config     *config.Config
	Log        ports.Logger
	Activity   *activity.Log
	Lister     ports.PortLister
	Manager    *connection.Manager
	Controller *controller.MainController
}

// Deps внешние зависимости, которые можно подменить (по умолчанию системные)
type Deps struct {
	Lister ports.PortLister
	Opener ports.PortOpener
}

// New создает новый экземпляр приложения по конфигурации.
func New(cfg *config.Config, log ports.Logger) (*App, error) {
	return NewWithDeps(cfg, log, Deps{})
}

// NewWithDeps как New, но с явными адаптерами порта.
func NewWithDeps(cfg *config.Config, log ports.Logger, deps Deps) (*App, error) {
	codec, err := textcodec.New(cfg.Serial.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to set up text codec: %w", err)
	}

	if deps.Lister == nil {
		deps.Lister = serialport.SystemLister{}
	}
	if deps.Opener == nil {
		deps.Opener = serialport.NewOpener(cfg.Serial.PollInterval())
	}

	act := activity.NewLog()
	selector := serialport.NewSelector(cfg.Serial.Port, deps.Lister)
	mgr := connection.NewManager(selector, deps.Opener, act, log.WithField("component", "connection"), connection.Config{
		BaudRate: cfg.Serial.BaudRate,
		Codec:    codec,
	})

	ctrl := controller.NewMainController(
		viewmodel.NewMainViewModel(),
		mgr,
		catalog.NewDefault(),
		telemetry.NewGenerator(),
		act,
		log.WithField("component", "ui"),
		cfg.Commands,
	)

	return &App{
		Config:     cfg,
		Log:        log,
		Activity:   act,
		Lister:     deps.Lister,
		Manager:    mgr,
		Controller: ctrl,
	}, nil
}

// Close закрывает подключение, если оно открыто.
func (a *App) Close() {
	if a.Manager.State() == models.Connected {
		a.Manager.Disconnect()
	}
}
