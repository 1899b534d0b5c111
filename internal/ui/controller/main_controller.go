package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/service/catalog"
	"flipperdeck/internal/service/connection"
	"flipperdeck/internal/ui/viewmodel"
)

var ErrUnknownAction = errors.New("controller: unknown action")

// Идентификаторы действий
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionSync       = "sync"
	ActionDemo       = "demo"
	ActionSearch     = "search"   // arg: строка поиска
	ActionCategory   = "category" // arg: категория или "all"

	commandPrefix = "cmd."
)

// Сообщения журнала активности
const (
	MsgSyncQueued = "Sync queued: pulling script list to device."
	MsgDemoMode   = "Demo mode enabled. Commands will not reach hardware."
	msgQueued     = "Queued action: %s"
)

// Handler обработчик действия. arg используется не всеми действиями.
type Handler func(ctx context.Context, arg string) error

// ConnectionManager то, что контроллеру нужно от менеджера подключения.
type ConnectionManager interface {
	Connect(ctx context.Context) error
	Disconnect()
	Send(ctx context.Context, command string) error
	State() models.ConnectionState
	PortName() string
	SessionID() string
	SetOnStateChange(fn func(models.ConnectionState))
}

// TelemetrySource источник строк телеметрии
type TelemetrySource interface {
	Demo() []models.TelemetryRow
}

// CommandAction возвращает идентификатор действия для кнопки команды.
func CommandAction(id string) string {
	return commandPrefix + id
}

// MainController связывает действия пользователя с сервисами и держит ViewModel.
// Действия выполняются строго по одному.
type MainController struct {
	actionMu sync.Mutex
	vmMu     sync.RWMutex

	vm        *viewmodel.MainViewModel
	conn      ConnectionManager
	catalog   *catalog.Catalog
	telemetry TelemetrySource
	activity  ports.ActivityLog
	log       ports.Logger
	actions   map[string]Handler
	onUpdate  func()
}

// NewMainController создает контроллер и таблицу действий.
func NewMainController(
	vm *viewmodel.MainViewModel,
	conn ConnectionManager,
	cat *catalog.Catalog,
	telemetry TelemetrySource,
	activity ports.ActivityLog,
	log ports.Logger,
	commands []models.CommandButton,
) *MainController {
	c := &MainController{
		vm:        vm,
		conn:      conn,
		catalog:   cat,
		telemetry: telemetry,
		activity:  activity,
		log:       log,
	}

	c.actions = map[string]Handler{
		ActionConnect:    c.connect,
		ActionDisconnect: c.disconnect,
		ActionSync:       c.sync,
		ActionDemo:       c.demo,
		ActionSearch:     c.search,
		ActionCategory:   c.category,
	}
	for _, cmd := range commands {
		c.actions[CommandAction(cmd.ID)] = c.sendButton(cmd)
	}

	vm.Commands = append([]models.CommandButton{}, commands...)
	vm.Categories = cat.Categories()
	vm.Scripts = cat.Render(vm.Query, vm.Category)

	conn.SetOnStateChange(c.handleStateChange)
	return c
}

// SetOnUpdate устанавливает callback для перерисовки интерфейса.
func (c *MainController) SetOnUpdate(callback func()) {
	c.vmMu.Lock()
	defer c.vmMu.Unlock()
	c.onUpdate = callback
}

// Actions возвращает отсортированный список идентификаторов действий
func (c *MainController) Actions() []string {
	result := make([]string, 0, len(c.actions))
	for id := range c.actions {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Dispatch выполняет действие id.
// Ошибки подключения и ввода-вывода не возвращаются: они отражаются в статусе и журнале.
func (c *MainController) Dispatch(ctx context.Context, id string, arg string) error {
	h, ok := c.actions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}

	c.actionMu.Lock()
	err := h(ctx, arg)
	c.actionMu.Unlock()

	c.notifyUpdate()
	return err
}

// Snapshot возвращает копию текущего ViewModel.
func (c *MainController) Snapshot() viewmodel.MainViewModel {
	c.vmMu.RLock()
	defer c.vmMu.RUnlock()
	return c.vm.Snapshot()
}

// Render фильтрует каталог, не меняя состояние экрана.
func (c *MainController) Render(query, category string) ([]models.ScriptEntry, error) {
	cat, err := models.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, category)
	}
	return c.catalog.Render(query, cat), nil
}

func (c *MainController) connect(ctx context.Context, _ string) error {
	err := c.conn.Connect(ctx)

	c.vmMu.Lock()
	defer c.vmMu.Unlock()

	switch {
	case err == nil && c.conn.State() != models.Connected:
		// Поток закрылся сразу после открытия
		c.vm.MarkDisconnected()
	case err == nil:
		c.vm.Connected = true
		c.vm.DemoMode = false
		c.vm.PortName = c.conn.PortName()
		c.vm.SessionID = c.conn.SessionID()
		c.vm.SetStatus(viewmodel.StatusConnected, models.ToneDefault)
	case errors.Is(err, connection.ErrAlreadyConnected):
		c.log.Debug("[UI] Повторное подключение проигнорировано")
	case errors.Is(err, connection.ErrSerialUnsupported):
		c.vm.SetStatus(viewmodel.StatusUnsupported, models.ToneAlert)
	default:
		c.vm.SetStatus(viewmodel.StatusFailed, models.ToneAlert)
	}
	return nil
}

func (c *MainController) disconnect(_ context.Context, _ string) error {
	c.conn.Disconnect()

	c.vmMu.Lock()
	c.vm.MarkDisconnected()
	c.vm.DemoMode = false
	c.vmMu.Unlock()
	return nil
}

func (c *MainController) sync(_ context.Context, _ string) error {
	c.activity.Append(MsgSyncQueued)
	rows := c.telemetry.Demo()

	c.vmMu.Lock()
	c.vm.Telemetry = rows
	c.vmMu.Unlock()
	return nil
}

func (c *MainController) demo(_ context.Context, _ string) error {
	c.activity.Append(MsgDemoMode)
	rows := c.telemetry.Demo()

	c.vmMu.Lock()
	c.vm.DemoMode = true
	c.vm.SetStatus(viewmodel.StatusDemo, models.ToneDefault)
	c.vm.Telemetry = rows
	c.vmMu.Unlock()
	return nil
}

func (c *MainController) search(_ context.Context, query string) error {
	c.vmMu.Lock()
	defer c.vmMu.Unlock()
	c.vm.Query = query
	c.vm.Scripts = c.catalog.Render(c.vm.Query, c.vm.Category)
	return nil
}

func (c *MainController) category(_ context.Context, name string) error {
	cat, err := models.ParseCategory(name)
	if err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}

	c.vmMu.Lock()
	defer c.vmMu.Unlock()
	c.vm.Category = cat
	c.vm.Scripts = c.catalog.Render(c.vm.Query, c.vm.Category)
	return nil
}

func (c *MainController) sendButton(cmd models.CommandButton) Handler {
	return func(ctx context.Context, _ string) error {
		c.activity.Append(fmt.Sprintf(msgQueued, cmd.Label))
		if err := c.conn.Send(ctx, cmd.Command); err != nil && !errors.Is(err, connection.ErrNotConnected) {
			c.log.Warn("[UI] Команда %q не отправлена: %v", cmd.Command, err)
		}
		return nil
	}
}

// handleStateChange вызывается менеджером подключения, в том числе из цикла чтения,
// когда устройство закрыло поток.
func (c *MainController) handleStateChange(state models.ConnectionState) {
	if state != models.Disconnected {
		return
	}

	c.vmMu.Lock()
	// Подключение могло быть уже заменено новым
	changed := c.vm.Connected && c.conn.State() != models.Connected
	if changed {
		c.vm.MarkDisconnected()
	}
	c.vmMu.Unlock()

	if changed {
		c.notifyUpdate()
	}
}

func (c *MainController) notifyUpdate() {
	c.vmMu.RLock()
	fn := c.onUpdate
	c.vmMu.RUnlock()
	if fn != nil {
		fn()
	}
}
