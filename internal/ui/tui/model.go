package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/service/activity"
	"flipperdeck/internal/ui/controller"
)

const (
	defaultWidth     = 80
	defaultLogHeight = 8
	// Строки, занятые всем, кроме журнала
	chromeHeight = 22
)

// Сообщения bubbletea
type (
	logUpdatedMsg  struct{}
	viewUpdatedMsg struct{}
	actionDoneMsg  struct {
		action string
		err    error
	}
)

// Model главный экран терминального интерфейса.
type Model struct {
	ctrl *controller.MainController
	log  *activity.Log
	sub  <-chan struct{}

	search    textinput.Model
	logView   viewport.Model
	searching bool
	category  models.Category

	width   int
	lastErr string
}

// New создает модель. Подписка на журнал активности снимается в Close.
func New(ctrl *controller.MainController, log *activity.Log) *Model {
	search := textinput.New()
	search.Placeholder = "search scripts"
	search.Prompt = "/ "
	search.CharLimit = 64

	m := &Model{
		ctrl:     ctrl,
		log:      log,
		sub:      log.Subscribe(),
		search:   search,
		logView:  viewport.New(defaultWidth, defaultLogHeight),
		category: models.CategoryAll,
		width:    defaultWidth,
	}
	m.refreshLog()
	return m
}

// Close отписывает модель от журнала
func (m *Model) Close() {
	m.log.Unsubscribe(m.sub)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.waitForLog()
}

func (m *Model) waitForLog() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if _, ok := <-sub; !ok {
			return nil
		}
		return logUpdatedMsg{}
	}
}

func (m *Model) dispatch(action, arg string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Dispatch(context.Background(), action, arg)
		return actionDoneMsg{action: action, err: err}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.logView.Width = msg.Width - 4
		if h := msg.Height - chromeHeight; h > 3 {
			m.logView.Height = h
		}
		m.refreshLog()
		return m, nil

	case logUpdatedMsg:
		m.refreshLog()
		return m, m.waitForLog()

	case actionDoneMsg:
		if msg.err != nil {
			m.lastErr = fmt.Sprintf("%s: %v", msg.action, msg.err)
		} else {
			m.lastErr = ""
		}
		return m, nil

	case viewUpdatedMsg:
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "tab":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		return m, tea.Batch(cmd, m.dispatch(controller.ActionSearch, m.search.Value()))
	}
	return m, cmd
}

func (m *Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "c":
		return m, m.dispatch(controller.ActionConnect, "")
	case "x":
		return m, m.dispatch(controller.ActionDisconnect, "")
	case "s":
		return m, m.dispatch(controller.ActionSync, "")
	case "m":
		return m, m.dispatch(controller.ActionDemo, "")
	case "[", "]":
		m.category = m.nextCategory(key == "]")
		return m, m.dispatch(controller.ActionCategory, string(m.category))
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		commands := m.ctrl.Snapshot().Commands
		idx := int(key[0] - '1')
		if idx < len(commands) {
			return m, m.dispatch(controller.CommandAction(commands[idx].ID), "")
		}
		return m, nil
	}

	// Остальные клавиши прокручивают журнал
	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m *Model) nextCategory(forward bool) models.Category {
	cats := m.ctrl.Snapshot().Categories
	if len(cats) == 0 {
		return models.CategoryAll
	}
	idx := 0
	for i, c := range cats {
		if c == m.category {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(cats)
	} else {
		idx = (idx - 1 + len(cats)) % len(cats)
	}
	return cats[idx]
}

func (m *Model) refreshLog() {
	m.logView.SetContent(strings.TrimRight(m.log.Text(), "\n"))
	m.logView.GotoBottom()
}

// Scripts возвращает записи каталога для текущего фильтра экрана
func (m *Model) Scripts() []models.ScriptEntry {
	scripts, err := m.ctrl.Render(m.search.Value(), string(m.category))
	if err != nil {
		return nil
	}
	return scripts
}

// View implements tea.Model
func (m *Model) View() string {
	snap := m.ctrl.Snapshot()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Flipper Zero Deck"))
	sb.WriteString("\n")
	if snap.Tone == models.ToneAlert {
		sb.WriteString(alertStyle.Render(snap.StatusLine()))
	} else {
		sb.WriteString(statusStyle.Render(snap.StatusLine()))
	}
	if snap.PortName != "" {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  %s", snap.PortName)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(sectionStyle.Render("Telemetry"))
	sb.WriteString("\n")
	if len(snap.Telemetry) == 0 {
		sb.WriteString(mutedStyle.Render("  no data (press s or m)"))
		sb.WriteString("\n")
	}
	for _, row := range snap.Telemetry {
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", row.Label, row.Value))
	}
	sb.WriteString("\n")

	sb.WriteString(sectionStyle.Render("Commands"))
	sb.WriteString("\n ")
	for i, cmd := range snap.Commands {
		if i >= 9 {
			break
		}
		sb.WriteString(fmt.Sprintf(" [%d] %s", i+1, cmd.Label))
	}
	sb.WriteString("\n\n")

	sb.WriteString(sectionStyle.Render("Scripts"))
	sb.WriteString("  ")
	sb.WriteString(m.search.View())
	sb.WriteString("  ")
	sb.WriteString(selectedStyle.Render(" " + string(m.category) + " "))
	sb.WriteString("\n")
	scripts := m.Scripts()
	if len(scripts) == 0 {
		sb.WriteString(mutedStyle.Render("  no scripts match"))
		sb.WriteString("\n")
	}
	for _, s := range scripts {
		sb.WriteString(fmt.Sprintf("  %-24s %s %s\n", s.Name, s.Description, mutedStyle.Render(s.Path)))
	}
	sb.WriteString("\n")

	sb.WriteString(sectionStyle.Render("Log"))
	sb.WriteString("\n")
	sb.WriteString(logStyle.Render(m.logView.View()))
	sb.WriteString("\n")

	if m.lastErr != "" {
		sb.WriteString(errorStyle.Render(m.lastErr))
		sb.WriteString("\n")
	}
	sb.WriteString(mutedStyle.Render("[c] connect  [x] disconnect  [s] sync  [m] demo  [1-9] command  [/] search  [[ ]] category  [q] quit"))

	return appStyle.Render(sb.String())
}

// Run запускает терминальный интерфейс и блокируется до выхода.
func Run(ctrl *controller.MainController, log *activity.Log) error {
	m := New(ctrl, log)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	ctrl.SetOnUpdate(func() { p.Send(viewUpdatedMsg{}) })
	defer ctrl.SetOnUpdate(nil)

	_, err := p.Run()
	return err
}
