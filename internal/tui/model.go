package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// SnapshotMsg delivers a published refresh result to the program.
type SnapshotMsg core.Snapshot

type displayModePersistedMsg struct {
	mode config.DisplayMode
	err  error
}

type loggedOutMsg struct {
	inv core.Invalidation
}

// Model is the live watch view: a status line on top of the details panel.
type Model struct {
	snapshot core.Snapshot
	hasData  bool
	ui       config.UIConfig
	mode     config.DisplayMode
	width    int
	height   int
	now      time.Time

	refreshing bool
	status     string

	onRefresh     func()
	onLogout      func() core.Invalidation
	onDisplayMode func(config.DisplayMode) error
}

func NewModel(ui config.UIConfig) Model {
	mode := ui.DisplayMode
	if !mode.Valid() {
		mode = config.DisplayBoth
	}
	return Model{ui: ui, mode: mode, now: time.Now(), refreshing: true}
}

// SetOnRefresh sets a callback invoked when the user requests a manual refresh.
func (m *Model) SetOnRefresh(fn func()) { m.onRefresh = fn }

// SetOnLogout sets a callback that clears the session credential.
func (m *Model) SetOnLogout(fn func() core.Invalidation) { m.onLogout = fn }

// SetOnDisplayMode sets a callback that persists a display mode change.
func (m *Model) SetOnDisplayMode(fn func(config.DisplayMode) error) { m.onDisplayMode = fn }

func (m Model) Init() tea.Cmd { return tickCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SnapshotMsg:
		m.snapshot = core.Snapshot(msg)
		m.hasData = true
		m.refreshing = false
		return m, nil

	case displayModePersistedMsg:
		if msg.err != nil {
			m.status = "display mode not saved: " + msg.err.Error()
		} else {
			m.status = "display mode: " + string(msg.mode)
		}
		return m, nil

	case loggedOutMsg:
		m.snapshot = core.Snapshot{Status: core.StatusAuth, Message: "Signed out. Press r to detect the session again."}
		m.hasData = true
		m.refreshing = false
		if msg.inv.HadIdentity {
			m.status = "signed out " + msg.inv.AccountID
		} else {
			m.status = "signed out"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		return m.requestRefresh(), nil
	case "m":
		m.mode = m.mode.Next()
		return m, m.persistDisplayModeCmd(m.mode)
	case "l":
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m Model) requestRefresh() Model {
	m.refreshing = true
	m.status = ""
	if m.onRefresh != nil {
		m.onRefresh()
	}
	return m
}

func (m Model) persistDisplayModeCmd(mode config.DisplayMode) tea.Cmd {
	fn := m.onDisplayMode
	return func() tea.Msg {
		if fn == nil {
			return displayModePersistedMsg{mode: mode}
		}
		return displayModePersistedMsg{mode: mode, err: fn(mode)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	fn := m.onLogout
	return func() tea.Msg {
		if fn == nil {
			return loggedOutMsg{}
		}
		return loggedOutMsg{inv: fn()}
	}
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder
	if !m.hasData {
		sb.WriteString(dimStyle.Render("Loading Cursor usage…"))
	} else {
		sb.WriteString(RenderStatusLine(m.snapshot, m.mode, m.ui, width))
		sb.WriteString("\n\n")
		sb.WriteString(Details(m.snapshot, m.ui, min(width, 100), m.now))
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderFooter() string {
	keys := []string{
		helpKeyStyle.Render("r") + helpStyle.Render(" refresh"),
		helpKeyStyle.Render("m") + helpStyle.Render(" mode"),
		helpKeyStyle.Render("l") + helpStyle.Render(" sign out"),
		helpKeyStyle.Render("q") + helpStyle.Render(" quit"),
	}
	line := strings.Join(keys, helpStyle.Render(" · "))
	switch {
	case m.refreshing:
		line += "  " + tealStyle.Render("refreshing…")
	case m.status != "":
		line += "  " + dimStyle.Render(m.status)
	}
	return line
}

// Hooks connects the watch view to the rest of the program.
type Hooks struct {
	// Logout signs the session out; nil falls back to engine.Logout.
	Logout func() core.Invalidation
	// SaveDisplayMode persists a display mode change.
	SaveDisplayMode func(config.DisplayMode) error
}

// Run drives engine in the background and shows its snapshots until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, engine *core.Engine, ui config.UIConfig, hooks Hooks) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logout := hooks.Logout
	if logout == nil {
		logout = engine.Logout
	}

	model := NewModel(ui)
	model.SetOnRefresh(func() {
		engine.Resume()
		engine.RequestRefresh()
	})
	model.SetOnLogout(logout)
	model.SetOnDisplayMode(hooks.SaveDisplayMode)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	engine.OnUpdate(func(s core.Snapshot) { p.Send(SnapshotMsg(s)) })
	go engine.Run(ctx)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running watch view: %w", err)
	}
	log.Println("[tui] watch view closed")
	return nil
}
