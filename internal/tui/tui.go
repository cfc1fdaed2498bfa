// Package tui renders the game in the terminal with Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/game"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/statistics"
	"github.com/lox/rpsvision/internal/vision"
)

// Controller is the part of game.Controller the model drives.
type Controller interface {
	Start(ctx context.Context) error
	Restart(ctx context.Context) error
}

// commandDoneMsg reports the reply to a Start or Restart request.
type commandDoneMsg struct {
	op  string
	err error
}

// Model is the Bubble Tea model for the game screen.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	logger *log.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	state       game.State
	tick        countdown.Tick
	predictions vision.PredictionResult
	user        rps.Choice
	computer    rps.Choice
	revealed    bool
	last        *rps.Round
	stats       *statistics.Statistics
	rounds      int
	busy        bool

	errKind game.ErrorKind
	err     error

	width    int
	quitting bool
}

// NewModel creates the game screen. Requests to ctrl are issued as commands
// so that Update never blocks on the controller.
func NewModel(ctx context.Context, ctrl Controller, logger *log.Logger) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = WarningStyle

	return &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		logger:  logger.WithPrefix("tui"),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		stats:   statistics.New(),
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case commandDoneMsg:
		m.busy = false
		m.handleCommandDone(msg)

	case StateMsg:
		m.state = msg.To
		if msg.To == game.Initializing {
			m.clearError()
		}

	case RoundStartedMsg:
		m.rounds++
		m.revealed = false
		m.last = nil
		m.user, m.computer = rps.Unknown, rps.Unknown
		m.clearError()

	case TickMsg:
		m.tick = msg.Tick

	case PredictionMsg:
		m.predictions = msg.Result

	case RevealMsg:
		m.user, m.computer = msg.User, msg.Computer
		m.revealed = true

	case ResultMsg:
		round := msg.Round
		m.last = &round
		m.stats.Add(round)

	case ErrorMsg:
		m.errKind, m.err = msg.Kind, msg.Err
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Start):
		if m.busy || !m.state.CanStart() {
			return nil
		}
		m.busy = true
		return m.request("start", m.ctrl.Start)

	case key.Matches(msg, m.keys.Restart):
		if m.busy || !m.state.CanRestart() {
			return nil
		}
		m.busy = true
		return m.request("restart", m.ctrl.Restart)
	}
	return nil
}

func (m *Model) request(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) handleCommandDone(msg commandDoneMsg) {
	switch {
	case msg.err == nil:
	case errors.Is(msg.err, game.ErrInvalidTransition):
		m.logger.Debug("Ignored request", "op", msg.op, "state", m.state)
	case errors.Is(msg.err, game.ErrNotInitialized):
		m.state = game.Idle
		if m.err == nil {
			m.errKind, m.err = game.KindDeviceUnavailable, msg.err
		}
	default:
		m.logger.Warn("Request failed", "op", msg.op, "error", msg.err)
		if m.err == nil {
			m.errKind, m.err = game.KindOf(msg.err), msg.err
		}
	}
}

func (m *Model) clearError() {
	m.errKind, m.err = game.KindOther, nil
}

// Stats returns the tally of finished rounds.
func (m *Model) Stats() *statistics.Statistics {
	return m.stats
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		HeaderStyle.Render("Rock ✊  Paper ✋  Scissors ✌️"),
		PanelStyle.Render(m.renderStage()),
	}
	if labels := m.renderLabels(); labels != "" {
		sections = append(sections, labels)
	}
	if m.err != nil {
		sections = append(sections, m.renderError())
	}
	sections = append(sections,
		m.renderScore(),
		m.help.View(m.keys),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStage() string {
	switch m.state {
	case game.Initializing:
		return m.spinner.View() + " Loading model and camera..."
	case game.Countdown:
		return CountdownStyle.Render(m.tick.String())
	case game.Capturing:
		return m.spinner.View() + " Capturing..."
	case game.Revealing:
		return m.renderChoices()
	case game.Result:
		if m.last == nil {
			return m.renderChoices()
		}
		return m.renderChoices() + "\n\n" + outcomeStyle(m.last.Outcome).Render(m.last.Outcome.Message())
	default:
		if m.busy {
			return m.spinner.View() + " Starting..."
		}
		return InfoStyle.Render("Press s to start")
	}
}

func (m *Model) renderChoices() string {
	if !m.revealed {
		return ""
	}
	return fmt.Sprintf("You: %s  Computer: %s",
		ChoiceStyle.Render(m.user.Emoji()+" "+m.user.String()),
		ChoiceStyle.Render(m.computer.Emoji()+" "+m.computer.String()))
}

func (m *Model) renderLabels() string {
	if !m.state.ShowsLabels() || len(m.predictions) == 0 {
		return ""
	}
	lines := m.predictions.Lines()
	for i, line := range lines {
		lines[i] = LabelStyle.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderError() string {
	text := m.errKind.Message()
	if m.errKind == game.KindOther {
		text = m.err.Error()
	}
	return ErrorStyle.Render(text)
}

func (m *Model) renderScore() string {
	line := fmt.Sprintf("Round %d  Wins %d  Losses %d  Ties %d",
		m.rounds, m.stats.Wins, m.stats.Losses, m.stats.Ties)
	if streak := m.stats.Streak(); streak > 1 {
		line += fmt.Sprintf("  Streak %d", streak)
	}
	return InfoStyle.Render(line)
}

func outcomeStyle(o rps.Outcome) lipgloss.Style {
	switch o {
	case rps.Win:
		return SuccessStyle
	case rps.Lose:
		return ErrorStyle
	default:
		return WarningStyle
	}
}
