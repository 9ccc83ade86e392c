// Package tui is the terminal front end of the timer: a bubbletea program that
// runs an engine in-process against an in-memory task list.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomofocus/backend/internal/engine"
	"pomofocus/backend/internal/model"
	"pomofocus/backend/internal/tasks"
)

const (
	maxBarWidth  = 60
	appPadding   = 4
	effectBuffer = 64
)

type Model struct {
	engine  *engine.Engine
	tasks   *tasks.MemoryStore
	effects *programEffects
	bell    io.Writer

	snapshot model.Snapshot
	status   string
	err      error

	bar    progress.Model
	input  textinput.Model
	styles styles

	adding bool
	width  int
}

type Option func(*Model)

// WithBell sets where the terminal bell is written. Defaults to stderr.
func WithBell(w io.Writer) Option {
	return func(m *Model) { m.bell = w }
}

// New builds the model and its engine. Call Close when the program exits.
func New(cfg model.SessionConfig, store *tasks.MemoryStore, opts []Option, engineOpts ...engine.Option) *Model {
	if store == nil {
		store = tasks.NewMemoryStore()
	}
	effects := newProgramEffects(effectBuffer)

	input := textinput.New()
	input.Placeholder = "New task name..."
	input.CharLimit = 200

	m := &Model{
		tasks:   store,
		effects: effects,
		bell:    os.Stderr,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:   input,
		styles:  defaultStyles(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.engine = engine.New(cfg, engine.Handlers{
		Tasks:    store,
		Sound:    effects,
		Toast:    effects,
		Notifier: effects,
		Observer: effects,
	}, engineOpts...)
	m.snapshot = m.engine.Snapshot()
	return m
}

func (m *Model) Close() {
	m.engine.Close()
}

func (m *Model) Init() tea.Cmd {
	return m.effects.wait()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-appPadding, maxBarWidth)
		return m, nil

	case stateMsg:
		m.snapshot = msg.snapshot
		return m, m.effects.wait()

	case statusMsg:
		m.status = msg.text
		return m, m.effects.wait()

	case bellMsg:
		_, _ = io.WriteString(m.bell, "\a")
		return m, m.effects.wait()

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch msg.String() {
	case "q", "ctrl+c":
		m.Close()
		return m, tea.Quit
	case " ":
		if m.snapshot.Running {
			m.snapshot = m.engine.Pause(ctx)
		} else {
			m.snapshot = m.engine.Start(ctx)
		}
	case "r":
		m.snapshot = m.engine.Reset(ctx)
		m.status = ""
	case "a":
		m.adding = true
		m.input.Reset()
		return m, m.input.Focus()
	case "x":
		list := m.tasks.List()
		for _, task := range list {
			if !task.Completed {
				if _, err := m.tasks.Toggle(task.ID); err != nil {
					m.err = err
				}
				break
			}
		}
	}
	return m, nil
}

func (m *Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.adding = false
		m.input.Blur()
		if _, err := m.tasks.Add(m.input.Value(), "", nil); err != nil {
			m.err = err
		} else {
			m.err = nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder

	phaseStyle := m.styles.Phase.Background(phaseColor(m.snapshot.Phase))
	b.WriteString(phaseStyle.Render(phaseLabel(m.snapshot.Phase)))
	b.WriteString(m.styles.Clock.Render(m.snapshot.Display))
	if !m.snapshot.Running {
		b.WriteString(m.styles.Muted.Render("  paused"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.snapshot.Progress))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Pomodoros completed: %d", m.snapshot.CompletedSessions)))
	b.WriteString("\n")

	b.WriteString(m.styles.Section.Render("Tasks"))
	b.WriteString("\n")
	list := m.tasks.List()
	if len(list) == 0 {
		b.WriteString(m.styles.Muted.Render("  no tasks yet"))
		b.WriteString("\n")
	}
	for _, task := range list {
		line := fmt.Sprintf("  %s (%d)", task.Name, task.Pomodoros)
		if task.Completed {
			line = m.styles.Done.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.adding {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Status.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render("space start/pause • r reset • a add task • x complete task • q quit"))
	return b.String()
}

// Run starts the program on the terminal and blocks until it exits.
func Run(cfg model.SessionConfig, engineOpts ...engine.Option) error {
	m := New(cfg, tasks.NewMemoryStore(), nil, engineOpts...)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func phaseLabel(phase model.Phase) string {
	switch phase {
	case model.PhaseShortBreak:
		return "SHORT BREAK"
	case model.PhaseLongBreak:
		return "LONG BREAK"
	default:
		return "WORK"
	}
}

func phaseColor(phase model.Phase) lipgloss.Color {
	switch phase {
	case model.PhaseShortBreak:
		return colors.Break
	case model.PhaseLongBreak:
		return colors.LongBreak
	default:
		return colors.Work
	}
}
