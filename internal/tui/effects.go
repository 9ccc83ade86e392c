package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"pomofocus/backend/internal/engine"
	"pomofocus/backend/internal/model"
)

type stateMsg struct{ snapshot model.Snapshot }

type statusMsg struct{ text string }

type bellMsg struct{}

// programEffects turns engine effects into bubbletea messages. Sends never
// block; a full queue drops the message.
type programEffects struct {
	msgs chan tea.Msg
}

func newProgramEffects(size int) *programEffects {
	return &programEffects{msgs: make(chan tea.Msg, size)}
}

func (p *programEffects) send(msg tea.Msg) {
	select {
	case p.msgs <- msg:
	default:
	}
}

func (p *programEffects) Play(_ context.Context, _ string) error {
	p.send(bellMsg{})
	return nil
}

func (p *programEffects) Toast(_ context.Context, toast engine.Toast) error {
	p.send(statusMsg{text: toast.Title + " " + toast.Body})
	return nil
}

// The terminal is the notification surface, so permission is always granted.
func (p *programEffects) Permission() model.Permission {
	return model.PermissionGranted
}

func (p *programEffects) Notify(_ context.Context, title, body string) error {
	p.send(statusMsg{text: title + " " + body})
	return nil
}

func (p *programEffects) Observe(_ context.Context, event engine.Event) {
	p.send(stateMsg{snapshot: event.Snapshot})
}

func (p *programEffects) wait() tea.Cmd {
	return func() tea.Msg {
		return <-p.msgs
	}
}
