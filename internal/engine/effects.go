package engine

import (
	"context"
	"time"

	"pomofocus/backend/internal/model"
)

// CompletionHook is the task store side of a finished work session.
type CompletionHook interface {
	NotifyPomodoroCompleted(ctx context.Context) error
}

type SoundPlayer interface {
	Play(ctx context.Context, soundID string) error
}

type Toaster interface {
	Toast(ctx context.Context, toast Toast) error
}

// Notifier delivers system notifications. The engine only calls Notify when
// Permission reports granted.
type Notifier interface {
	Permission() model.Permission
	Notify(ctx context.Context, title, body string) error
}

type Observer interface {
	Observe(ctx context.Context, event Event)
}

// Handlers are the named receivers of everything the engine emits. Any of them
// may be nil. Handlers must not mutate the engine that calls them.
type Handlers struct {
	Tasks    CompletionHook
	Sound    SoundPlayer
	Toast    Toaster
	Notifier Notifier
	Observer Observer
}

type Toast struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Phase model.Phase `json:"phase"`
}

type EventKind string

const (
	EventStarted    EventKind = "started"
	EventPaused     EventKind = "paused"
	EventReset      EventKind = "reset"
	EventTick       EventKind = "tick"
	EventTransition EventKind = "transition"
	EventConfigured EventKind = "configured"
)

// Event describes a state change. For transitions and resets From is the phase
// that was left, Planned its length in seconds at entry and Elapsed the number of
// seconds that were counted down in it.
type Event struct {
	Kind     EventKind      `json:"kind"`
	From     model.Phase    `json:"from,omitempty"`
	Planned  int            `json:"planned,omitempty"`
	Elapsed  int            `json:"elapsed,omitempty"`
	Cycle    int            `json:"cycle,omitempty"`
	Snapshot model.Snapshot `json:"snapshot"`
	At       time.Time      `json:"at"`
}

type effect struct {
	name string
	fn   func(ctx context.Context) error
}

func (e *Engine) completionEffect() []effect {
	if e.handlers.Tasks == nil {
		return nil
	}
	hook := e.handlers.Tasks
	return []effect{{name: "task_completion", fn: hook.NotifyPomodoroCompleted}}
}

func (e *Engine) announceEffects(sound string, toast Toast) []effect {
	var out []effect
	if player := e.handlers.Sound; player != nil && sound != "" && sound != model.SoundNone {
		out = append(out, effect{name: "sound", fn: func(ctx context.Context) error {
			return player.Play(ctx, sound)
		}})
	}
	if toaster := e.handlers.Toast; toaster != nil {
		out = append(out, effect{name: "toast", fn: func(ctx context.Context) error {
			return toaster.Toast(ctx, toast)
		}})
	}
	if notifier := e.handlers.Notifier; notifier != nil {
		out = append(out, effect{name: "notification", fn: func(ctx context.Context) error {
			if notifier.Permission() != model.PermissionGranted {
				return nil
			}
			return notifier.Notify(ctx, toast.Title, toast.Body)
		}})
	}
	return out
}

func (e *Engine) observeEffect(event Event) []effect {
	if e.handlers.Observer == nil {
		return nil
	}
	observer := e.handlers.Observer
	return []effect{{name: "observer", fn: func(ctx context.Context) error {
		observer.Observe(ctx, event)
		return nil
	}}}
}

func (e *Engine) runEffect(ctx context.Context, fx effect) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("timer effect panicked", "effect", fx.name, "panic", r)
		}
	}()
	if err := fx.fn(ctx); err != nil {
		e.logger.Warn("timer effect failed", "effect", fx.name, "error", err)
	}
}
