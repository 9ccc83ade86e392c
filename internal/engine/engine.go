// Package engine implements the Pomodoro session state machine: the countdown,
// the cycling between work and break phases, and the side-effect requests that
// accompany every phase transition.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pomofocus/backend/internal/model"
)

const DefaultTickInterval = time.Second

type Option func(*Engine)

func WithTicker(factory TickerFactory) Option {
	return func(e *Engine) {
		if factory != nil {
			e.newTicker = factory
		}
	}
}

func WithTickInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine owns one timer's run state. All operations are safe for concurrent use;
// they are serialized so that a tick and a user action never interleave, and the
// effects of an operation are delivered before the next operation starts.
type Engine struct {
	// opMu serializes operations together with the delivery of their effects.
	// mu guards the fields below and is never held while handlers run.
	opMu sync.Mutex
	mu   sync.Mutex

	cfg       model.SessionConfig
	phase     model.Phase
	remaining model.Remaining
	running   bool
	completed int
	planned   int
	elapsed   int
	closed    bool

	ticker     Ticker
	stopTicker chan struct{}
	generation uint64

	handlers  Handlers
	newTicker TickerFactory
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg model.SessionConfig, handlers Handlers, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg.Normalized(),
		handlers:  handlers,
		newTicker: NewSystemTicker,
		interval:  DefaultTickInterval,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.enterPhase(model.PhaseWork)
	return e
}

func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Config() model.SessionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Start resumes the countdown. It does nothing when already running.
func (e *Engine) Start(ctx context.Context) model.Snapshot {
	return e.apply(ctx, func() []effect {
		if e.closed || e.running {
			return nil
		}
		e.running = true
		e.scheduleLocked()
		return e.observeEffect(e.eventLocked(EventStarted))
	})
}

// Pause freezes the countdown where it stands. It does nothing when not running.
func (e *Engine) Pause(ctx context.Context) model.Snapshot {
	return e.apply(ctx, func() []effect {
		if !e.running {
			return nil
		}
		e.running = false
		e.cancelTickerLocked()
		return e.observeEffect(e.eventLocked(EventPaused))
	})
}

// Reset stops the timer and returns to the start of a work phase with the
// completed-session count cleared.
func (e *Engine) Reset(ctx context.Context) model.Snapshot {
	return e.apply(ctx, func() []effect {
		from, planned, elapsed, cycle := e.phase, e.planned, e.elapsed, e.completed
		e.running = false
		e.cancelTickerLocked()
		e.completed = 0
		e.enterPhase(model.PhaseWork)

		event := e.eventLocked(EventReset)
		event.From, event.Planned, event.Elapsed, event.Cycle = from, planned, elapsed, cycle
		return e.observeEffect(event)
	})
}

// UpdateConfig replaces the configuration. Invalid values are clamped. When the
// timer is not running and the length of the current phase changed, the
// remaining time is resynchronized to the new length; a running countdown is
// left alone.
func (e *Engine) UpdateConfig(ctx context.Context, cfg model.SessionConfig) model.Snapshot {
	return e.apply(ctx, func() []effect {
		next := cfg.Normalized()
		previous := e.cfg
		e.cfg = next
		if !e.running && previous.MinutesFor(e.phase) != next.MinutesFor(e.phase) {
			e.enterPhase(e.phase)
		}
		return e.observeEffect(e.eventLocked(EventConfigured))
	})
}

// Tick advances the countdown by one second. It reports false when the timer is
// not running. Reaching 00:00 performs the phase transition on the same tick.
func (e *Engine) Tick(ctx context.Context) bool {
	ticked := false
	e.apply(ctx, func() []effect {
		if !e.running {
			return nil
		}
		ticked = true
		return e.tickLocked()
	})
	return ticked
}

// Close cancels the ticker. A closed engine ignores Start.
func (e *Engine) Close() {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.running = false
	e.cancelTickerLocked()
}

func (e *Engine) apply(ctx context.Context, mutate func() []effect) model.Snapshot {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	effects := mutate()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	for _, fx := range effects {
		e.runEffect(ctx, fx)
	}
	return snapshot
}

func (e *Engine) tickLocked() []effect {
	switch {
	case e.remaining.Seconds > 0:
		e.remaining.Seconds--
		e.elapsed++
	case e.remaining.Minutes > 0:
		e.remaining.Minutes--
		e.remaining.Seconds = 59
		e.elapsed++
	}

	if e.remaining.IsZero() {
		return e.transitionLocked()
	}
	return e.observeEffect(e.eventLocked(EventTick))
}

func (e *Engine) transitionLocked() []effect {
	from, planned, elapsed := e.phase, e.planned, e.elapsed

	var effects []effect
	var toast Toast
	var sound string
	if from == model.PhaseWork {
		e.completed++
		effects = append(effects, e.completionEffect()...)
		if e.completed%e.cfg.LongBreakInterval == 0 {
			e.enterPhase(model.PhaseLongBreak)
			toast = Toast{Title: "Work session complete!", Body: "Time for a long break."}
		} else {
			e.enterPhase(model.PhaseShortBreak)
			toast = Toast{Title: "Work session complete!", Body: "Take a short break."}
		}
		sound = e.cfg.BreakSound
	} else {
		e.enterPhase(model.PhaseWork)
		toast = Toast{Title: "Break complete!", Body: "Time to get back to work."}
		sound = e.cfg.WorkSound
	}
	toast.Phase = e.phase

	if !e.cfg.AutoAdvance {
		e.running = false
		e.cancelTickerLocked()
	}

	effects = append(effects, e.announceEffects(sound, toast)...)

	event := e.eventLocked(EventTransition)
	event.From, event.Planned, event.Elapsed, event.Cycle = from, planned, elapsed, e.completed
	return append(effects, e.observeEffect(event)...)
}

func (e *Engine) enterPhase(phase model.Phase) {
	e.phase = phase
	e.remaining = model.RemainingFromMinutes(e.cfg.MinutesFor(phase))
	e.planned = e.remaining.TotalSeconds()
	e.elapsed = 0
}

func (e *Engine) scheduleLocked() {
	e.cancelTickerLocked()
	e.generation++
	generation := e.generation
	ticker := e.newTicker(e.interval)
	stop := make(chan struct{})
	e.ticker, e.stopTicker = ticker, stop
	go e.tickLoop(generation, ticker, stop)
}

func (e *Engine) cancelTickerLocked() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.stopTicker)
	e.ticker, e.stopTicker = nil, nil
}

func (e *Engine) tickLoop(generation uint64, ticker Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			e.fire(generation)
		}
	}
}

// fire is the scheduled callback. A fire from a ticker that has since been
// replaced or cancelled is dropped.
func (e *Engine) fire(generation uint64) {
	e.apply(context.Background(), func() []effect {
		if generation != e.generation || !e.running {
			return nil
		}
		return e.tickLocked()
	})
}

func (e *Engine) eventLocked(kind EventKind) Event {
	return Event{Kind: kind, Cycle: e.completed, Snapshot: e.snapshotLocked(), At: e.now()}
}

func (e *Engine) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Phase:             e.phase,
		Remaining:         e.remaining,
		Display:           e.remaining.String(),
		Running:           e.running,
		CompletedSessions: e.completed,
		Progress:          Progress(e.planned, e.remaining.TotalSeconds()),
		Config:            e.cfg,
	}
}

// Progress is the completed fraction of a phase of totalSeconds with
// remainingSeconds left, clamped to [0,1]; it is 0 when totalSeconds is 0.
func Progress(totalSeconds, remainingSeconds int) float64 {
	if totalSeconds <= 0 {
		return 0
	}
	fraction := float64(totalSeconds-remainingSeconds) / float64(totalSeconds)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
