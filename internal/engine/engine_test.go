package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomofocus/backend/internal/model"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() { f.stopped.Store(true) }

type fakeTickers struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickers) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeTickers) get(i int) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[i]
}

func (f *fakeTickers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// recorder captures every emission in order.
type recorder struct {
	mu          sync.Mutex
	calls       []string
	completions int
	sounds      []string
	toasts      []Toast
	notified    []string
	events      []Event
	permission  model.Permission
	soundErr    error
	toastPanics bool
}

func (r *recorder) NotifyPomodoroCompleted(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "tasks")
	r.completions++
	return nil
}

func (r *recorder) Play(_ context.Context, soundID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "sound")
	r.sounds = append(r.sounds, soundID)
	return r.soundErr
}

func (r *recorder) Toast(_ context.Context, toast Toast) error {
	r.mu.Lock()
	r.calls = append(r.calls, "toast")
	r.toasts = append(r.toasts, toast)
	panics := r.toastPanics
	r.mu.Unlock()
	if panics {
		panic("toast renderer exploded")
	}
	return nil
}

func (r *recorder) Permission() model.Permission {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.permission == "" {
		return model.PermissionGranted
	}
	return r.permission
}

func (r *recorder) Notify(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "notify")
	r.notified = append(r.notified, title)
	return nil
}

func (r *recorder) Observe(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) handlers() Handlers {
	return Handlers{Tasks: r, Sound: r, Toast: r, Notifier: r, Observer: r}
}

func (r *recorder) eventKinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		if ev.Kind != EventTick {
			kinds = append(kinds, ev.Kind)
		}
	}
	return kinds
}

func newTestEngine(t *testing.T, cfg model.SessionConfig, rec *recorder) (*Engine, *fakeTickers) {
	t.Helper()
	tickers := &fakeTickers{}
	var handlers Handlers
	if rec != nil {
		handlers = rec.handlers()
	}
	e := New(cfg, handlers, WithTicker(tickers.New))
	t.Cleanup(e.Close)
	return e, tickers
}

func config(work, short, long, interval int, auto bool) model.SessionConfig {
	return model.SessionConfig{
		WorkMinutes:       work,
		ShortBreakMinutes: short,
		LongBreakMinutes:  long,
		LongBreakInterval: interval,
		AutoAdvance:       auto,
		WorkSound:         model.SoundBell,
		BreakSound:        model.SoundChime,
	}
}

// runPhase starts the engine and ticks until the current phase is exhausted.
func runPhase(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	e.Start(ctx)
	ticks := e.Snapshot().Remaining.TotalSeconds()
	for i := 0; i < ticks; i++ {
		require.True(t, e.Tick(ctx), "tick %d of %d was not applied", i+1, ticks)
	}
}

func TestNewEngineStartsInWork(t *testing.T) {
	e, _ := newTestEngine(t, model.DefaultSessionConfig(), nil)

	snap := e.Snapshot()
	assert.Equal(t, model.PhaseWork, snap.Phase)
	assert.Equal(t, model.Remaining{Minutes: 25}, snap.Remaining)
	assert.Equal(t, "25:00", snap.Display)
	assert.False(t, snap.Running)
	assert.Zero(t, snap.CompletedSessions)
	assert.Zero(t, snap.Progress)
}

func TestTickCountdown(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, config(2, 1, 1, 4, false), nil)

	assert.False(t, e.Tick(ctx), "paused engine must not tick")
	assert.Equal(t, model.Remaining{Minutes: 2}, e.Snapshot().Remaining)

	e.Start(ctx)
	require.True(t, e.Tick(ctx))
	assert.Equal(t, model.Remaining{Minutes: 1, Seconds: 59}, e.Snapshot().Remaining)
	require.True(t, e.Tick(ctx))
	assert.Equal(t, model.Remaining{Minutes: 1, Seconds: 58}, e.Snapshot().Remaining)
}

func TestPhaseTransitionsAfterExactTickCount(t *testing.T) {
	for _, work := range []int{1, 2, 25} {
		ctx := context.Background()
		e, _ := newTestEngine(t, config(work, 5, 15, 4, false), nil)
		e.Start(ctx)

		total := work * 60
		for i := 0; i < total-1; i++ {
			require.True(t, e.Tick(ctx))
		}
		snap := e.Snapshot()
		require.Equal(t, model.PhaseWork, snap.Phase, "work=%d", work)
		require.Equal(t, model.Remaining{Seconds: 1}, snap.Remaining)

		require.True(t, e.Tick(ctx))
		snap = e.Snapshot()
		assert.Equal(t, model.PhaseShortBreak, snap.Phase, "work=%d", work)
		assert.Equal(t, model.Remaining{Minutes: 5}, snap.Remaining)
	}
}

func TestLongBreakEveryIntervalWorkSessions(t *testing.T) {
	for _, interval := range []int{1, 2, 3, 4} {
		e, _ := newTestEngine(t, config(1, 1, 2, interval, true), nil)

		for k := 1; k <= 9; k++ {
			require.Equal(t, model.PhaseWork, e.Snapshot().Phase)
			runPhase(t, e)

			snap := e.Snapshot()
			require.Equal(t, k, snap.CompletedSessions)
			if k%interval == 0 {
				assert.Equal(t, model.PhaseLongBreak, snap.Phase, "interval=%d k=%d", interval, k)
				assert.Equal(t, model.Remaining{Minutes: 2}, snap.Remaining)
			} else {
				assert.Equal(t, model.PhaseShortBreak, snap.Phase, "interval=%d k=%d", interval, k)
				assert.Equal(t, model.Remaining{Minutes: 1}, snap.Remaining)
			}
			runPhase(t, e)
		}
	}
}

func TestDefaultScenarioWithoutAutoAdvance(t *testing.T) {
	rec := &recorder{}
	e, _ := newTestEngine(t, config(25, 5, 15, 4, false), rec)

	for session := 1; session <= 4; session++ {
		runPhase(t, e)
		snap := e.Snapshot()
		assert.False(t, snap.Running, "engine must halt after session %d", session)
		if session < 4 {
			assert.Equal(t, model.PhaseShortBreak, snap.Phase)
			assert.Equal(t, "05:00", snap.Display)
		} else {
			assert.Equal(t, model.PhaseLongBreak, snap.Phase)
			assert.Equal(t, "15:00", snap.Display)
		}
		if session < 4 {
			runPhase(t, e)
			assert.Equal(t, model.PhaseWork, e.Snapshot().Phase)
			assert.Equal(t, "25:00", e.Snapshot().Display)
		}
	}
	assert.Equal(t, 4, rec.completions)
}

func TestTransitionHaltsWithoutAutoAdvance(t *testing.T) {
	ctx := context.Background()
	e, tickers := newTestEngine(t, config(1, 1, 1, 4, false), nil)

	runPhase(t, e)
	assert.False(t, e.Snapshot().Running)
	assert.False(t, e.Tick(ctx))
	assert.True(t, tickers.get(0).stopped.Load(), "ticker must be cancelled on halt")

	e.Start(ctx)
	assert.True(t, e.Tick(ctx))
	assert.Equal(t, model.Remaining{Seconds: 59}, e.Snapshot().Remaining)
}

func TestAutoAdvanceKeepsRunning(t *testing.T) {
	ctx := context.Background()
	e, tickers := newTestEngine(t, config(1, 1, 1, 4, true), nil)

	runPhase(t, e)
	assert.True(t, e.Snapshot().Running)
	assert.Equal(t, model.PhaseShortBreak, e.Snapshot().Phase)
	assert.Equal(t, 1, tickers.count(), "auto-advance must keep the same ticker")
	assert.True(t, e.Tick(ctx))
}

func TestResetRestoresInitialState(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, config(1, 2, 3, 1, false), nil)

	runPhase(t, e)
	e.Start(ctx)
	e.Tick(ctx)
	require.Equal(t, model.PhaseLongBreak, e.Snapshot().Phase)

	snap := e.Reset(ctx)
	assert.Equal(t, model.PhaseWork, snap.Phase)
	assert.Equal(t, model.Remaining{Minutes: 1}, snap.Remaining)
	assert.Zero(t, snap.CompletedSessions)
	assert.False(t, snap.Running)
	assert.False(t, e.Tick(ctx))
}

func TestResetReportsAbandonedPhase(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	e, _ := newTestEngine(t, config(1, 1, 1, 4, false), rec)

	e.Start(ctx)
	for i := 0; i < 10; i++ {
		e.Tick(ctx)
	}
	e.Reset(ctx)

	rec.mu.Lock()
	last := rec.events[len(rec.events)-1]
	rec.mu.Unlock()
	assert.Equal(t, EventReset, last.Kind)
	assert.Equal(t, model.PhaseWork, last.From)
	assert.Equal(t, 60, last.Planned)
	assert.Equal(t, 10, last.Elapsed)
}

func TestPauseThenStartResumesExactly(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	for i := 0; i < 61; i++ {
		e.Tick(ctx)
	}
	paused := e.Pause(ctx)
	assert.False(t, paused.Running)
	assert.Equal(t, model.Remaining{Minutes: 23, Seconds: 59}, paused.Remaining)

	assert.False(t, e.Tick(ctx))
	resumed := e.Start(ctx)
	assert.True(t, resumed.Running)
	assert.Equal(t, paused.Remaining, resumed.Remaining)
}

func TestStartAndPauseAreIdempotent(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	e, tickers := newTestEngine(t, model.DefaultSessionConfig(), rec)

	e.Start(ctx)
	e.Start(ctx)
	assert.Equal(t, 1, tickers.count(), "second start must not schedule another ticker")

	e.Pause(ctx)
	e.Pause(ctx)
	assert.Equal(t, []EventKind{EventStarted, EventPaused}, rec.eventKinds())
}

func TestProgressBounds(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, config(1, 1, 1, 4, false), nil)

	assert.Zero(t, e.Snapshot().Progress)
	e.Start(ctx)
	previous := 0.0
	for i := 0; i < 59; i++ {
		e.Tick(ctx)
		p := e.Snapshot().Progress
		require.GreaterOrEqual(t, p, previous)
		require.LessOrEqual(t, p, 1.0)
		previous = p
	}
	assert.InDelta(t, 59.0/60.0, previous, 1e-9)

	assert.Zero(t, Progress(0, 0))
	assert.Zero(t, Progress(60, 120))
	assert.Equal(t, 1.0, Progress(60, -5))
}

func TestUpdateConfigWhilePausedResyncsRemaining(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, model.DefaultSessionConfig(), nil)

	cfg := e.Config()
	cfg.WorkMinutes = 30
	snap := e.UpdateConfig(ctx, cfg)

	assert.Equal(t, "30:00", snap.Display)
	assert.Equal(t, 30, snap.Config.WorkMinutes)
}

func TestUpdateConfigWhileRunningKeepsCountdown(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	e.Tick(ctx)
	cfg := e.Config()
	cfg.WorkMinutes = 30
	snap := e.UpdateConfig(ctx, cfg)

	assert.Equal(t, "24:59", snap.Display)
	assert.Equal(t, 30, snap.Config.WorkMinutes)
	assert.True(t, snap.Running)
}

func TestProgressTracksPhaseLengthAtEntry(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	for i := 0; i < 300; i++ {
		require.True(t, e.Tick(ctx))
	}
	cfg := e.Config()
	cfg.WorkMinutes = 10
	snap := e.UpdateConfig(ctx, cfg)

	assert.Equal(t, "20:00", snap.Display)
	assert.InDelta(t, 300.0/1500.0, snap.Progress, 1e-9)

	require.True(t, e.Tick(ctx))
	assert.Greater(t, e.Snapshot().Progress, snap.Progress)
}

func TestUpdateConfigKeepsPausedProgressWhenPhaseLengthUnchanged(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	e.Tick(ctx)
	e.Pause(ctx)

	cfg := e.Config()
	cfg.BreakSound = model.SoundGong
	snap := e.UpdateConfig(ctx, cfg)
	assert.Equal(t, "24:59", snap.Display)
}

func TestConfigIsClamped(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, config(0, -3, 0, -1, false), nil)

	cfg := e.Config()
	assert.Equal(t, 1, cfg.WorkMinutes)
	assert.Equal(t, 1, cfg.ShortBreakMinutes)
	assert.Equal(t, 1, cfg.LongBreakMinutes)
	assert.Equal(t, 1, cfg.LongBreakInterval)
	assert.Equal(t, "01:00", e.Snapshot().Display)

	snap := e.UpdateConfig(ctx, model.SessionConfig{WorkMinutes: -10})
	assert.Equal(t, 1, snap.Config.WorkMinutes)
	assert.Equal(t, model.DefaultWorkSound, snap.Config.WorkSound)
}

func TestTransitionEmitsInOrder(t *testing.T) {
	rec := &recorder{}
	e, _ := newTestEngine(t, config(1, 1, 1, 4, false), rec)

	runPhase(t, e)

	assert.Equal(t, []string{"tasks", "sound", "toast", "notify"}, rec.calls)
	assert.Equal(t, []string{model.SoundChime}, rec.sounds)
	require.Len(t, rec.toasts, 1)
	assert.Equal(t, "Work session complete!", rec.toasts[0].Title)
	assert.Equal(t, model.PhaseShortBreak, rec.toasts[0].Phase)

	rec.calls = nil
	runPhase(t, e)
	assert.Equal(t, []string{"sound", "toast", "notify"}, rec.calls, "break completion must not credit a task")
	assert.Equal(t, model.SoundBell, rec.sounds[1])
	assert.Equal(t, "Break complete!", rec.toasts[1].Title)
}

func TestEffectFailuresDoNotAffectTransition(t *testing.T) {
	rec := &recorder{soundErr: errors.New("autoplay blocked"), toastPanics: true}
	e, _ := newTestEngine(t, config(1, 1, 1, 4, false), rec)

	runPhase(t, e)

	snap := e.Snapshot()
	assert.Equal(t, model.PhaseShortBreak, snap.Phase)
	assert.Equal(t, 1, snap.CompletedSessions)
	assert.Equal(t, []string{"Work session complete!"}, rec.notified)
}

func TestNotificationRequiresPermission(t *testing.T) {
	for _, perm := range []model.Permission{model.PermissionNotRequested, model.PermissionDenied} {
		rec := &recorder{permission: perm}
		e, _ := newTestEngine(t, config(1, 1, 1, 4, false), rec)

		runPhase(t, e)
		assert.Empty(t, rec.notified, "permission %s", perm)
		assert.Len(t, rec.toasts, 1)
	}
}

func TestSilentSoundIsNotPlayed(t *testing.T) {
	rec := &recorder{}
	cfg := config(1, 1, 1, 4, false)
	cfg.BreakSound = model.SoundNone
	e, _ := newTestEngine(t, cfg, rec)

	runPhase(t, e)
	assert.Empty(t, rec.sounds)
}

func TestTransitionEventCarriesCompletedPhase(t *testing.T) {
	rec := &recorder{}
	e, _ := newTestEngine(t, config(1, 1, 1, 4, false), rec)

	runPhase(t, e)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventTransition, last.Kind)
	assert.Equal(t, model.PhaseWork, last.From)
	assert.Equal(t, 60, last.Planned)
	assert.Equal(t, 60, last.Elapsed)
	assert.Equal(t, 1, last.Cycle)
	assert.Equal(t, model.PhaseShortBreak, last.Snapshot.Phase)
}

func TestScheduledTickerDrivesCountdown(t *testing.T) {
	ctx := context.Background()
	e, tickers := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	tickers.get(0).ch <- time.Now()

	require.Eventually(t, func() bool {
		return e.Snapshot().Display == "24:59"
	}, time.Second, 5*time.Millisecond)
}

func TestStaleTickerIsIgnored(t *testing.T) {
	ctx := context.Background()
	e, tickers := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	e.Pause(ctx)
	e.Start(ctx)
	require.Equal(t, 2, tickers.count())
	first, second := tickers.get(0), tickers.get(1)
	assert.True(t, first.stopped.Load())
	assert.False(t, second.stopped.Load())

	e.fire(1)
	assert.Equal(t, "25:00", e.Snapshot().Display, "fire from a replaced ticker must be dropped")

	second.ch <- time.Now()
	require.Eventually(t, func() bool {
		return e.Snapshot().Display == "24:59"
	}, time.Second, 5*time.Millisecond)
}

func TestClosedEngineIgnoresStart(t *testing.T) {
	ctx := context.Background()
	e, tickers := newTestEngine(t, model.DefaultSessionConfig(), nil)

	e.Start(ctx)
	e.Close()
	assert.True(t, tickers.get(0).stopped.Load())

	snap := e.Start(ctx)
	assert.False(t, snap.Running)
	assert.Equal(t, 1, tickers.count())
}
