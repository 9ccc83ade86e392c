package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pomofocus/backend/internal/engine"
	apperrors "pomofocus/backend/internal/errors"
	"pomofocus/backend/internal/events"
	"pomofocus/backend/internal/model"
	"pomofocus/backend/internal/notify"
	"pomofocus/backend/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// TimerService hosts one engine per user. Engines are created on first use from
// the user's stored settings and live until Close.
type TimerService struct {
	settings    *repository.SettingsRepository
	history     *repository.HistoryRepository
	tasks       *TaskService
	hub         *events.Hub
	permissions *notify.Permissions
	defaults    model.SessionConfig
	engineOpts  []engine.Option
	logger      *slog.Logger

	mu      sync.Mutex
	engines map[string]*engine.Engine
	closed  bool
}

type TimerState struct {
	Phase             model.Phase         `json:"phase"`
	Minutes           int                 `json:"minutes"`
	Seconds           int                 `json:"seconds"`
	Display           string              `json:"display"`
	Running           bool                `json:"running"`
	CompletedSessions int                 `json:"completedSessions"`
	Progress          float64             `json:"progress"`
	Config            model.SessionConfig `json:"config"`
}

func NewTimerState(snapshot model.Snapshot) TimerState {
	return TimerState{
		Phase:             snapshot.Phase,
		Minutes:           snapshot.Remaining.Minutes,
		Seconds:           snapshot.Remaining.Seconds,
		Display:           snapshot.Display,
		Running:           snapshot.Running,
		CompletedSessions: snapshot.CompletedSessions,
		Progress:          snapshot.Progress,
		Config:            snapshot.Config,
	}
}

func NewTimerService(
	settings *repository.SettingsRepository,
	history *repository.HistoryRepository,
	tasks *TaskService,
	hub *events.Hub,
	permissions *notify.Permissions,
	defaults model.SessionConfig,
	logger *slog.Logger,
	engineOpts ...engine.Option,
) *TimerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerService{
		settings:    settings,
		history:     history,
		tasks:       tasks,
		hub:         hub,
		permissions: permissions,
		defaults:    defaults.Normalized(),
		engineOpts:  append([]engine.Option{engine.WithLogger(logger)}, engineOpts...),
		logger:      logger,
		engines:     make(map[string]*engine.Engine),
	}
}

func (s *TimerService) State(ctx context.Context, userID string) (*TimerState, *apperrors.APIError) {
	return s.run(ctx, userID, func(e *engine.Engine) model.Snapshot {
		return e.Snapshot()
	})
}

func (s *TimerService) Start(ctx context.Context, userID string) (*TimerState, *apperrors.APIError) {
	return s.run(ctx, userID, func(e *engine.Engine) model.Snapshot {
		return e.Start(ctx)
	})
}

func (s *TimerService) Pause(ctx context.Context, userID string) (*TimerState, *apperrors.APIError) {
	return s.run(ctx, userID, func(e *engine.Engine) model.Snapshot {
		return e.Pause(ctx)
	})
}

func (s *TimerService) Reset(ctx context.Context, userID string) (*TimerState, *apperrors.APIError) {
	return s.run(ctx, userID, func(e *engine.Engine) model.Snapshot {
		return e.Reset(ctx)
	})
}

// UpdateSettings validates the sound choices, applies cfg to the running engine
// and persists it. Durations and the interval are clamped rather than rejected.
func (s *TimerService) UpdateSettings(ctx context.Context, userID string, cfg model.SessionConfig) (*TimerState, *apperrors.APIError) {
	if apiErr := checkSounds(cfg); apiErr != nil {
		return nil, apiErr
	}

	cfg = cfg.Normalized()
	if err := s.settings.Save(ctx, userID, cfg); err != nil {
		s.logger.Error("save timer settings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to save settings")
	}

	return s.run(ctx, userID, func(e *engine.Engine) model.Snapshot {
		return e.UpdateConfig(ctx, cfg)
	})
}

func (s *TimerService) Sounds() []model.Sound {
	return model.Sounds()
}

func (s *TimerService) History(ctx context.Context, userID string, limit int) ([]model.PomodoroSession, *apperrors.APIError) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	sessions, err := s.history.List(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// Close stops every engine. Later requests fail with 503.
func (s *TimerService) Close() {
	s.mu.Lock()
	engines := s.engines
	s.engines = make(map[string]*engine.Engine)
	s.closed = true
	s.mu.Unlock()

	for _, e := range engines {
		e.Close()
	}
}

func (s *TimerService) run(ctx context.Context, userID string, op func(e *engine.Engine) model.Snapshot) (*TimerState, *apperrors.APIError) {
	e, apiErr := s.engineFor(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	state := NewTimerState(op(e))
	return &state, nil
}

func (s *TimerService) engineFor(ctx context.Context, userID string) (*engine.Engine, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, apperrors.ServiceUnavailable("timer_closed", "timer service is shutting down")
	}
	if e, ok := s.engines[userID]; ok {
		return e, nil
	}

	cfg, err := s.settings.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		cfg = s.defaults
	} else if err != nil {
		s.logger.Error("load timer settings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load settings")
	}

	effects := &userEffects{userID: userID, svc: s}
	e := engine.New(cfg, engine.Handlers{
		Tasks:    effects,
		Sound:    effects,
		Toast:    effects,
		Notifier: effects,
		Observer: effects,
	}, s.engineOpts...)
	s.engines[userID] = e
	return e, nil
}

// userEffects routes one user's engine effects to the task store, the history
// table and the user's live event stream.
type userEffects struct {
	userID string
	svc    *TimerService
}

func (u *userEffects) NotifyPomodoroCompleted(ctx context.Context) error {
	if u.svc.tasks == nil {
		return nil
	}
	return u.svc.tasks.NotifyPomodoroCompleted(ctx, u.userID)
}

func (u *userEffects) Play(_ context.Context, soundID string) error {
	msg := events.NewMessage(events.KindSound)
	msg.Sound = soundID
	u.svc.publish(u.userID, msg)
	return nil
}

func (u *userEffects) Toast(_ context.Context, toast engine.Toast) error {
	msg := events.NewMessage(events.KindToast)
	msg.Title, msg.Body, msg.Phase = toast.Title, toast.Body, toast.Phase
	u.svc.publish(u.userID, msg)
	return nil
}

func (u *userEffects) Permission() model.Permission {
	if u.svc.permissions == nil {
		return model.PermissionNotRequested
	}
	return u.svc.permissions.Get(u.userID)
}

func (u *userEffects) Notify(_ context.Context, title, body string) error {
	msg := events.NewMessage(events.KindNotification)
	msg.Title, msg.Body = title, body
	u.svc.publish(u.userID, msg)
	return nil
}

func (u *userEffects) Observe(ctx context.Context, event engine.Event) {
	switch event.Kind {
	case engine.EventTransition:
		u.record(ctx, event, model.SessionStatusCompleted)
	case engine.EventReset:
		if event.Elapsed > 0 {
			u.record(ctx, event, model.SessionStatusCancelled)
		}
	}

	snapshot := event.Snapshot
	msg := events.NewMessage(events.KindState)
	msg.Snapshot = &snapshot
	u.svc.publish(u.userID, msg)
}

func (u *userEffects) record(ctx context.Context, event engine.Event, status string) {
	if u.svc.history == nil {
		return
	}
	endedAt := event.At.UTC()
	session := model.PomodoroSession{
		ID:                     uuid.NewString(),
		UserID:                 u.userID,
		Phase:                  event.From,
		Cycle:                  event.Cycle,
		PlannedDurationSeconds: event.Planned,
		ActualDurationSeconds:  event.Elapsed,
		Status:                 status,
		EndedAt:                endedAt,
		CreatedAt:              endedAt.Add(-time.Duration(event.Elapsed) * time.Second),
	}
	if err := u.svc.history.Insert(ctx, &session); err != nil {
		u.svc.logger.Warn("record timer history", "user_id", u.userID, "status", status, "error", err)
	}
}

func (s *TimerService) publish(userID string, msg events.Message) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(userID, msg)
}

// checkSounds rejects sound ids outside the catalog. Empty ids fall back to the
// defaults later.
func checkSounds(cfg model.SessionConfig) *apperrors.APIError {
	fields := map[string]string{}
	if cfg.WorkSound != "" && !model.IsKnownSound(cfg.WorkSound) {
		fields["workSound"] = "unknown sound"
	}
	if cfg.BreakSound != "" && !model.IsKnownSound(cfg.BreakSound) {
		fields["breakSound"] = "unknown sound"
	}
	if len(fields) == 0 {
		return nil
	}
	apiErr := apperrors.BadRequest("invalid_sound", "sound must be one of the available sounds")
	apiErr.Details = fields
	return apiErr
}
