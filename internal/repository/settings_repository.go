package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pomofocus/backend/internal/model"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (model.SessionConfig, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT work_minutes, short_break_minutes, long_break_minutes, long_break_interval,
		        auto_advance, work_sound, break_sound
		 FROM timer_settings WHERE user_id = ?`,
		userID,
	)

	var cfg model.SessionConfig
	err := row.Scan(
		&cfg.WorkMinutes,
		&cfg.ShortBreakMinutes,
		&cfg.LongBreakMinutes,
		&cfg.LongBreakInterval,
		&cfg.AutoAdvance,
		&cfg.WorkSound,
		&cfg.BreakSound,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionConfig{}, ErrNotFound
	}
	if err != nil {
		return model.SessionConfig{}, fmt.Errorf("get settings: %w", err)
	}
	return cfg, nil
}

func (r *SettingsRepository) Save(ctx context.Context, userID string, cfg model.SessionConfig) error {
	return upsertSettings(ctx, r.db, userID, cfg, time.Now())
}

func upsertSettings(ctx context.Context, exec execer, userID string, cfg model.SessionConfig, now time.Time) error {
	_, err := exec.ExecContext(
		ctx,
		`INSERT INTO timer_settings (
			user_id, work_minutes, short_break_minutes, long_break_minutes,
			long_break_interval, auto_advance, work_sound, break_sound, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			work_minutes = excluded.work_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			long_break_interval = excluded.long_break_interval,
			auto_advance = excluded.auto_advance,
			work_sound = excluded.work_sound,
			break_sound = excluded.break_sound,
			updated_at = excluded.updated_at`,
		userID,
		cfg.WorkMinutes,
		cfg.ShortBreakMinutes,
		cfg.LongBreakMinutes,
		cfg.LongBreakInterval,
		cfg.AutoAdvance,
		cfg.WorkSound,
		cfg.BreakSound,
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
