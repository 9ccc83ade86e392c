package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pomofocus/backend/internal/model"
)

// HistoryRepository stores finished and abandoned timer phases.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Insert(ctx context.Context, session *model.PomodoroSession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO pomodoro_sessions (
			id, user_id, phase, cycle, planned_duration_seconds, actual_duration_seconds,
			status, ended_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		string(session.Phase),
		session.Cycle,
		session.PlannedDurationSeconds,
		session.ActualDurationSeconds,
		session.Status,
		formatTime(session.EndedAt),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, userID string, limit int) ([]model.PomodoroSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, phase, cycle, planned_duration_seconds, actual_duration_seconds,
		        status, ended_at, created_at
		 FROM pomodoro_sessions
		 WHERE user_id = ?
		 ORDER BY ended_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.PomodoroSession, 0, limit)
	for rows.Next() {
		session, scanErr := scanPomodoroSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func scanPomodoroSession(s scanner) (*model.PomodoroSession, error) {
	session := model.PomodoroSession{}
	var phase string
	var endedAt string
	var createdAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&phase,
		&session.Cycle,
		&session.PlannedDurationSeconds,
		&session.ActualDurationSeconds,
		&session.Status,
		&endedAt,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Phase = model.Phase(phase)

	if session.EndedAt, err = parseTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	return &session, nil
}
