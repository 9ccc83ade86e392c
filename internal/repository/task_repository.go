package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pomofocus/backend/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, name, completed, pomodoros, category, due_date, position, created_at, updated_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]model.Task, error) {
	return listTasks(ctx, r.db, userID)
}

func listTasks(ctx context.Context, q queryer, userID string) ([]model.Task, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY position ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, userID, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Create appends the task to the end of the user's list.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var position int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE user_id = ?`,
		task.UserID,
	).Scan(&position); err != nil {
		return fmt.Errorf("next task position: %w", err)
	}
	task.Position = position

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Name,
		task.Completed,
		task.Pomodoros,
		task.Category,
		nullableTime(task.DueDate),
		task.Position,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Rename(ctx context.Context, userID, id, name string, now time.Time) (*model.Task, error) {
	return r.update(ctx, userID, id,
		`UPDATE tasks SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, formatTime(now), id, userID,
	)
}

func (r *TaskRepository) Toggle(ctx context.Context, userID, id string, now time.Time) (*model.Task, error) {
	return r.update(ctx, userID, id,
		`UPDATE tasks SET completed = NOT completed, updated_at = ? WHERE id = ? AND user_id = ?`,
		formatTime(now), id, userID,
	)
}

func (r *TaskRepository) update(ctx context.Context, userID, id, query string, args ...interface{}) (*model.Task, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("task rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, userID, id)
}

// Delete removes the task and closes the gap it leaves in the ordering.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRowContext(ctx, `SELECT position FROM tasks WHERE id = ? AND user_id = ?`, id, userID).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET position = position - 1 WHERE user_id = ? AND position > ?`,
		userID,
		position,
	); err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// Categories returns the distinct non-empty categories in list order.
func (r *TaskRepository) Categories(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT category FROM tasks
		 WHERE user_id = ? AND category <> ''
		 GROUP BY category
		 ORDER BY MIN(position) ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// CreditPomodoro adds one pomodoro to the task picked by model.PomodoroTarget.
// It returns nil without writing anything when the user has no tasks.
func (r *TaskRepository) CreditPomodoro(ctx context.Context, userID string, now time.Time) (*model.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	tasks, err := listTasks(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	idx, ok := model.PomodoroTarget(tasks)
	if !ok {
		return nil, nil
	}

	target := tasks[idx]
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET pomodoros = pomodoros + 1, updated_at = ? WHERE id = ?`,
		formatTime(now),
		target.ID,
	); err != nil {
		return nil, fmt.Errorf("credit pomodoro: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit credit: %w", err)
	}
	target.Pomodoros++
	target.UpdatedAt = now.UTC()
	return &target, nil
}

func scanTask(s scanner) (*model.Task, error) {
	var task model.Task
	var dueDate sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Name,
		&task.Completed,
		&task.Pomodoros,
		&task.Category,
		&dueDate,
		&task.Position,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if dueDate.Valid && dueDate.String != "" {
		parsed, err := parseTime(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse task due_date: %w", err)
		}
		task.DueDate = &parsed
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	return &task, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
