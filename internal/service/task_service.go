package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "pomofocus/backend/internal/errors"
	"pomofocus/backend/internal/model"
	"pomofocus/backend/internal/repository"
)

const maxTaskNameLength = 200

type TaskService struct {
	repo *repository.TaskRepository
	now  func() time.Time
}

type CreateTaskInput struct {
	Name     string
	Category string
	DueDate  string
}

func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*model.Task, *apperrors.APIError) {
	name, apiErr := normalizeTaskName(input.Name)
	if apiErr != nil {
		return nil, apiErr
	}

	var dueDate *time.Time
	if raw := strings.TrimSpace(input.DueDate); raw != "" {
		parsed, err := parseDueDate(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid_due_date", "dueDate must be YYYY-MM-DD or RFC 3339")
		}
		dueDate = &parsed
	}

	now := s.now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Category:  strings.TrimSpace(input.Category),
		DueDate:   dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) Rename(ctx context.Context, userID, taskID, name string) (*model.Task, *apperrors.APIError) {
	name, apiErr := normalizeTaskName(name)
	if apiErr != nil {
		return nil, apiErr
	}
	task, err := s.repo.Rename(ctx, userID, taskID, name, s.now().UTC())
	return taskResult(task, err, "failed to rename task")
}

func (s *TaskService) Toggle(ctx context.Context, userID, taskID string) (*model.Task, *apperrors.APIError) {
	task, err := s.repo.Toggle(ctx, userID, taskID, s.now().UTC())
	return taskResult(task, err, "failed to update task")
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	err := s.repo.Delete(ctx, userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete task")
	}
	return nil
}

func (s *TaskService) Categories(ctx context.Context, userID string) ([]string, *apperrors.APIError) {
	categories, err := s.repo.Categories(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list categories")
	}
	return categories, nil
}

// NotifyPomodoroCompleted credits a finished work session to the user's current
// task. A user without tasks is not an error.
func (s *TaskService) NotifyPomodoroCompleted(ctx context.Context, userID string) error {
	task, err := s.repo.CreditPomodoro(ctx, userID, s.now().UTC())
	if err != nil {
		return err
	}
	if task != nil {
		slog.Debug("pomodoro credited", "user_id", userID, "task_id", task.ID, "pomodoros", task.Pomodoros)
	}
	return nil
}

func taskResult(task *model.Task, err error, message string) (*model.Task, *apperrors.APIError) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal(message)
	}
	return task, nil
}

func normalizeTaskName(raw string) (string, *apperrors.APIError) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperrors.BadRequest("invalid_name", "task name is required")
	}
	if len(name) > maxTaskNameLength {
		return "", apperrors.BadRequest("invalid_name", "task name is too long")
	}
	return name, nil
}

func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
