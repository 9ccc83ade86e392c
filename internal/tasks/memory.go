// Package tasks holds the in-process task list used by the terminal client.
package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pomofocus/backend/internal/model"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrEmptyName = errors.New("task name is required")
)

// MemoryStore is an ordered, mutex-guarded task list.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []model.Task
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) List() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *MemoryStore) Add(name, category string, dueDate *time.Time) (model.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Task{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  strings.TrimSpace(category),
		DueDate:   dueDate,
		Position:  len(s.tasks),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks = append(s.tasks, task)
	return task, nil
}

func (s *MemoryStore) Rename(id, name string) (model.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Task{}, ErrEmptyName
	}
	return s.update(id, func(task *model.Task) {
		task.Name = name
	})
}

// Toggle flips the completion flag.
func (s *MemoryStore) Toggle(id string) (model.Task, error) {
	return s.update(id, func(task *model.Task) {
		task.Completed = !task.Completed
	})
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			for j := i; j < len(s.tasks); j++ {
				s.tasks[j].Position = j
			}
			return nil
		}
	}
	return ErrNotFound
}

// NotifyPomodoroCompleted credits one pomodoro to the task chosen by
// model.PomodoroTarget. An empty list is left untouched.
func (s *MemoryStore) NotifyPomodoroCompleted(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := model.PomodoroTarget(s.tasks)
	if !ok {
		return nil
	}
	s.tasks[idx].Pomodoros++
	s.tasks[idx].UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) update(id string, mutate func(task *model.Task)) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			mutate(&s.tasks[i])
			s.tasks[i].UpdatedAt = s.now().UTC()
			return s.tasks[i], nil
		}
	}
	return model.Task{}, ErrNotFound
}
