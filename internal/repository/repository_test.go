package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomofocus/backend/internal/db"
	"pomofocus/backend/internal/model"
)

func setupRepos(t *testing.T) (*UserRepository, *SettingsRepository, *TaskRepository, *HistoryRepository) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database))

	return NewUserRepository(database),
		NewSettingsRepository(database),
		NewTaskRepository(database),
		NewHistoryRepository(database)
}

func createUser(t *testing.T, users *UserRepository) *model.User {
	t.Helper()
	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(context.Background(), user, model.DefaultSessionConfig()))
	return user
}

func addTask(t *testing.T, tasks *TaskRepository, userID, name string) *model.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &model.Task{ID: uuid.NewString(), UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func TestUserCreateStoresDefaultSettings(t *testing.T) {
	ctx := context.Background()
	users, settings, _, _ := setupRepos(t)
	user := createUser(t, users)

	found, err := users.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	cfg, err := settings.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSessionConfig(), cfg)

	_, err = users.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSettingsSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	users, settings, _, _ := setupRepos(t)
	user := createUser(t, users)

	cfg := model.DefaultSessionConfig()
	cfg.WorkMinutes = 50
	cfg.AutoAdvance = true
	cfg.BreakSound = model.SoundGong
	require.NoError(t, settings.Save(ctx, user.ID, cfg))

	got, err := settings.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	_, err = settings.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	users, _, tasks, _ := setupRepos(t)
	user := createUser(t, users)

	first := addTask(t, tasks, user.ID, "write report")
	second := addTask(t, tasks, user.ID, "review PR")
	third := addTask(t, tasks, user.ID, "email")
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 2, third.Position)

	renamed, err := tasks.Rename(ctx, user.ID, second.ID, "review pull request", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "review pull request", renamed.Name)

	toggled, err := tasks.Toggle(ctx, user.ID, first.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	toggled, err = tasks.Toggle(ctx, user.ID, first.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	require.NoError(t, tasks.Delete(ctx, user.ID, first.ID))
	list, err := tasks.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 0, list[0].Position)
	assert.Equal(t, 1, list[1].Position)

	assert.ErrorIs(t, tasks.Delete(ctx, user.ID, first.ID), ErrNotFound)
	_, err = tasks.Toggle(ctx, user.ID, "missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTasksAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	users, _, tasks, _ := setupRepos(t)
	owner := createUser(t, users)
	other := createUser(t, users)

	task := addTask(t, tasks, owner.ID, "private")

	_, err := tasks.Rename(ctx, other.ID, task.ID, "stolen", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, tasks.Delete(ctx, other.ID, task.ID), ErrNotFound)

	list, err := tasks.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreditPomodoroTargetsFirstIncompleteTask(t *testing.T) {
	ctx := context.Background()
	users, _, tasks, _ := setupRepos(t)
	user := createUser(t, users)

	credited, err := tasks.CreditPomodoro(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, credited, "empty list must not be credited")

	done := addTask(t, tasks, user.ID, "done")
	open := addTask(t, tasks, user.ID, "open")
	_, err = tasks.Toggle(ctx, user.ID, done.ID, time.Now())
	require.NoError(t, err)

	credited, err = tasks.CreditPomodoro(ctx, user.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, credited)
	assert.Equal(t, open.ID, credited.ID)
	assert.Equal(t, 1, credited.Pomodoros)

	_, err = tasks.Toggle(ctx, user.ID, open.ID, time.Now())
	require.NoError(t, err)
	credited, err = tasks.CreditPomodoro(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, done.ID, credited.ID, "all complete falls back to the first task")
}

func TestCategoriesAreDistinctInListOrder(t *testing.T) {
	ctx := context.Background()
	users, _, tasks, _ := setupRepos(t)
	user := createUser(t, users)

	for _, category := range []string{"work", "", "home", "work"} {
		now := time.Now()
		require.NoError(t, tasks.Create(ctx, &model.Task{
			ID: uuid.NewString(), UserID: user.ID, Name: "t", Category: category, CreatedAt: now, UpdatedAt: now,
		}))
	}

	categories, err := tasks.Categories(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "home"}, categories)
}

func TestHistoryListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	users, _, _, history := setupRepos(t)
	user := createUser(t, users)

	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, history.Insert(ctx, &model.PomodoroSession{
			ID:                     uuid.NewString(),
			UserID:                 user.ID,
			Phase:                  model.PhaseWork,
			Cycle:                  i + 1,
			PlannedDurationSeconds: 1500,
			ActualDurationSeconds:  1500,
			Status:                 model.SessionStatusCompleted,
			EndedAt:                base.Add(time.Duration(i) * time.Hour),
			CreatedAt:              base.Add(time.Duration(i) * time.Hour),
		}))
	}

	sessions, err := history.List(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 3, sessions[0].Cycle)
	assert.Equal(t, 2, sessions[1].Cycle)
	assert.Equal(t, model.PhaseWork, sessions[0].Phase)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users, settings, _, _ := setupRepos(t)
	existing := createUser(t, users)

	now := time.Now().UTC()
	dup := &model.User{ID: uuid.NewString(), Email: existing.Email, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	err := users.Create(ctx, dup, model.DefaultSessionConfig())
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = settings.Get(ctx, dup.ID)
	assert.ErrorIs(t, err, ErrNotFound, "settings must roll back with the user row")
}
