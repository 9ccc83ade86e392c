package model

import "time"

type Task struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	Name      string     `json:"name"`
	Completed bool       `json:"completed"`
	Pomodoros int        `json:"pomodoros"`
	Category  string     `json:"category"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PomodoroTarget picks the task credited with a finished work session: the first
// incomplete task in stored order, otherwise the first task. ok is false when the
// list is empty.
func PomodoroTarget(tasks []Task) (index int, ok bool) {
	if len(tasks) == 0 {
		return 0, false
	}
	for i, task := range tasks {
		if !task.Completed {
			return i, true
		}
	}
	return 0, true
}
