package model

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

func (p Phase) Valid() bool {
	return p == PhaseWork || p == PhaseShortBreak || p == PhaseLongBreak
}

const (
	DefaultWorkMinutes       = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultLongBreakInterval = 4
)

const (
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// SessionConfig holds the user-adjustable timer parameters. Durations are whole
// minutes.
type SessionConfig struct {
	WorkMinutes       int    `json:"workMinutes" toml:"work_minutes" yaml:"work_minutes"`
	ShortBreakMinutes int    `json:"shortBreakMinutes" toml:"short_break_minutes" yaml:"short_break_minutes"`
	LongBreakMinutes  int    `json:"longBreakMinutes" toml:"long_break_minutes" yaml:"long_break_minutes"`
	LongBreakInterval int    `json:"longBreakInterval" toml:"long_break_interval" yaml:"long_break_interval"`
	AutoAdvance       bool   `json:"autoAdvance" toml:"auto_advance" yaml:"auto_advance"`
	WorkSound         string `json:"workSound" toml:"work_sound" yaml:"work_sound"`
	BreakSound        string `json:"breakSound" toml:"break_sound" yaml:"break_sound"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		WorkMinutes:       DefaultWorkMinutes,
		ShortBreakMinutes: DefaultShortBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
		LongBreakInterval: DefaultLongBreakInterval,
		AutoAdvance:       false,
		WorkSound:         DefaultWorkSound,
		BreakSound:        DefaultBreakSound,
	}
}

// Normalized clamps every duration and the interval to at least 1 and falls back
// to the default sounds when a sound id is empty.
func (c SessionConfig) Normalized() SessionConfig {
	c.WorkMinutes = atLeastOne(c.WorkMinutes)
	c.ShortBreakMinutes = atLeastOne(c.ShortBreakMinutes)
	c.LongBreakMinutes = atLeastOne(c.LongBreakMinutes)
	c.LongBreakInterval = atLeastOne(c.LongBreakInterval)
	if c.WorkSound == "" {
		c.WorkSound = DefaultWorkSound
	}
	if c.BreakSound == "" {
		c.BreakSound = DefaultBreakSound
	}
	return c
}

// MinutesFor returns the configured length of the given phase.
func (c SessionConfig) MinutesFor(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return c.ShortBreakMinutes
	case PhaseLongBreak:
		return c.LongBreakMinutes
	default:
		return c.WorkMinutes
	}
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Remaining is a countdown value. Seconds always stays within 0..59.
type Remaining struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func RemainingFromMinutes(minutes int) Remaining {
	if minutes < 0 {
		minutes = 0
	}
	return Remaining{Minutes: minutes}
}

func (r Remaining) TotalSeconds() int {
	return r.Minutes*60 + r.Seconds
}

func (r Remaining) IsZero() bool {
	return r.Minutes == 0 && r.Seconds == 0
}

func (r Remaining) String() string {
	return fmt.Sprintf("%02d:%02d", r.Minutes, r.Seconds)
}

// Snapshot is a read-only copy of an engine's run state.
type Snapshot struct {
	Phase             Phase         `json:"phase"`
	Remaining         Remaining     `json:"remaining"`
	Display           string        `json:"display"`
	Running           bool          `json:"running"`
	CompletedSessions int           `json:"completedSessions"`
	Progress          float64       `json:"progress"`
	Config            SessionConfig `json:"config"`
}

type PomodoroSession struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"userId"`
	Phase                  Phase     `json:"phase"`
	Cycle                  int       `json:"cycle"`
	PlannedDurationSeconds int       `json:"plannedDurationSeconds"`
	ActualDurationSeconds  int       `json:"actualDurationSeconds"`
	Status                 string    `json:"status"`
	EndedAt                time.Time `json:"endedAt"`
	CreatedAt              time.Time `json:"createdAt"`
}
