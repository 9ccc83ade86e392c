package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedClampsAndFillsSounds(t *testing.T) {
	cfg := SessionConfig{WorkMinutes: 0, ShortBreakMinutes: -5, LongBreakMinutes: 20, LongBreakInterval: 0}.Normalized()

	assert.Equal(t, 1, cfg.WorkMinutes)
	assert.Equal(t, 1, cfg.ShortBreakMinutes)
	assert.Equal(t, 20, cfg.LongBreakMinutes)
	assert.Equal(t, 1, cfg.LongBreakInterval)
	assert.Equal(t, DefaultWorkSound, cfg.WorkSound)
	assert.Equal(t, DefaultBreakSound, cfg.BreakSound)
}

func TestMinutesFor(t *testing.T) {
	cfg := DefaultSessionConfig()
	assert.Equal(t, 25, cfg.MinutesFor(PhaseWork))
	assert.Equal(t, 5, cfg.MinutesFor(PhaseShortBreak))
	assert.Equal(t, 15, cfg.MinutesFor(PhaseLongBreak))
}

func TestRemaining(t *testing.T) {
	r := Remaining{Minutes: 4, Seconds: 7}
	assert.Equal(t, 247, r.TotalSeconds())
	assert.Equal(t, "04:07", r.String())
	assert.False(t, r.IsZero())
	assert.True(t, Remaining{}.IsZero())
	assert.Equal(t, Remaining{}, RemainingFromMinutes(-3))
}

func TestPomodoroTarget(t *testing.T) {
	_, ok := PomodoroTarget(nil)
	assert.False(t, ok)

	idx, ok := PomodoroTarget([]Task{{Completed: true}, {Completed: false}, {Completed: false}})
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = PomodoroTarget([]Task{{Completed: true}, {Completed: true}})
	assert.True(t, ok)
	assert.Zero(t, idx)
}

func TestSoundCatalog(t *testing.T) {
	assert.True(t, IsKnownSound(SoundNone))
	assert.False(t, IsKnownSound("trumpet"))

	sounds := Sounds()
	sounds[0].ID = "changed"
	assert.Equal(t, SoundBell, Sounds()[0].ID)
}

func TestPhaseHelpers(t *testing.T) {
	assert.True(t, PhaseLongBreak.IsBreak())
	assert.False(t, PhaseWork.IsBreak())
	assert.False(t, Phase("nap").Valid())
}
