package model

const (
	SoundBell    = "bell"
	SoundChime   = "chime"
	SoundDigital = "digital"
	SoundGong    = "gong"
	SoundNone    = "none"

	DefaultWorkSound  = SoundBell
	DefaultBreakSound = SoundChime
)

type Sound struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var soundCatalog = []Sound{
	{ID: SoundBell, Label: "Bell"},
	{ID: SoundChime, Label: "Chime"},
	{ID: SoundDigital, Label: "Digital Beep"},
	{ID: SoundGong, Label: "Gong"},
	{ID: SoundNone, Label: "Silent"},
}

// Sounds returns the fixed catalog of selectable sounds.
func Sounds() []Sound {
	out := make([]Sound, len(soundCatalog))
	copy(out, soundCatalog)
	return out
}

func IsKnownSound(id string) bool {
	for _, s := range soundCatalog {
		if s.ID == id {
			return true
		}
	}
	return false
}
