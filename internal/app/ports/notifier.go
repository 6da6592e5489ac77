package ports

import "metroterminal/internal/domain/metro"

// Notifier receives fire-and-forget presentation updates.
type Notifier interface {
	Status(text string)
	HistoryChanged()
	ResourcesChanged()
	ToolChanged(tool metro.ToolID, state metro.ToolState)
	ReplacementNeeded(tool metro.ToolID, needed bool)
	GeigerTick(reading metro.GeigerReading)
}

type AudioPlayer interface {
	Play(ref string) error
	Stop()
}

type Translator interface {
	Text(key string, args ...any) string
}
