package metro

import (
	"strings"
	"time"
)

type ResourceKind string

const (
	ResourceBattery ResourceKind = "battery"
	ResourceFilter  ResourceKind = "filter"
	ResourceWater   ResourceKind = "water"
	ResourceUnknown ResourceKind = "unknown"
)

type Resources struct {
	Battery int `json:"battery"`
	Filter  int `json:"filter"`
	Water   int `json:"water"`
}

type Code struct {
	ID        string       `json:"id"`
	Kind      ResourceKind `json:"kind"`
	Amount    int          `json:"amount"`
	SingleUse bool         `json:"single_use"`
}

// ParseCode derives the reward descriptor from the two informative leading
// characters of a code: U marks single-use, the second selects the kind.
func ParseCode(id string, amount int) Code {
	id = NormalizeInput(id)
	c := Code{ID: id, Kind: ResourceUnknown, Amount: amount}
	if len(id) > 0 && id[0] == SingleUseMarker {
		c.SingleUse = true
	}
	if len(id) > 1 {
		switch id[1] {
		case 'B':
			c.Kind = ResourceBattery
		case 'F':
			c.Kind = ResourceFilter
		case 'W':
			c.Kind = ResourceWater
		}
	}
	return c
}

func NormalizeInput(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

type ToolID string

const (
	ToolFlashlight ToolID = "flashlight"
	ToolGasMask    ToolID = "gas-mask"
	ToolRadio      ToolID = "radio"
	ToolGeiger     ToolID = "geiger"
)

var AllTools = []ToolID{ToolFlashlight, ToolGasMask, ToolRadio, ToolGeiger}

func ParseToolID(raw string) (ToolID, bool) {
	id := ToolID(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range AllTools {
		if t == id {
			return id, true
		}
	}
	return "", false
}

type ToolState string

const (
	ToolInactive ToolState = "inactive"
	ToolActive   ToolState = "active"
)

type ToolStatus struct {
	ID                ToolID    `json:"id"`
	State             ToolState `json:"state"`
	Depletable        bool      `json:"depletable"`
	RemainingSeconds  int       `json:"remaining_seconds,omitempty"`
	Dim               bool      `json:"dim,omitempty"`
	NeedsReplacement  bool      `json:"needs_replacement,omitempty"`
	ReplacementSource string    `json:"replacement_source,omitempty"`
}

type HistoryEntry struct {
	Code    string    `json:"code,omitempty"`
	Title   string    `json:"title,omitempty"`
	Content string    `json:"content,omitempty"`
	Audio   string    `json:"audio,omitempty"`
	At      time.Time `json:"t"`
}

func (e HistoryEntry) IsMessage() bool {
	return e.Code == "" && e.Title != ""
}

// RadioMessage is one entry of radio-messages.json; delay is in
// milliseconds.
type RadioMessage struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Text      string `json:"text,omitempty"`
	AudioRef  string `json:"audio,omitempty"`
	DelayMs   int    `json:"delay"`
	SingleUse bool   `json:"single_use"`
}

func (m RadioMessage) Delay() time.Duration {
	if m.DelayMs <= 0 {
		return 0
	}
	return time.Duration(m.DelayMs) * time.Millisecond
}

type GeigerReading struct {
	Value float64   `json:"value"`
	Level string    `json:"level"`
	At    time.Time `json:"t"`
}
