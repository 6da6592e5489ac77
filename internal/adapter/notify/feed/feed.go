// Package feed buffers presentation notifications so that a polling client
// can replay them by cursor. It also plays the role of the audio sink: the
// client performs playback, the feed only tracks the single current stream.
package feed

import (
	"sync"
	"time"

	"metroterminal/internal/domain/metro"
)

type Kind string

const (
	KindStatus      Kind = "status"
	KindHistory     Kind = "history"
	KindResources   Kind = "resources"
	KindTool        Kind = "tool"
	KindReplacement Kind = "replacement"
	KindGeigerTick  Kind = "geiger_tick"
	KindAudioPlay   Kind = "audio_play"
	KindAudioStop   Kind = "audio_stop"
)

const DefaultLimit = 256

type Event struct {
	Seq     uint64               `json:"seq"`
	Kind    Kind                 `json:"kind"`
	Text    string               `json:"text,omitempty"`
	Tool    metro.ToolID         `json:"tool,omitempty"`
	State   metro.ToolState      `json:"state,omitempty"`
	Needed  bool                 `json:"needed,omitempty"`
	Reading *metro.GeigerReading `json:"reading,omitempty"`
	Audio   string               `json:"audio,omitempty"`
	At      time.Time            `json:"t"`
}

type Feed struct {
	mu         sync.Mutex
	limit      int
	seq        uint64
	events     []Event
	lastStatus string
	nowPlaying string
	Now        func() time.Time
}

func New(limit int) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Feed{limit: limit, Now: time.Now}
}

func (f *Feed) Status(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastStatus = text
	f.push(Event{Kind: KindStatus, Text: text})
}

func (f *Feed) HistoryChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.push(Event{Kind: KindHistory})
}

func (f *Feed) ResourcesChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.push(Event{Kind: KindResources})
}

func (f *Feed) ToolChanged(tool metro.ToolID, state metro.ToolState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.push(Event{Kind: KindTool, Tool: tool, State: state})
}

func (f *Feed) ReplacementNeeded(tool metro.ToolID, needed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.push(Event{Kind: KindReplacement, Tool: tool, Needed: needed})
}

func (f *Feed) GeigerTick(reading metro.GeigerReading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := reading
	f.push(Event{Kind: KindGeigerTick, Reading: &r})
}

// Play starts a stream, unconditionally stopping the current one.
func (f *Feed) Play(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nowPlaying != "" {
		f.push(Event{Kind: KindAudioStop, Audio: f.nowPlaying})
	}
	f.nowPlaying = ref
	f.push(Event{Kind: KindAudioPlay, Audio: ref})
	return nil
}

func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nowPlaying == "" {
		return
	}
	f.push(Event{Kind: KindAudioStop, Audio: f.nowPlaying})
	f.nowPlaying = ""
}

func (f *Feed) LastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastStatus
}

func (f *Feed) NowPlaying() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nowPlaying
}

func (f *Feed) Cursor() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

// Since returns buffered events with Seq greater than after, oldest first.
func (f *Feed) Since(after uint64) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range f.events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

func (f *Feed) Filter(kind Kind) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range f.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (f *Feed) push(e Event) {
	f.seq++
	e.Seq = f.seq
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	e.At = now()
	f.events = append(f.events, e)
	if over := len(f.events) - f.limit; over > 0 {
		f.events = append([]Event(nil), f.events[over:]...)
	}
}
