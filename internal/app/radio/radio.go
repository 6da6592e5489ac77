package radio

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"metroterminal/internal/app/history"
	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/persist"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/zyedidia/generic/mapset"
)

func IsRadioCode(code string) bool {
	return strings.HasPrefix(metro.NormalizeInput(code), metro.RadioCodePrefix)
}

type Config struct {
	// BlockReplay refuses a single-use transmission that was already
	// captured. With it off every match is delivered again.
	BlockReplay bool
}

// UseCase matches radio codes against the transmission catalog and
// delivers them after their delay.
type UseCase struct {
	Store     ports.KeyValueStore
	History   *history.Log
	Scheduler ports.Scheduler
	Notifier  ports.Notifier
	Audio     ports.AudioPlayer
	Text      ports.Translator
	Metrics   ports.TerminalMetrics
	Config    Config

	messages map[string]metro.RadioMessage
	captured *mapset.Set[string]
	pending  map[ports.TimerID]string
	open     bool
}

func (u *UseCase) Load(ctx context.Context, provider ports.CatalogProvider) error {
	captured := mapset.New[string]()
	for _, code := range persist.Load(ctx, u.Store, persist.KeyUsedRadio, []string{}) {
		captured.Put(code)
	}
	u.captured = &captured
	msgs, err := provider.RadioMessages(ctx)
	if err != nil {
		u.Notifier.Status(u.text(msgkey.CatalogFailed))
		return fmt.Errorf("load radio catalog: %w", err)
	}
	u.SetMessages(msgs)
	hlog.CtxInfof(ctx, "radio: %d transmissions loaded", len(msgs))
	return nil
}

func (u *UseCase) SetMessages(msgs []metro.RadioMessage) {
	u.messages = make(map[string]metro.RadioMessage, len(msgs))
	for _, m := range msgs {
		m.Code = metro.NormalizeInput(m.Code)
		u.messages[m.Code] = m
	}
}

// Process reports whether the code matched a transmission. A match only
// schedules the delivery; the history entry appears once the delay elapses.
func (u *UseCase) Process(ctx context.Context, raw string) (bool, error) {
	code := metro.NormalizeInput(raw)
	msg, ok := u.messages[code]
	if !ok {
		u.record(ports.OutcomeUnknownCode)
		u.Notifier.Status(u.text(msgkey.RadioUnknown))
		return false, metro.ErrUnknownCode
	}
	if u.Config.BlockReplay && msg.SingleUse && (u.capturedSet().Has(code) || u.isPending(code)) {
		u.record(ports.OutcomeAlreadyUsed)
		u.Notifier.Status(u.text(msgkey.RadioAlreadyHeard))
		return false, metro.ErrAlreadyUsed
	}

	u.Notifier.Status(u.text(msgkey.RadioReceiving, code))
	if u.pending == nil {
		u.pending = map[ports.TimerID]string{}
	}
	var id ports.TimerID
	id = u.Scheduler.After(msg.Delay(), func() {
		delete(u.pending, id)
		u.deliver(context.Background(), msg)
	})
	u.pending[id] = code
	u.record(ports.OutcomeRadio)
	return true, nil
}

func (u *UseCase) isPending(code string) bool {
	for _, c := range u.pending {
		if c == code {
			return true
		}
	}
	return false
}

func (u *UseCase) deliver(ctx context.Context, msg metro.RadioMessage) {
	content := msg.Text
	if content != "" {
		u.Notifier.Status(u.text(msgkey.RadioReceived))
	}
	if msg.AudioRef != "" {
		if content == "" {
			content = u.text(msgkey.RadioIncomingAudio)
		}
		u.play(ctx, msg.AudioRef)
	}
	if err := u.History.AppendMessage(ctx, msg.Title, content, msg.AudioRef); err != nil {
		hlog.CtxErrorf(ctx, "radio: store transmission %s: %v", msg.Code, err)
		return
	}
	if captured := u.capturedSet(); msg.SingleUse && !captured.Has(msg.Code) {
		captured.Put(msg.Code)
		persist.SaveLogged(ctx, u.Store, persist.KeyUsedRadio, u.capturedList())
	}
}

// Replay plays the audio of the n-th received transmission, newest first.
func (u *UseCase) Replay(ctx context.Context, n int) error {
	msgs := u.History.Messages()
	if n < 0 || n >= len(msgs) {
		return ports.ErrNotFound
	}
	if msgs[n].Audio == "" {
		return metro.ErrNoAudio
	}
	u.play(ctx, msgs[n].Audio)
	return nil
}

func (u *UseCase) play(ctx context.Context, ref string) {
	if u.Audio == nil {
		return
	}
	// Play preempts whatever stream is running.
	if err := u.Audio.Play(ref); err != nil {
		hlog.CtxWarnf(ctx, "radio: play %s: %v", ref, err)
		u.Notifier.Status(u.text(msgkey.AudioUnavailable))
	}
}

func (u *UseCase) Messages() []metro.HistoryEntry {
	return u.History.Messages()
}

func (u *UseCase) Pending() int {
	return len(u.pending)
}

// CancelPending drops scheduled deliveries and stops playback.
func (u *UseCase) CancelPending() {
	for id := range u.pending {
		u.Scheduler.Cancel(id)
	}
	u.pending = nil
	if u.Audio != nil {
		u.Audio.Stop()
	}
}

// Reset forgets captured transmissions; the store itself is cleared by the
// caller.
func (u *UseCase) Reset() {
	u.CancelPending()
	u.captured = nil
}

func (u *UseCase) capturedSet() mapset.Set[string] {
	if u.captured == nil {
		s := mapset.New[string]()
		u.captured = &s
	}
	return *u.captured
}

func (u *UseCase) capturedList() []string {
	captured := u.capturedSet()
	out := make([]string, 0, captured.Size())
	captured.Each(func(code string) {
		out = append(out, code)
	})
	sort.Strings(out)
	return out
}

func (u *UseCase) record(outcome ports.RedeemOutcome) {
	if u.Metrics != nil {
		u.Metrics.RecordRedeem(outcome)
	}
}

func (u *UseCase) text(key string, args ...any) string {
	if u.Text == nil {
		return msgkey.Plain.Text(key, args...)
	}
	return u.Text.Text(key, args...)
}

// Start opens the transmission overlay; the client refreshes the listing
// on the history notification.
func (u *UseCase) Start(context.Context) {
	u.open = true
	u.Notifier.HistoryChanged()
}

func (u *UseCase) Stop(context.Context) {
	u.open = false
}

func (u *UseCase) Open() bool {
	return u.open
}
