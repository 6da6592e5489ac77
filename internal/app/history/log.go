package history

import (
	"context"
	"sort"
	"time"

	"metroterminal/internal/app/persist"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"

	"github.com/zyedidia/generic/mapset"
)

// Log is the append-only player-visible history plus the set of redeemed
// single-use codes.
type Log struct {
	store    ports.KeyValueStore
	notifier ports.Notifier
	now      func() time.Time
	entries  []metro.HistoryEntry
	used     mapset.Set[string]
}

func New(store ports.KeyValueStore, notifier ports.Notifier, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{store: store, notifier: notifier, now: now, used: mapset.New[string]()}
}

func (l *Log) Load(ctx context.Context) {
	l.entries = persist.Load(ctx, l.store, persist.KeyHistory, []metro.HistoryEntry{})
	l.used = mapset.New[string]()
	for _, code := range persist.Load(ctx, l.store, persist.KeyUsedCodes, []string{}) {
		l.used.Put(code)
	}
}

// Entries lists newest first.
func (l *Log) Entries() []metro.HistoryEntry {
	out := make([]metro.HistoryEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Messages lists received transmissions, newest first.
func (l *Log) Messages() []metro.HistoryEntry {
	out := make([]metro.HistoryEntry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].IsMessage() {
			out = append(out, l.entries[i])
		}
	}
	return out
}

func (l *Log) AppendCode(ctx context.Context, code string) error {
	return l.append(ctx, metro.HistoryEntry{Code: code, At: l.now()})
}

func (l *Log) AppendMessage(ctx context.Context, title, content, audio string) error {
	return l.append(ctx, metro.HistoryEntry{Title: title, Content: content, Audio: audio, At: l.now()})
}

func (l *Log) IsUsed(code string) bool {
	return l.used.Has(code)
}

func (l *Log) MarkUsed(ctx context.Context, code string) error {
	if l.used.Has(code) {
		return nil
	}
	l.used.Put(code)
	if err := persist.Save(ctx, l.store, persist.KeyUsedCodes, l.usedList()); err != nil {
		l.used.Remove(code)
		return err
	}
	return nil
}

func (l *Log) Reset(ctx context.Context) error {
	l.entries = nil
	l.used = mapset.New[string]()
	if err := persist.Save(ctx, l.store, persist.KeyHistory, []metro.HistoryEntry{}); err != nil {
		return err
	}
	if err := persist.Save(ctx, l.store, persist.KeyUsedCodes, []string{}); err != nil {
		return err
	}
	l.notifier.HistoryChanged()
	return nil
}

func (l *Log) append(ctx context.Context, e metro.HistoryEntry) error {
	next := append(append([]metro.HistoryEntry(nil), l.entries...), e)
	if err := persist.Save(ctx, l.store, persist.KeyHistory, next); err != nil {
		return err
	}
	l.entries = next
	l.notifier.HistoryChanged()
	return nil
}

func (l *Log) usedList() []string {
	out := make([]string, 0, l.used.Size())
	l.used.Each(func(code string) {
		out = append(out, code)
	})
	sort.Strings(out)
	return out
}
