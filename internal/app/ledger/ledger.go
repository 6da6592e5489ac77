package ledger

import (
	"context"

	"metroterminal/internal/app/persist"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"
)

type storedResources struct {
	B int `json:"b"`
	F int `json:"f"`
	W int `json:"w"`
}

// Ledger holds the three resource counters of a session and writes them
// back on every mutation.
type Ledger struct {
	store    ports.KeyValueStore
	notifier ports.Notifier
	current  metro.Resources
}

func New(store ports.KeyValueStore, notifier ports.Notifier) *Ledger {
	return &Ledger{store: store, notifier: notifier}
}

func (l *Ledger) Load(ctx context.Context) {
	r := persist.Load(ctx, l.store, persist.KeyResources, storedResources{})
	l.current = metro.Resources{Battery: r.B, Filter: r.F, Water: r.W}
	// clamp hand-edited or corrupt negatives
	l.current.Add(metro.ResourceBattery, 0)
	l.current.Add(metro.ResourceFilter, 0)
	l.current.Add(metro.ResourceWater, 0)
}

func (l *Ledger) Get() metro.Resources {
	return l.current
}

func (l *Ledger) Add(ctx context.Context, kind metro.ResourceKind, amount int) error {
	next := l.current
	if !next.Add(kind, amount) {
		return metro.ErrUnknownKind
	}
	return l.commit(ctx, next)
}

func (l *Ledger) Consume(ctx context.Context, kind metro.ResourceKind, amount int) error {
	next := l.current
	if !next.Consume(kind, amount) {
		return metro.ErrInsufficientResource
	}
	return l.commit(ctx, next)
}

func (l *Ledger) Reset(ctx context.Context) error {
	return l.commit(ctx, metro.Resources{})
}

func (l *Ledger) commit(ctx context.Context, next metro.Resources) error {
	if err := persist.Save(ctx, l.store, persist.KeyResources, storedResources{B: next.Battery, F: next.Filter, W: next.Water}); err != nil {
		return err
	}
	l.current = next
	l.notifier.ResourcesChanged()
	return nil
}
