package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"metroterminal/internal/adapter/notify/feed"
	"metroterminal/internal/adapter/repo/memory"
	"metroterminal/internal/adapter/scheduler/manual"
	"metroterminal/internal/app/geiger"
	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"
	"metroterminal/internal/domain/zone"
)

type stubCatalog struct{}

func (stubCatalog) Codes(context.Context) (map[string]int, error) {
	return map[string]int{"UB01": 3, "RF02": 1, "UW03": 2}, nil
}

func (stubCatalog) RadioMessages(context.Context) ([]metro.RadioMessage, error) {
	return []metro.RadioMessage{
		{Code: "CO1", Title: "Depot", Text: "Stay below", DelayMs: 2000, SingleUse: true},
	}, nil
}

type fixture struct {
	session *Session
	store   *memory.Store
	feed    *feed.Feed
	sched   *manual.Scheduler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	f := feed.New(0)
	sched := manual.New(time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC))
	s := New(Deps{
		Store:     store,
		TxManager: memory.NewTxManager(store),
		Catalog:   stubCatalog{},
		Scheduler: sched,
		Notifier:  f,
		Audio:     f,
	}, DefaultConfig())
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return fixture{session: s, store: store, feed: f, sched: sched}
}

func TestSubmitRoutesInput(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	out, err := fx.session.Submit(ctx, "   ")
	if err != nil || out.Consumed || out.Status != msgkey.EnterCode {
		t.Fatalf("unexpected empty outcome %+v err=%v", out, err)
	}

	out, err = fx.session.Submit(ctx, " ub01 ")
	if err != nil || !out.Consumed || out.Status != msgkey.AddedBattery+" 3" {
		t.Fatalf("unexpected redeem outcome %+v err=%v", out, err)
	}

	out, err = fx.session.Submit(ctx, "UB01")
	if !errors.Is(err, metro.ErrAlreadyUsed) || !out.Consumed {
		t.Fatalf("expected consumed already-used outcome, got %+v err=%v", out, err)
	}

	out, err = fx.session.Submit(ctx, "XX11")
	if !errors.Is(err, metro.ErrUnknownCode) || !out.Consumed || out.Status != msgkey.InvalidCode {
		t.Fatalf("unexpected invalid outcome %+v err=%v", out, err)
	}

	out, _ = fx.session.Submit(ctx, "CO404")
	if out.Consumed || out.Status != msgkey.RadioUnknown {
		t.Fatalf("failed radio match must keep the input, got %+v", out)
	}

	out, err = fx.session.Submit(ctx, "co1")
	if err != nil || !out.Consumed {
		t.Fatalf("unexpected radio outcome %+v err=%v", out, err)
	}
	fx.sched.Advance(2 * time.Second)
	if msgs := fx.session.Messages(); len(msgs) != 1 || msgs[0].Title != "Depot" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	snap := fx.session.Snapshot()
	if snap.Resources.Battery != 3 || len(snap.History) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

type countingMetrics struct {
	redeems []ports.RedeemOutcome
}

func (m *countingMetrics) RecordRedeem(outcome ports.RedeemOutcome) {
	m.redeems = append(m.redeems, outcome)
}

func (m *countingMetrics) RecordToolTransition(string, bool) {}

func TestSubmitValidatesBeforeRedeem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	f := feed.New(0)
	m := &countingMetrics{}
	s := New(Deps{
		Store:     store,
		TxManager: memory.NewTxManager(store),
		Catalog:   stubCatalog{},
		Scheduler: manual.New(time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)),
		Notifier:  f,
		Audio:     f,
		Metrics:   m,
	}, DefaultConfig())
	if err := s.Boot(ctx); err != nil {
		t.Fatalf("boot: %v", err)
	}

	out, err := s.Submit(ctx, "ub99")
	if !errors.Is(err, metro.ErrUnknownCode) || !out.Consumed || out.Status != msgkey.InvalidCode {
		t.Fatalf("unexpected invalid outcome %+v err=%v", out, err)
	}
	if len(m.redeems) != 1 || m.redeems[0] != ports.OutcomeUnknownCode {
		t.Fatalf("expected one unknown-code outcome, got %v", m.redeems)
	}
	snap := s.Snapshot()
	if snap.Resources.Battery != 0 || len(snap.History) != 0 {
		t.Fatalf("invalid code must leave the state untouched, got %+v", snap)
	}
}

func TestToggleRejectsUnknownTool(t *testing.T) {
	fx := newFixture(t)
	if err := fx.session.Toggle(context.Background(), "torch"); !errors.Is(err, metro.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRadioBlockedWhileGeigerOpen(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	if err := fx.session.Toggle(ctx, "geiger"); err != nil {
		t.Fatalf("toggle geiger: %v", err)
	}
	if err := fx.session.Toggle(ctx, "radio"); !errors.Is(err, metro.ErrOverlayBusy) {
		t.Fatalf("expected ErrOverlayBusy, got %v", err)
	}
	snap := fx.session.Snapshot()
	if snap.RadioOpen || !snap.Geiger.Active {
		t.Fatalf("unexpected overlay state %+v", snap)
	}
}

func TestGasMaskStopsExposure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	fx.session.Sample(ctx, 400)
	if err := fx.session.Toggle(ctx, "gas-mask"); err != nil {
		t.Fatalf("toggle gas mask: %v", err)
	}
	fx.sched.Advance(10 * time.Second)
	fx.session.Sample(ctx, 400)
	if got := fx.session.Snapshot().Exposure["High"]; got != 0 {
		t.Fatalf("expected no exposure under the mask, got %d", got)
	}
	if err := fx.session.Toggle(ctx, "gas-mask"); err != nil {
		t.Fatalf("toggle gas mask off: %v", err)
	}
	fx.sched.Advance(2 * time.Second)
	fx.session.Sample(ctx, 400)
	if got := fx.session.Snapshot().Exposure["High"]; got != 2000 {
		t.Fatalf("expected 2000ms exposure, got %d", got)
	}
}

func TestPositionStaleFix(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	_, err := fx.session.Position(ctx, geiger.Fix{
		Latitude:  zone.DefaultEpicenter.Latitude,
		Longitude: zone.DefaultEpicenter.Longitude,
		At:        fx.sched.Now().Add(-time.Hour),
	})
	if !errors.Is(err, metro.ErrSensorFailure) {
		t.Fatalf("expected ErrSensorFailure, got %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	fx.session.Submit(ctx, "UB01")
	fx.session.Submit(ctx, "UW03")
	fx.session.Toggle(ctx, "flashlight")
	fx.session.Toggle(ctx, "geiger")
	fx.session.Sample(ctx, 400)
	fx.session.Submit(ctx, "CO1")
	fx.sched.Advance(time.Second)

	out, err := fx.session.Submit(ctx, "az4658")
	if err != nil || !out.Consumed || out.Status != msgkey.StorageCleared {
		t.Fatalf("unexpected reset outcome %+v err=%v", out, err)
	}

	keys, err := fx.store.Keys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty store, got %v err=%v", keys, err)
	}
	if fx.sched.Pending() != 0 {
		t.Fatalf("expected all timers cancelled, got %d", fx.sched.Pending())
	}
	snap := fx.session.Snapshot()
	if snap.Resources != (metro.Resources{}) || len(snap.History) != 0 {
		t.Fatalf("expected zeroed state, got %+v", snap)
	}
	for _, st := range snap.Tools {
		if st.State != metro.ToolInactive {
			t.Fatalf("tool %s still active", st.ID)
		}
	}

	fx.sched.Advance(5 * time.Second)
	if len(fx.session.Messages()) != 0 {
		t.Fatalf("pending radio delivery survived reset")
	}
	if _, err := fx.session.Submit(ctx, "UB01"); err != nil {
		t.Fatalf("single-use code should be redeemable after reset: %v", err)
	}
}
