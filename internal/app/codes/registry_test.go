package codes

import (
	"context"
	"errors"
	"testing"

	"metroterminal/internal/adapter/notify/feed"
	"metroterminal/internal/adapter/repo/memory"
	"metroterminal/internal/app/history"
	"metroterminal/internal/app/ledger"
	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"
)

type stubMetrics struct {
	outcomes []ports.RedeemOutcome
}

func (m *stubMetrics) RecordRedeem(outcome ports.RedeemOutcome) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *stubMetrics) RecordToolTransition(string, bool) {}

type stubCatalog struct {
	codes map[string]int
	err   error
}

func (c stubCatalog) Codes(context.Context) (map[string]int, error) {
	return c.codes, c.err
}

func (c stubCatalog) RadioMessages(context.Context) ([]metro.RadioMessage, error) {
	return nil, nil
}

type failingStore struct {
	*memory.Store
	failKey string
}

func (s failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == s.failKey {
		return errors.New("write refused")
	}
	return s.Store.Set(ctx, key, value)
}

func newRegistry(t *testing.T, kv ports.KeyValueStore, tx ports.TxManager) (*Registry, *feed.Feed, *stubMetrics) {
	t.Helper()
	ctx := context.Background()
	f := feed.New(0)
	m := &stubMetrics{}
	l := ledger.New(kv, f)
	l.Load(ctx)
	h := history.New(kv, f, nil)
	h.Load(ctx)
	r := &Registry{TxManager: tx, Ledger: l, History: h, Notifier: f, Metrics: m}
	r.SetCatalog(map[string]int{"UB12": 2, "rf07": 1, "UW01": 3, "UX99": 5})
	return r, f, m
}

func TestRedeemSingleUseOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	r, f, m := newRegistry(t, store, memory.NewTxManager(store))

	res, err := r.Redeem(ctx, "ub12")
	if err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if res.Code.Kind != metro.ResourceBattery || res.Code.Amount != 2 || !res.Code.SingleUse {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := r.Ledger.Get().Battery; got != 2 {
		t.Fatalf("expected battery 2, got %d", got)
	}
	if got := f.LastStatus(); got != msgkey.AddedBattery+" 2" {
		t.Fatalf("unexpected status: %q", got)
	}

	before := r.Ledger.Get()
	if _, err := r.Redeem(ctx, "UB12"); !errors.Is(err, metro.ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
	if r.Ledger.Get() != before {
		t.Fatalf("resources changed on second redeem: %+v", r.Ledger.Get())
	}
	if got := len(r.History.Entries()); got != 1 {
		t.Fatalf("expected single history entry, got %d", got)
	}
	if len(m.outcomes) != 2 || m.outcomes[0] != ports.OutcomeRedeemed || m.outcomes[1] != ports.OutcomeAlreadyUsed {
		t.Fatalf("unexpected metrics: %v", m.outcomes)
	}
}

func TestRedeemReusableCodeAppliesEveryTime(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	r, _, _ := newRegistry(t, store, memory.NewTxManager(store))

	for i := 0; i < 3; i++ {
		if _, err := r.Redeem(ctx, "RF07"); err != nil {
			t.Fatalf("redeem %d: %v", i, err)
		}
	}
	if got := r.Ledger.Get().Filter; got != 3 {
		t.Fatalf("expected filter 3, got %d", got)
	}
	if r.History.IsUsed("RF07") {
		t.Fatalf("reusable code must not be marked used")
	}
}

func TestRedeemUnknownCodeAndKind(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	r, _, _ := newRegistry(t, store, memory.NewTxManager(store))

	if r.Validate("NOPE") {
		t.Fatalf("expected NOPE to be invalid")
	}
	if _, err := r.Redeem(ctx, "NOPE"); !errors.Is(err, metro.ErrUnknownCode) {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
	if !r.Validate("ux99") {
		t.Fatalf("expected UX99 to be valid")
	}
	if _, err := r.Redeem(ctx, "UX99"); !errors.Is(err, metro.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if r.History.IsUsed("UX99") || len(r.History.Entries()) != 0 {
		t.Fatalf("unknown kind must have no side effect")
	}
}

func TestRejectReportsInvalidCode(t *testing.T) {
	store := memory.NewStore()
	r, f, m := newRegistry(t, store, memory.NewTxManager(store))

	if err := r.Reject(); !errors.Is(err, metro.ErrUnknownCode) {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
	if f.LastStatus() != msgkey.InvalidCode {
		t.Fatalf("unexpected status %q", f.LastStatus())
	}
	if len(m.outcomes) != 1 || m.outcomes[0] != ports.OutcomeUnknownCode {
		t.Fatalf("unexpected outcomes %v", m.outcomes)
	}
}

func TestRedeemRollsBackWhenHistoryWriteFails(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStore()
	kv := failingStore{Store: base, failKey: "metro_codes_history_v1"}
	r, _, m := newRegistry(t, kv, memory.NewTxManager(base))

	if _, err := r.Redeem(ctx, "UW01"); err == nil {
		t.Fatalf("expected redeem error")
	}
	if got := r.Ledger.Get().Water; got != 0 {
		t.Fatalf("expected water rolled back to 0, got %d", got)
	}
	if r.History.IsUsed("UW01") {
		t.Fatalf("code must stay unused after failed redeem")
	}
	if m.outcomes[len(m.outcomes)-1] != ports.OutcomeFailure {
		t.Fatalf("expected failure outcome, got %v", m.outcomes)
	}
}

func TestLoadReportsCatalogFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	r, f, _ := newRegistry(t, store, memory.NewTxManager(store))

	if err := r.Load(ctx, stubCatalog{err: errors.New("missing file")}); err == nil {
		t.Fatalf("expected load error")
	}
	if got := f.LastStatus(); got != msgkey.CatalogFailed {
		t.Fatalf("unexpected status %q", got)
	}
	if err := r.Load(ctx, stubCatalog{codes: map[string]int{"UB5": 1}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !r.Validate("UB5") || r.Validate("UB12") {
		t.Fatalf("catalog not replaced")
	}
}
