package codes

import (
	"context"
	"fmt"

	"metroterminal/internal/app/history"
	"metroterminal/internal/app/ledger"
	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

type Result struct {
	Code metro.Code `json:"code"`
}

type Registry struct {
	TxManager ports.TxManager
	Ledger    *ledger.Ledger
	History   *history.Log
	Notifier  ports.Notifier
	Text      ports.Translator
	Metrics   ports.TerminalMetrics

	catalog map[string]int
}

func (r *Registry) Load(ctx context.Context, provider ports.CatalogProvider) error {
	codes, err := provider.Codes(ctx)
	if err != nil {
		r.Notifier.Status(r.text(msgkey.CatalogFailed))
		return fmt.Errorf("load code catalog: %w", err)
	}
	r.SetCatalog(codes)
	hlog.CtxInfof(ctx, "codes: catalog loaded with %d codes", len(codes))
	r.Notifier.Status(r.text(msgkey.CatalogLoaded))
	return nil
}

func (r *Registry) SetCatalog(codes map[string]int) {
	r.catalog = make(map[string]int, len(codes))
	for id, amount := range codes {
		r.catalog[metro.NormalizeInput(id)] = amount
	}
}

func (r *Registry) Validate(code string) bool {
	_, ok := r.catalog[metro.NormalizeInput(code)]
	return ok
}

// Reject reports an input that is not in the catalog.
func (r *Registry) Reject() error {
	r.record(ports.OutcomeUnknownCode)
	r.Notifier.Status(r.text(msgkey.InvalidCode))
	return metro.ErrUnknownCode
}

// Redeem applies the reward of a catalog code. AlreadyUsed and UnknownKind
// leave every counter and the history untouched.
func (r *Registry) Redeem(ctx context.Context, raw string) (Result, error) {
	id := metro.NormalizeInput(raw)
	amount, ok := r.catalog[id]
	if !ok {
		return Result{}, r.Reject()
	}
	code := metro.ParseCode(id, amount)

	if code.SingleUse && r.History.IsUsed(code.ID) {
		r.record(ports.OutcomeAlreadyUsed)
		r.Notifier.Status(r.text(msgkey.CodeAlreadyUsed))
		return Result{}, metro.ErrAlreadyUsed
	}
	if code.Kind == metro.ResourceUnknown {
		r.record(ports.OutcomeUnknownKind)
		r.Notifier.Status(r.text(msgkey.UnknownCodeKind))
		return Result{}, metro.ErrUnknownKind
	}

	err := r.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := r.Ledger.Add(txCtx, code.Kind, code.Amount); err != nil {
			return err
		}
		if err := r.History.AppendCode(txCtx, code.ID); err != nil {
			return err
		}
		if code.SingleUse {
			return r.History.MarkUsed(txCtx, code.ID)
		}
		return nil
	})
	if err != nil {
		hlog.CtxErrorf(ctx, "codes: redeem %s: %v", code.ID, err)
		r.Ledger.Load(ctx)
		r.History.Load(ctx)
		r.record(ports.OutcomeFailure)
		return Result{}, fmt.Errorf("redeem %s: %w", code.ID, err)
	}

	r.record(ports.OutcomeRedeemed)
	r.Notifier.Status(r.text(addedKey(code.Kind), code.Amount))
	return Result{Code: code}, nil
}

func addedKey(kind metro.ResourceKind) string {
	switch kind {
	case metro.ResourceBattery:
		return msgkey.AddedBattery
	case metro.ResourceFilter:
		return msgkey.AddedFilter
	default:
		return msgkey.AddedWater
	}
}

func (r *Registry) record(outcome ports.RedeemOutcome) {
	if r.Metrics != nil {
		r.Metrics.RecordRedeem(outcome)
	}
}

func (r *Registry) text(key string, args ...any) string {
	if r.Text == nil {
		return msgkey.Plain.Text(key, args...)
	}
	return r.Text.Text(key, args...)
}
