package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"metroterminal/internal/app/ports"
	"metroterminal/internal/config"
)

func TestOpenMemoryAndSQLite(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range []config.Config{
		{Store: config.StoreMemory, TerminalID: "t1"},
		{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "metro.db"), TerminalID: "t1"},
	} {
		b, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("%s: open: %v", cfg.Store, err)
		}
		err = b.TxManager.RunInTx(ctx, func(ctx context.Context) error {
			return b.Store.Set(ctx, "k", []byte(`1`))
		})
		if err != nil {
			t.Fatalf("%s: tx: %v", cfg.Store, err)
		}
		if v, err := b.Store.Get(ctx, "k"); err != nil || string(v) != "1" {
			t.Fatalf("%s: get: %q %v", cfg.Store, v, err)
		}
		if _, err := b.Store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", cfg.Store, err)
		}
		if err := b.Close(); err != nil {
			t.Fatalf("%s: close: %v", cfg.Store, err)
		}
	}
}

func TestOpenUnknownStore(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{Store: "redis"}); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
