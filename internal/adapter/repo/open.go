// Package repo picks the key-value backend a terminal session persists to.
package repo

import (
	"context"
	"fmt"

	gormrepo "metroterminal/internal/adapter/repo/gorm"
	"metroterminal/internal/adapter/repo/memory"
	"metroterminal/internal/adapter/repo/sqlite"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/config"
)

type Backend struct {
	Store     ports.KeyValueStore
	TxManager ports.TxManager
	Close     func() error
}

func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		return Backend{Store: store, TxManager: memory.NewTxManager(store), Close: func() error { return nil }}, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, cfg.TerminalID)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Store: store, TxManager: store, Close: store.Close}, nil
	case config.StorePostgres:
		gdb, err := gormrepo.OpenPostgres(cfg.DBDSN)
		if err != nil {
			return Backend{}, err
		}
		if err := gormrepo.Migrate(ctx, gdb); err != nil {
			return Backend{}, fmt.Errorf("migrate postgres: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return Backend{}, fmt.Errorf("postgres handle: %w", err)
		}
		return Backend{
			Store:     gormrepo.NewKVStore(gdb, cfg.TerminalID),
			TxManager: gormrepo.NewTxManager(gdb),
			Close:     sqlDB.Close,
		}, nil
	default:
		return Backend{}, fmt.Errorf("unknown store %q: %w", cfg.Store, config.ErrInvalid)
	}
}
