package gormrepo

import (
	"context"
	"fmt"

	"metroterminal/db"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenPostgres(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return gdb, nil
}

// Migrate applies the embedded Postgres schema.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	return ApplyMigrations(ctx, gdb, db.Postgres, db.PostgresDir)
}
