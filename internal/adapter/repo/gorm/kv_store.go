package gormrepo

import (
	"context"
	"errors"
	"time"

	"metroterminal/internal/adapter/repo/gorm/model"
	"metroterminal/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVStore keeps the documents of one terminal in metro_kv_entries.
type KVStore struct {
	db         *gorm.DB
	terminalID string
}

func NewKVStore(db *gorm.DB, terminalID string) KVStore {
	return KVStore{db: db, terminalID: terminalID}
}

func (s KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var m model.MetroKvEntry
	err := dbFromCtx(ctx, s.db).
		Where("terminal_id = ? AND key = ?", s.terminalID, key).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return m.Value, nil
}

func (s KVStore) Set(ctx context.Context, key string, value []byte) error {
	m := model.MetroKvEntry{
		TerminalID: s.terminalID,
		Key:        key,
		Value:      value,
		UpdatedAt:  time.Now(),
	}
	return dbFromCtx(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "terminal_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
}

func (s KVStore) Delete(ctx context.Context, key string) error {
	return dbFromCtx(ctx, s.db).
		Where("terminal_id = ? AND key = ?", s.terminalID, key).
		Delete(&model.MetroKvEntry{}).Error
}

func (s KVStore) Clear(ctx context.Context) error {
	return dbFromCtx(ctx, s.db).
		Where("terminal_id = ?", s.terminalID).
		Delete(&model.MetroKvEntry{}).Error
}

func (s KVStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := dbFromCtx(ctx, s.db).
		Model(&model.MetroKvEntry{}).
		Where("terminal_id = ?", s.terminalID).
		Order("key ASC").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
