package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"metroterminal/internal/app/ports"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const (
	KeyResources = "metro_resources_v1"
	KeyHistory   = "metro_codes_history_v1"
	KeyUsedCodes = "metro_used_codes_v1"
	KeyUsedRadio = "metro_used_radio_v1"
	KeyExposure  = "metro_exposure_times"
)

// Load decodes the JSON value stored under key. A missing key, a store
// error or a corrupt document all yield def.
func Load[T any](ctx context.Context, kv ports.KeyValueStore, key string, def T) T {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			hlog.CtxWarnf(ctx, "persist: read %s: %v", key, err)
		}
		return def
	}
	if len(raw) == 0 || string(raw) == "null" {
		return def
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		hlog.CtxWarnf(ctx, "persist: corrupt value under %s: %v", key, err)
		return def
	}
	return out
}

func Save(ctx context.Context, kv ports.KeyValueStore, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SaveLogged writes like Save but only logs failures; callers use it where
// the in-memory transition must go on regardless.
func SaveLogged(ctx context.Context, kv ports.KeyValueStore, key string, value any) {
	if err := Save(ctx, kv, key, value); err != nil {
		hlog.CtxErrorf(ctx, "persist: %v", err)
	}
}
