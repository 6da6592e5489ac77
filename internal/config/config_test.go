package config

import (
	"errors"
	"testing"
	"time"

	"metroterminal/internal/domain/metro"
	"metroterminal/internal/domain/zone"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Store != StoreSQLite || cfg.Lang != "cs" || cfg.CatalogRoot != "./data" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	sc := cfg.Session()
	if sc.ResetCode != "AZ4658" || !sc.Radio.BlockReplay {
		t.Fatalf("unexpected session defaults: %+v", sc)
	}
	if len(sc.Tools.OverlayGroup) != 2 || sc.Tools.OverlayGroup[0] != metro.ToolRadio || sc.Tools.OverlayGroup[1] != metro.ToolGeiger {
		t.Fatalf("unexpected overlay group: %v", sc.Tools.OverlayGroup)
	}
	if sc.Geiger.Policy != zone.AccruePrevious || sc.Geiger.MaxAge != 20*time.Second || sc.Geiger.Timeout != 15*time.Second {
		t.Fatalf("unexpected geiger config: %+v", sc.Geiger)
	}
	if sc.Geiger.Epicenter != zone.DefaultEpicenter {
		t.Fatalf("unexpected epicenter: %+v", sc.Geiger.Epicenter)
	}
	if cfg.HLogLevel() != hlog.LevelInfo {
		t.Fatalf("expected info log level")
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"METRO_STORE":              "Memory",
		"METRO_RESET_CODE":         " zz0001 ",
		"METRO_RADIO_BLOCK_REPLAY": "false",
		"METRO_EXPOSURE_ACCRUAL":   "current",
		"METRO_OVERLAY_TOOLS":      "radio,geiger,flashlight",
		"METRO_GEO_MAX_AGE":        "5s",
		"METRO_LOG_LEVEL":          "DEBUG",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sc := cfg.Session()
	if cfg.Store != StoreMemory || sc.ResetCode != "ZZ0001" || sc.Radio.BlockReplay {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if sc.Geiger.Policy != zone.AccrueCurrent || sc.Geiger.MaxAge != 5*time.Second {
		t.Fatalf("unexpected geiger overrides: %+v", sc.Geiger)
	}
	if len(sc.Tools.OverlayGroup) != 3 {
		t.Fatalf("expected three overlay tools, got %v", sc.Tools.OverlayGroup)
	}
	if cfg.HLogLevel() != hlog.LevelDebug {
		t.Fatalf("expected debug log level")
	}
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	cases := []map[string]string{
		{"METRO_STORE": "redis"},
		{"METRO_STORE": "postgres"},
		{"METRO_EXPOSURE_ACCRUAL": "both"},
		{"METRO_OVERLAY_TOOLS": "radio,lantern"},
		{"METRO_RESET_CODE": "   "},
		{"METRO_LOG_LEVEL": "loud"},
	}
	for _, vars := range cases {
		if _, err := LoadFrom(vars); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%v: expected ErrInvalid, got %v", vars, err)
		}
	}
	if _, err := LoadFrom(map[string]string{"METRO_GEO_TIMEOUT": "soon"}); err == nil {
		t.Fatalf("expected parse error for bad duration")
	}
}
