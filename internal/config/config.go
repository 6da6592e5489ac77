package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"metroterminal/internal/app/geiger"
	"metroterminal/internal/app/radio"
	"metroterminal/internal/app/session"
	"metroterminal/internal/app/tools"
	"metroterminal/internal/domain/metro"
	"metroterminal/internal/domain/zone"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Addr        string `env:"METRO_ADDR"         envDefault:":8080"`
	Store       string `env:"METRO_STORE"        envDefault:"sqlite"`
	DBDSN       string `env:"METRO_DB_DSN"`
	SQLitePath  string `env:"METRO_SQLITE_PATH"  envDefault:"metro.db"`
	TerminalID  string `env:"METRO_TERMINAL_ID"  envDefault:"default"`
	CatalogRoot string `env:"METRO_CATALOG_ROOT" envDefault:"./data"`
	Lang        string `env:"METRO_LANG"         envDefault:"cs"`
	LogLevel    string `env:"METRO_LOG_LEVEL"    envDefault:"info"`
	FeedLimit   int    `env:"METRO_FEED_LIMIT"   envDefault:"256"`
	CORSOrigin  string `env:"METRO_CORS_ORIGIN"`

	ResetCode        string        `env:"METRO_RESET_CODE"         envDefault:"AZ4658"`
	RadioBlockReplay bool          `env:"METRO_RADIO_BLOCK_REPLAY" envDefault:"true"`
	ExposureAccrual  string        `env:"METRO_EXPOSURE_ACCRUAL"   envDefault:"previous"`
	OverlayTools     []string      `env:"METRO_OVERLAY_TOOLS"      envDefault:"radio,geiger" envSeparator:","`
	GeoMaxAge        time.Duration `env:"METRO_GEO_MAX_AGE"        envDefault:"20s"`
	GeoTimeout       time.Duration `env:"METRO_GEO_TIMEOUT"        envDefault:"15s"`
	EpicenterLat     float64       `env:"METRO_EPICENTER_LAT"      envDefault:"49.2246994"`
	EpicenterLon     float64       `env:"METRO_EPICENTER_LON"      envDefault:"15.6595850"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.ResetCode = metro.NormalizeInput(cfg.ResetCode)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("METRO_SQLITE_PATH is required for the sqlite store: %w", ErrInvalid)
		}
	case StorePostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("METRO_DB_DSN is required for the postgres store: %w", ErrInvalid)
		}
	default:
		return fmt.Errorf("unknown store %q: %w", c.Store, ErrInvalid)
	}
	if c.ResetCode == "" {
		return fmt.Errorf("reset code must not be empty: %w", ErrInvalid)
	}
	if strings.TrimSpace(c.TerminalID) == "" {
		return fmt.Errorf("terminal id must not be empty: %w", ErrInvalid)
	}
	if c.GeoMaxAge < 0 || c.GeoTimeout < 0 {
		return fmt.Errorf("geolocation durations must not be negative: %w", ErrInvalid)
	}
	if _, err := zone.ParseAccrualPolicy(c.ExposureAccrual); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalid)
	}
	if _, err := c.overlayGroup(); err != nil {
		return err
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("unknown log level %q: %w", c.LogLevel, ErrInvalid)
	}
	return nil
}

// Session builds the session configuration. Call it on a validated Config.
func (c Config) Session() session.Config {
	policy, _ := zone.ParseAccrualPolicy(c.ExposureAccrual)
	group, _ := c.overlayGroup()

	g := geiger.DefaultConfig()
	g.Policy = policy
	g.MaxAge = c.GeoMaxAge
	g.Timeout = c.GeoTimeout
	g.Epicenter = zone.Point{Latitude: c.EpicenterLat, Longitude: c.EpicenterLon}

	return session.Config{
		ResetCode: c.ResetCode,
		Radio:     radio.Config{BlockReplay: c.RadioBlockReplay},
		Tools:     tools.Config{OverlayGroup: group},
		Geiger:    g,
	}
}

func (c Config) overlayGroup() ([]metro.ToolID, error) {
	out := make([]metro.ToolID, 0, len(c.OverlayTools))
	for _, raw := range c.OverlayTools {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, ok := metro.ParseToolID(raw)
		if !ok {
			return nil, fmt.Errorf("overlay tool %q: %w", raw, ErrInvalid)
		}
		out = append(out, id)
	}
	return out, nil
}

var levels = map[string]hlog.Level{
	"trace": hlog.LevelTrace,
	"debug": hlog.LevelDebug,
	"info":  hlog.LevelInfo,
	"warn":  hlog.LevelWarn,
	"error": hlog.LevelError,
}

func (c Config) HLogLevel() hlog.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return hlog.LevelInfo
}
