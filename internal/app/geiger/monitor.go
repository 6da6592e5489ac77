package geiger

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/persist"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"
	"metroterminal/internal/domain/zone"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const (
	DefaultMaxAge  = 20 * time.Second
	DefaultTimeout = 15 * time.Second
)

type Config struct {
	Table     zone.Table
	Epicenter zone.Point
	Policy    zone.AccrualPolicy
	// MaxAge rejects position fixes older than this; zero accepts any.
	MaxAge time.Duration
	// Timeout is how long Start waits for a first sample before reporting.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Table:     zone.DefaultTable(),
		Epicenter: zone.DefaultEpicenter,
		Policy:    zone.AccruePrevious,
		MaxAge:    DefaultMaxAge,
		Timeout:   DefaultTimeout,
	}
}

type Deps struct {
	Store     ports.KeyValueStore
	Scheduler ports.Scheduler
	Notifier  ports.Notifier
	Text      ports.Translator
	// GasMaskActive suspends exposure accrual while it reports true.
	GasMaskActive func() bool
	// Roll returns a value in [0,1) for the dose shown on each tick.
	Roll func() float64
}

type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	At        time.Time `json:"timestamp"`
}

type State struct {
	Active   bool                  `json:"active"`
	Level    string                `json:"level,omitempty"`
	Distance float64               `json:"distance"`
	Value    float64               `json:"value"`
	Readings []metro.GeigerReading `json:"readings"`
}

// Monitor tracks exposure from every position sample and, while the
// Geiger tool is Active, ticks at the interval of the current zone.
type Monitor struct {
	deps Deps
	cfg  Config

	exposure   zone.Exposure
	lastUpdate time.Time
	current    string
	distance   float64

	uiActive    bool
	tracking    bool
	activeLevel string
	tickTimer   ports.TimerID
	watchdog    ports.TimerID
	value       float64
	readings    []metro.GeigerReading
}

func New(deps Deps, cfg Config) *Monitor {
	if deps.Roll == nil {
		deps.Roll = rand.Float64
	}
	if deps.GasMaskActive == nil {
		deps.GasMaskActive = func() bool { return false }
	}
	if cfg.Policy == "" {
		cfg.Policy = zone.AccruePrevious
	}
	return &Monitor{deps: deps, cfg: cfg, exposure: zone.NewExposure(cfg.Table.Levels())}
}

// Load restores the exposure accumulator and starts the accrual clock.
func (m *Monitor) Load(ctx context.Context) {
	stored := persist.Load(ctx, m.deps.Store, persist.KeyExposure, zone.Exposure{})
	m.exposure = zone.NewExposure(m.cfg.Table.Levels())
	for level, ms := range stored {
		if ms > 0 {
			m.exposure[level] = ms
		}
	}
	m.lastUpdate = m.deps.Scheduler.Now()
	m.current = ""
}

func (m *Monitor) OnSample(ctx context.Context, distance float64) {
	z, inZone := m.cfg.Table.Resolve(distance)
	level := zone.LevelSafe
	if inZone {
		level = z.Level
	}

	now := m.deps.Scheduler.Now()
	if !m.lastUpdate.IsZero() && !m.deps.GasMaskActive() {
		target := m.current
		if m.cfg.Policy == zone.AccrueCurrent {
			target = level
		}
		m.exposure.Add(target, now.Sub(m.lastUpdate))
	}
	m.lastUpdate = now
	m.current = level
	m.distance = distance
	persist.SaveLogged(ctx, m.deps.Store, persist.KeyExposure, m.exposure)

	m.cancel(&m.watchdog)
	if !m.uiActive {
		return
	}
	if m.tracking && level == m.activeLevel {
		return
	}
	m.tracking = true
	m.activeLevel = level
	m.cancel(&m.tickTimer)

	shown := fmt.Sprintf("%.0f", distance)
	if !inZone {
		m.value = 0
		m.deps.Notifier.Status(m.text(msgkey.GeigerNormal, shown))
		return
	}
	m.deps.Notifier.Status(m.text(msgkey.GeigerZone, m.text(msgkey.Level(level)), shown))
	m.tickTimer = m.deps.Scheduler.Every(z.TickInterval, func() {
		m.tick(z)
	})
	m.tick(z)
}

// OnPosition converts a fix into a distance sample. Stale fixes are
// rejected and leave exposure untouched.
func (m *Monitor) OnPosition(ctx context.Context, fix Fix) (float64, error) {
	if m.cfg.MaxAge > 0 && !fix.At.IsZero() {
		if age := m.deps.Scheduler.Now().Sub(fix.At); age > m.cfg.MaxAge {
			hlog.CtxWarnf(ctx, "geiger: dropping fix %s old", age)
			m.deps.Notifier.Status(m.text(msgkey.GPSStale))
			return 0, fmt.Errorf("fix is %s old: %w", age.Round(time.Second), metro.ErrSensorFailure)
		}
	}
	distance := zone.Distance(zone.Point{Latitude: fix.Latitude, Longitude: fix.Longitude}, m.cfg.Epicenter)
	hlog.CtxDebugf(ctx, "geiger: distance %.1f m, accuracy %.1f m", distance, fix.Accuracy)
	m.OnSample(ctx, distance)
	return distance, nil
}

func (m *Monitor) OnSensorError(ctx context.Context, message string) {
	hlog.CtxWarnf(ctx, "geiger: sensor error: %s", message)
	m.deps.Notifier.Status(m.text(msgkey.GPSError, message))
}

func (m *Monitor) Start(context.Context) {
	if m.uiActive {
		return
	}
	m.uiActive = true
	m.tracking = false
	m.activeLevel = ""
	m.deps.Notifier.Status(m.text(msgkey.GeigerSearching))
	if m.cfg.Timeout > 0 {
		m.watchdog = m.deps.Scheduler.After(m.cfg.Timeout, func() {
			m.watchdog = 0
			if m.uiActive && !m.tracking {
				m.deps.Notifier.Status(m.text(msgkey.GPSTimeout))
			}
		})
	}
}

// Stop silences the counter and drops the reading log; exposure keeps
// accruing from later samples.
func (m *Monitor) Stop(context.Context) {
	if !m.uiActive {
		return
	}
	m.uiActive = false
	m.tracking = false
	m.activeLevel = ""
	m.cancel(&m.tickTimer)
	m.cancel(&m.watchdog)
	m.value = 0
	m.readings = nil
	m.deps.Notifier.Status(m.text(msgkey.GeigerOff))
}

func (m *Monitor) ResetExposure(ctx context.Context) {
	m.exposure = zone.NewExposure(m.cfg.Table.Levels())
	persist.SaveLogged(ctx, m.deps.Store, persist.KeyExposure, m.exposure)
	m.deps.Notifier.Status(m.text(msgkey.ExposureReset))
}

// Reset drops all in-memory state without writing; the caller clears the
// store.
func (m *Monitor) Reset() {
	m.cancel(&m.tickTimer)
	m.cancel(&m.watchdog)
	m.exposure = zone.NewExposure(m.cfg.Table.Levels())
	m.lastUpdate = m.deps.Scheduler.Now()
	m.current = ""
	m.uiActive = false
	m.tracking = false
	m.activeLevel = ""
	m.value = 0
	m.readings = nil
}

func (m *Monitor) Exposure() zone.Exposure {
	return m.exposure.Clone()
}

// Readings lists the latest ticks, newest first.
func (m *Monitor) Readings() []metro.GeigerReading {
	return append([]metro.GeigerReading(nil), m.readings...)
}

func (m *Monitor) State() State {
	st := State{Active: m.uiActive, Distance: m.distance, Value: m.value, Readings: m.Readings()}
	if m.uiActive {
		st.Level = m.activeLevel
	}
	return st
}

func (m *Monitor) tick(z zone.Zone) {
	m.value = z.Radiation(m.deps.Roll())
	reading := metro.GeigerReading{Value: m.value, Level: z.Level, At: m.deps.Scheduler.Now()}
	m.readings = append([]metro.GeigerReading{reading}, m.readings...)
	if len(m.readings) > metro.GeigerLogLimit {
		m.readings = m.readings[:metro.GeigerLogLimit]
	}
	m.deps.Notifier.GeigerTick(reading)
}

func (m *Monitor) cancel(id *ports.TimerID) {
	if *id != 0 {
		m.deps.Scheduler.Cancel(*id)
		*id = 0
	}
}

func (m *Monitor) text(key string, args ...any) string {
	if m.deps.Text == nil {
		return msgkey.Plain.Text(key, args...)
	}
	return m.deps.Text.Text(key, args...)
}
