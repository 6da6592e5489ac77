// Package session owns the state of one running terminal and serializes
// every mutation on a single loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"metroterminal/internal/app/codes"
	"metroterminal/internal/app/geiger"
	"metroterminal/internal/app/history"
	"metroterminal/internal/app/ledger"
	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/app/radio"
	"metroterminal/internal/app/tools"
	"metroterminal/internal/domain/metro"
	"metroterminal/internal/domain/zone"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

type Config struct {
	ResetCode string
	Radio     radio.Config
	Tools     tools.Config
	Geiger    geiger.Config
}

func DefaultConfig() Config {
	return Config{
		ResetCode: metro.DefaultResetCode,
		Radio:     radio.Config{BlockReplay: true},
		Tools:     tools.Config{OverlayGroup: metro.DefaultOverlayGroup},
		Geiger:    geiger.DefaultConfig(),
	}
}

type Deps struct {
	Store     ports.KeyValueStore
	TxManager ports.TxManager
	Catalog   ports.CatalogProvider
	Scheduler ports.Scheduler
	Notifier  ports.Notifier
	Audio     ports.AudioPlayer
	Text      ports.Translator
	Metrics   ports.TerminalMetrics
}

// Outcome reports what Submit did with a line of input. Consumed tells the
// client to clear the input field.
type Outcome struct {
	Consumed bool   `json:"consumed"`
	Status   string `json:"status"`
}

type Snapshot struct {
	Resources metro.Resources      `json:"resources"`
	Tools     []metro.ToolStatus   `json:"tools"`
	History   []metro.HistoryEntry `json:"history"`
	Exposure  zone.Exposure        `json:"exposure"`
	Geiger    geiger.State         `json:"geiger"`
	RadioOpen bool                 `json:"radio_open"`
	Status    string               `json:"status"`
}

type Session struct {
	mu     sync.Mutex
	deps   Deps
	cfg    Config
	status *statusTracker

	ledger  *ledger.Ledger
	history *history.Log
	codes   *codes.Registry
	radio   *radio.UseCase
	tools   *tools.Machine
	geiger  *geiger.Monitor
}

func New(deps Deps, cfg Config) *Session {
	if cfg.ResetCode == "" {
		cfg.ResetCode = metro.DefaultResetCode
	}
	if deps.Text == nil {
		deps.Text = msgkey.Plain
	}
	tracker := &statusTracker{Notifier: deps.Notifier}
	s := &Session{deps: deps, cfg: cfg, status: tracker}

	s.ledger = ledger.New(deps.Store, tracker)
	s.history = history.New(deps.Store, tracker, deps.Scheduler.Now)
	s.codes = &codes.Registry{
		TxManager: deps.TxManager,
		Ledger:    s.ledger,
		History:   s.history,
		Notifier:  tracker,
		Text:      deps.Text,
		Metrics:   deps.Metrics,
	}
	s.radio = &radio.UseCase{
		Store:     deps.Store,
		History:   s.history,
		Scheduler: deps.Scheduler,
		Notifier:  tracker,
		Audio:     deps.Audio,
		Text:      deps.Text,
		Metrics:   deps.Metrics,
		Config:    cfg.Radio,
	}
	s.tools = tools.New(tools.Deps{
		Store:     deps.Store,
		TxManager: deps.TxManager,
		Ledger:    s.ledger,
		Scheduler: deps.Scheduler,
		Notifier:  tracker,
		Text:      deps.Text,
		Metrics:   deps.Metrics,
	}, cfg.Tools)
	s.geiger = geiger.New(geiger.Deps{
		Store:     deps.Store,
		Scheduler: deps.Scheduler,
		Notifier:  tracker,
		Text:      deps.Text,
		GasMaskActive: func() bool {
			return s.tools.IsActive(metro.ToolGasMask)
		},
	}, cfg.Geiger)
	s.tools.Register(metro.ToolGeiger, s.geiger)
	s.tools.Register(metro.ToolRadio, s.radio)
	return s
}

// Dispatch runs fn on the session loop. Scheduler callbacks go through it.
func (s *Session) Dispatch(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Boot restores persisted state and loads both catalogs. A missing catalog
// is reported but leaves the session usable.
func (s *Session) Boot(ctx context.Context) error {
	if s.deps.Catalog == nil {
		return errors.New("session: no catalog provider")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Load(ctx)
	s.history.Load(ctx)
	s.tools.Load(ctx)
	s.geiger.Load(ctx)

	var errs []error
	if err := s.codes.Load(ctx, s.deps.Catalog); err != nil {
		errs = append(errs, err)
	}
	if err := s.radio.Load(ctx, s.deps.Catalog); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) Submit(ctx context.Context, input string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := metro.NormalizeInput(input)
	switch {
	case code == "":
		s.status.Status(s.deps.Text.Text(msgkey.EnterCode))
		return s.outcome(false), nil
	case code == s.cfg.ResetCode:
		s.reset(ctx)
		return s.outcome(true), nil
	case radio.IsRadioCode(code):
		ok, err := s.radio.Process(ctx, code)
		return s.outcome(ok), err
	case !s.codes.Validate(code):
		return s.outcome(true), s.codes.Reject()
	default:
		_, err := s.codes.Redeem(ctx, code)
		return s.outcome(true), err
	}
}

func (s *Session) Toggle(ctx context.Context, raw string) error {
	tool, ok := metro.ParseToolID(raw)
	if !ok {
		return fmt.Errorf("%q: %w", raw, metro.ErrUnknownTool)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools.Toggle(ctx, tool)
}

func (s *Session) ReplaceResource(ctx context.Context, raw string) error {
	tool, ok := metro.ParseToolID(raw)
	if !ok {
		return fmt.Errorf("%q: %w", raw, metro.ErrUnknownTool)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools.ReplaceResource(ctx, tool)
}

func (s *Session) Position(ctx context.Context, fix geiger.Fix) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geiger.OnPosition(ctx, fix)
}

func (s *Session) Sample(ctx context.Context, distance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geiger.OnSample(ctx, distance)
}

func (s *Session) SensorError(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geiger.OnSensorError(ctx, message)
}

func (s *Session) ResetExposure(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geiger.ResetExposure(ctx)
}

func (s *Session) Replay(ctx context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.radio.Replay(ctx, n)
}

func (s *Session) Messages() []metro.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.radio.Messages()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Resources: s.ledger.Get(),
		Tools:     s.tools.Snapshot(),
		History:   s.history.Entries(),
		Exposure:  s.geiger.Exposure(),
		Geiger:    s.geiger.State(),
		RadioOpen: s.radio.Open(),
		Status:    s.status.last,
	}
}

// reset stops every timer first so nothing writes after the store is
// cleared.
func (s *Session) reset(ctx context.Context) {
	s.tools.DeactivateAll(ctx)
	s.radio.Reset()
	s.geiger.Reset()
	s.tools.Reset()
	if err := s.ledger.Reset(ctx); err != nil {
		hlog.CtxErrorf(ctx, "session: reset resources: %v", err)
	}
	if err := s.history.Reset(ctx); err != nil {
		hlog.CtxErrorf(ctx, "session: reset history: %v", err)
	}
	if err := s.deps.Store.Clear(ctx); err != nil {
		hlog.CtxErrorf(ctx, "session: clear store: %v", err)
	}
	hlog.CtxInfof(ctx, "session: local state cleared")
	s.status.Status(s.deps.Text.Text(msgkey.StorageCleared))
}

func (s *Session) outcome(consumed bool) Outcome {
	return Outcome{Consumed: consumed, Status: s.status.last}
}

// statusTracker remembers the last status line on its way to the real
// notifier.
type statusTracker struct {
	ports.Notifier
	last string
}

func (t *statusTracker) Status(text string) {
	t.last = text
	t.Notifier.Status(text)
}
