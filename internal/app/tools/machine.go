package tools

import (
	"context"
	"errors"
	"fmt"

	"metroterminal/internal/app/ledger"
	"metroterminal/internal/app/msgkey"
	"metroterminal/internal/app/persist"
	"metroterminal/internal/app/ports"
	"metroterminal/internal/domain/metro"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/zyedidia/generic/mapset"
)

// Overlay is the collaborator a non-depletable tool drives while Active.
type Overlay interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
}

type Config struct {
	// OverlayGroup lists the tools of which at most one may be Active.
	OverlayGroup []metro.ToolID
}

type Deps struct {
	Store     ports.KeyValueStore
	TxManager ports.TxManager
	Ledger    *ledger.Ledger
	Scheduler ports.Scheduler
	Notifier  ports.Notifier
	Text      ports.Translator
	Metrics   ports.TerminalMetrics
}

type Machine struct {
	deps     Deps
	group    mapset.Set[metro.ToolID]
	active   mapset.Set[metro.ToolID]
	overlays map[metro.ToolID]Overlay
	timers   map[metro.ToolID]ports.TimerID
	// remaining seconds and replacement affordance of depletable tools
	remaining map[metro.ToolID]int
	needs     map[metro.ToolID]bool
}

func New(deps Deps, cfg Config) *Machine {
	if len(cfg.OverlayGroup) == 0 {
		cfg.OverlayGroup = metro.DefaultOverlayGroup
	}
	m := &Machine{
		deps:      deps,
		group:     mapset.New[metro.ToolID](),
		active:    mapset.New[metro.ToolID](),
		overlays:  map[metro.ToolID]Overlay{},
		timers:    map[metro.ToolID]ports.TimerID{},
		remaining: map[metro.ToolID]int{},
		needs:     map[metro.ToolID]bool{},
	}
	for _, id := range cfg.OverlayGroup {
		m.group.Put(id)
	}
	for id, spec := range metro.Depletables {
		m.remaining[id] = spec.DefaultSeconds
	}
	return m
}

func (m *Machine) Register(tool metro.ToolID, overlay Overlay) {
	m.overlays[tool] = overlay
}

// Load restores the remaining time of depletable tools. A tool found at
// zero shows its replacement affordance right away.
func (m *Machine) Load(ctx context.Context) {
	for id, spec := range metro.Depletables {
		left := persist.Load(ctx, m.deps.Store, spec.StorageKey, spec.DefaultSeconds)
		m.remaining[id] = left
		m.needs[id] = left <= 0
	}
}

func (m *Machine) IsActive(tool metro.ToolID) bool {
	return m.active.Has(tool)
}

func (m *Machine) Remaining(tool metro.ToolID) int {
	return m.remaining[tool]
}

func (m *Machine) Toggle(ctx context.Context, tool metro.ToolID) error {
	if !known(tool) {
		return metro.ErrUnknownTool
	}
	if m.active.Has(tool) {
		return m.Deactivate(ctx, tool)
	}
	if other, busy := m.overlayHolder(tool); busy {
		hlog.CtxInfof(ctx, "tools: %s refused while %s is open", tool, other)
		m.record(tool, false)
		m.deps.Notifier.Status(m.text(msgkey.ToolOverlayBusy))
		return metro.ErrOverlayBusy
	}
	return m.Activate(ctx, tool)
}

func (m *Machine) Activate(ctx context.Context, tool metro.ToolID) error {
	if !known(tool) {
		return metro.ErrUnknownTool
	}
	if m.active.Has(tool) {
		return nil
	}
	if spec, ok := metro.Depletables[tool]; ok {
		return m.activateDepletable(ctx, spec)
	}

	m.active.Put(tool)
	m.record(tool, true)
	m.deps.Notifier.ToolChanged(tool, metro.ToolActive)
	if overlay, ok := m.overlays[tool]; ok {
		overlay.Start(ctx)
	}
	return nil
}

func (m *Machine) activateDepletable(ctx context.Context, spec metro.DepletableSpec) error {
	left := m.remaining[spec.Tool]
	if left <= 0 {
		m.record(spec.Tool, false)
		m.signalReplacement(spec, true)
		m.deps.Notifier.Status(m.text(emptyKey(spec.Tool)))
		return metro.ErrNeedsReplacement
	}

	persist.SaveLogged(ctx, m.deps.Store, spec.StorageKey, left)
	m.active.Put(spec.Tool)
	m.record(spec.Tool, true)
	m.deps.Notifier.ToolChanged(spec.Tool, metro.ToolActive)

	m.stopTimer(spec.Tool)
	m.timers[spec.Tool] = m.deps.Scheduler.Every(metro.CountdownInterval, func() {
		m.tick(spec)
	})
	return nil
}

func (m *Machine) tick(spec metro.DepletableSpec) {
	ctx := context.Background()
	left := m.remaining[spec.Tool] - 1
	if left < 0 {
		left = 0
	}
	m.remaining[spec.Tool] = left
	persist.SaveLogged(ctx, m.deps.Store, spec.StorageKey, left)
	if left <= 0 {
		m.Deactivate(ctx, spec.Tool)
		return
	}
	if left == spec.DimSeconds {
		m.deps.Notifier.ToolChanged(spec.Tool, metro.ToolActive)
	}
}

// Deactivate is total: an inactive tool is left alone.
func (m *Machine) Deactivate(ctx context.Context, tool metro.ToolID) error {
	if !known(tool) {
		return metro.ErrUnknownTool
	}
	if !m.active.Has(tool) {
		return nil
	}
	m.active.Remove(tool)

	if spec, ok := metro.Depletables[tool]; ok {
		m.stopTimer(tool)
		left := m.remaining[tool]
		persist.SaveLogged(ctx, m.deps.Store, spec.StorageKey, left)
		m.deps.Notifier.ToolChanged(tool, metro.ToolInactive)
		if left <= 0 {
			m.signalReplacement(spec, true)
			m.deps.Notifier.Status(m.text(emptyKey(tool)))
		}
		return nil
	}

	m.deps.Notifier.ToolChanged(tool, metro.ToolInactive)
	if overlay, ok := m.overlays[tool]; ok {
		overlay.Stop(ctx)
	}
	return nil
}

// ReplaceResource swaps in one battery or filter and extends the tool's
// remaining time.
func (m *Machine) ReplaceResource(ctx context.Context, tool metro.ToolID) error {
	spec, ok := metro.Depletables[tool]
	if !ok {
		if known(tool) {
			return metro.ErrNotReplaceable
		}
		return metro.ErrUnknownTool
	}
	left := m.remaining[tool]
	if left < 0 {
		left = 0
	}
	next := left + spec.RefillSeconds

	err := m.inTx(ctx, func(txCtx context.Context) error {
		if err := m.deps.Ledger.Consume(txCtx, spec.Resource, 1); err != nil {
			return err
		}
		return persist.Save(txCtx, m.deps.Store, spec.StorageKey, next)
	})
	if err != nil {
		if errors.Is(err, metro.ErrInsufficientResource) {
			m.deps.Notifier.Status(m.text(missingKey(tool)))
			return err
		}
		m.deps.Ledger.Load(ctx)
		return fmt.Errorf("replace %s resource: %w", tool, err)
	}

	m.remaining[tool] = next
	m.signalReplacement(spec, false)
	m.deps.Notifier.Status(m.text(replacedKey(tool)))
	return nil
}

func (m *Machine) Snapshot() []metro.ToolStatus {
	out := make([]metro.ToolStatus, 0, len(metro.AllTools))
	for _, id := range metro.AllTools {
		st := metro.ToolStatus{ID: id, State: metro.ToolInactive}
		if m.active.Has(id) {
			st.State = metro.ToolActive
		}
		if spec, ok := metro.Depletables[id]; ok {
			st.Depletable = true
			st.RemainingSeconds = m.remaining[id]
			st.NeedsReplacement = m.needs[id]
			st.ReplacementSource = string(spec.Resource)
			st.Dim = st.State == metro.ToolActive && spec.DimSeconds > 0 && st.RemainingSeconds <= spec.DimSeconds
		}
		out = append(out, st)
	}
	return out
}

// DeactivateAll stops every Active tool and its timers.
func (m *Machine) DeactivateAll(ctx context.Context) {
	for _, id := range metro.AllTools {
		if err := m.Deactivate(ctx, id); err != nil {
			hlog.CtxWarnf(ctx, "tools: deactivate %s: %v", id, err)
		}
	}
}

// Reset returns depletable tools to their default time. It does not write
// the store; the caller clears it.
func (m *Machine) Reset() {
	for id, spec := range metro.Depletables {
		m.stopTimer(id)
		m.remaining[id] = spec.DefaultSeconds
		if m.needs[id] {
			m.signalReplacement(spec, false)
		}
	}
}

func (m *Machine) overlayHolder(tool metro.ToolID) (metro.ToolID, bool) {
	if !m.group.Has(tool) {
		return "", false
	}
	var holder metro.ToolID
	m.group.Each(func(id metro.ToolID) {
		if id != tool && m.active.Has(id) {
			holder = id
		}
	})
	return holder, holder != ""
}

func (m *Machine) stopTimer(tool metro.ToolID) {
	if id, ok := m.timers[tool]; ok {
		m.deps.Scheduler.Cancel(id)
		delete(m.timers, tool)
	}
}

func (m *Machine) signalReplacement(spec metro.DepletableSpec, needed bool) {
	m.needs[spec.Tool] = needed
	m.deps.Notifier.ReplacementNeeded(spec.Tool, needed)
}

func (m *Machine) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.deps.TxManager == nil {
		return fn(ctx)
	}
	return m.deps.TxManager.RunInTx(ctx, fn)
}

func (m *Machine) record(tool metro.ToolID, accepted bool) {
	if m.deps.Metrics != nil {
		m.deps.Metrics.RecordToolTransition(string(tool), accepted)
	}
}

func (m *Machine) text(key string, args ...any) string {
	if m.deps.Text == nil {
		return msgkey.Plain.Text(key, args...)
	}
	return m.deps.Text.Text(key, args...)
}

func known(tool metro.ToolID) bool {
	_, ok := metro.ParseToolID(string(tool))
	return ok
}

func emptyKey(tool metro.ToolID) string {
	if tool == metro.ToolGasMask {
		return msgkey.GasMaskEmpty
	}
	return msgkey.FlashlightEmpty
}

func missingKey(tool metro.ToolID) string {
	if tool == metro.ToolGasMask {
		return msgkey.NoFilter
	}
	return msgkey.NoBattery
}

func replacedKey(tool metro.ToolID) string {
	if tool == metro.ToolGasMask {
		return msgkey.FilterReplaced
	}
	return msgkey.BatteryReplaced
}
