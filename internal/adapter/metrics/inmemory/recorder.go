package inmemory

import (
	"sync"

	"metroterminal/internal/app/ports"
)

type ToolCounts struct {
	Accepted uint64 `json:"accepted"`
	Refused  uint64 `json:"refused"`
}

type Snapshot struct {
	InputTotal      uint64                `json:"input_total"`
	Redeemed        uint64                `json:"redeemed"`
	Rejected        uint64                `json:"rejected"`
	Failures        uint64                `json:"failures"`
	ByOutcome       map[string]uint64     `json:"by_outcome"`
	ToolTransitions map[string]ToolCounts `json:"tool_transitions"`
}

type Recorder struct {
	mu        sync.Mutex
	byOutcome map[ports.RedeemOutcome]uint64
	tools     map[string]ToolCounts
}

func NewRecorder() *Recorder {
	return &Recorder{
		byOutcome: map[ports.RedeemOutcome]uint64{},
		tools:     map[string]ToolCounts{},
	}
}

func (r *Recorder) RecordRedeem(outcome ports.RedeemOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOutcome[outcome]++
}

func (r *Recorder) RecordToolTransition(tool string, accepted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.tools[tool]
	if accepted {
		c.Accepted++
	} else {
		c.Refused++
	}
	r.tools[tool] = c
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ByOutcome:       make(map[string]uint64, len(r.byOutcome)),
		ToolTransitions: make(map[string]ToolCounts, len(r.tools)),
	}
	for k, v := range r.byOutcome {
		out.ByOutcome[string(k)] = v
		out.InputTotal += v
		switch k {
		case ports.OutcomeRedeemed, ports.OutcomeRadio:
			out.Redeemed += v
		case ports.OutcomeFailure:
			out.Failures += v
		default:
			out.Rejected += v
		}
	}
	for k, v := range r.tools {
		out.ToolTransitions[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
