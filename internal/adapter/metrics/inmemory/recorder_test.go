package inmemory

import (
	"testing"

	"metroterminal/internal/app/ports"
)

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	r.RecordRedeem(ports.OutcomeRedeemed)
	r.RecordRedeem(ports.OutcomeRadio)
	r.RecordRedeem(ports.OutcomeAlreadyUsed)
	r.RecordRedeem(ports.OutcomeUnknownCode)
	r.RecordRedeem(ports.OutcomeFailure)
	r.RecordToolTransition("geiger", true)
	r.RecordToolTransition("radio", false)
	r.RecordToolTransition("radio", true)

	s := r.Snapshot()
	if s.InputTotal != 5 {
		t.Fatalf("expected total 5, got %d", s.InputTotal)
	}
	if s.Redeemed != 2 {
		t.Fatalf("expected redeemed 2, got %d", s.Redeemed)
	}
	if s.Rejected != 2 {
		t.Fatalf("expected rejected 2, got %d", s.Rejected)
	}
	if s.Failures != 1 {
		t.Fatalf("expected failures 1, got %d", s.Failures)
	}
	if s.ByOutcome[string(ports.OutcomeAlreadyUsed)] != 1 {
		t.Fatalf("expected already_used count 1")
	}
	if got := s.ToolTransitions["radio"]; got.Accepted != 1 || got.Refused != 1 {
		t.Fatalf("unexpected radio transitions %+v", got)
	}
}
