package ports

type RedeemOutcome string

const (
	OutcomeRedeemed    RedeemOutcome = "redeemed"
	OutcomeAlreadyUsed RedeemOutcome = "already_used"
	OutcomeUnknownCode RedeemOutcome = "unknown_code"
	OutcomeUnknownKind RedeemOutcome = "unknown_kind"
	OutcomeRadio       RedeemOutcome = "radio"
	OutcomeFailure     RedeemOutcome = "failure"
)

type TerminalMetrics interface {
	RecordRedeem(outcome RedeemOutcome)
	RecordToolTransition(tool string, accepted bool)
}
