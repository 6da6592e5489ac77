package metro

import "errors"

var (
	ErrUnknownCode          = errors.New("unknown code")
	ErrAlreadyUsed          = errors.New("code already used")
	ErrUnknownKind          = errors.New("unknown code kind")
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrNeedsReplacement     = errors.New("tool needs resource replacement")
	ErrOverlayBusy          = errors.New("another overlay tool is active")
	ErrUnknownTool          = errors.New("unknown tool")
	ErrNotReplaceable       = errors.New("tool has no replaceable resource")
	ErrSensorFailure        = errors.New("sensor failure")
	ErrNoAudio              = errors.New("transmission has no audio")
)
