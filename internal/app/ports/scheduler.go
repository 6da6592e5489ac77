package ports

import "time"

type TimerID int64

// Scheduler owns every timer of a session. Callbacks run on the session
// loop; once Cancel returns, the cancelled callback never runs again.
type Scheduler interface {
	Every(interval time.Duration, fn func()) TimerID
	After(delay time.Duration, fn func()) TimerID
	Cancel(id TimerID)
	Now() time.Time
}
