package zone

import (
	"fmt"
	"strings"
	"time"
)

type AccrualPolicy string

const (
	// AccruePrevious credits the interval to the zone the player was in
	// before the new sample arrived.
	AccruePrevious AccrualPolicy = "previous"
	AccrueCurrent  AccrualPolicy = "current"
)

func ParseAccrualPolicy(raw string) (AccrualPolicy, error) {
	switch AccrualPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AccruePrevious:
		return AccruePrevious, nil
	case AccrueCurrent:
		return AccrueCurrent, nil
	default:
		return "", fmt.Errorf("unknown exposure accrual policy %q", raw)
	}
}

// Exposure maps zone level to accumulated milliseconds.
type Exposure map[string]int64

func NewExposure(levels []string) Exposure {
	e := Exposure{}
	for _, l := range levels {
		e[l] = 0
	}
	return e
}

func (e Exposure) Add(level string, d time.Duration) {
	if level == "" || level == LevelSafe || d <= 0 {
		return
	}
	e[level] += d.Milliseconds()
}

func (e Exposure) Duration(level string) time.Duration {
	return time.Duration(e[level]) * time.Millisecond
}

func (e Exposure) Clone() Exposure {
	out := make(Exposure, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
