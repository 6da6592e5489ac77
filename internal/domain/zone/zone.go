package zone

import (
	"sort"
	"time"
)

const LevelSafe = "safe"

type Zone struct {
	Level         string        `json:"level"`
	MinDistance   float64       `json:"min_distance"`
	TickInterval  time.Duration `json:"tick_interval"`
	BaseRadiation float64       `json:"base_radiation"`
	Spread        float64       `json:"spread"`
}

// Radiation returns the dose rate shown on a tick; roll is expected in [0,1).
func (z Zone) Radiation(roll float64) float64 {
	return z.BaseRadiation + roll*z.Spread
}

// Table keeps zones ordered by descending MinDistance: the farther a sample
// is from the reference point, the higher the zone it lands in.
type Table struct {
	zones []Zone
}

func NewTable(zones ...Zone) Table {
	out := make([]Zone, len(zones))
	copy(out, zones)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinDistance > out[j].MinDistance
	})
	return Table{zones: out}
}

func DefaultTable() Table {
	return NewTable(
		Zone{Level: "High", MinDistance: 350, TickInterval: 800 * time.Millisecond, BaseRadiation: 10, Spread: 5},
		Zone{Level: "Elevated", MinDistance: 100, TickInterval: 2 * time.Second, BaseRadiation: 1, Spread: 2},
	)
}

func (t Table) Resolve(distance float64) (Zone, bool) {
	for _, z := range t.zones {
		if distance > z.MinDistance {
			return z, true
		}
	}
	return Zone{}, false
}

func (t Table) Levels() []string {
	out := make([]string, 0, len(t.zones))
	for _, z := range t.zones {
		out = append(out, z.Level)
	}
	return out
}

func (t Table) Lookup(level string) (Zone, bool) {
	for _, z := range t.zones {
		if z.Level == level {
			return z, true
		}
	}
	return Zone{}, false
}
