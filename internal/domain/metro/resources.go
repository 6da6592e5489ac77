package metro

func (r Resources) Get(kind ResourceKind) int {
	switch kind {
	case ResourceBattery:
		return r.Battery
	case ResourceFilter:
		return r.Filter
	case ResourceWater:
		return r.Water
	default:
		return 0
	}
}

// Add applies a reward. Negative amounts are clamped so a counter never
// drops below zero.
func (r *Resources) Add(kind ResourceKind, amount int) bool {
	p := r.slot(kind)
	if p == nil {
		return false
	}
	*p += amount
	if *p < 0 {
		*p = 0
	}
	return true
}

func (r *Resources) Consume(kind ResourceKind, amount int) bool {
	p := r.slot(kind)
	if p == nil || amount <= 0 || *p < amount {
		return false
	}
	*p -= amount
	return true
}

func (r *Resources) slot(kind ResourceKind) *int {
	switch kind {
	case ResourceBattery:
		return &r.Battery
	case ResourceFilter:
		return &r.Filter
	case ResourceWater:
		return &r.Water
	default:
		return nil
	}
}
