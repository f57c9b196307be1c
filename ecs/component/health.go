package component

// Health is hit points for the player and agents. Only the damage pipeline
// calls Drain and Restore.
type Health struct {
	Max     float64
	Current float64
	Dead    bool
}

// NewHealth creates a Health with current set to max.
func NewHealth(max float64) *Health {
	if max <= 0 {
		max = 1
	}
	return &Health{Max: max, Current: max}
}

// Fraction is Current/Max in [0,1].
func (h *Health) Fraction() float64 {
	if h == nil || h.Max <= 0 {
		return 0
	}
	f := h.Current / h.Max
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Drain subtracts amount, flooring at zero. died is true only on the call
// that takes health to zero; a dead Health ignores further drains.
func (h *Health) Drain(amount float64) (applied float64, died bool) {
	if h == nil || h.Dead || amount <= 0 {
		return 0, false
	}
	applied = amount
	if applied > h.Current {
		applied = h.Current
	}
	h.Current -= applied
	if h.Current <= 0 {
		h.Current = 0
		h.Dead = true
		return applied, true
	}
	return applied, false
}

// Restore heals up to Max and returns the amount healed.
func (h *Health) Restore(amount float64) float64 {
	if h == nil || h.Dead || amount <= 0 {
		return 0
	}
	before := h.Current
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
	return h.Current - before
}

var HealthComponent = NewComponent[Health]()

// Bounty is what an agent pays out on death.
type Bounty struct {
	Points     int
	DropChance float64
}

var BountyComponent = NewComponent[Bounty]()
