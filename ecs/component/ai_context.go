package component

import "math"

const (
	MinSpeedMultiplier  = 0.1
	MinDamageMultiplier = 0.0
)

// AIContext stores per-agent runtime data: target, multipliers and the
// explicit timers that replace coroutine waits.
type AIContext struct {
	// Target is a weak handle (ecs.Entity.Ref) to the agent's target.
	Target uint64

	OriginX float64
	OriginY float64

	// BaseSpeedMultiplier is the spawn-time combination of night,
	// difficulty and type speed. Effects that boost speed scale from it.
	BaseSpeedMultiplier float64
	SpeedMultiplier     float64
	DamageMultiplier    float64

	LastAttackTime float64
	WindingUp      bool
	WindupEnds     float64

	HasWander      bool
	WanderX        float64
	WanderY        float64
	LastWanderTime float64

	// Locked hands movement and attacks to another system, e.g. a boss
	// special attack in progress.
	Locked bool
}

// NewAIContext returns a context with neutral multipliers and an attack
// that is immediately available.
func NewAIContext(target uint64, originX, originY float64) AIContext {
	return AIContext{
		Target:              target,
		OriginX:             originX,
		OriginY:             originY,
		BaseSpeedMultiplier: 1,
		SpeedMultiplier:     1,
		DamageMultiplier:    1,
		LastAttackTime:      math.Inf(-1),
		LastWanderTime:      math.Inf(-1),
	}
}

// ApplySpeedMultiplier sets (not compounds) the speed multiplier.
func (c *AIContext) ApplySpeedMultiplier(m float64) {
	if math.IsNaN(m) {
		return
	}
	c.SpeedMultiplier = math.Max(MinSpeedMultiplier, m)
}

// ApplyDamageMultiplier sets (not compounds) the damage multiplier.
func (c *AIContext) ApplyDamageMultiplier(m float64) {
	if math.IsNaN(m) {
		return
	}
	c.DamageMultiplier = math.Max(MinDamageMultiplier, m)
}

// CancelWindup drops a pending attack.
func (c *AIContext) CancelWindup() {
	c.WindingUp = false
	c.WindupEnds = 0
}

var AIContextComponent = NewComponent[AIContext]()
