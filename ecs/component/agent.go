package component

import (
	"errors"
	"fmt"
)

var ErrInvalidAgentStats = errors.New("agent: invalid stats")

// Agent holds the base stats of a hostile agent, after its type overrides
// and before any live multiplier.
type Agent struct {
	Type           string
	MoveSpeed      float64
	ChaseSpeed     float64
	PatrolSpeed    float64
	DetectionRange float64
	AttackRange    float64
	AttackCooldown float64
	AttackWindup   float64
	Damage         float64
	WanderRadius   float64
	WanderInterval float64
}

// Validate rejects stats that would stall or divide by zero at runtime.
func (a Agent) Validate() error {
	switch {
	case a.DetectionRange <= 0:
		return fmt.Errorf("%w: detection range %v", ErrInvalidAgentStats, a.DetectionRange)
	case a.AttackRange <= 0:
		return fmt.Errorf("%w: attack range %v", ErrInvalidAgentStats, a.AttackRange)
	case a.ChaseSpeed <= 0:
		return fmt.Errorf("%w: chase speed %v", ErrInvalidAgentStats, a.ChaseSpeed)
	case a.PatrolSpeed < 0 || a.MoveSpeed < 0:
		return fmt.Errorf("%w: negative speed", ErrInvalidAgentStats)
	case a.AttackCooldown < 0 || a.AttackWindup < 0:
		return fmt.Errorf("%w: negative attack timing", ErrInvalidAgentStats)
	case a.Damage < 0:
		return fmt.Errorf("%w: damage %v", ErrInvalidAgentStats, a.Damage)
	case a.WanderInterval <= 0:
		return fmt.Errorf("%w: wander interval %v", ErrInvalidAgentStats, a.WanderInterval)
	case a.WanderRadius < 0:
		return fmt.Errorf("%w: wander radius %v", ErrInvalidAgentStats, a.WanderRadius)
	}
	return nil
}

// WalkSpeed is the patrol speed, falling back to MoveSpeed.
func (a Agent) WalkSpeed() float64 {
	if a.PatrolSpeed > 0 {
		return a.PatrolSpeed
	}
	return a.MoveSpeed
}

var AgentComponent = NewComponent[Agent]()
