package encounter

import (
	"math"

	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
)

// Autopilot stands in for a human player in the headless runners: it
// fires at the nearest live agent in range on a fixed cadence.
type Autopilot struct {
	Range    float64
	Damage   float64
	Cooldown float64

	timer float64
}

func NewAutopilot() *Autopilot {
	return &Autopilot{Range: 12, Damage: 25, Cooldown: 0.4}
}

// Step advances the weapon cooldown and fires once if ready. It returns
// the agent shot at, or ecs.NoEntity.
func (a *Autopilot) Step(e *Encounter, dt float64) ecs.Entity {
	a.timer -= dt
	if a.timer > 0 {
		return ecs.NoEntity
	}
	target := a.nearest(e)
	if target == ecs.NoEntity {
		a.timer = 0
		return ecs.NoEntity
	}
	a.timer = a.Cooldown
	e.DealDamage(target, a.Damage, "rifle")
	return target
}

func (a *Autopilot) nearest(e *Encounter) ecs.Entity {
	w := e.World()
	ptf, ok := ecs.Get(w, e.Player(), component.TransformComponent.Kind())
	if !ok {
		return ecs.NoEntity
	}
	if hp, ok := ecs.Get(w, e.Player(), component.HealthComponent.Kind()); ok && hp.Dead {
		return ecs.NoEntity
	}
	from := ptf.Pos()
	cw := w.CollisionWorld()

	best, bestDist := ecs.NoEntity, math.Inf(1)
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.HealthComponent.Kind(), component.TransformComponent.Kind(),
		func(ag ecs.Entity, _ *component.Agent, hp *component.Health, tf *component.Transform) {
			if hp.Dead {
				return
			}
			d := from.Distance(tf.Pos())
			if d > a.Range || d >= bestDist {
				return
			}
			if cw != nil && !cw.HasLineOfSight(from, tf.Pos()) {
				return
			}
			best, bestDist = ag, d
		})
	return best
}
