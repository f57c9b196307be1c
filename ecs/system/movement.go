package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
)

// MovementSystem integrates velocity into position. Moves that would end
// inside an obstacle are retried along each axis alone, so agents slide
// along walls instead of sticking. Projectiles fly in ProjectileSystem.
type MovementSystem struct{}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{}
}

func (s *MovementSystem) Update(w *ecs.World, dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	cw := w.CollisionWorld()

	ecs.ForEach2(w, component.TransformComponent.Kind(), component.VelocityComponent.Kind(), func(e ecs.Entity, tf *component.Transform, vel *component.Velocity) {
		if vel.X == 0 && vel.Y == 0 || ecs.Has(w, e, component.ProjectileComponent.Kind()) {
			return
		}
		from := tf.Pos()
		step := vel.Vec().Mult(dt)

		candidates := []cp.Vector{
			from.Add(step),
			{X: from.X + step.X, Y: from.Y},
			{X: from.X, Y: from.Y + step.Y},
		}
		for _, to := range candidates {
			to = cw.ClampToBounds(to)
			if cw.Blocked(to) {
				continue
			}
			tf.SetPos(to)
			return
		}
	})
}
