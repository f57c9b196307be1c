package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

const (
	TagAcid = "acid"
	// acidKind is the over-time slot a spit hit refreshes.
	acidKind = "acid"
)

// ProjectileSystem flies shots along their velocity and lands them on
// their target. A shot that reaches an obstacle or leaves the arena is
// spent; TTL removes the ones that never arrive.
type ProjectileSystem struct {
	pipeline *DamagePipeline
	log      *logrus.Entry
}

func NewProjectileSystem(p *DamagePipeline) *ProjectileSystem {
	return &ProjectileSystem{pipeline: p, log: logger.For("projectile")}
}

func (s *ProjectileSystem) Update(w *ecs.World, dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	cw := w.CollisionWorld()

	var spent []ecs.Entity
	ecs.ForEach3(w, component.ProjectileComponent.Kind(), component.TransformComponent.Kind(), component.VelocityComponent.Kind(), func(shot ecs.Entity, p *component.Projectile, tf *component.Transform, vel *component.Velocity) {
		from := tf.Pos()
		to := from.Add(vel.Vec().Mult(dt))

		if s.hit(w, p, from, to) {
			spent = append(spent, shot)
			return
		}
		if cw.Blocked(to) || cw.ClampToBounds(to) != to {
			spent = append(spent, shot)
			return
		}
		tf.SetPos(to)
	})

	for _, shot := range spent {
		ecs.DestroyEntity(w, shot)
	}
}

// hit reports whether the segment from..to passes within HitRadius of the
// target, submitting the damage and burn when it does.
func (s *ProjectileSystem) hit(w *ecs.World, p *component.Projectile, from, to cp.Vector) bool {
	target := ecs.FromRef(p.Target)
	ttf, ok := ecs.Get(w, target, component.TransformComponent.Kind())
	if !ok {
		return false
	}
	health, ok := ecs.Get(w, target, component.HealthComponent.Kind())
	if !ok || health.Dead {
		return false
	}

	at := ttf.Pos()
	closest := from
	if from != to {
		closest = at.ClosestPointOnSegment(from, to)
	}
	if closest.Distance(at) > p.HitRadius {
		return false
	}

	source := ecs.FromRef(p.Source)
	if s.pipeline != nil {
		s.pipeline.Submit(DamageEvent{
			Amount: p.Damage,
			Target: target,
			Source: source,
			Tag:    TagAcid,
		})
		s.pipeline.ApplyOverTime(w, target, source, acidKind, p.BurnDPS, p.BurnDuration)
	}
	s.log.WithField("target", target.String()).Trace("spit landed")
	return true
}
