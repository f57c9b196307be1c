package system

import (
	"math"
	"math/rand/v2"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

// BossSystem drives every boss: health-fraction phase checks, timed
// minion waves, special attacks and the death transition. The wrapped
// agent keeps its normal behavior between specials.
type BossSystem struct {
	pipeline  *DamagePipeline
	spawner   ExtraSpawner
	presenter Presenter
	script    *BossScript
	rng       *rand.Rand
	log       *logrus.Entry
}

func NewBossSystem(pipeline *DamagePipeline, spawner ExtraSpawner, presenter Presenter, script *BossScript, rng *rand.Rand) *BossSystem {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	if rng == nil {
		rng = common.NewRand(1)
	}
	return &BossSystem{
		pipeline:  pipeline,
		spawner:   spawner,
		presenter: presenter,
		script:    script,
		rng:       rng,
		log:       logger.For("boss"),
	}
}

// SetScript swaps the attack script, e.g. after a hot reload.
func (s *BossSystem) SetScript(script *BossScript) {
	s.script = script
}

func (s *BossSystem) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}
	for _, e := range w.Query(
		component.BossComponent.Kind(),
		component.BossRuntimeComponent.Kind(),
		component.HealthComponent.Kind(),
		component.AIContextComponent.Kind(),
	) {
		s.tick(w, e, dt)
	}
}

func (s *BossSystem) tick(w *ecs.World, e ecs.Entity, dt float64) {
	boss, _ := ecs.Get(w, e, component.BossComponent.Kind())
	rt, _ := ecs.Get(w, e, component.BossRuntimeComponent.Kind())
	hp, _ := ecs.Get(w, e, component.HealthComponent.Kind())
	ctx, _ := ecs.Get(w, e, component.AIContextComponent.Kind())

	if rt.Phase == component.BossDead {
		return
	}
	if hp.Dead {
		s.endSpecial(w, e, rt, ctx)
		s.setPhase(w, e, boss, rt, ctx, component.BossDead)
		return
	}
	if st, ok := ecs.Get(w, e, component.AIStateComponent.Kind()); ok && !st.Aggressive {
		s.endSpecial(w, e, rt, ctx)
		return
	}

	rt.CheckTimer -= dt
	if rt.CheckTimer <= 0 {
		rt.CheckTimer += boss.CheckInterval
		if rt.CheckTimer <= 0 {
			rt.CheckTimer = boss.CheckInterval
		}
		s.checkPhase(w, e, boss, rt, hp, ctx)
	}

	params := boss.Params(rt.Phase)
	if params.MinionInterval > 0 {
		rt.MinionTimer -= dt
		if rt.MinionTimer <= 0 {
			rt.MinionTimer = params.MinionInterval
			s.spawnMinions(w, e, boss, params)
		}
	}

	if rt.Stage != component.StageNone {
		s.advanceSpecial(w, e, boss, rt, ctx, dt)
		return
	}
	if rt.Phase < component.BossPhase2 || boss.SpecialInterval <= 0 {
		return
	}
	rt.SpecialTimer -= dt
	if rt.SpecialTimer <= 0 {
		rt.SpecialTimer = boss.SpecialInterval
		s.startSpecial(w, e, boss, rt, ctx)
	}
}

// checkPhase is the throttled health check. Phase only moves forward; a
// large hit can skip straight to phase 3.
func (s *BossSystem) checkPhase(w *ecs.World, e ecs.Entity, boss *component.Boss, rt *component.BossRuntime, hp *component.Health, ctx *component.AIContext) {
	f := hp.Fraction()
	next := rt.Phase
	switch {
	case f <= boss.Phase3Threshold:
		next = component.BossPhase3
	case f <= boss.Phase2Threshold && rt.Phase < component.BossPhase2:
		next = component.BossPhase2
	}
	if next > rt.Phase {
		s.setPhase(w, e, boss, rt, ctx, next)
	}

	if !rt.FinishSignaled && f <= boss.FinishThreshold {
		rt.FinishSignaled = true
		s.log.WithFields(logrus.Fields{"boss": boss.Name}).Info("finish it")
		publish(w, EventBossFinishIt, BossFinishIt{Boss: e})
	}
}

func (s *BossSystem) setPhase(w *ecs.World, e ecs.Entity, boss *component.Boss, rt *component.BossRuntime, ctx *component.AIContext, next component.BossPhase) {
	from := rt.Phase
	if next <= from {
		return
	}
	rt.Phase = next

	if next != component.BossDead {
		params := boss.Params(next)
		ctx.ApplySpeedMultiplier(ctx.BaseSpeedMultiplier * params.SpeedBoost)
		if params.MinionInterval > 0 && rt.MinionTimer > params.MinionInterval {
			rt.MinionTimer = params.MinionInterval
		}
		if from < component.BossPhase2 {
			rt.SpecialTimer = boss.SpecialInterval
		}
		if next == component.BossPhase3 {
			s.presenter.OnVisualTint(e, boss.Phase3Tint)
		}
	}

	s.log.WithFields(logrus.Fields{
		"boss": boss.Name,
		"from": from.String(),
		"to":   next.String(),
	}).Info("boss phase changed")
	publish(w, EventBossPhaseChanged, BossPhaseChanged{Boss: e, From: from, To: next})
}

// spawnMinions rings params.MinionCount minions around the boss.
func (s *BossSystem) spawnMinions(w *ecs.World, e ecs.Entity, boss *component.Boss, params component.BossPhaseParams) {
	if s.spawner == nil || params.MinionCount <= 0 {
		return
	}
	tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return
	}
	for i := 0; i < params.MinionCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(params.MinionCount)
		s.spawner.SpawnExtra(w, SpawnRequest{
			X:       tf.X + math.Cos(angle)*boss.MinionOffset,
			Y:       tf.Y + math.Sin(angle)*boss.MinionOffset,
			Type:    params.MinionType,
			Health:  params.MinionHealth,
			Points:  params.MinionPoints,
			NoAffix: true,
		})
	}
	s.log.WithFields(logrus.Fields{
		"boss":  boss.Name,
		"count": params.MinionCount,
	}).Debug("minions summoned")
}

func (s *BossSystem) startSpecial(w *ecs.World, e ecs.Entity, boss *component.Boss, rt *component.BossRuntime, ctx *component.AIContext) {
	roll := s.rng.Float64()
	attack, err := s.script.Choose(rt.Phase, rt.Specials, roll)
	if err != nil {
		s.log.WithError(err).Warn("boss script failed, using default")
		attack = DefaultBossAttack(rt.Phase, rt.Specials, roll)
	}
	rt.Specials++
	rt.Special = attack
	rt.Stage = component.StageWindup
	rt.Landed = false

	if attack == AttackSlam {
		rt.StageTimer = boss.Slam.Windup
	} else {
		rt.StageTimer = boss.Charge.Telegraph
	}
	ctx.Locked = true
	ctx.CancelWindup()
	stop(w, e)
	s.presenter.ShowTelegraph(e, rt.StageTimer)

	s.log.WithFields(logrus.Fields{
		"boss":   boss.Name,
		"attack": attack,
	}).Debug("special attack")
	publish(w, EventBossSpecialAttack, BossSpecialAttack{Boss: e, Attack: attack})
}

func (s *BossSystem) advanceSpecial(w *ecs.World, e ecs.Entity, boss *component.Boss, rt *component.BossRuntime, ctx *component.AIContext, dt float64) {
	rt.StageTimer -= dt
	pos, target, targetPos, hasTarget := s.positions(w, e, ctx)

	switch rt.Stage {
	case component.StageWindup:
		if rt.StageTimer > 0 {
			return
		}
		if rt.Special == AttackSlam {
			if hasTarget {
				dmg := boss.Slam.Damage * ctx.DamageMultiplier * common.Falloff(pos.Distance(targetPos), boss.Slam.Radius)
				if dmg > 0 {
					s.submit(e, target, dmg, TagSlam)
				}
			}
			rt.Stage = component.StageRecover
			rt.StageTimer = boss.Slam.Recovery
			return
		}
		dir := cp.Vector{X: 1}
		if hasTarget && targetPos.Distance(pos) > 0 {
			dir = targetPos.Sub(pos).Normalize()
		}
		rt.DirX, rt.DirY = dir.X, dir.Y
		rt.Stage = component.StageActive
		rt.StageTimer = boss.Charge.Duration
		s.chargeStep(w, e, boss, rt, ctx, pos, target, targetPos, hasTarget)

	case component.StageActive:
		if rt.StageTimer <= 0 {
			s.endSpecial(w, e, rt, ctx)
			return
		}
		s.chargeStep(w, e, boss, rt, ctx, pos, target, targetPos, hasTarget)

	case component.StageRecover:
		if rt.StageTimer <= 0 {
			s.endSpecial(w, e, rt, ctx)
		}
	}
}

// chargeStep keeps the boss moving along the locked direction and lands
// the hit once when the target is within reach. A landed charge ends.
func (s *BossSystem) chargeStep(w *ecs.World, e ecs.Entity, boss *component.Boss, rt *component.BossRuntime, ctx *component.AIContext, pos cp.Vector, target ecs.Entity, targetPos cp.Vector, hasTarget bool) {
	if !rt.Landed && hasTarget && pos.Distance(targetPos) <= boss.Charge.HitRadius {
		rt.Landed = true
		s.submit(e, target, boss.Charge.Damage*ctx.DamageMultiplier, TagCharge)
		s.endSpecial(w, e, rt, ctx)
		return
	}
	if vel, ok := ecs.Get(w, e, component.VelocityComponent.Kind()); ok {
		vel.X = rt.DirX * boss.Charge.Speed
		vel.Y = rt.DirY * boss.Charge.Speed
	}
}

func (s *BossSystem) endSpecial(w *ecs.World, e ecs.Entity, rt *component.BossRuntime, ctx *component.AIContext) {
	if rt.Stage == component.StageNone && !ctx.Locked {
		return
	}
	rt.Stage = component.StageNone
	rt.StageTimer = 0
	rt.Special = ""
	ctx.Locked = false
	stop(w, e)
}

func (s *BossSystem) submit(source, target ecs.Entity, amount float64, tag string) {
	if s.pipeline == nil {
		return
	}
	s.pipeline.Submit(DamageEvent{
		Amount: amount,
		Target: target,
		Source: source,
		Tag:    tag,
		Attack: true,
	})
}

func (s *BossSystem) positions(w *ecs.World, e ecs.Entity, ctx *component.AIContext) (cp.Vector, ecs.Entity, cp.Vector, bool) {
	var pos cp.Vector
	if tf, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		pos = tf.Pos()
	}
	target := ecs.FromRef(ctx.Target)
	ttf, ok := ecs.Get(w, target, component.TransformComponent.Kind())
	if !ok {
		return pos, target, cp.Vector{}, false
	}
	return pos, target, ttf.Pos(), true
}

func stop(w *ecs.World, e ecs.Entity) {
	if vel, ok := ecs.Get(w, e, component.VelocityComponent.Kind()); ok {
		*vel = component.Velocity{}
	}
}
