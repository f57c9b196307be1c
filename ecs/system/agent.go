package system

import (
	"errors"
	"math/rand/v2"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

const (
	// attackReachSlack is how far past AttackRange a windup still lands.
	attackReachSlack = 1.2
	// telegraphLead keeps the warning up slightly past the hit.
	telegraphLead = 0.1
	// wanderArrive is the distance at which a patrol goal counts as reached.
	wanderArrive = 0.5
	// spitOffset is how far in front of a ranged agent its shot appears.
	spitOffset = 0.5
)

// AgentSystem is the decide pass for every hostile agent: it picks the
// behavior state, sets movement intent and opens or resolves attack
// windups. Damage is only submitted here, never applied.
type AgentSystem struct {
	pipeline  *DamagePipeline
	nav       Navigator
	presenter Presenter
	rng       *rand.Rand
	log       *logrus.Entry
}

func NewAgentSystem(pipeline *DamagePipeline, nav Navigator, presenter Presenter, rng *rand.Rand) *AgentSystem {
	if nav == nil {
		nav = OpenNavigator{}
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}
	if rng == nil {
		rng = common.NewRand(1)
	}
	return &AgentSystem{
		pipeline:  pipeline,
		nav:       nav,
		presenter: presenter,
		rng:       rng,
		log:       logger.For("agent"),
	}
}

func (s *AgentSystem) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}
	for _, e := range w.Query(
		component.AgentComponent.Kind(),
		component.AIStateComponent.Kind(),
		component.AIContextComponent.Kind(),
		component.TransformComponent.Kind(),
	) {
		s.Tick(w, e)
	}
}

// Tick runs one decision for agent e at the world's current time.
func (s *AgentSystem) Tick(w *ecs.World, e ecs.Entity) {
	agent, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok {
		return
	}
	st, _ := ecs.Get(w, e, component.AIStateComponent.Kind())
	ctx, _ := ecs.Get(w, e, component.AIContextComponent.Kind())
	tf, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	if st == nil || ctx == nil || tf == nil {
		return
	}
	vel := velocityOf(w, e)

	if st.Current == component.StateDead {
		*vel = component.Velocity{}
		return
	}
	if ctx.Locked {
		return
	}

	now := w.Time()
	if !st.Aggressive {
		ctx.CancelWindup()
		s.setState(e, st, component.StateIdle)
		*vel = component.Velocity{}
		return
	}

	pos := tf.Pos()
	target := ecs.FromRef(ctx.Target)
	targetPos, hasTarget := s.targetPosition(w, target, pos)

	if r, ok := ecs.Get(w, e, component.RangedComponent.Kind()); ok {
		s.tickRanged(w, e, agent, st, ctx, r, target, pos, targetPos, hasTarget, vel, now)
		return
	}

	if ctx.WindingUp && now >= ctx.WindupEnds {
		s.resolveWindup(e, agent, ctx, target, pos, targetPos, hasTarget)
	}

	if !hasTarget {
		s.setState(e, st, component.StatePatrol)
		s.patrol(agent, ctx, pos, vel, now)
		return
	}

	dist := pos.Distance(targetPos)
	switch {
	case dist <= agent.AttackRange:
		s.setState(e, st, component.StateAttack)
		*vel = component.Velocity{}
		s.attack(e, agent, ctx, target, pos, targetPos, now)
	case dist <= agent.DetectionRange:
		s.setState(e, st, component.StateChase)
		ctx.HasWander = false
		setVelocity(vel, targetPos.Sub(pos), agent.ChaseSpeed*ctx.SpeedMultiplier)
	default:
		s.setState(e, st, component.StatePatrol)
		s.patrol(agent, ctx, pos, vel, now)
	}
}

// targetPosition resolves the weak target handle. A target that is gone
// or cannot be reached counts as missing.
func (s *AgentSystem) targetPosition(w *ecs.World, target ecs.Entity, from cp.Vector) (cp.Vector, bool) {
	ttf, ok := ecs.Get(w, target, component.TransformComponent.Kind())
	if !ok {
		return cp.Vector{}, false
	}
	to := ttf.Pos()
	if !s.nav.CanReach(from, to) {
		return cp.Vector{}, false
	}
	return to, true
}

func (s *AgentSystem) setState(e ecs.Entity, st *component.AIState, next component.BehaviorState) {
	from := st.Current
	if transition(st, next) {
		s.log.WithFields(logrus.Fields{
			"agent": e.String(),
			"from":  from.String(),
			"to":    st.Current.String(),
		}).Trace("state change")
	}
}

func (s *AgentSystem) patrol(agent *component.Agent, ctx *component.AIContext, pos cp.Vector, vel *component.Velocity, now float64) {
	if !ctx.HasWander || now-ctx.LastWanderTime >= agent.WanderInterval {
		dx, dy := common.RandomInDisc(s.rng, agent.WanderRadius)
		ctx.WanderX = ctx.OriginX + dx
		ctx.WanderY = ctx.OriginY + dy
		ctx.HasWander = true
		ctx.LastWanderTime = now
	}
	goal := cp.Vector{X: ctx.WanderX, Y: ctx.WanderY}
	if pos.Distance(goal) <= wanderArrive {
		*vel = component.Velocity{}
		return
	}
	setVelocity(vel, goal.Sub(pos), agent.WalkSpeed()*ctx.SpeedMultiplier)
}

func (s *AgentSystem) attack(e ecs.Entity, agent *component.Agent, ctx *component.AIContext, target ecs.Entity, pos, targetPos cp.Vector, now float64) {
	if ctx.WindingUp || now < ctx.LastAttackTime+agent.AttackCooldown {
		return
	}
	ctx.WindingUp = true
	ctx.LastAttackTime = now
	ctx.WindupEnds = now + agent.AttackWindup
	s.presenter.ShowTelegraph(e, agent.AttackWindup+telegraphLead)
	if agent.AttackWindup <= 0 {
		s.resolveWindup(e, agent, ctx, target, pos, targetPos, true)
	}
}

// resolveWindup lands a pending attack if the target is still within the
// slack range, then clears the windup either way.
func (s *AgentSystem) resolveWindup(e ecs.Entity, agent *component.Agent, ctx *component.AIContext, target ecs.Entity, pos, targetPos cp.Vector, hasTarget bool) {
	ctx.CancelWindup()
	if !hasTarget || s.pipeline == nil {
		return
	}
	if pos.Distance(targetPos) > agent.AttackRange*attackReachSlack {
		return
	}
	s.pipeline.Submit(DamageEvent{
		Amount: agent.Damage * ctx.DamageMultiplier,
		Target: target,
		Source: e,
		Tag:    TagMelee,
		Attack: true,
	})
}

// tickRanged keeps a ranged agent between FleeRange and Range of its
// target and spits once per cooldown from there.
func (s *AgentSystem) tickRanged(w *ecs.World, e ecs.Entity, agent *component.Agent, st *component.AIState, ctx *component.AIContext, r *component.Ranged, target ecs.Entity, pos, targetPos cp.Vector, hasTarget bool, vel *component.Velocity, now float64) {
	if ctx.WindingUp && now >= ctx.WindupEnds {
		ctx.CancelWindup()
		if hasTarget {
			s.spit(w, e, ctx, r, target, pos, targetPos)
		}
	}

	if !hasTarget {
		s.setState(e, st, component.StatePatrol)
		s.patrol(agent, ctx, pos, vel, now)
		return
	}

	dist := pos.Distance(targetPos)
	switch {
	case dist < r.FleeRange:
		ctx.CancelWindup()
		ctx.HasWander = false
		s.setState(e, st, component.StateChase)
		setVelocity(vel, pos.Sub(targetPos), r.MoveSpeed*r.FleeSpeedFactor*ctx.SpeedMultiplier)
	case dist <= r.Range:
		s.setState(e, st, component.StateAttack)
		*vel = component.Velocity{}
		if ctx.WindingUp || now < ctx.LastAttackTime+r.Cooldown {
			return
		}
		ctx.LastAttackTime = now
		s.presenter.ShowTelegraph(e, r.Windup+telegraphLead)
		if r.Windup <= 0 {
			s.spit(w, e, ctx, r, target, pos, targetPos)
			return
		}
		ctx.WindingUp = true
		ctx.WindupEnds = now + r.Windup
	case dist <= agent.DetectionRange:
		ctx.HasWander = false
		s.setState(e, st, component.StateChase)
		setVelocity(vel, targetPos.Sub(pos), r.MoveSpeed*ctx.SpeedMultiplier)
	default:
		s.setState(e, st, component.StatePatrol)
		s.patrol(agent, ctx, pos, vel, now)
	}
}

// spit launches a projectile at where the target stands now. The shot
// carries its own damage so it still lands if the shooter dies.
func (s *AgentSystem) spit(w *ecs.World, e ecs.Entity, ctx *component.AIContext, r *component.Ranged, target ecs.Entity, pos, targetPos cp.Vector) {
	dir := targetPos.Sub(pos)
	if dir.Length() == 0 {
		return
	}
	dir = dir.Normalize()
	start := pos.Add(dir.Mult(spitOffset))
	v := dir.Mult(r.ProjectileSpeed)

	shot := ecs.CreateEntity(w)
	err := errors.Join(
		ecs.Add(w, shot, component.TransformComponent.Kind(), &component.Transform{X: start.X, Y: start.Y}),
		ecs.Add(w, shot, component.VelocityComponent.Kind(), &component.Velocity{X: v.X, Y: v.Y}),
		ecs.Add(w, shot, component.ProjectileComponent.Kind(), &component.Projectile{
			Source:       e.Ref(),
			Target:       target.Ref(),
			Damage:       r.Damage * ctx.DamageMultiplier,
			HitRadius:    r.HitRadius,
			BurnDPS:      r.BurnDPS,
			BurnDuration: r.BurnDuration,
		}),
		ecs.Add(w, shot, component.TTLComponent.Kind(), &component.TTL{Seconds: r.ProjectileLifetime}),
	)
	if err != nil {
		s.log.WithError(err).Warn("spit failed")
		ecs.DestroyEntity(w, shot)
		return
	}
	s.log.WithFields(logrus.Fields{
		"agent": e.String(),
		"shot":  shot.String(),
	}).Trace("spit")
}

func setVelocity(vel *component.Velocity, dir cp.Vector, speed float64) {
	if dir.Length() == 0 || speed <= 0 {
		*vel = component.Velocity{}
		return
	}
	v := dir.Normalize().Mult(speed)
	vel.X, vel.Y = v.X, v.Y
}

func velocityOf(w *ecs.World, e ecs.Entity) *component.Velocity {
	if vel, ok := ecs.Get(w, e, component.VelocityComponent.Kind()); ok {
		return vel
	}
	vel := &component.Velocity{}
	_ = ecs.Add(w, e, component.VelocityComponent.Kind(), vel)
	return vel
}

// Kill forces agent e into Dead, dropping any pending windup. It reports
// whether the state changed.
func Kill(w *ecs.World, e ecs.Entity) bool {
	st, ok := ecs.Get(w, e, component.AIStateComponent.Kind())
	if !ok {
		return false
	}
	if ctx, ok := ecs.Get(w, e, component.AIContextComponent.Kind()); ok {
		ctx.CancelWindup()
		ctx.Locked = false
	}
	if vel, ok := ecs.Get(w, e, component.VelocityComponent.Kind()); ok {
		*vel = component.Velocity{}
	}
	return transition(st, component.StateDead)
}

// SetAggression pushes the phase clock's flag to every agent. Turning it
// off cancels pending windups.
func SetAggression(w *ecs.World, aggressive bool) {
	ecs.ForEach(w, component.AIStateComponent.Kind(), func(e ecs.Entity, st *component.AIState) {
		st.Aggressive = aggressive
		if aggressive {
			return
		}
		if ctx, ok := ecs.Get(w, e, component.AIContextComponent.Kind()); ok {
			ctx.CancelWindup()
		}
	})
}
