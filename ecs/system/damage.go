package system

import (
	"math"
	"math/rand/v2"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

const (
	TagMelee     = "melee"
	TagExplosion = "explosion"
	TagCharge    = "charge"
	TagSlam      = "slam"
)

// DamageEvent is one request to hurt a target. Attack events come from an
// agent's own attack and are dropped if that agent dies before they
// resolve.
type DamageEvent struct {
	Amount float64
	Target ecs.Entity
	Source ecs.Entity
	Tag    string
	Attack bool
}

// Outcome reports what a resolution did. Died is true only for the event
// that caused the death; Residual is the target's health afterwards.
type Outcome struct {
	Died     bool
	Ignored  bool
	Residual float64
	Absorbed float64
	Applied  float64
}

// DeathListener is told about every agent death, after loot and scoring.
type DeathListener interface {
	OnAgentDeath(w *ecs.World, agent ecs.Entity)
}

// DamageConfig holds the pipeline's tunables.
type DamageConfig struct {
	Difficulty       Difficulty
	GraceDelay       float64
	VampiricFraction float64
}

// DamagePipeline is the only code that changes health or armor. Attacks
// are queued with Submit and resolved by DamageSystem at the end of the
// tick; external callers may Resolve directly between ticks.
type DamagePipeline struct {
	cfg       DamageConfig
	presenter Presenter
	scorer    Scorer
	rng       *rand.Rand
	listeners []DeathListener
	queue     []DamageEvent
	log       *logrus.Entry
}

func NewDamagePipeline(cfg DamageConfig, presenter Presenter, scorer Scorer, rng *rand.Rand) *DamagePipeline {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	if scorer == nil {
		scorer = NopScorer{}
	}
	if rng == nil {
		rng = common.NewRand(1)
	}
	return &DamagePipeline{
		cfg:       cfg,
		presenter: presenter,
		scorer:    scorer,
		rng:       rng,
		log:       logger.For("damage"),
	}
}

// AddDeathListener registers l; listeners run in registration order.
func (p *DamagePipeline) AddDeathListener(l DeathListener) {
	if l != nil {
		p.listeners = append(p.listeners, l)
	}
}

// SetDifficulty swaps the run multipliers, e.g. after a config reload.
func (p *DamagePipeline) SetDifficulty(d Difficulty) {
	p.cfg.Difficulty = d
}

// Submit defers ev to the next flush.
func (p *DamagePipeline) Submit(ev DamageEvent) {
	p.queue = append(p.queue, ev)
}

// Pending is the number of queued events.
func (p *DamagePipeline) Pending() int {
	return len(p.queue)
}

// Flush resolves queued events in order. Events queued while flushing
// (explosions) resolve in the same flush.
func (p *DamagePipeline) Flush(w *ecs.World) {
	for i := 0; i < len(p.queue); i++ {
		ev := p.queue[i]
		if ev.Attack && sourceDead(w, ev.Source) {
			continue
		}
		p.Resolve(w, ev)
	}
	p.queue = p.queue[:0]
}

func sourceDead(w *ecs.World, source ecs.Entity) bool {
	if !ecs.IsAlive(w, source) {
		return true
	}
	st, ok := ecs.Get(w, source, component.AIStateComponent.Kind())
	return ok && st.Current == component.StateDead
}

// Resolve applies ev now.
func (p *DamagePipeline) Resolve(w *ecs.World, ev DamageEvent) Outcome {
	health, ok := ecs.Get(w, ev.Target, component.HealthComponent.Kind())
	if !ok {
		return Outcome{Ignored: true}
	}
	if health.Dead || !(ev.Amount > 0) || math.IsInf(ev.Amount, 0) {
		return Outcome{Ignored: true, Residual: health.Current}
	}

	amount := ev.Amount
	var absorbed float64
	isPlayer := ecs.Has(w, ev.Target, component.PlayerTagComponent.Kind())
	if isPlayer {
		if armor, ok := ecs.Get(w, ev.Target, component.ArmorComponent.Kind()); ok {
			amount, absorbed = p.absorb(w, armor, amount)
		}
		amount *= p.cfg.Difficulty.PlayerDamageTakenMultiplier
	}

	applied, died := health.Drain(amount)
	out := Outcome{
		Died:     died,
		Residual: health.Current,
		Absorbed: absorbed,
		Applied:  applied,
	}
	publish(w, EventDamageResolved, DamageResolved{Event: ev, Outcome: out})

	if applied > 0 && ev.Attack {
		p.leech(w, ev.Source, applied)
	}

	if died {
		if isPlayer {
			p.log.WithFields(logrus.Fields{"tag": ev.Tag}).Info("player died")
			publish(w, EventPlayerDied, PlayerDied{Player: ev.Target, Tag: ev.Tag})
		} else {
			p.agentDied(w, ev.Target, ev.Tag)
		}
	}
	return out
}

// absorb runs vest then helmet over amount and returns what is left.
func (p *DamagePipeline) absorb(w *ecs.World, armor *component.Armor, amount float64) (float64, float64) {
	var total float64
	for _, kind := range []component.ArmorSlotKind{component.SlotVest, component.SlotHelmet} {
		remaining, absorbed, broke := absorbSlot(armor.Slot(kind), kind, amount)
		amount = remaining
		total += absorbed
		if broke {
			p.presenter.OnArmorBroken(kind)
			publish(w, EventArmorBroken, ArmorBroken{Slot: kind})
		}
	}
	return amount, total
}

// absorbSlot takes reduction*amount, capped by durability, out of amount.
// A slot drained to zero reverts to TierNone and reports broke.
func absorbSlot(slot *component.ArmorSlot, kind component.ArmorSlotKind, amount float64) (remaining, absorbed float64, broke bool) {
	if slot.Tier == component.TierNone || slot.Durability <= 0 {
		return amount, 0, false
	}
	absorbed = amount * slot.Stats(kind).Reduction
	if absorbed > slot.Durability {
		absorbed = slot.Durability
	}
	slot.Durability -= absorbed
	if slot.Durability <= 0 {
		slot.Durability = 0
		slot.Tier = component.TierNone
		broke = true
	}
	return amount - absorbed, absorbed, broke
}

func (p *DamagePipeline) leech(w *ecs.World, source ecs.Entity, applied float64) {
	if p.cfg.VampiricFraction <= 0 {
		return
	}
	affix, ok := ecs.Get(w, source, component.AffixComponent.Kind())
	if !ok || affix.Kind != component.AffixVampiric {
		return
	}
	p.Heal(w, source, applied*p.cfg.VampiricFraction)
}

// Heal restores health on a live target and returns the amount healed.
func (p *DamagePipeline) Heal(w *ecs.World, target ecs.Entity, amount float64) float64 {
	health, ok := ecs.Get(w, target, component.HealthComponent.Kind())
	if !ok {
		return 0
	}
	return health.Restore(amount)
}

func (p *DamagePipeline) agentDied(w *ecs.World, agent ecs.Entity, tag string) {
	Kill(w, agent)

	var x, y float64
	if tf, ok := ecs.Get(w, agent, component.TransformComponent.Kind()); ok {
		x, y = tf.X, tf.Y
	}

	points := 0
	if bounty, ok := ecs.Get(w, agent, component.BountyComponent.Kind()); ok {
		if p.rng.Float64() < bounty.DropChance*p.cfg.Difficulty.ResourceSpawnMultiplier {
			publish(w, EventLootDropped, LootDropped{Agent: agent, X: x, Y: y})
		}
		points = common.RoundHalfUp(float64(bounty.Points) * p.cfg.Difficulty.ScoreMultiplier)
	}
	p.scorer.OnEnemyKilled(points)

	for _, l := range p.listeners {
		l.OnAgentDeath(w, agent)
	}

	if ex, ok := ecs.Get(w, agent, component.ExplosiveComponent.Kind()); ok {
		p.explode(w, agent, x, y, ex)
	}

	_ = ecs.Add(w, agent, component.TTLComponent.Kind(), &component.TTL{Seconds: p.cfg.GraceDelay})

	typ := ""
	if a, ok := ecs.Get(w, agent, component.AgentComponent.Kind()); ok {
		typ = a.Type
	}
	p.log.WithFields(logrus.Fields{
		"agent":  agent.String(),
		"type":   typ,
		"points": points,
		"tag":    tag,
	}).Debug("agent died")
	publish(w, EventAgentDied, AgentDied{Agent: agent, Type: typ, Points: points, Tag: tag})
}

// explode queues falloff damage to the player and to other live agents.
func (p *DamagePipeline) explode(w *ecs.World, source ecs.Entity, x, y float64, ex *component.Explosive) {
	center := component.Transform{X: x, Y: y}.Pos()
	ecs.ForEach2(w, component.HealthComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, h *component.Health, tf *component.Transform) {
		if e == source || h.Dead {
			return
		}
		scale := 1.0
		switch {
		case ecs.Has(w, e, component.PlayerTagComponent.Kind()):
		case ecs.Has(w, e, component.AgentComponent.Kind()):
			scale = ex.AgentDamageScale
		default:
			return
		}
		dmg := ex.Damage * scale * common.Falloff(center.Distance(tf.Pos()), ex.Radius)
		if dmg <= 0 {
			return
		}
		p.Submit(DamageEvent{Amount: dmg, Target: e, Tag: TagExplosion})
	})
}

// ApplyOverTime installs or refreshes the kind slot on target. It returns
// false for dead or missing targets and non-positive inputs.
func (p *DamagePipeline) ApplyOverTime(w *ecs.World, target, source ecs.Entity, kind string, dps, duration float64) bool {
	if !(dps > 0) || !(duration > 0) {
		return false
	}
	health, ok := ecs.Get(w, target, component.HealthComponent.Kind())
	if !ok || health.Dead {
		return false
	}
	if kind == "" {
		kind = component.DefaultOverTimeKind
	}
	ot, ok := ecs.Get(w, target, component.OverTimeComponent.Kind())
	if !ok {
		ot = &component.OverTime{}
		if err := ecs.Add(w, target, component.OverTimeComponent.Kind(), ot); err != nil {
			return false
		}
	}
	if ot.Effects == nil {
		ot.Effects = make(map[string]*component.OverTimeEffect)
	}
	ot.Effects[kind] = &component.OverTimeEffect{DPS: dps, Remaining: duration, Source: source.Ref()}
	return true
}

// DamageSystem is the resolve pass: it flushes the pipeline once per tick
// after every agent has decided.
type DamageSystem struct {
	pipeline *DamagePipeline
}

func NewDamageSystem(p *DamagePipeline) *DamageSystem {
	return &DamageSystem{pipeline: p}
}

func (s *DamageSystem) Update(w *ecs.World, dt float64) {
	if w == nil || s.pipeline == nil {
		return
	}
	s.pipeline.Flush(w)
}
