package system

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/milk9111/horde/prefabs"
	"github.com/sirupsen/logrus"
)

var ErrUnknownAgentType = errors.New("factory: unknown agent type")

// EnemyType is one entry of the enemy catalog.
type EnemyType struct {
	Name             string
	Health           float64
	Points           int
	DropChance       float64
	SpeedMultiplier  float64
	DamageMultiplier float64
	MinNight         int
	RollBelow        float64
	Explosion        *component.Explosive
	Ranged           *component.Ranged
}

// SplitterConfig shapes the children a splitter leaves behind.
type SplitterConfig struct {
	Count           int
	Type            string
	Health          float64
	Points          int
	SpeedMultiplier float64
	Offset          float64
}

// AffixConfig tunes the affix roll and the affix effects.
type AffixConfig struct {
	Chance             float64
	MinNight           int
	BerserkerThreshold float64
	BerserkerBoost     float64
	RegenPerSecond     float64
	VampiricFraction   float64
	Splitter           SplitterConfig
}

// BossConfig is the boss layered over an agent of BaseType.
type BossConfig struct {
	BaseType string
	Health   float64
	Points   int
	Script   string
	Boss     component.Boss
}

// Catalog is everything the factory needs to build agents.
type Catalog struct {
	GraceDelay  float64
	DefaultType string
	Base        component.Agent
	Types       []EnemyType
	Affixes     AffixConfig
	Boss        *BossConfig
}

func CatalogFromSpec(enemies *prefabs.EnemyCatalogSpec, boss *prefabs.BossSpec) (*Catalog, error) {
	if enemies == nil {
		return nil, fmt.Errorf("%w: nil enemy catalog", prefabs.ErrInvalidSpec)
	}
	b := enemies.Base
	c := &Catalog{
		GraceDelay:  enemies.GraceDelay,
		DefaultType: enemies.DefaultType,
		Base: component.Agent{
			MoveSpeed:      b.MoveSpeed,
			ChaseSpeed:     b.ChaseSpeed,
			PatrolSpeed:    b.PatrolSpeed,
			DetectionRange: b.DetectionRange,
			AttackRange:    b.AttackRange,
			AttackCooldown: b.AttackCooldown,
			AttackWindup:   b.AttackWindup,
			Damage:         b.Damage,
			WanderRadius:   b.WanderRadius,
			WanderInterval: b.WanderInterval,
		},
		Affixes: AffixConfig{
			Chance:             enemies.Affixes.Chance,
			MinNight:           enemies.Affixes.MinNight,
			BerserkerThreshold: enemies.Affixes.BerserkerThreshold,
			BerserkerBoost:     enemies.Affixes.BerserkerBoost,
			RegenPerSecond:     enemies.Affixes.RegenPerSecond,
			VampiricFraction:   enemies.Affixes.VampiricFraction,
			Splitter: SplitterConfig{
				Count:           enemies.Affixes.Splitter.Count,
				Type:            enemies.Affixes.Splitter.Type,
				Health:          enemies.Affixes.Splitter.Health,
				Points:          enemies.Affixes.Splitter.Points,
				SpeedMultiplier: enemies.Affixes.Splitter.SpeedMultiplier,
				Offset:          enemies.Affixes.Splitter.Offset,
			},
		},
	}
	if err := c.Base.Validate(); err != nil {
		return nil, err
	}
	for _, t := range enemies.Types {
		et := EnemyType{
			Name:             t.Name,
			Health:           t.Health,
			Points:           t.Points,
			DropChance:       t.DropChance,
			SpeedMultiplier:  orOne(t.SpeedMultiplier),
			DamageMultiplier: orOne(t.DamageMultiplier),
			MinNight:         t.MinNight,
			RollBelow:        t.RollBelow,
		}
		if t.Explosion != nil {
			et.Explosion = &component.Explosive{
				Radius:           t.Explosion.Radius,
				Damage:           t.Explosion.Damage,
				AgentDamageScale: t.Explosion.AgentDamageScale,
			}
		}
		if t.Ranged != nil {
			r, err := rangedFromSpec(t.Name, t.Ranged)
			if err != nil {
				return nil, err
			}
			et.Ranged = r
		}
		if !(et.Health > 0) {
			return nil, fmt.Errorf("%w: type %q health %v", prefabs.ErrInvalidSpec, t.Name, t.Health)
		}
		c.Types = append(c.Types, et)
	}
	if _, ok := c.Find(c.DefaultType); !ok {
		return nil, fmt.Errorf("%w: default type %q", ErrUnknownAgentType, c.DefaultType)
	}
	if boss != nil {
		bc, err := bossFromSpec(boss)
		if err != nil {
			return nil, err
		}
		c.Boss = bc
	}
	return c, nil
}

func rangedFromSpec(name string, spec *prefabs.RangedSpec) (*component.Ranged, error) {
	r := &component.Ranged{
		Range:              spec.Range,
		FleeRange:          spec.FleeRange,
		MoveSpeed:          spec.MoveSpeed,
		FleeSpeedFactor:    orOne(spec.FleeSpeedFactor),
		Cooldown:           spec.Cooldown,
		Windup:             spec.Windup,
		Damage:             spec.Damage,
		ProjectileSpeed:    spec.ProjectileSpeed,
		ProjectileLifetime: spec.ProjectileLifetime,
		HitRadius:          spec.HitRadius,
		BurnDPS:            spec.BurnDPS,
		BurnDuration:       spec.BurnDuration,
	}
	switch {
	case !(r.Range > 0) || r.FleeRange < 0 || r.FleeRange >= r.Range:
		return nil, fmt.Errorf("%w: type %q ranges %v/%v", prefabs.ErrInvalidSpec, name, r.FleeRange, r.Range)
	case !(r.MoveSpeed > 0) || !(r.ProjectileSpeed > 0) || !(r.ProjectileLifetime > 0):
		return nil, fmt.Errorf("%w: type %q ranged speeds", prefabs.ErrInvalidSpec, name)
	case r.Cooldown < 0 || r.Windup < 0 || r.Damage < 0 || !(r.HitRadius > 0):
		return nil, fmt.Errorf("%w: type %q ranged attack", prefabs.ErrInvalidSpec, name)
	}
	return r, nil
}

func bossFromSpec(spec *prefabs.BossSpec) (*BossConfig, error) {
	if len(spec.Phases) != 3 {
		return nil, fmt.Errorf("%w: boss needs 3 phases", prefabs.ErrInvalidSpec)
	}
	b := component.Boss{
		Name:            spec.Name,
		CheckInterval:   spec.CheckInterval,
		Phase2Threshold: spec.Phase2Threshold,
		Phase3Threshold: spec.Phase3Threshold,
		FinishThreshold: spec.FinishThreshold,
		SpecialInterval: spec.SpecialInterval,
		MinionOffset:    spec.MinionOffset,
		Phase3Tint:      component.Tint{R: spec.Phase3Tint[0], G: spec.Phase3Tint[1], B: spec.Phase3Tint[2]},
		Charge: component.BossCharge{
			Telegraph: spec.Charge.Telegraph,
			Duration:  spec.Charge.Duration,
			Speed:     spec.Charge.Speed,
			Damage:    spec.Charge.Damage,
			HitRadius: spec.Charge.HitRadius,
		},
		Slam: component.BossSlam{
			Windup:   spec.Slam.Windup,
			Radius:   spec.Slam.Radius,
			Damage:   spec.Slam.Damage,
			Recovery: spec.Slam.Recovery,
		},
	}
	for i, p := range spec.Phases {
		b.Phases[i] = component.BossPhaseParams{
			SpeedBoost:     orOne(p.SpeedBoost),
			MinionInterval: p.MinionInterval,
			MinionCount:    p.MinionCount,
			MinionType:     p.MinionType,
			MinionHealth:   p.MinionHealth,
			MinionPoints:   p.MinionPoints,
		}
	}
	if !(b.Phase3Threshold < b.Phase2Threshold) || !(b.CheckInterval > 0) {
		return nil, fmt.Errorf("%w: boss thresholds %v/%v", prefabs.ErrInvalidSpec, b.Phase2Threshold, b.Phase3Threshold)
	}
	return &BossConfig{
		BaseType: spec.BaseType,
		Health:   spec.Health,
		Points:   spec.Points,
		Script:   spec.Script,
		Boss:     b,
	}, nil
}

func orOne(v float64) float64 {
	if v > 0 {
		return v
	}
	return 1
}

// Find returns the named type.
func (c *Catalog) Find(name string) (EnemyType, bool) {
	for _, t := range c.Types {
		if t.Name == name {
			return t, true
		}
	}
	return EnemyType{}, false
}

// Pick chooses a type for night from a roll in [0,1): the first type
// whose MinNight has passed and whose RollBelow exceeds the roll wins.
func (c *Catalog) Pick(night int, roll float64) EnemyType {
	for _, t := range c.Types {
		if night >= t.MinNight && roll < t.RollBelow {
			return t
		}
	}
	t, _ := c.Find(c.DefaultType)
	return t
}

// AgentFactory builds agent entities with the catalog's stats scaled by
// night and difficulty. It implements AgentSpawner.
type AgentFactory struct {
	catalog    *Catalog
	difficulty Difficulty
	night      NightConfig
	player     ecs.Entity
	aggressive bool
	rng        *rand.Rand
	log        *logrus.Entry
}

func NewAgentFactory(catalog *Catalog, player ecs.Entity, d Difficulty, rng *rand.Rand) *AgentFactory {
	if rng == nil {
		rng = common.NewRand(1)
	}
	return &AgentFactory{
		catalog:    catalog,
		difficulty: d,
		night:      DefaultNightConfig(1),
		player:     player,
		rng:        rng,
		log:        logger.For("factory"),
	}
}

// SetNight sets the night whose multipliers apply to new spawns.
func (f *AgentFactory) SetNight(cfg NightConfig) {
	f.night = cfg
}

func (f *AgentFactory) SetDifficulty(d Difficulty) {
	f.difficulty = d
}

// SetAggressive is the aggression new agents start with.
func (f *AgentFactory) SetAggressive(aggressive bool) {
	f.aggressive = aggressive
}

func (f *AgentFactory) SpawnAgent(w *ecs.World, req SpawnRequest) (ecs.Entity, error) {
	if f.catalog == nil {
		return ecs.NoEntity, fmt.Errorf("%w: no catalog", ErrUnknownAgentType)
	}
	if req.Boss {
		return f.spawnBoss(w, req)
	}

	var typ EnemyType
	if req.Type != "" {
		t, ok := f.catalog.Find(req.Type)
		if !ok {
			return ecs.NoEntity, fmt.Errorf("%w: %q", ErrUnknownAgentType, req.Type)
		}
		typ = t
	} else {
		typ = f.catalog.Pick(f.night.Night, f.rng.Float64())
	}

	health := typ.Health
	if req.Health > 0 {
		health = req.Health
	}
	points := typ.Points
	if req.Points > 0 {
		points = req.Points
	}

	affix := component.AffixNone
	if !req.NoAffix && !req.Minion {
		affix = f.rollAffix()
	}

	e, err := f.build(w, req, typ, health, points)
	if err != nil {
		return ecs.NoEntity, err
	}
	if affix != component.AffixNone {
		if err := ecs.Add(w, e, component.AffixComponent.Kind(), &component.Affix{Kind: affix}); err != nil {
			return ecs.NoEntity, err
		}
	}
	f.announce(w, e, typ.Name, req, affix)
	return e, nil
}

func (f *AgentFactory) rollAffix() component.AffixKind {
	cfg := f.catalog.Affixes
	if f.night.Night < cfg.MinNight || !(f.rng.Float64() < cfg.Chance) {
		return component.AffixNone
	}
	return component.AllAffixes[f.rng.IntN(len(component.AllAffixes))]
}

func (f *AgentFactory) build(w *ecs.World, req SpawnRequest, typ EnemyType, health float64, points int) (ecs.Entity, error) {
	speed := typ.SpeedMultiplier * f.night.SpeedMultiplier * f.night.Mutation.SpeedMultiplier() * f.difficulty.SpeedMultiplier
	if req.SpeedMultiplier > 0 {
		speed *= req.SpeedMultiplier
	}
	damage := typ.DamageMultiplier * f.night.DamageMultiplier * f.difficulty.DamageMultiplier
	health *= f.night.HealthMultiplier * f.difficulty.HealthMultiplier

	stats := f.catalog.Base
	stats.Type = typ.Name

	ctx := component.NewAIContext(f.player.Ref(), req.X, req.Y)
	ctx.BaseSpeedMultiplier = speed
	ctx.ApplySpeedMultiplier(speed)
	ctx.ApplyDamageMultiplier(damage)

	e := ecs.CreateEntity(w)
	err := errors.Join(
		ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: req.X, Y: req.Y}),
		ecs.Add(w, e, component.VelocityComponent.Kind(), &component.Velocity{}),
		ecs.Add(w, e, component.AgentComponent.Kind(), &stats),
		ecs.Add(w, e, component.AIStateComponent.Kind(), &component.AIState{
			Machine:    NewBehaviorMachine(),
			Current:    component.StateIdle,
			Aggressive: f.aggressive,
		}),
		ecs.Add(w, e, component.AIContextComponent.Kind(), &ctx),
		ecs.Add(w, e, component.HealthComponent.Kind(), component.NewHealth(health)),
		ecs.Add(w, e, component.BountyComponent.Kind(), &component.Bounty{Points: points, DropChance: typ.DropChance}),
	)
	if typ.Explosion != nil {
		ex := *typ.Explosion
		err = errors.Join(err, ecs.Add(w, e, component.ExplosiveComponent.Kind(), &ex))
	}
	if typ.Ranged != nil {
		r := *typ.Ranged
		err = errors.Join(err, ecs.Add(w, e, component.RangedComponent.Kind(), &r))
	}
	if req.Minion {
		err = errors.Join(err, ecs.Add(w, e, component.MinionTagComponent.Kind(), &component.MinionTag{}))
	}
	if err != nil {
		ecs.DestroyEntity(w, e)
		return ecs.NoEntity, fmt.Errorf("factory: build %q: %w", typ.Name, err)
	}
	return e, nil
}

func (f *AgentFactory) spawnBoss(w *ecs.World, req SpawnRequest) (ecs.Entity, error) {
	bc := f.catalog.Boss
	if bc == nil {
		return ecs.NoEntity, fmt.Errorf("%w: no boss configured", ErrUnknownAgentType)
	}
	typ, ok := f.catalog.Find(bc.BaseType)
	if !ok {
		return ecs.NoEntity, fmt.Errorf("%w: boss base %q", ErrUnknownAgentType, bc.BaseType)
	}
	typ.Explosion = nil
	typ.Ranged = nil

	e, err := f.build(w, req, typ, bc.Health, bc.Points)
	if err != nil {
		return ecs.NoEntity, err
	}
	boss := bc.Boss
	p1 := boss.Params(component.BossPhase1)
	if err := errors.Join(
		ecs.Add(w, e, component.BossComponent.Kind(), &boss),
		ecs.Add(w, e, component.BossRuntimeComponent.Kind(), &component.BossRuntime{
			Phase:        component.BossPhase1,
			CheckTimer:   boss.CheckInterval,
			MinionTimer:  p1.MinionInterval,
			SpecialTimer: boss.SpecialInterval,
		}),
	); err != nil {
		ecs.DestroyEntity(w, e)
		return ecs.NoEntity, err
	}
	f.log.WithFields(logrus.Fields{
		"boss":  boss.Name,
		"night": req.Night,
	}).Info("boss spawned")
	f.announce(w, e, typ.Name, req, component.AffixNone)
	return e, nil
}

func (f *AgentFactory) announce(w *ecs.World, e ecs.Entity, typ string, req SpawnRequest, affix component.AffixKind) {
	point := ""
	if req.Point != nil {
		point = req.Point.ID
	}
	f.log.WithFields(logrus.Fields{
		"agent": e.String(),
		"type":  typ,
		"point": point,
		"affix": string(affix),
	}).Debug("agent spawned")
	publish(w, EventAgentSpawned, AgentSpawned{
		Agent:  e,
		Type:   typ,
		Point:  point,
		Affix:  affix,
		Night:  req.Night,
		Minion: req.Minion,
	})
}
