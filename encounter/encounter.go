// Package encounter wires the world, the systems and the prefab bundle
// into one nightly encounter.
package encounter

import (
	"fmt"
	"math/rand/v2"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/ecs/system"
	"github.com/milk9111/horde/logger"
	"github.com/milk9111/horde/prefabs"
	"github.com/sirupsen/logrus"
)

// Options configures a new encounter. Zero values are usable.
type Options struct {
	Seed      uint64
	Presenter system.Presenter
	Scorer    system.Scorer
	// AutoCycle runs the day/night cycle as the first system and schedules
	// each night as it falls.
	AutoCycle bool
}

// Encounter is a single run: one player, one level, any number of nights.
// It is not safe for concurrent use.
type Encounter struct {
	world      *ecs.World
	player     ecs.Entity
	difficulty system.Difficulty
	nights     *prefabs.NightTable
	opts       Options

	cycle    *system.DayNightCycle
	pipeline *system.DamagePipeline
	factory  *system.AgentFactory
	spawner  *system.SpawnOrchestrator
	boss     *system.BossSystem

	mutations *rand.Rand
	mutation  system.Mutation

	score  system.ScoreTally
	events []ecs.Event
	log    *logrus.Entry
}

// Load builds an encounter from the named difficulty preset and level.
func Load(difficulty, level string, opts Options) (*Encounter, error) {
	b, err := prefabs.LoadBundle(difficulty, level)
	if err != nil {
		return nil, err
	}
	return New(b, opts)
}

// New builds an encounter from an already loaded bundle. It starts in Day.
func New(b *prefabs.Bundle, opts Options) (*Encounter, error) {
	if b == nil || b.Level == nil || b.Enemies == nil || b.Nights == nil {
		return nil, fmt.Errorf("%w: incomplete bundle", prefabs.ErrInvalidSpec)
	}
	diff, err := system.DifficultyFromSpec(b.Difficulty)
	if err != nil {
		return nil, err
	}
	catalog, err := system.CatalogFromSpec(b.Enemies, b.Boss)
	if err != nil {
		return nil, err
	}
	script, err := compileScript(b.BossScript)
	if err != nil {
		return nil, err
	}

	e := &Encounter{
		world:      ecs.NewWorld(),
		difficulty: diff,
		nights:     b.Nights,
		opts:       opts,
		log:        logger.For("encounter"),
	}
	rng := common.NewRand(opts.Seed)
	// Mutation rolls have their own stream.
	e.mutations = common.NewRand(opts.Seed + 1)

	lvl := b.Level
	obstacles := make([]ecs.Obstacle, 0, len(lvl.Obstacles))
	for _, o := range lvl.Obstacles {
		obstacles = append(obstacles, ecs.Obstacle{X: o.X, Y: o.Y, W: o.W, H: o.H})
	}
	cw := ecs.NewCollisionWorld(lvl.Width, lvl.Height, lvl.CellSize, obstacles)
	e.world.SetCollisionWorld(cw)

	player, err := e.spawnPlayer(lvl.Player)
	if err != nil {
		return nil, err
	}
	e.player = player

	e.pipeline = system.NewDamagePipeline(system.DamageConfig{
		Difficulty:       diff,
		GraceDelay:       catalog.GraceDelay,
		VampiricFraction: catalog.Affixes.VampiricFraction,
	}, opts.Presenter, e, rng)
	e.factory = system.NewAgentFactory(catalog, player, diff, rng)
	e.spawner = system.NewSpawnOrchestrator(player, e.factory, cw, rng)
	affixes := system.NewAffixSystem(catalog.Affixes, e.pipeline, e.spawner)
	e.boss = system.NewBossSystem(e.pipeline, e.spawner, opts.Presenter, script, rng)

	e.pipeline.AddDeathListener(e.spawner)
	e.pipeline.AddDeathListener(affixes)

	for _, sp := range lvl.SpawnPoints {
		if err := e.spawner.RegisterSpawnPoint(system.SpawnPoint{
			ID:                    sp.ID,
			X:                     sp.X,
			Y:                     sp.Y,
			Weight:                sp.Weight,
			ActivationNight:       sp.ActivationNight,
			MaxConcurrent:         sp.MaxConcurrent,
			MinDistanceFromPlayer: sp.MinDistanceFromPlayer,
			RequiresLineOfSight:   sp.RequiresLineOfSight,
			SpawnRadius:           sp.SpawnRadius,
		}); err != nil {
			return nil, err
		}
	}

	e.cycle = system.NewDayNightCycle(b.Nights.Cycle.DaySeconds, b.Nights.Cycle.NightSeconds)
	e.cycle.OnPhaseChanged(e.onPhase)
	if opts.AutoCycle {
		e.world.AddSystem(e.cycle)
	}
	e.world.AddSystem(e.spawner)
	e.world.AddSystem(e.boss)
	e.world.AddSystem(affixes)
	e.world.AddSystem(system.NewAgentSystem(e.pipeline, cw, opts.Presenter, rng))
	e.world.AddSystem(system.NewMovementSystem())
	e.world.AddSystem(system.NewProjectileSystem(e.pipeline))
	e.world.AddSystem(system.NewOverTimeSystem(e.pipeline))
	e.world.AddSystem(system.NewDamageSystem(e.pipeline))
	e.world.AddSystem(system.NewTTLSystem())

	e.subscribe()
	e.applyAggression(false)

	e.log.WithFields(logrus.Fields{
		"level":      lvl.Name,
		"difficulty": diff.Name,
		"points":     len(lvl.SpawnPoints),
	}).Info("encounter ready")
	return e, nil
}

func compileScript(src []byte) (*system.BossScript, error) {
	if len(src) == 0 {
		return nil, nil
	}
	return system.NewBossScript(src)
}

func (e *Encounter) spawnPlayer(spec prefabs.PlayerSpec) (ecs.Entity, error) {
	maxHealth := spec.Health
	if maxHealth <= 0 {
		maxHealth = 100
	}
	maxHealth *= e.difficulty.PlayerHealthMultiplier

	armor := &component.Armor{}
	armor.Equip(component.SlotVest, component.ArmorTier(spec.Vest))
	armor.Equip(component.SlotHelmet, component.ArmorTier(spec.Helmet))

	p := ecs.CreateEntity(e.world)
	for _, err := range []error{
		ecs.Add(e.world, p, component.PlayerTagComponent.Kind(), &component.PlayerTag{}),
		ecs.Add(e.world, p, component.TransformComponent.Kind(), &component.Transform{X: spec.X, Y: spec.Y}),
		ecs.Add(e.world, p, component.VelocityComponent.Kind(), &component.Velocity{}),
		ecs.Add(e.world, p, component.HealthComponent.Kind(), component.NewHealth(maxHealth)),
		ecs.Add(e.world, p, component.ArmorComponent.Kind(), armor),
	} {
		if err != nil {
			return ecs.NoEntity, fmt.Errorf("encounter: player: %w", err)
		}
	}
	return p, nil
}

var eventTypes = []string{
	system.EventAgentSpawned,
	system.EventAgentDied,
	system.EventLootDropped,
	system.EventPlayerDied,
	system.EventArmorBroken,
	system.EventDamageResolved,
	system.EventWaveStarted,
	system.EventSpawnDropped,
	system.EventNightCompleted,
	system.EventBossPhaseChanged,
	system.EventBossSpecialAttack,
	system.EventBossFinishIt,
	system.EventNightMutation,
}

// subscribe keeps every event until Events is called, including those
// raised between ticks by DealDamage.
func (e *Encounter) subscribe() {
	q := e.world.Events()
	for _, t := range eventTypes {
		q.Subscribe(t, func(ev ecs.Event) {
			e.events = append(e.events, ev)
		})
	}
	q.Subscribe(system.EventNightCompleted, func(ev ecs.Event) {
		if done, ok := ev.Data.(system.NightCompleted); ok {
			e.score.Total += done.Bonus
		}
	})
}

// OnEnemyKilled implements system.Scorer.
func (e *Encounter) OnEnemyKilled(points int) {
	e.score.OnEnemyKilled(points)
	if e.opts.Scorer != nil {
		e.opts.Scorer.OnEnemyKilled(points)
	}
}

func (e *Encounter) onPhase(p system.Phase) {
	night := p == system.PhaseNight
	e.applyAggression(night)
	if night && e.opts.AutoCycle {
		if err := e.ScheduleNight(e.cycle.Night()); err != nil {
			e.log.WithError(err).Warn("night schedule rejected")
		}
	}
}

func (e *Encounter) applyAggression(aggressive bool) {
	system.SetAggression(e.world, aggressive)
	e.factory.SetAggressive(aggressive)
	e.spawner.SetAggressive(aggressive)
}

// Tick advances the encounter by dt simulated seconds.
func (e *Encounter) Tick(dt float64) {
	e.world.Update(dt)
}

// SetPhase forces the phase clock.
func (e *Encounter) SetPhase(p system.Phase) {
	e.cycle.Set(p)
}

// Phase is the current half of the day/night cycle.
func (e *Encounter) Phase() system.Phase {
	return e.cycle.Phase()
}

// NightConfig returns the preset for night, or the extrapolated default.
func (e *Encounter) NightConfig(night int) system.NightConfig {
	if e.nights != nil {
		if spec, ok := e.nights.Find(night); ok {
			return system.NightConfigFromSpec(spec)
		}
	}
	return system.DefaultNightConfig(night)
}

// ScheduleNight starts night from its preset under the run difficulty.
// From night 2 on, a mutation is rolled for the night and announced with
// a NightMutation event.
func (e *Encounter) ScheduleNight(night int) error {
	cfg := e.NightConfig(night)
	if night > 1 {
		cfg.Mutation = system.RollMutation(night, e.mutations.Float64())
	}
	if err := e.spawner.ScheduleNight(cfg, e.difficulty); err != nil {
		return err
	}
	e.factory.SetNight(cfg)
	e.mutation = cfg.Mutation
	if cfg.Mutation != system.MutationNone {
		e.log.WithFields(logrus.Fields{
			"night":    night,
			"mutation": cfg.Mutation.String(),
		}).Info("night mutation")
		e.world.Events().Push(ecs.Event{
			Type: system.EventNightMutation,
			Data: system.NightMutation{Night: night, Mutation: cfg.Mutation},
		})
	}
	return nil
}

// Mutation is the modifier rolled for the last scheduled night.
func (e *Encounter) Mutation() system.Mutation {
	return e.mutation
}

// SpawnNight starts an explicit wave list for night. Agents use the
// night's preset multipliers.
func (e *Encounter) SpawnNight(night int, waves []system.WaveSpec) error {
	if err := e.spawner.SpawnNight(night, waves); err != nil {
		return err
	}
	e.factory.SetNight(e.NightConfig(night))
	return nil
}

func (e *Encounter) RegisterSpawnPoint(p system.SpawnPoint) error {
	return e.spawner.RegisterSpawnPoint(p)
}

func (e *Encounter) ResetSpawnCounts() {
	e.spawner.ResetSpawnCounts()
}

func (e *Encounter) RemainingEnemies() int {
	return e.spawner.RemainingEnemies()
}

func (e *Encounter) IsNightComplete() bool {
	return e.spawner.IsNightComplete()
}

// DealDamage resolves damage from outside the simulation, such as the
// player's weapon, immediately.
func (e *Encounter) DealDamage(target ecs.Entity, amount float64, tag string) system.Outcome {
	return e.pipeline.Resolve(e.world, system.DamageEvent{
		Amount: amount,
		Target: target,
		Tag:    tag,
	})
}

// ApplyOverTime installs a default-kind effect on target.
func (e *Encounter) ApplyOverTime(target ecs.Entity, dps, duration float64) bool {
	return e.ApplyOverTimeKind(target, component.DefaultOverTimeKind, dps, duration)
}

func (e *Encounter) ApplyOverTimeKind(target ecs.Entity, kind string, dps, duration float64) bool {
	return e.pipeline.ApplyOverTime(e.world, target, ecs.NoEntity, kind, dps, duration)
}

// AgentState reports the behavior state of id; ok is false once the
// entity has been removed.
func (e *Encounter) AgentState(id ecs.Entity) (component.BehaviorState, bool) {
	st, ok := ecs.Get(e.world, id, component.AIStateComponent.Kind())
	if !ok {
		return component.StateIdle, false
	}
	return st.Current, true
}

// EquipArmor puts tier into the player's slot.
func (e *Encounter) EquipArmor(slot component.ArmorSlotKind, tier component.ArmorTier) bool {
	armor, ok := ecs.Get(e.world, e.player, component.ArmorComponent.Kind())
	if !ok {
		return false
	}
	return armor.Equip(slot, tier)
}

// MovePlayer teleports the player, clamped to the arena.
func (e *Encounter) MovePlayer(x, y float64) {
	tf, ok := ecs.Get(e.world, e.player, component.TransformComponent.Kind())
	if !ok {
		return
	}
	tf.SetPos(e.world.CollisionWorld().ClampToBounds(component.Transform{X: x, Y: y}.Pos()))
}

// SetPlayerVelocity sets the player's movement for the following ticks.
func (e *Encounter) SetPlayerVelocity(vx, vy float64) {
	if vel, ok := ecs.Get(e.world, e.player, component.VelocityComponent.Kind()); ok {
		vel.X, vel.Y = vx, vy
	}
}

// Reload swaps the difficulty, night table and boss script from a freshly
// loaded bundle. Agents already alive keep their stats; the next night
// uses the new tables.
func (e *Encounter) Reload(b *prefabs.Bundle) error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", prefabs.ErrInvalidSpec)
	}
	diff, err := system.DifficultyFromSpec(b.Difficulty)
	if err != nil {
		return err
	}
	script, err := compileScript(b.BossScript)
	if err != nil {
		return err
	}
	e.difficulty = diff
	if b.Nights != nil {
		e.nights = b.Nights
	}
	e.pipeline.SetDifficulty(diff)
	e.factory.SetDifficulty(diff)
	e.boss.SetScript(script)
	e.log.WithFields(logrus.Fields{"difficulty": diff.Name}).Info("prefabs reloaded")
	return nil
}

// Events returns and clears everything published since the last call.
func (e *Encounter) Events() []ecs.Event {
	out := e.events
	e.events = nil
	return out
}

func (e *Encounter) Player() ecs.Entity {
	return e.player
}

func (e *Encounter) Score() system.ScoreTally {
	return e.score
}

func (e *Encounter) Difficulty() system.Difficulty {
	return e.difficulty
}

func (e *Encounter) World() *ecs.World {
	return e.world
}
