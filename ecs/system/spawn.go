package system

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidSpawnPoint = errors.New("spawn: invalid spawn point")
	ErrDuplicateSpawn    = errors.New("spawn: duplicate spawn point id")
)

// SpawnPoint is a weighted location agents enter from. The spawned count
// is owned by the orchestrator.
type SpawnPoint struct {
	ID                    string
	X, Y                  float64
	Weight                float64
	ActivationNight       int
	MaxConcurrent         int
	MinDistanceFromPlayer float64
	RequiresLineOfSight   bool
	SpawnRadius           float64

	spawned    int
	generation int
}

func (p *SpawnPoint) Pos() cp.Vector {
	return cp.Vector{X: p.X, Y: p.Y}
}

// Spawned is the number of live agents attributed to this point.
func (p *SpawnPoint) Spawned() int {
	return p.spawned
}

func (p SpawnPoint) Validate() error {
	switch {
	case !(p.Weight > 0) || p.Weight > 1:
		return fmt.Errorf("%w: %q weight %v", ErrInvalidSpawnPoint, p.ID, p.Weight)
	case p.MaxConcurrent < 1:
		return fmt.Errorf("%w: %q max concurrent %d", ErrInvalidSpawnPoint, p.ID, p.MaxConcurrent)
	case p.ActivationNight < 1:
		return fmt.Errorf("%w: %q activation night %d", ErrInvalidSpawnPoint, p.ID, p.ActivationNight)
	case p.MinDistanceFromPlayer < 0 || p.SpawnRadius < 0:
		return fmt.Errorf("%w: %q negative distance", ErrInvalidSpawnPoint, p.ID)
	}
	return nil
}

// SpawnRequest asks the spawner for one agent. Zero overrides fall back to
// the agent type's values.
type SpawnRequest struct {
	Night           int
	Wave            int
	Point           *SpawnPoint
	X, Y            float64
	Type            string
	Health          float64
	Points          int
	SpeedMultiplier float64
	Boss            bool
	Minion          bool
	NoAffix         bool
}

// AgentSpawner creates the entity for a request. AgentFactory implements it.
type AgentSpawner interface {
	SpawnAgent(w *ecs.World, req SpawnRequest) (ecs.Entity, error)
}

// ExtraSpawner spawns agents outside the wave schedule that still count
// toward the night. SpawnOrchestrator implements it.
type ExtraSpawner interface {
	SpawnExtra(w *ecs.World, req SpawnRequest) (ecs.Entity, bool)
}

// PickWeighted selects from candidates with probability proportional to
// weight, using u in [0,1). It returns the first point whose cumulative
// weight reaches u*total.
func PickWeighted(candidates []*SpawnPoint, u float64) *SpawnPoint {
	if len(candidates) == 0 {
		return nil
	}
	var total float64
	for _, c := range candidates {
		total += c.Weight
	}
	r := u * total
	var cum float64
	for _, c := range candidates {
		cum += c.Weight
		if cum >= r {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// SpawnOrchestrator paces wave requests through the night, picks spawn
// points and tracks which agents are still alive for each night.
type SpawnOrchestrator struct {
	player  ecs.Entity
	spawner AgentSpawner
	nav     Navigator
	rng     *rand.Rand

	points []*SpawnPoint
	byID   map[string]*SpawnPoint

	night      int
	waves      []WaveSpec
	waveIdx    int
	requested  int
	spawnTimer float64
	gapTimer   float64
	inGap      bool
	waveOpen   bool
	emitted    bool
	scheduled  bool
	hasBoss    bool
	bossSent   bool
	bonus      int
	completed  bool
	paused     bool

	live map[ecs.Entity]int
	log  *logrus.Entry
}

func NewSpawnOrchestrator(player ecs.Entity, spawner AgentSpawner, nav Navigator, rng *rand.Rand) *SpawnOrchestrator {
	if nav == nil {
		nav = OpenNavigator{}
	}
	if rng == nil {
		rng = common.NewRand(1)
	}
	return &SpawnOrchestrator{
		player:  player,
		spawner: spawner,
		nav:     nav,
		rng:     rng,
		byID:    make(map[string]*SpawnPoint),
		live:    make(map[ecs.Entity]int),
		log:     logger.For("spawn"),
	}
}

// RegisterSpawnPoint adds p. Points without an ID get one.
func (s *SpawnOrchestrator) RegisterSpawnPoint(p SpawnPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("spawn-%d", len(s.points)+1)
	}
	if _, ok := s.byID[p.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSpawn, p.ID)
	}
	p.spawned = 0
	p.generation = 0
	sp := &p
	s.points = append(s.points, sp)
	s.byID[sp.ID] = sp
	return nil
}

// SpawnPoints returns the registered points in registration order.
func (s *SpawnOrchestrator) SpawnPoints() []*SpawnPoint {
	return append([]*SpawnPoint(nil), s.points...)
}

// ResetSpawnCounts zeroes every point's counter. Agents spawned before the
// reset no longer count against their point when they die.
func (s *SpawnOrchestrator) ResetSpawnCounts() {
	for _, p := range s.points {
		p.spawned = 0
		p.generation++
	}
}

// SetAggressive pauses or resumes the schedule with the phase clock.
func (s *SpawnOrchestrator) SetAggressive(aggressive bool) {
	s.paused = !aggressive
}

// ScheduleNight starts cfg under difficulty d.
func (s *SpawnOrchestrator) ScheduleNight(cfg NightConfig, d Difficulty) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.SpawnNight(cfg.Night, cfg.Waves(d)); err != nil {
		return err
	}
	s.hasBoss = cfg.HasBoss
	s.bonus = cfg.CompletionBonus
	return nil
}

// SpawnNight replaces any running schedule with waves for night. The first
// wave begins on the next Update.
func (s *SpawnOrchestrator) SpawnNight(night int, waves []WaveSpec) error {
	if night < 1 {
		return fmt.Errorf("%w: night index %d", ErrInvalidNight, night)
	}
	if len(waves) == 0 {
		return fmt.Errorf("%w: night %d has no waves", ErrInvalidNight, night)
	}
	for _, w := range waves {
		if err := w.Validate(); err != nil {
			return err
		}
	}

	s.night = night
	s.waves = append([]WaveSpec(nil), waves...)
	s.waveIdx = 0
	s.requested = 0
	s.spawnTimer = 0
	s.gapTimer = 0
	s.inGap = false
	s.waveOpen = false
	s.emitted = false
	s.scheduled = true
	s.hasBoss = false
	s.bossSent = false
	s.bonus = 0
	s.completed = false

	total := 0
	for _, w := range waves {
		total += w.Count
	}
	s.log.WithFields(logrus.Fields{
		"night": night,
		"waves": len(waves),
		"total": total,
	}).Info("night scheduled")
	return nil
}

// Night is the index of the scheduled night.
func (s *SpawnOrchestrator) Night() int {
	return s.night
}

// Wave is the 1-based index of the wave in progress, 0 before the first.
func (s *SpawnOrchestrator) Wave() int {
	if !s.scheduled || (!s.waveOpen && !s.inGap && !s.emitted) {
		return 0
	}
	return s.waveIdx + 1
}

func (s *SpawnOrchestrator) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}
	if s.scheduled && !s.paused && !s.emitted {
		s.advance(w, dt)
	}
	s.checkComplete(w)
}

func (s *SpawnOrchestrator) advance(w *ecs.World, dt float64) {
	if s.inGap {
		s.gapTimer -= dt
		if s.gapTimer > 0 {
			return
		}
		s.inGap = false
		s.waveIdx++
		// leftover gap time counts toward the first interval
		s.spawnTimer = s.gapTimer
	}
	if !s.waveOpen {
		s.beginWave(w)
	} else {
		s.spawnTimer -= dt
	}

	wave := s.waves[s.waveIdx]
	for s.spawnTimer <= 0 && s.requested < wave.Count {
		s.request(w, wave)
		s.requested++
		s.spawnTimer += wave.SpawnInterval
	}
	if s.requested < wave.Count {
		return
	}

	s.waveOpen = false
	if s.waveIdx == len(s.waves)-1 {
		s.emitted = true
		s.log.WithFields(logrus.Fields{"night": s.night}).Debug("all waves requested")
		return
	}
	s.inGap = true
	s.gapTimer = wave.TimeBetweenWaves
}

func (s *SpawnOrchestrator) beginWave(w *ecs.World) {
	wave := s.waves[s.waveIdx]
	s.waveOpen = true
	s.requested = 0
	s.log.WithFields(logrus.Fields{
		"night": s.night,
		"wave":  wave.Index,
		"count": wave.Count,
	}).Info("wave started")
	publish(w, EventWaveStarted, WaveStarted{Night: s.night, Wave: wave.Index, Count: wave.Count})
}

// request emits one spawn request. A request with no eligible point is
// dropped but still counts toward the wave.
func (s *SpawnOrchestrator) request(w *ecs.World, wave WaveSpec) {
	playerPos, hasPlayer := s.playerPosition(w)
	candidates := s.eligible(playerPos, hasPlayer)
	if len(candidates) == 0 {
		s.log.WithFields(logrus.Fields{
			"night": s.night,
			"wave":  wave.Index,
		}).Debug("no eligible spawn point")
		publish(w, EventSpawnDropped, SpawnDropped{Night: s.night, Wave: wave.Index})
		return
	}

	point := PickWeighted(candidates, s.rng.Float64())
	dx, dy := common.RandomInDisc(s.rng, point.SpawnRadius)
	req := SpawnRequest{
		Night: s.night,
		Wave:  wave.Index,
		Point: point,
		X:     point.X + dx,
		Y:     point.Y + dy,
	}
	if s.hasBoss && !s.bossSent && s.waveIdx == len(s.waves)-1 {
		req.Boss = true
		s.bossSent = true
	}
	e, ok := s.spawn(w, req)
	if !ok {
		return
	}
	point.spawned++
	_ = ecs.Add(w, e, component.SpawnOriginComponent.Kind(), &component.SpawnOrigin{
		Night:      s.night,
		Point:      point.ID,
		Generation: point.generation,
	})
}

// SpawnExtra spawns an agent outside the schedule (minions, splitter
// children). It is tracked for night completion but has no spawn point.
func (s *SpawnOrchestrator) SpawnExtra(w *ecs.World, req SpawnRequest) (ecs.Entity, bool) {
	if req.Night == 0 {
		req.Night = s.night
	}
	req.Minion = true
	e, ok := s.spawn(w, req)
	if !ok {
		return ecs.NoEntity, false
	}
	_ = ecs.Add(w, e, component.SpawnOriginComponent.Kind(), &component.SpawnOrigin{Night: req.Night})
	return e, true
}

func (s *SpawnOrchestrator) spawn(w *ecs.World, req SpawnRequest) (ecs.Entity, bool) {
	if s.spawner == nil {
		return ecs.NoEntity, false
	}
	e, err := s.spawner.SpawnAgent(w, req)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"night": req.Night,
			"type":  req.Type,
		}).Warn("spawn failed")
		return ecs.NoEntity, false
	}
	s.live[e] = req.Night
	if s.paused {
		if st, ok := ecs.Get(w, e, component.AIStateComponent.Kind()); ok {
			st.Aggressive = false
		}
	}
	return e, true
}

func (s *SpawnOrchestrator) playerPosition(w *ecs.World) (cp.Vector, bool) {
	tf, ok := ecs.Get(w, s.player, component.TransformComponent.Kind())
	if !ok {
		return cp.Vector{}, false
	}
	return tf.Pos(), true
}

// eligible filters points by activation night, capacity, distance and
// line of sight, in registration order.
func (s *SpawnOrchestrator) eligible(playerPos cp.Vector, hasPlayer bool) []*SpawnPoint {
	var out []*SpawnPoint
	for _, p := range s.points {
		if p.ActivationNight > s.night || p.spawned >= p.MaxConcurrent {
			continue
		}
		if hasPlayer {
			if p.Pos().Distance(playerPos) < p.MinDistanceFromPlayer {
				continue
			}
			if p.RequiresLineOfSight && !s.nav.HasLineOfSight(p.Pos(), playerPos) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// OnAgentDeath releases the agent's slot exactly once.
func (s *SpawnOrchestrator) OnAgentDeath(w *ecs.World, agent ecs.Entity) {
	if _, ok := s.live[agent]; !ok {
		return
	}
	delete(s.live, agent)

	origin, ok := ecs.Get(w, agent, component.SpawnOriginComponent.Kind())
	if !ok {
		return
	}
	if p, ok := s.byID[origin.Point]; ok && p.generation == origin.Generation && p.spawned > 0 {
		p.spawned--
	}
}

// RemainingEnemies counts live agents of the scheduled night.
func (s *SpawnOrchestrator) RemainingEnemies() int {
	n := 0
	for _, night := range s.live {
		if night == s.night {
			n++
		}
	}
	return n
}

// IsNightComplete is true once every wave has been requested and no agent
// of the night is alive.
func (s *SpawnOrchestrator) IsNightComplete() bool {
	return s.scheduled && s.emitted && s.RemainingEnemies() == 0
}

func (s *SpawnOrchestrator) checkComplete(w *ecs.World) {
	if s.completed || !s.IsNightComplete() {
		return
	}
	s.completed = true
	s.log.WithFields(logrus.Fields{
		"night": s.night,
		"bonus": s.bonus,
	}).Info("night complete")
	publish(w, EventNightCompleted, NightCompleted{Night: s.night, Bonus: s.bonus})
}
