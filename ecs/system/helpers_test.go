package system

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/stretchr/testify/require"
)

func testStats() component.Agent {
	return component.Agent{
		Type:           "basic",
		MoveSpeed:      2.8,
		ChaseSpeed:     4.9,
		PatrolSpeed:    2.8,
		DetectionRange: 25,
		AttackRange:    1,
		AttackCooldown: 1,
		AttackWindup:   0.12,
		Damage:         10,
		WanderRadius:   3,
		WanderInterval: 1.5,
	}
}

func newPlayer(t *testing.T, w *ecs.World, x, y, health float64) ecs.Entity {
	t.Helper()
	p := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, p, component.PlayerTagComponent.Kind(), &component.PlayerTag{}))
	require.NoError(t, ecs.Add(w, p, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}))
	require.NoError(t, ecs.Add(w, p, component.HealthComponent.Kind(), component.NewHealth(health)))
	require.NoError(t, ecs.Add(w, p, component.ArmorComponent.Kind(), &component.Armor{}))
	return p
}

func newAgent(t *testing.T, w *ecs.World, target ecs.Entity, x, y, health float64) ecs.Entity {
	t.Helper()
	stats := testStats()
	ctx := component.NewAIContext(target.Ref(), x, y)
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}))
	require.NoError(t, ecs.Add(w, e, component.VelocityComponent.Kind(), &component.Velocity{}))
	require.NoError(t, ecs.Add(w, e, component.AgentComponent.Kind(), &stats))
	require.NoError(t, ecs.Add(w, e, component.AIStateComponent.Kind(), &component.AIState{
		Machine:    NewBehaviorMachine(),
		Current:    component.StateIdle,
		Aggressive: true,
	}))
	require.NoError(t, ecs.Add(w, e, component.AIContextComponent.Kind(), &ctx))
	require.NoError(t, ecs.Add(w, e, component.HealthComponent.Kind(), component.NewHealth(health)))
	require.NoError(t, ecs.Add(w, e, component.BountyComponent.Kind(), &component.Bounty{Points: 10}))
	return e
}

func stateOf(t *testing.T, w *ecs.World, e ecs.Entity) component.BehaviorState {
	t.Helper()
	st, ok := ecs.Get(w, e, component.AIStateComponent.Kind())
	require.True(t, ok)
	return st.Current
}

func healthOf(t *testing.T, w *ecs.World, e ecs.Entity) *component.Health {
	t.Helper()
	h, ok := ecs.Get(w, e, component.HealthComponent.Kind())
	require.True(t, ok)
	return h
}

func newTestPipeline() *DamagePipeline {
	return NewDamagePipeline(DamageConfig{
		Difficulty:       DefaultDifficulty(),
		GraceDelay:       0.5,
		VampiricFraction: 0.25,
	}, nil, nil, common.NewRand(1))
}

func eventsOf(w *ecs.World, eventType string) []ecs.Event {
	var out []ecs.Event
	for _, ev := range w.Events().Drain() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type recordingPresenter struct {
	telegraphs []float64
	broken     []component.ArmorSlotKind
	tints      []component.Tint
}

func (p *recordingPresenter) ShowTelegraph(_ ecs.Entity, s float64) {
	p.telegraphs = append(p.telegraphs, s)
}

func (p *recordingPresenter) OnArmorBroken(slot component.ArmorSlotKind) {
	p.broken = append(p.broken, slot)
}

func (p *recordingPresenter) OnVisualTint(_ ecs.Entity, tint component.Tint) {
	p.tints = append(p.tints, tint)
}

type blockedNavigator struct{}

func (blockedNavigator) HasLineOfSight(cp.Vector, cp.Vector) bool { return false }
func (blockedNavigator) CanReach(cp.Vector, cp.Vector) bool       { return false }

type deathRecorder struct {
	deaths []ecs.Entity
}

func (d *deathRecorder) OnAgentDeath(_ *ecs.World, e ecs.Entity) {
	d.deaths = append(d.deaths, e)
}

// stubSpawner creates bare agents aimed at target.
type stubSpawner struct {
	t        *testing.T
	target   ecs.Entity
	requests []SpawnRequest
	spawned  []ecs.Entity
	fail     bool
}

func (s *stubSpawner) SpawnAgent(w *ecs.World, req SpawnRequest) (ecs.Entity, error) {
	if s.fail {
		return ecs.NoEntity, ErrUnknownAgentType
	}
	s.requests = append(s.requests, req)
	health := req.Health
	if health <= 0 {
		health = 50
	}
	e := newAgent(s.t, w, s.target, req.X, req.Y, health)
	s.spawned = append(s.spawned, e)
	return e, nil
}

type extraRecorder struct {
	requests []SpawnRequest
}

func (r *extraRecorder) SpawnExtra(_ *ecs.World, req SpawnRequest) (ecs.Entity, bool) {
	r.requests = append(r.requests, req)
	return ecs.NoEntity, true
}
