package system

import (
	"testing"

	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAffixConfig() AffixConfig {
	return AffixConfig{
		BerserkerThreshold: 0.3,
		BerserkerBoost:     1.5,
		RegenPerSecond:     5,
		VampiricFraction:   0.25,
		Splitter: SplitterConfig{
			Count: 2, Type: "runner", Health: 20, Points: 5, SpeedMultiplier: 1.3, Offset: 0.5,
		},
	}
}

func withAffix(t *testing.T, w *ecs.World, e ecs.Entity, kind component.AffixKind) {
	t.Helper()
	require.NoError(t, ecs.Add(w, e, component.AffixComponent.Kind(), &component.Affix{Kind: kind}))
}

func TestRegeneratorHealsPerSecond(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 0, 50)
	withAffix(t, w, agent, component.AffixRegenerator)
	healthOf(t, w, agent).Current = 20

	sys := NewAffixSystem(testAffixConfig(), newTestPipeline(), nil)
	sys.Update(w, 1)
	sys.Update(w, 0.5)

	assert.InDelta(t, 27.5, healthOf(t, w, agent).Current, 1e-9)
}

func TestBerserkerTriggersOnce(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 0, 100)
	withAffix(t, w, agent, component.AffixBerserker)
	ctx, _ := ecs.Get(w, agent, component.AIContextComponent.Kind())
	ctx.BaseSpeedMultiplier = 1.2
	ctx.ApplySpeedMultiplier(1.2)

	sys := NewAffixSystem(testAffixConfig(), newTestPipeline(), nil)
	sys.Update(w, 0.1)
	assert.InDelta(t, 1.2, ctx.SpeedMultiplier, 1e-9)

	healthOf(t, w, agent).Current = 30
	sys.Update(w, 0.1)
	assert.InDelta(t, 1.8, ctx.SpeedMultiplier, 1e-9)

	// applying again is idempotent
	sys.Update(w, 0.1)
	assert.InDelta(t, 1.8, ctx.SpeedMultiplier, 1e-9)
	affix, _ := ecs.Get(w, agent, component.AffixComponent.Kind())
	assert.True(t, affix.Triggered)
}

func TestSplitterSpawnsChildrenOnDeath(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 5, 10)
	withAffix(t, w, agent, component.AffixSplitter)
	require.NoError(t, ecs.Add(w, agent, component.SpawnOriginComponent.Kind(), &component.SpawnOrigin{Night: 3}))

	extra := &extraRecorder{}
	p := newTestPipeline()
	sys := NewAffixSystem(testAffixConfig(), p, extra)
	p.AddDeathListener(sys)
	p.Resolve(w, DamageEvent{Amount: 20, Target: agent})

	require.Len(t, extra.requests, 2)
	for _, req := range extra.requests {
		assert.Equal(t, 3, req.Night)
		assert.Equal(t, "runner", req.Type)
		assert.Equal(t, 20.0, req.Health)
		assert.Equal(t, 5, req.Points)
		assert.Equal(t, 1.3, req.SpeedMultiplier)
		assert.True(t, req.NoAffix)
	}
	assert.InDelta(t, 5.5, extra.requests[0].X, 1e-9)
	assert.InDelta(t, 4.5, extra.requests[1].X, 1e-9)
}

func TestNonSplitterDeathSpawnsNothing(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 5, 10)

	extra := &extraRecorder{}
	p := newTestPipeline()
	p.AddDeathListener(NewAffixSystem(testAffixConfig(), p, extra))
	p.Resolve(w, DamageEvent{Amount: 20, Target: agent})

	assert.Empty(t, extra.requests)
}
