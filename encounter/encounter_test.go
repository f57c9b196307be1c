package encounter

import (
	"testing"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/ecs/system"
	"github.com/milk9111/horde/prefabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBundle is the embedded bundle on an open 40x40 arena with a single
// spawn point 18 units north of the player.
func testBundle(t *testing.T, difficulty string) *prefabs.Bundle {
	t.Helper()
	b, err := prefabs.LoadBundle(difficulty, "")
	require.NoError(t, err)
	b.Level = &prefabs.LevelSpec{
		Name:     "test",
		Width:    40,
		Height:   40,
		CellSize: 1,
		Player:   prefabs.PlayerSpec{X: 20, Y: 20, Health: 100},
		SpawnPoints: []prefabs.SpawnPointSpec{{
			ID:                    "north",
			X:                     20,
			Y:                     2,
			Weight:                1,
			ActivationNight:       1,
			MaxConcurrent:         50,
			MinDistanceFromPlayer: 5,
		}},
	}
	return b
}

func newTestEncounter(t *testing.T, opts Options) *Encounter {
	t.Helper()
	e, err := New(testBundle(t, "normal"), opts)
	require.NoError(t, err)
	return e
}

func spawnedAgents(events []ecs.Event) []ecs.Entity {
	var out []ecs.Entity
	for _, ev := range events {
		if sp, ok := ev.Data.(system.AgentSpawned); ok {
			out = append(out, sp.Agent)
		}
	}
	return out
}

func countEvents(events []ecs.Event, typ string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestLoadEmbeddedEncounter(t *testing.T) {
	e, err := Load("", "", Options{Seed: 1})
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Equal(t, "day", snap.Phase)
	assert.Equal(t, 60.0, snap.Width)
	assert.Equal(t, 40.0, snap.Height)
	assert.Equal(t, 100.0, snap.Player.Max)
	assert.NotNil(t, snap.Agents)
	assert.Empty(t, snap.Agents)
	assert.Equal(t, 0, e.RemainingEnemies())
	assert.False(t, e.IsNightComplete())
}

func TestNewRejectsIncompleteBundle(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, prefabs.ErrInvalidSpec)

	b := testBundle(t, "normal")
	b.Difficulty.ScoreMultiplier = 0
	_, err = New(b, Options{})
	assert.ErrorIs(t, err, system.ErrInvalidMultiplier)
}

func TestHardDifficultyScalesPlayerHealth(t *testing.T) {
	e, err := New(testBundle(t, "hard"), Options{})
	require.NoError(t, err)
	assert.InDelta(t, 75, e.Snapshot().Player.Max, 1e-9)
}

func TestScheduledNightRunsToCompletion(t *testing.T) {
	e := newTestEncounter(t, Options{Seed: 3})
	e.SetPhase(system.PhaseNight)
	require.NoError(t, e.ScheduleNight(1))

	var all []ecs.Event
	for i := 0; i < 200 && !e.IsNightComplete(); i++ {
		for _, a := range e.Snapshot().Agents {
			if a.State != component.StateDead.String() {
				e.DealDamage(ecs.FromRef(a.ID), 1000, "rifle")
			}
		}
		e.Tick(0.5)
		all = append(all, e.Events()...)
	}

	require.True(t, e.IsNightComplete())
	assert.Len(t, spawnedAgents(all), 12)
	assert.Equal(t, 12, countEvents(all, system.EventAgentDied))
	assert.Equal(t, 1, countEvents(all, system.EventNightCompleted))
	assert.Equal(t, 2, countEvents(all, system.EventWaveStarted))

	score := e.Score()
	assert.Equal(t, 12, score.Kills)
	assert.Equal(t, 12*10+100, score.Total)
	assert.Equal(t, 0, e.RemainingEnemies())
}

func TestDayPausesAgentsAndSpawning(t *testing.T) {
	e := newTestEncounter(t, Options{})
	e.SetPhase(system.PhaseNight)
	require.NoError(t, e.SpawnNight(1, []system.WaveSpec{{Index: 1, Count: 5, SpawnInterval: 1}}))

	e.Tick(0.5)
	agents := spawnedAgents(e.Events())
	require.Len(t, agents, 1)
	st, ok := e.AgentState(agents[0])
	require.True(t, ok)
	assert.Equal(t, component.StateChase, st)

	e.SetPhase(system.PhaseDay)
	for i := 0; i < 10; i++ {
		e.Tick(0.5)
	}
	st, _ = e.AgentState(agents[0])
	assert.Equal(t, component.StateIdle, st)
	assert.Equal(t, 1, e.RemainingEnemies())
	assert.Empty(t, spawnedAgents(e.Events()))

	e.SetPhase(system.PhaseNight)
	e.Tick(1)
	assert.Len(t, spawnedAgents(e.Events()), 1)
	st, _ = e.AgentState(agents[0])
	assert.NotEqual(t, component.StateIdle, st)
}

func TestDealDamageGoesThroughArmor(t *testing.T) {
	e := newTestEncounter(t, Options{})
	assert.True(t, e.EquipArmor(component.SlotVest, component.Tier3))
	assert.False(t, e.EquipArmor(component.SlotVest, component.Tier1))
	assert.True(t, e.EquipArmor(component.SlotHelmet, component.Tier2))

	out := e.DealDamage(e.Player(), 100, "test")
	assert.InDelta(t, 55+45*0.35, out.Absorbed, 1e-9)
	assert.InDelta(t, 100-out.Absorbed, out.Applied, 1e-9)

	snap := e.Snapshot()
	assert.InDelta(t, 100-out.Applied, snap.Player.Health, 1e-9)
	assert.InDelta(t, 230-55, snap.Player.Vest.Durability, 1e-9)
	assert.Equal(t, 1, countEvents(e.Events(), system.EventDamageResolved))
}

func TestApplyOverTimeTicksThroughPipeline(t *testing.T) {
	e := newTestEncounter(t, Options{})
	require.True(t, e.ApplyOverTime(e.Player(), 10, 1))

	e.Tick(0.5)
	e.Tick(0.5)
	assert.InDelta(t, 90, e.Snapshot().Player.Health, 1e-9)

	e.Tick(0.5)
	assert.InDelta(t, 90, e.Snapshot().Player.Health, 1e-9)

	assert.False(t, e.ApplyOverTime(e.Player(), 0, 1))
}

func TestAgentStateOfRemovedAgent(t *testing.T) {
	e := newTestEncounter(t, Options{})
	_, ok := e.AgentState(ecs.NoEntity)
	assert.False(t, ok)

	e.SetPhase(system.PhaseNight)
	require.NoError(t, e.SpawnNight(1, []system.WaveSpec{{Index: 1, Count: 1, SpawnInterval: 1}}))
	e.Tick(0.1)
	agents := spawnedAgents(e.Events())
	require.Len(t, agents, 1)

	out := e.DealDamage(agents[0], 1000, "rifle")
	assert.True(t, out.Died)
	st, ok := e.AgentState(agents[0])
	require.True(t, ok)
	assert.Equal(t, component.StateDead, st)

	// grace delay is 0.5s
	e.Tick(0.3)
	e.Tick(0.3)
	_, ok = e.AgentState(agents[0])
	assert.False(t, ok)
	assert.True(t, e.IsNightComplete())
}

func TestAutoCycleSchedulesNightfall(t *testing.T) {
	b := testBundle(t, "normal")
	b.Nights.Cycle = prefabs.CycleSpec{DaySeconds: 1, NightSeconds: 100}
	e, err := New(b, Options{AutoCycle: true})
	require.NoError(t, err)

	e.Tick(0.5)
	assert.Equal(t, system.PhaseDay, e.Phase())
	assert.Empty(t, spawnedAgents(e.Events()))

	e.Tick(0.5)
	assert.Equal(t, system.PhaseNight, e.Phase())
	assert.Len(t, spawnedAgents(e.Events()), 1)
	assert.Equal(t, 1, e.Snapshot().Night)
}

func TestScheduledNightRollsMutation(t *testing.T) {
	const seed = 9
	e := newTestEncounter(t, Options{Seed: seed})
	e.SetPhase(system.PhaseNight)

	require.NoError(t, e.ScheduleNight(1))
	assert.Equal(t, system.MutationNone, e.Mutation())
	assert.Zero(t, countEvents(e.Events(), system.EventNightMutation))

	want := system.RollMutation(2, common.NewRand(seed+1).Float64())
	require.NotEqual(t, system.MutationNone, want)
	require.NoError(t, e.ScheduleNight(2))
	assert.Equal(t, want, e.Mutation())
	assert.Equal(t, want.String(), e.Snapshot().Mutation)

	events := e.Events()
	require.Equal(t, 1, countEvents(events, system.EventNightMutation))
	for _, ev := range events {
		if m, ok := ev.Data.(system.NightMutation); ok {
			assert.Equal(t, 2, m.Night)
			assert.Equal(t, want, m.Mutation)
		}
	}

	e.Tick(0.1)
	cfg := e.NightConfig(2)
	mult := e.Difficulty().WaveCountMultiplier * want.WaveCountMultiplier()
	for _, ev := range e.Events() {
		if ws, ok := ev.Data.(system.WaveStarted); ok {
			assert.Equal(t, system.WaveEnemyCount(cfg.BaseEnemyCount, 1, mult), ws.Count)
		}
	}
}

func TestRegisterSpawnPointValidates(t *testing.T) {
	e := newTestEncounter(t, Options{})
	err := e.RegisterSpawnPoint(system.SpawnPoint{ID: "north", X: 1, Y: 1, Weight: 1, ActivationNight: 1, MaxConcurrent: 1})
	assert.ErrorIs(t, err, system.ErrDuplicateSpawn)

	err = e.RegisterSpawnPoint(system.SpawnPoint{ID: "south", X: 1, Y: 1, Weight: 0, ActivationNight: 1, MaxConcurrent: 1})
	assert.ErrorIs(t, err, system.ErrInvalidSpawnPoint)

	require.NoError(t, e.RegisterSpawnPoint(system.SpawnPoint{ID: "south", X: 20, Y: 38, Weight: 1, ActivationNight: 1, MaxConcurrent: 1}))
	e.ResetSpawnCounts()
}

func TestReloadSwapsDifficulty(t *testing.T) {
	e := newTestEncounter(t, Options{})

	hard := testBundle(t, "hard")
	require.NoError(t, e.Reload(hard))
	assert.Equal(t, "hard", e.Difficulty().Name)

	bad := testBundle(t, "easy")
	bad.Difficulty.EnemyHealthMultiplier = 0
	assert.ErrorIs(t, e.Reload(bad), system.ErrInvalidMultiplier)
	assert.Equal(t, "hard", e.Difficulty().Name)
}

func TestMovePlayerClampsToArena(t *testing.T) {
	e := newTestEncounter(t, Options{})
	e.MovePlayer(-5, 100)
	snap := e.Snapshot()
	assert.Equal(t, 0.0, snap.Player.X)
	assert.Equal(t, 40.0, snap.Player.Y)

	e.MovePlayer(10, 10)
	e.SetPlayerVelocity(2, 0)
	e.Tick(0.5)
	assert.InDelta(t, 11, e.Snapshot().Player.X, 1e-9)
}
