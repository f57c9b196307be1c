package encounter

import (
	"testing"

	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutopilotShootsNearestInRange(t *testing.T) {
	e := newTestEncounter(t, Options{})
	e.SetPhase(system.PhaseNight)
	require.NoError(t, e.SpawnNight(1, []system.WaveSpec{{Index: 1, Count: 1, SpawnInterval: 1}}))
	e.Tick(0.1)
	agents := spawnedAgents(e.Events())
	require.Len(t, agents, 1)

	ap := NewAutopilot()
	// agent starts 18 units away, beyond range
	assert.Equal(t, ecs.NoEntity, ap.Step(e, 0.1))

	e.MovePlayer(20, 8)
	assert.Equal(t, agents[0], ap.Step(e, 0.1))
	assert.Equal(t, ecs.NoEntity, ap.Step(e, 0.1), "cooling down")

	for i := 0; i < 3; i++ {
		ap.Step(e, ap.Cooldown)
	}
	st, _ := e.AgentState(agents[0])
	assert.Equal(t, "dead", st.String())
	assert.Equal(t, ecs.NoEntity, ap.Step(e, ap.Cooldown))
}
