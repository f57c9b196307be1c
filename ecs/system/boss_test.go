package system

import (
	"testing"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/prefabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBoss() component.Boss {
	return component.Boss{
		Name:            "test boss",
		CheckInterval:   0.5,
		Phase2Threshold: 0.6,
		Phase3Threshold: 0.3,
		FinishThreshold: 0.1,
		SpecialInterval: 5,
		MinionOffset:    3,
		Phase3Tint:      component.Tint{R: 1, G: 0.3, B: 0.2},
		Phases: [3]component.BossPhaseParams{
			{SpeedBoost: 1, MinionInterval: 15, MinionCount: 3, MinionType: "basic", MinionHealth: 30, MinionPoints: 10},
			{SpeedBoost: 1.25, MinionInterval: 10, MinionCount: 4, MinionType: "runner", MinionHealth: 20, MinionPoints: 10},
			{SpeedBoost: 1.5, MinionInterval: 8, MinionCount: 3, MinionType: "runner", MinionHealth: 20, MinionPoints: 10},
		},
		Charge: component.BossCharge{Telegraph: 0.5, Duration: 0.6, Speed: 12, Damage: 40, HitRadius: 1.5},
		Slam:   component.BossSlam{Windup: 0.4, Radius: 4, Damage: 30, Recovery: 0.5},
	}
}

type bossRig struct {
	w         *ecs.World
	player    ecs.Entity
	boss      ecs.Entity
	pipeline  *DamagePipeline
	minions   *extraRecorder
	presenter *recordingPresenter
	system    *BossSystem
}

func newBossRig(t *testing.T, bossX float64) *bossRig {
	t.Helper()
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 1000)
	boss := newAgent(t, w, player, bossX, 0, 1000)
	b := testBoss()
	require.NoError(t, ecs.Add(w, boss, component.BossComponent.Kind(), &b))
	require.NoError(t, ecs.Add(w, boss, component.BossRuntimeComponent.Kind(), &component.BossRuntime{
		Phase:        component.BossPhase1,
		CheckTimer:   b.CheckInterval,
		MinionTimer:  b.Phases[0].MinionInterval,
		SpecialTimer: b.SpecialInterval,
	}))
	ctx, _ := ecs.Get(w, boss, component.AIContextComponent.Kind())
	ctx.BaseSpeedMultiplier = 1.2
	ctx.ApplySpeedMultiplier(1.2)

	p := newTestPipeline()
	minions := &extraRecorder{}
	presenter := &recordingPresenter{}
	sys := NewBossSystem(p, minions, presenter, nil, common.NewRand(9))
	w.AddSystem(sys)
	w.AddSystem(NewMovementSystem())
	w.AddSystem(NewDamageSystem(p))
	return &bossRig{w: w, player: player, boss: boss, pipeline: p, minions: minions, presenter: presenter, system: sys}
}

func (r *bossRig) runtime(t *testing.T) *component.BossRuntime {
	t.Helper()
	rt, ok := ecs.Get(r.w, r.boss, component.BossRuntimeComponent.Kind())
	require.True(t, ok)
	return rt
}

func (r *bossRig) setFraction(t *testing.T, f float64) {
	t.Helper()
	h := healthOf(t, r.w, r.boss)
	if dmg := h.Current - f*h.Max; dmg > 0 {
		r.pipeline.Resolve(r.w, DamageEvent{Amount: dmg, Target: r.boss, Source: r.player})
	}
}

func TestBossPhasesFollowHealthAndNeverRegress(t *testing.T) {
	rig := newBossRig(t, 30)
	var changes []component.BossPhase
	rig.w.Events().Subscribe(EventBossPhaseChanged, func(ev ecs.Event) {
		changes = append(changes, ev.Data.(BossPhaseChanged).To)
	})
	ctx, _ := ecs.Get(rig.w, rig.boss, component.AIContextComponent.Kind())

	rig.w.Update(0.5)
	assert.Equal(t, component.BossPhase1, rig.runtime(t).Phase)

	rig.setFraction(t, 0.55)
	rig.w.Update(0.5)
	assert.Equal(t, component.BossPhase2, rig.runtime(t).Phase)
	assert.InDelta(t, 1.5, ctx.SpeedMultiplier, 1e-9)

	// healing does not move the phase back
	rig.pipeline.Heal(rig.w, rig.boss, 1000)
	rig.w.Update(0.5)
	assert.Equal(t, component.BossPhase2, rig.runtime(t).Phase)

	rig.setFraction(t, 0.25)
	rig.w.Update(0.5)
	assert.Equal(t, component.BossPhase3, rig.runtime(t).Phase)
	assert.InDelta(t, 1.8, ctx.SpeedMultiplier, 1e-9)
	assert.Equal(t, []component.Tint{{R: 1, G: 0.3, B: 0.2}}, rig.presenter.tints)

	rig.setFraction(t, 0)
	rig.w.Update(0.01)
	assert.Equal(t, component.BossDead, rig.runtime(t).Phase)

	assert.Equal(t, []component.BossPhase{component.BossPhase2, component.BossPhase3, component.BossDead}, changes)
}

func TestBossChecksAreThrottled(t *testing.T) {
	rig := newBossRig(t, 30)
	rig.setFraction(t, 0.5)

	rig.w.Update(0.2)
	assert.Equal(t, component.BossPhase1, rig.runtime(t).Phase)
	rig.w.Update(0.35)
	assert.Equal(t, component.BossPhase2, rig.runtime(t).Phase)
}

func TestBossLargeHitSkipsToPhaseThree(t *testing.T) {
	rig := newBossRig(t, 30)
	rig.setFraction(t, 0.2)
	rig.w.Update(0.5)

	assert.Equal(t, component.BossPhase3, rig.runtime(t).Phase)
}

func TestBossFinishItSignalsOnce(t *testing.T) {
	rig := newBossRig(t, 30)
	count := 0
	rig.w.Events().Subscribe(EventBossFinishIt, func(ecs.Event) { count++ })

	rig.setFraction(t, 0.05)
	for i := 0; i < 4; i++ {
		rig.w.Update(0.5)
	}
	assert.Equal(t, 1, count)
}

func TestBossSummonsMinionsOnInterval(t *testing.T) {
	rig := newBossRig(t, 30)
	for i := 0; i < 29; i++ {
		rig.w.Update(0.5)
	}
	assert.Empty(t, rig.minions.requests)

	rig.w.Update(0.5)
	require.Len(t, rig.minions.requests, 3)
	for _, req := range rig.minions.requests {
		assert.Equal(t, "basic", req.Type)
		assert.Equal(t, 30.0, req.Health)
		assert.True(t, req.NoAffix)
		center := component.Transform{X: 30}.Pos()
		assert.InDelta(t, 3, center.Distance(component.Transform{X: req.X, Y: req.Y}.Pos()), 1e-9)
	}
}

func TestBossPhaseTwoShortensMinionTimer(t *testing.T) {
	rig := newBossRig(t, 30)
	rig.setFraction(t, 0.5)
	rig.w.Update(0.5)
	require.Equal(t, component.BossPhase2, rig.runtime(t).Phase)
	assert.LessOrEqual(t, rig.runtime(t).MinionTimer, 10.0)
}

func TestBossSpecialsOnlyFromPhaseTwo(t *testing.T) {
	rig := newBossRig(t, 30)
	for i := 0; i < 12; i++ {
		rig.w.Update(0.5)
	}
	assert.Zero(t, rig.runtime(t).Specials)

	rig.setFraction(t, 0.5)
	rig.w.Update(0.5)
	require.Equal(t, component.BossPhase2, rig.runtime(t).Phase)
	for i := 0; i < 10; i++ {
		rig.w.Update(0.5)
	}
	assert.Equal(t, 1, rig.runtime(t).Specials)
}

func TestBossChargeLandsOnce(t *testing.T) {
	rig := newBossRig(t, 5)
	rt := rig.runtime(t)
	rt.Phase = component.BossPhase2
	rt.SpecialTimer = 0.1

	rig.w.Update(0.1)
	require.Equal(t, AttackCharge, rt.Special)
	require.Equal(t, component.StageWindup, rt.Stage)
	ctx, _ := ecs.Get(rig.w, rig.boss, component.AIContextComponent.Kind())
	assert.True(t, ctx.Locked)
	assert.Equal(t, []float64{0.5}, rig.presenter.telegraphs)

	for i := 0; i < 20; i++ {
		rig.w.Update(0.05)
	}
	assert.InDelta(t, 960, healthOf(t, rig.w, rig.player).Current, 1e-9)
	assert.Equal(t, component.StageNone, rt.Stage)
	assert.False(t, ctx.Locked)
}

func TestBossSlamFallsOffWithDistance(t *testing.T) {
	rig := newBossRig(t, 2)
	rt := rig.runtime(t)
	rt.Phase = component.BossPhase2
	rt.Specials = 1
	rt.SpecialTimer = 0.1

	rig.w.Update(0.1)
	require.Equal(t, AttackSlam, rt.Special)
	rig.w.Update(0.4)

	// 30 * (1 - 2/4)
	assert.InDelta(t, 985, healthOf(t, rig.w, rig.player).Current, 1e-9)
	assert.Equal(t, component.StageRecover, rt.Stage)

	rig.w.Update(0.5)
	assert.Equal(t, component.StageNone, rt.Stage)
}

func TestBossDeathCancelsSpecial(t *testing.T) {
	rig := newBossRig(t, 5)
	rt := rig.runtime(t)
	rt.Phase = component.BossPhase2
	rt.SpecialTimer = 0.1
	rig.w.Update(0.1)
	require.Equal(t, component.StageWindup, rt.Stage)

	rig.setFraction(t, 0)
	rig.w.Update(0.5)
	rig.w.Update(0.5)

	assert.Equal(t, component.BossDead, rt.Phase)
	assert.Equal(t, component.StageNone, rt.Stage)
	assert.InDelta(t, 1000, healthOf(t, rig.w, rig.player).Current, 1e-9)
}

func TestBossScriptMatchesDefault(t *testing.T) {
	src, err := prefabs.LoadScript("boss_attacks.tengo")
	require.NoError(t, err)
	script, err := NewBossScript(src)
	require.NoError(t, err)

	cases := []struct {
		phase component.BossPhase
		count int
		roll  float64
	}{
		{component.BossPhase2, 0, 0.9},
		{component.BossPhase2, 1, 0.1},
		{component.BossPhase2, 2, 0.9},
		{component.BossPhase3, 0, 0.2},
		{component.BossPhase3, 0, 0.8},
	}
	for _, c := range cases {
		got, err := script.Choose(c.phase, c.count, c.roll)
		require.NoError(t, err)
		assert.Equal(t, DefaultBossAttack(c.phase, c.count, c.roll), got)
	}
}

func TestBossScriptRejectsUnknownAttack(t *testing.T) {
	script, err := NewBossScript([]byte(`attack = "dance"`))
	require.NoError(t, err)

	_, err = script.Choose(component.BossPhase2, 0, 0.5)
	assert.ErrorIs(t, err, ErrUnknownAttack)

	_, err = NewBossScript([]byte(`attack = `))
	assert.Error(t, err)
}

func TestNilBossScriptUsesDefault(t *testing.T) {
	var script *BossScript
	got, err := script.Choose(component.BossPhase2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, AttackSlam, got)
}
