package system

import (
	"testing"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveArmorVestThenHelmet(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	armor, _ := ecs.Get(w, player, component.ArmorComponent.Kind())
	require.True(t, armor.Equip(component.SlotVest, component.Tier2))
	require.True(t, armor.Equip(component.SlotHelmet, component.Tier1))

	p := newTestPipeline()
	out := p.Resolve(w, DamageEvent{Amount: 100, Target: player, Tag: TagMelee})

	assert.InDelta(t, 55, out.Absorbed, 1e-9)
	assert.InDelta(t, 45, out.Applied, 1e-9)
	assert.InDelta(t, 55, out.Residual, 1e-9)
	assert.False(t, out.Died)
	assert.InDelta(t, 110, armor.Vest.Durability, 1e-9)
	assert.InDelta(t, 35, armor.Helmet.Durability, 1e-9)
}

func TestResolveBreaksVestOnLastDurability(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	armor, _ := ecs.Get(w, player, component.ArmorComponent.Kind())
	armor.Vest = component.ArmorSlot{Tier: component.Tier1, Durability: 5}

	presenter := &recordingPresenter{}
	p := NewDamagePipeline(DamageConfig{Difficulty: DefaultDifficulty()}, presenter, nil, common.NewRand(1))
	out := p.Resolve(w, DamageEvent{Amount: 20, Target: player})

	assert.InDelta(t, 5, out.Absorbed, 1e-9)
	assert.InDelta(t, 15, out.Applied, 1e-9)
	assert.Equal(t, component.TierNone, armor.Vest.Tier)
	assert.Zero(t, armor.Vest.Durability)
	assert.Equal(t, []component.ArmorSlotKind{component.SlotVest}, presenter.broken)
	assert.Len(t, eventsOf(w, EventArmorBroken), 1)
}

func TestResolvePlayerDamageTakenAfterArmor(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	armor, _ := ecs.Get(w, player, component.ArmorComponent.Kind())
	armor.Equip(component.SlotVest, component.Tier1)

	d := DefaultDifficulty()
	d.PlayerDamageTakenMultiplier = 2
	p := NewDamagePipeline(DamageConfig{Difficulty: d}, nil, nil, nil)
	out := p.Resolve(w, DamageEvent{Amount: 10, Target: player})

	assert.InDelta(t, 3, out.Absorbed, 1e-9)
	assert.InDelta(t, 14, out.Applied, 1e-9)
}

func TestResolveDiesExactlyOnce(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 5, 10)

	listener := &deathRecorder{}
	scorer := &ScoreTally{}
	p := NewDamagePipeline(DamageConfig{Difficulty: DefaultDifficulty(), GraceDelay: 0.5}, nil, scorer, nil)
	p.AddDeathListener(listener)

	first := p.Resolve(w, DamageEvent{Amount: 15, Target: agent})
	second := p.Resolve(w, DamageEvent{Amount: 15, Target: agent})

	assert.True(t, first.Died)
	assert.InDelta(t, 10, first.Applied, 1e-9)
	assert.Zero(t, first.Residual)
	assert.False(t, second.Died)
	assert.True(t, second.Ignored)
	assert.Equal(t, component.StateDead, stateOf(t, w, agent))
	assert.Equal(t, []ecs.Entity{agent}, listener.deaths)
	assert.Equal(t, 1, scorer.Kills)
	assert.Equal(t, 10, scorer.Total)

	ttl, ok := ecs.Get(w, agent, component.TTLComponent.Kind())
	require.True(t, ok)
	assert.InDelta(t, 0.5, ttl.Seconds, 1e-9)
}

func TestResolveIgnoresNonPositiveAmounts(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	p := newTestPipeline()

	assert.True(t, p.Resolve(w, DamageEvent{Amount: 0, Target: player}).Ignored)
	assert.True(t, p.Resolve(w, DamageEvent{Amount: -5, Target: player}).Ignored)
	assert.True(t, p.Resolve(w, DamageEvent{Amount: 5, Target: ecs.NoEntity}).Ignored)
	assert.InDelta(t, 100, healthOf(t, w, player).Current, 1e-9)
}

func TestScoreUsesDifficultyMultiplier(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 5, 10)

	d := DefaultDifficulty()
	d.ScoreMultiplier = 1.25
	scorer := &ScoreTally{}
	p := NewDamagePipeline(DamageConfig{Difficulty: d}, nil, scorer, nil)
	p.Resolve(w, DamageEvent{Amount: 50, Target: agent})

	// 10 * 1.25 = 12.5 rounds half up
	assert.Equal(t, 13, scorer.Total)
}

func TestLootDropChance(t *testing.T) {
	for _, tc := range []struct {
		name   string
		chance float64
		want   int
	}{
		{"never", 0, 0},
		{"always", 1, 20},
		{"over one", 3, 20},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := ecs.NewWorld()
			player := newPlayer(t, w, 0, 0, 100)
			p := newTestPipeline()
			drops := 0
			w.Events().Subscribe(EventLootDropped, func(ecs.Event) { drops++ })
			for i := 0; i < 20; i++ {
				agent := newAgent(t, w, player, 5, 5, 1)
				bounty, _ := ecs.Get(w, agent, component.BountyComponent.Kind())
				bounty.DropChance = tc.chance
				p.Resolve(w, DamageEvent{Amount: 5, Target: agent})
			}
			assert.Equal(t, tc.want, drops)
		})
	}
}

func TestFlushDropsAttacksFromAgentsKilledEarlier(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 0.5, 0, 10)

	p := newTestPipeline()
	p.Submit(DamageEvent{Amount: 50, Target: agent, Source: player})
	p.Submit(DamageEvent{Amount: 10, Target: player, Source: agent, Tag: TagMelee, Attack: true})
	p.Flush(w)

	assert.Equal(t, component.StateDead, stateOf(t, w, agent))
	assert.InDelta(t, 100, healthOf(t, w, player).Current, 1e-9)
	assert.Zero(t, p.Pending())
}

func TestFlushKeepsQueueOrder(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 0.5, 0, 10)

	p := newTestPipeline()
	var order []float64
	w.Events().Subscribe(EventDamageResolved, func(ev ecs.Event) {
		order = append(order, ev.Data.(DamageResolved).Event.Amount)
	})
	p.Submit(DamageEvent{Amount: 10, Target: player, Source: agent, Tag: TagMelee, Attack: true})
	p.Submit(DamageEvent{Amount: 3, Target: player})
	p.Submit(DamageEvent{Amount: 7, Target: player})
	p.Flush(w)

	assert.Equal(t, []float64{10, 3, 7}, order)
	assert.InDelta(t, 80, healthOf(t, w, player).Current, 1e-9)
}

func TestSameTickDamageAccumulates(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 25)
	p := newTestPipeline()
	for i := 0; i < 3; i++ {
		a := newAgent(t, w, player, 0.5, 0, 10)
		p.Submit(DamageEvent{Amount: 10, Target: player, Source: a, Attack: true})
	}
	died := 0
	w.Events().Subscribe(EventPlayerDied, func(ecs.Event) { died++ })
	p.Flush(w)

	assert.Zero(t, healthOf(t, w, player).Current)
	assert.Equal(t, 1, died)
}

func TestExplosionHitsPlayerAndAgentsWithFalloff(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 1.5, 0, 100)
	exploder := newAgent(t, w, player, 0, 0, 10)
	bystander := newAgent(t, w, player, 0, 0, 100)
	far := newAgent(t, w, player, 10, 0, 100)
	require.NoError(t, ecs.Add(w, exploder, component.ExplosiveComponent.Kind(), &component.Explosive{
		Radius: 3, Damage: 30, AgentDamageScale: 0.5,
	}))

	p := newTestPipeline()
	p.Submit(DamageEvent{Amount: 10, Target: exploder, Source: player})
	p.Flush(w)

	assert.InDelta(t, 85, healthOf(t, w, player).Current, 1e-9)
	assert.InDelta(t, 85, healthOf(t, w, bystander).Current, 1e-9)
	assert.InDelta(t, 100, healthOf(t, w, far).Current, 1e-9)
}

func TestVampiricHealsOnLandedDamage(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 0.5, 0, 50)
	require.NoError(t, ecs.Add(w, agent, component.AffixComponent.Kind(), &component.Affix{Kind: component.AffixVampiric}))
	healthOf(t, w, agent).Current = 40

	p := newTestPipeline()
	p.Resolve(w, DamageEvent{Amount: 10, Target: player, Source: agent, Attack: true})

	assert.InDelta(t, 42.5, healthOf(t, w, agent).Current, 1e-9)
}

func TestApplyOverTimeRefreshesSameKindAndStacksKinds(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 5, 100)
	p := newTestPipeline()
	sys := NewOverTimeSystem(p)

	require.True(t, p.ApplyOverTime(w, agent, player, "", 10, 1))
	require.True(t, p.ApplyOverTime(w, agent, player, "", 4, 1))
	require.True(t, p.ApplyOverTime(w, agent, player, "poison", 6, 1))
	assert.False(t, p.ApplyOverTime(w, agent, player, "burn", 0, 1))
	assert.False(t, p.ApplyOverTime(w, agent, player, "burn", 5, -1))

	sys.Update(w, 0.5)
	p.Flush(w)
	assert.InDelta(t, 95, healthOf(t, w, agent).Current, 1e-9)

	sys.Update(w, 0.5)
	p.Flush(w)
	assert.InDelta(t, 90, healthOf(t, w, agent).Current, 1e-9)

	ot, _ := ecs.Get(w, agent, component.OverTimeComponent.Kind())
	assert.Empty(t, ot.Effects)

	sys.Update(w, 0.5)
	p.Flush(w)
	assert.InDelta(t, 90, healthOf(t, w, agent).Current, 1e-9)
	assert.False(t, ecs.Has(w, agent, component.OverTimeComponent.Kind()))
}

func TestOverTimeLastTickIsPartial(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	p := newTestPipeline()
	sys := NewOverTimeSystem(p)

	require.True(t, p.ApplyOverTime(w, player, ecs.NoEntity, "burn", 10, 0.25))
	sys.Update(w, 1)
	p.Flush(w)

	assert.InDelta(t, 97.5, healthOf(t, w, player).Current, 1e-9)
}

func TestOverTimeOnDeadTargetIsRefused(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	agent := newAgent(t, w, player, 5, 5, 10)
	p := newTestPipeline()
	p.Resolve(w, DamageEvent{Amount: 10, Target: agent})

	assert.False(t, p.ApplyOverTime(w, agent, player, "burn", 5, 2))
}

func TestHealCapsAtMax(t *testing.T) {
	w := ecs.NewWorld()
	player := newPlayer(t, w, 0, 0, 100)
	p := newTestPipeline()
	p.Resolve(w, DamageEvent{Amount: 30, Target: player})

	assert.InDelta(t, 30, p.Heal(w, player, 50), 1e-9)
	assert.InDelta(t, 100, healthOf(t, w, player).Current, 1e-9)
}
