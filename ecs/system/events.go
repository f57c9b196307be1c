package system

import (
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
)

const (
	EventAgentSpawned      = "agent_spawned"
	EventAgentDied         = "agent_died"
	EventLootDropped       = "loot_dropped"
	EventPlayerDied        = "player_died"
	EventArmorBroken       = "armor_broken"
	EventDamageResolved    = "damage_resolved"
	EventWaveStarted       = "wave_started"
	EventSpawnDropped      = "spawn_dropped"
	EventNightCompleted    = "night_completed"
	EventBossPhaseChanged  = "boss_phase_changed"
	EventBossSpecialAttack = "boss_special_attack"
	EventBossFinishIt      = "boss_finish_it"
	EventNightMutation     = "night_mutation"
)

type AgentSpawned struct {
	Agent  ecs.Entity
	Type   string
	Point  string
	Affix  component.AffixKind
	Night  int
	Minion bool
}

type AgentDied struct {
	Agent  ecs.Entity
	Type   string
	Points int
	Tag    string
}

type LootDropped struct {
	Agent ecs.Entity
	X, Y  float64
}

type PlayerDied struct {
	Player ecs.Entity
	Tag    string
}

type ArmorBroken struct {
	Slot component.ArmorSlotKind
}

type DamageResolved struct {
	Event   DamageEvent
	Outcome Outcome
}

type WaveStarted struct {
	Night int
	Wave  int
	Count int
}

type SpawnDropped struct {
	Night int
	Wave  int
}

type NightMutation struct {
	Night    int
	Mutation Mutation
}

type NightCompleted struct {
	Night int
	Bonus int
}

type BossPhaseChanged struct {
	Boss     ecs.Entity
	From, To component.BossPhase
}

type BossFinishIt struct {
	Boss ecs.Entity
}

type BossSpecialAttack struct {
	Boss   ecs.Entity
	Attack string
}

func publish(w *ecs.World, eventType string, data any) {
	w.Events().Push(ecs.Event{Type: eventType, Data: data})
}
