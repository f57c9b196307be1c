package encounter

import (
	"sort"

	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/ecs/system"
)

// Snapshot is a read-only view of the encounter for viewers and the
// spectator stream.
type Snapshot struct {
	Time      float64        `json:"time"`
	Phase     string         `json:"phase"`
	Night     int            `json:"night"`
	Mutation  string         `json:"mutation,omitempty"`
	Wave      int            `json:"wave"`
	Remaining int            `json:"remaining"`
	Complete  bool           `json:"complete"`
	Score     int            `json:"score"`
	Kills     int            `json:"kills"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Player    PlayerView     `json:"player"`
	Agents    []AgentView    `json:"agents"`
	Shots     []ShotView     `json:"shots,omitempty"`
	Obstacles []ecs.Obstacle `json:"obstacles,omitempty"`
}

type ArmorView struct {
	Tier       int     `json:"tier"`
	Durability float64 `json:"durability"`
}

type PlayerView struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Health float64   `json:"health"`
	Max    float64   `json:"max"`
	Dead   bool      `json:"dead"`
	Vest   ArmorView `json:"vest"`
	Helmet ArmorView `json:"helmet"`
}

type AgentView struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	State     string  `json:"state"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	Max       float64 `json:"max"`
	Affix     string  `json:"affix,omitempty"`
	Minion    bool    `json:"minion,omitempty"`
	Boss      bool    `json:"boss,omitempty"`
	BossPhase string  `json:"boss_phase,omitempty"`
	Winding   bool    `json:"winding,omitempty"`
}

type ShotView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot captures the current state. Agents are ordered by id.
func (e *Encounter) Snapshot() Snapshot {
	w := e.world
	s := Snapshot{
		Time:      w.Time(),
		Phase:     e.cycle.Phase().String(),
		Night:     e.spawner.Night(),
		Wave:      e.spawner.Wave(),
		Remaining: e.spawner.RemainingEnemies(),
		Complete:  e.spawner.IsNightComplete(),
		Score:     e.score.Total,
		Kills:     e.score.Kills,
	}
	if e.mutation != system.MutationNone {
		s.Mutation = e.mutation.String()
	}
	if cw := w.CollisionWorld(); cw != nil {
		s.Width, s.Height = cw.Size()
		s.Obstacles = cw.Obstacles()
	}

	if tf, ok := ecs.Get(w, e.player, component.TransformComponent.Kind()); ok {
		s.Player.X, s.Player.Y = tf.X, tf.Y
	}
	if hp, ok := ecs.Get(w, e.player, component.HealthComponent.Kind()); ok {
		s.Player.Health, s.Player.Max, s.Player.Dead = hp.Current, hp.Max, hp.Dead
	}
	if armor, ok := ecs.Get(w, e.player, component.ArmorComponent.Kind()); ok {
		s.Player.Vest = ArmorView{Tier: int(armor.Vest.Tier), Durability: armor.Vest.Durability}
		s.Player.Helmet = ArmorView{Tier: int(armor.Helmet.Tier), Durability: armor.Helmet.Durability}
	}

	s.Agents = make([]AgentView, 0, ecs.Count(w, component.AgentComponent.Kind()))
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.AIStateComponent.Kind(), component.TransformComponent.Kind(),
		func(a ecs.Entity, agent *component.Agent, st *component.AIState, tf *component.Transform) {
			v := AgentView{
				ID:     a.Ref(),
				Type:   agent.Type,
				State:  st.Current.String(),
				X:      tf.X,
				Y:      tf.Y,
				Minion: ecs.Has(w, a, component.MinionTagComponent.Kind()),
			}
			if hp, ok := ecs.Get(w, a, component.HealthComponent.Kind()); ok {
				v.Health, v.Max = hp.Current, hp.Max
			}
			if affix, ok := ecs.Get(w, a, component.AffixComponent.Kind()); ok {
				v.Affix = string(affix.Kind)
			}
			if ctx, ok := ecs.Get(w, a, component.AIContextComponent.Kind()); ok {
				v.Winding = ctx.WindingUp
			}
			if rt, ok := ecs.Get(w, a, component.BossRuntimeComponent.Kind()); ok {
				v.Boss = true
				v.BossPhase = rt.Phase.String()
			}
			s.Agents = append(s.Agents, v)
		})
	sort.Slice(s.Agents, func(i, j int) bool { return s.Agents[i].ID < s.Agents[j].ID })

	ecs.ForEach2(w, component.ProjectileComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, _ *component.Projectile, tf *component.Transform) {
		s.Shots = append(s.Shots, ShotView{X: tf.X, Y: tf.Y})
	})
	return s
}
