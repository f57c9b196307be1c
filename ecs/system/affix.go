package system

import (
	"math"

	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

// AffixSystem runs the per-tick affixes (regeneration, berserker rage)
// and spawns splitter children on death. Vampiric healing happens in the
// damage pipeline where the hit lands.
type AffixSystem struct {
	cfg      AffixConfig
	pipeline *DamagePipeline
	spawner  ExtraSpawner
	log      *logrus.Entry
}

func NewAffixSystem(cfg AffixConfig, pipeline *DamagePipeline, spawner ExtraSpawner) *AffixSystem {
	return &AffixSystem{
		cfg:      cfg,
		pipeline: pipeline,
		spawner:  spawner,
		log:      logger.For("affix"),
	}
}

func (s *AffixSystem) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}

	ecs.ForEach3(w, component.AffixComponent.Kind(), component.HealthComponent.Kind(), component.AIContextComponent.Kind(), func(e ecs.Entity, affix *component.Affix, h *component.Health, ctx *component.AIContext) {
		if h.Dead {
			return
		}
		switch affix.Kind {
		case component.AffixRegenerator:
			if s.pipeline != nil && dt > 0 {
				s.pipeline.Heal(w, e, s.cfg.RegenPerSecond*dt)
			}
		case component.AffixBerserker:
			if affix.Triggered || h.Fraction() > s.cfg.BerserkerThreshold {
				return
			}
			affix.Triggered = true
			ctx.ApplySpeedMultiplier(ctx.BaseSpeedMultiplier * s.cfg.BerserkerBoost)
			s.log.WithFields(logrus.Fields{"agent": e.String()}).Debug("berserker enraged")
		}
	})
}

// OnAgentDeath splits a dying splitter into its children.
func (s *AffixSystem) OnAgentDeath(w *ecs.World, agent ecs.Entity) {
	affix, ok := ecs.Get(w, agent, component.AffixComponent.Kind())
	if !ok || affix.Kind != component.AffixSplitter || s.spawner == nil {
		return
	}
	tf, ok := ecs.Get(w, agent, component.TransformComponent.Kind())
	if !ok {
		return
	}
	night := 0
	if origin, ok := ecs.Get(w, agent, component.SpawnOriginComponent.Kind()); ok {
		night = origin.Night
	}

	sp := s.cfg.Splitter
	for i := 0; i < sp.Count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(sp.Count)
		s.spawner.SpawnExtra(w, SpawnRequest{
			Night:           night,
			X:               tf.X + math.Cos(angle)*sp.Offset,
			Y:               tf.Y + math.Sin(angle)*sp.Offset,
			Type:            sp.Type,
			Health:          sp.Health,
			Points:          sp.Points,
			SpeedMultiplier: sp.SpeedMultiplier,
			NoAffix:         true,
		})
	}
}
