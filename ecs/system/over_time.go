package system

import (
	"math"
	"sort"

	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
)

// OverTimeSystem turns active over-time effects into damage events. Each
// tick deals dps * min(dt, remaining) per kind; kinds are visited in name
// order so runs replay identically.
type OverTimeSystem struct {
	pipeline *DamagePipeline
}

func NewOverTimeSystem(p *DamagePipeline) *OverTimeSystem {
	return &OverTimeSystem{pipeline: p}
}

func (s *OverTimeSystem) Update(w *ecs.World, dt float64) {
	if w == nil || s.pipeline == nil {
		return
	}

	ecs.ForEach2(w, component.OverTimeComponent.Kind(), component.HealthComponent.Kind(), func(e ecs.Entity, ot *component.OverTime, h *component.Health) {
		if h.Dead || len(ot.Effects) == 0 {
			ecs.Remove(w, e, component.OverTimeComponent.Kind())
			return
		}

		kinds := make([]string, 0, len(ot.Effects))
		for k := range ot.Effects {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		for _, kind := range kinds {
			eff := ot.Effects[kind]
			step := math.Min(dt, eff.Remaining)
			if step > 0 {
				s.pipeline.Submit(DamageEvent{
					Amount: eff.DPS * step,
					Target: e,
					Source: ecs.FromRef(eff.Source),
					Tag:    kind,
				})
			}
			eff.Remaining -= dt
			if eff.Remaining <= 0 {
				delete(ot.Effects, kind)
			}
		}
	})
}
