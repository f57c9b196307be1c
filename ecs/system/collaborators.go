package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/ecs/component"
)

// Phase is the day/night half of the cycle.
type Phase int

const (
	PhaseDay Phase = iota
	PhaseNight
)

func (p Phase) String() string {
	if p == PhaseNight {
		return "night"
	}
	return "day"
}

// PhaseClock broadcasts Day<->Night transitions.
type PhaseClock interface {
	IsNight() bool
	OnPhaseChanged(fn func(Phase))
}

// Navigator answers line-of-sight and reachability queries.
// *ecs.CollisionWorld implements it.
type Navigator interface {
	HasLineOfSight(a, b cp.Vector) bool
	CanReach(from, to cp.Vector) bool
}

// Presenter receives fire-and-forget presentation signals.
type Presenter interface {
	ShowTelegraph(e ecs.Entity, seconds float64)
	OnArmorBroken(slot component.ArmorSlotKind)
	OnVisualTint(e ecs.Entity, tint component.Tint)
}

// Scorer is told about every kill.
type Scorer interface {
	OnEnemyKilled(points int)
}

type NopPresenter struct{}

func (NopPresenter) ShowTelegraph(ecs.Entity, float64)       {}
func (NopPresenter) OnArmorBroken(component.ArmorSlotKind)   {}
func (NopPresenter) OnVisualTint(ecs.Entity, component.Tint) {}

type NopScorer struct{}

func (NopScorer) OnEnemyKilled(int) {}

// OpenNavigator sees and reaches everything; used when a level has no
// collision world.
type OpenNavigator struct{}

func (OpenNavigator) HasLineOfSight(cp.Vector, cp.Vector) bool { return true }
func (OpenNavigator) CanReach(cp.Vector, cp.Vector) bool       { return true }

// ScoreTally is a Scorer that sums points.
type ScoreTally struct {
	Total int
	Kills int
}

func (s *ScoreTally) OnEnemyKilled(points int) {
	s.Total += points
	s.Kills++
}
