package system

import (
	"github.com/milk9111/horde/ecs"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

// DayNightCycle is the stock PhaseClock: it alternates fixed-length days
// and nights in simulated time and notifies observers on every flip.
type DayNightCycle struct {
	DaySeconds   float64
	NightSeconds float64

	phase     Phase
	elapsed   float64
	nights    int
	observers []func(Phase)
	log       *logrus.Entry
}

func NewDayNightCycle(daySeconds, nightSeconds float64) *DayNightCycle {
	return &DayNightCycle{
		DaySeconds:   daySeconds,
		NightSeconds: nightSeconds,
		phase:        PhaseDay,
		log:          logger.For("cycle"),
	}
}

func (c *DayNightCycle) IsNight() bool {
	return c.phase == PhaseNight
}

func (c *DayNightCycle) Phase() Phase {
	return c.phase
}

// Night is the index of the current or most recent night, 0 before the
// first one.
func (c *DayNightCycle) Night() int {
	return c.nights
}

// Remaining is the time left in the current phase.
func (c *DayNightCycle) Remaining() float64 {
	return c.length(c.phase) - c.elapsed
}

func (c *DayNightCycle) OnPhaseChanged(fn func(Phase)) {
	if fn != nil {
		c.observers = append(c.observers, fn)
	}
}

// Set forces a phase. Observers run even if the phase is unchanged, so a
// repeated Set(PhaseNight) still re-broadcasts aggression.
func (c *DayNightCycle) Set(p Phase) {
	if p == PhaseNight && c.phase != PhaseNight {
		c.nights++
	}
	c.phase = p
	c.elapsed = 0
	c.log.WithFields(logrus.Fields{
		"phase": p.String(),
		"night": c.nights,
	}).Info("phase changed")
	for _, fn := range c.observers {
		fn(p)
	}
}

// Advance moves the clock forward, flipping as many times as dt covers.
func (c *DayNightCycle) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	c.elapsed += dt
	for {
		length := c.length(c.phase)
		if length <= 0 || c.elapsed < length {
			return
		}
		over := c.elapsed - length
		next := PhaseNight
		if c.phase == PhaseNight {
			next = PhaseDay
		}
		c.Set(next)
		c.elapsed = over
	}
}

// Update lets the cycle run as the first system of a world.
func (c *DayNightCycle) Update(w *ecs.World, dt float64) {
	c.Advance(dt)
}

func (c *DayNightCycle) length(p Phase) float64 {
	if p == PhaseNight {
		return c.NightSeconds
	}
	return c.DaySeconds
}
