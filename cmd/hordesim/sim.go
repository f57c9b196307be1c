package main

import (
	"context"
	"time"

	"github.com/milk9111/horde/ecs/system"
	"github.com/milk9111/horde/encounter"
	"github.com/milk9111/horde/prefabs"
	"github.com/milk9111/horde/spectate"
	"github.com/sirupsen/logrus"
)

// publishEvery is how many ticks pass between spectator frames.
const publishEvery = 3

type simulation struct {
	enc        *encounter.Encounter
	pilot      *encounter.Autopilot
	hub        *spectate.Hub
	reloads    <-chan string
	dt         float64
	maxNights  int
	difficulty string
	level      string
	log        *logrus.Entry

	ticks   int
	pending []any
}

func (s *simulation) run(ctx context.Context, speed float64) {
	var ticker *time.Ticker
	if speed > 0 {
		ticker = time.NewTicker(time.Duration(s.dt / speed * float64(time.Second)))
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("interrupted")
			return
		case path, ok := <-s.reloads:
			if !ok {
				s.reloads = nil
				continue
			}
			s.reload(path)
			continue
		default:
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}

		if done := s.step(); done {
			s.summary()
			return
		}
	}
}

// step runs one tick and reports whether the run is over.
func (s *simulation) step() bool {
	s.pilot.Step(s.enc, s.dt)
	s.enc.Tick(s.dt)
	s.ticks++

	over := false
	for _, ev := range s.enc.Events() {
		s.pending = append(s.pending, ev)
		switch data := ev.Data.(type) {
		case system.NightCompleted:
			s.log.WithFields(logrus.Fields{
				"night": data.Night,
				"score": s.enc.Score().Total,
			}).Info("night survived")
			if s.maxNights > 0 && data.Night >= s.maxNights {
				over = true
			}
		case system.PlayerDied:
			s.log.WithFields(logrus.Fields{"night": s.enc.Snapshot().Night}).Warn("player died")
			over = true
		}
	}

	if s.hub != nil && (over || s.ticks%publishEvery == 0) {
		if err := s.hub.Publish(spectate.Message{Type: "snapshot", Data: s.enc.Snapshot(), Events: s.pending}); err != nil {
			s.log.WithError(err).Warn("snapshot publish failed")
		}
		s.pending = s.pending[:0]
	} else if s.hub == nil {
		s.pending = s.pending[:0]
	}
	return over
}

// reload re-reads the prefab bundle after a file change. A broken edit
// is logged and the running tables are kept.
func (s *simulation) reload(path string) {
	b, err := prefabs.LoadBundle(s.difficulty, s.level)
	if err == nil {
		err = s.enc.Reload(b)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"file": path}).Warn("reload rejected")
		return
	}
	s.log.WithFields(logrus.Fields{"file": path}).Info("reloaded")
}

func (s *simulation) summary() {
	score := s.enc.Score()
	snap := s.enc.Snapshot()
	s.log.WithFields(logrus.Fields{
		"night":   snap.Night,
		"kills":   score.Kills,
		"score":   score.Total,
		"seconds": snap.Time,
		"alive":   !snap.Player.Dead,
	}).Info("run finished")
}

