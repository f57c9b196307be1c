package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/milk9111/horde/encounter"
	"github.com/milk9111/horde/logger"
	"github.com/milk9111/horde/prefabs"
	"github.com/milk9111/horde/spectate"
	"github.com/sirupsen/logrus"
)

func main() {
	difficulty := flag.String("difficulty", "", "difficulty preset in prefabs/difficulty.yaml (default from file)")
	level := flag.String("level", prefabs.DefaultLevel, "level prefab")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	nights := flag.Int("nights", 5, "stop after this many nights (0 runs until the player dies)")
	tick := flag.Duration("tick", time.Second/30, "simulated time per tick")
	speed := flag.Float64("speed", 1, "simulation speed; 0 runs as fast as possible")
	addr := flag.String("addr", ":8080", "spectator websocket address (empty disables)")
	watch := flag.Bool("watch", true, "hot reload prefabs from disk")
	flag.Parse()

	logger.Init()
	log := logger.For("hordesim")

	enc, err := encounter.Load(*difficulty, *level, encounter.Options{Seed: *seed, AutoCycle: true})
	if err != nil {
		log.WithError(err).Fatal("failed to load encounter")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim := &simulation{
		enc:        enc,
		pilot:      encounter.NewAutopilot(),
		dt:         tick.Seconds(),
		maxNights:  *nights,
		difficulty: *difficulty,
		level:      *level,
		log:        log,
	}

	if *addr != "" {
		sim.hub = spectate.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/ws", sim.hub)
		srv := &http.Server{Addr: *addr, Handler: mux}
		go func() {
			log.WithFields(logrus.Fields{"addr": *addr}).Info("spectator stream listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("spectator server failed")
			}
		}()
		defer srv.Close()
	}

	if *watch {
		w, err := prefabs.NewWatcher()
		if err != nil {
			log.WithError(err).Warn("hot reload disabled")
		} else {
			defer w.Close()
			sim.reloads = w.Events
		}
	}

	sim.run(ctx, *speed)
}
