package main

import (
	"flag"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/horde/encounter"
	"github.com/milk9111/horde/logger"
	"github.com/milk9111/horde/prefabs"
)

func main() {
	difficulty := flag.String("difficulty", "", "difficulty preset in prefabs/difficulty.yaml (default from file)")
	level := flag.String("level", prefabs.DefaultLevel, "level prefab")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	auto := flag.Bool("auto", false, "let the autopilot shoot for you")
	flag.Parse()

	logger.Init()
	log := logger.For("hordeview")

	enc, err := encounter.Load(*difficulty, *level, encounter.Options{Seed: *seed, AutoCycle: true})
	if err != nil {
		log.WithError(err).Fatal("failed to load encounter")
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("horde")

	if err := ebiten.RunGame(newViewer(enc, *auto)); err != nil {
		log.WithError(err).Fatal("viewer exited")
	}
}
