package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/horde/encounter"
	"github.com/milk9111/horde/logger"
	"github.com/milk9111/horde/prefabs"
)

func main() {
	difficulty := flag.String("difficulty", "", "difficulty preset in prefabs/difficulty.yaml (default from file)")
	level := flag.String("level", prefabs.DefaultLevel, "level prefab")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	speed := flag.Float64("speed", 1, "simulation speed multiplier")
	logPath := flag.String("log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	logger.Init()
	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger.SetOutput(out)

	enc, err := encounter.Load(*difficulty, *level, encounter.Options{Seed: *seed, AutoCycle: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	scr, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := scr.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer scr.Fini()

	t := &top{enc: enc, scr: scr, pilot: encounter.NewAutopilot(), speed: *speed}
	t.run()
}
