package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/ecs/system"
	"github.com/milk9111/horde/encounter"
)

const frame = time.Second / 20

var stateStyles = map[string]tcell.Style{
	component.StateIdle.String():   tcell.StyleDefault.Foreground(tcell.ColorGray),
	component.StatePatrol.String(): tcell.StyleDefault.Foreground(tcell.ColorOlive),
	component.StateChase.String():  tcell.StyleDefault.Foreground(tcell.ColorOrange),
	component.StateAttack.String(): tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	component.StateDead.String():   tcell.StyleDefault.Foreground(tcell.ColorDarkGray),
}

var stateGlyphs = map[string]rune{
	component.StateIdle.String():   'z',
	component.StatePatrol.String(): 'o',
	component.StateChase.String():  'O',
	component.StateAttack.String(): 'X',
	component.StateDead.String():   '.',
}

// top is a terminal arena view driven by the autopilot.
type top struct {
	enc    *encounter.Encounter
	scr    tcell.Screen
	pilot  *encounter.Autopilot
	speed  float64
	paused bool
	last   string
}

func (t *top) run() {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := t.scr.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok || t.handle(ev) {
				return
			}
		case <-ticker.C:
			if !t.paused {
				t.step(frame.Seconds() * t.speed)
			}
			t.draw()
		}
	}
}

// handle reports whether the user asked to quit.
func (t *top) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.scr.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case 'p':
				t.paused = !t.paused
			case 'n':
				t.enc.SetPhase(system.PhaseNight)
			case 'd':
				t.enc.SetPhase(system.PhaseDay)
			case '1', '2', '3':
				tier := component.ArmorTier(ev.Rune() - '0')
				t.enc.EquipArmor(component.SlotVest, tier)
				t.enc.EquipArmor(component.SlotHelmet, tier)
			}
		}
	}
	return false
}

func (t *top) step(dt float64) {
	t.pilot.Step(t.enc, dt)
	t.enc.Tick(dt)
	for _, ev := range t.enc.Events() {
		switch data := ev.Data.(type) {
		case system.WaveStarted:
			t.last = fmt.Sprintf("night %d wave %d (%d)", data.Night, data.Wave, data.Count)
		case system.NightCompleted:
			t.last = fmt.Sprintf("night %d survived +%d", data.Night, data.Bonus)
		case system.NightMutation:
			t.last = fmt.Sprintf("night %d %s", data.Night, data.Mutation)
		case system.BossPhaseChanged:
			t.last = fmt.Sprintf("boss %s", data.To)
		case system.PlayerDied:
			t.last = "player died"
			t.paused = true
		}
	}
}

func (t *top) draw() {
	t.scr.Clear()
	snap := t.enc.Snapshot()
	w, h := t.scr.Size()
	header := fmt.Sprintf("%s night %d wave %d left %d score %d hp %.0f/%.0f  %s",
		snap.Phase, snap.Night, snap.Wave, snap.Remaining, snap.Score,
		snap.Player.Health, snap.Player.Max, t.last)
	t.text(0, 0, header, tcell.StyleDefault.Bold(true))

	rows := h - 2
	if rows <= 0 || w <= 0 || snap.Width <= 0 || snap.Height <= 0 {
		t.scr.Show()
		return
	}
	cell := func(x, y float64) (int, int) {
		return int(x / snap.Width * float64(w-1)), 1 + int(y/snap.Height*float64(rows-1))
	}

	wall := tcell.StyleDefault.Foreground(tcell.ColorSaddleBrown)
	for _, o := range snap.Obstacles {
		x0, y0 := cell(o.X, o.Y)
		x1, y1 := cell(o.X+o.W, o.Y+o.H)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				t.scr.SetContent(x, y, '#', nil, wall)
			}
		}
	}
	for _, a := range snap.Agents {
		x, y := cell(a.X, a.Y)
		glyph := stateGlyphs[a.State]
		if a.Boss {
			glyph = 'B'
		}
		t.scr.SetContent(x, y, glyph, nil, stateStyles[a.State])
	}
	for _, shot := range snap.Shots {
		x, y := cell(shot.X, shot.Y)
		t.scr.SetContent(x, y, '*', nil, tcell.StyleDefault.Foreground(tcell.ColorYellowGreen))
	}
	px, py := cell(snap.Player.X, snap.Player.Y)
	t.scr.SetContent(px, py, '@', nil, tcell.StyleDefault.Foreground(tcell.ColorLightGreen).Bold(true))

	t.text(0, h-1, "q quit  p pause  n night  d day  1-3 armor", tcell.StyleDefault.Foreground(tcell.ColorGray))
	t.scr.Show()
}

func (t *top) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		t.scr.SetContent(x+i, y, r, nil, style)
	}
}
