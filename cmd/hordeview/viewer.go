package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/horde/ecs/component"
	"github.com/milk9111/horde/ecs/system"
	"github.com/milk9111/horde/encounter"
	"golang.org/x/image/colornames"
)

const (
	baseWidth   = 1280
	baseHeight  = 720
	hudHeight   = 48
	playerSpeed = 6.0
)

var stateColors = map[string]color.Color{
	component.StateIdle.String():   colornames.Slategray,
	component.StatePatrol.String(): colornames.Olivedrab,
	component.StateChase.String():  colornames.Orange,
	component.StateAttack.String(): colornames.Crimson,
	component.StateDead.String():   colornames.Dimgray,
}

type viewer struct {
	enc    *encounter.Encounter
	pilot  *encounter.Autopilot
	auto   bool
	paused bool
	last   string
}

func newViewer(enc *encounter.Encounter, auto bool) *viewer {
	return &viewer{enc: enc, pilot: encounter.NewAutopilot(), auto: auto}
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		v.enc.SetPhase(system.PhaseNight)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.auto = !v.auto
	}
	for i, key := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3} {
		if inpututil.IsKeyJustPressed(key) {
			v.enc.EquipArmor(component.SlotVest, component.ArmorTier(i+1))
			v.enc.EquipArmor(component.SlotHelmet, component.ArmorTier(i+1))
		}
	}
	if v.paused {
		return nil
	}

	var dx, dy float64
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dx++
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dy--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dy++
	}
	if l := math.Hypot(dx, dy); l > 0 {
		dx, dy = dx/l*playerSpeed, dy/l*playerSpeed
	}
	v.enc.SetPlayerVelocity(dx, dy)

	dt := 1.0 / float64(ebiten.TPS())
	if v.auto || ebiten.IsKeyPressed(ebiten.KeySpace) {
		v.pilot.Step(v.enc, dt)
	}
	v.enc.Tick(dt)

	for _, ev := range v.enc.Events() {
		switch data := ev.Data.(type) {
		case system.WaveStarted:
			v.last = fmt.Sprintf("night %d wave %d: %d incoming", data.Night, data.Wave, data.Count)
		case system.NightCompleted:
			v.last = fmt.Sprintf("night %d survived, +%d", data.Night, data.Bonus)
		case system.NightMutation:
			v.last = fmt.Sprintf("night %d: %s", data.Night, data.Mutation)
		case system.BossPhaseChanged:
			v.last = fmt.Sprintf("boss enters %s", data.To)
		case system.BossFinishIt:
			v.last = "FINISH IT"
		case system.ArmorBroken:
			v.last = fmt.Sprintf("%s broken", data.Slot)
		case system.PlayerDied:
			v.last = "you died"
			v.paused = true
		}
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	snap := v.enc.Snapshot()
	if snap.Phase == system.PhaseNight.String() {
		screen.Fill(colornames.Midnightblue)
	} else {
		screen.Fill(colornames.Darkolivegreen)
	}
	if snap.Width <= 0 || snap.Height <= 0 {
		return
	}

	scale := math.Min(float64(baseWidth)/snap.Width, float64(baseHeight-hudHeight)/snap.Height)
	offX := (float64(baseWidth) - snap.Width*scale) / 2
	offY := float64(hudHeight)
	at := func(x, y float64) (float32, float32) {
		return float32(offX + x*scale), float32(offY + y*scale)
	}

	ax, ay := at(0, 0)
	vector.StrokeRect(screen, ax, ay, float32(snap.Width*scale), float32(snap.Height*scale), 2, colornames.Lightgrey, false)
	for _, o := range snap.Obstacles {
		x, y := at(o.X, o.Y)
		vector.FillRect(screen, x, y, float32(o.W*scale), float32(o.H*scale), colornames.Saddlebrown, false)
	}

	for _, a := range snap.Agents {
		x, y := at(a.X, a.Y)
		r := float32(0.4 * scale)
		if a.Boss {
			r *= 2.5
		}
		clr := stateColors[a.State]
		if clr == nil {
			clr = colornames.White
		}
		vector.FillCircle(screen, x, y, r, clr, true)
		if a.Winding {
			vector.StrokeCircle(screen, x, y, r+3, 2, colornames.Yellow, true)
		}
		if a.Affix != "" {
			vector.StrokeCircle(screen, x, y, r+1, 1, colornames.Violet, true)
		}
		if a.Max > 0 && a.State != component.StateDead.String() {
			healthBar(screen, x-r, y-r-5, 2*r, a.Health/a.Max)
		}
	}

	for _, shot := range snap.Shots {
		x, y := at(shot.X, shot.Y)
		vector.FillCircle(screen, x, y, float32(0.15*scale), colornames.Yellowgreen, true)
	}

	px, py := at(snap.Player.X, snap.Player.Y)
	vector.FillCircle(screen, px, py, float32(0.45*scale), colornames.Deepskyblue, true)
	vector.StrokeCircle(screen, px, py, float32(v.pilot.Range*scale), 1, color.RGBA{R: 135, G: 206, B: 250, A: 60}, true)

	hud := fmt.Sprintf(
		"%s  night %d  wave %d  remaining %d  score %d  kills %d\nHP %.0f/%.0f  vest t%d %.0f  helmet t%d %.0f  %s",
		snap.Phase, snap.Night, snap.Wave, snap.Remaining, snap.Score, snap.Kills,
		snap.Player.Health, snap.Player.Max,
		snap.Player.Vest.Tier, snap.Player.Vest.Durability,
		snap.Player.Helmet.Tier, snap.Player.Helmet.Durability,
		v.last,
	)
	ebitenutil.DebugPrint(screen, hud)
}

func healthBar(screen *ebiten.Image, x, y, w float32, frac float64) {
	vector.FillRect(screen, x, y, w, 3, colornames.Darkred, false)
	vector.FillRect(screen, x, y, w*float32(math.Max(0, math.Min(1, frac))), 3, colornames.Limegreen, false)
}

func (v *viewer) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
