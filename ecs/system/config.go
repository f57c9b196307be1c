package system

import (
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/horde/common"
	"github.com/milk9111/horde/prefabs"
)

var (
	ErrInvalidMultiplier = errors.New("config: invalid multiplier")
	ErrInvalidNight      = errors.New("config: invalid night")
)

// Difficulty is the run-level multiplier set, read at run and night start.
type Difficulty struct {
	Name                        string
	HealthMultiplier            float64
	DamageMultiplier            float64
	SpeedMultiplier             float64
	PlayerDamageTakenMultiplier float64
	PlayerHealthMultiplier      float64
	ResourceSpawnMultiplier     float64
	WaveCountMultiplier         float64
	SpawnIntervalMultiplier     float64
	ScoreMultiplier             float64
}

// DefaultDifficulty is neutral: every multiplier is 1.
func DefaultDifficulty() Difficulty {
	return Difficulty{
		Name:                        "normal",
		HealthMultiplier:            1,
		DamageMultiplier:            1,
		SpeedMultiplier:             1,
		PlayerDamageTakenMultiplier: 1,
		PlayerHealthMultiplier:      1,
		ResourceSpawnMultiplier:     1,
		WaveCountMultiplier:         1,
		SpawnIntervalMultiplier:     1,
		ScoreMultiplier:             1,
	}
}

func DifficultyFromSpec(spec prefabs.DifficultySpec) (Difficulty, error) {
	d := Difficulty{
		Name:                        spec.Name,
		HealthMultiplier:            spec.EnemyHealthMultiplier,
		DamageMultiplier:            spec.EnemyDamageMultiplier,
		SpeedMultiplier:             spec.EnemySpeedMultiplier,
		PlayerDamageTakenMultiplier: spec.PlayerDamageTakenMultiplier,
		PlayerHealthMultiplier:      spec.PlayerHealthMultiplier,
		ResourceSpawnMultiplier:     spec.ResourceSpawnMultiplier,
		WaveCountMultiplier:         spec.WaveCountMultiplier,
		SpawnIntervalMultiplier:     spec.SpawnIntervalMultiplier,
		ScoreMultiplier:             spec.ScoreMultiplier,
	}
	return d, d.Validate()
}

// Validate rejects zero, negative and NaN multipliers.
func (d Difficulty) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"health", d.HealthMultiplier},
		{"damage", d.DamageMultiplier},
		{"speed", d.SpeedMultiplier},
		{"player damage taken", d.PlayerDamageTakenMultiplier},
		{"player health", d.PlayerHealthMultiplier},
		{"resource spawn", d.ResourceSpawnMultiplier},
		{"wave count", d.WaveCountMultiplier},
		{"spawn interval", d.SpawnIntervalMultiplier},
		{"score", d.ScoreMultiplier},
	}
	for _, f := range fields {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: difficulty %q %s = %v", ErrInvalidMultiplier, d.Name, f.name, f.v)
		}
	}
	return nil
}

// WaveSpec is one wave of a night. TimeBetweenWaves is the gap after this
// wave's last request before the next wave may begin.
type WaveSpec struct {
	Index            int
	Count            int
	SpawnInterval    float64
	TimeBetweenWaves float64
}

func (w WaveSpec) Validate() error {
	switch {
	case w.Count < 0:
		return fmt.Errorf("%w: wave %d count %d", ErrInvalidNight, w.Index, w.Count)
	case !(w.SpawnInterval > 0):
		return fmt.Errorf("%w: wave %d spawn interval %v", ErrInvalidNight, w.Index, w.SpawnInterval)
	case w.TimeBetweenWaves < 0:
		return fmt.Errorf("%w: wave %d gap %v", ErrInvalidNight, w.Index, w.TimeBetweenWaves)
	}
	return nil
}

// NightConfig is the shape and scaling of one night.
type NightConfig struct {
	Night            int
	Title            string
	WaveCount        int
	BaseEnemyCount   int
	TimeBetweenWaves float64
	SpawnInterval    float64
	HealthMultiplier float64
	DamageMultiplier float64
	SpeedMultiplier  float64
	HasBoss          bool
	CompletionBonus  int
	Mutation         Mutation
}

// Mutation is a per-night modifier rolled when a night is scheduled.
// ThickFog and Contamination are announced to presenters and change no
// numbers.
type Mutation int

const (
	MutationNone Mutation = iota
	MutationThickFog
	MutationFullMoon
	MutationContamination
	MutationReinforcements
)

func (m Mutation) String() string {
	switch m {
	case MutationThickFog:
		return "thick_fog"
	case MutationFullMoon:
		return "full_moon"
	case MutationContamination:
		return "contamination"
	case MutationReinforcements:
		return "reinforcements"
	}
	return "none"
}

// RollMutation maps u in [0,1) onto four equal bands. Night 1 is never
// mutated.
func RollMutation(night int, u float64) Mutation {
	if night <= 1 {
		return MutationNone
	}
	switch {
	case u < 0.25:
		return MutationThickFog
	case u < 0.5:
		return MutationFullMoon
	case u < 0.75:
		return MutationContamination
	}
	return MutationReinforcements
}

// SpeedMultiplier is 1.2 under a full moon.
func (m Mutation) SpeedMultiplier() float64 {
	if m == MutationFullMoon {
		return 1.2
	}
	return 1
}

// WaveCountMultiplier is 1.5 with reinforcements.
func (m Mutation) WaveCountMultiplier() float64 {
	if m == MutationReinforcements {
		return 1.5
	}
	return 1
}

func NightConfigFromSpec(spec prefabs.NightSpec) NightConfig {
	return NightConfig{
		Night:            spec.Night,
		Title:            spec.Title,
		WaveCount:        spec.WaveCount,
		BaseEnemyCount:   spec.BaseEnemyCount,
		TimeBetweenWaves: spec.TimeBetweenWaves,
		SpawnInterval:    spec.SpawnInterval,
		HealthMultiplier: spec.HealthMultiplier,
		DamageMultiplier: spec.DamageMultiplier,
		SpeedMultiplier:  spec.SpeedMultiplier,
		HasBoss:          spec.HasBoss,
		CompletionBonus:  spec.CompletionBonus,
	}
}

// DefaultNightConfig extrapolates a night that has no preset.
func DefaultNightConfig(n int) NightConfig {
	if n < 1 {
		n = 1
	}
	f := float64(n)
	return NightConfig{
		Night:            n,
		Title:            fmt.Sprintf("Night %d", n),
		WaveCount:        int(common.Clamp(float64(2+n), 2, 6)),
		BaseEnemyCount:   5 + 3*n,
		TimeBetweenWaves: math.Max(3, 8-0.5*f),
		SpawnInterval:    math.Max(1, 3-0.2*f),
		HealthMultiplier: 1 + 0.15*(f-1),
		DamageMultiplier: 1 + 0.1*(f-1),
		SpeedMultiplier:  math.Min(1.5, 1+0.05*(f-1)),
		HasBoss:          n%5 == 0,
		CompletionBonus:  100 * n,
	}
}

func (n NightConfig) Validate() error {
	switch {
	case n.Night < 1:
		return fmt.Errorf("%w: night index %d", ErrInvalidNight, n.Night)
	case n.WaveCount < 1:
		return fmt.Errorf("%w: night %d wave count %d", ErrInvalidNight, n.Night, n.WaveCount)
	case n.BaseEnemyCount < 1:
		return fmt.Errorf("%w: night %d base count %d", ErrInvalidNight, n.Night, n.BaseEnemyCount)
	case !(n.SpawnInterval > 0):
		return fmt.Errorf("%w: night %d spawn interval %v", ErrInvalidNight, n.Night, n.SpawnInterval)
	case n.TimeBetweenWaves < 0:
		return fmt.Errorf("%w: night %d gap %v", ErrInvalidNight, n.Night, n.TimeBetweenWaves)
	case !(n.HealthMultiplier > 0) || !(n.DamageMultiplier > 0) || !(n.SpeedMultiplier > 0):
		return fmt.Errorf("%w: night %d", ErrInvalidMultiplier, n.Night)
	}
	return nil
}

// WaveEnemyCount is round_half_up(base * (1 + 0.3*(wave-1)) * mult), at
// least 1. wave is 1-based.
func WaveEnemyCount(base, wave int, mult float64) int {
	if wave < 1 {
		wave = 1
	}
	n := common.RoundHalfUp(float64(base) * (1 + 0.3*float64(wave-1)) * mult)
	if n < 1 {
		return 1
	}
	return n
}

// Waves expands the night into its wave list under difficulty d.
func (n NightConfig) Waves(d Difficulty) []WaveSpec {
	waveMult := d.WaveCountMultiplier
	if !(waveMult > 0) {
		waveMult = 1
	}
	waveMult *= n.Mutation.WaveCountMultiplier()
	intervalMult := d.SpawnIntervalMultiplier
	if !(intervalMult > 0) {
		intervalMult = 1
	}
	interval := math.Max(0.1, n.SpawnInterval*intervalMult)

	waves := make([]WaveSpec, 0, n.WaveCount)
	for i := 1; i <= n.WaveCount; i++ {
		waves = append(waves, WaveSpec{
			Index:            i,
			Count:            WaveEnemyCount(n.BaseEnemyCount, i, waveMult),
			SpawnInterval:    interval,
			TimeBetweenWaves: n.TimeBetweenWaves,
		})
	}
	return waves
}
