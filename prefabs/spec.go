package prefabs

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// DifficultySpec is one run-level preset.
type DifficultySpec struct {
	Name                        string  `yaml:"name"`
	PlayerHealthMultiplier      float64 `yaml:"player_health_multiplier"`
	PlayerDamageTakenMultiplier float64 `yaml:"player_damage_taken_multiplier"`
	EnemyHealthMultiplier       float64 `yaml:"enemy_health_multiplier"`
	EnemyDamageMultiplier       float64 `yaml:"enemy_damage_multiplier"`
	EnemySpeedMultiplier        float64 `yaml:"enemy_speed_multiplier"`
	WaveCountMultiplier         float64 `yaml:"wave_count_multiplier"`
	SpawnIntervalMultiplier     float64 `yaml:"spawn_interval_multiplier"`
	ResourceSpawnMultiplier     float64 `yaml:"resource_spawn_multiplier"`
	ScoreMultiplier             float64 `yaml:"score_multiplier"`
}

type DifficultyTable struct {
	Default string           `yaml:"default"`
	Presets []DifficultySpec `yaml:"presets"`
}

func LoadDifficultyTable() (*DifficultyTable, error) {
	spec, err := LoadSpec[DifficultyTable]("difficulty.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// Find returns the named preset, or the default one when name is empty.
func (t *DifficultyTable) Find(name string) (DifficultySpec, error) {
	if name == "" {
		name = t.Default
	}
	for _, p := range t.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return DifficultySpec{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSpec, name)
}

// NightSpec is the wave shape of one night.
type NightSpec struct {
	Night            int     `yaml:"night"`
	Title            string  `yaml:"title"`
	WaveCount        int     `yaml:"wave_count"`
	BaseEnemyCount   int     `yaml:"base_enemy_count"`
	TimeBetweenWaves float64 `yaml:"time_between_waves"`
	SpawnInterval    float64 `yaml:"spawn_interval"`
	HealthMultiplier float64 `yaml:"health_multiplier"`
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	SpeedMultiplier  float64 `yaml:"speed_multiplier"`
	HasBoss          bool    `yaml:"has_boss"`
	CompletionBonus  int     `yaml:"completion_bonus"`
}

type CycleSpec struct {
	DaySeconds   float64 `yaml:"day_seconds"`
	NightSeconds float64 `yaml:"night_seconds"`
}

type NightTable struct {
	Cycle  CycleSpec   `yaml:"cycle"`
	Nights []NightSpec `yaml:"nights"`
}

func LoadNightTable() (*NightTable, error) {
	spec, err := LoadSpec[NightTable]("nights.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// Find returns the preset for night, if one is configured.
func (t *NightTable) Find(night int) (NightSpec, bool) {
	for _, n := range t.Nights {
		if n.Night == night {
			return n, true
		}
	}
	return NightSpec{}, false
}

type AgentStatsSpec struct {
	MoveSpeed      float64 `yaml:"move_speed"`
	ChaseSpeed     float64 `yaml:"chase_speed"`
	PatrolSpeed    float64 `yaml:"patrol_speed"`
	DetectionRange float64 `yaml:"detection_range"`
	AttackRange    float64 `yaml:"attack_range"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	AttackWindup   float64 `yaml:"attack_windup"`
	Damage         float64 `yaml:"damage"`
	WanderRadius   float64 `yaml:"wander_radius"`
	WanderInterval float64 `yaml:"wander_interval"`
}

// RangedSpec turns an enemy type into a spitter: it keeps its distance,
// spits projectiles from range and runs from a target that gets close.
type RangedSpec struct {
	Range              float64 `yaml:"range"`
	FleeRange          float64 `yaml:"flee_range"`
	MoveSpeed          float64 `yaml:"move_speed"`
	FleeSpeedFactor    float64 `yaml:"flee_speed_factor"`
	Cooldown           float64 `yaml:"cooldown"`
	Windup             float64 `yaml:"windup"`
	Damage             float64 `yaml:"damage"`
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileLifetime float64 `yaml:"projectile_lifetime"`
	HitRadius          float64 `yaml:"hit_radius"`
	BurnDPS            float64 `yaml:"burn_dps"`
	BurnDuration       float64 `yaml:"burn_duration"`
}

type ExplosionSpec struct {
	Radius           float64 `yaml:"radius"`
	Damage           float64 `yaml:"damage"`
	AgentDamageScale float64 `yaml:"agent_damage_scale"`
}

// EnemyTypeSpec overrides the base stats for one enemy type. A type is
// picked for a spawn when night >= MinNight and the type roll is below
// RollBelow; types are tried in file order.
type EnemyTypeSpec struct {
	Name             string         `yaml:"name"`
	Health           float64        `yaml:"health"`
	Points           int            `yaml:"points"`
	DropChance       float64        `yaml:"drop_chance"`
	SpeedMultiplier  float64        `yaml:"speed_multiplier"`
	DamageMultiplier float64        `yaml:"damage_multiplier"`
	MinNight         int            `yaml:"min_night"`
	RollBelow        float64        `yaml:"roll_below"`
	Explosion        *ExplosionSpec `yaml:"explosion"`
	Ranged           *RangedSpec    `yaml:"ranged"`
}

type SplitterSpec struct {
	Count           int     `yaml:"count"`
	Type            string  `yaml:"type"`
	Health          float64 `yaml:"health"`
	Points          int     `yaml:"points"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
	Offset          float64 `yaml:"offset"`
}

type AffixSpec struct {
	Chance             float64      `yaml:"chance"`
	MinNight           int          `yaml:"min_night"`
	BerserkerThreshold float64      `yaml:"berserker_threshold"`
	BerserkerBoost     float64      `yaml:"berserker_boost"`
	RegenPerSecond     float64      `yaml:"regen_per_second"`
	VampiricFraction   float64      `yaml:"vampiric_fraction"`
	Splitter           SplitterSpec `yaml:"splitter"`
}

type EnemyCatalogSpec struct {
	GraceDelay  float64         `yaml:"grace_delay"`
	DefaultType string          `yaml:"default_type"`
	Base        AgentStatsSpec  `yaml:"base"`
	Affixes     AffixSpec       `yaml:"affixes"`
	Types       []EnemyTypeSpec `yaml:"types"`
}

func LoadEnemyCatalog() (*EnemyCatalogSpec, error) {
	spec, err := LoadSpec[EnemyCatalogSpec]("enemies.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// Find returns the named type.
func (c *EnemyCatalogSpec) Find(name string) (EnemyTypeSpec, bool) {
	for _, t := range c.Types {
		if t.Name == name {
			return t, true
		}
	}
	return EnemyTypeSpec{}, false
}

type BossPhaseSpec struct {
	SpeedBoost     float64 `yaml:"speed_boost"`
	MinionInterval float64 `yaml:"minion_interval"`
	MinionCount    int     `yaml:"minion_count"`
	MinionType     string  `yaml:"minion_type"`
	MinionHealth   float64 `yaml:"minion_health"`
	MinionPoints   int     `yaml:"minion_points"`
}

type BossChargeSpec struct {
	Telegraph float64 `yaml:"telegraph"`
	Duration  float64 `yaml:"duration"`
	Speed     float64 `yaml:"speed"`
	Damage    float64 `yaml:"damage"`
	HitRadius float64 `yaml:"hit_radius"`
}

type BossSlamSpec struct {
	Windup   float64 `yaml:"windup"`
	Radius   float64 `yaml:"radius"`
	Damage   float64 `yaml:"damage"`
	Recovery float64 `yaml:"recovery"`
}

type BossSpec struct {
	Name            string          `yaml:"name"`
	BaseType        string          `yaml:"base_type"`
	Health          float64         `yaml:"health"`
	Points          int             `yaml:"points"`
	CheckInterval   float64         `yaml:"check_interval"`
	Phase2Threshold float64         `yaml:"phase2_threshold"`
	Phase3Threshold float64         `yaml:"phase3_threshold"`
	FinishThreshold float64         `yaml:"finish_threshold"`
	SpecialInterval float64         `yaml:"special_interval"`
	MinionOffset    float64         `yaml:"minion_offset"`
	Phase3Tint      [3]float64      `yaml:"phase3_tint"`
	Phases          []BossPhaseSpec `yaml:"phases"`
	Charge          BossChargeSpec  `yaml:"charge"`
	Slam            BossSlamSpec    `yaml:"slam"`
	Script          string          `yaml:"script"`
}

func LoadBossSpec() (*BossSpec, error) {
	spec, err := LoadSpec[BossSpec]("boss.yaml")
	if err != nil {
		return nil, err
	}
	if len(spec.Phases) != 3 {
		return nil, fmt.Errorf("%w: boss.yaml needs 3 phases, got %d", ErrInvalidSpec, len(spec.Phases))
	}
	return &spec, nil
}

type ObstacleSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type SpawnPointSpec struct {
	ID                    string  `yaml:"id"`
	X                     float64 `yaml:"x"`
	Y                     float64 `yaml:"y"`
	Weight                float64 `yaml:"weight"`
	ActivationNight       int     `yaml:"activation_night"`
	MaxConcurrent         int     `yaml:"max_concurrent"`
	MinDistanceFromPlayer float64 `yaml:"min_distance_from_player"`
	RequiresLineOfSight   bool    `yaml:"requires_line_of_sight"`
	SpawnRadius           float64 `yaml:"spawn_radius"`
}

type PlayerSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Health float64 `yaml:"health"`
	Vest   int     `yaml:"vest"`
	Helmet int     `yaml:"helmet"`
}

type LevelSpec struct {
	Name        string           `yaml:"name"`
	Width       float64          `yaml:"width"`
	Height      float64          `yaml:"height"`
	CellSize    float64          `yaml:"cell_size"`
	Player      PlayerSpec       `yaml:"player"`
	Obstacles   []ObstacleSpec   `yaml:"obstacles"`
	SpawnPoints []SpawnPointSpec `yaml:"spawn_points"`
}

func LoadLevelSpec(name string) (*LevelSpec, error) {
	spec, err := LoadSpec[LevelSpec](name)
	if err != nil {
		return nil, err
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has no extent", ErrInvalidSpec, name)
	}
	return &spec, nil
}
