package prefabs

import "fmt"

// DefaultLevel is the level loaded when none is named.
const DefaultLevel = "level_farmhouse.yaml"

// Bundle is every prefab an encounter needs, loaded together so a hot
// reload swaps them as a unit.
type Bundle struct {
	Difficulty DifficultySpec
	Nights     *NightTable
	Enemies    *EnemyCatalogSpec
	Boss       *BossSpec
	Level      *LevelSpec
	BossScript []byte
}

// LoadBundle loads the named difficulty preset and level plus the shared
// tables.
func LoadBundle(difficulty, level string) (*Bundle, error) {
	if level == "" {
		level = DefaultLevel
	}
	table, err := LoadDifficultyTable()
	if err != nil {
		return nil, err
	}
	diff, err := table.Find(difficulty)
	if err != nil {
		return nil, err
	}
	nights, err := LoadNightTable()
	if err != nil {
		return nil, err
	}
	enemies, err := LoadEnemyCatalog()
	if err != nil {
		return nil, err
	}
	boss, err := LoadBossSpec()
	if err != nil {
		return nil, err
	}
	lvl, err := LoadLevelSpec(level)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Difficulty: diff,
		Nights:     nights,
		Enemies:    enemies,
		Boss:       boss,
		Level:      lvl,
	}
	if boss.Script != "" {
		src, err := LoadScript(boss.Script)
		if err != nil {
			return nil, fmt.Errorf("prefabs: load script %s: %w", boss.Script, err)
		}
		b.BossScript = src
	}
	return b, nil
}
