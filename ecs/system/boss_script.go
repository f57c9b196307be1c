package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/horde/ecs/component"
)

const (
	AttackCharge = "charge"
	AttackSlam   = "slam"
)

var ErrUnknownAttack = errors.New("boss: unknown special attack")

// BossScript picks special attacks with a tengo script. The script reads
// phase, count and roll and assigns attack.
type BossScript struct {
	compiled *tengo.Compiled
}

func NewBossScript(src []byte) (*BossScript, error) {
	script := tengo.NewScript(src)
	_ = script.Add("phase", 0)
	_ = script.Add("count", 0)
	_ = script.Add("roll", 0.0)
	_ = script.Add("attack", "")

	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("boss script: %w", err)
	}
	return &BossScript{compiled: compiled}, nil
}

// Choose runs the script once.
func (s *BossScript) Choose(phase component.BossPhase, count int, roll float64) (string, error) {
	if s == nil || s.compiled == nil {
		return DefaultBossAttack(phase, count, roll), nil
	}
	if err := s.compiled.Set("phase", int(phase)); err != nil {
		return "", err
	}
	if err := s.compiled.Set("count", count); err != nil {
		return "", err
	}
	if err := s.compiled.Set("roll", roll); err != nil {
		return "", err
	}
	if err := s.compiled.Set("attack", ""); err != nil {
		return "", err
	}
	if err := s.compiled.Run(); err != nil {
		return "", fmt.Errorf("boss script: %w", err)
	}

	attack := strings.TrimSpace(s.compiled.Get("attack").String())
	switch attack {
	case AttackCharge, AttackSlam:
		return attack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttack, attack)
}

// DefaultBossAttack alternates in phase 2 and flips a coin in phase 3.
func DefaultBossAttack(phase component.BossPhase, count int, roll float64) string {
	if phase >= component.BossPhase3 {
		if roll > 0.5 {
			return AttackSlam
		}
		return AttackCharge
	}
	if count%2 == 1 {
		return AttackSlam
	}
	return AttackCharge
}
