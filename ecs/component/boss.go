package component

// BossPhase is the escalation stage of a boss. It only moves forward.
type BossPhase int

const (
	BossPhase1 BossPhase = iota + 1
	BossPhase2
	BossPhase3
	BossDead
)

func (p BossPhase) String() string {
	switch p {
	case BossPhase1:
		return "phase1"
	case BossPhase2:
		return "phase2"
	case BossPhase3:
		return "phase3"
	case BossDead:
		return "dead"
	}
	return "unknown"
}

// Tint is a linear RGB multiplier surfaced to presentation.
type Tint struct {
	R, G, B float64
}

// BossPhaseParams are the per-phase knobs.
type BossPhaseParams struct {
	SpeedBoost     float64
	MinionInterval float64
	MinionCount    int
	MinionType     string
	MinionHealth   float64
	MinionPoints   int
}

type BossCharge struct {
	Telegraph float64
	Duration  float64
	Speed     float64
	Damage    float64
	HitRadius float64
}

type BossSlam struct {
	Windup   float64
	Radius   float64
	Damage   float64
	Recovery float64
}

// Boss is the phase configuration layered over one agent.
type Boss struct {
	Name            string
	CheckInterval   float64
	Phase2Threshold float64
	Phase3Threshold float64
	FinishThreshold float64
	SpecialInterval float64
	MinionOffset    float64
	Phase3Tint      Tint
	// Phases is indexed by phase-1.
	Phases [3]BossPhaseParams
	Charge BossCharge
	Slam   BossSlam
}

// Params returns the knobs for p, or zero values for Dead.
func (b *Boss) Params(p BossPhase) BossPhaseParams {
	if b == nil || p < BossPhase1 || p > BossPhase3 {
		return BossPhaseParams{}
	}
	return b.Phases[p-1]
}

// SpecialStage is the step of a special attack in progress.
type SpecialStage int

const (
	StageNone SpecialStage = iota
	StageWindup
	StageActive
	StageRecover
)

// BossRuntime stores runtime-only state for phase progression and special
// attacks.
type BossRuntime struct {
	Phase        BossPhase
	CheckTimer   float64
	MinionTimer  float64
	SpecialTimer float64
	Specials     int

	Special    string
	Stage      SpecialStage
	StageTimer float64
	DirX, DirY float64
	Landed     bool

	FinishSignaled bool
}

var BossComponent = NewComponent[Boss]()
var BossRuntimeComponent = NewComponent[BossRuntime]()
