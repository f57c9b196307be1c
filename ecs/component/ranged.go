package component

// Ranged replaces the melee attack with a spit fired from Range. Inside
// FleeRange the agent backs away at MoveSpeed*FleeSpeedFactor.
type Ranged struct {
	Range              float64
	FleeRange          float64
	MoveSpeed          float64
	FleeSpeedFactor    float64
	Cooldown           float64
	Windup             float64
	Damage             float64
	ProjectileSpeed    float64
	ProjectileLifetime float64
	HitRadius          float64
	BurnDPS            float64
	BurnDuration       float64
}

var RangedComponent = NewComponent[Ranged]()

// Projectile is a shot in flight toward Target. Damage is already scaled
// by the shooter's multiplier.
type Projectile struct {
	Source       uint64
	Target       uint64
	Damage       float64
	HitRadius    float64
	BurnDPS      float64
	BurnDuration float64
}

var ProjectileComponent = NewComponent[Projectile]()
