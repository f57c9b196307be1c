package component

// DefaultOverTimeKind is used when callers do not name an effect.
const DefaultOverTimeKind = "burn"

// OverTimeEffect deals DPS per second until Remaining runs out.
type OverTimeEffect struct {
	DPS       float64
	Remaining float64
	Source    uint64
}

// OverTime holds one active slot per effect kind.
type OverTime struct {
	Effects map[string]*OverTimeEffect
}

var OverTimeComponent = NewComponent[OverTime]()
