package component

type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()

// MinionTag marks agents spawned outside the wave schedule (boss minions,
// splitter children).
type MinionTag struct{}

var MinionTagComponent = NewComponent[MinionTag]()
