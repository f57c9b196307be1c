package ecs

import "strconv"

// Entity packs a slot id in the low 32 bits and the slot's generation in
// the high 32 bits, so a stale handle never resolves to a reused slot.
type Entity uint64

// NoEntity is the zero handle; it is never alive.
const NoEntity Entity = 0

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> entityIDBits))
}

// Ref returns the raw handle for storage in components, which cannot
// import this package.
func (e Entity) Ref() uint64 {
	return uint64(e)
}

// FromRef converts a stored handle back.
func FromRef(ref uint64) Entity {
	return Entity(ref)
}

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e.id()), 10) + "v" + strconv.FormatUint(uint64(e.generation()), 10)
}

func (e Entity) Valid() bool {
	return e.id() > 0
}
