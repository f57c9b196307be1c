package ecs

import "github.com/milk9111/horde/ecs/component"

// World owns entities, components, simulated time and system order.
type World struct {
	entities  entityStore
	stores    map[component.ComponentID]store
	scheduler *Scheduler
	events    EventQueue
	now       float64

	collision *CollisionWorld
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		stores:    make(map[component.ComponentID]store),
		scheduler: NewScheduler(),
	}
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	return w.entities.create()
}

// DestroyEntity strips every component and frees the slot. It reports
// whether e was alive.
func DestroyEntity(w *World, e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.remove(e.id())
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func IsAlive(w *World, e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity.
func Entities(w *World) []Entity {
	if w == nil {
		return nil
	}
	return w.entities.all()
}

// AddSystem appends a system to the update order.
func (w *World) AddSystem(s System) {
	if w == nil || s == nil {
		return
	}
	w.scheduler.Add(s)
}

// Update advances simulated time by dt and runs all systems once. Events
// from the previous update are discarded first, so after Update returns
// Events().Drain() yields exactly this tick's events.
func (w *World) Update(dt float64) {
	if w == nil {
		return
	}
	if dt < 0 {
		dt = 0
	}
	w.events.reset()
	w.now += dt
	w.scheduler.Update(w, dt)
}

// Time is the accumulated simulated time in seconds.
func (w *World) Time() float64 {
	if w == nil {
		return 0
	}
	return w.now
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// SetCollisionWorld attaches the static collision/navigation world.
func (w *World) SetCollisionWorld(cw *CollisionWorld) {
	if w == nil {
		return
	}
	w.collision = cw
}

// CollisionWorld returns the attached collision world, if any.
func (w *World) CollisionWorld() *CollisionWorld {
	if w == nil {
		return nil
	}
	return w.collision
}
