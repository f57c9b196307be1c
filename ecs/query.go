package ecs

import "github.com/milk9111/horde/ecs/component"

// Kind is satisfied by every component.ComponentKind[T].
type Kind interface {
	ID() component.ComponentID
}

// Query returns live entities that carry every given kind. The smallest
// store drives the scan.
func (w *World) Query(kinds ...Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	stores := make([]store, 0, len(kinds))
	for _, k := range kinds {
		s, ok := w.stores[k.ID()]
		if !ok {
			return nil
		}
		stores = append(stores, s)
	}
	smallest := 0
	for i, s := range stores {
		if s.size() < stores[smallest].size() {
			smallest = i
		}
	}

	var out []Entity
	for _, e := range w.entities.all() {
		if !stores[smallest].has(e.id()) {
			continue
		}
		match := true
		for _, s := range stores {
			if !s.has(e.id()) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out
}
