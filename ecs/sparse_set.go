package ecs

// store is the type-erased view the world keeps of every component set.
type store interface {
	has(id entityID) bool
	remove(id entityID) bool
	size() int
}

// sparseSet stores components densely, keyed by entity slot id.
type sparseSet[T any] struct {
	dense  []entityID
	gens   []generation
	values []*T
	sparse []int
}

func (s *sparseSet[T]) has(id entityID) bool {
	if id == 0 || int(id) > len(s.sparse) {
		return false
	}
	idx := s.sparse[id-1]
	return idx >= 0 && idx < len(s.dense) && s.dense[idx] == id
}

func (s *sparseSet[T]) get(id entityID) (*T, bool) {
	if !s.has(id) {
		return nil, false
	}
	return s.values[s.sparse[id-1]], true
}

func (s *sparseSet[T]) set(e Entity, v *T) {
	id := e.id()
	for int(id) > len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.has(id) {
		idx := s.sparse[id-1]
		s.values[idx] = v
		s.gens[idx] = e.generation()
		return
	}
	s.dense = append(s.dense, id)
	s.gens = append(s.gens, e.generation())
	s.values = append(s.values, v)
	s.sparse[id-1] = len(s.dense) - 1
}

func (s *sparseSet[T]) remove(id entityID) bool {
	if !s.has(id) {
		return false
	}
	idx := s.sparse[id-1]
	last := len(s.dense) - 1
	lastID := s.dense[last]

	s.dense[idx] = s.dense[last]
	s.gens[idx] = s.gens[last]
	s.values[idx] = s.values[last]
	s.sparse[lastID-1] = idx

	s.dense = s.dense[:last]
	s.gens = s.gens[:last]
	s.values[last] = nil
	s.values = s.values[:last]
	s.sparse[id-1] = -1
	return true
}

func (s *sparseSet[T]) size() int {
	return len(s.dense)
}

// entities returns a copy of the dense handles so callers may mutate the
// world while iterating.
func (s *sparseSet[T]) entities() []Entity {
	out := make([]Entity, len(s.dense))
	for i, id := range s.dense {
		out[i] = makeEntity(id, s.gens[i])
	}
	return out
}
