package ecs

// Filter returns every component in s matching pred, in insertion order.
// Queries are ad hoc: there are no persistent secondary indices to keep in
// sync when a system mutates a component.
func Filter[T any](s *PtrComponentStore[T], pred func(*T) bool) []*T {
	out := make([]*T, 0, s.Len())
	s.Each(func(_ EntityID, c *T) {
		if pred == nil || pred(c) {
			out = append(out, c)
		}
	})
	return out
}

// Find returns the first component matching pred.
func Find[T any](s *PtrComponentStore[T], pred func(*T) bool) (EntityID, *T, bool) {
	for _, id := range s.order {
		c := s.data[id]
		if pred(c) {
			return id, c, true
		}
	}
	return 0, nil, false
}

// Count returns how many components match pred.
func Count[T any](s *PtrComponentStore[T], pred func(*T) bool) int {
	n := 0
	s.Each(func(_ EntityID, c *T) {
		if pred(c) {
			n++
		}
	})
	return n
}
