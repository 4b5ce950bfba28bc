package extract

// OrderedSet is a string set that remembers insertion order.
type OrderedSet struct {
	items []string
	seen  map[string]struct{}
}

// NewOrderedSet creates an empty set.
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: make(map[string]struct{})}
}

// Add appends s unless it is already present. Empty strings are ignored.
func (s *OrderedSet) Add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// Has reports membership.
func (s *OrderedSet) Has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

// Len returns the number of distinct items.
func (s *OrderedSet) Len() int { return len(s.items) }

// Items returns the items in insertion order. The result is never nil.
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
