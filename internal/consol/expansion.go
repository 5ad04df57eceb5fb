package consol

import "sort"

// Expansion tracks which level-1 rows are expanded in a view.
type Expansion struct {
	ids map[string]struct{}
}

// NewExpansion seeds the set with the given ids.
func NewExpansion(ids ...string) *Expansion {
	e := &Expansion{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		e.ids[id] = struct{}{}
	}
	return e
}

// Toggle flips membership of id. Calling it twice restores the set.
func (e *Expansion) Toggle(id string) bool {
	if e.ids == nil {
		e.ids = make(map[string]struct{})
	}
	if _, ok := e.ids[id]; ok {
		delete(e.ids, id)
		return false
	}
	e.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is expanded.
func (e *Expansion) Contains(id string) bool {
	if e == nil {
		return false
	}
	_, ok := e.ids[id]
	return ok
}

// Snapshot returns the expanded ids sorted for stable persistence.
func (e *Expansion) Snapshot() []string {
	if e == nil {
		return []string{}
	}
	out := make([]string, 0, len(e.ids))
	for id := range e.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Equal compares two expansion sets.
func (e *Expansion) Equal(other *Expansion) bool {
	a, b := e.Snapshot(), other.Snapshot()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ToggleExpansion validates id against the tree before flipping it.
func (t *Tree) ToggleExpansion(e *Expansion, id string) (bool, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return false, err
	}
	if node.Row.Level != minLevel {
		return false, ErrNotExpandable
	}
	return e.Toggle(node.Row.ID), nil
}

// Expandable keeps the ids that name a level-1 row, deduplicated and sorted.
func (t *Tree) Expandable(ids []string) []string {
	e := NewExpansion()
	for _, id := range ids {
		node, err := t.Lookup(id)
		if err != nil || node.Row.Level != minLevel {
			continue
		}
		e.ids[node.Row.ID] = struct{}{}
	}
	return e.Snapshot()
}
