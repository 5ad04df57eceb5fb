package consol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRow occurs when an id does not match any ledger row.
	ErrUnknownRow = errors.New("consol: unknown row")
	// ErrNotExpandable occurs when toggling a row below level 1.
	ErrNotExpandable = errors.New("consol: only level-1 rows can be expanded")
)

const (
	minLevel = 1
	maxLevel = 3
)

// Node is a ledger row placed in the arena with explicit parent/child links.
type Node struct {
	Row      Row
	Index    int
	Parent   int
	Children []int
}

// HasParent reports whether the node sits below another row.
func (n Node) HasParent() bool {
	return n.Parent >= 0
}

// Tree is the explicit hierarchy derived from row order and level.
type Tree struct {
	nodes []Node
	index map[string]int
}

// Build derives parent/child links: a row's parent is the nearest preceding row with a lower level.
func Build(rows []Row) (*Tree, error) {
	tree := &Tree{nodes: make([]Node, 0, len(rows)), index: make(map[string]int, len(rows))}
	stack := make([]int, 0, maxLevel)
	for i, row := range rows {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			return nil, fmt.Errorf("consol: row %d has empty id", i)
		}
		if _, dup := tree.index[id]; dup {
			return nil, fmt.Errorf("consol: duplicate row id %q", id)
		}
		if row.Level < minLevel || row.Level > maxLevel {
			return nil, fmt.Errorf("consol: row %q level %d outside %d..%d", id, row.Level, minLevel, maxLevel)
		}
		for len(stack) > 0 && tree.nodes[stack[len(stack)-1]].Row.Level >= row.Level {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		parentLevel := 0
		if parent >= 0 {
			parentLevel = tree.nodes[parent].Row.Level
		}
		if row.Level-parentLevel > 1 {
			return nil, fmt.Errorf("consol: row %q jumps from level %d to %d", id, parentLevel, row.Level)
		}
		row.ID = id
		tree.nodes = append(tree.nodes, Node{Row: row, Index: i, Parent: parent})
		tree.index[id] = i
		if parent >= 0 {
			tree.nodes[parent].Children = append(tree.nodes[parent].Children, i)
		}
		stack = append(stack, i)
	}
	return tree, nil
}

// Len returns the number of rows.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Nodes returns the arena in row order.
func (t *Tree) Nodes() []Node {
	if t == nil {
		return nil
	}
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Rows returns the rows in their original order.
func (t *Tree) Rows() []Row {
	if t == nil {
		return nil
	}
	rows := make([]Row, len(t.nodes))
	for i, n := range t.nodes {
		rows[i] = n.Row
	}
	return rows
}

// Lookup finds a row by id.
func (t *Tree) Lookup(id string) (Node, error) {
	if t == nil {
		return Node{}, ErrUnknownRow
	}
	idx, ok := t.index[strings.TrimSpace(id)]
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownRow, id)
	}
	return t.nodes[idx], nil
}

// Root returns the level-1 ancestor of the node at idx.
func (t *Tree) Root(idx int) int {
	for t.nodes[idx].Parent >= 0 {
		idx = t.nodes[idx].Parent
	}
	return idx
}

// Depth returns the indentation depth of a node, zero for roots.
func (t *Tree) Depth(idx int) int {
	depth := 0
	for t.nodes[idx].Parent >= 0 {
		idx = t.nodes[idx].Parent
		depth++
	}
	return depth
}
