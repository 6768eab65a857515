package engine

import (
	"fmt"
	"slices"

	"github.com/inamate/artboard/internal/component"
)

// entry is one node in the arena. node.Children is always nil; the tree
// shape lives in children and parent.
type entry struct {
	node     component.Node
	parent   string
	children []string
}

// arena stores nodes flat by id so single-node updates never rebuild trees.
type arena struct {
	entries map[string]*entry
	roots   []string
}

func newArena() *arena {
	return &arena{entries: make(map[string]*entry)}
}

func (a *arena) has(id string) bool {
	_, ok := a.entries[id]
	return ok
}

// siblings returns the id list that holds id's parent's children.
func (a *arena) siblings(parent string) *[]string {
	if parent == "" {
		return &a.roots
	}
	return &a.entries[parent].children
}

// insert adds the subtree n under parent at index (-1 or out of range
// appends). The whole subtree is refused if any id is empty, repeated within
// it, or already held.
func (a *arena) insert(n component.Node, parent string, index int) error {
	if parent != "" && !a.has(parent) {
		return fmt.Errorf("insert under %q: %w", parent, ErrNotFound)
	}
	seen := make(map[string]struct{})
	var bad error
	component.Walk(n, func(node component.Node, path string) bool {
		if bad != nil {
			return false
		}
		_, dup := seen[node.ID]
		switch {
		case node.ID == "":
			bad = fmt.Errorf("%sid: %w", path, component.ErrInvalidArgument)
		case dup || a.has(node.ID):
			bad = fmt.Errorf("%q: %w", node.ID, ErrDuplicateID)
		}
		seen[node.ID] = struct{}{}
		return bad == nil
	})
	if bad != nil {
		return bad
	}

	a.add(n, parent)
	list := a.siblings(parent)
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	*list = slices.Insert(*list, index, n.ID)
	return nil
}

func (a *arena) add(n component.Node, parent string) {
	ent := &entry{node: n, parent: parent, children: make([]string, 0, len(n.Children))}
	ent.node.Children = nil
	a.entries[n.ID] = ent
	for _, c := range n.Children {
		a.add(c, n.ID)
		ent.children = append(ent.children, c.ID)
	}
}

// detach unlinks id from its parent's child list and returns its former
// index. The subtree stays in the arena.
func (a *arena) detach(id string) int {
	list := a.siblings(a.entries[id].parent)
	i := slices.Index(*list, id)
	if i >= 0 {
		*list = slices.Delete(*list, i, i+1)
	}
	return i
}

// remove deletes id and its whole subtree.
func (a *arena) remove(id string) []string {
	a.detach(id)
	var removed []string
	var drop func(string)
	drop = func(cur string) {
		ent := a.entries[cur]
		for _, c := range ent.children {
			drop(c)
		}
		delete(a.entries, cur)
		removed = append(removed, cur)
	}
	drop(id)
	return removed
}

// isDescendant reports whether id is candidate or sits below it.
func (a *arena) isDescendant(id, candidate string) bool {
	for cur := id; cur != ""; cur = a.entries[cur].parent {
		if cur == candidate {
			return true
		}
	}
	return false
}

func (a *arena) materialize(id string) component.Node {
	ent := a.entries[id]
	n := ent.node
	n.Children = make([]component.Node, len(ent.children))
	for i, c := range ent.children {
		n.Children[i] = a.materialize(c)
	}
	return n
}

func (a *arena) trees() []component.Node {
	out := make([]component.Node, len(a.roots))
	for i, id := range a.roots {
		out[i] = a.materialize(id)
	}
	return out
}

// worldOffset returns the sum of the ancestors' positions of id, i.e. the
// origin its own position is relative to.
func (a *arena) worldOffset(id string) (x, y float64) {
	for cur := a.entries[id].parent; cur != ""; cur = a.entries[cur].parent {
		p := a.entries[cur].node.Position
		x += p.X
		y += p.Y
	}
	return x, y
}
