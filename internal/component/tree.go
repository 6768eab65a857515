package component

import (
	"fmt"

	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/typeid"
)

// DefaultDuplicateOffset is how far a duplicate is shifted from its source.
var DefaultDuplicateOffset = geometry.Point{X: 20, Y: 20}

// AddChild returns a copy of parent with child appended. It refuses to add a
// subtree that contains parent's own id.
func AddChild(parent, child Node) (Node, error) {
	if _, found := FindByID(child, parent.ID); found {
		return parent, fmt.Errorf("add %s under %s: %w", child.ID, parent.ID, ErrCycle)
	}
	children := make([]Node, len(parent.Children), len(parent.Children)+1)
	copy(children, parent.Children)
	parent.Children = append(children, child)
	touch(&parent)
	return parent, nil
}

// RemoveChild returns a copy of parent without the direct child childID.
// When no such child exists parent is returned as is.
func RemoveChild(parent Node, childID string) Node {
	children := make([]Node, 0, len(parent.Children))
	for _, c := range parent.Children {
		if c.ID != childID {
			children = append(children, c)
		}
	}
	if len(children) == len(parent.Children) {
		return parent
	}
	parent.Children = children
	touch(&parent)
	return parent
}

// FindByID searches root and its descendants depth-first.
func FindByID(root Node, id string) (Node, bool) {
	if root.ID == id {
		return root, true
	}
	for _, c := range root.Children {
		if found, ok := FindByID(c, id); ok {
			return found, true
		}
	}
	return Node{}, false
}

// Depth is 0 for a leaf and 1 + the deepest child otherwise.
func Depth(n Node) int {
	if len(n.Children) == 0 {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		deepest = max(deepest, Depth(c))
	}
	return deepest + 1
}

// Walk visits n and its descendants in pre-order. path is the field prefix
// of the visited node relative to n, e.g. "children[0].children[2].".
// Returning false from fn skips that node's children.
func Walk(n Node, fn func(node Node, path string) bool) {
	walk(n, "", fn)
}

func walk(n Node, path string, fn func(Node, string) bool) {
	if !fn(n, path) {
		return
	}
	for i, c := range n.Children {
		walk(c, fmt.Sprintf("%schildren[%d].", path, i), fn)
	}
}

// Clone makes a deep structural copy with identical ids, for snapshotting.
func Clone(n Node) Node {
	out := n
	out.Props = n.Props.clone()
	out.Styles = n.Styles.clone()
	if n.Metadata.Tags != nil {
		out.Metadata.Tags = append([]string(nil), n.Metadata.Tags...)
	}
	if n.Children != nil {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = Clone(c)
		}
	}
	return out
}

// Duplicate deep-copies n, regenerating every id in the subtree and
// refreshing timestamps. The root is shifted by offset.
func Duplicate(n Node, offset geometry.Point) Node {
	out := regenerate(n)
	out.Position = out.Position.Add(offset)
	return out
}

func regenerate(n Node) Node {
	out := Clone(n)
	out.ID = typeid.NewNodeID()
	ts := now()
	out.Metadata.Created = ts
	out.Metadata.Modified = ts
	for i, c := range out.Children {
		out.Children[i] = regenerate(c)
	}
	return out
}

// IDs returns every id in the subtree in pre-order.
func IDs(n Node) []string {
	var ids []string
	Walk(n, func(node Node, _ string) bool {
		ids = append(ids, node.ID)
		return true
	})
	return ids
}
