package component

import "github.com/inamate/artboard/internal/geometry"

// Group wraps nodes in a new container sized to their union bounding box and
// re-expresses each node's position relative to the container. Rotation is
// not composed; only translation changes.
func Group(nodes []Node) (Node, error) {
	if len(nodes) == 0 {
		return Node{}, ErrEmptyGroup
	}

	bounds := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		bounds = bounds.Union(n.Bounds())
	}

	origin := bounds.Position()
	children := make([]Node, len(nodes))
	for i, n := range nodes {
		children[i] = UpdatePosition(n, n.Position.Sub(origin))
	}

	group := NewNode(TypeContainer, WithPosition(origin), WithSize(bounds.Size()))
	group.Children = children
	return group, nil
}

// Ungroup returns the group's direct children translated back into the
// group's parent space. Grandchildren keep their positions relative to their
// own parents.
func Ungroup(group Node, parentOffset geometry.Point) []Node {
	out := make([]Node, len(group.Children))
	for i, c := range group.Children {
		out[i] = UpdatePosition(c, c.Position.Add(group.Position).Add(parentOffset))
	}
	return out
}
