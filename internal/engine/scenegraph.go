package engine

import (
	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
)

// SceneGraph is the resolved, world-space view of the canvas used for hit
// testing and selection bounds. It is rebuilt lazily after mutations.
type SceneGraph struct {
	Roots     []*SceneNode
	NodesByID map[string]*SceneNode
}

// SceneNode is one visible node with its transforms resolved.
type SceneNode struct {
	ID   string
	Type component.Type

	LocalTransform geometry.Matrix2D // box placement inside the parent
	WorldTransform geometry.Matrix2D // parent world * local

	Size   geometry.Size
	Locked bool

	Parent   *SceneNode
	Children []*SceneNode

	// Box is the world AABB of the node's own box; Bounds also covers its
	// children.
	Box    geometry.Rect
	Bounds geometry.Rect

	inverse    geometry.Matrix2D
	invertible bool
}

func NewSceneGraph() *SceneGraph {
	return &SceneGraph{NodesByID: make(map[string]*SceneNode)}
}

// ContainsPoint reports whether the world point p falls inside the node's
// own rotated and skewed box.
func (n *SceneNode) ContainsPoint(p geometry.Point) bool {
	if !n.invertible || !n.Box.Contains(p) {
		return false
	}
	local := n.inverse.TransformPoint(p)
	return local.X >= 0 && local.X <= n.Size.Width && local.Y >= 0 && local.Y <= n.Size.Height
}

// HitTest returns the id of the front-most node whose box contains p, or "".
// Children paint above their parent and later siblings above earlier ones.
func (sg *SceneGraph) HitTest(p geometry.Point) string {
	if sg == nil {
		return ""
	}
	for i := len(sg.Roots) - 1; i >= 0; i-- {
		if hit := hitTestNode(sg.Roots[i], p); hit != "" {
			return hit
		}
	}
	return ""
}

func hitTestNode(node *SceneNode, p geometry.Point) string {
	if !node.Bounds.Contains(p) {
		return ""
	}
	for i := len(node.Children) - 1; i >= 0; i-- {
		if hit := hitTestNode(node.Children[i], p); hit != "" {
			return hit
		}
	}
	if node.ContainsPoint(p) {
		return node.ID
	}
	return ""
}

// SelectionBounds returns the union of the world bounds of ids. Unknown and
// hidden ids are skipped.
func (sg *SceneGraph) SelectionBounds(ids []string) geometry.Rect {
	if sg == nil {
		return geometry.Rect{}
	}
	var result geometry.Rect
	first := true
	for _, id := range ids {
		node, ok := sg.NodesByID[id]
		if !ok || node.Bounds.IsEmpty() {
			continue
		}
		if first {
			result = node.Bounds
			first = false
		} else {
			result = result.Union(node.Bounds)
		}
	}
	return result
}
