package engine

import (
	"github.com/inamate/artboard/internal/geometry"
)

// buildSceneGraph resolves world transforms for every visible node of a.
// Hidden nodes are left out together with their subtrees.
func buildSceneGraph(a *arena) *SceneGraph {
	sg := NewSceneGraph()
	for _, id := range a.roots {
		if node := buildNode(a, id, nil, geometry.Identity(), sg); node != nil {
			sg.Roots = append(sg.Roots, node)
		}
	}
	return sg
}

func buildNode(a *arena, id string, parent *SceneNode, parentWorld geometry.Matrix2D, sg *SceneGraph) *SceneNode {
	ent := a.entries[id]
	n := ent.node
	if n.Metadata.Hidden {
		return nil
	}

	local := geometry.BoxTransform(n.Position, n.Size, n.Rotation, n.Skew.X, n.Skew.Y)
	world := parentWorld.Multiply(local)
	inverse, ok := world.Invert()
	box := world.TransformRect(geometry.Rect{Width: n.Size.Width, Height: n.Size.Height})

	node := &SceneNode{
		ID:             n.ID,
		Type:           n.Type,
		LocalTransform: local,
		WorldTransform: world,
		Size:           n.Size,
		Locked:         n.Metadata.Locked,
		Parent:         parent,
		Box:            box,
		Bounds:         box,
		inverse:        inverse,
		invertible:     ok,
	}
	sg.NodesByID[n.ID] = node

	for _, childID := range ent.children {
		child := buildNode(a, childID, node, world, sg)
		if child == nil {
			continue
		}
		node.Children = append(node.Children, child)
		if !child.Bounds.IsEmpty() {
			node.Bounds = node.Bounds.Union(child.Bounds)
		}
	}
	return node
}

// sceneGraph returns the current scene graph, rebuilding it when stale.
// Callers hold mu for writing.
func (e *Engine) sceneGraph() *SceneGraph {
	if e.dirty {
		e.scene = buildSceneGraph(e.arena)
		e.dirty = false
	}
	return e.scene
}

// HitTest returns the id of the front-most visible node under p, using the
// rotated and skewed boxes, or "" for the canvas background.
func (e *Engine) HitTest(p geometry.Point) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sceneGraph().HitTest(p)
}

// SelectionBounds returns the world bounding box of the visible selected
// nodes, or an empty rect.
func (e *Engine) SelectionBounds() geometry.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sceneGraph().SelectionBounds(e.sel.IDs())
}

// WorldBounds returns the world AABB of id's own box.
func (e *Engine) WorldBounds(id string) (geometry.Rect, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	node, ok := e.sceneGraph().NodesByID[id]
	if !ok {
		return geometry.Rect{}, false
	}
	return node.Box, true
}
