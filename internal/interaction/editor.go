package interaction

import (
	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/geometry"
)

// Editor is the store the machine reads from and commits to. Missing ids
// must be tolerated as no-ops.
type Editor interface {
	Node(id string) (component.Node, bool)
	// CanvasNodes returns the top-level nodes; Children may be left empty.
	CanvasNodes() []component.Node
	// Parent returns the parent id of id, "" for canvas-level nodes.
	Parent(id string) (string, bool)
	// WorldBounds returns the canvas-space AABB of a node's own box.
	WorldBounds(id string) (geometry.Rect, bool)
	Selection() []string
	Settings() document.Settings

	AddComponent(t component.Type, at geometry.Point) string
	UpdateComponents(edits []component.Edit) int
	SelectNode(id string, additive bool)
	SelectNodes(ids []string, additive bool)
	AddTemplate(templateID string, at geometry.Point) ([]string, error)
}
