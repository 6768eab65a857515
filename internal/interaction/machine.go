package interaction

import (
	"log/slog"
	"slices"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
)

const (
	// DefaultProximity is the distance under which a dragged node is
	// considered close to another node's position.
	DefaultProximity = 10.0
	// DefaultAlignGrid is the finer grid used for nodes dragged near another
	// node.
	DefaultAlignGrid = 10.0
)

type Option func(*Machine)

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

func WithProximity(threshold, alignGrid float64) Option {
	return func(m *Machine) {
		m.proximity = threshold
		m.alignGrid = alignGrid
	}
}

func WithMinSize(size float64) Option {
	return func(m *Machine) { m.minSize = size }
}

// Machine is the canvas gesture state machine.
type Machine struct {
	editor    Editor
	logger    *slog.Logger
	proximity float64
	alignGrid float64
	minSize   float64

	state  State
	origin geometry.Point

	// Dragging
	dragIDs  []string
	dragFrom map[string]geometry.Point

	// Resizing and Rotating
	nodeID    string
	direction geometry.Direction
	original  geometry.Rect
	center    geometry.Point

	// MarqueeSelecting
	marquee geometry.Rect
}

func New(editor Editor, opts ...Option) *Machine {
	m := &Machine{
		editor:    editor,
		logger:    slog.Default(),
		proximity: DefaultProximity,
		alignGrid: DefaultAlignGrid,
		minSize:   geometry.DefaultMinSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) State() State { return m.state }

// Direction returns the handle held while Resizing.
func (m *Machine) Direction() geometry.Direction { return m.direction }

// Marquee returns the rubber-band rectangle while MarqueeSelecting.
func (m *Machine) Marquee() (geometry.Rect, bool) {
	return m.marquee, m.state == MarqueeSelecting
}

// PointerDown starts a gesture. It is ignored unless the machine is Idle.
func (m *Machine) PointerDown(ev PointerEvent) State {
	if m.state != Idle {
		return m.state
	}
	switch ev.Target.Kind {
	case TargetNode:
		m.startDrag(ev)
	case TargetResizeHandle:
		m.startResize(ev)
	case TargetRotateHandle:
		m.startRotate(ev)
	case TargetCanvas:
		m.startMarquee(ev)
	}
	return m.state
}

// PointerMove advances the active gesture and commits its result.
func (m *Machine) PointerMove(ev PointerEvent) {
	switch m.state {
	case Dragging:
		m.drag(ev.Point)
	case Resizing:
		m.resize(ev.Point)
	case Rotating:
		m.rotate(ev.Point)
	case MarqueeSelecting:
		m.growMarquee(ev.Point)
	}
}

// PointerUp ends the active gesture.
func (m *Machine) PointerUp(PointerEvent) { m.reset() }

// PointerLeave ends the active gesture when the pointer leaves the canvas.
func (m *Machine) PointerLeave() { m.reset() }

func (m *Machine) reset() {
	*m = Machine{
		editor:    m.editor,
		logger:    m.logger,
		proximity: m.proximity,
		alignGrid: m.alignGrid,
		minSize:   m.minSize,
	}
}

func (m *Machine) startDrag(ev PointerEvent) {
	if ev.Target.NodeID == "" {
		return
	}
	m.editor.SelectNode(ev.Target.NodeID, ev.Modifier)

	sel := m.editor.Selection()
	from := make(map[string]geometry.Point)
	var ids []string
	for _, id := range sel {
		if m.ancestorIn(id, sel) {
			continue
		}
		n, ok := m.editor.Node(id)
		if !ok || n.Metadata.Locked {
			continue
		}
		from[id] = n.Position
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}
	m.state = Dragging
	m.origin = ev.Point
	m.dragIDs = ids
	m.dragFrom = from
}

// ancestorIn reports whether any ancestor of id is in ids. Such nodes
// already move with their ancestor.
func (m *Machine) ancestorIn(id string, ids []string) bool {
	for {
		parent, ok := m.editor.Parent(id)
		if !ok || parent == "" {
			return false
		}
		if slices.Contains(ids, parent) {
			return true
		}
		id = parent
	}
}

func (m *Machine) drag(p geometry.Point) {
	delta := p.Sub(m.origin)
	settings := m.editor.Settings()

	// Anchors are keyed by parent so positions compare in the same space.
	anchors := make(map[string][]geometry.Point)
	edits := make([]component.Edit, 0, len(m.dragIDs))
	for _, id := range m.dragIDs {
		pos := m.dragFrom[id].Add(delta)
		if settings.SnapToGrid {
			parent, _ := m.editor.Parent(id)
			near, ok := anchors[parent]
			if !ok {
				near = m.siblingAnchors(parent)
				anchors[parent] = near
			}
			grid := settings.GridSize
			if m.nearAny(pos, near) {
				grid = m.alignGrid
			}
			pos = geometry.SnapPoint(pos, grid)
		}
		pos.X = max(pos.X, 0)
		pos.Y = max(pos.Y, 0)
		edits = append(edits, component.Edit{ID: id, Patch: component.PositionPatch(pos)})
	}
	m.editor.UpdateComponents(edits)
}

// siblingAnchors returns the positions of the children of parent that are
// not being dragged. An empty parent means the canvas.
func (m *Machine) siblingAnchors(parent string) []geometry.Point {
	var siblings []component.Node
	if parent == "" {
		siblings = m.editor.CanvasNodes()
	} else if n, ok := m.editor.Node(parent); ok {
		siblings = n.Children
	}
	var out []geometry.Point
	for _, n := range siblings {
		if _, dragged := m.dragFrom[n.ID]; !dragged {
			out = append(out, n.Position)
		}
	}
	return out
}

func (m *Machine) nearAny(p geometry.Point, anchors []geometry.Point) bool {
	return slices.ContainsFunc(anchors, func(a geometry.Point) bool {
		return p.Distance(a) < m.proximity
	})
}

// soleTarget returns the single selected, unlocked node a handle gesture
// applies to.
func (m *Machine) soleTarget(ev PointerEvent) (component.Node, bool) {
	sel := m.editor.Selection()
	if len(sel) != 1 {
		return component.Node{}, false
	}
	if ev.Target.NodeID != "" && ev.Target.NodeID != sel[0] {
		return component.Node{}, false
	}
	n, ok := m.editor.Node(sel[0])
	if !ok || n.Metadata.Locked {
		return component.Node{}, false
	}
	return n, true
}

func (m *Machine) startResize(ev PointerEvent) {
	if ev.Target.Direction == 0 {
		return
	}
	n, ok := m.soleTarget(ev)
	if !ok {
		return
	}
	m.state = Resizing
	m.origin = ev.Point
	m.nodeID = n.ID
	m.direction = ev.Target.Direction
	m.original = n.Bounds()
}

func (m *Machine) resize(p geometry.Point) {
	settings := m.editor.Settings()
	r := geometry.ResizeFromHandle(m.direction, m.original, p.Sub(m.origin), settings.AspectLocked, m.minSize)
	if settings.SnapToGrid && !settings.AspectLocked {
		r = geometry.AnchorResize(m.direction, m.original, geometry.SnapSize(r.Size(), settings.GridSize))
	}
	r = geometry.FitOrigin(m.direction, m.original, r, settings.AspectLocked, m.minSize)
	pos, size := r.Position(), r.Size()
	m.editor.UpdateComponents([]component.Edit{{
		ID:    m.nodeID,
		Patch: component.Patch{Position: &pos, Size: &size},
	}})
}

func (m *Machine) startRotate(ev PointerEvent) {
	n, ok := m.soleTarget(ev)
	if !ok {
		return
	}
	box, ok := m.editor.WorldBounds(n.ID)
	if !ok {
		box = n.Bounds()
	}
	m.state = Rotating
	m.origin = ev.Point
	m.nodeID = n.ID
	m.center = box.Center()
}

func (m *Machine) rotate(p geometry.Point) {
	angle := geometry.SnapAngle(geometry.ComputeAngle(m.center, p))
	m.editor.UpdateComponents([]component.Edit{{
		ID:    m.nodeID,
		Patch: component.Patch{Rotation: &angle},
	}})
}

func (m *Machine) startMarquee(ev PointerEvent) {
	if ev.Modifier {
		return
	}
	m.editor.SelectNode("", false)
	m.state = MarqueeSelecting
	m.origin = ev.Point
	m.marquee = geometry.RectBetween(ev.Point, ev.Point)
}

func (m *Machine) growMarquee(p geometry.Point) {
	m.marquee = geometry.RectBetween(m.origin, p)
	ids := []string{}
	for _, n := range m.editor.CanvasNodes() {
		if n.Metadata.Hidden {
			continue
		}
		if geometry.RectIntersects(n.Bounds(), m.marquee) {
			ids = append(ids, n.ID)
		}
	}
	m.editor.SelectNodes(ids, false)
}

// Drop handles a palette item released over the canvas at p. Component
// payloads add a component, template payloads instantiate a template; the
// drop point is grid-snapped when snapping is on. Malformed payloads are
// ignored. It returns the ids of the new top-level nodes.
func (m *Machine) Drop(p geometry.Point, data []byte) []string {
	payload, err := ParseDropPayload(data)
	if err != nil {
		m.logger.Debug("ignored drop", "error", err)
		return nil
	}
	settings := m.editor.Settings()
	if settings.SnapToGrid {
		p = geometry.SnapPoint(p, settings.GridSize)
	}
	p.X, p.Y = max(p.X, 0), max(p.Y, 0)

	switch payload.Type {
	case DropComponent:
		if id := m.editor.AddComponent(payload.ComponentType, p); id != "" {
			return []string{id}
		}
	case DropTemplate:
		ids, err := m.editor.AddTemplate(payload.TemplateID, p)
		if err != nil {
			m.logger.Warn("template drop failed", "template", payload.TemplateID, "error", err)
			return nil
		}
		return ids
	}
	return nil
}
