package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/typeid"
)

// AddComponent creates a component of type t at the canvas point pos and
// returns its id. Unknown types are ignored and return "".
func (e *Engine) AddComponent(t component.Type, pos geometry.Point) string {
	if !t.Valid() {
		e.logger.Warn("ignored unknown component type", "type", t)
		return ""
	}
	n := component.NewNode(t,
		component.WithPosition(geometry.Point{X: max(pos.X, 0), Y: max(pos.Y, 0)}),
		component.WithProps(component.DefaultProps(t)),
		component.WithAuthor(e.author),
	)

	e.mu.Lock()
	if err := e.arena.insert(n, "", -1); err != nil {
		e.mu.Unlock()
		e.logger.Warn("add component failed", "error", err)
		return ""
	}
	e.dirty = true
	ev := e.event(EventAdded, []string{n.ID})
	e.mu.Unlock()
	e.emit(ev)
	return n.ID
}

// UpdateComponent applies patch to id. It reports false when id is unknown
// or the patch is empty.
func (e *Engine) UpdateComponent(id string, patch component.Patch) bool {
	return e.UpdateComponents([]component.Edit{{ID: id, Patch: patch}}) == 1
}

// UpdateComponents applies every edit and emits a single event for the
// batch. Edits for unknown ids are skipped. It returns how many nodes
// changed.
func (e *Engine) UpdateComponents(edits []component.Edit) int {
	e.mu.Lock()
	var ids []string
	for _, ed := range edits {
		ent, ok := e.arena.entries[ed.ID]
		if !ok || ed.Patch.IsEmpty() {
			continue
		}
		ent.node = component.ApplyPatch(ent.node, ed.Patch)
		if !slices.Contains(ids, ed.ID) {
			ids = append(ids, ed.ID)
		}
	}
	if len(ids) == 0 {
		e.mu.Unlock()
		return 0
	}
	e.dirty = true
	ev := e.event(EventUpdated, ids)
	e.mu.Unlock()
	e.emit(ev)
	return len(ids)
}

// DeleteComponent removes id and its subtree. The selection is left alone.
func (e *Engine) DeleteComponent(id string) bool {
	e.mu.Lock()
	if !e.arena.has(id) {
		e.mu.Unlock()
		return false
	}
	removed := e.arena.remove(id)
	e.dirty = true
	ev := e.event(EventDeleted, removed)
	e.mu.Unlock()
	e.emit(ev)
	return true
}

// Duplicate copies id's subtree with fresh ids, offset by
// component.DefaultDuplicateOffset, and places it just above the original.
func (e *Engine) Duplicate(id string) (string, bool) {
	e.mu.Lock()
	ent, ok := e.arena.entries[id]
	if !ok {
		e.mu.Unlock()
		return "", false
	}
	dup := component.Duplicate(e.arena.materialize(id), component.DefaultDuplicateOffset)
	index := slices.Index(*e.arena.siblings(ent.parent), id) + 1
	if err := e.arena.insert(dup, ent.parent, index); err != nil {
		e.mu.Unlock()
		e.logger.Warn("duplicate failed", "id", id, "error", err)
		return "", false
	}
	e.dirty = true
	ev := e.event(EventAdded, component.IDs(dup))
	e.mu.Unlock()
	e.emit(ev)
	return dup.ID, true
}

// Group wraps the given siblings in a new container, placed in the stacking
// slot of the lowest of them, and selects it. Unknown ids are ignored.
func (e *Engine) Group(ids []string) (string, error) {
	e.mu.Lock()
	members := make([]string, 0, len(ids))
	for _, id := range ids {
		if e.arena.has(id) && !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		e.mu.Unlock()
		return "", component.ErrEmptyGroup
	}
	parent := e.arena.entries[members[0]].parent
	for _, id := range members[1:] {
		if e.arena.entries[id].parent != parent {
			e.mu.Unlock()
			return "", fmt.Errorf("%w: grouped nodes must share a parent", component.ErrInvalidArgument)
		}
	}

	// Keep stacking order: children follow their order among the siblings.
	siblings := *e.arena.siblings(parent)
	slices.SortFunc(members, func(a, b string) int {
		return slices.Index(siblings, a) - slices.Index(siblings, b)
	})
	nodes := make([]component.Node, len(members))
	for i, id := range members {
		nodes[i] = e.arena.materialize(id)
	}
	group, err := component.Group(nodes)
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	group.Metadata.Author = e.author

	index := slices.Index(siblings, members[0])
	for _, id := range members {
		e.arena.remove(id)
	}
	if err := e.arena.insert(group, parent, index); err != nil {
		e.mu.Unlock()
		return "", err
	}
	e.sel.Replace([]string{group.ID})
	e.dirty = true
	ev := e.event(EventMoved, append([]string{group.ID}, members...))
	sel := e.event(EventSelection, e.sel.IDs())
	e.mu.Unlock()
	e.emit(ev)
	e.emit(sel)
	return group.ID, nil
}

// Ungroup replaces id with its direct children, translated into id's parent
// space, and selects them.
func (e *Engine) Ungroup(id string) ([]string, error) {
	e.mu.Lock()
	ent, ok := e.arena.entries[id]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("ungroup %q: %w", id, ErrNotFound)
	}
	if len(ent.children) == 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %q has no children to ungroup", component.ErrInvalidArgument, id)
	}

	group := e.arena.materialize(id)
	parent := ent.parent
	children := component.Ungroup(group, geometry.Point{})
	index := slices.Index(*e.arena.siblings(parent), id)
	e.arena.remove(id)

	ids := make([]string, len(children))
	for i, c := range children {
		if err := e.arena.insert(c, parent, index+i); err != nil {
			e.mu.Unlock()
			return nil, err
		}
		ids[i] = c.ID
	}
	e.sel.Replace(ids)
	e.dirty = true
	ev := e.event(EventMoved, append([]string{id}, ids...))
	sel := e.event(EventSelection, e.sel.IDs())
	e.mu.Unlock()
	e.emit(ev)
	e.emit(sel)
	return ids, nil
}

// Reparent moves id under parentID ("" for the canvas) at index. A node
// cannot be moved under itself or one of its descendants. Its position is
// kept as is, so it is now relative to the new parent.
func (e *Engine) Reparent(id, parentID string, index int) error {
	e.mu.Lock()
	if !e.arena.has(id) {
		e.mu.Unlock()
		return fmt.Errorf("reparent %q: %w", id, ErrNotFound)
	}
	if parentID != "" {
		if !e.arena.has(parentID) {
			e.mu.Unlock()
			return fmt.Errorf("reparent under %q: %w", parentID, ErrNotFound)
		}
		if e.arena.isDescendant(parentID, id) {
			e.mu.Unlock()
			return component.ErrCycle
		}
	}

	e.arena.detach(id)
	list := e.arena.siblings(parentID)
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	*list = slices.Insert(*list, index, id)
	e.arena.entries[id].parent = parentID
	e.dirty = true
	ev := e.event(EventMoved, []string{id})
	e.mu.Unlock()
	e.emit(ev)
	return nil
}

// Import adds externally produced trees to the canvas. Nodes without an id
// get one. Every tree is validated with zero sizes tolerated; validation
// problems are returned but do not block the import. Trees whose ids clash
// with existing nodes are skipped and reported in the error.
func (e *Engine) Import(nodes []component.Node) ([]component.ValidationError, error) {
	var problems []component.ValidationError
	prepared := make([]component.Node, len(nodes))
	for i, n := range nodes {
		n = assignMissingIDs(n)
		prefix := fmt.Sprintf("[%d].", i)
		for _, v := range component.ValidateWith(n, component.ValidateOptions{AllowZeroSize: true}) {
			v.Field = prefix + v.Field
			problems = append(problems, v)
		}
		prepared[i] = n
	}

	e.mu.Lock()
	var added []string
	var errs []error
	for _, n := range prepared {
		if err := e.arena.insert(n, "", -1); err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, component.IDs(n)...)
	}
	if len(added) == 0 {
		e.mu.Unlock()
		return problems, errors.Join(errs...)
	}
	e.dirty = true
	ev := e.event(EventAdded, added)
	e.mu.Unlock()
	e.emit(ev)
	return problems, errors.Join(errs...)
}

func assignMissingIDs(n component.Node) component.Node {
	if n.ID == "" {
		n.ID = typeid.NewNodeID()
	}
	if len(n.Children) > 0 {
		children := make([]component.Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = assignMissingIDs(c)
		}
		n.Children = children
	}
	return n
}

// AddTemplate instantiates templateID with its top-left corner at at and
// selects the new roots.
func (e *Engine) AddTemplate(templateID string, at geometry.Point) ([]string, error) {
	if e.templates == nil {
		return nil, ErrNoTemplates
	}
	roots, err := e.templates.Instantiate(templateID, at)
	if err != nil {
		return nil, fmt.Errorf("add template %q: %w", templateID, err)
	}

	e.mu.Lock()
	var added, rootIDs []string
	for _, n := range roots {
		if err := e.arena.insert(n, "", -1); err != nil {
			e.logger.Warn("skipped template node", "template", templateID, "error", err)
			continue
		}
		rootIDs = append(rootIDs, n.ID)
		added = append(added, component.IDs(n)...)
	}
	if len(rootIDs) == 0 {
		e.mu.Unlock()
		return nil, nil
	}
	e.sel.Replace(rootIDs)
	e.dirty = true
	ev := e.event(EventAdded, added)
	sel := e.event(EventSelection, e.sel.IDs())
	e.mu.Unlock()
	e.emit(ev)
	e.emit(sel)
	return rootIDs, nil
}
