// Package engine is the editor's state container. It owns the component
// arena, the selection and the editor settings, notifies subscribers after
// every committed change, and keeps a scene graph for hit testing.
package engine

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/selection"
)

var (
	ErrNotFound    = errors.New("node not found")
	ErrDuplicateID = errors.New("node id already exists")
	ErrNoTemplates = errors.New("no template source configured")
)

// TemplateSource turns a template id into fresh-id component trees placed at
// a canvas point.
type TemplateSource interface {
	Instantiate(id string, at geometry.Point) ([]component.Node, error)
}

// Engine is safe for concurrent use. Writers are expected to come from one
// session goroutine; other goroutines only read (autosave, export).
type Engine struct {
	mu       sync.RWMutex
	arena    *arena
	sel      *selection.Set
	settings document.Settings
	scene    *SceneGraph
	dirty    bool
	seq      uint64

	templates TemplateSource
	author    string
	logger    *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

type Option func(*Engine)

func WithTemplates(src TemplateSource) Option {
	return func(e *Engine) { e.templates = src }
}

// WithAuthor stamps metadata.author on components created by this engine.
func WithAuthor(author string) Option {
	return func(e *Engine) { e.author = author }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSettings overrides the default editor settings.
func WithSettings(s document.Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		arena:    newArena(),
		sel:      selection.New(),
		settings: document.DefaultSettings(),
		scene:    NewSceneGraph(),
		dirty:    true,
		logger:   slog.Default(),
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset drops every node and the selection. Settings are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.arena = newArena()
	e.sel.Clear()
	e.dirty = true
	ev := e.event(EventReset, nil)
	e.mu.Unlock()
	e.emit(ev)
}

// Subscribe registers fn to receive every event. The returned function
// removes the subscription.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// event stamps the next sequence number. Callers hold mu.
func (e *Engine) event(kind EventKind, ids []string) Event {
	e.seq++
	return Event{Kind: kind, IDs: ids, Seq: e.seq}
}

// emit runs subscribers synchronously. Callers must not hold mu.
func (e *Engine) emit(ev Event) {
	e.subMu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// --- Settings ---

func (e *Engine) Settings() document.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// UpdateSettings applies p and notifies when anything changed.
func (e *Engine) UpdateSettings(p document.SettingsPatch) document.Settings {
	e.mu.Lock()
	next := e.settings.Apply(p)
	if next == e.settings {
		e.mu.Unlock()
		return next
	}
	e.settings = next
	ev := e.event(EventSettings, nil)
	e.mu.Unlock()
	e.emit(ev)
	return next
}

func (e *Engine) SetSnapToGrid(on bool) document.Settings {
	return e.UpdateSettings(document.SettingsPatch{SnapToGrid: &on})
}

func (e *Engine) SetAspectLocked(on bool) document.Settings {
	return e.UpdateSettings(document.SettingsPatch{AspectLocked: &on})
}

func (e *Engine) SetActiveBreakpoint(bp component.Breakpoint) document.Settings {
	return e.UpdateSettings(document.SettingsPatch{ActiveBreakpoint: &bp})
}

// --- Selection ---

// Selection returns the selected ids. Ids of deleted nodes may be present.
func (e *Engine) Selection() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.IDs()
}

// SelectNode resolves a click on id. An empty id clears the selection
// unless additive.
func (e *Engine) SelectNode(id string, additive bool) {
	e.mu.Lock()
	if !e.sel.Select(id, additive) {
		e.mu.Unlock()
		return
	}
	ev := e.event(EventSelection, e.sel.IDs())
	e.mu.Unlock()
	e.emit(ev)
}

func (e *Engine) SelectNodes(ids []string, additive bool) {
	e.mu.Lock()
	if !e.sel.SelectMany(ids, additive) {
		e.mu.Unlock()
		return
	}
	ev := e.event(EventSelection, e.sel.IDs())
	e.mu.Unlock()
	e.emit(ev)
}

// --- Queries ---

// Node returns the subtree rooted at id.
func (e *Engine) Node(id string) (component.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.arena.has(id) {
		return component.Node{}, false
	}
	return e.arena.materialize(id), true
}

// CanvasNodes returns the canvas-level nodes in z-order, back to front.
// Children are not populated.
func (e *Engine) CanvasNodes() []component.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]component.Node, 0, len(e.arena.roots))
	for _, id := range e.arena.roots {
		n := e.arena.entries[id].node
		n.Children = nil
		out = append(out, n)
	}
	return out
}

// Parent returns the parent id of id, or "" for canvas-level nodes.
func (e *Engine) Parent(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.arena.entries[id]
	if !ok {
		return "", false
	}
	return ent.parent, true
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.arena.entries)
}

// --- Import / export ---

// Export snapshots the full state in the persisted shape.
func (e *Engine) Export() document.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return document.State{
		Components:       e.arena.trees(),
		SelectedNodes:    e.sel.IDs(),
		SnapToGrid:       e.settings.SnapToGrid,
		ActiveBreakpoint: e.settings.ActiveBreakpoint,
	}
}

func (e *Engine) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Export())
}

// Load replaces everything with s. Trees that collide on ids with trees
// loaded before them are skipped and reported in the returned error.
func (e *Engine) Load(s *document.State) error {
	a := newArena()
	var errs []error
	for _, root := range s.Components {
		if err := a.insert(root, "", -1); err != nil {
			errs = append(errs, err)
		}
	}

	e.mu.Lock()
	e.arena = a
	e.sel.Replace(s.SelectedNodes)
	e.settings.SnapToGrid = s.SnapToGrid
	if s.ActiveBreakpoint.Valid() {
		e.settings.ActiveBreakpoint = s.ActiveBreakpoint
	}
	e.dirty = true
	ev := e.event(EventLoaded, nil)
	e.mu.Unlock()
	e.emit(ev)

	for _, err := range errs {
		e.logger.Warn("skipped tree on load", "error", err)
	}
	return errors.Join(errs...)
}
