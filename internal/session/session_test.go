package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/storage"
)

type memStore struct {
	mu      sync.Mutex
	snaps   map[string][]storage.Snapshot
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string][]storage.Snapshot)}
}

func (m *memStore) LatestSnapshot(_ context.Context, projectID string) (*storage.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.snaps[projectID]
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	s := list[len(list)-1]
	return &s, nil
}

func (m *memStore) SaveSnapshot(_ context.Context, id, projectID string, doc json.RawMessage) (*storage.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	s := storage.Snapshot{ID: id, ProjectID: projectID, Version: len(m.snaps[projectID]) + 1, Document: doc}
	m.snaps[projectID] = append(m.snaps[projectID], s)
	return &s, nil
}

func (m *memStore) PruneSnapshots(_ context.Context, projectID string, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.snaps[projectID]
	if len(list) <= keep {
		return 0, nil
	}
	n := len(list) - keep
	m.snaps[projectID] = list[n:]
	return int64(n), nil
}

func (m *memStore) versions(projectID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps[projectID])
}

func (m *memStore) seed(t *testing.T, projectID string, state *document.State) {
	t.Helper()
	doc, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SaveSnapshot(context.Background(), "snap_seed", projectID, doc); err != nil {
		t.Fatal(err)
	}
}

type conn struct {
	t   *testing.T
	hub *Hub
	s   *Session
	in  chan Message
	seq int64
}

// open starts a session for projectID whose output is captured on c.in.
func open(t *testing.T, hub *Hub, projectID string) *conn {
	t.Helper()
	c := &conn{t: t, hub: hub, in: make(chan Message, 1024)}
	s, err := hub.Open(context.Background(), projectID, "user_1", func(m Message) { c.in <- m })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.s = s

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	c.expect(TypeWelcome)
	c.expect(TypeStateSync)
	return c
}

func (c *conn) deliver(typ string, payload any) {
	c.t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		c.t.Fatal(err)
	}
	c.seq++
	if err := c.s.Deliver(context.Background(), Message{Type: typ, Seq: c.seq, Payload: data}); err != nil {
		c.t.Fatalf("Deliver: %v", err)
	}
}

// expect skips messages until one of type typ arrives and decodes its
// payload into v when v is non-nil.
func (c *conn) expect(typ string, v ...any) Message {
	c.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-c.in:
			if m.Type != typ {
				continue
			}
			if len(v) > 0 {
				if err := json.Unmarshal(m.Payload, v[0]); err != nil {
					c.t.Fatalf("decode %s: %v", typ, err)
				}
			}
			return m
		case <-timeout:
			c.t.Fatalf("no %s message", typ)
			return Message{}
		}
	}
}

type gesture struct {
	State   string         `json:"state"`
	Marquee *geometry.Rect `json:"marquee"`
}

func TestDropThenDrag(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	c := open(t, hub, "proj_1")

	c.deliver(TypeDrop, DropPayload{X: 33, Y: 47, Data: `{"type":"component","componentType":"button"}`})
	var added StateChangedPayload
	c.expect(TypeStateChanged, &added)
	if added.Kind != "added" || len(added.Nodes) != 1 {
		t.Fatalf("added = %+v", added)
	}
	n := added.Nodes[0]
	if n.Position != (geometry.Point{X: 40, Y: 40}) {
		t.Fatalf("dropped at %v, want snapped (40,40)", n.Position)
	}

	c.deliver(TypePointerDown, PointerPayload{X: 50, Y: 50})
	var g gesture
	c.expect(TypeGesture, &g)
	if g.State != "dragging" {
		t.Fatalf("gesture = %q, want dragging", g.State)
	}

	c.deliver(TypePointerMove, PointerPayload{X: 70, Y: 90})
	var moved StateChangedPayload
	c.expect(TypeStateChanged, &moved)
	for moved.Kind != "updated" {
		c.expect(TypeStateChanged, &moved)
	}
	if got := moved.Nodes[0].Position; got != (geometry.Point{X: 60, Y: 80}) {
		t.Fatalf("moved to %v, want (60,80)", got)
	}

	c.deliver(TypePointerUp, PointerPayload{X: 70, Y: 90})
	c.expect(TypeGesture, &g)
	if g.State != "idle" {
		t.Fatalf("gesture after up = %q", g.State)
	}

	if !c.s.Dirty() {
		t.Fatal("session not dirty after edits")
	}
	hub.Close(c.s)
	if store.versions("proj_1") != 1 {
		t.Fatalf("versions = %d, want 1", store.versions("proj_1"))
	}
	snap, _ := store.LatestSnapshot(context.Background(), "proj_1")
	state, err := document.Decode(snap.Document)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Components) != 1 || state.Components[0].Position != (geometry.Point{X: 60, Y: 80}) {
		t.Fatalf("saved state = %+v", state.Components)
	}
	if _, ok := hub.Session("proj_1"); ok {
		t.Error("session still registered after Close")
	}
}

func TestMarqueeOverWire(t *testing.T) {
	store := newMemStore()
	state := document.NewEmptyState()
	state.Components = []component.Node{
		component.NewNode(component.TypeText, component.WithID("a"),
			component.WithPosition(geometry.Point{X: 100, Y: 100})),
		component.NewNode(component.TypeText, component.WithID("b"),
			component.WithPosition(geometry.Point{X: 400, Y: 400})),
	}
	store.seed(t, "proj_1", state)
	c := open(t, NewHub(store), "proj_1")

	c.deliver(TypePointerDown, PointerPayload{X: 0, Y: 0})
	var g gesture
	c.expect(TypeGesture, &g)
	if g.State != "marquee" {
		t.Fatalf("gesture = %q", g.State)
	}
	c.deliver(TypePointerMove, PointerPayload{X: 250, Y: 250})
	c.expect(TypeGesture, &g)
	if g.Marquee == nil || *g.Marquee != (geometry.Rect{X: 0, Y: 0, Width: 250, Height: 250}) {
		t.Fatalf("marquee = %v", g.Marquee)
	}
	c.deliver(TypePointerLeave, nil)
	c.expect(TypeGesture, &g)

	if got := c.s.Engine().Selection(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("selection = %v, want [a]", got)
	}
}

func TestCommandsAndErrors(t *testing.T) {
	store := newMemStore()
	state := document.NewEmptyState()
	state.Components = []component.Node{
		component.NewNode(component.TypeText, component.WithID("a"),
			component.WithPosition(geometry.Point{X: 0, Y: 0})),
		component.NewNode(component.TypeText, component.WithID("b"),
			component.WithPosition(geometry.Point{X: 200, Y: 0})),
	}
	store.seed(t, "proj_1", state)
	c := open(t, NewHub(store), "proj_1")
	eng := c.s.Engine()

	c.deliver("node.explode", NodePayload{ID: "a"})
	var e ErrorPayload
	c.expect(TypeError, &e)
	if e.ReplyTo != c.seq {
		t.Errorf("replyTo = %d, want %d", e.ReplyTo, c.seq)
	}

	c.deliver(TypeNodeGroup, GroupPayload{})
	c.expect(TypeError, &e)

	locked := true
	c.deliver(TypeNodeUpdate, UpdatePayload{Edits: []component.Edit{{ID: "a", Patch: component.Patch{Locked: &locked}}}})
	c.expect(TypeStateChanged)

	c.deliver(TypeNodeGroup, GroupPayload{IDs: []string{"a", "b"}})
	var sel StateChangedPayload
	c.expect(TypeStateChanged, &sel)
	for sel.Kind != "selection" {
		c.expect(TypeStateChanged, &sel)
	}
	if len(sel.IDs) != 1 || eng.Len() != 3 {
		t.Fatalf("group: selection %v, %d nodes", sel.IDs, eng.Len())
	}
	group := sel.IDs[0]

	c.deliver(TypeNodeUngroup, NodePayload{ID: group})
	c.expect(TypeStateChanged)

	off := false
	c.deliver(TypeSettingsUpdate, document.SettingsPatch{SnapToGrid: &off})
	var changed StateChangedPayload
	c.expect(TypeStateChanged, &changed)
	for changed.Kind != "settings" {
		c.expect(TypeStateChanged, &changed)
	}
	if changed.Settings == nil || changed.Settings.SnapToGrid {
		t.Fatalf("settings = %+v", changed.Settings)
	}

	c.deliver(TypeNodesImport, ImportPayload{Nodes: []component.Node{
		{Type: component.TypeText, Size: geometry.Size{Width: 0, Height: 10}},
		{ID: "a", Type: component.TypeText, Size: geometry.Size{Width: 10, Height: 10}},
	}})
	var res ImportResultPayload
	c.expect(TypeImportResult, &res)
	if len(res.Errors) != 0 {
		t.Errorf("import errors = %v", res.Errors)
	}
	if res.Skipped == "" {
		t.Error("colliding tree not reported")
	}
	if eng.Len() != 3 {
		t.Errorf("nodes = %d, want 3", eng.Len())
	}
}

func TestOneSessionPerProject(t *testing.T) {
	hub := NewHub(newMemStore())
	c := open(t, hub, "proj_1")

	if _, err := hub.Open(context.Background(), "proj_1", "user_2", func(Message) {}); !errors.Is(err, ErrProjectBusy) {
		t.Fatalf("second Open = %v", err)
	}
	hub.Close(c.s)
	s, err := hub.Open(context.Background(), "proj_1", "user_2", func(Message) {})
	if err != nil {
		t.Fatalf("Open after Close: %v", err)
	}
	hub.Close(s)
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, WithSnapshotsKept(2))
	c := open(t, hub, "proj_1")

	c.deliver(TypeDrop, DropPayload{X: 0, Y: 0, Data: `{"type":"component","componentType":"text"}`})
	c.expect(TypeStateChanged)

	store.saveErr = errors.New("disk full")
	hub.SaveAll(context.Background())
	if !c.s.Dirty() {
		t.Fatal("failed save cleared dirty flag")
	}

	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	for range 3 {
		hub.SaveAll(context.Background())
		c.deliver(TypeDrop, DropPayload{X: 0, Y: 0, Data: `{"type":"component","componentType":"text"}`})
		c.expect(TypeStateChanged)
	}
	hub.SaveAll(context.Background())
	if got := store.versions("proj_1"); got != 2 {
		t.Fatalf("versions kept = %d, want 2", got)
	}
	if c.s.Dirty() {
		t.Error("dirty after successful save")
	}
}

func TestStop(t *testing.T) {
	hub := NewHub(newMemStore())
	if err := hub.StartAutosave("not a schedule"); err == nil {
		t.Error("invalid schedule accepted")
	}
	if err := hub.StartAutosave("@every 1h"); err != nil {
		t.Fatal(err)
	}
	hub.Stop()
	if _, err := hub.Open(context.Background(), "proj_1", "user_1", func(Message) {}); !errors.Is(err, ErrHubStopped) {
		t.Fatalf("Open after Stop = %v", err)
	}
}

// blockingStore holds LatestSnapshot for one project until release closes.
type blockingStore struct {
	*memStore
	project string
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) LatestSnapshot(ctx context.Context, projectID string) (*storage.Snapshot, error) {
	if projectID == b.project {
		close(b.entered)
		<-b.release
	}
	return b.memStore.LatestSnapshot(ctx, projectID)
}

func TestOpenLoadsWithoutHoldingHub(t *testing.T) {
	store := &blockingStore{
		memStore: newMemStore(),
		project:  "proj_slow",
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	hub := NewHub(store)

	type result struct {
		s   *Session
		err error
	}
	slow := make(chan result, 1)
	go func() {
		s, err := hub.Open(context.Background(), "proj_slow", "user_1", func(Message) {})
		slow <- result{s, err}
	}()
	<-store.entered

	done := make(chan error, 1)
	go func() {
		s, err := hub.Open(context.Background(), "proj_fast", "user_1", func(Message) {})
		if err == nil {
			hub.Close(s)
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Open other project: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Open blocked behind a slow load")
	}

	if _, err := hub.Open(context.Background(), "proj_slow", "user_2", func(Message) {}); !errors.Is(err, ErrProjectBusy) {
		t.Errorf("second Open while loading = %v, want ErrProjectBusy", err)
	}
	if _, ok := hub.Session("proj_slow"); ok {
		t.Error("session visible before load finished")
	}

	close(store.release)
	r := <-slow
	if r.err != nil {
		t.Fatalf("slow Open: %v", r.err)
	}
	if got, ok := hub.Session("proj_slow"); !ok || got != r.s {
		t.Error("session not registered after load")
	}
}
