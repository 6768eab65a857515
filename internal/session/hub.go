package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/engine"
	"github.com/inamate/artboard/internal/storage"
	"github.com/inamate/artboard/internal/typeid"
)

var (
	ErrProjectBusy = errors.New("project is already open in another editor")
	ErrHubStopped  = errors.New("hub stopped")
)

const saveTimeout = 10 * time.Second

// SnapshotStore is the part of storage.Store the hub needs.
type SnapshotStore interface {
	LatestSnapshot(ctx context.Context, projectID string) (*storage.Snapshot, error)
	SaveSnapshot(ctx context.Context, id, projectID string, doc json.RawMessage) (*storage.Snapshot, error)
	PruneSnapshots(ctx context.Context, projectID string, keep int) (int64, error)
}

// Hub tracks the open session of every project and saves them.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session // projectID -> session
	opening  map[string]bool     // projects being loaded
	stopped  bool

	store     SnapshotStore
	templates engine.TemplateSource
	settings  document.Settings
	keep      int
	logger    *slog.Logger
	cron      *cron.Cron
}

type HubOption func(*Hub)

func WithTemplates(src engine.TemplateSource) HubOption {
	return func(h *Hub) { h.templates = src }
}

// WithSettings sets the editor settings new sessions start with.
func WithSettings(s document.Settings) HubOption {
	return func(h *Hub) { h.settings = s }
}

// WithSnapshotsKept prunes older versions after each save. 0 keeps all.
func WithSnapshotsKept(n int) HubOption {
	return func(h *Hub) { h.keep = n }
}

func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

func NewHub(store SnapshotStore, opts ...HubOption) *Hub {
	h := &Hub{
		sessions: make(map[string]*Session),
		opening:  make(map[string]bool),
		store:    store,
		settings: document.DefaultSettings(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// StartAutosave saves dirty sessions on the given cron schedule, e.g.
// "@every 30s". Overlapping runs are skipped.
func (h *Hub) StartAutosave(schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { h.SaveAll(context.Background()) }); err != nil {
		return fmt.Errorf("autosave schedule %q: %w", schedule, err)
	}
	c.Start()

	h.mu.Lock()
	h.cron = c
	h.mu.Unlock()
	h.logger.Info("autosave scheduled", "schedule", schedule)
	return nil
}

// Open creates the session for projectID, loaded from its latest snapshot.
// Messages for the client go to out. A project holds one session at a time.
func (h *Hub) Open(ctx context.Context, projectID, userID string, out func(Message)) (*Session, error) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}
	if _, busy := h.sessions[projectID]; busy || h.opening[projectID] {
		h.mu.Unlock()
		return nil, ErrProjectBusy
	}
	h.opening[projectID] = true
	h.mu.Unlock()

	eng := engine.New(
		engine.WithSettings(h.settings),
		engine.WithTemplates(h.templates),
		engine.WithAuthor(userID),
		engine.WithLogger(h.logger),
	)
	err := h.load(ctx, projectID, eng)

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.opening, projectID)
	if err != nil {
		return nil, err
	}
	if h.stopped {
		return nil, ErrHubStopped
	}

	s := newSession(uuid.NewString(), projectID, userID, eng, out, h.logger.With("project", projectID))
	h.sessions[projectID] = s
	h.logger.Info("session opened", "project", projectID, "user", userID, "session", s.ID, "nodes", eng.Len())
	return s, nil
}

func (h *Hub) load(ctx context.Context, projectID string, eng *engine.Engine) error {
	snap, err := h.store.LatestSnapshot(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}
	state, err := document.Decode(snap.Document)
	if err != nil {
		return fmt.Errorf("load project %s version %d: %w", projectID, snap.Version, err)
	}
	if err := eng.Load(state); err != nil {
		h.logger.Warn("snapshot partially loaded", "project", projectID, "version", snap.Version, "error", err)
	}
	return nil
}

// Close saves s if dirty and releases its project.
func (h *Hub) Close(s *Session) {
	h.mu.Lock()
	if h.sessions[s.ProjectID] == s {
		delete(h.sessions, s.ProjectID)
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	h.save(ctx, s)
	h.logger.Info("session closed", "project", s.ProjectID, "session", s.ID)
}

// Session returns the open session of projectID.
func (h *Hub) Session(projectID string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[projectID]
	return s, ok
}

// SaveAll saves every dirty session. Failures are logged.
func (h *Hub) SaveAll(ctx context.Context) {
	h.mu.Lock()
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.mu.Unlock()

	for _, s := range open {
		h.save(ctx, s)
	}
}

func (h *Hub) save(ctx context.Context, s *Session) {
	if !s.dirty.Swap(false) {
		return
	}
	if err := h.saveState(ctx, s.ProjectID, s.engine.Export()); err != nil {
		s.dirty.Store(true)
		h.logger.Error("autosave failed", "project", s.ProjectID, "error", err)
	}
}

func (h *Hub) saveState(ctx context.Context, projectID string, state document.State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	snap, err := h.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), projectID, doc)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	h.logger.Debug("snapshot saved", "project", projectID, "version", snap.Version)

	if h.keep > 0 {
		pruned, err := h.store.PruneSnapshots(ctx, projectID, h.keep)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		if pruned > 0 {
			h.logger.Debug("snapshots pruned", "project", projectID, "count", pruned)
		}
	}
	return nil
}

// Stop ends autosave, refuses new sessions and saves the open ones.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.stopped = true
	c := h.cron
	h.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	h.SaveAll(ctx)
	h.logger.Info("hub stopped")
}
