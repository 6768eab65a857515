package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/storage"
	"github.com/inamate/artboard/internal/typeid"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Snapshot is the latest saved state of a project.
type Snapshot struct {
	Version   int             `json:"version"`
	State     json.RawMessage `json:"state"`
	CreatedAt string          `json:"createdAt"`
}

// Create stores a new project and seeds version 1 with an empty artboard.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	p, err := s.store.CreateProject(ctx, storage.Project{
		ID:      typeid.NewProjectID(),
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	doc, err := json.Marshal(document.NewEmptyState())
	if err != nil {
		return nil, fmt.Errorf("marshal empty state: %w", err)
	}
	if _, err := s.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), p.ID, doc); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}
	return toProject(p), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	p, err := s.owned(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return toProject(p), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	stored, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, len(stored))
	for i := range stored {
		projects[i] = *toProject(&stored[i])
	}
	return projects, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.owned(ctx, projectID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *Service) LatestSnapshot(ctx context.Context, projectID, userID string) (*Snapshot, error) {
	if _, err := s.owned(ctx, projectID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.LatestSnapshot(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &Snapshot{
		Version:   snap.Version,
		State:     snap.Document,
		CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// LatestState decodes the newest snapshot of a project owned by userID.
func (s *Service) LatestState(ctx context.Context, projectID, userID string) (*document.State, error) {
	snap, err := s.LatestSnapshot(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	state, err := document.Decode(snap.State)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", snap.Version, err)
	}
	return state, nil
}

// owned loads a project and checks userID owns it.
func (s *Service) owned(ctx context.Context, projectID, userID string) (*storage.Project, error) {
	if !typeid.Is(projectID, typeid.PrefixProject) {
		return nil, ErrNotFound
	}
	p, err := s.store.GetProject(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p.OwnerID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

func toProject(p *storage.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
