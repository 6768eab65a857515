// Package storage persists users, projects and versioned artboard snapshots.
// Postgres (pgx) serves deployments; SQLite (modernc) serves single-user and
// local setups. Both implement Store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Project struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is one saved version of a project's document.State JSON.
// Versions start at 1 and increase by one per save.
type Snapshot struct {
	ID        string
	ProjectID string
	Version   int
	Document  json.RawMessage
	CreatedAt time.Time
}

type Store interface {
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	CreateProject(ctx context.Context, p Project) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	// SaveSnapshot stores doc as the next version of projectID and bumps the
	// project's updated time.
	SaveSnapshot(ctx context.Context, id, projectID string, doc json.RawMessage) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, projectID string) (*Snapshot, error)
	// PruneSnapshots keeps the newest keep versions of projectID.
	PruneSnapshots(ctx context.Context, projectID string, keep int) (int64, error)

	Close() error
}

// Open picks a backend by driver name: "postgres" uses dsn as a connection
// URL, "sqlite" uses it as a file path.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
