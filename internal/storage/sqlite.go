package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		version INTEGER NOT NULL,
		document TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (project_id, version)
	)`,
}

// SQLite stores timestamps as RFC 3339 text in UTC.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database file at path and applies the
// schema.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; a single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func sqliteErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *SQLite) CreateUser(ctx context.Context, u User) (*User, error) {
	now := nowText()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password, display_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, now,
	)
	if err != nil {
		return nil, sqliteErr("create user", err)
	}
	u.CreatedAt = parseTime(now)
	return &u, nil
}

func (s *SQLite) getUser(ctx context.Context, column, arg string) (*User, error) {
	var u User
	var created string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE `+column+` = ?`, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &created)
	if err != nil {
		return nil, sqliteErr("get user", err)
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *SQLite) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *SQLite) CreateProject(ctx context.Context, p Project) (*Project, error) {
	now := nowText()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO projects (id, name, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.OwnerID, now, now,
	)
	if err != nil {
		return nil, sqliteErr("create project", err)
	}
	p.CreatedAt = parseTime(now)
	p.UpdatedAt = p.CreatedAt
	return &p, nil
}

func scanProject(scan func(dest ...any) error) (Project, error) {
	var p Project
	var created, updated string
	if err := scan(&p.ID, &p.Name, &p.OwnerID, &created, &updated); err != nil {
		return Project{}, err
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func (s *SQLite) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM projects WHERE id = ?`, id)
	p, err := scanProject(row.Scan)
	if err != nil {
		return nil, sqliteErr("get project", err)
	}
	return &p, nil
}

func (s *SQLite) ListProjects(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM projects WHERE owner_id = ? ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, sqliteErr("list projects", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, sqliteErr("list projects", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLite) DeleteProject(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return sqliteErr("delete project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete project: %w", ErrNotFound)
	}
	return nil
}

func (s *SQLite) SaveSnapshot(ctx context.Context, id, projectID string, doc json.RawMessage) (*Snapshot, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqliteErr("save snapshot", err)
	}
	defer tx.Rollback()

	now := nowText()
	res, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, now, projectID)
	if err != nil {
		return nil, sqliteErr("save snapshot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("save snapshot: project %q: %w", projectID, ErrNotFound)
	}

	snap := Snapshot{ID: id, ProjectID: projectID, Document: doc, CreatedAt: parseTime(now)}
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE project_id = ?`, projectID,
	).Scan(&snap.Version); err != nil {
		return nil, sqliteErr("save snapshot", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, project_id, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, projectID, snap.Version, string(doc), now,
	); err != nil {
		return nil, sqliteErr("save snapshot", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, sqliteErr("save snapshot", err)
	}
	return &snap, nil
}

func (s *SQLite) LatestSnapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	var snap Snapshot
	var doc, created string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, project_id, version, document, created_at FROM snapshots
		 WHERE project_id = ? ORDER BY version DESC LIMIT 1`, projectID,
	).Scan(&snap.ID, &snap.ProjectID, &snap.Version, &doc, &created)
	if err != nil {
		return nil, sqliteErr("get latest snapshot", err)
	}
	snap.Document = json.RawMessage(doc)
	snap.CreatedAt = parseTime(created)
	return &snap, nil
}

func (s *SQLite) PruneSnapshots(ctx context.Context, projectID string, keep int) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM snapshots WHERE project_id = ? AND version <= (
			SELECT COALESCE(MAX(version), 0) - ? FROM snapshots WHERE project_id = ?
		)`, projectID, keep, projectID,
	)
	if err != nil {
		return 0, sqliteErr("prune snapshots", err)
	}
	return res.RowsAffected()
}
