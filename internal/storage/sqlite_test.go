package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "artboard.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedProject(t *testing.T, s *SQLite) *Project {
	t.Helper()
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, User{ID: "user_1", Email: "ada@example.com", PasswordHash: "x", DisplayName: "Ada"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p, err := s.CreateProject(ctx, Project{ID: "proj_1", Name: "Landing", OwnerID: "user_1"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedProject(t, s)

	u, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || u.ID != "user_1" || u.CreatedAt.IsZero() {
		t.Fatalf("GetUserByEmail = %+v, %v", u, err)
	}
	if _, err := s.GetUserByID(ctx, "user_1"); err != nil {
		t.Errorf("GetUserByID: %v", err)
	}
	if _, err := s.GetUserByID(ctx, "user_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}
	_, err = s.CreateUser(ctx, User{ID: "user_2", Email: "ada@example.com", PasswordHash: "y"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email err = %v", err)
	}
}

func TestProjects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s)

	got, err := s.GetProject(ctx, p.ID)
	if err != nil || got.Name != "Landing" || got.OwnerID != "user_1" {
		t.Fatalf("GetProject = %+v, %v", got, err)
	}
	list, err := s.ListProjects(ctx, "user_1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListProjects = %+v, %v", list, err)
	}
	if list, _ := s.ListProjects(ctx, "nobody"); len(list) != 0 {
		t.Errorf("ListProjects(nobody) = %+v", list)
	}

	if _, err := s.SaveSnapshot(ctx, "snap_1", p.ID, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := s.GetProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted project err = %v", err)
	}
	if _, err := s.LatestSnapshot(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("snapshots survived project deletion: %v", err)
	}
	if err := s.DeleteProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSnapshotsAreVersioned(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s)

	for i, doc := range []string{`{"v":1}`, `{"v":2}`, `{"v":3}`} {
		snap, err := s.SaveSnapshot(ctx, "snap_"+string(rune('a'+i)), p.ID, json.RawMessage(doc))
		if err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
		if snap.Version != i+1 {
			t.Fatalf("version = %d, want %d", snap.Version, i+1)
		}
	}

	latest, err := s.LatestSnapshot(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Version != 3 || string(latest.Document) != `{"v":3}` {
		t.Errorf("latest = v%d %s", latest.Version, latest.Document)
	}

	n, err := s.PruneSnapshots(ctx, p.ID, 1)
	if err != nil || n != 2 {
		t.Fatalf("PruneSnapshots = %d, %v", n, err)
	}
	if latest, _ := s.LatestSnapshot(ctx, p.ID); latest.Version != 3 {
		t.Errorf("prune removed the latest version")
	}

	if _, err := s.SaveSnapshot(ctx, "snap_x", "proj_missing", json.RawMessage(`{}`)); !errors.Is(err, ErrNotFound) {
		t.Errorf("snapshot for missing project err = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
