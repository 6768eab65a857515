package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/artboard/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	s := NewService(store, "test-secret")
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	reg, err := s.Register(ctx, "ada@example.com", "correct horse", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(reg.User.ID, "user_") {
		t.Errorf("user id = %q", reg.User.ID)
	}
	if _, err := s.Register(ctx, "ada@example.com", "another one", "Ada"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register err = %v", err)
	}

	login, err := s.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	userID, err := s.ValidateToken(login.Token)
	if err != nil || userID != reg.User.ID {
		t.Fatalf("ValidateToken = %q, %v", userID, err)
	}

	if _, err := s.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := s.Login(ctx, "bob@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	s := newTestService(t)
	other := NewService(nil, "other-secret")
	token, err := other.IssueToken("user_1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestService(t)
	token, _ := s.IssueToken("user_1")

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/api/projects"+tt.query, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && seen != "user_1" {
				t.Errorf("user id in context = %q", seen)
			}
		})
	}
}

func TestRegisterHandlerValidation(t *testing.T) {
	h := NewHandler(newTestService(t))
	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"email":"a@b.c","password":"longenough","displayName":"A"}`, http.StatusCreated},
		{"duplicate", `{"email":"a@b.c","password":"longenough","displayName":"A"}`, http.StatusConflict},
		{"short password", `{"email":"x@b.c","password":"short","displayName":"X"}`, http.StatusBadRequest},
		{"missing name", `{"email":"y@b.c","password":"longenough"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestMeHandler(t *testing.T) {
	s := newTestService(t)
	reg, err := s.Register(context.Background(), "me@example.com", "longenough", "Me")
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(s)

	tests := []struct {
		userID string
		want   int
	}{
		{reg.User.ID, http.StatusOK},
		{"user_gone", http.StatusNotFound},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r = r.WithContext(WithUserID(r.Context(), tt.userID))
		rec := httptest.NewRecorder()
		h.Me(rec, r)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.userID, rec.Code, tt.want)
		}
	}
}
