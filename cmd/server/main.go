package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/artboard/internal/asset"
	"github.com/inamate/artboard/internal/auth"
	"github.com/inamate/artboard/internal/config"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/export"
	"github.com/inamate/artboard/internal/httpx"
	"github.com/inamate/artboard/internal/project"
	"github.com/inamate/artboard/internal/session"
	"github.com/inamate/artboard/internal/storage"
	"github.com/inamate/artboard/internal/template"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.StorageDriver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			slog.Error("create data dir", "error", err)
			os.Exit(1)
		}
	}
	store, err := storage.Open(ctx, cfg.StorageDriver, cfg.DSN())
	if err != nil {
		slog.Error("open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	templates := template.NewLibrary(cfg.TemplateDir)
	if err := os.MkdirAll(cfg.TemplateDir, 0o755); err != nil {
		slog.Warn("create template dir", "error", err)
	}
	if err := templates.Load(); err != nil {
		slog.Warn("some templates failed to load", "error", err)
	}
	if err := templates.Watch(ctx); err != nil {
		slog.Warn("template hot reload disabled", "error", err)
	}
	slog.Info("templates loaded", "count", templates.Len(), "dir", cfg.TemplateDir)

	authService := auth.NewService(store, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(store)
	projectHandler := project.NewHandler(projectService)

	settings := document.DefaultSettings()
	settings.GridSize = cfg.GridSize
	hub := session.NewHub(store,
		session.WithTemplates(templates),
		session.WithSettings(settings),
		session.WithSnapshotsKept(cfg.SnapshotsKept),
	)
	if err := hub.StartAutosave(cfg.AutosaveSchedule); err != nil {
		slog.Error("start autosave", "error", err)
		os.Exit(1)
	}

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(projectService)

	r := mux.NewRouter()
	r.Use(httpx.Recovery)
	r.Use(httpx.Logger)
	r.Use(httpx.CORS(cfg.Origins()))

	r.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods(http.MethodPost, http.MethodOptions)
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/projects", projectHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/projects", projectHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{projectId}/snapshots/latest", projectHandler.LatestSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/projects/{projectId}/export", exportHandler.Export).Methods(http.MethodGet)
	api.HandleFunc("/export/validate", exportHandler.Validate).Methods(http.MethodPost)
	api.HandleFunc("/templates", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, templates.List())
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, projectService, cfg.OriginHosts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr, "storage", cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handleWebSocket authenticates the owner of a project and hands the
// upgraded connection to the hub. Browsers pass the token as ?token=.
func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, projects *project.Service, origins []string) {
	projectID := mux.Vars(r)["projectId"]

	token := auth.TokenFromRequest(r)
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing token")
		return
	}
	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if _, err := projects.Get(r.Context(), projectID, userID); err != nil {
		project.WriteServiceError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}
	hub.Serve(r.Context(), conn, projectID, userID)
}
