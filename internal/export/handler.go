// Package export serves a project's artboard as exported state JSON together
// with the validation problems of its trees.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/inamate/artboard/internal/auth"
	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/httpx"
	"github.com/inamate/artboard/internal/project"
)

// StateSource loads the newest state of a project for its owner.
type StateSource interface {
	LatestState(ctx context.Context, projectID, userID string) (*document.State, error)
}

// Result is the export body. Errors is always present, empty when the trees
// are valid.
type Result struct {
	State  *document.State             `json:"state"`
	Errors []component.ValidationError `json:"errors"`
}

type Handler struct {
	source StateSource
}

func NewHandler(source StateSource) *Handler {
	return &Handler{source: source}
}

// Build validates state and wraps it for export.
func Build(state *document.State) Result {
	errs := state.Validate()
	if errs == nil {
		errs = []component.ValidationError{}
	}
	return Result{State: state, Errors: errs}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Export handles GET /api/projects/{projectId}/export. With ?download=1 the
// response is sent as an attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	state, err := h.source.LatestState(r.Context(), projectID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		project.WriteServiceError(w, err)
		return
	}

	res := Build(state)
	if len(res.Errors) > 0 {
		slog.Warn("exporting invalid state", "project", projectID, "errors", len(res.Errors))
	}
	if r.URL.Query().Get("download") == "1" {
		name := unsafeFilename.ReplaceAllString(projectID, "-")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, name))
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Validate handles POST /api/export/validate: it checks an uploaded state
// without storing it.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := httpx.DecodeJSON(w, r, &raw); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := document.Decode(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Build(state))
}
