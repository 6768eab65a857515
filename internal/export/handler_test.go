package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/project"
)

type stubSource struct {
	state *document.State
	err   error
}

func (s stubSource) LatestState(context.Context, string, string) (*document.State, error) {
	return s.state, s.err
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/projects/{projectId}/export", h.Export)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestExportValidState(t *testing.T) {
	h := NewHandler(stubSource{state: document.NewSampleState()})
	rec := serve(h, "/api/projects/proj_1/export?download=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "proj_1.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	var res struct {
		State  document.State              `json:"state"`
		Errors []component.ValidationError `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.State.Components) == 0 {
		t.Error("state has no components")
	}
	if res.Errors == nil || len(res.Errors) != 0 {
		t.Errorf("errors = %#v, want empty list", res.Errors)
	}
}

func TestExportReportsValidationErrors(t *testing.T) {
	state := document.NewEmptyState()
	state.Components = append(state.Components, component.NewNode(component.TypeText,
		component.WithPosition(geometry.Point{X: -5, Y: 0})))

	res := Build(state)
	if len(res.Errors) != 1 || res.Errors[0].Field != "components[0].position.x" {
		t.Fatalf("errors = %v", res.Errors)
	}
}

func TestExportServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{project.ErrNotFound, http.StatusNotFound},
		{project.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := serve(NewHandler(stubSource{err: tt.err}), "/api/projects/proj_1/export")
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	h := NewHandler(nil)
	tests := []struct {
		name     string
		body     string
		want     int
		wantErrs int
	}{
		{"empty state", `{"components":[]}`, http.StatusOK, 0},
		{"zero size", `{"components":[{"id":"a","type":"text","position":{"x":0,"y":0},"size":{"width":0,"height":10}}]}`, http.StatusOK, 1},
		{"bad breakpoint", `{"activeBreakpoint":"huge"}`, http.StatusBadRequest, 0},
		{"not json", `[`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Validate(rec, httptest.NewRequest(http.MethodPost, "/api/export/validate", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			if tt.want != http.StatusOK {
				return
			}
			var res Result
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if len(res.Errors) != tt.wantErrs {
				t.Errorf("errors = %v", res.Errors)
			}
		})
	}
}
