package interaction

import (
	"errors"
	"testing"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/geometry"
)

// fakeEditor records drop commands without a real store.
type fakeEditor struct {
	settings  document.Settings
	added     []component.Type
	addedAt   []geometry.Point
	templates []string
}

func (f *fakeEditor) Node(string) (component.Node, bool)          { return component.Node{}, false }
func (f *fakeEditor) CanvasNodes() []component.Node               { return nil }
func (f *fakeEditor) WorldBounds(string) (geometry.Rect, bool)    { return geometry.Rect{}, false }
func (f *fakeEditor) Selection() []string                         { return nil }
func (f *fakeEditor) Settings() document.Settings                 { return f.settings }
func (f *fakeEditor) UpdateComponents(edits []component.Edit) int { return len(edits) }
func (f *fakeEditor) SelectNode(string, bool)                     {}
func (f *fakeEditor) SelectNodes([]string, bool)                  {}

func (f *fakeEditor) AddComponent(t component.Type, at geometry.Point) string {
	f.added = append(f.added, t)
	f.addedAt = append(f.addedAt, at)
	return "node_new"
}

func (f *fakeEditor) AddTemplate(id string, at geometry.Point) ([]string, error) {
	f.templates = append(f.templates, id)
	f.addedAt = append(f.addedAt, at)
	if id == "broken" {
		return nil, errors.New("not found")
	}
	return []string{"node_t1", "node_t2"}, nil
}

func TestParseDropPayload(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"component", `{"type":"component","componentType":"button"}`, false},
		{"template", `{"type":"template","templateId":"hero"}`, false},
		{"unknown component type", `{"type":"component","componentType":"widget"}`, true},
		{"missing component type", `{"type":"component"}`, true},
		{"missing template id", `{"type":"template"}`, true},
		{"unknown kind", `{"type":"file"}`, true},
		{"not json", `button`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDropPayload([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("err = %v, want ErrInvalidPayload", err)
			}
		})
	}
}

func TestDrop(t *testing.T) {
	f := &fakeEditor{settings: document.DefaultSettings()}
	m := New(f)

	if ids := m.Drop(geometry.Point{X: 33, Y: 48}, []byte(`{"type":"component","componentType":"text"}`)); len(ids) != 1 {
		t.Fatalf("component drop ids = %v", ids)
	}
	if f.added[0] != component.TypeText || f.addedAt[0] != (geometry.Point{X: 40, Y: 40}) {
		t.Errorf("added %v at %+v, want text at snapped {40 40}", f.added[0], f.addedAt[0])
	}

	if ids := m.Drop(geometry.Point{X: 5, Y: 5}, []byte(`{"type":"template","templateId":"hero"}`)); len(ids) != 2 {
		t.Errorf("template drop ids = %v", ids)
	}
	if ids := m.Drop(geometry.Point{}, []byte(`{"type":"template","templateId":"broken"}`)); ids != nil {
		t.Errorf("failed template drop ids = %v", ids)
	}
	if ids := m.Drop(geometry.Point{}, []byte(`{]`)); ids != nil {
		t.Errorf("malformed drop ids = %v", ids)
	}
	if len(f.added) != 1 || len(f.templates) != 2 {
		t.Errorf("added = %v, templates = %v", f.added, f.templates)
	}

	f.settings.SnapToGrid = false
	m.Drop(geometry.Point{X: 33, Y: 48}, []byte(`{"type":"component","componentType":"chart"}`))
	if got := f.addedAt[len(f.addedAt)-1]; got != (geometry.Point{X: 33, Y: 48}) {
		t.Errorf("unsnapped drop at %+v", got)
	}
}
