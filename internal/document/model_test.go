package document

import (
	"encoding/json"
	"testing"

	"github.com/inamate/artboard/internal/component"
)

func TestSampleStateIsValid(t *testing.T) {
	s := NewSampleState()
	if errs := s.Validate(); len(errs) != 0 {
		t.Fatalf("sample state has validation errors: %v", errs)
	}
}

func TestDecodeDefaults(t *testing.T) {
	s, err := Decode([]byte(`{"components":[],"snapToGrid":false}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.ActiveBreakpoint != component.BreakpointBase {
		t.Errorf("breakpoint = %q, want base", s.ActiveBreakpoint)
	}
	if s.SelectedNodes == nil {
		t.Error("selectedNodes should default to an empty slice")
	}

	if _, err := Decode([]byte(`{"activeBreakpoint":"xl"}`)); err == nil {
		t.Error("expected error for unknown breakpoint")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed state")
	}
}

func TestStateRoundTripKeepsShape(t *testing.T) {
	s := NewSampleState()
	s.SelectedNodes = []string{s.Components[0].ID}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"components", "selectedNodes", "snapToGrid", "activeBreakpoint"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(back.Components[0].Children) != 3 {
		t.Fatalf("card children = %d, want 3", len(back.Components[0].Children))
	}
}

func TestValidateReportsIDsSharedAcrossTrees(t *testing.T) {
	a := component.NewNode(component.TypeText, component.WithID("same"))
	b := component.NewNode(component.TypeText, component.WithID("same"))
	s := &State{Components: []component.Node{a, b}}

	errs := s.Validate()
	if len(errs) != 1 || errs[0].Field != "components[1].id" {
		t.Fatalf("Validate = %v", errs)
	}
}

func TestSettingsApplyIgnoresInvalid(t *testing.T) {
	s := DefaultSettings()
	grid := -5.0
	bp := component.Breakpoint("xl")
	snap := false
	got := s.Apply(SettingsPatch{GridSize: &grid, ActiveBreakpoint: &bp, SnapToGrid: &snap})
	if got.GridSize != s.GridSize || got.ActiveBreakpoint != component.BreakpointBase {
		t.Fatalf("invalid fields applied: %+v", got)
	}
	if got.SnapToGrid {
		t.Fatal("snapToGrid not applied")
	}
}
