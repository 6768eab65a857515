package document

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/artboard/internal/component"
)

// State is the persisted and exported shape of one artboard: the canvas-level
// component trees plus the editor settings that travel with them.
type State struct {
	Components       []component.Node     `json:"components"`
	SelectedNodes    []string             `json:"selectedNodes"`
	SnapToGrid       bool                 `json:"snapToGrid"`
	ActiveBreakpoint component.Breakpoint `json:"activeBreakpoint"`
}

// NewEmptyState creates the state a new project starts with.
func NewEmptyState() *State {
	return &State{
		Components:       []component.Node{},
		SelectedNodes:    []string{},
		SnapToGrid:       true,
		ActiveBreakpoint: component.BreakpointBase,
	}
}

// Decode parses a stored or uploaded state, filling defaults for fields older
// snapshots may omit.
func Decode(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Components == nil {
		s.Components = []component.Node{}
	}
	if s.SelectedNodes == nil {
		s.SelectedNodes = []string{}
	}
	if s.ActiveBreakpoint == "" {
		s.ActiveBreakpoint = component.BreakpointBase
	}
	if !s.ActiveBreakpoint.Valid() {
		return nil, fmt.Errorf("decode state: unknown breakpoint %q", s.ActiveBreakpoint)
	}
	return &s, nil
}

// Validate checks every canvas-level tree. Fields are prefixed with
// "components[i].", and ids repeated across trees are reported too.
func (s *State) Validate() []component.ValidationError {
	var errs []component.ValidationError
	seen := make(map[string]string)
	for i, root := range s.Components {
		prefix := fmt.Sprintf("components[%d].", i)
		for _, e := range component.Validate(root) {
			e.Field = prefix + e.Field
			errs = append(errs, e)
		}
		for _, id := range component.IDs(root) {
			if owner, ok := seen[id]; ok && owner != prefix {
				errs = append(errs, component.ValidationError{
					Field:   prefix + "id",
					Message: fmt.Sprintf("id %q already used in %s", id, owner),
				})
				continue
			}
			seen[id] = prefix
		}
	}
	return errs
}
