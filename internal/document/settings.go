package document

import (
	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
)

// Settings are the editor toggles the interaction machine consults on every
// gesture. SnapToGrid and ActiveBreakpoint are also persisted in State.
type Settings struct {
	SnapToGrid       bool                 `json:"snapToGrid"`
	GridSize         float64              `json:"gridSize"`
	AspectLocked     bool                 `json:"aspectLocked"`
	ActiveBreakpoint component.Breakpoint `json:"activeBreakpoint"`
}

func DefaultSettings() Settings {
	return Settings{
		SnapToGrid:       true,
		GridSize:         geometry.DefaultGridSize,
		ActiveBreakpoint: component.BreakpointBase,
	}
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	SnapToGrid       *bool                 `json:"snapToGrid,omitempty"`
	GridSize         *float64              `json:"gridSize,omitempty"`
	AspectLocked     *bool                 `json:"aspectLocked,omitempty"`
	ActiveBreakpoint *component.Breakpoint `json:"activeBreakpoint,omitempty"`
}

// Apply returns s with every present field of p applied. Invalid grid sizes
// and unknown breakpoints are ignored.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.SnapToGrid != nil {
		s.SnapToGrid = *p.SnapToGrid
	}
	if p.GridSize != nil && *p.GridSize > 0 {
		s.GridSize = *p.GridSize
	}
	if p.AspectLocked != nil {
		s.AspectLocked = *p.AspectLocked
	}
	if p.ActiveBreakpoint != nil && p.ActiveBreakpoint.Valid() {
		s.ActiveBreakpoint = *p.ActiveBreakpoint
	}
	return s
}
