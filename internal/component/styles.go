package component

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Breakpoint is a responsive viewport tier selecting which style overrides apply.
type Breakpoint string

const (
	BreakpointBase Breakpoint = "base"
	BreakpointSM   Breakpoint = "sm"
	BreakpointMD   Breakpoint = "md"
	BreakpointLG   Breakpoint = "lg"
)

// Breakpoints in cascade order, smallest first.
var Breakpoints = []Breakpoint{BreakpointBase, BreakpointSM, BreakpointMD, BreakpointLG}

func (b Breakpoint) Valid() bool {
	switch b {
	case BreakpointBase, BreakpointSM, BreakpointMD, BreakpointLG:
		return true
	}
	return false
}

// Well-known style keys.
const (
	StyleColor           = "color"
	StyleBackgroundColor = "backgroundColor"
	StyleFontSize        = "fontSize"
	StyleFontWeight      = "fontWeight"
	StylePadding         = "padding"
	StyleMargin          = "margin"
	StyleBorderRadius    = "borderRadius"
	StyleBorder          = "border"
	StyleOpacity         = "opacity"
	StyleDisplay         = "display"
)

// Styles holds base style properties plus per-breakpoint overrides. On the
// wire it is one object whose "sm", "md" and "lg" keys carry nested override
// objects: {"color":"red","md":{"color":"blue"}}.
type Styles struct {
	Base      map[string]string
	Overrides map[Breakpoint]map[string]string
}

// NewStyles builds Styles from base properties.
func NewStyles(base map[string]string) Styles {
	s := Styles{Base: make(map[string]string, len(base))}
	for k, v := range base {
		s.Base[k] = v
	}
	return s
}

// WithOverride returns a copy with prop set to value at breakpoint bp.
func (s Styles) WithOverride(bp Breakpoint, prop, value string) Styles {
	out := s.clone()
	if bp == BreakpointBase {
		out.Base[prop] = value
		return out
	}
	if out.Overrides == nil {
		out.Overrides = make(map[Breakpoint]map[string]string)
	}
	if out.Overrides[bp] == nil {
		out.Overrides[bp] = make(map[string]string)
	}
	out.Overrides[bp][prop] = value
	return out
}

// Get returns the base value of prop.
func (s Styles) Get(prop string) string {
	return s.Base[prop]
}

// Resolve cascades the overrides mobile-first up to bp and returns the
// effective property map.
func (s Styles) Resolve(bp Breakpoint) map[string]string {
	out := make(map[string]string, len(s.Base))
	for k, v := range s.Base {
		out[k] = v
	}
	for _, tier := range Breakpoints {
		for k, v := range s.Overrides[tier] {
			out[k] = v
		}
		if tier == bp {
			break
		}
	}
	return out
}

// Merge lays other's base and override entries over s.
func (s Styles) Merge(other Styles) Styles {
	out := s.clone()
	for k, v := range other.Base {
		out.Base[k] = v
	}
	for bp, props := range other.Overrides {
		if out.Overrides == nil {
			out.Overrides = make(map[Breakpoint]map[string]string)
		}
		if out.Overrides[bp] == nil {
			out.Overrides[bp] = make(map[string]string, len(props))
		}
		for k, v := range props {
			out.Overrides[bp][k] = v
		}
	}
	return out
}

func (s Styles) IsEmpty() bool {
	if len(s.Base) > 0 {
		return false
	}
	for _, props := range s.Overrides {
		if len(props) > 0 {
			return false
		}
	}
	return true
}

func (s Styles) clone() Styles {
	out := Styles{Base: make(map[string]string, len(s.Base))}
	for k, v := range s.Base {
		out.Base[k] = v
	}
	if len(s.Overrides) > 0 {
		out.Overrides = make(map[Breakpoint]map[string]string, len(s.Overrides))
		for bp, props := range s.Overrides {
			m := make(map[string]string, len(props))
			for k, v := range props {
				m[k] = v
			}
			out.Overrides[bp] = m
		}
	}
	return out
}

func (s Styles) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(s.Base)+len(s.Overrides))
	for k, v := range s.Base {
		flat[k] = v
	}
	for bp, props := range s.Overrides {
		if len(props) == 0 {
			continue
		}
		flat[string(bp)] = props
	}
	return json.Marshal(flat)
}

func (s *Styles) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Styles{Base: make(map[string]string, len(raw))}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := raw[k]
		if bp := Breakpoint(k); bp.Valid() && bp != BreakpointBase {
			var props map[string]json.RawMessage
			if err := json.Unmarshal(value, &props); err != nil {
				return fmt.Errorf("styles.%s: %w", k, err)
			}
			if out.Overrides == nil {
				out.Overrides = make(map[Breakpoint]map[string]string)
			}
			m := make(map[string]string, len(props))
			for pk, pv := range props {
				str, err := styleString(pv)
				if err != nil {
					return fmt.Errorf("styles.%s.%s: %w", k, pk, err)
				}
				m[pk] = str
			}
			out.Overrides[bp] = m
			continue
		}
		str, err := styleString(value)
		if err != nil {
			return fmt.Errorf("styles.%s: %w", k, err)
		}
		out.Base[k] = str
	}

	*s = out
	return nil
}

// styleString accepts JSON strings and, for generator output that writes
// {"opacity": 0.5}, bare numbers kept in their literal form.
func styleString(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}
	return "", fmt.Errorf("style value must be a string, got %s", raw)
}
