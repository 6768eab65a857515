package interaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/artboard/internal/component"
)

const (
	DropComponent = "component"
	DropTemplate  = "template"
)

var ErrInvalidPayload = errors.New("invalid drop payload")

// DropPayload is the JSON text a palette item carries while dragged onto
// the canvas.
type DropPayload struct {
	Type          string         `json:"type"`
	ComponentType component.Type `json:"componentType,omitempty"`
	TemplateID    string         `json:"templateId,omitempty"`
}

func ParseDropPayload(data []byte) (DropPayload, error) {
	var p DropPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return DropPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	switch p.Type {
	case DropComponent:
		if p.ComponentType == "" {
			return DropPayload{}, fmt.Errorf("%w: componentType is required", ErrInvalidPayload)
		}
	case DropTemplate:
		if p.TemplateID == "" {
			return DropPayload{}, fmt.Errorf("%w: templateId is required", ErrInvalidPayload)
		}
	default:
		return DropPayload{}, fmt.Errorf("%w: unknown type %q", ErrInvalidPayload, p.Type)
	}
	return p, nil
}
