package session

import (
	"encoding/json"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/engine"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/interaction"
)

// Message is the envelope of every websocket frame. Seq numbers outbound
// messages per session; clients may set it on inbound messages and it is
// echoed in the reply to a failed request.
type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound.
const (
	TypePointerDown    = "pointer.down"
	TypePointerMove    = "pointer.move"
	TypePointerUp      = "pointer.up"
	TypePointerLeave   = "pointer.leave"
	TypeDrop           = "drop"
	TypeSettingsUpdate = "settings.update"
	TypeNodeSelect     = "node.select"
	TypeNodesSelect    = "nodes.select"
	TypeNodeUpdate     = "node.update"
	TypeNodeDelete     = "node.delete"
	TypeNodeDuplicate  = "node.duplicate"
	TypeNodeGroup      = "node.group"
	TypeNodeUngroup    = "node.ungroup"
	TypeNodeReparent   = "node.reparent"
	TypeNodesImport    = "nodes.import"
)

// Outbound.
const (
	TypeWelcome      = "welcome"
	TypeStateSync    = "state.sync"
	TypeStateChanged = "state.changed"
	TypeGesture      = "gesture"
	TypeImportResult = "import.result"
	TypeError        = "error"
)

// PointerPayload carries pointer.* messages. A pointer.down without a target
// is hit-tested against the canvas.
type PointerPayload struct {
	X        float64             `json:"x"`
	Y        float64             `json:"y"`
	Modifier bool                `json:"modifier,omitempty"`
	Target   *interaction.Target `json:"target,omitempty"`
}

func (p PointerPayload) Point() geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

// DropPayload carries the raw drag-and-drop data text, e.g.
// {"type":"component","componentType":"button"}.
type DropPayload struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Data string  `json:"data"`
}

func (p DropPayload) Point() geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

type SelectPayload struct {
	ID       string   `json:"id,omitempty"`
	IDs      []string `json:"ids,omitempty"`
	Additive bool     `json:"additive,omitempty"`
}

type UpdatePayload struct {
	Edits []component.Edit `json:"edits"`
}

type NodePayload struct {
	ID string `json:"id"`
}

type GroupPayload struct {
	IDs []string `json:"ids"`
}

type ReparentPayload struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId"`
	Index    int    `json:"index"`
}

type ImportPayload struct {
	Nodes []component.Node `json:"nodes"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	ProjectID string `json:"projectId"`
}

type StateSyncPayload struct {
	State    document.State    `json:"state"`
	Settings document.Settings `json:"settings"`
}

// StateChangedPayload reports one engine event. Nodes holds the current
// subtrees of the affected ids that still exist.
type StateChangedPayload struct {
	Kind     engine.EventKind   `json:"kind"`
	IDs      []string           `json:"ids"`
	Nodes    []component.Node   `json:"nodes"`
	Settings *document.Settings `json:"settings,omitempty"`
}

type GesturePayload struct {
	State   interaction.State `json:"state"`
	Marquee *geometry.Rect    `json:"marquee,omitempty"`
}

type ImportResultPayload struct {
	Errors []component.ValidationError `json:"errors"`
	// Skipped lists trees refused because an id was already present.
	Skipped string `json:"skipped,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	ReplyTo int64  `json:"replyTo,omitempty"`
}
