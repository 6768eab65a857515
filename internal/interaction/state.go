// Package interaction turns pointer events on the canvas into editor
// commands: dragging, resizing, rotating, marquee selection and drops.
//
// A Machine is driven from one goroutine. Every gesture starts from Idle on
// pointer-down and returns to Idle on pointer-up or pointer-leave; whatever
// was committed last stands.
package interaction

import (
	"fmt"

	"github.com/inamate/artboard/internal/geometry"
)

type State int

const (
	Idle State = iota
	Dragging
	Resizing
	Rotating
	MarqueeSelecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Rotating:
		return "rotating"
	case MarqueeSelecting:
		return "marquee"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// TargetKind says what the pointer went down on.
type TargetKind int

const (
	TargetCanvas TargetKind = iota
	TargetNode
	TargetResizeHandle
	TargetRotateHandle
)

var targetKindNames = map[string]TargetKind{
	"canvas": TargetCanvas,
	"node":   TargetNode,
	"resize": TargetResizeHandle,
	"rotate": TargetRotateHandle,
}

func (k TargetKind) String() string {
	for name, v := range targetKindNames {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

func (k TargetKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TargetKind) UnmarshalText(text []byte) error {
	v, ok := targetKindNames[string(text)]
	if !ok {
		return fmt.Errorf("unknown pointer target %q", text)
	}
	*k = v
	return nil
}

// Target identifies the thing under the pointer. NodeID is set for nodes
// and for handles; Direction only for resize handles.
type Target struct {
	Kind      TargetKind         `json:"kind"`
	NodeID    string             `json:"nodeId,omitempty"`
	Direction geometry.Direction `json:"direction,omitempty"`
}

func Canvas() Target                { return Target{Kind: TargetCanvas} }
func OnNode(id string) Target       { return Target{Kind: TargetNode, NodeID: id} }
func RotateHandle(id string) Target { return Target{Kind: TargetRotateHandle, NodeID: id} }

func ResizeHandle(id string, dir geometry.Direction) Target {
	return Target{Kind: TargetResizeHandle, NodeID: id, Direction: dir}
}

// PointerEvent is one pointer sample in canvas coordinates. Modifier is true
// while ctrl or meta is held.
type PointerEvent struct {
	Point    geometry.Point
	Target   Target
	Modifier bool
}
