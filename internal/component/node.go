// Package component is the artifact tree model: the node value type, its
// factory, copy-on-write mutators, validation, and the clone, duplicate and
// group operations the editor composes its commands from.
//
// Every function here treats its inputs as immutable values and returns new
// nodes. Children are owned by value, so two parents can never alias one
// child in memory; equal ids in two places are still possible and are
// reported by Validate.
package component

import (
	"errors"
	"fmt"
	"time"

	"github.com/inamate/artboard/internal/geometry"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyGroup      = fmt.Errorf("%w: group requires at least one node", ErrInvalidArgument)
	ErrCycle           = errors.New("node cannot become its own descendant")
)

type Type string

const (
	TypeContainer Type = "container"
	TypeText      Type = "text"
	TypeButton    Type = "button"
	TypeInput     Type = "input"
	TypeImage     Type = "image"
	TypeChart     Type = "chart"
	TypeCustom    Type = "custom"
)

// Types lists the closed set of component types in palette order.
var Types = []Type{TypeContainer, TypeText, TypeButton, TypeInput, TypeImage, TypeChart, TypeCustom}

// Valid reports whether t is one of the known component types.
func (t Type) Valid() bool {
	switch t {
	case TypeContainer, TypeText, TypeButton, TypeInput, TypeImage, TypeChart, TypeCustom:
		return true
	}
	return false
}

// UnmarshalText rejects unknown types. An empty type decodes so Validate can
// report it with its path.
func (t *Type) UnmarshalText(text []byte) error {
	v := Type(text)
	if v != "" && !v.Valid() {
		return fmt.Errorf("%w: unknown component type %q", ErrInvalidArgument, text)
	}
	*t = v
	return nil
}

type Skew struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Metadata struct {
	Version     string    `json:"version"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Locked      bool      `json:"locked"`
	Hidden      bool      `json:"hidden"`
}

// Node is one element of the editable UI tree. Position is relative to the
// parent node (or the canvas for top-level nodes).
type Node struct {
	ID       string         `json:"id"`
	Type     Type           `json:"type"`
	Props    Props          `json:"props"`
	Children []Node         `json:"children"`
	Position geometry.Point `json:"position"`
	Size     geometry.Size  `json:"size"`
	Rotation float64        `json:"rotation"`
	Skew     Skew           `json:"skew"`
	Styles   Styles         `json:"styles"`
	Metadata Metadata       `json:"metadata"`
}

// Bounds returns the node's unrotated box in its parent's coordinates.
func (n Node) Bounds() geometry.Rect {
	return geometry.RectFrom(n.Position, n.Size)
}

// now is swapped out by tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

func touch(n *Node) {
	n.Metadata.Modified = now()
}
