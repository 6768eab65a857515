package component

import (
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/typeid"
)

const MetadataVersion = "1.0.0"

// DefaultSize is the size given to nodes created without one.
var DefaultSize = geometry.Size{Width: 100, Height: 50}

// Option customizes NewNode.
type Option func(*Node)

func WithID(id string) Option {
	return func(n *Node) { n.ID = id }
}

func WithProps(p Props) Option {
	return func(n *Node) { n.Props = p.clone() }
}

func WithStyles(s Styles) Option {
	return func(n *Node) { n.Styles = s.clone() }
}

func WithPosition(p geometry.Point) Option {
	return func(n *Node) { n.Position = p }
}

func WithSize(s geometry.Size) Option {
	return func(n *Node) { n.Size = s }
}

func WithAuthor(author string) Option {
	return func(n *Node) { n.Metadata.Author = author }
}

func WithChildren(children ...Node) Option {
	return func(n *Node) {
		n.Children = make([]Node, len(children))
		for i, c := range children {
			n.Children[i] = Clone(c)
		}
	}
}

// NewNode creates a node of type t at the origin with the default size, no
// rotation or skew, and fresh metadata. A TypeID is generated unless WithID
// is given.
func NewNode(t Type, opts ...Option) Node {
	ts := now()
	n := Node{
		Type:     t,
		Props:    Props{},
		Children: []Node{},
		Size:     DefaultSize,
		Styles:   Styles{Base: map[string]string{}},
		Metadata: Metadata{
			Version:  MetadataVersion,
			Created:  ts,
			Modified: ts,
			Tags:     []string{},
		},
	}
	for _, opt := range opts {
		opt(&n)
	}
	if n.ID == "" {
		n.ID = typeid.NewNodeID()
	}
	return n
}

// DefaultProps returns the starter props a freshly dropped component of
// type t carries.
func DefaultProps(t Type) Props {
	switch t {
	case TypeText:
		return Props{PropText: String("Text")}
	case TypeButton:
		return Props{PropLabel: String("Button"), PropVariant: String("primary")}
	case TypeInput:
		return Props{PropPlaceholder: String("Enter text...")}
	case TypeImage:
		return Props{PropSrc: String(""), PropAlt: String("")}
	case TypeChart:
		return Props{PropChartType: String("bar"), PropData: List()}
	}
	return Props{}
}
