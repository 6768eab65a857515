package component

import "github.com/inamate/artboard/internal/geometry"

// UpdateProps returns n with props merged over its existing props.
func UpdateProps(n Node, props Props) Node {
	n.Props = n.Props.Merge(props)
	touch(&n)
	return n
}

// UpdateStyles returns n with styles merged over its existing styles.
func UpdateStyles(n Node, styles Styles) Node {
	n.Styles = n.Styles.Merge(styles)
	touch(&n)
	return n
}

func UpdatePosition(n Node, p geometry.Point) Node {
	n.Position = p
	touch(&n)
	return n
}

func UpdateSize(n Node, s geometry.Size) Node {
	n.Size = s
	touch(&n)
	return n
}

// ApplyRotation sets the rotation, normalized into [0, 360).
func ApplyRotation(n Node, degrees float64) Node {
	n.Rotation = geometry.NormalizeAngle(degrees)
	touch(&n)
	return n
}

func ApplySkew(n Node, s Skew) Node {
	n.Skew = s
	touch(&n)
	return n
}

func SetLocked(n Node, locked bool) Node {
	n.Metadata.Locked = locked
	touch(&n)
	return n
}

func SetHidden(n Node, hidden bool) Node {
	n.Metadata.Hidden = hidden
	touch(&n)
	return n
}

// Patch is a partial update. Nil fields are left untouched; Props and Styles
// are merged rather than replaced.
type Patch struct {
	Position *geometry.Point `json:"position,omitempty"`
	Size     *geometry.Size  `json:"size,omitempty"`
	Rotation *float64        `json:"rotation,omitempty"`
	Skew     *Skew           `json:"skew,omitempty"`
	Props    Props           `json:"props,omitempty"`
	Styles   *Styles         `json:"styles,omitempty"`
	Locked   *bool           `json:"locked,omitempty"`
	Hidden   *bool           `json:"hidden,omitempty"`
}

// Edit pairs a patch with the id of the node it targets.
type Edit struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

func (p Patch) IsEmpty() bool {
	return p.Position == nil && p.Size == nil && p.Rotation == nil && p.Skew == nil &&
		len(p.Props) == 0 && p.Styles == nil && p.Locked == nil && p.Hidden == nil
}

// ApplyPatch applies every field present in p and bumps the modified time
// once. An empty patch returns n unchanged.
func ApplyPatch(n Node, p Patch) Node {
	if p.IsEmpty() {
		return n
	}
	if p.Position != nil {
		n.Position = *p.Position
	}
	if p.Size != nil {
		n.Size = *p.Size
	}
	if p.Rotation != nil {
		n.Rotation = geometry.NormalizeAngle(*p.Rotation)
	}
	if p.Skew != nil {
		n.Skew = *p.Skew
	}
	if len(p.Props) > 0 {
		n.Props = n.Props.Merge(p.Props)
	}
	if p.Styles != nil {
		n.Styles = n.Styles.Merge(*p.Styles)
	}
	if p.Locked != nil {
		n.Metadata.Locked = *p.Locked
	}
	if p.Hidden != nil {
		n.Metadata.Hidden = *p.Hidden
	}
	touch(&n)
	return n
}

// PositionPatch is shorthand for a patch that only moves a node.
func PositionPatch(p geometry.Point) Patch {
	return Patch{Position: &p}
}
