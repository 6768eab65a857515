package geometry

import (
	"fmt"
	"math"
	"strings"
)

// Direction is a set of resize handle edges. Corners combine two edges.
type Direction uint8

const (
	North Direction = 1 << iota
	South
	East
	West

	NorthEast = North | East
	NorthWest = North | West
	SouthEast = South | East
	SouthWest = South | West
)

// ParseDirection parses handle names such as "n", "se" or "wn".
func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return 0, fmt.Errorf("empty resize direction")
	}
	var d Direction
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'n':
			d |= North
		case 's':
			d |= South
		case 'e':
			d |= East
		case 'w':
			d |= West
		default:
			return 0, fmt.Errorf("invalid resize direction %q", s)
		}
	}
	if d&North != 0 && d&South != 0 || d&East != 0 && d&West != 0 {
		return 0, fmt.Errorf("opposing edges in resize direction %q", s)
	}
	return d, nil
}

func (d Direction) Has(edge Direction) bool { return d&edge != 0 }

func (d Direction) String() string {
	var b strings.Builder
	if d.Has(North) {
		b.WriteByte('n')
	}
	if d.Has(South) {
		b.WriteByte('s')
	}
	if d.Has(East) {
		b.WriteByte('e')
	}
	if d.Has(West) {
		b.WriteByte('w')
	}
	return b.String()
}

// MarshalText lets directions travel as "ne" in JSON payloads.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ResizeFromHandle applies a pointer delta to the edges named by dir.
//
// Width and height are clamped to minSize (DefaultMinSize when <= 0). With
// aspectLocked the cross-axis dimension follows the original width/height
// ratio; the horizontal edge drives when the handle has one. Moving the north
// or west edge shifts the position so the opposite edge stays put.
func ResizeFromHandle(dir Direction, original Rect, delta Point, aspectLocked bool, minSize float64) Rect {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}

	w, h := original.Width, original.Height
	if dir.Has(East) {
		w = original.Width + delta.X
	}
	if dir.Has(West) {
		w = original.Width - delta.X
	}
	if dir.Has(South) {
		h = original.Height + delta.Y
	}
	if dir.Has(North) {
		h = original.Height - delta.Y
	}
	w = math.Max(w, minSize)
	h = math.Max(h, minSize)

	if aspectLocked && original.Width > 0 && original.Height > 0 {
		ratio := original.Width / original.Height
		switch {
		case dir.Has(East) || dir.Has(West):
			h = w / ratio
			if h < minSize {
				h = minSize
				w = h * ratio
			}
		case dir.Has(North) || dir.Has(South):
			w = h * ratio
			if w < minSize {
				w = minSize
				h = w / ratio
			}
		}
	}

	return anchorOpposite(dir, original, w, h)
}

// AnchorResize places a w x h box so the edges opposite dir stay where they
// were in original.
func AnchorResize(dir Direction, original Rect, s Size) Rect {
	return anchorOpposite(dir, original, s.Width, s.Height)
}

// FitOrigin shrinks a resized box whose north or west edge crossed the
// canvas origin so that edge sits at 0 while the opposite edges stay where
// they were in original. Aspect lock and minSize are re-applied.
func FitOrigin(dir Direction, original, r Rect, aspectLocked bool, minSize float64) Rect {
	if r.X >= 0 && r.Y >= 0 {
		return r
	}
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	w, h := r.Width, r.Height
	if r.X < 0 {
		w += r.X
	}
	if r.Y < 0 {
		h += r.Y
	}
	if aspectLocked && original.Width > 0 && original.Height > 0 {
		ratio := original.Width / original.Height
		w = math.Min(w, h*ratio)
		h = w / ratio
	}
	w = math.Max(w, minSize)
	h = math.Max(h, minSize)

	out := anchorOpposite(dir, original, w, h)
	out.X = math.Max(out.X, 0)
	out.Y = math.Max(out.Y, 0)
	return out
}

func anchorOpposite(dir Direction, original Rect, w, h float64) Rect {
	x, y := original.X, original.Y
	if dir.Has(West) {
		x = original.X + original.Width - w
	}
	if dir.Has(North) {
		y = original.Y + original.Height - h
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}
