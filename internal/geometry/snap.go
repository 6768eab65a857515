package geometry

import "math"

// SnapToGrid rounds value to the nearest multiple of gridSize. A non-positive
// gridSize falls back to DefaultGridSize.
func SnapToGrid(value, gridSize float64) float64 {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	return math.Round(value/gridSize) * gridSize
}

// SnapPoint snaps both coordinates of p.
func SnapPoint(p Point, gridSize float64) Point {
	return Point{X: SnapToGrid(p.X, gridSize), Y: SnapToGrid(p.Y, gridSize)}
}

// SnapSize snaps each dimension to the grid, never going below one grid unit.
func SnapSize(s Size, gridSize float64) Size {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	return Size{
		Width:  math.Max(SnapToGrid(s.Width, gridSize), gridSize),
		Height: math.Max(SnapToGrid(s.Height, gridSize), gridSize),
	}
}
