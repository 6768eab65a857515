package geometry

import "math"

// NormalizeAngle wraps degrees into [0, 360).
func NormalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to exactly 360 in float64.
	if a >= 360 {
		a = 0
	}
	return a
}

// SnapAngle normalizes degrees and rounds to the nearest AngleStep.
func SnapAngle(degrees float64) float64 {
	snapped := math.Round(NormalizeAngle(degrees)/AngleStep) * AngleStep
	if snapped >= 360 {
		snapped -= 360
	}
	return snapped
}

// ComputeAngle returns the angle of pointer around center in degrees, with
// straight up as 0 and increasing clockwise in screen coordinates.
func ComputeAngle(center, pointer Point) float64 {
	rad := math.Atan2(pointer.Y-center.Y, pointer.X-center.X)
	return NormalizeAngle(rad*180/math.Pi + 90)
}
