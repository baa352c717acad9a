package events

import (
	"math"

	"tripscan/internal/track"
)

// FoldAngle maps a heading delta into the detector's signed turn angle.
//
// The delta handed in by DetectLeftTurns is an absolute difference, so the
// <= -180 branch never fires; it is kept so the fold stays correct for signed
// input.
func FoldAngle(delta float64) float64 {
	switch {
	case delta > -180 && delta < 180:
		return delta
	case delta <= -180:
		return delta + 360
	default:
		return delta - 360
	}
}

// IsLeftTurn reports whether moving from heading h0 to h1 counts as a left
// turn. Only absolute deltas of 180 degrees or more fold to a non-positive
// angle, and an unchanged heading (angle 0) also counts.
func IsLeftTurn(h0, h1 float64) bool {
	return FoldAngle(math.Abs(h1-h0)) <= 0
}

// DetectLeftTurns records the position of fix i for every consecutive pair
// (i, i+1) classified as a left turn. Pairs where either fix has no course
// are skipped. Repeated positions are reported once, in first-seen order.
func DetectLeftTurns(fixes []track.FixRecord) []track.Position {
	var turns []track.Position
	for i := 0; i+1 < len(fixes); i++ {
		if !fixes[i].HasHeading || !fixes[i+1].HasHeading {
			continue
		}
		if IsLeftTurn(fixes[i].HeadingDeg, fixes[i+1].HeadingDeg) {
			turns = append(turns, fixes[i].Position())
		}
	}
	return track.Unique(turns)
}
