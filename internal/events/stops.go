package events

import "tripscan/internal/track"

// StopParams tunes stop detection. The zero value is not usable; start from
// DefaultStopParams.
type StopParams struct {
	// Window is how many following fixes are compared against each fix.
	Window int
	// MinElapsedMin is the minimum time (minutes) that must pass inside the window.
	MinElapsedMin float64
	// MaxSpeedMPH is the highest speed still considered stationary.
	MaxSpeedMPH float64
	// MergeMiles collapses a detection into the previous one when closer than this.
	MergeMiles float64
}

func DefaultStopParams() StopParams {
	return StopParams{
		Window:        7,
		MinElapsedMin: 0.0005,
		MaxSpeedMPH:   0.0005,
		MergeMiles:    0.05,
	}
}

// MergeStop folds a new stop candidate into stops. The newest detection
// replaces the last stop when they are within mergeMiles; otherwise it is
// appended.
func MergeStop(stops []track.Position, p track.Position, mergeMiles float64) []track.Position {
	if n := len(stops); n > 0 && DistanceMiles(stops[n-1], p) <= mergeMiles {
		// Capped slice so the caller's last element is left alone.
		return append(stops[:n-1:n-1], p)
	}
	return append(stops, p)
}

// DetectStops scans fixes (time ordered, deduplicated) for near-zero speed
// samples. Every (i, j) pair in the forward window that qualifies applies
// MergeStop once, so a single fix can be merged several times.
//
// The result is in detection order and may still contain revisions of a
// physical stop separated by other stops.
func DetectStops(fixes []track.FixRecord, p StopParams) []track.Position {
	var stops []track.Position
	n := len(fixes)
	for i := 0; i < n; i++ {
		cur := fixes[i]
		end := min(i+1+p.Window, n)
		for j := i + 1; j < end; j++ {
			if fixes[j].TimeMinutes-cur.TimeMinutes >= p.MinElapsedMin && cur.SpeedMPH <= p.MaxSpeedMPH {
				stops = MergeStop(stops, cur.Position(), p.MergeMiles)
			}
		}
	}
	return stops
}
