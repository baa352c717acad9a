package track

import (
	"errors"
	"fmt"
)

// ErrEmptyTrip is returned when a candidate has no usable fixes. An empty
// trip must never reach selection with a zero cost.
var ErrEmptyTrip = errors.New("trip has no valid fixes")

// CostModel blends trip duration and top speed into a single score.
//
//	cost = travel/TimeRefMin + SpeedWeight*(maxSpeed/SpeedRefMPH)
type CostModel struct {
	TimeRefMin  float64
	SpeedRefMPH float64
	SpeedWeight float64
}

func DefaultCostModel() CostModel {
	return CostModel{TimeRefMin: 30, SpeedRefMPH: 60, SpeedWeight: 0.5}
}

// Score applies the model to an already measured trip.
func (m CostModel) Score(travelMin, maxSpeedMPH float64) float64 {
	return travelMin/m.TimeRefMin + m.SpeedWeight*(maxSpeedMPH/m.SpeedRefMPH)
}

// Evaluate scores a time-ascending fix sequence.
func (m CostModel) Evaluate(fixes []FixRecord) (float64, error) {
	if len(fixes) == 0 {
		return 0, ErrEmptyTrip
	}
	if m.TimeRefMin <= 0 || m.SpeedRefMPH <= 0 {
		return 0, fmt.Errorf("cost model references must be > 0 (time=%v speed=%v)", m.TimeRefMin, m.SpeedRefMPH)
	}
	travel := fixes[len(fixes)-1].TimeMinutes - fixes[0].TimeMinutes
	return m.Score(travel, MaxSpeed(fixes)), nil
}

// MaxSpeed returns the highest speed in fixes, or 0 when fixes is empty.
func MaxSpeed(fixes []FixRecord) float64 {
	if len(fixes) == 0 {
		return 0
	}
	max := fixes[0].SpeedMPH
	for _, f := range fixes[1:] {
		if f.SpeedMPH > max {
			max = f.SpeedMPH
		}
	}
	return max
}
