package track

import "errors"

var ErrNoCandidates = errors.New("no candidate trips")

// Candidate is one input log and its evaluated cost.
type Candidate struct {
	Name string
	Cost float64

	// Output is where the candidate's path was rendered ("" if not rendered).
	Output string
	// Fixes is the number of unique fixes the cost was computed from.
	Fixes int
	// Positions is the number of unique coordinate pairs in the rendered path.
	Positions int
	// Rejected counts rows dropped as malformed.
	Rejected int
}

// SelectBest returns the minimum-cost candidate. Ties go to the earliest
// candidate in slice order.
func SelectBest(cands []Candidate) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, ErrNoCandidates
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Cost < best.Cost {
			best = c
		}
	}
	return best, nil
}
