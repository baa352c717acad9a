package track

import (
	"github.com/paulmach/orb"

	"tripscan/internal/gps"
)

// Position is a (latitude, longitude) pair in signed decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Point returns the position as an orb point (lon, lat order).
func (p Position) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FixRecord is one normalized GPS fix. It is a comparable value so that
// whole-record duplicates can be detected with a set.
type FixRecord struct {
	TimeMinutes float64
	Lat         float64
	Lon         float64
	SpeedMPH    float64
	HeadingDeg  float64
	// HasHeading is false for fixes logged without a course.
	HasHeading bool
}

func (f FixRecord) Position() Position {
	return Position{Lat: f.Lat, Lon: f.Lon}
}

// NewFixRecord normalizes every field of row.
func NewFixRecord(row gps.RawFixRow) (FixRecord, error) {
	f, err := row.Normalized()
	if err != nil {
		return FixRecord{}, err
	}
	return FixRecord{
		TimeMinutes: f.TimeMin,
		Lat:         f.Lat,
		Lon:         f.Lon,
		SpeedMPH:    f.SpeedMPH,
		HeadingDeg:  f.HeadingDeg,
		HasHeading:  f.HasHeading,
	}, nil
}

// NewPosition normalizes only the coordinates of row.
func NewPosition(row gps.RawFixRow) (Position, error) {
	lat, lon, err := row.Position()
	if err != nil {
		return Position{}, err
	}
	return Position{Lat: lat, Lon: lon}, nil
}

// Positions projects fixes onto their coordinates, keeping order and repeats.
func Positions(fixes []FixRecord) []Position {
	out := make([]Position, 0, len(fixes))
	for _, f := range fixes {
		out = append(out, f.Position())
	}
	return out
}

// FixesFromRows normalizes rows into fix records. Rows that fail are
// returned as errors and left out; order is preserved.
func FixesFromRows(rows []gps.RawFixRow) ([]FixRecord, []error) {
	fixes := make([]FixRecord, 0, len(rows))
	var rejected []error
	for _, r := range rows {
		f, err := NewFixRecord(r)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		fixes = append(fixes, f)
	}
	return fixes, rejected
}

// PathFromRows normalizes only the coordinates of rows.
func PathFromRows(rows []gps.RawFixRow) ([]Position, []error) {
	path := make([]Position, 0, len(rows))
	var rejected []error
	for _, r := range rows {
		p, err := NewPosition(r)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		path = append(path, p)
	}
	return path, rejected
}
