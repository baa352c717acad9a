package render

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tripscan/internal/track"
)

// Feature kinds written to the "kind" property.
const (
	KindTrack    = "track"
	KindStop     = "stop"
	KindLeftTurn = "left_turn"
)

// TrackCollection builds a FeatureCollection holding the track as a
// LineString followed by one Point feature per stop and left turn.
func TrackCollection(path []track.Position, altitude float64, stops, leftTurns []track.Position) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	ls := make(orb.LineString, 0, len(path))
	for _, p := range path {
		ls = append(ls, p.Point())
	}
	line := geojson.NewFeature(ls)
	line.Properties["kind"] = KindTrack
	line.Properties["altitude"] = altitude
	fc.Append(line)

	for i, p := range stops {
		f := geojson.NewFeature(p.Point())
		f.Properties["kind"] = KindStop
		f.Properties["index"] = i
		fc.Append(f)
	}
	for i, p := range leftTurns {
		f := geojson.NewFeature(p.Point())
		f.Properties["kind"] = KindLeftTurn
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes TrackCollection to path.
func WriteGeoJSON(path string, trk []track.Position, altitude float64, stops, leftTurns []track.Position) error {
	b, err := TrackCollection(trk, altitude, stops, leftTurns).MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
