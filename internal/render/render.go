package render

import (
	"fmt"
	"strings"

	"tripscan/internal/track"
)

const (
	FormatKML     = "kml"
	FormatGeoJSON = "geojson"
)

// Renderer writes a track, and optionally its events, to a file.
type Renderer interface {
	// Ext is the file extension including the dot.
	Ext() string
	// Render writes path. stops and leftTurns may be nil for a plain track.
	Render(file string, path []track.Position, stops, leftTurns []track.Position) error
}

// New returns the renderer for format ("" means kml).
func New(format string, altitude float64) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatKML:
		return kmlRenderer{altitude: altitude}, nil
	case FormatGeoJSON:
		return geojsonRenderer{altitude: altitude}, nil
	default:
		return nil, fmt.Errorf("unknown render format %q", format)
	}
}

type kmlRenderer struct{ altitude float64 }

func (kmlRenderer) Ext() string { return ".kml" }

func (r kmlRenderer) Render(file string, path []track.Position, stops, leftTurns []track.Position) error {
	kw, err := CreateKML(file, r.altitude)
	if err != nil {
		return err
	}
	for _, p := range path {
		if err := kw.WriteCoordinate(p); err != nil {
			_ = kw.Close()
			return err
		}
	}
	return kw.CloseWithMarkers(stops, leftTurns)
}

type geojsonRenderer struct{ altitude float64 }

func (geojsonRenderer) Ext() string { return ".geojson" }

func (r geojsonRenderer) Render(file string, path []track.Position, stops, leftTurns []track.Position) error {
	return WriteGeoJSON(file, path, r.altitude, stops, leftTurns)
}
