package render

import (
	"bufio"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"tripscan/internal/track"
)

const kmlHeader = `<?xml version="1.0" encoding="utf-8" ?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
<Style id="yellowPoly">
	<LineStyle>
		<color>Af00ffff</color>
		<width>6</width>
	</LineStyle>
	<PolyStyle>
		<color>7f00ff00</color>
	</PolyStyle>
</Style>
<Placemark><styleUrl>#yellowPoly</styleUrl>
<LineString>
<Description>Speed in MPH, not altitude.</Description>
	<extrude>1</extrude>
	<tesselate>1</tesselate>
	<altitudeMode>absolute</altitudeMode>
	<coordinates>
`

const kmlPathEnd = `	</coordinates>
</LineString>
</Placemark>
`

const kmlDocumentEnd = `</Document>
</kml>
`

const kmlStopOpen = `<Placemark>
<description>Red PIN for A Stop</description>
<Style id="normalPlacemark">
<IconStyle>
<color>ff0000ff</color>
<Icon>
<href>http://maps.google.com/mapfiles/kml/paddle/1.png</href>
</Icon>
</IconStyle></Style>
<Point>
<coordinates>
`

const kmlTurnOpen = `<Placemark>
<description>Default Pin is Yellow</description>
<Point>
<coordinates>
`

const kmlPointClose = `</coordinates>
</Point>
</Placemark>
`

// KMLWriter streams a single-track KML document: header, one coordinate per
// fix, then a trailer that optionally carries stop and left-turn markers.
type KMLWriter struct {
	c      io.Closer
	w      *bufio.Writer
	alt    string
	closed bool
}

// NewKMLWriter writes the document header to w.
func NewKMLWriter(w io.Writer, altitude float64) (*KMLWriter, error) {
	kw := &KMLWriter{w: bufio.NewWriterSize(w, 64*1024), alt: strconv.FormatFloat(altitude, 'f', -1, 64)}
	if c, ok := w.(io.Closer); ok {
		kw.c = c
	}
	if _, err := kw.w.WriteString(kmlHeader); err != nil {
		return nil, err
	}
	return kw, nil
}

// CreateKML creates path and writes the document header.
func CreateKML(path string, altitude float64) (*KMLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	kw, err := NewKMLWriter(f, altitude)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return kw, nil
}

// WriteCoordinate appends one lon,lat,alt line to the track body.
func (kw *KMLWriter) WriteCoordinate(p track.Position) error {
	if kw.closed {
		return errors.New("kml writer is closed")
	}
	return kw.writeCoord(p)
}

// Close ends the track and the document.
func (kw *KMLWriter) Close() error {
	return kw.CloseWithMarkers(nil, nil)
}

// CloseWithMarkers ends the track, writes one red paddle placemark per stop
// and one default placemark per left turn, then ends the document.
func (kw *KMLWriter) CloseWithMarkers(stops, leftTurns []track.Position) error {
	if kw.closed {
		return nil
	}
	kw.closed = true

	err := kw.writeTrailer(stops, leftTurns)
	if err == nil {
		err = kw.w.Flush()
	}
	if kw.c != nil {
		if cerr := kw.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (kw *KMLWriter) writeTrailer(stops, leftTurns []track.Position) error {
	if _, err := kw.w.WriteString(kmlPathEnd); err != nil {
		return err
	}
	for _, p := range stops {
		if err := kw.writeMarker(kmlStopOpen, p); err != nil {
			return err
		}
	}
	for _, p := range leftTurns {
		if err := kw.writeMarker(kmlTurnOpen, p); err != nil {
			return err
		}
	}
	_, err := kw.w.WriteString(kmlDocumentEnd)
	return err
}

func (kw *KMLWriter) writeMarker(open string, p track.Position) error {
	if _, err := kw.w.WriteString(open); err != nil {
		return err
	}
	if err := kw.writeCoord(p); err != nil {
		return err
	}
	_, err := kw.w.WriteString(kmlPointClose)
	return err
}

func (kw *KMLWriter) writeCoord(p track.Position) error {
	_, err := kw.w.WriteString("\t\t" + formatCoord(p.Lon) + "," + formatCoord(p.Lat) + "," + kw.alt + "\n")
	return err
}

// formatCoord prints v the way the recorder's reference maps do: shortest
// round-trip digits with a trailing ".0" on whole numbers, and exponent form
// below 1e-4 or from 1e16 up.
func formatCoord(v float64) string {
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
