package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// DefaultSentenceTag is the only sentence the analyzer consumes.
const DefaultSentenceTag = "$GPRMC"

// RawFixRow is one comma-split RMC row with its fields named.
//
// RMC field layout (NMEA 0183 v2.3):
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
type RawFixRow struct {
	Line int

	Tag        string
	Time       string
	Lat        string
	LatHemi    string
	Lon        string
	LonHemi    string
	SpeedKnots string
	Heading    string

	// Fields keeps every field as read, including the ones not named above.
	Fields []string
}

// ParseRawFixRow names the fields of an RMC row. It only checks shape; value
// validation happens when the row is normalized.
func ParseRawFixRow(line int, fields []string) (RawFixRow, error) {
	if len(fields) < 9 {
		return RawFixRow{}, &RowError{Line: line, Err: ErrShortRow}
	}
	trim := func(i int) string { return strings.TrimSpace(fields[i]) }
	return RawFixRow{
		Line:       line,
		Tag:        trim(0),
		Time:       trim(1),
		Lat:        trim(3),
		LatHemi:    trim(4),
		Lon:        trim(5),
		LonHemi:    trim(6),
		SpeedKnots: trim(7),
		Heading:    trim(8),
		Fields:     fields,
	}, nil
}

// Position normalizes only the coordinate pair. The rendered path needs
// nothing else, so a row with a bad time or speed still draws.
func (r RawFixRow) Position() (lat, lon float64, err error) {
	lat, err = ParseLatitude(r.Lat, r.LatHemi)
	if err != nil {
		return 0, 0, &RowError{Line: r.Line, Field: "latitude", Value: r.Lat + "," + r.LatHemi, Err: err}
	}
	lon, err = ParseLongitude(r.Lon, r.LonHemi)
	if err != nil {
		return 0, 0, &RowError{Line: r.Line, Field: "longitude", Value: r.Lon + "," + r.LonHemi, Err: err}
	}
	return lat, lon, nil
}

// Fix is a row with every field used by the cost and event pipeline
// converted. HasHeading is false when the course field was empty, which
// receivers do while stationary; HeadingDeg is then 0.
type Fix struct {
	TimeMin    float64
	Lat        float64
	Lon        float64
	SpeedMPH   float64
	HeadingDeg float64
	HasHeading bool
}

// Normalized converts the row into a Fix. An empty course is not an error;
// a course that is present but unparsable is.
func (r RawFixRow) Normalized() (Fix, error) {
	lat, lon, err := r.Position()
	if err != nil {
		return Fix{}, err
	}
	f := Fix{Lat: lat, Lon: lon}
	f.TimeMin, err = TimeToMinutes(r.Time)
	if err != nil {
		return Fix{}, &RowError{Line: r.Line, Field: "time", Value: r.Time, Err: err}
	}
	f.SpeedMPH, err = ParseSpeedMPH(r.SpeedKnots)
	if err != nil {
		return Fix{}, &RowError{Line: r.Line, Field: "speed", Value: r.SpeedKnots, Err: err}
	}
	if strings.TrimSpace(r.Heading) == "" {
		return f, nil
	}
	f.HeadingDeg, err = ParseHeading(r.Heading)
	if err != nil {
		return Fix{}, &RowError{Line: r.Line, Field: "heading", Value: r.Heading, Err: err}
	}
	f.HasHeading = true
	return f, nil
}

// Sentence rebuilds the raw sentence text from its fields.
func (r RawFixRow) Sentence() string {
	return strings.Join(r.Fields, ",")
}

// VerifySentence checks the checksum and RMC structure of a raw sentence.
func VerifySentence(line int, raw string) error {
	s, err := nmea.Parse(strings.TrimSpace(raw))
	if err != nil {
		return &RowError{Line: line, Field: "sentence", Value: raw, Err: fmt.Errorf("%w: %w", ErrMalformedSentence, err)}
	}
	if s.DataType() != nmea.TypeRMC {
		return &RowError{Line: line, Field: "sentence", Value: raw, Err: ErrMalformedSentence}
	}
	return nil
}

// SentenceType returns the upper-cased three-letter sentence type of a tag,
// accepting any talker (GPRMC, GNRMC, ...). Unknown shapes return "".
func SentenceType(tag string) string {
	t := strings.TrimPrefix(strings.TrimSpace(tag), "$")
	t = strings.TrimPrefix(t, "!")
	if len(t) < 3 {
		return ""
	}
	if len(t) > 3 {
		t = t[len(t)-3:]
	}
	return strings.ToUpper(t)
}
