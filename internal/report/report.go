// Package report holds the outcome of an analysis run and its encodings:
// the console text and json/yaml/msgpack report files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"tripscan/internal/track"
)

const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

type Coord struct {
	Lat float64 `json:"lat" yaml:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" yaml:"lon" msgpack:"lon"`
}

type Trip struct {
	Name      string  `json:"name" yaml:"name" msgpack:"name"`
	Cost      float64 `json:"cost" yaml:"cost" msgpack:"cost"`
	Output    string  `json:"output,omitempty" yaml:"output,omitempty" msgpack:"output,omitempty"`
	Fixes     int     `json:"fixes" yaml:"fixes" msgpack:"fixes"`
	Positions int     `json:"positions" yaml:"positions" msgpack:"positions"`
	Rejected  int     `json:"rejected" yaml:"rejected" msgpack:"rejected"`
}

// Report is the result of one run. Stops and LeftTurns are ordered by
// longitude, largest first; equal longitudes keep detection order.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id" msgpack:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Best        Trip      `json:"best" yaml:"best" msgpack:"best"`
	BestOutput  string    `json:"best_output" yaml:"best_output" msgpack:"best_output"`
	Candidates  []Trip    `json:"candidates" yaml:"candidates" msgpack:"candidates"`
	Stops       []Coord   `json:"stops" yaml:"stops" msgpack:"stops"`
	LeftTurns   []Coord   `json:"left_turns" yaml:"left_turns" msgpack:"left_turns"`
}

// New builds a report with a fresh run id.
func New(cands []track.Candidate, best track.Candidate, bestOutput string, stops, leftTurns []track.Position) *Report {
	r := &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Best:        tripFrom(best),
		BestOutput:  bestOutput,
		Candidates:  make([]Trip, 0, len(cands)),
		Stops:       ByLongitudeDesc(stops),
		LeftTurns:   ByLongitudeDesc(leftTurns),
	}
	for _, c := range cands {
		r.Candidates = append(r.Candidates, tripFrom(c))
	}
	return r
}

func tripFrom(c track.Candidate) Trip {
	return Trip{
		Name:      c.Name,
		Cost:      c.Cost,
		Output:    c.Output,
		Fixes:     c.Fixes,
		Positions: c.Positions,
		Rejected:  c.Rejected,
	}
}

// ByLongitudeDesc copies ps into coords sorted by longitude, largest first.
// The sort is stable.
func ByLongitudeDesc(ps []track.Position) []Coord {
	out := make([]Coord, 0, len(ps))
	for _, p := range ps {
		out = append(out, Coord{Lat: p.Lat, Lon: p.Lon})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lon > out[j].Lon })
	return out
}

// WriteText prints the console summary. Stops are listed as (lat,long) and
// left turns as (long,lat).
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nBest path is %s has a cost of: %s\n", r.Best.Name, pyFloat(r.Best.Cost))
	fmt.Fprintf(&b, "\nlist of stop signs (lat,long):\n%s\n", tupleList(r.Stops, false))
	fmt.Fprintf(&b, "\n\nlist of left turn (long,lat):\n%s\n", tupleList(r.LeftTurns, true))
	_, err := io.WriteString(w, b.String())
	return err
}

func tupleList(cs []Coord, lonFirst bool) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		a, b := c.Lat, c.Lon
		if lonFirst {
			a, b = b, a
		}
		parts = append(parts, "("+pyFloat(a)+", "+pyFloat(b)+")")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// pyFloat formats v with the shortest round-trip digits, always keeping a
// decimal point ("1.0", not "1"). Exponent form is used below 1e-4 and from
// 1e16 up.
func pyFloat(v float64) string {
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// Encode writes r in format ("yml" is accepted for yaml).
func (r *Report) Encode(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile encodes r to path.
func (r *Report) WriteFile(path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Decode reads a report previously written by Encode.
func Decode(rd io.Reader, format string) (*Report, error) {
	var r Report
	var err error
	switch strings.ToLower(format) {
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&r)
	case FormatYAML, "yml":
		err = yaml.NewDecoder(rd).Decode(&r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&r)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
