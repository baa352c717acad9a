package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioScript is a deterministic, script-driven drive description used to
// synthesize recorder logs.
//
// Time is expressed as Go duration strings (e.g. "0s", "250ms", "10s").
// If Duration is zero, it is derived from the latest keyframe time.
//
// YAML schema (v1):
//
//	version: 1
//	start_utc: "14:28:50"
//	date: "160818"
//	interval: 1s
//	header_lines: 5
//	header:
//	  - "recorder v2"
//	keyframes:
//	  - t: 0s
//	    lat_deg: 43.0894
//	    lon_deg: -77.6797
//	    speed_kt: 0
//	    track_deg: 90
//
// Header is padded with blank lines to HeaderLines (default 5) so the log
// reader's preamble skip lands exactly on the first sentence; a longer header
// is rejected.
//
// Keyframes must be sorted by time and use non-decreasing t values.
type ScenarioScript struct {
	Version     int           `yaml:"version"`
	Duration    time.Duration `yaml:"duration"`
	Interval    time.Duration `yaml:"interval"`
	StartUTC    string        `yaml:"start_utc"`
	Date        string        `yaml:"date"`
	Talker      string        `yaml:"talker"`
	Header      []string      `yaml:"header"`
	HeaderLines int           `yaml:"header_lines"`
	EmitGGA     bool          `yaml:"emit_gga"`
	Keyframes   []Keyframe    `yaml:"keyframes"`
}

// Keyframe is a time-stamped vehicle state.
type Keyframe struct {
	T        time.Duration `yaml:"t"`
	LatDeg   float64       `yaml:"lat_deg"`
	LonDeg   float64       `yaml:"lon_deg"`
	SpeedKt  float64       `yaml:"speed_kt"`
	TrackDeg float64       `yaml:"track_deg"`
}

// Scenario is the validated, runtime representation.
type Scenario struct {
	script   ScenarioScript
	start    time.Duration
	duration time.Duration
}

// State is the computed vehicle state at a time.
type State struct {
	UTC      time.Duration // time of day
	LatDeg   float64
	LonDeg   float64
	SpeedKt  float64
	TrackDeg float64
}

// LoadScenarioScript reads and unmarshals a YAML scenario script from path.
func LoadScenarioScript(path string) (ScenarioScript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ScenarioScript{}, err
	}
	return ParseScenarioScriptYAML(b)
}

// ParseScenarioScriptYAML parses a YAML scenario script.
func ParseScenarioScriptYAML(b []byte) (ScenarioScript, error) {
	var s ScenarioScript
	if err := yaml.Unmarshal(b, &s); err != nil {
		return ScenarioScript{}, err
	}
	return s, nil
}

// NewScenario validates script, applies defaults and returns a runtime Scenario.
func NewScenario(script ScenarioScript) (*Scenario, error) {
	if script.Version == 0 {
		script.Version = 1
	}
	if script.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version %d", script.Version)
	}
	if len(script.Keyframes) == 0 {
		return nil, fmt.Errorf("keyframes is required")
	}
	if err := validateNonDecreasing(script.Keyframes); err != nil {
		return nil, err
	}
	if script.Interval < 0 {
		return nil, fmt.Errorf("interval must be > 0")
	}
	if script.Interval == 0 {
		script.Interval = time.Second
	}
	if script.Date == "" {
		script.Date = "010120"
	}
	if script.Talker == "" {
		script.Talker = "GP"
	}
	if script.HeaderLines < 0 {
		return nil, fmt.Errorf("header_lines must be >= 0")
	}
	if script.HeaderLines == 0 {
		script.HeaderLines = len(defaultHeader())
	}
	if len(script.Header) == 0 {
		script.Header = defaultHeader()
	}
	if len(script.Header) > script.HeaderLines {
		return nil, fmt.Errorf("header has %d lines, header_lines is %d", len(script.Header), script.HeaderLines)
	}
	header := make([]string, script.HeaderLines)
	copy(header, script.Header)
	script.Header = header
	if script.StartUTC == "" {
		script.StartUTC = "12:00:00"
	}
	start, err := parseTimeOfDay(script.StartUTC)
	if err != nil {
		return nil, err
	}

	dur := script.Duration
	if dur <= 0 {
		dur = maxKeyframeTime(script.Keyframes)
	}
	if dur < 0 {
		return nil, fmt.Errorf("duration must be >= 0")
	}

	return &Scenario{script: script, start: start, duration: dur}, nil
}

// Duration returns the effective scenario duration.
func (s *Scenario) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.duration
}

// StateAt computes the vehicle state at elapsed, clamped to [0, Duration()].
func (s *Scenario) StateAt(elapsed time.Duration) State {
	if s == nil {
		return State{}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > s.duration {
		elapsed = s.duration
	}

	kf0, kf1, alpha := selectSegment(s.script.Keyframes, elapsed)
	return State{
		UTC:      (s.start + elapsed) % (24 * time.Hour),
		LatDeg:   lerp(kf0.LatDeg, kf1.LatDeg, alpha),
		LonDeg:   lerp(kf0.LonDeg, kf1.LonDeg, alpha),
		SpeedKt:  lerp(kf0.SpeedKt, kf1.SpeedKt, alpha),
		TrackDeg: lerpAngleDeg(kf0.TrackDeg, kf1.TrackDeg, alpha),
	}
}

func defaultHeader() []string {
	return []string{
		"tripscan synthetic log",
		"recorder: sim",
		"format: nmea0183",
		"sentences: RMC",
		"----",
	}
}

func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("start_utc %q: want HH:MM:SS", s)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

func validateNonDecreasing(kfs []Keyframe) error {
	for i := range kfs {
		if kfs[i].T < 0 {
			return fmt.Errorf("keyframes[%d].t must be >= 0", i)
		}
		if i > 0 && kfs[i].T < kfs[i-1].T {
			return fmt.Errorf("keyframes must be sorted by t (index %d)", i)
		}
		if kfs[i].LatDeg < -90 || kfs[i].LatDeg > 90 {
			return fmt.Errorf("keyframes[%d].lat_deg out of range", i)
		}
		if kfs[i].LonDeg < -180 || kfs[i].LonDeg > 180 {
			return fmt.Errorf("keyframes[%d].lon_deg out of range", i)
		}
	}
	return nil
}

func maxKeyframeTime(kfs []Keyframe) time.Duration {
	max := time.Duration(0)
	for _, kf := range kfs {
		if kf.T > max {
			max = kf.T
		}
	}
	return max
}

func selectSegment(kfs []Keyframe, t time.Duration) (Keyframe, Keyframe, float64) {
	if len(kfs) == 1 {
		return kfs[0], kfs[0], 0
	}
	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].T > t })
	if idx <= 0 {
		return kfs[0], kfs[0], 0
	}
	if idx >= len(kfs) {
		last := kfs[len(kfs)-1]
		return last, last, 0
	}
	k0 := kfs[idx-1]
	k1 := kfs[idx]
	dt := k1.T - k0.T
	if dt <= 0 {
		return k1, k1, 0
	}
	alpha := float64(t-k0.T) / float64(dt)
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return k0, k1, alpha
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpAngleDeg(a0, a1, t float64) float64 {
	// Shortest-path interpolation across wraparound.
	// Normalize to [0, 360).
	norm := func(x float64) float64 {
		for x < 0 {
			x += 360
		}
		for x >= 360 {
			x -= 360
		}
		return x
	}
	a0 = norm(a0)
	a1 = norm(a1)
	delta := a1 - a0
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return norm(a0 + delta*t)
}
