package gps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KnotsToMPH is the conversion factor applied to RMC speed over ground.
const KnotsToMPH = 1.151

// DegreesFromRaw converts an NMEA ddmm.mmmm (or dddmm.mmmm) value plus a
// hemisphere letter into signed decimal degrees. S and W are negative.
func DegreesFromRaw(value, hemi string) (float64, error) {
	hemi = strings.ToUpper(strings.TrimSpace(hemi))
	if hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W" {
		return 0, fmt.Errorf("hemisphere %q: %w", hemi, ErrMalformedCoordinate)
	}
	v, ok := parseFloat(value)
	if !ok || v < 0 {
		return 0, fmt.Errorf("value %q: %w", value, ErrMalformedCoordinate)
	}

	deg := math.Floor(v / 100)
	mins := v - 100*deg
	dec := deg + mins/60
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, nil
}

// ParseLatitude is DegreesFromRaw restricted to N/S and [-90, 90].
func ParseLatitude(value, hemi string) (float64, error) {
	h := strings.ToUpper(strings.TrimSpace(hemi))
	if h != "N" && h != "S" {
		return 0, fmt.Errorf("latitude hemisphere %q: %w", hemi, ErrMalformedCoordinate)
	}
	lat, err := DegreesFromRaw(value, h)
	if err != nil {
		return 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, fmt.Errorf("latitude %v out of range: %w", lat, ErrMalformedCoordinate)
	}
	return lat, nil
}

// ParseLongitude is DegreesFromRaw restricted to E/W and [-180, 180].
func ParseLongitude(value, hemi string) (float64, error) {
	h := strings.ToUpper(strings.TrimSpace(hemi))
	if h != "E" && h != "W" {
		return 0, fmt.Errorf("longitude hemisphere %q: %w", hemi, ErrMalformedCoordinate)
	}
	lon, err := DegreesFromRaw(value, h)
	if err != nil {
		return 0, err
	}
	if lon < -180 || lon > 180 {
		return 0, fmt.Errorf("longitude %v out of range: %w", lon, ErrMalformedCoordinate)
	}
	return lon, nil
}

// SpeedToMPH converts knots to miles per hour. Values are not range checked.
func SpeedToMPH(knots float64) float64 {
	return knots * KnotsToMPH
}

func ParseSpeedMPH(raw string) (float64, error) {
	kt, ok := parseFloat(raw)
	if !ok {
		return 0, fmt.Errorf("speed %q: %w", raw, ErrMalformedSpeed)
	}
	return SpeedToMPH(kt), nil
}

// TimeToMinutes converts a fixed-width hhmmss[.sss] UTC time into minutes
// since midnight, fractional seconds included.
func TimeToMinutes(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 5 {
		return 0, fmt.Errorf("time %q: %w", raw, ErrMalformedTime)
	}
	hours, err := strconv.Atoi(raw[0:2])
	if err != nil {
		return 0, fmt.Errorf("time %q hours: %w", raw, ErrMalformedTime)
	}
	mins, err := strconv.Atoi(raw[2:4])
	if err != nil {
		return 0, fmt.Errorf("time %q minutes: %w", raw, ErrMalformedTime)
	}
	secs, ok := parseFloat(raw[4:])
	if !ok {
		return 0, fmt.Errorf("time %q seconds: %w", raw, ErrMalformedTime)
	}
	return float64(hours*60+mins) + secs/60, nil
}

func ParseHeading(raw string) (float64, error) {
	h, ok := parseFloat(raw)
	if !ok {
		return 0, fmt.Errorf("heading %q: %w", raw, ErrMalformedHeading)
	}
	return h, nil
}

// parseFloat rejects empty strings and non-finite values; strconv accepts
// "NaN" and "Inf", which would poison dedup and cost comparisons.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
