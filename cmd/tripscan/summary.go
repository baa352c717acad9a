package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"tripscan/internal/gps"
	"tripscan/internal/nmealog"
	"tripscan/internal/track"
)

type logSummary struct {
	Records     int
	Tagged      int
	Accepted    int
	Void        int
	Ignored     int
	Rejected    map[string]int
	SpanMinutes float64
	MaxSpeedMPH float64
	Types       map[string]int
}

func summarizeLog(lg *nmealog.Log) logSummary {
	s := logSummary{
		Records:  lg.Records,
		Tagged:   lg.Tagged,
		Void:     lg.Void,
		Ignored:  lg.Ignored,
		Rejected: map[string]int{},
		Types:    lg.Types,
	}
	for _, re := range lg.Rejected {
		s.Rejected[kindName(re)]++
	}

	fixes, dropped := track.FixesFromRows(lg.Rows)
	for _, err := range dropped {
		s.Rejected[kindName(err)]++
	}
	fixes = track.UniqueFixes(fixes)
	s.Accepted = len(fixes)
	if len(fixes) > 0 {
		s.SpanMinutes = fixes[len(fixes)-1].TimeMinutes - fixes[0].TimeMinutes
		s.MaxSpeedMPH = track.MaxSpeed(fixes)
	}
	return s
}

func kindName(err error) string {
	if k := gps.Kind(err); k != nil {
		return k.Error()
	}
	return "other"
}

func printLogSummary(w io.Writer, path string, opts nmealog.Options) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	lg, err := nmealog.ReadFile(path, opts)
	if err != nil {
		return err
	}
	s := summarizeLog(lg)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "records: %d\n", s.Records)
	fmt.Fprintf(w, "tagged: %d\n", s.Tagged)
	fmt.Fprintf(w, "accepted_fixes: %d\n", s.Accepted)
	fmt.Fprintf(w, "void: %d\n", s.Void)
	fmt.Fprintf(w, "ignored: %d\n", s.Ignored)
	fmt.Fprintf(w, "span_min: %.3f\n", s.SpanMinutes)
	fmt.Fprintf(w, "max_speed_mph: %.3f\n", s.MaxSpeedMPH)

	fmt.Fprintf(w, "rejected:\n")
	for _, k := range sortedKeys(s.Rejected) {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Rejected[k])
	}
	fmt.Fprintf(w, "sentence_types:\n")
	for _, k := range sortedKeys(s.Types) {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Types[k])
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
