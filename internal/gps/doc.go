// Package gps turns recorded NMEA RMC rows into normalized numeric units.
//
// It is intentionally small:
// - Name the RMC fields of a comma-split row (RawFixRow)
// - Convert ddmm.mmmm coordinates, knots and hhmmss time (normalize.go)
// - Reject malformed rows with a typed RowError instead of panicking
package gps
