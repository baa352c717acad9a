package sim

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// WriteLog writes the scenario as a recorder log: the header lines followed
// by one RMC sentence per interval, first and last samples included.
func (s *Scenario) WriteLog(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, h := range s.script.Header {
		if _, err := fmt.Fprintln(bw, h); err != nil {
			return err
		}
	}
	for at := time.Duration(0); ; at += s.script.Interval {
		if at > s.duration {
			at = s.duration
		}
		st := s.StateAt(at)
		if _, err := fmt.Fprintln(bw, s.RMC(st)); err != nil {
			return err
		}
		if s.script.EmitGGA {
			if _, err := fmt.Fprintln(bw, s.GGA(st)); err != nil {
				return err
			}
		}
		if at >= s.duration {
			break
		}
	}
	return bw.Flush()
}

// WriteLogFile writes the scenario log to path.
func (s *Scenario) WriteLogFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteLog(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RMC formats st as a checksummed RMC sentence.
func (s *Scenario) RMC(st State) string {
	lat, ns := formatLatLon(st.LatDeg, 2, "N", "S")
	lon, ew := formatLatLon(st.LonDeg, 3, "E", "W")
	payload := fmt.Sprintf("%sRMC,%s,A,%s,%s,%s,%s,%.2f,%.2f,%s,,,A",
		s.script.Talker, formatUTC(st.UTC), lat, ns, lon, ew, st.SpeedKt, st.TrackDeg, s.script.Date)
	return Sentence(payload)
}

// GGA formats st as a checksummed GGA sentence (fix quality 1, 8 satellites).
func (s *Scenario) GGA(st State) string {
	lat, ns := formatLatLon(st.LatDeg, 2, "N", "S")
	lon, ew := formatLatLon(st.LonDeg, 3, "E", "W")
	payload := fmt.Sprintf("%sGGA,%s,%s,%s,%s,%s,1,08,0.9,150.0,M,-34.0,M,,",
		s.script.Talker, formatUTC(st.UTC), lat, ns, lon, ew)
	return Sentence(payload)
}

// Sentence wraps payload with '$' and its XOR checksum.
func Sentence(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

// formatLatLon renders decimal degrees as ddmm.mmmm (degDigits=2) or
// dddmm.mmmm (degDigits=3) plus hemisphere.
func formatLatLon(v float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	// Work in 1e-4 minute units so rounding never yields 60.0000 minutes.
	units := int64(math.Round(v * 60 * 1e4))
	deg := units / (60 * 1e4)
	rem := units % (60 * 1e4)
	return fmt.Sprintf("%0*d%02d.%04d", degDigits, deg, rem/1e4, rem%1e4), hemi
}

func formatUTC(d time.Duration) string {
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	sec := (ms / 1000) % 60
	frac := ms % 1000
	return fmt.Sprintf("%02d%02d%02d.%03d", h, m, sec, frac)
}
