package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripscan/internal/config"
	"tripscan/internal/sim"
	"tripscan/internal/track"
)

func writeTrip(t *testing.T, dir, name string, script sim.ScenarioScript) string {
	t.Helper()
	scn, err := sim.NewScenario(script)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, scn.WriteLogFile(path))
	return path
}

// shortTrip lasts 10 minutes with a 20 mph top speed and opens with a
// one-minute standstill.
func shortTrip() sim.ScenarioScript {
	return sim.ScenarioScript{
		Interval: 30 * time.Second,
		Keyframes: []sim.Keyframe{
			{T: 0, LatDeg: 43.0894, LonDeg: -77.6797, TrackDeg: 90},
			{T: 60 * time.Second, LatDeg: 43.0894, LonDeg: -77.6797, TrackDeg: 90},
			{T: 90 * time.Second, LatDeg: 43.0900, LonDeg: -77.6700, SpeedKt: 17.38, TrackDeg: 90},
			{T: 10 * time.Minute, LatDeg: 43.0900, LonDeg: -77.6000, SpeedKt: 17.38, TrackDeg: 90},
		},
	}
}

// longTrip lasts 40 minutes at a steady 10 mph.
func longTrip() sim.ScenarioScript {
	return sim.ScenarioScript{
		Interval: time.Minute,
		Keyframes: []sim.Keyframe{
			{T: 0, LatDeg: 43.0894, LonDeg: -77.6797, SpeedKt: 8.69, TrackDeg: 45},
			{T: 40 * time.Minute, LatDeg: 43.1500, LonDeg: -77.5800, SpeedKt: 8.69, TrackDeg: 45},
		},
	}
}

func testConfig(dir string, inputs ...string) config.Config {
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(dir, "kml")
	cfg.BestOutput = filepath.Join(dir, "best_output_file.kml")
	for _, in := range inputs {
		cfg.Inputs = append(cfg.Inputs, config.InputConfig{Path: in})
	}
	return cfg
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestRun_PicksCheapestTrip(t *testing.T) {
	dir := t.TempDir()
	long := writeTrip(t, dir, "long.txt", longTrip())
	short := writeTrip(t, dir, "short.txt", shortTrip())
	cfg := testConfig(dir, long, short)

	rep, err := Run(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	require.Len(t, rep.Candidates, 2)
	assert.Equal(t, long, rep.Candidates[0].Name)
	assert.InDelta(t, 1.417, rep.Candidates[0].Cost, 1e-3)
	assert.Equal(t, short, rep.Candidates[1].Name)
	assert.InDelta(t, 0.500, rep.Candidates[1].Cost, 1e-3)
	assert.Equal(t, short, rep.Best.Name)

	for _, c := range rep.Candidates {
		_, err := os.Stat(c.Output)
		require.NoError(t, err, "candidate output %s", c.Output)
	}
	assert.Equal(t, filepath.Join(dir, "kml", "short.kml"), rep.Candidates[1].Output)

	// The standstill collapses into a single stop.
	require.Len(t, rep.Stops, 1)
	assert.InDelta(t, 43.0894, rep.Stops[0].Lat, 1e-6)
	assert.InDelta(t, -77.6797, rep.Stops[0].Lon, 1e-6)

	// A constant heading counts as a left turn at every distinct fix but the last.
	assert.NotEmpty(t, rep.LeftTurns)

	b, err := os.ReadFile(cfg.BestOutput)
	require.NoError(t, err)
	body := string(b)
	assert.Equal(t, 1, strings.Count(body, "Red PIN for A Stop"))
	assert.Equal(t, len(rep.LeftTurns), strings.Count(body, "Default Pin is Yellow"))
}

func TestRun_WorkersKeepInputOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeTrip(t, dir, "a.txt", shortTrip())
	b := writeTrip(t, dir, "b.txt", shortTrip())
	c := writeTrip(t, dir, "c.txt", longTrip())
	cfg := testConfig(dir, a, b, c)
	cfg.Workers = 3

	rep, err := Run(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	require.Len(t, rep.Candidates, 3)
	assert.Equal(t, []string{a, b, c}, []string{rep.Candidates[0].Name, rep.Candidates[1].Name, rep.Candidates[2].Name})
	// a and b tie; the earlier input wins.
	assert.Equal(t, a, rep.Best.Name)
}

func TestRun_EmptyTripFails(t *testing.T) {
	dir := t.TempDir()
	good := writeTrip(t, dir, "good.txt", shortTrip())
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("h1\nh2\nh3\nh4\nh5\n"), 0o644))

	_, err := Run(context.Background(), testConfig(dir, good, empty), quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, track.ErrEmptyTrip), "err=%v", err)
	assert.Contains(t, err.Error(), empty)
}

func TestRun_NoInputs(t *testing.T) {
	_, err := Run(context.Background(), testConfig(t.TempDir()), quietLogger())
	assert.ErrorIs(t, err, track.ErrNoCandidates)
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, writeTrip(t, dir, "a.txt", shortTrip()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsRejectedRows(t *testing.T) {
	dir := t.TempDir()
	path := writeTrip(t, dir, "a.txt", shortTrip())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("$GPRMC,bad,A,4305.3640,N,07740.7820,W,0.00,90.00,010120,,,A\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var buf bytes.Buffer
	rep, err := Run(context.Background(), testConfig(dir, path), log.New(&buf, "", 0))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Candidates[0].Rejected)
	assert.Contains(t, buf.String(), "dropped fix")
}

func TestRun_StationaryFixesWithoutCourse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parked.txt")
	body := "h1\nh2\nh3\nh4\nh5\n" +
		sim.Sentence("GPRMC,142850.000,A,4305.3640,N,07740.7820,W,0.00,,160818,,,A") + "\n" +
		sim.Sentence("GPRMC,142851.000,A,4305.3640,N,07740.7820,W,0.00,,160818,,,A") + "\n" +
		sim.Sentence("GPRMC,142900.000,A,4305.4000,N,07740.0000,W,17.38,90.00,160818,,,A") + "\n" +
		sim.Sentence("GPRMC,143850.000,A,4305.4000,N,07736.0000,W,17.38,90.00,160818,,,A") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rep, err := Run(context.Background(), testConfig(dir, path), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Candidates[0].Fixes)
	assert.Zero(t, rep.Candidates[0].Rejected)
	// Travel runs from 14:28:50, the first parked fix.
	assert.InDelta(t, 0.500, rep.Best.Cost, 1e-3)
	require.Len(t, rep.Stops, 1)
	assert.InDelta(t, 43+5.364/60, rep.Stops[0].Lat, 1e-9)
	// Only the moving pair has courses to compare.
	require.Len(t, rep.LeftTurns, 1)
	assert.InDelta(t, -(77 + 40.0/60), rep.LeftTurns[0].Lon, 1e-9)
}

func TestRun_SameBaseNameGetsDistinctOutputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "y"), 0o755))
	a := writeTrip(t, dir, filepath.Join("x", "trip.txt"), longTrip())
	b := writeTrip(t, dir, filepath.Join("y", "trip.txt"), shortTrip())
	cfg := testConfig(dir, a, b, a)
	cfg.Workers = 3

	rep, err := Run(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, c := range rep.Candidates {
		assert.False(t, seen[c.Output], "output %s reused", c.Output)
		seen[c.Output] = true
		_, err := os.Stat(c.Output)
		require.NoError(t, err)
	}
	assert.Equal(t, filepath.Join(dir, "kml", "trip_1.kml"), rep.Candidates[1].Output)
}

func TestRun_RejectsOutputOverBest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, writeTrip(t, dir, "a.txt", shortTrip()))
	cfg.Inputs[0].Output = cfg.BestOutput

	_, err := Run(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides with best_output")
}
