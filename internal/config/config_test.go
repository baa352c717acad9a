package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "inputs:\n  - path: trips/a.txt\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Inputs) != 1 || cfg.Inputs[0].Path != "trips/a.txt" {
		t.Fatalf("inputs=%+v", cfg.Inputs)
	}
	if cfg.BestOutput != "best_output_file.kml" {
		t.Fatalf("best_output=%q", cfg.BestOutput)
	}
	if cfg.Workers != 1 {
		t.Fatalf("workers=%d want 1", cfg.Workers)
	}

	opts := cfg.ReaderOptions()
	if opts.HeaderLines != 5 || opts.Tag != "$GPRMC" || opts.VerifyChecksum {
		t.Fatalf("reader options=%+v", opts)
	}
	sp := cfg.StopParams()
	if sp.Window != 7 || sp.MinElapsedMin != 0.0005 || sp.MaxSpeedMPH != 0.0005 || sp.MergeMiles != 0.05 {
		t.Fatalf("stop params=%+v", sp)
	}
	cm := cfg.CostModel()
	if cm.TimeRefMin != 30 || cm.SpeedRefMPH != 60 || cm.SpeedWeight != 0.5 {
		t.Fatalf("cost model=%+v", cm)
	}
	if cfg.Render.Format != "kml" || *cfg.Render.Altitude != 300 {
		t.Fatalf("render=%q/%v", cfg.Render.Format, *cfg.Render.Altitude)
	}
}

func TestLoad_ExplicitZerosKept(t *testing.T) {
	path := writeTempConfig(t, "log:\n  header_lines: 0\ncost:\n  speed_weight: 0\nrender:\n  altitude: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *cfg.Log.HeaderLines != 0 {
		t.Fatalf("header_lines=%d want 0", *cfg.Log.HeaderLines)
	}
	if cfg.CostModel().SpeedWeight != 0 {
		t.Fatalf("speed_weight=%v want 0", cfg.CostModel().SpeedWeight)
	}
	if *cfg.Render.Altitude != 0 {
		t.Fatalf("altitude=%v want 0", *cfg.Render.Altitude)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "EmptyInputPath",
			body: "inputs:\n  - output: x.kml\n",
			want: "inputs[0].path is required",
		},
		{
			name: "NegativeHeader",
			body: "log:\n  header_lines: -1\n",
			want: "log.header_lines must be >= 0",
		},
		{
			name: "NegativeWindow",
			body: "detect:\n  stop:\n    window: -2\n",
			want: "detect.stop.window must be > 0",
		},
		{
			name: "NegativeMaxSpeed",
			body: "detect:\n  stop:\n    max_speed_mph: -0.1\n",
			want: "detect.stop.max_speed_mph must be >= 0",
		},
		{
			name: "ExplicitOutputsCollide",
			body: "inputs:\n  - path: a.txt\n    output: out/x.kml\n  - path: b.txt\n    output: out/./x.kml\n",
			want: `inputs[1] output "out/x.kml" collides with inputs[0]`,
		},
		{
			name: "OutputIsBestOutput",
			body: "best_output: trip.kml\ninputs:\n  - path: logs/trip.txt\n",
			want: `inputs[0] output "trip.kml" collides with best_output`,
		},
		{
			name: "NegativeTimeRef",
			body: "cost:\n  time_ref_min: -30\n",
			want: "cost.time_ref_min must be > 0",
		},
		{
			name: "RenderFormat",
			body: "render:\n  format: svg\n",
			want: "render.format must be 'kml' or 'geojson'",
		},
		{
			name: "ReportFormat",
			body: "report:\n  path: out/report.csv\n",
			want: "report.format must be one of json, yaml, msgpack",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.body))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_ReportFormatFromExtension(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "report:\n  path: out/report.MSGPACK\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Report.Format != "msgpack" {
		t.Fatalf("report.format=%q want msgpack", cfg.Report.Format)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"TRIPSCAN_OUTPUT_DIR":  "/tmp/kml",
		"TRIPSCAN_WORKERS":     "4",
		"TRIPSCAN_REPORT_PATH": "r.yaml",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}
	if cfg.OutputDir != "/tmp/kml" || cfg.Workers != 4 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Report.Path != "r.yaml" || cfg.Report.Format != "yaml" {
		t.Fatalf("report=%+v", cfg.Report)
	}

	err = cfg.ApplyEnv(envMap(map[string]string{"TRIPSCAN_WORKERS": "zero"}))
	requireErrEq(t, err, "TRIPSCAN_WORKERS must be a positive integer")
}

func TestOutputPath(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "KMLFiles_Task1"
	cfg.Inputs = []InputConfig{
		{Path: "InputFiles/ZI8G_ERF_2018_08_16_1428.txt"},
		{Path: "InputFiles/b.txt", Output: "custom/b.kml"},
	}
	if got, want := cfg.OutputPath(0, ".kml"), filepath.Join("KMLFiles_Task1", "ZI8G_ERF_2018_08_16_1428.kml"); got != want {
		t.Fatalf("OutputPath(0)=%q want %q", got, want)
	}
	if got := cfg.OutputPath(1, ".kml"); got != "custom/b.kml" {
		t.Fatalf("OutputPath(1)=%q", got)
	}
}

func TestValidate_ZeroWindow(t *testing.T) {
	cfg := Default()
	cfg.Detect.Stop.Window = 0
	requireErrEq(t, cfg.Validate(), "detect.stop.window must be > 0")
}

func TestOutputPath_SharedBaseName(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "kml"
	cfg.Inputs = []InputConfig{
		{Path: "x/trip.txt"},
		{Path: "y/trip.txt"},
		{Path: "y/other.txt"},
		{Path: "x/trip.txt"},
	}
	want := []string{
		filepath.Join("kml", "trip_0.kml"),
		filepath.Join("kml", "trip_1.kml"),
		filepath.Join("kml", "other.kml"),
		filepath.Join("kml", "trip_3.kml"),
	}
	for i, w := range want {
		if got := cfg.OutputPath(i, ".kml"); got != w {
			t.Fatalf("OutputPath(%d)=%q want %q", i, got, w)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}
