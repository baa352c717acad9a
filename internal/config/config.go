package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tripscan/internal/events"
	"tripscan/internal/gps"
	"tripscan/internal/nmealog"
	"tripscan/internal/render"
	"tripscan/internal/track"
)

type Config struct {
	Inputs     []InputConfig `yaml:"inputs"`
	OutputDir  string        `yaml:"output_dir"`
	BestOutput string        `yaml:"best_output"`
	Workers    int           `yaml:"workers"`
	Log        LogConfig     `yaml:"log"`
	Detect     DetectConfig  `yaml:"detect"`
	Cost       CostConfig    `yaml:"cost"`
	Render     RenderConfig  `yaml:"render"`
	Report     ReportConfig  `yaml:"report"`
}

type InputConfig struct {
	Path string `yaml:"path"`
	// Output overrides the rendered path location for this input.
	Output string `yaml:"output"`
}

type LogConfig struct {
	HeaderLines    *int   `yaml:"header_lines"`
	Sentence       string `yaml:"sentence"`
	VerifyChecksum bool   `yaml:"verify_checksum"`
}

type DetectConfig struct {
	Stop StopConfig `yaml:"stop"`
}

type StopConfig struct {
	Window        int     `yaml:"window"`
	MinElapsedMin float64 `yaml:"min_elapsed_min"`
	MaxSpeedMPH   float64 `yaml:"max_speed_mph"`
	MergeMiles    float64 `yaml:"merge_miles"`
}

type CostConfig struct {
	TimeRefMin  float64  `yaml:"time_ref_min"`
	SpeedRefMPH float64  `yaml:"speed_ref_mph"`
	SpeedWeight *float64 `yaml:"speed_weight"`
}

type RenderConfig struct {
	Format   string   `yaml:"format"`
	Altitude *float64 `yaml:"altitude"`
}

type ReportConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Default returns a config with every default applied and no inputs.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.BestOutput == "" {
		cfg.BestOutput = "best_output_file.kml"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.Log.HeaderLines == nil {
		n := 5
		cfg.Log.HeaderLines = &n
	}
	if cfg.Log.Sentence == "" {
		cfg.Log.Sentence = gps.DefaultSentenceTag
	}

	stop := events.DefaultStopParams()
	if cfg.Detect.Stop.Window == 0 {
		cfg.Detect.Stop.Window = stop.Window
	}
	if cfg.Detect.Stop.MinElapsedMin == 0 {
		cfg.Detect.Stop.MinElapsedMin = stop.MinElapsedMin
	}
	if cfg.Detect.Stop.MaxSpeedMPH == 0 {
		cfg.Detect.Stop.MaxSpeedMPH = stop.MaxSpeedMPH
	}
	if cfg.Detect.Stop.MergeMiles == 0 {
		cfg.Detect.Stop.MergeMiles = stop.MergeMiles
	}

	cost := track.DefaultCostModel()
	if cfg.Cost.TimeRefMin == 0 {
		cfg.Cost.TimeRefMin = cost.TimeRefMin
	}
	if cfg.Cost.SpeedRefMPH == 0 {
		cfg.Cost.SpeedRefMPH = cost.SpeedRefMPH
	}
	if cfg.Cost.SpeedWeight == nil {
		w := cost.SpeedWeight
		cfg.Cost.SpeedWeight = &w
	}

	if cfg.Render.Format == "" {
		cfg.Render.Format = render.FormatKML
	}
	cfg.Render.Format = strings.ToLower(strings.TrimSpace(cfg.Render.Format))
	if cfg.Render.Altitude == nil {
		alt := 300.0
		cfg.Render.Altitude = &alt
	}

	if cfg.Report.Path != "" && cfg.Report.Format == "" {
		cfg.Report.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(cfg.Report.Path)), ".")
	}
	cfg.Report.Format = strings.ToLower(strings.TrimSpace(cfg.Report.Format))
}

// Validate reports the first invalid setting. Inputs are not required here
// because the CLI may supply them after loading.
func (cfg Config) Validate() error {
	for i, in := range cfg.Inputs {
		if strings.TrimSpace(in.Path) == "" {
			return fmt.Errorf("inputs[%d].path is required", i)
		}
	}
	if *cfg.Log.HeaderLines < 0 {
		return fmt.Errorf("log.header_lines must be >= 0")
	}
	// Zero values were replaced by defaults, so only explicit bad values land here.
	if cfg.Detect.Stop.Window < 1 {
		return fmt.Errorf("detect.stop.window must be > 0")
	}
	if cfg.Detect.Stop.MinElapsedMin < 0 {
		return fmt.Errorf("detect.stop.min_elapsed_min must be >= 0")
	}
	if cfg.Detect.Stop.MaxSpeedMPH < 0 {
		return fmt.Errorf("detect.stop.max_speed_mph must be >= 0")
	}
	if cfg.Detect.Stop.MergeMiles < 0 {
		return fmt.Errorf("detect.stop.merge_miles must be >= 0")
	}
	if cfg.Cost.TimeRefMin <= 0 {
		return fmt.Errorf("cost.time_ref_min must be > 0")
	}
	if cfg.Cost.SpeedRefMPH <= 0 {
		return fmt.Errorf("cost.speed_ref_mph must be > 0")
	}
	if *cfg.Cost.SpeedWeight < 0 {
		return fmt.Errorf("cost.speed_weight must be >= 0")
	}
	switch cfg.Render.Format {
	case render.FormatKML, render.FormatGeoJSON:
	default:
		return fmt.Errorf("render.format must be 'kml' or 'geojson'")
	}
	if err := cfg.validateOutputs(); err != nil {
		return err
	}
	if cfg.Report.Path != "" {
		switch cfg.Report.Format {
		case "json", "yaml", "yml", "msgpack":
		default:
			return fmt.Errorf("report.format must be one of json, yaml, msgpack")
		}
	}
	return nil
}

// ApplyEnv overrides settings from TRIPSCAN_* environment variables.
// lookup is usually os.LookupEnv.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TRIPSCAN_OUTPUT_DIR"); ok && v != "" {
		cfg.OutputDir = v
	}
	if v, ok := lookup("TRIPSCAN_BEST_OUTPUT"); ok && v != "" {
		cfg.BestOutput = v
	}
	if v, ok := lookup("TRIPSCAN_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("TRIPSCAN_WORKERS must be a positive integer")
		}
		cfg.Workers = n
	}
	if v, ok := lookup("TRIPSCAN_REPORT_PATH"); ok && v != "" {
		cfg.Report.Path = v
		cfg.Report.Format = ""
		applyDefaults(cfg)
	}
	return cfg.Validate()
}

// ReaderOptions returns the log reader settings.
func (cfg Config) ReaderOptions() nmealog.Options {
	return nmealog.Options{
		HeaderLines:    *cfg.Log.HeaderLines,
		Tag:            cfg.Log.Sentence,
		VerifyChecksum: cfg.Log.VerifyChecksum,
	}
}

func (cfg Config) StopParams() events.StopParams {
	return events.StopParams{
		Window:        cfg.Detect.Stop.Window,
		MinElapsedMin: cfg.Detect.Stop.MinElapsedMin,
		MaxSpeedMPH:   cfg.Detect.Stop.MaxSpeedMPH,
		MergeMiles:    cfg.Detect.Stop.MergeMiles,
	}
}

func (cfg Config) CostModel() track.CostModel {
	return track.CostModel{
		TimeRefMin:  cfg.Cost.TimeRefMin,
		SpeedRefMPH: cfg.Cost.SpeedRefMPH,
		SpeedWeight: *cfg.Cost.SpeedWeight,
	}
}

// OutputPath is where input i's rendered path goes: the explicit output if
// set, otherwise <output_dir>/<input base name><ext>. When another input
// shares the base name, the index is appended (trip_1.kml).
func (cfg Config) OutputPath(i int, ext string) string {
	in := cfg.Inputs[i]
	if in.Output != "" {
		return in.Output
	}
	base := stem(in.Path)
	for j, other := range cfg.Inputs {
		if j != i && other.Output == "" && stem(other.Path) == base {
			base = fmt.Sprintf("%s_%d", base, i)
			break
		}
	}
	return filepath.Join(cfg.OutputDir, base+ext)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// validateOutputs rejects inputs that would render over each other or over
// the best output.
func (cfg Config) validateOutputs() error {
	rnd, err := render.New(cfg.Render.Format, 0)
	if err != nil {
		return err
	}
	best := filepath.Clean(cfg.BestOutput)
	seen := make(map[string]int, len(cfg.Inputs))
	for i := range cfg.Inputs {
		out := filepath.Clean(cfg.OutputPath(i, rnd.Ext()))
		if out == best {
			return fmt.Errorf("inputs[%d] output %q collides with best_output", i, out)
		}
		if j, ok := seen[out]; ok {
			return fmt.Errorf("inputs[%d] output %q collides with inputs[%d]", i, out, j)
		}
		seen[out] = i
	}
	return nil
}
