// Package pipeline runs a full analysis: every configured log is rendered and
// scored, the cheapest trip is picked, and its stops and left turns are
// detected and rendered.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"tripscan/internal/config"
	"tripscan/internal/events"
	"tripscan/internal/nmealog"
	"tripscan/internal/render"
	"tripscan/internal/report"
	"tripscan/internal/track"
)

// Run analyzes cfg.Inputs. Any candidate that fails (unreadable, or with no
// usable fixes) fails the whole run. A nil logger means log.Default().
func Run(ctx context.Context, cfg config.Config, logger *log.Logger) (*report.Report, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rnd, err := render.New(cfg.Render.Format, *cfg.Render.Altitude)
	if err != nil {
		return nil, err
	}

	cands, err := evaluateAll(ctx, cfg, rnd, logger)
	if err != nil {
		return nil, err
	}
	best, err := track.SelectBest(cands)
	if err != nil {
		return nil, err
	}
	logger.Printf("best trip %s cost=%.4f", best.Name, best.Cost)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The winner is read again so the annotated output comes from the
	// full-record dedup rather than the coordinate-only candidate path.
	lg, err := nmealog.ReadFile(best.Name, cfg.ReaderOptions())
	if err != nil {
		return nil, err
	}
	fixes, _ := track.FixesFromRows(lg.Rows)
	fixes = track.UniqueFixes(fixes)

	stops := events.DetectStops(fixes, cfg.StopParams())
	turns := events.DetectLeftTurns(fixes)
	logger.Printf("best trip: stops=%d left_turns=%d", len(stops), len(turns))

	if err := ensureDir(cfg.BestOutput); err != nil {
		return nil, err
	}
	if err := rnd.Render(cfg.BestOutput, track.Positions(fixes), stops, turns); err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.BestOutput, err)
	}

	return report.New(cands, best, cfg.BestOutput, stops, turns), nil
}

// evaluateAll scores every input with at most cfg.Workers in flight. Results
// keep input order so ties resolve to the earliest input.
func evaluateAll(ctx context.Context, cfg config.Config, rnd render.Renderer, logger *log.Logger) ([]track.Candidate, error) {
	if len(cfg.Inputs) == 0 {
		return nil, track.ErrNoCandidates
	}
	cands := make([]track.Candidate, len(cfg.Inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range cfg.Inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := evaluate(cfg, i, rnd, logger)
			if err != nil {
				return err
			}
			cands[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cands, nil
}

func evaluate(cfg config.Config, i int, rnd render.Renderer, logger *log.Logger) (track.Candidate, error) {
	name := cfg.Inputs[i].Path
	lg, err := nmealog.ReadFile(name, cfg.ReaderOptions())
	if err != nil {
		return track.Candidate{}, err
	}
	for _, re := range lg.Rejected {
		logger.Printf("%s: rejected row: %v", name, re)
	}

	path, _ := track.PathFromRows(lg.Rows)
	path = track.UniquePositions(path)
	out := cfg.OutputPath(i, rnd.Ext())
	if err := ensureDir(out); err != nil {
		return track.Candidate{}, err
	}
	if err := rnd.Render(out, path, nil, nil); err != nil {
		return track.Candidate{}, fmt.Errorf("render %s: %w", out, err)
	}

	fixes, rejected := track.FixesFromRows(lg.Rows)
	for _, err := range rejected {
		logger.Printf("%s: dropped fix: %v", name, err)
	}
	fixes = track.UniqueFixes(fixes)

	cost, err := cfg.CostModel().Evaluate(fixes)
	if err != nil {
		return track.Candidate{}, fmt.Errorf("%s: %w", name, err)
	}
	logger.Printf("%s: fixes=%d cost=%.4f -> %s", name, len(fixes), cost, out)

	return track.Candidate{
		Name:      name,
		Cost:      cost,
		Output:    out,
		Fixes:     len(fixes),
		Positions: len(path),
		Rejected:  len(lg.Rejected) + len(rejected),
	}, nil
}

func ensureDir(file string) error {
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
