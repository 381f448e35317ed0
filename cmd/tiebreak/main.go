package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-sod/tiebreak/internal/buildinfo"
	tiebreak "github.com/go-sod/tiebreak/internal/config"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/metrics"
	"github.com/go-sod/tiebreak/internal/report"
	runs "github.com/go-sod/tiebreak/internal/run"
	"github.com/go-sod/tiebreak/internal/setup"
	"github.com/go-sod/tiebreak/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stderr, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stderr,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		done()
		logger.Fatal(err)
	}

	done()
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := tiebreak.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(ctx); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	if err := metrics.Register(); err != nil {
		return fmt.Errorf("metrics.Register: %w", err)
	}
	res, err := report.Run(ctx, &config.Report, env.Models())
	if err != nil {
		return fmt.Errorf("report.Run: %w", err)
	}
	artifacts, err := report.Write(ctx, res, config.Report.OutputDir, config.Report.MaxPlots, config.Report.PlotConcurrency)
	if err != nil {
		return fmt.Errorf("report.Write: %w", err)
	}
	if err := report.Persist(ctx, runs.NewStore(env.Database()), res, config.Report.MaxRunsStored); err != nil {
		return fmt.Errorf("report.Persist: %w", err)
	}

	totals, err := metrics.Totals()
	if err != nil {
		return fmt.Errorf("metrics.Totals: %w", err)
	}
	logger.Infow("run metrics", "totals", totals)

	_, _ = fmt.Fprint(os.Stdout, res.Run.Report)
	_, _ = fmt.Fprintf(os.Stdout, "\nrun %s, artifacts in %s (%d tie plots)\n",
		res.Run.ID, config.Report.OutputDir, len(artifacts.Ties))
	return nil
}
