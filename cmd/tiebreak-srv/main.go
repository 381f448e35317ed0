package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-sod/tiebreak/internal/buildinfo"
	tiebreak "github.com/go-sod/tiebreak/internal/config"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/metrics"
	"github.com/go-sod/tiebreak/internal/predict"
	"github.com/go-sod/tiebreak/internal/report"
	runs "github.com/go-sod/tiebreak/internal/run"
	"github.com/go-sod/tiebreak/internal/server"
	"github.com/go-sod/tiebreak/internal/setup"
	"github.com/go-sod/tiebreak/internal/shutdown"
	"github.com/go-sod/tiebreak/internal/srvenv"
)

const reloadSettle = 500 * time.Millisecond

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		done()
		logger.Fatal(err)
	}

	done()
}

func run(ctx context.Context, cancel func()) error {
	logger := logging.FromContext(ctx)
	config := tiebreak.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	metricsHandler, err := metrics.Handler()
	if err != nil {
		return fmt.Errorf("metrics.Handler: %w", err)
	}

	var (
		holder = &predict.Holder{}
		store  = runs.NewStore(env.Database())
	)
	refresh := refreshFn(&config, env, store, holder)
	if err := refresh(ctx); err != nil {
		return fmt.Errorf("initial run: %w", err)
	}

	go func() {
		if err := server.WatchFile(ctx, config.Report.Dataset, reloadSettle, refresh); err != nil {
			logger.Errorf("server.WatchFile: %v", err)
		}
	}()

	predictHandler, err := predict.NewHandler(&config.Predict, holder)
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}
	router, err := server.NewRouter(ctx, &config.Server, server.Handlers{
		Predict: predictHandler,
		Metrics: metricsHandler,
		Runs:    store,
		Models:  holder,
	})
	if err != nil {
		return fmt.Errorf("server.NewRouter: %w", err)
	}

	srv, err := server.New(config.Server.Addr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	logger.Infof("listening on %s", srv.Addr())
	if err := srv.ServeHTTPHandler(ctx, router); err != nil {
		cancel()
		return fmt.Errorf("server.ServeHTTPHandler: %w", err)
	}
	return nil
}

// refreshFn reruns the pipeline, stores the run and swaps the served models.
func refreshFn(config *tiebreak.Config, env *srvenv.SrvEnv, store *runs.Store, holder *predict.Holder) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := report.Run(ctx, &config.Report, env.Models())
		if err != nil {
			return fmt.Errorf("report.Run: %w", err)
		}
		if _, err := report.Write(ctx, res, config.Report.OutputDir, config.Report.MaxPlots, config.Report.PlotConcurrency); err != nil {
			return fmt.Errorf("report.Write: %w", err)
		}
		if err := report.Persist(ctx, store, res, config.Report.MaxRunsStored); err != nil {
			return fmt.Errorf("report.Persist: %w", err)
		}
		models, err := predict.NewModels(res.Run.ID, res.Scaler, res.Features, res.KNN, res.KKNN)
		if err != nil {
			return fmt.Errorf("predict.NewModels: %w", err)
		}
		holder.Swap(models)
		logging.FromContext(ctx).Infof("serving models of run %s", res.Run.ID)
		return nil
	}
}
