// Package report runs the tie study end to end and writes its artifacts.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/compare"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/metrics"
	"github.com/go-sod/tiebreak/internal/run"
	"github.com/go-sod/tiebreak/internal/selection"
	"golang.org/x/sync/errgroup"
)

var ErrNoProvider = errors.New("classifier provider is not configured")

// Models builds the two classifiers under study.
type Models struct {
	KNN  classifier.ProvideFn
	KKNN classifier.ProvideFn
}

// Result holds every intermediate product of one run.
type Result struct {
	Run run.Run
	// Raw is the dataset as loaded, Normalized has every attribute scaled and
	// Projected keeps the selected features only.
	Raw        *dataset.Dataset
	Normalized *dataset.Dataset
	Projected  *dataset.Dataset
	Scaler     *dataset.Scaler
	Model      *selection.Model
	Features   []string
	Partition  *dataset.Partition
	KNN        classifier.Classifier
	KKNN       classifier.Classifier
	KNNPreds   []classifier.Prediction
	KKNNPreds  []classifier.Prediction
	Comparison *compare.Comparison
	Summary    compare.Summary
}

// Snapshot captures the normalized dataset of the run for the store.
func (r *Result) Snapshot() run.Snapshot {
	return run.NewSnapshot(r.Normalized, r.Scaler, r.Features, r.Partition)
}

// Run loads the dataset, normalizes it, selects features by logistic
// regression, splits it, fits and evaluates both classifiers and compares
// them.
func Run(ctx context.Context, cfg *Config, models Models) (*Result, error) {
	logger := logging.FromContext(ctx)
	if models.KNN == nil || models.KKNN == nil {
		return nil, ErrNoProvider
	}

	raw, err := dataset.Load(cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("unable to load dataset: %w", err)
	}
	logger.Infow("dataset loaded", "path", cfg.Dataset, "observations", raw.Len(),
		"attributes", raw.Attributes, "classes", raw.ClassCounts())

	norm, scaler, err := dataset.Normalize(raw, cfg.Normalize)
	if err != nil {
		return nil, fmt.Errorf("unable to normalize dataset: %w", err)
	}
	logger.Infow("dataset normalized", "method", scaler.Method)

	model, err := selection.FitDataset(norm)
	if err != nil {
		return nil, fmt.Errorf("unable to fit logistic regression: %w", err)
	}
	features, err := model.Select(cfg.FeaturesNum)
	if err != nil {
		return nil, fmt.Errorf("unable to select features: %w", err)
	}
	logger.Infow("features selected", "features", features, "iterations", model.Iterations,
		"converged", model.Converged, "aic", model.AIC)

	projected, err := norm.Project(features...)
	if err != nil {
		return nil, fmt.Errorf("unable to project dataset: %w", err)
	}
	part, err := dataset.Split(projected, cfg.Seed, cfg.TrainFraction)
	if err != nil {
		return nil, fmt.Errorf("unable to split dataset: %w", err)
	}
	logger.Infow("dataset split", "seed", cfg.Seed, "train", len(part.Train), "test", len(part.Test))

	knnC, err := fit(models.KNN, raw.Classes, part.Train)
	if err != nil {
		return nil, err
	}
	kknnC, err := fit(models.KKNN, raw.Classes, part.Train)
	if err != nil {
		return nil, err
	}

	var (
		knnPreds, kknnPreds []classifier.Prediction
		grp                 errgroup.Group
	)
	grp.Go(func() error {
		preds, err := classifier.PredictAll(knnC, part.Test)
		knnPreds = preds
		return err
	})
	grp.Go(func() error {
		preds, err := classifier.PredictAll(kknnC, part.Test)
		kknnPreds = preds
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("unable to classify test observations: %w", err)
	}

	cmp, err := compare.Join(part.Test, knnPreds, kknnPreds)
	if err != nil {
		return nil, fmt.Errorf("unable to compare predictions: %w", err)
	}
	summary := cmp.Summary(raw.Classes)
	logger.Infow("models compared",
		"knnAccuracy", summary.KNN.Accuracy, "knnTies", len(summary.KNN.Ties),
		"kknnAccuracy", summary.KKNN.Accuracy, "kknnTies", len(summary.KKNN.Ties),
		"disagreements", len(summary.Disagreements))

	metrics.Record(ctx, string(classifier.TypeKNN),
		metrics.RunsCount.M(1),
		metrics.TiesCount.M(int64(len(summary.KNN.Ties))),
		metrics.Accuracy.M(summary.KNN.Accuracy))
	metrics.Record(ctx, string(classifier.TypeKKNN),
		metrics.TiesCount.M(int64(len(summary.KKNN.Ties))),
		metrics.Accuracy.M(summary.KKNN.Accuracy))

	res := &Result{
		Raw:        raw,
		Normalized: norm,
		Projected:  projected,
		Scaler:     scaler,
		Model:      model,
		Features:   features,
		Partition:  part,
		KNN:        knnC,
		KKNN:       kknnC,
		KNNPreds:   knnPreds,
		KKNNPreds:  kknnPreds,
		Comparison: cmp,
		Summary:    summary,
	}
	res.Run = newRun(cfg, res, time.Now().UTC())
	return res, nil
}

// Persist saves the run with its snapshot and prunes the store down to the
// configured number of runs.
func Persist(ctx context.Context, store *run.Store, res *Result, keep int) error {
	if err := store.Save(ctx, res.Run, res.Snapshot()); err != nil {
		return fmt.Errorf("unable to save run: %w", err)
	}
	removed, err := store.Prune(ctx, keep)
	if err != nil {
		return fmt.Errorf("unable to prune runs: %w", err)
	}
	logging.FromContext(ctx).Infow("run saved", "id", res.Run.ID, "pruned", removed)
	return nil
}

func fit(provide classifier.ProvideFn, classes []string, train []dataset.Observation) (classifier.Classifier, error) {
	c, err := provide(classes)
	if err != nil {
		return nil, fmt.Errorf("unable to create classifier: %w", err)
	}
	if err := c.Fit(train); err != nil {
		return nil, fmt.Errorf("%s: unable to fit: %w", c.Name(), err)
	}
	return c, nil
}

func newRun(cfg *Config, res *Result, at time.Time) run.Run {
	r := run.New(run.Params{
		Dataset:       cfg.Dataset,
		Seed:          cfg.Seed,
		TrainFraction: cfg.TrainFraction,
		Normalize:     string(res.Scaler.Method),
		KNNK:          cfg.KNN.K,
		UseAllTies:    cfg.KNN.UseAllTies,
		KKNNK:         cfg.KKNN.K,
		Kernel:        string(cfg.KKNN.Kernel),
		Distance:      cfg.KKNN.Distance,
	}, at)
	r.Features = append([]string(nil), res.Features...)
	r.TrainSize = len(res.Partition.Train)
	r.TestSize = len(res.Partition.Test)
	r.Summary = res.Summary
	r.Rows = res.Comparison.Rows
	r.Report = Markdown(res, r)
	return r
}
