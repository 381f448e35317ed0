package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/compare"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/plot"
	"github.com/go-sod/tiebreak/internal/run"
	"github.com/go-sod/tiebreak/internal/selection"
	"gopkg.in/yaml.v2"
)

const (
	comparisonFile = "comparison.csv"
	markdownFile   = "summary.md"
	yamlFile       = "summary.yaml"
	overviewFile   = "overview.png"
)

// Artifacts lists the files written for one run.
type Artifacts struct {
	Comparison string
	Markdown   string
	YAML       string
	Overview   string
	Ties       []string
}

type summaryDoc struct {
	Run    run.Run          `yaml:"run"`
	Terms  []selection.Term `yaml:"terms"`
	Scaler *dataset.Scaler  `yaml:"scaler"`
}

// Write creates dir if needed and writes the comparison table, the markdown
// and yaml summaries, the partition overview and up to maxPlots tie plots.
// Plots are only drawn for a selection of exactly two features.
func Write(ctx context.Context, res *Result, dir string, maxPlots, concurrency int) (*Artifacts, error) {
	logger := logging.FromContext(ctx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output dir: %w", err)
	}
	a := &Artifacts{
		Comparison: filepath.Join(dir, comparisonFile),
		Markdown:   filepath.Join(dir, markdownFile),
		YAML:       filepath.Join(dir, yamlFile),
	}

	f, err := os.Create(a.Comparison)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s: %w", a.Comparison, err)
	}
	if err := res.Comparison.WriteCSV(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unable to write %s: %w", a.Comparison, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("unable to close %s: %w", a.Comparison, err)
	}

	if err := os.WriteFile(a.Markdown, []byte(res.Run.Report), 0o644); err != nil {
		return nil, fmt.Errorf("unable to write %s: %w", a.Markdown, err)
	}

	doc, err := yaml.Marshal(summaryDoc{Run: res.Run, Terms: res.Model.Terms, Scaler: res.Scaler})
	if err != nil {
		return nil, fmt.Errorf("unable to encode yaml summary: %w", err)
	}
	if err := os.WriteFile(a.YAML, doc, 0o644); err != nil {
		return nil, fmt.Errorf("unable to write %s: %w", a.YAML, err)
	}

	if len(res.Features) != 2 {
		logger.Infow("plots skipped, the selection is not planar", "dir", dir, "features", res.Features)
		return a, nil
	}
	a.Overview = filepath.Join(dir, overviewFile)
	frame := plot.Frame{Features: res.Features, Classes: res.Raw.Classes, Train: res.Partition.Train}
	if err := plot.Overview(a.Overview, frame, res.Partition.Test); err != nil {
		return nil, err
	}
	a.Ties, err = plot.DrawAll(ctx, dir, frame, ties(res), maxPlots, concurrency)
	if err != nil {
		return nil, fmt.Errorf("unable to draw tie plots: %w", err)
	}
	logger.Infow("artifacts written", "dir", dir, "tiePlots", len(a.Ties))
	return a, nil
}

func ties(res *Result) []plot.Tie {
	var (
		test = make(map[int]dataset.Observation, len(res.Partition.Test))
		knn  = predictionsByID(res.KNNPreds)
		kknn = predictionsByID(res.KKNNPreds)
		out  []plot.Tie
	)
	for _, o := range res.Partition.Test {
		test[o.ID] = o
	}
	for _, id := range res.Run.Ties() {
		out = append(out, plot.Tie{Query: test[id], KNN: knn[id], KKNN: kknn[id]})
	}
	return out
}

func predictionsByID(preds []classifier.Prediction) map[int]classifier.Prediction {
	m := make(map[int]classifier.Prediction, len(preds))
	for _, p := range preds {
		m[p.ID] = p
	}
	return m
}

// Markdown renders the human readable summary of a run.
func Markdown(res *Result, r run.Run) string {
	var b strings.Builder
	s := res.Summary

	fmt.Fprintf(&b, "# Tie study %s\n\n", r.ID)
	fmt.Fprintf(&b, "- dataset: `%s` (%s), %d observations\n", r.Params.Dataset, res.Raw.Relation, res.Raw.Len())
	fmt.Fprintf(&b, "- created: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- normalization: %s\n", r.Params.Normalize)
	fmt.Fprintf(&b, "- split: seed %d, train fraction %.2f, %d train / %d test\n\n",
		r.Params.Seed, r.Params.TrainFraction, len(res.Partition.Train), len(res.Partition.Test))

	b.WriteString("## Feature selection\n\n")
	b.WriteString("| term | estimate | std. error | z | p |\n|---|---:|---:|---:|---:|\n")
	for _, t := range res.Model.Terms {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", t.Name, num(t.Estimate), num(t.StdErr), num(t.Z), num(t.P))
	}
	fmt.Fprintf(&b, "\nSelected: %s. Residual deviance %.3f on null %.3f, AIC %.3f, %d iterations.\n\n",
		strings.Join(res.Features, ", "), res.Model.Deviance, res.Model.NullDeviance, res.Model.AIC, res.Model.Iterations)

	b.WriteString("## Models\n\n")
	fmt.Fprintf(&b, "- knn: k=%d, use all ties %t\n", r.Params.KNNK, r.Params.UseAllTies)
	fmt.Fprintf(&b, "- kknn: k=%d, kernel %s, Minkowski p=%g\n\n", r.Params.KKNNK, r.Params.Kernel, r.Params.Distance)
	b.WriteString("| model | accuracy | ties | ties correct |\n|---|---:|---:|---:|\n")
	for _, m := range []compare.ModelSummary{s.KNN, s.KKNN} {
		fmt.Fprintf(&b, "| %s | %.4f | %d | %d |\n", m.Name, m.Accuracy, len(m.Ties), m.TiesCorrect)
	}
	fmt.Fprintf(&b, "\nThe models agree on %d of %d test observations. ", s.Agreements, s.Test)
	fmt.Fprintf(&b, "Of the %d unweighted ties, the weighted model classifies %d correctly.\n\n",
		len(s.KNN.Ties), s.KNNTiesKKNNCorrect)

	for _, m := range []compare.ModelSummary{s.KNN, s.KKNN} {
		fmt.Fprintf(&b, "### %s confusion\n\n```\n%s\n```\n\n", m.Name, strings.TrimRight(compare.Table(m.Confusion), "\n"))
	}

	b.WriteString("## Tied observations\n\n")
	tied := res.Comparison.Filter(func(row compare.Row) bool { return row.KNNTie || row.KKNNTie })
	if len(tied) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}
	b.WriteString("| id | truth | knn | knn prob | knn tie | kknn | kknn prob | kknn tie |\n")
	b.WriteString("|---:|---|---|---:|---|---|---:|---|\n")
	for _, row := range tied {
		fmt.Fprintf(&b, "| %d | %s | %s | %.3f | %t | %s | %.3f | %t |\n",
			row.ID, row.Truth, row.KNNLabel, row.KNNProb, row.KNNTie, row.KKNNLabel, row.KKNNProb, row.KKNNTie)
	}
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4g", v)
}
