// Package compare joins the predictions of the two classifiers on the
// observation id and summarizes where, and how well, they resolve ties.
package compare

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/sjwhitworth/golearn/evaluation"
)

var ErrUnmatched = errors.New("predictions do not cover the test observations")

const (
	colID        = "id"
	colTruth     = "truth"
	colKNNLabel  = "knn_label"
	colKNNProb   = "knn_prob"
	colKNNTie    = "knn_tie"
	colKKNNLabel = "kknn_label"
	colKKNNProb  = "kknn_prob"
	colKKNNTie   = "kknn_tie"
	colAgree     = "agree"
)

type Row struct {
	ID        int     `json:"id" yaml:"id"`
	Truth     string  `json:"truth" yaml:"truth"`
	KNNLabel  string  `json:"knnLabel" yaml:"knnLabel"`
	KNNProb   float64 `json:"knnProb" yaml:"knnProb"`
	KNNTie    bool    `json:"knnTie" yaml:"knnTie"`
	KKNNLabel string  `json:"kknnLabel" yaml:"kknnLabel"`
	KKNNProb  float64 `json:"kknnProb" yaml:"kknnProb"`
	KKNNTie   bool    `json:"kknnTie" yaml:"kknnTie"`
	Agree     bool    `json:"agree" yaml:"agree"`
}

type Comparison struct {
	Rows []Row
	df   dataframe.DataFrame
}

// Join matches the unweighted and weighted predictions with the test
// observations. Every test id must appear exactly once on each side.
func Join(test []dataset.Observation, knn, kknn []classifier.Prediction) (*Comparison, error) {
	ids := make(map[int]struct{}, len(test))
	for _, o := range test {
		if _, ok := ids[o.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate test id %d", ErrUnmatched, o.ID)
		}
		ids[o.ID] = struct{}{}
	}
	if err := covers(ids, knn, "knn"); err != nil {
		return nil, err
	}
	if err := covers(ids, kknn, "kknn"); err != nil {
		return nil, err
	}

	truth := dataframe.New(
		series.New(testIDs(test), series.Int, colID),
		series.New(testLabels(test), series.String, colTruth),
	)
	df := truth.
		InnerJoin(predictionFrame(knn, colKNNLabel, colKNNProb, colKNNTie), colID).
		InnerJoin(predictionFrame(kknn, colKKNNLabel, colKKNNProb, colKKNNTie), colID)
	if df.Err != nil {
		return nil, fmt.Errorf("unable to join predictions: %w", df.Err)
	}
	if df.Nrow() != len(test) || len(knn) != len(test) || len(kknn) != len(test) {
		return nil, fmt.Errorf("%w: %d test rows, %d knn, %d kknn, %d joined",
			ErrUnmatched, len(test), len(knn), len(kknn), df.Nrow())
	}
	df = df.Arrange(dataframe.Sort(colID))

	joined, err := df.Col(colID).Int()
	if err != nil {
		return nil, fmt.Errorf("unable to read ids: %w", err)
	}
	knnTies, err := df.Col(colKNNTie).Bool()
	if err != nil {
		return nil, fmt.Errorf("unable to read knn ties: %w", err)
	}
	kknnTies, err := df.Col(colKKNNTie).Bool()
	if err != nil {
		return nil, fmt.Errorf("unable to read kknn ties: %w", err)
	}
	var (
		truths     = df.Col(colTruth).Records()
		knnLabels  = df.Col(colKNNLabel).Records()
		knnProbs   = df.Col(colKNNProb).Float()
		kknnLabels = df.Col(colKKNNLabel).Records()
		kknnProbs  = df.Col(colKKNNProb).Float()
		agree      = make([]bool, len(joined))
		rows       = make([]Row, len(joined))
	)
	for i := range joined {
		agree[i] = knnLabels[i] == kknnLabels[i]
		rows[i] = Row{
			ID:        joined[i],
			Truth:     truths[i],
			KNNLabel:  knnLabels[i],
			KNNProb:   knnProbs[i],
			KNNTie:    knnTies[i],
			KKNNLabel: kknnLabels[i],
			KKNNProb:  kknnProbs[i],
			KKNNTie:   kknnTies[i],
			Agree:     agree[i],
		}
	}
	df = df.Mutate(series.New(agree, series.Bool, colAgree))
	if df.Err != nil {
		return nil, fmt.Errorf("unable to add agreement column: %w", df.Err)
	}
	return &Comparison{Rows: rows, df: df}, nil
}

// covers checks that preds holds every id exactly once and nothing else.
func covers(ids map[int]struct{}, preds []classifier.Prediction, side string) error {
	seen := make(map[int]struct{}, len(preds))
	for _, p := range preds {
		if _, ok := ids[p.ID]; !ok {
			return fmt.Errorf("%w: %s predicts unknown id %d", ErrUnmatched, side, p.ID)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %s predicts id %d twice", ErrUnmatched, side, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if len(seen) != len(ids) {
		return fmt.Errorf("%w: %s covers %d of %d test ids", ErrUnmatched, side, len(seen), len(ids))
	}
	return nil
}

// WriteCSV writes the joined table, one row per test observation.
func (c *Comparison) WriteCSV(w io.Writer) error {
	return c.df.WriteCSV(w)
}

// Filter returns the rows accepted by fn.
func (c *Comparison) Filter(fn func(Row) bool) []Row {
	var rows []Row
	for _, r := range c.Rows {
		if fn(r) {
			rows = append(rows, r)
		}
	}
	return rows
}

type ModelSummary struct {
	Name     classifier.Type `json:"name" yaml:"name"`
	Accuracy float64         `json:"accuracy" yaml:"accuracy"`
	// Ties lists the ids whose top support was shared.
	Ties        []int `json:"ties" yaml:"ties"`
	TiesCorrect int   `json:"tiesCorrect" yaml:"tiesCorrect"`
	// Confusion counts predictions per reference label.
	Confusion evaluation.ConfusionMatrix `json:"confusion" yaml:"confusion"`
}

type Summary struct {
	Test          int          `json:"test" yaml:"test"`
	Agreements    int          `json:"agreements" yaml:"agreements"`
	Disagreements []int        `json:"disagreements" yaml:"disagreements"`
	KNN           ModelSummary `json:"knn" yaml:"knn"`
	KKNN          ModelSummary `json:"kknn" yaml:"kknn"`
	// KNNTiesKKNNCorrect counts unweighted ties the weighted model got right.
	KNNTiesKKNNCorrect int `json:"knnTiesKknnCorrect" yaml:"knnTiesKknnCorrect"`
}

func (c *Comparison) Summary(classes []string) Summary {
	s := Summary{
		Test: len(c.Rows),
		KNN:  ModelSummary{Name: classifier.TypeKNN, Confusion: emptyConfusion(classes)},
		KKNN: ModelSummary{Name: classifier.TypeKKNN, Confusion: emptyConfusion(classes)},
	}
	for _, r := range c.Rows {
		if r.Agree {
			s.Agreements++
		} else {
			s.Disagreements = append(s.Disagreements, r.ID)
		}
		count(s.KNN.Confusion, r.Truth, r.KNNLabel)
		count(s.KKNN.Confusion, r.Truth, r.KKNNLabel)
		if r.KNNTie {
			s.KNN.Ties = append(s.KNN.Ties, r.ID)
			if r.KNNLabel == r.Truth {
				s.KNN.TiesCorrect++
			}
			if r.KKNNLabel == r.Truth {
				s.KNNTiesKKNNCorrect++
			}
		}
		if r.KKNNTie {
			s.KKNN.Ties = append(s.KKNN.Ties, r.ID)
			if r.KKNNLabel == r.Truth {
				s.KKNN.TiesCorrect++
			}
		}
	}
	if s.Test > 0 {
		s.KNN.Accuracy = evaluation.GetAccuracy(s.KNN.Confusion)
		s.KKNN.Accuracy = evaluation.GetAccuracy(s.KKNN.Confusion)
	}
	return s
}

// Table renders a confusion matrix with golearn's summary layout.
func Table(c evaluation.ConfusionMatrix) string {
	return evaluation.GetSummary(c)
}

// Labels returns the labels of a confusion matrix in a stable order.
func Labels(c evaluation.ConfusionMatrix) []string {
	labels := make([]string, 0, len(c))
	for l := range c {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func emptyConfusion(classes []string) evaluation.ConfusionMatrix {
	c := make(evaluation.ConfusionMatrix, len(classes))
	for _, ref := range classes {
		c[ref] = make(map[string]int, len(classes))
		for _, pred := range classes {
			c[ref][pred] = 0
		}
	}
	return c
}

func count(c evaluation.ConfusionMatrix, ref, pred string) {
	if c[ref] == nil {
		c[ref] = map[string]int{}
	}
	c[ref][pred]++
}

func predictionFrame(preds []classifier.Prediction, label, prob, tie string) dataframe.DataFrame {
	var (
		ids    = make([]int, len(preds))
		labels = make([]string, len(preds))
		probs  = make([]float64, len(preds))
		ties   = make([]bool, len(preds))
	)
	for i, p := range preds {
		ids[i], labels[i], probs[i], ties[i] = p.ID, p.Label, p.Prob, p.Tie
	}
	return dataframe.New(
		series.New(ids, series.Int, colID),
		series.New(labels, series.String, label),
		series.New(probs, series.Float, prob),
		series.New(ties, series.Bool, tie),
	)
}

func testIDs(test []dataset.Observation) []int {
	ids := make([]int, len(test))
	for i := range test {
		ids[i] = test[i].ID
	}
	return ids
}

func testLabels(test []dataset.Observation) []string {
	labels := make([]string, len(test))
	for i := range test {
		labels[i] = test[i].Label
	}
	return labels
}
