package knn

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
)

func obs(id int, label string, values ...float64) dataset.Observation {
	return dataset.Observation{ID: id, Values: values, Label: label}
}

var train = []dataset.Observation{
	obs(1, "Abnormal", 0, 0),
	obs(2, "Normal", 1, 0),
	obs(3, "Abnormal", 0, 1),
	obs(4, "Normal", 5, 5),
	obs(5, "Normal", 5, 6),
	obs(6, "Normal", 6, 5),
}

func TestKNN_Predict(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		query      dataset.Observation
		expected   string
		prob       float64
		tie        bool
		candidates []string
		voters     int
	}{
		{
			name:     "majority",
			opts:     []Option{WithK(3)},
			query:    obs(10, "", 5.2, 5.2),
			expected: "Normal",
			prob:     1,
			voters:   3,
		},
		{
			name:     "two_to_one",
			opts:     []Option{WithK(3)},
			query:    obs(11, "", 0.1, 0.1),
			expected: "Abnormal",
			prob:     2.0 / 3.0,
			voters:   3,
		},
		{
			name:       "tie_k2",
			opts:       []Option{WithK(2), WithClasses([]string{"Abnormal", "Normal"})},
			query:      obs(12, "", 0.4, 0),
			prob:       0.5,
			tie:        true,
			candidates: []string{"Abnormal", "Normal"},
			voters:     2,
		},
		{
			name:     "all_ties_breaks_the_split",
			opts:     []Option{WithK(2), WithUseAllTies(true)},
			query:    obs(13, "", 0.5, 0.5),
			expected: "Abnormal",
			prob:     2.0 / 3.0,
			voters:   3,
		},
		{
			name:       "without_all_ties_the_split_stays",
			opts:       []Option{WithK(2), WithUseAllTies(false), WithClasses([]string{"Abnormal", "Normal"})},
			query:      obs(14, "", 0.5, 0.5),
			prob:       0.5,
			tie:        true,
			candidates: []string{"Abnormal", "Normal"},
			voters:     2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := New(test.opts...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := c.Fit(train); err != nil {
				t.Fatalf("unexpected fit error: %v", err)
			}
			p, err := c.Predict(test.query)
			if err != nil {
				t.Fatalf("unexpected predict error: %v", err)
			}
			if p.ID != test.query.ID {
				t.Errorf("prediction id got: %d, expected: %d", p.ID, test.query.ID)
			}
			if test.expected != "" && p.Label != test.expected {
				t.Errorf("label got: %s, expected: %s", p.Label, test.expected)
			}
			if math.Abs(p.Prob-test.prob) > 1e-12 {
				t.Errorf("prob got: %v, expected: %v", p.Prob, test.prob)
			}
			if p.Tie != test.tie {
				t.Errorf("tie got: %v, expected: %v", p.Tie, test.tie)
			}
			if !reflect.DeepEqual(p.Candidates, test.candidates) {
				t.Errorf("candidates got: %v, expected: %v", p.Candidates, test.candidates)
			}
			if p.Tie && p.Label != "Abnormal" && p.Label != "Normal" {
				t.Errorf("tied label %q is not a candidate", p.Label)
			}
			if len(p.Neighbors) != test.voters {
				t.Errorf("voters got: %d, expected: %d", len(p.Neighbors), test.voters)
			}
		})
	}
}

func TestKNN_CoinFlipIsSeeded(t *testing.T) {
	query := obs(20, "", 0.4, 0)
	draw := func(seed int64) []string {
		c, _ := New(WithK(2), WithSeed(seed))
		_ = c.Fit(train)
		var labels []string
		for i := 0; i < 64; i++ {
			p, err := c.Predict(query)
			if err != nil {
				t.Fatalf("unexpected predict error: %v", err)
			}
			labels = append(labels, p.Label)
		}
		return labels
	}

	a, b := draw(99), draw(99)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("the same seed must resolve ties identically")
	}
	seen := map[string]int{}
	for _, l := range a {
		seen[l]++
	}
	if seen["Abnormal"] == 0 || seen["Normal"] == 0 {
		t.Errorf("coin flip must reach both labels over 64 draws, got %v", seen)
	}
}

func TestKNN_Errors(t *testing.T) {
	if _, err := New(WithK(0)); !errors.Is(err, classifier.ErrInvalidK) {
		t.Errorf("new with k=0 got: %v, expected: %v", err, classifier.ErrInvalidK)
	}

	c, _ := New()
	if _, err := c.Predict(obs(1, "", 0, 0)); !errors.Is(err, classifier.ErrNotFitted) {
		t.Errorf("predict before fit got: %v, expected: %v", err, classifier.ErrNotFitted)
	}
	if err := c.Fit(nil); !errors.Is(err, classifier.ErrEmptyTrain) {
		t.Errorf("fit on nothing got: %v, expected: %v", err, classifier.ErrEmptyTrain)
	}
	_ = c.Fit(train)
	if _, err := c.Predict(obs(1, "", 0)); !errors.Is(err, geom.ErrDimNotEqual) {
		t.Errorf("predict with a wrong dimension got: %v, expected: %v", err, geom.ErrDimNotEqual)
	}
	if c.Name() != classifier.TypeKNN {
		t.Errorf("name got: %s", c.Name())
	}
}

func TestPredictAll(t *testing.T) {
	c, _ := New(WithK(1))
	_ = c.Fit(train)
	preds, err := classifier.PredictAll(c, []dataset.Observation{obs(7, "", 0, 0.1), obs(8, "", 6, 6)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preds[0].Label != "Abnormal" || preds[1].Label != "Normal" {
		t.Errorf("labels got: %s, %s", preds[0].Label, preds[1].Label)
	}
}
