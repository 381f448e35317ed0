package compare

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
)

func fixture() ([]dataset.Observation, []classifier.Prediction, []classifier.Prediction) {
	test := []dataset.Observation{
		{ID: 7, Label: "Abnormal"},
		{ID: 3, Label: "Normal"},
		{ID: 12, Label: "Abnormal"},
		{ID: 20, Label: "Normal"},
	}
	knn := []classifier.Prediction{
		{ID: 3, Label: "Normal", Prob: 1},
		{ID: 7, Label: "Normal", Prob: 0.5, Tie: true},
		{ID: 12, Label: "Abnormal", Prob: 0.5, Tie: true},
		{ID: 20, Label: "Abnormal", Prob: 1},
	}
	kknn := []classifier.Prediction{
		{ID: 20, Label: "Abnormal", Prob: 0.8},
		{ID: 12, Label: "Abnormal", Prob: 0.75},
		{ID: 7, Label: "Abnormal", Prob: 0.75},
		{ID: 3, Label: "Normal", Prob: 0.9},
	}
	return test, knn, kknn
}

func TestJoin(t *testing.T) {
	test, knn, kknn := fixture()
	c, err := Join(test, knn, kknn)
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if len(c.Rows) != 4 {
		t.Fatalf("rows got: %d, expected: 4", len(c.Rows))
	}
	var gotIDs []int
	for _, r := range c.Rows {
		gotIDs = append(gotIDs, r.ID)
	}
	if !reflect.DeepEqual(gotIDs, []int{3, 7, 12, 20}) {
		t.Errorf("rows must be ordered by id, got %v", gotIDs)
	}
	expected := Row{
		ID: 7, Truth: "Abnormal",
		KNNLabel: "Normal", KNNProb: 0.5, KNNTie: true,
		KKNNLabel: "Abnormal", KKNNProb: 0.75,
	}
	if !reflect.DeepEqual(c.Rows[1], expected) {
		t.Errorf("row for id 7 got: %s expected: %s", spew.Sdump(c.Rows[1]), spew.Sdump(expected))
	}

	disagree := c.Filter(func(r Row) bool { return !r.Agree })
	if len(disagree) != 1 || disagree[0].ID != 7 {
		t.Errorf("disagreements got: %v", disagree)
	}

	var buf bytes.Buffer
	if err := c.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected csv error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Errorf("csv lines got: %d, expected: 5\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "id,truth,knn_label,knn_prob,knn_tie,kknn_label") || !strings.HasSuffix(lines[0], "agree") {
		t.Errorf("csv header got: %s", lines[0])
	}
}

func TestJoin_Unmatched(t *testing.T) {
	test, knn, kknn := fixture()
	tests := []struct {
		name string
		knn  []classifier.Prediction
		kknn []classifier.Prediction
	}{
		{name: "missing_knn", knn: knn[1:], kknn: kknn},
		{name: "missing_kknn", knn: knn, kknn: kknn[:3]},
		{name: "foreign_id", knn: append(append([]classifier.Prediction{}, knn[1:]...), classifier.Prediction{ID: 99, Label: "Normal"}), kknn: kknn},
		{name: "duplicate_hides_missing", knn: append(append([]classifier.Prediction{}, knn[:len(knn)-1]...), knn[0]), kknn: kknn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Join(test, tc.knn, tc.kknn); !errors.Is(err, ErrUnmatched) {
				t.Errorf("join got: %v, expected: %v", err, ErrUnmatched)
			}
		})
	}

	t.Run("duplicate_test_id", func(t *testing.T) {
		dup := append([]dataset.Observation{}, test...)
		dup[1].ID = dup[0].ID
		if _, err := Join(dup, knn, kknn); !errors.Is(err, ErrUnmatched) {
			t.Errorf("join got: %v, expected: %v", err, ErrUnmatched)
		}
	})
}

func TestSummary(t *testing.T) {
	test, knn, kknn := fixture()
	c, err := Join(test, knn, kknn)
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	s := c.Summary([]string{"Abnormal", "Normal"})

	if s.Test != 4 || s.Agreements != 3 || !reflect.DeepEqual(s.Disagreements, []int{7}) {
		t.Errorf("agreement got: %s", spew.Sdump(s))
	}
	// knn right on 3 and 12; kknn right on 3, 7 and 12
	if math.Abs(s.KNN.Accuracy-0.5) > 1e-12 {
		t.Errorf("knn accuracy got: %v, expected: 0.5", s.KNN.Accuracy)
	}
	if math.Abs(s.KKNN.Accuracy-0.75) > 1e-12 {
		t.Errorf("kknn accuracy got: %v, expected: 0.75", s.KKNN.Accuracy)
	}
	if !reflect.DeepEqual(s.KNN.Ties, []int{7, 12}) || s.KNN.TiesCorrect != 1 {
		t.Errorf("knn ties got: %v, correct %d", s.KNN.Ties, s.KNN.TiesCorrect)
	}
	if s.KNNTiesKKNNCorrect != 2 {
		t.Errorf("kknn right on knn ties got: %d, expected: 2", s.KNNTiesKKNNCorrect)
	}
	if len(s.KKNN.Ties) != 0 {
		t.Errorf("kknn ties got: %v, expected none", s.KKNN.Ties)
	}
	if s.KNN.Confusion["Normal"]["Abnormal"] != 1 || s.KNN.Confusion["Abnormal"]["Normal"] != 1 {
		t.Errorf("knn confusion got: %v", s.KNN.Confusion)
	}
	if !reflect.DeepEqual(Labels(s.KNN.Confusion), []string{"Abnormal", "Normal"}) {
		t.Errorf("labels got: %v", Labels(s.KNN.Confusion))
	}
	if Table(s.KKNN.Confusion) == "" {
		t.Errorf("table must not be empty")
	}
}
