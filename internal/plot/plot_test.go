package plot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
)

func frame() Frame {
	return Frame{
		Features: []string{"pelvic_radius", "degree_spondylolisthesis"},
		Classes:  []string{"Abnormal", "Normal"},
		Train: []dataset.Observation{
			{ID: 1, Values: []float64{0.1, 0.2}, Label: "Abnormal"},
			{ID: 2, Values: []float64{0.2, 0.1}, Label: "Normal"},
			{ID: 3, Values: []float64{0.8, 0.9}, Label: "Normal"},
		},
	}
}

func tie(id int) Tie {
	return Tie{
		Query: dataset.Observation{ID: id, Values: []float64{0.15, 0.15}, Label: "Normal"},
		KNN: classifier.Prediction{ID: id, Label: "Normal", Prob: 0.5, Tie: true, Neighbors: []classifier.Neighbor{
			{ID: 1, Label: "Abnormal"}, {ID: 2, Label: "Normal"},
		}},
		KKNN: classifier.Prediction{ID: id, Label: "Abnormal", Prob: 0.5, Tie: true},
	}
}

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if fi.Size() == 0 {
		t.Errorf("file %s is empty", path)
	}
}

func TestOverview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overview.png")
	test := []dataset.Observation{{ID: 4, Values: []float64{0.5, 0.5}, Label: "Abnormal"}}
	if err := Overview(path, frame(), test); err != nil {
		t.Fatalf("overview: %v", err)
	}
	nonEmpty(t, path)
}

func TestDraw_UnknownNeighbor(t *testing.T) {
	tt := tie(9)
	tt.KNN.Neighbors = append(tt.KNN.Neighbors, classifier.Neighbor{ID: 42})
	if err := Draw(filepath.Join(t.TempDir(), "x.png"), frame(), tt); err == nil {
		t.Errorf("draw got: nil error, expected: error for unknown neighbor")
	}
}

func TestDrawAll(t *testing.T) {
	tests := []struct {
		name     string
		ties     []Tie
		max      int
		expected int
	}{
		{name: "all", ties: []Tie{tie(10), tie(11)}, max: 5, expected: 2},
		{name: "capped", ties: []Tie{tie(10), tie(11), tie(12)}, max: 1, expected: 1},
		{name: "none", ties: nil, max: 5, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			paths, err := DrawAll(context.Background(), dir, frame(), test.ties, test.max, 2)
			if err != nil {
				t.Fatalf("draw all: %v", err)
			}
			if len(paths) != test.expected {
				t.Errorf("paths got: %v, expected: %d", paths, test.expected)
			}
			for _, p := range paths {
				nonEmpty(t, p)
			}
		})
	}
}

func TestDrawAll_NotPlanar(t *testing.T) {
	f := frame()
	f.Features = f.Features[:1]
	if _, err := DrawAll(context.Background(), t.TempDir(), f, []Tie{tie(1)}, 1, 1); !errors.Is(err, ErrNotPlanar) {
		t.Errorf("error got: %v, expected: %v", err, ErrNotPlanar)
	}
}
