package selection

import (
	"errors"
	"math"
	"testing"

	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
	"github.com/go-sod/tiebreak/internal/random"
)

func TestFit_BinaryPredictor(t *testing.T) {
	// two groups of 10: 3 positives when x=0, 7 when x=1
	var (
		points []geom.Point
		y      []float64
	)
	for g := 0; g < 2; g++ {
		positives := 3
		if g == 1 {
			positives = 7
		}
		for i := 0; i < 10; i++ {
			points = append(points, geom.Point{float64(g)})
			if i < positives {
				y = append(y, 1)
			} else {
				y = append(y, 0)
			}
		}
	}

	m, err := Fit(points, y, []string{"x"})
	if err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}
	if !m.Converged {
		t.Errorf("fit must converge, iterations %d", m.Iterations)
	}

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{name: "intercept", got: m.Terms[0].Estimate, expected: math.Log(3.0 / 7.0)},
		{name: "slope", got: m.Terms[1].Estimate, expected: 2 * math.Log(7.0/3.0)},
		{name: "intercept_se", got: m.Terms[0].StdErr, expected: math.Sqrt(1 / 2.1)},
		{name: "slope_se", got: m.Terms[1].StdErr, expected: math.Sqrt(2 / 2.1)},
		{name: "z", got: m.Terms[1].Z, expected: 2 * math.Log(7.0/3.0) / math.Sqrt(2/2.1)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if math.Abs(test.got-test.expected) > 1e-6 {
				t.Errorf("got: %v, expected: %v", test.got, test.expected)
			}
		})
	}

	if m.Terms[1].P <= 0 || m.Terms[1].P >= 1 {
		t.Errorf("p-value out of range: %v", m.Terms[1].P)
	}
	if m.Deviance >= m.NullDeviance {
		t.Errorf("deviance %v must be below the null deviance %v", m.Deviance, m.NullDeviance)
	}
	prob, err := m.Prob(geom.Point{1})
	if err != nil || math.Abs(prob-0.7) > 1e-6 {
		t.Errorf("fitted probability for x=1 got: %v (%v), expected: 0.7", prob, err)
	}
}

func TestFit_AliasedAndSelect(t *testing.T) {
	rng := random.New(1)
	var (
		points []geom.Point
		y      []float64
	)
	for i := 0; i < 400; i++ {
		x0 := random.Float64(rng)
		x1 := random.Float64(rng)
		points = append(points, geom.Point{x0, x1, x0 - x1})
		if random.Float64(rng) < sigmoid(-3+6*x0) {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	m, err := Fit(points, y, []string{"x0", "x1", "x0_minus_x1"})
	if err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}
	if !m.Terms[3].Aliased || !math.IsNaN(m.Terms[3].P) {
		t.Errorf("x0_minus_x1 must be aliased, got %+v", m.Terms[3])
	}
	if m.Terms[1].Aliased || m.Terms[1].P > 1e-3 {
		t.Errorf("x0 must be significant, got %+v", m.Terms[1])
	}
	if m.Terms[1].Estimate < 3 || m.Terms[1].Estimate > 9 {
		t.Errorf("x0 estimate %v is far from 6", m.Terms[1].Estimate)
	}

	top, err := m.Select(1)
	if err != nil || top[0] != "x0" {
		t.Errorf("select(1) got: %v (%v), expected: [x0]", top, err)
	}
	both, err := m.Select(2)
	if err != nil || len(both) != 2 || both[0] != "x0" || both[1] != "x1" {
		t.Errorf("select(2) got: %v (%v), expected: [x0 x1]", both, err)
	}
	if _, err := m.Select(3); !errors.Is(err, ErrTooFewTerms) {
		t.Errorf("select(3) got: %v, expected: %v", err, ErrTooFewTerms)
	}
	if _, err := m.Prob(geom.Point{1}); !errors.Is(err, geom.ErrDimNotEqual) {
		t.Errorf("prob with a wrong dimension got: %v", err)
	}
}

func TestFitDataset(t *testing.T) {
	ds := &dataset.Dataset{
		Attributes: []string{"a"},
		Classes:    []string{"Abnormal", "Normal"},
	}
	labels := []string{"Abnormal", "Normal", "Abnormal", "Normal", "Normal", "Abnormal"}
	values := []float64{0.1, 0.2, 0.3, 0.6, 0.8, 0.9}
	for i := range labels {
		ds.Observations = append(ds.Observations, dataset.Observation{ID: i + 1, Values: geom.Point{values[i]}, Label: labels[i]})
	}
	m, err := FitDataset(ds)
	if err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}
	if m.Positive != "Normal" {
		t.Errorf("positive class got: %q, expected: Normal", m.Positive)
	}

	ds.Classes = []string{"only"}
	if _, err := FitDataset(ds); !errors.Is(err, ErrNotBinaryTask) {
		t.Errorf("fit with one class got: %v, expected: %v", err, ErrNotBinaryTask)
	}
}

func TestFit_SingleClass(t *testing.T) {
	_, err := Fit([]geom.Point{{1}, {2}}, []float64{1, 1}, []string{"x"})
	if !errors.Is(err, ErrSingleClass) {
		t.Errorf("fit got: %v, expected: %v", err, ErrSingleClass)
	}
}
