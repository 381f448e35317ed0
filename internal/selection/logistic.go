// Package selection ranks features by their Wald statistics in a logistic
// regression of the class on all normalized measurements.
package selection

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	InterceptName = "(Intercept)"

	maxIterations = 25
	epsilon       = 1e-8
	// relative singular value below which a column is a linear combination of
	// the columns before it
	rankTolerance = 1e-7
	// fitted probabilities are kept away from 0 and 1
	probClamp = 1e-10
)

var (
	ErrSingleClass   = errors.New("response has a single class")
	ErrTooFewTerms   = errors.New("not enough estimable terms")
	ErrNotBinaryTask = errors.New("logistic regression needs exactly two classes")
)

type Term struct {
	Name     string  `json:"name" yaml:"name"`
	Estimate float64 `json:"estimate" yaml:"estimate"`
	StdErr   float64 `json:"stdErr" yaml:"stdErr"`
	Z        float64 `json:"z" yaml:"z"`
	P        float64 `json:"p" yaml:"p"`
	// Aliased terms are exact linear combinations of earlier terms and carry
	// NaN statistics.
	Aliased bool `json:"aliased" yaml:"aliased"`
}

type Model struct {
	// Terms starts with the intercept, then one term per feature.
	Terms        []Term  `json:"terms" yaml:"terms"`
	Positive     string  `json:"positive" yaml:"positive"`
	Deviance     float64 `json:"deviance" yaml:"deviance"`
	NullDeviance float64 `json:"nullDeviance" yaml:"nullDeviance"`
	AIC          float64 `json:"aic" yaml:"aic"`
	Iterations   int     `json:"iterations" yaml:"iterations"`
	Converged    bool    `json:"converged" yaml:"converged"`
}

// FitDataset regresses "label is the second declared class" on every
// attribute of ds.
func FitDataset(ds *dataset.Dataset) (*Model, error) {
	if len(ds.Classes) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotBinaryTask, len(ds.Classes))
	}
	y := make([]float64, ds.Len())
	for i, o := range ds.Observations {
		if o.Label == ds.Classes[1] {
			y[i] = 1
		}
	}
	m, err := Fit(ds.Points(), y, ds.Attributes)
	if err != nil {
		return nil, err
	}
	m.Positive = ds.Classes[1]
	return m, nil
}

// Fit estimates a logistic regression with intercept by iteratively
// reweighted least squares.
func Fit(points []geom.Point, y []float64, names []string) (*Model, error) {
	n := len(points)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("unable to fit: %d rows and %d responses", n, len(y))
	}
	p := len(names) + 1
	var ones float64
	for i := range y {
		ones += y[i]
	}
	if ones == 0 || ones == float64(n) {
		return nil, ErrSingleClass
	}

	design := mat.NewDense(n, p, nil)
	for i, pt := range points {
		if len(pt) != len(names) {
			return nil, fmt.Errorf("row %d: %w", i, geom.ErrDimNotEqual)
		}
		design.Set(i, 0, 1)
		for j := range pt {
			design.Set(i, j+1, pt[j])
		}
	}

	kept, err := estimableColumns(design)
	if err != nil {
		return nil, err
	}
	x := columns(design, kept)

	beta, cov, deviance, iter, converged, err := irls(x, y)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Terms:        make([]Term, p),
		Deviance:     deviance,
		NullDeviance: nullDeviance(y),
		AIC:          deviance + 2*float64(len(kept)),
		Iterations:   iter,
		Converged:    converged,
	}
	allNames := append([]string{InterceptName}, names...)
	for j := range m.Terms {
		m.Terms[j] = Term{
			Name: allNames[j], Estimate: math.NaN(), StdErr: math.NaN(),
			Z: math.NaN(), P: math.NaN(), Aliased: true,
		}
	}
	for k, j := range kept {
		se := math.Sqrt(cov.At(k, k))
		z := beta.AtVec(k) / se
		m.Terms[j] = Term{
			Name:     allNames[j],
			Estimate: beta.AtVec(k),
			StdErr:   se,
			Z:        z,
			P:        2 * distuv.UnitNormal.CDF(-math.Abs(z)),
		}
	}
	return m, nil
}

// Prob returns the fitted probability of the positive class for a point.
func (m *Model) Prob(pt geom.Point) (float64, error) {
	if len(pt) != len(m.Terms)-1 {
		return 0, geom.ErrDimNotEqual
	}
	eta := 0.0
	for j, t := range m.Terms {
		if t.Aliased {
			continue
		}
		if j == 0 {
			eta += t.Estimate
			continue
		}
		eta += t.Estimate * pt[j-1]
	}
	return sigmoid(eta), nil
}

// Ranked returns the estimable feature terms by increasing p-value; equal
// p-values are ordered by larger |z|, then by attribute order.
func (m *Model) Ranked() []Term {
	var terms []Term
	for _, t := range m.Terms[1:] {
		if !t.Aliased {
			terms = append(terms, t)
		}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].P != terms[j].P {
			return terms[i].P < terms[j].P
		}
		return math.Abs(terms[i].Z) > math.Abs(terms[j].Z)
	})
	return terms
}

// Select returns the names of the n most significant features.
func (m *Model) Select(n int) ([]string, error) {
	ranked := m.Ranked()
	if n < 1 || n > len(ranked) {
		return nil, fmt.Errorf("%w: asked %d, estimable %d", ErrTooFewTerms, n, len(ranked))
	}
	names := make([]string, n)
	for i := range names {
		names[i] = ranked[i].Name
	}
	return names, nil
}

func irls(x *mat.Dense, y []float64) (*mat.VecDense, *mat.Dense, float64, int, bool, error) {
	n, p := x.Dims()
	mu := make([]float64, n)
	eta := mat.NewVecDense(n, nil)
	for i := range y {
		mu[i] = (y[i] + 0.5) / 2
		eta.SetVec(i, math.Log(mu[i]/(1-mu[i])))
	}

	var (
		beta      = mat.NewVecDense(p, nil)
		xtwx      = mat.NewDense(p, p, nil)
		wx        = mat.NewDense(n, p, nil)
		z         = mat.NewVecDense(n, nil)
		xtwz      = mat.NewVecDense(p, nil)
		devOld    = math.Inf(1)
		deviance  float64
		iter      int
		converged bool
	)
	for iter = 1; iter <= maxIterations; iter++ {
		for i := 0; i < n; i++ {
			w := mu[i] * (1 - mu[i])
			z.SetVec(i, eta.AtVec(i)+(y[i]-mu[i])/w)
			for j := 0; j < p; j++ {
				wx.Set(i, j, w*x.At(i, j))
			}
		}
		xtwx.Mul(x.T(), wx)
		xtwz.MulVec(wx.T(), z)
		if err := beta.SolveVec(xtwx, xtwz); err != nil {
			return nil, nil, 0, iter, false, fmt.Errorf("irls iteration %d: %w", iter, err)
		}
		eta.MulVec(x, beta)
		for i := range mu {
			mu[i] = clamp(sigmoid(eta.AtVec(i)))
		}
		deviance = binomialDeviance(y, mu)
		if math.Abs(deviance-devOld)/(math.Abs(deviance)+0.1) < epsilon {
			converged = true
			break
		}
		devOld = deviance
	}
	if iter > maxIterations {
		iter = maxIterations
	}

	// covariance at the final weights
	for i := 0; i < n; i++ {
		w := mu[i] * (1 - mu[i])
		for j := 0; j < p; j++ {
			wx.Set(i, j, w*x.At(i, j))
		}
	}
	xtwx.Mul(x.T(), wx)
	var cov mat.Dense
	if err := cov.Inverse(xtwx); err != nil {
		return nil, nil, 0, iter, converged, fmt.Errorf("unable to invert information matrix: %w", err)
	}
	return beta, &cov, deviance, iter, converged, nil
}

// estimableColumns keeps each column that raises the rank of the columns kept
// before it.
func estimableColumns(design *mat.Dense) ([]int, error) {
	_, p := design.Dims()
	var kept []int
	for j := 0; j < p; j++ {
		candidate := columns(design, append(append([]int(nil), kept...), j))
		var svd mat.SVD
		if !svd.Factorize(candidate, mat.SVDNone) {
			return nil, fmt.Errorf("unable to factorize design matrix")
		}
		values := svd.Values(nil)
		if values[0] == 0 || values[len(values)-1]/values[0] < rankTolerance {
			continue
		}
		kept = append(kept, j)
	}
	if len(kept) == 0 {
		return nil, ErrTooFewTerms
	}
	return kept, nil
}

func columns(m *mat.Dense, idx []int) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, len(idx), nil)
	for k, j := range idx {
		for i := 0; i < r; i++ {
			out.Set(i, k, m.At(i, j))
		}
	}
	return out
}

func binomialDeviance(y, mu []float64) float64 {
	var d float64
	for i := range y {
		d += y[i]*math.Log(mu[i]) + (1-y[i])*math.Log(1-mu[i])
	}
	return -2 * d
}

func nullDeviance(y []float64) float64 {
	var mean float64
	for i := range y {
		mean += y[i]
	}
	mean /= float64(len(y))
	mu := make([]float64, len(y))
	for i := range mu {
		mu[i] = mean
	}
	return binomialDeviance(y, mu)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(p float64) float64 {
	return math.Min(math.Max(p, probClamp), 1-probClamp)
}
