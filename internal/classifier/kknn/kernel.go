package kknn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

type KernelType string

const (
	KernelRectangular  KernelType = "RECTANGULAR"
	KernelTriangular   KernelType = "TRIANGULAR"
	KernelEpanechnikov KernelType = "EPANECHNIKOV"
	KernelBiweight     KernelType = "BIWEIGHT"
	KernelTriweight    KernelType = "TRIWEIGHT"
	KernelCos          KernelType = "COS"
	KernelInv          KernelType = "INV"
	KernelGaussian     KernelType = "GAUSSIAN"
	KernelRank         KernelType = "RANK"
	KernelOptimal      KernelType = "OPTIMAL"
)

// weightsFn maps the k scaled distances, in neighbor order, to vote weights.
// dims is the number of features.
type weightsFn func(scaled []float64, dims int) []float64

func pointwise(f func(d float64) float64) weightsFn {
	return func(scaled []float64, _ int) []float64 {
		w := make([]float64, len(scaled))
		for i, d := range scaled {
			w[i] = f(d)
		}
		return w
	}
}

// KernelFor resolves a configured kernel name.
func KernelFor(t KernelType) (weightsFn, error) {
	switch KernelType(strings.ToUpper(string(t))) {
	case KernelRectangular:
		return pointwise(func(d float64) float64 { return 0.5 }), nil
	case KernelTriangular:
		return pointwise(func(d float64) float64 { return 1 - d }), nil
	case KernelEpanechnikov:
		return pointwise(func(d float64) float64 { return 0.75 * (1 - d*d) }), nil
	case KernelBiweight:
		return pointwise(func(d float64) float64 { return 15.0 / 16.0 * math.Pow(1-d*d, 2) }), nil
	case KernelTriweight:
		return pointwise(func(d float64) float64 { return 35.0 / 32.0 * math.Pow(1-d*d, 3) }), nil
	case KernelCos:
		return pointwise(func(d float64) float64 { return math.Pi / 4 * math.Cos(math.Pi/2*d) }), nil
	case KernelInv:
		return pointwise(func(d float64) float64 { return 1 / d }), nil
	case KernelGaussian:
		return gaussian, nil
	case KernelRank:
		return rank, nil
	case KernelOptimal:
		return optimal, nil
	default:
		return nil, fmt.Errorf("unknown kernel: %s", t)
	}
}

// gaussian stretches distances so that the (k+1)-th neighbor sits at the
// 1/(2(k+1)) normal quantile.
func gaussian(scaled []float64, _ int) []float64 {
	k := len(scaled)
	q := math.Abs(distuv.UnitNormal.Quantile(1 / (2 * float64(k+1))))
	w := make([]float64, k)
	for i, d := range scaled {
		w[i] = distuv.UnitNormal.Prob(d * q)
	}
	return w
}

// rank weighs the i-th neighbor (1-based) by k+1-i; equal distances share
// the average rank.
func rank(scaled []float64, _ int) []float64 {
	k := len(scaled)
	w := make([]float64, k)
	for i := 0; i < k; {
		j := i
		for j+1 < k && scaled[j+1] == scaled[i] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for r := i; r <= j; r++ {
			w[r] = float64(k+1) - avg
		}
		i = j + 1
	}
	return w
}

// optimal gives the i-th neighbor the asymptotically optimal rank weight for
// dims features.
func optimal(scaled []float64, dims int) []float64 {
	k := float64(len(scaled))
	d := float64(dims)
	if d < 1 {
		d = 1
	}
	w := make([]float64, len(scaled))
	for i := range w {
		r := float64(i + 1)
		w[i] = 1 / k * (1 + d/2 - d/(2*math.Pow(k, 2/d))*(math.Pow(r, 1+2/d)-math.Pow(r-1, 1+2/d)))
	}
	return w
}
