package geom

import (
	"math"
)

// Point is a position in feature space. Observations, training rows and
// queries are all handled as points.
type Point []float64

func (v Point) Dimensions() int {
	return len(v)
}

func (v Point) Points() []float64 {
	return v
}

// Select returns a new point holding the given dimensions in the given order.
func (v Point) Select(idx ...int) Point {
	v1 := make(Point, len(idx))
	for i, j := range idx {
		v1[i] = v[j]
	}
	return v1
}

func (v Point) Map(applyFn func(int, float64) float64) Point {
	var v1 = make(Point, len(v))
	for i := range v {
		v1[i] = applyFn(i, v[i])
	}
	return v1
}

func (v Point) Sum() float64 {
	var s float64
	for i := range v {
		s += v[i]
	}
	return s
}

func (v Point) Max() float64 {
	var max = -math.MaxFloat64
	for i := range v {
		if v[i] > max {
			max = v[i]
		}
	}
	return max
}

func (v Point) Min() float64 {
	var min = math.MaxFloat64
	for i := range v {
		if v[i] < min {
			min = v[i]
		}
	}
	return min
}

func (v Point) Mean() float64 {
	return v.Sum() / float64(len(v))
}

// StdDev is the sample standard deviation (n-1 denominator). It is 0 for
// fewer than two values.
func (v Point) StdDev() float64 {
	if len(v) < 2 {
		return 0
	}
	mean := v.Mean()
	var s float64
	for i := range v {
		s += (v[i] - mean) * (v[i] - mean)
	}
	return math.Sqrt(s / float64(len(v)-1))
}

// Column collects dimension idx of every point.
func Column(points []Point, idx int) Point {
	col := make(Point, len(points))
	for i := range points {
		col[i] = points[i][idx]
	}
	return col
}
