package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

// DistanceFn measures the distance between two vectors of equal dimension.
type DistanceFn func(vec, vec1 []float64) (float64, error)

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan DistanceFuncType = "MANHATTAN"
)

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}

	for i := 0; i < len(vec); i++ {
		d += (vec[i] - vec1[i]) * (vec[i] - vec1[i])
	}
	return math.Sqrt(d), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	var absDistance, distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec1); i++ {
		absDistance = math.Abs(vec[i] - vec1[i])
		if distance < absDistance {
			distance = absDistance
		}
	}
	return distance, nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	var distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance, nil
}

// MinkowskiDistance returns the distance of order p. p=1 is Manhattan, p=2 is
// Euclidean.
func MinkowskiDistance(p float64) (DistanceFn, error) {
	if p <= 0 || math.IsNaN(p) {
		return nil, fmt.Errorf("minkowski order must be positive, got %v", p)
	}
	switch p {
	case 1:
		return ManhattanDistance, nil
	case 2:
		return EuclideanDistance, nil
	}
	return func(vec, vec1 []float64) (float64, error) {
		var d float64
		if len(vec) != len(vec1) {
			return 0.0, ErrDimNotEqual
		}
		for i := 0; i < len(vec); i++ {
			d += math.Pow(math.Abs(vec[i]-vec1[i]), p)
		}
		return math.Pow(d, 1/p), nil
	}, nil
}

// DistanceFuncFor resolves a configured distance name. A bare number is taken
// as a Minkowski order.
func DistanceFuncFor(d DistanceFuncType) (DistanceFn, error) {
	switch DistanceFuncType(strings.ToUpper(string(d))) {
	case DistanceFuncTypeChebyshev:
		return ChebyshevDistance, nil
	case DistanceFuncTypeEuclidean:
		return EuclideanDistance, nil
	case DistanceFuncTypeManhattan:
		return ManhattanDistance, nil
	}
	p, err := strconv.ParseFloat(string(d), 64)
	if err != nil {
		return nil, fmt.Errorf("unknown distance function: %s", d)
	}
	return MinkowskiDistance(p)
}
