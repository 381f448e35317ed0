// Package kknn is the weighted k nearest neighbor classifier: the k closest
// distances are divided by the distance of the (k+1)-th neighbor and mapped
// through a kernel into vote weights.
package kknn

import (
	"fmt"
	"math"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
)

var _ classifier.Classifier = (*kknn)(nil)

const (
	minMaxDist = 1e-6
	// scaled distances are kept inside (0, 1)
	scaledClamp = 1e-6
)

type Option func(*kknn)

func WithK(k int) Option {
	return func(c *kknn) {
		c.opts.k = k
	}
}

func WithKernel(t KernelType) Option {
	return func(c *kknn) {
		c.opts.kernel = t
	}
}

// WithDistance sets the Minkowski order.
func WithDistance(p float64) Option {
	return func(c *kknn) {
		c.opts.distance = p
	}
}

func WithScale(b bool) Option {
	return func(c *kknn) {
		c.opts.scale = b
	}
}

func WithClasses(classes []string) Option {
	return func(c *kknn) {
		c.opts.classes = append([]string(nil), classes...)
	}
}

type Options struct {
	k        int
	kernel   KernelType
	distance float64
	scale    bool
	classes  []string
}

var defaultOptions = Options{k: 2, kernel: KernelOptimal, distance: 2, scale: true}

func New(opts ...Option) (*kknn, error) {
	c := &kknn{opts: defaultOptions}
	for _, f := range opts {
		f(c)
	}
	if c.opts.k < 1 {
		return nil, fmt.Errorf("unable creating kknn instance: %w", classifier.ErrInvalidK)
	}
	weights, err := KernelFor(c.opts.kernel)
	if err != nil {
		return nil, fmt.Errorf("unable creating kknn instance: %w", err)
	}
	distFunc, err := geom.MinkowskiDistance(c.opts.distance)
	if err != nil {
		return nil, fmt.Errorf("unable creating kknn instance: %w", err)
	}
	c.weights = weights
	c.distFunc = distFunc
	return c, nil
}

type kknn struct {
	opts     Options
	weights  weightsFn
	distFunc geom.DistanceFn
	train    []dataset.Observation
	sd       geom.Point
	classes  []string
}

func (c *kknn) Name() classifier.Type {
	return classifier.TypeKKNN
}

func (c *kknn) K() int {
	return c.opts.k
}

func (c *kknn) Fit(train []dataset.Observation) error {
	if len(train) == 0 {
		return classifier.ErrEmptyTrain
	}
	dims := train[0].Values.Dimensions()
	c.sd = make(geom.Point, dims)
	for i := range c.sd {
		c.sd[i] = 1
	}
	if c.opts.scale {
		points := make([]geom.Point, len(train))
		for i := range train {
			if train[i].Values.Dimensions() != dims {
				return fmt.Errorf("observation %d: %w", train[i].ID, geom.ErrDimNotEqual)
			}
			points[i] = train[i].Values
		}
		for i := range c.sd {
			if sd := geom.Column(points, i).StdDev(); sd > 0 {
				c.sd[i] = sd
			}
		}
	}

	c.train = make([]dataset.Observation, len(train))
	for i, o := range train {
		values, err := c.scaled(o.Values)
		if err != nil {
			return fmt.Errorf("observation %d: %w", o.ID, err)
		}
		c.train[i] = dataset.Observation{ID: o.ID, Values: values, Label: o.Label}
	}
	c.classes = classifier.ClassOrder(c.opts.classes, c.train)
	return nil
}

func (c *kknn) Predict(obs dataset.Observation) (classifier.Prediction, error) {
	if c.train == nil {
		return classifier.Prediction{}, classifier.ErrNotFitted
	}
	query, err := c.scaled(obs.Values)
	if err != nil {
		return classifier.Prediction{}, err
	}
	nn, err := classifier.Nearest(c.train, query, c.opts.k+1, c.distFunc, false)
	if err != nil {
		return classifier.Prediction{}, fmt.Errorf("unable compute knn: %w", err)
	}

	k := c.opts.k
	if k > len(nn) {
		k = len(nn)
	}
	maxDist := nn[len(nn)-1].Distance
	if maxDist < minMaxDist {
		maxDist = minMaxDist
	}
	nn = nn[:k]
	scaled := make([]float64, k)
	for i := range nn {
		scaled[i] = math.Min(math.Max(nn[i].Distance/maxDist, scaledClamp), 1-scaledClamp)
	}
	w := c.weights(scaled, query.Dimensions())

	var total float64
	support := make(map[string]float64, len(c.classes))
	for i := range nn {
		nn[i].Weight = w[i]
		support[nn[i].Label] += w[i]
		total += w[i]
	}
	if total > 0 {
		for class := range support {
			support[class] /= total
		}
	}

	var (
		top        = -1.0
		candidates []string
	)
	for _, class := range c.classes {
		v, ok := support[class]
		if !ok {
			continue
		}
		switch {
		case v > top:
			top = v
			candidates = []string{class}
		case v == top:
			candidates = append(candidates, class)
		}
	}

	p := classifier.Prediction{
		ID:        obs.ID,
		Label:     candidates[0],
		Prob:      top,
		Tie:       len(candidates) > 1,
		Support:   support,
		Neighbors: nn,
	}
	if p.Tie {
		p.Candidates = candidates
	}
	return p, nil
}

func (c *kknn) scaled(vec geom.Point) (geom.Point, error) {
	if vec.Dimensions() != c.sd.Dimensions() {
		return nil, geom.ErrDimNotEqual
	}
	return vec.Map(func(i int, x float64) float64 { return x / c.sd[i] }), nil
}
