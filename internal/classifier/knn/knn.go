// Package knn is the unweighted k nearest neighbor classifier. Every voter
// counts once; a shared top vote is settled by a seeded coin flip.
package knn

import (
	"fmt"
	"sync"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
	"github.com/go-sod/tiebreak/internal/random"
	"github.com/valyala/fastrand"
)

var _ classifier.Classifier = (*knn)(nil)

type Option func(*knn)

func WithK(k int) Option {
	return func(c *knn) {
		c.opts.k = k
	}
}

// WithUseAllTies lets every training point at the k-th distance vote.
func WithUseAllTies(b bool) Option {
	return func(c *knn) {
		c.opts.useAllTies = b
	}
}

func WithDistance(f geom.DistanceFn) Option {
	return func(c *knn) {
		c.distFunc = f
	}
}

func WithSeed(seed int64) Option {
	return func(c *knn) {
		c.rng = random.New(seed)
	}
}

// WithClasses fixes the class order used to list tied candidates.
func WithClasses(classes []string) Option {
	return func(c *knn) {
		c.opts.classes = append([]string(nil), classes...)
	}
}

type Options struct {
	k          int
	useAllTies bool
	classes    []string
}

var defaultOptions = Options{k: 2, useAllTies: true}

func New(opts ...Option) (*knn, error) {
	c := &knn{
		opts:     defaultOptions,
		distFunc: geom.EuclideanDistance,
		rng:      random.New(0),
	}
	for _, f := range opts {
		f(c)
	}
	if c.opts.k < 1 {
		return nil, fmt.Errorf("unable creating knn instance: %w", classifier.ErrInvalidK)
	}
	return c, nil
}

type knn struct {
	opts     Options
	distFunc geom.DistanceFn
	train    []dataset.Observation
	classes  []string

	// guards rng, whose draws must follow prediction order
	mtx sync.Mutex
	rng *fastrand.RNG
}

func (c *knn) Name() classifier.Type {
	return classifier.TypeKNN
}

func (c *knn) K() int {
	return c.opts.k
}

func (c *knn) Fit(train []dataset.Observation) error {
	if len(train) == 0 {
		return classifier.ErrEmptyTrain
	}
	c.train = append([]dataset.Observation(nil), train...)
	c.classes = classifier.ClassOrder(c.opts.classes, c.train)
	return nil
}

func (c *knn) Predict(obs dataset.Observation) (classifier.Prediction, error) {
	if c.train == nil {
		return classifier.Prediction{}, classifier.ErrNotFitted
	}
	nn, err := classifier.Nearest(c.train, obs.Values, c.opts.k, c.distFunc, c.opts.useAllTies)
	if err != nil {
		return classifier.Prediction{}, fmt.Errorf("unable compute knn: %w", err)
	}

	votes := make(map[string]float64, len(c.classes))
	for _, n := range nn {
		votes[n.Label]++
	}

	var (
		top        float64
		candidates []string
	)
	for _, class := range c.classes {
		v := votes[class]
		switch {
		case v > top:
			top = v
			candidates = []string{class}
		case v == top && v > 0:
			candidates = append(candidates, class)
		}
	}

	winner := candidates[0]
	if len(candidates) > 1 {
		c.mtx.Lock()
		winner = candidates[random.Intn(c.rng, len(candidates))]
		c.mtx.Unlock()
	}

	support := make(map[string]float64, len(votes))
	for class, v := range votes {
		support[class] = v / float64(len(nn))
	}

	p := classifier.Prediction{
		ID:        obs.ID,
		Label:     winner,
		Prob:      top / float64(len(nn)),
		Tie:       len(candidates) > 1,
		Support:   support,
		Neighbors: nn,
	}
	if p.Tie {
		p.Candidates = candidates
	}
	return p, nil
}
