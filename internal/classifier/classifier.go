// Package classifier holds the contract shared by the nearest neighbor
// classifiers and the exhaustive neighbor search they are built on.
package classifier

import (
	"errors"
	"fmt"

	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
	"github.com/go-sod/tiebreak/pkg/pqueue"
)

var (
	ErrNotFitted  = errors.New("classifier is not fitted")
	ErrEmptyTrain = errors.New("training set is empty")
	ErrInvalidK   = errors.New("k must be at least 1")
)

type Type string

const (
	TypeKNN  Type = "KNN"
	TypeKKNN Type = "KKNN"
)

// ProvideFn builds an unfitted classifier for the given declared class order.
type ProvideFn func(classes []string) (Classifier, error)

type Classifier interface {
	Name() Type
	Fit(train []dataset.Observation) error
	Predict(obs dataset.Observation) (Prediction, error)
}

type Neighbor struct {
	ID       int     `json:"id"`
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Weight   float64 `json:"weight"`
}

// Prediction is the outcome for one query observation.
type Prediction struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	// Prob is the support of the winning label: vote share for the
	// unweighted model, kernel weighted probability for the weighted one.
	Prob float64 `json:"prob"`
	// Tie reports that more than one label shared the top support.
	Tie bool `json:"tie"`
	// Candidates lists the labels sharing the top support, in class order.
	Candidates []string           `json:"candidates,omitempty"`
	Support    map[string]float64 `json:"support"`
	Neighbors  []Neighbor         `json:"neighbors"`
}

// PredictAll classifies every observation in order.
func PredictAll(c Classifier, test []dataset.Observation) ([]Prediction, error) {
	out := make([]Prediction, len(test))
	for i, o := range test {
		p, err := c.Predict(o)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to predict observation %d: %w", c.Name(), o.ID, err)
		}
		out[i] = p
	}
	return out, nil
}

// Nearest returns the k training observations closest to query ordered by
// distance, equal distances in training order. With allTies every
// observation at the k-th distance is included as well.
func Nearest(train []dataset.Observation, query geom.Point, k int, distFn geom.DistanceFn, allTies bool) ([]Neighbor, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(train) == 0 {
		return nil, ErrEmptyTrain
	}

	var opts []pqueue.Option[Neighbor]
	if !allTies {
		opts = append(opts, pqueue.WithCap[Neighbor](uint(k)))
	}
	pq := pqueue.New(opts...)
	for _, o := range train {
		distance, err := distFn(query, o.Values)
		if err != nil {
			return nil, fmt.Errorf(
				"unable to compute distance between %v and observation %d: %w",
				query, o.ID, err,
			)
		}
		pq.Push(Neighbor{ID: o.ID, Label: o.Label, Distance: distance, Weight: 1}, distance)
	}

	nn := pq.PopAll()
	if len(nn) <= k {
		return nn, nil
	}
	cut := k
	kth := nn[k-1].Distance
	for cut < len(nn) && nn[cut].Distance == kth {
		cut++
	}
	return nn[:cut], nil
}

// ClassOrder returns the declared classes, followed by any label of train
// they miss in first-seen order.
func ClassOrder(declared []string, train []dataset.Observation) []string {
	seen := make(map[string]bool, len(declared))
	order := make([]string, 0, len(declared))
	for _, c := range declared {
		if !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}
	for _, o := range train {
		if !seen[o.Label] {
			seen[o.Label] = true
			order = append(order, o.Label)
		}
	}
	return order
}
