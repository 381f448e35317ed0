package dataset

import (
	"fmt"

	"github.com/go-sod/tiebreak/internal/random"
)

// Partition is a disjoint, exhaustive split of a dataset.
type Partition struct {
	Seed  int64         `json:"seed"`
	Train []Observation `json:"train"`
	Test  []Observation `json:"test"`
}

// Split assigns each observation, in file order, to Train with probability
// trainFrac using a generator seeded with seed.
func Split(ds *Dataset, seed int64, trainFrac float64) (*Partition, error) {
	if !(trainFrac > 0 && trainFrac < 1) {
		return nil, fmt.Errorf("train fraction must be in (0, 1), got %v", trainFrac)
	}
	rng := random.New(seed)
	p := &Partition{Seed: seed}
	for _, o := range ds.Observations {
		if random.Float64(rng) < trainFrac {
			p.Train = append(p.Train, o)
		} else {
			p.Test = append(p.Test, o)
		}
	}
	if len(p.Train) == 0 {
		return nil, fmt.Errorf("train: %w", ErrEmptyPartition)
	}
	if len(p.Test) == 0 {
		return nil, fmt.Errorf("test: %w", ErrEmptyPartition)
	}
	return p, nil
}

// IsTrain reports the partition side of every observation id.
func (p *Partition) IsTrain() map[int]bool {
	m := make(map[int]bool, len(p.Train)+len(p.Test))
	for _, o := range p.Train {
		m[o.ID] = true
	}
	for _, o := range p.Test {
		m[o.ID] = false
	}
	return m
}
