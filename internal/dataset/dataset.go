package dataset

import (
	"errors"
	"fmt"

	"github.com/go-sod/tiebreak/internal/geom"
)

var (
	ErrNoClass        = errors.New("dataset has no nominal class attribute")
	ErrUnknownFeature = errors.New("unknown feature")
	ErrEmptyPartition = errors.New("partition is empty")
)

// Observation is one row of the source file.
type Observation struct {
	// ID is the 1-based row number in the source file.
	ID     int        `json:"id"`
	Values geom.Point `json:"values"`
	Label  string     `json:"label"`
}

func (o Observation) Vector() geom.Point {
	return o.Values
}

type Dataset struct {
	Relation string `json:"relation"`
	// Attributes names the feature columns, in Values order.
	Attributes []string `json:"attributes"`
	// Classes keeps the declared order of the class attribute.
	Classes      []string      `json:"classes"`
	Observations []Observation `json:"observations"`
}

func (d *Dataset) Len() int {
	return len(d.Observations)
}

func (d *Dataset) Dimensions() int {
	return len(d.Attributes)
}

// Index returns the column of the named attribute.
func (d *Dataset) Index(name string) (int, error) {
	for i := range d.Attributes {
		if d.Attributes[i] == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownFeature, name)
}

func (d *Dataset) Points() []geom.Point {
	points := make([]geom.Point, len(d.Observations))
	for i := range d.Observations {
		points[i] = d.Observations[i].Values
	}
	return points
}

func (d *Dataset) Labels() []string {
	labels := make([]string, len(d.Observations))
	for i := range d.Observations {
		labels[i] = d.Observations[i].Label
	}
	return labels
}

// ClassCounts counts observations per declared class.
func (d *Dataset) ClassCounts() map[string]int {
	counts := make(map[string]int, len(d.Classes))
	for _, c := range d.Classes {
		counts[c] = 0
	}
	for i := range d.Observations {
		counts[d.Observations[i].Label]++
	}
	return counts
}

// Project keeps only the named attributes, in the given order. Observations
// are copied.
func (d *Dataset) Project(names ...string) (*Dataset, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, err := d.Index(name)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}

	out := &Dataset{
		Relation:     d.Relation,
		Attributes:   append([]string(nil), names...),
		Classes:      append([]string(nil), d.Classes...),
		Observations: make([]Observation, len(d.Observations)),
	}
	for i, o := range d.Observations {
		out.Observations[i] = Observation{ID: o.ID, Values: o.Values.Select(idx...), Label: o.Label}
	}
	return out, nil
}
