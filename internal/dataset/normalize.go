package dataset

import (
	"fmt"
	"strings"

	"github.com/go-sod/tiebreak/internal/geom"
)

type NormalizeMethod string

const (
	NormalizeMinMax NormalizeMethod = "MINMAX"
	NormalizeZScore NormalizeMethod = "ZSCORE"
)

// Scaler maps raw measurements to normalized ones: (x - Offset) / Scale.
// Columns with zero Scale map to 0.
type Scaler struct {
	Method     NormalizeMethod `json:"method" yaml:"method"`
	Attributes []string        `json:"attributes" yaml:"attributes"`
	Offset     []float64       `json:"offset" yaml:"offset"`
	Scale      []float64       `json:"scale" yaml:"scale"`
}

// FitScaler computes the normalization parameters of every attribute.
func FitScaler(ds *Dataset, method NormalizeMethod) (*Scaler, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("unable to normalize an empty dataset")
	}
	method = NormalizeMethod(strings.ToUpper(string(method)))
	s := &Scaler{
		Method:     method,
		Attributes: append([]string(nil), ds.Attributes...),
		Offset:     make([]float64, ds.Dimensions()),
		Scale:      make([]float64, ds.Dimensions()),
	}
	points := ds.Points()
	for i := range ds.Attributes {
		col := geom.Column(points, i)
		switch method {
		case NormalizeMinMax:
			s.Offset[i] = col.Min()
			s.Scale[i] = col.Max() - col.Min()
		case NormalizeZScore:
			s.Offset[i] = col.Mean()
			s.Scale[i] = col.StdDev()
		default:
			return nil, fmt.Errorf("unknown normalize method: %s", method)
		}
	}
	return s, nil
}

// Apply normalizes one raw vector.
func (s *Scaler) Apply(vec geom.Point) (geom.Point, error) {
	if len(vec) != len(s.Offset) {
		return nil, geom.ErrDimNotEqual
	}
	return vec.Map(func(i int, x float64) float64 {
		if s.Scale[i] == 0 {
			return 0
		}
		return (x - s.Offset[i]) / s.Scale[i]
	}), nil
}

// ApplyNamed normalizes measurements given by attribute name. Every attribute
// must be present.
func (s *Scaler) ApplyNamed(measurements map[string]float64) (geom.Point, error) {
	vec := make(geom.Point, len(s.Attributes))
	for i, name := range s.Attributes {
		v, ok := measurements[name]
		if !ok {
			return nil, fmt.Errorf("missing measurement %s", name)
		}
		vec[i] = v
	}
	return s.Apply(vec)
}

// Transform returns a normalized copy of the dataset.
func (s *Scaler) Transform(ds *Dataset) (*Dataset, error) {
	out := &Dataset{
		Relation:     ds.Relation,
		Attributes:   append([]string(nil), ds.Attributes...),
		Classes:      append([]string(nil), ds.Classes...),
		Observations: make([]Observation, ds.Len()),
	}
	for i, o := range ds.Observations {
		values, err := s.Apply(o.Values)
		if err != nil {
			return nil, fmt.Errorf("unable to normalize observation %d: %w", o.ID, err)
		}
		out.Observations[i] = Observation{ID: o.ID, Values: values, Label: o.Label}
	}
	return out, nil
}

// Normalize fits a scaler on ds and returns the normalized copy with it.
func Normalize(ds *Dataset, method NormalizeMethod) (*Dataset, *Scaler, error) {
	s, err := FitScaler(ds, method)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.Transform(ds)
	if err != nil {
		return nil, nil, err
	}
	return out, s, nil
}
