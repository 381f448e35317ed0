package run

import (
	"bytes"
	"fmt"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/tiebreak/internal/dataset"
)

// Record is one normalized observation of a snapshot.
type Record struct {
	ID     int32
	Values []float64
	Label  string
	Train  bool
}

// Snapshot is everything needed to rebuild the classifiers of a run: the
// normalized dataset, its scaler, the selected features and the partition.
type Snapshot struct {
	Relation   string
	Attributes []string
	Classes    []string
	Method     string
	Offset     []float64
	Scale      []float64
	Features   []string
	Seed       int64
	Records    []Record
}

// NewSnapshot captures ds, the normalized dataset with every attribute, and
// the partition assignment of its observations.
func NewSnapshot(ds *dataset.Dataset, scaler *dataset.Scaler, features []string, part *dataset.Partition) Snapshot {
	isTrain := part.IsTrain()
	s := Snapshot{
		Relation:   ds.Relation,
		Attributes: append([]string(nil), ds.Attributes...),
		Classes:    append([]string(nil), ds.Classes...),
		Method:     string(scaler.Method),
		Offset:     append([]float64(nil), scaler.Offset...),
		Scale:      append([]float64(nil), scaler.Scale...),
		Features:   append([]string(nil), features...),
		Seed:       part.Seed,
		Records:    make([]Record, ds.Len()),
	}
	for i, o := range ds.Observations {
		s.Records[i] = Record{
			ID:     int32(o.ID),
			Values: append([]float64(nil), o.Values...),
			Label:  o.Label,
			Train:  isTrain[o.ID],
		}
	}
	return s
}

func (s Snapshot) Dataset() *dataset.Dataset {
	ds := &dataset.Dataset{
		Relation:     s.Relation,
		Attributes:   append([]string(nil), s.Attributes...),
		Classes:      append([]string(nil), s.Classes...),
		Observations: make([]dataset.Observation, len(s.Records)),
	}
	for i, r := range s.Records {
		ds.Observations[i] = dataset.Observation{
			ID:     int(r.ID),
			Values: append([]float64(nil), r.Values...),
			Label:  r.Label,
		}
	}
	return ds
}

func (s Snapshot) Scaler() *dataset.Scaler {
	return &dataset.Scaler{
		Method:     dataset.NormalizeMethod(s.Method),
		Attributes: append([]string(nil), s.Attributes...),
		Offset:     append([]float64(nil), s.Offset...),
		Scale:      append([]float64(nil), s.Scale...),
	}
}

// Partition rebuilds the split recorded in the snapshot over ds.
func (s Snapshot) Partition(ds *dataset.Dataset) *dataset.Partition {
	train := make(map[int]bool, len(s.Records))
	for _, r := range s.Records {
		train[int(r.ID)] = r.Train
	}
	p := &dataset.Partition{Seed: s.Seed}
	for _, o := range ds.Observations {
		if train[o.ID] {
			p.Train = append(p.Train, o)
		} else {
			p.Test = append(p.Test, o)
		}
	}
	return p
}

func encodeSnapshot(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, s); err != nil {
		return nil, fmt.Errorf("unable to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if _, err := xdr.Unmarshal(bytes.NewReader(b), &s); err != nil {
		return Snapshot{}, fmt.Errorf("unable to decode snapshot: %w", err)
	}
	return s, nil
}
