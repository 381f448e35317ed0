package predict

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/geom"
	"github.com/google/uuid"
)

var ErrNoModels = errors.New("models are not ready")

// Models is one fitted model set: the scaler of the raw measurements, the
// selected features and both classifiers trained on them.
type Models struct {
	RunID    uuid.UUID
	Scaler   *dataset.Scaler
	Features []string
	KNN      classifier.Classifier
	KKNN     classifier.Classifier

	columns []int
}

func NewModels(runID uuid.UUID, scaler *dataset.Scaler, features []string, knn, kknn classifier.Classifier) (*Models, error) {
	columns := make([]int, len(features))
	for i, f := range features {
		columns[i] = -1
		for j, a := range scaler.Attributes {
			if a == f {
				columns[i] = j
				break
			}
		}
		if columns[i] < 0 {
			return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownFeature, f)
		}
	}
	return &Models{
		RunID:    runID,
		Scaler:   scaler,
		Features: append([]string(nil), features...),
		KNN:      knn,
		KKNN:     kknn,
		columns:  columns,
	}, nil
}

// Vector normalizes the named raw measurements and keeps the selected
// features.
func (m *Models) Vector(measurements map[string]float64) (geom.Point, error) {
	vec, err := m.Scaler.ApplyNamed(measurements)
	if err != nil {
		return nil, err
	}
	return vec.Select(m.columns...), nil
}

// Holder owns the current model set of the service.
type Holder struct {
	mtx sync.RWMutex
	cur *Models
}

func (h *Holder) Current() (*Models, error) {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	if h.cur == nil {
		return nil, ErrNoModels
	}
	return h.cur, nil
}

func (h *Holder) Swap(m *Models) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.cur = m
}
