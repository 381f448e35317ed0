// Package run keeps finished pipeline runs: the comparison outcome in JSON and
// the normalized dataset they were computed on as an XDR snapshot.
package run

import (
	"time"

	"github.com/go-sod/tiebreak/internal/compare"
	"github.com/google/uuid"
)

// Params are the knobs a run was computed with.
type Params struct {
	Dataset       string  `json:"dataset" yaml:"dataset"`
	Seed          int64   `json:"seed" yaml:"seed"`
	TrainFraction float64 `json:"trainFraction" yaml:"trainFraction"`
	Normalize     string  `json:"normalize" yaml:"normalize"`
	KNNK          int     `json:"knnK" yaml:"knnK"`
	UseAllTies    bool    `json:"useAllTies" yaml:"useAllTies"`
	KKNNK         int     `json:"kknnK" yaml:"kknnK"`
	Kernel        string  `json:"kernel" yaml:"kernel"`
	Distance      float64 `json:"distance" yaml:"distance"`
}

type Run struct {
	ID        uuid.UUID       `json:"id" yaml:"id"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
	Params    Params          `json:"params" yaml:"params"`
	Features  []string        `json:"features" yaml:"features"`
	TrainSize int             `json:"trainSize" yaml:"trainSize"`
	TestSize  int             `json:"testSize" yaml:"testSize"`
	Summary   compare.Summary `json:"summary" yaml:"summary"`
	Rows      []compare.Row   `json:"rows" yaml:"-"`
	// Report is the markdown summary written next to the artifacts.
	Report string `json:"report" yaml:"-"`
}

func New(params Params, createdAt time.Time) Run {
	return Run{
		ID:        uuid.New(),
		CreatedAt: createdAt,
		Params:    params,
	}
}

// Ties returns the ids tied under either model.
func (r Run) Ties() []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, row := range r.Rows {
		if !row.KNNTie && !row.KKNNTie {
			continue
		}
		if _, ok := seen[row.ID]; ok {
			continue
		}
		seen[row.ID] = struct{}{}
		ids = append(ids, row.ID)
	}
	return ids
}
