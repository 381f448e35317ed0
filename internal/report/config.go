package report

import (
	"github.com/go-sod/tiebreak/internal/classifier/kknn"
	"github.com/go-sod/tiebreak/internal/classifier/knn"
	"github.com/go-sod/tiebreak/internal/dataset"
)

type Config struct {
	Dataset       string                  `envconfig:"TIEBREAK_DATASET" default:"data/column_2C_weka.arff"`
	OutputDir     string                  `envconfig:"TIEBREAK_OUTPUT_DIR" default:"out"`
	Seed          int64                   `envconfig:"TIEBREAK_SEED" default:"1234"`
	TrainFraction float64                 `envconfig:"TIEBREAK_TRAIN_FRACTION" default:"0.67"`
	Normalize     dataset.NormalizeMethod `envconfig:"TIEBREAK_NORMALIZE" default:"MINMAX"`
	FeaturesNum   int                     `envconfig:"TIEBREAK_FEATURES_NUM" default:"2"`
	// MaxPlots caps the tie plots of one run, negative means no cap.
	MaxPlots        int `envconfig:"TIEBREAK_MAX_PLOTS" default:"20"`
	PlotConcurrency int `envconfig:"TIEBREAK_PLOT_CONCURRENCY" default:"4"`
	MaxRunsStored   int `envconfig:"TIEBREAK_MAX_RUNS_STORED" default:"50"`
	KNN             knn.Config
	KKNN            kknn.Config
}
