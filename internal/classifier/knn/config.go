package knn

import "github.com/go-sod/tiebreak/internal/geom"

type Config struct {
	K            int                   `envconfig:"TIEBREAK_KNN_K" default:"2"`
	UseAllTies   bool                  `envconfig:"TIEBREAK_KNN_USE_ALL_TIES" default:"true"`
	DistanceFunc geom.DistanceFuncType `envconfig:"TIEBREAK_KNN_DISTANCE_FUNC" default:"EUCLIDEAN"`
}
