package kknn

type Config struct {
	K int `envconfig:"TIEBREAK_KKNN_K" default:"2"`
	// Kernel turning scaled distances into vote weights.
	Kernel KernelType `envconfig:"TIEBREAK_KKNN_KERNEL" default:"OPTIMAL"`
	// Minkowski order of the distance.
	Distance float64 `envconfig:"TIEBREAK_KKNN_DISTANCE" default:"2"`
	// Scale divides every feature by its training standard deviation.
	Scale bool `envconfig:"TIEBREAK_KKNN_SCALE" default:"true"`
}
