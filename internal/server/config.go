package server

type Config struct {
	Addr string `envconfig:"TIEBREAK_ADDR" default:":8787"`
	// RateLimit is a limiter formatted rate, e.g. 100-S or 1000-M.
	RateLimit string `envconfig:"TIEBREAK_RATE_LIMIT" default:"100-S"`
}
