package predict

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"TIEBREAK_PREDICT_REQUEST_TIMEOUT" default:"30s"`
	MaxDataItemsLen int           `envconfig:"TIEBREAK_PREDICT_MAX_DATA_ITEMS_LEN" default:"10"`
	// CacheSize bounds the predictions kept per model set.
	CacheSize int `envconfig:"TIEBREAK_PREDICT_CACHE_SIZE" default:"1024"`
}
