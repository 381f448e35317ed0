package database

import "time"

type Config struct {
	FileName string `envconfig:"TIEBREAK_DB_FILE" default:"tiebreak.db"`
	// OpenTimeout bounds one attempt to take the file lock.
	OpenTimeout time.Duration `envconfig:"TIEBREAK_DB_OPEN_TIMEOUT" default:"1s"`
	OpenRetries uint64        `envconfig:"TIEBREAK_DB_OPEN_RETRIES" default:"5"`
}
