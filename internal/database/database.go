package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/sethvargo/go-retry"
	bolt "go.etcd.io/bbolt"
)

type DB struct {
	DB *bolt.DB
}

// NewFromEnv opens the bolt file. A lock held by another process is retried
// with a Fibonacci backoff.
func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating db connection to %s", config.FileName)

	var (
		db      *bolt.DB
		attempt int
		b       = retry.WithMaxRetries(config.OpenRetries, retry.NewFibonacci(100*time.Millisecond))
	)
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		conn, err := bolt.Open(config.FileName, 0600, &bolt.Options{Timeout: config.OpenTimeout})
		if err != nil {
			if errors.Is(err, bolt.ErrTimeout) {
				logger.Warnf("db file %s is locked, attempt %d", config.FileName, attempt)
				return retry.RetryableError(err)
			}
			return err
		}
		db = conn
		return nil
	}); err != nil {
		return nil, fmt.Errorf("creating connection Db: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing DB connection")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close Db connection: %w", err)
	}

	return nil
}
