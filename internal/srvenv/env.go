package srvenv

import (
	"context"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/database"
	"github.com/go-sod/tiebreak/internal/report"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	knn      classifier.ProvideFn
	kknn     classifier.ProvideFn
}

func (s *SrvEnv) ProvideKNN() classifier.ProvideFn {
	return s.knn
}

func (s *SrvEnv) ProvideKKNN() classifier.ProvideFn {
	return s.kknn
}

// Models bundles both providers for a pipeline run.
func (s *SrvEnv) Models() report.Models {
	return report.Models{KNN: s.knn, KKNN: s.kknn}
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithKNN(fn classifier.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.knn = fn
		return s
	}
}

func WithKKNN(fn classifier.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.kknn = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
