package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/classifier/kknn"
	"github.com/go-sod/tiebreak/internal/classifier/knn"
	"github.com/go-sod/tiebreak/internal/database"
	"github.com/go-sod/tiebreak/internal/geom"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/report"
	"github.com/go-sod/tiebreak/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

type ConfigFileProvider interface {
	ConfigFile() string
}

type ReportConfigProvider interface {
	ReportConfig() *report.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

// Setup fills config from the environment and the optional TOML file, then
// opens the database and builds the classifier providers the config asks for.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	if fileProvider, ok := config.(ConfigFileProvider); ok && fileProvider.ConfigFile() != "" {
		logger.Infof("Reading config file %s", fileProvider.ConfigFile())
		if err := DecodeFile(fileProvider.ConfigFile(), config); err != nil {
			return nil, err
		}
	}

	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		db, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if reportConfigProvider, ok := config.(ReportConfigProvider); ok {
		logger.Info("Configuring classifiers")
		cfg := reportConfigProvider.ReportConfig()
		knnFn, err := ProvideKNNFor(&cfg.KNN, cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("unable create knn provide function: %w", err)
		}
		kknnFn, err := ProvideKKNNFor(&cfg.KKNN)
		if err != nil {
			return nil, fmt.Errorf("unable create kknn provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithKNN(knnFn), srvenv.WithKKNN(kknnFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

// DecodeFile decodes a TOML file over config. Keys the config has no field
// for are an error.
func DecodeFile(path string, config interface{}) error {
	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return fmt.Errorf("unable to decode config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ProvideKNNFor validates cfg and returns a provider of unweighted
// classifiers whose coin flips are seeded with seed.
func ProvideKNNFor(cfg *knn.Config, seed int64) (classifier.ProvideFn, error) {
	distFunc, err := geom.DistanceFuncFor(cfg.DistanceFunc)
	if err != nil {
		return nil, fmt.Errorf("unable provide distance function: %w", err)
	}
	if cfg.K < 1 {
		return nil, fmt.Errorf("knn: %w", classifier.ErrInvalidK)
	}
	return func(classes []string) (classifier.Classifier, error) {
		c, err := knn.New(
			knn.WithK(cfg.K),
			knn.WithUseAllTies(cfg.UseAllTies),
			knn.WithDistance(distFunc),
			knn.WithSeed(seed),
			knn.WithClasses(classes),
		)
		if err != nil {
			return nil, fmt.Errorf("unable create knn instance: %w", err)
		}
		return c, nil
	}, nil
}

// ProvideKKNNFor validates cfg and returns a provider of kernel weighted
// classifiers.
func ProvideKKNNFor(cfg *kknn.Config) (classifier.ProvideFn, error) {
	opts := func(classes []string) []kknn.Option {
		return []kknn.Option{
			kknn.WithK(cfg.K),
			kknn.WithKernel(cfg.Kernel),
			kknn.WithDistance(cfg.Distance),
			kknn.WithScale(cfg.Scale),
			kknn.WithClasses(classes),
		}
	}
	if _, err := kknn.New(opts(nil)...); err != nil {
		return nil, err
	}
	return func(classes []string) (classifier.Classifier, error) {
		c, err := kknn.New(opts(classes)...)
		if err != nil {
			return nil, fmt.Errorf("unable create kknn instance: %w", err)
		}
		return c, nil
	}, nil
}
