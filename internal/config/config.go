package tiebreak

import (
	"github.com/go-sod/tiebreak/internal/database"
	"github.com/go-sod/tiebreak/internal/predict"
	"github.com/go-sod/tiebreak/internal/report"
	"github.com/go-sod/tiebreak/internal/server"
	"github.com/go-sod/tiebreak/internal/setup"
)

var (
	_ setup.ConfigFileProvider     = (*Config)(nil)
	_ setup.ReportConfigProvider   = (*Config)(nil)
	_ setup.DatabaseConfigProvider = (*Config)(nil)
)

// Config is the whole configuration of both binaries. Values come from the
// field defaults, then the environment, then the optional TOML file.
type Config struct {
	File     string `envconfig:"TIEBREAK_CONFIG_FILE" toml:"-"`
	Report   report.Config
	Database database.Config
	Predict  predict.Config
	Server   server.Config
}

func (c *Config) ConfigFile() string {
	return c.File
}

func (c *Config) ReportConfig() *report.Config {
	return &c.Report
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}
