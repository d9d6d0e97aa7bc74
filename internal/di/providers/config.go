package providers

import (
	"github.com/samber/do/v2"

	"github.com/trumully/dynamo/internal/config"
	"github.com/trumully/dynamo/internal/logger"
)

// ProvideConfig provides the application configuration. The command-line
// options are injected as a value by the container constructor.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[config.Options](i)

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Paths.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideLogger provides the structured logger: pretty console output plus a
// rotating JSON file in the data directory.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:     logger.ParseLevel(cfg.Logger.Level),
		AddSource: cfg.App.Debug,
		FilePath:  cfg.Paths.LogFile(),
	})

	log.Info("starting dynamo",
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.Paths.DataDir,
	)

	return log, nil
}
