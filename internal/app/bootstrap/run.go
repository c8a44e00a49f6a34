// internal/app/bootstrap/run.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/sentinelboot/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/logging"
	"github.com/dalemusser/waffle/server"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run executes one bootstrap in WAFFLE's lifecycle order: load and validate
// config, build the final logger, connect, ensure schema, shut down. It
// returns the first fatal error joined with any shutdown error.
func Run(ctx context.Context) (Report, error) {
	runID := uuid.NewString()

	// Bootstrap logger until config is loaded
	boot := logging.BootstrapLogger().With(zap.String("run_id", runID))
	defer func() { _ = boot.Sync() }()

	coreCfg, appCfg, err := LoadConfig(boot)
	if err != nil {
		boot.Error("config load failed", zap.Error(err))
		return Report{RunID: runID}, err
	}
	boot.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel))

	if err := ValidateConfig(coreCfg, appCfg, boot); err != nil {
		boot.Error("config validation failed", zap.Error(err))
		return Report{RunID: runID}, err
	}

	logger := runLogger(coreCfg, runID)
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	timeouts.Configure(timeouts.Config{
		Connect:   appCfg.MongoConnectTimeout,
		Operation: appCfg.MongoOpTimeout,
	})

	logger.Info("bootstrapping sentinel database",
		zap.String("database", appCfg.MongoDatabase),
		zap.Bool("dry_run", appCfg.DryRun))

	deps, err := ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("DB connect failed", zap.Error(err))
		return Report{RunID: runID}, err
	}

	rep, runErr := EnsureSchema(ctx, coreCfg, appCfg, deps, logger)
	rep.RunID = runID
	if runErr != nil {
		logger.Error("schema ensure failed", zap.Error(runErr))
	} else {
		rep.Log(logger)
	}

	sctx, scancel := context.WithTimeout(context.Background(), timeouts.Connect())
	defer scancel()
	shutErr := Shutdown(sctx, coreCfg, appCfg, deps, logger)

	return rep, errors.Join(runErr, shutErr)
}

// runLogger builds the final logger from WAFFLE's log_level and env settings
// and tags it with the run id.
func runLogger(coreCfg *config.CoreConfig, runID string) *zap.Logger {
	return logging.MustBuildLogger(coreCfg.LogLevel, coreCfg.Env).With(zap.String("run_id", runID))
}
