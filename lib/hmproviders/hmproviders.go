// Package hmproviders wires the hybrid mount engine's components together
// for google/wire, mirroring the teacher daemon's lib/providers package.
package hmproviders

import (
	"context"
	"log/slog"

	"github.com/meta-hybrid/hybridmount/lib/executor"
	"github.com/meta-hybrid/hybridmount/lib/hmconfig"
	"github.com/meta-hybrid/hybridmount/lib/hmotel"
	"github.com/meta-hybrid/hybridmount/lib/logger"
	"github.com/meta-hybrid/hybridmount/lib/paths"
	"github.com/meta-hybrid/hybridmount/lib/stealth"
)

// ProvideConfig loads the engine configuration from the environment.
func ProvideConfig() *hmconfig.Config {
	return hmconfig.Load()
}

// ProvideLoggerConfig derives the per-subsystem logging configuration.
func ProvideLoggerConfig(cfg *hmconfig.Config) logger.Config {
	return logger.NewConfig(cfg.Verbose)
}

// ProvideLogger builds the root logger under the EXEC subsystem, with no
// log file attached.
func ProvideLogger(logCfg logger.Config) *slog.Logger {
	return logger.NewSubsystemLogger(logger.SubsystemExec, logCfg, nil, nil)
}

// ProvideContext attaches the root logger to a background context.
func ProvideContext(log *slog.Logger) context.Context {
	return logger.AddToContext(context.Background(), log)
}

// ProvidePaths provides the staging/temp path layout.
func ProvidePaths(cfg *hmconfig.Config) *paths.Paths {
	return paths.New(cfg.BaseDir)
}

// ProvideMagicMounter provides the magic-mount collaborator adapter.
func ProvideMagicMounter(cfg *hmconfig.Config) executor.MagicMounter {
	return executor.ExecCommandMounter{BinaryPath: cfg.MagicMountBinary}
}

// ProvideStealthInjector provides the stealth LKM injector, or a no-op if
// no LKM directory is configured.
func ProvideStealthInjector(cfg *hmconfig.Config) stealth.Injector {
	if cfg.LKMDir == "" {
		return stealth.NoopInjector{}
	}
	return stealth.NewLKMInjector(cfg.LKMDir)
}

// ProvideOtel initializes OpenTelemetry from config, returning a Provider
// and a cleanup function. On failure it returns the error together with a
// nil Provider and a cleanup that is safe to call; initializeApp then
// aborts with that error.
func ProvideOtel(ctx context.Context, cfg *hmconfig.Config) (*hmotel.Provider, func(), error) {
	otelCfg := hmotel.Config{
		Enabled:           cfg.OtelEnabled,
		Endpoint:          cfg.OtelEndpoint,
		ServiceName:       cfg.OtelServiceName,
		ServiceInstanceID: cfg.OtelServiceInstanceID,
		Insecure:          cfg.OtelInsecure,
		Version:           cfg.Version,
		Env:               cfg.Env,
	}
	provider, shutdown, err := hmotel.Init(ctx, otelCfg)
	cleanup := func() {
		if shutdown != nil {
			_ = shutdown(context.Background())
		}
	}
	return provider, cleanup, err
}
