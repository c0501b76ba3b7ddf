//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/meta-hybrid/hybridmount/lib/executor"
	"github.com/meta-hybrid/hybridmount/lib/hmconfig"
	"github.com/meta-hybrid/hybridmount/lib/hmotel"
	"github.com/meta-hybrid/hybridmount/lib/hmproviders"
	"github.com/meta-hybrid/hybridmount/lib/paths"
	"github.com/meta-hybrid/hybridmount/lib/stealth"
)

// application holds every component the run loop needs.
type application struct {
	Ctx             context.Context
	Logger          *slog.Logger
	Config          *hmconfig.Config
	Paths           *paths.Paths
	Otel            *hmotel.Provider
	MagicMounter    executor.MagicMounter
	StealthInjector stealth.Injector
}

// initializeApp is the wire injector function.
func initializeApp() (*application, func(), error) {
	panic(wire.Build(
		hmproviders.ProvideConfig,
		hmproviders.ProvideLoggerConfig,
		hmproviders.ProvideLogger,
		hmproviders.ProvideContext,
		hmproviders.ProvidePaths,
		hmproviders.ProvideOtel,
		hmproviders.ProvideMagicMounter,
		hmproviders.ProvideStealthInjector,
		wire.Struct(new(application), "*"),
	))
}
