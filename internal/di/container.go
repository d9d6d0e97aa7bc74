// Package di provides dependency injection configuration for dynamo.
package di

import (
	"github.com/samber/do/v2"

	"github.com/trumully/dynamo/internal/config"
	"github.com/trumully/dynamo/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// opts carries the command-line overrides into config loading.
func NewContainer(opts config.Options) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, opts)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBlobCache)
	do.Provide(injector, providers.ProvideCoverFetcher)

	// Command modules
	do.Provide(injector, providers.ProvideTags)
	do.Provide(injector, providers.ProvideSettings)
	do.Provide(injector, providers.ProvideTimes)
	do.Provide(injector, providers.ProvideEvents)
	do.Provide(injector, providers.ProvideIdenticons)
	do.Provide(injector, providers.ProvideSpotify)
	do.Provide(injector, providers.ProvideInfo)
	do.Provide(injector, providers.ProvideDev)
	do.Provide(injector, providers.ProvideRegistry)

	// Gateway
	do.Provide(injector, providers.ProvideLimiter)
	do.Provide(injector, providers.ProvideBot)

	return injector
}

// Bootstrap connects the bot, triggering lazy initialization of everything
// it depends on. Shutdown order is the reverse of initialization, so the
// gateway closes before the store does.
func Bootstrap(injector *do.RootScope) error {
	_, err := do.Invoke[*providers.BotHandle](injector)
	return err
}
