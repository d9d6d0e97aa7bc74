package providers

import (
	"github.com/samber/do/v2"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/commands"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/media/covers"
)

// ProvideTags provides the /tag module.
func ProvideTags(i do.Injector) (*commands.Tags, error) {
	st := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return commands.NewTags(st, log)
}

// ProvideSettings provides the /settings module.
func ProvideSettings(i do.Injector) (*commands.Settings, error) {
	st := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return commands.NewSettings(st, log)
}

// ProvideTimes provides the /time module.
func ProvideTimes(i do.Injector) (*commands.Times, error) {
	settings := do.MustInvoke[*commands.Settings](i)
	return commands.NewTimes(settings), nil
}

// ProvideEvents provides the /event module.
func ProvideEvents(i do.Injector) (*commands.Events, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return commands.NewEvents(log), nil
}

// ProvideIdenticons provides the /identicon module.
func ProvideIdenticons(i do.Injector) (*commands.Identicons, error) {
	blobs := do.MustInvoke[*BlobCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return commands.NewIdenticons(blobs.Cache, log), nil
}

// ProvideSpotify provides the /spotify module.
func ProvideSpotify(i do.Injector) (*commands.Spotify, error) {
	fetcher := do.MustInvoke[*covers.Fetcher](i)
	log := do.MustInvoke[*logger.Logger](i)
	return commands.NewSpotify(fetcher, log), nil
}

// ProvideInfo provides the /about and avatar module.
func ProvideInfo(i do.Injector) (*commands.Info, error) {
	return commands.NewInfo(), nil
}

// ProvideDev provides the owner-only /dev module.
func ProvideDev(i do.Injector) (*commands.Dev, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return commands.NewDev(log), nil
}

// ProvideRegistry assembles the command registry from every module's exports.
func ProvideRegistry(i do.Injector) (*bot.Registry, error) {
	registry := bot.NewRegistry()

	modules := []interface{ Exports() bot.Exports }{
		do.MustInvoke[*commands.Tags](i),
		do.MustInvoke[*commands.Settings](i),
		do.MustInvoke[*commands.Times](i),
		do.MustInvoke[*commands.Events](i),
		do.MustInvoke[*commands.Identicons](i),
		do.MustInvoke[*commands.Spotify](i),
		do.MustInvoke[*commands.Info](i),
		do.MustInvoke[*commands.Dev](i),
	}
	for _, module := range modules {
		if err := registry.Register(module.Exports()); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
