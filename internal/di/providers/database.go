package providers

import (
	"github.com/samber/do/v2"

	"github.com/trumully/dynamo/internal/config"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/store"
	"github.com/trumully/dynamo/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdowner.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite-backed store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Paths.DatabaseFile(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("database initialized", "path", cfg.Paths.DatabaseFile())
	return &StoreHandle{Store: db}, nil
}
