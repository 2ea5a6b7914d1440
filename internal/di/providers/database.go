package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/daylogapp/daylog-server/internal/config"
	"github.com/daylogapp/daylog-server/internal/logger"
	"github.com/daylogapp/daylog-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.Storage.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	stats, err := db.Stats(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("Database initialized",
		"path", dbPath,
		"day_tags", stats.DayTags,
		"associations", stats.Associations,
		"entries", stats.Entries,
	)
	if stats.DriftedTags > 0 {
		log.Warn("Day tag usage counts out of sync, reconcile job will repair them",
			"drifted_tags", stats.DriftedTags)
	}

	return &StoreHandle{Store: db}, nil
}
