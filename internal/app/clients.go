package app

import (
	"fmt"

	redisclient "github.com/openshelf/openshelf-backend/internal/clients/redis"
	"github.com/openshelf/openshelf-backend/internal/content"
	"github.com/openshelf/openshelf-backend/internal/media"
	"github.com/openshelf/openshelf-backend/internal/platform/envutil"
	"github.com/openshelf/openshelf-backend/internal/platform/ledger"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type Clients struct {
	Store  content.Store
	Cache  redisclient.Cache
	Ledger ledger.Client
	Covers *media.CoverMaker
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Object storage. Without MINIO_ENDPOINT everything stays in-process,
	// which is enough for local development.
	var store content.Store
	if envutil.Str("MINIO_ENDPOINT", "") != "" {
		s, err := content.NewMinioStore(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init content store: %w", err)
		}
		store = s
	} else {
		log.Warn("MINIO_ENDPOINT not set, using in-memory content store")
		store = content.NewMemoryStore()
	}

	cache, err := redisclient.NewCache(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis cache: %w", err)
	}

	return Clients{
		Store:  store,
		Cache:  cache,
		Ledger: ledger.NewFromEnv(log),
		Covers: media.NewCoverMaker(log),
	}, nil
}
