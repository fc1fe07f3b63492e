package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/db"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/platform/neo4jdb"
	"github.com/yungbote/knowledgebase-backend/internal/platform/redisdb"
)

type Clients struct {
	DB      *gorm.DB
	GraphDB *neo4jdb.Client
	Cache   *redisdb.Client

	postgres *db.PostgresService
	log      *logger.Logger
}

// wireClients connects the external stores. Postgres and neo4j are
// required; redis is optional and the cache client degrades to a no-op
// when it is unreachable.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
	}

	graphDB, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	cache, err := redisdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Redis unavailable, running without cache", "error", err)
		cache = nil
	}

	return Clients{
		DB:       pg.DB(),
		GraphDB:  graphDB,
		Cache:    cache,
		postgres: pg,
		log:      log,
	}, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.GraphDB != nil {
		if err := c.GraphDB.Close(ctx); err != nil {
			c.log.Warn("Failed to close neo4j driver", "error", err)
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.log.Warn("Failed to close redis client", "error", err)
		}
	}
}
