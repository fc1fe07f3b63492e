package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/platform/neo4jdb"
	"github.com/yungbote/knowledgebase-backend/internal/platform/redisdb"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type HealthReport struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
}

type HealthService interface {
	Check(ctx context.Context) *HealthReport
	CheckService(ctx context.Context, name string) (string, error)
	Ready(ctx context.Context) bool
}

type healthService struct {
	db      *gorm.DB
	graphDB *neo4jdb.Client
	cache   *redisdb.Client
	log     *logger.Logger
	started time.Time
}

func NewHealthService(db *gorm.DB, graphDB *neo4jdb.Client, cache *redisdb.Client, log *logger.Logger) HealthService {
	return &healthService{
		db:      db,
		graphDB: graphDB,
		cache:   cache,
		log:     log.With("service", "HealthService"),
		started: time.Now(),
	}
}

// Check probes every dependency concurrently. Postgres and neo4j are
// critical; redis only degrades the report because the API runs
// without its cache.
func (hs *healthService) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	statuses := map[string]string{}
	set := func(name, status string) {
		mu.Lock()
		statuses[name] = status
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		set("postgres", hs.postgresStatus(gctx))
		return nil
	})
	g.Go(func() error {
		set("neo4j", hs.neo4jStatus(gctx))
		return nil
	})
	g.Go(func() error {
		set("redis", hs.redisStatus(gctx))
		return nil
	})
	_ = g.Wait()

	overall := StatusHealthy
	if statuses["postgres"] == StatusUnhealthy || statuses["neo4j"] == StatusUnhealthy {
		overall = StatusUnhealthy
	} else if statuses["redis"] != StatusHealthy {
		overall = StatusDegraded
	}

	return &HealthReport{
		Status:    overall,
		Services:  statuses,
		Uptime:    time.Since(hs.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// CheckService probes a single dependency by name.
func (hs *healthService) CheckService(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch name {
	case "postgres":
		return hs.postgresStatus(ctx), nil
	case "neo4j":
		return hs.neo4jStatus(ctx), nil
	case "redis":
		return hs.redisStatus(ctx), nil
	}
	return "", fmt.Errorf("unknown service %q", name)
}

// Ready reports whether the critical dependencies answer.
func (hs *healthService) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return hs.postgresStatus(ctx) == StatusHealthy && hs.neo4jStatus(ctx) == StatusHealthy
}

func (hs *healthService) postgresStatus(ctx context.Context) string {
	sqlDB, err := hs.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		hs.log.Warn("Postgres health check failed", "error", err)
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (hs *healthService) neo4jStatus(ctx context.Context) string {
	if err := hs.graphDB.Ping(ctx); err != nil {
		hs.log.Warn("Neo4j health check failed", "error", err)
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (hs *healthService) redisStatus(ctx context.Context) string {
	if !hs.cache.Enabled() {
		return StatusDegraded
	}
	if err := hs.cache.Ping(ctx); err != nil {
		hs.log.Warn("Redis health check failed", "error", err)
		return StatusDegraded
	}
	return StatusHealthy
}
