package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/observability"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	shutdownTracing func(context.Context) error
	cancel          context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	var metrics *observability.Metrics
	if observability.Enabled() {
		metrics = observability.Init()
	}
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	reposet := wireRepos(clients.DB, log)
	serviceset := wireServices(clients.DB, log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, cfg, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware)

	return &App{
		Log:             log,
		DB:              clients.DB,
		Router:          router,
		Cfg:             cfg,
		Clients:         clients,
		Repos:           reposet,
		Services:        serviceset,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Start launches background collectors. Safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if m := observability.Current(); m != nil && a.Clients.Cache != nil {
		m.StartRedisCollector(ctx, a.Log, a.Clients.Cache.Raw())
	}
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Starting HTTP server", "addr", addr)
	return a.Router.Run(addr)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.Log.Warn("Tracing shutdown failed", "error", err)
		}
	}
	a.Clients.Close(ctx)
	if a.Log != nil {
		a.Log.Sync()
	}
}
