package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/data/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/observability"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/services"
)

type Services struct {
	Auth    services.AuthService
	User    services.UserService
	Topic   services.TopicService
	Mindmap services.MindmapService
	Health  services.HealthService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	deps := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	topicAggregate := aggregates.NewTopicAggregate(deps)
	mindmapAggregate := aggregates.NewMindmapAggregate(deps)

	userService := services.NewUserService(db, log, reposet.User, reposet.Mindmap)

	return Services{
		Auth: services.NewAuthService(
			db, log,
			reposet.User,
			reposet.UserToken,
			cfg.JWTSecretKey,
			cfg.AccessTokenTTL,
			cfg.RefreshTokenTTL,
		),
		User:    userService,
		Topic:   services.NewTopicService(db, log, reposet.Topic, topicAggregate, clients.Cache, clients.GraphDB, metrics),
		Mindmap: services.NewMindmapService(db, log, reposet.Mindmap, reposet.Topic, mindmapAggregate, userService, clients.Cache, clients.GraphDB, metrics),
		Health:  services.NewHealthService(db, clients.GraphDB, clients.Cache, log),
	}
}
