package app

import (
	httpH "github.com/yungbote/knowledgebase-backend/internal/http/handlers"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
)

type Handlers struct {
	Auth    *httpH.AuthHandler
	User    *httpH.UserHandler
	Topic   *httpH.TopicHandler
	Mindmap *httpH.MindmapHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:    httpH.NewAuthHandler(serviceset.Auth),
		User:    httpH.NewUserHandler(serviceset.User),
		Topic:   httpH.NewTopicHandler(serviceset.Topic),
		Mindmap: httpH.NewMindmapHandler(serviceset.Mindmap),
		Health:  httpH.NewHealthHandler(serviceset.Health),
	}
}
