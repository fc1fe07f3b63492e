package app

import (
	"github.com/gin-gonic/gin"

	httpx "github.com/yungbote/knowledgebase-backend/internal/http"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, middleware Middleware) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	return httpx.NewRouter(httpx.RouterConfig{
		Log:            log,
		AuthHandler:    handlerset.Auth,
		AuthMiddleware: middleware.Auth,
		UserHandler:    handlerset.User,
		TopicHandler:   handlerset.Topic,
		MindmapHandler: handlerset.Mindmap,
		HealthHandler:  handlerset.Health,
		RateLimiter:    middleware.RateLimiter,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		ServiceName:    cfg.ServiceName,
	})
}
