package app

import (
	httpMW "github.com/yungbote/knowledgebase-backend/internal/http/middleware"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	RateLimiter *httpMW.RateLimiter
}

func wireMiddleware(log *logger.Logger, cfg Config, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:        httpMW.NewAuthMiddleware(log, serviceset.Auth),
		RateLimiter: httpMW.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
	}
}
