package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/knowledgebase-backend/internal/http/handlers"
	httpMW "github.com/yungbote/knowledgebase-backend/internal/http/middleware"
	"github.com/yungbote/knowledgebase-backend/internal/observability"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler
	TopicHandler   *httpH.TopicHandler
	MindmapHandler *httpH.MindmapHandler
	HealthHandler  *httpH.HealthHandler

	RateLimiter  *httpMW.RateLimiter
	MaxBodyBytes int64
	ServiceName  string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if observability.OTelEnabled() {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.BodyLimit(cfg.MaxBodyBytes))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler())
	}

	if cfg.HealthHandler != nil {
		r.GET("/api/health", cfg.HealthHandler.Check)
		r.GET("/api/health/detailed", cfg.HealthHandler.Detailed)
		r.GET("/api/health/postgres", cfg.HealthHandler.CheckOne("postgres"))
		r.GET("/api/health/neo4j", cfg.HealthHandler.CheckOne("neo4j"))
		r.GET("/api/health/redis", cfg.HealthHandler.CheckOne("redis"))
		r.GET("/api/health/live", cfg.HealthHandler.Live)
		r.GET("/api/health/ready", cfg.HealthHandler.Ready)
	}
	if observability.Enabled() {
		r.GET("/metrics", gin.WrapF(observability.Current().WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/users/register", cfg.AuthHandler.Register)
			api.POST("/users/login", cfg.AuthHandler.Login)
			api.POST("/users/refresh", cfg.AuthHandler.Refresh)
		}

		// Topic catalog (public reads)
		if cfg.TopicHandler != nil {
			api.GET("/topics", cfg.TopicHandler.List)
			api.GET("/topics/:identifier", cfg.TopicHandler.Get)
			api.GET("/topics/category/:category", cfg.TopicHandler.ByCategory)
			api.GET("/topics/search/:query", cfg.TopicHandler.Search)
		}

		// Mindmap discovery (public reads; identity resolved when a
		// token is present so request logs attribute them)
		if cfg.MindmapHandler != nil {
			discovery := api.Group("/")
			if cfg.AuthMiddleware != nil {
				discovery.Use(cfg.AuthMiddleware.OptionalAuth())
			}
			discovery.GET("/mindmaps/public", cfg.MindmapHandler.ListPublic)
			discovery.GET("/mindmaps/templates", cfg.MindmapHandler.ListTemplates)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/users/logout", cfg.AuthHandler.Logout)
		}

		if cfg.UserHandler != nil {
			protected.GET("/users/profile", cfg.UserHandler.Me)
			protected.PUT("/users/profile", cfg.UserHandler.UpdateProfile)
			protected.PUT("/users/preferences", cfg.UserHandler.UpdatePreferences)
			protected.GET("/users/stats", cfg.UserHandler.Stats)
			protected.POST("/users/learning-time", cfg.UserHandler.AddLearningTime)
		}

		if cfg.TopicHandler != nil {
			protected.POST("/topics", cfg.TopicHandler.Create)
			protected.PUT("/topics/:id", cfg.TopicHandler.Update)
			protected.POST("/topics/:id/publish", cfg.TopicHandler.Publish)
			protected.POST("/topics/:id/archive", cfg.TopicHandler.Archive)
			protected.DELETE("/topics/:id", cfg.TopicHandler.Delete)
		}

		if cfg.MindmapHandler != nil {
			protected.GET("/mindmaps", cfg.MindmapHandler.List)
			protected.POST("/mindmaps", cfg.MindmapHandler.Create)
			protected.GET("/mindmaps/:id", cfg.MindmapHandler.Get)
			protected.PUT("/mindmaps/:id", cfg.MindmapHandler.UpdateMeta)
			protected.PUT("/mindmaps/:id/layout", cfg.MindmapHandler.ReplaceLayout)
			protected.DELETE("/mindmaps/:id", cfg.MindmapHandler.Delete)

			protected.POST("/mindmaps/:id/nodes", cfg.MindmapHandler.AddNode)
			protected.DELETE("/mindmaps/:id/nodes/:nodeId", cfg.MindmapHandler.RemoveNode)
			protected.PUT("/mindmaps/:id/nodes/:nodeId/position", cfg.MindmapHandler.MoveNode)
			protected.PUT("/mindmaps/:id/nodes/:nodeId/status", cfg.MindmapHandler.UpdateNodeStatus)

			protected.POST("/mindmaps/:id/edges", cfg.MindmapHandler.AddEdge)
			protected.DELETE("/mindmaps/:id/edges/:edgeId", cfg.MindmapHandler.RemoveEdge)

			protected.POST("/mindmaps/:id/collaborators", cfg.MindmapHandler.AddCollaborator)
		}
	}

	return r
}
