package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgebase-backend/internal/http/response"
	"github.com/yungbote/knowledgebase-backend/internal/services"
)

type HealthHandler struct {
	healthService services.HealthService
}

func NewHealthHandler(healthService services.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

func (hh *HealthHandler) Check(c *gin.Context) {
	report := hh.healthService.Check(c.Request.Context())
	c.JSON(reportStatus(report), response.Envelope{
		Success: report.Status != services.StatusUnhealthy,
		Data: gin.H{
			"status":    report.Status,
			"uptime":    report.Uptime,
			"timestamp": report.Timestamp,
		},
	})
}

func (hh *HealthHandler) Detailed(c *gin.Context) {
	report := hh.healthService.Check(c.Request.Context())
	c.JSON(reportStatus(report), response.Envelope{
		Success: report.Status != services.StatusUnhealthy,
		Data:    report,
	})
}

// CheckOne serves the per-dependency probes (postgres, neo4j, redis).
func (hh *HealthHandler) CheckOne(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := hh.healthService.CheckService(c.Request.Context(), name)
		if err != nil {
			response.RespondError(c, http.StatusNotFound, "unknown_service", err)
			return
		}
		code := http.StatusOK
		if status == services.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, response.Envelope{
			Success: status != services.StatusUnhealthy,
			Data:    gin.H{"service": name, "status": status},
		})
	}
}

func (hh *HealthHandler) Live(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "alive"})
}

func (hh *HealthHandler) Ready(c *gin.Context) {
	if !hh.healthService.Ready(c.Request.Context()) {
		response.RespondError(c, http.StatusServiceUnavailable, "not_ready", errNotReady)
		return
	}
	response.RespondOK(c, gin.H{"status": "ready"})
}

func reportStatus(report *services.HealthReport) int {
	if report.Status == services.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

var errNotReady = &handlerError{"critical dependencies unavailable"}
