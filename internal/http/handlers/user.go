package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgebase-backend/internal/http/response"
	"github.com/yungbote/knowledgebase-backend/internal/services"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) Me(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	user, err := uh.userService.GetUser(c.Request.Context(), actor)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (uh *UserHandler) Stats(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	report, err := uh.userService.GetStats(c.Request.Context(), actor)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, report)
}

func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := uh.userService.UpdateProfile(c.Request.Context(), actor, types.UserProfile{
		Name:     req.Name,
		Timezone: req.Timezone,
		Language: req.Language,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (uh *UserHandler) UpdatePreferences(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req struct {
		LearningStyle        string `json:"learning_style"`
		DifficultyPreference string `json:"difficulty_preference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := uh.userService.UpdatePreferences(c.Request.Context(), actor, types.UserPreferences{
		LearningStyle:        req.LearningStyle,
		DifficultyPreference: req.DifficultyPreference,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (uh *UserHandler) AddLearningTime(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := uh.userService.AddLearningTime(c.Request.Context(), actor, req.Minutes); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
