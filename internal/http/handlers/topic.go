package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgebase-backend/internal/http/response"
	"github.com/yungbote/knowledgebase-backend/internal/repos"
	"github.com/yungbote/knowledgebase-backend/internal/services"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type TopicHandler struct {
	topicService services.TopicService
}

func NewTopicHandler(topicService services.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

func (th *TopicHandler) List(c *gin.Context) {
	filter := repos.TopicFilter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := th.topicService.ListTopics(c.Request.Context(), filter)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// Get accepts either a topic id or a slug in the path.
func (th *TopicHandler) Get(c *gin.Context) {
	detail, err := th.topicService.GetTopic(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

func (th *TopicHandler) ByCategory(c *gin.Context) {
	filter := repos.TopicFilter{
		Category:   c.Param("category"),
		Difficulty: c.Query("difficulty"),
		Status:     types.TopicStatusPublished,
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := th.topicService.ListTopics(c.Request.Context(), filter)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (th *TopicHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	topics, err := th.topicService.SearchTopics(c.Request.Context(), c.Param("query"), limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, topics)
}

type topicRequest struct {
	Title                    string                   `json:"title"`
	Slug                     string                   `json:"slug"`
	Description              string                   `json:"description"`
	Category                 string                   `json:"category"`
	Subcategory              string                   `json:"subcategory"`
	Difficulty               string                   `json:"difficulty"`
	EstimatedDurationMinutes int                      `json:"estimated_duration_minutes"`
	Prerequisites            []string                 `json:"prerequisites"`
	LearningObjectives       []string                 `json:"learning_objectives"`
	Content                  types.TopicContent       `json:"content"`
	CompletionCriteria       types.CompletionCriteria `json:"completion_criteria"`
	Tags                     []string                 `json:"tags"`
	SearchKeywords           []string                 `json:"search_keywords"`
}

func (r *topicRequest) apply(topic *types.Topic) {
	topic.Title = r.Title
	topic.Slug = r.Slug
	topic.Description = r.Description
	topic.Category = r.Category
	topic.Subcategory = r.Subcategory
	topic.Difficulty = r.Difficulty
	topic.EstimatedDurationMinutes = r.EstimatedDurationMinutes
	topic.Prerequisites = r.Prerequisites
	topic.LearningObjectives = r.LearningObjectives
	topic.Content = r.Content
	topic.CompletionCriteria = r.CompletionCriteria
	topic.Tags = r.Tags
	topic.SearchKeywords = r.SearchKeywords
}

func (th *TopicHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	topic := &types.Topic{AuthorID: actor, Status: types.TopicStatusDraft}
	req.apply(topic)

	created, err := th.topicService.CreateTopic(c.Request.Context(), topic)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, created)
}

func (th *TopicHandler) Update(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	topic := &types.Topic{ID: topicID}
	req.apply(topic)

	updated, err := th.topicService.UpdateTopic(c.Request.Context(), actor, topic)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, updated)
}

func (th *TopicHandler) Publish(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := th.topicService.PublishTopic(c.Request.Context(), topicID, actor); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (th *TopicHandler) Archive(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := th.topicService.ArchiveTopic(c.Request.Context(), topicID, actor); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (th *TopicHandler) Delete(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := th.topicService.DeleteTopic(c.Request.Context(), topicID, actor); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
