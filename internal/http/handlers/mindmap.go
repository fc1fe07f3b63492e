package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/knowledgebase-backend/internal/data/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/http/response"
	"github.com/yungbote/knowledgebase-backend/internal/services"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type MindmapHandler struct {
	mindmapService services.MindmapService
}

func NewMindmapHandler(mindmapService services.MindmapService) *MindmapHandler {
	return &MindmapHandler{mindmapService: mindmapService}
}

func (mh *MindmapHandler) List(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	maps, err := mh.mindmapService.ListForUser(c.Request.Context(), actor)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, maps)
}

func (mh *MindmapHandler) ListPublic(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	maps, err := mh.mindmapService.ListPublic(c.Request.Context(), limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, maps)
}

func (mh *MindmapHandler) ListTemplates(c *gin.Context) {
	maps, err := mh.mindmapService.ListTemplates(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, maps)
}

func (mh *MindmapHandler) Get(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	m, err := mh.mindmapService.Get(c.Request.Context(), mindmapID, actor)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MindmapHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req struct {
		Name             string   `json:"name"`
		Description      string   `json:"description"`
		Visibility       string   `json:"visibility"`
		Template         string   `json:"template"`
		IsTemplate       bool     `json:"is_template"`
		ParentTemplateID string   `json:"parent_template_id"`
		LayoutStyle      string   `json:"layout_style"`
		Tags             []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := aggregates.CreateMindmapInput{
		ActorID:     actor,
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Template:    req.Template,
		IsTemplate:  req.IsTemplate,
		LayoutStyle: req.LayoutStyle,
		Tags:        req.Tags,
	}
	if req.ParentTemplateID != "" {
		parentID, err := uuid.Parse(req.ParentTemplateID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_parent_template_id", err)
			return
		}
		in.ParentTemplateID = &parentID
	}
	m, err := mh.mindmapService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, m)
}

func (mh *MindmapHandler) UpdateMeta(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version     *int      `json:"version"`
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		Visibility  *string   `json:"visibility"`
		Tags        *[]string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := mh.mindmapService.UpdateMeta(c.Request.Context(), aggregates.UpdateMindmapMetaInput{
		ActorID:     actor,
		MindmapID:   mindmapID,
		IfVersion:   req.Version,
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Tags:        req.Tags,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MindmapHandler) ReplaceLayout(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version *int                `json:"version"`
		Layout  types.MindmapLayout `json:"layout"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := mh.mindmapService.ReplaceLayout(c.Request.Context(), aggregates.ReplaceLayoutInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: req.Version,
		Layout:    req.Layout,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MindmapHandler) Delete(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := mh.mindmapService.Delete(c.Request.Context(), mindmapID, actor); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (mh *MindmapHandler) AddNode(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version     *int           `json:"version"`
		TopicID     string         `json:"topic_id"`
		Position    types.Position `json:"position"`
		Size        int            `json:"size"`
		Color       string         `json:"color"`
		Status      string         `json:"status"`
		CustomLabel string         `json:"custom_label"`
		Notes       string         `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, node, err := mh.mindmapService.AddNode(c.Request.Context(), aggregates.AddNodeInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: req.Version,
		Node: types.NodeInput{
			TopicID:     req.TopicID,
			Position:    req.Position,
			Size:        req.Size,
			Color:       req.Color,
			Status:      req.Status,
			CustomLabel: req.CustomLabel,
			Notes:       req.Notes,
		},
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"mindmap": m, "node": node})
}

func (mh *MindmapHandler) RemoveNode(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ifVersion, ok := ifVersionQuery(c)
	if !ok {
		return
	}
	m, err := mh.mindmapService.RemoveNode(c.Request.Context(), aggregates.NodeRefInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: ifVersion,
		NodeID:    c.Param("nodeId"),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MindmapHandler) MoveNode(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version  *int           `json:"version"`
		Position types.Position `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := mh.mindmapService.MoveNode(c.Request.Context(), aggregates.MoveNodeInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: req.Version,
		NodeID:    c.Param("nodeId"),
		Position:  req.Position,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MindmapHandler) UpdateNodeStatus(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version  *int   `json:"version"`
		Status   string `json:"status"`
		Progress *int   `json:"progress_percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, node, err := mh.mindmapService.UpdateNodeStatus(c.Request.Context(), aggregates.UpdateNodeStatusInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: req.Version,
		NodeID:    c.Param("nodeId"),
		Status:    req.Status,
		Progress:  req.Progress,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mindmap": m, "node": node})
}

func (mh *MindmapHandler) AddEdge(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version  *int             `json:"version"`
		Source   string           `json:"source"`
		Target   string           `json:"target"`
		Type     string           `json:"type"`
		Strength float64          `json:"strength"`
		Style    *types.EdgeStyle `json:"style"`
		Label    string           `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, edge, err := mh.mindmapService.AddEdge(c.Request.Context(), aggregates.AddEdgeInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: req.Version,
		Edge: types.EdgeInput{
			Source:   req.Source,
			Target:   req.Target,
			Type:     req.Type,
			Strength: req.Strength,
			Style:    req.Style,
			Label:    req.Label,
		},
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"mindmap": m, "edge": edge})
}

func (mh *MindmapHandler) RemoveEdge(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ifVersion, ok := ifVersionQuery(c)
	if !ok {
		return
	}
	m, err := mh.mindmapService.RemoveEdge(c.Request.Context(), aggregates.EdgeRefInput{
		ActorID:   actor,
		MindmapID: mindmapID,
		IfVersion: ifVersion,
		EdgeID:    c.Param("edgeId"),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MindmapHandler) AddCollaborator(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	mindmapID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Version    *int   `json:"version"`
		UserID     string `json:"user_id"`
		Permission string `json:"permission"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	m, err := mh.mindmapService.AddCollaborator(c.Request.Context(), aggregates.AddCollaboratorInput{
		ActorID:    actor,
		MindmapID:  mindmapID,
		IfVersion:  req.Version,
		UserID:     userID,
		Permission: req.Permission,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, m)
}
