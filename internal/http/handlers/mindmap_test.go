package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/knowledgebase-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/requestdata"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type stubMindmapService struct {
	lastAddNode aggregates.AddNodeInput
	getErr      error
	mindmap     *types.Mindmap
}

func (s *stubMindmapService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Mindmap, error) {
	return nil, nil
}
func (s *stubMindmapService) ListPublic(ctx context.Context, limit int) ([]*types.Mindmap, error) {
	return nil, nil
}
func (s *stubMindmapService) ListTemplates(ctx context.Context) ([]*types.Mindmap, error) {
	return nil, nil
}
func (s *stubMindmapService) Get(ctx context.Context, mindmapID, actorID uuid.UUID) (*types.Mindmap, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.mindmap, nil
}
func (s *stubMindmapService) Create(ctx context.Context, in aggregates.CreateMindmapInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}
func (s *stubMindmapService) UpdateMeta(ctx context.Context, in aggregates.UpdateMindmapMetaInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}
func (s *stubMindmapService) ReplaceLayout(ctx context.Context, in aggregates.ReplaceLayoutInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}
func (s *stubMindmapService) Delete(ctx context.Context, mindmapID, actorID uuid.UUID) error {
	return nil
}
func (s *stubMindmapService) AddNode(ctx context.Context, in aggregates.AddNodeInput) (*types.Mindmap, *types.MindmapNode, error) {
	s.lastAddNode = in
	return s.mindmap, &types.MindmapNode{ID: "n1"}, nil
}
func (s *stubMindmapService) RemoveNode(ctx context.Context, in aggregates.NodeRefInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}
func (s *stubMindmapService) MoveNode(ctx context.Context, in aggregates.MoveNodeInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}
func (s *stubMindmapService) UpdateNodeStatus(ctx context.Context, in aggregates.UpdateNodeStatusInput) (*types.Mindmap, *types.MindmapNode, error) {
	return s.mindmap, nil, nil
}
func (s *stubMindmapService) AddEdge(ctx context.Context, in aggregates.AddEdgeInput) (*types.Mindmap, *types.MindmapEdge, error) {
	return s.mindmap, &types.MindmapEdge{ID: "e1"}, nil
}
func (s *stubMindmapService) RemoveEdge(ctx context.Context, in aggregates.EdgeRefInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}
func (s *stubMindmapService) AddCollaborator(ctx context.Context, in aggregates.AddCollaboratorInput) (*types.Mindmap, error) {
	return s.mindmap, nil
}

func newMindmapTestRouter(svc *stubMindmapService, actor uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if actor != uuid.Nil {
		r.Use(func(c *gin.Context) {
			ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: actor})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
	mh := NewMindmapHandler(svc)
	r.GET("/api/mindmaps/:id", mh.Get)
	r.POST("/api/mindmaps/:id/nodes", mh.AddNode)
	return r
}

func TestMindmapGetRequiresIdentity(t *testing.T) {
	router := newMindmapTestRouter(&stubMindmapService{}, uuid.Nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mindmaps/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMindmapGetRejectsBadID(t *testing.T) {
	router := newMindmapTestRouter(&stubMindmapService{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mindmaps/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMindmapGetMapsDomainErrors(t *testing.T) {
	svc := &stubMindmapService{
		getErr: domainagg.NewError(domainagg.CodeNotFound, "mindmap.record_view", "mindmap not found", nil),
	}
	router := newMindmapTestRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mindmaps/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusNotFound)
	}
	var body struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.Error == nil || body.Error.Code != string(domainagg.CodeNotFound) {
		t.Fatalf("got error %+v, want code %q", body.Error, domainagg.CodeNotFound)
	}
}

func TestMindmapAddNodeBindsRequest(t *testing.T) {
	actor := uuid.New()
	svc := &stubMindmapService{mindmap: &types.Mindmap{ID: uuid.New()}}
	router := newMindmapTestRouter(svc, actor)

	mindmapID := uuid.New()
	payload := map[string]any{
		"version":      3,
		"topic_id":     uuid.NewString(),
		"position":     map[string]float64{"x": 10, "y": 20},
		"custom_label": "Goroutines",
	}
	raw, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/mindmaps/"+mindmapID.String()+"/nodes", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	in := svc.lastAddNode
	if in.ActorID != actor {
		t.Fatalf("got actor %s, want %s", in.ActorID, actor)
	}
	if in.MindmapID != mindmapID {
		t.Fatalf("got mindmap %s, want %s", in.MindmapID, mindmapID)
	}
	if in.IfVersion == nil || *in.IfVersion != 3 {
		t.Fatalf("got if-version %v, want 3", in.IfVersion)
	}
	if in.Node.Position.X != 10 || in.Node.Position.Y != 20 {
		t.Fatalf("got position %+v", in.Node.Position)
	}
	if in.Node.CustomLabel != "Goroutines" {
		t.Fatalf("got label %q", in.Node.CustomLabel)
	}
}
