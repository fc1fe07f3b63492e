package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	aggregates "github.com/yungbote/knowledgebase-backend/internal/data/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/data/graph"
	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/observability"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/platform/neo4jdb"
	"github.com/yungbote/knowledgebase-backend/internal/platform/redisdb"
	"github.com/yungbote/knowledgebase-backend/internal/repos"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

const (
	mindmapPublicCacheKey    = "mindmaps:public"
	mindmapTemplatesCacheKey = "mindmaps:templates"
)

type MindmapService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Mindmap, error)
	ListPublic(ctx context.Context, limit int) ([]*types.Mindmap, error)
	ListTemplates(ctx context.Context) ([]*types.Mindmap, error)
	Get(ctx context.Context, mindmapID, actorID uuid.UUID) (*types.Mindmap, error)
	Create(ctx context.Context, in aggregates.CreateMindmapInput) (*types.Mindmap, error)
	UpdateMeta(ctx context.Context, in aggregates.UpdateMindmapMetaInput) (*types.Mindmap, error)
	ReplaceLayout(ctx context.Context, in aggregates.ReplaceLayoutInput) (*types.Mindmap, error)
	Delete(ctx context.Context, mindmapID, actorID uuid.UUID) error
	AddNode(ctx context.Context, in aggregates.AddNodeInput) (*types.Mindmap, *types.MindmapNode, error)
	RemoveNode(ctx context.Context, in aggregates.NodeRefInput) (*types.Mindmap, error)
	MoveNode(ctx context.Context, in aggregates.MoveNodeInput) (*types.Mindmap, error)
	UpdateNodeStatus(ctx context.Context, in aggregates.UpdateNodeStatusInput) (*types.Mindmap, *types.MindmapNode, error)
	AddEdge(ctx context.Context, in aggregates.AddEdgeInput) (*types.Mindmap, *types.MindmapEdge, error)
	RemoveEdge(ctx context.Context, in aggregates.EdgeRefInput) (*types.Mindmap, error)
	AddCollaborator(ctx context.Context, in aggregates.AddCollaboratorInput) (*types.Mindmap, error)
}

type mindmapService struct {
	db          *gorm.DB
	log         *logger.Logger
	mindmapRepo repos.MindmapRepo
	topicRepo   repos.TopicRepo
	aggregate   aggregates.MindmapAggregate
	users       UserService
	cache       *redisdb.Client
	graphDB     *neo4jdb.Client
	metrics     *observability.Metrics
}

func NewMindmapService(
	db *gorm.DB,
	log *logger.Logger,
	mindmapRepo repos.MindmapRepo,
	topicRepo repos.TopicRepo,
	aggregate aggregates.MindmapAggregate,
	users UserService,
	cache *redisdb.Client,
	graphDB *neo4jdb.Client,
	metrics *observability.Metrics,
) MindmapService {
	return &mindmapService{
		db:          db,
		log:         log.With("service", "MindmapService"),
		mindmapRepo: mindmapRepo,
		topicRepo:   topicRepo,
		aggregate:   aggregate,
		users:       users,
		cache:       cache,
		graphDB:     graphDB,
		metrics:     metrics,
	}
}

func (ms *mindmapService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Mindmap, error) {
	const op = "mindmap.list_for_user"
	if userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "user id is required", nil)
	}
	maps, err := ms.mindmapRepo.GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return maps, nil
}

func (ms *mindmapService) ListPublic(ctx context.Context, limit int) ([]*types.Mindmap, error) {
	const op = "mindmap.list_public"
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	cacheKey := fmt.Sprintf("%s:%d", mindmapPublicCacheKey, limit)
	var cached []*types.Mindmap
	if hit, err := ms.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		ms.metrics.IncCacheHit(mindmapPublicCacheKey)
		return cached, nil
	}
	ms.metrics.IncCacheMiss(mindmapPublicCacheKey)

	maps, err := ms.mindmapRepo.GetPublic(ctx, nil, limit)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if err := ms.cache.SetJSON(ctx, cacheKey, maps); err != nil {
		ms.log.Warn("Failed to cache public mindmaps", "error", err)
	}
	return maps, nil
}

func (ms *mindmapService) ListTemplates(ctx context.Context) ([]*types.Mindmap, error) {
	const op = "mindmap.list_templates"
	var cached []*types.Mindmap
	if hit, err := ms.cache.GetJSON(ctx, mindmapTemplatesCacheKey, &cached); err == nil && hit {
		ms.metrics.IncCacheHit(mindmapTemplatesCacheKey)
		return cached, nil
	}
	ms.metrics.IncCacheMiss(mindmapTemplatesCacheKey)

	maps, err := ms.mindmapRepo.GetTemplates(ctx, nil)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if err := ms.cache.SetJSON(ctx, mindmapTemplatesCacheKey, maps); err != nil {
		ms.log.Warn("Failed to cache mindmap templates", "error", err)
	}
	return maps, nil
}

// Get loads one map the caller may view, recording the view in the
// same guarded write path as any other mutation.
func (ms *mindmapService) Get(ctx context.Context, mindmapID, actorID uuid.UUID) (*types.Mindmap, error) {
	return ms.aggregate.RecordView(ctx, mindmapID, actorID)
}

func (ms *mindmapService) Create(ctx context.Context, in aggregates.CreateMindmapInput) (*types.Mindmap, error) {
	m, err := ms.aggregate.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.afterWrite(ctx, m)
	return m, nil
}

func (ms *mindmapService) UpdateMeta(ctx context.Context, in aggregates.UpdateMindmapMetaInput) (*types.Mindmap, error) {
	m, err := ms.aggregate.UpdateMeta(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.afterWrite(ctx, m)
	return m, nil
}

func (ms *mindmapService) ReplaceLayout(ctx context.Context, in aggregates.ReplaceLayoutInput) (*types.Mindmap, error) {
	if err := ms.checkLayoutTopics(ctx, in.Layout); err != nil {
		return nil, err
	}
	m, err := ms.aggregate.ReplaceLayout(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.afterWrite(ctx, m)
	return m, nil
}

func (ms *mindmapService) Delete(ctx context.Context, mindmapID, actorID uuid.UUID) error {
	if err := ms.aggregate.Delete(ctx, mindmapID, actorID); err != nil {
		return err
	}
	ms.invalidateLists(ctx)
	if err := graph.RemoveMindmapGraph(ctx, ms.graphDB, mindmapID.String()); err != nil {
		ms.log.Warn("Failed to remove mindmap from graph", "error", err, "mindmap_id", mindmapID)
	}
	ms.metrics.IncGraphSync("mindmap", nil)
	return nil
}

// AddNode checks that a referenced topic exists before the aggregate
// write. The check lives here so the aggregate stays a pure document
// mutation and the validation is reachable by every transport.
func (ms *mindmapService) AddNode(ctx context.Context, in aggregates.AddNodeInput) (*types.Mindmap, *types.MindmapNode, error) {
	const op = "mindmap.add_node"
	if in.Node.TopicID != "" {
		if err := ms.checkTopicRef(ctx, op, in.Node.TopicID); err != nil {
			return nil, nil, err
		}
	}
	m, node, err := ms.aggregate.AddNode(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	ms.afterWrite(ctx, m)
	return m, node, nil
}

func (ms *mindmapService) RemoveNode(ctx context.Context, in aggregates.NodeRefInput) (*types.Mindmap, error) {
	m, err := ms.aggregate.RemoveNode(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.afterWrite(ctx, m)
	return m, nil
}

func (ms *mindmapService) MoveNode(ctx context.Context, in aggregates.MoveNodeInput) (*types.Mindmap, error) {
	m, err := ms.aggregate.MoveNode(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.afterWrite(ctx, m)
	return m, nil
}

func (ms *mindmapService) UpdateNodeStatus(ctx context.Context, in aggregates.UpdateNodeStatusInput) (*types.Mindmap, *types.MindmapNode, error) {
	m, node, err := ms.aggregate.UpdateNodeStatus(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	ms.afterWrite(ctx, m)
	if ms.users != nil && completedNow(m, node) {
		if err := ms.users.IncrementTopicsCompleted(ctx, in.ActorID); err != nil {
			ms.log.Warn("Failed to bump topics completed", "error", err, "user_id", in.ActorID)
		}
	}
	return m, node, nil
}

// completedNow reports whether the write that produced m moved the node
// into completed, judged by the status-change entry it just logged.
func completedNow(m *types.Mindmap, node *types.MindmapNode) bool {
	if node == nil || node.Status != types.NodeStatusCompleted || len(m.ActivityLog) == 0 {
		return false
	}
	last := m.ActivityLog[len(m.ActivityLog)-1]
	return last.Target == node.ID && last.Details.Status != nil &&
		last.Details.Status.OldStatus != types.NodeStatusCompleted
}

func (ms *mindmapService) AddEdge(ctx context.Context, in aggregates.AddEdgeInput) (*types.Mindmap, *types.MindmapEdge, error) {
	m, edge, err := ms.aggregate.AddEdge(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	ms.afterWrite(ctx, m)
	return m, edge, nil
}

func (ms *mindmapService) RemoveEdge(ctx context.Context, in aggregates.EdgeRefInput) (*types.Mindmap, error) {
	m, err := ms.aggregate.RemoveEdge(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.afterWrite(ctx, m)
	return m, nil
}

func (ms *mindmapService) AddCollaborator(ctx context.Context, in aggregates.AddCollaboratorInput) (*types.Mindmap, error) {
	m, err := ms.aggregate.AddCollaborator(ctx, in)
	if err != nil {
		return nil, err
	}
	ms.invalidateLists(ctx)
	return m, nil
}

// checkTopicRef resolves a node's topic reference, which may be either
// a topic id or a slug.
func (ms *mindmapService) checkTopicRef(ctx context.Context, op, topicID string) error {
	if id, err := uuid.Parse(topicID); err == nil {
		if _, err := ms.topicRepo.GetByID(ctx, nil, id); err != nil {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "referenced topic does not exist", err)
		}
		return nil
	}
	exists, err := ms.topicRepo.SlugExists(ctx, nil, topicID)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if !exists {
		return domainagg.NewError(domainagg.CodePreconditionFailed, op, "referenced topic does not exist", nil)
	}
	return nil
}

func (ms *mindmapService) checkLayoutTopics(ctx context.Context, layout types.MindmapLayout) error {
	const op = "mindmap.replace_layout"
	for i := range layout.Nodes {
		if layout.Nodes[i].TopicID == "" {
			continue
		}
		if err := ms.checkTopicRef(ctx, op, layout.Nodes[i].TopicID); err != nil {
			return err
		}
	}
	return nil
}

func (ms *mindmapService) afterWrite(ctx context.Context, m *types.Mindmap) {
	ms.invalidateLists(ctx)
	err := graph.UpsertMindmapGraph(ctx, ms.graphDB, ms.log, m)
	if err != nil {
		ms.log.Warn("Graph sync failed for mindmap", "error", err, "mindmap_id", m.ID)
	}
	ms.metrics.IncGraphSync("mindmap", err)
}

func (ms *mindmapService) invalidateLists(ctx context.Context) {
	if err := ms.cache.DeleteByPrefix(ctx, mindmapPublicCacheKey); err != nil {
		ms.log.Warn("Failed to invalidate public mindmap cache", "error", err)
	}
	if err := ms.cache.Delete(ctx, mindmapTemplatesCacheKey); err != nil {
		ms.log.Warn("Failed to invalidate template cache", "error", err)
	}
}
