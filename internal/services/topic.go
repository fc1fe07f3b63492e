package services

import (
	"context"
	"fmt"
	"strings"

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
	topicCachePrefix = "topic:"
	topicListPrefix  = "topics:list:"
)

// TopicDetail is a topic plus its resolved prerequisite and related
// summaries.
type TopicDetail struct {
	Topic         *types.Topic   `json:"topic"`
	Prerequisites []*types.Topic `json:"prerequisites,omitempty"`
	Related       []*types.Topic `json:"related,omitempty"`
}

type TopicPage struct {
	Topics []*types.Topic `json:"topics"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type TopicService interface {
	ListTopics(ctx context.Context, filter repos.TopicFilter) (*TopicPage, error)
	GetTopic(ctx context.Context, identifier string) (*TopicDetail, error)
	GetTopicBySlug(ctx context.Context, slug string) (*TopicDetail, error)
	SearchTopics(ctx context.Context, query string, limit int) ([]*types.Topic, error)
	CreateTopic(ctx context.Context, topic *types.Topic) (*types.Topic, error)
	UpdateTopic(ctx context.Context, actorID uuid.UUID, topic *types.Topic) (*types.Topic, error)
	PublishTopic(ctx context.Context, topicID, actorID uuid.UUID) error
	ArchiveTopic(ctx context.Context, topicID, actorID uuid.UUID) error
	DeleteTopic(ctx context.Context, topicID, actorID uuid.UUID) error
}

type topicService struct {
	db        *gorm.DB
	log       *logger.Logger
	topicRepo repos.TopicRepo
	aggregate aggregates.TopicAggregate
	cache     *redisdb.Client
	graphDB   *neo4jdb.Client
	metrics   *observability.Metrics
}

func NewTopicService(
	db *gorm.DB,
	log *logger.Logger,
	topicRepo repos.TopicRepo,
	aggregate aggregates.TopicAggregate,
	cache *redisdb.Client,
	graphDB *neo4jdb.Client,
	metrics *observability.Metrics,
) TopicService {
	return &topicService{
		db:        db,
		log:       log.With("service", "TopicService"),
		topicRepo: topicRepo,
		aggregate: aggregate,
		cache:     cache,
		graphDB:   graphDB,
		metrics:   metrics,
	}
}

func (ts *topicService) ListTopics(ctx context.Context, filter repos.TopicFilter) (*TopicPage, error) {
	const op = "topic.list"

	if filter.Category != "" && !types.ValidTopicCategory(filter.Category) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid category filter", nil)
	}
	if filter.Difficulty != "" && !types.ValidDifficulty(filter.Difficulty) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid difficulty filter", nil)
	}
	if filter.Status != "" && !types.ValidTopicStatus(filter.Status) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid status filter", nil)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s:%s:%d:%d",
		topicListPrefix, filter.Category, filter.Difficulty, filter.Status, filter.Search, filter.Limit, filter.Offset)
	var cached TopicPage
	if hit, err := ts.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		ts.metrics.IncCacheHit(topicListPrefix)
		return &cached, nil
	}
	ts.metrics.IncCacheMiss(topicListPrefix)

	topics, total, err := ts.topicRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	page := &TopicPage{Topics: topics, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	if err := ts.cache.SetJSON(ctx, cacheKey, page); err != nil {
		ts.log.Warn("Failed to cache topic list", "error", err)
	}
	return page, nil
}

// GetTopic resolves slug-or-id lookups: a parseable uuid is treated as
// the topic id, anything else as a slug.
func (ts *topicService) GetTopic(ctx context.Context, identifier string) (*TopicDetail, error) {
	const op = "topic.get"
	if id, err := uuid.Parse(identifier); err == nil {
		topic, err := ts.topicRepo.GetByID(ctx, nil, id)
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		return ts.GetTopicBySlug(ctx, topic.Slug)
	}
	return ts.GetTopicBySlug(ctx, identifier)
}

func (ts *topicService) SearchTopics(ctx context.Context, query string, limit int) ([]*types.Topic, error) {
	const op = "topic.search"
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "search query is required", nil)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("%ssearch:%s:%d", topicListPrefix, query, limit)
	var cached []*types.Topic
	if hit, err := ts.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		ts.metrics.IncCacheHit(topicListPrefix)
		return cached, nil
	}
	ts.metrics.IncCacheMiss(topicListPrefix)

	topics, err := ts.topicRepo.Search(ctx, nil, query, limit)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if err := ts.cache.SetJSON(ctx, cacheKey, topics); err != nil {
		ts.log.Warn("Failed to cache search results", "error", err)
	}
	return topics, nil
}

func (ts *topicService) GetTopicBySlug(ctx context.Context, slug string) (*TopicDetail, error) {
	const op = "topic.get"

	if slug == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "slug is required", nil)
	}

	cacheKey := topicCachePrefix + slug
	var cached TopicDetail
	if hit, err := ts.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		ts.metrics.IncCacheHit(topicCachePrefix)
		return &cached, nil
	}
	ts.metrics.IncCacheMiss(topicCachePrefix)

	topic, err := ts.topicRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	prereqs, err := ts.topicRepo.GetBySlugs(ctx, nil, topic.Prerequisites)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	related, err := ts.topicRepo.ListRelated(ctx, nil, topic, 5)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	detail := &TopicDetail{Topic: topic, Prerequisites: prereqs, Related: related}
	if err := ts.cache.SetJSON(ctx, cacheKey, detail); err != nil {
		ts.log.Warn("Failed to cache topic detail", "error", err)
	}
	return detail, nil
}

func (ts *topicService) CreateTopic(ctx context.Context, topic *types.Topic) (*types.Topic, error) {
	created, err := ts.aggregate.Create(ctx, topic)
	if err != nil {
		return nil, err
	}
	ts.afterTopicWrite(ctx, created)
	return created, nil
}

func (ts *topicService) UpdateTopic(ctx context.Context, actorID uuid.UUID, topic *types.Topic) (*types.Topic, error) {
	updated, err := ts.aggregate.Update(ctx, actorID, topic)
	if err != nil {
		return nil, err
	}
	ts.afterTopicWrite(ctx, updated)
	return updated, nil
}

func (ts *topicService) PublishTopic(ctx context.Context, topicID, actorID uuid.UUID) error {
	if err := ts.aggregate.Publish(ctx, topicID, actorID); err != nil {
		return err
	}
	if topic, err := ts.topicRepo.GetByID(ctx, nil, topicID); err == nil {
		ts.afterTopicWrite(ctx, topic)
	}
	return nil
}

func (ts *topicService) ArchiveTopic(ctx context.Context, topicID, actorID uuid.UUID) error {
	if err := ts.aggregate.Archive(ctx, topicID, actorID); err != nil {
		return err
	}
	if topic, err := ts.topicRepo.GetByID(ctx, nil, topicID); err == nil {
		ts.afterTopicWrite(ctx, topic)
	}
	return nil
}

func (ts *topicService) DeleteTopic(ctx context.Context, topicID, actorID uuid.UUID) error {
	topic, err := ts.topicRepo.GetByID(ctx, nil, topicID)
	if err != nil {
		return aggregates.MapError("topic.delete", err)
	}
	if err := ts.aggregate.Delete(ctx, topicID, actorID); err != nil {
		return err
	}
	ts.invalidate(ctx, topic.Slug)
	if err := graph.RemoveTopicGraph(ctx, ts.graphDB, topicID.String()); err != nil {
		ts.log.Warn("Failed to remove topic from graph", "error", err, "topic_id", topicID)
	}
	ts.metrics.IncGraphSync("topic", nil)
	return nil
}

// afterTopicWrite invalidates caches and mirrors the topic into the
// graph. Both are best-effort.
func (ts *topicService) afterTopicWrite(ctx context.Context, topic *types.Topic) {
	ts.invalidate(ctx, topic.Slug)
	prereqs, err := ts.topicRepo.GetBySlugs(ctx, nil, topic.Prerequisites)
	if err != nil {
		ts.log.Warn("Failed to resolve prerequisites for graph sync", "error", err)
		prereqs = nil
	}
	err = graph.UpsertTopicGraph(ctx, ts.graphDB, ts.log, topic, prereqs)
	if err != nil {
		ts.log.Warn("Graph sync failed for topic", "error", err, "topic_id", topic.ID)
	}
	ts.metrics.IncGraphSync("topic", err)
}

func (ts *topicService) invalidate(ctx context.Context, slug string) {
	if err := ts.cache.Delete(ctx, topicCachePrefix+slug); err != nil {
		ts.log.Warn("Failed to invalidate topic cache", "error", err)
	}
	if err := ts.cache.DeleteByPrefix(ctx, topicListPrefix); err != nil {
		ts.log.Warn("Failed to invalidate topic list cache", "error", err)
	}
}
