package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// TopicFilter narrows List. Zero fields are ignored.
type TopicFilter struct {
	Category   string
	Difficulty string
	Status     string
	Search     string
	Limit      int
	Offset     int
}

type TopicRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (*types.Topic, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error)
	GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Topic, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filter TopicFilter) ([]*types.Topic, int64, error)
	ListRelated(ctx context.Context, tx *gorm.DB, topic *types.Topic, limit int) ([]*types.Topic, error)
	Search(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (tr *topicRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return tr.db
}

func (tr *topicRepo) GetByID(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (*types.Topic, error) {
	var topic types.Topic
	if err := tr.conn(tx).WithContext(ctx).First(&topic, "id = ?", topicID).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (tr *topicRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error) {
	var topic types.Topic
	if err := tr.conn(tx).WithContext(ctx).First(&topic, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (tr *topicRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Topic, error) {
	var topics []*types.Topic
	if len(slugs) == 0 {
		return topics, nil
	}
	if err := tr.conn(tx).WithContext(ctx).
		Where("slug IN ?", slugs).
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (tr *topicRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := tr.conn(tx).WithContext(ctx).
		Model(&types.Topic{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (tr *topicRepo) List(ctx context.Context, tx *gorm.DB, filter TopicFilter) ([]*types.Topic, int64, error) {
	q := tr.conn(tx).WithContext(ctx).Model(&types.Topic{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"lower(title) LIKE ? OR lower(description) LIKE ? OR search_keywords::text ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var topics []*types.Topic
	if err := q.Order("title asc").
		Limit(limit).
		Offset(filter.Offset).
		Find(&topics).Error; err != nil {
		return nil, 0, err
	}
	return topics, total, nil
}

// Search ranks published topics against the query with Postgres full
// text search over title, description and keywords.
func (tr *topicRepo) Search(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Topic, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	document := "to_tsvector('english', title || ' ' || coalesce(description, '') || ' ' || coalesce(search_keywords::text, ''))"
	var topics []*types.Topic
	if err := tr.conn(tx).WithContext(ctx).
		Where("status = ?", types.TopicStatusPublished).
		Where(document+" @@ plainto_tsquery('english', ?)", query).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "ts_rank(" + document + ", plainto_tsquery('english', ?)) DESC",
			Vars: []interface{}{query},
		}}).
		Limit(limit).
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// ListRelated finds published topics sharing the category, excluding
// the topic itself.
func (tr *topicRepo) ListRelated(ctx context.Context, tx *gorm.DB, topic *types.Topic, limit int) ([]*types.Topic, error) {
	if limit <= 0 {
		limit = 5
	}
	var topics []*types.Topic
	if err := tr.conn(tx).WithContext(ctx).
		Where("category = ? AND id <> ? AND status = ?", topic.Category, topic.ID, types.TopicStatusPublished).
		Order("title asc").
		Limit(limit).
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}
