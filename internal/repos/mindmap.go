package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// MindmapRepo is the read side of the mindmap aggregate. All writes go
// through the aggregate so the version guard cannot be skipped.
type MindmapRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, mindmapID uuid.UUID) (*types.Mindmap, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Mindmap, error)
	GetPublic(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Mindmap, error)
	GetTemplates(ctx context.Context, tx *gorm.DB) ([]*types.Mindmap, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type mindmapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMindmapRepo(db *gorm.DB, baseLog *logger.Logger) MindmapRepo {
	return &mindmapRepo{db: db, log: baseLog.With("repo", "MindmapRepo")}
}

func (mr *mindmapRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return mr.db
}

func (mr *mindmapRepo) GetByID(ctx context.Context, tx *gorm.DB, mindmapID uuid.UUID) (*types.Mindmap, error) {
	var m types.Mindmap
	if err := mr.conn(tx).WithContext(ctx).First(&m, "id = ?", mindmapID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByUser returns maps the user owns or collaborates on, most
// recently accessed first. The collaborator check runs against the
// embedded shared_with document.
func (mr *mindmapRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Mindmap, error) {
	var maps []*types.Mindmap
	if err := mr.conn(tx).WithContext(ctx).
		Where("user_id = ? OR shared_with @> ?", userID, collaboratorProbe(userID)).
		Order("(stats->>'last_accessed') DESC NULLS LAST").
		Find(&maps).Error; err != nil {
		return nil, err
	}
	return maps, nil
}

func collaboratorProbe(userID uuid.UUID) string {
	return `[{"user_id":"` + userID.String() + `"}]`
}

func (mr *mindmapRepo) GetPublic(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Mindmap, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var maps []*types.Mindmap
	if err := mr.conn(tx).WithContext(ctx).
		Where("visibility = ?", types.VisibilityPublic).
		Order("((stats->>'view_count')::int) DESC, created_at DESC").
		Limit(limit).
		Find(&maps).Error; err != nil {
		return nil, err
	}
	return maps, nil
}

func (mr *mindmapRepo) GetTemplates(ctx context.Context, tx *gorm.DB) ([]*types.Mindmap, error) {
	var maps []*types.Mindmap
	if err := mr.conn(tx).WithContext(ctx).
		Where("is_template = ? AND visibility = ?", true, types.VisibilityPublic).
		Order("((stats->>'view_count')::int) DESC").
		Find(&maps).Error; err != nil {
		return nil, err
	}
	return maps, nil
}

func (mr *mindmapRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	if err := mr.conn(tx).WithContext(ctx).
		Model(&types.Mindmap{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
