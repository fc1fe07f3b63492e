package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type UserTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, token *types.UserToken) (*types.UserToken, error)
	GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, tx *gorm.DB) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (tr *userTokenRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return tr.db
}

func (tr *userTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.UserToken) (*types.UserToken, error) {
	if err := tr.conn(tx).WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (tr *userTokenRepo) GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error) {
	var token types.UserToken
	if err := tr.conn(tx).WithContext(ctx).First(&token, "refresh_token = ?", refreshToken).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (tr *userTokenRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tr.conn(tx).WithContext(ctx).Delete(&types.UserToken{}, "id = ?", id).Error
}

func (tr *userTokenRepo) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return tr.conn(tx).WithContext(ctx).Delete(&types.UserToken{}, "user_id = ?", userID).Error
}

func (tr *userTokenRepo) DeleteExpired(ctx context.Context, tx *gorm.DB) (int64, error) {
	res := tr.conn(tx).WithContext(ctx).Delete(&types.UserToken{}, "expires_at < ?", time.Now().UTC())
	return res.RowsAffected, res.Error
}
