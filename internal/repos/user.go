package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UpdateProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID, profile types.UserProfile) error
	UpdatePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefs types.UserPreferences) error
	UpdateStats(ctx context.Context, tx *gorm.DB, userID uuid.UUID, stats types.UserStats) error
	TouchLastLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if err := ur.conn(tx).WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var user types.User
	if err := ur.conn(tx).WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	var user types.User
	if err := ur.conn(tx).WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UpdateProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID, profile types.UserProfile) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("profile", jsonUpdate(profile)).Error
}

func (ur *userRepo) UpdatePreferences(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefs types.UserPreferences) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("preferences", jsonUpdate(prefs)).Error
}

func (ur *userRepo) UpdateStats(ctx context.Context, tx *gorm.DB, userID uuid.UUID, stats types.UserStats) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("stats", jsonUpdate(stats)).Error
}

func (ur *userRepo) TouchLastLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	user, err := ur.GetByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	now := nowUTC()
	user.Profile.LastLogin = &now
	return ur.UpdateProfile(ctx, tx, userID, user.Profile)
}
