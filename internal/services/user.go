package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/repos"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// UserStatsReport combines the stored counters with live aggregate
// counts.
type UserStatsReport struct {
	Stats        types.UserStats `json:"stats"`
	MindmapCount int64           `json:"mindmap_count"`
}

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*UserStatsReport, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, profile types.UserProfile) (*types.User, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs types.UserPreferences) (*types.User, error)
	AddLearningTime(ctx context.Context, userID uuid.UUID, minutes int) error
	IncrementTopicsCompleted(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	mindmapRepo repos.MindmapRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, mindmapRepo repos.MindmapRepo) UserService {
	return &userService{
		db:          db,
		log:         log.With("service", "UserService"),
		userRepo:    userRepo,
		mindmapRepo: mindmapRepo,
	}
}

func (us *userService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	const op = "user.get"
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeNotFound, op, err)
	}
	return user, nil
}

func (us *userService) GetStats(ctx context.Context, userID uuid.UUID) (*UserStatsReport, error) {
	const op = "user.get_stats"
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeNotFound, op, err)
	}
	count, err := us.mindmapRepo.CountByUser(ctx, nil, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return &UserStatsReport{Stats: user.Stats, MindmapCount: count}, nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, profile types.UserProfile) (*types.User, error) {
	const op = "user.update_profile"
	if profile.Name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "name is required", nil)
	}
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeNotFound, op, err)
	}
	// The login timestamp belongs to the auth flow, not the caller.
	profile.LastLogin = user.Profile.LastLogin
	if err := us.userRepo.UpdateProfile(ctx, nil, userID, profile); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	user.Profile = profile
	return user, nil
}

func (us *userService) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs types.UserPreferences) (*types.User, error) {
	const op = "user.update_preferences"
	if !types.ValidLearningStyle(prefs.LearningStyle) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid learning style", nil)
	}
	if !types.ValidDifficulty(prefs.DifficultyPreference) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid difficulty preference", nil)
	}
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeNotFound, op, err)
	}
	if err := us.userRepo.UpdatePreferences(ctx, nil, userID, prefs); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	user.Preferences = prefs
	return user, nil
}

func (us *userService) AddLearningTime(ctx context.Context, userID uuid.UUID, minutes int) error {
	const op = "user.add_learning_time"
	if minutes <= 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "minutes must be positive", nil)
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := us.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op, err)
		}
		stats := user.Stats
		stats.TotalLearningTimeMinutes += minutes
		return us.userRepo.UpdateStats(ctx, tx, userID, stats)
	})
}

func (us *userService) IncrementTopicsCompleted(ctx context.Context, userID uuid.UUID) error {
	const op = "user.increment_topics_completed"
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := us.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op, err)
		}
		stats := user.Stats
		stats.TopicsCompleted++
		return us.userRepo.UpdateStats(ctx, tx, userID, stats)
	})
}
