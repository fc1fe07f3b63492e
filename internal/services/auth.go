package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/normalization"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/repos"
	"github.com/yungbote/knowledgebase-backend/internal/requestdata"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Timezone string
	Language string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, *TokenPair, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error)
	LogoutUser(ctx context.Context, userID uuid.UUID) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  []byte(jwtSecretKey),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, *TokenPair, error) {
	const op = "auth.register"

	email := normalization.ParseInputString(in.Email)
	if !normalization.IsValidEmail(email) {
		return nil, nil, domainagg.NewError(domainagg.CodeValidation, op, "a valid email is required", nil)
	}
	if len(in.Password) < 8 {
		return nil, nil, domainagg.NewError(domainagg.CodeValidation, op, "password must be at least 8 characters", nil)
	}
	if in.Name == "" {
		return nil, nil, domainagg.NewError(domainagg.CodeValidation, op, "a name is required", nil)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if exists {
		return nil, nil, domainagg.NewError(domainagg.CodeConflict, op, "email is already in use", nil)
	}

	user := &types.User{
		ID:    uuid.New(),
		Email: email,
		Profile: types.UserProfile{
			Name:     in.Name,
			Timezone: in.Timezone,
			Language: in.Language,
		},
		Preferences: types.DefaultUserPreferences(),
		IsActive:    true,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if user.Profile.Language == "" {
		user.Profile.Language = "en"
	}
	if user.Profile.Timezone == "" {
		user.Profile.Timezone = "UTC"
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		p, err := as.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, pair, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	const op = "auth.login"

	email = normalization.ParseInputString(email)
	if email == "" || password == "" {
		return nil, nil, domainagg.NewError(domainagg.CodeValidation, op, "email and password are required", nil)
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, nil, domainagg.NewError(domainagg.CodePermissionDenied, op, "invalid email or password", nil)
	}
	if !user.IsActive {
		return nil, nil, domainagg.NewError(domainagg.CodePermissionDenied, op, "account is disabled", nil)
	}
	if !user.ComparePassword(password) {
		return nil, nil, domainagg.NewError(domainagg.CodePermissionDenied, op, "invalid email or password", nil)
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.userTokenRepo.DeleteExpired(ctx, tx); err != nil {
			return err
		}
		p, err := as.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return as.userRepo.TouchLastLogin(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return user, pair, nil
}

// RefreshUser rotates a refresh token: the presented token is deleted
// and a new pair issued, so a stolen token is only good once.
func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "auth.refresh"

	if refreshToken == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "refresh token is required", nil)
	}

	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := as.userTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "unknown refresh token", nil)
		}
		if stored.ExpiresAt.Before(time.Now()) {
			_ = as.userTokenRepo.DeleteByID(ctx, tx, stored.ID)
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "refresh token expired", nil)
		}
		user, err := as.userRepo.GetByID(ctx, tx, stored.UserID)
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.DeleteByID(ctx, tx, stored.ID); err != nil {
			return err
		}
		p, err := as.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		if domainagg.CodeOf(err) != "" {
			return nil, err
		}
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return pair, nil
}

func (as *authService) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	const op = "auth.logout"
	if userID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "user id is required", nil)
	}
	if err := as.userTokenRepo.DeleteByUserID(ctx, nil, userID); err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return nil
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*TokenPair, error) {
	accessToken, err := as.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken := uuid.NewString()
	_, err = as.userTokenRepo.Create(ctx, tx, &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		Issuer:    "knowledgebase-backend",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

// SetContextFromToken verifies a bearer token and stashes the caller
// identity in the request context.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "auth.verify"

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecretKey, nil
	})
	if err != nil || !token.Valid {
		return ctx, domainagg.NewError(domainagg.CodePermissionDenied, op, "invalid or expired token", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ctx, domainagg.NewError(domainagg.CodePermissionDenied, op, "malformed token claims", nil)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, domainagg.NewError(domainagg.CodePermissionDenied, op, "malformed token subject", err)
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}
