package types

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	LearningStyleVisual      = "visual"
	LearningStyleTextual     = "textual"
	LearningStyleInteractive = "interactive"
	LearningStyleMixed       = "mixed"

	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type UserProfile struct {
	Name      string     `json:"name"`
	Timezone  string     `json:"timezone"`
	Language  string     `json:"language"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type UserPreferences struct {
	LearningStyle        string `json:"learning_style"`
	DifficultyPreference string `json:"difficulty_preference"`
}

type UserStats struct {
	TotalLearningTimeMinutes int `json:"total_learning_time_minutes"`
	TopicsCompleted          int `json:"topics_completed"`
	LearningStreakDays       int `json:"learning_streak_days"`
}

// User holds one identity per unique email. The password hash is
// write-only: it never appears in serialized output.
type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email        string          `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string          `gorm:"not null;column:password_hash" json:"-"`
	Profile      UserProfile     `gorm:"type:jsonb;serializer:json;column:profile" json:"profile"`
	Preferences  UserPreferences `gorm:"type:jsonb;serializer:json;column:preferences" json:"preferences"`
	Stats        UserStats       `gorm:"type:jsonb;serializer:json;column:stats" json:"stats"`
	IsActive     bool            `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt    time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "app_user"
}

const PasswordHashCost = 12

// SetPassword stores the bcrypt hash of the plaintext password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// ComparePassword reports whether the plaintext matches the stored hash.
func (u *User) ComparePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		LearningStyle:        LearningStyleMixed,
		DifficultyPreference: DifficultyIntermediate,
	}
}

func ValidLearningStyle(s string) bool {
	switch s {
	case LearningStyleVisual, LearningStyleTextual, LearningStyleInteractive, LearningStyleMixed:
		return true
	}
	return false
}

func ValidDifficulty(s string) bool {
	switch s {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
