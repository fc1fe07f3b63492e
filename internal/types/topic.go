package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/normalization"
)

const (
	TopicCategoryProgramming = "programming"
	TopicCategoryFrontend    = "frontend"
	TopicCategoryBackend     = "backend"
	TopicCategoryDevops      = "devops"
	TopicCategoryDataScience = "data-science"
	TopicCategoryDesign      = "design"
	TopicCategoryMobile      = "mobile"
	TopicCategorySecurity    = "security"

	TopicStatusDraft     = "draft"
	TopicStatusReview    = "review"
	TopicStatusPublished = "published"
	TopicStatusArchived  = "archived"

	TopicDurationMinMinutes = 5
	TopicDurationMaxMinutes = 600
)

type TopicSection struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Resources        []string `json:"resources,omitempty"`
}

type TopicContent struct {
	Summary     string         `json:"summary"`
	KeyConcepts []string       `json:"key_concepts,omitempty"`
	Sections    []TopicSection `json:"sections,omitempty"`
}

type CompletionCriteria struct {
	RequiredSections   []string `json:"required_sections,omitempty"`
	QuizPassingScore   int      `json:"quiz_passing_score"`
	PracticalExercises int      `json:"practical_exercises"`
}

type TopicStats struct {
	TotalEnrollments      int     `json:"total_enrollments"`
	CompletionRate        float64 `json:"completion_rate"`
	AverageRating         float64 `json:"average_rating"`
	TotalTimeSpentMinutes int     `json:"total_time_spent_minutes"`
}

// Topic is one entry in the learning catalog. The slug is derived from
// the title when absent and must stay unique across the catalog.
type Topic struct {
	ID                       uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title                    string             `gorm:"not null;column:title" json:"title"`
	Slug                     string             `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description              string             `gorm:"column:description" json:"description"`
	Category                 string             `gorm:"not null;index;column:category" json:"category"`
	Subcategory              string             `gorm:"column:subcategory" json:"subcategory,omitempty"`
	Difficulty               string             `gorm:"not null;index;column:difficulty" json:"difficulty"`
	EstimatedDurationMinutes int                `gorm:"not null;column:estimated_duration_minutes" json:"estimated_duration_minutes"`
	Prerequisites            []string           `gorm:"type:jsonb;serializer:json;column:prerequisites" json:"prerequisites,omitempty"`
	LearningObjectives       []string           `gorm:"type:jsonb;serializer:json;column:learning_objectives" json:"learning_objectives,omitempty"`
	Content                  TopicContent       `gorm:"type:jsonb;serializer:json;column:content" json:"content"`
	CompletionCriteria       CompletionCriteria `gorm:"type:jsonb;serializer:json;column:completion_criteria" json:"completion_criteria"`
	Stats                    TopicStats         `gorm:"type:jsonb;serializer:json;column:stats" json:"stats"`
	Tags                     []string           `gorm:"type:jsonb;serializer:json;column:tags" json:"tags,omitempty"`
	SearchKeywords           []string           `gorm:"type:jsonb;serializer:json;column:search_keywords" json:"search_keywords,omitempty"`
	Status                   string             `gorm:"not null;default:'draft';index;column:status" json:"status"`
	Version                  string             `gorm:"not null;default:'1.0';column:version" json:"version"`
	AuthorID                 uuid.UUID          `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Author                   *User              `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Reviewers                []uuid.UUID        `gorm:"type:jsonb;serializer:json;column:reviewers" json:"reviewers,omitempty"`
	PublishedAt              *time.Time         `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt                time.Time          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                time.Time          `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string {
	return "topic"
}

// BeforeSave derives the slug from the title when the caller did not
// supply one.
func (t *Topic) BeforeSave(tx *gorm.DB) error {
	if t.Slug == "" && t.Title != "" {
		t.Slug = normalization.Slugify(t.Title)
	}
	return nil
}

func ValidTopicCategory(s string) bool {
	switch s {
	case TopicCategoryProgramming, TopicCategoryFrontend, TopicCategoryBackend,
		TopicCategoryDevops, TopicCategoryDataScience, TopicCategoryDesign,
		TopicCategoryMobile, TopicCategorySecurity:
		return true
	}
	return false
}

func ValidTopicStatus(s string) bool {
	switch s {
	case TopicStatusDraft, TopicStatusReview, TopicStatusPublished, TopicStatusArchived:
		return true
	}
	return false
}

// Validate checks the field constraints that the write path enforces
// before a topic reaches storage.
func (t *Topic) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 200 {
		return fmt.Errorf("title must be at most 200 characters")
	}
	if !ValidTopicCategory(t.Category) {
		return fmt.Errorf("invalid category %q", t.Category)
	}
	if !ValidDifficulty(t.Difficulty) {
		return fmt.Errorf("invalid difficulty %q", t.Difficulty)
	}
	if t.EstimatedDurationMinutes < TopicDurationMinMinutes || t.EstimatedDurationMinutes > TopicDurationMaxMinutes {
		return fmt.Errorf("estimated duration must be between %d and %d minutes",
			TopicDurationMinMinutes, TopicDurationMaxMinutes)
	}
	if t.Slug != "" && !normalization.IsValidSlug(t.Slug) {
		return fmt.Errorf("invalid slug %q", t.Slug)
	}
	if !ValidTopicStatus(t.Status) {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	return nil
}
