package types

import (
	"testing"

	"github.com/google/uuid"
)

func validTopic() *Topic {
	return &Topic{
		Title:                    "Go Fundamentals",
		Category:                 TopicCategoryProgramming,
		Difficulty:               DifficultyBeginner,
		EstimatedDurationMinutes: 120,
		Status:                   TopicStatusDraft,
		AuthorID:                 uuid.New(),
	}
}

func TestTopicValidate(t *testing.T) {
	if err := validTopic().Validate(); err != nil {
		t.Fatalf("valid topic rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Topic)
	}{
		{"empty title", func(tp *Topic) { tp.Title = "" }},
		{"bad category", func(tp *Topic) { tp.Category = "cooking" }},
		{"bad difficulty", func(tp *Topic) { tp.Difficulty = "expert" }},
		{"duration too short", func(tp *Topic) { tp.EstimatedDurationMinutes = 4 }},
		{"duration too long", func(tp *Topic) { tp.EstimatedDurationMinutes = 601 }},
		{"bad slug", func(tp *Topic) { tp.Slug = "Not A Slug!" }},
		{"bad status", func(tp *Topic) { tp.Status = "live" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tp := validTopic()
			tc.mutate(tp)
			if err := tp.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestTopicBeforeSaveDerivesSlug(t *testing.T) {
	tp := validTopic()
	tp.Title = "C++ & Friends!"
	if err := tp.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if tp.Slug != "c-friends" {
		t.Fatalf("slug = %q, want %q", tp.Slug, "c-friends")
	}

	tp2 := validTopic()
	tp2.Slug = "explicit-slug"
	if err := tp2.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if tp2.Slug != "explicit-slug" {
		t.Fatalf("explicit slug overwritten: %q", tp2.Slug)
	}
}
