package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/knowledgebase-backend/internal/app"
	"github.com/yungbote/knowledgebase-backend/internal/data/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/services"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// Seeds a demo account, a small published topic catalog and a starter
// mindmap so a fresh environment has something to click around in.
func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	user, _, err := a.Services.Auth.RegisterUser(ctx, services.RegisterInput{
		Email:    "demo@knowledgebase.dev",
		Password: "demo-password-123",
		Name:     "Demo User",
		Timezone: "UTC",
		Language: "en",
	})
	if err != nil {
		a.Log.Fatal("Failed to seed demo user", "error", err)
	}
	a.Log.Info("Seeded demo user", "user_id", user.ID, "email", user.Email)

	topics := []*types.Topic{
		{
			Title:                    "Go Fundamentals",
			Description:              "Syntax, types, slices, maps and the toolchain.",
			Category:                 types.TopicCategoryProgramming,
			Difficulty:               types.DifficultyBeginner,
			EstimatedDurationMinutes: 240,
			LearningObjectives:       []string{"Read and write idiomatic Go", "Use the standard toolchain"},
			Tags:                     []string{"go", "basics"},
		},
		{
			Title:                    "Concurrency in Go",
			Description:              "Goroutines, channels, select and the race detector.",
			Category:                 types.TopicCategoryProgramming,
			Difficulty:               types.DifficultyIntermediate,
			EstimatedDurationMinutes: 300,
			Prerequisites:            []string{"go-fundamentals"},
			Tags:                     []string{"go", "concurrency"},
		},
		{
			Title:                    "Building REST APIs",
			Description:              "HTTP servers, routing, middleware and JSON APIs.",
			Category:                 types.TopicCategoryBackend,
			Difficulty:               types.DifficultyIntermediate,
			EstimatedDurationMinutes: 360,
			Prerequisites:            []string{"go-fundamentals"},
			Tags:                     []string{"http", "api"},
		},
	}

	created := make([]*types.Topic, 0, len(topics))
	for _, topic := range topics {
		topic.AuthorID = user.ID
		topic.Status = types.TopicStatusDraft
		saved, err := a.Services.Topic.CreateTopic(ctx, topic)
		if err != nil {
			a.Log.Fatal("Failed to seed topic", "title", topic.Title, "error", err)
		}
		if err := a.Services.Topic.PublishTopic(ctx, saved.ID, user.ID); err != nil {
			a.Log.Fatal("Failed to publish topic", "title", topic.Title, "error", err)
		}
		created = append(created, saved)
		a.Log.Info("Seeded topic", "slug", saved.Slug)
	}

	m, err := a.Services.Mindmap.Create(ctx, aggregates.CreateMindmapInput{
		ActorID:     user.ID,
		Name:        "Go Learning Path",
		Description: "A starter map through the Go catalog.",
		Visibility:  types.VisibilityPublic,
		Template:    types.TemplateProgramming,
		LayoutStyle: types.LayoutHierarchical,
		Tags:        []string{"go", "starter"},
	})
	if err != nil {
		a.Log.Fatal("Failed to seed mindmap", "error", err)
	}

	nodeIDs := make([]string, 0, len(created))
	for i, topic := range created {
		_, node, addErr := a.Services.Mindmap.AddNode(ctx, aggregates.AddNodeInput{
			ActorID:   user.ID,
			MindmapID: m.ID,
			Node: types.NodeInput{
				TopicID:  topic.ID.String(),
				Position: types.Position{X: float64(120 * i), Y: float64(90 * i)},
			},
		})
		if addErr != nil {
			a.Log.Fatal("Failed to seed node", "topic", topic.Slug, "error", addErr)
		}
		nodeIDs = append(nodeIDs, node.ID)
	}

	for i := 1; i < len(nodeIDs); i++ {
		if _, _, err := a.Services.Mindmap.AddEdge(ctx, aggregates.AddEdgeInput{
			ActorID:   user.ID,
			MindmapID: m.ID,
			Edge: types.EdgeInput{
				Source: nodeIDs[0],
				Target: nodeIDs[i],
				Type:   types.EdgeTypePrerequisite,
			},
		}); err != nil {
			a.Log.Fatal("Failed to seed edge", "error", err)
		}
	}

	a.Log.Info("Seed complete", "mindmap_id", m.ID, "topics", len(created))
}
