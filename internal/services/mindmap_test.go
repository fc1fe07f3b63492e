package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	aggregates "github.com/yungbote/knowledgebase-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/repos"
	"github.com/yungbote/knowledgebase-backend/internal/repos/testutil"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

type stubTopicRepo struct {
	repos.TopicRepo

	knownID   uuid.UUID
	knownSlug string
}

func (s *stubTopicRepo) GetByID(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (*types.Topic, error) {
	if topicID == s.knownID {
		return &types.Topic{ID: topicID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTopicRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	return slug == s.knownSlug, nil
}

type stubMindmapAggregate struct {
	aggregates.MindmapAggregate

	mindmap *types.Mindmap
	node    *types.MindmapNode
	added   []aggregates.AddNodeInput
}

func (s *stubMindmapAggregate) AddNode(ctx context.Context, in aggregates.AddNodeInput) (*types.Mindmap, *types.MindmapNode, error) {
	s.added = append(s.added, in)
	return s.mindmap, s.node, nil
}

func (s *stubMindmapAggregate) UpdateNodeStatus(ctx context.Context, in aggregates.UpdateNodeStatusInput) (*types.Mindmap, *types.MindmapNode, error) {
	return s.mindmap, s.node, nil
}

type stubUserService struct {
	UserService

	increments []uuid.UUID
}

func (s *stubUserService) IncrementTopicsCompleted(ctx context.Context, userID uuid.UUID) error {
	s.increments = append(s.increments, userID)
	return nil
}

func newStubbedMindmapService(t *testing.T, agg *stubMindmapAggregate, topics *stubTopicRepo, users UserService) MindmapService {
	t.Helper()
	return NewMindmapService(nil, testutil.Logger(t), nil, topics, agg, users, nil, nil, nil)
}

func TestAddNodeAcceptsTopicSlugOrID(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	topicID := uuid.New()
	topics := &stubTopicRepo{knownID: topicID, knownSlug: "html"}
	agg := &stubMindmapAggregate{
		mindmap: &types.Mindmap{ID: uuid.New(), UserID: owner},
		node:    &types.MindmapNode{ID: "n1"},
	}
	svc := newStubbedMindmapService(t, agg, topics, nil)

	cases := []struct {
		name    string
		topicID string
		wantErr domainagg.ErrorCode
	}{
		{"known slug", "html", ""},
		{"known id", topicID.String(), ""},
		{"unknown slug", "ghost", domainagg.CodePreconditionFailed},
		{"unknown id", uuid.NewString(), domainagg.CodePreconditionFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.AddNode(ctx, aggregates.AddNodeInput{
				ActorID:   owner,
				MindmapID: agg.mindmap.ID,
				Node:      types.NodeInput{TopicID: tc.topicID},
			})
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("AddNode(%q): %v", tc.topicID, err)
				}
				return
			}
			if !domainagg.IsCode(err, tc.wantErr) {
				t.Fatalf("AddNode(%q): got %v, want %s", tc.topicID, err, tc.wantErr)
			}
		})
	}
}

func TestNodeCompletionBumpsUserStats(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()

	completed := &types.Mindmap{ID: uuid.New(), UserID: actor}
	completed.ActivityLog = []types.ActivityEntry{{
		UserID: actor,
		Action: types.ActionNodeCompleted,
		Target: "n1",
		Details: types.ActivityDetails{
			Status: &types.StatusChangeDetails{
				OldStatus: types.NodeStatusNotStarted,
				NewStatus: types.NodeStatusCompleted,
			},
		},
	}}
	users := &stubUserService{}
	agg := &stubMindmapAggregate{
		mindmap: completed,
		node:    &types.MindmapNode{ID: "n1", Status: types.NodeStatusCompleted},
	}
	svc := newStubbedMindmapService(t, agg, &stubTopicRepo{}, users)

	if _, _, err := svc.UpdateNodeStatus(ctx, aggregates.UpdateNodeStatusInput{
		ActorID:   actor,
		MindmapID: completed.ID,
		NodeID:    "n1",
		Status:    types.NodeStatusCompleted,
	}); err != nil {
		t.Fatalf("UpdateNodeStatus: %v", err)
	}
	if len(users.increments) != 1 || users.increments[0] != actor {
		t.Fatalf("increments = %v, want one for %s", users.increments, actor)
	}

	// Re-completing an already-completed node must not bump the stat.
	completed.ActivityLog[0].Details.Status.OldStatus = types.NodeStatusCompleted
	if _, _, err := svc.UpdateNodeStatus(ctx, aggregates.UpdateNodeStatusInput{
		ActorID:   actor,
		MindmapID: completed.ID,
		NodeID:    "n1",
		Status:    types.NodeStatusCompleted,
	}); err != nil {
		t.Fatalf("UpdateNodeStatus: %v", err)
	}
	if len(users.increments) != 1 {
		t.Fatalf("increments = %v, want unchanged", users.increments)
	}
}
