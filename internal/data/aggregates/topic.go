package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/normalization"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// TopicAggregate owns catalog writes. Publication is a guarded status
// transition: only draft or review topics can be published, only
// published topics archived.
type TopicAggregate interface {
	Create(ctx context.Context, t *types.Topic) (*types.Topic, error)
	Update(ctx context.Context, actorID uuid.UUID, t *types.Topic) (*types.Topic, error)
	Publish(ctx context.Context, topicID, actorID uuid.UUID) error
	Archive(ctx context.Context, topicID, actorID uuid.UUID) error
	Delete(ctx context.Context, topicID, actorID uuid.UUID) error
}

type topicAggregate struct {
	deps BaseDeps
}

func NewTopicAggregate(deps BaseDeps) TopicAggregate {
	return &topicAggregate{deps: deps.withDefaults()}
}

func (a *topicAggregate) Create(ctx context.Context, t *types.Topic) (*types.Topic, error) {
	const op = "topic.create"
	if t == nil {
		return nil, MapError(op, ValidationError("topic is required"))
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = types.TopicStatusDraft
	}
	if t.Version == "" {
		t.Version = "1.0"
	}
	if t.Slug == "" {
		t.Slug = normalization.Slugify(t.Title)
	}
	if err := t.Validate(); err != nil {
		return nil, MapError(op, ValidationError(err.Error()))
	}
	err := executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		for _, slug := range t.Prerequisites {
			var count int64
			if err := dbc.Tx.WithContext(dbc.Ctx).Model(&types.Topic{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, "prerequisite topic "+slug+" does not exist", nil)
			}
		}
		return dbc.Tx.WithContext(dbc.Ctx).Create(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (a *topicAggregate) Update(ctx context.Context, actorID uuid.UUID, t *types.Topic) (*types.Topic, error) {
	const op = "topic.update"
	if t == nil || t.ID == uuid.Nil {
		return nil, MapError(op, ValidationError("topic id is required"))
	}
	if err := t.Validate(); err != nil {
		return nil, MapError(op, ValidationError(err.Error()))
	}
	err := executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var existing types.Topic
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&existing, "id = ?", t.ID).Error; err != nil {
			return err
		}
		if existing.AuthorID != actorID {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "only the author may update a topic", nil)
		}
		t.AuthorID = existing.AuthorID
		t.Status = existing.Status
		t.PublishedAt = existing.PublishedAt
		t.CreatedAt = existing.CreatedAt
		return dbc.Tx.WithContext(dbc.Ctx).Save(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (a *topicAggregate) Publish(ctx context.Context, topicID, actorID uuid.UUID) error {
	const op = "topic.publish"
	return a.transition(ctx, op, topicID, actorID,
		[]string{types.TopicStatusDraft, types.TopicStatusReview},
		map[string]any{
			"status":       types.TopicStatusPublished,
			"published_at": time.Now().UTC(),
			"updated_at":   time.Now().UTC(),
		})
}

func (a *topicAggregate) Archive(ctx context.Context, topicID, actorID uuid.UUID) error {
	const op = "topic.archive"
	return a.transition(ctx, op, topicID, actorID,
		[]string{types.TopicStatusPublished},
		map[string]any{
			"status":     types.TopicStatusArchived,
			"updated_at": time.Now().UTC(),
		})
}

func (a *topicAggregate) transition(ctx context.Context, op string, topicID, actorID uuid.UUID, from []string, updates map[string]any) error {
	if topicID == uuid.Nil {
		return MapError(op, ValidationError("topic id is required"))
	}
	return executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var t types.Topic
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&t, "id = ?", topicID).Error; err != nil {
			return err
		}
		if t.AuthorID != actorID {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "only the author may change topic status", nil)
		}
		ok, err := a.deps.CASGuard.UpdateByStatus(dbc, t.TableName(), topicID, from, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError("topic is not in a state that allows this transition")
		}
		return nil
	})
}

func (a *topicAggregate) Delete(ctx context.Context, topicID, actorID uuid.UUID) error {
	const op = "topic.delete"
	if topicID == uuid.Nil {
		return MapError(op, ValidationError("topic id is required"))
	}
	return executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var t types.Topic
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&t, "id = ?", topicID).Error; err != nil {
			return err
		}
		if t.AuthorID != actorID {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "only the author may delete a topic", nil)
		}
		return dbc.Tx.WithContext(dbc.Ctx).Delete(&types.Topic{}, "id = ?", topicID).Error
	})
}
