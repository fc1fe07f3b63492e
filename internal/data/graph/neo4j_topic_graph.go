package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/platform/neo4jdb"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// UpsertTopicGraph mirrors a topic and its prerequisite links into
// neo4j. The mirror is best-effort: a nil client is a no-op and the
// caller decides whether failures are fatal.
func UpsertTopicGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, topic *types.Topic, prereqs []*types.Topic) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if topic == nil {
		return fmt.Errorf("neo4j topic graph sync: missing topic")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	node := map[string]any{
		"id":         topic.ID.String(),
		"slug":       topic.Slug,
		"title":      topic.Title,
		"category":   topic.Category,
		"difficulty": topic.Difficulty,
		"status":     topic.Status,
		"synced_at":  now,
	}

	rels := make([]map[string]any, 0, len(prereqs))
	for _, p := range prereqs {
		if p == nil {
			continue
		}
		rels = append(rels, map[string]any{
			"from_id":   p.ID.String(),
			"to_id":     topic.ID.String(),
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Schema helpers are best-effort; may fail for restricted users.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT topic_id_unique IF NOT EXISTS FOR (t:Topic) REQUIRE t.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (t:Topic {id: $node.id})
SET t += $node
`, map[string]any{"node": node})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Topic {id: r.from_id})
MATCH (b:Topic {id: r.to_id})
MERGE (a)-[e:PREREQUISITE_OF]->(b)
SET e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// RemoveTopicGraph detaches and deletes the topic node.
func RemoveTopicGraph(ctx context.Context, client *neo4jdb.Client, topicID string) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	return client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (t:Topic {id: $id}) DETACH DELETE t`, map[string]any{"id": topicID})
		if err != nil {
			return nil, err
		}
		return nil, consumeErr(res.Consume(ctx))
	})
}

func consumeErr(_ neo4j.ResultSummary, err error) error {
	return err
}
