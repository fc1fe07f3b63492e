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

// UpsertMindmapGraph mirrors a mindmap's layout into neo4j: one
// MapNode per node keyed by mindmap id + node id, typed edges between
// them. Stale nodes and edges from earlier versions are removed first
// so the mirror tracks the embedded document exactly.
func UpsertMindmapGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, m *types.Mindmap) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if m == nil {
		return fmt.Errorf("neo4j mindmap graph sync: missing mindmap")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	mapID := m.ID.String()

	nodes := make([]map[string]any, 0, len(m.Layout.Nodes))
	for i := range m.Layout.Nodes {
		n := &m.Layout.Nodes[i]
		nodes = append(nodes, map[string]any{
			"key":       mapID + ":" + n.ID,
			"node_id":   n.ID,
			"map_id":    mapID,
			"topic_id":  n.TopicID,
			"status":    n.Status,
			"x":         n.Position.X,
			"y":         n.Position.Y,
			"synced_at": now,
		})
	}

	rels := make([]map[string]any, 0, len(m.Layout.Edges))
	for i := range m.Layout.Edges {
		e := &m.Layout.Edges[i]
		rels = append(rels, map[string]any{
			"id":        e.ID,
			"from_key":  mapID + ":" + e.Source,
			"to_key":    mapID + ":" + e.Target,
			"edge_type": e.Type,
			"strength":  e.Strength,
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT map_node_key_unique IF NOT EXISTS FOR (n:MapNode) REQUIRE n.key IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:MapNode {map_id: $map_id})
DETACH DELETE n
`, map[string]any{"map_id": mapID})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (c:MapNode {key: n.key})
SET c += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:MapNode {key: r.from_key})
MATCH (b:MapNode {key: r.to_key})
MERGE (a)-[e:MAP_EDGE {id: r.id}]->(b)
SET e.edge_type = r.edge_type,
    e.strength = r.strength,
    e.synced_at = r.synced_at
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

// RemoveMindmapGraph deletes every mirrored node for a map.
func RemoveMindmapGraph(ctx context.Context, client *neo4jdb.Client, mindmapID string) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	return client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:MapNode {map_id: $id}) DETACH DELETE n`, map[string]any{"id": mindmapID})
		if err != nil {
			return nil, err
		}
		return nil, consumeErr(res.Consume(ctx))
	})
}
