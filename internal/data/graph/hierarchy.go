// Package graph mirrors the hierarchy into the graph store as light
// nodes: one node per level keyed by its relational primary key, plus
// HAS_* edges down the chain and HAS_KEYWORD leaves.
package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/gorm"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
	"github.com/studyvault/studyvault-backend/internal/platform/neo4jdb"
)

type Syncer struct {
	client *neo4jdb.Client
	db     *gorm.DB
	log    *logger.Logger
}

func NewSyncer(client *neo4jdb.Client, db *gorm.DB, baseLog *logger.Logger) *Syncer {
	return &Syncer{client: client, db: db, log: baseLog.With("service", "GraphSyncer")}
}

// Enabled reports whether a graph store is configured at all.
func (s *Syncer) Enabled() bool {
	return s != nil && s.client != nil && s.client.Driver != nil
}

type Result struct {
	Nodes          int `json:"nodes"`
	Relations      int `json:"relations"`
	Keywords       int `json:"keywords"`
	StaleRelations int `json:"stale_relations"`
	OrphansRemoved int `json:"orphans_removed"`
}

type levelNode struct {
	label string
	pgID  string
	name  string
}

// SyncChain mirrors one id chain into the graph. Node names come from
// the resolved documents, falling back to the relational id. A node
// already attached to a different parent is re-parented: the old edge
// is deleted before the new one is merged.
func (s *Syncer) SyncChain(ctx context.Context, ids hierarchy.CanonicalIDs, chain docs.Chain) (*Result, error) {
	if !s.Enabled() {
		return &Result{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	nodes := s.chainNodes(ids, chain)
	if len(nodes) == 0 {
		return &Result{}, nil
	}

	var keywords []*types.Keyword
	if ids.ChunkID != "" && s.db != nil {
		// Always read the keyword rows fresh so the graph reflects the
		// relational state, not the caller's view of it.
		if err := s.db.WithContext(ctx).
			Where("chunk_id = ?", ids.ChunkID).
			Order("keyword_id ASC").
			Find(&keywords).Error; err != nil {
			s.log.Warn("graph sync: keyword fetch failed", "chunk", ids.ChunkID, "error", err)
			keywords = nil
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	result := &Result{}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Level nodes.
		for _, n := range nodes {
			if res, err := tx.Run(ctx,
				"MERGE (n:"+n.label+" {pg_id: $pg_id}) SET n.name = $name, n.synced_at = $now",
				map[string]any{"pg_id": n.pgID, "name": n.name, "now": now},
			); err != nil {
				return nil, err
			} else if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
			result.Nodes++
		}

		// Parent edges with re-parenting.
		for i := 1; i < len(nodes); i++ {
			parent, child := nodes[i-1], nodes[i]
			rel := "HAS_" + relSuffix(child.label)
			query := `
MATCH (c:` + child.label + ` {pg_id: $child_id})
OPTIONAL MATCH (old:` + parent.label + `)-[r:` + rel + `]->(c)
WHERE old.pg_id <> $parent_id
DELETE r
WITH c
MATCH (p:` + parent.label + ` {pg_id: $parent_id})
MERGE (p)-[e:` + rel + `]->(c)
SET e.synced_at = $now`
			if res, err := tx.Run(ctx, query, map[string]any{
				"child_id":  child.pgID,
				"parent_id": parent.pgID,
				"now":       now,
			}); err != nil {
				return nil, err
			} else if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
			result.Relations++
		}

		if ids.ChunkID != "" {
			if err := s.syncKeywords(ctx, tx, ids.ChunkID, keywords, now, result); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Syncer) syncKeywords(ctx context.Context, tx neo4j.ManagedTransaction, chunkID string, keywords []*types.Keyword, now string, result *Result) error {
	rows := make([]map[string]any, 0, len(keywords))
	keep := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		rows = append(rows, map[string]any{"id": kw.KeywordID, "name": kw.KeywordName})
		keep = append(keep, kw.KeywordID)
	}

	if len(rows) > 0 {
		if res, err := tx.Run(ctx, `
MATCH (c:Chunk {pg_id: $chunk_id})
UNWIND $rows AS kw
MERGE (k:Keyword {pg_id: kw.id})
SET k.name = kw.name, k.synced_at = $now
MERGE (c)-[e:HAS_KEYWORD]->(k)
SET e.synced_at = $now`,
			map[string]any{"chunk_id": chunkID, "rows": rows, "now": now},
		); err != nil {
			return err
		} else if _, err := res.Consume(ctx); err != nil {
			return err
		}
		result.Keywords = len(rows)
	}

	// Drop relations to keywords no longer on the chunk.
	res, err := tx.Run(ctx, `
MATCH (c:Chunk {pg_id: $chunk_id})-[r:HAS_KEYWORD]->(k:Keyword)
WHERE NOT k.pg_id IN $keep
DELETE r`,
		map[string]any{"chunk_id": chunkID, "keep": keep})
	if err != nil {
		return err
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return err
	}
	result.StaleRelations = summary.Counters().RelationshipsDeleted()

	// Keyword nodes nothing points at anymore are garbage.
	res, err = tx.Run(ctx, `
MATCH (k:Keyword)
WHERE NOT ( ()-[:HAS_KEYWORD]->(k) )
DETACH DELETE k`, nil)
	if err != nil {
		return err
	}
	summary, err = res.Consume(ctx)
	if err != nil {
		return err
	}
	result.OrphansRemoved = summary.Counters().NodesDeleted()
	return nil
}

func (s *Syncer) chainNodes(ids hierarchy.CanonicalIDs, chain docs.Chain) []levelNode {
	var nodes []levelNode
	if ids.ClassID != "" {
		name := ids.ClassID
		if chain.Class != nil && chain.Class.ClassName != "" {
			name = chain.Class.ClassName
		}
		nodes = append(nodes, levelNode{"Class", ids.ClassID, name})
	} else {
		return nodes
	}
	if ids.SubjectID != "" {
		name := ids.SubjectID
		if chain.Subject != nil && chain.Subject.SubjectName != "" {
			name = chain.Subject.SubjectName
		}
		nodes = append(nodes, levelNode{"Subject", ids.SubjectID, name})
	} else {
		return nodes
	}
	if ids.TopicID != "" {
		name := ids.TopicID
		if chain.Topic != nil && chain.Topic.TopicName != "" {
			name = chain.Topic.TopicName
		}
		nodes = append(nodes, levelNode{"Topic", ids.TopicID, name})
	} else {
		return nodes
	}
	if ids.LessonID != "" {
		name := ids.LessonID
		if chain.Lesson != nil && chain.Lesson.LessonName != "" {
			name = chain.Lesson.LessonName
		}
		nodes = append(nodes, levelNode{"Lesson", ids.LessonID, name})
	} else {
		return nodes
	}
	if ids.ChunkID != "" {
		name := ids.ChunkID
		if chain.Chunk != nil && chain.Chunk.ChunkName != "" {
			name = chain.Chunk.ChunkName
		}
		nodes = append(nodes, levelNode{"Chunk", ids.ChunkID, name})
	}
	return nodes
}

func relSuffix(label string) string {
	switch label {
	case "Subject":
		return "SUBJECT"
	case "Topic":
		return "TOPIC"
	case "Lesson":
		return "LESSON"
	case "Chunk":
		return "CHUNK"
	}
	return "CHILD"
}
