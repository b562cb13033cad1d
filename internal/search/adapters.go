package search

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	repos "github.com/studyvault/studyvault-backend/internal/data/repos/content"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// relationalAdapter binds the engine to the gorm-backed repositories.
type relationalAdapter struct {
	chunks   repos.ChunkRepo
	keywords repos.KeywordRepo
}

func NewRelational(db *gorm.DB, baseLog *logger.Logger) Relational {
	return &relationalAdapter{
		chunks:   repos.NewChunkRepo(db, baseLog),
		keywords: repos.NewKeywordRepo(db, baseLog),
	}
}

func (a *relationalAdapter) ChunkIDsUnder(ctx context.Context, level, id string) ([]string, error) {
	switch level {
	case "lesson":
		return a.chunks.IDsUnderLesson(ctx, nil, id)
	case "topic":
		return a.chunks.IDsUnderTopic(ctx, nil, id)
	case "subject":
		return a.chunks.IDsUnderSubject(ctx, nil, id)
	case "class":
		return a.chunks.IDsUnderClass(ctx, nil, id)
	}
	return nil, apierr.Validation("unknown restriction level %q", level)
}

func (a *relationalAdapter) KeywordVectors(ctx context.Context, chunkIDs []string) ([]KeywordVector, error) {
	rows, err := a.keywords.ListWithEmbeddings(ctx, nil, chunkIDs)
	if err != nil {
		return nil, err
	}
	out := make([]KeywordVector, 0, len(rows))
	for _, row := range rows {
		var vec []float32
		if len(row.Embedding) > 0 {
			if err := json.Unmarshal(row.Embedding, &vec); err != nil {
				continue
			}
		}
		out = append(out, KeywordVector{
			KeywordID: row.KeywordID,
			ChunkID:   row.ChunkID,
			Vector:    vec,
		})
	}
	return out, nil
}

func (a *relationalAdapter) MongoRefs(ctx context.Context, chunkIDs []string) (map[string]string, error) {
	rows, err := a.chunks.GetByIDs(ctx, nil, chunkIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.MongoID != nil && *row.MongoID != "" {
			out[row.ChunkID] = *row.MongoID
		}
	}
	return out, nil
}

func (a *relationalAdapter) Hierarchies(ctx context.Context, chunkIDs []string) (map[string]*repos.ChunkHierarchy, error) {
	rows, err := a.chunks.HierarchyByIDs(ctx, nil, chunkIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*repos.ChunkHierarchy, len(rows))
	for _, row := range rows {
		out[row.ChunkID] = row
	}
	return out, nil
}

// documentsAdapter binds the engine to the document store.
type documentsAdapter struct {
	store *docstore.Store
}

func NewDocuments(store *docstore.Store) Documents {
	return &documentsAdapter{store: store}
}

func (a *documentsAdapter) ChunksByObjectIDs(ctx context.Context, hexIDs []string) (map[string]*docs.ChunkDoc, error) {
	return a.store.ChunksByObjectIDs(ctx, hexIDs)
}

func (a *documentsAdapter) SavedSet(ctx context.Context, username string) (map[string]bool, error) {
	return a.store.SavedSet(ctx, username)
}
