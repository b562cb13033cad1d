package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

// SaveChunk records a bookmark. Saving the same chunk twice is a no-op
// update rather than a duplicate.
func (s *Store) SaveChunk(ctx context.Context, username, chunkMap, category string) error {
	if username == "" || chunkMap == "" {
		return apierr.Validation("username and chunk_map are required")
	}
	now := s.now()
	_, err := s.col(docs.ColSaved).UpdateOne(ctx,
		bson.M{"username": username, "chunkID": chunkMap},
		bson.M{
			"$set":         bson.M{"category": docs.NormalizeCategory(category), "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("docstore: save chunk: %w", err)
	}
	return nil
}

func (s *Store) UnsaveChunk(ctx context.Context, username, chunkMap string) error {
	if username == "" || chunkMap == "" {
		return apierr.Validation("username and chunk_map are required")
	}
	res, err := s.col(docs.ColSaved).DeleteOne(ctx, bson.M{"username": username, "chunkID": chunkMap})
	if err != nil {
		return fmt.Errorf("docstore: unsave chunk: %w", err)
	}
	if res.DeletedCount == 0 {
		return apierr.NotFound("saved chunk %q not found for %q", chunkMap, username)
	}
	return nil
}

func (s *Store) IsSaved(ctx context.Context, username, chunkMap string) (bool, error) {
	n, err := s.col(docs.ColSaved).CountDocuments(ctx,
		bson.M{"username": username, "chunkID": chunkMap},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("docstore: is saved: %w", err)
	}
	return n > 0, nil
}

// SavedSet returns the chunk ids a user has bookmarked, for decorating
// result pages in one query instead of per-item lookups.
func (s *Store) SavedSet(ctx context.Context, username string) (map[string]bool, error) {
	out := map[string]bool{}
	if username == "" {
		return out, nil
	}
	cur, err := s.col(docs.ColSaved).Find(ctx, bson.M{"username": username})
	if err != nil {
		return nil, fmt.Errorf("docstore: saved set: %w", err)
	}
	var rows []*docs.SavedChunk
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ChunkID] = true
	}
	return out, nil
}

func (s *Store) ListSaved(ctx context.Context, username string) ([]*docs.SavedChunk, error) {
	cur, err := s.col(docs.ColSaved).Find(ctx, bson.M{"username": username},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: list saved: %w", err)
	}
	var rows []*docs.SavedChunk
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
