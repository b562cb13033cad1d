// Package docstore owns the document-store side of the hierarchy: the
// merge-upsert chain writer, visibility flips, browse reads and the
// per-user saved-chunk records. Documents are keyed by their map key
// (classID alone for classes, levelID plus levelCategory below that).
package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/studyvault/studyvault-backend/internal/embedding"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type Store struct {
	db       *mongo.Database
	embedder embedding.Provider
	log      *logger.Logger
	now      func() time.Time
}

func New(db *mongo.Database, embedder embedding.Provider, baseLog *logger.Logger) *Store {
	return &Store{
		db:       db,
		embedder: embedder,
		log:      baseLog.With("store", "DocStore"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) col(name string) *mongo.Collection { return s.db.Collection(name) }

// Embed is exposed so callers syncing keyword vectors elsewhere reuse
// the same provider instance.
func (s *Store) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

func (s *Store) EmbedderName() string { return s.embedder.Name() }
