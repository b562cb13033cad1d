package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type KeywordRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Keyword) error

	// ReplaceForChunk swaps the full keyword set of a chunk: every
	// existing row is deleted, then the supplied rows are inserted.
	// Callers run it inside the chunk-sync transaction.
	ReplaceForChunk(ctx context.Context, tx *gorm.DB, chunkID string, rows []*types.Keyword) error

	ListByChunkID(ctx context.Context, tx *gorm.DB, chunkID string) ([]*types.Keyword, error)

	// ListWithEmbeddings returns rows carrying an embedding vector,
	// optionally restricted to a candidate chunk-id set (nil means all).
	ListWithEmbeddings(ctx context.Context, tx *gorm.DB, chunkIDs []string) ([]*types.Keyword, error)
}

type keywordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKeywordRepo(db *gorm.DB, baseLog *logger.Logger) KeywordRepo {
	return &keywordRepo{db: db, log: baseLog.With("repo", "KeywordRepo")}
}

func (r *keywordRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Keyword) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "keyword_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"keyword_name":       row.KeywordName,
			"chunk_id":           row.ChunkID,
			"keyword_embedding":  row.Embedding,
			"embedding_provider": row.EmbeddingProvider,
			"mongo_id":           gorm.Expr(`COALESCE(EXCLUDED.mongo_id, "keyword".mongo_id)`),
		}),
	}).Create(row).Error
}

func (r *keywordRepo) ReplaceForChunk(ctx context.Context, tx *gorm.DB, chunkID string, rows []*types.Keyword) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		Delete(&types.Keyword{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	const batchSize = 200
	return transaction.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

func (r *keywordRepo) ListByChunkID(ctx context.Context, tx *gorm.DB, chunkID string) ([]*types.Keyword, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Keyword
	if err := transaction.WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		Order("keyword_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *keywordRepo) ListWithEmbeddings(ctx context.Context, tx *gorm.DB, chunkIDs []string) ([]*types.Keyword, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("keyword_embedding IS NOT NULL")
	if chunkIDs != nil {
		if len(chunkIDs) == 0 {
			return []*types.Keyword{}, nil
		}
		q = q.Where("chunk_id IN ?", chunkIDs)
	}
	var rows []*types.Keyword
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
