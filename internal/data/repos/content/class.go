// Package content implements the relational repositories for the
// hierarchy tables. Every write is an upsert keyed on the derived
// primary key so repeated syncs of the same document converge.
package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type ClassRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Class) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Class, error)
	GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Class, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Class, error)
}

type classRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassRepo(db *gorm.DB, baseLog *logger.Logger) ClassRepo {
	return &classRepo{db: db, log: baseLog.With("repo", "ClassRepo")}
}

func (r *classRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Class) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "class_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"class_name": row.ClassName,
			"mongo_id":   gorm.Expr(`COALESCE(EXCLUDED.mongo_id, "class".mongo_id)`),
		}),
	}).Create(row).Error
}

func (r *classRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Class, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Class
	if err := transaction.WithContext(ctx).
		Where("class_id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *classRepo) GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Class, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Class
	if err := transaction.WithContext(ctx).
		Where("mongo_id = ?", mongoID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *classRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Class, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Class
	if err := transaction.WithContext(ctx).
		Order("class_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
