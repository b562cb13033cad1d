package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type SubjectRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Subject) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Subject, error)
	GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Subject, error)
	ListByClassID(ctx context.Context, tx *gorm.DB, classID string) ([]*types.Subject, error)
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

func (r *subjectRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Subject) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"subject_name": row.SubjectName,
			"class_id":     row.ClassID,
			"mongo_id":     gorm.Expr(`COALESCE(EXCLUDED.mongo_id, "subject".mongo_id)`),
		}),
	}).Create(row).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Subject
	if err := transaction.WithContext(ctx).
		Where("subject_id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *subjectRepo) GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Subject
	if err := transaction.WithContext(ctx).
		Where("mongo_id = ?", mongoID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *subjectRepo) ListByClassID(ctx context.Context, tx *gorm.DB, classID string) ([]*types.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Subject
	if err := transaction.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("subject_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
