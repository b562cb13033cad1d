package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type LessonRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Lesson, error)
	GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Lesson, error)
	ListByTopicID(ctx context.Context, tx *gorm.DB, topicID string) ([]*types.Lesson, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Lesson) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"lesson_name": row.LessonName,
			"topic_id":    row.TopicID,
			"mongo_id":    gorm.Expr(`COALESCE(EXCLUDED.mongo_id, "lesson".mongo_id)`),
		}),
	}).Create(row).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Lesson
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonRepo) GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Lesson
	if err := transaction.WithContext(ctx).
		Where("mongo_id = ?", mongoID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonRepo) ListByTopicID(ctx context.Context, tx *gorm.DB, topicID string) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Lesson
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("lesson_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
