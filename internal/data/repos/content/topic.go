package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type TopicRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Topic) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Topic, error)
	GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Topic, error)
	ListBySubjectID(ctx context.Context, tx *gorm.DB, subjectID string) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Topic) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "topic_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"topic_name": row.TopicName,
			"subject_id": row.SubjectID,
			"mongo_id":   gorm.Expr(`COALESCE(EXCLUDED.mongo_id, "topic".mongo_id)`),
		}),
	}).Create(row).Error
}

func (r *topicRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Topic
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *topicRepo) GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Topic
	if err := transaction.WithContext(ctx).
		Where("mongo_id = ?", mongoID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *topicRepo) ListBySubjectID(ctx context.Context, tx *gorm.DB, subjectID string) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Topic
	if err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("topic_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
