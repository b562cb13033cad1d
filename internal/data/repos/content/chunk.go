package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// ChunkHierarchy is a denormalized read row joining a chunk to every
// ancestor name, used to decorate search results.
type ChunkHierarchy struct {
	ChunkID     string `json:"chunk_id"`
	ChunkName   string `json:"chunk_name"`
	ChunkType   string `json:"chunk_type"`
	LessonID    string `json:"lesson_id"`
	LessonName  string `json:"lesson_name"`
	TopicID     string `json:"topic_id"`
	TopicName   string `json:"topic_name"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
}

type ChunkRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Chunk) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Chunk, error)
	GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Chunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Chunk, error)
	ListByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) ([]*types.Chunk, error)

	// Candidate restriction queries for search: chunk ids living under a
	// given ancestor.
	IDsUnderLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]string, error)
	IDsUnderTopic(ctx context.Context, tx *gorm.DB, topicID string) ([]string, error)
	IDsUnderSubject(ctx context.Context, tx *gorm.DB, subjectID string) ([]string, error)
	IDsUnderClass(ctx context.Context, tx *gorm.DB, classID string) ([]string, error)

	HierarchyByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*ChunkHierarchy, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Chunk) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chunk_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"chunk_name": row.ChunkName,
			"chunk_type": row.ChunkType,
			"lesson_id":  row.LessonID,
			"mongo_id":   gorm.Expr(`COALESCE(EXCLUDED.mongo_id, "chunk".mongo_id)`),
		}),
	}).Create(row).Error
}

func (r *chunkRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Chunk
	if err := transaction.WithContext(ctx).
		Where("chunk_id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *chunkRepo) GetByMongoID(ctx context.Context, tx *gorm.DB, mongoID string) (*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Chunk
	if err := transaction.WithContext(ctx).
		Where("mongo_id = ?", mongoID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *chunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Chunk
	if len(ids) == 0 {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("chunk_id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chunkRepo) ListByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Chunk
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("chunk_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chunkRepo) IDsUnderLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.Chunk{}).
		Where("lesson_id = ?", lessonID).
		Pluck("chunk_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *chunkRepo) IDsUnderTopic(ctx context.Context, tx *gorm.DB, topicID string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []string
	if err := transaction.WithContext(ctx).
		Table("chunk").
		Joins("JOIN lesson ON lesson.lesson_id = chunk.lesson_id").
		Where("lesson.topic_id = ?", topicID).
		Pluck("chunk.chunk_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *chunkRepo) IDsUnderSubject(ctx context.Context, tx *gorm.DB, subjectID string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []string
	if err := transaction.WithContext(ctx).
		Table("chunk").
		Joins("JOIN lesson ON lesson.lesson_id = chunk.lesson_id").
		Joins("JOIN topic ON topic.topic_id = lesson.topic_id").
		Where("topic.subject_id = ?", subjectID).
		Pluck("chunk.chunk_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *chunkRepo) IDsUnderClass(ctx context.Context, tx *gorm.DB, classID string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []string
	if err := transaction.WithContext(ctx).
		Table("chunk").
		Joins("JOIN lesson ON lesson.lesson_id = chunk.lesson_id").
		Joins("JOIN topic ON topic.topic_id = lesson.topic_id").
		Joins("JOIN subject ON subject.subject_id = topic.subject_id").
		Where("subject.class_id = ?", classID).
		Pluck("chunk.chunk_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *chunkRepo) HierarchyByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*ChunkHierarchy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*ChunkHierarchy
	if len(ids) == 0 {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Table("chunk").
		Select(`chunk.chunk_id, chunk.chunk_name, chunk.chunk_type,
			lesson.lesson_id, lesson.lesson_name,
			topic.topic_id, topic.topic_name,
			subject.subject_id, subject.subject_name,
			class.class_id, class.class_name`).
		Joins("JOIN lesson ON lesson.lesson_id = chunk.lesson_id").
		Joins("JOIN topic ON topic.topic_id = lesson.topic_id").
		Joins("JOIN subject ON subject.subject_id = topic.subject_id").
		Joins("JOIN class ON class.class_id = subject.class_id").
		Where("chunk.chunk_id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
