package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	repos "github.com/studyvault/studyvault-backend/internal/data/repos/content"
	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	types "github.com/studyvault/studyvault-backend/internal/domain/content"
	"github.com/studyvault/studyvault-backend/internal/embedding"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// PGSyncer projects document-store state into the canonical relational
// schema. The chunk upsert and its keyword replacement share one
// transaction so a failed replacement never leaves a chunk with a
// half-swapped keyword set.
type PGSyncer struct {
	db       *gorm.DB
	store    *docstore.Store
	embedder embedding.Provider
	log      *logger.Logger

	classes  repos.ClassRepo
	subjects repos.SubjectRepo
	topics   repos.TopicRepo
	lessons  repos.LessonRepo
	chunks   repos.ChunkRepo
	keywords repos.KeywordRepo
}

func NewPGSyncer(db *gorm.DB, store *docstore.Store, embedder embedding.Provider, baseLog *logger.Logger) *PGSyncer {
	return &PGSyncer{
		db:       db,
		store:    store,
		embedder: embedder,
		log:      baseLog.With("service", "PGSyncer"),
		classes:  repos.NewClassRepo(db, baseLog),
		subjects: repos.NewSubjectRepo(db, baseLog),
		topics:   repos.NewTopicRepo(db, baseLog),
		lessons:  repos.NewLessonRepo(db, baseLog),
		chunks:   repos.NewChunkRepo(db, baseLog),
		keywords: repos.NewKeywordRepo(db, baseLog),
	}
}

func mongoHexPtr(oid primitive.ObjectID) *string {
	if oid.IsZero() {
		return nil
	}
	hex := oid.Hex()
	return &hex
}

func embeddingJSON(vec []float32) datatypes.JSON {
	if len(vec) == 0 {
		return nil
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// SyncCanonicalByMaps derives the canonical id chain from map keys,
// resolves display names from the document store and upserts every
// resolvable level, class first. Returns the derived ids.
func (s *PGSyncer) SyncCanonicalByMaps(ctx context.Context, maps hierarchy.Maps, category string) (*hierarchy.CanonicalIDs, error) {
	m := hierarchy.Expand(maps)
	if m.ClassMap == "" && m.SubjectMap == "" {
		return nil, apierr.Validation("at least one resolvable map key is required")
	}

	chain := s.store.ResolveChain(ctx, m, category)

	subjectName := m.SubjectMap
	if chain.Subject != nil && chain.Subject.SubjectName != "" {
		subjectName = chain.Subject.SubjectName
	}
	ids := hierarchy.DeriveCanonical(m, subjectName)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ids.ClassID != "" {
			row := &types.Class{ClassID: ids.ClassID, ClassName: "Lớp " + ids.ClassID}
			if chain.Class != nil {
				if chain.Class.ClassName != "" {
					row.ClassName = chain.Class.ClassName
				}
				row.MongoID = mongoHexPtr(chain.Class.ID)
			}
			if err := s.classes.Upsert(ctx, tx, row); err != nil {
				return err
			}
		}
		if ids.SubjectID != "" && ids.ClassID != "" {
			row := &types.Subject{SubjectID: ids.SubjectID, SubjectName: subjectName, ClassID: ids.ClassID}
			if chain.Subject != nil {
				row.MongoID = mongoHexPtr(chain.Subject.ID)
			}
			if err := s.subjects.Upsert(ctx, tx, row); err != nil {
				return err
			}
		}
		if ids.TopicID != "" && ids.SubjectID != "" {
			row := &types.Topic{TopicID: ids.TopicID, TopicName: m.TopicMap, SubjectID: ids.SubjectID}
			if chain.Topic != nil {
				if chain.Topic.TopicName != "" {
					row.TopicName = chain.Topic.TopicName
				}
				row.MongoID = mongoHexPtr(chain.Topic.ID)
			}
			if err := s.topics.Upsert(ctx, tx, row); err != nil {
				return err
			}
		}
		if ids.LessonID != "" && ids.TopicID != "" {
			row := &types.Lesson{LessonID: ids.LessonID, LessonName: m.LessonMap, TopicID: ids.TopicID}
			if chain.Lesson != nil {
				if chain.Lesson.LessonName != "" {
					row.LessonName = chain.Lesson.LessonName
				}
				row.MongoID = mongoHexPtr(chain.Lesson.ID)
			}
			if err := s.lessons.Upsert(ctx, tx, row); err != nil {
				return err
			}
		}
		if ids.ChunkID != "" && ids.LessonID != "" {
			row := &types.Chunk{ChunkID: ids.ChunkID, ChunkName: m.ChunkMap, LessonID: ids.LessonID}
			if chain.Chunk != nil {
				if chain.Chunk.ChunkName != "" {
					row.ChunkName = chain.Chunk.ChunkName
				}
				row.ChunkType = chain.Chunk.ChunkType
				row.MongoID = mongoHexPtr(chain.Chunk.ID)
			}
			if err := s.chunks.Upsert(ctx, tx, row); err != nil {
				return err
			}

			if chain.Chunk != nil && chain.Chunk.Keywords != nil {
				kwRows, err := s.buildCanonicalKeywords(ctx, ids.ChunkID, chain.Chunk.Keywords)
				if err != nil {
					return err
				}
				ids.KeywordIDs = make([]string, 0, len(kwRows))
				for _, kw := range kwRows {
					ids.KeywordIDs = append(ids.KeywordIDs, kw.KeywordID)
				}
				if err := s.keywords.ReplaceForChunk(ctx, tx, ids.ChunkID, kwRows); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, apierr.Upstream(apierr.StageRelationalSync, err)
	}
	return &ids, nil
}

func (s *PGSyncer) buildCanonicalKeywords(ctx context.Context, chunkID string, texts []string) ([]*types.Keyword, error) {
	rows := make([]*types.Keyword, 0, len(texts))
	seen := map[string]bool{}
	for _, text := range texts {
		id := hierarchy.CanonicalKeywordID(chunkID, text)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.log.Warn("keyword embedding failed, syncing without vector",
				"chunk", chunkID, "keyword", text, "error", err)
			vec = nil
		}
		rows = append(rows, &types.Keyword{
			KeywordID:         id,
			KeywordName:       text,
			ChunkID:           chunkID,
			Embedding:         embeddingJSON(vec),
			EmbeddingProvider: s.embedder.Name(),
		})
	}
	return rows, nil
}

// LegacyRefs addresses one full chain by raw document ids, the way the
// pre-canonical sync endpoint did.
type LegacyRefs struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	TopicID   string `json:"topic_id"`
	LessonID  string `json:"lesson_id"`
	ChunkID   string `json:"chunk_id"`
}

// LegacyResult reports the relational primary keys the sync landed on.
type LegacyResult struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	TopicID   string `json:"topic_id"`
	LessonID  string `json:"lesson_id"`
	ChunkID   string `json:"chunk_id"`
	Keywords  int    `json:"keywords"`
}

// SyncLegacyByDocumentIDs syncs a chain addressed by document ids.
// Primary keys are reused from rows already linked via mongo_id and
// otherwise derived by hashing the document id, so re-syncing the same
// documents always converges on the same rows.
func (s *PGSyncer) SyncLegacyByDocumentIDs(ctx context.Context, refs LegacyRefs) (*LegacyResult, error) {
	if refs.ClassID == "" || refs.SubjectID == "" || refs.TopicID == "" || refs.LessonID == "" || refs.ChunkID == "" {
		return nil, apierr.Validation("class_id, subject_id, topic_id, lesson_id and chunk_id are all required")
	}

	classDoc, err := s.store.ClassByObjectID(ctx, refs.ClassID)
	if err != nil {
		return nil, apierr.NotFound("class document %s: %v", refs.ClassID, err)
	}
	subjectDoc, err := s.store.SubjectByObjectID(ctx, refs.SubjectID)
	if err != nil {
		return nil, apierr.NotFound("subject document %s: %v", refs.SubjectID, err)
	}
	topicDoc, err := s.store.TopicByObjectID(ctx, refs.TopicID)
	if err != nil {
		return nil, apierr.NotFound("topic document %s: %v", refs.TopicID, err)
	}
	lessonDoc, err := s.store.LessonByObjectID(ctx, refs.LessonID)
	if err != nil {
		return nil, apierr.NotFound("lesson document %s: %v", refs.LessonID, err)
	}
	chunkDoc, err := s.store.ChunkByObjectID(ctx, refs.ChunkID)
	if err != nil {
		return nil, apierr.NotFound("chunk document %s: %v", refs.ChunkID, err)
	}

	classPK := s.legacyClassPK(ctx, refs.ClassID)
	subjectPK := s.legacySubjectPK(ctx, refs.SubjectID)
	topicPK := s.legacyPK64(ctx, refs.TopicID, func(mongoID string) (string, error) {
		row, err := s.topics.GetByMongoID(ctx, nil, mongoID)
		if err != nil {
			return "", err
		}
		return row.TopicID, nil
	})
	lessonPK := s.legacyPK64(ctx, refs.LessonID, func(mongoID string) (string, error) {
		row, err := s.lessons.GetByMongoID(ctx, nil, mongoID)
		if err != nil {
			return "", err
		}
		return row.LessonID, nil
	})
	chunkPK := s.legacyPK64(ctx, refs.ChunkID, func(mongoID string) (string, error) {
		row, err := s.chunks.GetByMongoID(ctx, nil, mongoID)
		if err != nil {
			return "", err
		}
		return row.ChunkID, nil
	})

	kwDocs, err := s.store.KeywordsByChunkID(ctx, chunkDoc.ChunkID)
	if err != nil {
		s.log.Warn("legacy sync: keyword fetch failed", "chunk", chunkDoc.ChunkID, "error", err)
		kwDocs = nil
	}

	result := &LegacyResult{
		ClassID:   classPK,
		SubjectID: subjectPK,
		TopicID:   topicPK,
		LessonID:  lessonPK,
		ChunkID:   chunkPK,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.classes.Upsert(ctx, tx, &types.Class{
			ClassID:   classPK,
			ClassName: classDoc.ClassName,
			MongoID:   &refs.ClassID,
		}); err != nil {
			return err
		}
		if err := s.subjects.Upsert(ctx, tx, &types.Subject{
			SubjectID:   subjectPK,
			SubjectName: subjectDoc.SubjectName,
			ClassID:     classPK,
			MongoID:     &refs.SubjectID,
		}); err != nil {
			return err
		}
		if err := s.topics.Upsert(ctx, tx, &types.Topic{
			TopicID:   topicPK,
			TopicName: topicDoc.TopicName,
			SubjectID: subjectPK,
			MongoID:   &refs.TopicID,
		}); err != nil {
			return err
		}
		if err := s.lessons.Upsert(ctx, tx, &types.Lesson{
			LessonID:   lessonPK,
			LessonName: lessonDoc.LessonName,
			TopicID:    topicPK,
			MongoID:    &refs.LessonID,
		}); err != nil {
			return err
		}
		if err := s.chunks.Upsert(ctx, tx, &types.Chunk{
			ChunkID:   chunkPK,
			ChunkName: chunkDoc.ChunkName,
			ChunkType: chunkDoc.ChunkType,
			LessonID:  lessonPK,
			MongoID:   &refs.ChunkID,
		}); err != nil {
			return err
		}

		kwRows := make([]*types.Keyword, 0, len(kwDocs))
		for _, kd := range kwDocs {
			vec := kd.Embedding
			if len(vec) == 0 {
				fresh, err := s.embedder.Embed(ctx, kd.KeywordName)
				if err == nil {
					vec = fresh
				}
			}
			mongoID := mongoHexPtr(kd.ID)
			kwRows = append(kwRows, &types.Keyword{
				KeywordID:         hierarchy.LegacyKeywordID(chunkPK, kd.KeywordName),
				KeywordName:       kd.KeywordName,
				ChunkID:           chunkPK,
				Embedding:         embeddingJSON(vec),
				EmbeddingProvider: s.embedder.Name(),
				MongoID:           mongoID,
			})
		}
		if err := s.keywords.ReplaceForChunk(ctx, tx, chunkPK, kwRows); err != nil {
			return err
		}
		result.Keywords = len(kwRows)
		return nil
	})
	if err != nil {
		return nil, apierr.Upstream(apierr.StageRelationalSync, err)
	}
	return result, nil
}

func (s *PGSyncer) legacyClassPK(ctx context.Context, mongoID string) string {
	if row, err := s.classes.GetByMongoID(ctx, nil, mongoID); err == nil {
		return row.ClassID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("legacy sync: class lookup failed", "mongoID", mongoID, "error", err)
	}
	return hierarchy.LegacyID32(mongoID)
}

func (s *PGSyncer) legacySubjectPK(ctx context.Context, mongoID string) string {
	if row, err := s.subjects.GetByMongoID(ctx, nil, mongoID); err == nil {
		return row.SubjectID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("legacy sync: subject lookup failed", "mongoID", mongoID, "error", err)
	}
	return hierarchy.LegacyID32(mongoID)
}

func (s *PGSyncer) legacyPK64(ctx context.Context, mongoID string, lookup func(string) (string, error)) string {
	if id, err := lookup(mongoID); err == nil {
		return id
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("legacy sync: lookup failed", "mongoID", mongoID, "error", err)
	}
	return hierarchy.LegacyID64(mongoID)
}
