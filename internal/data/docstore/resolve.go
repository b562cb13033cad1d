package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
)

// ResolveChain loads the documents for every map key present after
// expansion, deepest level first. A found document's stored parent
// reference overrides the key the expansion derived, so re-parented
// documents resolve to their actual ancestors. Resolution is
// best-effort: a missing or unreadable level stays nil and never fails
// the call, since callers fall back to the map key itself for display
// names.
func (s *Store) ResolveChain(ctx context.Context, m hierarchy.Maps, category string) docs.Chain {
	m = hierarchy.Expand(m)
	category = docs.NormalizeCategory(category)
	var chain docs.Chain

	if m.ChunkMap != "" {
		var d docs.ChunkDoc
		if err := s.col(docs.ColChunks).
			FindOne(ctx, bson.M{"chunkID": m.ChunkMap, "chunkCategory": category}).
			Decode(&d); err == nil {
			chain.Chunk = &d
			if d.LessonID != "" {
				m.LessonMap = d.LessonID
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("resolve chunk failed", "chunkMap", m.ChunkMap, "error", err)
		}
	}
	if m.LessonMap != "" {
		var d docs.LessonDoc
		if err := s.col(docs.ColLessons).
			FindOne(ctx, bson.M{"lessonID": m.LessonMap, "lessonCategory": category}).
			Decode(&d); err == nil {
			chain.Lesson = &d
			if d.TopicID != "" {
				m.TopicMap = d.TopicID
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("resolve lesson failed", "lessonMap", m.LessonMap, "error", err)
		}
	}
	if m.TopicMap != "" {
		var d docs.TopicDoc
		if err := s.col(docs.ColTopics).
			FindOne(ctx, bson.M{"topicID": m.TopicMap, "topicCategory": category}).
			Decode(&d); err == nil {
			chain.Topic = &d
			if d.SubjectID != "" {
				m.SubjectMap = d.SubjectID
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("resolve topic failed", "topicMap", m.TopicMap, "error", err)
		}
	}
	if m.SubjectMap != "" {
		var d docs.SubjectDoc
		if err := s.col(docs.ColSubjects).
			FindOne(ctx, bson.M{"subjectID": m.SubjectMap, "subjectCategory": category}).
			Decode(&d); err == nil {
			chain.Subject = &d
			if d.ClassID != "" {
				m.ClassMap = d.ClassID
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("resolve subject failed", "subjectMap", m.SubjectMap, "error", err)
		}
	}
	if m.ClassMap != "" {
		var d docs.ClassDoc
		if err := s.col(docs.ColClasses).
			FindOne(ctx, bson.M{"classID": m.ClassMap}).
			Decode(&d); err == nil {
			chain.Class = &d
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("resolve class failed", "classMap", m.ClassMap, "error", err)
		}
	}
	return chain
}

func visibleFilter(extra bson.M) bson.M {
	f := bson.M{"status": bson.M{"$in": docs.VisibleStatuses}}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// Browse reads. All of them exclude hidden documents.

func (s *Store) ListClasses(ctx context.Context) ([]*docs.ClassDoc, error) {
	cur, err := s.col(docs.ColClasses).Find(ctx,
		bson.M{"$or": bson.A{
			bson.M{"status": bson.M{"$in": docs.VisibleStatuses}},
			bson.M{"status": bson.M{"$exists": false}},
		}},
		options.Find().SetSort(bson.D{{Key: "classID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: list classes: %w", err)
	}
	var rows []*docs.ClassDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListSubjects(ctx context.Context, classMap, category string) ([]*docs.SubjectDoc, error) {
	filter := visibleFilter(bson.M{"subjectCategory": docs.NormalizeCategory(category)})
	if classMap != "" {
		filter["classID"] = classMap
	}
	cur, err := s.col(docs.ColSubjects).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "subjectID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: list subjects: %w", err)
	}
	var rows []*docs.SubjectDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListTopics(ctx context.Context, subjectMap, category string) ([]*docs.TopicDoc, error) {
	filter := visibleFilter(bson.M{"topicCategory": docs.NormalizeCategory(category)})
	if subjectMap != "" {
		filter["subjectID"] = subjectMap
	}
	cur, err := s.col(docs.ColTopics).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "topicID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: list topics: %w", err)
	}
	var rows []*docs.TopicDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListLessons(ctx context.Context, topicMap, category string) ([]*docs.LessonDoc, error) {
	filter := visibleFilter(bson.M{"lessonCategory": docs.NormalizeCategory(category)})
	if topicMap != "" {
		filter["topicID"] = topicMap
	}
	cur, err := s.col(docs.ColLessons).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "lessonID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: list lessons: %w", err)
	}
	var rows []*docs.LessonDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListChunks(ctx context.Context, lessonMap, category string) ([]*docs.ChunkDoc, error) {
	filter := visibleFilter(bson.M{"chunkCategory": docs.NormalizeCategory(category)})
	if lessonMap != "" {
		filter["lessonID"] = lessonMap
	}
	cur, err := s.col(docs.ColChunks).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "chunkID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: list chunks: %w", err)
	}
	var rows []*docs.ChunkDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetChunk(ctx context.Context, chunkMap, category string) (*docs.ChunkDoc, error) {
	filter := bson.M{"chunkID": chunkMap}
	if category != "" {
		filter["chunkCategory"] = docs.NormalizeCategory(category)
	}
	var d docs.ChunkDoc
	if err := s.col(docs.ColChunks).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
