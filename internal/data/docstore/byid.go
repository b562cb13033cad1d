package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

// Object-id lookups back the legacy sync path, which addresses
// documents by their raw hex _id instead of map keys.

func objectID(hexID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("invalid document id %q", hexID)
	}
	return oid, nil
}

func (s *Store) ClassByObjectID(ctx context.Context, hexID string) (*docs.ClassDoc, error) {
	oid, err := objectID(hexID)
	if err != nil {
		return nil, err
	}
	var d docs.ClassDoc
	if err := s.col(docs.ColClasses).FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, fmt.Errorf("docstore: class %s: %w", hexID, err)
	}
	return &d, nil
}

func (s *Store) SubjectByObjectID(ctx context.Context, hexID string) (*docs.SubjectDoc, error) {
	oid, err := objectID(hexID)
	if err != nil {
		return nil, err
	}
	var d docs.SubjectDoc
	if err := s.col(docs.ColSubjects).FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, fmt.Errorf("docstore: subject %s: %w", hexID, err)
	}
	return &d, nil
}

func (s *Store) TopicByObjectID(ctx context.Context, hexID string) (*docs.TopicDoc, error) {
	oid, err := objectID(hexID)
	if err != nil {
		return nil, err
	}
	var d docs.TopicDoc
	if err := s.col(docs.ColTopics).FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, fmt.Errorf("docstore: topic %s: %w", hexID, err)
	}
	return &d, nil
}

func (s *Store) LessonByObjectID(ctx context.Context, hexID string) (*docs.LessonDoc, error) {
	oid, err := objectID(hexID)
	if err != nil {
		return nil, err
	}
	var d docs.LessonDoc
	if err := s.col(docs.ColLessons).FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, fmt.Errorf("docstore: lesson %s: %w", hexID, err)
	}
	return &d, nil
}

func (s *Store) ChunkByObjectID(ctx context.Context, hexID string) (*docs.ChunkDoc, error) {
	oid, err := objectID(hexID)
	if err != nil {
		return nil, err
	}
	var d docs.ChunkDoc
	if err := s.col(docs.ColChunks).FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, fmt.Errorf("docstore: chunk %s: %w", hexID, err)
	}
	return &d, nil
}

// ChunksByObjectIDs bulk-fetches chunk documents by raw hex _id, keyed
// by that hex id. Unparseable ids are skipped rather than failing the
// batch.
func (s *Store) ChunksByObjectIDs(ctx context.Context, hexIDs []string) (map[string]*docs.ChunkDoc, error) {
	if len(hexIDs) == 0 {
		return map[string]*docs.ChunkDoc{}, nil
	}
	oids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hexID := range hexIDs {
		oid, err := primitive.ObjectIDFromHex(hexID)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	out := make(map[string]*docs.ChunkDoc, len(oids))
	if len(oids) == 0 {
		return out, nil
	}
	cur, err := s.col(docs.ColChunks).Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("docstore: chunks by object id: %w", err)
	}
	var rows []*docs.ChunkDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID.Hex()] = r
	}
	return out, nil
}

// KeywordsByChunkID returns the keyword sub-documents of a chunk in a
// stable order.
func (s *Store) KeywordsByChunkID(ctx context.Context, chunkMap string) ([]*docs.KeywordDoc, error) {
	cur, err := s.col(docs.ColKeywords).Find(ctx, bson.M{"chunkID": chunkMap},
		options.Find().SetSort(bson.D{{Key: "keywordID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: keywords for %s: %w", chunkMap, err)
	}
	var rows []*docs.KeywordDoc
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
