package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

// Per-level payloads. Empty string fields keep whatever the stored
// document already has; non-empty fields win.
type ClassFields struct {
	Name string
}

type SubjectFields struct {
	Name  string
	Title string
	URL   string
}

type TopicFields struct {
	Name   string
	Number string
	URL    string
}

type LessonFields struct {
	Name   string
	Number string
	Type   string
	URL    string
}

type ChunkFields struct {
	Name        string
	Number      string
	Type        string
	URL         string
	Description string
	Keywords    []string
}

// ChainInput carries everything one upsert pass may touch. Levels left
// nil are not written (their documents may still be created implicitly
// by a later relational sync, never here).
type ChainInput struct {
	Maps     hierarchy.Maps
	Category string
	Actor    string

	Class   *ClassFields
	Subject *SubjectFields
	Topic   *TopicFields
	Lesson  *LessonFields
	Chunk   *ChunkFields
}

// ChainStats counts the documents touched by one UpsertChain call.
type ChainStats struct {
	Classes  int `json:"classes"`
	Subjects int `json:"subjects"`
	Topics   int `json:"topics"`
	Lessons  int `json:"lessons"`
	Chunks   int `json:"chunks"`
	Keywords int `json:"keywords"`
}

// validate checks every supplied level has its map key before any
// write happens, so a bad request leaves the store untouched.
func (in *ChainInput) validate() error {
	m := hierarchy.Expand(in.Maps)
	if in.Class != nil && m.ClassMap == "" {
		return apierr.Validation("class_map is required to upsert a class")
	}
	if in.Subject != nil && (m.SubjectMap == "" || m.ClassMap == "") {
		return apierr.Validation("subject_map and class_map are required to upsert a subject")
	}
	if in.Topic != nil && (m.TopicMap == "" || m.SubjectMap == "") {
		return apierr.Validation("topic_map and subject_map are required to upsert a topic")
	}
	if in.Lesson != nil && (m.LessonMap == "" || m.TopicMap == "") {
		return apierr.Validation("lesson_map and topic_map are required to upsert a lesson")
	}
	if in.Chunk != nil && (m.ChunkMap == "" || m.LessonMap == "") {
		return apierr.Validation("chunk_map and lesson_map are required to upsert a chunk")
	}
	return nil
}

// UpsertChain merge-upserts every supplied level top-down. The call is
// all-or-nothing only at the validation stage; once writing starts each
// level that succeeds stays written.
func (s *Store) UpsertChain(ctx context.Context, in ChainInput) (*ChainStats, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := hierarchy.Expand(in.Maps)
	category := docs.NormalizeCategory(in.Category)

	stats := &ChainStats{}

	if in.Class != nil {
		if err := s.UpsertClass(ctx, m.ClassMap, *in.Class, in.Actor); err != nil {
			return stats, err
		}
		stats.Classes++
	}
	if in.Subject != nil {
		if err := s.UpsertSubject(ctx, m.SubjectMap, m.ClassMap, *in.Subject, category, in.Actor); err != nil {
			return stats, err
		}
		stats.Subjects++
	}
	if in.Topic != nil {
		if err := s.UpsertTopic(ctx, m.TopicMap, m.SubjectMap, *in.Topic, category, in.Actor); err != nil {
			return stats, err
		}
		stats.Topics++
	}
	if in.Lesson != nil {
		if err := s.UpsertLesson(ctx, m.LessonMap, m.TopicMap, *in.Lesson, category, in.Actor); err != nil {
			return stats, err
		}
		stats.Lessons++
	}
	if in.Chunk != nil {
		kw, err := s.UpsertChunk(ctx, m.ChunkMap, m.LessonMap, *in.Chunk, category, in.Actor)
		if err != nil {
			return stats, err
		}
		stats.Chunks++
		stats.Keywords += kw
	}
	return stats, nil
}

// setNonEmpty adds the field only when the value is non-empty, giving
// merge semantics on upsert.
func setNonEmpty(set bson.M, field, value string) {
	if value != "" {
		set[field] = value
	}
}

func (s *Store) mergeUpsert(ctx context.Context, colName string, filter, set, setOnInsert bson.M) error {
	now := s.now()
	set["updatedAt"] = now
	setOnInsert["createdAt"] = now
	// Keys present in $set must not repeat in $setOnInsert.
	for k := range set {
		delete(setOnInsert, k)
	}
	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}
	_, err := s.col(colName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("docstore: upsert %s: %w", colName, err)
	}
	return nil
}

// UpsertClass is keyed on classID alone; classes have no category axis.
func (s *Store) UpsertClass(ctx context.Context, classMap string, f ClassFields, actor string) error {
	if classMap == "" {
		return apierr.Validation("class_map is required")
	}
	name := f.Name
	if name == "" {
		if grade := hierarchy.ClassGrade(classMap); grade != "" {
			name = "Lớp " + grade
		} else {
			name = classMap
		}
	}
	set := bson.M{}
	setNonEmpty(set, "className", name)
	return s.mergeUpsert(ctx, docs.ColClasses,
		bson.M{"classID": classMap},
		set,
		bson.M{"classID": classMap, "status": docs.StatusActive, "createdBy": actor},
	)
}

func (s *Store) UpsertSubject(ctx context.Context, subjectMap, classMap string, f SubjectFields, category, actor string) error {
	if subjectMap == "" || classMap == "" {
		return apierr.Validation("subject_map and class_map are required")
	}
	set := bson.M{"classID": classMap}
	setNonEmpty(set, "subjectName", f.Name)
	setNonEmpty(set, "subjectTitle", f.Title)
	setNonEmpty(set, "subjectUrl", f.URL)
	return s.mergeUpsert(ctx, docs.ColSubjects,
		bson.M{"subjectID": subjectMap, "subjectCategory": category},
		set,
		bson.M{"subjectID": subjectMap, "subjectCategory": category, "status": docs.StatusActive, "createdBy": actor},
	)
}

func (s *Store) UpsertTopic(ctx context.Context, topicMap, subjectMap string, f TopicFields, category, actor string) error {
	if topicMap == "" || subjectMap == "" {
		return apierr.Validation("topic_map and subject_map are required")
	}
	set := bson.M{"subjectID": subjectMap}
	setNonEmpty(set, "topicName", f.Name)
	setNonEmpty(set, "topicNumber", f.Number)
	setNonEmpty(set, "topicUrl", f.URL)
	return s.mergeUpsert(ctx, docs.ColTopics,
		bson.M{"topicID": topicMap, "topicCategory": category},
		set,
		bson.M{"topicID": topicMap, "topicCategory": category, "status": docs.StatusActive, "createdBy": actor},
	)
}

func (s *Store) UpsertLesson(ctx context.Context, lessonMap, topicMap string, f LessonFields, category, actor string) error {
	if lessonMap == "" || topicMap == "" {
		return apierr.Validation("lesson_map and topic_map are required")
	}
	set := bson.M{"topicID": topicMap}
	setNonEmpty(set, "lessonName", f.Name)
	setNonEmpty(set, "lessonNumber", f.Number)
	setNonEmpty(set, "lessonType", f.Type)
	setNonEmpty(set, "lessonUrl", f.URL)
	return s.mergeUpsert(ctx, docs.ColLessons,
		bson.M{"lessonID": lessonMap, "lessonCategory": category},
		set,
		bson.M{"lessonID": lessonMap, "lessonCategory": category, "status": docs.StatusActive, "createdBy": actor},
	)
}

// UpsertChunk writes the chunk document, then replaces its keyword
// sub-documents wholesale: stale keywords from a previous version never
// linger. Returns the number of keyword docs written.
func (s *Store) UpsertChunk(ctx context.Context, chunkMap, lessonMap string, f ChunkFields, category, actor string) (int, error) {
	if chunkMap == "" || lessonMap == "" {
		return 0, apierr.Validation("chunk_map and lesson_map are required")
	}
	set := bson.M{"lessonID": lessonMap}
	setNonEmpty(set, "chunkName", f.Name)
	setNonEmpty(set, "chunkNumber", f.Number)
	setNonEmpty(set, "chunkType", f.Type)
	setNonEmpty(set, "chunkUrl", f.URL)
	setNonEmpty(set, "chunkDescription", f.Description)
	if f.Keywords != nil {
		set["keywords"] = f.Keywords
	}
	err := s.mergeUpsert(ctx, docs.ColChunks,
		bson.M{"chunkID": chunkMap, "chunkCategory": category},
		set,
		bson.M{"chunkID": chunkMap, "chunkCategory": category, "status": docs.StatusActive, "createdBy": actor},
	)
	if err != nil {
		return 0, err
	}

	if f.Keywords == nil {
		return 0, nil
	}
	return s.replaceKeywords(ctx, chunkMap, f.Keywords)
}

func (s *Store) replaceKeywords(ctx context.Context, chunkMap string, keywords []string) (int, error) {
	col := s.col(docs.ColKeywords)
	if _, err := col.DeleteMany(ctx, bson.M{"chunkID": chunkMap}); err != nil {
		return 0, fmt.Errorf("docstore: clear keywords for %s: %w", chunkMap, err)
	}
	if len(keywords) == 0 {
		return 0, nil
	}

	now := s.now()
	rows := make([]interface{}, 0, len(keywords))
	for i, name := range keywords {
		vec, err := s.embedder.Embed(ctx, name)
		if err != nil {
			s.log.Warn("keyword embedding failed, storing without vector",
				"chunk", chunkMap, "keyword", name, "error", err)
			vec = nil
		}
		rows = append(rows, docs.KeywordDoc{
			KeywordID:         hierarchy.KeywordMapKey(chunkMap, i+1),
			ChunkID:           chunkMap,
			KeywordName:       name,
			Embedding:         vec,
			EmbeddingProvider: s.embedder.Name(),
			Status:            docs.StatusActive,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	if _, err := col.InsertMany(ctx, rows); err != nil {
		return 0, fmt.Errorf("docstore: insert keywords for %s: %w", chunkMap, err)
	}
	return len(rows), nil
}

// SetChunkStatus flips a chunk's visibility; used both by the admin API
// and by the import pipeline to hide chunks whose relational sync failed.
func (s *Store) SetChunkStatus(ctx context.Context, chunkMap, category, status string) error {
	if chunkMap == "" {
		return apierr.Validation("chunk_map is required")
	}
	filter := bson.M{"chunkID": chunkMap}
	if category != "" {
		filter["chunkCategory"] = docs.NormalizeCategory(category)
	}
	res, err := s.col(docs.ColChunks).UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": status, "updatedAt": s.now()},
	})
	if err != nil {
		return fmt.Errorf("docstore: set chunk status: %w", err)
	}
	if res.MatchedCount == 0 {
		return apierr.NotFound("chunk %q not found", chunkMap)
	}
	return nil
}
