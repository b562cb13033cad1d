// Package docs defines the typed document-store records for each
// hierarchy level. The bson tags are the single canonical field-name
// mapping: business code never probes alternate spellings.
package docs

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	ColClasses  = "classes"
	ColSubjects = "subjects"
	ColTopics   = "topics"
	ColLessons  = "lessons"
	ColChunks   = "chunks"
	ColKeywords = "keywords"
	ColSaved    = "user_saved_chunks"
)

// Soft-delete / visibility status. "activity" is a legacy spelling of
// active that still exists in stored data and must stay visible.
const (
	StatusActive   = "active"
	StatusActivity = "activity"
	StatusHidden   = "hidden"
)

// VisibleStatuses is the browse-API status filter.
var VisibleStatuses = []string{StatusActive, StatusActivity}

// Visible reports whether a stored status string is user-visible.
// Anything except an explicit hidden marker counts as visible.
func Visible(status string) bool {
	return !strings.EqualFold(status, StatusHidden)
}

// Categories partition every level below class.
const (
	CategoryDocument = "document"
	CategoryImage    = "image"
	CategoryVideo    = "video"
)

// NormalizeCategory folds free-form category spellings onto the three
// canonical values, defaulting to document.
func NormalizeCategory(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "image", "images":
		return CategoryImage
	case "video", "videos":
		return CategoryVideo
	}
	return CategoryDocument
}

type ClassDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ClassID   string             `bson:"classID,omitempty" json:"classID,omitempty"`
	ClassName string             `bson:"className" json:"className"`
	Status    string             `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type SubjectDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SubjectID       string             `bson:"subjectID" json:"subjectID"`
	ClassID         string             `bson:"classID" json:"classID"`
	SubjectName     string             `bson:"subjectName" json:"subjectName"`
	SubjectTitle    string             `bson:"subjectTitle,omitempty" json:"subjectTitle,omitempty"`
	SubjectURL      string             `bson:"subjectUrl,omitempty" json:"subjectUrl,omitempty"`
	SubjectCategory string             `bson:"subjectCategory" json:"subjectCategory"`
	Status          string             `bson:"status" json:"status"`
	CreatedBy       string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type TopicDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TopicID       string             `bson:"topicID" json:"topicID"`
	SubjectID     string             `bson:"subjectID" json:"subjectID"`
	TopicName     string             `bson:"topicName" json:"topicName"`
	TopicNumber   string             `bson:"topicNumber,omitempty" json:"topicNumber,omitempty"`
	TopicURL      string             `bson:"topicUrl,omitempty" json:"topicUrl,omitempty"`
	TopicCategory string             `bson:"topicCategory" json:"topicCategory"`
	Status        string             `bson:"status" json:"status"`
	CreatedBy     string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type LessonDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	LessonID       string             `bson:"lessonID" json:"lessonID"`
	TopicID        string             `bson:"topicID" json:"topicID"`
	LessonName     string             `bson:"lessonName" json:"lessonName"`
	LessonNumber   string             `bson:"lessonNumber,omitempty" json:"lessonNumber,omitempty"`
	LessonType     string             `bson:"lessonType,omitempty" json:"lessonType,omitempty"`
	LessonURL      string             `bson:"lessonUrl,omitempty" json:"lessonUrl,omitempty"`
	LessonCategory string             `bson:"lessonCategory" json:"lessonCategory"`
	Status         string             `bson:"status" json:"status"`
	CreatedBy      string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ChunkDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ChunkID          string             `bson:"chunkID" json:"chunkID"`
	LessonID         string             `bson:"lessonID" json:"lessonID"`
	ChunkName        string             `bson:"chunkName" json:"chunkName"`
	ChunkNumber      string             `bson:"chunkNumber,omitempty" json:"chunkNumber,omitempty"`
	ChunkType        string             `bson:"chunkType,omitempty" json:"chunkType,omitempty"`
	ChunkURL         string             `bson:"chunkUrl,omitempty" json:"chunkUrl,omitempty"`
	ChunkDescription string             `bson:"chunkDescription,omitempty" json:"chunkDescription,omitempty"`
	Keywords         []string           `bson:"keywords" json:"keywords"`
	ChunkCategory    string             `bson:"chunkCategory" json:"chunkCategory"`
	Status           string             `bson:"status" json:"status"`
	CreatedBy        string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// KeywordDoc is a per-chunk keyword sub-document carrying the embedding
// vector; the full set is replaced on every chunk upsert.
type KeywordDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	KeywordID         string             `bson:"keywordID" json:"keywordID"`
	ChunkID           string             `bson:"chunkID" json:"chunkID"`
	KeywordName       string             `bson:"keywordName" json:"keywordName"`
	Embedding         []float32          `bson:"embedding,omitempty" json:"embedding,omitempty"`
	EmbeddingProvider string             `bson:"embeddingProvider,omitempty" json:"embeddingProvider,omitempty"`
	Status            string             `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type SavedChunk struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Username  string             `bson:"username" json:"username"`
	ChunkID   string             `bson:"chunkID" json:"chunkID"`
	Category  string             `bson:"category" json:"category"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Chain is a fully or partially resolved ancestor path; missing levels
// stay nil.
type Chain struct {
	Class   *ClassDoc
	Subject *SubjectDoc
	Topic   *TopicDoc
	Lesson  *LessonDoc
	Chunk   *ChunkDoc
}
