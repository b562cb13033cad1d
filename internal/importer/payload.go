// Package importer ingests bulk content batches: parsing workbook
// uploads into a batch, planning which chains need a relational sync,
// and running the upsert pipeline row by row.
package importer

import (
	"strings"

	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

type ClassRow struct {
	ClassMap string `json:"class_map"`
	Name     string `json:"name"`
}

type SubjectRow struct {
	SubjectMap string `json:"subject_map"`
	ClassMap   string `json:"class_map,omitempty"`
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	Category   string `json:"category,omitempty"`
}

type TopicRow struct {
	TopicMap string `json:"topic_map"`
	Name     string `json:"name"`
	Number   string `json:"number,omitempty"`
	URL      string `json:"url,omitempty"`
	Category string `json:"category,omitempty"`
}

type LessonRow struct {
	LessonMap string `json:"lesson_map"`
	Name      string `json:"name"`
	Number    string `json:"number,omitempty"`
	Type      string `json:"type,omitempty"`
	URL       string `json:"url,omitempty"`
	Category  string `json:"category,omitempty"`
}

type ChunkRow struct {
	ChunkMap    string   `json:"chunk_map"`
	Name        string   `json:"name"`
	Number      string   `json:"number,omitempty"`
	Type        string   `json:"type,omitempty"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Batch is one bulk import request. Category is the batch default;
// rows may override it.
type Batch struct {
	Category string `json:"category,omitempty"`
	Actor    string `json:"actor,omitempty"`

	Classes  []ClassRow   `json:"classes,omitempty"`
	Subjects []SubjectRow `json:"subjects,omitempty"`
	Topics   []TopicRow   `json:"topics,omitempty"`
	Lessons  []LessonRow  `json:"lessons,omitempty"`
	Chunks   []ChunkRow   `json:"chunks,omitempty"`
}

func (b *Batch) Empty() bool {
	return len(b.Classes) == 0 && len(b.Subjects) == 0 && len(b.Topics) == 0 &&
		len(b.Lessons) == 0 && len(b.Chunks) == 0
}

// Normalize trims map keys, applies the batch default category and
// drops empty keyword strings. Returns a validation error for rows
// with no map key at all.
func (b *Batch) Normalize() error {
	b.Category = docs.NormalizeCategory(b.Category)

	for i := range b.Classes {
		b.Classes[i].ClassMap = strings.TrimSpace(b.Classes[i].ClassMap)
		if b.Classes[i].ClassMap == "" {
			return apierr.Validation("classes[%d]: class_map is required", i)
		}
	}
	for i := range b.Subjects {
		r := &b.Subjects[i]
		r.SubjectMap = strings.TrimSpace(r.SubjectMap)
		r.ClassMap = strings.TrimSpace(r.ClassMap)
		if r.SubjectMap == "" {
			return apierr.Validation("subjects[%d]: subject_map is required", i)
		}
		if r.ClassMap == "" {
			r.ClassMap = hierarchy.DeriveClassMap(r.SubjectMap)
		}
		if r.ClassMap == "" {
			return apierr.Validation("subjects[%d]: class_map is required for %q", i, r.SubjectMap)
		}
		r.Category = rowCategory(r.Category, b.Category)
	}
	for i := range b.Topics {
		r := &b.Topics[i]
		r.TopicMap = strings.TrimSpace(r.TopicMap)
		if r.TopicMap == "" {
			return apierr.Validation("topics[%d]: topic_map is required", i)
		}
		if hierarchy.ParseTopicMap(r.TopicMap) == nil {
			return apierr.Validation("topics[%d]: %q is not a topic map key", i, r.TopicMap)
		}
		r.Category = rowCategory(r.Category, b.Category)
	}
	for i := range b.Lessons {
		r := &b.Lessons[i]
		r.LessonMap = strings.TrimSpace(r.LessonMap)
		if r.LessonMap == "" {
			return apierr.Validation("lessons[%d]: lesson_map is required", i)
		}
		if hierarchy.ParseLessonMap(r.LessonMap) == nil {
			return apierr.Validation("lessons[%d]: %q is not a lesson map key", i, r.LessonMap)
		}
		r.Category = rowCategory(r.Category, b.Category)
	}
	for i := range b.Chunks {
		r := &b.Chunks[i]
		r.ChunkMap = strings.TrimSpace(r.ChunkMap)
		if r.ChunkMap == "" {
			return apierr.Validation("chunks[%d]: chunk_map is required", i)
		}
		if hierarchy.ParseChunkMap(r.ChunkMap) == nil {
			return apierr.Validation("chunks[%d]: %q is not a chunk map key", i, r.ChunkMap)
		}
		r.Category = rowCategory(r.Category, b.Category)

		kept := r.Keywords[:0]
		for _, kw := range r.Keywords {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				kept = append(kept, kw)
			}
		}
		r.Keywords = kept
	}
	return nil
}

func rowCategory(own, fallback string) string {
	if strings.TrimSpace(own) == "" {
		return fallback
	}
	return docs.NormalizeCategory(own)
}
