package importer

import (
	"strings"

	"github.com/studyvault/studyvault-backend/internal/hierarchy"
)

// syncUnit is one relational sync to run. Syncing a chain covers every
// ancestor of its deepest level, so the plan drops ancestor rows whose
// subtree already contains a deeper unit.
type syncUnit struct {
	Level    string
	Key      string
	Maps     hierarchy.Maps
	Category string
}

// buildPlan returns deduplicated sync units in deep-to-shallow order.
func buildPlan(b *Batch) []syncUnit {
	var units []syncUnit
	seen := map[string]bool{}
	add := func(level, key string, m hierarchy.Maps, category string) {
		id := level + ":" + key
		if seen[id] {
			return
		}
		seen[id] = true
		units = append(units, syncUnit{Level: level, Key: key, Maps: hierarchy.Expand(m), Category: category})
	}

	// Deeper map keys, used to detect covered ancestors.
	var chunkKeys, lessonOrDeeper, anyDeeper []string
	for _, r := range b.Chunks {
		chunkKeys = append(chunkKeys, r.ChunkMap)
		lessonOrDeeper = append(lessonOrDeeper, r.ChunkMap)
		anyDeeper = append(anyDeeper, r.ChunkMap)
	}
	for _, r := range b.Lessons {
		lessonOrDeeper = append(lessonOrDeeper, r.LessonMap)
		anyDeeper = append(anyDeeper, r.LessonMap)
	}
	for _, r := range b.Topics {
		anyDeeper = append(anyDeeper, r.TopicMap)
	}

	for _, r := range b.Chunks {
		add(hierarchy.LevelChunk, r.ChunkMap, hierarchy.Maps{ChunkMap: r.ChunkMap}, r.Category)
	}
	for _, r := range b.Lessons {
		if anyHasPrefix(chunkKeys, r.LessonMap+"_C") {
			continue
		}
		add(hierarchy.LevelLesson, r.LessonMap, hierarchy.Maps{LessonMap: r.LessonMap}, r.Category)
	}
	for _, r := range b.Topics {
		if anyHasPrefix(lessonOrDeeper, r.TopicMap+"_B") {
			continue
		}
		add(hierarchy.LevelTopic, r.TopicMap, hierarchy.Maps{TopicMap: r.TopicMap}, r.Category)
	}
	for _, r := range b.Subjects {
		if anyHasPrefix(anyDeeper, r.SubjectMap+"_CD") {
			continue
		}
		add(hierarchy.LevelSubject, r.SubjectMap,
			hierarchy.Maps{SubjectMap: r.SubjectMap, ClassMap: r.ClassMap}, r.Category)
	}
	for _, r := range b.Classes {
		if classCovered(b, r.ClassMap) {
			continue
		}
		add(hierarchy.LevelClass, r.ClassMap, hierarchy.Maps{ClassMap: r.ClassMap}, b.Category)
	}
	return units
}

func anyHasPrefix(keys []string, prefix string) bool {
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// classCovered reports whether any other row in the batch expands to
// this class, making a standalone class sync redundant.
func classCovered(b *Batch, classMap string) bool {
	for _, r := range b.Subjects {
		if r.ClassMap == classMap {
			return true
		}
	}
	for _, r := range b.Topics {
		if m := hierarchy.Expand(hierarchy.Maps{TopicMap: r.TopicMap}); m.ClassMap == classMap {
			return true
		}
	}
	for _, r := range b.Lessons {
		if m := hierarchy.Expand(hierarchy.Maps{LessonMap: r.LessonMap}); m.ClassMap == classMap {
			return true
		}
	}
	for _, r := range b.Chunks {
		if m := hierarchy.Expand(hierarchy.Maps{ChunkMap: r.ChunkMap}); m.ClassMap == classMap {
			return true
		}
	}
	return false
}
