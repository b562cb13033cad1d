// Package hierarchy holds the pure derivation rules for the five-level
// content hierarchy (Class -> Subject -> Topic -> Lesson -> Chunk).
//
// Map-keys are the human-composable identifiers (TH10_CD1_B1_C1) used as
// derivation input only. Canonical ids (TH10-UD_T1_L1_C1) are the stable
// relational primary keys. Nothing here performs I/O.
package hierarchy

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lastNumberRe = regexp.MustCompile(`\d+`)
	topicMapRe   = regexp.MustCompile(`(?i)^(.+?)_CD(\d+)$`)
	lessonMapRe  = regexp.MustCompile(`(?i)^(.+?)_CD(\d+)_B(\d+)$`)
	chunkMapRe   = regexp.MustCompile(`(?i)^(.+?)_CD(\d+)_B(\d+)_C(\d+)$`)
	classMapRe   = regexp.MustCompile(`(?i)^L(\d+)$`)
)

// Maps is a (possibly partial) set of hierarchy map-keys.
type Maps struct {
	ClassMap   string
	SubjectMap string
	TopicMap   string
	LessonMap  string
	ChunkMap   string
}

// DeepestLevel reports the deepest level a map-key is present for.
func (m Maps) DeepestLevel() string {
	switch {
	case m.ChunkMap != "":
		return LevelChunk
	case m.LessonMap != "":
		return LevelLesson
	case m.TopicMap != "":
		return LevelTopic
	case m.SubjectMap != "":
		return LevelSubject
	case m.ClassMap != "":
		return LevelClass
	}
	return ""
}

const (
	LevelClass   = "class"
	LevelSubject = "subject"
	LevelTopic   = "topic"
	LevelLesson  = "lesson"
	LevelChunk   = "chunk"
)

// Levels in hierarchy order, shallow to deep.
var Levels = []string{LevelClass, LevelSubject, LevelTopic, LevelLesson, LevelChunk}

// TopicParts is the decomposition of a topic map-key, with every shallower
// map-key recovered.
type TopicParts struct {
	ClassMap    string
	SubjectMap  string
	TopicMap    string
	TopicNumber string
}

type LessonParts struct {
	ClassMap     string
	SubjectMap   string
	TopicMap     string
	LessonMap    string
	TopicNumber  string
	LessonNumber string
}

type ChunkParts struct {
	ClassMap     string
	SubjectMap   string
	TopicMap     string
	LessonMap    string
	ChunkMap     string
	TopicNumber  string
	LessonNumber string
	ChunkNumber  string
}

// LastNumber returns the last run of digits in s, or "".
func LastNumber(s string) string {
	m := lastNumberRe.FindAllString(s, -1)
	if len(m) == 0 {
		return ""
	}
	return m[len(m)-1]
}

// DeriveClassMap derives a class map-key (L10) from a subject map-key
// (TH10). Returns "" when the subject map carries no grade number.
func DeriveClassMap(subjectMap string) string {
	n := LastNumber(strings.TrimSpace(subjectMap))
	if n == "" {
		return ""
	}
	return "L" + n
}

// ClassGrade extracts the grade digits from a class map-key (L10 -> 10).
// Falls back to the last number for free-form names like "class-10".
func ClassGrade(classMap string) string {
	s := strings.TrimSpace(classMap)
	if m := classMapRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return LastNumber(s)
}

// ParseTopicMap splits <subject>_CD<n>. Returns nil when the key does not
// match; callers treat nil as "not a topic map".
func ParseTopicMap(topicMap string) *TopicParts {
	s := strings.TrimSpace(topicMap)
	m := topicMapRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &TopicParts{
		ClassMap:    DeriveClassMap(m[1]),
		SubjectMap:  m[1],
		TopicMap:    s,
		TopicNumber: m[2],
	}
}

// ParseLessonMap splits <subject>_CD<n>_B<m>.
func ParseLessonMap(lessonMap string) *LessonParts {
	s := strings.TrimSpace(lessonMap)
	m := lessonMapRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return &LessonParts{
		ClassMap:     DeriveClassMap(m[1]),
		SubjectMap:   m[1],
		TopicMap:     ComposeTopicMap(m[1], m[2]),
		LessonMap:    s,
		TopicNumber:  m[2],
		LessonNumber: m[3],
	}
}

// ParseChunkMap splits <subject>_CD<n>_B<m>_C<k>.
func ParseChunkMap(chunkMap string) *ChunkParts {
	s := strings.TrimSpace(chunkMap)
	m := chunkMapRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	topicMap := ComposeTopicMap(m[1], m[2])
	return &ChunkParts{
		ClassMap:     DeriveClassMap(m[1]),
		SubjectMap:   m[1],
		TopicMap:     topicMap,
		LessonMap:    ComposeLessonMap(topicMap, m[3]),
		ChunkMap:     s,
		TopicNumber:  m[2],
		LessonNumber: m[3],
		ChunkNumber:  m[4],
	}
}

func ComposeTopicMap(subjectMap, topicNumber string) string {
	return fmt.Sprintf("%s_CD%s", subjectMap, topicNumber)
}

func ComposeLessonMap(topicMap, lessonNumber string) string {
	return fmt.Sprintf("%s_B%s", topicMap, lessonNumber)
}

func ComposeChunkMap(lessonMap, chunkNumber string) string {
	return fmt.Sprintf("%s_C%s", lessonMap, chunkNumber)
}

// KeywordMapKey composes the keyword sub-document key for the i-th
// (1-based) keyword of a chunk.
func KeywordMapKey(chunkMap string, index int) string {
	return fmt.Sprintf("%s_K%d", chunkMap, index)
}

// Expand fills in every shallower map-key that can be derived from the
// deepest key present. Explicitly supplied keys are never overwritten.
func Expand(m Maps) Maps {
	if m.ChunkMap != "" {
		if p := ParseChunkMap(m.ChunkMap); p != nil {
			if m.LessonMap == "" {
				m.LessonMap = p.LessonMap
			}
			if m.TopicMap == "" {
				m.TopicMap = p.TopicMap
			}
			if m.SubjectMap == "" {
				m.SubjectMap = p.SubjectMap
			}
			if m.ClassMap == "" {
				m.ClassMap = p.ClassMap
			}
		}
	}
	if m.LessonMap != "" {
		if p := ParseLessonMap(m.LessonMap); p != nil {
			if m.TopicMap == "" {
				m.TopicMap = p.TopicMap
			}
			if m.SubjectMap == "" {
				m.SubjectMap = p.SubjectMap
			}
			if m.ClassMap == "" {
				m.ClassMap = p.ClassMap
			}
		}
	}
	if m.TopicMap != "" {
		if p := ParseTopicMap(m.TopicMap); p != nil {
			if m.SubjectMap == "" {
				m.SubjectMap = p.SubjectMap
			}
			if m.ClassMap == "" {
				m.ClassMap = p.ClassMap
			}
		}
	}
	if m.SubjectMap != "" && m.ClassMap == "" {
		m.ClassMap = DeriveClassMap(m.SubjectMap)
	}
	return m
}
