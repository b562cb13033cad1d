package hierarchy

import (
	"regexp"
	"strings"
)

// Canonical id scheme: one-way derived from map-keys, idempotent, used as
// the relational primary keys.
//
//	class   10
//	subject TH10 | TH11-UD | TH12-KHMT
//	topic   <subject>_T<n>
//	lesson  <topic>_L<m>
//	chunk   <lesson>_C<k>
//	keyword <chunk>::<slug>

const (
	SuffixApplied  = "UD"   // tin học ứng dụng / applied informatics
	SuffixCompSci  = "KHMT" // khoa học máy tính / computer science
	keywordIDJoint = "::"
)

var subjectSuffixRe = regexp.MustCompile(`(?i)[-_]([A-Z]{2,6})$`)

// CanonicalClassID is the grade digits of the class map-key ("L10" -> "10").
func CanonicalClassID(classMap string) string {
	return ClassGrade(classMap)
}

// CanonicalSubjectID derives the relational subject id.
//
// Grade 10 subjects have a single curriculum, so the id is the bare base
// (TH10). Grades 11 and 12 split into applied (UD) and computer-science
// (KHMT) streams: the suffix comes from an explicit code at the end of the
// subject map-key when present, otherwise it is inferred from the subject
// name, defaulting to UD. An empty grade yields an empty id; callers must
// check before keying on it.
func CanonicalSubjectID(subjectMap, grade, subjectName string) string {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		grade = LastNumber(subjectMap)
	}
	if grade == "" {
		return ""
	}
	base := "TH" + grade
	if grade == "10" {
		return base
	}

	if m := subjectSuffixRe.FindStringSubmatch(strings.TrimSpace(subjectMap)); m != nil {
		return base + "-" + strings.ToUpper(m[1])
	}
	return base + "-" + inferStreamSuffix(subjectName)
}

func inferStreamSuffix(subjectName string) string {
	n := strings.ToLower(subjectName)
	switch {
	case strings.Contains(n, "khmt"), strings.Contains(n, "computer science"),
		strings.Contains(n, "khoa học máy tính"), strings.Contains(n, "khoa hoc may tinh"):
		return SuffixCompSci
	}
	return SuffixApplied
}

func CanonicalTopicID(subjectID, topicNumber string) string {
	if subjectID == "" || topicNumber == "" {
		return ""
	}
	return subjectID + "_T" + topicNumber
}

func CanonicalLessonID(topicID, lessonNumber string) string {
	if topicID == "" || lessonNumber == "" {
		return ""
	}
	return topicID + "_L" + lessonNumber
}

func CanonicalChunkID(lessonID, chunkNumber string) string {
	if lessonID == "" || chunkNumber == "" {
		return ""
	}
	return lessonID + "_C" + chunkNumber
}

// CanonicalKeywordID is <chunk id>::<slug>. Empty when either part
// degrades to empty.
func CanonicalKeywordID(chunkID, keywordText string) string {
	slug := Slug(keywordText)
	if chunkID == "" || slug == "" {
		return ""
	}
	return chunkID + keywordIDJoint + slug
}

// CanonicalIDs is the full derived id chain for one hierarchy path.
type CanonicalIDs struct {
	ClassID    string
	SubjectID  string
	TopicID    string
	LessonID   string
	ChunkID    string
	KeywordIDs []string
}

// DeriveCanonical computes every canonical id reachable from the supplied
// maps. subjectName participates only in the 11/12 stream inference.
func DeriveCanonical(m Maps, subjectName string) CanonicalIDs {
	m = Expand(m)

	var ids CanonicalIDs
	ids.ClassID = CanonicalClassID(m.ClassMap)

	grade := ClassGrade(m.ClassMap)
	if m.SubjectMap != "" {
		ids.SubjectID = CanonicalSubjectID(m.SubjectMap, grade, subjectName)
	}
	if p := ParseTopicMap(m.TopicMap); p != nil {
		ids.TopicID = CanonicalTopicID(ids.SubjectID, p.TopicNumber)
	}
	if p := ParseLessonMap(m.LessonMap); p != nil {
		ids.LessonID = CanonicalLessonID(ids.TopicID, p.LessonNumber)
	}
	if p := ParseChunkMap(m.ChunkMap); p != nil {
		ids.ChunkID = CanonicalChunkID(ids.LessonID, p.ChunkNumber)
	}
	return ids
}
