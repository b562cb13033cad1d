package importer

import (
	"testing"

	"github.com/studyvault/studyvault-backend/internal/hierarchy"
)

func TestBuildPlanCoveredAncestorsDropped(t *testing.T) {
	b := &Batch{
		Classes:  []ClassRow{{ClassMap: "L10", Name: "Lớp 10"}},
		Subjects: []SubjectRow{{SubjectMap: "TH10", ClassMap: "L10", Name: "Tin học 10"}},
		Topics:   []TopicRow{{TopicMap: "TH10_CD1", Name: "Chủ đề 1"}},
		Lessons:  []LessonRow{{LessonMap: "TH10_CD1_B1", Name: "Bài 1"}},
		Chunks:   []ChunkRow{{ChunkMap: "TH10_CD1_B1_C1", Name: "Thông tin"}},
	}
	if err := b.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	units := buildPlan(b)
	if len(units) != 1 {
		t.Fatalf("one chunk covers the whole chain, want 1 unit, got %d: %+v", len(units), units)
	}
	u := units[0]
	if u.Level != hierarchy.LevelChunk || u.Key != "TH10_CD1_B1_C1" {
		t.Fatalf("unexpected unit: %+v", u)
	}
	if u.Maps.ClassMap != "L10" || u.Maps.LessonMap != "TH10_CD1_B1" {
		t.Fatalf("unit maps not expanded: %+v", u.Maps)
	}
}

func TestBuildPlanUncoveredLevelsKept(t *testing.T) {
	b := &Batch{
		Lessons: []LessonRow{
			{LessonMap: "TH10_CD1_B1", Name: "Bài 1"},
			{LessonMap: "TH10_CD1_B2", Name: "Bài 2"},
		},
		Chunks: []ChunkRow{{ChunkMap: "TH10_CD1_B1_C1", Name: "Thông tin"}},
		Topics: []TopicRow{{TopicMap: "TH11_CD3", Name: "Chủ đề 3"}},
	}
	if err := b.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	units := buildPlan(b)
	got := map[string]string{}
	for _, u := range units {
		got[u.Key] = u.Level
	}

	// B1 is covered by its chunk; B2 and the unrelated topic are not.
	if _, ok := got["TH10_CD1_B1"]; ok {
		t.Fatal("covered lesson must not sync separately")
	}
	if got["TH10_CD1_B2"] != hierarchy.LevelLesson {
		t.Fatalf("uncovered lesson missing from plan: %v", got)
	}
	if got["TH11_CD3"] != hierarchy.LevelTopic {
		t.Fatalf("uncovered topic missing from plan: %v", got)
	}
	if got["TH10_CD1_B1_C1"] != hierarchy.LevelChunk {
		t.Fatalf("chunk missing from plan: %v", got)
	}
}

func TestBuildPlanDeepToShallowAndDeduped(t *testing.T) {
	b := &Batch{
		Chunks: []ChunkRow{
			{ChunkMap: "TH10_CD1_B1_C1", Name: "a"},
			{ChunkMap: "TH10_CD1_B1_C1", Name: "a again"},
		},
		Lessons: []LessonRow{{LessonMap: "TH12_CD2_B1", Name: "Bài 1"}},
		Classes: []ClassRow{{ClassMap: "L9", Name: "Lớp 9"}},
	}
	if err := b.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	units := buildPlan(b)
	if len(units) != 3 {
		t.Fatalf("want 3 units after dedupe, got %d", len(units))
	}
	if units[0].Level != hierarchy.LevelChunk ||
		units[1].Level != hierarchy.LevelLesson ||
		units[2].Level != hierarchy.LevelClass {
		t.Fatalf("plan order must be deep to shallow: %+v", units)
	}
}

func TestNormalizeRejectsMalformedKeys(t *testing.T) {
	b := &Batch{Chunks: []ChunkRow{{ChunkMap: "TH10_CD1_B1"}}}
	if err := b.Normalize(); err == nil {
		t.Fatal("a lesson map key must not pass as a chunk map key")
	}

	b = &Batch{Subjects: []SubjectRow{{SubjectMap: "TIN"}}}
	if err := b.Normalize(); err == nil {
		t.Fatal("subject with underivable class map must fail")
	}

	// Subject with derivable class map passes and gets it filled in.
	b = &Batch{Subjects: []SubjectRow{{SubjectMap: "TH10", Name: "Tin học 10"}}}
	if err := b.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if b.Subjects[0].ClassMap != "L10" {
		t.Fatalf("class map not derived: %q", b.Subjects[0].ClassMap)
	}
}
