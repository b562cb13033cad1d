package content

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/studyvault/studyvault-backend/internal/data/repos/testutil"
	types "github.com/studyvault/studyvault-backend/internal/domain/content"
)

func seedChain(t *testing.T, ctx context.Context, tx *gorm.DB) {
	t.Helper()
	log := testutil.Logger(t)

	if err := NewClassRepo(nil, log).Upsert(ctx, tx, &types.Class{ClassID: "10", ClassName: "Class 10"}); err != nil {
		t.Fatalf("seed class: %v", err)
	}
	if err := NewSubjectRepo(nil, log).Upsert(ctx, tx, &types.Subject{SubjectID: "TH10", SubjectName: "Tin học 10", ClassID: "10"}); err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	if err := NewTopicRepo(nil, log).Upsert(ctx, tx, &types.Topic{TopicID: "TH10_T1", TopicName: "Chủ đề 1", SubjectID: "TH10"}); err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	if err := NewLessonRepo(nil, log).Upsert(ctx, tx, &types.Lesson{LessonID: "TH10_T1_L1", LessonName: "Bài 1", TopicID: "TH10_T1"}); err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
}

func TestChunkRepoUpsertAndCandidates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	seedChain(t, ctx, tx)

	repo := NewChunkRepo(db, testutil.Logger(t))

	mongoID := "64a000000000000000000001"
	c1 := &types.Chunk{ChunkID: "TH10_T1_L1_C1", ChunkName: "Thông tin", ChunkType: "document", LessonID: "TH10_T1_L1", MongoID: &mongoID}
	c2 := &types.Chunk{ChunkID: "TH10_T1_L1_C2", ChunkName: "Dữ liệu", ChunkType: "video", LessonID: "TH10_T1_L1"}
	for _, c := range []*types.Chunk{c1, c2} {
		if err := repo.Upsert(ctx, tx, c); err != nil {
			t.Fatalf("Upsert %s: %v", c.ChunkID, err)
		}
	}

	// Re-upsert with a new name and no mongo id: name is overwritten,
	// the stored mongo id survives.
	if err := repo.Upsert(ctx, tx, &types.Chunk{ChunkID: "TH10_T1_L1_C1", ChunkName: "Thông tin mới", ChunkType: "document", LessonID: "TH10_T1_L1"}); err != nil {
		t.Fatalf("re-Upsert: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, "TH10_T1_L1_C1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ChunkName != "Thông tin mới" {
		t.Fatalf("name not overwritten: %q", got.ChunkName)
	}
	if got.MongoID == nil || *got.MongoID != mongoID {
		t.Fatalf("mongo id lost on re-upsert: %v", got.MongoID)
	}

	for name, fn := range map[string]func() ([]string, error){
		"lesson":  func() ([]string, error) { return repo.IDsUnderLesson(ctx, tx, "TH10_T1_L1") },
		"topic":   func() ([]string, error) { return repo.IDsUnderTopic(ctx, tx, "TH10_T1") },
		"subject": func() ([]string, error) { return repo.IDsUnderSubject(ctx, tx, "TH10") },
		"class":   func() ([]string, error) { return repo.IDsUnderClass(ctx, tx, "10") },
	} {
		ids, err := fn()
		if err != nil {
			t.Fatalf("IDsUnder %s: %v", name, err)
		}
		if len(ids) != 2 {
			t.Fatalf("IDsUnder %s: want 2 ids, got %v", name, ids)
		}
	}

	rows, err := repo.HierarchyByIDs(ctx, tx, []string{"TH10_T1_L1_C1"})
	if err != nil {
		t.Fatalf("HierarchyByIDs: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("HierarchyByIDs: want 1 row, got %d", len(rows))
	}
	h := rows[0]
	if h.LessonID != "TH10_T1_L1" || h.TopicID != "TH10_T1" || h.SubjectID != "TH10" || h.ClassID != "10" {
		t.Fatalf("hierarchy ids wrong: %+v", h)
	}
	if h.SubjectName != "Tin học 10" || h.ClassName != "Class 10" {
		t.Fatalf("hierarchy names wrong: %+v", h)
	}
}
