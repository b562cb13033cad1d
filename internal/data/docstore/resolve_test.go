package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/embedding"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// testStore connects to the Mongo instance named by TEST_MONGO_URI and
// hands back a store over a throwaway database, dropped on cleanup.
// Tests are skipped when the variable is unset.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping docstore integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	db := client.Database(fmt.Sprintf("studyvault_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database: %v", err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("disconnect mongo: %v", err)
		}
	})

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return New(db, embedding.NewHashProvider(64), log)
}

// A chunk that was re-parented carries a lessonID different from the
// one its own map key would expand to; resolution must follow the
// stored reference up the chain.
func TestResolveChainPrefersStoredParents(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	category := docs.NormalizeCategory("")

	seed := []struct {
		col string
		doc bson.M
	}{
		{docs.ColClasses, bson.M{"classID": "10", "className": "Lớp 10", "status": docs.StatusActive}},
		{docs.ColSubjects, bson.M{"subjectID": "TH10", "classID": "10",
			"subjectName": "Tin học 10", "subjectCategory": category, "status": docs.StatusActive}},
		{docs.ColTopics, bson.M{"topicID": "TH10_CD2", "subjectID": "TH10",
			"topicName": "Chủ đề 2", "topicCategory": category, "status": docs.StatusActive}},
		{docs.ColLessons, bson.M{"lessonID": "TH10_CD2_B5", "topicID": "TH10_CD2",
			"lessonName": "Bài 5", "lessonCategory": category, "status": docs.StatusActive}},
		// The chunk's map key expands to lesson TH10_CD1_B1, but its
		// stored parent is TH10_CD2_B5.
		{docs.ColChunks, bson.M{"chunkID": "TH10_CD1_B1_C1", "lessonID": "TH10_CD2_B5",
			"chunkName": "Thông tin", "chunkCategory": category, "status": docs.StatusActive}},
	}
	for _, s := range seed {
		if _, err := store.col(s.col).InsertOne(ctx, s.doc); err != nil {
			t.Fatalf("seed %s: %v", s.col, err)
		}
	}

	chain := store.ResolveChain(ctx, hierarchy.Maps{ChunkMap: "TH10_CD1_B1_C1"}, "")
	if chain.Chunk == nil {
		t.Fatal("chunk not resolved")
	}
	if chain.Lesson == nil || chain.Lesson.LessonID != "TH10_CD2_B5" {
		t.Fatalf("resolution ignored the stored lesson reference: %+v", chain.Lesson)
	}
	if chain.Topic == nil || chain.Topic.TopicID != "TH10_CD2" {
		t.Fatalf("topic not resolved through the stored lesson: %+v", chain.Topic)
	}
	if chain.Subject == nil || chain.Subject.SubjectID != "TH10" {
		t.Fatalf("subject not resolved: %+v", chain.Subject)
	}
	if chain.Class == nil || chain.Class.ClassID != "10" {
		t.Fatalf("class not resolved: %+v", chain.Class)
	}
}

// Without stored parents the expansion-derived keys still resolve the
// whole chain.
func TestResolveChainFallsBackToExpansion(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	category := docs.NormalizeCategory("")

	if _, err := store.col(docs.ColLessons).InsertOne(ctx, bson.M{
		"lessonID": "TH10_CD1_B1", "lessonName": "Bài 1",
		"lessonCategory": category, "status": docs.StatusActive,
	}); err != nil {
		t.Fatalf("seed lesson: %v", err)
	}

	chain := store.ResolveChain(ctx, hierarchy.Maps{ChunkMap: "TH10_CD1_B1_C1"}, "")
	if chain.Chunk != nil {
		t.Fatal("unexpected chunk document")
	}
	if chain.Lesson == nil || chain.Lesson.LessonID != "TH10_CD1_B1" {
		t.Fatalf("expansion fallback failed: %+v", chain.Lesson)
	}
}
