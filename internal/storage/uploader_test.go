package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type fakeObjects struct {
	put      []string
	removed  []string
	failPut  bool
	existing map[string]bool
}

func (f *fakeObjects) Put(_ context.Context, objectName string, _ io.Reader, _ int64, _ string) (string, error) {
	if f.failPut {
		return "", errors.New("minio down")
	}
	f.put = append(f.put, objectName)
	return "http://files/" + objectName, nil
}

func (f *fakeObjects) Exists(_ context.Context, objectName string) (bool, error) {
	return f.existing[objectName], nil
}

func (f *fakeObjects) Remove(_ context.Context, objectName string) error {
	f.removed = append(f.removed, objectName)
	return nil
}

func (f *fakeObjects) PublicURL(objectName string) string {
	return "http://files/" + objectName
}

type fakeDocWriter struct {
	upserts []docstore.ChainInput
	hidden  []string
	fail    bool
}

func (f *fakeDocWriter) UpsertChain(_ context.Context, in docstore.ChainInput) (*docstore.ChainStats, error) {
	if f.fail {
		return nil, errors.New("mongo down")
	}
	f.upserts = append(f.upserts, in)
	return &docstore.ChainStats{Chunks: 1}, nil
}

func (f *fakeDocWriter) SetChunkStatus(_ context.Context, chunkMap, category, status string) error {
	if status == docs.StatusHidden {
		f.hidden = append(f.hidden, chunkMap)
	}
	return nil
}

type fakeRelational struct {
	calls []hierarchy.Maps
	fail  bool
}

func (f *fakeRelational) SyncCanonicalByMaps(_ context.Context, m hierarchy.Maps, category string) (*hierarchy.CanonicalIDs, error) {
	if f.fail {
		return nil, errors.New("postgres down")
	}
	f.calls = append(f.calls, m)
	ids := hierarchy.DeriveCanonical(m, "")
	return &ids, nil
}

func newTestUploader(t *testing.T, obj *fakeObjects, dw *fakeDocWriter, rel *fakeRelational) *Uploader {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewUploader(obj, dw, rel, nil, log)
}

func TestUploadAndSyncHappyPath(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	res, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:     "lop10/tin-hoc/chu-de-1/bai-1/thong-tin.pdf",
		ChunkMap: "TH10_CD1_B1_C1",
		Name:     "Thông tin và dữ liệu",
		Keywords: []string{"Xin chào"},
		Body:     strings.NewReader("pdf bytes"),
		Size:     9,
	})
	if err != nil {
		t.Fatalf("UploadAndSync: %v", err)
	}
	if res.URL == "" || !strings.HasSuffix(res.URL, "thong-tin.pdf") {
		t.Fatalf("url wrong: %q", res.URL)
	}
	if res.IDs == nil || res.IDs.ChunkID != "TH10_T1_L1_C1" {
		t.Fatalf("ids wrong: %+v", res.IDs)
	}

	if len(dw.upserts) != 1 {
		t.Fatalf("want 1 doc upsert, got %d", len(dw.upserts))
	}
	chunk := dw.upserts[0].Chunk
	if chunk == nil || chunk.URL != res.URL || chunk.Type != docs.CategoryDocument {
		t.Fatalf("chunk fields wrong: %+v", chunk)
	}
	if len(obj.removed) != 0 || len(dw.hidden) != 0 {
		t.Fatal("nothing should be compensated on success")
	}
}

func TestUploadRollsBackObjectWhenDocumentSyncFails(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{fail: true}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	_, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:     "a/b.pdf",
		ChunkMap: "TH10_CD1_B1_C1",
		Body:     strings.NewReader("x"),
		Size:     1,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got %T", err)
	}
	if apiErr.Stage != apierr.StageDocumentSync || !apiErr.Compensated {
		t.Fatalf("stage/compensation wrong: %+v", apiErr)
	}
	if len(obj.removed) != 1 || obj.removed[0] != "a/b.pdf" {
		t.Fatalf("object not rolled back: %v", obj.removed)
	}
	if len(rel.calls) != 0 {
		t.Fatal("relational sync must not run after document failure")
	}
}

func TestUploadCompensatesBothStoresWhenRelationalSyncFails(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{fail: true}
	up := newTestUploader(t, obj, dw, rel)

	_, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:     "a/b.mp4",
		ChunkMap: "TH10_CD1_B1_C1",
		Body:     strings.NewReader("x"),
		Size:     1,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got %T", err)
	}
	if apiErr.Stage != apierr.StageRelationalSync || !apiErr.Compensated {
		t.Fatalf("stage/compensation wrong: %+v", apiErr)
	}
	if len(dw.hidden) != 1 || dw.hidden[0] != "TH10_CD1_B1_C1" {
		t.Fatalf("chunk not re-hidden: %v", dw.hidden)
	}
	if len(obj.removed) != 1 {
		t.Fatalf("object not removed: %v", obj.removed)
	}
}

func TestUploadValidationBeforeAnyWrite(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	cases := []UploadInput{
		{Path: "a/b.pdf"},                                      // no chunk map
		{Path: "a/b", ChunkMap: "TH10_CD1_B1_C1"},              // no extension
		{Path: "../b.pdf", ChunkMap: "TH10_CD1_B1_C1"},         // parent segment
		{Path: "a/b.pdf", ChunkMap: "TH10_CD1_B1"},             // lesson key, not chunk
		{Path: "a\\b.pdf", ChunkMap: "TH10_CD1_B1_C1"},         // backslash
	}
	for i, in := range cases {
		in.Body = strings.NewReader("x")
		in.Size = 1
		if _, err := up.UploadAndSync(context.Background(), in); !apierr.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if len(obj.put) != 0 || len(dw.upserts) != 0 {
		t.Fatal("validation failures must not touch any store")
	}
}

func TestUploadRejectsExistingObject(t *testing.T) {
	obj := &fakeObjects{existing: map[string]bool{"a/b.pdf": true}}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	_, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:     "a/b.pdf",
		ChunkMap: "TH10_CD1_B1_C1",
		Body:     strings.NewReader("x"),
		Size:     1,
	})
	if !apierr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(obj.put) != 0 || len(dw.upserts) != 0 {
		t.Fatal("conflicting upload must not write anywhere")
	}
}

// The directory layout names the ancestors: class/subject/topic/lesson
// folders, then the file. Everything not supplied as metadata comes
// from there.
func TestUploadDerivesDefaultsFromPath(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	if _, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:     "Lớp 10/Tin học/Chủ đề 1/Bài 2/TT1.docx",
		ChunkMap: "TH10_CD1_B2_C1",
		Body:     strings.NewReader("x"),
		Size:     1,
	}); err != nil {
		t.Fatalf("UploadAndSync: %v", err)
	}

	in := dw.upserts[0]
	if in.Class == nil || in.Class.Name != "Lớp 10" {
		t.Fatalf("class name not derived: %+v", in.Class)
	}
	if in.Subject == nil || in.Subject.Name != "Tin học" {
		t.Fatalf("subject name not derived: %+v", in.Subject)
	}
	if in.Topic == nil || in.Topic.Name != "Chủ đề 1" || in.Topic.Number != "1" {
		t.Fatalf("topic fields not derived: %+v", in.Topic)
	}
	if in.Lesson == nil || in.Lesson.Name != "Bài 2" || in.Lesson.Number != "2" {
		t.Fatalf("lesson fields not derived: %+v", in.Lesson)
	}
	if in.Chunk.Name != "TT1" || in.Chunk.Number != "1" {
		t.Fatalf("chunk defaults not derived: %+v", in.Chunk)
	}

	if in.Subject.URL != "http://files/Lớp 10" {
		t.Fatalf("subject url wrong: %q", in.Subject.URL)
	}
	if in.Topic.URL != "http://files/Lớp 10/Tin học" {
		t.Fatalf("topic url wrong: %q", in.Topic.URL)
	}
	if in.Lesson.URL != "http://files/Lớp 10/Tin học/Chủ đề 1/Bài 2" {
		t.Fatalf("lesson url wrong: %q", in.Lesson.URL)
	}
}

// Supplied metadata wins over whatever the path would derive.
func TestUploadMetadataOverridesPathDefaults(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	if _, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:        "Lớp 10/Tin học/Chủ đề 1/Bài 2/TT1.docx",
		ChunkMap:    "TH10_CD1_B2_C1",
		Name:        "Thông tin",
		SubjectName: "Tin học 10",
		LessonName:  "Bài 5",
		Body:        strings.NewReader("x"),
		Size:        1,
	}); err != nil {
		t.Fatalf("UploadAndSync: %v", err)
	}

	in := dw.upserts[0]
	if in.Subject.Name != "Tin học 10" {
		t.Fatalf("subject metadata not honored: %q", in.Subject.Name)
	}
	if in.Lesson.Name != "Bài 5" || in.Lesson.Number != "5" {
		t.Fatalf("lesson metadata not honored: %+v", in.Lesson)
	}
	if in.Chunk.Name != "Thông tin" {
		t.Fatalf("chunk metadata not honored: %q", in.Chunk.Name)
	}
	// Class and topic still come from the path.
	if in.Class.Name != "Lớp 10" || in.Topic.Name != "Chủ đề 1" {
		t.Fatalf("path fallbacks lost: %+v %+v", in.Class, in.Topic)
	}
}

func TestUploadInfersCategoryFromExtension(t *testing.T) {
	obj := &fakeObjects{}
	dw := &fakeDocWriter{}
	rel := &fakeRelational{}
	up := newTestUploader(t, obj, dw, rel)

	if _, err := up.UploadAndSync(context.Background(), UploadInput{
		Path:     "a/clip.mp4",
		ChunkMap: "TH10_CD1_B1_C1",
		Body:     strings.NewReader("x"),
		Size:     1,
	}); err != nil {
		t.Fatalf("UploadAndSync: %v", err)
	}
	if dw.upserts[0].Category != docs.CategoryVideo {
		t.Fatalf("category not inferred: %q", dw.upserts[0].Category)
	}
	if dw.upserts[0].Chunk.Type != docs.CategoryVideo {
		t.Fatalf("chunk type not inferred: %q", dw.upserts[0].Chunk.Type)
	}
}
