package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	repos "github.com/studyvault/studyvault-backend/internal/data/repos/content"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/embedding"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type fakeRelational struct {
	under        map[string][]string
	vectors      []KeywordVector
	refs         map[string]string
	hiers        map[string]*repos.ChunkHierarchy
	vectorsCalls int
	failUnder    bool
	failVectors  bool
	failRefs     bool
}

func (f *fakeRelational) ChunkIDsUnder(_ context.Context, level, id string) ([]string, error) {
	if f.failUnder {
		return nil, errors.New("postgres down")
	}
	return f.under[level+":"+id], nil
}

func (f *fakeRelational) KeywordVectors(_ context.Context, chunkIDs []string) ([]KeywordVector, error) {
	f.vectorsCalls++
	if f.failVectors {
		return nil, errors.New("postgres down")
	}
	if chunkIDs == nil {
		return f.vectors, nil
	}
	allow := map[string]bool{}
	for _, id := range chunkIDs {
		allow[id] = true
	}
	var out []KeywordVector
	for _, v := range f.vectors {
		if allow[v.ChunkID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRelational) MongoRefs(_ context.Context, chunkIDs []string) (map[string]string, error) {
	if f.failRefs {
		return nil, errors.New("postgres down")
	}
	out := map[string]string{}
	for _, id := range chunkIDs {
		if hex, ok := f.refs[id]; ok {
			out[id] = hex
		}
	}
	return out, nil
}

func (f *fakeRelational) Hierarchies(_ context.Context, chunkIDs []string) (map[string]*repos.ChunkHierarchy, error) {
	out := map[string]*repos.ChunkHierarchy{}
	for _, id := range chunkIDs {
		if h, ok := f.hiers[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

type fakeDocuments struct {
	// chunks is keyed by hex object id, the way the store serves them.
	chunks     map[string]*docs.ChunkDoc
	saved      map[string]bool
	failChunks bool
}

func (f *fakeDocuments) ChunksByObjectIDs(_ context.Context, hexIDs []string) (map[string]*docs.ChunkDoc, error) {
	if f.failChunks {
		return nil, errors.New("mongo down")
	}
	out := map[string]*docs.ChunkDoc{}
	for _, hex := range hexIDs {
		if d, ok := f.chunks[hex]; ok {
			out[hex] = d
		}
	}
	return out, nil
}

func (f *fakeDocuments) SavedSet(_ context.Context, username string) (map[string]bool, error) {
	return f.saved, nil
}

func newTestEngine(t *testing.T, rel Relational, documents Documents) *Engine {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewEngine(rel, documents, embedding.NewHashProvider(64), log)
}

func canonicalID(i int) string { return fmt.Sprintf("TH10_T1_L1_C%d", i) }
func mapKey(i int) string      { return fmt.Sprintf("TH10_CD1_B1_C%d", i) }
func hexID(i int) string       { return fmt.Sprintf("%024x", i) }

// fixture builds n chunks, each with one keyword whose text contains
// the shared token so every chunk scores against the query. Chunks are
// scored under their relational ids; their documents are keyed by map
// key and linked through a mongo ref, as in the real stores.
func fixture(t *testing.T, n int) (*fakeRelational, *fakeDocuments) {
	t.Helper()
	provider := embedding.NewHashProvider(64)
	rel := &fakeRelational{
		under: map[string][]string{},
		refs:  map[string]string{},
		hiers: map[string]*repos.ChunkHierarchy{},
	}
	documents := &fakeDocuments{chunks: map[string]*docs.ChunkDoc{}, saved: map[string]bool{}}

	for i := 1; i <= n; i++ {
		chunkID := canonicalID(i)
		text := fmt.Sprintf("dữ liệu số %d", i)
		vec, err := provider.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("embed fixture: %v", err)
		}
		rel.vectors = append(rel.vectors, KeywordVector{
			KeywordID: chunkID + "::kw",
			ChunkID:   chunkID,
			Vector:    vec,
		})
		rel.refs[chunkID] = hexID(i)
		rel.hiers[chunkID] = &repos.ChunkHierarchy{
			ChunkID: chunkID, ChunkName: "Chunk " + chunkID,
			LessonID: "TH10_T1_L1", LessonName: "Bài 1",
			TopicID: "TH10_T1", TopicName: "Chủ đề 1",
			SubjectID: "TH10", SubjectName: "Tin học 10",
			ClassID: "10", ClassName: "Lớp 10",
		}
		documents.chunks[hexID(i)] = &docs.ChunkDoc{
			ChunkID: mapKey(i), ChunkName: "Chunk " + chunkID,
			ChunkURL: "http://files/" + mapKey(i), Status: docs.StatusActive,
			Keywords: []string{text},
		}
	}
	return rel, documents
}

func TestSearchTotalConsistentAcrossPages(t *testing.T) {
	rel, documents := fixture(t, 7)
	engine := newTestEngine(t, rel, documents)
	ctx := context.Background()

	seen := map[string]bool{}
	var total int
	for page := 1; ; page++ {
		res, err := engine.Search(ctx, Params{Query: "dữ liệu", Page: page, PageSize: 3})
		if err != nil {
			t.Fatalf("Search page %d: %v", page, err)
		}
		if page == 1 {
			total = res.Total
		} else if res.Total != total {
			t.Fatalf("total drifted: page 1 said %d, page %d says %d", total, page, res.Total)
		}
		if len(res.Items) == 0 {
			break
		}
		for _, item := range res.Items {
			if seen[item.ChunkID] {
				t.Fatalf("chunk %s appeared on two pages", item.ChunkID)
			}
			seen[item.ChunkID] = true
		}
	}
	if len(seen) != total {
		t.Fatalf("walked %d items, total said %d", len(seen), total)
	}
	if total != 7 {
		t.Fatalf("expected all 7 chunks to match, got %d", total)
	}
}

// The relational id of a chunk ("TH10_T1_L1_C1") never equals its
// document key ("TH10_CD1_B1_C1"); the visibility join must go through
// the stored mongo ref, not compare the ids directly.
func TestSearchVisibilityJoinsThroughMongoRef(t *testing.T) {
	rel, documents := fixture(t, 1)
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", PageSize: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("active chunk dropped by visibility join: Total=%d, want 1", res.Total)
	}
	item := res.Items[0]
	if item.ChunkID != canonicalID(1) {
		t.Fatalf("wrong chunk id: %s", item.ChunkID)
	}
	if item.ChunkMap != mapKey(1) {
		t.Fatalf("document map key not carried: %q", item.ChunkMap)
	}
	if item.ChunkURL != "http://files/"+mapKey(1) {
		t.Fatalf("document fields not joined: %+v", item)
	}
}

func TestSearchHiddenChunkDropsFromTotal(t *testing.T) {
	rel, documents := fixture(t, 5)
	engine := newTestEngine(t, rel, documents)
	ctx := context.Background()

	before, err := engine.Search(ctx, Params{Query: "dữ liệu", PageSize: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	documents.chunks[hexID(3)].Status = docs.StatusHidden
	after, err := engine.Search(ctx, Params{Query: "dữ liệu", PageSize: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if after.Total != before.Total-1 {
		t.Fatalf("hidden chunk not removed from total: before=%d after=%d", before.Total, after.Total)
	}
	for _, item := range after.Items {
		if item.ChunkID == canonicalID(3) {
			t.Fatal("hidden chunk served in results")
		}
	}

	// A chunk with no document stays visible; only an existing hidden
	// document removes it.
	delete(documents.chunks, hexID(4))
	final, err := engine.Search(ctx, Params{Query: "dữ liệu", PageSize: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if final.Total != after.Total {
		t.Fatalf("undocumented chunk must stay visible: before=%d after=%d", after.Total, final.Total)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	rel, documents := fixture(t, 3)
	engine := newTestEngine(t, rel, documents)

	for _, q := range []string{"", "   "} {
		res, err := engine.Search(context.Background(), Params{Query: q})
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if res.Total != 0 || len(res.Items) != 0 {
			t.Fatalf("empty query must return an empty result, got total=%d", res.Total)
		}
	}
}

func TestSearchEmptyRestrictionShortCircuits(t *testing.T) {
	rel, documents := fixture(t, 3)
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", SubjectID: "TH11-UD"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 || len(res.Items) != 0 {
		t.Fatalf("restriction with no chunks must be empty, got total=%d", res.Total)
	}
	if rel.vectorsCalls != 0 {
		t.Fatal("keyword vectors must not be fetched when the restriction is empty")
	}
}

func TestSearchDeepestRestrictionWins(t *testing.T) {
	rel, documents := fixture(t, 4)
	rel.under["lesson:TH10_T1_L1"] = []string{canonicalID(1), canonicalID(2)}
	rel.under["class:10"] = []string{canonicalID(1), canonicalID(2), canonicalID(3), canonicalID(4)}
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{
		Query:    "dữ liệu",
		ClassID:  "10",
		LessonID: "TH10_T1_L1",
		PageSize: 50,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("lesson filter must override class filter, got total=%d", res.Total)
	}
}

func TestSearchRankOrderStable(t *testing.T) {
	provider := embedding.NewHashProvider(64)
	vec, err := provider.Embed(context.Background(), "giống hệt")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	rel := &fakeRelational{
		refs:  map[string]string{"A1": hexID(1), "B2": hexID(2)},
		hiers: map[string]*repos.ChunkHierarchy{},
		vectors: []KeywordVector{
			{KeywordID: "b::kw", ChunkID: "B2", Vector: vec},
			{KeywordID: "a::kw", ChunkID: "A1", Vector: vec},
		},
	}
	documents := &fakeDocuments{chunks: map[string]*docs.ChunkDoc{
		hexID(1): {ChunkID: "A1", Status: docs.StatusActive},
		hexID(2): {ChunkID: "B2", Status: docs.StatusActivity},
	}}
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "giống hệt", PageSize: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("want 2 items, got %d", len(res.Items))
	}
	if res.Items[0].ChunkID != "A1" || res.Items[1].ChunkID != "B2" {
		t.Fatalf("equal scores must tiebreak on chunk id: %s, %s", res.Items[0].ChunkID, res.Items[1].ChunkID)
	}
}

func TestSearchSavedFlagAndDocumentFields(t *testing.T) {
	rel, documents := fixture(t, 2)
	// Bookmarks are stored under the document map key.
	documents.saved = map[string]bool{mapKey(2): true}
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", Username: "an", PageSize: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, item := range res.Items {
		want := item.ChunkID == canonicalID(2)
		if item.IsSaved != want {
			t.Fatalf("saved flag wrong for %s", item.ChunkID)
		}
		if item.ChunkURL == "" || item.SubjectName != "Tin học 10" {
			t.Fatalf("decoration missing for %s: %+v", item.ChunkID, item)
		}
	}
}

func TestSearchDegradesWhenDocumentsUnavailable(t *testing.T) {
	rel, documents := fixture(t, 3)
	documents.failChunks = true
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", PageSize: 10})
	if err != nil {
		t.Fatalf("Search must degrade, not fail: %v", err)
	}
	if res.Total != 3 {
		t.Fatalf("document outage must not shrink results: %d", res.Total)
	}
	for _, item := range res.Items {
		if item.ChunkURL != "" {
			t.Fatal("document fields must be empty when the store is down")
		}
	}
}

func TestSearchDegradesWhenMongoRefsUnavailable(t *testing.T) {
	rel, documents := fixture(t, 3)
	rel.failRefs = true
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", PageSize: 10})
	if err != nil {
		t.Fatalf("Search must degrade, not fail: %v", err)
	}
	if res.Total != 3 {
		t.Fatalf("ref outage must not shrink results: %d", res.Total)
	}
}

func TestSearchDegradesWhenRestrictionUnavailable(t *testing.T) {
	rel, documents := fixture(t, 3)
	rel.failUnder = true
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", ClassID: "10", PageSize: 10})
	if err != nil {
		t.Fatalf("Search must degrade, not fail: %v", err)
	}
	if res.Total != 0 || len(res.Items) != 0 {
		t.Fatalf("failed restriction must serve an empty result, got total=%d", res.Total)
	}
}

func TestSearchDegradesWhenVectorsUnavailable(t *testing.T) {
	rel, documents := fixture(t, 3)
	rel.failVectors = true
	engine := newTestEngine(t, rel, documents)

	res, err := engine.Search(context.Background(), Params{Query: "dữ liệu", PageSize: 10})
	if err != nil {
		t.Fatalf("Search must degrade, not fail: %v", err)
	}
	if res.Total != 0 || len(res.Items) != 0 {
		t.Fatalf("failed vector fetch must serve an empty result, got total=%d", res.Total)
	}
}
