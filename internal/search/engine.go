// Package search implements embedding-based similarity search over
// chunk keywords, with count-consistent pagination: the reported total
// always equals the number of items an exhaustive page walk returns.
package search

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	repos "github.com/studyvault/studyvault-backend/internal/data/repos/content"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/embedding"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

const (
	maxTerms        = 12
	defaultPageSize = 10
	maxPageSize     = 50
)

var termRe = regexp.MustCompile(`[0-9a-zA-ZÀ-ỹ]+`)

// KeywordVector is one scored unit: a keyword row carrying its vector.
type KeywordVector struct {
	KeywordID string
	ChunkID   string
	Vector    []float32
}

// Relational is the slice of the relational store the engine needs.
type Relational interface {
	// ChunkIDsUnder returns chunk ids below the given ancestor; level is
	// one of the hierarchy level names.
	ChunkIDsUnder(ctx context.Context, level, id string) ([]string, error)
	// KeywordVectors returns embedded keyword rows, restricted to the
	// candidate chunk ids when non-nil.
	KeywordVectors(ctx context.Context, chunkIDs []string) ([]KeywordVector, error)
	// MongoRefs maps relational chunk ids onto their linked document
	// object ids (hex); chunks without a link are absent.
	MongoRefs(ctx context.Context, chunkIDs []string) (map[string]string, error)
	Hierarchies(ctx context.Context, chunkIDs []string) (map[string]*repos.ChunkHierarchy, error)
}

// Documents is the slice of the document store the engine needs.
type Documents interface {
	ChunksByObjectIDs(ctx context.Context, hexIDs []string) (map[string]*docs.ChunkDoc, error)
	SavedSet(ctx context.Context, username string) (map[string]bool, error)
}

type Params struct {
	Query    string `json:"query" form:"query"`
	Username string `json:"username,omitempty" form:"username"`
	Category string `json:"category,omitempty" form:"category"`

	// Candidate restriction; the deepest non-empty filter wins.
	ClassID   string `json:"class_id,omitempty" form:"class_id"`
	SubjectID string `json:"subject_id,omitempty" form:"subject_id"`
	TopicID   string `json:"topic_id,omitempty" form:"topic_id"`
	LessonID  string `json:"lesson_id,omitempty" form:"lesson_id"`

	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

type Item struct {
	ChunkID     string   `json:"chunk_id"`
	ChunkMap    string   `json:"chunk_map,omitempty"`
	Score       float64  `json:"score"`
	ChunkName   string   `json:"chunk_name"`
	ChunkType   string   `json:"chunk_type,omitempty"`
	ChunkURL    string   `json:"chunk_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	LessonID    string `json:"lesson_id,omitempty"`
	LessonName  string `json:"lesson_name,omitempty"`
	TopicID     string `json:"topic_id,omitempty"`
	TopicName   string `json:"topic_name,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
	ClassID     string `json:"class_id,omitempty"`
	ClassName   string `json:"class_name,omitempty"`

	IsSaved bool `json:"is_saved"`
}

type Result struct {
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Items    []*Item `json:"items"`
}

type Engine struct {
	rel      Relational
	docs     Documents
	embedder embedding.Provider
	log      *logger.Logger
}

func NewEngine(rel Relational, documents Documents, embedder embedding.Provider, baseLog *logger.Logger) *Engine {
	return &Engine{rel: rel, docs: documents, embedder: embedder, log: baseLog.With("service", "SearchEngine")}
}

// queryTerms builds up to maxTerms scoring terms: the whole normalized
// query first (when it is long enough to be meaningful), then each
// distinct token.
func queryTerms(query string) []string {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if q == "" {
		return nil
	}
	var terms []string
	seen := map[string]bool{}
	if len([]rune(q)) >= 3 {
		terms = append(terms, q)
		seen[q] = true
	}
	for _, tok := range termRe.FindAllString(q, -1) {
		if len(terms) >= maxTerms {
			break
		}
		if len([]rune(tok)) < 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	return terms
}

// cosine over the common prefix; zero vectors score zero.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type scoredChunk struct {
	chunkID string
	score   float64
}

func (e *Engine) Search(ctx context.Context, p Params) (*Result, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	empty := &Result{Total: 0, Page: page, PageSize: pageSize, Items: []*Item{}}

	terms := queryTerms(p.Query)
	if len(terms) == 0 {
		return empty, nil
	}

	vectors := make([][]float32, 0, len(terms))
	for _, term := range terms {
		vec, err := e.embedder.Embed(ctx, term)
		if err != nil {
			e.log.Warn("term embedding failed", "term", term, "error", err)
			continue
		}
		vectors = append(vectors, vec)
	}
	if len(vectors) == 0 {
		return empty, nil
	}

	// Store failures from here on degrade instead of failing the call:
	// a broken restriction or vector fetch serves an empty result.
	candidates, restricted, err := e.candidates(ctx, p)
	if err != nil {
		e.log.Warn("candidate restriction failed, serving empty result", "error", err)
		return empty, nil
	}
	if restricted && len(candidates) == 0 {
		return empty, nil
	}
	if !restricted {
		candidates = nil
	}

	keywords, err := e.rel.KeywordVectors(ctx, candidates)
	if err != nil {
		e.log.Warn("keyword vector fetch failed, serving empty result", "error", err)
		return empty, nil
	}

	// Best term score per keyword, then best keyword score per chunk.
	best := map[string]float64{}
	for _, kw := range keywords {
		var kwScore float64
		for _, vec := range vectors {
			if s := cosine(vec, kw.Vector); s > kwScore {
				kwScore = s
			}
		}
		if cur, ok := best[kw.ChunkID]; !ok || kwScore > cur {
			best[kw.ChunkID] = kwScore
		}
	}
	if len(best) == 0 {
		return empty, nil
	}

	ranked := make([]scoredChunk, 0, len(best))
	for id, score := range best {
		ranked = append(ranked, scoredChunk{chunkID: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].chunkID < ranked[j].chunkID
	})

	// Visibility runs before pagination so the total matches what the
	// pages will actually serve. Documents are keyed by chunk map, not
	// by the relational chunk id, so the join goes through the mongo_id
	// column on the chunk row. A failed fetch on either side degrades to
	// "everything visible" rather than failing the search.
	allIDs := make([]string, len(ranked))
	for i, r := range ranked {
		allIDs[i] = r.chunkID
	}
	chunkDocs := e.chunkDocs(ctx, allIDs)

	visible := ranked[:0]
	for _, r := range ranked {
		if d := chunkDocs[r.chunkID]; d != nil && !docs.Visible(d.Status) {
			continue
		}
		visible = append(visible, r)
	}

	total := len(visible)
	start := (page - 1) * pageSize
	if start >= total {
		return &Result{Total: total, Page: page, PageSize: pageSize, Items: []*Item{}}, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	pageChunks := visible[start:end]

	pageIDs := make([]string, len(pageChunks))
	for i, r := range pageChunks {
		pageIDs[i] = r.chunkID
	}

	// Page-only decoration: hierarchy names and the saved flag.
	hiers, err := e.rel.Hierarchies(ctx, pageIDs)
	if err != nil {
		e.log.Warn("hierarchy fetch failed, serving bare items", "error", err)
		hiers = nil
	}
	var saved map[string]bool
	if p.Username != "" {
		saved, err = e.docs.SavedSet(ctx, p.Username)
		if err != nil {
			e.log.Warn("saved set fetch failed", "username", p.Username, "error", err)
			saved = nil
		}
	}

	items := make([]*Item, 0, len(pageChunks))
	for _, r := range pageChunks {
		item := &Item{ChunkID: r.chunkID, Score: r.score}
		if h := hiers[r.chunkID]; h != nil {
			item.ChunkName = h.ChunkName
			item.ChunkType = h.ChunkType
			item.LessonID = h.LessonID
			item.LessonName = h.LessonName
			item.TopicID = h.TopicID
			item.TopicName = h.TopicName
			item.SubjectID = h.SubjectID
			item.SubjectName = h.SubjectName
			item.ClassID = h.ClassID
			item.ClassName = h.ClassName
		}
		if d := chunkDocs[r.chunkID]; d != nil {
			// Saved chunks are keyed by chunk map on the document side.
			item.ChunkMap = d.ChunkID
			item.IsSaved = saved[d.ChunkID]
			if item.ChunkName == "" {
				item.ChunkName = d.ChunkName
			}
			item.ChunkURL = d.ChunkURL
			item.Description = d.ChunkDescription
			item.Keywords = d.Keywords
		}
		items = append(items, item)
	}

	return &Result{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}

// chunkDocs resolves relational chunk ids to their documents via the
// stored mongo_id link; chunks without a link, or any store failure,
// simply yield no entry.
func (e *Engine) chunkDocs(ctx context.Context, chunkIDs []string) map[string]*docs.ChunkDoc {
	refs, err := e.rel.MongoRefs(ctx, chunkIDs)
	if err != nil {
		e.log.Warn("mongo ref fetch failed, serving without document fields", "error", err)
		return nil
	}
	if len(refs) == 0 {
		return nil
	}
	hexIDs := make([]string, 0, len(refs))
	for _, hex := range refs {
		hexIDs = append(hexIDs, hex)
	}
	byHex, err := e.docs.ChunksByObjectIDs(ctx, hexIDs)
	if err != nil {
		e.log.Warn("chunk document fetch failed, serving without document fields", "error", err)
		return nil
	}
	out := make(map[string]*docs.ChunkDoc, len(byHex))
	for chunkID, hex := range refs {
		if d := byHex[hex]; d != nil {
			out[chunkID] = d
		}
	}
	return out
}

// candidates applies the deepest non-empty restriction filter.
func (e *Engine) candidates(ctx context.Context, p Params) ([]string, bool, error) {
	switch {
	case p.LessonID != "":
		ids, err := e.rel.ChunkIDsUnder(ctx, "lesson", p.LessonID)
		return ids, true, err
	case p.TopicID != "":
		ids, err := e.rel.ChunkIDsUnder(ctx, "topic", p.TopicID)
		return ids, true, err
	case p.SubjectID != "":
		ids, err := e.rel.ChunkIDsUnder(ctx, "subject", p.SubjectID)
		return ids, true, err
	case p.ClassID != "":
		ids, err := e.rel.ChunkIDsUnder(ctx, "class", p.ClassID)
		return ids, true, err
	}
	return nil, false, nil
}
