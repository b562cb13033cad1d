package importer

import (
	"context"
	"fmt"

	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// DocUpserter is the document-store surface the runner writes through.
type DocUpserter interface {
	UpsertChain(ctx context.Context, in docstore.ChainInput) (*docstore.ChainStats, error)
	SetChunkStatus(ctx context.Context, chunkMap, category, status string) error
}

// RelationalSyncer projects a chain into the relational store.
type RelationalSyncer interface {
	SyncCanonicalByMaps(ctx context.Context, m hierarchy.Maps, category string) (*hierarchy.CanonicalIDs, error)
}

// GraphSyncer mirrors a synced chain into the graph store.
type GraphSyncer interface {
	SyncByIDs(ctx context.Context, ids hierarchy.CanonicalIDs, m hierarchy.Maps, category string) error
}

type RowError struct {
	Level string `json:"level"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

type Report struct {
	Docs      docstore.ChainStats `json:"docs"`
	Synced    int                 `json:"synced"`
	RowErrors []RowError          `json:"row_errors,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
	OK        bool                `json:"ok"`
}

// Runner executes a bulk import: documents first, then one relational
// sync per plan unit, then best-effort graph mirroring.
//
// Failure policy per unit: a failed chunk sync hides the chunk again
// and fails the row; a failed ancestor or graph sync only warns, since
// the content itself is already live.
type Runner struct {
	docs  DocUpserter
	rel   RelationalSyncer
	graph GraphSyncer
	log   *logger.Logger
}

func NewRunner(docUpserter DocUpserter, rel RelationalSyncer, graphSyncer GraphSyncer, baseLog *logger.Logger) *Runner {
	return &Runner{
		docs:  docUpserter,
		rel:   rel,
		graph: graphSyncer,
		log:   baseLog.With("service", "ImportRunner"),
	}
}

func (r *Runner) Run(ctx context.Context, b *Batch) (*Report, error) {
	if err := b.Normalize(); err != nil {
		return nil, err
	}
	if b.Empty() {
		return nil, apierr.Validation("import batch has no rows")
	}

	report := &Report{}
	docFailed := map[string]bool{}

	r.upsertDocuments(ctx, b, report, docFailed)

	for _, unit := range buildPlan(b) {
		if docFailed[unit.Level+":"+unit.Key] {
			continue
		}
		ids, err := r.rel.SyncCanonicalByMaps(ctx, unit.Maps, unit.Category)
		if err != nil {
			if unit.Level == hierarchy.LevelChunk {
				// The chunk document is live but unsearchable state would
				// diverge; hide it until a re-sync succeeds.
				if hideErr := r.docs.SetChunkStatus(ctx, unit.Key, unit.Category, docs.StatusHidden); hideErr != nil {
					r.log.Error("failed to hide chunk after sync failure",
						"chunk", unit.Key, "error", hideErr)
				}
				report.RowErrors = append(report.RowErrors, RowError{
					Level: unit.Level, Key: unit.Key, Error: err.Error(),
				})
			} else {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s %s: relational sync failed: %v", unit.Level, unit.Key, err))
			}
			continue
		}
		report.Synced++

		if r.graph != nil && ids != nil {
			if err := r.graph.SyncByIDs(ctx, *ids, unit.Maps, unit.Category); err != nil {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s %s: graph sync failed: %v", unit.Level, unit.Key, err))
			}
		}
	}

	report.OK = len(report.RowErrors) == 0
	return report, nil
}

func (r *Runner) upsertDocuments(ctx context.Context, b *Batch, report *Report, docFailed map[string]bool) {
	record := func(level, key string, stats *docstore.ChainStats, err error) {
		if err != nil {
			docFailed[level+":"+key] = true
			report.RowErrors = append(report.RowErrors, RowError{
				Level: level, Key: key, Error: err.Error(),
			})
			return
		}
		report.Docs.Classes += stats.Classes
		report.Docs.Subjects += stats.Subjects
		report.Docs.Topics += stats.Topics
		report.Docs.Lessons += stats.Lessons
		report.Docs.Chunks += stats.Chunks
		report.Docs.Keywords += stats.Keywords
	}

	for _, row := range b.Classes {
		stats, err := r.docs.UpsertChain(ctx, docstore.ChainInput{
			Maps:  hierarchy.Maps{ClassMap: row.ClassMap},
			Actor: b.Actor,
			Class: &docstore.ClassFields{Name: row.Name},
		})
		record(hierarchy.LevelClass, row.ClassMap, stats, err)
	}
	for _, row := range b.Subjects {
		stats, err := r.docs.UpsertChain(ctx, docstore.ChainInput{
			Maps:     hierarchy.Maps{SubjectMap: row.SubjectMap, ClassMap: row.ClassMap},
			Category: row.Category,
			Actor:    b.Actor,
			Subject:  &docstore.SubjectFields{Name: row.Name, Title: row.Title, URL: row.URL},
		})
		record(hierarchy.LevelSubject, row.SubjectMap, stats, err)
	}
	for _, row := range b.Topics {
		stats, err := r.docs.UpsertChain(ctx, docstore.ChainInput{
			Maps:     hierarchy.Maps{TopicMap: row.TopicMap},
			Category: row.Category,
			Actor:    b.Actor,
			Topic:    &docstore.TopicFields{Name: row.Name, Number: row.Number, URL: row.URL},
		})
		record(hierarchy.LevelTopic, row.TopicMap, stats, err)
	}
	for _, row := range b.Lessons {
		stats, err := r.docs.UpsertChain(ctx, docstore.ChainInput{
			Maps:     hierarchy.Maps{LessonMap: row.LessonMap},
			Category: row.Category,
			Actor:    b.Actor,
			Lesson:   &docstore.LessonFields{Name: row.Name, Number: row.Number, Type: row.Type, URL: row.URL},
		})
		record(hierarchy.LevelLesson, row.LessonMap, stats, err)
	}
	for _, row := range b.Chunks {
		stats, err := r.docs.UpsertChain(ctx, docstore.ChainInput{
			Maps:     hierarchy.Maps{ChunkMap: row.ChunkMap},
			Category: row.Category,
			Actor:    b.Actor,
			Chunk: &docstore.ChunkFields{
				Name:        row.Name,
				Number:      row.Number,
				Type:        row.Type,
				URL:         row.URL,
				Description: row.Description,
				Keywords:    row.Keywords,
			},
		})
		record(hierarchy.LevelChunk, row.ChunkMap, stats, err)
	}
}
