// Package storage ties raw file uploads to the content hierarchy: one
// upload writes the object, upserts the chunk document pointing at it
// and projects the chain into the relational store, compensating the
// earlier stores when a later one fails.
package storage

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	"github.com/studyvault/studyvault-backend/internal/domain/docs"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/pipeline"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
	"github.com/studyvault/studyvault-backend/internal/platform/objstore"
)

// ObjectStore is the slice of the object client the uploader needs.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	Exists(ctx context.Context, objectName string) (bool, error)
	Remove(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
}

type DocWriter interface {
	UpsertChain(ctx context.Context, in docstore.ChainInput) (*docstore.ChainStats, error)
	SetChunkStatus(ctx context.Context, chunkMap, category, status string) error
}

type Relational interface {
	SyncCanonicalByMaps(ctx context.Context, m hierarchy.Maps, category string) (*hierarchy.CanonicalIDs, error)
}

type Graph interface {
	SyncByIDs(ctx context.Context, ids hierarchy.CanonicalIDs, m hierarchy.Maps, category string) error
}

type UploadInput struct {
	Path        string
	ChunkMap    string
	Name        string
	Description string
	Category    string
	Actor       string
	Keywords    []string

	// Ancestor metadata; anything left empty falls back to the names
	// the directory layout encodes.
	ClassName    string
	SubjectName  string
	SubjectTitle string
	TopicName    string
	LessonName   string
	LessonType   string

	Body        io.Reader
	Size        int64
	ContentType string
}

type UploadResult struct {
	URL          string                  `json:"url"`
	IDs          *hierarchy.CanonicalIDs `json:"ids,omitempty"`
	GraphWarning string                  `json:"graph_warning,omitempty"`
}

type Uploader struct {
	objects ObjectStore
	store   DocWriter
	rel     Relational
	graph   Graph
	log     *logger.Logger
}

func NewUploader(objects ObjectStore, store DocWriter, rel Relational, graph Graph, baseLog *logger.Logger) *Uploader {
	return &Uploader{
		objects: objects,
		store:   store,
		rel:     rel,
		graph:   graph,
		log:     baseLog.With("service", "Uploader"),
	}
}

// chunkTypeFor maps a file extension onto the chunk type axis.
func chunkTypeFor(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png", "jpg", "jpeg", "gif", "webp", "svg":
		return docs.CategoryImage
	case "mp4", "mov", "avi", "mkv", "webm":
		return docs.CategoryVideo
	}
	return docs.CategoryDocument
}

var digitRunRe = regexp.MustCompile(`\d+`)

// extractNumber pulls the last digit run out of a display name, e.g.
// "Bài 12" yields "12".
func extractNumber(s string) string {
	runs := digitRunRe.FindAllString(s, -1)
	if len(runs) == 0 {
		return ""
	}
	return runs[len(runs)-1]
}

// pathDefaults carries what the object path itself encodes: the
// directory segments name the class, subject, topic and lesson in
// order, and the filename names the chunk.
type pathDefaults struct {
	ClassName   string
	SubjectName string
	TopicName   string
	LessonName  string
	ChunkName   string

	SubjectPrefix string
	TopicPrefix   string
	LessonPrefix  string
}

func derivePathDefaults(objectPath string) pathDefaults {
	var dirParts []string
	if dir := path.Dir(objectPath); dir != "." {
		dirParts = strings.Split(dir, "/")
	}
	segment := func(i int) string {
		if i < len(dirParts) {
			return dirParts[i]
		}
		return ""
	}
	filename := path.Base(objectPath)

	d := pathDefaults{
		ClassName:   segment(0),
		SubjectName: segment(1),
		TopicName:   segment(2),
		LessonName:  segment(3),
		ChunkName:   strings.TrimSuffix(filename, path.Ext(filename)),
	}
	if len(dirParts) >= 1 {
		d.SubjectPrefix = dirParts[0]
		d.LessonPrefix = strings.Join(dirParts, "/")
	}
	if len(dirParts) >= 2 {
		d.TopicPrefix = strings.Join(dirParts[:2], "/")
	} else {
		d.TopicPrefix = d.SubjectPrefix
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// UploadAndSync runs the upload pipeline as a saga. The object write
// and document sync are compensated on later failure: the object is
// removed, the chunk is re-hidden. The relational sync is the
// authoritative final stage; graph mirroring afterwards only warns.
func (u *Uploader) UploadAndSync(ctx context.Context, in UploadInput) (*UploadResult, error) {
	objectPath, err := objstore.CleanPath(in.Path)
	if err != nil {
		return nil, err
	}
	ext := path.Ext(objectPath)
	if ext == "" {
		return nil, apierr.Validation("object path %q needs a file extension", objectPath)
	}
	chunkMap := strings.TrimSpace(in.ChunkMap)
	if chunkMap == "" {
		return nil, apierr.Validation("chunk_map is required")
	}
	if hierarchy.ParseChunkMap(chunkMap) == nil {
		return nil, apierr.Validation("%q is not a chunk map key", chunkMap)
	}

	category := in.Category
	if category == "" {
		category = chunkTypeFor(ext)
	}
	category = docs.NormalizeCategory(category)
	maps := hierarchy.Expand(hierarchy.Maps{ChunkMap: chunkMap})

	// Explicit metadata wins; the path supplies the rest. Folder URLs
	// point at the prefixes that contain the file.
	defaults := derivePathDefaults(objectPath)
	className := firstNonEmpty(in.ClassName, defaults.ClassName)
	subjectName := firstNonEmpty(in.SubjectName, defaults.SubjectName)
	topicName := firstNonEmpty(in.TopicName, defaults.TopicName)
	lessonName := firstNonEmpty(in.LessonName, defaults.LessonName)
	chunkName := firstNonEmpty(in.Name, defaults.ChunkName)

	var subjectURL, topicURL, lessonURL string
	if defaults.SubjectPrefix != "" {
		subjectURL = u.objects.PublicURL(defaults.SubjectPrefix)
	}
	if defaults.TopicPrefix != "" {
		topicURL = u.objects.PublicURL(defaults.TopicPrefix)
	}
	if defaults.LessonPrefix != "" {
		lessonURL = u.objects.PublicURL(defaults.LessonPrefix)
	}

	if exists, err := u.objects.Exists(ctx, objectPath); err != nil {
		return nil, apierr.Upstream(apierr.StageObjectWrite, err)
	} else if exists {
		return nil, apierr.Conflict("object %q already exists", objectPath)
	}

	result := &UploadResult{}

	saga := pipeline.NewSaga(u.log).
		Add(pipeline.Step{
			Name: apierr.StageObjectWrite,
			Do: func(ctx context.Context) error {
				url, err := u.objects.Put(ctx, objectPath, in.Body, in.Size, in.ContentType)
				if err != nil {
					return err
				}
				result.URL = url
				return nil
			},
			Undo: func(ctx context.Context) error {
				return u.objects.Remove(ctx, objectPath)
			},
		}).
		Add(pipeline.Step{
			Name: apierr.StageDocumentSync,
			Do: func(ctx context.Context) error {
				_, err := u.store.UpsertChain(ctx, docstore.ChainInput{
					Maps:     maps,
					Category: category,
					Actor:    in.Actor,
					Class:    &docstore.ClassFields{Name: className},
					Subject:  &docstore.SubjectFields{Name: subjectName, Title: in.SubjectTitle, URL: subjectURL},
					Topic:    &docstore.TopicFields{Name: topicName, Number: extractNumber(topicName), URL: topicURL},
					Lesson: &docstore.LessonFields{
						Name:   lessonName,
						Number: extractNumber(lessonName),
						Type:   in.LessonType,
						URL:    lessonURL,
					},
					Chunk: &docstore.ChunkFields{
						Name:        chunkName,
						Number:      extractNumber(chunkName),
						Type:        firstNonEmpty(in.LessonType, chunkTypeFor(ext)),
						URL:         result.URL,
						Description: in.Description,
						Keywords:    in.Keywords,
					},
				})
				return err
			},
			Undo: func(ctx context.Context) error {
				return u.store.SetChunkStatus(ctx, chunkMap, category, docs.StatusHidden)
			},
		}).
		Add(pipeline.Step{
			Name: apierr.StageRelationalSync,
			Do: func(ctx context.Context) error {
				ids, err := u.rel.SyncCanonicalByMaps(ctx, maps, category)
				if err != nil {
					return err
				}
				result.IDs = ids
				return nil
			},
		})

	if err := saga.Run(ctx); err != nil {
		return nil, err
	}

	if u.graph != nil && result.IDs != nil {
		if err := u.graph.SyncByIDs(ctx, *result.IDs, maps, category); err != nil {
			u.log.Warn("graph sync after upload failed", "chunk", chunkMap, "error", err)
			result.GraphWarning = err.Error()
		}
	}
	return result, nil
}
