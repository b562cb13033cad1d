package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyvault/studyvault-backend/internal/hierarchy"
	"github.com/studyvault/studyvault-backend/internal/http/response"
	"github.com/studyvault/studyvault-backend/internal/pipeline"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

type SyncHandler struct {
	pg    *pipeline.PGSyncer
	graph *pipeline.GraphMirror
}

func NewSyncHandler(pg *pipeline.PGSyncer, graph *pipeline.GraphMirror) *SyncHandler {
	return &SyncHandler{pg: pg, graph: graph}
}

type chainSyncRequest struct {
	ClassMap   string `json:"class_map,omitempty"`
	SubjectMap string `json:"subject_map,omitempty"`
	TopicMap   string `json:"topic_map,omitempty"`
	LessonMap  string `json:"lesson_map,omitempty"`
	ChunkMap   string `json:"chunk_map,omitempty"`
	Category   string `json:"category,omitempty"`
}

// POST /admin/sync/chain
func (h *SyncHandler) SyncChain(c *gin.Context) {
	var req chainSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	maps := hierarchy.Maps{
		ClassMap:   req.ClassMap,
		SubjectMap: req.SubjectMap,
		TopicMap:   req.TopicMap,
		LessonMap:  req.LessonMap,
		ChunkMap:   req.ChunkMap,
	}
	ctx := c.Request.Context()

	ids, err := h.pg.SyncCanonicalByMaps(ctx, maps, req.Category)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	payload := gin.H{"ids": ids}
	if graphResult, err := h.graph.Sync(ctx, *ids, maps, req.Category); err != nil {
		payload["graph_warning"] = err.Error()
	} else {
		payload["graph"] = graphResult
	}
	response.RespondOK(c, payload)
}

// POST /admin/sync/legacy
func (h *SyncHandler) SyncLegacy(c *gin.Context) {
	var refs pipeline.LegacyRefs
	if err := c.ShouldBindJSON(&refs); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	result, err := h.pg.SyncLegacyByDocumentIDs(c.Request.Context(), refs)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, result)
}
