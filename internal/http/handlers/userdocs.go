package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	repos "github.com/studyvault/studyvault-backend/internal/data/repos/content"
	"github.com/studyvault/studyvault-backend/internal/http/middleware"
	"github.com/studyvault/studyvault-backend/internal/http/response"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
	"github.com/studyvault/studyvault-backend/internal/search"
)

type UserDocsHandler struct {
	store  *docstore.Store
	engine *search.Engine
	users  repos.UserRepo
	log    *logger.Logger
}

func NewUserDocsHandler(store *docstore.Store, engine *search.Engine, users repos.UserRepo, baseLog *logger.Logger) *UserDocsHandler {
	return &UserDocsHandler{
		store:  store,
		engine: engine,
		users:  users,
		log:    baseLog.With("handler", "UserDocsHandler"),
	}
}

// GET /user/docs/classes
func (h *UserDocsHandler) ListClasses(c *gin.Context) {
	rows, err := h.store.ListClasses(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /user/docs/subjects?class_map=&category=
func (h *UserDocsHandler) ListSubjects(c *gin.Context) {
	rows, err := h.store.ListSubjects(c.Request.Context(), c.Query("class_map"), c.Query("category"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /user/docs/topics?subject_map=&category=
func (h *UserDocsHandler) ListTopics(c *gin.Context) {
	rows, err := h.store.ListTopics(c.Request.Context(), c.Query("subject_map"), c.Query("category"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /user/docs/lessons?topic_map=&category=
func (h *UserDocsHandler) ListLessons(c *gin.Context) {
	rows, err := h.store.ListLessons(c.Request.Context(), c.Query("topic_map"), c.Query("category"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /user/docs/chunks?lesson_map=&category=
func (h *UserDocsHandler) ListChunks(c *gin.Context) {
	rows, err := h.store.ListChunks(c.Request.Context(), c.Query("lesson_map"), c.Query("category"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /user/docs/chunks/:chunk_map?category=
func (h *UserDocsHandler) GetChunk(c *gin.Context) {
	chunkMap := c.Param("chunk_map")
	doc, err := h.store.GetChunk(c.Request.Context(), chunkMap, c.Query("category"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			response.RespondError(c, apierr.NotFound("chunk %q not found", chunkMap))
			return
		}
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, doc)
}

// GET and POST /user/docs/search
func (h *UserDocsHandler) Search(c *gin.Context) {
	var params search.Params
	if c.Request.Method == http.MethodGet {
		if err := c.ShouldBindQuery(&params); err != nil {
			response.RespondError(c, apierr.Validation("invalid query: %v", err))
			return
		}
	} else if err := c.ShouldBindJSON(&params); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	if params.Username == "" {
		params.Username = middleware.Username(c)
	}
	result, err := h.engine.Search(c.Request.Context(), params)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type saveRequest struct {
	ChunkMap string `json:"chunk_map"`
	Category string `json:"category,omitempty"`
}

// POST /user/docs/saved
func (h *UserDocsHandler) SaveChunk(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	username := middleware.Username(c)
	// The relational user row backs role and activity bookkeeping; a
	// failure there must not block the bookmark itself.
	if h.users != nil {
		if _, err := h.users.Ensure(c.Request.Context(), nil, username); err != nil {
			h.log.Warn("user ensure failed", "username", username, "error", err)
		}
	}
	if err := h.store.SaveChunk(c.Request.Context(), username, req.ChunkMap, req.Category); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chunk_map": req.ChunkMap, "saved": true})
}

// DELETE /user/docs/saved?chunk_map=
func (h *UserDocsHandler) UnsaveChunk(c *gin.Context) {
	chunkMap := c.Query("chunk_map")
	username := middleware.Username(c)
	if err := h.store.UnsaveChunk(c.Request.Context(), username, chunkMap); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chunk_map": chunkMap, "saved": false})
}

// GET /user/docs/saved
func (h *UserDocsHandler) ListSaved(c *gin.Context) {
	rows, err := h.store.ListSaved(c.Request.Context(), middleware.Username(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}
