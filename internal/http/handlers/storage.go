package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyvault/studyvault-backend/internal/http/middleware"
	"github.com/studyvault/studyvault-backend/internal/http/response"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/objstore"
	"github.com/studyvault/studyvault-backend/internal/storage"
)

type StorageHandler struct {
	objects  *objstore.Client
	uploader *storage.Uploader
}

func NewStorageHandler(objects *objstore.Client, uploader *storage.Uploader) *StorageHandler {
	return &StorageHandler{objects: objects, uploader: uploader}
}

type folderRequest struct {
	Path string `json:"path"`
}

// POST /admin/storage/folders
func (h *StorageHandler) CreateFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	p, err := objstore.CleanPath(req.Path)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	occupied, err := h.objects.PrefixHasAnything(c.Request.Context(), p+"/")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if occupied {
		response.RespondError(c, apierr.Conflict("folder %q already exists", p))
		return
	}
	if err := h.objects.EnsureFolder(c.Request.Context(), p); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"path": p})
}

// DELETE /admin/storage/folders
func (h *StorageHandler) DeleteFolder(c *gin.Context) {
	p, err := objstore.CleanPath(c.Query("path"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	removed, err := h.objects.RemovePrefix(c.Request.Context(), p)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"path": p, "removed": removed})
}

// GET /admin/storage/objects
func (h *StorageHandler) ListObjects(c *gin.Context) {
	prefix := strings.Trim(strings.TrimSpace(c.Query("prefix")), "/")
	recursive := c.Query("recursive") == "true"
	objs, err := h.objects.List(c.Request.Context(), prefix, recursive)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	keys := make([]gin.H, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, gin.H{
			"key":  o.Key,
			"size": o.Size,
			"url":  h.objects.PublicURL(o.Key),
		})
	}
	response.RespondOK(c, gin.H{"prefix": prefix, "objects": keys})
}

type moveRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// POST /admin/storage/objects/move
func (h *StorageHandler) MoveObject(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	src, err := objstore.CleanPath(req.Src)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	dst, err := objstore.CleanPath(req.Dst)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.objects.Copy(ctx, src, dst); err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.objects.Remove(ctx, src); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"src": src, "dst": dst})
}

// POST /admin/storage/folders/move
func (h *StorageHandler) MoveFolder(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	src, err := objstore.CleanPath(req.Src)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	dst, err := objstore.CleanPath(req.Dst)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if dst == src || strings.HasPrefix(dst+"/", src+"/") {
		response.RespondError(c, apierr.Validation("cannot move folder %q into itself", src))
		return
	}

	ctx := c.Request.Context()
	srcObjs, err := h.objects.List(ctx, src+"/", true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if len(srcObjs) == 0 {
		response.RespondError(c, apierr.NotFound("folder %q not found", src))
		return
	}
	occupied, err := h.objects.PrefixHasAnything(ctx, dst+"/")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if occupied {
		response.RespondError(c, apierr.Conflict("folder %q already exists", dst))
		return
	}

	for _, o := range srcObjs {
		newKey := dst + strings.TrimPrefix(o.Key, src)
		if err := h.objects.Copy(ctx, o.Key, newKey); err != nil {
			response.RespondError(c, err)
			return
		}
	}
	removed, err := h.objects.RemovePrefix(ctx, src+"/")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"src": src, "dst": dst, "moved": removed})
}

// POST /admin/storage/upload (multipart)
func (h *StorageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, apierr.Validation("file is required: %v", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, apierr.Validation("cannot open upload: %v", err))
		return
	}
	defer file.Close()

	objectPath := c.PostForm("path")
	if objectPath == "" {
		objectPath = fileHeader.Filename
	}

	var keywords []string
	for _, kw := range strings.Split(c.PostForm("keywords"), ";") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	result, err := h.uploader.UploadAndSync(c.Request.Context(), storage.UploadInput{
		Path:         objectPath,
		ChunkMap:     c.PostForm("chunk_map"),
		Name:         c.PostForm("name"),
		Description:  c.PostForm("description"),
		Category:     c.PostForm("category"),
		Actor:        middleware.ActorName(c),
		Keywords:     keywords,
		ClassName:    c.PostForm("class_name"),
		SubjectName:  c.PostForm("subject_name"),
		SubjectTitle: c.PostForm("subject_title"),
		TopicName:    c.PostForm("topic_name"),
		LessonName:   c.PostForm("lesson_name"),
		LessonType:   c.PostForm("lesson_type"),
		Body:        file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, result)
}
