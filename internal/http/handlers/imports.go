package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyvault/studyvault-backend/internal/http/middleware"
	"github.com/studyvault/studyvault-backend/internal/http/response"
	"github.com/studyvault/studyvault-backend/internal/importer"
	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

type ImportHandler struct {
	runner *importer.Runner
}

func NewImportHandler(runner *importer.Runner) *ImportHandler {
	return &ImportHandler{runner: runner}
}

// POST /admin/import/batch
func (h *ImportHandler) ImportBatch(c *gin.Context) {
	var batch importer.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.RespondError(c, apierr.Validation("invalid body: %v", err))
		return
	}
	if batch.Actor == "" {
		batch.Actor = middleware.ActorName(c)
	}
	report, err := h.runner.Run(c.Request.Context(), &batch)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, report)
}

// POST /admin/import/xlsx (multipart)
func (h *ImportHandler) ImportWorkbook(c *gin.Context) {
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

	batch, err := importer.ParseWorkbook(file)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	batch.Category = c.PostForm("category")
	batch.Actor = middleware.ActorName(c)

	report, err := h.runner.Run(c.Request.Context(), batch)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, report)
}
