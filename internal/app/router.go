package app

import (
	"github.com/gin-gonic/gin"

	"github.com/studyvault/studyvault-backend/internal/server"
)

func wireRouter(h Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		StorageHandler:  h.Storage,
		ImportHandler:   h.Import,
		SyncHandler:     h.Sync,
		UserDocsHandler: h.UserDocs,
	})
}
