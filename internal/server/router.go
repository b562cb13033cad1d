package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studyvault/studyvault-backend/internal/http/handlers"
	"github.com/studyvault/studyvault-backend/internal/http/middleware"
)

type RouterConfig struct {
	StorageHandler  *handlers.StorageHandler
	ImportHandler   *handlers.ImportHandler
	SyncHandler     *handlers.SyncHandler
	UserDocsHandler *handlers.UserDocsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User", "X-Actor"},
		AllowCredentials: true,
	}))
	router.Use(middleware.Actor())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/admin")
	{
		// Storage
		admin.POST("/storage/folders", cfg.StorageHandler.CreateFolder)
		admin.DELETE("/storage/folders", cfg.StorageHandler.DeleteFolder)
		admin.POST("/storage/folders/move", cfg.StorageHandler.MoveFolder)
		admin.GET("/storage/objects", cfg.StorageHandler.ListObjects)
		admin.POST("/storage/objects/move", cfg.StorageHandler.MoveObject)
		admin.POST("/storage/upload", cfg.StorageHandler.Upload)
		// Import
		admin.POST("/import/batch", cfg.ImportHandler.ImportBatch)
		admin.POST("/import/xlsx", cfg.ImportHandler.ImportWorkbook)
		// Sync
		admin.POST("/sync/chain", cfg.SyncHandler.SyncChain)
		admin.POST("/sync/legacy", cfg.SyncHandler.SyncLegacy)
	}

	// ===============
	// || User      ||
	// ===============
	user := router.Group("/user/docs")
	{
		user.GET("/classes", cfg.UserDocsHandler.ListClasses)
		user.GET("/subjects", cfg.UserDocsHandler.ListSubjects)
		user.GET("/topics", cfg.UserDocsHandler.ListTopics)
		user.GET("/lessons", cfg.UserDocsHandler.ListLessons)
		user.GET("/chunks", cfg.UserDocsHandler.ListChunks)
		user.GET("/chunks/:chunk_map", cfg.UserDocsHandler.GetChunk)
		user.GET("/search", cfg.UserDocsHandler.Search)
		user.POST("/search", cfg.UserDocsHandler.Search)
		user.GET("/saved", cfg.UserDocsHandler.ListSaved)
		user.POST("/saved", cfg.UserDocsHandler.SaveChunk)
		user.DELETE("/saved", cfg.UserDocsHandler.UnsaveChunk)
	}

	return router
}
