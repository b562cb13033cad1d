package app

import (
	"github.com/studyvault/studyvault-backend/internal/http/handlers"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type Handlers struct {
	Storage  *handlers.StorageHandler
	Import   *handlers.ImportHandler
	Sync     *handlers.SyncHandler
	UserDocs *handlers.UserDocsHandler
}

func wireHandlers(clients Clients, services Services, log *logger.Logger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Storage:  handlers.NewStorageHandler(clients.Objects, services.Uploader),
		Import:   handlers.NewImportHandler(services.Runner),
		Sync:     handlers.NewSyncHandler(services.PGSyncer, services.GraphMirror),
		UserDocs: handlers.NewUserDocsHandler(services.Store, services.Engine, services.Users, log),
	}
}
