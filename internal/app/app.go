package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studyvault/studyvault-backend/internal/platform/envutil"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Clients  Clients
	Services Services
}

func New() (*App, error) {
	log, err := logger.New(envutil.Str("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	services := wireServices(clients, log)
	handlerset := wireHandlers(clients, services, log)
	router := wireRouter(handlerset)

	return &App{
		Log:      log,
		DB:       clients.Postgres.DB(),
		Router:   router,
		Clients:  clients,
		Services: services,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	port := envutil.Str("PORT", "8080")
	a.Log.Info("Server listening", "port", port)
	return a.Router.Run(":" + port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
