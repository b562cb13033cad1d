package app

import (
	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	"github.com/studyvault/studyvault-backend/internal/data/graph"
	repos "github.com/studyvault/studyvault-backend/internal/data/repos/content"
	"github.com/studyvault/studyvault-backend/internal/importer"
	"github.com/studyvault/studyvault-backend/internal/pipeline"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
	"github.com/studyvault/studyvault-backend/internal/search"
	"github.com/studyvault/studyvault-backend/internal/storage"
)

type Services struct {
	Store       *docstore.Store
	PGSyncer    *pipeline.PGSyncer
	GraphMirror *pipeline.GraphMirror
	Engine      *search.Engine
	Runner      *importer.Runner
	Uploader    *storage.Uploader
	Users       repos.UserRepo
}

func wireServices(clients Clients, log *logger.Logger) Services {
	log.Info("Wiring services...")

	theDB := clients.Postgres.DB()

	store := docstore.New(clients.Mongo.Database, clients.Embedder, log)
	pgSyncer := pipeline.NewPGSyncer(theDB, store, clients.Embedder, log)
	graphSyncer := graph.NewSyncer(clients.Neo4j, theDB, log)
	graphMirror := pipeline.NewGraphMirror(graphSyncer, store)

	engine := search.NewEngine(
		search.NewRelational(theDB, log),
		search.NewDocuments(store),
		clients.Embedder,
		log,
	)

	runner := importer.NewRunner(store, pgSyncer, graphMirror, log)
	uploader := storage.NewUploader(clients.Objects, store, pgSyncer, graphMirror, log)
	users := repos.NewUserRepo(theDB, log)

	return Services{
		Store:       store,
		PGSyncer:    pgSyncer,
		GraphMirror: graphMirror,
		Engine:      engine,
		Runner:      runner,
		Uploader:    uploader,
		Users:       users,
	}
}
