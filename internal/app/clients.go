package app

import (
	"context"
	"fmt"
	"time"

	"github.com/studyvault/studyvault-backend/internal/data/db"
	"github.com/studyvault/studyvault-backend/internal/embedding"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
	"github.com/studyvault/studyvault-backend/internal/platform/mongodb"
	"github.com/studyvault/studyvault-backend/internal/platform/neo4jdb"
	"github.com/studyvault/studyvault-backend/internal/platform/objstore"
)

type Clients struct {
	Postgres *db.PostgresService
	Mongo    *mongodb.Client
	Neo4j    *neo4jdb.Client
	Objects  *objstore.Client
	Embedder *embedding.Cache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
	}

	mongoClient, err := mongodb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init mongo: %w", err)
	}

	// Optional; nil when NEO4J_URI is unset.
	graphClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		_ = closeMongo(mongoClient)
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	objects, err := objstore.NewFromEnv(log)
	if err != nil {
		_ = closeMongo(mongoClient)
		if graphClient != nil {
			_ = graphClient.Close(context.Background())
		}
		return Clients{}, fmt.Errorf("init object store: %w", err)
	}

	embedder, err := embedding.NewFromEnv(log)
	if err != nil {
		_ = closeMongo(mongoClient)
		if graphClient != nil {
			_ = graphClient.Close(context.Background())
		}
		return Clients{}, fmt.Errorf("init embedder: %w", err)
	}

	return Clients{
		Postgres: pg,
		Mongo:    mongoClient,
		Neo4j:    graphClient,
		Objects:  objects,
		Embedder: embedder,
	}, nil
}

func closeMongo(c *mongodb.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Close(ctx)
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Mongo != nil {
		_ = closeMongo(c.Mongo)
	}
	if c.Neo4j != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Neo4j.Close(ctx)
		cancel()
	}
}
