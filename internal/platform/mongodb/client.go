package mongodb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/studyvault/studyvault-backend/internal/platform/envutil"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// Client wraps the document-store connection plus the configured
// database handle.
type Client struct {
	Mongo    *mongo.Client
	Database *mongo.Database
	log      *logger.Logger
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("mongodb: logger required")
	}

	uri := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := envutil.Str("MONGO_DATABASE", "studyvault")
	timeoutSec := envutil.Int("MONGO_TIMEOUT_SECONDS", 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	return &Client{
		Mongo:    cli,
		Database: cli.Database(dbName),
		log:      log.With("client", "MongoDB"),
	}, nil
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Mongo == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Mongo.Disconnect(ctx)
	c.Mongo = nil
	return err
}
