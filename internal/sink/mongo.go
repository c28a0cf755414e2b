package sink

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	// URI is the MongoDB connection string, e.g. mongodb://localhost:27017
	URI string `mapstructure:"uri"`

	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// MongoBackend stores records as documents in a single collection.
type MongoBackend struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *log.Logger
}

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, cfg MongoConfig, logger *log.Logger) (*MongoBackend, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb uri cannot be empty")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database cannot be empty")
	}
	if cfg.Collection == "" {
		cfg.Collection = "records"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoBackend{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

// Name implements Backend.
func (b *MongoBackend) Name() string { return "mongodb" }

// Persist implements Backend. Records insert as one InsertMany call.
func (b *MongoBackend) Persist(ctx context.Context, recs []record.Record) error {
	docs := make([]any, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, map[string]any(rec))
	}

	if _, err := b.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
