package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"welfare-app-go/internal/config"
	"welfare-app-go/pkg/logger"
)

func NewMongo(ctx context.Context, cfg config.MongoConfig, log logger.Logger) (*mongo.Client, *mongo.Database, error) {
	log.Info("db: connecting to mongo", "database", cfg.Database)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info("db: connected")
	return client, client.Database(cfg.Database), nil
}

type MongoPinger struct {
	client *mongo.Client
}

func NewMongoPinger(client *mongo.Client) *MongoPinger {
	return &MongoPinger{client: client}
}

func (p *MongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}
