package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minhngoc274/chatcore/internal/config"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewConnection(ctx context.Context, cfg config.MongoConfig) (*DB, error) {
	hostAddr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)

	clientOptions := options.Client().
		SetAppName("chatcore").
		SetHosts([]string{hostAddr}).
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second).
		SetDirect(true)

	// Only set auth if password is provided
	if cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			AuthSource: "admin",
			Username:   cfg.Username,
			Password:   cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}
