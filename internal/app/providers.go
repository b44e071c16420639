package app

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/repo/kafka"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
	"github.com/minhngoc274/chatcore/internal/repo/redis"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mongodb.NewConnection(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return mongodb.EnsureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})
	return db, nil
}

func newRedisClient(lc fx.Lifecycle, cfg *config.Config) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newEphemeralStore(client *goredis.Client, cfg *config.Config) redis.EphemeralStore {
	return redis.NewEphemeralStore(client, cfg.Chat)
}

func newMessageCache(client *goredis.Client, cfg *config.Config) redis.MessageCache {
	return redis.NewMessageCache(client, cfg.Chat)
}

func newEventPublisher(lc fx.Lifecycle, cfg *config.Config) (kafka.EventPublisher, error) {
	publisher, err := kafka.NewEventPublisher(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

// StartCallSweeper runs the call expiry sweep for the process lifetime.
func StartCallSweeper(lc fx.Lifecycle, sweeper *usecase.CallSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go sweeper.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		},
	})
}
