package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
)

const (
	recentMessagesKeyFmt = "chat:room:%s:recent-messages"
	recentMessagesMax    = 50
)

// MessageCache holds the newest messages of a room as a capped redis list,
// newest first. Any mutation to a cached message invalidates the whole room
// rather than patching in place.
type MessageCache interface {
	GetRecent(ctx context.Context, roomID string) ([]*models.Message, error)
	SetRecent(ctx context.Context, roomID string, messages []*models.Message) error
	Append(ctx context.Context, roomID string, msg *models.Message) error
	Invalidate(ctx context.Context, roomID string) error
}

type messageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMessageCache(client *redis.Client, cfg config.ChatConfig) MessageCache {
	return &messageCache{
		client: client,
		ttl:    cfg.RecentMessagesTTL,
	}
}

func (c *messageCache) GetRecent(ctx context.Context, roomID string) ([]*models.Message, error) {
	key := fmt.Sprintf(recentMessagesKeyFmt, roomID)
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) || len(raw) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read message cache: %w", err)
	}

	messages := make([]*models.Message, 0, len(raw))
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// A corrupt entry poisons the list, drop it entirely.
			_ = c.Invalidate(ctx, roomID)
			return nil, nil
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

func (c *messageCache) SetRecent(ctx context.Context, roomID string, messages []*models.Message) error {
	key := fmt.Sprintf(recentMessagesKeyFmt, roomID)

	items := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		items = append(items, data)
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	if len(items) > 0 {
		pipe.RPush(ctx, key, items...)
		pipe.LTrim(ctx, key, 0, recentMessagesMax-1)
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to fill message cache: %w", err)
	}
	return nil
}

func (c *messageCache) Append(ctx context.Context, roomID string, msg *models.Message) error {
	key := fmt.Sprintf(recentMessagesKeyFmt, roomID)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check message cache: %w", err)
	}
	if exists == 0 {
		// The next read warms the cache from the store.
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, recentMessagesMax-1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to message cache: %w", err)
	}
	return nil
}

func (c *messageCache) Invalidate(ctx context.Context, roomID string) error {
	key := fmt.Sprintf(recentMessagesKeyFmt, roomID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate message cache: %w", err)
	}
	return nil
}
