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
	presenceKeyFmt    = "chat:user:%s:online-status"
	typingKeyFmt      = "chat:room:%s:typing:%s"
	typingUsersKeyFmt = "chat:room:%s:typing-users"
)

// EphemeralStore keeps presence and typing indicators in redis with TTLs.
// A missing key reads as offline / not typing, so crashed writers converge
// without cleanup.
type EphemeralStore interface {
	SetPresence(ctx context.Context, presence models.Presence) error
	GetPresence(ctx context.Context, userID string) (*models.Presence, error)
	GetPresences(ctx context.Context, userIDs []string) ([]*models.Presence, error)
	SetTyping(ctx context.Context, roomID, userID string, isTyping bool) error
	GetTypingUsers(ctx context.Context, roomID string) ([]string, error)
}

type ephemeralStore struct {
	client      *redis.Client
	presenceTTL time.Duration
	typingTTL   time.Duration
}

func NewEphemeralStore(client *redis.Client, cfg config.ChatConfig) EphemeralStore {
	return &ephemeralStore{
		client:      client,
		presenceTTL: cfg.PresenceTTL,
		typingTTL:   cfg.TypingTTL,
	}
}

func (s *ephemeralStore) SetPresence(ctx context.Context, presence models.Presence) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	key := fmt.Sprintf(presenceKeyFmt, presence.UserID)
	if err := s.client.Set(ctx, key, data, s.presenceTTL).Err(); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (s *ephemeralStore) GetPresence(ctx context.Context, userID string) (*models.Presence, error) {
	key := fmt.Sprintf(presenceKeyFmt, userID)
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return offlinePresence(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	var presence models.Presence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}
	return &presence, nil
}

func (s *ephemeralStore) GetPresences(ctx context.Context, userIDs []string) ([]*models.Presence, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = fmt.Sprintf(presenceKeyFmt, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get presences: %w", err)
	}

	presences := make([]*models.Presence, 0, len(userIDs))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			presences = append(presences, offlinePresence(userIDs[i]))
			continue
		}
		var presence models.Presence
		if err := json.Unmarshal([]byte(raw), &presence); err != nil {
			presences = append(presences, offlinePresence(userIDs[i]))
			continue
		}
		presences = append(presences, &presence)
	}
	return presences, nil
}

func offlinePresence(userID string) *models.Presence {
	return &models.Presence{
		UserID: userID,
		Online: false,
		Status: models.PresenceOffline,
	}
}

func (s *ephemeralStore) SetTyping(ctx context.Context, roomID, userID string, isTyping bool) error {
	key := fmt.Sprintf(typingKeyFmt, roomID, userID)
	setKey := fmt.Sprintf(typingUsersKeyFmt, roomID)

	pipe := s.client.Pipeline()
	if isTyping {
		pipe.Set(ctx, key, "1", s.typingTTL)
		pipe.SAdd(ctx, setKey, userID)
		pipe.Expire(ctx, setKey, s.typingTTL)
	} else {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, setKey, userID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set typing indicator: %w", err)
	}
	return nil
}

// GetTypingUsers returns users whose per-user typing key is still live and
// prunes set entries whose key expired.
func (s *ephemeralStore) GetTypingUsers(ctx context.Context, roomID string) ([]string, error) {
	setKey := fmt.Sprintf(typingUsersKeyFmt, roomID)
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get typing users: %w", err)
	}

	typing := make([]string, 0, len(members))
	var stale []interface{}
	for _, userID := range members {
		key := fmt.Sprintf(typingKeyFmt, roomID, userID)
		exists, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check typing key: %w", err)
		}
		if exists > 0 {
			typing = append(typing, userID)
		} else {
			stale = append(stale, userID)
		}
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, setKey, stale...).Err()
	}
	return typing, nil
}
