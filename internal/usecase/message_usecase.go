package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/internal/repo/kafka"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
	"github.com/minhngoc274/chatcore/internal/repo/redis"
)

// readFanoutConcurrency bounds parallel per-message receipt writes and
// per-room unread counts.
const readFanoutConcurrency = 8

type MessageUseCase struct {
	roomRepo    mongodb.RoomRepository
	messageRepo mongodb.MessageRepository
	cache       redis.MessageCache
	publisher   kafka.EventPublisher
	broadcaster Broadcaster
	cfg         config.ChatConfig
}

func NewMessageUseCase(
	roomRepo mongodb.RoomRepository,
	messageRepo mongodb.MessageRepository,
	cache redis.MessageCache,
	publisher kafka.EventPublisher,
	broadcaster Broadcaster,
	cfg *config.Config,
) *MessageUseCase {
	return &MessageUseCase{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		cache:       cache,
		publisher:   publisher,
		broadcaster: broadcaster,
		cfg:         cfg.Chat,
	}
}

// SendMessageParams contains parameters for sending a message
type SendMessageParams struct {
	RoomID           primitive.ObjectID    `json:"room_id"`
	SenderID         string                `json:"-"`
	Content          string                `json:"content"`
	Type             models.MessageType    `json:"type"`
	ReplyToMessageID *primitive.ObjectID   `json:"reply_to_message_id,omitempty"`
	MediaMetadata    *models.MediaMetadata `json:"media_metadata,omitempty"`
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, params SendMessageParams) (*models.Message, error) {
	room, err := uc.roomRepo.GetByID(ctx, params.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(params.SenderID) {
		return nil, models.ErrForbidden
	}
	if !room.IsActive {
		return nil, models.ErrInvalidState
	}

	if params.Type == "" {
		params.Type = models.MessageTypeText
	}
	if params.MediaMetadata != nil && !room.Settings.AllowFileSharing {
		return nil, models.ErrForbidden
	}
	if strings.TrimSpace(params.Content) == "" && params.MediaMetadata == nil {
		return nil, models.ErrInvalidOperation
	}

	if params.ReplyToMessageID != nil {
		target, err := uc.messageRepo.GetByID(ctx, *params.ReplyToMessageID)
		if err != nil {
			return nil, err
		}
		if target.RoomID != params.RoomID {
			return nil, models.ErrInvalidOperation
		}
	}

	message := &models.Message{
		RoomID:           params.RoomID,
		SenderID:         params.SenderID,
		Content:          params.Content,
		Type:             params.Type,
		ReplyToMessageID: params.ReplyToMessageID,
		MediaMetadata:    params.MediaMetadata,
		Reactions:        []models.Reaction{},
		ReadReceipts:     []models.ReadReceipt{},
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		if err := uc.roomRepo.SetLastMessageAt(ctx, params.RoomID, message.CreatedAt); err != nil {
			log.Warnw(ctx, "Failed to bump room activity", "error", err)
		}
		if err := uc.cache.Append(ctx, params.RoomID.Hex(), message); err != nil {
			log.Warnw(ctx, "Failed to append to message cache", "error", err)
		}

		event := models.NewMessageEvent(models.EventMessageSent, params.SenderID, models.MessageEventData{
			RoomID:    params.RoomID.Hex(),
			MessageID: message.ID.Hex(),
			Type:      message.Type,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish message sent event", "error", err)
		}

		uc.broadcaster.BroadcastToRoom(params.RoomID.Hex(), EventNameMessage, message)
	})

	return message, nil
}

func (uc *MessageUseCase) GetMessage(ctx context.Context, messageID primitive.ObjectID, userID string) (*models.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.memberRoom(ctx, message.RoomID, userID); err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages pages through a room's history, newest first. The first page
// is served from the recent-messages cache when it is warm.
func (uc *MessageUseCase) ListMessages(ctx context.Context, roomID primitive.ObjectID, userID string, limit, skip int64) ([]*models.Message, error) {
	if _, err := uc.memberRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	limit = uc.clampLimit(limit)

	if skip == 0 {
		cached, err := uc.cache.GetRecent(ctx, roomID.Hex())
		if err != nil {
			log.Warnw(ctx, "Failed to read message cache", "error", err)
		}
		if int64(len(cached)) >= limit {
			return cached[:limit], nil
		}
	}

	messages, err := uc.messageRepo.ListByRoom(ctx, roomID, limit, skip)
	if err != nil {
		return nil, err
	}

	if skip == 0 {
		if err := uc.cache.SetRecent(ctx, roomID.Hex(), messages); err != nil {
			log.Warnw(ctx, "Failed to warm message cache", "error", err)
		}
	}
	return messages, nil
}

func (uc *MessageUseCase) EditMessage(ctx context.Context, messageID primitive.ObjectID, senderID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.ErrInvalidOperation
	}

	message, err := uc.messageRepo.UpdateContent(ctx, messageID, senderID, content)
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		if err := uc.cache.Invalidate(ctx, message.RoomID.Hex()); err != nil {
			log.Warnw(ctx, "Failed to invalidate message cache", "error", err)
		}
		event := models.NewMessageEvent(models.EventMessageEdited, senderID, models.MessageEventData{
			RoomID:    message.RoomID.Hex(),
			MessageID: message.ID.Hex(),
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish message edited event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(message.RoomID.Hex(), EventNameMessage, message)
	})
	return message, nil
}

func (uc *MessageUseCase) DeleteMessage(ctx context.Context, messageID primitive.ObjectID, senderID string) (*models.Message, error) {
	message, err := uc.messageRepo.SoftDelete(ctx, messageID, senderID)
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		if err := uc.cache.Invalidate(ctx, message.RoomID.Hex()); err != nil {
			log.Warnw(ctx, "Failed to invalidate message cache", "error", err)
		}
		event := models.NewMessageEvent(models.EventMessageDeleted, senderID, models.MessageEventData{
			RoomID:    message.RoomID.Hex(),
			MessageID: message.ID.Hex(),
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish message deleted event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(message.RoomID.Hex(), EventNameMessage, message)
	})
	return message, nil
}

func (uc *MessageUseCase) AddReaction(ctx context.Context, messageID primitive.ObjectID, userID, emoji string) (*models.Message, error) {
	if emoji == "" {
		return nil, models.ErrInvalidOperation
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.memberRoom(ctx, message.RoomID, userID); err != nil {
		return nil, err
	}

	updated, err := uc.messageRepo.AddReaction(ctx, messageID, models.Reaction{
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		if err := uc.cache.Invalidate(ctx, updated.RoomID.Hex()); err != nil {
			log.Warnw(ctx, "Failed to invalidate message cache", "error", err)
		}
		event := models.NewMessageEvent(models.EventReactionAdded, userID, models.MessageEventData{
			RoomID:    updated.RoomID.Hex(),
			MessageID: updated.ID.Hex(),
			Emoji:     emoji,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish reaction added event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(updated.RoomID.Hex(), EventNameReaction, updated)
	})
	return updated, nil
}

func (uc *MessageUseCase) RemoveReaction(ctx context.Context, messageID primitive.ObjectID, userID, emoji string) (*models.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.memberRoom(ctx, message.RoomID, userID); err != nil {
		return nil, err
	}

	updated, err := uc.messageRepo.RemoveReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		if err := uc.cache.Invalidate(ctx, updated.RoomID.Hex()); err != nil {
			log.Warnw(ctx, "Failed to invalidate message cache", "error", err)
		}
		event := models.NewMessageEvent(models.EventReactionRemoved, userID, models.MessageEventData{
			RoomID:    updated.RoomID.Hex(),
			MessageID: updated.ID.Hex(),
			Emoji:     emoji,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish reaction removed event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(updated.RoomID.Hex(), EventNameReaction, updated)
	})
	return updated, nil
}

func (uc *MessageUseCase) MarkMessageRead(ctx context.Context, messageID primitive.ObjectID, userID string) (*models.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.memberRoom(ctx, message.RoomID, userID); err != nil {
		return nil, err
	}

	updated, err := uc.messageRepo.AddReadReceipt(ctx, messageID, models.ReadReceipt{
		UserID: userID,
		ReadAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		if err := uc.cache.Invalidate(ctx, updated.RoomID.Hex()); err != nil {
			log.Warnw(ctx, "Failed to invalidate message cache", "error", err)
		}
		event := models.NewMessageEvent(models.EventMessageRead, userID, models.MessageEventData{
			RoomID:    updated.RoomID.Hex(),
			MessageID: updated.ID.Hex(),
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish message read event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(updated.RoomID.Hex(), EventNameReadReceipt, models.ReadReceipt{
			UserID: userID,
			ReadAt: time.Now(),
		})
	})
	return updated, nil
}

// MarkRoomRead stamps a read receipt on every unread message in the room.
func (uc *MessageUseCase) MarkRoomRead(ctx context.Context, roomID primitive.ObjectID, userID string) (int, error) {
	if _, err := uc.memberRoom(ctx, roomID, userID); err != nil {
		return 0, err
	}

	unread, err := uc.messageRepo.ListUnread(ctx, roomID, userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var marked int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(readFanoutConcurrency)
	for _, msg := range unread {
		group.Go(func() error {
			if _, err := uc.messageRepo.AddReadReceipt(groupCtx, msg.ID, models.ReadReceipt{UserID: userID, ReadAt: now}); err != nil {
				log.Warnw(groupCtx, "Failed to add read receipt", "error", err, "message_id", msg.ID.Hex())
				return nil
			}
			atomic.AddInt64(&marked, 1)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return int(marked), err
	}

	if marked > 0 {
		uc.postProcess(ctx, func(ctx context.Context) {
			if err := uc.cache.Invalidate(ctx, roomID.Hex()); err != nil {
				log.Warnw(ctx, "Failed to invalidate message cache", "error", err)
			}
			uc.broadcaster.BroadcastToRoom(roomID.Hex(), EventNameReadReceipt, models.ReadReceipt{
				UserID: userID,
				ReadAt: now,
			})
		})
	}
	return int(marked), nil
}

func (uc *MessageUseCase) UnreadCount(ctx context.Context, roomID primitive.ObjectID, userID string) (int64, error) {
	if _, err := uc.memberRoom(ctx, roomID, userID); err != nil {
		return 0, err
	}
	return uc.messageRepo.CountUnread(ctx, roomID, userID)
}

func (uc *MessageUseCase) memberRoom(ctx context.Context, roomID primitive.ObjectID, userID string) (*models.Room, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, models.ErrForbidden
	}
	return room, nil
}

func (uc *MessageUseCase) clampLimit(limit int64) int64 {
	if limit <= 0 {
		return int64(uc.cfg.DefaultPageSize)
	}
	if limit > int64(uc.cfg.MaxPageSize) {
		return int64(uc.cfg.MaxPageSize)
	}
	return limit
}

func (uc *MessageUseCase) postProcess(ctx context.Context, fn func(ctx context.Context)) {
	postProcess(ctx, fn)
}
