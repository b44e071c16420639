package usecase

import (
	"context"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/internal/repo/kafka"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
	"github.com/minhngoc274/chatcore/internal/repo/redis"
)

// presenceFanoutRooms caps how many of a user's rooms get a presence
// broadcast on connect and disconnect.
const presenceFanoutRooms = 100

type PresenceUseCase struct {
	roomRepo    mongodb.RoomRepository
	ephemeral   redis.EphemeralStore
	publisher   kafka.EventPublisher
	broadcaster Broadcaster
}

func NewPresenceUseCase(
	roomRepo mongodb.RoomRepository,
	ephemeral redis.EphemeralStore,
	publisher kafka.EventPublisher,
	broadcaster Broadcaster,
) *PresenceUseCase {
	return &PresenceUseCase{
		roomRepo:    roomRepo,
		ephemeral:   ephemeral,
		publisher:   publisher,
		broadcaster: broadcaster,
	}
}

func (uc *PresenceUseCase) Connect(ctx context.Context, userID string) error {
	return uc.setPresence(ctx, models.Presence{
		UserID:   userID,
		Online:   true,
		Status:   models.PresenceOnline,
		LastSeen: time.Now(),
	})
}

func (uc *PresenceUseCase) Disconnect(ctx context.Context, userID string) error {
	return uc.setPresence(ctx, models.Presence{
		UserID:   userID,
		Online:   false,
		Status:   models.PresenceOffline,
		LastSeen: time.Now(),
	})
}

// Heartbeat refreshes the presence TTL with an optional status change.
func (uc *PresenceUseCase) Heartbeat(ctx context.Context, userID string, status models.PresenceStatus) error {
	if status == "" {
		status = models.PresenceOnline
	}
	presence := models.Presence{
		UserID:   userID,
		Online:   status != models.PresenceOffline,
		Status:   status,
		LastSeen: time.Now(),
	}
	return uc.ephemeral.SetPresence(ctx, presence)
}

func (uc *PresenceUseCase) setPresence(ctx context.Context, presence models.Presence) error {
	if err := uc.ephemeral.SetPresence(ctx, presence); err != nil {
		return err
	}

	postProcess(ctx, func(ctx context.Context) {
		event := models.NewPresenceEvent(presence.UserID, models.PresenceEventData{
			Online: presence.Online,
			Status: presence.Status,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish presence event", "error", err)
		}

		rooms, err := uc.roomRepo.ListByMember(ctx, presence.UserID, presenceFanoutRooms, 0)
		if err != nil {
			log.Warnw(ctx, "Failed to list rooms for presence fanout", "error", err)
			return
		}
		for _, room := range rooms {
			uc.broadcaster.BroadcastToRoom(room.ID.Hex(), EventNamePresence, presence)
		}
	})
	return nil
}

func (uc *PresenceUseCase) GetPresence(ctx context.Context, userID string) (*models.Presence, error) {
	return uc.ephemeral.GetPresence(ctx, userID)
}

// RoomPresence returns presence for every member of the room.
func (uc *PresenceUseCase) RoomPresence(ctx context.Context, roomID primitive.ObjectID, userID string) ([]*models.Presence, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, models.ErrForbidden
	}
	return uc.ephemeral.GetPresences(ctx, room.MemberIDs)
}

func (uc *PresenceUseCase) SetTyping(ctx context.Context, roomID primitive.ObjectID, userID string, isTyping bool) error {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsMember(userID) {
		return models.ErrForbidden
	}

	if err := uc.ephemeral.SetTyping(ctx, roomID.Hex(), userID, isTyping); err != nil {
		return err
	}

	uc.broadcaster.BroadcastToRoom(roomID.Hex(), EventNameTyping, models.TypingIndicator{
		RoomID:    roomID.Hex(),
		UserID:    userID,
		IsTyping:  isTyping,
		UpdatedAt: time.Now(),
	})
	return nil
}

func (uc *PresenceUseCase) TypingUsers(ctx context.Context, roomID primitive.ObjectID, userID string) ([]string, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, models.ErrForbidden
	}
	return uc.ephemeral.GetTypingUsers(ctx, roomID.Hex())
}
