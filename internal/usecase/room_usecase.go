package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/internal/repo/kafka"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
)

type RoomUseCase struct {
	roomRepo    mongodb.RoomRepository
	messageRepo mongodb.MessageRepository
	publisher   kafka.EventPublisher
	broadcaster Broadcaster
	cfg         config.ChatConfig
}

func NewRoomUseCase(
	roomRepo mongodb.RoomRepository,
	messageRepo mongodb.MessageRepository,
	publisher kafka.EventPublisher,
	broadcaster Broadcaster,
	cfg *config.Config,
) *RoomUseCase {
	return &RoomUseCase{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		publisher:   publisher,
		broadcaster: broadcaster,
		cfg:         cfg.Chat,
	}
}

// CreateRoomParams contains parameters for creating a room
type CreateRoomParams struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Type        models.RoomType     `json:"type" validate:"required,oneof=direct group channel"`
	CreatorID   string              `json:"-"`
	MemberIDs   []string            `json:"member_ids"`
	Settings    *models.RoomSettings `json:"settings,omitempty"`
}

func (uc *RoomUseCase) CreateRoom(ctx context.Context, params CreateRoomParams) (*models.Room, error) {
	members := dedupe(append([]string{params.CreatorID}, params.MemberIDs...))

	settings := models.DefaultRoomSettings()
	if params.Settings != nil {
		settings = *params.Settings
	}

	room := &models.Room{
		Name:        params.Name,
		Description: params.Description,
		Type:        params.Type,
		CreatedBy:   params.CreatorID,
		MemberIDs:   members,
		AdminIDs:    []string{params.CreatorID},
		Settings:    settings,
	}

	if params.Type == models.RoomTypeDirect {
		if len(members) != 2 {
			return nil, models.ErrInvalidOperation
		}
		room.DirectKey = models.DirectRoomKey(members[0], members[1])
		room.Settings.MaxMembers = 2

		// The same pair always maps to the same room, whichever side asks.
		if existing, err := uc.roomRepo.GetByDirectKey(ctx, room.DirectKey); err == nil {
			return existing, nil
		}
	}

	if len(members) > settings.MaxMembers {
		return nil, models.ErrInvalidOperation
	}

	err := uc.roomRepo.Create(ctx, room)
	if errors.Is(err, models.ErrConflict) && room.DirectKey != "" {
		return uc.roomRepo.GetByDirectKey(ctx, room.DirectKey)
	}
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		event := models.NewRoomEvent(models.EventRoomCreated, params.CreatorID, models.RoomEventData{
			RoomID: room.ID.Hex(),
			Type:   room.Type,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish room created event", "error", err)
		}
		uc.broadcaster.BroadcastToUsers(room.MemberIDs, EventNameRoom, room)
	})

	return room, nil
}

func (uc *RoomUseCase) GetRoom(ctx context.Context, roomID primitive.ObjectID, userID string) (*models.Room, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, models.ErrForbidden
	}
	return room, nil
}

func (uc *RoomUseCase) ListRooms(ctx context.Context, userID string, limit, skip int64) ([]*models.Room, error) {
	return uc.roomRepo.ListByMember(ctx, userID, uc.clampLimit(limit), skip)
}

// RoomWithUnread is a room list entry with the caller's unread message count.
type RoomWithUnread struct {
	*models.Room
	UnreadCount int64 `json:"unread_count"`
}

func (uc *RoomUseCase) ListRoomsWithUnread(ctx context.Context, userID string, limit, skip int64) ([]*RoomWithUnread, error) {
	rooms, err := uc.ListRooms(ctx, userID, limit, skip)
	if err != nil {
		return nil, err
	}

	out := make([]*RoomWithUnread, len(rooms))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(readFanoutConcurrency)
	for i, room := range rooms {
		group.Go(func() error {
			count, err := uc.messageRepo.CountUnread(groupCtx, room.ID, userID)
			if err != nil {
				return fmt.Errorf("failed to count unread for room %s: %w", room.ID.Hex(), err)
			}
			out[i] = &RoomWithUnread{Room: room, UnreadCount: count}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRoomParams contains the mutable room fields; nil means keep.
type UpdateRoomParams struct {
	Name        *string              `json:"name,omitempty"`
	Description *string              `json:"description,omitempty"`
	Settings    *models.RoomSettings `json:"settings,omitempty"`
}

func (uc *RoomUseCase) UpdateRoom(ctx context.Context, roomID primitive.ObjectID, actorID string, params UpdateRoomParams) (*models.Room, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(actorID) {
		return nil, models.ErrForbidden
	}
	if room.Type == models.RoomTypeDirect {
		return nil, models.ErrInvalidOperation
	}

	set := bson.M{}
	if params.Name != nil {
		set["name"] = *params.Name
	}
	if params.Description != nil {
		set["description"] = *params.Description
	}
	if params.Settings != nil {
		if params.Settings.MaxMembers < len(room.MemberIDs) {
			return nil, models.ErrInvalidOperation
		}
		set["settings"] = *params.Settings
	}
	if len(set) == 0 {
		return room, nil
	}

	updated, err := uc.roomRepo.UpdateRoom(ctx, roomID, set)
	if err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		event := models.NewRoomEvent(models.EventRoomUpdated, actorID, models.RoomEventData{
			RoomID: roomID.Hex(),
			Type:   updated.Type,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish room updated event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(roomID.Hex(), EventNameRoom, updated)
	})
	return updated, nil
}

func (uc *RoomUseCase) AddMember(ctx context.Context, roomID primitive.ObjectID, actorID, memberID string) (*models.Room, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Type == models.RoomTypeDirect {
		return nil, models.ErrInvalidOperation
	}
	if !room.IsMember(actorID) {
		return nil, models.ErrForbidden
	}
	if !room.Settings.AllowInvites && !room.IsAdmin(actorID) {
		return nil, models.ErrForbidden
	}

	if err := uc.roomRepo.AddMember(ctx, roomID, memberID, room.Settings.MaxMembers); err != nil {
		return nil, err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		event := models.NewRoomEvent(models.EventMemberJoined, actorID, models.RoomEventData{
			RoomID:   roomID.Hex(),
			MemberID: memberID,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish member joined event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(roomID.Hex(), EventNameRoom, event)
		uc.broadcaster.BroadcastToUser(memberID, EventNameRoom, event)
	})

	return uc.roomRepo.GetByID(ctx, roomID)
}

// RemoveMember removes memberID from the room. Members may remove themselves;
// removing anyone else takes admin rights. When the last admin leaves, the
// longest-possible-standing member inherits the role so the room never goes
// adminless while populated.
func (uc *RoomUseCase) RemoveMember(ctx context.Context, roomID primitive.ObjectID, actorID, memberID string) error {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Type == models.RoomTypeDirect {
		return models.ErrInvalidOperation
	}
	if !room.IsMember(actorID) {
		return models.ErrForbidden
	}
	if actorID != memberID && !room.IsAdmin(actorID) {
		return models.ErrForbidden
	}
	if !room.IsMember(memberID) {
		return models.ErrNotFound
	}

	updated, err := uc.roomRepo.RemoveMember(ctx, roomID, memberID)
	if err != nil {
		return err
	}

	if len(updated.MemberIDs) == 0 {
		if err := uc.roomRepo.SoftDelete(ctx, roomID); err != nil {
			log.Warnw(ctx, "Failed to close emptied room", "error", err, "room_id", roomID.Hex())
		}
	} else if len(updated.AdminIDs) == 0 {
		heir := lowestID(updated.MemberIDs)
		if err := uc.roomRepo.PromoteAdmin(ctx, roomID, heir); err != nil {
			log.Warnw(ctx, "Failed to promote admin", "error", err, "room_id", roomID.Hex(), "user_id", heir)
		}
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		event := models.NewRoomEvent(models.EventMemberLeft, actorID, models.RoomEventData{
			RoomID:   roomID.Hex(),
			MemberID: memberID,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish member left event", "error", err)
		}
		uc.broadcaster.BroadcastToRoom(roomID.Hex(), EventNameRoom, event)
		uc.broadcaster.BroadcastToUser(memberID, EventNameRoom, event)
	})
	return nil
}

func (uc *RoomUseCase) DeleteRoom(ctx context.Context, roomID primitive.ObjectID, actorID string) error {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsAdmin(actorID) {
		return models.ErrForbidden
	}

	if err := uc.roomRepo.SoftDelete(ctx, roomID); err != nil {
		return err
	}

	uc.postProcess(ctx, func(ctx context.Context) {
		event := models.NewRoomEvent(models.EventRoomDeleted, actorID, models.RoomEventData{
			RoomID: roomID.Hex(),
			Type:   room.Type,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish room deleted event", "error", err)
		}
		uc.broadcaster.BroadcastToUsers(room.MemberIDs, EventNameRoom, event)
	})
	return nil
}

func (uc *RoomUseCase) clampLimit(limit int64) int64 {
	if limit <= 0 {
		return int64(uc.cfg.DefaultPageSize)
	}
	if limit > int64(uc.cfg.MaxPageSize) {
		return int64(uc.cfg.MaxPageSize)
	}
	return limit
}

func (uc *RoomUseCase) postProcess(ctx context.Context, fn func(ctx context.Context)) {
	postProcess(ctx, fn)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func lowestID(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return sorted[0]
}
