package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minhngoc274/chatcore/internal/models"
)

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	GetByDirectKey(ctx context.Context, key string) (*models.Room, error)
	ListByMember(ctx context.Context, userID string, limit, skip int64) ([]*models.Room, error)
	AddMember(ctx context.Context, roomID primitive.ObjectID, userID string, maxMembers int) error
	RemoveMember(ctx context.Context, roomID primitive.ObjectID, userID string) (*models.Room, error)
	PromoteAdmin(ctx context.Context, roomID primitive.ObjectID, userID string) error
	UpdateRoom(ctx context.Context, roomID primitive.ObjectID, set bson.M) (*models.Room, error)
	SetLastMessageAt(ctx context.Context, roomID primitive.ObjectID, at time.Time) error
	SoftDelete(ctx context.Context, roomID primitive.ObjectID) error
}

type roomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepository(db *DB) RoomRepository {
	return &roomRepo{
		collection: db.Database.Collection("rooms"),
	}
}

func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	room.ID = primitive.NewObjectID()
	room.CreatedAt = time.Now()
	room.UpdatedAt = time.Now()
	room.IsActive = true

	_, err := r.collection.InsertOne(ctx, room)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the race on the unique direct-room key.
		return models.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *roomRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (r *roomRepo) GetByDirectKey(ctx context.Context, key string) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, bson.M{"direct_key": key}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get direct room: %w", err)
	}
	return &room, nil
}

func (r *roomRepo) ListByMember(ctx context.Context, userID string, limit, skip int64) ([]*models.Room, error) {
	filter := bson.M{
		"member_ids": userID,
		"is_active":  true,
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*models.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

// AddMember appends userID to the member list. The filter carries the
// already-member and capacity guards so the append stays atomic under
// concurrent joins.
func (r *roomRepo) AddMember(ctx context.Context, roomID primitive.ObjectID, userID string, maxMembers int) error {
	filter := bson.M{
		"_id":        roomID,
		"is_active":  true,
		"member_ids": bson.M{"$ne": userID},
		"$expr":      bson.M{"$lt": bson.A{bson.M{"$size": "$member_ids"}, maxMembers}},
	}
	update := bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if result.MatchedCount == 0 {
		room, err := r.GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		if room.IsMember(userID) {
			return models.ErrConflict
		}
		// Room exists and the user is not in it: the capacity guard failed.
		return models.ErrForbidden
	}
	return nil
}

func (r *roomRepo) RemoveMember(ctx context.Context, roomID primitive.ObjectID, userID string) (*models.Room, error) {
	filter := bson.M{
		"_id":        roomID,
		"member_ids": userID,
	}
	update := bson.M{
		"$pull": bson.M{
			"member_ids": userID,
			"admin_ids":  userID,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room models.Room
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	return &room, nil
}

// PromoteAdmin grants admin rights to an existing member. The member filter
// keeps admin_ids a subset of member_ids.
func (r *roomRepo) PromoteAdmin(ctx context.Context, roomID primitive.ObjectID, userID string) error {
	filter := bson.M{
		"_id":        roomID,
		"member_ids": userID,
	}
	update := bson.M{
		"$addToSet": bson.M{"admin_ids": userID},
		"$set": bson.M{
			"created_by": userID,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to promote admin: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *roomRepo) UpdateRoom(ctx context.Context, roomID primitive.ObjectID, set bson.M) (*models.Room, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room models.Room
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": roomID}, bson.M{"$set": set}, opts).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	return &room, nil
}

func (r *roomRepo) SetLastMessageAt(ctx context.Context, roomID primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"last_message_at": at,
			"updated_at":      at,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": roomID}, update)
	if err != nil {
		return fmt.Errorf("failed to update last message time: %w", err)
	}
	return nil
}

func (r *roomRepo) SoftDelete(ctx context.Context, roomID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"is_active":  false,
			"updated_at": time.Now(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": roomID}, update)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
