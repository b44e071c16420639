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

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListByRoom(ctx context.Context, roomID primitive.ObjectID, limit, skip int64) ([]*models.Message, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, senderID, content string) (*models.Message, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, senderID string) (*models.Message, error)
	AddReaction(ctx context.Context, id primitive.ObjectID, reaction models.Reaction) (*models.Message, error)
	RemoveReaction(ctx context.Context, id primitive.ObjectID, userID, emoji string) (*models.Message, error)
	AddReadReceipt(ctx context.Context, id primitive.ObjectID, receipt models.ReadReceipt) (*models.Message, error)
	ListUnread(ctx context.Context, roomID primitive.ObjectID, userID string) ([]*models.Message, error)
	CountUnread(ctx context.Context, roomID primitive.ObjectID, userID string) (int64, error)
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *DB) MessageRepository {
	return &messageRepo{
		collection: db.Database.Collection("messages"),
	}
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (r *messageRepo) ListByRoom(ctx context.Context, roomID primitive.ObjectID, limit, skip int64) ([]*models.Message, error) {
	filter := bson.M{
		"room_id":    roomID,
		"is_deleted": false,
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// UpdateContent edits a message in place. Only the sender can edit, and
// deleted messages stay frozen, so both conditions ride in the filter.
func (r *messageRepo) UpdateContent(ctx context.Context, id primitive.ObjectID, senderID, content string) (*models.Message, error) {
	now := time.Now()
	filter := bson.M{
		"_id":        id,
		"sender_id":  senderID,
		"is_deleted": false,
	}
	update := bson.M{
		"$set": bson.M{
			"content":    content,
			"is_edited":  true,
			"edited_at":  now,
			"updated_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg models.Message
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.SenderID != senderID {
			return nil, models.ErrForbidden
		}
		// Deleted messages stay frozen.
		return nil, models.ErrInvalidOperation
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return &msg, nil
}

func (r *messageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, senderID string) (*models.Message, error) {
	now := time.Now()
	filter := bson.M{
		"_id":        id,
		"sender_id":  senderID,
		"is_deleted": false,
	}
	update := bson.M{
		"$set": bson.M{
			"content":    models.DeletedContent,
			"is_deleted": true,
			"updated_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg models.Message
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.SenderID != senderID {
			return nil, models.ErrForbidden
		}
		// Deleting twice is a no-op.
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}
	return &msg, nil
}

// AddReaction appends the (user, emoji) pair unless it is already present.
// A zero-match on an existing message means the pair is there, which counts
// as success.
func (r *messageRepo) AddReaction(ctx context.Context, id primitive.ObjectID, reaction models.Reaction) (*models.Message, error) {
	filter := bson.M{
		"_id":        id,
		"is_deleted": false,
		"reactions": bson.M{
			"$not": bson.M{
				"$elemMatch": bson.M{
					"user_id": reaction.UserID,
					"emoji":   reaction.Emoji,
				},
			},
		},
	}
	update := bson.M{
		"$push": bson.M{"reactions": reaction},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg models.Message
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.IsDeleted {
			return nil, models.ErrInvalidState
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add reaction: %w", err)
	}
	return &msg, nil
}

func (r *messageRepo) RemoveReaction(ctx context.Context, id primitive.ObjectID, userID, emoji string) (*models.Message, error) {
	update := bson.M{
		"$pull": bson.M{
			"reactions": bson.M{
				"user_id": userID,
				"emoji":   emoji,
			},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg models.Message
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove reaction: %w", err)
	}
	return &msg, nil
}

// AddReadReceipt records that userID read the message. Senders never get
// receipts on their own messages and a second read is a no-op.
func (r *messageRepo) AddReadReceipt(ctx context.Context, id primitive.ObjectID, receipt models.ReadReceipt) (*models.Message, error) {
	filter := bson.M{
		"_id":                   id,
		"sender_id":             bson.M{"$ne": receipt.UserID},
		"read_receipts.user_id": bson.M{"$ne": receipt.UserID},
	}
	update := bson.M{
		"$push": bson.M{"read_receipts": receipt},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg models.Message
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add read receipt: %w", err)
	}
	return &msg, nil
}

func (r *messageRepo) unreadFilter(roomID primitive.ObjectID, userID string) bson.M {
	return bson.M{
		"room_id":               roomID,
		"is_deleted":            false,
		"sender_id":             bson.M{"$ne": userID},
		"read_receipts.user_id": bson.M{"$ne": userID},
	}
}

func (r *messageRepo) ListUnread(ctx context.Context, roomID primitive.ObjectID, userID string) ([]*models.Message, error) {
	cursor, err := r.collection.Find(ctx, r.unreadFilter(roomID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode unread messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, roomID primitive.ObjectID, userID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, r.unreadFilter(roomID, userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
