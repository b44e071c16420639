package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the hot queries depend on. It is safe to
// run on every startup; Mongo treats matching definitions as no-ops.
func EnsureIndexes(ctx context.Context, db *DB) error {
	rooms := db.Database.Collection("rooms")
	_, err := rooms.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "member_ids", Value: 1}, {Key: "last_message_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "direct_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"direct_key": bson.M{"$type": "string"}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create room indexes: %w", err)
	}

	messages := db.Database.Collection("messages")
	_, err = messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}}},
		// Serves the unread-count query without scanning receipts.
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "read_receipts.user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}

	calls := db.Database.Collection("calls")
	_, err = calls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "caller_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create call indexes: %w", err)
	}

	return nil
}
