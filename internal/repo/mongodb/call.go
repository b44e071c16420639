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

type CallRepository interface {
	Create(ctx context.Context, call *models.CallSession) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CallSession, error)
	Transition(ctx context.Context, id primitive.ObjectID, from []models.CallStatus, set bson.M) (*models.CallSession, error)
	SetAnswer(ctx context.Context, id primitive.ObjectID, answer string) error
	AppendICECandidate(ctx context.Context, id primitive.ObjectID, candidate models.ICECandidate) error
	ListByParticipant(ctx context.Context, userID string, limit, skip int64) ([]*models.CallSession, error)
	ListActiveByParticipant(ctx context.Context, userID string) ([]*models.CallSession, error)
	HasActiveCall(ctx context.Context, userID string) (bool, error)
	ListExpired(ctx context.Context, olderThan time.Time) ([]*models.CallSession, error)
}

type callRepo struct {
	collection *mongo.Collection
}

func NewCallRepository(db *DB) CallRepository {
	return &callRepo{
		collection: db.Database.Collection("calls"),
	}
}

func (r *callRepo) Create(ctx context.Context, call *models.CallSession) error {
	call.ID = primitive.NewObjectID()
	call.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, call); err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

func (r *callRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CallSession, error) {
	var call models.CallSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&call)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// Transition applies set only when the session currently sits in one of the
// from statuses. Concurrent transitions race on the status filter and exactly
// one wins. A zero-match against an existing session reports ErrInvalidState.
func (r *callRepo) Transition(ctx context.Context, id primitive.ObjectID, from []models.CallStatus, set bson.M) (*models.CallSession, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var call models.CallSession
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&call)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, models.ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition call: %w", err)
	}
	return &call, nil
}

func (r *callRepo) SetAnswer(ctx context.Context, id primitive.ObjectID, answer string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"answer": answer}})
	if err != nil {
		return fmt.Errorf("failed to set answer: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *callRepo) AppendICECandidate(ctx context.Context, id primitive.ObjectID, candidate models.ICECandidate) error {
	update := bson.M{
		"$push": bson.M{"ice_candidates": candidate},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to append ice candidate: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *callRepo) participantFilter(userID string) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"caller_id": userID},
			bson.M{"receiver_id": userID},
		},
	}
}

func (r *callRepo) ListByParticipant(ctx context.Context, userID string, limit, skip int64) ([]*models.CallSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)

	cursor, err := r.collection.Find(ctx, r.participantFilter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer cursor.Close(ctx)

	var calls []*models.CallSession
	if err := cursor.All(ctx, &calls); err != nil {
		return nil, fmt.Errorf("failed to decode calls: %w", err)
	}
	return calls, nil
}

func (r *callRepo) ListActiveByParticipant(ctx context.Context, userID string) ([]*models.CallSession, error) {
	filter := r.participantFilter(userID)
	filter["status"] = bson.M{"$in": models.ActiveCallStatuses}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active calls: %w", err)
	}
	defer cursor.Close(ctx)

	var calls []*models.CallSession
	if err := cursor.All(ctx, &calls); err != nil {
		return nil, fmt.Errorf("failed to decode active calls: %w", err)
	}
	return calls, nil
}

func (r *callRepo) HasActiveCall(ctx context.Context, userID string) (bool, error) {
	filter := r.participantFilter(userID)
	filter["status"] = bson.M{"$in": models.ActiveCallStatuses}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check active call: %w", err)
	}
	return count > 0, nil
}

// ListExpired returns unanswered sessions created before olderThan. The
// expiry sweep walks them and times each out through Transition, so a
// session answered between the read and the write is left alone.
func (r *callRepo) ListExpired(ctx context.Context, olderThan time.Time) ([]*models.CallSession, error) {
	filter := bson.M{
		"status":     bson.M{"$in": []models.CallStatus{models.CallStatusInitiated, models.CallStatusRinging}},
		"created_at": bson.M{"$lt": olderThan},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired calls: %w", err)
	}
	defer cursor.Close(ctx)

	var calls []*models.CallSession
	if err := cursor.All(ctx, &calls); err != nil {
		return nil, fmt.Errorf("failed to decode expired calls: %w", err)
	}
	return calls, nil
}
