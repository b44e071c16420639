package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/internal/repo/kafka"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
)

type CallUseCase struct {
	callRepo    mongodb.CallRepository
	publisher   kafka.EventPublisher
	broadcaster Broadcaster
	cfg         config.CallConfig
}

func NewCallUseCase(
	callRepo mongodb.CallRepository,
	publisher kafka.EventPublisher,
	broadcaster Broadcaster,
	cfg *config.Config,
) *CallUseCase {
	return &CallUseCase{
		callRepo:    callRepo,
		publisher:   publisher,
		broadcaster: broadcaster,
		cfg:         cfg.Call,
	}
}

// InitiateCallParams contains parameters for starting a call
type InitiateCallParams struct {
	CallerID   string              `json:"-"`
	ReceiverID string              `json:"receiver_id" validate:"required"`
	RoomID     *primitive.ObjectID `json:"room_id,omitempty"`
	Type       models.CallType     `json:"type" validate:"required,oneof=audio video"`
	Offer      string              `json:"offer,omitempty"`
}

func (uc *CallUseCase) InitiateCall(ctx context.Context, params InitiateCallParams) (*models.CallSession, error) {
	if params.CallerID == params.ReceiverID {
		return nil, models.ErrInvalidOperation
	}

	for _, userID := range []string{params.ReceiverID, params.CallerID} {
		busy, err := uc.callRepo.HasActiveCall(ctx, userID)
		if err != nil {
			return nil, err
		}
		if busy {
			return nil, models.ErrBusy
		}
	}

	call := &models.CallSession{
		CallerID:      params.CallerID,
		ReceiverID:    params.ReceiverID,
		RoomID:        params.RoomID,
		Type:          params.Type,
		Status:        models.CallStatusInitiated,
		Offer:         params.Offer,
		ICECandidates: []models.ICECandidate{},
	}
	if err := uc.callRepo.Create(ctx, call); err != nil {
		return nil, err
	}

	uc.publishCallEvent(ctx, models.EventCallInitiated, params.CallerID, call)
	uc.broadcaster.BroadcastToUser(params.ReceiverID, EventNameIncoming, call)

	return call, nil
}

func (uc *CallUseCase) GetCall(ctx context.Context, callID primitive.ObjectID, userID string) (*models.CallSession, error) {
	call, err := uc.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.IsParticipant(userID) {
		return nil, models.ErrForbidden
	}
	return call, nil
}

func (uc *CallUseCase) AcceptCall(ctx context.Context, callID primitive.ObjectID, userID string) (*models.CallSession, error) {
	call, err := uc.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if userID != call.ReceiverID {
		return nil, models.ErrForbidden
	}

	now := time.Now()
	updated, err := uc.callRepo.Transition(ctx, callID,
		[]models.CallStatus{models.CallStatusInitiated, models.CallStatusRinging},
		bson.M{
			"status":     models.CallStatusAccepted,
			"started_at": now,
		})
	if err != nil {
		return nil, err
	}

	uc.publishCallEvent(ctx, models.EventCallAccepted, userID, updated)
	uc.broadcaster.BroadcastToUser(updated.CallerID, EventNameCallStatus, updated)

	return updated, nil
}

func (uc *CallUseCase) RejectCall(ctx context.Context, callID primitive.ObjectID, userID string) (*models.CallSession, error) {
	call, err := uc.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if userID != call.ReceiverID {
		return nil, models.ErrForbidden
	}

	now := time.Now()
	updated, err := uc.callRepo.Transition(ctx, callID,
		[]models.CallStatus{models.CallStatusInitiated, models.CallStatusRinging},
		bson.M{
			"status":     models.CallStatusRejected,
			"ended_at":   now,
			"end_reason": models.EndReasonRejected,
		})
	if err != nil {
		return nil, err
	}

	uc.publishCallEvent(ctx, models.EventCallRejected, userID, updated)
	uc.broadcaster.BroadcastToUser(updated.CallerID, EventNameCallStatus, updated)

	return updated, nil
}

// EndCall terminates the session. An accepted call ends normally with a
// duration. A call the caller abandons before acceptance goes to missed, and
// a receiver hanging up before acceptance counts as a rejection.
func (uc *CallUseCase) EndCall(ctx context.Context, callID primitive.ObjectID, userID string) (*models.CallSession, error) {
	call, err := uc.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.IsParticipant(userID) {
		return nil, models.ErrForbidden
	}

	now := time.Now()

	if call.Status == models.CallStatusAccepted {
		set := bson.M{
			"status":     models.CallStatusEnded,
			"ended_at":   now,
			"end_reason": models.EndReasonUserEnded,
		}
		if call.StartedAt != nil {
			set["duration"] = int64(now.Sub(*call.StartedAt).Seconds())
		}
		updated, err := uc.callRepo.Transition(ctx, callID,
			[]models.CallStatus{models.CallStatusAccepted}, set)
		if err != nil {
			return nil, err
		}
		uc.publishCallEvent(ctx, models.EventCallEnded, userID, updated)
		uc.broadcaster.BroadcastToUser(updated.OtherParticipant(userID), EventNameCallStatus, updated)
		return updated, nil
	}

	// Not yet accepted: classify by which side walked away.
	var (
		status    = models.CallStatusMissed
		reason    = models.EndReasonCancelled
		eventType = models.EventCallMissed
	)
	if userID == call.ReceiverID {
		status = models.CallStatusRejected
		reason = models.EndReasonRejected
		eventType = models.EventCallRejected
	}

	updated, err := uc.callRepo.Transition(ctx, callID,
		[]models.CallStatus{models.CallStatusInitiated, models.CallStatusRinging},
		bson.M{
			"status":     status,
			"ended_at":   now,
			"end_reason": reason,
		})
	if err != nil {
		return nil, err
	}

	uc.publishCallEvent(ctx, eventType, userID, updated)
	uc.broadcaster.BroadcastToUser(updated.OtherParticipant(userID), EventNameCallStatus, updated)

	return updated, nil
}

// HandleSignal relays a signaling payload to the other participant.
// Signals from non-participants are dropped without error so probing for
// session existence learns nothing.
func (uc *CallUseCase) HandleSignal(ctx context.Context, senderID string, signal models.SignalingMessage) error {
	callID, err := primitive.ObjectIDFromHex(signal.CallID)
	if err != nil {
		return models.ErrInvalidOperation
	}

	call, err := uc.callRepo.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if !call.IsParticipant(senderID) {
		log.Debugw(ctx, "Dropping signal from non-participant",
			"call_id", signal.CallID,
			"sender_id", senderID,
		)
		return nil
	}
	if call.Status.Terminal() {
		return models.ErrInvalidState
	}

	signal.SenderID = senderID

	switch signal.Type {
	case models.SignalTypeOffer:
		// The first offer reaching the receiver moves the session to ringing.
		if _, err := uc.callRepo.Transition(ctx, callID,
			[]models.CallStatus{models.CallStatusInitiated},
			bson.M{"status": models.CallStatusRinging},
		); err != nil && !errors.Is(err, models.ErrInvalidState) {
			log.Warnw(ctx, "Failed to mark call ringing", "error", err, "call_id", signal.CallID)
		}
	case models.SignalTypeAnswer:
		if err := uc.callRepo.SetAnswer(ctx, callID, signal.Data); err != nil {
			log.Warnw(ctx, "Failed to store answer", "error", err, "call_id", signal.CallID)
		}
	case models.SignalTypeICECandidate:
		candidate := models.ICECandidate{
			UserID:        senderID,
			Candidate:     signal.Candidate,
			SDPMid:        signal.SDPMid,
			SDPMLineIndex: signal.SDPMLineIndex,
			CreatedAt:     time.Now(),
		}
		if err := uc.callRepo.AppendICECandidate(ctx, callID, candidate); err != nil {
			log.Warnw(ctx, "Failed to record ice candidate", "error", err, "call_id", signal.CallID)
		}
	}

	uc.broadcaster.BroadcastToUser(call.OtherParticipant(senderID), EventNameCallSignal, signal)
	return nil
}

func (uc *CallUseCase) ActiveCalls(ctx context.Context, userID string) ([]*models.CallSession, error) {
	return uc.callRepo.ListActiveByParticipant(ctx, userID)
}

func (uc *CallUseCase) CallHistory(ctx context.Context, userID string, limit, skip int64) ([]*models.CallSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.callRepo.ListByParticipant(ctx, userID, limit, skip)
}

// ExpireStaleCalls times out sessions that rang past the ring timeout.
// Each expiry runs through the same guarded transition as user actions, so
// a session answered mid-sweep is left untouched.
func (uc *CallUseCase) ExpireStaleCalls(ctx context.Context) error {
	cutoff := time.Now().Add(-uc.cfg.RingTimeout)
	stale, err := uc.callRepo.ListExpired(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, call := range stale {
		now := time.Now()
		updated, err := uc.callRepo.Transition(ctx, call.ID,
			[]models.CallStatus{models.CallStatusInitiated, models.CallStatusRinging},
			bson.M{
				"status":     models.CallStatusMissed,
				"ended_at":   now,
				"end_reason": models.EndReasonTimeout,
			})
		if err != nil {
			continue
		}

		log.Infow(ctx, "Call timed out",
			"call_id", call.ID.Hex(),
			"caller_id", call.CallerID,
			"receiver_id", call.ReceiverID,
		)
		uc.publishCallEvent(ctx, models.EventCallMissed, "system", updated)
		uc.broadcaster.BroadcastToUser(updated.CallerID, EventNameCallStatus, updated)
		uc.broadcaster.BroadcastToUser(updated.ReceiverID, EventNameCallStatus, updated)
	}
	return nil
}

func (uc *CallUseCase) publishCallEvent(ctx context.Context, typ models.EventType, actorID string, call *models.CallSession) {
	postProcess(ctx, func(ctx context.Context) {
		event := models.NewCallEvent(typ, actorID, models.CallEventData{
			CallID:     call.ID.Hex(),
			CallerID:   call.CallerID,
			ReceiverID: call.ReceiverID,
			Type:       call.Type,
			Status:     call.Status,
		})
		if err := uc.publisher.Publish(ctx, &event); err != nil {
			log.Warnw(ctx, "Failed to publish call event", "error", err, "type", typ)
		}
	})
}
