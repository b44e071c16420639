package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusRinging   CallStatus = "ringing"
	CallStatusAccepted  CallStatus = "accepted"
	CallStatusRejected  CallStatus = "rejected"
	CallStatusEnded     CallStatus = "ended"
	CallStatusMissed    CallStatus = "missed"
	CallStatusBusy      CallStatus = "busy"
	CallStatusFailed    CallStatus = "failed"
)

// ActiveCallStatuses are the non-terminal statuses; a user with a session in
// one of these counts as in a call.
var ActiveCallStatuses = []CallStatus{
	CallStatusInitiated,
	CallStatusRinging,
	CallStatusAccepted,
}

func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusRejected, CallStatusEnded, CallStatusMissed, CallStatusBusy, CallStatusFailed:
		return true
	}
	return false
}

type EndReason string

const (
	EndReasonUserEnded EndReason = "user_ended"
	EndReasonRejected  EndReason = "rejected"
	EndReasonCancelled EndReason = "cancelled"
	EndReasonTimeout   EndReason = "timeout"
)

type CallSession struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CallerID   string              `bson:"caller_id" json:"caller_id" validate:"required"`
	ReceiverID string              `bson:"receiver_id" json:"receiver_id" validate:"required"`
	RoomID     *primitive.ObjectID `bson:"room_id,omitempty" json:"room_id,omitempty"`
	Type       CallType            `bson:"type" json:"type" validate:"required,oneof=audio video"`
	Status     CallStatus          `bson:"status" json:"status"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	StartedAt  *time.Time          `bson:"started_at,omitempty" json:"started_at,omitempty"`
	EndedAt    *time.Time          `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	// Duration in seconds, derived from StartedAt and EndedAt on termination.
	Duration  *int64    `bson:"duration,omitempty" json:"duration,omitempty"`
	EndReason EndReason `bson:"end_reason,omitempty" json:"end_reason,omitempty"`

	// WebRTC payloads are opaque to the backend; last write wins.
	Offer         string         `bson:"offer,omitempty" json:"offer,omitempty"`
	Answer        string         `bson:"answer,omitempty" json:"answer,omitempty"`
	ICECandidates []ICECandidate `bson:"ice_candidates" json:"ice_candidates"`
	Metrics       *CallMetrics   `bson:"metrics,omitempty" json:"metrics,omitempty"`
}

type ICECandidate struct {
	UserID        string    `bson:"user_id" json:"user_id"`
	Candidate     string    `bson:"candidate" json:"candidate"`
	SDPMid        string    `bson:"sdp_mid,omitempty" json:"sdp_mid,omitempty"`
	SDPMLineIndex int       `bson:"sdp_mline_index,omitempty" json:"sdp_mline_index,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

type CallMetrics struct {
	AvgBitrate    int    `bson:"avg_bitrate" json:"avg_bitrate"`
	AvgPacketLoss int    `bson:"avg_packet_loss" json:"avg_packet_loss"`
	AvgLatency    int    `bson:"avg_latency" json:"avg_latency"`
	Quality       string `bson:"quality" json:"quality"`
}

func (c *CallSession) IsParticipant(userID string) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

// OtherParticipant returns the participant opposite to userID,
// or empty when userID is not part of the call.
func (c *CallSession) OtherParticipant(userID string) string {
	switch userID {
	case c.CallerID:
		return c.ReceiverID
	case c.ReceiverID:
		return c.CallerID
	}
	return ""
}

type SignalType string

const (
	SignalTypeOffer        SignalType = "offer"
	SignalTypeAnswer       SignalType = "answer"
	SignalTypeICECandidate SignalType = "ice_candidate"
	SignalTypeEnd          SignalType = "end"
	SignalTypeAccept       SignalType = "accept"
	SignalTypeReject       SignalType = "reject"
	SignalTypeBusy         SignalType = "busy"
)

// SignalingMessage is relayed verbatim between call participants.
type SignalingMessage struct {
	CallID   string     `json:"call_id" validate:"required"`
	Type     SignalType `json:"type" validate:"required"`
	SenderID string     `json:"sender_id"`
	Data     string     `json:"data,omitempty"`
	// ICE candidate fields, set when Type is ice_candidate.
	Candidate     string `json:"candidate,omitempty"`
	SDPMid        string `json:"sdp_mid,omitempty"`
	SDPMLineIndex int    `json:"sdp_mline_index,omitempty"`
}
