package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMessageSent     EventType = "message.sent"
	EventMessageEdited   EventType = "message.edited"
	EventMessageDeleted  EventType = "message.deleted"
	EventReactionAdded   EventType = "message.reaction_added"
	EventReactionRemoved EventType = "message.reaction_removed"
	EventMessageRead     EventType = "message.read"
	EventRoomCreated     EventType = "room.created"
	EventRoomUpdated     EventType = "room.updated"
	EventRoomDeleted     EventType = "room.deleted"
	EventMemberJoined    EventType = "room.member_joined"
	EventMemberLeft      EventType = "room.member_left"
	EventPresenceChanged EventType = "presence.changed"
	EventCallInitiated   EventType = "call.initiated"
	EventCallAccepted    EventType = "call.accepted"
	EventCallRejected    EventType = "call.rejected"
	EventCallEnded       EventType = "call.ended"
	EventCallMissed      EventType = "call.missed"
)

// Event is the record published to the durable event log for asynchronous
// consumers (notifications, analytics). Exactly one variant field is set,
// keyed by Type.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"event_type"`
	Version   int       `json:"version"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`

	Message  *MessageEventData  `json:"message,omitempty"`
	Room     *RoomEventData     `json:"room,omitempty"`
	Call     *CallEventData     `json:"call,omitempty"`
	Presence *PresenceEventData `json:"presence,omitempty"`
}

type MessageEventData struct {
	RoomID    string      `json:"room_id"`
	MessageID string      `json:"message_id"`
	Type      MessageType `json:"message_type,omitempty"`
	Emoji     string      `json:"emoji,omitempty"`
}

type RoomEventData struct {
	RoomID   string   `json:"room_id"`
	Type     RoomType `json:"room_type,omitempty"`
	MemberID string   `json:"member_id,omitempty"`
}

type CallEventData struct {
	CallID     string     `json:"call_id"`
	CallerID   string     `json:"caller_id"`
	ReceiverID string     `json:"receiver_id"`
	Type       CallType   `json:"call_type"`
	Status     CallStatus `json:"status"`
}

type PresenceEventData struct {
	Online bool           `json:"online"`
	Status PresenceStatus `json:"status"`
}

// PartitionKey picks the log partition key so that events about the same
// room, call, or user stay ordered relative to each other.
func (e *Event) PartitionKey() string {
	switch {
	case e.Message != nil:
		return e.Message.RoomID
	case e.Room != nil:
		return e.Room.RoomID
	case e.Call != nil:
		return e.Call.CallID
	default:
		return e.UserID
	}
}

const eventVersion = 1

func newEvent(typ EventType, userID string) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      typ,
		Version:   eventVersion,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func NewMessageEvent(typ EventType, userID string, data MessageEventData) Event {
	ev := newEvent(typ, userID)
	ev.Message = &data
	return ev
}

func NewRoomEvent(typ EventType, userID string, data RoomEventData) Event {
	ev := newEvent(typ, userID)
	ev.Room = &data
	return ev
}

func NewCallEvent(typ EventType, userID string, data CallEventData) Event {
	ev := newEvent(typ, userID)
	ev.Call = &data
	return ev
}

func NewPresenceEvent(userID string, data PresenceEventData) Event {
	ev := newEvent(EventPresenceChanged, userID)
	ev.Presence = &data
	return ev
}
