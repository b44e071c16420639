package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectRoomKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DirectRoomKey("alice", "bob"), DirectRoomKey("bob", "alice"))
	assert.Equal(t, "alice:bob", DirectRoomKey("bob", "alice"))
}

func TestRoomMembership(t *testing.T) {
	t.Parallel()
	room := &Room{
		MemberIDs: []string{"alice", "bob"},
		AdminIDs:  []string{"alice"},
	}
	assert.True(t, room.IsMember("bob"))
	assert.False(t, room.IsMember("carol"))
	assert.True(t, room.IsAdmin("alice"))
	assert.False(t, room.IsAdmin("bob"))
}

func TestCallStatusTerminal(t *testing.T) {
	t.Parallel()
	for _, status := range ActiveCallStatuses {
		assert.False(t, status.Terminal(), string(status))
	}
	for _, status := range []CallStatus{CallStatusRejected, CallStatusEnded, CallStatusMissed, CallStatusBusy, CallStatusFailed} {
		assert.True(t, status.Terminal(), string(status))
	}
}

func TestCallParticipants(t *testing.T) {
	t.Parallel()
	call := &CallSession{CallerID: "alice", ReceiverID: "bob"}
	assert.True(t, call.IsParticipant("alice"))
	assert.False(t, call.IsParticipant("carol"))
	assert.Equal(t, "bob", call.OtherParticipant("alice"))
	assert.Equal(t, "alice", call.OtherParticipant("bob"))
}

func TestEventPartitionKey(t *testing.T) {
	t.Parallel()

	msg := NewMessageEvent(EventMessageSent, "alice", MessageEventData{RoomID: "r1", MessageID: "m1"})
	assert.Equal(t, "r1", msg.PartitionKey())

	room := NewRoomEvent(EventRoomCreated, "alice", RoomEventData{RoomID: "r2"})
	assert.Equal(t, "r2", room.PartitionKey())

	call := NewCallEvent(EventCallInitiated, "alice", CallEventData{CallID: "c1"})
	assert.Equal(t, "c1", call.PartitionKey())

	presence := NewPresenceEvent("alice", PresenceEventData{Online: true})
	assert.Equal(t, "alice", presence.PartitionKey())
}

func TestMessageHelpers(t *testing.T) {
	t.Parallel()
	msg := &Message{
		SenderID:     "alice",
		Reactions:    []Reaction{{UserID: "bob", Emoji: "👍"}},
		ReadReceipts: []ReadReceipt{{UserID: "bob"}},
	}
	assert.True(t, msg.HasReaction("bob", "👍"))
	assert.False(t, msg.HasReaction("bob", "🎉"))
	assert.True(t, msg.IsReadBy("bob"))
	assert.False(t, msg.IsReadBy("carol"))
}
