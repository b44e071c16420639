package models

import "time"

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
)

// Presence is ephemeral state: it lives in the cache with a TTL and is never
// authoritative.
type Presence struct {
	UserID   string         `json:"user_id"`
	Online   bool           `json:"online"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"last_seen"`
}

// TypingIndicator is ephemeral per (room, user) state; a stale indicator left
// behind by an ungraceful disconnect expires on its own.
type TypingIndicator struct {
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	IsTyping  bool      `json:"is_typing"`
	UpdatedAt time.Time `json:"updated_at"`
}
