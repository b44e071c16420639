package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomType string

const (
	RoomTypeDirect  RoomType = "direct"
	RoomTypeGroup   RoomType = "group"
	RoomTypeChannel RoomType = "channel"
)

type Room struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        RoomType           `bson:"type" json:"type" validate:"required,oneof=direct group channel"`
	CreatedBy   string             `bson:"created_by" json:"created_by"`
	MemberIDs   []string           `bson:"member_ids" json:"member_ids"`
	AdminIDs    []string           `bson:"admin_ids" json:"admin_ids"`
	// DirectKey identifies a direct room by its unordered user pair.
	// Empty for group and channel rooms.
	DirectKey     string       `bson:"direct_key,omitempty" json:"-"`
	Settings      RoomSettings `bson:"settings" json:"settings"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `bson:"updated_at" json:"updated_at"`
	LastMessageAt *time.Time   `bson:"last_message_at" json:"last_message_at"`
	IsActive      bool         `bson:"is_active" json:"is_active"`
}

type RoomSettings struct {
	MaxMembers       int  `bson:"max_members" json:"max_members"`
	AllowInvites     bool `bson:"allow_invites" json:"allow_invites"`
	AllowFileSharing bool `bson:"allow_file_sharing" json:"allow_file_sharing"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MaxMembers:       100,
		AllowInvites:     true,
		AllowFileSharing: true,
	}
}

// DirectRoomKey builds the identity of a direct room from its unordered user pair.
func DirectRoomKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

func (r *Room) IsMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (r *Room) IsAdmin(userID string) bool {
	for _, id := range r.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
