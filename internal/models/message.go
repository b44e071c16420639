package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeVideo  MessageType = "video"
	MessageTypeAudio  MessageType = "audio"
	MessageTypeSystem MessageType = "system"
)

// DeletedContent replaces the content of soft-deleted messages.
const DeletedContent = "[deleted]"

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID    primitive.ObjectID `bson:"room_id" json:"room_id" validate:"required"`
	SenderID  string             `bson:"sender_id" json:"sender_id" validate:"required"`
	Content   string             `bson:"content" json:"content"`
	Type      MessageType        `bson:"type" json:"type"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	EditedAt  *time.Time         `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsEdited  bool               `bson:"is_edited" json:"is_edited"`
	IsDeleted bool               `bson:"is_deleted" json:"is_deleted"`
	// Weak reference: the target may itself be deleted.
	ReplyToMessageID *primitive.ObjectID `bson:"reply_to_message_id,omitempty" json:"reply_to_message_id,omitempty"`
	Reactions        []Reaction          `bson:"reactions" json:"reactions"`
	ReadReceipts     []ReadReceipt       `bson:"read_receipts" json:"read_receipts"`
	MediaMetadata    *MediaMetadata      `bson:"media_metadata,omitempty" json:"media_metadata,omitempty"`
}

type Reaction struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ReadReceipt struct {
	UserID string    `bson:"user_id" json:"user_id"`
	ReadAt time.Time `bson:"read_at" json:"read_at"`
}

type MediaMetadata struct {
	FileName     string `bson:"file_name" json:"file_name"`
	FileURL      string `bson:"file_url" json:"file_url"`
	FileType     string `bson:"file_type" json:"file_type"`
	FileSize     int64  `bson:"file_size" json:"file_size"`
	Width        int    `bson:"width,omitempty" json:"width,omitempty"`
	Height       int    `bson:"height,omitempty" json:"height,omitempty"`
	Duration     int    `bson:"duration,omitempty" json:"duration,omitempty"`
	ThumbnailURL string `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
}

// DeliveryStatus is derived, never stored: a message is "sent" once persisted,
// "delivered" once fanned out, and "read" per user via ReadReceipts.
type DeliveryStatus string

const (
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
)

func (m *Message) HasReaction(userID, emoji string) bool {
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}

func (m *Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadReceipts {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
