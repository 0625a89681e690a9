package models

import "time"

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Message is one direct message between two users.
type Message struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	ConversationKey string        `gorm:"size:64;not null;index:idx_conversation_created,priority:1" json:"conversationKey"`
	SenderID        uint          `gorm:"not null" json:"senderId"`
	ReceiverID      uint          `gorm:"not null" json:"receiverId"`
	Text            string        `gorm:"not null" json:"text"`
	Status          MessageStatus `gorm:"size:20;not null;default:'sent'" json:"status"`
	CreatedAt       time.Time     `gorm:"index:idx_conversation_created,priority:2" json:"createdAt"`
}
