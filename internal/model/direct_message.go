package model

import "time"

const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
)

type DirectMessage struct {
	Base
	ConversationID        string     `gorm:"size:36;not null;index:idx_dm_conversation,priority:1" json:"conversation_id"`
	SenderID              string     `gorm:"size:36;not null;index" json:"sender_id"`
	RecipientID           string     `gorm:"size:36;not null;index:idx_dm_unread,priority:1" json:"recipient_id"`
	ParentMessageID       *string    `gorm:"size:36" json:"parent_message_id"`
	Status                string     `gorm:"size:16;not null" json:"status"`
	Content               string     `gorm:"type:text" json:"content"`
	MediaURL              *string    `gorm:"size:512" json:"media_url"`
	MediaType             string     `gorm:"size:16;not null" json:"media_type"`
	ReadAt                *time.Time `gorm:"index:idx_dm_unread,priority:2" json:"read_at"`
	IsDeletedForSender    bool       `gorm:"not null" json:"-"`
	IsDeletedForRecipient bool       `gorm:"not null" json:"-"`
	IsEdited              bool       `gorm:"not null" json:"is_edited"`

	Conversation *DirectConversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

var directMessageFields = NewFields("conversation_id", "sender_id", "recipient_id", "parent_message_id",
	"status", "content", "media_url", "media_type", "read_at", "is_deleted_for_sender",
	"is_deleted_for_recipient", "is_edited")

func (DirectMessage) TableName() string {
	return "direct_messages"
}

func (DirectMessage) Fields() Fields {
	return directMessageFields
}

func (m *DirectMessage) HasParticipant(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// VisibleTo 消息在该用户一侧是否仍可见
func (m *DirectMessage) VisibleTo(userID string) bool {
	switch userID {
	case m.SenderID:
		return !m.IsDeletedForSender
	case m.RecipientID:
		return !m.IsDeletedForRecipient
	}
	return false
}

// SideColumn 该用户一侧的删除标记列名
func (m *DirectMessage) SideColumn(userID string) string {
	if m.SenderID == userID {
		return "is_deleted_for_sender"
	}
	return "is_deleted_for_recipient"
}
