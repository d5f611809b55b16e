package dto

import "time"

// SendDirectMessageDTO 发送私信
type SendDirectMessageDTO struct {
	RecipientID     string  `json:"recipient_id" binding:"required"`
	Content         string  `json:"content" validate:"max=4000"`
	ParentMessageID *string `json:"parent_message_id,omitempty"`
	MediaURL        *string `json:"media_url,omitempty" validate:"omitempty,url"`
	MediaType       string  `json:"media_type,omitempty" validate:"omitempty,oneof=text image video file"`
}

// DirectMessageDTO 私信
type DirectMessageDTO struct {
	ID              string     `json:"id"`
	ConversationID  string     `json:"conversation_id"`
	SenderID        string     `json:"sender_id"`
	RecipientID     string     `json:"recipient_id"`
	ParentMessageID *string    `json:"parent_message_id,omitempty"`
	Status          string     `json:"status"`
	Content         string     `json:"content"`
	MediaURL        *string    `json:"media_url,omitempty"`
	MediaType       string     `json:"media_type"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
	IsEdited        bool       `json:"is_edited"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ConversationDTO 会话列表项
type ConversationDTO struct {
	ConversationID     string            `json:"conversation_id"`
	Peer               UserBriefDTO      `json:"peer"`
	UnreadMessageCount int64             `json:"unread_message_count"`
	LastMessage        *DirectMessageDTO `json:"last_message,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ConversationPageDTO 会话分页
type ConversationPageDTO struct {
	Items      []*ConversationDTO `json:"items"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"total_pages"`
}

// ReadReceiptDTO 已读回执推送
type ReadReceiptDTO struct {
	ConversationID string    `json:"conversation_id"`
	ReaderID       string    `json:"reader_id"`
	MessageID      string    `json:"message_id,omitempty"`
	ReadAt         time.Time `json:"read_at"`
}

// PushEvent 推送给客户端的实时事件
type PushEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
