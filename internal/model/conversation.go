package model

// DirectConversation 两个用户之间的私聊会话
// SenderID 总是两者中较小的 id，(sender_id, recipient_id) 唯一
type DirectConversation struct {
	Base
	SenderID             string `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"sender_id"`
	RecipientID          string `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair,priority:2;index" json:"recipient_id"`
	IsDeletedBySender    bool   `gorm:"not null" json:"-"`
	IsDeletedByRecipient bool   `gorm:"not null" json:"-"`
}

var directConversationFields = NewFields("sender_id", "recipient_id", "is_deleted_by_sender", "is_deleted_by_recipient")

func (DirectConversation) TableName() string {
	return "direct_conversations"
}

func (DirectConversation) Fields() Fields {
	return directConversationFields
}

// CanonicalPair 返回有序的参与者对
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *DirectConversation) HasParticipant(userID string) bool {
	return c.SenderID == userID || c.RecipientID == userID
}

func (c *DirectConversation) Peer(userID string) string {
	if c.SenderID == userID {
		return c.RecipientID
	}
	return c.SenderID
}

// DeletedFor 会话在该用户一侧是否已删除
func (c *DirectConversation) DeletedFor(userID string) bool {
	if c.SenderID == userID {
		return c.IsDeletedBySender
	}
	return c.IsDeletedByRecipient
}

// SideColumn 该用户一侧的删除标记列名
func (c *DirectConversation) SideColumn(userID string) string {
	if c.SenderID == userID {
		return "is_deleted_by_sender"
	}
	return "is_deleted_by_recipient"
}
