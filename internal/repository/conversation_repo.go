package repository

import (
	"Parlor/internal/model"
	"context"

	"gorm.io/gorm"
)

type ConversationRepo interface {
	GetConversation(ctx context.Context, id string) (*model.DirectConversation, error)
	GetConversationByPair(ctx context.Context, userA, userB string) (*model.DirectConversation, error)
	CreateConversation(ctx context.Context, conv *model.DirectConversation) error
	ListConversations(ctx context.Context, userID string, page Page) ([]*model.DirectConversation, int64, error)
	CountUnread(ctx context.Context, userID string, convIDs []string) (map[string]int64, error)
	GetLastMessages(ctx context.Context, userID string, convIDs []string) (map[string]*model.DirectMessage, error)
	HideConversation(ctx context.Context, conv *model.DirectConversation, userID string) error
}

type conversationRepoImpl struct {
	db            *gorm.DB
	conversations *Record[model.DirectConversation]
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db, conversations: NewRecord[model.DirectConversation](db)}
}

func (s *conversationRepoImpl) GetConversation(ctx context.Context, id string) (*model.DirectConversation, error) {
	if id == "" {
		return nil, nil
	}
	return s.conversations.Fetch(ctx, Filter{"id": id})
}

// GetConversationByPair 参与者顺序无关
func (s *conversationRepoImpl) GetConversationByPair(ctx context.Context, userA, userB string) (*model.DirectConversation, error) {
	low, high := model.CanonicalPair(userA, userB)
	return s.conversations.Fetch(ctx, Filter{"sender_id": low, "recipient_id": high})
}

// CreateConversation 唯一索引冲突时返回 gorm.ErrDuplicatedKey
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.DirectConversation) error {
	conv.SenderID, conv.RecipientID = model.CanonicalPair(conv.SenderID, conv.RecipientID)
	return s.conversations.Create(ctx, conv)
}

func visibleConversation(db *gorm.DB, userID string) *gorm.DB {
	return db.Where("((sender_id = ? AND is_deleted_by_sender = ?) OR (recipient_id = ? AND is_deleted_by_recipient = ?))",
		userID, false, userID, false)
}

func visibleMessage(db *gorm.DB, alias, userID string) *gorm.DB {
	return db.Where("(("+alias+".sender_id = ? AND "+alias+".is_deleted_for_sender = ?) OR ("+
		alias+".recipient_id = ? AND "+alias+".is_deleted_for_recipient = ?))",
		userID, false, userID, false)
}

// ListConversations 该用户可见的会话，最近活跃在前
func (s *conversationRepoImpl) ListConversations(ctx context.Context, userID string, page Page) ([]*model.DirectConversation, int64, error) {
	base := func() *gorm.DB {
		return visibleConversation(s.db.WithContext(ctx).Model(&model.DirectConversation{}), userID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	convs := make([]*model.DirectConversation, 0)
	err := page.Scope(base().Order("updated_at DESC").Order("id DESC")).Find(&convs).Error
	if err != nil {
		return nil, 0, err
	}
	return convs, total, nil
}

// CountUnread 每个会话中发给该用户且未读的消息数
func (s *conversationRepoImpl) CountUnread(ctx context.Context, userID string, convIDs []string) (map[string]int64, error) {
	res := make(map[string]int64, len(convIDs))
	if len(convIDs) == 0 {
		return res, nil
	}

	type unreadRow struct {
		ConversationID string
		Total          int64
	}
	var rows []unreadRow
	err := s.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Select("conversation_id, COUNT(*) AS total").
		Where("conversation_id IN ? AND recipient_id = ? AND read_at IS NULL AND is_deleted_for_recipient = ?",
			convIDs, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res[r.ConversationID] = r.Total
	}
	return res, nil
}

// GetLastMessages 每个会话中该用户可见的最新一条消息
func (s *conversationRepoImpl) GetLastMessages(ctx context.Context, userID string, convIDs []string) (map[string]*model.DirectMessage, error) {
	res := make(map[string]*model.DirectMessage, len(convIDs))
	if len(convIDs) == 0 {
		return res, nil
	}

	latest := visibleMessage(s.db.Table("direct_messages m2").
		Select("MAX(m2.created_at)").
		Where("m2.conversation_id = m.conversation_id"), "m2", userID)

	var rows []*model.DirectMessage
	err := visibleMessage(s.db.WithContext(ctx).Table("direct_messages m").
		Select("m.*").
		Where("m.conversation_id IN ?", convIDs), "m", userID).
		Where("m.created_at = (?)", latest).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, m := range rows {
		cur, ok := res[m.ConversationID]
		if !ok || m.CreatedAt.After(cur.CreatedAt) || (m.CreatedAt.Equal(cur.CreatedAt) && m.ID > cur.ID) {
			res[m.ConversationID] = m
		}
	}
	return res, nil
}

// HideConversation 在该用户一侧隐藏会话及其中全部消息，双方都已删除的消息物理删除
func (s *conversationRepoImpl) HideConversation(ctx context.Context, conv *model.DirectConversation, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 隐藏不算会话活跃，不刷新 updated_at
		err := tx.Model(&model.DirectConversation{}).Where("id = ?", conv.ID).
			UpdateColumn(conv.SideColumn(userID), true).Error
		if err != nil {
			return err
		}

		messages := NewRecord[model.DirectMessage](tx)
		if _, err = messages.UpdateAll(ctx,
			Filter{"conversation_id": conv.ID, "sender_id": userID},
			Filter{"is_deleted_for_sender": true}); err != nil {
			return err
		}
		if _, err = messages.UpdateAll(ctx,
			Filter{"conversation_id": conv.ID, "recipient_id": userID},
			Filter{"is_deleted_for_recipient": true}); err != nil {
			return err
		}
		_, err = messages.Delete(ctx, Filter{
			"conversation_id":          conv.ID,
			"is_deleted_for_sender":    true,
			"is_deleted_for_recipient": true,
		})
		return err
	})
}
