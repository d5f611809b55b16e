package repository

import (
	"Parlor/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type DirectMessageRepo interface {
	SaveMessage(ctx context.Context, conv *model.DirectConversation, msg *model.DirectMessage) error
	GetMessage(ctx context.Context, id string) (*model.DirectMessage, error)
	ListMessages(ctx context.Context, convID, userID string, page Page) ([]*model.DirectMessage, error)
	UpdateMessage(ctx context.Context, id string, patch Filter) (*model.DirectMessage, error)
	MarkConversationRead(ctx context.Context, convID, userID string, at time.Time) (int64, error)
	HideMessage(ctx context.Context, msg *model.DirectMessage, userID string) (bool, error)
	DeleteMessage(ctx context.Context, id string) (int64, error)
}

type directMessageRepoImpl struct {
	db       *gorm.DB
	messages *Record[model.DirectMessage]
}

func NewDirectMessageRepo(db *gorm.DB) DirectMessageRepo {
	return &directMessageRepoImpl{db: db, messages: NewRecord[model.DirectMessage](db)}
}

// SaveMessage 恢复双方的会话可见性、刷新活跃时间并写入消息，一次提交
func (s *directMessageRepoImpl) SaveMessage(ctx context.Context, conv *model.DirectConversation, msg *model.DirectMessage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.DirectConversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]any{
				"is_deleted_by_sender":    false,
				"is_deleted_by_recipient": false,
				"updated_at":              time.Now(),
			}).Error
		if err != nil {
			return err
		}
		msg.ConversationID = conv.ID
		return s.messages.WithTx(tx).Create(ctx, msg)
	})
}

func (s *directMessageRepoImpl) GetMessage(ctx context.Context, id string) (*model.DirectMessage, error) {
	if id == "" {
		return nil, nil
	}
	return s.messages.Fetch(ctx, Filter{"id": id})
}

// ListMessages 该用户一侧可见的消息，旧消息在前
func (s *directMessageRepoImpl) ListMessages(ctx context.Context, convID, userID string, page Page) ([]*model.DirectMessage, error) {
	msgs := make([]*model.DirectMessage, 0)
	q := visibleMessage(s.db.WithContext(ctx).Table("direct_messages dm").
		Select("dm.*").
		Where("dm.conversation_id = ?", convID), "dm", userID).
		Order("dm.created_at ASC").
		Order("dm.id ASC")
	if err := page.Scope(q).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *directMessageRepoImpl) UpdateMessage(ctx context.Context, id string, patch Filter) (*model.DirectMessage, error) {
	return s.messages.Update(ctx, Filter{"id": id}, patch)
}

// MarkConversationRead 将会话中发给该用户的未读消息全部标记为已读
func (s *directMessageRepoImpl) MarkConversationRead(ctx context.Context, convID, userID string, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", convID, userID).
		Updates(map[string]any{
			"read_at": at,
			"status":  model.MessageStatusDelivered,
		})
	return result.RowsAffected, result.Error
}

// HideMessage 在该用户一侧隐藏消息，双方都删除后物理删除，返回是否已物理删除
func (s *directMessageRepoImpl) HideMessage(ctx context.Context, msg *model.DirectMessage, userID string) (bool, error) {
	purged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		messages := s.messages.WithTx(tx)
		updated, err := messages.Update(ctx, Filter{"id": msg.ID}, Filter{msg.SideColumn(userID): true})
		if err != nil || updated == nil {
			return err
		}
		if updated.IsDeletedForSender && updated.IsDeletedForRecipient {
			if _, err = messages.Delete(ctx, Filter{"id": msg.ID}); err != nil {
				return err
			}
			purged = true
		}
		return nil
	})
	return purged, err
}

func (s *directMessageRepoImpl) DeleteMessage(ctx context.Context, id string) (int64, error) {
	return s.messages.Delete(ctx, Filter{"id": id})
}
