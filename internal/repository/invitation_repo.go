package repository

import (
	"Parlor/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type InvitationRepo interface {
	GetInvitation(ctx context.Context, id string) (*model.RoomInvitation, error)
	GetByRoomAndInvitee(ctx context.Context, roomID, inviteeID string) (*model.RoomInvitation, error)
	CreateInvitation(ctx context.Context, inv *model.RoomInvitation) error
	UpdateInvitation(ctx context.Context, id string, patch Filter) (*model.RoomInvitation, error)
	AcceptInvitation(ctx context.Context, inv *model.RoomInvitation, roomType string) (*model.RoomInvitation, *model.RoomMember, error)
	ListPending(ctx context.Context, inviteeID string, now time.Time, page Page) ([]*model.RoomInvitation, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type invitationRepoImpl struct {
	db          *gorm.DB
	invitations *Record[model.RoomInvitation]
}

func NewInvitationRepo(db *gorm.DB) InvitationRepo {
	return &invitationRepoImpl{db: db, invitations: NewRecord[model.RoomInvitation](db)}
}

func (s *invitationRepoImpl) GetInvitation(ctx context.Context, id string) (*model.RoomInvitation, error) {
	if id == "" {
		return nil, nil
	}
	return s.invitations.Fetch(ctx, Filter{"id": id})
}

func (s *invitationRepoImpl) GetByRoomAndInvitee(ctx context.Context, roomID, inviteeID string) (*model.RoomInvitation, error) {
	return s.invitations.Fetch(ctx, Filter{"room_id": roomID, "invitee_id": inviteeID})
}

func (s *invitationRepoImpl) CreateInvitation(ctx context.Context, inv *model.RoomInvitation) error {
	return s.invitations.Create(ctx, inv)
}

func (s *invitationRepoImpl) UpdateInvitation(ctx context.Context, id string, patch Filter) (*model.RoomInvitation, error) {
	return s.invitations.Update(ctx, Filter{"id": id}, patch)
}

// AcceptInvitation 更新邀请状态并写入（或恢复）成员关系
func (s *invitationRepoImpl) AcceptInvitation(ctx context.Context, inv *model.RoomInvitation, roomType string) (*model.RoomInvitation, *model.RoomMember, error) {
	var (
		accepted *model.RoomInvitation
		member   *model.RoomMember
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		accepted, err = s.invitations.WithTx(tx).Update(ctx,
			Filter{"id": inv.ID, "status": model.InvitationPending},
			Filter{"status": model.InvitationAccepted})
		if err != nil || accepted == nil {
			return err
		}

		members := NewRecord[model.RoomMember](tx)
		existing, err := members.Fetch(ctx, Filter{"room_id": inv.RoomID, "user_id": inv.InviteeID})
		if err != nil {
			return err
		}
		invitedAt := inv.CreatedAt
		if existing != nil {
			member, err = members.Update(ctx, Filter{"id": existing.ID}, Filter{
				"left_room":  false,
				"room_type":  roomType,
				"invited_at": invitedAt,
			})
			return err
		}

		member = &model.RoomMember{
			RoomID:    inv.RoomID,
			UserID:    inv.InviteeID,
			RoomType:  roomType,
			InvitedAt: &invitedAt,
		}
		return members.Create(ctx, member)
	})
	if err != nil {
		return nil, nil, err
	}
	return accepted, member, nil
}

// ListPending 发给该用户且尚未过期的邀请
func (s *invitationRepoImpl) ListPending(ctx context.Context, inviteeID string, now time.Time, page Page) ([]*model.RoomInvitation, error) {
	invitations := make([]*model.RoomInvitation, 0)
	q := s.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ? AND expires_at > ?", inviteeID, model.InvitationPending, now).
		Order("created_at DESC").
		Order("id DESC")
	if err := page.Scope(q).Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// ExpireOverdue 将已过期的待处理邀请标记为 expired
func (s *invitationRepoImpl) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.RoomInvitation{}).
		Where("status = ? AND expires_at <= ?", model.InvitationPending, now).
		Update("status", model.InvitationExpired)
	return result.RowsAffected, result.Error
}
