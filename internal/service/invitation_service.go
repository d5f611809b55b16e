package service

import (
	"Parlor/internal/api/config"
	"Parlor/internal/model"
	"Parlor/internal/pkg/consts"
	"Parlor/internal/repository"
	"context"
	log "log/slog"
	"time"
)

const (
	InvitationAccept  = "accept"
	InvitationDecline = "decline"
	InvitationCancel  = "cancel"
)

type InvitationService interface {
	InviteUser(ctx context.Context, roomID, inviterID, inviteeID string) (*model.RoomInvitation, error)
	RespondToInvitation(ctx context.Context, invitationID, userID, action string) (*model.RoomInvitation, error)
	ListPendingInvitations(ctx context.Context, userID string, page repository.Page) ([]*model.RoomInvitation, error)
	ExpireOverdueInvitations(ctx context.Context) (int64, error)
}

type invitationServiceImpl struct {
	invitationRepo repository.InvitationRepo
	roomRepo       repository.RoomRepo
	memberRepo     repository.RoomMemberRepo
	userRepo       repository.UserRepo
	notifier       Notifier
	now            func() time.Time
}

func NewInvitationService(invitationRepo repository.InvitationRepo, roomRepo repository.RoomRepo, memberRepo repository.RoomMemberRepo,
	userRepo repository.UserRepo, notifier Notifier) InvitationService {
	return &invitationServiceImpl{
		invitationRepo: invitationRepo,
		roomRepo:       roomRepo,
		memberRepo:     memberRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

func invitationTTL() time.Duration {
	hours := config.Cfg.Chat.InvitationTTLHours
	if hours <= 0 {
		hours = 168
	}
	return time.Duration(hours) * time.Hour
}

// InviteUser 已取消、拒绝或过期的邀请会被重新打开
func (s *invitationServiceImpl) InviteUser(ctx context.Context, roomID, inviterID, inviteeID string) (*model.RoomInvitation, error) {
	if inviteeID == "" || inviterID == inviteeID {
		return nil, ErrParamInvalid
	}
	room, err := s.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.IsDeactivated {
		return nil, ErrRoomDeactivated
	}
	if room.Type == model.RoomTypeDirectMessage {
		return nil, ErrRoomTypeInvalid
	}

	invitee, err := s.userRepo.GetUserByID(ctx, inviteeID)
	if err != nil {
		return nil, err
	}
	if invitee == nil || invitee.Status == model.UserStatusDeleted {
		return nil, ErrUserDoesNotExist
	}

	inviter, err := activeMember(ctx, s.memberRepo, roomID, inviterID)
	if err != nil {
		return nil, err
	}
	if !inviter.IsAdmin && !room.AllowNonAdminInvitations {
		return nil, ErrUserNotAnAdmin
	}

	member, err := s.memberRepo.GetMember(ctx, roomID, inviteeID)
	if err != nil {
		return nil, err
	}
	if member != nil && !member.LeftRoom {
		return nil, ErrAlreadyMember
	}

	now := s.now()
	expiresAt := now.Add(invitationTTL())

	existing, err := s.invitationRepo.GetByRoomAndInvitee(ctx, roomID, inviteeID)
	if err != nil {
		return nil, err
	}
	var inv *model.RoomInvitation
	switch {
	case existing == nil:
		inv = &model.RoomInvitation{
			RoomID:    roomID,
			InviterID: inviterID,
			InviteeID: inviteeID,
			Status:    model.InvitationPending,
			ExpiresAt: expiresAt,
		}
		if err = s.invitationRepo.CreateInvitation(ctx, inv); err != nil {
			if repository.IsDuplicateKey(err) {
				return nil, ErrInvitationExist
			}
			return nil, err
		}
	case existing.Status == model.InvitationPending && !existing.Expired(now):
		return nil, ErrInvitationExist
	default:
		inv, err = s.invitationRepo.UpdateInvitation(ctx, existing.ID, repository.Filter{
			"inviter_id": inviterID,
			"status":     model.InvitationPending,
			"expires_at": expiresAt,
		})
		if err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		if err = s.notifier.Notify(ctx, inviteeID, consts.EventRoomInvitation, inv); err != nil {
			log.WarnContext(ctx, "推送入群邀请失败", "invitation_id", inv.ID, "err", err)
		}
	}
	return inv, nil
}

// RespondToInvitation 受邀者可接受或拒绝，邀请者或房间管理员可取消
func (s *invitationServiceImpl) RespondToInvitation(ctx context.Context, invitationID, userID, action string) (*model.RoomInvitation, error) {
	inv, err := s.invitationRepo.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}

	switch action {
	case InvitationAccept, InvitationDecline:
		if inv.InviteeID != userID {
			return nil, ErrInvitationNotFound
		}
	case InvitationCancel:
		if inv.InviterID != userID {
			member, err := s.memberRepo.GetMember(ctx, inv.RoomID, userID)
			if err != nil {
				return nil, err
			}
			if member == nil || member.LeftRoom || !member.IsAdmin {
				return nil, ErrUserNotAnAdmin
			}
		}
	default:
		return nil, ErrParamInvalid
	}

	if inv.Status != model.InvitationPending {
		return nil, ErrInvitationHandled
	}
	if inv.Expired(s.now()) {
		if _, err = s.invitationRepo.UpdateInvitation(ctx, inv.ID, repository.Filter{"status": model.InvitationExpired}); err != nil {
			return nil, err
		}
		return nil, ErrInvitationExpired
	}

	switch action {
	case InvitationAccept:
		room, err := s.roomRepo.GetRoomByID(ctx, inv.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, ErrRoomNotFound
		}
		if room.IsDeactivated {
			return nil, ErrRoomDeactivated
		}
		accepted, _, err := s.invitationRepo.AcceptInvitation(ctx, inv, room.Type)
		if err != nil {
			return nil, err
		}
		if accepted == nil {
			return nil, ErrInvitationHandled
		}
		return accepted, nil
	case InvitationDecline:
		return s.transition(ctx, inv, model.InvitationDeclined)
	default:
		return s.transition(ctx, inv, model.InvitationCancelled)
	}
}

func (s *invitationServiceImpl) ListPendingInvitations(ctx context.Context, userID string, page repository.Page) ([]*model.RoomInvitation, error) {
	return s.invitationRepo.ListPending(ctx, userID, s.now(), page)
}

func (s *invitationServiceImpl) ExpireOverdueInvitations(ctx context.Context) (int64, error) {
	return s.invitationRepo.ExpireOverdue(ctx, s.now())
}

// transition 修改邀请状态
func (s *invitationServiceImpl) transition(ctx context.Context, inv *model.RoomInvitation, status string) (*model.RoomInvitation, error) {
	updated, err := s.invitationRepo.UpdateInvitation(ctx, inv.ID, repository.Filter{"status": status})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrInvitationNotFound
	}
	return updated, nil
}
