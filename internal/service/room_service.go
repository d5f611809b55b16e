package service

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/pkg/util"
	"Parlor/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/jinzhu/copier"
)

type RoomService interface {
	CreatePublicOrPrivateRoom(ctx context.Context, ownerID string, req *dto.CreateRoomDTO) (*model.Room, *model.RoomMember, error)
	CreateDirectMessageRoom(ctx context.Context, userID1, userID2 string) (*model.Room, *model.RoomMember, *model.RoomMember, error)
	SearchPublicRooms(ctx context.Context, keyword string, page repository.Page) ([]*model.Room, error)
	FetchRoomsUserBelongsTo(ctx context.Context, userID string, page repository.Page) ([]*model.Room, error)
	FetchUserDirectMessageRooms(ctx context.Context, userID string) ([]*dto.DirectRoomDTO, error)
	GetRoom(ctx context.Context, roomID, userID string) (*model.Room, error)
	UpdateRoom(ctx context.Context, roomID, actorID string, req *dto.UpdateRoomDTO) (*model.Room, error)
	DeleteRoom(ctx context.Context, roomID, actorID string) error

	JoinPublicRoom(ctx context.Context, roomID, userID string) (*model.RoomMember, error)
	LeaveRoom(ctx context.Context, roomID, userID string) error
	SetUserAsAdmin(ctx context.Context, roomID, actorID, targetID string) (*model.RoomMember, error)
	IsUserAdmin(ctx context.Context, roomID, userID string) (bool, error)
	ListMembers(ctx context.Context, roomID, requesterID string, page repository.Page) ([]*dto.RoomMemberDTO, error)
}

type roomServiceImpl struct {
	roomRepo   repository.RoomRepo
	memberRepo repository.RoomMemberRepo
	userRepo   repository.UserRepo
	tasks      TaskPublisher
}

func NewRoomService(roomRepo repository.RoomRepo, memberRepo repository.RoomMemberRepo, userRepo repository.UserRepo, tasks TaskPublisher) RoomService {
	return &roomServiceImpl{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		tasks:      tasks,
	}
}

// CreatePublicOrPrivateRoom 房间与房主的管理员身份一起写入
func (s *roomServiceImpl) CreatePublicOrPrivateRoom(ctx context.Context, ownerID string, req *dto.CreateRoomDTO) (*model.Room, *model.RoomMember, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, ErrParamInvalid
	}
	if req.Type != model.RoomTypePublic && req.Type != model.RoomTypePrivate {
		return nil, nil, ErrRoomTypeInvalid
	}

	room := &model.Room{
		OwnerID:                  ownerID,
		Name:                     name,
		Description:              util.TrimmedPtr(req.Description),
		RoomIcon:                 util.TrimmedPtr(req.RoomIcon),
		Type:                     req.Type,
		IsPrivate:                req.Type == model.RoomTypePrivate,
		MessagesDeletable:        true,
		AllowAdminMessagesOnly:   req.AllowAdminMessagesOnly,
		AllowNonAdminInvitations: true,
	}
	if req.MessagesDeletable != nil {
		room.MessagesDeletable = *req.MessagesDeletable
	}
	if req.AllowNonAdminInvitations != nil {
		room.AllowNonAdminInvitations = *req.AllowNonAdminInvitations
	}

	owner := &model.RoomMember{UserID: ownerID, IsAdmin: true}
	if err := s.roomRepo.CreateRoom(ctx, room, owner); err != nil {
		return nil, nil, err
	}
	return room, owner, nil
}

// CreateDirectMessageRoom 两人之间只存在一个私聊房间，双方均为管理员
func (s *roomServiceImpl) CreateDirectMessageRoom(ctx context.Context, userID1, userID2 string) (*model.Room, *model.RoomMember, *model.RoomMember, error) {
	if userID1 == "" || userID2 == "" {
		return nil, nil, nil, ErrParamInvalid
	}
	if userID1 == userID2 {
		return nil, nil, nil, ErrConversationInvalid
	}

	users, err := s.userRepo.GetUsersByIDs(ctx, []string{userID1, userID2})
	if err != nil {
		return nil, nil, nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		if u.Status != model.UserStatusDeleted {
			names[u.ID] = u.Username
		}
	}
	if names[userID1] == "" || names[userID2] == "" {
		return nil, nil, nil, ErrUserDoesNotExist
	}

	existing, err := s.roomRepo.FindDirectMessageRoom(ctx, userID1, userID2)
	if err != nil {
		return nil, nil, nil, err
	}
	if existing != nil {
		m1, err := s.memberRepo.GetMember(ctx, existing.ID, userID1)
		if err != nil {
			return nil, nil, nil, err
		}
		m2, err := s.memberRepo.GetMember(ctx, existing.ID, userID2)
		if err != nil {
			return nil, nil, nil, err
		}
		return existing, m1, m2, nil
	}

	a, b := model.CanonicalPair(userID1, userID2)
	room := &model.Room{
		OwnerID:                  userID1,
		Name:                     fmt.Sprintf("DM-%s-%s", names[a], names[b]),
		Type:                     model.RoomTypeDirectMessage,
		IsPrivate:                true,
		MessagesDeletable:        true,
		AllowNonAdminInvitations: false,
	}
	m1 := &model.RoomMember{UserID: userID1, IsAdmin: true}
	m2 := &model.RoomMember{UserID: userID2, IsAdmin: true}
	if err = s.roomRepo.CreateRoom(ctx, room, m1, m2); err != nil {
		return nil, nil, nil, err
	}
	return room, m1, m2, nil
}

// SearchPublicRooms 只返回公开且未停用的房间
func (s *roomServiceImpl) SearchPublicRooms(ctx context.Context, keyword string, page repository.Page) ([]*model.Room, error) {
	return s.roomRepo.SearchPublicRooms(ctx, keyword, page)
}

func (s *roomServiceImpl) FetchRoomsUserBelongsTo(ctx context.Context, userID string, page repository.Page) ([]*model.Room, error) {
	return s.roomRepo.GetRoomsByMember(ctx, userID, page)
}

func (s *roomServiceImpl) FetchUserDirectMessageRooms(ctx context.Context, userID string) ([]*dto.DirectRoomDTO, error) {
	rows, err := s.roomRepo.GetDirectMessageRooms(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.DirectRoomDTO, 0, len(rows))
	for _, row := range rows {
		res = append(res, &dto.DirectRoomDTO{
			RoomID:    row.RoomID,
			Name:      row.RoomName,
			CreatedAt: row.CreatedAt,
			Peer: dto.UserBriefDTO{
				ID:        row.PeerID,
				Username:  row.PeerUsername,
				AvatarURL: row.PeerAvatarURL,
			},
		})
	}
	return res, nil
}

// GetRoom 非公开房间仅成员可见
func (s *roomServiceImpl) GetRoom(ctx context.Context, roomID, userID string) (*model.Room, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Type != model.RoomTypePublic {
		if _, err = activeMember(ctx, s.memberRepo, roomID, userID); err != nil {
			return nil, err
		}
	}
	return room, nil
}

func (s *roomServiceImpl) UpdateRoom(ctx context.Context, roomID, actorID string, req *dto.UpdateRoomDTO) (*model.Room, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err = s.requireAdmin(ctx, room, actorID); err != nil {
		return nil, err
	}

	patch := repository.Filter{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrParamInvalid
		}
		patch["name"] = name
	}
	if req.Description != nil {
		patch["description"] = *req.Description
	}
	if req.RoomIcon != nil {
		patch["room_icon"] = *req.RoomIcon
	}
	if req.MessagesDeletable != nil {
		patch["messages_deletable"] = *req.MessagesDeletable
	}
	if req.AllowAdminMessagesOnly != nil {
		patch["allow_admin_messages_only"] = *req.AllowAdminMessagesOnly
	}
	if req.AllowNonAdminInvitations != nil {
		patch["allow_non_admin_invitations"] = *req.AllowNonAdminInvitations
	}
	if req.IsDeactivated != nil {
		patch["is_deactivated"] = *req.IsDeactivated
	}

	typeChanged := false
	if req.Type != nil && *req.Type != room.Type {
		if room.Type == model.RoomTypeDirectMessage {
			return nil, ErrRoomTypeInvalid
		}
		if *req.Type != model.RoomTypePublic && *req.Type != model.RoomTypePrivate {
			return nil, ErrRoomTypeInvalid
		}
		patch["type"] = *req.Type
		patch["is_private"] = *req.Type == model.RoomTypePrivate
		typeChanged = true
	}

	updated, err := s.roomRepo.UpdateRoom(ctx, roomID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRoomNotFound
	}

	if typeChanged && s.tasks != nil {
		payload := &dto.RoomTypeChangedPayload{RoomID: updated.ID, NewType: updated.Type}
		if err = s.tasks.Publish(ctx, dto.TaskRoomTypeChanged, updated.ID, payload); err != nil {
			log.ErrorContext(ctx, "投递房间类型变更任务失败", "room_id", updated.ID, "err", err)
		}
	}
	return updated, nil
}

// DeleteRoom 房主或管理员可删除，消息、邀请、成员一并删除
func (s *roomServiceImpl) DeleteRoom(ctx context.Context, roomID, actorID string) error {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != actorID {
		if err = s.requireAdmin(ctx, room, actorID); err != nil {
			return err
		}
	}
	return s.roomRepo.DeleteRoom(ctx, roomID)
}

func (s *roomServiceImpl) JoinPublicRoom(ctx context.Context, roomID, userID string) (*model.RoomMember, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsDeactivated {
		return nil, ErrRoomDeactivated
	}
	if room.Type != model.RoomTypePublic {
		return nil, ErrRoomTypeInvalid
	}

	member, err := s.memberRepo.GetMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		if !member.LeftRoom {
			return nil, ErrAlreadyMember
		}
		return s.memberRepo.UpdateMember(ctx, member.ID, repository.Filter{
			"left_room": false,
			"is_admin":  false,
			"room_type": room.Type,
		})
	}

	member = &model.RoomMember{RoomID: roomID, UserID: userID, RoomType: room.Type}
	if err = s.memberRepo.CreateMember(ctx, member); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return member, nil
}

func (s *roomServiceImpl) LeaveRoom(ctx context.Context, roomID, userID string) error {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return err
	}
	member, err := activeMember(ctx, s.memberRepo, roomID, userID)
	if err != nil {
		return err
	}
	_, err = s.memberRepo.UpdateMember(ctx, member.ID, repository.Filter{
		"left_room": true,
		"is_admin":  false,
	})
	return err
}

func (s *roomServiceImpl) SetUserAsAdmin(ctx context.Context, roomID, actorID, targetID string) (*model.RoomMember, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err = s.requireAdmin(ctx, room, actorID); err != nil {
		return nil, err
	}
	target, err := activeMember(ctx, s.memberRepo, roomID, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin {
		return target, nil
	}
	return s.memberRepo.UpdateMember(ctx, target.ID, repository.Filter{"is_admin": true})
}

func (s *roomServiceImpl) IsUserAdmin(ctx context.Context, roomID, userID string) (bool, error) {
	member, err := s.memberRepo.GetMember(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	return member != nil && !member.LeftRoom && member.IsAdmin, nil
}

func (s *roomServiceImpl) ListMembers(ctx context.Context, roomID, requesterID string, page repository.Page) ([]*dto.RoomMemberDTO, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}
	if _, err := activeMember(ctx, s.memberRepo, roomID, requesterID); err != nil {
		return nil, err
	}
	rows, err := s.memberRepo.GetMembers(ctx, roomID, page)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.RoomMemberDTO, 0, len(rows))
	if err = copier.Copy(&res, &rows); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *roomServiceImpl) getRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *roomServiceImpl) requireAdmin(ctx context.Context, room *model.Room, userID string) error {
	member, err := activeMember(ctx, s.memberRepo, room.ID, userID)
	if err != nil {
		return err
	}
	if !member.IsAdmin {
		return ErrUserNotAnAdmin
	}
	return nil
}

// activeMember 返回仍在房间内的成员，否则返回 ErrUserNotAMember
func activeMember(ctx context.Context, repo repository.RoomMemberRepo, roomID, userID string) (*model.RoomMember, error) {
	member, err := repo.GetMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.LeftRoom {
		return nil, ErrUserNotAMember
	}
	return member, nil
}
