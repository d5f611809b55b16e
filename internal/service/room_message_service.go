package service

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/repository"
	"context"
	"strings"
)

type RoomMessageService interface {
	SendMessage(ctx context.Context, roomID, senderID string, req *dto.SendRoomMessageDTO) (*model.RoomMessage, error)
	ListMessages(ctx context.Context, roomID, userID string, page repository.Page) ([]*model.RoomMessage, error)
	UpdateMessage(ctx context.Context, roomID, userID, messageID, content string) (*model.RoomMessage, error)
	DeleteMessage(ctx context.Context, roomID, userID, messageID string) error
}

type roomMessageServiceImpl struct {
	roomRepo    repository.RoomRepo
	memberRepo  repository.RoomMemberRepo
	messageRepo repository.RoomMessageRepo
	media       MediaClaimer
}

func NewRoomMessageService(roomRepo repository.RoomRepo, memberRepo repository.RoomMemberRepo, messageRepo repository.RoomMessageRepo, media MediaClaimer) RoomMessageService {
	return &roomMessageServiceImpl{
		roomRepo:    roomRepo,
		memberRepo:  memberRepo,
		messageRepo: messageRepo,
		media:       media,
	}
}

func (s *roomMessageServiceImpl) SendMessage(ctx context.Context, roomID, senderID string, req *dto.SendRoomMessageDTO) (*model.RoomMessage, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && req.MediaURL == nil {
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
	member, err := activeMember(ctx, s.memberRepo, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if room.AllowAdminMessagesOnly && !member.IsAdmin {
		return nil, ErrUserNotAnAdmin
	}

	if req.ParentMessageID != nil {
		parent, err := s.messageRepo.GetMessage(ctx, roomID, *req.ParentMessageID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrMessageNotFound
		}
	}

	msg := &model.RoomMessage{
		RoomID:          roomID,
		SenderID:        senderID,
		ParentMessageID: req.ParentMessageID,
		Content:         content,
		MediaURL:        req.MediaURL,
		MediaType:       mediaTypeOf(req.MediaType, req.MediaURL),
		ChatType:        room.Type,
	}
	if err = s.messageRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if s.media != nil && msg.MediaURL != nil {
		s.media.Claim(ctx, *msg.MediaURL)
	}
	return msg, nil
}

func (s *roomMessageServiceImpl) ListMessages(ctx context.Context, roomID, userID string, page repository.Page) ([]*model.RoomMessage, error) {
	if err := s.checkRoomMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListMessages(ctx, roomID, page)
}

// UpdateMessage 只有发送者可以编辑
func (s *roomMessageServiceImpl) UpdateMessage(ctx context.Context, roomID, userID, messageID, content string) (*model.RoomMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrParamInvalid
	}
	if err := s.checkRoomMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	msg, err := s.messageRepo.GetMessage(ctx, roomID, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return nil, ErrCannotUpdateMessage
	}
	return s.messageRepo.UpdateMessage(ctx, msg.ID, repository.Filter{
		"content":   content,
		"is_edited": true,
	})
}

// DeleteMessage 管理员可删除任意消息，普通成员仅在房间允许时删除自己的消息
func (s *roomMessageServiceImpl) DeleteMessage(ctx context.Context, roomID, userID, messageID string) error {
	room, err := s.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	member, err := activeMember(ctx, s.memberRepo, roomID, userID)
	if err != nil {
		return err
	}
	msg, err := s.messageRepo.GetMessage(ctx, roomID, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	allowed := member.IsAdmin ||
		(msg.SenderID == userID && (room.MessagesDeletable || room.Type == model.RoomTypeDirectMessage))
	if !allowed {
		return ErrCannotDeleteMessage
	}
	_, err = s.messageRepo.DeleteMessage(ctx, msg.ID)
	return err
}

func (s *roomMessageServiceImpl) checkRoomMember(ctx context.Context, roomID, userID string) error {
	room, err := s.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	_, err = activeMember(ctx, s.memberRepo, roomID, userID)
	return err
}

// mediaTypeOf 未声明类型时，有附件视为 file，否则为 text
func mediaTypeOf(declared string, url *string) string {
	if declared != "" {
		return declared
	}
	if url != nil {
		return model.MediaTypeFile
	}
	return model.MediaTypeText
}
