package service

import (
	"Parlor/internal/api/config"
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/pkg/consts"
	"Parlor/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/jinzhu/copier"
)

// DirectMessageService 两个用户之间的私信
type DirectMessageService interface {
	GetOrCreateConversation(ctx context.Context, userA, userB string) (*model.DirectConversation, error)
	SendMessage(ctx context.Context, senderID string, req *dto.SendDirectMessageDTO) (*dto.DirectMessageDTO, error)
	ListConversations(ctx context.Context, userID string, page repository.Page) (*dto.ConversationPageDTO, error)
	ListMessages(ctx context.Context, conversationID, userID string, page repository.Page) ([]*dto.DirectMessageDTO, error)
	MarkRead(ctx context.Context, messageID, userID string) (*dto.DirectMessageDTO, error)
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error)
	EditMessage(ctx context.Context, messageID, userID, content string) (*dto.DirectMessageDTO, error)
	DeleteMessageForSide(ctx context.Context, messageID, userID string) error
	DeleteMessageForEveryone(ctx context.Context, messageID, userID string) error
	DeleteConversationForSide(ctx context.Context, conversationID, userID string) error
}

type directMessageServiceImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo repository.DirectMessageRepo
	userRepo    repository.UserRepo
	notifier    Notifier
	media       MediaClaimer
	now         func() time.Time
}

func NewDirectMessageService(convRepo repository.ConversationRepo, messageRepo repository.DirectMessageRepo, userRepo repository.UserRepo,
	notifier Notifier, media MediaClaimer) DirectMessageService {
	return &directMessageServiceImpl{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		media:       media,
		now:         time.Now,
	}
}

func recallWindow() time.Duration {
	minutes := config.Cfg.Chat.MessageRecallMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// GetOrCreateConversation 参与者按固定顺序存储，并发创建时以唯一索引为准重新查询
func (s *directMessageServiceImpl) GetOrCreateConversation(ctx context.Context, userA, userB string) (*model.DirectConversation, error) {
	if userA == "" || userB == "" {
		return nil, ErrParamInvalid
	}
	if userA == userB {
		return nil, ErrConversationInvalid
	}

	conv, err := s.convRepo.GetConversationByPair(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	conv = &model.DirectConversation{SenderID: userA, RecipientID: userB}
	err = s.convRepo.CreateConversation(ctx, conv)
	if err == nil {
		return conv, nil
	}
	if !repository.IsDuplicateKey(err) {
		return nil, err
	}

	conv, err = s.convRepo.GetConversationByPair(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *directMessageServiceImpl) SendMessage(ctx context.Context, senderID string, req *dto.SendDirectMessageDTO) (*dto.DirectMessageDTO, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && req.MediaURL == nil {
		return nil, ErrParamInvalid
	}
	if senderID == req.RecipientID {
		return nil, ErrConversationInvalid
	}

	recipient, err := s.userRepo.GetUserByID(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil || recipient.Status == model.UserStatusDeleted {
		return nil, ErrUserDoesNotExist
	}

	conv, err := s.GetOrCreateConversation(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, err
	}

	if req.ParentMessageID != nil {
		parent, err := s.messageRepo.GetMessage(ctx, *req.ParentMessageID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ConversationID != conv.ID {
			return nil, ErrMessageNotFound
		}
	}

	msg := &model.DirectMessage{
		SenderID:        senderID,
		RecipientID:     req.RecipientID,
		ParentMessageID: req.ParentMessageID,
		Status:          model.MessageStatusSent,
		Content:         content,
		MediaURL:        req.MediaURL,
		MediaType:       mediaTypeOf(req.MediaType, req.MediaURL),
	}
	if err = s.messageRepo.SaveMessage(ctx, conv, msg); err != nil {
		return nil, err
	}
	if s.media != nil && msg.MediaURL != nil {
		s.media.Claim(ctx, *msg.MediaURL)
	}

	msgDTO, err := toDirectMessageDTO(msg)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, msg.RecipientID, consts.EventDirectMessage, msgDTO)
	return msgDTO, nil
}

// ListConversations 按最近活跃排序，附带对方身份、未读数与最后一条消息
func (s *directMessageServiceImpl) ListConversations(ctx context.Context, userID string, page repository.Page) (*dto.ConversationPageDTO, error) {
	convs, total, err := s.convRepo.ListConversations(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	res := &dto.ConversationPageDTO{
		Items:      make([]*dto.ConversationDTO, 0, len(convs)),
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}
	if len(convs) == 0 {
		return res, nil
	}

	convIDs := make([]string, 0, len(convs))
	peerIDs := make([]string, 0, len(convs))
	for _, c := range convs {
		convIDs = append(convIDs, c.ID)
		peerIDs = append(peerIDs, c.Peer(userID))
	}

	unread, err := s.convRepo.CountUnread(ctx, userID, convIDs)
	if err != nil {
		return nil, err
	}
	lastMessages, err := s.convRepo.GetLastMessages(ctx, userID, convIDs)
	if err != nil {
		return nil, err
	}
	peers, err := s.userRepo.GetUsersByIDs(ctx, peerIDs)
	if err != nil {
		return nil, err
	}
	profiles, err := s.userRepo.GetProfilesByUserIDs(ctx, peerIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(peers))
	for _, p := range peers {
		names[p.ID] = p.Username
	}

	for _, c := range convs {
		peerID := c.Peer(userID)
		item := &dto.ConversationDTO{
			ConversationID:     c.ID,
			Peer:               dto.UserBriefDTO{ID: peerID, Username: names[peerID]},
			UnreadMessageCount: unread[c.ID],
			UpdatedAt:          c.UpdatedAt,
		}
		if p := profiles[peerID]; p != nil {
			item.Peer.AvatarURL = p.AvatarURL
		}
		if last := lastMessages[c.ID]; last != nil {
			if item.LastMessage, err = toDirectMessageDTO(last); err != nil {
				return nil, err
			}
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (s *directMessageServiceImpl) ListMessages(ctx context.Context, conversationID, userID string, page repository.Page) ([]*dto.DirectMessageDTO, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListMessages(ctx, conversationID, userID, page)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.DirectMessageDTO, 0, len(msgs))
	if err = copier.Copy(&res, &msgs); err != nil {
		return nil, err
	}
	return res, nil
}

// MarkRead 只有接收者的已读会生效，发送者调用时原样返回
func (s *directMessageServiceImpl) MarkRead(ctx context.Context, messageID, userID string) (*dto.DirectMessageDTO, error) {
	msg, err := s.visibleMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != userID || msg.ReadAt != nil {
		return toDirectMessageDTO(msg)
	}

	now := s.now()
	updated, err := s.messageRepo.UpdateMessage(ctx, msg.ID, repository.Filter{
		"read_at": now,
		"status":  model.MessageStatusDelivered,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMessageNotFound
	}
	s.notify(ctx, msg.SenderID, consts.EventReadReceipt, &dto.ReadReceiptDTO{
		ConversationID: msg.ConversationID,
		ReaderID:       userID,
		MessageID:      msg.ID,
		ReadAt:         now,
	})
	return toDirectMessageDTO(updated)
}

func (s *directMessageServiceImpl) MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error) {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	now := s.now()
	n, err := s.messageRepo.MarkConversationRead(ctx, conv.ID, userID, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notify(ctx, conv.Peer(userID), consts.EventReadReceipt, &dto.ReadReceiptDTO{
			ConversationID: conv.ID,
			ReaderID:       userID,
			ReadAt:         now,
		})
	}
	return n, nil
}

func (s *directMessageServiceImpl) EditMessage(ctx context.Context, messageID, userID, content string) (*dto.DirectMessageDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrParamInvalid
	}
	msg, err := s.visibleMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrCannotUpdateMessage
	}
	updated, err := s.messageRepo.UpdateMessage(ctx, msg.ID, repository.Filter{
		"content":   content,
		"is_edited": true,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMessageNotFound
	}
	return toDirectMessageDTO(updated)
}

// DeleteMessageForSide 仅对当前用户隐藏，双方都删除后移除记录
func (s *directMessageServiceImpl) DeleteMessageForSide(ctx context.Context, messageID, userID string) error {
	msg, err := s.visibleMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}
	_, err = s.messageRepo.HideMessage(ctx, msg, userID)
	return err
}

// DeleteMessageForEveryone 发送者在撤回时限内可对双方删除
func (s *directMessageServiceImpl) DeleteMessageForEveryone(ctx context.Context, messageID, userID string) error {
	msg, err := s.visibleMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return ErrCannotDeleteMessage
	}
	if s.now().Sub(msg.CreatedAt) > recallWindow() {
		return ErrRecallTimeout
	}
	if _, err = s.messageRepo.DeleteMessage(ctx, msg.ID); err != nil {
		return err
	}
	s.notify(ctx, msg.RecipientID, consts.EventMessageRecalled, map[string]string{
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID,
	})
	return nil
}

func (s *directMessageServiceImpl) DeleteConversationForSide(ctx context.Context, conversationID, userID string) error {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	return s.convRepo.HideConversation(ctx, conv, userID)
}

func (s *directMessageServiceImpl) participantConversation(ctx context.Context, conversationID, userID string) (*model.DirectConversation, error) {
	conv, err := s.convRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotAParticipant
	}
	return conv, nil
}

// visibleMessage 消息存在、用户是参与者且在其一侧未被删除
func (s *directMessageServiceImpl) visibleMessage(ctx context.Context, messageID, userID string) (*model.DirectMessage, error) {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if !msg.HasParticipant(userID) {
		return nil, ErrNotAParticipant
	}
	if !msg.VisibleTo(userID) {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (s *directMessageServiceImpl) notify(ctx context.Context, userID, event string, payload any) {
	if s.notifier == nil {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.notifier.Notify(pushCtx, userID, event, payload); err != nil {
		log.WarnContext(ctx, "实时推送失败", "user_id", userID, "event", event, "err", err)
	}
}

func toDirectMessageDTO(msg *model.DirectMessage) (*dto.DirectMessageDTO, error) {
	msgDTO := &dto.DirectMessageDTO{}
	if err := copier.Copy(msgDTO, msg); err != nil {
		return nil, err
	}
	return msgDTO, nil
}
