package repository

import (
	"Parlor/internal/model"
	"context"

	"gorm.io/gorm"
)

type RoomMessageRepo interface {
	CreateMessage(ctx context.Context, msg *model.RoomMessage) error
	GetMessage(ctx context.Context, roomID, id string) (*model.RoomMessage, error)
	ListMessages(ctx context.Context, roomID string, page Page) ([]*model.RoomMessage, error)
	UpdateMessage(ctx context.Context, id string, patch Filter) (*model.RoomMessage, error)
	DeleteMessage(ctx context.Context, id string) (int64, error)
}

type roomMessageRepoImpl struct {
	messages *Record[model.RoomMessage]
}

func NewRoomMessageRepo(db *gorm.DB) RoomMessageRepo {
	return &roomMessageRepoImpl{messages: NewRecord[model.RoomMessage](db)}
}

func (s *roomMessageRepoImpl) CreateMessage(ctx context.Context, msg *model.RoomMessage) error {
	return s.messages.Create(ctx, msg)
}

func (s *roomMessageRepoImpl) GetMessage(ctx context.Context, roomID, id string) (*model.RoomMessage, error) {
	if roomID == "" || id == "" {
		return nil, nil
	}
	return s.messages.Fetch(ctx, Filter{"room_id": roomID, "id": id})
}

// ListMessages 旧消息在前
func (s *roomMessageRepoImpl) ListMessages(ctx context.Context, roomID string, page Page) ([]*model.RoomMessage, error) {
	return s.messages.FetchAll(ctx, Filter{
		"room_id": roomID,
		"page":    page.Page,
		"limit":   page.Limit,
		"sort":    "created_at",
	})
}

func (s *roomMessageRepoImpl) UpdateMessage(ctx context.Context, id string, patch Filter) (*model.RoomMessage, error) {
	return s.messages.Update(ctx, Filter{"id": id}, patch)
}

func (s *roomMessageRepoImpl) DeleteMessage(ctx context.Context, id string) (int64, error) {
	return s.messages.Delete(ctx, Filter{"id": id})
}
