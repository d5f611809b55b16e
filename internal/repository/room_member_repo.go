package repository

import (
	"Parlor/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// MemberRow 成员及其用户身份
type MemberRow struct {
	UserID    string
	Username  string
	AvatarURL *string
	IsAdmin   bool
	JoinedAt  time.Time
}

type RoomMemberRepo interface {
	GetMember(ctx context.Context, roomID, userID string) (*model.RoomMember, error)
	GetMembers(ctx context.Context, roomID string, page Page) ([]*MemberRow, error)
	CreateMember(ctx context.Context, member *model.RoomMember) error
	UpdateMember(ctx context.Context, id string, patch Filter) (*model.RoomMember, error)
}

type roomMemberRepoImpl struct {
	db      *gorm.DB
	members *Record[model.RoomMember]
}

func NewRoomMemberRepo(db *gorm.DB) RoomMemberRepo {
	return &roomMemberRepoImpl{db: db, members: NewRecord[model.RoomMember](db)}
}

func (s *roomMemberRepoImpl) GetMember(ctx context.Context, roomID, userID string) (*model.RoomMember, error) {
	if roomID == "" || userID == "" {
		return nil, nil
	}
	return s.members.Fetch(ctx, Filter{"room_id": roomID, "user_id": userID})
}

// GetMembers 房间在册成员，按加入时间排序
func (s *roomMemberRepoImpl) GetMembers(ctx context.Context, roomID string, page Page) ([]*MemberRow, error) {
	rows := make([]*MemberRow, 0)
	q := s.db.WithContext(ctx).Table("room_members rm").
		Select("rm.user_id AS user_id, u.username AS username, p.avatar_url AS avatar_url, "+
			"rm.is_admin AS is_admin, rm.created_at AS joined_at").
		Joins("JOIN users u ON u.id = rm.user_id").
		Joins("LEFT JOIN profiles p ON p.user_id = rm.user_id").
		Where("rm.room_id = ? AND rm.left_room = ?", roomID, false).
		Order("rm.created_at ASC").
		Order("rm.id ASC")
	if err := page.Scope(q).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *roomMemberRepoImpl) CreateMember(ctx context.Context, member *model.RoomMember) error {
	return s.members.Create(ctx, member)
}

func (s *roomMemberRepoImpl) UpdateMember(ctx context.Context, id string, patch Filter) (*model.RoomMember, error) {
	return s.members.Update(ctx, Filter{"id": id}, patch)
}
