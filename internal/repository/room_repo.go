package repository

import (
	"Parlor/internal/model"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DirectRoomRow 私聊房间及对方身份
type DirectRoomRow struct {
	RoomID        string
	RoomName      string
	CreatedAt     time.Time
	PeerID        string
	PeerUsername  string
	PeerAvatarURL *string
}

type RoomRepo interface {
	GetRoomByID(ctx context.Context, id string) (*model.Room, error)
	CreateRoom(ctx context.Context, room *model.Room, members ...*model.RoomMember) error
	UpdateRoom(ctx context.Context, id string, patch Filter) (*model.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	SearchPublicRooms(ctx context.Context, keyword string, page Page) ([]*model.Room, error)
	GetRoomsByMember(ctx context.Context, userID string, page Page) ([]*model.Room, error)
	FindDirectMessageRoom(ctx context.Context, userA, userB string) (*model.Room, error)
	GetDirectMessageRooms(ctx context.Context, userID string) ([]*DirectRoomRow, error)
	RelabelRoomType(ctx context.Context, roomID, roomType string, batchSize int) (int64, error)
}

type roomRepoImpl struct {
	db    *gorm.DB
	rooms *Record[model.Room]
}

func NewRoomRepo(db *gorm.DB) RoomRepo {
	return &roomRepoImpl{db: db, rooms: NewRecord[model.Room](db)}
}

func (s *roomRepoImpl) GetRoomByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, nil
	}
	return s.rooms.Fetch(ctx, Filter{"id": id})
}

// CreateRoom 房间与初始成员在同一事务中写入
func (s *roomRepoImpl) CreateRoom(ctx context.Context, room *model.Room, members ...*model.RoomMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rooms.WithTx(tx).Create(ctx, room); err != nil {
			return err
		}
		for _, m := range members {
			m.RoomID = room.ID
			m.RoomType = room.Type
		}
		return NewRecord[model.RoomMember](tx).CreateAll(ctx, members)
	})
}

func (s *roomRepoImpl) UpdateRoom(ctx context.Context, id string, patch Filter) (*model.Room, error) {
	return s.rooms.Update(ctx, Filter{"id": id}, patch)
}

// DeleteRoom 显式级联删除消息、邀请与成员
func (s *roomRepoImpl) DeleteRoom(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := Filter{"room_id": id}
		if _, err := NewRecord[model.RoomMessage](tx).Delete(ctx, scope); err != nil {
			return err
		}
		if _, err := NewRecord[model.RoomInvitation](tx).Delete(ctx, scope); err != nil {
			return err
		}
		if _, err := NewRecord[model.RoomMember](tx).Delete(ctx, scope); err != nil {
			return err
		}
		_, err := s.rooms.WithTx(tx).Delete(ctx, Filter{"id": id})
		return err
	})
}

// SearchPublicRooms 名称不区分大小写的子串匹配
func (s *roomRepoImpl) SearchPublicRooms(ctx context.Context, keyword string, page Page) ([]*model.Room, error) {
	rooms := make([]*model.Room, 0)
	q := s.db.WithContext(ctx).
		Where("type = ? AND is_deactivated = ?", model.RoomTypePublic, false)
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(keyword))+"%")
	}
	err := page.Scope(q.Order("created_at ASC").Order("id ASC")).Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *roomRepoImpl) GetRoomsByMember(ctx context.Context, userID string, page Page) ([]*model.Room, error) {
	rooms := make([]*model.Room, 0)
	q := s.db.WithContext(ctx).
		Select("rooms.*").
		Joins("JOIN room_members rm ON rm.room_id = rooms.id").
		Where("rm.user_id = ? AND rm.left_room = ?", userID, false).
		Order("rooms.created_at ASC").
		Order("rooms.id ASC")
	if err := page.Scope(q).Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *roomRepoImpl) FindDirectMessageRoom(ctx context.Context, userA, userB string) (*model.Room, error) {
	var rooms []*model.Room
	err := s.db.WithContext(ctx).
		Select("rooms.*").
		Joins("JOIN room_members m1 ON m1.room_id = rooms.id AND m1.user_id = ?", userA).
		Joins("JOIN room_members m2 ON m2.room_id = rooms.id AND m2.user_id = ?", userB).
		Where("rooms.type = ?", model.RoomTypeDirectMessage).
		Order("rooms.created_at ASC").
		Limit(1).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}
	return rooms[0], nil
}

// GetDirectMessageRooms 私聊房间联表对方成员的身份
func (s *roomRepoImpl) GetDirectMessageRooms(ctx context.Context, userID string) ([]*DirectRoomRow, error) {
	rows := make([]*DirectRoomRow, 0)
	err := s.db.WithContext(ctx).Table("rooms r").
		Select("r.id AS room_id, r.name AS room_name, r.created_at AS created_at, "+
			"peer.user_id AS peer_id, u.username AS peer_username, p.avatar_url AS peer_avatar_url").
		Joins("JOIN room_members me ON me.room_id = r.id AND me.user_id = ?", userID).
		Joins("JOIN room_members peer ON peer.room_id = r.id AND peer.user_id <> ?", userID).
		Joins("JOIN users u ON u.id = peer.user_id").
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("r.type = ?", model.RoomTypeDirectMessage).
		Order("r.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RelabelRoomType 分批把历史消息与成员记录改写为新的房间类型
func (s *roomRepoImpl) RelabelRoomType(ctx context.Context, roomID, roomType string, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	targets := []struct {
		table  string
		column string
	}{
		{table: model.RoomMessage{}.TableName(), column: "chat_type"},
		{table: model.RoomMember{}.TableName(), column: "room_type"},
	}

	var total int64
	for _, t := range targets {
		for {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			var ids []string
			err := s.db.WithContext(ctx).Table(t.table).
				Where("room_id = ? AND "+t.column+" <> ?", roomID, roomType).
				Order("id").
				Limit(batchSize).
				Pluck("id", &ids).Error
			if err != nil {
				return total, err
			}
			if len(ids) == 0 {
				break
			}
			result := s.db.WithContext(ctx).Table(t.table).
				Where("id IN ?", ids).
				Update(t.column, roomType)
			if result.Error != nil {
				return total, result.Error
			}
			total += result.RowsAffected
			if len(ids) < batchSize {
				break
			}
		}
	}
	return total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
