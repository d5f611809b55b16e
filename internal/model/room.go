package model

import "time"

const (
	RoomTypePublic        = "public"
	RoomTypePrivate       = "private"
	RoomTypeDirectMessage = "direct_message"
)

type Room struct {
	Base
	OwnerID                  string  `gorm:"size:36;not null;index" json:"owner_id"`
	Name                     string  `gorm:"size:128;not null;index" json:"name"`
	Description              *string `gorm:"size:500" json:"description"`
	RoomIcon                 *string `gorm:"size:512" json:"room_icon"`
	Type                     string  `gorm:"size:16;not null;index" json:"type"`
	IsPrivate                bool    `gorm:"not null" json:"is_private"`
	MessagesDeletable        bool    `gorm:"not null" json:"messages_deletable"`
	AllowAdminMessagesOnly   bool    `gorm:"not null" json:"allow_admin_messages_only"`
	AllowNonAdminInvitations bool    `gorm:"not null" json:"allow_non_admin_invitations"`
	IsDeactivated            bool    `gorm:"not null" json:"is_deactivated"`
}

var roomFields = NewFields("owner_id", "name", "description", "room_icon", "type", "is_private",
	"messages_deletable", "allow_admin_messages_only", "allow_non_admin_invitations", "is_deactivated")

func (Room) TableName() string {
	return "rooms"
}

func (Room) Fields() Fields {
	return roomFields
}

// RoomMember 房间成员，(room_id, user_id) 唯一
type RoomMember struct {
	Base
	RoomID    string     `gorm:"size:36;not null;uniqueIndex:idx_room_member" json:"room_id"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex:idx_room_member;index" json:"user_id"`
	IsAdmin   bool       `gorm:"not null" json:"is_admin"`
	LeftRoom  bool       `gorm:"not null" json:"left_room"`
	RoomType  string     `gorm:"size:16;not null" json:"room_type"`
	InvitedAt *time.Time `json:"invited_at"`

	Room *Room `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

var roomMemberFields = NewFields("room_id", "user_id", "is_admin", "left_room", "room_type", "invited_at")

func (RoomMember) TableName() string {
	return "room_members"
}

func (RoomMember) Fields() Fields {
	return roomMemberFields
}
