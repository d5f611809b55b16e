package model

import "time"

const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationDeclined  = "declined"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

// RoomInvitation 房间邀请，(room_id, invitee_id) 唯一
type RoomInvitation struct {
	Base
	RoomID    string    `gorm:"size:36;not null;uniqueIndex:idx_room_invitee" json:"room_id"`
	InviterID string    `gorm:"size:36;not null" json:"inviter_id"`
	InviteeID string    `gorm:"size:36;not null;uniqueIndex:idx_room_invitee;index" json:"invitee_id"`
	Status    string    `gorm:"size:16;not null;index" json:"status"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	Room *Room `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

var roomInvitationFields = NewFields("room_id", "inviter_id", "invitee_id", "status", "expires_at")

func (RoomInvitation) TableName() string {
	return "room_invitations"
}

func (RoomInvitation) Fields() Fields {
	return roomInvitationFields
}

func (i *RoomInvitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
