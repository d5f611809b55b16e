package dto

import "time"

// CreateRoomDTO 创建公开或私有房间
type CreateRoomDTO struct {
	Name                     string  `json:"name" binding:"required" validate:"required,min=1,max=128"`
	Type                     string  `json:"type" binding:"required" validate:"required,oneof=public private"`
	Description              *string `json:"description,omitempty" validate:"omitempty,max=500"`
	RoomIcon                 *string `json:"room_icon,omitempty" validate:"omitempty,max=512"`
	MessagesDeletable        *bool   `json:"messages_deletable,omitempty"`
	AllowAdminMessagesOnly   bool    `json:"allow_admin_messages_only"`
	AllowNonAdminInvitations *bool   `json:"allow_non_admin_invitations,omitempty"`
}

// UpdateRoomDTO 修改房间设置，只提交需要修改的字段
type UpdateRoomDTO struct {
	Name                     *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Type                     *string `json:"type,omitempty" validate:"omitempty,oneof=public private"`
	Description              *string `json:"description,omitempty" validate:"omitempty,max=500"`
	RoomIcon                 *string `json:"room_icon,omitempty" validate:"omitempty,max=512"`
	MessagesDeletable        *bool   `json:"messages_deletable,omitempty"`
	AllowAdminMessagesOnly   *bool   `json:"allow_admin_messages_only,omitempty"`
	AllowNonAdminInvitations *bool   `json:"allow_non_admin_invitations,omitempty"`
	IsDeactivated            *bool   `json:"is_deactivated,omitempty"`
}

// CreateDirectRoomDTO 创建私聊房间
type CreateDirectRoomDTO struct {
	UserID string `json:"user_id" binding:"required"`
}

// DirectRoomDTO 私聊房间及对方身份
type DirectRoomDTO struct {
	RoomID    string       `json:"room_id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	Peer      UserBriefDTO `json:"peer"`
}

// RoomMemberDTO 房间成员
type RoomMemberDTO struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	JoinedAt  time.Time `json:"joined_at"`
}

// SetAdminDTO 设置管理员
type SetAdminDTO struct {
	UserID string `json:"user_id" binding:"required"`
}

// SendRoomMessageDTO 发送群消息
type SendRoomMessageDTO struct {
	Content         string  `json:"content" validate:"max=4000"`
	ParentMessageID *string `json:"parent_message_id,omitempty"`
	MediaURL        *string `json:"media_url,omitempty" validate:"omitempty,url"`
	MediaType       string  `json:"media_type,omitempty" validate:"omitempty,oneof=text image video file"`
}

// EditMessageDTO 编辑消息
type EditMessageDTO struct {
	Content string `json:"content" binding:"required" validate:"required,max=4000"`
}

// InviteDTO 邀请用户入群
type InviteDTO struct {
	InviteeID string `json:"invitee_id" binding:"required"`
}

// RespondInvitationDTO 处理邀请
type RespondInvitationDTO struct {
	Action string `json:"action" binding:"required" validate:"required,oneof=accept decline cancel"`
}
