package dto

import "time"

// UserDTO 用户
type UserDTO struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Status     string     `json:"status"`
	Bio        *string    `json:"bio,omitempty"`
	AvatarURL  *string    `json:"avatar_url,omitempty"`
	Profession *string    `json:"profession,omitempty"`
	Gender     *string    `json:"gender,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// RegisterDTO 注册
type RegisterDTO struct {
	Email     string  `json:"email" binding:"required" validate:"required,email,max=255"`
	Username  string  `json:"username" binding:"required" validate:"required,min=3,max=64,alphanum"`
	Password  string  `json:"password" binding:"required" validate:"required,min=6,max=64"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=64"`
}

// CredentialDTO 登录凭证，identifier 为邮箱或用户名
type CredentialDTO struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// ProfileDTO 修改资料
type ProfileDTO struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Bio        *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Profession *string `json:"profession,omitempty" validate:"omitempty,max=64"`
	Gender     *string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

// UserBriefDTO 展示用的用户身份
type UserBriefDTO struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
