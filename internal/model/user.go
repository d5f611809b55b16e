package model

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusDeleted  = "deleted"
	UserStatusBanned   = "banned"
)

type User struct {
	Base
	Email     string  `gorm:"size:255;not null;uniqueIndex:idx_user_email" json:"email"`
	Username  string  `gorm:"size:64;not null;uniqueIndex:idx_user_username" json:"username"`
	FirstName *string `gorm:"size:64" json:"first_name"`
	LastName  *string `gorm:"size:64" json:"last_name"`
	Password  string  `gorm:"size:255;not null" json:"-"`
	Status    string  `gorm:"size:16;not null;index" json:"status"`
}

var userFields = NewFields("email", "username", "first_name", "last_name", "password", "status")

func (User) TableName() string {
	return "users"
}

func (User) Fields() Fields {
	return userFields
}

// Profile 与 User 一对一
type Profile struct {
	Base
	UserID     string  `gorm:"size:36;not null;uniqueIndex:idx_profile_user" json:"user_id"`
	Bio        *string `gorm:"size:500" json:"bio"`
	AvatarURL  *string `gorm:"size:512" json:"avatar_url"`
	Profession *string `gorm:"size:64" json:"profession"`
	Gender     *string `gorm:"size:16" json:"gender"`
}

var profileFields = NewFields("user_id", "bio", "avatar_url", "profession", "gender")

func (Profile) TableName() string {
	return "profiles"
}

func (Profile) Fields() Fields {
	return profileFields
}
