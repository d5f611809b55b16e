package model

const (
	MediaTypeText  = "text"
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeFile  = "file"
)

type RoomMessage struct {
	Base
	RoomID          string  `gorm:"size:36;not null;index:idx_room_message_room,priority:1" json:"room_id"`
	SenderID        string  `gorm:"size:36;not null;index" json:"sender_id"`
	ParentMessageID *string `gorm:"size:36" json:"parent_message_id"`
	Content         string  `gorm:"type:text" json:"content"`
	MediaURL        *string `gorm:"size:512" json:"media_url"`
	MediaType       string  `gorm:"size:16;not null" json:"media_type"`
	ChatType        string  `gorm:"size:16;not null" json:"chat_type"`
	IsEdited        bool    `gorm:"not null" json:"is_edited"`

	Room *Room `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

var roomMessageFields = NewFields("room_id", "sender_id", "parent_message_id", "content", "media_url",
	"media_type", "chat_type", "is_edited")

func (RoomMessage) TableName() string {
	return "room_messages"
}

func (RoomMessage) Fields() Fields {
	return roomMessageFields
}
