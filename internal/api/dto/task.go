package dto

import (
	"time"

	"github.com/goccy/go-json"
)

const TaskRoomTypeChanged = "room.type_changed"

// TaskMessage 投递到异步任务队列的消息
type TaskMessage struct {
	Task      string          `json:"task"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// RoomTypeChangedPayload 房间类型变更任务
type RoomTypeChangedPayload struct {
	RoomID  string `json:"room_id"`
	NewType string `json:"new_type"`
}
