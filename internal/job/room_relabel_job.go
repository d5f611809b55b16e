package job

import (
	"Parlor/internal/api/config"
	"Parlor/internal/model"
	"Parlor/internal/repository"
	"context"
	log "log/slog"
)

// RoomRelabelJob 房间类型变更后分批改写历史消息与成员记录
type RoomRelabelJob struct {
	roomRepo repository.RoomRepo
}

func NewRoomRelabelJob(roomRepo repository.RoomRepo) *RoomRelabelJob {
	return &RoomRelabelJob{roomRepo: roomRepo}
}

// Relabel 以房间当前类型为准改写，任务里携带的类型只用于日志
func (s *RoomRelabelJob) Relabel(ctx context.Context, roomID, newType string) (int64, error) {
	room, err := s.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if room == nil {
		log.WarnContext(ctx, "skip relabel, room not found", "room_id", roomID)
		return 0, nil
	}
	if room.Type != model.RoomTypePublic && room.Type != model.RoomTypePrivate {
		log.WarnContext(ctx, "skip relabel, unsupported room type", "room_id", roomID, "type", room.Type)
		return 0, nil
	}
	if room.Type != newType {
		log.InfoContext(ctx, "room type changed again, relabel to current", "room_id", roomID,
			"task_type", newType, "current_type", room.Type)
	}

	batch := config.Cfg.Chat.RelabelBatchSize
	if batch <= 0 {
		batch = 1000
	}
	return s.roomRepo.RelabelRoomType(ctx, roomID, room.Type, batch)
}
