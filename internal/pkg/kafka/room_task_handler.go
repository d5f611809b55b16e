package kafka

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// RoomRelabeler 房间类型变更后改写历史记录
type RoomRelabeler interface {
	Relabel(ctx context.Context, roomID, newType string) (int64, error)
}

type RoomTaskHandler struct {
	relabeler RoomRelabeler
}

func NewRoomTaskHandler(relabeler RoomRelabeler) *RoomTaskHandler {
	return &RoomTaskHandler{relabeler: relabeler}
}

func (s *RoomTaskHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("room task consumer setup")
	return nil
}

func (s *RoomTaskHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("room task consumer cleanup")
	return nil
}

func (s *RoomTaskHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	return nil
}

// logic 无法解析的消息直接跳过，只有执行失败才重试
func (s *RoomTaskHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	taskMsg, err := ToTaskMessage(msg, dto.TaskRoomTypeChanged)
	if err != nil {
		log.WarnContext(ctx, "skip room task", "offset", msg.Offset, "err", err)
		return nil
	}

	var payload dto.RoomTypeChangedPayload
	if err = json.Unmarshal(taskMsg.Payload, &payload); err != nil || payload.RoomID == "" || payload.NewType == "" {
		log.WarnContext(ctx, "invalid room task payload", "offset", msg.Offset, "err", err)
		return nil
	}
	if payload.NewType != model.RoomTypePublic && payload.NewType != model.RoomTypePrivate {
		log.WarnContext(ctx, "unsupported room type in task", "offset", msg.Offset,
			"room_id", payload.RoomID, "type", payload.NewType)
		return nil
	}

	n, err := s.relabeler.Relabel(ctx, payload.RoomID, payload.NewType)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "room relabeled", "room_id", payload.RoomID, "type", payload.NewType, "rows", n)
	return nil
}
