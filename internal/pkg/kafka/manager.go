package kafka

import (
	"Parlor/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Kafka 消费者
type ConsumerManager struct {
	roomTaskConsumer sarama.ConsumerGroup
	roomTaskHandler  sarama.ConsumerGroupHandler
}

func NewConsumerManager(cfg *config.Config, roomTaskHandler *RoomTaskHandler) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	roomTaskConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaRoomTask.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		roomTaskConsumer: roomTaskConsumer,
		roomTaskHandler:  roomTaskHandler,
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		for err := range m.roomTaskConsumer.Errors() {
			log.Error("room task consumer error", "err", err)
		}
	}()

	go func() {
		topic := cfg.KafkaRoomTask.Topic
		log.Info("Room task consumer started", "topic", topic)
		for {
			if err := m.roomTaskConsumer.Consume(ctx, []string{topic}, m.roomTaskHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.roomTaskConsumer.Close(); err != nil {
		log.Error("Failed to close room task consumer", "err", err)
	}
	return nil
}
