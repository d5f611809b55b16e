package kafka

import (
	"Parlor/internal/api/config"
	"Parlor/internal/api/dto"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// TaskProducer 把后台任务投递到 Kafka，不关心任务的执行结果
type TaskProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewTaskProducer(cfg *config.Config) (*TaskProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.KafkaRoomTask.Topic == "" {
		return nil, errors.New("kafka brokers or task topic not configured")
	}
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return newTaskProducer(producer, cfg.KafkaRoomTask.Topic), nil
}

func newTaskProducer(producer sarama.SyncProducer, topic string) *TaskProducer {
	return &TaskProducer{producer: producer, topic: topic}
}

// Publish 同一个 key 的任务落在同一分区，消费端按 key 串行处理
func (p *TaskProducer) Publish(ctx context.Context, task, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(&dto.TaskMessage{
		Task:      task,
		Payload:   raw,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "task published", "task", task, "key", key, "partition", partition, "offset", offset)
	return nil
}

func (p *TaskProducer) Close() error {
	return p.producer.Close()
}
