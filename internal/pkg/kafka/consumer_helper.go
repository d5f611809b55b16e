package kafka

import (
	"Parlor/internal/api/dto"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second
)

var ErrTaskMismatch = errors.New("task name not match")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 拉取一批消息并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				// 清空缓冲区并重置定时器
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 不同 key 并发处理，同一 key 按 offset 顺序执行
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, group := range groupByKey(messages) {
		wg.Add(1)

		go func(ms []*sarama.ConsumerMessage) {
			defer wg.Done()
			for _, m := range ms {
				if !handleWithRetry(session.Context(), m, logic) {
					return
				}
			}
		}(group)
	}

	wg.Wait()

	// 退出中未处理完的批次不提交
	if session.Context().Err() != nil {
		return
	}
	if len(messages) > 0 {
		lastMsg := messages[len(messages)-1]
		session.MarkMessage(lastMsg, "")
	}
}

// groupByKey 按消息 key 分组，组内保持到达顺序
func groupByKey(messages []*sarama.ConsumerMessage) [][]*sarama.ConsumerMessage {
	index := make(map[string]int)
	groups := make([][]*sarama.ConsumerMessage, 0)
	for _, m := range messages {
		k := string(m.Key)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

// handleWithRetry 失败时指数退避重试，ctx 结束返回 false
func handleWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) bool {
	var retryInterval = 100 * time.Millisecond

	for {
		err := logic(ctx, m)
		if err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}

		log.ErrorContext(ctx, "process message error",
			"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		time.Sleep(retryInterval)

		retryInterval *= 2
		if retryInterval > 5*time.Second {
			retryInterval = 5 * time.Second
		}
	}
}

// ToTaskMessage 解析任务信封，任务名不匹配时返回错误
func ToTaskMessage(msg *sarama.ConsumerMessage, task string) (*dto.TaskMessage, error) {
	var taskMsg dto.TaskMessage
	if err := json.Unmarshal(msg.Value, &taskMsg); err != nil {
		return nil, err
	}
	if taskMsg.Task != task {
		return nil, ErrTaskMismatch
	}
	if len(taskMsg.Payload) == 0 {
		return nil, errors.New("task payload is empty")
	}
	return &taskMsg, nil
}
