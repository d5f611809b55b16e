package kafka

import (
	"Parlor/internal/api/dto"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relabelCall struct {
	roomID, newType string
}

type fakeRelabeler struct {
	calls []relabelCall
	err   error
}

func (f *fakeRelabeler) Relabel(_ context.Context, roomID, newType string) (int64, error) {
	f.calls = append(f.calls, relabelCall{roomID: roomID, newType: newType})
	return 3, f.err
}

func taskMessage(t *testing.T, task string, payload any) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	value, err := json.Marshal(&dto.TaskMessage{Task: task, Payload: raw, CreatedAt: time.Now()})
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "room-task", Value: value}
}

func TestRoomTaskHandlerRelabels(t *testing.T) {
	relabeler := &fakeRelabeler{}
	h := NewRoomTaskHandler(relabeler)

	msg := taskMessage(t, dto.TaskRoomTypeChanged, &dto.RoomTypeChangedPayload{RoomID: "r1", NewType: "private"})
	require.NoError(t, h.logic(context.Background(), msg))
	assert.Equal(t, []relabelCall{{roomID: "r1", newType: "private"}}, relabeler.calls)
}

func TestRoomTaskHandlerSkipsMalformed(t *testing.T) {
	relabeler := &fakeRelabeler{}
	h := NewRoomTaskHandler(relabeler)
	ctx := context.Background()

	assert.NoError(t, h.logic(ctx, &sarama.ConsumerMessage{Value: []byte("{not json")}))
	assert.NoError(t, h.logic(ctx, taskMessage(t, "user.deleted", map[string]string{"id": "u1"})))
	assert.NoError(t, h.logic(ctx, taskMessage(t, dto.TaskRoomTypeChanged, map[string]string{"room_id": "r1"})))
	assert.Empty(t, relabeler.calls)
}

func TestRoomTaskHandlerSkipsUnsupportedType(t *testing.T) {
	relabeler := &fakeRelabeler{err: errors.New("should not be called")}
	h := NewRoomTaskHandler(relabeler)

	msg := taskMessage(t, dto.TaskRoomTypeChanged, &dto.RoomTypeChangedPayload{RoomID: "r1", NewType: "direct_message"})
	assert.NoError(t, h.logic(context.Background(), msg))
	assert.Empty(t, relabeler.calls)
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

func TestProcessBatchKeepsOrderPerKey(t *testing.T) {
	keys := []string{"r1", "r2", "r1", "r2", "r1"}
	messages := make([]*sarama.ConsumerMessage, 0, len(keys))
	for i, k := range keys {
		messages = append(messages, &sarama.ConsumerMessage{Key: []byte(k), Offset: int64(i)})
	}

	var mu sync.Mutex
	seen := make(map[string][]int64)
	failed := false
	logic := func(_ context.Context, m *sarama.ConsumerMessage) error {
		mu.Lock()
		defer mu.Unlock()
		// 第一次处理 offset 2 失败，重试后后续消息仍需排在它之后
		if m.Offset == 2 && !failed {
			failed = true
			return errors.New("transient")
		}
		seen[string(m.Key)] = append(seen[string(m.Key)], m.Offset)
		return nil
	}

	session := &fakeSession{ctx: context.Background()}
	processBatch(session, messages, logic)

	assert.Equal(t, []int64{0, 2, 4}, seen["r1"])
	assert.Equal(t, []int64{1, 3}, seen["r2"])
	assert.Equal(t, []int64{4}, session.marked)
}

func TestProcessBatchSkipsCommitOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := &fakeSession{ctx: ctx}

	processBatch(session, []*sarama.ConsumerMessage{{Key: []byte("r1"), Offset: 9}},
		func(context.Context, *sarama.ConsumerMessage) error { return errors.New("db down") })
	assert.Empty(t, session.marked)
}

func TestRoomTaskHandlerRetriesOnFailure(t *testing.T) {
	relabeler := &fakeRelabeler{err: errors.New("db down")}
	h := NewRoomTaskHandler(relabeler)

	msg := taskMessage(t, dto.TaskRoomTypeChanged, &dto.RoomTypeChangedPayload{RoomID: "r1", NewType: "public"})
	assert.Error(t, h.logic(context.Background(), msg))
}

func TestToTaskMessage(t *testing.T) {
	msg := taskMessage(t, dto.TaskRoomTypeChanged, &dto.RoomTypeChangedPayload{RoomID: "r1", NewType: "public"})

	taskMsg, err := ToTaskMessage(msg, dto.TaskRoomTypeChanged)
	require.NoError(t, err)
	assert.Equal(t, dto.TaskRoomTypeChanged, taskMsg.Task)

	_, err = ToTaskMessage(msg, "other")
	assert.ErrorIs(t, err, ErrTaskMismatch)
}

func TestTaskProducerPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var taskMsg dto.TaskMessage
		if err := json.Unmarshal(val, &taskMsg); err != nil {
			return err
		}
		if taskMsg.Task != dto.TaskRoomTypeChanged {
			return errors.New("unexpected task " + taskMsg.Task)
		}
		var payload dto.RoomTypeChangedPayload
		if err := json.Unmarshal(taskMsg.Payload, &payload); err != nil {
			return err
		}
		if payload.RoomID != "r1" || payload.NewType != "private" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := newTaskProducer(producer, "room-task")
	err := p.Publish(context.Background(), dto.TaskRoomTypeChanged, "r1",
		&dto.RoomTypeChangedPayload{RoomID: "r1", NewType: "private"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
