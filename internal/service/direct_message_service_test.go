package service

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/pkg/consts"
	"Parlor/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type dmFixture struct {
	db       *gorm.DB
	svc      *directMessageServiceImpl
	notifier *fakeNotifier
	x, y, z  *model.User
}

func newDMFixture(t *testing.T) *dmFixture {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewDirectMessageService(
		repository.NewConversationRepo(db),
		repository.NewDirectMessageRepo(db),
		repository.NewUserRepo(db),
		notifier,
		nil,
	).(*directMessageServiceImpl)
	return &dmFixture{
		db:       db,
		svc:      svc,
		notifier: notifier,
		x:        seedUser(t, db, "xavier"),
		y:        seedUser(t, db, "yvonne"),
		z:        seedUser(t, db, "zed"),
	}
}

func (f *dmFixture) send(t *testing.T, from, to *model.User, content string) *dto.DirectMessageDTO {
	t.Helper()
	msg, err := f.svc.SendMessage(context.Background(), from.ID, &dto.SendDirectMessageDTO{
		RecipientID: to.ID,
		Content:     content,
	})
	require.NoError(t, err)
	return msg
}

func (f *dmFixture) unreadFor(t *testing.T, user *model.User, convID string) int64 {
	t.Helper()
	page, err := f.svc.ListConversations(context.Background(), user.ID, repository.NewPage(1, 50))
	require.NoError(t, err)
	for _, item := range page.Items {
		if item.ConversationID == convID {
			return item.UnreadMessageCount
		}
	}
	t.Fatalf("conversation %s not listed for %s", convID, user.Username)
	return 0
}

func TestGetOrCreateConversationIsSymmetric(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)

	ab, err := f.svc.GetOrCreateConversation(ctx, f.x.ID, f.y.ID)
	require.NoError(t, err)
	ba, err := f.svc.GetOrCreateConversation(ctx, f.y.ID, f.x.ID)
	require.NoError(t, err)
	assert.Equal(t, ab.ID, ba.ID)

	low, high := model.CanonicalPair(f.x.ID, f.y.ID)
	assert.Equal(t, low, ab.SenderID)
	assert.Equal(t, high, ab.RecipientID)

	_, err = f.svc.GetOrCreateConversation(ctx, f.x.ID, f.x.ID)
	assert.ErrorIs(t, err, ErrConversationInvalid)
}

// racingConversationRepo 首次查询返回未找到，模拟另一个请求抢先创建了会话
type racingConversationRepo struct {
	repository.ConversationRepo
	misses int
}

func (r *racingConversationRepo) GetConversationByPair(ctx context.Context, a, b string) (*model.DirectConversation, error) {
	if r.misses > 0 {
		r.misses--
		return nil, nil
	}
	return r.ConversationRepo.GetConversationByPair(ctx, a, b)
}

func TestGetOrCreateConversationRetriesOnDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)

	existing, err := f.svc.GetOrCreateConversation(ctx, f.x.ID, f.y.ID)
	require.NoError(t, err)

	racing := &racingConversationRepo{ConversationRepo: repository.NewConversationRepo(f.db), misses: 1}
	svc := NewDirectMessageService(racing, repository.NewDirectMessageRepo(f.db), repository.NewUserRepo(f.db), nil, nil)

	conv, err := svc.GetOrCreateConversation(ctx, f.y.ID, f.x.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conv.ID)
	assert.Zero(t, racing.misses)
}

func TestSendAndReadEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)

	first := f.send(t, f.x, f.y, "Hello")
	assert.Equal(t, model.MessageStatusSent, first.Status)
	assert.NotEmpty(t, first.ConversationID)
	assert.Equal(t, int64(1), f.unreadFor(t, f.y, first.ConversationID))

	second := f.send(t, f.x, f.y, "Hello again")
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, int64(2), f.unreadFor(t, f.y, first.ConversationID))
	// 发送者自己没有未读
	assert.Equal(t, int64(0), f.unreadFor(t, f.x, first.ConversationID))

	pushed := f.notifier.eventsFor(f.y.ID)
	require.Len(t, pushed, 2)
	assert.Equal(t, consts.EventDirectMessage, pushed[0].Event)

	n, err := f.svc.MarkConversationRead(ctx, first.ConversationID, f.y.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(0), f.unreadFor(t, f.y, first.ConversationID))

	receipts := f.notifier.eventsFor(f.x.ID)
	require.Len(t, receipts, 1)
	assert.Equal(t, consts.EventReadReceipt, receipts[0].Event)

	page, err := f.svc.ListConversations(ctx, f.y.ID, repository.NewPage(1, 50))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.Equal(t, f.x.ID, item.Peer.ID)
	assert.Equal(t, "xavier", item.Peer.Username)
	require.NotNil(t, item.LastMessage)
	assert.Equal(t, second.ID, item.LastMessage.ID)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestMarkSingleMessageRead(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)
	msg := f.send(t, f.x, f.y, "ping")

	// 发送者标记不生效
	same, err := f.svc.MarkRead(ctx, msg.ID, f.x.ID)
	require.NoError(t, err)
	assert.Nil(t, same.ReadAt)

	_, err = f.svc.MarkRead(ctx, msg.ID, f.z.ID)
	assert.ErrorIs(t, err, ErrNotAParticipant)

	read, err := f.svc.MarkRead(ctx, msg.ID, f.y.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	assert.Equal(t, model.MessageStatusDelivered, read.Status)
	assert.Equal(t, int64(0), f.unreadFor(t, f.y, msg.ConversationID))
}

func TestListConversationsOrderedByActivity(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)

	withY := f.send(t, f.x, f.y, "to y")
	time.Sleep(5 * time.Millisecond)
	withZ := f.send(t, f.x, f.z, "to z")

	page, err := f.svc.ListConversations(ctx, f.x.ID, repository.NewPage(1, 50))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, withZ.ConversationID, page.Items[0].ConversationID)
	assert.Equal(t, withY.ConversationID, page.Items[1].ConversationID)

	time.Sleep(5 * time.Millisecond)
	f.send(t, f.y, f.x, "reply")
	page, err = f.svc.ListConversations(ctx, f.x.ID, repository.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, withY.ConversationID, page.Items[0].ConversationID)
}

func TestPeerDeleteDoesNotReorderConversations(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)

	withY := f.send(t, f.x, f.y, "to y")
	time.Sleep(5 * time.Millisecond)
	withZ := f.send(t, f.x, f.z, "to z")
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, f.svc.DeleteConversationForSide(ctx, withY.ConversationID, f.y.ID))

	page, err := f.svc.ListConversations(ctx, f.x.ID, repository.NewPage(1, 50))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, withZ.ConversationID, page.Items[0].ConversationID)
	assert.Equal(t, withY.ConversationID, page.Items[1].ConversationID)
}

func TestListMessagesRequiresParticipant(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)
	first := f.send(t, f.x, f.y, "one")
	f.send(t, f.y, f.x, "two")

	msgs, err := f.svc.ListMessages(ctx, first.ConversationID, f.y.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)

	_, err = f.svc.ListMessages(ctx, first.ConversationID, f.z.ID, repository.NewPage(1, 10))
	assert.ErrorIs(t, err, ErrNotAParticipant)
	_, err = f.svc.ListMessages(ctx, "missing", f.x.ID, repository.NewPage(1, 10))
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSoftDeleteIsPerSide(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)
	msg := f.send(t, f.x, f.y, "secret")
	page := repository.NewPage(1, 10)

	require.NoError(t, f.svc.DeleteMessageForSide(ctx, msg.ID, f.x.ID))

	forX, err := f.svc.ListMessages(ctx, msg.ConversationID, f.x.ID, page)
	require.NoError(t, err)
	assert.Empty(t, forX)
	forY, err := f.svc.ListMessages(ctx, msg.ConversationID, f.y.ID, page)
	require.NoError(t, err)
	require.Len(t, forY, 1)
	assert.Equal(t, msg.ID, forY[0].ID)

	// 已在自己一侧删除的消息不能再次操作
	assert.ErrorIs(t, f.svc.DeleteMessageForSide(ctx, msg.ID, f.x.ID), ErrMessageNotFound)

	require.NoError(t, f.svc.DeleteMessageForSide(ctx, msg.ID, f.y.ID))
	forY, err = f.svc.ListMessages(ctx, msg.ConversationID, f.y.ID, page)
	require.NoError(t, err)
	assert.Empty(t, forY)

	stored, err := repository.NewDirectMessageRepo(f.db).GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEditMessage(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)
	msg := f.send(t, f.x, f.y, "typo")

	_, err := f.svc.EditMessage(ctx, msg.ID, f.y.ID, "not mine")
	assert.ErrorIs(t, err, ErrCannotUpdateMessage)
	_, err = f.svc.EditMessage(ctx, msg.ID, f.z.ID, "intruder")
	assert.ErrorIs(t, err, ErrNotAParticipant)

	edited, err := f.svc.EditMessage(ctx, msg.ID, f.x.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)
	assert.True(t, edited.IsEdited)
	// 原对象不受影响
	assert.Equal(t, "typo", msg.Content)
}

func TestDeleteMessageForEveryone(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)
	msg := f.send(t, f.x, f.y, "recall me")

	assert.ErrorIs(t, f.svc.DeleteMessageForEveryone(ctx, msg.ID, f.y.ID), ErrCannotDeleteMessage)

	f.svc.now = func() time.Time { return msg.CreatedAt.Add(time.Hour) }
	assert.ErrorIs(t, f.svc.DeleteMessageForEveryone(ctx, msg.ID, f.x.ID), ErrRecallTimeout)

	f.svc.now = time.Now
	require.NoError(t, f.svc.DeleteMessageForEveryone(ctx, msg.ID, f.x.ID))
	forY, err := f.svc.ListMessages(ctx, msg.ConversationID, f.y.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, forY)

	events := f.notifier.eventsFor(f.y.ID)
	require.NotEmpty(t, events)
	assert.Equal(t, consts.EventMessageRecalled, events[len(events)-1].Event)
}

func TestDeleteConversationForSideAndRevive(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)
	first := f.send(t, f.x, f.y, "hi")

	require.NoError(t, f.svc.DeleteConversationForSide(ctx, first.ConversationID, f.y.ID))

	page, err := f.svc.ListConversations(ctx, f.y.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	page, err = f.svc.ListConversations(ctx, f.x.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	// 新消息让会话重新出现，旧消息仍然隐藏
	f.send(t, f.x, f.y, "are you there?")
	page, err = f.svc.ListConversations(ctx, f.y.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].UnreadMessageCount)

	msgs, err := f.svc.ListMessages(ctx, first.ConversationID, f.y.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "are you there?", msgs[0].Content)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	f := newDMFixture(t)

	_, err := f.svc.SendMessage(ctx, f.x.ID, &dto.SendDirectMessageDTO{RecipientID: f.x.ID, Content: "me"})
	assert.ErrorIs(t, err, ErrConversationInvalid)
	_, err = f.svc.SendMessage(ctx, f.x.ID, &dto.SendDirectMessageDTO{RecipientID: "ghost", Content: "boo"})
	assert.ErrorIs(t, err, ErrUserDoesNotExist)
	_, err = f.svc.SendMessage(ctx, f.x.ID, &dto.SendDirectMessageDTO{RecipientID: f.y.ID, Content: "   "})
	assert.ErrorIs(t, err, ErrParamInvalid)

	other := f.send(t, f.x, f.z, "elsewhere")
	_, err = f.svc.SendMessage(ctx, f.x.ID, &dto.SendDirectMessageDTO{
		RecipientID:     f.y.ID,
		Content:         "reply",
		ParentMessageID: &other.ID,
	})
	assert.ErrorIs(t, err, ErrMessageNotFound)

	parent := f.send(t, f.y, f.x, "question")
	reply, err := f.svc.SendMessage(ctx, f.x.ID, &dto.SendDirectMessageDTO{
		RecipientID:     f.y.ID,
		Content:         "answer",
		ParentMessageID: &parent.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentMessageID)
	assert.Equal(t, parent.ID, *reply.ParentMessageID)
}
