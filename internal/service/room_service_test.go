package service

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type roomFixture struct {
	db       *gorm.DB
	rooms    RoomService
	messages RoomMessageService
	tasks    *fakeTasks
	members  repository.RoomMemberRepo
}

func newRoomFixture(t *testing.T) *roomFixture {
	db := newTestDB(t)
	roomRepo := repository.NewRoomRepo(db)
	memberRepo := repository.NewRoomMemberRepo(db)
	tasks := &fakeTasks{}
	return &roomFixture{
		db:       db,
		rooms:    NewRoomService(roomRepo, memberRepo, repository.NewUserRepo(db), tasks),
		messages: NewRoomMessageService(roomRepo, memberRepo, repository.NewRoomMessageRepo(db), nil),
		tasks:    tasks,
		members:  memberRepo,
	}
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestCreateRoomCreatesAdminOwner(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")

	room, member, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{
		Name: "  General  ",
		Type: model.RoomTypePrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, "General", room.Name)
	assert.True(t, room.IsPrivate)
	assert.True(t, room.MessagesDeletable)

	require.NotNil(t, member)
	assert.True(t, member.IsAdmin)
	assert.Equal(t, room.ID, member.RoomID)

	stored, err := f.members.GetMember(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsAdmin)
	assert.Equal(t, model.RoomTypePrivate, stored.RoomType)

	_, _, err = f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "dm", Type: model.RoomTypeDirectMessage})
	assert.ErrorIs(t, err, ErrRoomTypeInvalid)
}

func TestCreateDirectMessageRoom(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	alice := seedUser(t, f.db, "alice")
	bob := seedUser(t, f.db, "bob")

	room, m1, m2, err := f.rooms.CreateDirectMessageRoom(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomTypeDirectMessage, room.Type)
	assert.Contains(t, room.Name, "DM")
	assert.True(t, m1.IsAdmin)
	assert.True(t, m2.IsAdmin)

	// 反向再次创建得到同一个房间
	again, _, _, err := f.rooms.CreateDirectMessageRoom(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)

	_, _, _, err = f.rooms.CreateDirectMessageRoom(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrConversationInvalid)
	_, _, _, err = f.rooms.CreateDirectMessageRoom(ctx, alice.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserDoesNotExist)

	rows, err := f.rooms.FetchUserDirectMessageRooms(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, alice.ID, rows[0].Peer.ID)
	assert.Equal(t, "alice", rows[0].Peer.Username)
}

func TestSearchAndMembership(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")
	guest := seedUser(t, f.db, "guest")

	public, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "Chess Lovers", Type: model.RoomTypePublic})
	require.NoError(t, err)
	private, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "Chess Staff", Type: model.RoomTypePrivate})
	require.NoError(t, err)

	found, err := f.rooms.SearchPublicRooms(ctx, "chess", repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, public.ID, found[0].ID)

	_, err = f.rooms.JoinPublicRoom(ctx, private.ID, guest.ID)
	assert.ErrorIs(t, err, ErrRoomTypeInvalid)
	_, err = f.rooms.GetRoom(ctx, private.ID, guest.ID)
	assert.ErrorIs(t, err, ErrUserNotAMember)

	member, err := f.rooms.JoinPublicRoom(ctx, public.ID, guest.ID)
	require.NoError(t, err)
	assert.False(t, member.IsAdmin)
	_, err = f.rooms.JoinPublicRoom(ctx, public.ID, guest.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	mine, err := f.rooms.FetchRoomsUserBelongsTo(ctx, owner.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, public.ID, mine[0].ID)
	assert.Equal(t, private.ID, mine[1].ID)

	members, err := f.rooms.ListMembers(ctx, public.ID, guest.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// 离开后重新加入
	require.NoError(t, f.rooms.LeaveRoom(ctx, public.ID, guest.ID))
	_, err = f.rooms.ListMembers(ctx, public.ID, guest.ID, repository.NewPage(1, 10))
	assert.ErrorIs(t, err, ErrUserNotAMember)
	member, err = f.rooms.JoinPublicRoom(ctx, public.ID, guest.ID)
	require.NoError(t, err)
	assert.False(t, member.LeftRoom)
}

func TestSetUserAsAdmin(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")
	guest := seedUser(t, f.db, "guest")
	other := seedUser(t, f.db, "other")

	room, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "lobby", Type: model.RoomTypePublic})
	require.NoError(t, err)
	_, err = f.rooms.JoinPublicRoom(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	_, err = f.rooms.SetUserAsAdmin(ctx, room.ID, guest.ID, owner.ID)
	assert.ErrorIs(t, err, ErrUserNotAnAdmin)
	_, err = f.rooms.SetUserAsAdmin(ctx, room.ID, owner.ID, other.ID)
	assert.ErrorIs(t, err, ErrUserNotAMember)

	member, err := f.rooms.SetUserAsAdmin(ctx, room.ID, owner.ID, guest.ID)
	require.NoError(t, err)
	assert.True(t, member.IsAdmin)

	isAdmin, err := f.rooms.IsUserAdmin(ctx, room.ID, guest.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	isAdmin, err = f.rooms.IsUserAdmin(ctx, room.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestUpdateRoomTypeEnqueuesRelabel(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")
	guest := seedUser(t, f.db, "guest")

	room, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "lobby", Type: model.RoomTypePublic})
	require.NoError(t, err)
	_, err = f.rooms.JoinPublicRoom(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	_, err = f.rooms.UpdateRoom(ctx, room.ID, guest.ID, &dto.UpdateRoomDTO{Name: strPtr("mine")})
	assert.ErrorIs(t, err, ErrUserNotAnAdmin)

	updated, err := f.rooms.UpdateRoom(ctx, room.ID, owner.ID, &dto.UpdateRoomDTO{
		Name: strPtr("renamed"),
		Type: strPtr(model.RoomTypePrivate),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, model.RoomTypePrivate, updated.Type)
	assert.True(t, updated.IsPrivate)
	// 调用方拿到的是新副本
	assert.Equal(t, "lobby", room.Name)

	require.Len(t, f.tasks.tasks, 1)
	task := f.tasks.tasks[0]
	assert.Equal(t, dto.TaskRoomTypeChanged, task.Task)
	assert.Equal(t, &dto.RoomTypeChangedPayload{RoomID: room.ID, NewType: model.RoomTypePrivate}, task.Payload)

	// 其他字段修改不投递任务
	_, err = f.rooms.UpdateRoom(ctx, room.ID, owner.ID, &dto.UpdateRoomDTO{MessagesDeletable: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, f.tasks.tasks, 1)
}

func TestDeleteRoom(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")
	guest := seedUser(t, f.db, "guest")

	room, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "lobby", Type: model.RoomTypePublic})
	require.NoError(t, err)
	_, err = f.rooms.JoinPublicRoom(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.rooms.DeleteRoom(ctx, room.ID, guest.ID), ErrUserNotAnAdmin)
	require.NoError(t, f.rooms.DeleteRoom(ctx, room.ID, owner.ID))
	_, err = f.rooms.GetRoom(ctx, room.ID, owner.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomMessageRules(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")
	guest := seedUser(t, f.db, "guest")
	outsider := seedUser(t, f.db, "outsider")

	room, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{
		Name:              "strict",
		Type:              model.RoomTypePublic,
		MessagesDeletable: boolPtr(false),
	})
	require.NoError(t, err)
	_, err = f.rooms.JoinPublicRoom(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	_, err = f.messages.SendMessage(ctx, room.ID, outsider.ID, &dto.SendRoomMessageDTO{Content: "hi"})
	assert.ErrorIs(t, err, ErrUserNotAMember)
	_, err = f.messages.SendMessage(ctx, "missing", guest.ID, &dto.SendRoomMessageDTO{Content: "hi"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	msg, err := f.messages.SendMessage(ctx, room.ID, guest.ID, &dto.SendRoomMessageDTO{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, model.RoomTypePublic, msg.ChatType)
	assert.Equal(t, model.MediaTypeText, msg.MediaType)

	// 非管理员不能删除，房主可以
	assert.ErrorIs(t, f.messages.DeleteMessage(ctx, room.ID, guest.ID, msg.ID), ErrCannotDeleteMessage)
	require.NoError(t, f.messages.DeleteMessage(ctx, room.ID, owner.ID, msg.ID))
	assert.ErrorIs(t, f.messages.DeleteMessage(ctx, room.ID, owner.ID, msg.ID), ErrMessageNotFound)

	msg, err = f.messages.SendMessage(ctx, room.ID, guest.ID, &dto.SendRoomMessageDTO{Content: "draft"})
	require.NoError(t, err)
	_, err = f.messages.UpdateMessage(ctx, room.ID, owner.ID, msg.ID, "hijack")
	assert.ErrorIs(t, err, ErrCannotUpdateMessage)
	edited, err := f.messages.UpdateMessage(ctx, room.ID, guest.ID, msg.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Content)
	assert.True(t, edited.IsEdited)

	// 仅管理员发言
	_, err = f.rooms.UpdateRoom(ctx, room.ID, owner.ID, &dto.UpdateRoomDTO{AllowAdminMessagesOnly: boolPtr(true)})
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, room.ID, guest.ID, &dto.SendRoomMessageDTO{Content: "again"})
	assert.ErrorIs(t, err, ErrUserNotAnAdmin)

	// 停用的房间不能发言
	_, err = f.rooms.UpdateRoom(ctx, room.ID, owner.ID, &dto.UpdateRoomDTO{IsDeactivated: boolPtr(true)})
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, room.ID, owner.ID, &dto.SendRoomMessageDTO{Content: "bye"})
	assert.ErrorIs(t, err, ErrRoomDeactivated)

	list, err := f.messages.ListMessages(ctx, room.ID, guest.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "final", list[0].Content)
}

func TestMemberDeletesOwnMessageWhenAllowed(t *testing.T) {
	ctx := context.Background()
	f := newRoomFixture(t)
	owner := seedUser(t, f.db, "owner")
	guest := seedUser(t, f.db, "guest")
	third := seedUser(t, f.db, "third")

	room, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, owner.ID, &dto.CreateRoomDTO{Name: "open", Type: model.RoomTypePublic})
	require.NoError(t, err)
	for _, u := range []*model.User{guest, third} {
		_, err = f.rooms.JoinPublicRoom(ctx, room.ID, u.ID)
		require.NoError(t, err)
	}

	msg, err := f.messages.SendMessage(ctx, room.ID, guest.ID, &dto.SendRoomMessageDTO{Content: "oops"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.messages.DeleteMessage(ctx, room.ID, third.ID, msg.ID), ErrCannotDeleteMessage)
	require.NoError(t, f.messages.DeleteMessage(ctx, room.ID, guest.ID, msg.ID))
}
