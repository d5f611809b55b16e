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

type invitationFixture struct {
	db       *gorm.DB
	svc      *invitationServiceImpl
	rooms    RoomService
	members  repository.RoomMemberRepo
	notifier *fakeNotifier
	owner    *model.User
	guest    *model.User
	room     *model.Room
}

func newInvitationFixture(t *testing.T, allowNonAdmin bool) *invitationFixture {
	ctx := context.Background()
	db := newTestDB(t)
	roomRepo := repository.NewRoomRepo(db)
	memberRepo := repository.NewRoomMemberRepo(db)
	userRepo := repository.NewUserRepo(db)
	notifier := &fakeNotifier{}

	f := &invitationFixture{
		db:       db,
		rooms:    NewRoomService(roomRepo, memberRepo, userRepo, &fakeTasks{}),
		members:  memberRepo,
		notifier: notifier,
		owner:    seedUser(t, db, "owner"),
		guest:    seedUser(t, db, "guest"),
	}
	f.svc = NewInvitationService(repository.NewInvitationRepo(db), roomRepo, memberRepo, userRepo,
		notifier).(*invitationServiceImpl)

	room, _, err := f.rooms.CreatePublicOrPrivateRoom(ctx, f.owner.ID, &dto.CreateRoomDTO{
		Name:                     "Secret",
		Type:                     model.RoomTypePrivate,
		AllowNonAdminInvitations: &allowNonAdmin,
	})
	require.NoError(t, err)
	f.room = room
	return f
}

func TestInviteAndAccept(t *testing.T) {
	ctx := context.Background()
	f := newInvitationFixture(t, false)

	inv, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, inv.Status)
	assert.True(t, inv.ExpiresAt.After(time.Now()))

	events := f.notifier.eventsFor(f.guest.ID)
	require.Len(t, events, 1)
	assert.Equal(t, consts.EventRoomInvitation, events[0].Event)

	_, err = f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	assert.ErrorIs(t, err, ErrInvitationExist)

	pending, err := f.svc.ListPendingInvitations(ctx, f.guest.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, inv.ID, pending[0].ID)

	// 只有受邀者可以接受
	_, err = f.svc.RespondToInvitation(ctx, inv.ID, f.owner.ID, InvitationAccept)
	assert.ErrorIs(t, err, ErrInvitationNotFound)

	accepted, err := f.svc.RespondToInvitation(ctx, inv.ID, f.guest.ID, InvitationAccept)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationAccepted, accepted.Status)

	member, err := f.members.GetMember(ctx, f.room.ID, f.guest.ID)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.False(t, member.IsAdmin)
	assert.Equal(t, model.RoomTypePrivate, member.RoomType)

	_, err = f.svc.RespondToInvitation(ctx, inv.ID, f.guest.ID, InvitationDecline)
	assert.ErrorIs(t, err, ErrInvitationHandled)

	_, err = f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInvitePermissions(t *testing.T) {
	ctx := context.Background()
	f := newInvitationFixture(t, false)
	third := seedUser(t, f.db, "third")

	_, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.owner.ID)
	assert.ErrorIs(t, err, ErrParamInvalid)
	_, err = f.svc.InviteUser(ctx, "missing", f.owner.ID, f.guest.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserDoesNotExist)
	_, err = f.svc.InviteUser(ctx, f.room.ID, f.guest.ID, third.ID)
	assert.ErrorIs(t, err, ErrUserNotAMember)

	inv, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	require.NoError(t, err)
	_, err = f.svc.RespondToInvitation(ctx, inv.ID, f.guest.ID, InvitationAccept)
	require.NoError(t, err)

	// 非管理员不能邀请
	_, err = f.svc.InviteUser(ctx, f.room.ID, f.guest.ID, third.ID)
	assert.ErrorIs(t, err, ErrUserNotAnAdmin)

	_, err = f.rooms.UpdateRoom(ctx, f.room.ID, f.owner.ID, &dto.UpdateRoomDTO{AllowNonAdminInvitations: boolPtr(true)})
	require.NoError(t, err)
	byGuest, err := f.svc.InviteUser(ctx, f.room.ID, f.guest.ID, third.ID)
	require.NoError(t, err)
	assert.Equal(t, f.guest.ID, byGuest.InviterID)

	_, err = f.rooms.UpdateRoom(ctx, f.room.ID, f.owner.ID, &dto.UpdateRoomDTO{IsDeactivated: boolPtr(true)})
	require.NoError(t, err)
	other := seedUser(t, f.db, "other")
	_, err = f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, other.ID)
	assert.ErrorIs(t, err, ErrRoomDeactivated)
}

func TestDeclineThenReinvite(t *testing.T) {
	ctx := context.Background()
	f := newInvitationFixture(t, false)

	inv, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	require.NoError(t, err)
	declined, err := f.svc.RespondToInvitation(ctx, inv.ID, f.guest.ID, InvitationDecline)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationDeclined, declined.Status)

	member, err := f.members.GetMember(ctx, f.room.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Nil(t, member)

	again, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)
	assert.Equal(t, model.InvitationPending, again.Status)
}

func TestCancelInvitation(t *testing.T) {
	ctx := context.Background()
	f := newInvitationFixture(t, true)
	third := seedUser(t, f.db, "third")

	_, err := f.rooms.JoinPublicRoom(ctx, f.room.ID, third.ID)
	require.ErrorIs(t, err, ErrRoomTypeInvalid)

	inv, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	require.NoError(t, err)

	_, err = f.svc.RespondToInvitation(ctx, inv.ID, third.ID, InvitationCancel)
	assert.ErrorIs(t, err, ErrUserNotAnAdmin)
	_, err = f.svc.RespondToInvitation(ctx, inv.ID, f.guest.ID, "ignore")
	assert.ErrorIs(t, err, ErrParamInvalid)

	cancelled, err := f.svc.RespondToInvitation(ctx, inv.ID, f.owner.ID, InvitationCancel)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationCancelled, cancelled.Status)

	_, err = f.svc.RespondToInvitation(ctx, inv.ID, f.guest.ID, InvitationAccept)
	assert.ErrorIs(t, err, ErrInvitationHandled)
}

func TestInvitationExpiry(t *testing.T) {
	ctx := context.Background()
	f := newInvitationFixture(t, false)
	third := seedUser(t, f.db, "third")

	stale, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, f.guest.ID)
	require.NoError(t, err)
	fresh, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, third.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return stale.ExpiresAt.Add(time.Minute) }

	pending, err := f.svc.ListPendingInvitations(ctx, f.guest.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.RespondToInvitation(ctx, stale.ID, f.guest.ID, InvitationAccept)
	assert.ErrorIs(t, err, ErrInvitationExpired)
	_, err = f.svc.RespondToInvitation(ctx, stale.ID, f.guest.ID, InvitationAccept)
	assert.ErrorIs(t, err, ErrInvitationHandled)

	n, err := f.svc.ExpireOverdueInvitations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := repository.NewInvitationRepo(f.db).GetInvitation(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationExpired, stored.Status)

	// 过期邀请可以重新发出
	f.svc.now = time.Now
	again, err := f.svc.InviteUser(ctx, f.room.ID, f.owner.ID, third.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, again.Status)
}
