package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-relay/internal/domain"
	"voice-relay/internal/repository/memory"
)

type fakeDropper struct {
	mu      sync.Mutex
	dropped []string
}

func (f *fakeDropper) DropRoom(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, roomID)
}

func newServices(t *testing.T, multiRoom bool) (*UserService, *RoomService, *fakeDropper) {
	t.Helper()
	userRepo := memory.NewUserRepository()
	dropper := &fakeDropper{}
	users := NewUserService(userRepo)
	rooms := NewRoomService(memory.NewRoomRepository(), userRepo, dropper, multiRoom)
	return users, rooms, dropper
}

func TestRegisterAssignsID(t *testing.T) {
	users, _, _ := newServices(t, false)

	alice, err := users.Register("alice", "conn1")
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)

	bob, err := users.Register("bob", "conn2")
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, bob.ID)
}

func TestJoinAddsMemberAndSetsPrimaryRoom(t *testing.T) {
	users, rooms, _ := newServices(t, false)

	alice, err := users.Register("alice", "conn1")
	require.NoError(t, err)
	room, err := rooms.CreateRoom("standup")
	require.NoError(t, err)

	require.NoError(t, rooms.Join(alice.ID, room.ID))

	got, err := rooms.GetRoom(room.ID)
	require.NoError(t, err)
	assert.True(t, got.HasMember(alice.ID))

	u, err := users.GetUser(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, u.RoomID)
}

func TestJoinIsIdempotent(t *testing.T) {
	users, rooms, _ := newServices(t, false)

	alice, _ := users.Register("alice", "conn1")
	room, _ := rooms.CreateRoom("standup")

	require.NoError(t, rooms.Join(alice.ID, room.ID))
	require.NoError(t, rooms.Join(alice.ID, room.ID))

	got, _ := rooms.GetRoom(room.ID)
	assert.Len(t, got.Members, 1)
}

func TestSingleRoomJoinMovesUser(t *testing.T) {
	users, rooms, _ := newServices(t, false)

	alice, _ := users.Register("alice", "conn1")
	first, _ := rooms.CreateRoom("first")
	second, _ := rooms.CreateRoom("second")

	require.NoError(t, rooms.Join(alice.ID, first.ID))
	require.NoError(t, rooms.Join(alice.ID, second.ID))

	f, _ := rooms.GetRoom(first.ID)
	s, _ := rooms.GetRoom(second.ID)
	assert.False(t, f.HasMember(alice.ID))
	assert.True(t, s.HasMember(alice.ID))

	u, _ := users.GetUser(alice.ID)
	assert.Equal(t, second.ID, u.RoomID)
	assert.Empty(t, u.SideRoomIDs)
}

func TestMultiRoomJoinKeepsBothRooms(t *testing.T) {
	users, rooms, _ := newServices(t, true)

	alice, _ := users.Register("alice", "conn1")
	first, _ := rooms.CreateRoom("first")
	second, _ := rooms.CreateRoom("second")

	require.NoError(t, rooms.Join(alice.ID, first.ID))
	require.NoError(t, rooms.Join(alice.ID, second.ID))

	f, _ := rooms.GetRoom(first.ID)
	s, _ := rooms.GetRoom(second.ID)
	assert.True(t, f.HasMember(alice.ID))
	assert.True(t, s.HasMember(alice.ID))

	u, _ := users.GetUser(alice.ID)
	assert.Equal(t, first.ID, u.RoomID)
	assert.Equal(t, []string{second.ID}, u.SideRoomIDs)
}

func TestLeavePromotesSideRoom(t *testing.T) {
	users, rooms, _ := newServices(t, true)

	alice, _ := users.Register("alice", "conn1")
	first, _ := rooms.CreateRoom("first")
	second, _ := rooms.CreateRoom("second")
	require.NoError(t, rooms.Join(alice.ID, first.ID))
	require.NoError(t, rooms.Join(alice.ID, second.ID))

	require.NoError(t, rooms.Leave(alice.ID, first.ID))

	u, _ := users.GetUser(alice.ID)
	assert.Equal(t, second.ID, u.RoomID)
	assert.Empty(t, u.SideRoomIDs)

	f, _ := rooms.GetRoom(first.ID)
	assert.False(t, f.HasMember(alice.ID))
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	users, rooms, _ := newServices(t, false)

	alice, _ := users.Register("alice", "conn1")
	require.NoError(t, rooms.Leave(alice.ID, "missing"))
	require.NoError(t, rooms.Leave(alice.ID, ""))
}

func TestJoinMissingRoomOrUserFails(t *testing.T) {
	users, rooms, _ := newServices(t, false)

	alice, _ := users.Register("alice", "conn1")
	room, _ := rooms.CreateRoom("standup")

	assert.ErrorIs(t, rooms.Join(alice.ID, "missing"), domain.ErrRoomNotFound)
	assert.ErrorIs(t, rooms.Join("ghost", room.ID), domain.ErrUserNotFound)
}

func TestDeleteRoomClearsMembersAndDropsRelayState(t *testing.T) {
	users, rooms, dropper := newServices(t, false)

	alice, _ := users.Register("alice", "conn1")
	room, _ := rooms.CreateRoom("standup")
	require.NoError(t, rooms.Join(alice.ID, room.ID))

	require.NoError(t, rooms.DeleteRoom(room.ID))

	_, err := rooms.GetRoom(room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	u, _ := users.GetUser(alice.ID)
	assert.Empty(t, u.RoomID)
	assert.Equal(t, []string{room.ID}, dropper.dropped)
}

func TestLeaveAllClearsEverything(t *testing.T) {
	users, rooms, _ := newServices(t, true)

	alice, _ := users.Register("alice", "conn1")
	first, _ := rooms.CreateRoom("first")
	second, _ := rooms.CreateRoom("second")
	require.NoError(t, rooms.Join(alice.ID, first.ID))
	require.NoError(t, rooms.Join(alice.ID, second.ID))

	require.NoError(t, rooms.LeaveAll(alice.ID))

	u, _ := users.GetUser(alice.ID)
	assert.Empty(t, u.RoomID)
	assert.Empty(t, u.SideRoomIDs)

	f, _ := rooms.GetRoom(first.ID)
	s, _ := rooms.GetRoom(second.ID)
	assert.Empty(t, f.Members)
	assert.Empty(t, s.Members)

	// unknown users are tolerated on disconnect paths
	require.NoError(t, rooms.LeaveAll("ghost"))
}

func TestSetInCall(t *testing.T) {
	users, _, _ := newServices(t, false)

	alice, _ := users.Register("alice", "conn1")
	require.NoError(t, users.SetInCall(alice.ID, true))

	u, _ := users.GetUser(alice.ID)
	assert.True(t, u.InCall)

	assert.ErrorIs(t, users.SetInCall("ghost", true), domain.ErrUserNotFound)
}
