package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/pkg/util"
)

func testConfig() *config.Config {
	return &config.Config{
		Chat: config.ChatConfig{
			DefaultPageSize:   50,
			MaxPageSize:       100,
			RecentMessagesTTL: time.Hour,
			PresenceTTL:       5 * time.Minute,
			TypingTTL:         10 * time.Second,
		},
		Call: config.CallConfig{
			RingTimeout:   time.Minute,
			SweepInterval: 30 * time.Second,
		},
	}
}

func newRoomUC(repo *fakeRoomRepo) *RoomUseCase {
	return NewRoomUseCase(repo, newFakeMessageRepo(), newRecordingPublisher(), NopBroadcaster{}, testConfig())
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("direct room is idempotent in both member orders", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())

		first, err := uc.CreateRoom(ctx, CreateRoomParams{
			Type:      models.RoomTypeDirect,
			CreatorID: "alice",
			MemberIDs: []string{"bob"},
		})
		require.NoError(t, err)

		second, err := uc.CreateRoom(ctx, CreateRoomParams{
			Type:      models.RoomTypeDirect,
			CreatorID: "bob",
			MemberIDs: []string{"alice"},
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("direct room requires exactly two members", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())

		_, err := uc.CreateRoom(ctx, CreateRoomParams{
			Type:      models.RoomTypeDirect,
			CreatorID: "alice",
			MemberIDs: []string{"bob", "carol"},
		})
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})

	t.Run("creator is member and admin", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())

		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Name:      "general",
			Type:      models.RoomTypeGroup,
			CreatorID: "alice",
			MemberIDs: []string{"bob", "alice"},
		})
		require.NoError(t, err)

		assert.True(t, room.IsMember("alice"))
		assert.True(t, room.IsAdmin("alice"))
		assert.Len(t, room.MemberIDs, 2)
		assertAdminsAreMembers(t, room)
	})
}

func TestAddMember(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	setup := func(t *testing.T) (*RoomUseCase, *models.Room) {
		uc := newRoomUC(newFakeRoomRepo())
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Name:      "general",
			Type:      models.RoomTypeGroup,
			CreatorID: "alice",
			MemberIDs: []string{"bob"},
		})
		require.NoError(t, err)
		return uc, room
	}

	t.Run("member can invite", func(t *testing.T) {
		uc, room := setup(t)
		updated, err := uc.AddMember(ctx, room.ID, "bob", "carol")
		require.NoError(t, err)
		assert.True(t, updated.IsMember("carol"))
		assertAdminsAreMembers(t, updated)
	})

	t.Run("non-member cannot invite", func(t *testing.T) {
		uc, room := setup(t)
		_, err := uc.AddMember(ctx, room.ID, "mallory", "carol")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("already member conflicts", func(t *testing.T) {
		uc, room := setup(t)
		_, err := uc.AddMember(ctx, room.ID, "alice", "bob")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("direct room membership is immutable", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Type:      models.RoomTypeDirect,
			CreatorID: "alice",
			MemberIDs: []string{"bob"},
		})
		require.NoError(t, err)

		_, err = uc.AddMember(ctx, room.ID, "alice", "carol")
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})
}

func TestRemoveMember(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	setup := func(t *testing.T) (*RoomUseCase, *fakeRoomRepo, *models.Room) {
		repo := newFakeRoomRepo()
		uc := newRoomUC(repo)
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Name:      "general",
			Type:      models.RoomTypeGroup,
			CreatorID: "alice",
			MemberIDs: []string{"bob", "carol"},
		})
		require.NoError(t, err)
		return uc, repo, room
	}

	t.Run("self leave", func(t *testing.T) {
		uc, _, room := setup(t)
		require.NoError(t, uc.RemoveMember(ctx, room.ID, "bob", "bob"))

		updated, err := uc.GetRoom(ctx, room.ID, "alice")
		require.NoError(t, err)
		assert.False(t, updated.IsMember("bob"))
		assertAdminsAreMembers(t, updated)
	})

	t.Run("non-admin cannot remove others", func(t *testing.T) {
		uc, _, room := setup(t)
		err := uc.RemoveMember(ctx, room.ID, "bob", "carol")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("admin rights transfer to lowest member id", func(t *testing.T) {
		uc, _, room := setup(t)
		require.NoError(t, uc.RemoveMember(ctx, room.ID, "alice", "alice"))

		updated, err := uc.GetRoom(ctx, room.ID, "bob")
		require.NoError(t, err)
		assert.True(t, updated.IsAdmin("bob"))
		assertAdminsAreMembers(t, updated)
	})

	t.Run("room closes when last member leaves", func(t *testing.T) {
		uc, repo, room := setup(t)
		require.NoError(t, uc.RemoveMember(ctx, room.ID, "alice", "bob"))
		require.NoError(t, uc.RemoveMember(ctx, room.ID, "alice", "carol"))
		require.NoError(t, uc.RemoveMember(ctx, room.ID, "alice", "alice"))

		stored, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})

	t.Run("leaving a direct room is rejected", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Type:      models.RoomTypeDirect,
			CreatorID: "alice",
			MemberIDs: []string{"bob"},
		})
		require.NoError(t, err)

		err = uc.RemoveMember(ctx, room.ID, "alice", "alice")
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})
}

func TestUpdateRoom(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("admin renames the room", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Name:      "general",
			Type:      models.RoomTypeGroup,
			CreatorID: "alice",
			MemberIDs: []string{"bob"},
		})
		require.NoError(t, err)

		updated, err := uc.UpdateRoom(ctx, room.ID, "alice", UpdateRoomParams{
			Name: util.Ptr("announcements"),
		})
		require.NoError(t, err)
		assert.Equal(t, "announcements", updated.Name)
	})

	t.Run("non-admin cannot update", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Name:      "general",
			Type:      models.RoomTypeGroup,
			CreatorID: "alice",
			MemberIDs: []string{"bob"},
		})
		require.NoError(t, err)

		_, err = uc.UpdateRoom(ctx, room.ID, "bob", UpdateRoomParams{
			Name: util.Ptr("hijacked"),
		})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("max members below current size is rejected", func(t *testing.T) {
		uc := newRoomUC(newFakeRoomRepo())
		room, err := uc.CreateRoom(ctx, CreateRoomParams{
			Name:      "general",
			Type:      models.RoomTypeGroup,
			CreatorID: "alice",
			MemberIDs: []string{"bob", "carol"},
		})
		require.NoError(t, err)

		_, err = uc.UpdateRoom(ctx, room.ID, "alice", UpdateRoomParams{
			Settings: &models.RoomSettings{MaxMembers: 2, AllowInvites: true},
		})
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})
}

func TestListRoomsWithUnread(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	roomRepo := newFakeRoomRepo()
	msgRepo := newFakeMessageRepo()
	uc := NewRoomUseCase(roomRepo, msgRepo, newRecordingPublisher(), NopBroadcaster{}, testConfig())

	room, err := uc.CreateRoom(ctx, CreateRoomParams{
		Name:      "general",
		Type:      models.RoomTypeGroup,
		CreatorID: "alice",
		MemberIDs: []string{"bob"},
	})
	require.NoError(t, err)

	for _, content := range []string{"one", "two"} {
		require.NoError(t, msgRepo.Create(ctx, &models.Message{
			RoomID:   room.ID,
			SenderID: "alice",
			Content:  content,
			Type:     models.MessageTypeText,
		}))
	}

	listed, err := uc.ListRoomsWithUnread(ctx, "bob", 50, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, room.ID, listed[0].ID)
	assert.Equal(t, int64(2), listed[0].UnreadCount)

	listed, err = uc.ListRoomsWithUnread(ctx, "alice", 50, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Zero(t, listed[0].UnreadCount)
}

func assertAdminsAreMembers(t *testing.T, room *models.Room) {
	t.Helper()
	for _, admin := range room.AdminIDs {
		assert.True(t, util.SliceIncludes(room.MemberIDs, admin),
			"admin %s must be a member", admin)
	}
}
