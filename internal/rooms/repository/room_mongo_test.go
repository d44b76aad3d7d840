package repository

import (
	"context"
	"testing"
	"time"

	roomserrors "paradisian/internal/rooms/errors"
	"paradisian/pkg/db/mongo/mongotest"
	"paradisian/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRoom(t *testing.T, roomType string) *model.Room {
	t.Helper()
	price, err := primitive.ParseDecimal128("120.00")
	require.NoError(t, err)
	return &model.Room{RoomType: roomType, Price: price}
}

func TestMongoRoomRepository_BookingLinks(t *testing.T) {
	cfg := mongotest.Config(t)
	repo := NewMongoRoomRepository(cfg)
	ctx := context.Background()

	room := newRoom(t, "Deluxe Suite")
	require.NoError(t, repo.Create(ctx, room))

	ref := model.BookingRef{
		ID:       primitive.NewObjectID().Hex(),
		CheckIn:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
		RoomID:   room.ID,
		UserID:   primitive.NewObjectID().Hex(),
	}

	require.NoError(t, repo.AppendBooking(ctx, room.ID, ref, 0))
	assert.ErrorIs(t, repo.AppendBooking(ctx, room.ID, ref, 1), roomserrors.ErrVersionConflict, "same booking twice")

	other := ref
	other.ID = primitive.NewObjectID().Hex()
	assert.ErrorIs(t, repo.AppendBooking(ctx, room.ID, other, 0), roomserrors.ErrVersionConflict, "stale version")
	assert.ErrorIs(t, repo.AppendBooking(ctx, primitive.NewObjectID().Hex(), other, 0), roomserrors.ErrNotFound)

	loaded, err := repo.FindByID(ctx, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, loaded.BookingsVersion)
	assert.True(t, loaded.HasBooking(ref.ID))

	assert.ErrorIs(t, repo.DeleteIfUnbooked(ctx, room.ID), roomserrors.ErrHasBookings)

	linked, err := repo.FindLinked(ctx)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	removed, err := repo.RemoveBooking(ctx, room.ID, ref.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveBooking(ctx, room.ID, ref.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.DeleteIfUnbooked(ctx, room.ID))
	_, err = repo.FindByID(ctx, room.ID)
	assert.ErrorIs(t, err, roomserrors.ErrNotFound)
}

func TestMongoRoomRepository_TypeQueries(t *testing.T) {
	cfg := mongotest.Config(t)
	repo := NewMongoRoomRepository(cfg)
	ctx := context.Background()

	suite := newRoom(t, "Suite")
	single := newRoom(t, "Single")
	otherSuite := newRoom(t, "Suite")
	for _, r := range []*model.Room{suite, single, otherSuite} {
		require.NoError(t, repo.Create(ctx, r))
	}

	rooms, err := repo.FindByTypeExcluding(ctx, "suite", []string{otherSuite.ID})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, suite.ID, rooms[0].ID)

	types, err := repo.DistinctRoomTypes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Suite", "Single"}, types)

	unbooked, err := repo.FindWithNoBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, unbooked, 3)
}
