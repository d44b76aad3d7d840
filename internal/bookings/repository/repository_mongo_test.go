package repository

import (
	"context"
	"testing"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	"paradisian/pkg/db/mongo/mongotest"
	"paradisian/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newBooking(t *testing.T, roomID, code, in, out string) *model.Booking {
	return &model.Booking{
		RoomID:           roomID,
		UserID:           primitive.NewObjectID().Hex(),
		CheckIn:          date(t, in),
		CheckOut:         date(t, out),
		NumOfAdults:      2,
		TotalNumOfGuests: 2,
		ConfirmationCode: code,
	}
}

func TestMongoBookingRepository(t *testing.T) {
	cfg := mongotest.Config(t)
	repo := NewMongoBookingRepository(cfg)
	ctx := context.Background()

	roomA := primitive.NewObjectID().Hex()
	roomB := primitive.NewObjectID().Hex()

	first := newBooking(t, roomA, "CODE000001", "2025-07-01", "2025-07-05")
	require.NoError(t, repo.Create(ctx, first))
	require.NotEmpty(t, first.ID)

	second := newBooking(t, roomB, "CODE000002", "2025-07-10", "2025-07-12")
	require.NoError(t, repo.Create(ctx, second))

	t.Run("duplicate confirmation code", func(t *testing.T) {
		err := repo.Create(ctx, newBooking(t, roomB, "CODE000001", "2025-08-01", "2025-08-02"))
		assert.ErrorIs(t, err, bookingserrors.ErrDuplicateConfirmationCode)
	})

	t.Run("find by code", func(t *testing.T) {
		found, err := repo.FindByConfirmationCode(ctx, "CODE000002")
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)

		_, err = repo.FindByConfirmationCode(ctx, "NOPE")
		assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	})

	t.Run("distinct rooms touching a range", func(t *testing.T) {
		stay := model.NewStayRange(date(t, "2025-07-05"), date(t, "2025-07-10"))
		ids, err := repo.DistinctRoomIDsInRange(ctx, stay)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{roomA, roomB}, ids)

		stay = model.NewStayRange(date(t, "2025-07-06"), date(t, "2025-07-09"))
		ids, err = repo.DistinctRoomIDsInRange(ctx, stay)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("page created before cutoff", func(t *testing.T) {
		cutoff := time.Now().Add(time.Minute)
		page, err := repo.FindCreatedBefore(ctx, cutoff, "", 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, first.ID, page[0].ID)

		page, err = repo.FindCreatedBefore(ctx, cutoff, page[0].ID, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, second.ID, page[0].ID)
	})

	t.Run("existing ids and delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		assert.ErrorIs(t, repo.Delete(ctx, second.ID), bookingserrors.ErrNotFound)

		existing, err := repo.ExistingIDs(ctx, []string{first.ID, second.ID})
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{first.ID: true}, existing)
	})
}

func TestMongoRoomLockRepository(t *testing.T) {
	cfg := mongotest.Config(t)
	locks := NewRoomLockRepository(cfg)
	ctx := context.Background()

	roomID := primitive.NewObjectID().Hex()
	lock := &model.RoomLock{ID: roomID, Owner: "owner-a", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, locks.Acquire(ctx, lock))

	other := &model.RoomLock{ID: roomID, Owner: "owner-b", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	assert.ErrorIs(t, locks.Acquire(ctx, other), bookingserrors.ErrRoomLocked)
	assert.ErrorIs(t, locks.Release(ctx, roomID, "owner-b"), bookingserrors.ErrLockNotHeld)

	require.NoError(t, locks.Release(ctx, roomID, "owner-a"))
	require.NoError(t, locks.Acquire(ctx, other))

	// An expired lock does not block the next caller.
	expired := &model.RoomLock{ID: primitive.NewObjectID().Hex(), Owner: "owner-a", ExpiresAt: time.Now().UTC().Add(-time.Second)}
	require.NoError(t, locks.Acquire(ctx, expired))
	takeover := &model.RoomLock{ID: expired.ID, Owner: "owner-b", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	assert.NoError(t, locks.Acquire(ctx, takeover))
}
