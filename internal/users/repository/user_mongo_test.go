package repository

import (
	"context"
	"testing"
	"time"

	userserrors "paradisian/internal/users/errors"
	"paradisian/pkg/config"
	"paradisian/pkg/db/mongo/mongotest"
	"paradisian/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(email, phone string) *model.User {
	return &model.User{
		Name:         "Ada Guest",
		Email:        email,
		PhoneNumber:  phone,
		Role:         config.RoleUser,
		PasswordHash: "$2a$04$hash",
	}
}

func TestMongoUserRepository(t *testing.T) {
	cfg := mongotest.Config(t)
	repo := NewMongoUserRepository(cfg)
	ctx := context.Background()

	ada := newUser("ada@example.com", "+12015550123")
	require.NoError(t, repo.Create(ctx, ada))
	require.NotEmpty(t, ada.ID)

	assert.ErrorIs(t, repo.Create(ctx, newUser("ada@example.com", "+12015550199")), userserrors.ErrEmailTaken)
	assert.ErrorIs(t, repo.Create(ctx, newUser("bob@example.com", "+12015550123")), userserrors.ErrPhoneTaken)

	found, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, found.ID)
	assert.Equal(t, "$2a$04$hash", found.PasswordHash)

	require.NoError(t, repo.UpdateName(ctx, ada.ID, "Ada Lovelace"))
	found, err = repo.FindByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", found.Name)

	ref := model.BookingRef{
		ID:       primitive.NewObjectID().Hex(),
		CheckIn:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		RoomID:   primitive.NewObjectID().Hex(),
		UserID:   ada.ID,
	}
	require.NoError(t, repo.AppendBooking(ctx, ada.ID, ref))
	require.NoError(t, repo.AppendBooking(ctx, ada.ID, ref))

	found, err = repo.FindByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Len(t, found.Bookings, 1, "appending twice keeps one summary")

	assert.ErrorIs(t, repo.DeleteIfUnbooked(ctx, ada.ID), userserrors.ErrHasBookings)

	removed, err := repo.RemoveBooking(ctx, ada.ID, ref.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, repo.DeleteIfUnbooked(ctx, ada.ID))
	_, err = repo.FindByID(ctx, ada.ID)
	assert.ErrorIs(t, err, userserrors.ErrNotFound)
}
