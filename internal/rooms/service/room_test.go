package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	roomserrors "paradisian/internal/rooms/errors"
	"paradisian/internal/rooms/validator"
	"paradisian/pkg/cache"
	"paradisian/pkg/config"
	apperrors "paradisian/pkg/errors"
	"paradisian/pkg/logger"
	"paradisian/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
	err   error
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: map[string]*model.Room{}}
}

func (f *fakeRoomRepo) add(roomType string, refs ...model.BookingRef) *model.Room {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := &model.Room{
		ID:       primitive.NewObjectID().Hex(),
		RoomType: roomType,
		Bookings: append([]model.BookingRef{}, refs...),
	}
	f.rooms[room.ID] = room
	return room
}

func (f *fakeRoomRepo) sorted(keep func(*model.Room) bool) []*model.Room {
	out := []*model.Room{}
	for _, r := range f.rooms {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRoomRepo) Create(_ context.Context, room *model.Room) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	room.ID = primitive.NewObjectID().Hex()
	room.Bookings = []model.BookingRef{}
	c := *room
	f.rooms[room.ID] = &c
	return nil
}

func (f *fakeRoomRepo) FindByID(_ context.Context, id string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeRoomRepo) FindAll(context.Context) ([]*model.Room, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(*model.Room) bool { return true }), nil
}

func (f *fakeRoomRepo) Update(_ context.Context, id string, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return roomserrors.ErrNotFound
	}
	c := *room
	f.rooms[id] = &c
	return nil
}

func (f *fakeRoomRepo) DeleteIfUnbooked(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return roomserrors.ErrNotFound
	}
	if len(r.Bookings) > 0 {
		return roomserrors.ErrHasBookings
	}
	delete(f.rooms, id)
	return nil
}

func (f *fakeRoomRepo) FindByTypeExcluding(_ context.Context, roomType string, excludedIDs []string) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := map[string]bool{}
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	return f.sorted(func(r *model.Room) bool {
		return strings.EqualFold(r.RoomType, roomType) && !excluded[r.ID]
	}), nil
}

func (f *fakeRoomRepo) FindWithNoBookings(context.Context) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(r *model.Room) bool { return len(r.Bookings) == 0 }), nil
}

func (f *fakeRoomRepo) DistinctRoomTypes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	types := []string{}
	for _, r := range f.rooms {
		if !seen[r.RoomType] {
			seen[r.RoomType] = true
			types = append(types, r.RoomType)
		}
	}
	sort.Strings(types)
	return types, nil
}

func (f *fakeRoomRepo) AppendBooking(context.Context, string, model.BookingRef, int64) error {
	return errors.New("not used")
}

func (f *fakeRoomRepo) RemoveBooking(context.Context, string, string) (bool, error) {
	return false, errors.New("not used")
}

func (f *fakeRoomRepo) FindLinked(context.Context) ([]*model.Room, error) {
	return nil, errors.New("not used")
}

// refFinder answers from the rooms' embedded summaries using the same closed
// interval test as the bookings collection query.
type refFinder struct {
	repo *fakeRoomRepo
	err  error
}

func (b refFinder) DistinctRoomIDsInRange(_ context.Context, stay model.StayRange) ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.repo.mu.Lock()
	defer b.repo.mu.Unlock()
	ids := []string{}
	for id, r := range b.repo.rooms {
		for _, ref := range r.Bookings {
			if !ref.CheckIn.After(stay.CheckOut) && !ref.CheckOut.Before(stay.CheckIn) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

type mapCache struct {
	mu      sync.Mutex
	values  map[string]any
	deleted []string
}

func newMapCache() *mapCache { return &mapCache{values: map[string]any{}} }

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *model.Room:
		*d = *(v.(*model.Room))
	case *[]string:
		*d = v.([]string)
	}
	return true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

func ref(t *testing.T, id, in, out string) model.BookingRef {
	t.Helper()
	s, err := model.ParseStayRange(in, out)
	require.NoError(t, err)
	return model.BookingRef{ID: id, CheckIn: s.CheckIn, CheckOut: s.CheckOut}
}

func stay(t *testing.T, in, out string) model.StayRange {
	t.Helper()
	s, err := model.ParseStayRange(in, out)
	require.NoError(t, err)
	return s
}

func newTestService(repo *fakeRoomRepo, c *mapCache) RoomService {
	log := logger.Discard()
	return NewRoomService(repo, refFinder{repo: repo}, c, validator.NewRoomValidator(log), &config.Config{Log: log})
}

func strPtr(s string) *string { return &s }

func TestAddRoom(t *testing.T) {
	repo := newFakeRoomRepo()
	c := newMapCache()
	c.values[cache.RoomTypesKey] = []string{"stale"}
	svc := newTestService(repo, c)

	room, err := svc.AddRoom(context.Background(), &model.RoomRequest{
		RoomType:    "  Deluxe   Suite ",
		Price:       "249.99",
		Description: "Sea view",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Deluxe Suite", room.RoomType)
	assert.Equal(t, "249.99", room.Price.String())
	assert.Empty(t, room.Bookings)

	types, err := svc.GetRoomTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Deluxe Suite"}, types)
}

func TestAddRoom_Rejected(t *testing.T) {
	tests := []struct {
		name string
		req  model.RoomRequest
		code string
	}{
		{"missing type", model.RoomRequest{Price: "10"}, apperrors.CodeValidation},
		{"non numeric price", model.RoomRequest{RoomType: "Suite", Price: "ten"}, apperrors.CodeValidation},
		{"negative price", model.RoomRequest{RoomType: "Suite", Price: "-5"}, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRoomRepo()
			svc := newTestService(repo, newMapCache())

			req := tt.req
			_, err := svc.AddRoom(context.Background(), &req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, repo.rooms)
		})
	}
}

func TestAddRoom_StorageFailure(t *testing.T) {
	repo := newFakeRoomRepo()
	repo.err = errors.New("connection reset")
	svc := newTestService(repo, newMapCache())

	_, err := svc.AddRoom(context.Background(), &model.RoomRequest{RoomType: "Suite", Price: "100"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageFailure))
}

func TestUpdateRoom(t *testing.T) {
	repo := newFakeRoomRepo()
	existing := repo.add("Suite")
	c := newMapCache()
	svc := newTestService(repo, c)

	_, err := svc.GetRoomByID(context.Background(), existing.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateRoom(context.Background(), existing.ID, &model.RoomUpdate{
		Price:       strPtr("180"),
		Description: strPtr("Renovated"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Suite", updated.RoomType)
	assert.Equal(t, "180", updated.Price.String())
	assert.Equal(t, "Renovated", updated.Description)

	got, err := svc.GetRoomByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renovated", got.Description, "cache entry should have been dropped")
}

func TestUpdateRoom_Errors(t *testing.T) {
	repo := newFakeRoomRepo()
	existing := repo.add("Suite")
	svc := newTestService(repo, newMapCache())

	_, err := svc.UpdateRoom(context.Background(), existing.ID, &model.RoomUpdate{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = svc.UpdateRoom(context.Background(), "missing", &model.RoomUpdate{Price: strPtr("1")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.UpdateRoom(context.Background(), existing.ID, &model.RoomUpdate{RoomType: strPtr("X")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestDeleteRoom(t *testing.T) {
	repo := newFakeRoomRepo()
	free := repo.add("Suite")
	booked := repo.add("Suite", ref(t, "b1", "2025-05-10", "2025-05-12"))
	c := newMapCache()
	svc := newTestService(repo, c)

	err := svc.DeleteRoom(context.Background(), booked.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	require.NoError(t, svc.DeleteRoom(context.Background(), free.ID))
	assert.Contains(t, c.deleted, cache.RoomKey(free.ID))

	err = svc.DeleteRoom(context.Background(), free.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestGetRoomByID_UsesCache(t *testing.T) {
	repo := newFakeRoomRepo()
	existing := repo.add("Suite")
	c := newMapCache()
	svc := newTestService(repo, c)

	_, err := svc.GetRoomByID(context.Background(), existing.ID)
	require.NoError(t, err)

	repo.mu.Lock()
	delete(repo.rooms, existing.ID)
	repo.mu.Unlock()

	got, err := svc.GetRoomByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)

	_, err = svc.GetRoomByID(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestFindAvailableRooms(t *testing.T) {
	repo := newFakeRoomRepo()
	touchingEnd := repo.add("Suite", ref(t, "b1", "2025-05-01", "2025-05-10"))
	touchingStart := repo.add("Suite", ref(t, "b2", "2025-05-15", "2025-05-18"))
	inside := repo.add("Suite", ref(t, "b3", "2025-05-11", "2025-05-12"))
	clear := repo.add("Suite", ref(t, "b4", "2025-04-01", "2025-04-05"))
	empty := repo.add("suite")
	otherType := repo.add("Single")
	svc := newTestService(repo, newMapCache())

	rooms, err := svc.FindAvailableRooms(context.Background(), stay(t, "2025-05-10", "2025-05-15"), "SUITE")
	require.NoError(t, err)

	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{clear.ID, empty.ID}, ids)
	assert.NotContains(t, ids, touchingEnd.ID)
	assert.NotContains(t, ids, touchingStart.ID)
	assert.NotContains(t, ids, inside.ID)
	assert.NotContains(t, ids, otherType.ID)
}

func TestFindAvailableRooms_Errors(t *testing.T) {
	repo := newFakeRoomRepo()
	svc := newTestService(repo, newMapCache())

	_, err := svc.FindAvailableRooms(context.Background(), stay(t, "2025-05-15", "2025-05-10"), "Suite")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange))

	_, err = svc.FindAvailableRooms(context.Background(), stay(t, "2025-05-10", "2025-05-15"), "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	failing := NewRoomService(repo, refFinder{repo: repo, err: errors.New("timeout")}, nil,
		validator.NewRoomValidator(logger.Discard()), &config.Config{Log: logger.Discard()})
	_, err = failing.FindAvailableRooms(context.Background(), stay(t, "2025-05-10", "2025-05-15"), "Suite")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageFailure))
}

func TestListFullyAvailableRooms(t *testing.T) {
	repo := newFakeRoomRepo()
	repo.add("Suite", ref(t, "b1", "2025-05-01", "2025-05-10"))
	free := repo.add("Single")
	svc := newTestService(repo, newMapCache())

	rooms, err := svc.ListFullyAvailableRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, free.ID, rooms[0].ID)
}

func TestFindAvailableRooms_OnlyUnbookedDeluxe(t *testing.T) {
	repo := newFakeRoomRepo()
	repo.add("Deluxe", ref(t, "b1", "2024-06-01", "2024-06-05"))
	free := repo.add("Deluxe")
	svc := newTestService(repo, newMapCache())

	rooms, err := svc.FindAvailableRooms(context.Background(), stay(t, "2024-06-02", "2024-06-04"), "Deluxe")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, free.ID, rooms[0].ID)
}
