package reconciler

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	roomserrors "paradisian/internal/rooms/errors"
	userserrors "paradisian/internal/users/errors"
	"paradisian/pkg/model"
)

type world struct {
	mu       sync.Mutex
	rooms    map[string]*model.Room
	users    map[string]*model.User
	bookings map[string]*model.Booking
	locks    map[string]string
}

func newWorld() *world {
	return &world{
		rooms:    map[string]*model.Room{},
		users:    map[string]*model.User{},
		bookings: map[string]*model.Booking{},
		locks:    map[string]string{},
	}
}

func (w *world) room(id string) *model.Room {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := *w.rooms[id]
	r.Bookings = append([]model.BookingRef{}, w.rooms[id].Bookings...)
	return &r
}

func (w *world) user(id string) *model.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := *w.users[id]
	u.Bookings = append([]model.BookingRef{}, w.users[id].Bookings...)
	return &u
}

func (w *world) hasBooking(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.bookings[id]
	return ok
}

func drop(refs []model.BookingRef, id string) ([]model.BookingRef, bool) {
	for i, ref := range refs {
		if ref.ID == id {
			return append(refs[:i:i], refs[i+1:]...), true
		}
	}
	return refs, false
}

type bookingStore struct{ *world }

func (s bookingStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (s bookingStore) FindCreatedBefore(_ context.Context, cutoff time.Time, afterID string, limit int) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.CreatedAt.Before(cutoff) && b.ID > afterID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s bookingStore) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := map[string]bool{}
	for _, id := range ids {
		if _, ok := s.bookings[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (s bookingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

type roomStore struct{ *world }

func (s roomStore) FindByID(_ context.Context, id string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	c := *r
	c.Bookings = append([]model.BookingRef{}, r.Bookings...)
	return &c, nil
}

func (s roomStore) FindLinked(context.Context) ([]*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Room
	for _, r := range s.rooms {
		if len(r.Bookings) > 0 {
			c := *r
			c.Bookings = append([]model.BookingRef{}, r.Bookings...)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s roomStore) AppendBooking(_ context.Context, roomID string, ref model.BookingRef, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return roomserrors.ErrNotFound
	}
	if r.BookingsVersion != expectedVersion || r.HasBooking(ref.ID) {
		return roomserrors.ErrVersionConflict
	}
	r.Bookings = append(r.Bookings, ref)
	r.BookingsVersion++
	return nil
}

func (s roomStore) RemoveBooking(_ context.Context, roomID string, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return false, roomserrors.ErrNotFound
	}
	var removed bool
	r.Bookings, removed = drop(r.Bookings, bookingID)
	if removed {
		r.BookingsVersion++
	}
	return removed, nil
}

type userStore struct{ *world }

func (s userStore) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	c := *u
	c.Bookings = append([]model.BookingRef{}, u.Bookings...)
	return &c, nil
}

func (s userStore) FindLinked(context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.User
	for _, u := range s.users {
		if len(u.Bookings) > 0 {
			c := *u
			c.Bookings = append([]model.BookingRef{}, u.Bookings...)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s userStore) AppendBooking(_ context.Context, userID string, ref model.BookingRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return userserrors.ErrNotFound
	}
	if !u.HasBooking(ref.ID) {
		u.Bookings = append(u.Bookings, ref)
	}
	return nil
}

func (s userStore) RemoveBooking(_ context.Context, userID string, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, userserrors.ErrNotFound
	}
	var removed bool
	u.Bookings, removed = drop(u.Bookings, bookingID)
	return removed, nil
}

type lockStore struct{ *world }

func (s lockStore) Acquire(_ context.Context, lock *model.RoomLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locks[lock.ID]; held {
		return bookingserrors.ErrRoomLocked
	}
	s.locks[lock.ID] = lock.Owner
	return nil
}

func (s lockStore) Release(_ context.Context, roomID string, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[roomID] != owner {
		return bookingserrors.ErrLockNotHeld
	}
	delete(s.locks, roomID)
	return nil
}
