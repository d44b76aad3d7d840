package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	roomserrors "paradisian/internal/rooms/errors"
	userserrors "paradisian/internal/users/errors"
	"paradisian/pkg/model"
)

// memStore keeps rooms, users, bookings and locks in memory and follows the
// same conditional write rules as the Mongo repositories.
type memStore struct {
	mu       sync.Mutex
	rooms    map[string]*model.Room
	users    map[string]*model.User
	bookings map[string]*model.Booking
	locks    map[string]model.RoomLock
	nextID   int

	// beforeRoomAppend runs outside the lock ahead of every room append.
	beforeRoomAppend func()

	// When set, the next user or room append fails with this outcome.
	userAppendFault *writeFault
	roomAppendFault *writeFault
}

// writeFault makes a write return err, optionally after applying it, the
// way a timeout can hide a write that reached the server.
type writeFault struct {
	applied bool
	err     error
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    map[string]*model.Room{},
		users:    map[string]*model.User{},
		bookings: map[string]*model.Booking{},
		locks:    map[string]model.RoomLock{},
	}
}

func (m *memStore) addRoom(id, roomType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[id] = &model.Room{ID: id, RoomType: roomType, Bookings: []model.BookingRef{}}
}

func (m *memStore) addUser(id, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &model.User{ID: id, Email: email, Role: "USER", Bookings: []model.BookingRef{}}
}

func (m *memStore) room(id string) *model.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRoom(m.rooms[id])
}

func (m *memStore) user(id string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneUser(m.users[id])
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) lockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func cloneRoom(r *model.Room) *model.Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Bookings = append([]model.BookingRef{}, r.Bookings...)
	return &c
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Bookings = append([]model.BookingRef{}, u.Bookings...)
	return &c
}

func removeRef(refs []model.BookingRef, id string) ([]model.BookingRef, bool) {
	for i, ref := range refs {
		if ref.ID == id {
			return append(refs[:i:i], refs[i+1:]...), true
		}
	}
	return refs, false
}

type memBookings struct{ *memStore }

func (m memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.ConfirmationCode == b.ConfirmationCode {
			return bookingserrors.ErrDuplicateConfirmationCode
		}
	}
	m.nextID++
	b.ID = fmt.Sprintf("booking-%03d", m.nextID)
	b.CreatedAt = time.Now().UTC()
	c := *b
	m.bookings[b.ID] = &c
	return nil
}

func (m memBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (m memBookings) FindByConfirmationCode(_ context.Context, code string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ConfirmationCode == code {
			c := *b
			return &c, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m memBookings) FindAll(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		c := *b
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if int(offset) >= len(all) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m memBookings) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bookings)), nil
}

func (m memBookings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

type memRooms struct{ *memStore }

func (m memRooms) FindByID(_ context.Context, id string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return cloneRoom(r), nil
}

func (m memRooms) AppendBooking(_ context.Context, roomID string, ref model.BookingRef, expectedVersion int64) error {
	if hook := m.beforeRoomAppend; hook != nil {
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return roomserrors.ErrNotFound
	}
	if r.BookingsVersion != expectedVersion || r.HasBooking(ref.ID) {
		return roomserrors.ErrVersionConflict
	}
	if fault := m.roomAppendFault; fault != nil {
		m.roomAppendFault = nil
		if fault.applied {
			r.Bookings = append(r.Bookings, ref)
			r.BookingsVersion++
		}
		return fault.err
	}
	r.Bookings = append(r.Bookings, ref)
	r.BookingsVersion++
	return nil
}

func (m memRooms) RemoveBooking(_ context.Context, roomID string, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return false, roomserrors.ErrNotFound
	}
	var removed bool
	r.Bookings, removed = removeRef(r.Bookings, bookingID)
	if removed {
		r.BookingsVersion++
	}
	return removed, nil
}

type memUsers struct{ *memStore }

func (m memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m memUsers) AppendBooking(_ context.Context, userID string, ref model.BookingRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return userserrors.ErrNotFound
	}
	if fault := m.userAppendFault; fault != nil {
		m.userAppendFault = nil
		if fault.applied && !u.HasBooking(ref.ID) {
			u.Bookings = append(u.Bookings, ref)
		}
		return fault.err
	}
	if !u.HasBooking(ref.ID) {
		u.Bookings = append(u.Bookings, ref)
	}
	return nil
}

func (m memUsers) RemoveBooking(_ context.Context, userID string, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, userserrors.ErrNotFound
	}
	var removed bool
	u.Bookings, removed = removeRef(u.Bookings, bookingID)
	return removed, nil
}

type memLocks struct{ *memStore }

func (m memLocks) Acquire(_ context.Context, lock *model.RoomLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.locks[lock.ID]; ok && held.ExpiresAt.After(time.Now()) {
		return bookingserrors.ErrRoomLocked
	}
	m.locks[lock.ID] = *lock
	return nil
}

func (m memLocks) Release(_ context.Context, roomID string, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.locks[roomID]; !ok || held.Owner != owner {
		return bookingserrors.ErrLockNotHeld
	}
	delete(m.locks, roomID)
	return nil
}

// scriptedCodes hands out codes in order and then falls back to a counter.
type scriptedCodes struct {
	mu    sync.Mutex
	codes []string
	n     int
}

func (g *scriptedCodes) Generate(length int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) > 0 {
		code := g.codes[0]
		g.codes = g.codes[1:]
		return code, nil
	}
	g.n++
	return fmt.Sprintf("%0*d", length, g.n), nil
}

type recordingEvents struct {
	mu         sync.Mutex
	created    []string
	cancelled  []string
	linkFailed []string
	err        error
}

func (r *recordingEvents) BookingCreated(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, b.ID)
	return r.err
}

func (r *recordingEvents) BookingCancelled(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, b.ID)
	return r.err
}

func (r *recordingEvents) BookingLinkFailed(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linkFailed = append(r.linkFailed, b.ID)
	return r.err
}

type recordingCache struct {
	mu      sync.Mutex
	deleted []string
}

func (c *recordingCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (c *recordingCache) Set(context.Context, string, any) error         { return nil }
func (c *recordingCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	return nil
}
