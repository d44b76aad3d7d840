package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	"paradisian/internal/bookings/events"
	"paradisian/internal/bookings/policy"
	"paradisian/internal/bookings/validator"
	roomserrors "paradisian/internal/rooms/errors"
	userserrors "paradisian/internal/users/errors"
	"paradisian/pkg/cache"
	"paradisian/pkg/config"
	apperrors "paradisian/pkg/errors"
	"paradisian/pkg/model"

	"github.com/google/uuid"
)

const lockPollInterval = 25 * time.Millisecond

type BookingService interface {
	CreateBooking(ctx context.Context, roomID, userID string, stay model.StayRange, guests model.Guests) (*model.Booking, error)
	CancelBooking(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	FindByConfirmationCode(ctx context.Context, code string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByConfirmationCode(ctx context.Context, code string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type RoomStore interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	AppendBooking(ctx context.Context, roomID string, ref model.BookingRef, expectedVersion int64) error
	RemoveBooking(ctx context.Context, roomID string, bookingID string) (bool, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	AppendBooking(ctx context.Context, userID string, ref model.BookingRef) error
	RemoveBooking(ctx context.Context, userID string, bookingID string) (bool, error)
}

type RoomLocker interface {
	Acquire(ctx context.Context, lock *model.RoomLock) error
	Release(ctx context.Context, roomID string, owner string) error
}

type CodeGenerator interface {
	Generate(length int) (string, error)
}

// EventPublisher announces committed booking changes. Failures never undo
// the change that triggered them.
type EventPublisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking) error
	BookingCancelled(ctx context.Context, booking *model.Booking) error
	BookingLinkFailed(ctx context.Context, booking *model.Booking) error
}

type Deps struct {
	Bookings  BookingStore
	Rooms     RoomStore
	Users     UserStore
	Locks     RoomLocker
	Codes     CodeGenerator
	Events    EventPublisher
	Cache     cache.Cache
	Policy    policy.Overlap
	Validator *validator.BookingValidator
}

type bookingService struct {
	bookings  BookingStore
	rooms     RoomStore
	users     UserStore
	locks     RoomLocker
	codes     CodeGenerator
	events    EventPublisher
	cache     cache.Cache
	policy    policy.Overlap
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(deps Deps, cfg *config.Config) BookingService {
	s := &bookingService{
		bookings:  deps.Bookings,
		rooms:     deps.Rooms,
		users:     deps.Users,
		locks:     deps.Locks,
		codes:     deps.Codes,
		events:    deps.Events,
		cache:     deps.Cache,
		policy:    deps.Policy,
		validator: deps.Validator,
		cfg:       cfg,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.policy == nil {
		s.policy = policy.Conservative{}
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	return s
}

// CreateBooking reserves roomID for userID over stay. The booking document is
// written first, then linked to the user and finally to the room.
//
// A link that definitely did not happen (the user or room is gone, or the
// room filled up meanwhile) undoes the earlier writes. A link write that
// failed with an unknown outcome leaves everything in place and reports a
// link failure so the reconciler completes the booking.
func (s *bookingService) CreateBooking(ctx context.Context, roomID, userID string, stay model.StayRange, guests model.Guests) (*model.Booking, error) {
	if !stay.Valid() {
		return nil, apperrors.InvalidRange(fmt.Sprintf("Check-out date must come after check-in date, got %s", stay))
	}
	if s.validator != nil {
		if err := s.validator.ValidateGuests(guests); err != nil {
			s.cfg.Log.Warn("Booking guests validation failed", "room_id", roomID, "error", err)
			return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
		}
	}

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	release, err := s.lockRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock so the overlap check sees every committed booking.
	room, err = s.loadRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvailability(room, stay, ""); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		CheckIn:          stay.CheckIn,
		CheckOut:         stay.CheckOut,
		NumOfAdults:      guests.Adults,
		NumOfChildren:    guests.Children,
		TotalNumOfGuests: guests.Total(),
		RoomID:           room.ID,
		UserID:           userID,
	}
	if err := s.persist(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.users.AppendBooking(ctx, userID, booking.Ref()); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			s.discard(ctx, booking, false)
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		s.abandon(ctx, booking, err)
		return nil, apperrors.StorageFailure("Failed to link booking to user", err)
	}

	if err := s.linkRoom(ctx, room, booking); err != nil {
		var unknown *unknownOutcomeError
		if errors.As(err, &unknown) {
			s.abandon(ctx, booking, unknown.err)
			return nil, apperrors.StorageFailure("Failed to link booking to room", unknown.err)
		}
		s.discard(ctx, booking, true)
		return nil, err
	}

	s.invalidateRoom(ctx, room.ID)
	if err := s.events.BookingCreated(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking created event", "booking_id", booking.ID, "error", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
		"stay", stay.String(),
		"confirmation_code", booking.ConfirmationCode,
	)
	return booking, nil
}

// CancelBooking removes the references held by the user and the room before
// deleting the booking itself. A missing user or room is logged and skipped.
func (s *bookingService) CancelBooking(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return s.mapBookingErr(err, id, "Failed to retrieve booking")
	}

	removed, err := s.users.RemoveBooking(ctx, booking.UserID, booking.ID)
	switch {
	case errors.Is(err, userserrors.ErrNotFound), errors.Is(err, userserrors.ErrInvalidID):
		s.cfg.Log.Warn("Booking owner missing during cancellation", "booking_id", id, "user_id", booking.UserID)
	case err != nil:
		return apperrors.StorageFailure("Failed to unlink booking from user", err)
	case !removed:
		s.cfg.Log.Warn("User did not reference booking", "booking_id", id, "user_id", booking.UserID)
	}

	removed, err = s.rooms.RemoveBooking(ctx, booking.RoomID, booking.ID)
	switch {
	case errors.Is(err, roomserrors.ErrNotFound), errors.Is(err, roomserrors.ErrInvalidID):
		s.cfg.Log.Warn("Booked room missing during cancellation", "booking_id", id, "room_id", booking.RoomID)
	case err != nil:
		return apperrors.StorageFailure("Failed to unlink booking from room", err)
	case !removed:
		s.cfg.Log.Warn("Room did not reference booking", "booking_id", id, "room_id", booking.RoomID)
	}

	if err := s.bookings.Delete(ctx, booking.ID); err != nil {
		return s.mapBookingErr(err, id, "Failed to delete booking")
	}

	s.invalidateRoom(ctx, booking.RoomID)
	if err := s.events.BookingCancelled(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking cancelled event", "booking_id", booking.ID, "error", err)
	}

	s.cfg.Log.Info("Booking cancelled successfully", "id", id, "room_id", booking.RoomID, "user_id", booking.UserID)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapBookingErr(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) FindByConfirmationCode(ctx context.Context, code string) (*model.Booking, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("Confirmation code cannot be empty")
	}

	booking, err := s.bookings.FindByConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking with confirmation code " + code)
		}
		return nil, apperrors.StorageFailure("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.bookings.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.StorageFailure("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.bookings.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.StorageFailure("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// --- Helpers ---

func (s *bookingService) loadRoom(ctx context.Context, roomID string) (*model.Room, error) {
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.StorageFailure("Failed to retrieve room", err)
	}
	return room, nil
}

func (s *bookingService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.StorageFailure("Failed to retrieve user", err)
	}
	return user, nil
}

// lockRoom takes the room's advisory lock, polling until RoomLockWait elapses.
// The returned func releases the lock even if ctx has been cancelled.
func (s *bookingService) lockRoom(ctx context.Context, roomID string) (func(), error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(s.cfg.RoomLockWait)

	for {
		lock := &model.RoomLock{
			ID:        roomID,
			Owner:     owner,
			ExpiresAt: time.Now().UTC().Add(s.cfg.RoomLockTTL),
		}
		err := s.locks.Acquire(ctx, lock)
		if err == nil {
			break
		}
		if !errors.Is(err, bookingserrors.ErrRoomLocked) {
			return nil, apperrors.StorageFailure("Failed to acquire room lock", err)
		}
		if time.Now().After(deadline) {
			return nil, apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.Timeout("Timed out waiting for room lock")
		case <-time.After(lockPollInterval):
		}
	}

	return func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), roomID, owner); err != nil {
			s.cfg.Log.Warn("Failed to release room lock", "room_id", roomID, "owner", owner, "error", err)
		}
	}, nil
}

// checkAvailability rejects stay when it collides with a booking on room,
// ignoring the booking with id skipID.
func (s *bookingService) checkAvailability(room *model.Room, stay model.StayRange, skipID string) error {
	existing := make([]model.StayRange, 0, len(room.Bookings))
	for _, ref := range room.Bookings {
		if ref.ID == skipID {
			continue
		}
		existing = append(existing, ref.Stay())
	}

	if clash, found := policy.FirstConflict(s.policy, stay, existing); found {
		return apperrors.Conflict(fmt.Sprintf(
			"Room %s is not available for %s: it is already booked for %s",
			room.ID, stay, clash,
		))
	}
	return nil
}

// persist stores booking under a fresh confirmation code, drawing another code
// when the unique index rejects the first.
func (s *bookingService) persist(ctx context.Context, booking *model.Booking) error {
	attempts := max(s.cfg.ConfirmationCodeAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		code, err := s.codes.Generate(s.cfg.ConfirmationCodeLength)
		if err != nil {
			return apperrors.Internal("Failed to generate confirmation code", err)
		}
		booking.ConfirmationCode = code

		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrDuplicateConfirmationCode) {
			return apperrors.StorageFailure("Failed to create booking", err)
		}
		s.cfg.Log.Warn("Confirmation code collision, drawing another", "attempt", attempt)
	}
	return apperrors.StorageFailure("Failed to create booking",
		fmt.Errorf("no unique confirmation code after %d attempts", attempts))
}

// linkRoom appends the booking to room guarded by the room's bookings
// version. A concurrent change forces a reload and a fresh overlap check.
func (s *bookingService) linkRoom(ctx context.Context, room *model.Room, booking *model.Booking) error {
	ref := booking.Ref()
	for attempt := 0; ; attempt++ {
		err := s.rooms.AppendBooking(ctx, room.ID, ref, room.BookingsVersion)
		if err == nil {
			return nil
		}
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Room", room.ID)
		}
		if !errors.Is(err, roomserrors.ErrVersionConflict) {
			return &unknownOutcomeError{err: err}
		}
		if attempt >= s.cfg.RoomVersionRetries {
			return apperrors.Conflict("Room bookings kept changing, please try again")
		}

		s.cfg.Log.Debug("Room bookings changed concurrently, retrying", "room_id", room.ID, "attempt", attempt+1)
		room, err = s.loadRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		if room.HasBooking(booking.ID) {
			return nil
		}
		if err := s.checkAvailability(room, booking.Stay(), booking.ID); err != nil {
			return err
		}
	}
}

// unknownOutcomeError wraps a failed write that may still have been applied.
type unknownOutcomeError struct {
	err error
}

func (e *unknownOutcomeError) Error() string { return e.err.Error() }
func (e *unknownOutcomeError) Unwrap() error { return e.err }

// abandon stops a create whose last write may or may not have landed. The
// booking stays in place and a link failure event asks the reconciler to
// finish linking it.
func (s *bookingService) abandon(ctx context.Context, booking *model.Booking, cause error) {
	ctx = context.WithoutCancel(ctx)
	s.cfg.Log.Error("Booking left partially linked",
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
		"error", cause,
	)
	s.invalidateRoom(ctx, booking.RoomID)
	if err := s.events.BookingLinkFailed(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking link failed event", "booking_id", booking.ID, "error", err)
	}
}

// discard undoes a booking whose links definitely did not all land. Failures
// are logged and left for the reconciler.
func (s *bookingService) discard(ctx context.Context, booking *model.Booking, linkedUser bool) {
	ctx = context.WithoutCancel(ctx)
	if linkedUser {
		if _, err := s.users.RemoveBooking(ctx, booking.UserID, booking.ID); err != nil {
			s.cfg.Log.Error("Failed to unlink discarded booking from user",
				"booking_id", booking.ID, "user_id", booking.UserID, "error", err)
		}
	}
	if err := s.bookings.Delete(ctx, booking.ID); err != nil {
		s.cfg.Log.Error("Failed to delete discarded booking", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) invalidateRoom(ctx context.Context, roomID string) {
	if err := s.cache.Delete(ctx, cache.RoomKey(roomID)); err != nil {
		s.cfg.Log.Warn("Failed to invalidate cached room", "room_id", roomID, "error", err)
	}
}

func (s *bookingService) mapBookingErr(err error, id, message string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.StorageFailure(message, err)
}
