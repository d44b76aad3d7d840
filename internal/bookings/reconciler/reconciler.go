// Package reconciler repairs the booking, room and user documents when a
// create or cancel stopped halfway and left them disagreeing.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "paradisian/internal/bookings/errors"
	"paradisian/internal/bookings/events"
	"paradisian/internal/bookings/policy"
	roomserrors "paradisian/internal/rooms/errors"
	userserrors "paradisian/internal/users/errors"
	"paradisian/pkg/cache"
	"paradisian/pkg/config"
	"paradisian/pkg/model"

	"github.com/google/uuid"
)

// ErrRoomBusy reports a repair that could not take the room lock.
var ErrRoomBusy = errors.New("room is locked by another writer")

type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindCreatedBefore(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]*model.Booking, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Delete(ctx context.Context, id string) error
}

type RoomStore interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindLinked(ctx context.Context) ([]*model.Room, error)
	AppendBooking(ctx context.Context, roomID string, ref model.BookingRef, expectedVersion int64) error
	RemoveBooking(ctx context.Context, roomID string, bookingID string) (bool, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindLinked(ctx context.Context) ([]*model.User, error)
	AppendBooking(ctx context.Context, userID string, ref model.BookingRef) error
	RemoveBooking(ctx context.Context, userID string, bookingID string) (bool, error)
}

type RoomLocker interface {
	Acquire(ctx context.Context, lock *model.RoomLock) error
	Release(ctx context.Context, roomID string, owner string) error
}

// ReconcileReport counts what one pass found and changed.
type ReconcileReport struct {
	Scanned           int `json:"scanned"`
	OrphansDeleted    int `json:"orphans_deleted"`
	UserLinksRestored int `json:"user_links_restored"`
	RoomLinksRestored int `json:"room_links_restored"`
	ConflictsRemoved  int `json:"conflicts_removed"`
	StaleRoomRefs     int `json:"stale_room_refs"`
	StaleUserRefs     int `json:"stale_user_refs"`
	Skipped           int `json:"skipped"`
	Failed            int `json:"failed"`
}

// Repairs is the number of documents the pass changed.
func (r ReconcileReport) Repairs() int {
	return r.OrphansDeleted + r.UserLinksRestored + r.RoomLinksRestored +
		r.ConflictsRemoved + r.StaleRoomRefs + r.StaleUserRefs
}

func (r *ReconcileReport) merge(o ReconcileReport) {
	r.Scanned += o.Scanned
	r.OrphansDeleted += o.OrphansDeleted
	r.UserLinksRestored += o.UserLinksRestored
	r.RoomLinksRestored += o.RoomLinksRestored
	r.ConflictsRemoved += o.ConflictsRemoved
	r.StaleRoomRefs += o.StaleRoomRefs
	r.StaleUserRefs += o.StaleUserRefs
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

type Deps struct {
	Bookings BookingStore
	Rooms    RoomStore
	Users    UserStore
	Locks    RoomLocker
	Policy   policy.Overlap
	Cache    cache.Cache
}

type Reconciler struct {
	bookings BookingStore
	rooms    RoomStore
	users    UserStore
	locks    RoomLocker
	policy   policy.Overlap
	cache    cache.Cache
	cfg      *config.Config
	now      func() time.Time
}

func New(deps Deps, cfg *config.Config) *Reconciler {
	r := &Reconciler{
		bookings: deps.Bookings,
		rooms:    deps.Rooms,
		users:    deps.Users,
		locks:    deps.Locks,
		policy:   deps.Policy,
		cache:    deps.Cache,
		cfg:      cfg,
		now:      time.Now,
	}
	if r.policy == nil {
		r.policy = policy.Conservative{}
	}
	if r.cache == nil {
		r.cache = cache.Noop{}
	}
	return r
}

// Run reconciles once immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		report, err := r.Reconcile(ctx)
		if err != nil && ctx.Err() == nil {
			r.cfg.Log.Error("Reconcile pass failed", "error", err)
		} else if report.Repairs() > 0 || report.Failed > 0 {
			r.cfg.Log.Info("Reconcile pass repaired documents", "report", report)
		} else {
			r.cfg.Log.Debug("Reconcile pass found nothing to repair", "scanned", report.Scanned)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Reconcile sweeps every booking older than the grace period, then drops
// room and user summaries that point at deleted bookings. Younger bookings
// may belong to a create that is still running and are left alone.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	cutoff := r.now().UTC().Add(-r.cfg.ReconcileGracePeriod)
	batch := max(r.cfg.ReconcileBatchSize, 1)

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		page, err := r.bookings.FindCreatedBefore(ctx, cutoff, afterID, batch)
		if err != nil {
			return report, fmt.Errorf("failed to list bookings: %w", err)
		}
		for _, b := range page {
			report.Scanned++
			one, err := r.reconcile(ctx, b)
			report.merge(one)
			if err != nil {
				report.Failed++
				r.cfg.Log.Error("Failed to reconcile booking", "booking_id", b.ID, "error", err)
			}
		}
		if len(page) < batch {
			break
		}
		afterID = page[len(page)-1].ID
	}

	stale, err := r.dropStaleRoomRefs(ctx)
	report.merge(stale)
	if err != nil {
		return report, err
	}
	stale, err = r.dropStaleUserRefs(ctx)
	report.merge(stale)
	if err != nil {
		return report, err
	}

	return report, nil
}

// ReconcileBooking repairs a single booking. A booking that no longer exists
// needs nothing, and one younger than the grace period is skipped because a
// create or cancel may still be working on it.
func (r *Reconciler) ReconcileBooking(ctx context.Context, id string) (ReconcileReport, error) {
	return r.reconcileByID(ctx, id, true)
}

func (r *Reconciler) reconcileByID(ctx context.Context, id string, honorGrace bool) (ReconcileReport, error) {
	b, err := r.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return ReconcileReport{}, nil
		}
		return ReconcileReport{}, fmt.Errorf("failed to load booking %s: %w", id, err)
	}

	if honorGrace && b.CreatedAt.After(r.now().UTC().Add(-r.cfg.ReconcileGracePeriod)) {
		return ReconcileReport{Scanned: 1, Skipped: 1}, nil
	}

	report, err := r.reconcile(ctx, b)
	report.Scanned++
	return report, err
}

// HandleEvent reconciles the booking named by a lifecycle event.
//
// A link failure comes from a create that has already returned, so the
// booking is repaired at once; a busy room yields ErrRoomBusy for a retry.
// For a cancellation whose booking is gone any summary the cancel left on the
// room or user is removed.
func (r *Reconciler) HandleEvent(ctx context.Context, event *events.BookingEvent) (ReconcileReport, error) {
	if event.Type == events.TypeBookingLinkFailed {
		report, err := r.reconcileByID(ctx, event.BookingID, false)
		if err == nil && report.Skipped > 0 {
			err = ErrRoomBusy
		}
		return report, err
	}

	report, err := r.ReconcileBooking(ctx, event.BookingID)
	if err != nil || event.Type != events.TypeBookingCancelled {
		return report, err
	}

	existing, err := r.bookings.ExistingIDs(ctx, []string{event.BookingID})
	if err != nil {
		return report, fmt.Errorf("failed to check booking: %w", err)
	}
	if existing[event.BookingID] {
		return report, nil
	}

	if removed, err := r.users.RemoveBooking(ctx, event.UserID, event.BookingID); err != nil && !isUserGone(err) {
		return report, fmt.Errorf("failed to unlink user: %w", err)
	} else if removed {
		report.StaleUserRefs++
	}
	if removed, err := r.rooms.RemoveBooking(ctx, event.RoomID, event.BookingID); err != nil && !isRoomGone(err) {
		return report, fmt.Errorf("failed to unlink room: %w", err)
	} else if removed {
		report.StaleRoomRefs++
		r.invalidate(ctx, event.RoomID)
	}
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context, b *model.Booking) (ReconcileReport, error) {
	var report ReconcileReport

	room, err := r.rooms.FindByID(ctx, b.RoomID)
	roomGone := isRoomGone(err)
	if err != nil && !roomGone {
		return report, fmt.Errorf("failed to load room %s: %w", b.RoomID, err)
	}
	user, err := r.users.FindByID(ctx, b.UserID)
	userGone := isUserGone(err)
	if err != nil && !userGone {
		return report, fmt.Errorf("failed to load user %s: %w", b.UserID, err)
	}

	if roomGone || userGone {
		if err := r.discard(ctx, b, !userGone, !roomGone); err != nil {
			return report, err
		}
		r.cfg.Log.Warn("Deleted orphaned booking",
			"booking_id", b.ID, "room_missing", roomGone, "user_missing", userGone)
		report.OrphansDeleted++
		return report, nil
	}

	if !user.HasBooking(b.ID) {
		if err := r.users.AppendBooking(ctx, b.UserID, b.Ref()); err != nil {
			return report, fmt.Errorf("failed to link user: %w", err)
		}
		r.cfg.Log.Info("Restored user link", "booking_id", b.ID, "user_id", b.UserID)
		report.UserLinksRestored++
	}

	if !room.HasBooking(b.ID) {
		linked, err := r.linkRoom(ctx, b)
		report.merge(linked)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// linkRoom adds b to its room under the room lock. A stay that now collides
// with the room's other bookings cannot be kept, so the booking is removed.
func (r *Reconciler) linkRoom(ctx context.Context, b *model.Booking) (ReconcileReport, error) {
	var report ReconcileReport

	release, held, err := r.tryLock(ctx, b.RoomID)
	if err != nil {
		return report, err
	}
	if !held {
		report.Skipped++
		return report, nil
	}
	defer release()

	room, err := r.rooms.FindByID(ctx, b.RoomID)
	if err != nil {
		return report, fmt.Errorf("failed to reload room %s: %w", b.RoomID, err)
	}
	if room.HasBooking(b.ID) {
		return report, nil
	}

	if clash, found := policy.FirstConflict(r.policy, b.Stay(), room.StayRanges()); found {
		if err := r.discard(ctx, b, true, false); err != nil {
			return report, err
		}
		r.cfg.Log.Warn("Removed unlinked booking that collides with the room's bookings",
			"booking_id", b.ID, "room_id", b.RoomID, "stay", b.Stay().String(), "clash", clash.String())
		report.ConflictsRemoved++
		return report, nil
	}

	err = r.rooms.AppendBooking(ctx, b.RoomID, b.Ref(), room.BookingsVersion)
	if errors.Is(err, roomserrors.ErrVersionConflict) {
		report.Skipped++
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("failed to link room: %w", err)
	}
	r.invalidate(ctx, b.RoomID)

	r.cfg.Log.Info("Restored room link", "booking_id", b.ID, "room_id", b.RoomID)
	report.RoomLinksRestored++
	return report, nil
}

// tryLock takes the room lock without waiting. held is false when another
// writer owns it; the next pass will retry.
func (r *Reconciler) tryLock(ctx context.Context, roomID string) (release func(), held bool, err error) {
	if r.locks == nil {
		return func() {}, true, nil
	}

	owner := uuid.NewString()
	err = r.locks.Acquire(ctx, &model.RoomLock{
		ID:        roomID,
		Owner:     owner,
		ExpiresAt: r.now().UTC().Add(r.cfg.RoomLockTTL),
	})
	if errors.Is(err, bookingserrors.ErrRoomLocked) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire room lock: %w", err)
	}

	return func() {
		if err := r.locks.Release(context.WithoutCancel(ctx), roomID, owner); err != nil {
			r.cfg.Log.Warn("Failed to release room lock", "room_id", roomID, "error", err)
		}
	}, true, nil
}

// discard unlinks b from whichever side still exists and deletes it, in the
// same order a cancel uses.
func (r *Reconciler) discard(ctx context.Context, b *model.Booking, unlinkUser, unlinkRoom bool) error {
	if unlinkUser {
		if _, err := r.users.RemoveBooking(ctx, b.UserID, b.ID); err != nil && !isUserGone(err) {
			return fmt.Errorf("failed to unlink user: %w", err)
		}
	}
	if unlinkRoom {
		if _, err := r.rooms.RemoveBooking(ctx, b.RoomID, b.ID); err != nil && !isRoomGone(err) {
			return fmt.Errorf("failed to unlink room: %w", err)
		}
		r.invalidate(ctx, b.RoomID)
	}
	if err := r.bookings.Delete(ctx, b.ID); err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

func (r *Reconciler) dropStaleRoomRefs(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	rooms, err := r.rooms.FindLinked(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list linked rooms: %w", err)
	}

	for _, room := range rooms {
		missing, err := r.missingBookings(ctx, room.Bookings)
		if err != nil {
			return report, err
		}
		for _, id := range missing {
			removed, err := r.rooms.RemoveBooking(ctx, room.ID, id)
			if err != nil {
				report.Failed++
				r.cfg.Log.Error("Failed to drop stale room summary", "room_id", room.ID, "booking_id", id, "error", err)
				continue
			}
			if removed {
				r.cfg.Log.Warn("Dropped stale room summary", "room_id", room.ID, "booking_id", id)
				report.StaleRoomRefs++
			}
		}
		if len(missing) > 0 {
			r.invalidate(ctx, room.ID)
		}
	}
	return report, nil
}

func (r *Reconciler) dropStaleUserRefs(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	users, err := r.users.FindLinked(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list linked users: %w", err)
	}

	for _, user := range users {
		missing, err := r.missingBookings(ctx, user.Bookings)
		if err != nil {
			return report, err
		}
		for _, id := range missing {
			removed, err := r.users.RemoveBooking(ctx, user.ID, id)
			if err != nil {
				report.Failed++
				r.cfg.Log.Error("Failed to drop stale user summary", "user_id", user.ID, "booking_id", id, "error", err)
				continue
			}
			if removed {
				r.cfg.Log.Warn("Dropped stale user summary", "user_id", user.ID, "booking_id", id)
				report.StaleUserRefs++
			}
		}
	}
	return report, nil
}

func (r *Reconciler) missingBookings(ctx context.Context, refs []model.BookingRef) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}

	existing, err := r.bookings.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Reconciler) invalidate(ctx context.Context, roomID string) {
	if err := r.cache.Delete(ctx, cache.RoomKey(roomID)); err != nil {
		r.cfg.Log.Warn("Failed to invalidate room cache", "room_id", roomID, "error", err)
	}
}

func isRoomGone(err error) bool {
	return errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID)
}

func isUserGone(err error) bool {
	return errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID)
}
