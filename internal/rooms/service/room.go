package service

import (
	"context"
	"errors"

	roomserrors "paradisian/internal/rooms/errors"
	"paradisian/internal/rooms/repository"
	"paradisian/internal/rooms/validator"
	"paradisian/pkg/cache"
	"paradisian/pkg/config"
	apperrors "paradisian/pkg/errors"
	"paradisian/pkg/model"
	"paradisian/pkg/sanitizer"
	"paradisian/pkg/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomService interface {
	AddRoom(ctx context.Context, req *model.RoomRequest) (*model.Room, error)
	UpdateRoom(ctx context.Context, id string, update *model.RoomUpdate) (*model.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	GetRoomByID(ctx context.Context, id string) (*model.Room, error)
	GetAllRooms(ctx context.Context) ([]*model.Room, error)
	GetRoomTypes(ctx context.Context) ([]string, error)
	FindAvailableRooms(ctx context.Context, stay model.StayRange, roomType string) ([]*model.Room, error)
	ListFullyAvailableRooms(ctx context.Context) ([]*model.Room, error)
}

// BookedRoomFinder lists rooms holding a booking that touches stay.
type BookedRoomFinder interface {
	DistinctRoomIDsInRange(ctx context.Context, stay model.StayRange) ([]string, error)
}

type roomService struct {
	repo      repository.RoomRepository
	booked    BookedRoomFinder
	cache     cache.Cache
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	booked BookedRoomFinder,
	roomCache cache.Cache,
	validator *validator.RoomValidator,
	cfg *config.Config,
) RoomService {
	if roomCache == nil {
		roomCache = cache.Noop{}
	}
	return &roomService{
		repo:      repo,
		booked:    booked,
		cache:     roomCache,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *roomService) AddRoom(ctx context.Context, req *model.RoomRequest) (*model.Room, error) {
	req.RoomType = sanitizer.NormalizeRoomType(req.RoomType)
	req.Description = sanitizer.NormalizeDescription(req.Description)
	req.PhotoURL = sanitizer.NormalizeURL(req.PhotoURL)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return nil, apperrors.Validation("Room validation failed", validation.DetailsOf(err))
	}

	price, err := primitive.ParseDecimal128(req.Price)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid room price: " + req.Price)
	}

	room := &model.Room{
		RoomType:    req.RoomType,
		Price:       price,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	}
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return nil, apperrors.Validation("Room validation failed", validation.DetailsOf(err))
	}

	if err := s.repo.Create(ctx, room); err != nil {
		return nil, apperrors.StorageFailure("Failed to create room", err)
	}
	s.invalidate(ctx, cache.RoomTypesKey)

	s.cfg.Log.Info("Room created successfully", "id", room.ID, "room_type", room.RoomType)
	return room, nil
}

func (s *roomService) UpdateRoom(ctx context.Context, id string, update *model.RoomUpdate) (*model.Room, error) {
	if update == nil || update.Empty() {
		return nil, apperrors.InvalidInput("Room update must change at least one field")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", validation.DetailsOf(err))
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := mergeRoomUpdate(existing, update)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Room validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Room validation failed", validation.DetailsOf(err))
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.mapErr(err, id, "Failed to update room")
	}
	s.invalidate(ctx, cache.RoomKey(id), cache.RoomTypesKey)

	s.cfg.Log.Info("Room updated successfully", "id", id)
	return merged, nil
}

// DeleteRoom refuses while any booking still references the room.
func (s *roomService) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}

	if err := s.repo.DeleteIfUnbooked(ctx, id); err != nil {
		if errors.Is(err, roomserrors.ErrHasBookings) {
			return apperrors.Conflict("Room still has bookings and cannot be deleted")
		}
		return s.mapErr(err, id, "Failed to delete room")
	}
	s.invalidate(ctx, cache.RoomKey(id), cache.RoomTypesKey)

	s.cfg.Log.Info("Room deleted successfully", "id", id)
	return nil
}

func (s *roomService) GetRoomByID(ctx context.Context, id string) (*model.Room, error) {
	var cached model.Room
	if hit, err := s.cache.Get(ctx, cache.RoomKey(id), &cached); err != nil {
		s.cfg.Log.Warn("Room cache read failed", "id", id, "error", err)
	} else if hit {
		return &cached, nil
	}

	room, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.RoomKey(id), room); err != nil {
		s.cfg.Log.Warn("Room cache write failed", "id", id, "error", err)
	}
	return room, nil
}

func (s *roomService) GetAllRooms(ctx context.Context) ([]*model.Room, error) {
	rooms, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", err)
		return nil, apperrors.StorageFailure("Failed to retrieve rooms", err)
	}
	return rooms, nil
}

func (s *roomService) GetRoomTypes(ctx context.Context) ([]string, error) {
	var cached []string
	if hit, err := s.cache.Get(ctx, cache.RoomTypesKey, &cached); err != nil {
		s.cfg.Log.Warn("Room types cache read failed", "error", err)
	} else if hit {
		return cached, nil
	}

	types, err := s.repo.DistinctRoomTypes(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list room types", "error", err)
		return nil, apperrors.StorageFailure("Failed to retrieve room types", err)
	}
	if err := s.cache.Set(ctx, cache.RoomTypesKey, types); err != nil {
		s.cfg.Log.Warn("Room types cache write failed", "error", err)
	}
	return types, nil
}

// FindAvailableRooms returns rooms of roomType with no booking touching
// stay. A booking that ends on the requested check-in day, or starts on the
// requested check-out day, still excludes the room.
func (s *roomService) FindAvailableRooms(ctx context.Context, stay model.StayRange, roomType string) ([]*model.Room, error) {
	if !stay.Valid() {
		return nil, apperrors.InvalidRange("Check-out date must come after check-in date, got " + stay.String())
	}
	roomType = sanitizer.NormalizeRoomType(roomType)
	if roomType == "" {
		return nil, apperrors.InvalidInput("Room type is required")
	}

	bookedIDs, err := s.booked.DistinctRoomIDsInRange(ctx, stay)
	if err != nil {
		s.cfg.Log.Error("Failed to find booked rooms", "stay", stay.String(), "error", err)
		return nil, apperrors.StorageFailure("Failed to check room availability", err)
	}

	rooms, err := s.repo.FindByTypeExcluding(ctx, roomType, bookedIDs)
	if err != nil {
		s.cfg.Log.Error("Failed to find available rooms", "room_type", roomType, "error", err)
		return nil, apperrors.StorageFailure("Failed to check room availability", err)
	}

	s.cfg.Log.Debug("Availability search completed",
		"stay", stay.String(),
		"room_type", roomType,
		"booked", len(bookedIDs),
		"available", len(rooms),
	)
	return rooms, nil
}

func (s *roomService) ListFullyAvailableRooms(ctx context.Context) ([]*model.Room, error) {
	rooms, err := s.repo.FindWithNoBookings(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list unbooked rooms", "error", err)
		return nil, apperrors.StorageFailure("Failed to retrieve available rooms", err)
	}
	return rooms, nil
}

// --- Helpers ---

func (s *roomService) load(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, id, "Failed to retrieve room")
	}
	return room, nil
}

func (s *roomService) mapErr(err error, id, message string) error {
	if errors.Is(err, roomserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Room", id)
	}
	if errors.Is(err, roomserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid room ID format")
	}
	return apperrors.StorageFailure(message, err)
}

func (s *roomService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.cfg.Log.Warn("Failed to invalidate room cache", "keys", keys, "error", err)
	}
}

func mergeRoomUpdate(existing *model.Room, update *model.RoomUpdate) (*model.Room, error) {
	merged := *existing

	if update.RoomType != nil {
		merged.RoomType = sanitizer.NormalizeRoomType(*update.RoomType)
	}
	if update.Price != nil {
		price, err := primitive.ParseDecimal128(*update.Price)
		if err != nil {
			return nil, apperrors.InvalidInput("Invalid room price: " + *update.Price)
		}
		merged.Price = price
	}
	if update.Description != nil {
		merged.Description = sanitizer.NormalizeDescription(*update.Description)
	}
	if update.PhotoURL != nil {
		merged.PhotoURL = sanitizer.NormalizeURL(*update.PhotoURL)
	}

	return &merged, nil
}
