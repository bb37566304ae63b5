package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	"roombook/pkg/clock"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, request *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByRoom(ctx context.Context, roomID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, request *model.BookingRequest) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	users     repository.UserDirectory
	rooms     repository.MeetingRoomDirectory
	validator *validator.BookingValidator
	emitter   *events.Emitter
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	users repository.UserDirectory,
	rooms repository.MeetingRoomDirectory,
	validator *validator.BookingValidator,
	emitter *events.Emitter,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		users:     users,
		rooms:     rooms,
		validator: validator,
		emitter:   emitter,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, request *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(request)
	if err := s.validate(request); err != nil {
		return nil, err
	}

	if err := s.verifyBookable(ctx, request); err != nil {
		return nil, err
	}

	// The per-room lock serializes the conflict search and the insert that
	// follows. Losing the lock race means another request is booking this
	// room right now, which is reported the same way as a stored conflict.
	lockID, err := s.acquireRoomLock(ctx, request.MeetingRoomID, request.StartTime, request.EndTime)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	booking := requestToBooking(request)
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoConflict(sessCtx, request.MeetingRoomID, request.StartTime, request.EndTime, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeBookingCreated, booking)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"meeting_room_id", booking.MeetingRoomID,
		"booked_by_id", booking.BookedByID,
		"start_time", booking.StartTime,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, bookingserrors.BookingNotFound(id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// GetAll lists bookings. An empty result is a valid answer, never an error.
func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
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

func (s *bookingService) GetByRoom(ctx context.Context, roomID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if roomID == "" {
		return nil, 0, apperrors.InvalidInput("Meeting room ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByRoom(ctx, roomID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings by room", "meeting_room_id", roomID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByRoom(ctx, roomID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings by room", "meeting_room_id", roomID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
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

// Update replaces every mutable field of the booking at once. The stored
// booking's own interval never counts against it during the conflict search.
func (s *bookingService) Update(ctx context.Context, id string, request *model.BookingRequest) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, bookingserrors.BookingNotFound(id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to check booking existence", err)
	}

	s.sanitize(request)
	if err := s.validate(request); err != nil {
		return nil, err
	}

	if err := s.verifyBookable(ctx, request); err != nil {
		return nil, err
	}

	lockID, err := s.acquireRoomLock(ctx, request.MeetingRoomID, request.StartTime, request.EndTime)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	booking := requestToBooking(request)
	booking.ID = id
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoConflict(sessCtx, request.MeetingRoomID, request.StartTime, request.EndTime, id); err != nil {
			return err
		}
		if _, err := s.repo.Update(sessCtx, id, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return bookingserrors.BookingNotFound(id)
			}
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeBookingUpdated, booking)

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return booking, nil
}

// Delete requires only that the booking exists. Past bookings can be removed.
func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return bookingserrors.BookingNotFound(id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to check booking existence", err)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return bookingserrors.BookingNotFound(id)
			}
			return apperrors.Internal("Failed to delete booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(ctx, events.TypeBookingDeleted, existing)

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *bookingService) sanitize(r *model.BookingRequest) {
	r.Purpose = sanitizer.NormalizePurpose(r.Purpose)
}

func (s *bookingService) validate(request *model.BookingRequest) error {
	if err := s.validator.Validate(request); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// verifyBookable runs the ordered rejection checks that do not need the
// stored bookings: user existence, room existence, then the time rules.
// The first violated rule decides the error.
func (s *bookingService) verifyBookable(ctx context.Context, request *model.BookingRequest) error {
	userExists, err := s.users.Exists(ctx, request.BookedByID)
	if err != nil {
		return apperrors.Internal("Failed to check booking user", err)
	}
	if !userExists {
		return bookingserrors.UserNotFound(request.BookedByID)
	}

	roomExists, err := s.rooms.Exists(ctx, request.MeetingRoomID)
	if err != nil {
		return apperrors.Internal("Failed to check meeting room", err)
	}
	if !roomExists {
		return bookingserrors.MeetingRoomNotFound(request.MeetingRoomID)
	}

	// A booking starting exactly now is acceptable.
	now := s.clock.Now()
	if request.StartTime.Before(now) {
		return bookingserrors.PastStartDate(request.StartTime, now)
	}
	if request.EndTime.Before(now) {
		return bookingserrors.PastEndDate(request.EndTime, now)
	}
	if !request.EndTime.After(request.StartTime) {
		return bookingserrors.InvalidDateRange(request.StartTime, request.EndTime)
	}

	return nil
}

// verifyNoConflict searches the room's bookings for an interval intersecting
// [start, end). Intervals are half-open, so a booking ending exactly at start
// does not conflict.
func (s *bookingService) verifyNoConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) error {
	existing, err := s.repo.FindOverlapping(ctx, roomID, start, end, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	if len(existing) > 0 {
		return bookingserrors.DateConflict(roomID, start, end)
	}
	return nil
}

func requestToBooking(request *model.BookingRequest) *model.Booking {
	return &model.Booking{
		MeetingRoomID: request.MeetingRoomID,
		BookedByID:    request.BookedByID,
		StartTime:     request.StartTime,
		EndTime:       request.EndTime,
		Purpose:       request.Purpose,
	}
}

// acquireRoomLock creates the room's advisory lock. The lock covers the whole
// room rather than a slot: two overlapping requests rarely share a start time,
// but they always share the room.
func (s *bookingService) acquireRoomLock(ctx context.Context, roomID string, start, end time.Time) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s", roomID)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: s.clock.Now().Add(s.cfg.BookingLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return "", bookingserrors.DateConflict(roomID, start, end)
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

// releaseRoomLock removes the advisory lock
func (s *bookingService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
