package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	"roombook/pkg/clock"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	mongotx "roombook/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testUserID  = "64f1b9f0a2d3c4e5f6a7b8c9"
	testRoomID  = "64f1b9f0a2d3c4e5f6a7b8ca"
	testBooking = "64f1b9f0a2d3c4e5f6a7b8cb"
)

// Mock repositories for testing

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc         func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	updateFunc          func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	deleteFunc          func(ctx context.Context, id string) error
	findOverlappingFunc func(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Booking, error)
	findByRoomFunc      func(ctx context.Context, roomID string, limit int, offset int64) ([]*model.Booking, error)
	countByRoomFunc     func(ctx context.Context, roomID string) (int64, error)
	countFunc           func(ctx context.Context) (int64, error)
	executeTxFunc       func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, roomID, start, end, excludeID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByRoom(ctx context.Context, roomID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByRoomFunc != nil {
		return m.findByRoomFunc(ctx, roomID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByRoom(ctx context.Context, roomID string) (int64, error) {
	if m.countByRoomFunc != nil {
		return m.countByRoomFunc(ctx, roomID)
	}
	return 0, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTxFunc != nil {
		return m.executeTxFunc(ctx, fn)
	}
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockDirectory struct {
	existsFunc func(ctx context.Context, id string) (bool, error)
}

func (m *mockDirectory) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, id)
	}
	return true, nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:            log,
		ReadTimeout:    5 * time.Second,
		BookingLockTTL: 10 * time.Second,
	}
}

func newTestService(
	repo repository.BookingRepository,
	locks repository.BookingLockRepository,
	users repository.UserDirectory,
	rooms repository.MeetingRoomDirectory,
	clk clock.Clock,
) *bookingService {
	cfg := testConfig()
	if repo == nil {
		repo = &mockBookingRepository{}
	}
	if locks == nil {
		locks = &mockLockRepository{}
	}
	if users == nil {
		users = &mockDirectory{}
	}
	if rooms == nil {
		rooms = &mockDirectory{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  locks,
		users:     users,
		rooms:     rooms,
		validator: validator.NewBookingValidator(cfg.Log),
		clock:     clk,
		cfg:       cfg,
	}
}

func validRequest(now time.Time) *model.BookingRequest {
	return &model.BookingRequest{
		MeetingRoomID: testRoomID,
		BookedByID:    testUserID,
		StartTime:     now.Add(time.Hour),
		EndTime:       now.Add(2 * time.Hour),
		Purpose:       "Sprint planning",
	}
}

func assertCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", wantCode)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != wantCode {
		t.Errorf("expected code %s, got %s", wantCode, appErr.Code)
	}
}

func TestCreate_Success(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var stored *model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			stored = booking
			return nil
		},
	}

	service := newTestService(repo, nil, nil, nil, clock.Fixed(now))
	booking, err := service.Create(context.Background(), validRequest(now))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("booking was not stored")
	}
	if booking.MeetingRoomID != testRoomID {
		t.Errorf("expected room %s, got %s", testRoomID, booking.MeetingRoomID)
	}
}

func TestCreate_ChecksRunInOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Each case violates every rule from its own downward; the first
	// violated rule must decide the error.
	tests := []struct {
		name       string
		userExists bool
		roomExists bool
		start      time.Time
		end        time.Time
		hasOverlap bool
		wantCode   string
	}{
		{
			name:       "unknown user wins over everything",
			userExists: false,
			roomExists: false,
			start:      now.Add(-2 * time.Hour),
			end:        now.Add(-3 * time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodeUserNotFound,
		},
		{
			name:       "unknown room wins over time rules",
			userExists: true,
			roomExists: false,
			start:      now.Add(-2 * time.Hour),
			end:        now.Add(-3 * time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodeMeetingRoomNotFound,
		},
		{
			name:       "past start wins over past end",
			userExists: true,
			roomExists: true,
			start:      now.Add(-2 * time.Hour),
			end:        now.Add(-3 * time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodePastStartDate,
		},
		{
			name:       "past end with future start",
			userExists: true,
			roomExists: true,
			start:      now.Add(time.Hour),
			end:        now.Add(-time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodePastEndDate,
		},
		{
			name:       "zero length interval",
			userExists: true,
			roomExists: true,
			start:      now.Add(time.Hour),
			end:        now.Add(time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodeInvalidDateRange,
		},
		{
			name:       "inverted future interval",
			userExists: true,
			roomExists: true,
			start:      now.Add(2 * time.Hour),
			end:        now.Add(time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodeInvalidDateRange,
		},
		{
			name:       "conflict is checked last",
			userExists: true,
			roomExists: true,
			start:      now.Add(time.Hour),
			end:        now.Add(2 * time.Hour),
			hasOverlap: true,
			wantCode:   bookingserrors.CodeDateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
					if tt.hasOverlap {
						return []*model.Booking{{ID: testBooking}}, nil
					}
					return []*model.Booking{}, nil
				},
			}
			users := &mockDirectory{existsFunc: func(ctx context.Context, id string) (bool, error) {
				return tt.userExists, nil
			}}
			rooms := &mockDirectory{existsFunc: func(ctx context.Context, id string) (bool, error) {
				return tt.roomExists, nil
			}}

			service := newTestService(repo, nil, users, rooms, clock.Fixed(now))

			request := validRequest(now)
			request.StartTime = tt.start
			request.EndTime = tt.end

			_, err := service.Create(context.Background(), request)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestCreate_StartExactlyNowIsAccepted(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	service := newTestService(nil, nil, nil, nil, clock.Fixed(now))

	request := validRequest(now)
	request.StartTime = now
	request.EndTime = now.Add(time.Hour)

	if _, err := service.Create(context.Background(), request); err != nil {
		t.Fatalf("booking starting exactly now should be accepted, got: %v", err)
	}
}

func TestCreate_BackToBackDoesNotConflict(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	existing := &model.Booking{
		ID:            testBooking,
		MeetingRoomID: testRoomID,
		StartTime:     now.Add(1 * time.Hour),
		EndTime:       now.Add(2 * time.Hour),
	}

	// Mirrors the repository's half-open interval filter:
	// stored.start < end AND stored.end > start.
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			if existing.StartTime.Before(end) && existing.EndTime.After(start) {
				return []*model.Booking{existing}, nil
			}
			return []*model.Booking{}, nil
		},
	}

	service := newTestService(repo, nil, nil, nil, clock.Fixed(now))

	// Starts exactly when the existing booking ends.
	request := validRequest(now)
	request.StartTime = existing.EndTime
	request.EndTime = existing.EndTime.Add(time.Hour)

	if _, err := service.Create(context.Background(), request); err != nil {
		t.Fatalf("back-to-back booking should not conflict, got: %v", err)
	}

	// Overlaps the existing booking by one minute.
	request = validRequest(now)
	request.StartTime = existing.EndTime.Add(-time.Minute)
	request.EndTime = existing.EndTime.Add(time.Hour)

	_, err := service.Create(context.Background(), request)
	assertCode(t, err, bookingserrors.CodeDateConflict)
}

func TestCreate_LockHeldReportsConflict(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, bookingserrors.ErrLockHeld
		},
	}

	service := newTestService(nil, locks, nil, nil, clock.Fixed(now))

	_, err := service.Create(context.Background(), validRequest(now))
	assertCode(t, err, bookingserrors.CodeDateConflict)
}

func TestCreate_LockReleasedAfterCommit(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var created, deleted string
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			created = lock.ID
			return lock, nil
		},
		deleteFunc: func(ctx context.Context, lockID string) error {
			deleted = lockID
			return nil
		},
	}

	service := newTestService(nil, locks, nil, nil, clock.Fixed(now))

	if _, err := service.Create(context.Background(), validRequest(now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == "" {
		t.Fatal("lock was never acquired")
	}
	if deleted != created {
		t.Errorf("expected lock %s to be released, released %s", created, deleted)
	}
}

func TestUpdate_ExcludesOwnInterval(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	stored := &model.Booking{
		ID:            testBooking,
		MeetingRoomID: testRoomID,
		BookedByID:    testUserID,
		StartTime:     now.Add(1 * time.Hour),
		EndTime:       now.Add(2 * time.Hour),
		Purpose:       "Sprint planning",
	}

	var capturedExclude string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return stored, nil
		},
		findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			capturedExclude = excludeID
			if excludeID == stored.ID {
				return []*model.Booking{}, nil
			}
			return []*model.Booking{stored}, nil
		},
	}

	service := newTestService(repo, nil, nil, nil, clock.Fixed(now))

	// Extends the booking's own slot; only the booking itself overlaps.
	request := validRequest(now)
	request.StartTime = stored.StartTime
	request.EndTime = stored.EndTime.Add(30 * time.Minute)

	if _, err := service.Update(context.Background(), stored.ID, request); err != nil {
		t.Fatalf("update over own interval should succeed, got: %v", err)
	}
	if capturedExclude != stored.ID {
		t.Errorf("expected overlap search to exclude %s, excluded %q", stored.ID, capturedExclude)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	service := newTestService(&mockBookingRepository{}, nil, nil, nil, clock.Fixed(now))

	_, err := service.Update(context.Background(), testBooking, validRequest(now))
	assertCode(t, err, bookingserrors.CodeBookingNotFound)
}

func TestDelete_RequiresOnlyExistence(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// A booking entirely in the past can still be deleted.
	past := &model.Booking{
		ID:            testBooking,
		MeetingRoomID: testRoomID,
		BookedByID:    testUserID,
		StartTime:     now.Add(-3 * time.Hour),
		EndTime:       now.Add(-2 * time.Hour),
	}

	var deletedID string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return past, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}

	service := newTestService(repo, nil, nil, nil, clock.Fixed(now))

	if err := service.Delete(context.Background(), past.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedID != past.ID {
		t.Errorf("expected delete of %s, got %q", past.ID, deletedID)
	}
}

func TestDelete_NotFound(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	service := newTestService(&mockBookingRepository{}, nil, nil, nil, clock.Fixed(now))

	err := service.Delete(context.Background(), testBooking)
	assertCode(t, err, bookingserrors.CodeBookingNotFound)
}

// TestCreate_ConcurrentSameSlot drives concurrent creates for the same room
// and interval through an in-memory lock and store. Exactly one must win.
// Run with -race.
func TestCreate_ConcurrentSameSlot(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	held := make(map[string]bool)
	var stored []*model.Booking

	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			mu.Lock()
			defer mu.Unlock()
			if held[lock.ID] {
				return nil, bookingserrors.ErrLockHeld
			}
			held[lock.ID] = true
			return lock, nil
		},
		deleteFunc: func(ctx context.Context, lockID string) error {
			mu.Lock()
			defer mu.Unlock()
			delete(held, lockID)
			return nil
		},
	}

	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			mu.Lock()
			defer mu.Unlock()
			var overlapping []*model.Booking
			for _, b := range stored {
				if b.MeetingRoomID == roomID && b.StartTime.Before(end) && b.EndTime.After(start) {
					overlapping = append(overlapping, b)
				}
			}
			return overlapping, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, booking)
			return nil
		},
	}

	service := newTestService(repo, locks, nil, nil, clock.Fixed(now))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), validRequest(now))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == bookingserrors.CodeDateConflict {
			conflicts++
			continue
		}
		t.Errorf("unexpected error: %v", err)
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 successful booking, got %d", successes)
	}
	if successes+conflicts != workers {
		t.Errorf("expected %d total outcomes, got %d successes and %d conflicts", workers, successes, conflicts)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stored) != 1 {
		t.Errorf("expected 1 stored booking, got %d", len(stored))
	}
}

func TestGetAll_EmptyListIsNotAnError(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	service := newTestService(&mockBookingRepository{}, nil, nil, nil, clock.Fixed(now))

	bookings, count, err := service.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if len(bookings) != 0 {
		t.Errorf("expected no bookings, got %d", len(bookings))
	}
}
